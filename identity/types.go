// Package identity finds and validates fediverse handles (@name@host) in
// profile data scraped from the host service, and resolves a profile into
// the Record stored in the session directory.
//
// The package is pure: no I/O, no shared state. Malformed URLs are logged
// through the Extractor's logger and skipped.
package identity

// ProfileInput is one profile recovered from a network response, before
// resolution. URLs are ordered by trust: profile link field first, then bio
// links, then location links.
type ProfileInput struct {
	NativeHandle string   `json:"native_handle"`
	NativeID     string   `json:"native_id,omitempty"`
	DisplayName  string   `json:"display_name,omitempty"`
	Bio          string   `json:"bio,omitempty"`
	URLs         []string `json:"urls,omitempty"`
}

// Record is the resolved identity of one native account. It is replaced
// wholesale whenever the same account is seen again.
type Record struct {
	NativeHandle       string `json:"native_handle"`
	NativeID           string `json:"native_id,omitempty"`
	FederatedHandle    string `json:"federated_handle,omitempty"` // @name@host
	FederatedURL       string `json:"federated_url,omitempty"`    // https://host/@name
	MentionsFederation bool   `json:"mentions_federation"`
}

// Resolved reports whether a federated handle was found.
func (r Record) Resolved() bool {
	return r.FederatedHandle != ""
}
