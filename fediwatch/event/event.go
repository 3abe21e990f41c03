// Package event defines the records fediwatch emits to its sinks. These are
// the public contract for consumers of the JSON-lines stream or of the
// in-process callback sink.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/fedimark/identity"
)

// Type tags an envelope on the JSON-lines stream.
type Type string

const (
	TypeDiscovery    Type = "discovery"
	TypeAugmentation Type = "augmentation"
)

// Discovery is emitted when a directory upsert changed the stored record.
type Discovery struct {
	ID        string          `json:"id"` // UUIDv7
	PageID    string          `json:"page_id"`
	PageURL   string          `json:"page_url,omitempty"`
	Source    string          `json:"source,omitempty"` // response URL the profile came from
	Record    identity.Record `json:"record"`
	Timestamp int64           `json:"timestamp"` // epoch milliseconds
}

// Augmentation is emitted once per augmented element.
type Augmentation struct {
	ID              string `json:"id"` // UUIDv7
	PageID          string `json:"page_id"`
	PageURL         string `json:"page_url,omitempty"`
	NativeHandle    string `json:"native_handle"`
	FederatedHandle string `json:"federated_handle,omitempty"`
	Strategy        string `json:"strategy"`
	Timestamp       int64  `json:"timestamp"`
}

// Envelope wraps an event on the JSON-lines stream.
type Envelope struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

// Generator produces event IDs.
type Generator func() string

// UUIDv7 returns a Generator of RFC 9562 version 7 UUIDs (time-sortable).
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// NewID is the generator used by NewDiscovery and NewAugmentation.
var NewID = UUIDv7()

// NewDiscovery stamps a discovery event with an ID and the current time.
func NewDiscovery(pageID, pageURL, source string, rec identity.Record) Discovery {
	return Discovery{
		ID:        NewID(),
		PageID:    pageID,
		PageURL:   pageURL,
		Source:    source,
		Record:    rec,
		Timestamp: time.Now().UnixMilli(),
	}
}

// NewAugmentation stamps an augmentation event.
func NewAugmentation(pageID, pageURL, nativeHandle, federatedHandle, strategy string) Augmentation {
	return Augmentation{
		ID:              NewID(),
		PageID:          pageID,
		PageURL:         pageURL,
		NativeHandle:    nativeHandle,
		FederatedHandle: federatedHandle,
		Strategy:        strategy,
		Timestamp:       time.Now().UnixMilli(),
	}
}
