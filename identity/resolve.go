package identity

// Resolve turns a profile into a Record using the default extractor.
func Resolve(p ProfileInput) Record {
	return defaultExtractor.Resolve(p)
}

// Resolve turns a profile into a Record. The first handle found wins, in
// this order: display name, associated URLs, bio. MentionsFederation is
// computed from all three regardless of the outcome.
func (e Extractor) Resolve(p ProfileInput) Record {
	rec := Record{
		NativeHandle:       p.NativeHandle,
		NativeID:           p.NativeID,
		MentionsFederation: MentionsFederation(append([]string{p.Bio, p.DisplayName}, p.URLs...)...),
	}

	handle, ok := e.FindHandle(p.DisplayName)
	if !ok {
		handle, ok = e.FindHandleInURLs(p.URLs)
	}
	if !ok {
		handle, ok = e.FindHandle(p.Bio)
	}
	if !ok {
		return rec
	}

	if u, ok := HandleURL(handle); ok {
		rec.FederatedHandle = handle
		rec.FederatedURL = u
	}
	return rec
}
