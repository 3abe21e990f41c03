// Package shield provides the HTTP middleware of the fediwatch debug
// listener. The listener is read-only and meant for the local machine.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DebugStack() {
//	    r.Use(mw)
//	}
package shield

import "net/http"

// DebugStack returns the middleware stack for the debug listener, ordered:
// LoopbackOnly → HeadToGet → SecurityHeaders.
func DebugStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		LoopbackOnly,
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
	}
}
