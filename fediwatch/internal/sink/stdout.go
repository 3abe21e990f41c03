// CLAUDE:SUMMARY Writes discovery and augmentation events as JSON lines to an io.Writer (defaults to stdout).
package sink

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/hazyhaar/fedimark/fediwatch/event"
)

// Stdout writes JSON lines to an io.Writer (default os.Stdout).
type Stdout struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdout creates a Stdout sink. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Stdout{enc: enc}
}

func (s *Stdout) SendDiscovery(_ context.Context, d event.Discovery) error {
	return s.write(event.Envelope{Type: event.TypeDiscovery, Data: d})
}

func (s *Stdout) SendAugmentation(_ context.Context, a event.Augmentation) error {
	return s.write(event.Envelope{Type: event.TypeAugmentation, Data: a})
}

func (s *Stdout) Close() error { return nil }

func (s *Stdout) write(env event.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(env)
}
