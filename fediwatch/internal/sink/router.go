package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/fedimark/fediwatch/event"
)

// Router fans events out to every sink. A failing sink does not stop the
// others: errors are logged and the first one is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

func (r *Router) SendDiscovery(ctx context.Context, d event.Discovery) error {
	return r.each("discovery", func(s Sink) error { return s.SendDiscovery(ctx, d) })
}

func (r *Router) SendAugmentation(ctx context.Context, a event.Augmentation) error {
	return r.each("augmentation", func(s Sink) error { return s.SendAugmentation(ctx, a) })
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) each(kind string, send func(Sink) error) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := send(s); err != nil {
			r.logger.Warn("sink: send failed", "kind", kind, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
