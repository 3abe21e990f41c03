// Package sink defines output backends for fediwatch events.
package sink

import (
	"context"

	"github.com/hazyhaar/fedimark/fediwatch/event"
)

// Sink is the output interface. Implementations deliver events to stdout
// (JSON lines) or to in-process callbacks.
type Sink interface {
	SendDiscovery(ctx context.Context, d event.Discovery) error
	SendAugmentation(ctx context.Context, a event.Augmentation) error
	Close() error
}
