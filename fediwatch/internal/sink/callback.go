// CLAUDE:SUMMARY In-process callback sink delivering events via Go function calls with zero serialization.
package sink

import (
	"context"

	"github.com/hazyhaar/fedimark/fediwatch/event"
)

// DiscoveryFunc is called for each discovery.
type DiscoveryFunc func(ctx context.Context, d event.Discovery) error

// AugmentationFunc is called for each augmentation.
type AugmentationFunc func(ctx context.Context, a event.Augmentation) error

// Callback delivers events via Go function calls, for embedders that run
// the watcher in their own process.
type Callback struct {
	onDiscovery    DiscoveryFunc
	onAugmentation AugmentationFunc
}

// NewCallback creates a Callback sink. Either handler may be nil.
func NewCallback(onDiscovery DiscoveryFunc, onAugmentation AugmentationFunc) *Callback {
	return &Callback{onDiscovery: onDiscovery, onAugmentation: onAugmentation}
}

func (c *Callback) SendDiscovery(ctx context.Context, d event.Discovery) error {
	if c.onDiscovery != nil {
		return c.onDiscovery(ctx, d)
	}
	return nil
}

func (c *Callback) SendAugmentation(ctx context.Context, a event.Augmentation) error {
	if c.onAugmentation != nil {
		return c.onAugmentation(ctx, a)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
