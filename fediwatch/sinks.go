package fediwatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hazyhaar/fedimark/fediwatch/event"
	"github.com/hazyhaar/fedimark/fediwatch/internal/sink"
)

// Sink is the output interface for fediwatch events.
type Sink = sink.Sink

// NewStdoutSink creates a JSON-lines sink on w (os.Stdout if nil).
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewFileSink creates a JSON-lines sink appending to path.
func NewFileSink(path string) (Sink, error) {
	return sink.NewFile(path)
}

// NewCallbackSink creates an in-process sink. Either handler may be nil.
func NewCallbackSink(
	onDiscovery func(ctx context.Context, d event.Discovery) error,
	onAugmentation func(ctx context.Context, a event.Augmentation) error,
) Sink {
	return sink.NewCallback(onDiscovery, onAugmentation)
}

// SinksFromConfig builds the sinks a configuration declares. Sinks opened
// before a failure are closed.
func SinksFromConfig(cfgs []SinkConfig, stdout io.Writer) ([]Sink, error) {
	var out []Sink
	for _, c := range cfgs {
		switch c.Type {
		case "stdout":
			out = append(out, NewStdoutSink(stdout))
		case "file":
			s, err := NewFileSink(c.Path)
			if err != nil {
				closeAll(out)
				return nil, err
			}
			out = append(out, s)
		default:
			closeAll(out)
			return nil, fmt.Errorf("fediwatch: unknown sink type %q", c.Type)
		}
	}
	return out, nil
}

func closeAll(sinks []Sink) {
	for _, s := range sinks {
		s.Close()
	}
}

// NewRouterSink fans events out to every sink. A failing sink is logged
// and does not stop the others.
func NewRouterSink(logger *slog.Logger, sinks ...Sink) Sink {
	return sink.NewRouter(logger, sinks...)
}
