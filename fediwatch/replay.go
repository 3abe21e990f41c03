package fediwatch

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/fedimark/augment"
	"github.com/hazyhaar/fedimark/dom/htmldoc"
	"github.com/hazyhaar/fedimark/identity"
)

// ReplayConfig configures an offline run.
type ReplayConfig struct {
	PageID    string // default "replay"
	PageURL   string
	Responses []Response
	Document  *htmldoc.Document
	Sink      Sink
	Logger    *slog.Logger
}

// ReplayResult summarises an offline run. The document passed in has been
// augmented in place.
type ReplayResult struct {
	Responses int               `json:"responses"`
	Changed   int               `json:"changed"`
	Report    augment.Report    `json:"report"`
	Directory []identity.Record `json:"directory"`
}

// Replay feeds recorded responses through a fresh session in order, then
// runs a single scan over the HTML snapshot.
func Replay(ctx context.Context, cfg ReplayConfig) (*ReplayResult, *Session, error) {
	if cfg.PageID == "" {
		cfg.PageID = "replay"
	}
	sess := NewSession(cfg.Document, SessionConfig{
		ID:     cfg.PageID,
		URL:    cfg.PageURL,
		Sink:   cfg.Sink,
		Logger: cfg.Logger,
	})

	res := &ReplayResult{}
	for _, r := range cfg.Responses {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		res.Responses++
		res.Changed += sess.HandleResponse(ctx, r.URL, []byte(r.Body))
	}

	rep, err := sess.Scan(ctx)
	if err != nil {
		return nil, nil, err
	}
	res.Report = rep
	res.Directory = sess.Directory().Snapshot()
	return res, sess, nil
}
