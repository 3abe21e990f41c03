// Package augment finds on-screen occurrences of known profiles in a
// dom.Document and decorates each one exactly once with a link to the
// profile's federated identity.
package augment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/fedimark/dom"
	"github.com/hazyhaar/fedimark/identity"
)

// Lookup resolves a native handle to its record. *directory.Directory
// satisfies it.
type Lookup interface {
	Get(nativeHandle string) (identity.Record, bool)
}

// Augmentation describes one applied plan.
type Augmentation struct {
	NativeHandle    string `json:"native_handle"`
	FederatedHandle string `json:"federated_handle,omitempty"`
	Strategy        string `json:"strategy"`
}

// Report summarises one scan.
type Report struct {
	Candidates    int            `json:"candidates"`
	Known         int            `json:"known"`
	AlreadyMarked int            `json:"already_marked"`
	Unfit         int            `json:"unfit"`
	Failed        int            `json:"failed"`
	Augmented     []Augmentation `json:"augmented,omitempty"`
}

// Scanner applies strategies to candidate elements.
type Scanner struct {
	lookup     Lookup
	strategies []Strategy
	logger     *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the scanner logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithStrategies replaces the default strategies.
func WithStrategies(strategies ...Strategy) Option {
	return func(s *Scanner) { s.strategies = strategies }
}

// NewScanner creates a Scanner reading records from lookup.
func NewScanner(lookup Lookup, opts ...Option) *Scanner {
	s := &Scanner{
		lookup:     lookup,
		strategies: DefaultStrategies(),
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Scan runs one pass over doc. Elements already carrying the marker, or
// whose handle is unknown, are skipped. An element no strategy fits is left
// unmarked so a later scan can retry it.
func (s *Scanner) Scan(ctx context.Context, doc dom.Document) (Report, error) {
	var rep Report

	cands, err := doc.Candidates(ctx)
	if err != nil {
		return rep, fmt.Errorf("augment: candidates: %w", err)
	}
	rep.Candidates = len(cands)

	for _, el := range cands {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		txt, err := el.Text()
		if err != nil {
			s.logger.Debug("augment: read candidate text", "error", err)
			continue
		}
		handle := strings.TrimSpace(strings.TrimPrefix(txt, "@"))
		rec, ok := s.lookup.Get(handle)
		if !ok {
			continue
		}
		rep.Known++

		_, marked, err := el.Attr(MarkerAttr)
		if err != nil {
			s.logger.Debug("augment: read marker", "handle", handle, "error", err)
			continue
		}
		if marked {
			rep.AlreadyMarked++
			continue
		}

		plan := s.fit(el, rec)
		if plan == nil {
			rep.Unfit++
			continue
		}
		if err := plan.Apply(el); err != nil {
			rep.Failed++
			s.logger.Warn("augment: apply plan", "handle", handle, "strategy", plan.Strategy, "error", err)
			continue
		}
		rep.Augmented = append(rep.Augmented, Augmentation{
			NativeHandle:    handle,
			FederatedHandle: rec.FederatedHandle,
			Strategy:        plan.Strategy,
		})
	}
	return rep, nil
}

func (s *Scanner) fit(el dom.Element, rec identity.Record) *Plan {
	for _, st := range s.strategies {
		plan, err := st.Fit(el, rec)
		if err != nil {
			s.logger.Debug("augment: strategy failed", "strategy", st.Name(), "handle", rec.NativeHandle, "error", err)
			continue
		}
		if plan != nil {
			return plan
		}
	}
	return nil
}
