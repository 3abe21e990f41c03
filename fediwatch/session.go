// CLAUDE:SUMMARY Session ties one observed page to its directory: response ingestion (route, extract, resolve, upsert) and scheduled augmentation scans.
package fediwatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/hazyhaar/fedimark/augment"
	"github.com/hazyhaar/fedimark/directory"
	"github.com/hazyhaar/fedimark/dom"
	"github.com/hazyhaar/fedimark/fediwatch/event"
	"github.com/hazyhaar/fedimark/fediwatch/internal/scheduler"
	"github.com/hazyhaar/fedimark/fediwatch/internal/sink"
	"github.com/hazyhaar/fedimark/graph"
	"github.com/hazyhaar/fedimark/identity"
)

// Document is a page the session can scan: candidate lookup plus an idle
// signal for scheduling.
type Document interface {
	dom.Document
	WaitIdle(ctx context.Context) error
}

// SessionConfig configures a Session.
type SessionConfig struct {
	ID  string
	URL string

	// Interval between scheduled scans. Default: 1s.
	Interval time.Duration
	Clock    clock.Clock

	Sink     sink.Sink // default: discard
	Recorder *Recorder // optional
	Logger   *slog.Logger
}

// Session is the state for one observed page. The directory lives and dies
// with the session.
type Session struct {
	id, url string

	dir     *directory.Directory
	doc     Document
	scanner *augment.Scanner
	sched   *scheduler.Scheduler
	sink    sink.Sink
	rec     *Recorder
	logger  *slog.Logger

	resolve func(identity.ProfileInput) identity.Record

	ingestMu   sync.Mutex
	scanMu     sync.Mutex
	reportMu   sync.Mutex
	lastReport augment.Report

	responses atomic.Uint64
	profiles  atomic.Uint64
	scans     atomic.Uint64
	augmented atomic.Uint64
}

// NewSession creates a session over doc. Call Run to start scheduled scans.
func NewSession(doc Document, cfg SessionConfig) *Session {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("page", cfg.ID)
	if cfg.Sink == nil {
		cfg.Sink = sink.NewRouter(logger)
	}

	s := &Session{
		id:      cfg.ID,
		url:     cfg.URL,
		dir:     directory.New(),
		doc:     doc,
		sink:    cfg.Sink,
		rec:     cfg.Recorder,
		logger:  logger,
		resolve: identity.Extractor{Logger: logger}.Resolve,
	}
	s.scanner = augment.NewScanner(s.dir, augment.WithLogger(logger))
	s.sched = scheduler.New(scheduler.Config{
		Interval: cfg.Interval,
		Clock:    cfg.Clock,
		Waiter:   doc,
		Scan: func(ctx context.Context) error {
			_, err := s.Scan(ctx)
			return err
		},
		Logger: logger,
	})
	return s
}

// ID returns the page ID.
func (s *Session) ID() string { return s.id }

// URL returns the page URL.
func (s *Session) URL() string { return s.url }

// Directory returns the session's identity directory.
func (s *Session) Directory() *directory.Directory { return s.dir }

// HandleResponse ingests one API response body and returns the number of
// directory records it changed. Unrouted URLs are ignored. Each changed
// record is emitted as a discovery event. Concurrent calls are serialized:
// each response is recorded and merged as one unit.
func (s *Session) HandleResponse(ctx context.Context, url string, body []byte) int {
	shapes := graph.Route(url)
	if len(shapes) == 0 {
		return 0
	}
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()
	s.responses.Add(1)

	if s.rec != nil {
		if err := s.rec.Record(url, body); err != nil {
			s.logger.Warn("fediwatch: record response", "url", url, "error", err)
		}
	}

	changed := 0
	for _, shape := range shapes {
		res := graph.Extract(body, shape)
		if !res.Recognized {
			s.logger.Debug("fediwatch: unrecognized payload", "url", url, "shape", shape)
			continue
		}
		for _, p := range res.Profiles {
			rec, ok := s.safeResolve(p)
			if !ok {
				continue
			}
			s.profiles.Add(1)
			if !s.dir.Upsert(rec) {
				continue
			}
			changed++
			if err := s.sink.SendDiscovery(ctx, event.NewDiscovery(s.id, s.url, url, rec)); err != nil {
				s.logger.Debug("fediwatch: discovery not delivered", "handle", rec.NativeHandle, "error", err)
			}
		}
	}
	return changed
}

// safeResolve confines a resolution panic to the profile that caused it.
func (s *Session) safeResolve(p identity.ProfileInput) (rec identity.Record, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("fediwatch: resolve panicked", "handle", p.NativeHandle, "panic", r)
			ok = false
		}
	}()
	return s.resolve(p), true
}

// Scan runs one augmentation pass over the document and emits an event per
// augmented element. Scans never overlap.
func (s *Session) Scan(ctx context.Context) (augment.Report, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	rep, err := s.scanner.Scan(ctx, s.doc)
	if err != nil {
		return rep, fmt.Errorf("fediwatch: scan %s: %w", s.id, err)
	}
	s.scans.Add(1)
	s.reportMu.Lock()
	s.lastReport = rep
	s.reportMu.Unlock()
	s.augmented.Add(uint64(len(rep.Augmented)))

	for _, a := range rep.Augmented {
		ev := event.NewAugmentation(s.id, s.url, a.NativeHandle, a.FederatedHandle, a.Strategy)
		if err := s.sink.SendAugmentation(ctx, ev); err != nil {
			s.logger.Debug("fediwatch: augmentation not delivered", "handle", a.NativeHandle, "error", err)
		}
	}
	if len(rep.Augmented) > 0 {
		s.logger.Debug("fediwatch: scan", "candidates", rep.Candidates, "augmented", len(rep.Augmented))
	}
	return rep, nil
}

// RequestScan schedules a scan ahead of the next tick. Only valid while
// Run is active.
func (s *Session) RequestScan(ctx context.Context) error {
	return s.sched.RequestScan(ctx)
}

// Run drives scheduled scans until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	return s.sched.Run(ctx)
}

// Stats is a point-in-time summary of a session.
type Stats struct {
	ID         string         `json:"id"`
	URL        string         `json:"url,omitempty"`
	State      string         `json:"state"`
	Responses  uint64         `json:"responses"`
	Profiles   uint64         `json:"profiles"`
	Directory  int            `json:"directory"`
	Scans      uint64         `json:"scans"`
	Augmented  uint64         `json:"augmented"`
	LastReport augment.Report `json:"last_report"`
}

// Stats returns the session counters.
func (s *Session) Stats() Stats {
	s.reportMu.Lock()
	last := s.lastReport
	s.reportMu.Unlock()

	return Stats{
		ID:         s.id,
		URL:        s.url,
		State:      s.sched.State().String(),
		Responses:  s.responses.Load(),
		Profiles:   s.profiles.Load(),
		Directory:  s.dir.Len(),
		Scans:      s.scans.Load(),
		Augmented:  s.augmented.Load(),
		LastReport: last,
	}
}
