// CLAUDE:SUMMARY Idle-gated periodic scan scheduler: ticker requests coalesce into at most one pending idle wait, scans run serially on the loop goroutine.
// Package scheduler drives periodic augmentation scans without competing
// with the page: every request waits for the page to go idle, a newer
// request supersedes a pending one, and scans never overlap.
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// State is the scheduler state.
type State int32

const (
	Idle          State = iota // no scan pending
	ScanScheduled              // waiting for the page to go idle
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ScanScheduled:
		return "scan_scheduled"
	}
	return "unknown"
}

// IdleWaiter blocks until the page has spare time or ctx is done.
type IdleWaiter interface {
	WaitIdle(ctx context.Context) error
}

// ScanFunc performs one scan.
type ScanFunc func(ctx context.Context) error

// Config configures a Scheduler.
type Config struct {
	// Interval between scan requests. Default: 1s.
	Interval time.Duration
	Clock    clock.Clock
	Waiter   IdleWaiter
	Scan     ScanFunc
	Logger   *slog.Logger
}

func (c *Config) defaults() {
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Scheduler owns the Idle/ScanScheduled state machine. All transitions
// happen on the goroutine running Run.
type Scheduler struct {
	cfg    Config
	reqCh  chan struct{}
	idleCh chan uint64
	state  atomic.Int32
	scans  atomic.Uint64
}

// New creates a Scheduler. Call Run to start it.
func New(cfg Config) *Scheduler {
	cfg.defaults()
	return &Scheduler{
		cfg:    cfg,
		reqCh:  make(chan struct{}),
		idleCh: make(chan uint64),
	}
}

// State returns the current state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Scans returns the number of scans run so far.
func (s *Scheduler) Scans() uint64 {
	return s.scans.Load()
}

// RequestScan schedules a scan outside the regular ticks. It returns once
// the loop has accepted the request.
func (s *Scheduler) RequestScan(ctx context.Context) error {
	select {
	case s.reqCh <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := s.cfg.Clock.Ticker(s.cfg.Interval)
	defer ticker.Stop()

	var (
		gen        uint64
		cancelWait context.CancelFunc
	)
	defer func() {
		if cancelWait != nil {
			cancelWait()
		}
		s.state.Store(int32(Idle))
	}()

	schedule := func() {
		if cancelWait != nil {
			cancelWait()
		}
		gen++
		var wctx context.Context
		wctx, cancelWait = context.WithCancel(ctx)
		s.state.Store(int32(ScanScheduled))
		go s.waitIdle(wctx, gen)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			schedule()
		case <-s.reqCh:
			schedule()
		case g := <-s.idleCh:
			if g != gen || s.State() != ScanScheduled {
				continue // superseded
			}
			cancelWait()
			cancelWait = nil
			s.state.Store(int32(Idle))
			s.runScan(ctx)
		}
	}
}

func (s *Scheduler) waitIdle(ctx context.Context, gen uint64) {
	if err := s.cfg.Waiter.WaitIdle(ctx); err != nil {
		if ctx.Err() == nil {
			s.cfg.Logger.Debug("scheduler: idle wait failed", "error", err)
		}
		return
	}
	select {
	case s.idleCh <- gen:
	case <-ctx.Done():
	}
}

func (s *Scheduler) runScan(ctx context.Context) {
	s.scans.Add(1)
	if err := s.cfg.Scan(ctx); err != nil && ctx.Err() == nil {
		s.cfg.Logger.Warn("scheduler: scan failed", "error", err)
	}
}
