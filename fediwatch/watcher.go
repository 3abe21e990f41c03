// Package fediwatch runs fedimark against live pages. It drives Chrome over
// the DevTools protocol, feeds the API responses each page receives into a
// per-page identity directory, and periodically augments the page's DOM
// with links to the federated profiles it found.
//
// fediwatch only reads traffic the page already produces. Discoveries and
// augmentations are emitted to sinks (stdout, file, callback).
package fediwatch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/hazyhaar/fedimark/fediwatch/internal/browser"
	"github.com/hazyhaar/fedimark/fediwatch/internal/config"
	"github.com/hazyhaar/fedimark/fediwatch/internal/sink"
	"github.com/hazyhaar/fedimark/graph"
)

// Watcher is the top-level orchestrator. It owns the browser, one session
// per watched page, and the sinks.
type Watcher struct {
	cfg      *config.Config
	mgr      *browser.Manager
	sinkR    *sink.Router
	rec      *Recorder
	sessions map[string]*watched // keyed by page ID
	mu       sync.Mutex
	logger   *slog.Logger
}

type watched struct {
	page   config.PageConfig
	sess   *Session
	tab    *browser.Tab
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Watcher from configuration.
func New(cfg *config.Config, logger *slog.Logger, sinks ...sink.Sink) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:         cfg.Browser.Remote,
		Mode:              browser.ParseMode(cfg.Browser.Stealth),
		ResourceBlocking:  cfg.Browser.ResourceBlocking,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		Logger:            logger,
	})

	return &Watcher{
		cfg:      cfg,
		mgr:      mgr,
		sinkR:    sink.NewRouter(logger, sinks...),
		sessions: make(map[string]*watched),
		logger:   logger,
	}
}

// Start launches (or connects to) the browser and begins watching all
// configured pages. A page that fails to open is logged and skipped.
func (w *Watcher) Start(ctx context.Context) error {
	if _, err := w.mgr.Start(ctx); err != nil {
		return fmt.Errorf("fediwatch: start browser: %w", err)
	}

	if w.cfg.Record != "" {
		rec, err := OpenRecorder(w.cfg.Record)
		if err != nil {
			return err
		}
		w.mu.Lock()
		w.rec = rec
		w.mu.Unlock()
		w.logger.Info("fediwatch: recording responses", "path", w.cfg.Record)
	}

	for _, page := range w.cfg.Pages {
		if err := w.WatchPage(ctx, page); err != nil {
			w.logger.Error("fediwatch: failed to watch page", "url", page.URL, "error", err)
		}
	}
	return nil
}

// WatchPage opens (or attaches to) a tab for page and starts its session.
// The response listener is attached before navigation.
func (w *Watcher) WatchPage(ctx context.Context, page config.PageConfig) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watchLocked(ctx, page)
}

func (w *Watcher) watchLocked(ctx context.Context, page config.PageConfig) error {
	if _, ok := w.sessions[page.ID]; ok {
		return fmt.Errorf("fediwatch: page %s already watched", page.ID)
	}

	var (
		tab *browser.Tab
		err error
	)
	if page.Attach {
		tab, err = browser.AttachTab(ctx, w.mgr, page.URL, page.ID)
	} else {
		tab, err = browser.OpenTab(ctx, w.mgr, page.ID)
	}
	if err != nil {
		return fmt.Errorf("fediwatch: open tab: %w", err)
	}

	sctx, cancel := context.WithCancel(ctx)
	sess := NewSession(tab.Document(), SessionConfig{
		ID:       page.ID,
		URL:      page.URL,
		Interval: w.cfg.Scan.Interval,
		Sink:     w.sinkR,
		Recorder: w.rec,
		Logger:   w.logger,
	})

	err = tab.ListenResponses(sctx, isGraphURL, func(url string, body []byte) {
		sess.HandleResponse(sctx, url, body)
	})
	if err != nil {
		cancel()
		tab.Close()
		return err
	}

	if !page.Attach {
		if err := tab.Navigate(sctx, page.URL); err != nil {
			cancel()
			tab.Close()
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Run(sctx)
	}()

	w.sessions[page.ID] = &watched{page: page, sess: sess, tab: tab, cancel: cancel, done: done}
	w.logger.Info("fediwatch: watching page", "url", page.URL, "id", page.ID, "attach", page.Attach)
	return nil
}

// UnwatchPage stops the session for a page and closes its tab if it was
// opened by the watcher. The page's directory is discarded.
func (w *Watcher) UnwatchPage(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unwatchLocked(id)
}

func (w *Watcher) unwatchLocked(id string) error {
	ws, ok := w.sessions[id]
	if !ok {
		return fmt.Errorf("fediwatch: page %s not watched", id)
	}
	delete(w.sessions, id)

	ws.cancel()
	<-ws.done
	if err := ws.tab.Close(); err != nil {
		w.logger.Warn("fediwatch: close tab", "id", id, "error", err)
	}
	w.logger.Info("fediwatch: stopped watching page", "id", id)
	return nil
}

// Reload applies a new configuration: pages that disappeared or changed are
// unwatched, new or changed pages are watched. Browser and sink settings
// only take effect on restart; new scan settings apply to pages watched
// from now on.
func (w *Watcher) Reload(ctx context.Context, cfg *config.Config) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !sameBrowser(w.cfg.Browser, cfg.Browser) {
		w.logger.Warn("fediwatch: browser settings changed, restart to apply")
	}

	remove, add := diffPages(w.cfg.Pages, cfg.Pages)
	w.cfg = cfg

	for _, id := range remove {
		if err := w.unwatchLocked(id); err != nil {
			w.logger.Debug("fediwatch: reload unwatch", "id", id, "error", err)
		}
	}
	for _, page := range add {
		if err := w.watchLocked(ctx, page); err != nil {
			w.logger.Error("fediwatch: reload watch", "url", page.URL, "error", err)
		}
	}
	w.logger.Info("fediwatch: config applied", "removed", len(remove), "added", len(add))
}

// Session returns the session for a page ID.
func (w *Watcher) Session(id string) (*Session, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ws, ok := w.sessions[id]
	if !ok {
		return nil, false
	}
	return ws.sess, true
}

// Sessions returns all live sessions ordered by page ID.
func (w *Watcher) Sessions() []*Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*Session, 0, len(w.sessions))
	for _, ws := range w.sessions {
		out = append(out, ws.sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Stop shuts down all sessions, the sinks, the recorder and the browser.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id := range w.sessions {
		w.unwatchLocked(id)
	}

	if err := w.sinkR.Close(); err != nil {
		w.logger.Warn("fediwatch: close sinks", "error", err)
	}
	if w.rec != nil {
		if err := w.rec.Close(); err != nil {
			w.logger.Warn("fediwatch: close recording", "error", err)
		}
		w.logger.Info("fediwatch: recording closed", "responses", w.rec.Len())
	}
	if err := w.mgr.Close(); err != nil {
		w.logger.Warn("fediwatch: close browser", "error", err)
	}
}

func isGraphURL(url string) bool {
	return len(graph.Route(url)) > 0
}

// diffPages returns the IDs to stop and the pages to start so that the
// watched set matches next. A page whose URL or attach mode changed is in
// both lists.
func diffPages(prev, next []config.PageConfig) (remove []string, add []config.PageConfig) {
	old := make(map[string]config.PageConfig, len(prev))
	for _, p := range prev {
		old[p.ID] = p
	}
	keep := make(map[string]bool, len(next))
	for _, p := range next {
		if o, ok := old[p.ID]; ok && o == p {
			keep[p.ID] = true
			continue
		}
		add = append(add, p)
	}
	for _, p := range prev {
		if !keep[p.ID] {
			remove = append(remove, p.ID)
		}
	}
	return remove, add
}

func sameBrowser(a, b config.BrowserConfig) bool {
	return a.Remote == b.Remote &&
		a.Stealth == b.Stealth &&
		a.NavigationTimeout == b.NavigationTimeout &&
		slices.Equal(a.ResourceBlocking, b.ResourceBlocking)
}
