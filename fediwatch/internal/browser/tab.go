package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
)

// Tab wraps a Rod page. Tabs we opened are closed on Close; adopted tabs
// belong to the user and are left open.
type Tab struct {
	Page    *rod.Page
	PageURL string
	PageID  string
	owned   bool
	router  *rod.HijackRouter
	timeout time.Duration
	logger  *slog.Logger
}

// OpenTab creates a blank stealth tab. Callers attach listeners before
// calling Navigate so no early response is missed.
func OpenTab(ctx context.Context, mgr *Manager, pageID string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	page = page.Context(ctx)

	tab := &Tab{Page: page, PageID: pageID, owned: true, timeout: mgr.cfg.NavigationTimeout, logger: mgr.cfg.Logger}
	if len(mgr.cfg.ResourceBlocking) > 0 {
		router, err := applyResourceBlocking(page, mgr.cfg.ResourceBlocking)
		if err != nil {
			mgr.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
		tab.router = router
	}
	return tab, nil
}

// Navigate loads pageURL and waits for the load event. A load timeout is
// logged, not returned: single-page apps keep loading long after they are
// usable.
func (t *Tab) Navigate(ctx context.Context, pageURL string) error {
	navCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if err := t.Page.Context(navCtx).Navigate(pageURL); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	t.PageURL = pageURL
	if err := t.Page.Context(navCtx).WaitLoad(); err != nil {
		t.logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}
	return nil
}

// AttachTab adopts the first open tab whose URL starts with urlPrefix.
func AttachTab(ctx context.Context, mgr *Manager, urlPrefix, pageID string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	pages, err := b.Context(ctx).Pages()
	if err != nil {
		return nil, fmt.Errorf("browser: list tabs: %w", err)
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if strings.HasPrefix(info.URL, urlPrefix) {
			mgr.cfg.Logger.Info("browser: attached to tab", "url", info.URL, "id", pageID)
			return &Tab{Page: p.Context(ctx), PageURL: info.URL, PageID: pageID, timeout: mgr.cfg.NavigationTimeout, logger: mgr.cfg.Logger}, nil
		}
	}
	return nil, fmt.Errorf("browser: no open tab matches %s", urlPrefix)
}

// closeTimeout bounds the CDP calls made by Close.
const closeTimeout = 5 * time.Second

// Close closes the tab if we opened it. It does not use the context the tab
// was opened with: Close usually runs after that context is cancelled.
func (t *Tab) Close() error {
	if t.Page == nil || !t.owned {
		return nil
	}
	if t.router != nil {
		if err := t.router.Stop(); err != nil {
			t.logDebug("browser: stop request router", "page", t.PageID, "error", err)
		}
		t.router = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := t.Page.Context(ctx).Close(); err != nil {
		return fmt.Errorf("browser: close tab %s: %w", t.PageID, err)
	}
	return nil
}
