// CLAUDE:SUMMARY Read-only debug listener: chi routes over the session directories plus the MCP tools over streamable HTTP.
package fediwatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/fedimark/fediwatch/internal/shield"
)

// Version is reported by the debug listener and the MCP server.
const Version = "0.1.0"

// SessionSource lists live sessions. *Watcher satisfies it.
type SessionSource interface {
	Sessions() []*Session
}

// SessionList is a fixed SessionSource, used by replay.
type SessionList []*Session

func (l SessionList) Sessions() []*Session { return l }

// NewDebugHandler returns the debug router:
//
//	GET /health
//	GET /sessions
//	GET /directory
//	GET /directory/{page}
//	GET /directory/{page}/{handle}
//	    /mcp (streamable HTTP)
func NewDebugHandler(src SessionSource, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	for _, mw := range shield.DebugStack() {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]any{"status": "ok", "version": Version, "sessions": len(src.Sessions())})
	})

	r.Get("/sessions", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, allStats(src))
	})

	r.Route("/directory", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, 200, directories(src.Sessions(), r.URL.Query().Get("resolved") == "true"))
		})
		r.Get("/{page}", func(w http.ResponseWriter, r *http.Request) {
			sessions, err := selectSessions(src, chi.URLParam(r, "page"))
			if err != nil {
				writeError(w, 404, err)
				return
			}
			writeJSON(w, 200, directories(sessions, r.URL.Query().Get("resolved") == "true")[0])
		})
		r.Get("/{page}/{handle}", func(w http.ResponseWriter, r *http.Request) {
			sessions, err := selectSessions(src, chi.URLParam(r, "page"))
			if err != nil {
				writeError(w, 404, err)
				return
			}
			rec, ok := sessions[0].Directory().Get(normalizeHandle(chi.URLParam(r, "handle")))
			if !ok {
				writeError(w, 404, errors.New("handle not in directory"))
				return
			}
			writeJSON(w, 200, rec)
		})
	})

	mcpSrv := mcp.NewServer(&mcp.Implementation{Name: "fediwatch", Version: Version}, nil)
	RegisterMCP(mcpSrv, src)
	r.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpSrv }, nil))

	return r
}

// ServeDebug serves h on addr until ctx is done, then shuts down.
func ServeDebug(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("fediwatch: debug listener starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("fediwatch: debug listener shutdown", "error", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("fediwatch: debug listener stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
