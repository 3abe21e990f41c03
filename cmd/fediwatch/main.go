// CLAUDE:SUMMARY CLI entry point for fediwatch: watch pages from a YAML config or a single URL, or replay a recording offline.
// Command fediwatch augments live timeline pages with fediverse identities.
//
// Usage:
//
//	fediwatch --config fediwatch.yaml                   # watch pages from YAML config
//	fediwatch --url https://twitter.com/home            # watch a single page
//	fediwatch --url https://twitter.com/ --attach --remote ws://127.0.0.1:9222/devtools/browser/…
//	fediwatch --replay responses.jsonl.zst --html page.html --out augmented.html
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/fedimark/dom/htmldoc"
	"github.com/hazyhaar/fedimark/fediwatch"
)

type options struct {
	configPath string
	url        string
	attach     bool
	remote     string
	record     string
	replay     string
	html       string
	out        string
	debugAddr  string
	logLevel   string
}

func main() {
	var opts options
	flags := pflag.NewFlagSet("fediwatch", pflag.ContinueOnError)
	flags.StringVar(&opts.configPath, "config", "", "path to fediwatch.yaml config file (reloaded on change)")
	flags.StringVar(&opts.url, "url", "", "watch a single URL (stdout sink)")
	flags.BoolVar(&opts.attach, "attach", false, "with --url: adopt an open tab whose URL starts with --url (requires --remote)")
	flags.StringVar(&opts.remote, "remote", "", "DevTools websocket URL of a running Chrome (default: launch one)")
	flags.StringVar(&opts.record, "record", "", "record observed API responses to this file (.zst/.gz compress)")
	flags.StringVar(&opts.replay, "replay", "", "replay a response recording offline (requires --html)")
	flags.StringVar(&opts.html, "html", "", "with --replay: HTML snapshot to augment")
	flags.StringVar(&opts.out, "out", "", "with --replay: write the augmented HTML here (default: stdout)")
	flags.StringVar(&opts.debugAddr, "debug-addr", "", "serve the read-only debug API and MCP tools on this address")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	var level slog.Level
	switch opts.logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, opts); err != nil {
		logger.Error("fediwatch: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	switch {
	case opts.replay != "":
		return runReplay(ctx, logger, opts)
	case opts.url != "":
		return runSingle(ctx, logger, opts)
	case opts.configPath != "":
		return runConfig(ctx, logger, opts)
	}

	fmt.Fprintln(os.Stderr, "usage: fediwatch --config <file> | --url <url> | --replay <recording> --html <page>")
	os.Exit(2)
	return nil
}

func runSingle(ctx context.Context, logger *slog.Logger, opts options) error {
	cfg := fediwatch.DefaultConfig()
	cfg.Pages = []fediwatch.PageConfig{{ID: "page-1", URL: opts.url, Attach: opts.attach}}
	applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	return serve(ctx, logger, cfg, "")
}

func runConfig(ctx context.Context, logger *slog.Logger, opts options) error {
	cfg, err := fediwatch.LoadConfigFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, opts)
	return serve(ctx, logger, cfg, opts.configPath)
}

// serve runs the watcher, plus the debug listener and the config reloader
// when enabled, until ctx is done.
func serve(ctx context.Context, logger *slog.Logger, cfg *fediwatch.Config, configPath string) error {
	sinks, err := fediwatch.SinksFromConfig(cfg.Sinks, nil)
	if err != nil {
		return err
	}

	w := fediwatch.New(cfg, logger, sinks...)
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return fmt.Errorf("start: %w", err)
	}
	defer w.Stop()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Debug.Listen != "" {
		g.Go(func() error {
			return fediwatch.ServeDebug(gctx, cfg.Debug.Listen, fediwatch.NewDebugHandler(w, logger), logger)
		})
	}
	if configPath != "" {
		g.Go(func() error {
			return fediwatch.WatchConfigFile(gctx, configPath, logger, func(next *fediwatch.Config) {
				w.Reload(gctx, next)
			})
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	return g.Wait()
}

func runReplay(ctx context.Context, logger *slog.Logger, opts options) error {
	if opts.html == "" {
		return errors.New("--replay requires --html")
	}
	responses, err := fediwatch.ReadRecording(opts.replay)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.html)
	if err != nil {
		return err
	}
	doc, err := htmldoc.Parse(f)
	f.Close()
	if err != nil {
		return err
	}

	// Events go to stdout unless the augmented HTML does.
	var sinks []fediwatch.Sink
	var out io.Writer = os.Stdout
	if opts.out != "" {
		sinks = append(sinks, fediwatch.NewStdoutSink(nil))
		of, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		defer of.Close()
		out = of
	}

	res, sess, err := fediwatch.Replay(ctx, fediwatch.ReplayConfig{
		PageURL:   opts.html,
		Responses: responses,
		Document:  doc,
		Sink:      fediwatch.NewRouterSink(logger, sinks...),
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	logger.Info("fediwatch: replay done",
		"responses", res.Responses,
		"directory", len(res.Directory),
		"candidates", res.Report.Candidates,
		"augmented", len(res.Report.Augmented))

	if err := doc.Render(out); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	// Keep the result inspectable until interrupted.
	if opts.debugAddr != "" {
		return fediwatch.ServeDebug(ctx, opts.debugAddr, fediwatch.NewDebugHandler(fediwatch.SessionList{sess}, logger), logger)
	}
	return nil
}

// applyFlags lets command-line flags override file and env settings.
func applyFlags(cfg *fediwatch.Config, opts options) {
	if opts.remote != "" {
		cfg.Browser.Remote = opts.remote
	}
	if opts.record != "" {
		cfg.Record = opts.record
	}
	if opts.debugAddr != "" {
		cfg.Debug.Listen = opts.debugAddr
	}
}
