package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdsite/internal/builder"
	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/events"
	"git.home.luguber.info/inful/mdsite/internal/gitsource"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/scheduler"
	"git.home.luguber.info/inful/mdsite/internal/server"
	"git.home.luguber.info/inful/mdsite/internal/store"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"mdsite.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Output directory for the generated site"`
	} `cmd:"" help:"Build the static site from the content directory"`

	Serve struct {
		Port int  `short:"p" help:"Listen port (overrides config)"`
		Dev  bool `help:"Development mode: show drafts and refresh changed files"`
	} `cmd:"" help:"Serve the site over HTTP"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	switch ctx.Command() {
	case "build":
		if err := runBuild(); err != nil {
			slog.Error("Build failed", "error", err)
			os.Exit(1)
		}
	case "serve":
		if err := runServe(); err != nil {
			slog.Error("Serve failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		slog.Info("configuration written", "path", CLI.Config)
	}
}

// setupStore builds the document store from configuration, syncing git
// content and wiring the optional cache and event publisher.
func setupStore(cfg *config.Config, mode store.RuntimeMode, rec metrics.Recorder) (*store.DocumentStore, func(), error) {
	cleanup := func() {}

	if cfg.Content.GitURL != "" {
		syncer := &gitsource.Syncer{
			URL:    cfg.Content.GitURL,
			Branch: cfg.Content.GitBranch,
			Dir:    cfg.Content.Directory,
		}
		if _, err := syncer.Sync(); err != nil {
			return nil, cleanup, err
		}
	}

	opts := store.Options{
		ContentDir: cfg.Content.Directory,
		SiteTitle:  cfg.Site.Title,
		Mode:       mode,
		Recorder:   rec,
	}

	if cfg.Cache.Enabled {
		cache, err := store.NewRenderCache(cfg.Cache.Path)
		if err != nil {
			slog.Warn("render cache unavailable, continuing without it", "error", err)
		} else {
			opts.Cache = cache
		}
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.NATSURL != "" {
		p, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			slog.Warn("event publisher unavailable, continuing without it", "error", err)
		} else {
			publisher = p
			cleanup = func() { _ = p.Close() }
		}
	}
	opts.Publisher = publisher

	s, err := store.New(opts)
	if err != nil {
		return nil, cleanup, err
	}
	return s, cleanup, nil
}

func runBuild() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if CLI.Build.Output != "" {
		cfg.Output.Directory = CLI.Build.Output
	}

	mode := store.RuntimeMode{BackgroundTask: true}
	s, cleanup, err := setupStore(cfg, mode, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() { _ = s.Close() }()

	if err := s.Scan(context.Background()); err != nil {
		return err
	}

	_, err = builder.Build(s, builder.Options{
		OutputDir: cfg.Output.Directory,
		SiteTitle: cfg.Site.Title,
		Clean:     cfg.Output.Clean,
	})
	return err
}

func runServe() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if CLI.Serve.Port != 0 {
		// A port override drags a defaulted (shared) metrics port along.
		if cfg.Server.MetricsPort == cfg.Server.Port {
			cfg.Server.MetricsPort = CLI.Serve.Port
		}
		cfg.Server.Port = CLI.Serve.Port
	}

	var rec metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if cfg.Server.Metrics {
		prom = metrics.NewPrometheusRecorder(nil)
		rec = prom
	}

	mode := store.RuntimeMode{Development: CLI.Serve.Dev}
	s, cleanup, err := setupStore(cfg, mode, rec)
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() { _ = s.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Scan(ctx); err != nil {
		return err
	}

	srv := server.New(s, server.Options{
		Port:        cfg.Server.Port,
		SiteTitle:   cfg.Site.Title,
		Metrics:     prom,
		MetricsPort: cfg.Server.MetricsPort,
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}

	if CLI.Serve.Dev {
		watcher, err := store.NewWatcher(s)
		if err != nil {
			slog.Warn("file watching unavailable", "error", err)
		} else {
			go func() { _ = watcher.Run(ctx) }()
		}
	}

	if interval := cfg.Content.RescanEvery(); interval > 0 {
		sched, err := scheduler.New()
		if err != nil {
			return err
		}
		var sync func() error
		if cfg.Content.GitURL != "" {
			syncer := &gitsource.Syncer{
				URL:    cfg.Content.GitURL,
				Branch: cfg.Content.GitBranch,
				Dir:    cfg.Content.Directory,
			}
			sync = func() error { _, err := syncer.Sync(); return err }
		}
		if _, err := sched.ScheduleRescan(interval, s, sync); err != nil {
			return err
		}
		sched.Start()
		defer func() { _ = sched.Stop() }()
	}

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
