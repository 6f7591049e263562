package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/avetrov/geodesk/internal/core/config"
	"github.com/avetrov/geodesk/internal/core/httpclient"
	"github.com/avetrov/geodesk/internal/core/observability"
	"github.com/avetrov/geodesk/internal/core/server"
	"github.com/avetrov/geodesk/internal/editor"
	"github.com/avetrov/geodesk/internal/geoapi"
	"github.com/avetrov/geodesk/internal/inspect"
	"github.com/avetrov/geodesk/internal/layers"
	"github.com/avetrov/geodesk/internal/logger"
	"github.com/avetrov/geodesk/internal/model"
	"github.com/avetrov/geodesk/internal/notice"
	"github.com/avetrov/geodesk/internal/staticdata"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "editor",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting editor",
		"addr", cfg.Addr,
		"version", Version,
		"backend", cfg.BackendURL,
		"data_dir", cfg.DataDir)

	gates := layers.DefaultGates()
	sources := staticdata.DefaultSources()
	if cfg.LayersFile != "" {
		overlays, err := config.LoadLayerOverlays(cfg.LayersFile)
		if err != nil {
			appLog.Error("layers file unusable", "path", cfg.LayersFile, "err", err)
			return 1
		}
		for name, lo := range overlays {
			c, err := model.ParseCategory(name)
			if err != nil {
				appLog.Warn("layers file names unknown category", "name", name)
				continue
			}
			g := gates[c]
			if lo.MinZoom != nil {
				g.MinZoom = lo.MinZoom
			}
			if lo.MaxZoom != nil {
				g.MaxZoom = lo.MaxZoom
			}
			gates[c] = g
			if len(lo.Files) > 0 {
				sources[c] = lo.Files
			}
		}
	}

	httpClient := httpclient.NewOutbound()
	httpClient.Timeout = cfg.FetchTimeout

	backend, err := geoapi.New(appLog, httpClient, cfg.BackendURL)
	if err != nil {
		appLog.Error("backend client setup failed", "err", err)
		return 1
	}

	history, err := inspect.NewHistory(cfg.RecentViews)
	if err != nil {
		appLog.Error("inspect history setup failed", "err", err)
		return 1
	}

	engine := editor.New(editor.Config{
		Logger:      appLog,
		Backend:     backend,
		Registry:    layers.NewRegistry(gates),
		Notices:     notice.NewBoard(cfg.NoticeTTL),
		History:     history,
		InitialZoom: cfg.InitialZoom,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// baseline files and the first backend sync load behind the
	// listener; readiness flips once the baseline is in
	go func() {
		engine.SetBaseline(staticdata.Load(appLog, cfg.DataDir, sources))
		engine.RefreshAll(ctx)
	}()

	if err := server.Run(ctx, cfg, appLog, engine); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
