package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jetpackmatt/freightdesk/cmd/freightdesk/internal/ui"
	"github.com/jetpackmatt/freightdesk/internal/artifact"
	"github.com/jetpackmatt/freightdesk/internal/config"
	"github.com/jetpackmatt/freightdesk/internal/export"
	"github.com/jetpackmatt/freightdesk/internal/history"
	"github.com/jetpackmatt/freightdesk/internal/pager"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("freightdesk %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the TUI; logs go to a file next to the
	// history database.
	logger := newFileLogger(cfg.History.Path)
	slog.SetDefault(logger)

	logger.Info("starting freightdesk", "version", Version, "build_time", BuildTime)

	saver := artifact.NewSaver(cfg.Export.DownloadDir, logger)
	pagerClient := pager.NewClient(pager.Config{
		BaseURL:  cfg.API.BaseURL,
		APIKey:   cfg.API.APIKey,
		PageSize: cfg.API.PageSize,
		Timeout:  cfg.API.Timeout,
	}, logger)

	engineCfg := export.Config{
		Saver:  saver,
		Logger: logger,
	}

	var hist *history.Store
	if cfg.History.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0755); err == nil {
			hist, err = history.Open(cfg.History.Path, logger)
			if err != nil {
				logger.Warn("export history disabled", "error", err)
			}
		}
	}
	if hist != nil {
		defer hist.Close()
		engineCfg.Recorder = hist
	}

	engine := export.NewEngine(export.NewStore(), engineCfg)

	app := ui.NewApp(cfg, engine, pagerClient, saver, logger)
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "freightdesk: %v\n", err)
		os.Exit(1)
	}
}

func newFileLogger(historyPath string) *slog.Logger {
	dir := filepath.Dir(historyPath)
	var w io.Writer = io.Discard
	if err := os.MkdirAll(dir, 0755); err == nil {
		if f, err := os.OpenFile(filepath.Join(dir, "freightdesk.log"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644); err == nil {
			w = f
		}
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
