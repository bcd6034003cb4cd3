package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ytmshell/ytmshell/internal/assets"
	"github.com/ytmshell/ytmshell/internal/bridge"
	"github.com/ytmshell/ytmshell/internal/config"
	"github.com/ytmshell/ytmshell/internal/discord"
	"github.com/ytmshell/ytmshell/internal/events"
	"github.com/ytmshell/ytmshell/internal/handlers"
	"github.com/ytmshell/ytmshell/internal/lyrics"
	"github.com/ytmshell/ytmshell/internal/playback"
	"github.com/ytmshell/ytmshell/internal/plugins"
	"github.com/ytmshell/ytmshell/internal/settings"
)

var version = "dev"

const chromeStartTimeout = 15 * time.Second

var errWindowClosed = errors.New("main window closed")

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("ytmshell %s\n", version)
			return
		case "config":
			config.HandleConfigCommand(cfg, os.Args[2:])
			return
		case "plugins":
			os.Exit(runPluginsCommand(cfg, os.Args[2:], os.Stdout))
		case "help", "--help", "-h":
			printHelp()
			return
		}
	}

	if err := run(cfg); err != nil {
		slog.Error("ytmshell", "err", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf(`ytmshell %s

Usage:
  ytmshell                    Open the player window
  ytmshell config init|show   Manage the config file
  ytmshell plugins [list|debug|install-defaults]
  ytmshell version
`, version)
}

func run(cfg *config.RuntimeConfig) error {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := plugins.EnsureDefaults(cfg.DataDir, assets.DefaultPlugins()); err != nil {
		slog.Warn("default plugins not fully installed", "err", err)
	}
	store := settings.Open(cfg.SettingsPath())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	win, allocCancel, err := launch(cfg)
	if err != nil {
		return err
	}
	defer allocCancel()
	defer win.Close()

	if cfg.BlockTrackers || len(cfg.BlockPatterns) > 0 {
		var patterns []string
		if cfg.BlockTrackers {
			patterns = bridge.TrackerPatterns
		}
		patterns = bridge.CombineBlockPatterns(patterns, cfg.BlockPatterns)
		if err := win.BlockURLs(ctx, patterns); err != nil {
			slog.Warn("url blocking not applied", "err", err)
		} else {
			slog.Info("url blocking enabled", "patterns", len(patterns))
		}
	}

	cell := playback.NewCell()
	updates := events.NewHub[playback.State]()
	openSettings := events.NewHub[events.Signal]()
	settingsChanged := events.NewHub[events.Signal]()

	b := bridge.StartBridge(ctx, &bridge.Handle{
		Page:            win,
		Settings:        store,
		DataDir:         cfg.DataDir,
		Cell:            cell,
		Updates:         updates,
		OpenSettings:    openSettings,
		SettingsChanged: settingsChanged,
	}, bridge.Options{})

	presence := discord.New(store)
	updates.Subscribe(presence.Offer)
	settingsChanged.Subscribe(func(events.Signal) {
		if s, ok := cell.Get(); ok {
			presence.Offer(s)
		}
	})
	openSettings.Subscribe(func(events.Signal) {
		go func() {
			u := settingsURL(cfg)
			if _, err := win.OpenPopup(ctx, u); err != nil {
				slog.Warn("open settings failed", "err", err)
			}
		}()
	})

	h := &handlers.Handlers{
		Config:          cfg,
		Cell:            cell,
		Updates:         updates,
		SettingsChanged: settingsChanged,
		Settings:        store,
		Lyrics:          lyrics.NewClient(),
		Bridge:          b,
		Version:         version,
	}
	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("ytmshell started", "api", cfg.ListenAddr(), "url", cfg.URL, "bridge", b.Addr())
	if cfg.Token != "" {
		slog.Info("auth enabled")
	} else {
		slog.Info("auth disabled (set YTM_TOKEN to enable)")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(optional("settings watcher", func() error {
		return settings.Watch(gctx, store, func() { settingsChanged.Publish(events.Signal{}) })
	}))
	g.Go(func() error {
		presence.Run(gctx)
		return nil
	})
	g.Go(func() error {
		select {
		case <-win.Done():
			return errWindowClosed
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("api shutdown", "err", err)
		}
		return b.Close()
	})

	err = g.Wait()
	bridge.MarkCleanExit(cfg.ProfileDir)
	if errors.Is(err, errWindowClosed) {
		return nil
	}
	return err
}

// optional wraps a background task whose failure only loses a convenience.
// The error is logged and the rest of the group keeps running.
func optional(name string, fn func() error) func() error {
	return func() error {
		if err := fn(); err != nil {
			slog.Warn(name+" disabled", "err", err)
		}
		return nil
	}
}

// settingsURL is where the settings popup loads the native settings page.
// The token rides along once and is then kept in a cookie.
func settingsURL(cfg *config.RuntimeConfig) string {
	host := cfg.Bind
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	u := url.URL{Scheme: "http", Host: net.JoinHostPort(host, cfg.Port), Path: "/settings/ui"}
	if cfg.Token != "" {
		u.RawQuery = url.Values{"token": {cfg.Token}}.Encode()
	}
	return u.String()
}
