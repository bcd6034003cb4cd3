package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/ytmshell/ytmshell/internal/bridge"
	"github.com/ytmshell/ytmshell/internal/config"
)

const (
	windowWidth  = 1280
	windowHeight = 800
)

func setupAllocator(cfg *config.RuntimeConfig) (context.Context, context.CancelFunc, error) {
	if err := os.MkdirAll(cfg.ProfileDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create profile dir: %w", err)
	}

	bridge.RemoveStaleLocks(cfg.ProfileDir)
	if bridge.WasUncleanExit(cfg.ProfileDir) {
		slog.Warn("previous session exited uncleanly, clearing Chrome session restore data")
		bridge.ClearChromeSessions(cfg.ProfileDir)
	}

	slog.Info("launching Chrome", "profile", cfg.ProfileDir, "headless", cfg.Headless)
	bridge.MarkCleanExit(cfg.ProfileDir)
	ctx, cancel := chromedp.NewExecAllocator(context.Background(), buildChromeOpts(cfg)...)
	return ctx, cancel, nil
}

func buildChromeOpts(cfg *config.RuntimeConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.UserDataDir(cfg.ProfileDir),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		// Playback keeps running while the window is hidden or covered.
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-session-crashed-bubble", true),
		chromedp.Flag("hide-crash-restore-bubble", true),
		chromedp.Flag("no-first-run", true),

		chromedp.WindowSize(windowWidth, windowHeight),
	}

	if cfg.ChromeBinary != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromeBinary))
	}
	if cfg.ChromeExtraFlags != "" {
		for _, f := range strings.Fields(cfg.ChromeExtraFlags) {
			if k, v, ok := strings.Cut(f, "="); ok {
				opts = append(opts, chromedp.Flag(strings.TrimLeft(k, "-"), v))
			} else {
				opts = append(opts, chromedp.Flag(strings.TrimLeft(f, "-"), true))
			}
		}
	}

	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
		if cfg.URL != "" {
			opts = append(opts, chromedp.Flag("app", cfg.URL))
		}
	}

	return opts
}

// startChrome launches the browser and opens the main window on cfg.URL.
func startChrome(allocCtx context.Context, cfg *config.RuntimeConfig) (*bridge.Window, error) {
	startCtx, startDone := context.WithTimeout(context.Background(), chromeStartTimeout)
	defer startDone()

	type result struct {
		win *bridge.Window
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		w, err := bridge.OpenWindow(allocCtx, cfg.URL)
		resCh <- result{w, err}
	}()

	select {
	case res := <-resCh:
		return res.win, res.err
	case <-startCtx.Done():
		go func() {
			if res := <-resCh; res.win != nil {
				res.win.Close()
			}
		}()
		return nil, fmt.Errorf("timed out after %s", chromeStartTimeout)
	}
}

// launch starts Chrome, clearing session restore data and retrying once if
// the first attempt fails.
func launch(cfg *config.RuntimeConfig) (*bridge.Window, context.CancelFunc, error) {
	allocCtx, allocCancel, err := setupAllocator(cfg)
	if err != nil {
		return nil, nil, err
	}
	win, err := startChrome(allocCtx, cfg)
	if err == nil {
		return win, allocCancel, nil
	}

	slog.Warn("Chrome startup failed, clearing sessions and retrying once", "err", err)
	allocCancel()
	bridge.ClearChromeSessions(cfg.ProfileDir)

	allocCtx, allocCancel, err = setupAllocator(cfg)
	if err != nil {
		return nil, nil, err
	}
	win, err = startChrome(allocCtx, cfg)
	if err != nil {
		allocCancel()
		return nil, nil, fmt.Errorf("chrome failed to start after retry (profile %s): %w", cfg.ProfileDir, err)
	}
	slog.Info("Chrome started on retry")
	return win, allocCancel, nil
}
