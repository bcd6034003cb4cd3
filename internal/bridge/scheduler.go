package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/ytmshell/ytmshell/internal/playback"
	"github.com/ytmshell/ytmshell/internal/plugins"
)

const (
	FastInterval = 2 * time.Second
	SlowEvery    = 8
)

// Scheduler re-injects scripts into the page on a fixed cadence. Every fast
// tick evaluates the scraper and the settings button; the first tick and
// every SlowEvery-th tick after it also evaluate the plugin bundle.
type Scheduler struct {
	Page Page
	Port int
	// ScrapeEnabled is false when another process owns the beacon port.
	ScrapeEnabled bool
	Bundle        func() string
	Interval      time.Duration
	SlowEvery     uint64

	ticks uint64
}

func (s *Scheduler) interval() time.Duration {
	if s.Interval <= 0 {
		return FastInterval
	}
	return s.Interval
}

func (s *Scheduler) slowEvery() uint64 {
	if s.SlowEvery == 0 {
		return SlowEvery
	}
	return s.SlowEvery
}

// Run ticks until ctx is done. The first tick fires one interval after
// start.
func (s *Scheduler) Run(ctx context.Context) {
	t := time.NewTicker(s.interval())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one fast tick. Ticks while the window is absent are
// skipped entirely and do not advance the counter.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.Page.Present() {
		return
	}
	if s.ticks < ^uint64(0) {
		s.ticks++
	}

	if s.ScrapeEnabled {
		s.eval(ctx, "scrape", playback.ScraperScript(s.Port))
	}
	s.eval(ctx, "settings button", plugins.SettingsButtonScript)

	if s.ticks <= 1 || s.ticks%s.slowEvery() == 0 {
		if s.Bundle != nil {
			if bundle := s.Bundle(); bundle != "" {
				s.eval(ctx, "plugin bundle", bundle)
			}
		}
	}
}

func (s *Scheduler) eval(ctx context.Context, what, script string) {
	if err := s.Page.Evaluate(ctx, script); err != nil {
		slog.Debug("page evaluation failed", "script", what, "err", err)
	}
}
