// Package bridge keeps the hosted page and the native side in step: it owns
// the beacon listener, the re-injection scheduler and the settings reactor.
package bridge

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ytmshell/ytmshell/internal/events"
	"github.com/ytmshell/ytmshell/internal/playback"
	"github.com/ytmshell/ytmshell/internal/plugins"
)

// Handle is everything the bridge needs from the host process.
type Handle struct {
	Page            Page
	Settings        SettingsSource
	DataDir         string
	Cell            *playback.Cell
	Updates         *events.Hub[playback.State]
	OpenSettings    *events.Hub[events.Signal]
	SettingsChanged *events.Hub[events.Signal]

	once   sync.Once
	bridge *Bridge
}

// Options exist for tests; production uses the zero value.
type Options struct {
	Addr      string
	Interval  time.Duration
	SlowEvery uint64
}

type Bridge struct {
	server  *playback.Server
	reactor *Reactor
	kick    chan struct{}
	cancel  context.CancelFunc
	unsub   func()
	wg      sync.WaitGroup
}

// StartBridge binds the beacon listener once and starts the scheduler and
// the settings reactor. Calling it again with the same handle returns the
// running bridge. A bind failure is logged and leaves the bridge running
// without scraping; it never fails the caller.
func StartBridge(ctx context.Context, h *Handle, opts Options) *Bridge {
	h.once.Do(func() { h.bridge = start(ctx, h, opts) })
	return h.bridge
}

func start(ctx context.Context, h *Handle, opts Options) *Bridge {
	addr := opts.Addr
	if addr == "" {
		addr = net.JoinHostPort(playback.LoopbackHost, strconv.Itoa(playback.Port))
	}
	ctx, cancel := context.WithCancel(ctx)
	b := &Bridge{
		cancel:  cancel,
		kick:    make(chan struct{}, 1),
		reactor: &Reactor{Page: h.Page, Settings: h.Settings, DataDir: h.DataDir},
	}

	port := playback.Port
	srv, err := playback.Listen(addr, h.Cell, h.Updates, h.OpenSettings)
	if err != nil {
		slog.Warn("playback bridge disabled, beacon port unavailable", "addr", addr, "err", err)
	} else {
		b.server = srv
		if _, p, err := net.SplitHostPort(srv.Addr()); err == nil {
			port, _ = strconv.Atoi(p)
		}
		slog.Info("playback bridge listening", "addr", srv.Addr())
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			if err := srv.Serve(); err != nil {
				slog.Warn("playback bridge stopped", "err", err)
			}
		}()
	}

	sched := &Scheduler{
		Page:          h.Page,
		Port:          port,
		ScrapeEnabled: srv != nil,
		Bundle:        b.reactor.Bundle,
		Interval:      opts.Interval,
		SlowEvery:     opts.SlowEvery,
	}
	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		sched.Run(ctx)
	}()
	go func() {
		defer b.wg.Done()
		b.reactLoop(ctx)
	}()

	if h.SettingsChanged != nil {
		b.unsub = h.SettingsChanged.Subscribe(func(events.Signal) { b.Refresh() })
	}
	if n, ok := h.Page.(loadNotifier); ok {
		n.OnLoad(func(ctx context.Context) {
			if err := h.Page.Evaluate(ctx, plugins.SettingsButtonScript); err != nil {
				slog.Debug("page evaluation failed", "script", "settings button", "err", err)
			}
			b.reactor.Apply(ctx)
		})
	}
	// The window finished its first load before the hook above existed.
	b.Refresh()
	return b
}

// Refresh asks the reactor to re-apply settings. Requests made while one
// is pending collapse into it.
func (b *Bridge) Refresh() {
	select {
	case b.kick <- struct{}{}:
	default:
	}
}

func (b *Bridge) reactLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.kick:
			b.reactor.Apply(ctx)
		}
	}
}

// Bound reports whether this process owns the beacon listener.
func (b *Bridge) Bound() bool {
	return b.server != nil
}

func (b *Bridge) Addr() string {
	if b.server == nil {
		return ""
	}
	return b.server.Addr()
}

// Close stops every loop the bridge started and waits for them.
func (b *Bridge) Close() error {
	b.cancel()
	if b.unsub != nil {
		b.unsub()
	}
	var err error
	if b.server != nil {
		err = b.server.Close()
	}
	b.wg.Wait()
	return err
}
