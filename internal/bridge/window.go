package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

const evalTimeout = 5 * time.Second

// Window is the main app window: a chromedp tab pinned to the hosted site.
type Window struct {
	ctx    context.Context
	cancel context.CancelFunc
	host   string
	id     target.ID

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	onLoad []func(ctx context.Context)
}

// OpenWindow navigates a tab to rawURL. Given an allocator context it
// launches the browser and takes its first tab; given a browser context it
// opens a new tab. Load hooks registered later fire only while the tab
// stays on the same host.
func OpenWindow(parent context.Context, rawURL string) (*Window, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}

	ctx, cancel := chromedp.NewContext(parent)
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("attach window: %w", err)
	}
	w := &Window{ctx: ctx, cancel: cancel, host: u.Hostname(), done: make(chan struct{})}
	if c := chromedp.FromContext(ctx); c != nil && c.Target != nil {
		w.id = c.Target.TargetID
	}
	w.listen()

	if err := chromedp.Run(ctx, chromedp.Navigate(rawURL)); err != nil {
		slog.Warn("initial navigation failed", "url", rawURL, "err", err)
	}
	return w, nil
}

func (w *Window) listen() {
	chromedp.ListenTarget(w.ctx, func(ev any) {
		if _, ok := ev.(*page.EventLoadEventFired); ok {
			go w.loaded()
		}
	})
	chromedp.ListenBrowser(w.ctx, func(ev any) {
		if e, ok := ev.(*target.EventTargetDestroyed); ok && e.TargetID == w.id {
			w.markClosed()
		}
	})
	go func() {
		<-w.ctx.Done()
		w.markClosed()
	}()
}

func (w *Window) markClosed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.done)
		slog.Info("main window closed")
	}
}

// Done is closed once the tab is gone, whoever closed it.
func (w *Window) Done() <-chan struct{} {
	return w.done
}

func (w *Window) Present() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.closed && w.ctx.Err() == nil
}

// Evaluate runs script in the page and discards its result.
func (w *Window) Evaluate(ctx context.Context, script string) error {
	if !w.Present() {
		return ErrNoWindow
	}
	runCtx, cancel := context.WithTimeout(w.ctx, evalTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, chromedp.Evaluate(script, nil))
}

// OnLoad registers fn to run after every finished page load on the
// window's host.
func (w *Window) OnLoad(fn func(ctx context.Context)) {
	w.mu.Lock()
	w.onLoad = append(w.onLoad, fn)
	w.mu.Unlock()
}

func (w *Window) loaded() {
	if !w.Present() {
		return
	}
	ctx, cancel := context.WithTimeout(w.ctx, evalTimeout)
	defer cancel()
	var loc string
	if err := chromedp.Run(ctx, chromedp.Location(&loc)); err != nil {
		slog.Debug("load location", "err", err)
		return
	}
	if !sameSite(loc, w.host) {
		return
	}

	w.mu.Lock()
	hooks := append([]func(context.Context){}, w.onLoad...)
	w.mu.Unlock()
	for _, fn := range hooks {
		fn(w.ctx)
	}
}

func sameSite(rawURL, host string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	h := u.Hostname()
	return h == host || strings.HasSuffix(h, "."+host)
}

// OpenPopup opens rawURL in a separate browser window next to this one.
func (w *Window) OpenPopup(ctx context.Context, rawURL string) (target.ID, error) {
	if !w.Present() {
		return "", ErrNoWindow
	}
	c := chromedp.FromContext(w.ctx)
	if c == nil || c.Browser == nil {
		return "", ErrNoWindow
	}
	runCtx, cancel := context.WithTimeout(ctx, evalTimeout)
	defer cancel()
	id, err := target.CreateTarget(rawURL).WithNewWindow(true).Do(cdp.WithExecutor(runCtx, c.Browser))
	if err != nil {
		return "", fmt.Errorf("open popup: %w", err)
	}
	return id, nil
}

// Close closes the tab.
func (w *Window) Close() {
	w.cancel()
}
