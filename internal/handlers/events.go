package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/ytmshell/ytmshell/internal/playback"
)

const pingInterval = 10 * time.Second

// latest is a one-slot mailbox: a slow reader only ever sees the newest
// state, never a backlog.
type latest struct {
	mu        sync.Mutex
	ch        chan playback.State
	delivered bool
}

func newLatest() *latest {
	return &latest{ch: make(chan playback.State, 1)}
}

func (l *latest) offer(s playback.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.delivered = true
	l.replace(s)
}

// seed is used for the state current at connect time. It loses against any
// update that arrived after subscribing.
func (l *latest) seed(s playback.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.delivered {
		l.replace(s)
	}
}

func (l *latest) replace(s playback.State) {
	select {
	case <-l.ch:
	default:
	}
	l.ch <- s
}

// HandleEvents upgrades to WebSocket and streams playback updates as JSON
// text frames, starting with the current state if there is one.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	box := newLatest()
	unsub := h.Updates.Subscribe(box.offer)
	defer unsub()
	if s, ok := h.Cell.Get(); ok {
		box.seed(s)
	}

	var once sync.Once
	done := make(chan struct{})
	go func() {
		for {
			if _, _, err := wsutil.ReadClientData(conn); err != nil {
				once.Do(func() { close(done) })
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case s := <-box.ch:
			data, err := json.Marshal(s)
			if err != nil {
				slog.Error("encode playback event", "err", err)
				continue
			}
			if err := wsutil.WriteServerText(conn, data); err != nil {
				return
			}
		case <-ping.C:
			if err := wsutil.WriteServerMessage(conn, ws.OpPing, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
