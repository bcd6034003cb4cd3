package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ytmshell/ytmshell/internal/events"
	"github.com/ytmshell/ytmshell/internal/web"
)

const (
	maxHeaderBytes = 16 << 10
	maxDataBytes   = 8 << 10
)

// Server is the loopback listener the scraper beacons to. It accepts any
// sender on the loopback interface; beacons are unauthenticated.
type Server struct {
	cell         *Cell
	updates      *events.Hub[State]
	openSettings *events.Hub[events.Signal]

	// ingest serialises set+publish so listeners observe updates in the
	// same order the cell was written. Lock order is ingest then the cell
	// mutex, and the cell mutex is released before publishing.
	ingest sync.Mutex

	ln  net.Listener
	srv *http.Server
}

// NewServer builds an unbound server. Use Listen to bind it.
func NewServer(cell *Cell, updates *events.Hub[State], openSettings *events.Hub[events.Signal]) *Server {
	s := &Server{cell: cell, updates: updates, openSettings: openSettings}
	s.srv = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    maxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug),
	}
	return s
}

// Listen binds addr once. A bind failure (typically a second instance
// holding the port) is returned to the caller, who decides to degrade.
func Listen(addr string, cell *Cell, updates *events.Hub[State], openSettings *events.Hub[events.Signal]) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	s := NewServer(cell, updates, openSettings)
	s.ln = ln
	return s, nil
}

func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Serve blocks accepting beacons until Close.
func (s *Server) Serve() error {
	if s.ln == nil {
		return errors.New("server not bound")
	}
	err := s.srv.Serve(s.ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close() error {
	return s.srv.Close()
}

// ServeHTTP answers every request with an empty 204, whatever happened.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer web.NoContent(w)

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return
	}

	switch r.URL.Path {
	case "/playback":
		if r.URL.RawQuery == "" {
			return
		}
		s.handleBeacon(r)
	case "/open-settings":
		if s.openSettings != nil {
			s.openSettings.Publish(events.Signal{})
		}
	}
}

func (s *Server) handleBeacon(r *http.Request) {
	if len(r.URL.RawQuery) > 3*maxDataBytes {
		slog.Debug("beacon dropped", "reason", "query too long", "len", len(r.URL.RawQuery))
		return
	}
	data := r.URL.Query().Get("data")
	if data == "" || len(data) > maxDataBytes {
		slog.Debug("beacon dropped", "reason", "missing or oversized data", "len", len(data))
		return
	}

	state, err := Decode([]byte(data))
	if err != nil {
		slog.Debug("beacon dropped", "err", err)
		return
	}
	s.Ingest(state)
}

// Ingest replaces the cell and notifies listeners. Subscribers run on
// this goroutine while ingest is held: they may read the cell, but must
// not call Ingest themselves. Hand such work to another goroutine.
func (s *Server) Ingest(state State) {
	s.ingest.Lock()
	defer s.ingest.Unlock()
	s.cell.Set(state)
	if s.updates != nil {
		s.updates.Publish(state)
	}
}
