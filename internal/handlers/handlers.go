// Package handlers serves the native HTTP API the shell UI talks to.
package handlers

import (
	"context"
	"net/http"

	"github.com/ytmshell/ytmshell/internal/assets"
	"github.com/ytmshell/ytmshell/internal/config"
	"github.com/ytmshell/ytmshell/internal/events"
	"github.com/ytmshell/ytmshell/internal/lyrics"
	"github.com/ytmshell/ytmshell/internal/playback"
	"github.com/ytmshell/ytmshell/internal/settings"
	"github.com/ytmshell/ytmshell/internal/web"
)

type SettingsStore interface {
	Get() settings.AppSettings
	Set(settings.AppSettings) error
	EnabledPlugins() []string
}

type LyricsFetcher interface {
	Fetch(ctx context.Context, req lyrics.Request) (string, bool, error)
}

// BridgeStatus is the view of the running bridge shown on /health.
type BridgeStatus interface {
	Bound() bool
	Addr() string
}

type Handlers struct {
	Config          *config.RuntimeConfig
	Cell            *playback.Cell
	Updates         *events.Hub[playback.State]
	SettingsChanged *events.Hub[events.Signal]
	Settings        SettingsStore
	Lyrics          LyricsFetcher
	Bridge          BridgeStatus
	Version         string
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /metrics", h.HandleMetrics)
	mux.HandleFunc("GET /playback", h.HandlePlayback)
	mux.HandleFunc("GET /events", h.HandleEvents)
	mux.HandleFunc("GET /plugins", h.HandlePlugins)
	mux.HandleFunc("GET /plugins/bundle", h.HandlePluginBundle)
	mux.HandleFunc("GET /plugins/debug", h.HandlePluginDebug)
	mux.HandleFunc("GET /settings", h.HandleGetSettings)
	mux.HandleFunc("PUT /settings", h.HandlePutSettings)
	mux.HandleFunc("GET /settings/ui", h.HandleSettingsUI)
	mux.HandleFunc("POST /lyrics", h.HandleLyrics)
}

// Handler wraps the routes in the middleware chain the server runs with.
func (h *Handlers) Handler() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return LoggingMiddleware(RequestIDMiddleware(OriginMiddleware(AuthMiddleware(h.Config, mux))))
}

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	bridge := map[string]any{"bound": false}
	if h.Bridge != nil {
		bridge["bound"] = h.Bridge.Bound()
		if addr := h.Bridge.Addr(); addr != "" {
			bridge["addr"] = addr
		}
	}
	web.JSON(w, 200, map[string]any{"status": "ok", "version": h.Version, "bridge": bridge})
}

func (h *Handlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	web.JSON(w, 200, snapshotMetrics())
}

// HandlePlayback returns the last accepted state, or null before the first beacon.
func (h *Handlers) HandlePlayback(w http.ResponseWriter, r *http.Request) {
	web.JSON(w, 200, h.Cell.Snapshot())
}

func (h *Handlers) HandleSettingsUI(w http.ResponseWriter, r *http.Request) {
	if tok := r.URL.Query().Get("token"); tok != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     tokenCookie,
			Value:    tok,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(assets.SettingsHTML))
}
