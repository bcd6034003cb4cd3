package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ytmshell/ytmshell/internal/events"
	"github.com/ytmshell/ytmshell/internal/web"
)

const maxSettingsBody = 1 << 20

func (h *Handlers) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	web.JSON(w, 200, h.Settings.Get())
}

// HandlePutSettings merges the body over the current settings, saves the
// result and tells the bridge to re-apply it. Sections and fields the body
// leaves out keep their current values.
func (h *Handlers) HandlePutSettings(w http.ResponseWriter, r *http.Request) {
	next := h.Settings.Get()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBody)).Decode(&next); err != nil {
		web.ErrorCode(w, 400, "bad_settings", fmt.Sprintf("decode: %v", err), nil)
		return
	}
	if err := h.Settings.Set(next); err != nil {
		web.Error(w, 500, fmt.Errorf("save settings: %w", err))
		return
	}
	slog.Info("settings saved", "plugins", len(next.Plugins.EnabledPlugins))
	if h.SettingsChanged != nil {
		h.SettingsChanged.Publish(events.Signal{})
	}
	web.JSON(w, 200, h.Settings.Get())
}
