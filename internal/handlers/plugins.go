package handlers

import (
	"net/http"

	"github.com/ytmshell/ytmshell/internal/plugins"
	"github.com/ytmshell/ytmshell/internal/web"
)

func (h *Handlers) HandlePlugins(w http.ResponseWriter, r *http.Request) {
	entries, err := plugins.Scan(h.Config.DataDir)
	if err != nil {
		web.Error(w, 500, err)
		return
	}
	web.JSON(w, 200, entries)
}

// HandlePluginBundle returns exactly what the scheduler would inject on a
// slow tick right now.
func (h *Handlers) HandlePluginBundle(w http.ResponseWriter, r *http.Request) {
	web.Script(w, plugins.Assemble(h.Config.DataDir, h.Settings.EnabledPlugins()))
}

func (h *Handlers) HandlePluginDebug(w http.ResponseWriter, r *http.Request) {
	web.JSON(w, 200, plugins.Debug(h.Config.DataDir, h.Settings.EnabledPlugins()))
}
