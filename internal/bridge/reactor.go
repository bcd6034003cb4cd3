package bridge

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ytmshell/ytmshell/internal/plugins"
)

const customCSSID = "ytm-custom-css"

// SettingsSource is the part of the settings store the bridge reads.
type SettingsSource interface {
	EnabledPlugins() []string
	Custom() (css, js string)
}

// Reactor pushes the current plugin and custom CSS/JS settings into the
// page without waiting for the next slow tick.
type Reactor struct {
	Page     Page
	Settings SettingsSource
	DataDir  string
}

// Bundle assembles the plugin bundle for the currently enabled plugins.
func (r *Reactor) Bundle() string {
	return plugins.Assemble(r.DataDir, r.Settings.EnabledPlugins())
}

func (r *Reactor) Apply(ctx context.Context) {
	if !r.Page.Present() {
		return
	}
	r.eval(ctx, "plugin bundle", r.Bundle())

	css, js := r.Settings.Custom()
	r.eval(ctx, "custom css", CustomCSSScript(css))
	if js != "" {
		r.eval(ctx, "custom js", js)
	}
}

func (r *Reactor) eval(ctx context.Context, what, script string) {
	if err := r.Page.Evaluate(ctx, script); err != nil {
		slog.Debug("page evaluation failed", "script", what, "err", err)
	}
}

// CustomCSSScript replaces the injected style element with css, or only
// removes it when css is empty. The CSS is embedded as a JSON string
// literal.
func CustomCSSScript(css string) string {
	if css == "" {
		return `(function(){ var el = document.getElementById('` + customCSSID + `'); if (el) el.remove(); })();`
	}
	lit, _ := json.Marshal(css)
	return `(function(){
  var el = document.getElementById('` + customCSSID + `');
  if (el) el.remove();
  if (!document.head) return;
  el = document.createElement('style');
  el.id = '` + customCSSID + `';
  el.textContent = ` + string(lit) + `;
  document.head.appendChild(el);
})();`
}
