package assets

import (
	"embed"
	"io/fs"
)

// PortPlaceholder is replaced with the beacon port before a script is used.
const PortPlaceholder = "__BRIDGE_PORT__"

//go:embed playback.js
var PlaybackScript string

//go:embed settings_button.js
var SettingsButtonScript string

//go:embed settings.html
var SettingsHTML string

//go:embed all:plugins
var bundled embed.FS

// DefaultPlugins returns the plugin directories shipped with the binary,
// rooted so that "lyrics/manifest.json" is a valid path.
func DefaultPlugins() fs.FS {
	sub, err := fs.Sub(bundled, "plugins")
	if err != nil {
		panic(err)
	}
	return sub
}
