// Package settings persists the user's preferences as a JSON object of
// top-level sections. Only whole sections are read or written.
package settings

import "github.com/ytmshell/ytmshell/internal/plugins"

const (
	Language        = "en-GB"
	DefaultClientID = "1234567890123456789"
	FileName        = "settings.json"
)

type AppSettings struct {
	General    General    `json:"general"`
	Appearance Appearance `json:"appearance"`
	Playback   Playback   `json:"playback"`
	Discord    Discord    `json:"discord"`
	Plugins    Plugins    `json:"plugins"`
	Advanced   Advanced   `json:"advanced"`
}

type General struct {
	StartMinimized bool   `json:"start_minimized"`
	MinimizeToTray bool   `json:"minimize_to_tray"`
	LaunchAtLogin  bool   `json:"launch_at_login"`
	Language       string `json:"language"`
}

type Appearance struct {
	Theme       string `json:"theme"`
	AccentColor string `json:"accent_color"`
	FontSize    string `json:"font_size"`
	CompactMode bool   `json:"compact_mode"`
}

type Playback struct {
	DefaultQuality string `json:"default_quality"`
	Crossfade      bool   `json:"crossfade"`
	Gapless        bool   `json:"gapless"`
	RepeatDefault  string `json:"repeat_default"`
	ShuffleDefault bool   `json:"shuffle_default"`
}

type Discord struct {
	Enabled       bool   `json:"enabled"`
	ClientID      string `json:"client_id"`
	ShowButtons   bool   `json:"show_buttons"`
	HideListening bool   `json:"hide_listening"`
}

type Plugins struct {
	EnabledPlugins []string `json:"enabled_plugins"`
}

type Advanced struct {
	DataDirectory string `json:"data_directory"`
	CacheSizeMB   uint32 `json:"cache_size_mb"`
	DebugMode     bool   `json:"debug_mode"`
	CustomCSS     string `json:"custom_css"`
	CustomJS      string `json:"custom_js"`
}

// Defaults is what a fresh install starts with. Fields missing from a
// stored section keep these values.
func Defaults() AppSettings {
	return AppSettings{
		General: General{
			MinimizeToTray: true,
			Language:       Language,
		},
		Appearance: Appearance{
			Theme:       "system",
			AccentColor: "#ff0000",
			FontSize:    "medium",
		},
		Playback: Playback{
			DefaultQuality: "auto",
			Gapless:        true,
			RepeatDefault:  "none",
		},
		Discord: Discord{
			Enabled:     true,
			ClientID:    DefaultClientID,
			ShowButtons: true,
		},
		Plugins: Plugins{
			EnabledPlugins: append([]string{}, plugins.DefaultEnabled...),
		},
		Advanced: Advanced{
			CacheSizeMB: 500,
		},
	}
}
