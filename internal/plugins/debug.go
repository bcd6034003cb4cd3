package plugins

import (
	"os"
	"unicode/utf8"
)

const previewLen = 500

// Report describes what Assemble would inject, for troubleshooting from the
// settings UI.
type Report struct {
	PluginsDir    string   `json:"pluginsDir"`
	DirExists     bool     `json:"dirExists"`
	Enabled       []string `json:"enabled"`
	Installed     []string `json:"installed"`
	ScriptLength  int      `json:"scriptLength"`
	ScriptPreview string   `json:"scriptPreview"`
}

func Debug(appDataDir string, ids []string) Report {
	root := Dir(appDataDir)
	r := Report{PluginsDir: root, Enabled: append([]string{}, ids...), Installed: []string{}}
	if fi, err := os.Stat(root); err == nil && fi.IsDir() {
		r.DirExists = true
		if entries, err := Scan(appDataDir); err == nil {
			for _, e := range entries {
				r.Installed = append(r.Installed, e.ID)
			}
		}
	}

	script := Assemble(appDataDir, ids)
	r.ScriptLength = len(script)
	r.ScriptPreview = truncate(script, previewLen)
	return r
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s + "..."
}
