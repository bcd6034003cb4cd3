package plugins

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Entry is one installed plugin as listed to the shell.
type Entry struct {
	ID       string   `json:"id"`
	Manifest Manifest `json:"manifest"`
}

// Scan lists every plugin directory with a valid manifest, sorted by id.
// The plugins dir is created when missing.
func Scan(appDataDir string) ([]Entry, error) {
	root := Dir(appDataDir)
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create plugins dir: %w", err)
	}
	dirents, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read plugins dir: %w", err)
	}

	entries := []Entry{}
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		m, err := readManifest(filepath.Join(root, d.Name()))
		if err != nil {
			slog.Debug("plugin ignored", "id", d.Name(), "err", err)
			continue
		}
		entries = append(entries, Entry{ID: d.Name(), Manifest: m})
	}
	return entries, nil
}
