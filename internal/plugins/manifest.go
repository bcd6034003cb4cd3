// Package plugins turns the user's plugin directory into the single script
// bundle injected into the hosted page.
package plugins

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	ManifestFile = "manifest.json"
	defaultEntry = "index.js"
)

// ErrSkipped marks a plugin that is left out of the bundle.
var ErrSkipped = errors.New("plugin skipped")

// DefaultEnabled is used when the settings carry no plugin list, and is also
// the set provisioned into a fresh data dir.
var DefaultEnabled = []string{"lyrics", "fine-volume-control"}

type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Main        string   `json:"main"`
	Permissions []string `json:"permissions"`
}

// EntryFile is the script the bundle loads for this plugin.
func (m Manifest) EntryFile() string {
	if m.Main == "" {
		return defaultEntry
	}
	return m.Main
}

// Dir is where plugins live under the app data dir.
func Dir(appDataDir string) string {
	return filepath.Join(appDataDir, "plugins")
}

// validateID accepts a single path segment naming a dir under the plugins
// dir. Names such as "a..b" are fine.
func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrSkipped)
	}
	if id == "." || id == ".." {
		return fmt.Errorf("%w: id %q is not a directory name", ErrSkipped, id)
	}
	if strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("%w: id %q cannot contain '/' or '\\'", ErrSkipped, id)
	}
	return nil
}

func readManifest(pluginDir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(pluginDir, ManifestFile))
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrSkipped, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: parse manifest: %v", ErrSkipped, err)
	}
	// Only presence is required; an empty name or version is accepted.
	var required struct {
		Name    *string `json:"name"`
		Version *string `json:"version"`
	}
	if err := json.Unmarshal(data, &required); err != nil || required.Name == nil || required.Version == nil {
		return Manifest{}, fmt.Errorf("%w: manifest needs name and version", ErrSkipped)
	}
	return m, nil
}
