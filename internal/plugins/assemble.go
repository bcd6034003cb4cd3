package plugins

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ytmshell/ytmshell/internal/assets"
	"github.com/ytmshell/ytmshell/internal/playback"
	"github.com/ytmshell/ytmshell/internal/web"
)

// Separator ends any dangling statement before the next script starts.
const Separator = "\n;\n"

// SettingsButtonScript always leads the bundle. Its click beacons the
// loopback listener on /open-settings.
var SettingsButtonScript = strings.ReplaceAll(assets.SettingsButtonScript, assets.PortPlaceholder, strconv.Itoa(playback.Port))

// Assemble builds the bundle for the enabled ids, in order. A plugin with a
// missing or broken manifest or an unreadable entry file is skipped; the
// rest of the bundle is unaffected.
func Assemble(appDataDir string, ids []string) string {
	root := Dir(appDataDir)
	if len(ids) == 0 {
		return SettingsButtonScript
	}
	if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
		return SettingsButtonScript
	}

	scripts := []string{SettingsButtonScript}

	for _, id := range ids {
		src, err := loadScript(root, id)
		if err != nil {
			slog.Debug("plugin skipped", "id", id, "err", err)
			continue
		}
		scripts = append(scripts, src)
	}
	return strings.Join(scripts, Separator)
}

func loadScript(root, id string) (string, error) {
	dir, err := pluginDir(root, id)
	if err != nil {
		return "", err
	}
	m, err := readManifest(dir)
	if err != nil {
		return "", err
	}
	entry, err := web.SafeChild(dir, m.EntryFile())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSkipped, err)
	}
	data, err := os.ReadFile(entry)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSkipped, err)
	}
	return string(data), nil
}

func pluginDir(root, id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	dir, err := web.SafeChild(root, id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSkipped, err)
	}
	return dir, nil
}
