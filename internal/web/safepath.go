package web

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SafePath resolves userPath against base and rejects anything that lands
// outside it. Plugin ids and manifest entry names go through here because
// they come from files the user (or a downloaded plugin) controls.
func SafePath(base, userPath string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	var resolved string
	if filepath.IsAbs(userPath) {
		resolved = filepath.Clean(userPath)
	} else {
		resolved = filepath.Clean(filepath.Join(absBase, userPath))
	}

	if !strings.HasPrefix(resolved, absBase+string(filepath.Separator)) && resolved != absBase {
		return "", fmt.Errorf("path %q escapes base directory %q", userPath, absBase)
	}

	return resolved, nil
}

// SafeChild is SafePath for a direct or nested child: the base itself is rejected.
func SafeChild(base, name string) (string, error) {
	p, err := SafePath(base, name)
	if err != nil {
		return "", err
	}
	absBase, _ := filepath.Abs(base)
	if p == absBase {
		return "", fmt.Errorf("path %q resolves to the base directory", name)
	}
	return p, nil
}
