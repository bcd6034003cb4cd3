package plugins

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
)

// EnsureDefaults copies each default plugin from src into the plugins dir
// unless a directory of that name already exists. User edits are never
// overwritten. One failed copy does not stop the others.
func EnsureDefaults(appDataDir string, src fs.FS) error {
	root := Dir(appDataDir)
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("create plugins dir: %w", err)
	}

	var errs []error
	for _, id := range DefaultEnabled {
		fi, err := fs.Stat(src, id)
		if err != nil || !fi.IsDir() {
			continue
		}
		dest := filepath.Join(root, id)
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := copyDir(src, id, dest); err != nil {
			slog.Warn("default plugin not installed", "id", id, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		slog.Info("default plugin installed", "id", id)
	}
	return errors.Join(errs...)
}

// copyDir recursively copies dir from src to dst on disk.
func copyDir(src fs.FS, dir, dst string) error {
	return fs.WalkDir(src, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(filepath.FromSlash(dir), filepath.FromSlash(p))
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(src, path.Clean(p), target)
	})
}

func copyFile(src fs.FS, name, dst string) error {
	in, err := src.Open(name)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}
	return out.Close()
}
