package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ytmshell/ytmshell/internal/config"
	"github.com/ytmshell/ytmshell/internal/plugins"
)

func TestSettingsURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.RuntimeConfig
		want string
	}{
		{"loopback", config.RuntimeConfig{Bind: "127.0.0.1", Port: "9868"}, "http://127.0.0.1:9868/settings/ui"},
		{"wildcard bind", config.RuntimeConfig{Bind: "0.0.0.0", Port: "9868"}, "http://127.0.0.1:9868/settings/ui"},
		{"token", config.RuntimeConfig{Bind: "127.0.0.1", Port: "1", Token: "a b"}, "http://127.0.0.1:1/settings/ui?token=a+b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := settingsURL(&tt.cfg); got != tt.want {
				t.Errorf("settingsURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOptionalTaskFailureKeepsGroupRunning(t *testing.T) {
	g, gctx := errgroup.WithContext(context.Background())
	g.Go(optional("settings watcher", func() error {
		return errors.New("settings watcher: too many open files")
	}))
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return errors.New("group cancelled by optional task")
		case <-time.After(50 * time.Millisecond):
			return nil
		}
	})
	if err := g.Wait(); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
}

func TestPluginsCommand(t *testing.T) {
	cfg := &config.RuntimeConfig{DataDir: t.TempDir()}

	var out bytes.Buffer
	if code := runPluginsCommand(cfg, nil, &out); code != 0 {
		t.Fatalf("list exit %d: %s", code, out.String())
	}
	if !strings.Contains(out.String(), "No plugins installed") {
		t.Errorf("unexpected output %q", out.String())
	}

	out.Reset()
	if code := runPluginsCommand(cfg, []string{"install-defaults"}, &out); code != 0 {
		t.Fatalf("install-defaults exit %d: %s", code, out.String())
	}
	if _, err := os.Stat(filepath.Join(plugins.Dir(cfg.DataDir), "lyrics", plugins.ManifestFile)); err != nil {
		t.Fatalf("lyrics plugin not installed: %v", err)
	}

	out.Reset()
	if code := runPluginsCommand(cfg, []string{"list"}, &out); code != 0 {
		t.Fatalf("list exit %d", code)
	}
	for _, want := range []string{"ID", "lyrics", "fine-volume-control", "true"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("list output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if code := runPluginsCommand(cfg, []string{"debug"}, &out); code != 0 {
		t.Fatalf("debug exit %d", code)
	}
	if !strings.Contains(out.String(), `"dirExists": true`) {
		t.Errorf("debug output missing dirExists:\n%s", out.String())
	}

	out.Reset()
	if code := runPluginsCommand(cfg, []string{"bogus"}, &out); code != 1 {
		t.Errorf("expected exit 1 for unknown command, got %d", code)
	}
}
