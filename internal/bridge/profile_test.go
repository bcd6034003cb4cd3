package bridge

import (
	"os"
	"path/filepath"
	"testing"
)

func writePrefs(t *testing.T, dir, content string) string {
	t.Helper()
	defaultDir := filepath.Join(dir, "Default")
	if err := os.MkdirAll(defaultDir, 0755); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(defaultDir, "Preferences")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestMarkCleanExit_NoFile(t *testing.T) {
	MarkCleanExit(t.TempDir())
}

func TestMarkCleanExit_PatchesCrashed(t *testing.T) {
	tmpDir := t.TempDir()
	p := writePrefs(t, tmpDir, `{"profile":{"exit_type":"Crashed","exited_cleanly":false}}`)

	MarkCleanExit(tmpDir)

	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("failed to read patched prefs: %v", err)
	}
	if string(data) != `{"profile":{"exit_type":"Normal","exited_cleanly":true}}` {
		t.Errorf("prefs not properly patched: %s", data)
	}
}

func TestMarkCleanExit_NoPatch(t *testing.T) {
	tmpDir := t.TempDir()
	content := `{"profile":{"exit_type":"Normal","exited_cleanly":true}}`
	p := writePrefs(t, tmpDir, content)

	MarkCleanExit(tmpDir)

	data, _ := os.ReadFile(p)
	if string(data) != content {
		t.Error("prefs should not have been modified")
	}
}

func TestWasUncleanExit(t *testing.T) {
	tests := []struct {
		name  string
		prefs string
		want  bool
	}{
		{"crashed", `{"profile":{"exit_type":"Crashed","exited_cleanly":false}}`, true},
		{"crashed spaced", `{"profile": {"exit_type": "Crashed"}}`, true},
		{"normal", `{"profile":{"exit_type":"Normal","exited_cleanly":true}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmp := t.TempDir()
			writePrefs(t, tmp, tt.prefs)
			if got := WasUncleanExit(tmp); got != tt.want {
				t.Errorf("WasUncleanExit() = %v, want %v", got, tt.want)
			}
		})
	}
	if WasUncleanExit(t.TempDir()) {
		t.Error("missing prefs should not count as unclean")
	}
}

func TestClearChromeSessions(t *testing.T) {
	tmp := t.TempDir()
	sessionsDir := filepath.Join(tmp, "Default", "Sessions")
	_ = os.MkdirAll(sessionsDir, 0755)
	_ = os.WriteFile(filepath.Join(sessionsDir, "Session_1"), []byte("data"), 0644)

	ClearChromeSessions(tmp)

	if _, err := os.Stat(sessionsDir); !os.IsNotExist(err) {
		t.Error("expected Sessions dir to be removed")
	}
}

func TestClearChromeSessions_MissingDir(t *testing.T) {
	tmp := t.TempDir()
	sessionsDir := filepath.Join(tmp, "Default", "Sessions")

	ClearChromeSessions(tmp)

	if _, err := os.Stat(sessionsDir); !os.IsNotExist(err) {
		t.Error("expected Sessions dir to not exist")
	}
}

func TestRemoveStaleLocks(t *testing.T) {
	tmp := t.TempDir()
	for _, name := range singletonFiles {
		_ = os.WriteFile(filepath.Join(tmp, name), nil, 0644)
	}
	keep := filepath.Join(tmp, "Local State")
	_ = os.WriteFile(keep, []byte("{}"), 0644)

	RemoveStaleLocks(tmp)

	for _, name := range singletonFiles {
		if _, err := os.Stat(filepath.Join(tmp, name)); !os.IsNotExist(err) {
			t.Errorf("%s not removed", name)
		}
	}
	if _, err := os.Stat(keep); err != nil {
		t.Error("unrelated file removed")
	}
}
