package bridge

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"
)

var crashedPrefsReplacer = strings.NewReplacer(
	`"exit_type":"Crashed"`, `"exit_type":"Normal"`,
	`"exit_type": "Crashed"`, `"exit_type": "Normal"`,
	`"exited_cleanly":false`, `"exited_cleanly":true`,
	`"exited_cleanly": false`, `"exited_cleanly": true`,
)

var singletonFiles = []string{"SingletonLock", "SingletonSocket", "SingletonCookie"}

func prefsPath(profileDir string) string {
	return filepath.Join(profileDir, "Default", "Preferences")
}

// MarkCleanExit stops Chrome from offering to restore the previous session
// on the next launch of the app window.
func MarkCleanExit(profileDir string) {
	data, err := os.ReadFile(prefsPath(profileDir))
	if err != nil {
		return
	}
	patched := crashedPrefsReplacer.Replace(string(data))
	if patched != string(data) {
		if err := os.WriteFile(prefsPath(profileDir), []byte(patched), 0644); err != nil {
			slog.Error("patch prefs", "err", err)
		}
	}
}

func WasUncleanExit(profileDir string) bool {
	data, err := os.ReadFile(prefsPath(profileDir))
	if err != nil {
		return false
	}
	prefs := string(data)
	return strings.Contains(prefs, `"exit_type":"Crashed"`) || strings.Contains(prefs, `"exit_type": "Crashed"`)
}

// ClearChromeSessions removes session restore data. Windows may hold file
// locks briefly after Chrome exits, hence the retries.
func ClearChromeSessions(profileDir string) {
	sessionsDir := filepath.Join(profileDir, "Default", "Sessions")

	err := retry.New(
		retry.Attempts(3),
		retry.Delay(100*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Debug("failed to clear Chrome sessions dir, retrying", "attempt", n+1, "err", err)
		}),
	).Do(func() error {
		return os.RemoveAll(sessionsDir)
	})
	if err != nil {
		slog.Warn("failed to clear Chrome sessions dir after retries", "err", err)
		return
	}
	slog.Info("cleared Chrome sessions dir (prevent tab restore hang)")
}

// RemoveStaleLocks deletes singleton files a crashed Chrome left behind,
// which would otherwise make the new instance hand off and exit.
func RemoveStaleLocks(profileDir string) {
	for _, name := range singletonFiles {
		if err := os.Remove(filepath.Join(profileDir, name)); err == nil {
			slog.Warn("removed stale lock", "file", name)
		}
	}
}
