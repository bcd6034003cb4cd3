package web

import (
	"testing"
)

func TestSafePath(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		path    string
		wantErr bool
	}{
		{"plugin id", "/tmp/data/plugins", "lyrics", false},
		{"nested entry", "/tmp/data/plugins/lyrics", "dist/index.js", false},
		{"absolute inside", "/tmp/data/plugins", "/tmp/data/plugins/lyrics", false},
		{"traversal dotdot", "/tmp/data/plugins", "../settings.json", true},
		{"traversal absolute", "/tmp/data/plugins", "/etc/passwd", true},
		{"traversal hidden", "/tmp/data/plugins", "lyrics/../../../etc/passwd", true},
		{"base itself", "/tmp/data/plugins", "/tmp/data/plugins", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SafePath(tt.base, tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("SafePath(%q, %q) error = %v, wantErr %v", tt.base, tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestSafeChild(t *testing.T) {
	for _, name := range []string{"", ".", "lyrics/.."} {
		if _, err := SafeChild("/tmp/data/plugins", name); err == nil {
			t.Errorf("SafeChild(%q) expected error", name)
		}
	}
	if _, err := SafeChild("/tmp/data/plugins", "fine-volume-control"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
