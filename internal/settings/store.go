package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/ytmshell/ytmshell/internal/plugins"
)

// Store is the settings file plus its last parsed contents. Sections are
// kept as raw JSON so unknown keys written by other versions survive a Set.
type Store struct {
	path string

	mu       sync.RWMutex
	sections map[string]json.RawMessage
	data     []byte
}

// NewStore returns an empty store backed by path. Call Load to read it.
func NewStore(path string) *Store {
	return &Store{path: path, sections: map[string]json.RawMessage{}}
}

// Open is NewStore followed by Load. A corrupt file is logged and treated
// as empty so the app still starts with defaults.
func Open(path string) *Store {
	s := NewStore(path)
	if err := s.Load(); err != nil {
		slog.Warn("settings unreadable, using defaults", "path", path, "err", err)
	}
	return s
}

func (s *Store) Path() string { return s.path }

// Load reads the file. A missing file is not an error.
func (s *Store) Load() error {
	_, err := s.Reload()
	return err
}

// Reload re-reads the file and reports whether its contents differ from
// what the store last read or wrote.
func (s *Store) Reload() (bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		data = nil
	} else if err != nil {
		return false, fmt.Errorf("read settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data != nil && bytes.Equal(data, s.data) {
		return false, nil
	}

	sections := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &sections); err != nil {
			return false, fmt.Errorf("parse settings: %w", err)
		}
	}
	s.sections = sections
	changed := !bytes.Equal(data, s.data)
	s.data = data
	if s.data == nil {
		s.data = []byte{}
	}
	return changed, nil
}

func section[T any](sections map[string]json.RawMessage, key string, def T) T {
	raw, ok := sections[key]
	if !ok {
		return def
	}
	v := def
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Debug("settings section invalid, using defaults", "section", key, "err", err)
		return def
	}
	return v
}

// Get returns every section, falling back to defaults section by section.
// The language is always reported as en-GB.
func (s *Store) Get() AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := Defaults()
	out := AppSettings{
		General:    section(s.sections, "general", d.General),
		Appearance: section(s.sections, "appearance", d.Appearance),
		Playback:   section(s.sections, "playback", d.Playback),
		Discord:    section(s.sections, "discord", d.Discord),
		Plugins:    section(s.sections, "plugins", d.Plugins),
		Advanced:   section(s.sections, "advanced", d.Advanced),
	}
	out.General.Language = Language
	return out
}

// Set writes all six sections and saves the file atomically.
func (s *Store) Set(a AppSettings) error {
	values := map[string]any{
		"general":    a.General,
		"appearance": a.Appearance,
		"playback":   a.Playback,
		"discord":    a.Discord,
		"plugins":    a.Plugins,
		"advanced":   a.Advanced,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sections := make(map[string]json.RawMessage, len(s.sections)+len(values))
	for k, v := range s.sections {
		sections[k] = v
	}
	for k, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		sections[k] = raw
	}

	data, err := json.MarshalIndent(sections, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	data = append(data, '\n')
	if err := writeAtomic(s.path, data); err != nil {
		return err
	}
	s.sections = sections
	s.data = data
	return nil
}

// EnabledPlugins is the stored plugin list with blanks and duplicates
// removed, or the default set when nothing usable is stored.
func (s *Store) EnabledPlugins() []string {
	ids := lo.Uniq(lo.Filter(s.Get().Plugins.EnabledPlugins, func(id string, _ int) bool {
		return strings.TrimSpace(id) != ""
	}))
	if len(ids) == 0 {
		return append([]string{}, plugins.DefaultEnabled...)
	}
	return ids
}

func (s *Store) Custom() (css, js string) {
	adv := s.Get().Advanced
	return adv.CustomCSS, adv.CustomJS
}

func (s *Store) Discord() Discord {
	d := s.Get().Discord
	if d.ClientID == "" {
		d.ClientID = DefaultClientID
	}
	return d
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
