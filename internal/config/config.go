package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultURL = "https://music.youtube.com"

type RuntimeConfig struct {
	Bind             string
	Port             string
	Token            string
	DataDir          string
	ProfileDir       string
	URL              string
	Headless         bool
	ChromeBinary     string
	ChromeExtraFlags string
	LogLevel         slog.Level
	ConfigPath       string
	ShutdownTimeout  time.Duration
	BlockTrackers    bool
	BlockPatterns    []string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envBoolOr(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// envListOr splits a comma separated variable, dropping empty items.
func envListOr(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func homeDir() string {
	h, _ := os.UserHomeDir()
	return h
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (c *RuntimeConfig) ListenAddr() string {
	return c.Bind + ":" + c.Port
}

// SettingsPath is the user settings file inside the data dir.
func (c *RuntimeConfig) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.json")
}

// FileConfig is the on-disk config, JSON or YAML by file extension.
type FileConfig struct {
	Port         string `json:"port" yaml:"port"`
	Token        string `json:"token,omitempty" yaml:"token,omitempty"`
	DataDir      string `json:"dataDir" yaml:"dataDir"`
	ProfileDir   string `json:"profileDir" yaml:"profileDir"`
	URL          string `json:"url,omitempty" yaml:"url,omitempty"`
	Headless     *bool  `json:"headless,omitempty" yaml:"headless,omitempty"`
	ChromeBinary string `json:"chromeBinary,omitempty" yaml:"chromeBinary,omitempty"`
	LogLevel     string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	ShutdownSec  int    `json:"shutdownSec,omitempty" yaml:"shutdownSec,omitempty"`

	BlockTrackers *bool    `json:"blockTrackers,omitempty" yaml:"blockTrackers,omitempty"`
	BlockPatterns []string `json:"blockPatterns,omitempty" yaml:"blockPatterns,omitempty"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func readFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if isYAML(path) {
		err = yaml.Unmarshal(data, &fc)
	} else {
		err = json.Unmarshal(data, &fc)
	}
	return fc, err
}

func marshalFileConfig(path string, fc FileConfig) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(fc)
	}
	return json.MarshalIndent(fc, "", "  ")
}

func Load() *RuntimeConfig {
	dataDir := envOr("YTM_DATA_DIR", filepath.Join(homeDir(), ".ytmshell"))
	cfg := &RuntimeConfig{
		Bind:             envOr("YTM_BIND", "127.0.0.1"),
		Port:             envOr("YTM_API_PORT", "9868"),
		Token:            os.Getenv("YTM_TOKEN"),
		DataDir:          dataDir,
		ProfileDir:       envOr("YTM_PROFILE", filepath.Join(dataDir, "chrome-profile")),
		URL:              envOr("YTM_URL", DefaultURL),
		Headless:         envBoolOr("YTM_HEADLESS", false),
		ChromeBinary:     os.Getenv("CHROME_BINARY"),
		ChromeExtraFlags: os.Getenv("CHROME_FLAGS"),
		LogLevel:         parseLevel(envOr("YTM_LOG_LEVEL", "info")),
		ShutdownTimeout:  time.Duration(envIntOr("YTM_SHUTDOWN_SEC", 5)) * time.Second,
		BlockTrackers:    envBoolOr("YTM_BLOCK_TRACKERS", false),
		BlockPatterns:    envListOr("YTM_BLOCK_PATTERNS", nil),
	}
	cfg.ConfigPath = envOr("YTM_CONFIG", filepath.Join(cfg.DataDir, "config.json"))

	fc, err := readFileConfig(cfg.ConfigPath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("config file ignored", "path", cfg.ConfigPath, "err", err)
		}
		return cfg
	}

	if fc.Port != "" && os.Getenv("YTM_API_PORT") == "" {
		cfg.Port = fc.Port
	}
	if fc.Token != "" && os.Getenv("YTM_TOKEN") == "" {
		cfg.Token = fc.Token
	}
	if fc.DataDir != "" && os.Getenv("YTM_DATA_DIR") == "" {
		cfg.DataDir = fc.DataDir
		if os.Getenv("YTM_PROFILE") == "" && fc.ProfileDir == "" {
			cfg.ProfileDir = filepath.Join(fc.DataDir, "chrome-profile")
		}
	}
	if fc.ProfileDir != "" && os.Getenv("YTM_PROFILE") == "" {
		cfg.ProfileDir = fc.ProfileDir
	}
	if fc.URL != "" && os.Getenv("YTM_URL") == "" {
		cfg.URL = fc.URL
	}
	if fc.Headless != nil && os.Getenv("YTM_HEADLESS") == "" {
		cfg.Headless = *fc.Headless
	}
	if fc.ChromeBinary != "" && os.Getenv("CHROME_BINARY") == "" {
		cfg.ChromeBinary = fc.ChromeBinary
	}
	if fc.LogLevel != "" && os.Getenv("YTM_LOG_LEVEL") == "" {
		cfg.LogLevel = parseLevel(fc.LogLevel)
	}
	if fc.ShutdownSec > 0 && os.Getenv("YTM_SHUTDOWN_SEC") == "" {
		cfg.ShutdownTimeout = time.Duration(fc.ShutdownSec) * time.Second
	}
	if fc.BlockTrackers != nil && os.Getenv("YTM_BLOCK_TRACKERS") == "" {
		cfg.BlockTrackers = *fc.BlockTrackers
	}
	if len(fc.BlockPatterns) > 0 && os.Getenv("YTM_BLOCK_PATTERNS") == "" {
		cfg.BlockPatterns = fc.BlockPatterns
	}

	return cfg
}

func DefaultFileConfig() FileConfig {
	h := false
	dataDir := filepath.Join(homeDir(), ".ytmshell")
	return FileConfig{
		Port:        "9868",
		DataDir:     dataDir,
		ProfileDir:  filepath.Join(dataDir, "chrome-profile"),
		URL:         DefaultURL,
		Headless:    &h,
		LogLevel:    "info",
		ShutdownSec: 5,
	}
}

// HandleConfigCommand implements "ytmshell config init|show".
func HandleConfigCommand(cfg *RuntimeConfig, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: ytmshell config <command>")
		fmt.Println("Commands:")
		fmt.Println("  init    - Create default config file (.json, .yaml or .yml via YTM_CONFIG)")
		fmt.Println("  show    - Show current configuration")
		return
	}

	switch args[0] {
	case "init":
		configPath := cfg.ConfigPath

		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("Config file already exists at %s\n", configPath)
			fmt.Print("Overwrite? (y/N): ")
			var response string
			_, _ = fmt.Scanln(&response)
			if response != "y" && response != "Y" {
				return
			}
		}

		if err := WriteDefault(configPath); err != nil {
			fmt.Printf("Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file created at %s\n", configPath)

	case "show":
		fmt.Println("Current configuration:")
		fmt.Printf("  Config:     %s\n", cfg.ConfigPath)
		fmt.Printf("  API:        %s\n", cfg.ListenAddr())
		fmt.Printf("  Token:      %s\n", MaskToken(cfg.Token))
		fmt.Printf("  Data Dir:   %s\n", cfg.DataDir)
		fmt.Printf("  Profile:    %s\n", cfg.ProfileDir)
		fmt.Printf("  URL:        %s\n", cfg.URL)
		fmt.Printf("  Headless:   %v\n", cfg.Headless)
		fmt.Printf("  Log Level:  %s\n", cfg.LogLevel)
		fmt.Printf("  Trackers:   blocked=%v extra=%d\n", cfg.BlockTrackers, len(cfg.BlockPatterns))

	default:
		fmt.Printf("Unknown command: %s\n", args[0])
		os.Exit(1)
	}
}

// WriteDefault writes DefaultFileConfig to path in the format its
// extension selects.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := marshalFileConfig(path, DefaultFileConfig())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func MaskToken(t string) string {
	if t == "" {
		return "(none)"
	}
	if len(t) <= 8 {
		return "***"
	}
	return t[:4] + "..." + t[len(t)-4:]
}
