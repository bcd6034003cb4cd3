package main

import (
	"testing"

	"github.com/ytmshell/ytmshell/internal/config"
)

func TestBuildChromeOpts_HeadlessAddsOption(t *testing.T) {
	cfgHeadless := &config.RuntimeConfig{Headless: true, ProfileDir: "/tmp/test-profile"}
	cfgHeaded := &config.RuntimeConfig{Headless: false, ProfileDir: "/tmp/test-profile"}

	optsHeadless := buildChromeOpts(cfgHeadless)
	optsHeaded := buildChromeOpts(cfgHeaded)

	if len(optsHeaded) == 0 {
		t.Fatal("expected options for headed mode")
	}
	if len(optsHeadless) != len(optsHeaded) {
		t.Errorf("headless (%d) and headed (%d) should differ only in the headless option",
			len(optsHeadless), len(optsHeaded))
	}
}

func TestBuildChromeOpts_CustomBinary(t *testing.T) {
	base := buildChromeOpts(&config.RuntimeConfig{ProfileDir: "/tmp/test-profile"})
	custom := buildChromeOpts(&config.RuntimeConfig{ProfileDir: "/tmp/test-profile", ChromeBinary: "/custom/chrome"})

	if len(custom) != len(base)+1 {
		t.Errorf("expected one extra option for ExecPath, got %d vs %d", len(custom), len(base))
	}
}

func TestBuildChromeOpts_ExtraFlags(t *testing.T) {
	base := buildChromeOpts(&config.RuntimeConfig{ProfileDir: "/tmp/test-profile"})
	extra := buildChromeOpts(&config.RuntimeConfig{
		ProfileDir:       "/tmp/test-profile",
		ChromeExtraFlags: "--lang=en-GB --mute-audio",
	})

	if len(extra) != len(base)+2 {
		t.Errorf("expected two extra flags, got %d vs %d", len(extra), len(base))
	}
}

func TestBuildChromeOpts_AppModeWhenHeaded(t *testing.T) {
	headed := buildChromeOpts(&config.RuntimeConfig{ProfileDir: "/tmp/test-profile"})
	app := buildChromeOpts(&config.RuntimeConfig{ProfileDir: "/tmp/test-profile", URL: config.DefaultURL})
	headless := buildChromeOpts(&config.RuntimeConfig{ProfileDir: "/tmp/test-profile", URL: config.DefaultURL, Headless: true})

	if len(app) != len(headed)+1 {
		t.Errorf("expected app flag for headed window, got %d vs %d", len(app), len(headed))
	}
	if len(headless) != len(headed) {
		t.Errorf("headless should not get the app flag, got %d vs %d", len(headless), len(headed))
	}
}
