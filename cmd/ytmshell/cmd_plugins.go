package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/samber/lo"

	"github.com/ytmshell/ytmshell/internal/assets"
	"github.com/ytmshell/ytmshell/internal/config"
	"github.com/ytmshell/ytmshell/internal/plugins"
	"github.com/ytmshell/ytmshell/internal/settings"
)

// runPluginsCommand implements "ytmshell plugins" and returns the exit code.
func runPluginsCommand(cfg *config.RuntimeConfig, args []string, out io.Writer) int {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	enabled := settings.Open(cfg.SettingsPath()).EnabledPlugins()

	switch sub {
	case "list":
		entries, err := plugins.Scan(cfg.DataDir)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return 1
		}
		if len(entries) == 0 {
			fmt.Fprintf(out, "No plugins installed in %s\n", plugins.Dir(cfg.DataDir))
			return 0
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tVERSION\tENABLED")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", e.ID, e.Manifest.Name, e.Manifest.Version, lo.Contains(enabled, e.ID))
		}
		_ = tw.Flush()

	case "debug":
		data, err := json.MarshalIndent(plugins.Debug(cfg.DataDir, enabled), "", "  ")
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintln(out, string(data))

	case "install-defaults":
		if err := plugins.EnsureDefaults(cfg.DataDir, assets.DefaultPlugins()); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "Default plugins installed in %s\n", plugins.Dir(cfg.DataDir))

	default:
		fmt.Fprintf(out, "Unknown command: %s\n", sub)
		fmt.Fprintln(out, "Usage: ytmshell plugins [list|debug|install-defaults]")
		return 1
	}
	return 0
}
