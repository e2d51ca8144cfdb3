// Package cli implements the orcengine command-line interface: a thin
// cobra wrapper that submits, inspects, and cancels tasks against an
// in-process engine.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orcforge/engine/internal/config"
	"github.com/orcforge/engine/internal/engine"
	"github.com/orcforge/engine/internal/events"
	"github.com/orcforge/engine/internal/modes"
	"github.com/orcforge/engine/internal/provider"
)

var (
	cfgFile string
	jsonOut bool
	eng     *engine.Engine
	engBus  events.Bus
)

const (
	groupCore   = "core"
	groupConfig = "config"
)

var rootCmd = &cobra.Command{
	Use:   "orcengine",
	Short: "Multi-agent development task orchestrator",
	Long: `orcengine decomposes a development task into phases of specialized
agents (concept, architect, implement, test, review, security, optimize,
docs, deploy) and runs them under a named mode (speed, quality, autonomy,
cost) with a bounded worker pool.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initEngine)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .orcengine/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupCore, Title: "Task Commands:"},
		&cobra.Group{ID: groupConfig, Title: "Configuration:"},
	)

	addCmd(newSubmitCmd(), groupCore)
	addCmd(newStatusCmd(), groupCore)
	addCmd(newCancelCmd(), groupCore)
	addCmd(newSwitchModeCmd(), groupCore)
	addCmd(newModesCmd(), groupConfig)
}

func addCmd(cmd *cobra.Command, groupID string) {
	cmd.GroupID = groupID
	rootCmd.AddCommand(cmd)
}

// initEngine builds the process-wide engine from config. A config or mode
// overrides load error is printed to stderr and the built-in defaults are
// used instead, matching the teacher's best-effort initConfig pattern.
func initEngine() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config load:", err)
		cfg = config.Default()
	}

	providers := provider.NewRegistry(map[string]provider.Provider{
		"cloud": provider.NewCloudProvider(provider.CloudConfig{
			APIKey:      cfg.Cloud.APIKey,
			BaseURL:     cfg.Cloud.BaseURL,
			TimeoutSecs: cfg.Cloud.TimeoutSecs,
		}),
		"local": provider.NewLocalProvider(provider.LocalConfig{
			BaseURL:     cfg.Local.BaseURL,
			TimeoutSecs: cfg.Local.TimeoutSecs,
		}),
	})

	modeRegistry, err := modes.LoadOverrides(cfg.ModesFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mode overrides load:", err)
		modeRegistry = modes.Builtin()
	}

	engBus = events.NewMemoryBus()
	eng = engine.New(&engine.Config{MaxWorkers: cfg.MaxWorkers, DefaultMode: cfg.DefaultMode}, modeRegistry, providers, engBus)
}
