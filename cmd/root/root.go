// Package root implements the command line interface for livedash-deploy.
package root

import (
	"log"
	"os"

	"github.com/kjanat/livedash-deploy/cmd/deploy"
	"github.com/kjanat/livedash-deploy/cmd/history"
	"github.com/kjanat/livedash-deploy/cmd/output"
	"github.com/kjanat/livedash-deploy/cmd/rollback"
	"github.com/kjanat/livedash-deploy/cmd/snapshot"
	"github.com/kjanat/livedash-deploy/cmd/version"
	"github.com/kjanat/livedash-deploy/config"
	"github.com/kjanat/livedash-deploy/internal/app"
	"github.com/kjanat/livedash-deploy/logging"
	"github.com/spf13/cobra"
)

// Commands that only read build metadata and must work without a configured
// data directory or encryption key.
var skipInitCommands = map[string]bool{
	"version": true,
	"help":    true,
}

func Execute() {
	if err := NewCmdRoot(config.GetDefaultDataDir()).Execute(); err != nil {
		os.Exit(1)
	}
}

func NewCmdRoot(defaultDataDir string) *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "livedash-deploy",
		Short: "Phased deployment and rollback tool for the livedash service",
		Long: `livedash-deploy carries the livedash service through a phased production
rollout (schema migration, artifact build, service cutover, feature activation,
validation) under a downtime budget, and restores a prior known-good state
from a snapshot when a deployment goes wrong.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if skipInitCommands[cmd.Name()] {
				return
			}

			// Initialize configuration with data directory override
			cfg, err := config.NewConfig(dataDir)
			if err != nil {
				log.Fatalf("Failed to initialize configuration: %s", err)
			}

			// Initialize colors (CLI flag overrides config)
			colorDisabled := !cfg.ColorEnabled
			if output.NoColor.IsSet() {
				colorDisabled = true // --no-color flag overrides config
			}
			output.InitColors(colorDisabled)

			// Initialize logging (CLI flag overrides config)
			logLevel := cfg.LogLevel
			if logging.LogLevel.IsSet() {
				logLevel = logging.LogLevel.String()
			}
			logging.InitLogging(logLevel)

			// Initialize application with config
			if err := app.InitializeWithConfig(cfg); err != nil {
				log.Fatalf("Failed to initialize application: %s", err)
			}
		},
	}

	cmd.PersistentFlags().
		StringVarP(&dataDir, "data-dir", "d", defaultDataDir, "Data directory for run history and snapshots")
	cmd.PersistentFlags().VarP(logging.LogLevel, "log-level", "l", "Set log verbosity level")
	cmd.PersistentFlags().VarP(output.NoColor, "no-color", "c", "Disable colored terminal output")

	cmd.AddCommand(deploy.NewCmdDeploy())
	cmd.AddCommand(rollback.NewCmdRollback())
	cmd.AddCommand(snapshot.NewCmdSnapshot())
	cmd.AddCommand(history.NewCmdHistory())
	cmd.AddCommand(version.NewCmdVersion())
	return cmd
}
