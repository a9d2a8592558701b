// Package rollback provides the rollback command for livedash-deploy.
package rollback

import (
	"fmt"
	"os"

	"github.com/kjanat/livedash-deploy/cmd/output"
	"github.com/kjanat/livedash-deploy/domain"
	"github.com/kjanat/livedash-deploy/internal/app"
	"github.com/spf13/cobra"
)

func NewCmdRollback() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Restore a prior known-good state from a snapshot",
		Long: `Run the disaster-recovery pipeline: stop the stack, restore the database,
checkout, configuration and dependencies from a snapshot, then restart and
verify. Without --snapshot the most recent snapshot is used. The pipeline
asks for confirmation before mutating anything unless --yes is given. The
process exits non-zero if the rollback does not succeed.`,
		Run: func(cmd *cobra.Command, args []string) {
			runRollback(cmd)
		},
	}

	cmd.Flags().String("snapshot", "", "Snapshot ID to restore (default: most recent)")
	cmd.Flags().Bool("data", true, "Restore the database")
	cmd.Flags().Bool("code", true, "Restore the checkout to the snapshot's revision")
	cmd.Flags().Bool("config", true, "Restore captured configuration files")
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().Bool("dry-run", false, "Simulate the pipeline without mutating anything")
	return cmd
}

func runRollback(cmd *cobra.Command) {
	options := rollbackOptions(cmd)

	if options.DryRun {
		fmt.Print(output.PrintMessage(output.Plain, "Dry run: steps will be simulated, nothing will be changed."))
	}

	result := app.GetRollbackPipeline().Run(options)

	table, err := output.PrintRollbackResult(result)
	if err != nil {
		fmt.Print(output.PrintMessage(output.Error, "Error: %v", err))
		os.Exit(1)
	}
	fmt.Print(table)

	for _, warning := range result.Warnings {
		fmt.Print(output.PrintMessage(output.Warning, "Warning: %s", warning))
	}

	if !result.Success {
		fmt.Print(output.PrintMessage(output.Error, "Rollback failed. Manual intervention may be required."))
		os.Exit(1)
	}

	fmt.Print(output.PrintMessage(output.Success, "Rollback succeeded."))
}

func rollbackOptions(cmd *cobra.Command) domain.RollbackOptions {
	options := domain.DefaultRollbackOptions()

	options.SnapshotRef, _ = cmd.Flags().GetString("snapshot")
	options.RestoreData, _ = cmd.Flags().GetBool("data")
	options.RestoreCode, _ = cmd.Flags().GetBool("code")
	options.RestoreConfig, _ = cmd.Flags().GetBool("config")
	options.SkipConfirmation, _ = cmd.Flags().GetBool("yes")
	options.DryRun, _ = cmd.Flags().GetBool("dry-run")

	return options
}
