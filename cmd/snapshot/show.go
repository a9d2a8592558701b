package snapshot

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kjanat/livedash-deploy/cmd/output"
	"github.com/kjanat/livedash-deploy/cmd/utils"
	"github.com/kjanat/livedash-deploy/internal/app"
	"github.com/spf13/cobra"
)

func NewCmdSnapshotShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [snapshot-id]",
		Short: "Show the contents of a snapshot",
		Long: `Show a snapshot's captured revision, configuration files and dependency
manifest. Without an argument the most recent snapshot is shown.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runSnapshotShow(args); err != nil {
				utils.HandleCommandError("showing snapshot", err)
			}
		},
	}

	return cmd
}

func runSnapshotShow(args []string) error {
	ref := ""
	if len(args) > 0 {
		if _, err := uuid.Parse(args[0]); err != nil {
			utils.HandleInvalidUUID("snapshot show", args[0])
			return nil // Not reached; HandleInvalidUUID exits
		}
		ref = args[0]
	}

	snap, err := app.GetSnapshotService().Resolve(ref)
	if err != nil {
		return err
	}

	table, err := output.PrintSnapshotDetails(snap)
	if err != nil {
		return err
	}

	fmt.Print(table)
	return nil
}
