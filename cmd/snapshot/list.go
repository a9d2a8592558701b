package snapshot

import (
	"fmt"

	"github.com/kjanat/livedash-deploy/cmd/output"
	"github.com/kjanat/livedash-deploy/cmd/utils"
	"github.com/kjanat/livedash-deploy/internal/app"
	"github.com/spf13/cobra"
)

func NewCmdSnapshotList() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List captured snapshots",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runSnapshotList(); err != nil {
				utils.HandleCommandError("listing snapshots", err)
			}
		},
	}

	return cmd
}

func runSnapshotList() error {
	records, err := app.GetSnapshotService().List()
	if err != nil {
		return err
	}

	table, err := output.PrintSnapshotList(records)
	if err != nil {
		return err
	}

	fmt.Print(table)
	return nil
}
