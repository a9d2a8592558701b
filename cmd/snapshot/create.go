package snapshot

import (
	"fmt"

	"github.com/kjanat/livedash-deploy/cmd/output"
	"github.com/kjanat/livedash-deploy/cmd/utils"
	"github.com/kjanat/livedash-deploy/domain"
	"github.com/kjanat/livedash-deploy/internal/app"
	"github.com/spf13/cobra"
)

func NewCmdSnapshotCreate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Capture a snapshot of the current state",
		Long: `Capture the application's configuration files, dependency manifest and
checked-out revision into an immutable snapshot bundle for later recovery.`,
		Run: func(cmd *cobra.Command, args []string) {
			if err := runSnapshotCreate(); err != nil {
				utils.HandleCommandError("creating snapshot", err)
			}
		},
	}

	return cmd
}

func runSnapshotCreate() error {
	ref, err := app.GetSnapshotService().Capture(domain.DefaultDeploymentOptions())
	if err != nil {
		return err
	}

	fmt.Print(output.PrintMessage(output.Success, "Snapshot created: %s", ref))
	return nil
}
