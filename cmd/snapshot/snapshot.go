// Package snapshot provides commands for managing livedash-deploy snapshots.
package snapshot

import "github.com/spf13/cobra"

func NewCmdSnapshot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage state snapshots",
	}

	cmd.AddCommand(NewCmdSnapshotCreate())
	cmd.AddCommand(NewCmdSnapshotList())
	cmd.AddCommand(NewCmdSnapshotShow())
	return cmd
}
