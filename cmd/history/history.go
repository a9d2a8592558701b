// Package history provides the run history command for livedash-deploy.
package history

import (
	"fmt"

	"github.com/kjanat/livedash-deploy/cmd/output"
	"github.com/kjanat/livedash-deploy/cmd/utils"
	"github.com/kjanat/livedash-deploy/internal/app"
	"github.com/spf13/cobra"
)

func NewCmdHistory() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past deployment and rollback runs",
		Run: func(cmd *cobra.Command, args []string) {
			rollbacks, _ := cmd.Flags().GetBool("rollbacks")
			if err := runHistory(rollbacks); err != nil {
				utils.HandleCommandError("listing run history", err)
			}
		},
	}

	cmd.Flags().Bool("rollbacks", false, "Show rollback runs instead of deployment runs")
	return cmd
}

func runHistory(rollbacks bool) error {
	if rollbacks {
		runs, err := app.GetRollbackRunRepository().List()
		if err != nil {
			return err
		}
		table, err := output.PrintRollbackRunList(runs)
		if err != nil {
			return err
		}
		fmt.Print(table)
		return nil
	}

	runs, err := app.GetDeploymentRunRepository().List()
	if err != nil {
		return err
	}
	table, err := output.PrintDeploymentRunList(runs)
	if err != nil {
		return err
	}
	fmt.Print(table)
	return nil
}
