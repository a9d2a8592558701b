// Package deploy provides the deploy command for livedash-deploy.
package deploy

import (
	"fmt"
	"os"
	"time"

	"github.com/kjanat/livedash-deploy/cmd/output"
	"github.com/kjanat/livedash-deploy/cmd/utils"
	engine "github.com/kjanat/livedash-deploy/deploy"
	"github.com/kjanat/livedash-deploy/domain"
	"github.com/kjanat/livedash-deploy/internal/app"
	"github.com/spf13/cobra"
)

func NewCmdDeploy() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Run a phased production deployment",
		Long: `Run the full production rollout: install dependencies, apply schema
migrations, build the artifact, cut over the running stack, activate release
feature flags and validate the result. A pre-deployment snapshot is captured
unless --skip-backup is given. The process exits non-zero if the deployment
does not succeed.`,
		Run: func(cmd *cobra.Command, args []string) {
			if err := runDeploy(cmd); err != nil {
				utils.HandleCommandError("deployment", err)
			}
		},
	}

	cmd.Flags().Bool("dry-run", false, "Simulate all phases without invoking any collaborator")
	cmd.Flags().Bool("skip-preflight", false, "Skip the preflight check")
	cmd.Flags().Bool("skip-backup", false, "Skip the pre-deployment snapshot")
	cmd.Flags().Bool("skip-env", false, "Skip the environment preparation phase")
	cmd.Flags().Bool("no-compensate", false, "Do not run the compensation pass on critical failure")
	cmd.Flags().Bool("no-progressive-rollout", false, "Enable all feature flags at once instead of gating each on health")
	cmd.Flags().Duration("max-downtime", 0, "Downtime budget for the cutover phase (default from configuration)")
	return cmd
}

func runDeploy(cmd *cobra.Command) error {
	cfg := app.GetConfig()
	options := deploymentOptions(cmd, cfg.MaxDowntime)

	if options.DryRun {
		fmt.Print(output.PrintMessage(output.Plain, "Dry run: phases will be simulated, nothing will be changed."))
	}

	plan := engine.NewProductionPlan(cfg, app.GetPlanDeps(), options)
	result := app.GetDeployer().Deploy(plan, options)

	table, err := output.PrintDeploymentResult(result)
	if err != nil {
		return err
	}
	fmt.Print(table)

	for _, warning := range result.Warnings {
		fmt.Print(output.PrintMessage(output.Warning, "Warning: %s", warning))
	}

	if !result.Success {
		fmt.Print(output.PrintMessage(output.Error, "Deployment failed."))
		os.Exit(1)
	}

	fmt.Print(output.PrintMessage(output.Success, "Deployment succeeded."))
	return nil
}

func deploymentOptions(cmd *cobra.Command, defaultMaxDowntime time.Duration) domain.DeploymentOptions {
	options := domain.DefaultDeploymentOptions()
	options.MaxDowntime = defaultMaxDowntime

	options.DryRun, _ = cmd.Flags().GetBool("dry-run")
	options.SkipPreflight, _ = cmd.Flags().GetBool("skip-preflight")
	options.SkipBackup, _ = cmd.Flags().GetBool("skip-backup")
	options.SkipEnvironment, _ = cmd.Flags().GetBool("skip-env")

	if noCompensate, _ := cmd.Flags().GetBool("no-compensate"); noCompensate {
		options.CompensateOnFailure = false
	}
	if noProgressive, _ := cmd.Flags().GetBool("no-progressive-rollout"); noProgressive {
		options.ProgressiveRollout = false
	}
	if maxDowntime, _ := cmd.Flags().GetDuration("max-downtime"); maxDowntime > 0 {
		options.MaxDowntime = maxDowntime
	}

	return options
}
