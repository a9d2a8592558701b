// Package preflight checks that a deployment has what it needs before any
// phase runs: required tools on PATH, a writable data directory, and an
// application checkout that looks like a git repository.
package preflight

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/kjanat/livedash-deploy/config"
)

// Result is the outcome of a preflight run. Critical failures abort the
// deployment before any phase runs; warnings are printed but do not block.
type Result struct {
	Success          bool
	CriticalFailures []string
	Warnings         []string
}

// RepositoryChecker reports whether a directory is a usable VCS checkout.
type RepositoryChecker interface {
	IsRepository(workingDir string) bool
}

type Checker struct {
	config *config.Config
	git    RepositoryChecker
}

func NewChecker(cfg *config.Config, git RepositoryChecker) *Checker {
	return &Checker{config: cfg, git: git}
}

// Run performs all preflight checks and returns the aggregate result. It
// never returns an error; problems are reported through the result.
func (c *Checker) Run() Result {
	var result Result

	c.checkTool(&result, c.config.DockerCommand, true)
	if len(c.config.MigrateCommand) > 0 {
		c.checkTool(&result, c.config.MigrateCommand[0], true)
	}
	if len(c.config.InstallCommand) > 0 {
		c.checkTool(&result, c.config.InstallCommand[0], false)
	}

	c.checkAppDir(&result)
	c.checkDataDir(&result)

	result.Success = len(result.CriticalFailures) == 0

	slog.Info("Preflight check completed",
		"success", result.Success,
		"critical_failures", len(result.CriticalFailures),
		"warnings", len(result.Warnings))

	return result
}

func (c *Checker) checkTool(result *Result, tool string, critical bool) {
	if _, err := exec.LookPath(tool); err != nil {
		msg := fmt.Sprintf("required tool not found: %s", tool)
		if critical {
			result.CriticalFailures = append(result.CriticalFailures, msg)
		} else {
			result.Warnings = append(result.Warnings, msg)
		}
	}
}

func (c *Checker) checkAppDir(result *Result) {
	info, err := os.Stat(c.config.AppDir)
	if err != nil || !info.IsDir() {
		result.CriticalFailures = append(result.CriticalFailures,
			fmt.Sprintf("application directory not accessible: %s", c.config.AppDir))
		return
	}

	if c.git != nil && !c.git.IsRepository(c.config.AppDir) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("application directory is not a git checkout: %s", c.config.AppDir))
	}
}

func (c *Checker) checkDataDir(result *Result) {
	if err := os.MkdirAll(c.config.SnapshotsDir, 0o755); err != nil {
		result.CriticalFailures = append(result.CriticalFailures,
			fmt.Sprintf("snapshot directory not writable: %s", c.config.SnapshotsDir))
		return
	}

	probe := filepath.Join(c.config.SnapshotsDir, ".preflight")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		result.CriticalFailures = append(result.CriticalFailures,
			fmt.Sprintf("snapshot directory not writable: %s", c.config.SnapshotsDir))
		return
	}
	if err := os.Remove(probe); err != nil {
		slog.Debug("Failed to remove preflight probe file", "path", probe, "error", err)
	}
}
