// Package toolchain runs the external tools the deployment depends on: the
// schema migration command, the database restore and verify commands, and the
// dependency installer. Each tool is wrapped in a narrow type so the
// orchestrator and the rollback pipeline depend only on small interfaces and
// tests can substitute fakes.
package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/kjanat/livedash-deploy/config"
)

// runner executes one configured command in the application directory with a
// bounded timeout. Timeouts live here, inside the action, because the
// orchestrator never imposes them from outside.
type runner struct {
	workingDir string
	timeout    time.Duration
}

func (r *runner) run(operation string, command []string, extraEnv []string) error {
	if len(command) == 0 {
		return fmt.Errorf("%s: no command configured", operation)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = r.workingDir
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	slog.Debug("Executing external tool",
		"operation", operation,
		"command", command,
		"working_dir", r.workingDir)

	out, err := cmd.CombinedOutput()
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "toolchain",
			"operation", operation,
			"command", command,
			"error", err,
			"output", string(out))
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s timed out after %s: %w", operation, r.timeout, ctx.Err())
		}
		return fmt.Errorf("%s failed: %w", operation, err)
	}

	slog.Debug("External tool completed", "operation", operation)
	return nil
}

// SchemaMigrator applies pending database schema migrations.
type SchemaMigrator struct {
	runner  runner
	command []string
}

func NewSchemaMigrator(cfg *config.Config) *SchemaMigrator {
	return &SchemaMigrator{
		runner:  runner{workingDir: cfg.AppDir, timeout: cfg.CommandTimeout},
		command: cfg.MigrateCommand,
	}
}

func (m *SchemaMigrator) Apply() error {
	return m.runner.run("schema_migrate", m.command, nil)
}

// DataRestorer restores the database from a snapshot's backing store and
// verifies the restore with an independent read probe.
type DataRestorer struct {
	runner         runner
	restoreCommand []string
	verifyCommand  []string
}

func NewDataRestorer(cfg *config.Config) *DataRestorer {
	return &DataRestorer{
		runner:         runner{workingDir: cfg.AppDir, timeout: cfg.CommandTimeout},
		restoreCommand: cfg.DataRestoreCommand,
		verifyCommand:  cfg.DataVerifyCommand,
	}
}

// Restore restores the database for the given snapshot reference. The
// reference is handed to the configured command via the environment so the
// restore script can locate the matching dump.
func (d *DataRestorer) Restore(snapshotRef string) error {
	return d.runner.run("data_restore", d.restoreCommand,
		[]string{"LIVEDASH_SNAPSHOT_REF=" + snapshotRef})
}

// Verify runs the configured read probe against the restored database.
func (d *DataRestorer) Verify() bool {
	err := d.runner.run("data_verify", d.verifyCommand, nil)
	return err == nil
}

// DependencyInstaller reinstalls application dependencies from a captured
// manifest.
type DependencyInstaller struct {
	runner       runner
	command      []string
	manifestPath string
}

func NewDependencyInstaller(cfg *config.Config) *DependencyInstaller {
	return &DependencyInstaller{
		runner:       runner{workingDir: cfg.AppDir, timeout: cfg.CommandTimeout},
		command:      cfg.InstallCommand,
		manifestPath: filepath.Join(cfg.AppDir, cfg.DependencyManifest),
	}
}

// Restore writes the captured manifest back into the application directory
// and reinstalls dependencies from it.
func (i *DependencyInstaller) Restore(manifest string) error {
	if manifest != "" {
		if err := os.WriteFile(i.manifestPath, []byte(manifest), 0o644); err != nil {
			return fmt.Errorf("failed to write dependency manifest: %w", err)
		}
	}
	return i.runner.run("dependency_install", i.command, nil)
}
