// Package git provides version control operations for the deployed
// application checkout: revision capture for snapshots and reverting the
// working tree to a snapshot's revision during rollback.
package git

import (
	"fmt"
	"log/slog"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/kjanat/livedash-deploy/config"
)

type Service struct {
	config *config.Config
}

func NewService(config *config.Config) *Service {
	return &Service{
		config: config,
	}
}

// Head returns the revision currently checked out in the application
// directory.
func (s *Service) Head(workingDir string) (string, error) {
	repo, err := gogit.PlainOpen(workingDir)
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "git",
			"operation", "git_head",
			"working_dir", workingDir,
			"error", err)
		return "", err
	}

	ref, err := repo.Head()
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "git",
			"operation", "git_head",
			"working_dir", workingDir,
			"error", err)
		return "", err
	}

	return ref.Hash().String(), nil
}

// RevertTo checks the working tree out at the given revision, discarding
// local changes to tracked files while preserving untracked files (runtime
// state, bind mounts).
func (s *Service) RevertTo(workingDir, revision string) error {
	slog.Info("Reverting working tree", "working_dir", workingDir, "revision", revision)

	repo, err := gogit.PlainOpen(workingDir)
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "git",
			"operation", "git_revert",
			"working_dir", workingDir,
			"error", err)
		return err
	}

	hash := plumbing.NewHash(revision)
	if hash.IsZero() {
		return fmt.Errorf("invalid revision: %q", revision)
	}

	// Verify the revision exists locally before touching the worktree
	if _, err := repo.CommitObject(hash); err != nil {
		slog.Error("Service operation failed",
			"layer", "git",
			"operation", "git_revert_lookup",
			"working_dir", workingDir,
			"revision", revision,
			"error", err)
		return fmt.Errorf("revision %s not found: %w", revision, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "git",
			"operation", "git_revert",
			"working_dir", workingDir,
			"error", err)
		return err
	}

	// Checkout to the target commit while preserving untracked files
	err = worktree.Checkout(&gogit.CheckoutOptions{
		Hash: hash,
		Keep: true, // Keep untracked files
	})
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "git",
			"operation", "git_revert_checkout",
			"working_dir", workingDir,
			"revision", revision,
			"error", err)
		return fmt.Errorf("failed to checkout revision %s: %w", revision, err)
	}

	// Reset only tracked files so local edits are discarded while untracked
	// files stay intact
	if err := s.resetTrackedFiles(worktree); err != nil {
		slog.Error("Service operation failed",
			"layer", "git",
			"operation", "git_revert_reset_tracked",
			"working_dir", workingDir,
			"revision", revision,
			"error", err)
		return fmt.Errorf("failed to reset tracked files: %w", err)
	}

	slog.Info("Working tree reverted",
		"working_dir", workingDir,
		"revision", revision)

	return nil
}

// IsRepository reports whether workingDir is a git checkout.
func (s *Service) IsRepository(workingDir string) bool {
	_, err := gogit.PlainOpen(workingDir)
	return err == nil
}

// resetTrackedFiles resets all tracked files in the worktree to their last
// committed state while leaving untracked files intact.
func (s *Service) resetTrackedFiles(worktree *gogit.Worktree) error {
	changedFiles, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}

	resetFiles := make([]string, 0, len(changedFiles))
	for file, status := range changedFiles {
		if status.Staging != gogit.Untracked {
			resetFiles = append(resetFiles, file)
		}
	}

	if len(resetFiles) > 0 {
		err = worktree.Reset(&gogit.ResetOptions{
			Mode:  gogit.HardReset,
			Files: resetFiles,
		})
		if err != nil {
			return fmt.Errorf("failed to reset tracked files: %w", err)
		}
	}

	return nil
}
