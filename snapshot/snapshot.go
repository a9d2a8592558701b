// Package snapshot captures and resolves point-in-time bundles of the
// deployed application's state: configuration files, the dependency manifest
// and the checked-out revision. Snapshots are the only durable state this
// tool writes; a bundle is write-once and self-describing, so Resolve can
// reconstruct it without any in-memory state from the run that created it.
package snapshot

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/kjanat/livedash-deploy/config"
	"github.com/kjanat/livedash-deploy/domain"
	"github.com/kjanat/livedash-deploy/encryption"
	"github.com/kjanat/livedash-deploy/repository"
	"gopkg.in/yaml.v3"
)

const manifestFile = "manifest.yaml"

// RevisionReader reports the revision checked out in a working directory.
type RevisionReader interface {
	Head(workingDir string) (string, error)
}

// Service captures and resolves snapshots.
type Service struct {
	config     *config.Config
	repository repository.SnapshotRepository
	git        RevisionReader
	encryption *encryption.Service
}

func NewService(
	cfg *config.Config,
	snapshotRepository repository.SnapshotRepository,
	git RevisionReader,
	encryptionSvc *encryption.Service,
) *Service {
	return &Service{
		config:     cfg,
		repository: snapshotRepository,
		git:        git,
		encryption: encryptionSvc,
	}
}

// manifest is the on-disk layout of a snapshot bundle. Config file contents
// are fernet-encrypted because application config routinely carries secrets.
type manifest struct {
	ID                 string            `yaml:"id"`
	Service            string            `yaml:"service"`
	Timestamp          time.Time         `yaml:"timestamp"`
	RevisionID         string            `yaml:"revision_id"`
	ConfigFiles        map[string]string `yaml:"config_files"` // path -> encrypted content
	DependencyManifest string            `yaml:"dependency_manifest"`
	CapturedOptions    capturedOptions   `yaml:"captured_options"`
}

type capturedOptions struct {
	SkipPreflight       bool          `yaml:"skip_preflight"`
	SkipBackup          bool          `yaml:"skip_backup"`
	SkipEnvironment     bool          `yaml:"skip_environment"`
	DryRun              bool          `yaml:"dry_run"`
	CompensateOnFailure bool          `yaml:"compensate_on_failure"`
	ProgressiveRollout  bool          `yaml:"progressive_rollout"`
	MaxDowntime         time.Duration `yaml:"max_downtime"`
}

// Capture creates a new snapshot of the application's current state and
// returns its reference. The bundle is written to disk and indexed in the
// database; it is never mutated afterwards.
func (s *Service) Capture(options domain.DeploymentOptions) (string, error) {
	snap := &domain.Snapshot{
		ID:              uuid.New(),
		Service:         s.config.ServiceName,
		Timestamp:       time.Now(),
		ConfigFiles:     map[string]string{},
		CapturedOptions: options,
	}

	// Capture the checked-out revision
	revision, err := s.git.Head(s.config.AppDir)
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "snapshot",
			"operation", "capture_revision",
			"app_dir", s.config.AppDir,
			"error", err)
		return "", fmt.Errorf("failed to capture revision: %w", err)
	}
	snap.RevisionID = revision

	// Capture config files. Missing files are tolerated; a deployment may
	// legitimately not have every configured file yet.
	for _, path := range s.config.ConfigFiles {
		content, err := os.ReadFile(filepath.Join(s.config.AppDir, path))
		if err != nil {
			if os.IsNotExist(err) {
				slog.Warn("Config file missing, not captured", "path", path)
				continue
			}
			return "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		snap.ConfigFiles[path] = string(content)
	}

	// Capture the dependency manifest
	manifestContent, err := os.ReadFile(filepath.Join(s.config.AppDir, s.config.DependencyManifest))
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to read dependency manifest: %w", err)
		}
		slog.Warn("Dependency manifest missing, not captured",
			"path", s.config.DependencyManifest)
	} else {
		snap.DependencyManifest = string(manifestContent)
	}

	// Write the bundle
	dir := s.bundleDir(snap)
	if err := s.writeBundle(snap, dir); err != nil {
		return "", err
	}

	// Index it
	record := &domain.SnapshotRecord{
		ID:         snap.ID,
		Service:    snap.Service,
		Path:       dir,
		RevisionID: snap.RevisionID,
	}
	if err := s.repository.Create(record); err != nil {
		// The bundle exists but is unindexed; remove it so disk and index
		// stay consistent.
		if cleanupErr := os.RemoveAll(dir); cleanupErr != nil {
			slog.Error("Failed to remove snapshot bundle after index failure",
				"path", dir,
				"error", cleanupErr)
		}
		return "", fmt.Errorf("failed to index snapshot: %w", err)
	}

	slog.Info("Snapshot captured",
		"snapshot_id", snap.ID,
		"service", snap.Service,
		"revision", snap.RevisionID,
		"config_files", len(snap.ConfigFiles),
		"path", dir)

	return snap.Ref(), nil
}

// Resolve loads a snapshot by reference. An empty reference resolves to the
// most recent snapshot.
func (s *Service) Resolve(ref string) (*domain.Snapshot, error) {
	record, err := s.lookup(ref)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(record.Path, manifestFile))
	if err != nil {
		slog.Error("Service operation failed",
			"layer", "snapshot",
			"operation", "resolve_snapshot",
			"snapshot_id", record.ID,
			"path", record.Path,
			"error", err)
		return nil, fmt.Errorf("failed to read snapshot manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot manifest: %w", err)
	}

	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot id in manifest: %w", err)
	}

	snap := &domain.Snapshot{
		ID:                 id,
		Service:            m.Service,
		Timestamp:          m.Timestamp,
		RevisionID:         m.RevisionID,
		ConfigFiles:        map[string]string{},
		DependencyManifest: m.DependencyManifest,
		CapturedOptions: domain.DeploymentOptions{
			SkipPreflight:       m.CapturedOptions.SkipPreflight,
			SkipBackup:          m.CapturedOptions.SkipBackup,
			SkipEnvironment:     m.CapturedOptions.SkipEnvironment,
			DryRun:              m.CapturedOptions.DryRun,
			CompensateOnFailure: m.CapturedOptions.CompensateOnFailure,
			ProgressiveRollout:  m.CapturedOptions.ProgressiveRollout,
			MaxDowntime:         m.CapturedOptions.MaxDowntime,
		},
	}

	for path, token := range m.ConfigFiles {
		content, err := s.encryption.Decrypt(token)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt config file %s: %w", path, err)
		}
		snap.ConfigFiles[path] = content
	}

	return snap, nil
}

// List returns the indexed snapshots, newest first.
func (s *Service) List() ([]*domain.SnapshotRecord, error) {
	return s.repository.List()
}

func (s *Service) lookup(ref string) (*domain.SnapshotRecord, error) {
	if ref == "" {
		record, err := s.repository.Latest()
		if err != nil {
			return nil, fmt.Errorf("no snapshots available: %w", err)
		}
		return record, nil
	}

	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot reference %q: %w", ref, err)
	}

	record, err := s.repository.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s not found: %w", ref, err)
	}
	return record, nil
}

func (s *Service) bundleDir(snap *domain.Snapshot) string {
	dirName := fmt.Sprintf("%s-%s-%s",
		snap.Timestamp.Format("20060102-150405"),
		slug.Make(snap.Service),
		snap.ID.String())
	return filepath.Join(s.config.SnapshotsDir, dirName)
}

func (s *Service) writeBundle(snap *domain.Snapshot, dir string) error {
	m := manifest{
		ID:                 snap.ID.String(),
		Service:            snap.Service,
		Timestamp:          snap.Timestamp,
		RevisionID:         snap.RevisionID,
		ConfigFiles:        map[string]string{},
		DependencyManifest: snap.DependencyManifest,
		CapturedOptions: capturedOptions{
			SkipPreflight:       snap.CapturedOptions.SkipPreflight,
			SkipBackup:          snap.CapturedOptions.SkipBackup,
			SkipEnvironment:     snap.CapturedOptions.SkipEnvironment,
			DryRun:              snap.CapturedOptions.DryRun,
			CompensateOnFailure: snap.CapturedOptions.CompensateOnFailure,
			ProgressiveRollout:  snap.CapturedOptions.ProgressiveRollout,
			MaxDowntime:         snap.CapturedOptions.MaxDowntime,
		},
	}

	for path, content := range snap.ConfigFiles {
		token, err := s.encryption.Encrypt(content)
		if err != nil {
			return fmt.Errorf("failed to encrypt config file %s: %w", path, err)
		}
		m.ConfigFiles[path] = token
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot manifest: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, manifestFile), data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot manifest: %w", err)
	}

	return nil
}
