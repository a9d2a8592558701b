package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kjanat/livedash-deploy/config"
	"github.com/kjanat/livedash-deploy/domain"
	"github.com/kjanat/livedash-deploy/encryption"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// MockRevisionReader for testing
type MockRevisionReader struct {
	HeadFunc  func(workingDir string) (string, error)
	HeadCalls int
}

func (m *MockRevisionReader) Head(workingDir string) (string, error) {
	m.HeadCalls++
	if m.HeadFunc != nil {
		return m.HeadFunc(workingDir)
	}
	return "abc123def456", nil
}

// memorySnapshotRepository is an in-memory SnapshotRepository for tests.
type memorySnapshotRepository struct {
	records []*domain.SnapshotRecord
}

func (r *memorySnapshotRepository) FindByID(id uuid.UUID) (*domain.SnapshotRecord, error) {
	for _, record := range r.records {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, errors.New("record not found")
}

func (r *memorySnapshotRepository) Create(record *domain.SnapshotRecord) error {
	record.CreatedAt = time.Now()
	r.records = append(r.records, record)
	return nil
}

func (r *memorySnapshotRepository) List() ([]*domain.SnapshotRecord, error) {
	out := make([]*domain.SnapshotRecord, len(r.records))
	for i := range r.records {
		out[len(r.records)-1-i] = r.records[i]
	}
	return out, nil
}

func (r *memorySnapshotRepository) Latest() (*domain.SnapshotRecord, error) {
	if len(r.records) == 0 {
		return nil, errors.New("record not found")
	}
	return r.records[len(r.records)-1], nil
}

func newTestService(t *testing.T) (*Service, *config.Config, *memorySnapshotRepository) {
	t.Helper()

	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	encryptionService, err := encryption.NewService(key)
	require.NoError(t, err)

	cfg := &config.Config{
		ServiceName:        "livedash",
		AppDir:             t.TempDir(),
		SnapshotsDir:       t.TempDir(),
		ConfigFiles:        []string{".env", "config/production.yaml"},
		DependencyManifest: "package-lock.json",
	}

	repo := &memorySnapshotRepository{}
	service := NewService(cfg, repo, &MockRevisionReader{}, encryptionService)
	return service, cfg, repo
}

func writeAppFile(t *testing.T, cfg *config.Config, path, content string) {
	t.Helper()
	target := filepath.Join(cfg.AppDir, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte(content), 0o644))
}

func TestSnapshot_CaptureResolveRoundTrip(t *testing.T) {
	service, cfg, repo := newTestService(t)

	writeAppFile(t, cfg, ".env", "DATABASE_URL=postgres://localhost/livedash")
	writeAppFile(t, cfg, "config/production.yaml", "workers: 4\n")
	writeAppFile(t, cfg, "package-lock.json", `{"name":"livedash","lockfileVersion":3}`)

	options := domain.DefaultDeploymentOptions()
	options.MaxDowntime = 45 * time.Second

	ref, err := service.Capture(options)
	require.NoError(t, err)
	require.NotEmpty(t, ref)
	require.Len(t, repo.records, 1)
	assert.Equal(t, "abc123def456", repo.records[0].RevisionID)

	snap, err := service.Resolve(ref)
	require.NoError(t, err)

	assert.Equal(t, ref, snap.Ref())
	assert.Equal(t, "livedash", snap.Service)
	assert.Equal(t, "abc123def456", snap.RevisionID)
	assert.Equal(t, "DATABASE_URL=postgres://localhost/livedash", snap.ConfigFiles[".env"])
	assert.Equal(t, "workers: 4\n", snap.ConfigFiles["config/production.yaml"])
	assert.Equal(t, `{"name":"livedash","lockfileVersion":3}`, snap.DependencyManifest)
	assert.Equal(t, 45*time.Second, snap.CapturedOptions.MaxDowntime)
	assert.True(t, snap.CapturedOptions.ProgressiveRollout)
}

func TestSnapshot_ConfigFilesEncryptedOnDisk(t *testing.T) {
	service, cfg, repo := newTestService(t)

	secret := "SECRET_TOKEN=hunter2"
	writeAppFile(t, cfg, ".env", secret)

	_, err := service.Capture(domain.DefaultDeploymentOptions())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(repo.records[0].Path, "manifest.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")

	var m manifest
	require.NoError(t, yaml.Unmarshal(data, &m))
	assert.NotEqual(t, secret, m.ConfigFiles[".env"])
}

func TestSnapshot_MissingConfigFilesTolerated(t *testing.T) {
	service, cfg, _ := newTestService(t)

	// Only one of the configured files exists; the manifest is absent
	writeAppFile(t, cfg, ".env", "A=1")

	ref, err := service.Capture(domain.DefaultDeploymentOptions())
	require.NoError(t, err)

	snap, err := service.Resolve(ref)
	require.NoError(t, err)
	assert.Equal(t, "A=1", snap.ConfigFiles[".env"])
	assert.NotContains(t, snap.ConfigFiles, "config/production.yaml")
	assert.Empty(t, snap.DependencyManifest)
}

func TestSnapshot_CaptureFailsWithoutRevision(t *testing.T) {
	service, _, repo := newTestService(t)
	service.git = &MockRevisionReader{
		HeadFunc: func(string) (string, error) {
			return "", errors.New("repository does not exist")
		},
	}

	_, err := service.Capture(domain.DefaultDeploymentOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revision")
	assert.Empty(t, repo.records)
}

func TestSnapshot_ResolveEmptyRefUsesLatest(t *testing.T) {
	service, cfg, _ := newTestService(t)
	writeAppFile(t, cfg, ".env", "FIRST=1")

	_, err := service.Capture(domain.DefaultDeploymentOptions())
	require.NoError(t, err)

	writeAppFile(t, cfg, ".env", "SECOND=1")
	secondRef, err := service.Capture(domain.DefaultDeploymentOptions())
	require.NoError(t, err)

	snap, err := service.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, secondRef, snap.Ref())
	assert.Equal(t, "SECOND=1", snap.ConfigFiles[".env"])
}

func TestSnapshot_ResolveInvalidRef(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.Resolve("not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid snapshot reference")

	_, err = service.Resolve(uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSnapshot_List(t *testing.T) {
	service, cfg, _ := newTestService(t)
	writeAppFile(t, cfg, ".env", "A=1")

	_, err := service.Capture(domain.DefaultDeploymentOptions())
	require.NoError(t, err)
	_, err = service.Capture(domain.DefaultDeploymentOptions())
	require.NoError(t, err)

	records, err := service.List()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
