package domain

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is a point-in-time bundle of everything needed to restore a prior
// known-good state: configuration files, the dependency manifest and the code
// revision that was live when it was taken. A snapshot is write-once; it is
// never mutated after creation.
type Snapshot struct {
	ID        uuid.UUID
	Service   string
	Timestamp time.Time
	// RevisionID is the VCS revision that was checked out at capture time.
	RevisionID string
	// ConfigFiles maps relative paths to plaintext file contents.
	ConfigFiles map[string]string
	// DependencyManifest is the captured dependency lock content.
	DependencyManifest string
	// CapturedOptions records the deployment options in effect at capture
	// time, for operator forensics.
	CapturedOptions DeploymentOptions
}

// Ref returns the stable reference used to resolve this snapshot later.
func (s *Snapshot) Ref() string {
	return s.ID.String()
}
