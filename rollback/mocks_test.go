package rollback

import (
	"github.com/kjanat/livedash-deploy/domain"
	"github.com/kjanat/livedash-deploy/preflight"
)

// MockConfirmer for testing
type MockConfirmer struct {
	ConfirmFunc  func(prompt string) bool
	ConfirmCalls int
}

func (m *MockConfirmer) Confirm(prompt string) bool {
	m.ConfirmCalls++
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(prompt)
	}
	return true
}

// MockSnapshotResolver for testing
type MockSnapshotResolver struct {
	ResolveFunc  func(ref string) (*domain.Snapshot, error)
	ResolveCalls int
}

func (m *MockSnapshotResolver) Resolve(ref string) (*domain.Snapshot, error) {
	m.ResolveCalls++
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ref)
	}
	return &domain.Snapshot{}, nil
}

// MockPrerequisiteChecker for testing
type MockPrerequisiteChecker struct {
	RunFunc  func() preflight.Result
	RunCalls int
}

func (m *MockPrerequisiteChecker) Run() preflight.Result {
	m.RunCalls++
	if m.RunFunc != nil {
		return m.RunFunc()
	}
	return preflight.Result{Success: true}
}

// MockServiceController for testing
type MockServiceController struct {
	StopFunc   func() error
	StartFunc  func() error
	StopCalls  int
	StartCalls int
}

func (m *MockServiceController) Stop() error {
	m.StopCalls++
	if m.StopFunc != nil {
		return m.StopFunc()
	}
	return nil
}

func (m *MockServiceController) Start() error {
	m.StartCalls++
	if m.StartFunc != nil {
		return m.StartFunc()
	}
	return nil
}

// MockDataRestorer for testing
type MockDataRestorer struct {
	RestoreFunc  func(snapshotRef string) error
	VerifyFunc   func() bool
	RestoreCalls int
	VerifyCalls  int
	RestoredRefs []string
}

func (m *MockDataRestorer) Restore(snapshotRef string) error {
	m.RestoreCalls++
	m.RestoredRefs = append(m.RestoredRefs, snapshotRef)
	if m.RestoreFunc != nil {
		return m.RestoreFunc(snapshotRef)
	}
	return nil
}

func (m *MockDataRestorer) Verify() bool {
	m.VerifyCalls++
	if m.VerifyFunc != nil {
		return m.VerifyFunc()
	}
	return true
}

// MockVersionControl for testing
type MockVersionControl struct {
	RevertToFunc      func(workingDir, revision string) error
	RevertToCalls     int
	RevertedRevisions []string
}

func (m *MockVersionControl) RevertTo(workingDir, revision string) error {
	m.RevertToCalls++
	m.RevertedRevisions = append(m.RevertedRevisions, revision)
	if m.RevertToFunc != nil {
		return m.RevertToFunc(workingDir, revision)
	}
	return nil
}

// MockDependencyInstaller for testing
type MockDependencyInstaller struct {
	RestoreFunc  func(manifest string) error
	RestoreCalls int
	Manifests    []string
}

func (m *MockDependencyInstaller) Restore(manifest string) error {
	m.RestoreCalls++
	m.Manifests = append(m.Manifests, manifest)
	if m.RestoreFunc != nil {
		return m.RestoreFunc(manifest)
	}
	return nil
}

// MockHealthProbe for testing
type MockHealthProbe struct {
	CheckFunc  func() bool
	CheckCalls int
}

func (m *MockHealthProbe) Check() bool {
	m.CheckCalls++
	if m.CheckFunc != nil {
		return m.CheckFunc()
	}
	return true
}
