package deploy

import (
	"github.com/kjanat/livedash-deploy/domain"
	"github.com/kjanat/livedash-deploy/preflight"
)

// MockPreflightChecker for testing
type MockPreflightChecker struct {
	RunFunc  func() preflight.Result
	RunCalls int
}

func (m *MockPreflightChecker) Run() preflight.Result {
	m.RunCalls++
	if m.RunFunc != nil {
		return m.RunFunc()
	}
	return preflight.Result{Success: true}
}

// MockSnapshotCreator for testing
type MockSnapshotCreator struct {
	CaptureFunc  func(options domain.DeploymentOptions) (string, error)
	CaptureCalls int
}

func (m *MockSnapshotCreator) Capture(options domain.DeploymentOptions) (string, error) {
	m.CaptureCalls++
	if m.CaptureFunc != nil {
		return m.CaptureFunc(options)
	}
	return "mock-snapshot-ref", nil
}

// MockSchemaMigrator for testing
type MockSchemaMigrator struct {
	ApplyFunc  func() error
	ApplyCalls int
}

func (m *MockSchemaMigrator) Apply() error {
	m.ApplyCalls++
	if m.ApplyFunc != nil {
		return m.ApplyFunc()
	}
	return nil
}

// MockArtifactBuilder for testing
type MockArtifactBuilder struct {
	BuildFunc  func() error
	BuildCalls int
}

func (m *MockArtifactBuilder) Build() error {
	m.BuildCalls++
	if m.BuildFunc != nil {
		return m.BuildFunc()
	}
	return nil
}

// MockServiceController for testing
type MockServiceController struct {
	UpFunc     func() error
	StopFunc   func() error
	StartFunc  func() error
	UpCalls    int
	StopCalls  int
	StartCalls int
}

func (m *MockServiceController) Up() error {
	m.UpCalls++
	if m.UpFunc != nil {
		return m.UpFunc()
	}
	return nil
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
