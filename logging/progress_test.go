package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressLogger_Percent(t *testing.T) {
	p := NewProgressLogger("deployment", 4)
	assert.Equal(t, 0, p.Percent())

	p.PhaseStart("environment", "prepare runtime environment")
	assert.Equal(t, 0, p.Percent())

	p.PhaseComplete("environment")
	assert.Equal(t, 25, p.Percent())

	p.PhaseStart("build", "build artifact")
	p.PhaseComplete("build")
	assert.Equal(t, 50, p.Percent())

	p.Close(true)
	assert.Equal(t, 50, p.Percent())
}

func TestProgressLogger_ToleratedFailureAdvances(t *testing.T) {
	p := NewProgressLogger("deployment", 2)

	p.PhaseStart("feature-activation", "enable feature flags")
	p.PhaseFailed("feature-activation", errors.New("flag store unavailable"), true)
	assert.Equal(t, 50, p.Percent())
}

func TestProgressLogger_FatalFailureDoesNotAdvance(t *testing.T) {
	p := NewProgressLogger("deployment", 2)

	p.PhaseStart("cutover", "switch traffic to the new build")
	p.PhaseFailed("cutover", errors.New("compose up failed"), false)
	assert.Equal(t, 0, p.Percent())

	p.Close(false)
}

func TestProgressLogger_PercentBounds(t *testing.T) {
	// A zero-phase run is trivially complete
	empty := NewProgressLogger("deployment", 0)
	assert.Equal(t, 100, empty.Percent())

	// The percentage never exceeds 100 even if more phases complete than
	// were announced
	p := NewProgressLogger("rollback", 2)
	for _, step := range []string{"halt-service", "restore-data", "resume-service"} {
		p.PhaseStart(step, "")
		p.PhaseComplete(step)
	}
	assert.Equal(t, 100, p.Percent())
}
