package output

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kjanat/livedash-deploy/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintMessage(t *testing.T) {
	InitColors(true) // Disable colors for testing

	tests := []struct {
		name     string
		format   string
		args     []any
		expected string
	}{
		{
			name:     "simple string",
			format:   "hello",
			args:     nil,
			expected: "hello\n",
		},
		{
			name:     "format with string",
			format:   "deploying %s",
			args:     []any{"livedash"},
			expected: "deploying livedash\n",
		},
		{
			name:     "format with multiple args",
			format:   "phase %s (%d of %d)",
			args:     []any{"cutover", 4, 6},
			expected: "phase cutover (4 of 6)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PrintMessage(Error, tt.format, tt.args...))
		})
	}
}

func TestPrintDeploymentResult(t *testing.T) {
	InitColors(true)

	result := domain.ExecutionResult{
		RunID:           uuid.New(),
		Service:         "livedash",
		Success:         false,
		CompletedPhases: []string{"schema-migration", "build"},
		AttemptedPhases: []string{"schema-migration", "build", "cutover"},
		FailedPhase:     "cutover",
		TotalDuration:   3 * time.Second,
		Downtime:        45 * time.Second,
	}

	out, err := PrintDeploymentResult(result)
	require.NoError(t, err)
	assert.Contains(t, out, result.RunID.String())
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "cutover")
	assert.Contains(t, out, "schema-migration")
}

func TestPrintSnapshotList(t *testing.T) {
	InitColors(true)

	t.Run("empty", func(t *testing.T) {
		out, err := PrintSnapshotList(nil)
		require.NoError(t, err)
		assert.Contains(t, out, "No snapshots found")
	})

	t.Run("with records", func(t *testing.T) {
		record := &domain.SnapshotRecord{
			ID:         uuid.New(),
			Service:    "livedash",
			RevisionID: "0123456789abcdef0123456789abcdef01234567",
			CreatedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		}

		out, err := PrintSnapshotList([]*domain.SnapshotRecord{record})
		require.NoError(t, err)
		assert.Contains(t, out, record.ID.String())
		assert.Contains(t, out, "0123456789ab")
		assert.NotContains(t, out, record.RevisionID)
	})
}

func TestPrintRollbackResult(t *testing.T) {
	InitColors(true)

	result := domain.RollbackResult{
		RunID:          uuid.New(),
		Success:        true,
		CompletedSteps: []string{"confirmation", "restore-data", "final-verification"},
		TotalDuration:  90 * time.Second,
	}

	out, err := PrintRollbackResult(result)
	require.NoError(t, err)
	assert.Contains(t, out, "success")
	assert.Contains(t, out, "restore-data")
}
