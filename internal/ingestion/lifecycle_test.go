package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStatusTransition(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name    string
		from    RunStatus
		to      RunStatus
		wantErr error
	}{
		{"new run starts", "", RunStatusRunning, nil},
		{"running to completed", RunStatusRunning, RunStatusCompleted, nil},
		{"running to completed with errors", RunStatusRunning, RunStatusCompletedWithErrors, nil},
		{"running to aborted", RunStatusRunning, RunStatusAborted, nil},
		{"terminal is idempotent", RunStatusCompleted, RunStatusCompleted, nil},

		{"new run cannot finish directly", "", RunStatusCompleted, ErrInvalidTransition},
		{"running to running", RunStatusRunning, RunStatusRunning, ErrInvalidTransition},
		{"unknown target", RunStatusRunning, "paused", ErrInvalidTransition},
		{"completed to aborted", RunStatusCompleted, RunStatusAborted, ErrTerminalStatusImmutable},
		{"aborted to running", RunStatusAborted, RunStatusRunning, ErrTerminalStatusImmutable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStatusTransition(tt.from, tt.to)
			if tt.wantErr == nil {
				assert.NoError(t, err)

				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFinalStatus(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	assert.Equal(t, RunStatusCompleted, finalStatus(&Result{Saved: 3}))
	assert.Equal(t, RunStatusCompletedWithErrors, finalStatus(&Result{Saved: 3, Failed: 1}))
	assert.Equal(t, RunStatusAborted, finalStatus(&Result{Failed: 1, Err: context.Canceled}))
}

func TestResultTransition(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	var r Result

	require.NoError(t, r.transition(RunStatusRunning))
	require.NoError(t, r.transition(RunStatusCompleted))

	err := r.transition(RunStatusAborted)
	assert.True(t, errors.Is(err, ErrTerminalStatusImmutable))
	assert.Equal(t, RunStatusCompleted, r.Status)
}
