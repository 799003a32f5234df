package deploy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Advance(t *testing.T) {
	s := Status{State: StateNotStarted, StepIndex: -1}

	s, err := s.advance(StateRunning, -1)
	require.NoError(t, err)
	s, err = s.advance(StateRunning, 0)
	require.NoError(t, err)
	s, err = s.advance(StateRunning, 1)
	require.NoError(t, err)
	assert.Equal(t, "running(1)", s.String())

	done, err := s.advance(StateCompleted, 1)
	require.NoError(t, err)
	assert.Equal(t, "completed", done.String())
	assert.True(t, done.State.Terminal())
}

func TestStatus_AdvanceRejectsInvalidMoves(t *testing.T) {
	running := Status{State: StateRunning, StepIndex: 2}

	_, err := running.advance(StateRunning, 1)
	assert.Error(t, err, "moving back a step")

	_, err = running.advance(StateNotStarted, 2)
	assert.Error(t, err, "restart")

	failed := Status{State: StateFailed, StepIndex: 2}
	_, err = failed.advance(StateRunning, 3)
	assert.Error(t, err, "leaving failed")

	completed := Status{State: StateCompleted, StepIndex: 2}
	_, err = completed.advance(StateFailed, 2)
	assert.Error(t, err, "leaving completed")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "not_started", StateNotStarted.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "state(9)", State(9).String())
	assert.Equal(t, "failed(0)", Status{State: StateFailed, StepIndex: 0}.String())
}
