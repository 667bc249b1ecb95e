package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestDefaultModeState(t *testing.T) {
	s := DefaultModeState()
	assert.Equal(t, ExecutionPaper, s.ExecutionMode)
	assert.True(t, s.DryRun)
	assert.Equal(t, TriggerManual, s.TriggerMode)
	assert.True(t, s.Simulated())
}

func TestModeState_Apply(t *testing.T) {
	base := DefaultModeState()

	live := base.Apply(ModeUpdate{ExecutionMode: ptr(ExecutionLive)})
	assert.Equal(t, ExecutionLive, live.ExecutionMode)
	assert.False(t, live.DryRun, "switching to live resets dry run to false")
	assert.False(t, live.Simulated())

	liveDry := base.Apply(ModeUpdate{ExecutionMode: ptr(ExecutionLive), DryRun: ptr(true)})
	assert.True(t, liveDry.DryRun)
	assert.True(t, liveDry.Simulated())

	backToPaper := live.Apply(ModeUpdate{ExecutionMode: ptr(ExecutionPaper)})
	assert.True(t, backToPaper.DryRun)

	onlyTrigger := live.Apply(ModeUpdate{TriggerMode: ptr(TriggerAuto)})
	assert.Equal(t, TriggerAuto, onlyTrigger.TriggerMode)
	assert.Equal(t, live.DryRun, onlyTrigger.DryRun)

	onlyDry := live.Apply(ModeUpdate{DryRun: ptr(true)})
	assert.Equal(t, ExecutionLive, onlyDry.ExecutionMode)
	assert.True(t, onlyDry.DryRun)
}

func TestParseExecutionMode(t *testing.T) {
	m, err := ParseExecutionMode(" LIVE ")
	require.NoError(t, err)
	assert.Equal(t, ExecutionLive, m)

	_, err = ParseExecutionMode("sandbox")
	assert.True(t, errors.Is(err, ErrInvalidMode))
}

func TestParseTriggerMode(t *testing.T) {
	assert.Equal(t, TriggerAuto, ParseTriggerMode("Auto"))
	assert.Equal(t, TriggerManual, ParseTriggerMode("whatever"))
	assert.Equal(t, TriggerManual, ParseTriggerMode(""))
}
