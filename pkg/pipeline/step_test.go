package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := Begin
	var err error

	s, err = Transition(s, RunConditional)
	require.NoError(t, err)
	assert.Equal(t, WaitingDependencySteps, s)

	s, err = Transition(s, DependencyStepsFinishedSuccessfully)
	require.NoError(t, err)
	assert.Equal(t, CheckingOutputs, s)

	s, err = Transition(s, OutputsChecked)
	require.NoError(t, err)
	assert.Equal(t, CheckingSuperficialDiffs, s)

	s, err = Transition(s, SuperficialDiffsChanged)
	require.NoError(t, err)
	assert.Equal(t, CheckingThoroughDiffs, s)

	s, err = Transition(s, ThoroughDiffsDone)
	require.NoError(t, err)
	assert.Equal(t, ComparingDiffsAndOutputs, s)

	s, err = Transition(s, DiffsHasChanged)
	require.NoError(t, err)
	assert.Equal(t, WaitingToRun, s)

	s, err = Transition(s, StartProcess)
	require.NoError(t, err)
	assert.Equal(t, Running, s)

	s, err = Transition(s, ProcessCompletedSuccessfully)
	require.NoError(t, err)
	assert.Equal(t, DoneByRunning, s)
	assert.True(t, s.Terminal())
}

func TestTransitionNoRunShortCircuits(t *testing.T) {
	s, err := Transition(Begin, RunNever)
	require.NoError(t, err)
	assert.Equal(t, DoneWithoutRunning, s)
}

func TestTransitionUnchangedDiffsSkipsRun(t *testing.T) {
	s, err := Transition(ComparingDiffsAndOutputs, DiffsHasNotChanged)
	require.NoError(t, err)
	assert.Equal(t, DoneWithoutRunning, s)
}

func TestTransitionBrokenDependencyPropagates(t *testing.T) {
	s, err := Transition(WaitingDependencySteps, DependencyStepsFinishedBroken)
	require.NoError(t, err)
	assert.Equal(t, Broken, s)
}

func TestTransitionRejectsUnknownEvent(t *testing.T) {
	_, err := Transition(CheckingOutputs, RunNever)
	assert.Error(t, err)
}

func TestTransitionTerminalStatesAreSticky(t *testing.T) {
	for _, term := range []State{DoneByRunning, DoneWithoutRunning, Broken} {
		s, err := Transition(term, KeepTerminal)
		require.NoError(t, err)
		assert.Equal(t, term, s)

		_, err = Transition(term, RunConditional)
		assert.Error(t, err)
	}
}

func TestConditionsFromInvalidate(t *testing.T) {
	assert.True(t, ConditionsFromInvalidate(Never, true).Never)
	assert.True(t, ConditionsFromInvalidate(Always, true).Always)
	assert.Equal(t, RunConditions{}, ConditionsFromInvalidate(ByDependencies, true))
}

func TestConditionsFromInvalidateNoDependenciesRunsAlways(t *testing.T) {
	assert.True(t, ConditionsFromInvalidate(ByDependencies, false).Always)
	assert.True(t, ConditionsFromInvalidate(Never, false).Never, "Never still wins over the no-dependencies rule")
}
