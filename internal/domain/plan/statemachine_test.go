package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_LegalEdges(t *testing.T) {
	tests := []struct {
		from  Status
		event Event
		to    Status
	}{
		{StatusNew, EventFirstContextQuestion, StatusContextGathering},
		{StatusContextGathering, EventContextSufficient, StatusContextGathered},
		{StatusContextGathered, EventScopeQuestionAsked, StatusTaskFormation},
		{StatusTaskFormation, EventScopeDraftApproved, StatusContextGathered},
		{StatusContextGathered, EventIFRGenerated, StatusIFRGenerated},
		{StatusIFRGenerated, EventRequirementsGenerated, StatusRequirementsDefined},
		{StatusRequirementsDefined, EventNetworkPlanGenerated, StatusNetworkPlanGenerated},
	}
	for _, tt := range tests {
		got, err := Transition(tt.from, tt.event, false)
		require.NoError(t, err)
		assert.Equal(t, tt.to, got)
	}
}

func TestTransition_IllegalWithoutForce(t *testing.T) {
	_, err := Transition(StatusNew, EventIFRGenerated, false)
	require.Error(t, err)
	assert.Equal(t, KindInvalidState, KindOf(err))
}

func TestTransition_ForceOverridesOnlyForceableEvents(t *testing.T) {
	got, err := Transition(StatusNew, EventContextSufficient, true)
	require.NoError(t, err)
	assert.Equal(t, StatusContextGathered, got)

	got, err = Transition(StatusNew, EventNetworkPlanGenerated, true)
	require.NoError(t, err)
	assert.Equal(t, StatusNetworkPlanGenerated, got)

	_, err = Transition(StatusNew, EventIFRGenerated, true)
	require.Error(t, err, "force must not bypass non-forceable events")
}

func TestTransition_FatalErrorFromAnyState(t *testing.T) {
	for _, s := range []Status{StatusNew, StatusContextGathering, StatusExecuting, StatusCompleted} {
		got, err := Transition(s, EventFatalError, false)
		require.NoError(t, err)
		assert.Equal(t, StatusFailed, got)
	}
}

func TestCanForce(t *testing.T) {
	assert.True(t, CanForce(EventContextSufficient))
	assert.True(t, CanForce(EventNetworkPlanGenerated))
	assert.False(t, CanForce(EventIFRGenerated))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusCompleted))
	assert.True(t, IsTerminal(StatusFailed))
	assert.False(t, IsTerminal(StatusExecuting))
}
