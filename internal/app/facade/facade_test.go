package facade

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskctl/internal/domain/llm"
	"taskctl/internal/domain/plan"
)

// scriptedClient returns one fixed response per call, in order; it never
// errors, so tests exercise parse-repair and the Creator/Critic loop
// without touching the retry/circuit-breaker paths.
type scriptedClient struct {
	responses []string
	calls     int
}

func (c *scriptedClient) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	i := c.calls
	if i >= len(c.responses) {
		i = len(c.responses) - 1
	}
	c.calls++
	return &llm.CompletionResponse{Content: c.responses[i]}, nil
}

func (c *scriptedClient) Model() string { return "scripted" }

func TestAnalyzeContextSufficiency_ParsesWellFormedJSON(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"sufficient": false, "questions": [{"text": "what is the budget?"}]}`,
	}}
	f := New(client, nil)
	task := plan.NewTask("T1", "p1", "build a dashboard", time.Now())

	result, err := f.AnalyzeContextSufficiency(context.Background(), task)
	require.NoError(t, err)
	assert.False(t, result.Sufficient)
	require.Len(t, result.Questions, 1)
	assert.Equal(t, "what is the budget?", result.Questions[0].Text)
}

func TestCallAgent_RepairsNearValidJSON(t *testing.T) {
	// trailing comma, a defect a model commonly emits
	client := &scriptedClient{responses: []string{
		`{"sufficient": true, "questions": [],}`,
	}}
	f := New(client, nil)
	task := plan.NewTask("T1", "p1", "q", time.Now())

	result, err := f.AnalyzeContextSufficiency(context.Background(), task)
	require.NoError(t, err)
	assert.True(t, result.Sufficient)
}

func TestCallAgent_ExhaustsParseRetriesAndRaisesAgentError(t *testing.T) {
	client := &scriptedClient{responses: []string{"not json", "still not json", "nope"}}
	f := New(client, nil)
	task := plan.NewTask("T1", "p1", "q", time.Now())

	_, err := f.AnalyzeContextSufficiency(context.Background(), task)
	require.Error(t, err)
	assert.Equal(t, plan.KindAgentError, plan.KindOf(err))
}

func TestGenerateNetworkPlan_AssignsHierarchicalIDs(t *testing.T) {
	creatorResp := `{"stages": [{"name": "stage one", "work_packages": [{"name": "work one", "tasks": [{"name": "task one", "subtasks": [{"name": "subtask one"}]}]}]}]}`
	criticAccept := `{"score": 9, "needs_improvement": false, "feedback": ""}`
	client := &scriptedClient{responses: []string{creatorResp, criticAccept}}
	f := New(client, nil)
	task := plan.NewTask("T1", "p1", "q", time.Now())

	np, err := f.GenerateNetworkPlan(context.Background(), task)
	require.NoError(t, err)
	require.Len(t, np.Stages, 1)
	assert.Equal(t, "S1", np.Stages[0].ID)
	assert.Equal(t, "S1_W1", np.Stages[0].WorkPackages[0].ID)
	assert.Equal(t, "S1_W1_ET1", np.Stages[0].WorkPackages[0].Tasks[0].ID)
	assert.Equal(t, "S1_W1_ET1_ST1", np.Stages[0].WorkPackages[0].Tasks[0].Subtasks[0].ID)
}

func TestGenerateNetworkPlan_CapsAtMaxIterAndReturnsLastPlan(t *testing.T) {
	creatorResp := `{"stages": [{"name": "stage one"}]}`
	alwaysImprove := `{"score": 3, "needs_improvement": true, "feedback": "try again"}`
	responses := []string{
		creatorResp, alwaysImprove,
		creatorResp, alwaysImprove,
		creatorResp, alwaysImprove,
	}
	client := &scriptedClient{responses: responses}
	f := New(client, nil)
	task := plan.NewTask("T1", "p1", "q", time.Now())

	np, err := f.GenerateNetworkPlan(context.Background(), task)
	require.NoError(t, err)
	require.Len(t, np.Stages, 1)
	assert.Equal(t, 3, client.calls/2, "exactly MAX_ITER creator/critic rounds run")
}
