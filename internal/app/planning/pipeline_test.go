package planning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskctl/internal/app/facade"
	"taskctl/internal/domain/llm"
	"taskctl/internal/domain/plan"
	"taskctl/internal/infra/store"
)

// scriptedClient returns one fixed response per call, in order.
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

func newPipeline(t *testing.T, responses []string) (*Pipeline, *store.Store, string) {
	t.Helper()
	s := store.New(t.TempDir())
	f := facade.New(&scriptedClient{responses: responses}, nil)
	p := New(f, s, nil)

	ctx := context.Background()
	_, err := s.CreateProject(ctx, "proj1", "build a dashboard")
	require.NoError(t, err)
	task := plan.NewTask("T1", "proj1", "build a dashboard", p.now())
	require.NoError(t, s.SaveTask(ctx, "proj1", task))
	return p, s, "proj1"
}

func TestAnswerContextQuestions_TransitionsNewToContextGathering(t *testing.T) {
	p, s, projectID := newPipeline(t, []string{
		`{"sufficient": false, "questions": [{"text": "what is the budget?"}]}`,
	})
	result, err := p.AnswerContextQuestions(context.Background(), projectID, nil, false)
	require.NoError(t, err)
	assert.False(t, result.Sufficient)
	require.Len(t, result.OpenQuestions, 1)

	task, err := s.LoadTask(context.Background(), projectID)
	require.NoError(t, err)
	assert.Equal(t, plan.StatusContextGathering, task.State)
	require.Len(t, task.ContextAnswers, 1)
	assert.Equal(t, "what is the budget?", task.ContextAnswers[0].Question)
}

func TestAnswerContextQuestions_ThreeDontKnowsForceTermination(t *testing.T) {
	p, s, projectID := newPipeline(t, nil)
	ctx := context.Background()

	task, err := s.LoadTask(ctx, projectID)
	require.NoError(t, err)
	task.State = plan.StatusContextGathering
	task.ContextAnswers = []plan.ContextAnswer{
		{Question: "q1"}, {Question: "q2"}, {Question: "q3"},
	}
	require.NoError(t, s.SaveTask(ctx, projectID, task))

	result, err := p.AnswerContextQuestions(ctx, projectID, map[string]string{
		"q1": "I don't know", "q2": "idk", "q3": "not sure",
	}, false)
	require.NoError(t, err)
	assert.True(t, result.Sufficient)
	assert.True(t, result.ForcedStop)

	task, err = s.LoadTask(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, plan.StatusContextGathered, task.State)
}

func TestAnswerContextQuestions_ForceTrueEndsImmediately(t *testing.T) {
	p, s, projectID := newPipeline(t, nil)
	ctx := context.Background()
	task, err := s.LoadTask(ctx, projectID)
	require.NoError(t, err)
	task.State = plan.StatusContextGathering
	require.NoError(t, s.SaveTask(ctx, projectID, task))

	result, err := p.AnswerContextQuestions(ctx, projectID, nil, true)
	require.NoError(t, err)
	assert.True(t, result.Sufficient)

	task, err = s.LoadTask(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, plan.StatusContextGathered, task.State)
}

func TestFullPlanningSequence_DrivesTaskToNetworkPlanGenerated(t *testing.T) {
	ctx := context.Background()
	p, s, projectID := newPipeline(t, []string{
		// AnswerContextQuestions
		`{"sufficient": true, "questions": []}`,
		// FormulateDimension
		`{"questions": [{"text": "who is the audience?"}]}`,
		// GenerateDraftScope
		`{"scope": {"draft": "build a sales dashboard"}, "validation_criteria": ["has a chart"]}`,
		// GenerateIFR
		`{"statement": "dashboard live", "success_criteria": ["loads under 2s"], "expected_outcomes": [], "quality_metrics": [], "validation_checklist": []}`,
		// GenerateRequirements
		`{"requirements": ["react frontend"], "constraints": [], "limitations": [], "resources": [], "tools": []}`,
		// GenerateNetworkPlan creator
		`{"stages": [{"name": "build it"}]}`,
		// GenerateNetworkPlan critic
		`{"score": 9, "needs_improvement": false, "feedback": ""}`,
	})

	_, err := p.AnswerContextQuestions(ctx, projectID, nil, false)
	require.NoError(t, err)

	// First FormulateDimension call performs the CONTEXT_GATHERED ->
	// TASK_FORMATION transition itself.
	questions, err := p.FormulateDimension(ctx, projectID, plan.DimensionWhat)
	require.NoError(t, err)
	require.Len(t, questions, 1)

	task, err := s.LoadTask(ctx, projectID)
	require.NoError(t, err)
	require.Equal(t, plan.StatusTaskFormation, task.State)

	_, err = p.SubmitDimensionAnswers(ctx, projectID, plan.DimensionWhat, "a sales dashboard")
	require.NoError(t, err)

	_, err = p.GenerateDraftScope(ctx, projectID)
	require.NoError(t, err)

	_, err = p.SubmitScopeValidation(ctx, projectID, true, "")
	require.NoError(t, err)

	task, err = s.LoadTask(ctx, projectID)
	require.NoError(t, err)
	require.Equal(t, plan.StatusContextGathered, task.State)

	_, err = p.GenerateIFR(ctx, projectID)
	require.NoError(t, err)

	_, err = p.GenerateRequirements(ctx, projectID)
	require.NoError(t, err)

	np, err := p.GenerateNetworkPlan(ctx, projectID, false)
	require.NoError(t, err)
	require.Len(t, np.Stages, 1)

	task, err = s.LoadTask(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, plan.StatusNetworkPlanGenerated, task.State)
}
