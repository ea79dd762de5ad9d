package facade

import "taskctl/internal/domain/plan"

// Question is one open context-gathering question.
type Question struct {
	Text string `json:"text"`
}

// ContextSufficiencyResult is AnalyzeContextSufficiency's typed output.
type ContextSufficiencyResult struct {
	Sufficient bool       `json:"sufficient"`
	Questions  []Question `json:"questions"`
}

// ContextSummary is SummarizeContext's typed output.
type ContextSummary struct {
	Task    string `json:"task"`
	Context string `json:"context"`
}

// ScopeQuestion is one dimension-scoped clarifying question.
type ScopeQuestion struct {
	Dimension plan.ScopeDimension `json:"dimension"`
	Text      string              `json:"text"`
}

// DraftScope is GenerateDraftScope's typed output.
type DraftScope struct {
	Scope              plan.Scope `json:"scope"`
	ValidationCriteria []string   `json:"validation_criteria"`
}

// ValidationScopeResult is ValidateScope's typed output.
type ValidationScopeResult struct {
	UpdatedScope plan.Scope `json:"updated_scope"`
	Changes      []string   `json:"changes"`
}

// CriticVerdict is the Critic half of the network-plan Creator/Critic loop.
type CriticVerdict struct {
	Score            int    `json:"score"` // 1-10
	NeedsImprovement bool   `json:"needs_improvement"`
	Feedback         string `json:"feedback"`
}
