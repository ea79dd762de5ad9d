// Package plan implements the hierarchical task model: Task → Stage →
// Work → ExecutableTask → Subtask, its ID invariants, its lifecycle state
// machine, and the traversal/update helpers that operate on it. The
// package has no knowledge of persistence, HTTP, or LLM calls — it is the
// pure domain layer every other component builds on.
package plan

import "time"

// Status is the Task lifecycle state.
type Status string

const (
	StatusNew                  Status = "NEW"
	StatusContextGathering     Status = "CONTEXT_GATHERING"
	StatusContextGathered      Status = "CONTEXT_GATHERED"
	StatusTaskFormation        Status = "TASK_FORMATION"
	StatusIFRGenerated         Status = "IFR_GENERATED"
	StatusRequirementsDefined  Status = "REQUIREMENTS_DEFINED"
	StatusNetworkPlanGenerated Status = "NETWORK_PLAN_GENERATED"
	StatusExecuting            Status = "EXECUTING"
	StatusCompleted            Status = "COMPLETED"
	StatusFailed               Status = "FAILED"
)

// SubtaskStatus is the per-subtask execution status.
type SubtaskStatus string

const (
	SubtaskPending             SubtaskStatus = "PENDING"
	SubtaskInProgress          SubtaskStatus = "IN_PROGRESS"
	SubtaskCompleted           SubtaskStatus = "COMPLETED"
	SubtaskFailed              SubtaskStatus = "FAILED"
	SubtaskCancelled           SubtaskStatus = "CANCELLED"
	SubtaskBlocked             SubtaskStatus = "BLOCKED"
	SubtaskReadyForValidation  SubtaskStatus = "READY_FOR_VALIDATION"
)

// ExecutorType names who performs a Subtask.
type ExecutorType string

const (
	ExecutorAIAgent ExecutorType = "AI_AGENT"
	ExecutorRobot   ExecutorType = "ROBOT"
	ExecutorHuman   ExecutorType = "HUMAN"
)

// Artifact is a concrete deliverable referenced by name+location across
// planning steps.
type Artifact struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // document | software | physical | data | ...
	Description string `json:"description"`
	Location    string `json:"location"`
}

// ContextAnswer is one question/answer pair gathered during context
// gathering; Answer is empty while the question is still open.
type ContextAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ScopeDimension is one of the six canonical scope dimensions.
type ScopeDimension string

const (
	DimensionWhat  ScopeDimension = "what"
	DimensionWhy   ScopeDimension = "why"
	DimensionWho   ScopeDimension = "who"
	DimensionWhere ScopeDimension = "where"
	DimensionWhen  ScopeDimension = "when"
	DimensionHow   ScopeDimension = "how"
)

// CanonicalDimensionOrder is the fixed formulation order scope dimensions
// are asked in.
var CanonicalDimensionOrder = []ScopeDimension{
	DimensionWhat, DimensionWhy, DimensionWho, DimensionWhere, DimensionWhen, DimensionHow,
}

// ScopeDraftStatus tracks per-dimension lock state.
type ScopeDraftStatus string

const (
	ScopeDimensionOpen   ScopeDraftStatus = "open"
	ScopeDimensionLocked ScopeDraftStatus = "locked"
)

// Scope holds the six-dimension task scope plus its draft/approval state.
type Scope struct {
	What   string `json:"what"`
	Why    string `json:"why"`
	Who    string `json:"who"`
	Where  string `json:"where"`
	When   string `json:"when"`
	How    string `json:"how"`
	Draft  string `json:"draft"`
	Status string `json:"status"` // draft | approved

	DimensionStatus map[ScopeDimension]ScopeDraftStatus `json:"dimension_status,omitempty"`
}

// IFR is the Ideal Final Result: a structured articulation of "done".
type IFR struct {
	Statement          string   `json:"statement"`
	SuccessCriteria    []string `json:"success_criteria"`
	ExpectedOutcomes   []string `json:"expected_outcomes"`
	QualityMetrics     []string `json:"quality_metrics"`
	ValidationChecklist []string `json:"validation_checklist"`
}

// Requirements holds the task's requirements/constraints/etc.
type Requirements struct {
	Requirements []string `json:"requirements"`
	Constraints  []string `json:"constraints"`
	Limitations  []string `json:"limitations"`
	Resources    []string `json:"resources"`
	Tools        []string `json:"tools"`
	Definitions  map[string]string `json:"definitions,omitempty"`
}

// Node is the field set common to every hierarchy level.
type Node struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Subtask is the leaf level of the hierarchy.
type Subtask struct {
	Node
	ExecutorType ExecutorType  `json:"executor_type"`
	SequenceOrder int          `json:"sequence_order"`
	Status        SubtaskStatus `json:"status"`
	Result        string        `json:"result,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	RetryAttempt  int           `json:"retry_attempt"`
}

// ExecutableTask is the third hierarchy level.
type ExecutableTask struct {
	Node
	RequiredInputs     []Artifact `json:"required_inputs"`
	GeneratedArtifacts []Artifact `json:"generated_artifacts"`
	ValidationCriteria []string   `json:"validation_criteria"`
	SequenceOrder      int        `json:"sequence_order"`
	Dependencies       []string   `json:"dependencies"`
	Subtasks           []*Subtask `json:"subtasks"`
}

// Work is the second hierarchy level.
type Work struct {
	Node
	RequiredInputs     []Artifact        `json:"required_inputs"`
	ExpectedOutcome    string            `json:"expected_outcome"`
	GeneratedArtifacts []Artifact        `json:"generated_artifacts"`
	ValidationCriteria []string          `json:"validation_criteria"`
	SequenceOrder      int               `json:"sequence_order"`
	Dependencies       []string          `json:"dependencies"`
	Tasks              []*ExecutableTask `json:"tasks"`
}

// Stage is the top hierarchy level below Task.
type Stage struct {
	Node
	Result                []string `json:"result"`
	WhatShouldBeDelivered []Artifact `json:"what_should_be_delivered"`
	Checkpoints           []string `json:"checkpoints"`
	SequenceOrder         int      `json:"sequence_order"`
	Dependencies          []string `json:"dependencies"`
	WorkPackages          []*Work  `json:"work_packages"`
}

// NetworkPlan is the ordered set of Stages plus their dependency edges.
type NetworkPlan struct {
	Stages []*Stage `json:"stages"`
}

// Task is the top-level aggregate: the single owned unit the Task Store
// persists.
type Task struct {
	Node
	ProjectID string `json:"project_id"`
	State     Status `json:"state"`

	ShortDescription string          `json:"short_description"`
	TaskText         string          `json:"task"`
	Context          string          `json:"context"`
	ContextAnswers   []ContextAnswer `json:"context_answers"`

	Scope        Scope        `json:"scope"`
	IFR          *IFR         `json:"ifr,omitempty"`
	Requirements *Requirements `json:"requirements,omitempty"`
	NetworkPlan  *NetworkPlan `json:"network_plan,omitempty"`
}

// NewTask constructs a fresh Task in state NEW for a project+query.
func NewTask(id, projectID, query string, now time.Time) *Task {
	return &Task{
		Node: Node{
			ID:          id,
			Name:        query,
			Description: query,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		ProjectID: projectID,
		State:     StatusNew,
		TaskText:  query,
		Scope: Scope{
			Status:          "draft",
			DimensionStatus: map[ScopeDimension]ScopeDraftStatus{},
		},
	}
}
