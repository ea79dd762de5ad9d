package router

import (
	"context"
	"fmt"

	"taskctl/internal/app/tracker"
	"taskctl/internal/app/workspace"
)

// Specialist handles one user message once the Router has picked a
// category for it. message carries the category-marker prefix the
// specialist may use to disambiguate; implementations stream prose via
// tr.EmitProse and return an error only for a genuine failure (the
// Dispatcher treats a returned error as grounds for fallback).
type Specialist interface {
	Handle(ctx context.Context, ws *workspace.Workspace, message string, tr *tracker.Tracker) error
}

// SpecialistFunc adapts a function to Specialist.
type SpecialistFunc func(ctx context.Context, ws *workspace.Workspace, message string, tr *tracker.Tracker) error

func (f SpecialistFunc) Handle(ctx context.Context, ws *workspace.Workspace, message string, tr *tracker.Tracker) error {
	return f(ctx, ws, message, tr)
}

// Dispatcher wires the five categories to specialist handlers and
// implements the fallback chain: specialist -> GENERAL_CHAT -> error
// chunk.
type Dispatcher struct {
	specialists map[Category]Specialist
	generalChat Specialist
	workspaces  func(projectID string) (*workspace.Workspace, error)
	threshold   float64
}

// NewDispatcher constructs a Dispatcher. generalChat is required (it is
// both a category handler and the universal fallback); specialists may
// omit entries, in which case that category also falls back to
// generalChat directly. It classifies with the package default intent
// threshold; use NewDispatcherWithThreshold to override it.
func NewDispatcher(specialists map[Category]Specialist, generalChat Specialist, workspaces func(projectID string) (*workspace.Workspace, error)) *Dispatcher {
	return NewDispatcherWithThreshold(specialists, generalChat, workspaces, scoreThreshold)
}

// NewDispatcherWithThreshold is NewDispatcher with an explicit intent
// threshold.
func NewDispatcherWithThreshold(specialists map[Category]Specialist, generalChat Specialist, workspaces func(projectID string) (*workspace.Workspace, error), threshold float64) *Dispatcher {
	return &Dispatcher{specialists: specialists, generalChat: generalChat, workspaces: workspaces, threshold: threshold}
}

// Dispatch classifies intent, resolves the workspace, streams a routing
// header, and delegates to the chosen specialist, falling back to
// GENERAL_CHAT (and then to a terminal error chunk) if it errors
// mid-stream.
func (d *Dispatcher) Dispatch(ctx context.Context, projectID, message string, tr *tracker.Tracker) {
	classification := IntentWithThreshold(message, d.threshold)
	RecordRouting(tr, "router", classification)

	ws, err := d.workspaces(projectID)
	if err != nil {
		tr.EmitError(fmt.Sprintf("workspace resolution failed: %v", err))
		return
	}

	specialist, ok := d.specialists[classification.Category]
	if !ok {
		specialist = d.generalChat
	}

	prefixed := fmt.Sprintf("[%s] %s", classification.Category, message)
	if err := specialist.Handle(ctx, ws, prefixed, tr); err != nil {
		tr.RecordActivity(tracker.Activity{
			Agent:       string(classification.Category),
			ActionType:  "handle",
			Description: "specialist failed, falling back to GENERAL_CHAT",
			Success:     false,
			Error:       err.Error(),
		})
		confidence := 1.0
		tr.RecordTransfer(tracker.AgentTransfer{
			From: string(classification.Category), To: string(CategoryGeneralChat),
			Reason: "fallback", Confidence: &confidence,
		})
		if fallbackErr := d.generalChat.Handle(ctx, ws, message, tr); fallbackErr != nil {
			tr.EmitError(fmt.Sprintf("general chat fallback also failed: %v", fallbackErr))
		}
	}
}
