// Package specialists implements the per-category Router specialists:
// the concrete handlers NewDispatcher wires behind GENERAL_CHAT and
// CODE_DEVELOPMENT. Each handler runs a single model call, optionally
// followed by one tool invocation, rather than a multi-iteration
// classify-act loop.
package specialists

import (
	"context"
	"encoding/json"

	"taskctl/internal/app/router"
	"taskctl/internal/app/toolregistry"
	"taskctl/internal/app/tracker"
	"taskctl/internal/app/workspace"
	"taskctl/internal/domain/llm"
	"taskctl/internal/shared/logging"
)

const generalChatSystemPrompt = "You are a helpful orchestration assistant. Answer the user's message directly and concisely."

// GeneralChat answers a message with a single model call, streaming the
// full reply as one prose chunk. It is also the Dispatcher's universal
// fallback.
func GeneralChat(client llm.Client, logger logging.Logger) router.Specialist {
	logger = logging.OrNop(logger)
	return router.SpecialistFunc(func(ctx context.Context, _ *workspace.Workspace, message string, tr *tracker.Tracker) error {
		resp, err := client.Complete(ctx, llm.CompletionRequest{
			Messages: []llm.Message{
				{Role: "system", Content: generalChatSystemPrompt},
				{Role: "user", Content: message},
			},
		})
		if err != nil {
			return err
		}
		tr.EmitProse(resp.Content)
		return nil
	})
}

const codeDevSystemPrompt = `You help with code and file tasks inside a sandboxed project workspace.
If the request requires inspecting or changing a file, respond with JSON only:
{"tool": "<tool_name>", "arguments": {...}}
using one of the registered filesystem tools. Otherwise respond with JSON:
{"message": "<your answer>"}`

type codeDevDecision struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
	Message   string         `json:"message"`
}

// CodeDevelopment handles CODE_DEVELOPMENT messages: it asks the model to
// either answer directly or name one filesystem tool to run, executes
// that tool through the project's Tool Registry, and streams the
// outcome.
func CodeDevelopment(client llm.Client, registry func(ws *workspace.Workspace) *toolregistry.Registry, logger logging.Logger) router.Specialist {
	logger = logging.OrNop(logger)
	return router.SpecialistFunc(func(ctx context.Context, ws *workspace.Workspace, message string, tr *tracker.Tracker) error {
		resp, err := client.Complete(ctx, llm.CompletionRequest{
			Messages: []llm.Message{
				{Role: "system", Content: codeDevSystemPrompt},
				{Role: "user", Content: message},
			},
		})
		if err != nil {
			return err
		}

		var decision codeDevDecision
		if jsonErr := json.Unmarshal([]byte(resp.Content), &decision); jsonErr != nil || decision.Tool == "" {
			tr.EmitProse(resp.Content)
			return nil
		}

		tools := registry(ws)
		result, err := tools.Invoke(ctx, toolregistry.Call{
			Name:      decision.Tool,
			Arguments: decision.Arguments,
		})
		if err != nil {
			return err
		}
		if result.Error != nil {
			tr.EmitProse("tool " + decision.Tool + " failed: " + result.Error.Error())
			return nil
		}
		tr.EmitProse(result.Content)
		return nil
	})
}
