// Package llm defines the LLMClient port the rest of the orchestration
// substrate programs against. The concrete provider is out of scope for
// this package: it only specifies the contract, split between
// message/completion shapes and the client interface.
package llm

import "context"

// Message is one turn of the conversation sent to the model.
type Message struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

// TokenUsage reports token consumption for a completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionRequest is one structured-output call to the model.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Schema      any       `json:"schema,omitempty"` // JSON-schema describing the expected output shape
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// CompletionResponse is the model's raw reply. Content is expected to be
// (possibly near-valid) JSON matching Schema when Schema was set.
type CompletionResponse struct {
	Content    string     `json:"content"`
	StopReason string     `json:"stop_reason"`
	Usage      TokenUsage `json:"usage"`
}

// Client is the port every façade call goes through. The concrete
// provider (OpenAI, Anthropic, a local model) is an external
// collaborator this package never references directly.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Model() string
}
