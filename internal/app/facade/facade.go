// Package facade implements a uniform structured-output interface over
// external LLM calls, one method per planning phase. It has no
// knowledge of persistence or HTTP — it is a pure async mapping from
// Task state to typed planning artifacts.
package facade

import (
	"context"
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"taskctl/internal/domain/llm"
	"taskctl/internal/domain/plan"
	alexerrors "taskctl/internal/shared/errors"
	jsonx "taskctl/internal/shared/json"
	"taskctl/internal/shared/logging"
)

// defaultParseRetries is how many additional times a call re-invokes the
// model after a response fails to parse into the expected shape.
const defaultParseRetries = 2

// defaultNetworkPlanMaxIter bounds the Creator/Critic loop when New is
// not given an explicit override.
const defaultNetworkPlanMaxIter = 3

// Facade drives every LLM-backed planning call through one retry +
// circuit-breaker wrapped path.
type Facade struct {
	client            llm.Client
	retry             alexerrors.RetryConfig
	breaker           *alexerrors.CircuitBreaker
	logger            logging.Logger
	parseRetries      int
	networkPlanMaxIter int
}

// Option customizes a Facade at construction.
type Option func(*Facade)

// WithNetworkPlanMaxIter overrides the Creator/Critic loop's iteration
// cap, wired from config.Config.NetworkPlanMaxIter.
func WithNetworkPlanMaxIter(n int) Option {
	return func(f *Facade) {
		if n > 0 {
			f.networkPlanMaxIter = n
		}
	}
}

// New constructs a Facade around client using the façade's default retry
// budget and a circuit breaker named after the model.
func New(client llm.Client, logger logging.Logger, opts ...Option) *Facade {
	f := &Facade{
		client:             client,
		retry:              alexerrors.DefaultRetryConfig(),
		breaker:            alexerrors.NewCircuitBreaker("llm:"+client.Model(), alexerrors.DefaultCircuitBreakerConfig()),
		logger:             logging.OrNop(logger),
		parseRetries:       defaultParseRetries,
		networkPlanMaxIter: defaultNetworkPlanMaxIter,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// callAgent composes a prompt, invokes the model, and parses the result
// into T. Transient HTTP/network failures are retried by
// RetryWithResultAndLog/CircuitBreaker; a response that fails to parse
// triggers a fresh model call (up to parseRetries times) before the whole
// call raises plan.AgentErrorWrap.
func callAgent[T any](ctx context.Context, f *Facade, phase string, messages []llm.Message, schemaDescription string) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= f.parseRetries; attempt++ {
		resp, err := alexerrors.ExecuteFunc(f.breaker, ctx, func(ctx context.Context) (*llm.CompletionResponse, error) {
			return alexerrors.RetryWithResultAndLog(ctx, f.retry, func(ctx context.Context) (*llm.CompletionResponse, error) {
				return f.client.Complete(ctx, llm.CompletionRequest{
					Messages: messages,
					Schema:   schemaDescription,
				})
			}, f.logger)
		})
		if err != nil {
			return zero, plan.AgentErrorWrap(err, fmt.Sprintf("%s: llm call failed", phase))
		}

		result, parseErr := parseResponse[T](resp.Content)
		if parseErr == nil {
			return result, nil
		}
		lastErr = parseErr
		f.logger.Warn("%s: response failed to parse (attempt %d/%d): %v", phase, attempt+1, f.parseRetries+1, parseErr)
	}
	return zero, plan.AgentErrorWrap(lastErr, fmt.Sprintf("%s: could not parse model output after %d attempts", phase, f.parseRetries+1))
}

// parseResponse repairs near-valid JSON (models routinely emit trailing
// commas, unescaped quotes, or missing closing braces) before unmarshalling.
func parseResponse[T any](content string) (T, error) {
	var out T
	if jsonx.Valid([]byte(content)) {
		if err := jsonx.Unmarshal([]byte(content), &out); err == nil {
			return out, nil
		}
	}
	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return out, fmt.Errorf("facade: repair json: %w", err)
	}
	if err := jsonx.Unmarshal([]byte(repaired), &out); err != nil {
		return out, fmt.Errorf("facade: unmarshal repaired json: %w", err)
	}
	return out, nil
}

func systemMessage(header string) llm.Message {
	return llm.Message{Role: "system", Content: header}
}

func userMessage(content string) llm.Message {
	return llm.Message{Role: "user", Content: content}
}

func mustJSON(v any) string {
	data, err := jsonx.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
