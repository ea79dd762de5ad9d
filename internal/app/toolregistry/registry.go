package toolregistry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"taskctl/internal/app/workspace"
	alexerrors "taskctl/internal/shared/errors"
	"taskctl/internal/shared/logging"
)

// Approver decides whether a dangerous tool call may proceed.
type Approver interface {
	Approve(ctx context.Context, call Call, meta Metadata) (bool, error)
}

// SLARecorder observes a completed call's outcome. Optional; nil is a
// valid, no-op recorder (wired to observability's Prometheus histograms
// in the server's dependency graph).
type SLARecorder func(name string, duration time.Duration, success bool)

// Registry implements a three-tier tool lookup: static tools are the
// built-in filesystem set registered at construction, dynamic tools are
// registered at runtime (e.g. per-session specialist tools), mcp tools
// are namespaced "mcp__" externally-sourced tools.
type Registry struct {
	mu      sync.RWMutex
	static  map[string]Executor
	dynamic map[string]Executor
	mcp     map[string]Executor

	approver Approver
	retry    alexerrors.RetryConfig
	breakers map[string]*alexerrors.CircuitBreaker
	sla      SLARecorder
	logger   logging.Logger
}

// New constructs a Registry with the sandboxed filesystem tool set
// registered as static tools.
func New(ws *workspace.Workspace, approver Approver, sla SLARecorder, logger logging.Logger) *Registry {
	r := &Registry{
		static:   make(map[string]Executor),
		dynamic:  make(map[string]Executor),
		mcp:      make(map[string]Executor),
		approver: approver,
		retry:    alexerrors.DefaultRetryConfig(),
		breakers: make(map[string]*alexerrors.CircuitBreaker),
		sla:      sla,
		logger:   logging.OrNop(logger),
	}
	for _, tool := range filesystemTools(ws, r.logger) {
		r.static[tool.Metadata().Name] = r.wrap(tool)
	}
	return r
}

// Register adds a dynamic (or, for an "mcp__"-prefixed name, mcp) tool.
// Attempting to shadow a static tool is an error.
func (r *Registry) Register(tool Executor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := tool.Metadata().Name
	if _, exists := r.static[name]; exists {
		return fmt.Errorf("toolregistry: %s is a built-in tool and cannot be overridden", name)
	}
	wrapped := r.wrap(tool)
	if strings.HasPrefix(name, "mcp__") {
		r.mcp[name] = wrapped
	} else {
		r.dynamic[name] = wrapped
	}
	return nil
}

// Unregister removes a dynamic or mcp tool. Static tools cannot be
// unregistered.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.static[name]; ok {
		return fmt.Errorf("toolregistry: cannot unregister built-in tool %s", name)
	}
	delete(r.dynamic, name)
	delete(r.mcp, name)
	return nil
}

// Get resolves a tool by name across all three tiers, static first.
func (r *Registry) Get(name string) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if tool, ok := r.static[name]; ok {
		return tool, nil
	}
	if tool, ok := r.dynamic[name]; ok {
		return tool, nil
	}
	if tool, ok := r.mcp[name]; ok {
		return tool, nil
	}
	return nil, fmt.Errorf("toolregistry: tool not found: %s", name)
}

// List returns every registered tool's Definition, sorted by name for
// deterministic LLM-facing schema ordering.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.static)+len(r.dynamic)+len(r.mcp))
	for _, m := range []map[string]Executor{r.static, r.dynamic, r.mcp} {
		for _, tool := range m {
			defs = append(defs, tool.Definition())
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Invoke resolves call.Name and executes it through the wrapped chain.
func (r *Registry) Invoke(ctx context.Context, call Call) (*Result, error) {
	tool, err := r.Get(call.Name)
	if err != nil {
		return nil, err
	}
	return tool.Execute(ctx, call)
}

// wrap applies the approval→retry→id-propagation→SLA chain, innermost
// layer first; SLA is outermost and measures total time including
// retries and approval.
func (r *Registry) wrap(tool Executor) Executor {
	base := tool
	approved := &approvalExecutor{delegate: base, approver: r.approver}
	retried := r.newRetryExecutor(approved)
	withID := &idAwareExecutor{delegate: retried}
	if r.sla == nil {
		return withID
	}
	return &slaExecutor{delegate: withID, record: r.sla}
}

func (r *Registry) circuitBreakerFor(name string) *alexerrors.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	b := alexerrors.NewCircuitBreaker("tool-"+name, alexerrors.DefaultCircuitBreakerConfig())
	r.breakers[name] = b
	return b
}

func (r *Registry) newRetryExecutor(delegate Executor) Executor {
	name := delegate.Metadata().Name
	return &retryExecutor{
		delegate: delegate,
		breaker:  r.circuitBreakerFor(name),
		cfg:      r.retry,
		logger:   r.logger,
	}
}
