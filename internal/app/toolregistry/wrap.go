package toolregistry

import (
	"context"
	"fmt"
	"time"

	alexerrors "taskctl/internal/shared/errors"
	"taskctl/internal/shared/logging"
)

// approvalExecutor gates dangerous tools behind an Approver. A nil
// Approver means approval is not enforced.
type approvalExecutor struct {
	delegate Executor
	approver Approver
}

func (a *approvalExecutor) Definition() Definition { return a.delegate.Definition() }
func (a *approvalExecutor) Metadata() Metadata     { return a.delegate.Metadata() }

func (a *approvalExecutor) Execute(ctx context.Context, call Call) (*Result, error) {
	meta := a.delegate.Metadata()
	if !meta.Dangerous || a.approver == nil {
		return a.delegate.Execute(ctx, call)
	}
	ok, err := a.approver.Approve(ctx, call, meta)
	if err != nil {
		return &Result{CallID: call.ID, Error: err}, nil
	}
	if !ok {
		return &Result{CallID: call.ID, Error: fmt.Errorf("operation %s rejected", meta.Name)}, nil
	}
	return a.delegate.Execute(ctx, call)
}

// retryExecutor wraps delegate's Execute in the same transient-failure
// retry-with-circuit-breaker idiom the LLM facade uses, so a flaky tool
// (a web fetch, a database query) gets the same resilience treatment as
// an LLM call.
type retryExecutor struct {
	delegate Executor
	breaker  *alexerrors.CircuitBreaker
	cfg      alexerrors.RetryConfig
	logger   logging.Logger
}

func (r *retryExecutor) Definition() Definition { return r.delegate.Definition() }
func (r *retryExecutor) Metadata() Metadata     { return r.delegate.Metadata() }

func (r *retryExecutor) Execute(ctx context.Context, call Call) (*Result, error) {
	return alexerrors.ExecuteFunc(r.breaker, ctx, func(ctx context.Context) (*Result, error) {
		return alexerrors.RetryWithResultAndLog(ctx, r.cfg, func(ctx context.Context) (*Result, error) {
			res, err := r.delegate.Execute(ctx, call)
			if err != nil {
				return res, err
			}
			if res != nil && res.Error != nil && alexerrors.IsTransient(res.Error) {
				return res, res.Error
			}
			return res, nil
		}, r.logger)
	})
}

// idAwareExecutor back-fills CallID on the result when the delegate
// left it unset.
type idAwareExecutor struct {
	delegate Executor
}

func (w *idAwareExecutor) Definition() Definition { return w.delegate.Definition() }
func (w *idAwareExecutor) Metadata() Metadata     { return w.delegate.Metadata() }

func (w *idAwareExecutor) Execute(ctx context.Context, call Call) (*Result, error) {
	result, err := w.delegate.Execute(ctx, call)
	if result != nil && result.CallID == "" {
		result.CallID = call.ID
	}
	return result, err
}

// slaExecutor is the outermost layer, timing the whole wrapped chain
// (approval and retries included).
type slaExecutor struct {
	delegate Executor
	record   SLARecorder
}

func (s *slaExecutor) Definition() Definition { return s.delegate.Definition() }
func (s *slaExecutor) Metadata() Metadata     { return s.delegate.Metadata() }

func (s *slaExecutor) Execute(ctx context.Context, call Call) (*Result, error) {
	start := time.Now()
	result, err := s.delegate.Execute(ctx, call)
	success := err == nil && (result == nil || result.Error == nil)
	s.record(s.delegate.Metadata().Name, time.Since(start), success)
	return result, err
}
