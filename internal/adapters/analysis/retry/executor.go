package retry

import (
	"context"
	"time"

	"insight/internal/domain/analysis"
	"insight/internal/metrics"
	"insight/pkg/errors"
	"insight/pkg/logger"
)

// Dispatcher sends one batch of units to a provider.
//
// Dispatch maps provider batch positions back to unit ordinals before
// returning, so the executor only ever sees call ordinals.
type Dispatcher interface {
	Dispatch(ctx context.Context, units []analysis.Unit) (*analysis.BatchOutcome, error)

	// SupportsPartialFailureSignal reports whether the provider can mark
	// individual units as failed within an otherwise successful response.
	SupportsPartialFailureSignal() bool
}

// State is the executor's position in a call
type State string

const (
	StateDispatched     State = "dispatched"
	StatePartialFailure State = "partial_failure"
	StateRetried        State = "retried"
	StateComplete       State = "complete"
)

const (
	attemptInitial = "initial"
	attemptRetry   = "retry"
)

// Result is the outcome of a call. Records keep provider return order with
// retry results appended. Dropped lists ordinals that failed both dispatches;
// they are never reported as an error.
type Result struct {
	Records []analysis.Record
	Dropped []int
	Retried bool
	State   State
}

// Config contains executor configuration
type Config struct {
	Provider   string
	Capability analysis.Capability

	// RetryDelay is waited before the retry dispatch. Zero retries immediately.
	RetryDelay time.Duration
}

// Executor runs a dispatch with at most one retry of the failed units.
type Executor struct {
	config Config
	log    *logger.Logger
}

// New creates a new executor
func New(config Config, log *logger.Logger) *Executor {
	if config.RetryDelay < 0 {
		config.RetryDelay = 0
	}
	return &Executor{
		config: config,
		log: log.With(
			"component", "retry_executor",
			"provider", config.Provider,
			"capability", config.Capability.String(),
		),
	}
}

// Execute dispatches units once, resubmits the failed subset once when the
// dispatcher supports partial failure, and silently drops what fails again.
// Empty input returns an empty result without dispatching.
func (e *Executor) Execute(ctx context.Context, d Dispatcher, units []analysis.Unit) (*Result, error) {
	result := &Result{
		Records: []analysis.Record{},
		Dropped: []int{},
		State:   StateComplete,
	}
	if len(units) == 0 {
		return result, nil
	}

	result.State = StateDispatched
	first, err := e.dispatch(ctx, d, units, attemptInitial)
	if err != nil {
		return nil, err
	}
	result.Records = appendRecords(result.Records, first.Succeeded)

	failed := pending(units, first.Failed)
	if len(failed) == 0 {
		result.State = StateComplete
		return result, nil
	}

	if !d.SupportsPartialFailureSignal() {
		e.log.Warnw("Provider reported failures without a partial failure signal, dropping",
			"dropped", len(failed),
		)
		result.Dropped = analysis.Ordinals(failed)
		metrics.RecordDropped(e.config.Provider, e.config.Capability.String(), len(failed))
		result.State = StateComplete
		return result, nil
	}

	result.State = StatePartialFailure
	metrics.RecordRetry(e.config.Provider, e.config.Capability.String())
	e.log.Infow("Retrying failed units",
		"failed", len(failed),
		"total", len(units),
	)

	if e.config.RetryDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, errors.NewTransportError("retry", 0, errors.Wrapf(ctx.Err(), "retry cancelled, %d units unresolved", len(failed)))
		case <-time.After(e.config.RetryDelay):
		}
	}

	second, err := e.dispatch(ctx, d, failed, attemptRetry)
	if err != nil {
		return nil, errors.Wrapf(err, "retry dispatch failed, %d units unresolved", len(failed))
	}
	result.Retried = true
	result.State = StateRetried
	result.Records = appendRecords(result.Records, second.Succeeded)

	dropped := pending(failed, second.Failed)
	if len(dropped) > 0 {
		result.Dropped = analysis.Ordinals(dropped)
		metrics.RecordDropped(e.config.Provider, e.config.Capability.String(), len(dropped))
		e.log.Warnw("Units failed after retry, dropping",
			"dropped", result.Dropped,
		)
	}

	result.State = StateComplete
	return result, nil
}

func (e *Executor) dispatch(ctx context.Context, d Dispatcher, units []analysis.Unit, attempt string) (*analysis.BatchOutcome, error) {
	start := time.Now()
	outcome, err := d.Dispatch(ctx, units)
	latency := time.Since(start)

	failed := 0
	if outcome != nil {
		failed = len(outcome.Failed)
	}
	metrics.RecordDispatch(e.config.Provider, e.config.Capability.String(), attempt, latency, failed, err)

	if err != nil {
		e.log.Errorw("Dispatch failed",
			"attempt", attempt,
			"units", len(units),
			"error", err,
		)
		return nil, err
	}
	if outcome == nil {
		outcome = &analysis.BatchOutcome{}
	}

	e.log.Debugw("Dispatch complete",
		"attempt", attempt,
		"units", len(units),
		"succeeded", len(outcome.Succeeded),
		"failed", failed,
		"latency", latency,
	)
	return outcome, nil
}

// pending returns the units whose ordinals appear in failed, in their
// original relative order. Ordinals not in units and duplicates are ignored.
func pending(units []analysis.Unit, failed []int) []analysis.Unit {
	if len(failed) == 0 {
		return nil
	}
	marked := make(map[int]struct{}, len(failed))
	for _, ordinal := range failed {
		marked[ordinal] = struct{}{}
	}

	out := make([]analysis.Unit, 0, len(failed))
	for _, u := range units {
		if _, ok := marked[u.Ordinal]; ok {
			out = append(out, u)
		}
	}
	return out
}

func appendRecords(records []analysis.Record, items []analysis.Item) []analysis.Record {
	for _, item := range items {
		records = append(records, item.Record)
	}
	return records
}
