package shell

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	// OperationDurationMetric tracks service operation duration in seconds.
	OperationDurationMetric = "lending_operation_duration_seconds"

	// OperationCallsMetric counts service operation calls by status.
	OperationCallsMetric = "lending_operation_calls_total"

	// OperationRetriesMetric counts retry attempts after a concurrency conflict.
	//
	// Labels: operation, attempt_number, error_type.
	OperationRetriesMetric = "lending_operation_retries_total"

	// OperationRetryDelayMetric tracks the backoff waited before each retry.
	OperationRetryDelayMetric = "lending_operation_retry_delay_seconds"

	// OperationMaxRetriesReachedMetric counts operations that failed after the last allowed attempt.
	OperationMaxRetriesReachedMetric = "lending_operation_max_retries_reached_total"

	// StatusSuccess indicates the operation completed.
	StatusSuccess = "success"

	// StatusRejected indicates a business rule refused the operation (validation, not found, conflict).
	StatusRejected = "rejected"

	// StatusError indicates a storage or otherwise unexpected failure.
	StatusError = "error"

	// StatusCanceled indicates the context was canceled.
	StatusCanceled = "canceled"

	// StatusTimeout indicates the context deadline was exceeded.
	StatusTimeout = "timeout"

	// StatusConcurrencyConflict indicates retries were exhausted on concurrency conflicts.
	StatusConcurrencyConflict = "concurrency_conflict"

	LogMsgOperationStarted   = "operation started"
	LogMsgOperationCompleted = "operation completed"
	LogMsgOperationRejected  = "operation rejected"
	LogMsgOperationFailed    = "operation failed"
	LogMsgOperationCanceled  = "operation canceled"

	LogAttrOperation   = "operation"
	LogAttrOperationID = "operation_id"
	LogAttrStatus      = "status"
	LogAttrDurationMS  = "duration_ms"
	LogAttrError       = "error"
	LogAttrErrorType   = "error_type"
	LogAttrAttemptNum  = "attempt_number"
	LogAttrAttempts    = "attempts"

	// SpanNamePrefix prefixes the operation name to form the span name, e.g. "lending.create_loan".
	SpanNamePrefix = "lending."
)

// ClassifyOutcome maps an operation error to the status label used in logs, metrics and spans.
func ClassifyOutcome(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, lending.ErrConcurrencyConflict):
		return StatusConcurrencyConflict
	case lending.IsValidation(err), lending.IsNotFound(err), lending.IsConflict(err):
		return StatusRejected
	default:
		return StatusError
	}
}

// Observers bundles the optional observability collaborators of a service. Every field may be nil.
type Observers struct {
	Logger           lending.Logger
	ContextualLogger lending.ContextualLogger
	Metrics          lending.MetricsCollector
	Tracing          lending.TracingCollector
}

// Operation is one observed service call, started with Observers.Start and ended with Finish.
type Operation struct {
	observers Observers
	name      string
	id        string
	start     time.Time
	span      lending.SpanContext
}

// Start opens a span and logs the start of the named operation.
// attrs are key/value pairs added to the span and the start log.
func (o Observers) Start(ctx context.Context, name string, attrs ...string) (context.Context, *Operation) {
	op := &Operation{
		observers: o,
		name:      name,
		id:        uuid.NewString(),
		start:     time.Now(),
	}

	if o.Tracing != nil {
		spanAttrs := map[string]string{LogAttrOperation: name, LogAttrOperationID: op.id}
		for i := 0; i+1 < len(attrs); i += 2 {
			spanAttrs[attrs[i]] = attrs[i+1]
		}

		ctx, op.span = o.Tracing.StartSpan(ctx, SpanNamePrefix+name, spanAttrs)
	}

	args := []any{LogAttrOperation, name, LogAttrOperationID, op.id}
	for _, a := range attrs {
		args = append(args, a)
	}

	o.logDebug(ctx, LogMsgOperationStarted, args...)

	return ctx, op
}

// ID returns the correlation id of the operation.
func (op *Operation) ID() string {
	return op.id
}

// Finish records the outcome of the operation and returns err unchanged.
func (op *Operation) Finish(ctx context.Context, err error, retry RetryMetrics) error {
	duration := time.Since(op.start)
	status := ClassifyOutcome(err)

	op.recordMetrics(ctx, status, duration)
	op.finishSpan(status, duration, retry, err)

	args := []any{
		LogAttrOperation, op.name,
		LogAttrOperationID, op.id,
		LogAttrDurationMS, toMilliseconds(duration),
	}

	if retry.Attempts > 1 {
		args = append(args, LogAttrAttempts, retry.Attempts)
	}

	if err != nil {
		args = append(args, LogAttrError, err.Error())
	}

	switch status {
	case StatusSuccess:
		op.observers.logInfo(ctx, LogMsgOperationCompleted, args...)
	case StatusRejected:
		op.observers.logInfo(ctx, LogMsgOperationRejected, args...)
	case StatusCanceled, StatusTimeout:
		op.observers.logWarn(ctx, LogMsgOperationCanceled, args...)
	default:
		op.observers.logError(ctx, LogMsgOperationFailed, append(args, LogAttrStatus, status)...)
	}

	return err
}

func (op *Operation) recordMetrics(ctx context.Context, status string, duration time.Duration) {
	collector := op.observers.Metrics
	if collector == nil {
		return
	}

	labels := map[string]string{LogAttrOperation: op.name, LogAttrStatus: status}

	if contextual, ok := collector.(lending.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, OperationDurationMetric, duration, labels)
		contextual.IncrementCounterContext(ctx, OperationCallsMetric, labels)

		return
	}

	collector.RecordDuration(OperationDurationMetric, duration, labels)
	collector.IncrementCounter(OperationCallsMetric, labels)
}

func (op *Operation) finishSpan(status string, duration time.Duration, retry RetryMetrics, err error) {
	if op.observers.Tracing == nil || op.span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: fmt.Sprintf("%.2f", toMilliseconds(duration)),
	}

	if retry.Attempts > 0 {
		attrs[LogAttrAttempts] = fmt.Sprintf("%d", retry.Attempts)
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	op.observers.Tracing.FinishSpan(op.span, status, attrs)
}

// Logging prefers the contextual logger, so trace ids end up in the records.

func (o Observers) logDebug(ctx context.Context, msg string, args ...any) {
	if o.ContextualLogger != nil {
		o.ContextualLogger.DebugContext(ctx, msg, args...)
	} else if o.Logger != nil {
		o.Logger.Debug(msg, args...)
	}
}

func (o Observers) logInfo(ctx context.Context, msg string, args ...any) {
	if o.ContextualLogger != nil {
		o.ContextualLogger.InfoContext(ctx, msg, args...)
	} else if o.Logger != nil {
		o.Logger.Info(msg, args...)
	}
}

func (o Observers) logWarn(ctx context.Context, msg string, args ...any) {
	if o.ContextualLogger != nil {
		o.ContextualLogger.WarnContext(ctx, msg, args...)
	} else if o.Logger != nil {
		o.Logger.Warn(msg, args...)
	}
}

func (o Observers) logError(ctx context.Context, msg string, args ...any) {
	if o.ContextualLogger != nil {
		o.ContextualLogger.ErrorContext(ctx, msg, args...)
	} else if o.Logger != nil {
		o.Logger.Error(msg, args...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
