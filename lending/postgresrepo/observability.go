package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	metricTransactionDuration = "lending_repository_transaction_duration_seconds"
	metricDatabaseErrors      = "lending_repository_errors_total"

	spanNameTransaction = "lending.repository.transaction"
	spanNameView        = "lending.repository.view"

	spanAttrOperation  = "operation"
	spanAttrErrorType  = "error_type"
	spanAttrDurationMS = "duration_ms"

	operationTransaction = "transaction"
	operationView        = "view"

	statusSuccess    = "success"
	statusError      = "error"
	statusRolledBack = "rolled_back"

	errorTypeStorage = "storage"
)

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2f", toMilliseconds(d))
}

/*** logging ***/

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (r *Repository) logQueryWithDuration(ctx context.Context, sqlQuery, action string, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	if r.logger != nil {
		r.logger.Debug(logMsgSQLExecuted+action, args...)
	}

	if r.contextualLogger != nil {
		r.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	}
}

func (r *Repository) logInfo(ctx context.Context, msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}

	if r.contextualLogger != nil {
		r.contextualLogger.InfoContext(ctx, msg, args...)
	}
}

func (r *Repository) logWarn(ctx context.Context, msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}

	if r.contextualLogger != nil {
		r.contextualLogger.WarnContext(ctx, msg, args...)
	}
}

func (r *Repository) logDebug(ctx context.Context, msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}

	if r.contextualLogger != nil {
		r.contextualLogger.DebugContext(ctx, msg, args...)
	}
}

// logError logs error information at the error level.
func (r *Repository) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if r.logger != nil {
		r.logger.Error(message, allArgs...)
	}

	if r.contextualLogger != nil {
		r.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// observeRollback logs why a transaction body gave up. Storage failures were already logged where they happened.
func (r *Repository) observeRollback(ctx context.Context, operation string, err error) {
	switch {
	case errors.Is(err, lending.ErrConcurrencyConflict):
		r.logInfo(ctx, logMsgConcurrencyConflict, logAttrOperation, operation)
	case !lending.IsStorage(err):
		r.logDebug(ctx, logMsgTransactionRolledBack, logAttrOperation, operation, logAttrError, err.Error())
	}
}

/*** metrics ***/

// recordErrorMetrics counts a database error, using the context-aware method if available.
func (r *Repository) recordErrorMetrics(ctx context.Context, operation, errorType string) {
	if r.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          statusError,
		spanAttrErrorType: errorType,
	}

	if contextualCollector, ok := r.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
		return
	}

	r.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
}

// recordDurationMetrics records a transaction duration, using the context-aware method if available.
func (r *Repository) recordDurationMetrics(ctx context.Context, duration time.Duration, operation, status string) {
	if r.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          status,
	}

	if contextualCollector, ok := r.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricTransactionDuration, duration, labels)
		return
	}

	r.metricsCollector.RecordDuration(metricTransactionDuration, duration, labels)
}

// transactionMetricsObserver encapsulates the metrics collection for one transaction.
type transactionMetricsObserver struct {
	repo      *Repository
	ctx       context.Context
	operation string
}

func (r *Repository) startTransactionMetrics(ctx context.Context, operation string) *transactionMetricsObserver {
	return &transactionMetricsObserver{repo: r, ctx: ctx, operation: operation}
}

func (o *transactionMetricsObserver) recordSuccess(duration time.Duration) {
	o.repo.recordDurationMetrics(o.ctx, duration, o.operation, statusSuccess)
}

func (o *transactionMetricsObserver) recordError(errorType string, duration time.Duration) {
	o.repo.recordDurationMetrics(o.ctx, duration, o.operation, statusError)
	o.repo.recordErrorMetrics(o.ctx, o.operation, errorType)
}

// recordRollback records a transaction whose body returned an error.
// Only storage failures count as database errors, and those were counted where they happened.
func (o *transactionMetricsObserver) recordRollback(err error, duration time.Duration) {
	if lending.IsStorage(err) {
		o.repo.recordDurationMetrics(o.ctx, duration, o.operation, statusError)
		return
	}

	o.repo.recordDurationMetrics(o.ctx, duration, o.operation, statusRolledBack)
}

/*** tracing ***/

// transactionTracingObserver encapsulates the tracing span lifecycle of one transaction.
type transactionTracingObserver struct {
	repo *Repository
	span lending.SpanContext
}

func (r *Repository) startTransactionTracing(ctx context.Context, operation string) (*transactionTracingObserver, context.Context) {
	observer := &transactionTracingObserver{repo: r}

	if r.tracingCollector == nil {
		return observer, ctx
	}

	name := spanNameTransaction
	if operation == operationView {
		name = spanNameView
	}

	newCtx, span := r.tracingCollector.StartSpan(ctx, name, map[string]string{spanAttrOperation: operation})
	observer.span = span

	return observer, newCtx
}

func (o *transactionTracingObserver) finish(status string, duration time.Duration, attrs map[string]string) {
	if o.span == nil {
		return
	}

	o.span.SetStatus(status)
	o.span.AddAttribute(spanAttrDurationMS, formatDuration(duration))

	for key, value := range attrs {
		o.span.AddAttribute(key, value)
	}

	o.repo.tracingCollector.FinishSpan(o.span, status, attrs)
}

func (o *transactionTracingObserver) finishSuccess(duration time.Duration) {
	o.finish(statusSuccess, duration, nil)
}

func (o *transactionTracingObserver) finishError(errorType string, duration time.Duration) {
	o.finish(statusError, duration, map[string]string{spanAttrErrorType: errorType})
}

func (o *transactionTracingObserver) finishRollback(err error, duration time.Duration) {
	if lending.IsStorage(err) {
		o.finishError(errorTypeOf(err, errorTypeStorage), duration)
		return
	}

	o.finish(statusRolledBack, duration, nil)
}
