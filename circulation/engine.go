package circulation

import (
	"errors"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/shell"
)

const (
	operationCreateLoan      = "create_loan"
	operationReturnLoan      = "return_loan"
	operationDeleteLoan      = "delete_loan"
	operationGenerateReceipt = "generate_receipt"
	operationFindLoan        = "find_loan"
	operationListLoans       = "list_loans"
	operationOverdueLoans    = "overdue_loans"
)

// ErrNilClock is returned when WithClock is given a nil function.
var ErrNilClock = errors.New("clock must not be nil")

// Engine is the lending policy engine. It is safe for concurrent use when the repository is.
type Engine struct {
	runner shell.Runner
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine) error

// WithClock replaces time.Now, which decides what "today" is for overdue checks and default return dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) error {
		if now == nil {
			return ErrNilClock
		}

		e.now = now

		return nil
	}
}

// WithLogger sets a logger for operation logs.
func WithLogger(logger lending.Logger) Option {
	return func(e *Engine) error {
		e.runner.Observers.Logger = logger

		return nil
	}
}

// WithContextualLogger sets a context-aware logger, it takes precedence over WithLogger.
func WithContextualLogger(logger lending.ContextualLogger) Option {
	return func(e *Engine) error {
		e.runner.Observers.ContextualLogger = logger

		return nil
	}
}

// WithMetrics sets a metrics collector for operation and retry metrics.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(e *Engine) error {
		e.runner.Observers.Metrics = collector

		return nil
	}
}

// WithTracing sets a tracing collector, every operation gets a span.
func WithTracing(collector lending.TracingCollector) Option {
	return func(e *Engine) error {
		e.runner.Observers.Tracing = collector

		return nil
	}
}

// WithRetryOptions tunes the retry on concurrency conflicts.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(e *Engine) error {
		e.runner.RetryOptions = opts

		return nil
	}
}

// NewEngine creates an Engine on top of repo.
func NewEngine(repo lending.Repository, options ...Option) (*Engine, error) {
	if repo == nil {
		return nil, lending.ErrNilRepository
	}

	e := &Engine{runner: shell.Runner{Repo: repo}, now: time.Now}

	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// today returns the engine clock's calendar day.
func (e *Engine) today() time.Time {
	return lending.ToDate(e.now())
}
