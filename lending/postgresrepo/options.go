package postgresrepo

import (
	"errors"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresrepo/internal/adapters"
)

// IsolationLevel selects the isolation level of read-write transactions.
type IsolationLevel = adapters.IsolationLevel

const (
	// IsolationSerializable is the default isolation level of read-write transactions.
	IsolationSerializable = adapters.Serializable

	// IsolationRepeatableRead is the weakest isolation level the repository accepts.
	IsolationRepeatableRead = adapters.RepeatableRead
)

// ErrUnsupportedIsolationLevel is returned when WithIsolationLevel gets a level below REPEATABLE READ.
var ErrUnsupportedIsolationLevel = errors.New("unsupported isolation level, must be serializable or repeatable read")

// Option defines a functional option for configuring Repository.
type Option func(*Repository) error

// WithIsolationLevel sets the isolation level of read-write transactions.
func WithIsolationLevel(level IsolationLevel) Option {
	return func(r *Repository) error {
		if level != IsolationSerializable && level != IsolationRepeatableRead {
			return ErrUnsupportedIsolationLevel
		}

		r.isolation = level

		return nil
	}
}

// WithLogger sets the logger for the Repository.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: concurrency conflicts (production-safe)
// Error level: database failures that cause operation failures.
func WithLogger(logger lending.Logger) Option {
	return func(r *Repository) error {
		r.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Repository.
// It receives the same messages as the Logger, with the context of the call for trace correlation.
func WithContextualLogger(logger lending.ContextualLogger) Option {
	return func(r *Repository) error {
		r.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Repository.
// It receives transaction durations and database error counts.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(r *Repository) error {
		r.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Repository.
// One span is created per transaction.
func WithTracing(collector lending.TracingCollector) Option {
	return func(r *Repository) error {
		r.tracingCollector = collector
		return nil
	}
}
