package catalog

import (
	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/shell"
)

const (
	operationAddStudent       = "add_student"
	operationFindStudent      = "find_student"
	operationListStudents     = "list_students"
	operationUpdateStudent    = "update_student"
	operationDeleteStudent    = "delete_student"
	operationAddBook          = "add_book"
	operationFindBook         = "find_book"
	operationListBooks        = "list_books"
	operationUpdateBook       = "update_book"
	operationDeleteBook       = "delete_book"
	operationListCopiesOfBook = "list_copies_of_book"
	operationAddBookCopy      = "add_book_copy"
	operationFindBookCopy     = "find_book_copy"
	operationListBookCopies   = "list_book_copies"
	operationUpdateBookCopy   = "update_book_copy"
	operationDeleteBookCopy   = "delete_book_copy"
	operationCopyAvailability = "copy_availability"

	attrStudentID = "student_id"
	attrBookID    = "book_id"
	attrCopyID    = "copy_id"
)

// Service is the catalog of students, books and book copies.
type Service struct {
	runner shell.Runner
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a logger for operation logs.
func WithLogger(logger lending.Logger) Option {
	return func(s *Service) error {
		s.runner.Observers.Logger = logger

		return nil
	}
}

// WithContextualLogger sets a context-aware logger, it takes precedence over WithLogger.
func WithContextualLogger(logger lending.ContextualLogger) Option {
	return func(s *Service) error {
		s.runner.Observers.ContextualLogger = logger

		return nil
	}
}

// WithMetrics sets a metrics collector for operation and retry metrics.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(s *Service) error {
		s.runner.Observers.Metrics = collector

		return nil
	}
}

// WithTracing sets a tracing collector, every operation gets a span.
func WithTracing(collector lending.TracingCollector) Option {
	return func(s *Service) error {
		s.runner.Observers.Tracing = collector

		return nil
	}
}

// WithRetryOptions tunes the retry on concurrency conflicts.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(s *Service) error {
		s.runner.RetryOptions = opts

		return nil
	}
}

// NewService creates a catalog Service on top of repo.
func NewService(repo lending.Repository, options ...Option) (*Service, error) {
	if repo == nil {
		return nil, lending.ErrNilRepository
	}

	s := &Service{runner: shell.Runner{Repo: repo}}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}
