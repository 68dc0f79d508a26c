package lending

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the services wraps exactly one of them,
// so callers can branch with errors.Is without knowing the specific rule that failed.
var (
	// ErrValidation marks bad or missing input and lending policy violations.
	// It is always reported before anything is written.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced student, book, copy, or loan that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks an operation that is blocked by existing state, e.g. a deletion guard.
	ErrConflict = errors.New("conflict")

	// ErrStorage marks a failure of the underlying store. The services never interpret it.
	ErrStorage = errors.New("storage failure")

	// ErrConcurrencyConflict marks a transaction that lost against a concurrent one and can be retried.
	ErrConcurrencyConflict = fmt.Errorf("%w: concurrent transaction conflict", ErrStorage)

	// ErrNilRepository is returned when a service is constructed without a repository.
	ErrNilRepository = errors.New("repository must not be nil")
)

// Validation errors.
var (
	ErrMissingLoanInput = fmt.Errorf("%w: a loan needs a student, at least one book copy, a borrow date and a due date", ErrValidation)
	ErrDuplicateCopy    = fmt.Errorf("%w: the same book copy was requested more than once", ErrValidation)

	ErrBorrowingCapExceeded = fmt.Errorf(
		"%w: student cannot borrow more than %d book copies at a time", ErrValidation, MaxActiveCopiesPerStudent,
	)

	ErrOverdueLock = fmt.Errorf("%w: student has overdue items and cannot borrow more", ErrValidation)

	ErrMaxDurationExceeded = fmt.Errorf(
		"%w: loan duration cannot exceed %d days", ErrValidation, MaxLoanDurationDays,
	)

	ErrDueBeforeBorrow = fmt.Errorf("%w: due date lies before borrow date", ErrValidation)

	ErrInvalidStudent  = fmt.Errorf("%w: student needs a positive id and a name", ErrValidation)
	ErrInvalidBook     = fmt.Errorf("%w: book needs a title and a positive page count", ErrValidation)
	ErrInvalidBookCopy = fmt.Errorf("%w: book copy needs an owning book and a barcode", ErrValidation)
)

// Not found errors.
var (
	ErrStudentNotFound  = fmt.Errorf("%w: student", ErrNotFound)
	ErrBookNotFound     = fmt.Errorf("%w: book", ErrNotFound)
	ErrBookCopyNotFound = fmt.Errorf("%w: book copy", ErrNotFound)
	ErrLoanNotFound     = fmt.Errorf("%w: loan", ErrNotFound)
)

// Conflict errors.
var (
	ErrBookCopyAlreadyBorrowed = fmt.Errorf("%w: book copy is already borrowed", ErrConflict)
	ErrStudentAlreadyExists    = fmt.Errorf("%w: a student with this id already exists", ErrConflict)
	ErrDuplicateBarcode        = fmt.Errorf("%w: barcode is already in use", ErrConflict)
	ErrStudentHasLoans         = fmt.Errorf("%w: cannot delete student, existing loans found", ErrConflict)
	ErrBookHasBorrowedCopies   = fmt.Errorf("%w: cannot delete book, copies still on loan", ErrConflict)
	ErrBookCopyBorrowed        = fmt.Errorf("%w: cannot delete book copy, it is currently borrowed", ErrConflict)
	ErrBookCopyHasLoanHistory  = fmt.Errorf("%w: cannot delete book copy, it has loan history", ErrConflict)
)

// NotFoundf decorates a not found sentinel with the id that was looked up.
func NotFoundf(sentinel error, id int64) error {
	return fmt.Errorf("%w (id %d)", sentinel, id)
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound reports whether err is a not found failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is a conflict failure.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsStorage reports whether err is a storage failure.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
