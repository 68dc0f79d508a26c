package lending

import (
	"context"
	"time"
)

// Repository is the persistent store behind the lending services.
// It hands out units of work; it never applies lending policy itself.
type Repository interface {
	// RunInTransaction executes fn inside a single all-or-nothing transaction.
	// If fn returns an error (or panics), every change made through tx is discarded and the error is returned.
	// Reads made through tx observe the transaction's own writes and are isolated from concurrent writers
	// at least at the level of "repeatable read".
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// View executes fn against a consistent, read-only snapshot. It never observes partial writes.
	View(ctx context.Context, fn func(ctx context.Context, tx ReadTx) error) error
}

// ReadTx contains the queries available inside a View or a transaction.
// Finders report absence with ok == false, not with an error.
type ReadTx interface {
	FindStudent(ctx context.Context, id StudentID) (student Student, ok bool, err error)
	ListStudents(ctx context.Context) ([]Student, error)

	FindBook(ctx context.Context, id BookID) (book Book, ok bool, err error)
	ListBooks(ctx context.Context) ([]Book, error)

	FindBookCopy(ctx context.Context, id CopyID) (copy BookCopy, ok bool, err error)
	FindBookCopyByBarcode(ctx context.Context, barcode string) (copy BookCopy, ok bool, err error)
	FindCopiesOfBook(ctx context.Context, bookID BookID) ([]BookCopy, error)
	ListBookCopies(ctx context.Context) ([]BookCopy, error)

	// FindLoan returns the loan with its student and copies hydrated.
	FindLoan(ctx context.Context, id LoanID) (loan Loan, ok bool, err error)
	ListLoans(ctx context.Context) ([]Loan, error)

	// FindOpenLoansForStudent returns the student's loans without a return date.
	FindOpenLoansForStudent(ctx context.Context, studentID StudentID) ([]Loan, error)

	// CountActiveCopiesForStudent counts the copies attached to the student's open loans.
	CountActiveCopiesForStudent(ctx context.Context, studentID StudentID) (int, error)

	// CountLoansForStudent counts all loans of the student, open or returned.
	CountLoansForStudent(ctx context.Context, studentID StudentID) (int, error)

	// CountLoansForCopy counts all loans the copy ever belonged to, open or returned.
	CountLoansForCopy(ctx context.Context, copyID CopyID) (int, error)

	// FindOpenLoanForCopy returns the open loan holding the copy, if any.
	FindOpenLoanForCopy(ctx context.Context, copyID CopyID) (loan Loan, ok bool, err error)

	// FindOverdueLoans returns open loans with a due date strictly before the calendar day of asOf.
	FindOverdueLoans(ctx context.Context, asOf time.Time) ([]Loan, error)
}

// Tx is a read-write unit of work.
type Tx interface {
	ReadTx

	// LockStudent reads the student and holds a write lock on it until the transaction ends.
	// Concurrent loan decisions for the same student are serialized through this lock.
	LockStudent(ctx context.Context, id StudentID) (student Student, ok bool, err error)

	// SaveStudent inserts or updates the student under its externally assigned id.
	SaveStudent(ctx context.Context, student Student) (Student, error)
	DeleteStudentRecord(ctx context.Context, id StudentID) error

	// SaveBook inserts the book if its ID is zero, otherwise it updates it.
	SaveBook(ctx context.Context, book Book) (Book, error)
	DeleteBookRecord(ctx context.Context, id BookID) error

	// SaveBookCopy inserts the copy if its ID is zero, otherwise it updates it, including the borrowed flag.
	SaveBookCopy(ctx context.Context, copy BookCopy) (BookCopy, error)

	// DeleteBookCopyRecord removes the copy and its membership in any loan.
	DeleteBookCopyRecord(ctx context.Context, id CopyID) error

	// SaveLoan inserts the loan with its copy set if its ID is zero.
	// For an existing loan only the return date is written.
	SaveLoan(ctx context.Context, loan Loan) (Loan, error)
	DeleteLoanRecord(ctx context.Context, id LoanID) error
}
