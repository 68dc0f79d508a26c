package circulation

import (
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// loanState is what CreateLoan knows about the student and the requested copies inside its transaction.
type loanState struct {
	activeCopies int
	openLoans    []lending.Loan
	copies       []lending.BookCopy
}

// validateInput checks the request itself. It runs before any data is read.
func validateInput(command CreateLoanCommand) error {
	if command.StudentID == 0 || len(command.CopyIDs) == 0 ||
		command.BorrowDate.IsZero() || command.DueDate.IsZero() {
		return lending.ErrMissingLoanInput
	}

	seen := make(map[lending.CopyID]struct{}, len(command.CopyIDs))
	for _, id := range command.CopyIDs {
		if _, ok := seen[id]; ok {
			return lending.ErrDuplicateCopy
		}

		seen[id] = struct{}{}
	}

	return nil
}

// decide applies the lending policy in order. It is a pure function, the first failing rule wins.
func decide(s loanState, command CreateLoanCommand, today time.Time) error {
	if s.activeCopies+len(command.CopyIDs) > lending.MaxActiveCopiesPerStudent {
		return lending.ErrBorrowingCapExceeded
	}

	for _, loan := range s.openLoans {
		if lending.IsOverdue(loan, today) {
			return lending.ErrOverdueLock
		}
	}

	days := lending.DaysBetween(command.BorrowDate, command.DueDate)
	if days > lending.MaxLoanDurationDays {
		return lending.ErrMaxDurationExceeded
	}

	if days < 0 {
		return lending.ErrDueBeforeBorrow
	}

	for _, c := range s.copies {
		if c.Borrowed {
			return lending.ErrBookCopyAlreadyBorrowed
		}
	}

	return nil
}
