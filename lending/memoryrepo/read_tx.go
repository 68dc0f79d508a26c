package memoryrepo

import (
	"context"
	"sort"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

type readTx struct {
	state memoryState
}

func (tx *readTx) FindStudent(_ context.Context, id lending.StudentID) (lending.Student, bool, error) {
	s, ok := tx.state.students[id]
	return s, ok, nil
}

func (tx *readTx) ListStudents(_ context.Context) ([]lending.Student, error) {
	out := make([]lending.Student, 0, len(tx.state.students))
	for _, id := range sortedKeys(tx.state.students) {
		out = append(out, tx.state.students[id])
	}

	return out, nil
}

func (tx *readTx) FindBook(_ context.Context, id lending.BookID) (lending.Book, bool, error) {
	b, ok := tx.state.books[id]
	return b, ok, nil
}

func (tx *readTx) ListBooks(_ context.Context) ([]lending.Book, error) {
	out := make([]lending.Book, 0, len(tx.state.books))
	for _, id := range sortedKeys(tx.state.books) {
		out = append(out, tx.state.books[id])
	}

	return out, nil
}

func (tx *readTx) FindBookCopy(_ context.Context, id lending.CopyID) (lending.BookCopy, bool, error) {
	c, ok := tx.state.copies[id]
	return c, ok, nil
}

func (tx *readTx) FindBookCopyByBarcode(_ context.Context, barcode string) (lending.BookCopy, bool, error) {
	for _, c := range tx.state.copies {
		if c.Barcode == barcode {
			return c, true, nil
		}
	}

	return lending.BookCopy{}, false, nil
}

func (tx *readTx) FindCopiesOfBook(_ context.Context, bookID lending.BookID) ([]lending.BookCopy, error) {
	out := make([]lending.BookCopy, 0)
	for _, id := range sortedKeys(tx.state.copies) {
		if c := tx.state.copies[id]; c.BookID == bookID {
			out = append(out, c)
		}
	}

	return out, nil
}

func (tx *readTx) ListBookCopies(_ context.Context) ([]lending.BookCopy, error) {
	out := make([]lending.BookCopy, 0, len(tx.state.copies))
	for _, id := range sortedKeys(tx.state.copies) {
		out = append(out, tx.state.copies[id])
	}

	return out, nil
}

func (tx *readTx) FindLoan(_ context.Context, id lending.LoanID) (lending.Loan, bool, error) {
	r, ok := tx.state.loans[id]
	if !ok {
		return lending.Loan{}, false, nil
	}

	return tx.state.hydrate(r), true, nil
}

func (tx *readTx) ListLoans(_ context.Context) ([]lending.Loan, error) {
	return tx.hydrateAll(func(loanRecord) bool { return true }), nil
}

func (tx *readTx) FindOpenLoansForStudent(_ context.Context, studentID lending.StudentID) ([]lending.Loan, error) {
	return tx.hydrateAll(func(r loanRecord) bool {
		return r.StudentID == studentID && r.open()
	}), nil
}

func (tx *readTx) CountActiveCopiesForStudent(_ context.Context, studentID lending.StudentID) (int, error) {
	count := 0
	for _, r := range tx.state.loans {
		if r.StudentID == studentID && r.open() {
			count += len(r.CopyIDs)
		}
	}

	return count, nil
}

func (tx *readTx) CountLoansForStudent(_ context.Context, studentID lending.StudentID) (int, error) {
	count := 0
	for _, r := range tx.state.loans {
		if r.StudentID == studentID {
			count++
		}
	}

	return count, nil
}

func (tx *readTx) CountLoansForCopy(_ context.Context, copyID lending.CopyID) (int, error) {
	count := 0
	for _, r := range tx.state.loans {
		if r.holds(copyID) {
			count++
		}
	}

	return count, nil
}

func (tx *readTx) FindOpenLoanForCopy(_ context.Context, copyID lending.CopyID) (lending.Loan, bool, error) {
	found := tx.state.sortedLoanRecords(func(r loanRecord) bool {
		return r.open() && r.holds(copyID)
	})

	if len(found) == 0 {
		return lending.Loan{}, false, nil
	}

	return tx.state.hydrate(found[0]), true, nil
}

func (tx *readTx) FindOverdueLoans(_ context.Context, asOf time.Time) ([]lending.Loan, error) {
	today := lending.ToDate(asOf)
	loans := tx.hydrateAll(func(r loanRecord) bool {
		return r.open() && lending.ToDate(r.DueDate).Before(today)
	})

	sort.SliceStable(loans, func(i, j int) bool { return loans[i].DueDate.Before(loans[j].DueDate) })

	return loans, nil
}

func (tx *readTx) hydrateAll(match func(loanRecord) bool) []lending.Loan {
	records := tx.state.sortedLoanRecords(match)
	out := make([]lending.Loan, 0, len(records))

	for _, r := range records {
		out = append(out, tx.state.hydrate(r))
	}

	return out
}
