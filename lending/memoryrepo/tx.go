package memoryrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

var (
	// ErrStudentReferenced mirrors the foreign key from loans to students.
	ErrStudentReferenced = errors.New("student is still referenced by loans")

	// ErrBookReferenced mirrors the foreign key from book copies to books.
	ErrBookReferenced = errors.New("book is still referenced by book copies")
)

type transaction struct {
	readTx
}

func (tx *transaction) LockStudent(ctx context.Context, id lending.StudentID) (lending.Student, bool, error) {
	// The store-wide lock is already held for the lifetime of the transaction.
	return tx.FindStudent(ctx, id)
}

func (tx *transaction) SaveStudent(_ context.Context, student lending.Student) (lending.Student, error) {
	if student.ID <= 0 {
		return lending.Student{}, lending.ErrInvalidStudent
	}

	tx.state.students[student.ID] = student

	return student, nil
}

func (tx *transaction) DeleteStudentRecord(_ context.Context, id lending.StudentID) error {
	for _, r := range tx.state.loans {
		if r.StudentID == id {
			return errors.Join(lending.ErrStorage, ErrStudentReferenced)
		}
	}

	delete(tx.state.students, id)

	return nil
}

func (tx *transaction) SaveBook(_ context.Context, book lending.Book) (lending.Book, error) {
	book.PublicationDate = lending.ToDate(book.PublicationDate)

	if book.ID == 0 {
		book.ID = tx.state.nextBookID
		tx.state.nextBookID++
	} else if _, ok := tx.state.books[book.ID]; !ok {
		return lending.Book{}, lending.NotFoundf(lending.ErrBookNotFound, book.ID)
	}

	tx.state.books[book.ID] = book

	return book, nil
}

func (tx *transaction) DeleteBookRecord(_ context.Context, id lending.BookID) error {
	for _, c := range tx.state.copies {
		if c.BookID == id {
			return errors.Join(lending.ErrStorage, ErrBookReferenced)
		}
	}

	delete(tx.state.books, id)

	return nil
}

func (tx *transaction) SaveBookCopy(_ context.Context, bookCopy lending.BookCopy) (lending.BookCopy, error) {
	if _, ok := tx.state.books[bookCopy.BookID]; !ok {
		return lending.BookCopy{}, lending.NotFoundf(lending.ErrBookNotFound, bookCopy.BookID)
	}

	for _, other := range tx.state.copies {
		if other.Barcode == bookCopy.Barcode && other.ID != bookCopy.ID {
			return lending.BookCopy{}, fmt.Errorf("%w: %s", lending.ErrDuplicateBarcode, bookCopy.Barcode)
		}
	}

	if bookCopy.ID == 0 {
		bookCopy.ID = tx.state.nextCopyID
		tx.state.nextCopyID++
	} else if _, ok := tx.state.copies[bookCopy.ID]; !ok {
		return lending.BookCopy{}, lending.NotFoundf(lending.ErrBookCopyNotFound, bookCopy.ID)
	}

	tx.state.copies[bookCopy.ID] = bookCopy

	return bookCopy, nil
}

func (tx *transaction) DeleteBookCopyRecord(_ context.Context, id lending.CopyID) error {
	delete(tx.state.copies, id)

	for loanID, r := range tx.state.loans {
		if !r.holds(id) {
			continue
		}

		kept := make([]lending.CopyID, 0, len(r.CopyIDs)-1)
		for _, copyID := range r.CopyIDs {
			if copyID != id {
				kept = append(kept, copyID)
			}
		}

		r.CopyIDs = kept
		tx.state.loans[loanID] = r
	}

	return nil
}

func (tx *transaction) SaveLoan(_ context.Context, loan lending.Loan) (lending.Loan, error) {
	if loan.ID != 0 {
		r, ok := tx.state.loans[loan.ID]
		if !ok {
			return lending.Loan{}, lending.NotFoundf(lending.ErrLoanNotFound, loan.ID)
		}

		r.ReturnDate = lending.ToDate(loan.ReturnDate)
		tx.state.loans[loan.ID] = r

		return tx.state.hydrate(r), nil
	}

	if _, ok := tx.state.students[loan.Student.ID]; !ok {
		return lending.Loan{}, lending.NotFoundf(lending.ErrStudentNotFound, loan.Student.ID)
	}

	copyIDs := loan.CopyIDs()
	for _, id := range copyIDs {
		if _, ok := tx.state.copies[id]; !ok {
			return lending.Loan{}, lending.NotFoundf(lending.ErrBookCopyNotFound, id)
		}
	}

	sort.Slice(copyIDs, func(i, j int) bool { return copyIDs[i] < copyIDs[j] })

	r := loanRecord{
		ID:         tx.state.nextLoanID,
		StudentID:  loan.Student.ID,
		CopyIDs:    copyIDs,
		BorrowDate: lending.ToDate(loan.BorrowDate),
		DueDate:    lending.ToDate(loan.DueDate),
		ReturnDate: lending.ToDate(loan.ReturnDate),
	}

	tx.state.nextLoanID++
	tx.state.loans[r.ID] = r

	return tx.state.hydrate(r), nil
}

func (tx *transaction) DeleteLoanRecord(_ context.Context, id lending.LoanID) error {
	delete(tx.state.loans, id)
	return nil
}
