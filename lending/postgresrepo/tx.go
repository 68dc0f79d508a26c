package postgresrepo

import (
	"context"
	"sort"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresrepo/internal/adapters"
)

type transaction struct {
	readTx
}

// LockStudent reads the student with SELECT ... FOR UPDATE.
func (tx *transaction) LockStudent(ctx context.Context, id lending.StudentID) (lending.Student, bool, error) {
	students, err := tx.selectStudents(ctx, actionLockStudent, stmt(buildSelectStudentQuery(id, true)))
	if err != nil || len(students) == 0 {
		return lending.Student{}, false, err
	}

	return students[0], true, nil
}

func (tx *transaction) SaveStudent(ctx context.Context, student lending.Student) (lending.Student, error) {
	if _, err := tx.exec(ctx, actionSaveStudent, stmt(buildUpsertStudentQuery(student))); err != nil {
		return lending.Student{}, err
	}

	return student, nil
}

func (tx *transaction) DeleteStudentRecord(ctx context.Context, id lending.StudentID) error {
	_, err := tx.exec(ctx, actionDeleteStudent, stmt(buildDeleteStudentQuery(id)))
	return err
}

func (tx *transaction) SaveBook(ctx context.Context, book lending.Book) (lending.Book, error) {
	book.PublicationDate = lending.ToDate(book.PublicationDate)

	if book.ID != 0 {
		rowsAffected, err := tx.exec(ctx, actionUpdateBook, stmt(buildUpdateBookQuery(book)))
		if err != nil {
			return lending.Book{}, err
		}

		if rowsAffected == 0 {
			return lending.Book{}, lending.NotFoundf(lending.ErrBookNotFound, book.ID)
		}

		return book, nil
	}

	id, err := tx.insertReturningID(ctx, actionInsertBook, stmt(buildInsertBookQuery(book)))
	if err != nil {
		return lending.Book{}, err
	}

	book.ID = id

	return book, nil
}

func (tx *transaction) DeleteBookRecord(ctx context.Context, id lending.BookID) error {
	_, err := tx.exec(ctx, actionDeleteBook, stmt(buildDeleteBookQuery(id)))
	return err
}

func (tx *transaction) SaveBookCopy(ctx context.Context, bookCopy lending.BookCopy) (lending.BookCopy, error) {
	if bookCopy.ID != 0 {
		rowsAffected, err := tx.exec(ctx, actionUpdateCopy, stmt(buildUpdateCopyQuery(bookCopy)))
		if err != nil {
			return lending.BookCopy{}, err
		}

		if rowsAffected == 0 {
			return lending.BookCopy{}, lending.NotFoundf(lending.ErrBookCopyNotFound, bookCopy.ID)
		}

		return bookCopy, nil
	}

	id, err := tx.insertReturningID(ctx, actionInsertCopy, stmt(buildInsertCopyQuery(bookCopy)))
	if err != nil {
		return lending.BookCopy{}, err
	}

	bookCopy.ID = id

	return bookCopy, nil
}

// DeleteBookCopyRecord deletes the copy; its loan memberships go with it by ON DELETE CASCADE.
func (tx *transaction) DeleteBookCopyRecord(ctx context.Context, id lending.CopyID) error {
	_, err := tx.exec(ctx, actionDeleteCopy, stmt(buildDeleteCopyQuery(id)))
	return err
}

func (tx *transaction) SaveLoan(ctx context.Context, loan lending.Loan) (lending.Loan, error) {
	if loan.ID != 0 {
		rowsAffected, err := tx.exec(ctx, actionUpdateLoanReturned, stmt(buildUpdateLoanReturnDateQuery(loan.ID, loan.ReturnDate)))
		if err != nil {
			return lending.Loan{}, err
		}

		if rowsAffected == 0 {
			return lending.Loan{}, lending.NotFoundf(lending.ErrLoanNotFound, loan.ID)
		}

		return tx.reload(ctx, loan.ID)
	}

	id, err := tx.insertReturningID(ctx, actionInsertLoan, stmt(buildInsertLoanQuery(loan)))
	if err != nil {
		return lending.Loan{}, err
	}

	copyIDs := loan.CopyIDs()
	sort.Slice(copyIDs, func(i, j int) bool { return copyIDs[i] < copyIDs[j] })

	if len(copyIDs) > 0 {
		if _, err = tx.exec(ctx, actionInsertLoanCopies, stmt(buildInsertLoanCopiesQuery(id, copyIDs))); err != nil {
			return lending.Loan{}, err
		}
	}

	return tx.reload(ctx, id)
}

// DeleteLoanRecord deletes the loan; its copy memberships go with it by ON DELETE CASCADE.
func (tx *transaction) DeleteLoanRecord(ctx context.Context, id lending.LoanID) error {
	_, err := tx.exec(ctx, actionDeleteLoan, stmt(buildDeleteLoanQuery(id)))
	return err
}

func (tx *transaction) insertReturningID(ctx context.Context, action string, st statement) (int64, error) {
	var id int64

	err := tx.query(ctx, action, st, func(rows adapters.DBRows) error {
		return rows.Scan(&id)
	})

	return id, err
}

func (tx *transaction) reload(ctx context.Context, id lending.LoanID) (lending.Loan, error) {
	loan, ok, err := tx.FindLoan(ctx, id)
	if err != nil {
		return lending.Loan{}, err
	}

	if !ok {
		return lending.Loan{}, lending.NotFoundf(lending.ErrLoanNotFound, id)
	}

	return loan, nil
}
