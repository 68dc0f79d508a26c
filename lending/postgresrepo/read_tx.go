package postgresrepo

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresrepo/internal/adapters"
)

const (
	actionFindStudent        = "find_student"
	actionLockStudent        = "lock_student"
	actionListStudents       = "list_students"
	actionFindBook           = "find_book"
	actionListBooks          = "list_books"
	actionFindCopies         = "find_copies"
	actionFindLoans          = "find_loans"
	actionFindLoanCopies     = "find_loan_copies"
	actionCountActiveCopies  = "count_active_copies"
	actionCountStudentLoans  = "count_student_loans"
	actionCountCopyLoans     = "count_copy_loans"
	actionFindOverdueLoans   = "find_overdue_loans"
	actionSaveStudent        = "save_student"
	actionDeleteStudent      = "delete_student"
	actionInsertBook         = "insert_book"
	actionUpdateBook         = "update_book"
	actionDeleteBook         = "delete_book"
	actionInsertCopy         = "insert_copy"
	actionUpdateCopy         = "update_copy"
	actionDeleteCopy         = "delete_copy"
	actionInsertLoan         = "insert_loan"
	actionInsertLoanCopies   = "insert_loan_copies"
	actionUpdateLoanReturned = "update_loan_return_date"
	actionDeleteLoan         = "delete_loan"
)

// statement is a built SQL statement with its arguments, or the error that prevented building it.
type statement struct {
	query string
	args  []any
	err   error
}

func stmt(query sqlQueryString, args sqlQueryArgs, err error) statement {
	return statement{query: query, args: args, err: err}
}

type readTx struct {
	repo *Repository
	db   adapters.DBTx
}

// query runs st and calls scan once per result row. All rows are consumed before it returns.
func (tx *readTx) query(ctx context.Context, action string, st statement, scan func(rows adapters.DBRows) error) error {
	if st.err != nil {
		tx.repo.logError(ctx, logMsgBuildQueryFailed, st.err, logAttrAction, action)
		tx.repo.recordErrorMetrics(ctx, action, errorTypeBuildQuery)

		return errors.Join(lending.ErrStorage, st.err)
	}

	start := time.Now()

	rows, err := tx.db.Query(ctx, st.query, st.args...)
	if err != nil {
		return tx.dbFailure(ctx, action, logMsgDBQueryFailed, errorTypeQuery, err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			tx.repo.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error(), logAttrAction, action)
		}
	}()

	for rows.Next() {
		if scanErr := scan(rows); scanErr != nil {
			tx.repo.logError(ctx, logMsgScanRowFailed, scanErr, logAttrAction, action)
			tx.repo.recordErrorMetrics(ctx, action, errorTypeScan)

			return errors.Join(lending.ErrStorage, scanErr)
		}
	}

	if err = rows.Err(); err != nil {
		return tx.dbFailure(ctx, action, logMsgDBQueryFailed, errorTypeQuery, err)
	}

	tx.repo.logQueryWithDuration(ctx, st.query, action, time.Since(start))

	return nil
}

// exec runs st and returns the number of affected rows.
func (tx *readTx) exec(ctx context.Context, action string, st statement) (int64, error) {
	if st.err != nil {
		tx.repo.logError(ctx, logMsgBuildQueryFailed, st.err, logAttrAction, action)
		tx.repo.recordErrorMetrics(ctx, action, errorTypeBuildQuery)

		return 0, errors.Join(lending.ErrStorage, st.err)
	}

	start := time.Now()

	result, err := tx.db.Exec(ctx, st.query, st.args...)
	if err != nil {
		return 0, tx.dbFailure(ctx, action, logMsgDBExecFailed, errorTypeExec, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, tx.dbFailure(ctx, action, logMsgDBExecFailed, errorTypeExec, err)
	}

	tx.repo.logQueryWithDuration(ctx, st.query, action, time.Since(start))

	return rowsAffected, nil
}

func (tx *readTx) dbFailure(ctx context.Context, action, msg, errorType string, err error) error {
	mapped := mapDBError(err)
	errorType = errorTypeOf(mapped, errorType)

	if errorType != errorTypeConcurrency && lending.IsStorage(mapped) {
		tx.repo.logError(ctx, msg, err, logAttrAction, action)
	}

	tx.repo.recordErrorMetrics(ctx, action, errorType)

	return mapped
}

func (tx *readTx) count(ctx context.Context, action string, st statement) (int, error) {
	var n int64

	err := tx.query(ctx, action, st, func(rows adapters.DBRows) error {
		return rows.Scan(&n)
	})

	return int(n), err
}

/*** students ***/

func scanStudent(rows adapters.DBRows) (lending.Student, error) {
	var s lending.Student
	err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.Degree)

	return s, err
}

func (tx *readTx) selectStudents(ctx context.Context, action string, st statement) ([]lending.Student, error) {
	students := make([]lending.Student, 0)

	err := tx.query(ctx, action, st, func(rows adapters.DBRows) error {
		s, err := scanStudent(rows)
		if err != nil {
			return err
		}

		students = append(students, s)

		return nil
	})

	return students, err
}

func (tx *readTx) FindStudent(ctx context.Context, id lending.StudentID) (lending.Student, bool, error) {
	students, err := tx.selectStudents(ctx, actionFindStudent, stmt(buildSelectStudentQuery(id, false)))
	if err != nil || len(students) == 0 {
		return lending.Student{}, false, err
	}

	return students[0], true, nil
}

func (tx *readTx) ListStudents(ctx context.Context) ([]lending.Student, error) {
	return tx.selectStudents(ctx, actionListStudents, stmt(buildListStudentsQuery()))
}

/*** books ***/

func (tx *readTx) selectBooks(ctx context.Context, action string, st statement) ([]lending.Book, error) {
	books := make([]lending.Book, 0)

	err := tx.query(ctx, action, st, func(rows adapters.DBRows) error {
		var b lending.Book
		var publicationDate *time.Time

		if err := rows.Scan(
			&b.ID, &b.ISBN, &b.Title, &b.Authors, &b.Publisher,
			&b.NumberOfPages, &publicationDate, &b.Description,
		); err != nil {
			return err
		}

		if publicationDate != nil {
			b.PublicationDate = lending.ToDate(*publicationDate)
		}

		books = append(books, b)

		return nil
	})

	return books, err
}

func (tx *readTx) FindBook(ctx context.Context, id lending.BookID) (lending.Book, bool, error) {
	books, err := tx.selectBooks(ctx, actionFindBook, stmt(buildSelectBookQuery(id)))
	if err != nil || len(books) == 0 {
		return lending.Book{}, false, err
	}

	return books[0], true, nil
}

func (tx *readTx) ListBooks(ctx context.Context) ([]lending.Book, error) {
	return tx.selectBooks(ctx, actionListBooks, stmt(buildListBooksQuery()))
}

/*** book copies ***/

func scanCopy(rows adapters.DBRows, dest ...any) (lending.BookCopy, error) {
	var c lending.BookCopy

	targets := make([]any, 0, len(dest)+5)
	targets = append(targets, dest...)
	targets = append(targets, &c.ID, &c.BookID, &c.Barcode, &c.Location, &c.Borrowed)
	err := rows.Scan(targets...)

	return c, err
}

func (tx *readTx) selectCopies(ctx context.Context, st statement) ([]lending.BookCopy, error) {
	copies := make([]lending.BookCopy, 0)

	err := tx.query(ctx, actionFindCopies, st, func(rows adapters.DBRows) error {
		c, err := scanCopy(rows)
		if err != nil {
			return err
		}

		copies = append(copies, c)

		return nil
	})

	return copies, err
}

func (tx *readTx) findOneCopy(ctx context.Context, st statement) (lending.BookCopy, bool, error) {
	copies, err := tx.selectCopies(ctx, st)
	if err != nil || len(copies) == 0 {
		return lending.BookCopy{}, false, err
	}

	return copies[0], true, nil
}

func (tx *readTx) FindBookCopy(ctx context.Context, id lending.CopyID) (lending.BookCopy, bool, error) {
	return tx.findOneCopy(ctx, stmt(buildSelectCopiesQuery(columnEq(colCopyID, id))))
}

func (tx *readTx) FindBookCopyByBarcode(ctx context.Context, barcode string) (lending.BookCopy, bool, error) {
	return tx.findOneCopy(ctx, stmt(buildSelectCopiesQuery(columnEq(colBarcode, barcode))))
}

func (tx *readTx) FindCopiesOfBook(ctx context.Context, bookID lending.BookID) ([]lending.BookCopy, error) {
	return tx.selectCopies(ctx, stmt(buildSelectCopiesQuery(columnEq(colBookID, bookID))))
}

func (tx *readTx) ListBookCopies(ctx context.Context) ([]lending.BookCopy, error) {
	return tx.selectCopies(ctx, stmt(buildSelectCopiesQuery()))
}

/*** loans ***/

// selectLoans runs a loan query and hydrates the copies of every loan with a second query.
func (tx *readTx) selectLoans(ctx context.Context, action string, st statement) ([]lending.Loan, error) {
	loans := make([]lending.Loan, 0)

	err := tx.query(ctx, action, st, func(rows adapters.DBRows) error {
		var l lending.Loan
		var returnDate *time.Time

		if err := rows.Scan(
			&l.ID, &l.BorrowDate, &l.DueDate, &returnDate,
			&l.Student.ID, &l.Student.Name, &l.Student.Address, &l.Student.Degree,
		); err != nil {
			return err
		}

		l.BorrowDate = lending.ToDate(l.BorrowDate)
		l.DueDate = lending.ToDate(l.DueDate)
		if returnDate != nil {
			l.ReturnDate = lending.ToDate(*returnDate)
		}

		loans = append(loans, l)

		return nil
	})

	if err != nil || len(loans) == 0 {
		return loans, err
	}

	loanIDs := make([]lending.LoanID, 0, len(loans))
	byID := make(map[lending.LoanID]int, len(loans))

	for i, l := range loans {
		loanIDs = append(loanIDs, l.ID)
		byID[l.ID] = i
		loans[i].Copies = make([]lending.BookCopy, 0)
	}

	err = tx.query(ctx, actionFindLoanCopies, stmt(buildSelectLoanCopiesQuery(loanIDs)), func(rows adapters.DBRows) error {
		var loanID lending.LoanID

		c, err := scanCopy(rows, &loanID)
		if err != nil {
			return err
		}

		i := byID[loanID]
		loans[i].Copies = append(loans[i].Copies, c)

		return nil
	})

	return loans, err
}

func (tx *readTx) findOneLoan(ctx context.Context, st statement) (lending.Loan, bool, error) {
	loans, err := tx.selectLoans(ctx, actionFindLoans, st)
	if err != nil || len(loans) == 0 {
		return lending.Loan{}, false, err
	}

	return loans[0], true, nil
}

func (tx *readTx) FindLoan(ctx context.Context, id lending.LoanID) (lending.Loan, bool, error) {
	return tx.findOneLoan(ctx, stmt(buildSelectLoansQuery(byLoanID(), qualified(aliasLoan, colLoanID).Eq(id))))
}

func (tx *readTx) ListLoans(ctx context.Context) ([]lending.Loan, error) {
	return tx.selectLoans(ctx, actionFindLoans, stmt(buildSelectLoansQuery(byLoanID())))
}

func (tx *readTx) FindOpenLoansForStudent(ctx context.Context, studentID lending.StudentID) ([]lending.Loan, error) {
	return tx.selectLoans(ctx, actionFindLoans, stmt(buildSelectLoansQuery(
		byLoanID(),
		qualified(aliasLoan, colStudentID).Eq(studentID),
		loanIsOpen(),
	)))
}

func (tx *readTx) CountActiveCopiesForStudent(ctx context.Context, studentID lending.StudentID) (int, error) {
	return tx.count(ctx, actionCountActiveCopies, stmt(buildCountActiveCopiesQuery(studentID)))
}

func (tx *readTx) CountLoansForStudent(ctx context.Context, studentID lending.StudentID) (int, error) {
	return tx.count(ctx, actionCountStudentLoans, stmt(buildCountLoansForStudentQuery(studentID)))
}

func (tx *readTx) CountLoansForCopy(ctx context.Context, copyID lending.CopyID) (int, error) {
	return tx.count(ctx, actionCountCopyLoans, stmt(buildCountLoansForCopyQuery(copyID)))
}

func (tx *readTx) FindOpenLoanForCopy(ctx context.Context, copyID lending.CopyID) (lending.Loan, bool, error) {
	return tx.findOneLoan(ctx, stmt(buildSelectLoansQuery(byLoanID(), loanIsOpen(), loanHoldsCopy(copyID))))
}

func (tx *readTx) FindOverdueLoans(ctx context.Context, asOf time.Time) ([]lending.Loan, error) {
	return tx.selectLoans(ctx, actionFindOverdueLoans, stmt(buildSelectLoansQuery(
		byDueDateThenLoanID(),
		loanIsOpen(),
		qualified(aliasLoan, colDueDate).Lt(lending.ToDate(asOf)),
	)))
}
