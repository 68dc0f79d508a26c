package postgresrepo

import (
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	dialectPostgres = "postgres"

	tableStudents   = "students"
	tableBooks      = "books"
	tableCopies     = "book_copies"
	tableLoans      = "loans"
	tableLoanCopies = "loan_book_copies"

	colStudentID       = "student_id"
	colName            = "name"
	colAddress         = "address"
	colDegree          = "degree"
	colBookID          = "book_id"
	colISBN            = "isbn"
	colTitle           = "title"
	colAuthors         = "authors"
	colPublisher       = "publisher"
	colNumberOfPages   = "number_of_pages"
	colPublicationDate = "publication_date"
	colDescription     = "description"
	colCopyID          = "copy_id"
	colBarcode         = "barcode"
	colLocation        = "location"
	colIsBorrowed      = "is_borrowed"
	colLoanID          = "loan_id"
	colBorrowDate      = "borrow_date"
	colDueDate         = "due_date"
	colReturnDate      = "return_date"

	aliasLoan       = "l"
	aliasStudent    = "s"
	aliasLoanCopies = "lc"
	aliasCopy       = "c"
)

type (
	sqlQueryString = string
	sqlQueryArgs   = []any
)

var dialect = goqu.Dialect(dialectPostgres)

func qualified(alias, column string) exp.IdentifierExpression {
	return goqu.I(alias + "." + column)
}

func columnEq(column string, value any) exp.Expression {
	return goqu.C(column).Eq(value)
}

// nullableDate maps the zero time to SQL NULL.
func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}

	return lending.ToDate(t)
}

/*** students ***/

func studentColumns() []any {
	return []any{colStudentID, colName, colAddress, colDegree}
}

func buildSelectStudentQuery(id lending.StudentID, forUpdate bool) (sqlQueryString, sqlQueryArgs, error) {
	ds := dialect.From(tableStudents).Prepared(true).
		Select(studentColumns()...).
		Where(goqu.C(colStudentID).Eq(id))

	if forUpdate {
		ds = ds.ForUpdate(exp.Wait)
	}

	return ds.ToSQL()
}

func buildListStudentsQuery() (sqlQueryString, sqlQueryArgs, error) {
	return dialect.From(tableStudents).Prepared(true).
		Select(studentColumns()...).
		Order(goqu.C(colStudentID).Asc()).
		ToSQL()
}

func buildUpsertStudentQuery(s lending.Student) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.Insert(tableStudents).Prepared(true).
		Rows(goqu.Record{
			colStudentID: s.ID,
			colName:      s.Name,
			colAddress:   s.Address,
			colDegree:    s.Degree,
		}).
		OnConflict(goqu.DoUpdate(colStudentID, goqu.Record{
			colName:    goqu.L("EXCLUDED." + colName),
			colAddress: goqu.L("EXCLUDED." + colAddress),
			colDegree:  goqu.L("EXCLUDED." + colDegree),
		})).
		ToSQL()
}

func buildDeleteStudentQuery(id lending.StudentID) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.Delete(tableStudents).Prepared(true).Where(goqu.C(colStudentID).Eq(id)).ToSQL()
}

/*** books ***/

func bookColumns() []any {
	return []any{
		colBookID, colISBN, colTitle, colAuthors, colPublisher,
		colNumberOfPages, colPublicationDate, colDescription,
	}
}

func bookRecord(b lending.Book) goqu.Record {
	return goqu.Record{
		colISBN:            b.ISBN,
		colTitle:           b.Title,
		colAuthors:         b.Authors,
		colPublisher:       b.Publisher,
		colNumberOfPages:   b.NumberOfPages,
		colPublicationDate: nullableDate(b.PublicationDate),
		colDescription:     b.Description,
	}
}

func buildSelectBookQuery(id lending.BookID) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.From(tableBooks).Prepared(true).
		Select(bookColumns()...).
		Where(goqu.C(colBookID).Eq(id)).
		ToSQL()
}

func buildListBooksQuery() (sqlQueryString, sqlQueryArgs, error) {
	return dialect.From(tableBooks).Prepared(true).
		Select(bookColumns()...).
		Order(goqu.C(colBookID).Asc()).
		ToSQL()
}

func buildInsertBookQuery(b lending.Book) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.Insert(tableBooks).Prepared(true).
		Rows(bookRecord(b)).
		Returning(colBookID).
		ToSQL()
}

func buildUpdateBookQuery(b lending.Book) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.Update(tableBooks).Prepared(true).
		Set(bookRecord(b)).
		Where(goqu.C(colBookID).Eq(b.ID)).
		ToSQL()
}

func buildDeleteBookQuery(id lending.BookID) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.Delete(tableBooks).Prepared(true).Where(goqu.C(colBookID).Eq(id)).ToSQL()
}

/*** book copies ***/

func copyColumns() []any {
	return []any{colCopyID, colBookID, colBarcode, colLocation, colIsBorrowed}
}

func copyRecord(c lending.BookCopy) goqu.Record {
	return goqu.Record{
		colBookID:     c.BookID,
		colBarcode:    c.Barcode,
		colLocation:   c.Location,
		colIsBorrowed: c.Borrowed,
	}
}

func buildSelectCopiesQuery(where ...exp.Expression) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.From(tableCopies).Prepared(true).
		Select(copyColumns()...).
		Where(where...).
		Order(goqu.C(colCopyID).Asc()).
		ToSQL()
}

func buildInsertCopyQuery(c lending.BookCopy) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.Insert(tableCopies).Prepared(true).
		Rows(copyRecord(c)).
		Returning(colCopyID).
		ToSQL()
}

func buildUpdateCopyQuery(c lending.BookCopy) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.Update(tableCopies).Prepared(true).
		Set(copyRecord(c)).
		Where(goqu.C(colCopyID).Eq(c.ID)).
		ToSQL()
}

func buildDeleteCopyQuery(id lending.CopyID) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.Delete(tableCopies).Prepared(true).Where(goqu.C(colCopyID).Eq(id)).ToSQL()
}

/*** loans ***/

// buildSelectLoansQuery selects loans joined with their student, ordered by the given expressions.
func buildSelectLoansQuery(order []exp.OrderedExpression, where ...exp.Expression) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.From(goqu.T(tableLoans).As(aliasLoan)).Prepared(true).
		Join(
			goqu.T(tableStudents).As(aliasStudent),
			goqu.On(qualified(aliasLoan, colStudentID).Eq(qualified(aliasStudent, colStudentID))),
		).
		Select(
			qualified(aliasLoan, colLoanID),
			qualified(aliasLoan, colBorrowDate),
			qualified(aliasLoan, colDueDate),
			qualified(aliasLoan, colReturnDate),
			qualified(aliasStudent, colStudentID),
			qualified(aliasStudent, colName),
			qualified(aliasStudent, colAddress),
			qualified(aliasStudent, colDegree),
		).
		Where(where...).
		Order(order...).
		ToSQL()
}

func byLoanID() []exp.OrderedExpression {
	return []exp.OrderedExpression{qualified(aliasLoan, colLoanID).Asc()}
}

func byDueDateThenLoanID() []exp.OrderedExpression {
	return []exp.OrderedExpression{qualified(aliasLoan, colDueDate).Asc(), qualified(aliasLoan, colLoanID).Asc()}
}

func loanIsOpen() exp.Expression {
	return qualified(aliasLoan, colReturnDate).IsNull()
}

func loanHoldsCopy(copyID lending.CopyID) exp.Expression {
	return qualified(aliasLoan, colLoanID).In(
		dialect.From(tableLoanCopies).Select(colLoanID).Where(goqu.C(colCopyID).Eq(copyID)),
	)
}

// buildSelectLoanCopiesQuery selects the copies of the given loans, ordered by loan and copy id.
func buildSelectLoanCopiesQuery(loanIDs []lending.LoanID) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.From(goqu.T(tableLoanCopies).As(aliasLoanCopies)).Prepared(true).
		Join(
			goqu.T(tableCopies).As(aliasCopy),
			goqu.On(qualified(aliasLoanCopies, colCopyID).Eq(qualified(aliasCopy, colCopyID))),
		).
		Select(
			qualified(aliasLoanCopies, colLoanID),
			qualified(aliasCopy, colCopyID),
			qualified(aliasCopy, colBookID),
			qualified(aliasCopy, colBarcode),
			qualified(aliasCopy, colLocation),
			qualified(aliasCopy, colIsBorrowed),
		).
		Where(qualified(aliasLoanCopies, colLoanID).In(loanIDs)).
		Order(qualified(aliasLoanCopies, colLoanID).Asc(), qualified(aliasCopy, colCopyID).Asc()).
		ToSQL()
}

func buildCountActiveCopiesQuery(studentID lending.StudentID) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.From(goqu.T(tableLoanCopies).As(aliasLoanCopies)).Prepared(true).
		Join(
			goqu.T(tableLoans).As(aliasLoan),
			goqu.On(qualified(aliasLoanCopies, colLoanID).Eq(qualified(aliasLoan, colLoanID))),
		).
		Select(goqu.COUNT(goqu.Star())).
		Where(qualified(aliasLoan, colStudentID).Eq(studentID), loanIsOpen()).
		ToSQL()
}

func buildCountLoansForStudentQuery(studentID lending.StudentID) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.From(tableLoans).Prepared(true).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C(colStudentID).Eq(studentID)).
		ToSQL()
}

func buildCountLoansForCopyQuery(copyID lending.CopyID) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.From(tableLoanCopies).Prepared(true).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C(colCopyID).Eq(copyID)).
		ToSQL()
}

func buildInsertLoanQuery(loan lending.Loan) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.Insert(tableLoans).Prepared(true).
		Rows(goqu.Record{
			colStudentID:  loan.Student.ID,
			colBorrowDate: lending.ToDate(loan.BorrowDate),
			colDueDate:    lending.ToDate(loan.DueDate),
			colReturnDate: nullableDate(loan.ReturnDate),
		}).
		Returning(colLoanID).
		ToSQL()
}

func buildInsertLoanCopiesQuery(loanID lending.LoanID, copyIDs []lending.CopyID) (sqlQueryString, sqlQueryArgs, error) {
	rows := make([]any, 0, len(copyIDs))
	for _, copyID := range copyIDs {
		rows = append(rows, goqu.Record{colLoanID: loanID, colCopyID: copyID})
	}

	return dialect.Insert(tableLoanCopies).Prepared(true).Rows(rows...).ToSQL()
}

func buildUpdateLoanReturnDateQuery(loanID lending.LoanID, returnDate time.Time) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.Update(tableLoans).Prepared(true).
		Set(goqu.Record{colReturnDate: nullableDate(returnDate)}).
		Where(goqu.C(colLoanID).Eq(loanID)).
		ToSQL()
}

func buildDeleteLoanQuery(loanID lending.LoanID) (sqlQueryString, sqlQueryArgs, error) {
	return dialect.Delete(tableLoans).Prepared(true).Where(goqu.C(colLoanID).Eq(loanID)).ToSQL()
}
