package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/AntonStoeckl/library-lending-go/catalog"
	"github.com/AntonStoeckl/library-lending-go/circulation"
	"github.com/AntonStoeckl/library-lending-go/lending"
)

var errUsage = errors.New("usage")

// refusedError reports a deletion that ended as not_found or blocked.
type refusedError struct {
	outcome string
	reason  error
}

func (e refusedError) Error() string {
	return e.outcome + ": " + e.reason.Error()
}

type app struct {
	engine     *circulation.Engine
	catalog    *catalog.Service
	out        printer
	stderr     io.Writer
	initSchema func(ctx context.Context) error
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"init-schema": {"create the lending tables", runInitSchema},

	"student add":         {"register a student", runStudentAdd},
	"student get":         {"show a student", runStudentGet},
	"student list":        {"list all students", runStudentList},
	"student update":      {"replace name, address and degree of a student", runStudentUpdate},
	"student set-address": {"change the address of a student", runStudentSetAddress},
	"student set-degree":  {"change the degree of a student", runStudentSetDegree},
	"student delete":      {"delete a student without loans", runStudentDelete},

	"book add":    {"add a book to the catalog", runBookAdd},
	"book get":    {"show a book", runBookGet},
	"book list":   {"list all books", runBookList},
	"book update": {"replace the fields of a book", runBookUpdate},
	"book delete": {"delete a book and its copies", runBookDelete},
	"book copies": {"list the copies of a book", runBookCopies},

	"copy add":          {"add a copy to a book", runCopyAdd},
	"copy get":          {"show a copy", runCopyGet},
	"copy list":         {"list all copies", runCopyList},
	"copy update":       {"change barcode and location of a copy", runCopyUpdate},
	"copy delete":       {"delete a copy without loan history", runCopyDelete},
	"copy availability": {"show whether a copy is available", runCopyAvailability},

	"loan create":  {"lend copies to a student", runLoanCreate},
	"loan return":  {"return all copies of a loan", runLoanReturn},
	"loan delete":  {"delete a loan", runLoanDelete},
	"loan get":     {"show a loan", runLoanGet},
	"loan list":    {"list all loans", runLoanList},
	"loan receipt": {"print the receipt of a loan", runLoanReceipt},
	"loan report":  {"print the loan report grouped by student", runLoanReport},
	"loan overdue": {"list open loans past their due date", runLoanOverdue},
}

func lookupCommand(args []string) (command, []string, bool) {
	if len(args) == 0 {
		return command{}, nil, false
	}

	if cmd, ok := commands[args[0]]; ok {
		return cmd, args[1:], true
	}

	if len(args) < 2 {
		return command{}, nil, false
	}

	cmd, ok := commands[args[0]+" "+args[1]]

	return cmd, args[2:], ok
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)

	return fs
}

func parseCommandFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}

		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}

	return nil
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(lending.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected yyyy-mm-dd", errUsage, value)
	}

	return t, nil
}

func parseCopyIDs(value string) ([]lending.CopyID, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	parts := strings.Split(value, ",")
	ids := make([]lending.CopyID, 0, len(parts))

	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid copy id %q", errUsage, part)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

func runInitSchema(ctx context.Context, a *app, args []string) error {
	if err := parseCommandFlags(a.flags("init-schema"), args); err != nil {
		return err
	}

	if err := a.initSchema(ctx); err != nil {
		return err
	}

	return a.out.print(map[string]string{"schema": "ok"}, "schema ok\n")
}

// students

func studentFlags(a *app, name string, s *lending.Student) *flag.FlagSet {
	fs := a.flags(name)
	fs.Int64Var(&s.ID, "id", 0, "student id")
	fs.StringVar(&s.Name, "name", "", "full name")
	fs.StringVar(&s.Address, "address", "", "postal address")
	fs.StringVar(&s.Degree, "degree", "", "degree program")

	return fs
}

func idFlag(a *app, name string, id *int64) *flag.FlagSet {
	fs := a.flags(name)
	fs.Int64Var(id, "id", 0, "record id")

	return fs
}

func runStudentAdd(ctx context.Context, a *app, args []string) error {
	var s lending.Student
	if err := parseCommandFlags(studentFlags(a, "student add", &s), args); err != nil {
		return err
	}

	added, err := a.catalog.AddStudent(ctx, s)
	if err != nil {
		return err
	}

	return printOne(a.out, toStudentView(added))
}

func runStudentGet(ctx context.Context, a *app, args []string) error {
	var id int64
	if err := parseCommandFlags(idFlag(a, "student get", &id), args); err != nil {
		return err
	}

	s, err := a.catalog.FindStudent(ctx, id)
	if err != nil {
		return err
	}

	return printOne(a.out, toStudentView(s))
}

func runStudentList(ctx context.Context, a *app, args []string) error {
	if err := parseCommandFlags(a.flags("student list"), args); err != nil {
		return err
	}

	students, err := a.catalog.ListStudents(ctx)
	if err != nil {
		return err
	}

	return printAll(a.out, students, toStudentView)
}

func runStudentUpdate(ctx context.Context, a *app, args []string) error {
	var s lending.Student
	if err := parseCommandFlags(studentFlags(a, "student update", &s), args); err != nil {
		return err
	}

	updated, err := a.catalog.UpdateStudent(ctx, s)
	if err != nil {
		return err
	}

	return printOne(a.out, toStudentView(updated))
}

func runStudentSetAddress(ctx context.Context, a *app, args []string) error {
	var s lending.Student
	if err := parseCommandFlags(studentFlags(a, "student set-address", &s), args); err != nil {
		return err
	}

	updated, err := a.catalog.UpdateStudentAddress(ctx, s.ID, s.Address)
	if err != nil {
		return err
	}

	return printOne(a.out, toStudentView(updated))
}

func runStudentSetDegree(ctx context.Context, a *app, args []string) error {
	var s lending.Student
	if err := parseCommandFlags(studentFlags(a, "student set-degree", &s), args); err != nil {
		return err
	}

	updated, err := a.catalog.UpdateStudentDegree(ctx, s.ID, s.Degree)
	if err != nil {
		return err
	}

	return printOne(a.out, toStudentView(updated))
}

func runStudentDelete(ctx context.Context, a *app, args []string) error {
	var id int64
	if err := parseCommandFlags(idFlag(a, "student delete", &id), args); err != nil {
		return err
	}

	result, err := a.catalog.DeleteStudent(ctx, id)
	if err != nil {
		return err
	}

	return printDeletion(a.out, result)
}

// books

func bookFlags(a *app, name string, b *lending.Book, published *string) *flag.FlagSet {
	fs := a.flags(name)
	fs.Int64Var(&b.ID, "id", 0, "book id (update only)")
	fs.StringVar(&b.ISBN, "isbn", "", "ISBN")
	fs.StringVar(&b.Title, "title", "", "title")
	fs.StringVar(&b.Authors, "authors", "", "authors")
	fs.StringVar(&b.Publisher, "publisher", "", "publisher")
	fs.IntVar(&b.NumberOfPages, "pages", 0, "number of pages")
	fs.StringVar(published, "published", "", "publication date (yyyy-mm-dd)")
	fs.StringVar(&b.Description, "description", "", "description")

	return fs
}

func parseBook(a *app, name string, args []string) (lending.Book, error) {
	var b lending.Book
	var published string

	if err := parseCommandFlags(bookFlags(a, name, &b, &published), args); err != nil {
		return lending.Book{}, err
	}

	date, err := parseDate(published)
	if err != nil {
		return lending.Book{}, err
	}

	b.PublicationDate = date

	return b, nil
}

func runBookAdd(ctx context.Context, a *app, args []string) error {
	b, err := parseBook(a, "book add", args)
	if err != nil {
		return err
	}

	added, err := a.catalog.AddBook(ctx, b)
	if err != nil {
		return err
	}

	return printOne(a.out, toBookView(added))
}

func runBookGet(ctx context.Context, a *app, args []string) error {
	var id int64
	if err := parseCommandFlags(idFlag(a, "book get", &id), args); err != nil {
		return err
	}

	b, err := a.catalog.FindBook(ctx, id)
	if err != nil {
		return err
	}

	return printOne(a.out, toBookView(b))
}

func runBookList(ctx context.Context, a *app, args []string) error {
	if err := parseCommandFlags(a.flags("book list"), args); err != nil {
		return err
	}

	books, err := a.catalog.ListBooks(ctx)
	if err != nil {
		return err
	}

	return printAll(a.out, books, toBookView)
}

func runBookUpdate(ctx context.Context, a *app, args []string) error {
	b, err := parseBook(a, "book update", args)
	if err != nil {
		return err
	}

	updated, err := a.catalog.UpdateBook(ctx, b)
	if err != nil {
		return err
	}

	return printOne(a.out, toBookView(updated))
}

func runBookDelete(ctx context.Context, a *app, args []string) error {
	var id int64
	if err := parseCommandFlags(idFlag(a, "book delete", &id), args); err != nil {
		return err
	}

	result, err := a.catalog.DeleteBook(ctx, id)
	if err != nil {
		return err
	}

	return printDeletion(a.out, result)
}

func runBookCopies(ctx context.Context, a *app, args []string) error {
	var id int64
	if err := parseCommandFlags(idFlag(a, "book copies", &id), args); err != nil {
		return err
	}

	copies, err := a.catalog.ListCopiesOfBook(ctx, id)
	if err != nil {
		return err
	}

	return printAll(a.out, copies, toCopyView)
}

// copies

func copyFlags(a *app, name string, c *lending.BookCopy) *flag.FlagSet {
	fs := a.flags(name)
	fs.Int64Var(&c.ID, "id", 0, "copy id (update only)")
	fs.Int64Var(&c.BookID, "book", 0, "owning book id (add only)")
	fs.StringVar(&c.Barcode, "barcode", "", "unique barcode")
	fs.StringVar(&c.Location, "location", "", "shelf location")

	return fs
}

func runCopyAdd(ctx context.Context, a *app, args []string) error {
	var c lending.BookCopy
	if err := parseCommandFlags(copyFlags(a, "copy add", &c), args); err != nil {
		return err
	}

	added, err := a.catalog.AddBookCopy(ctx, c)
	if err != nil {
		return err
	}

	return printOne(a.out, toCopyView(added))
}

func runCopyGet(ctx context.Context, a *app, args []string) error {
	var id int64
	if err := parseCommandFlags(idFlag(a, "copy get", &id), args); err != nil {
		return err
	}

	c, err := a.catalog.FindBookCopy(ctx, id)
	if err != nil {
		return err
	}

	return printOne(a.out, toCopyView(c))
}

func runCopyList(ctx context.Context, a *app, args []string) error {
	if err := parseCommandFlags(a.flags("copy list"), args); err != nil {
		return err
	}

	copies, err := a.catalog.ListBookCopies(ctx)
	if err != nil {
		return err
	}

	return printAll(a.out, copies, toCopyView)
}

func runCopyUpdate(ctx context.Context, a *app, args []string) error {
	var c lending.BookCopy
	if err := parseCommandFlags(copyFlags(a, "copy update", &c), args); err != nil {
		return err
	}

	updated, err := a.catalog.UpdateBookCopy(ctx, c)
	if err != nil {
		return err
	}

	return printOne(a.out, toCopyView(updated))
}

func runCopyDelete(ctx context.Context, a *app, args []string) error {
	var id int64
	if err := parseCommandFlags(idFlag(a, "copy delete", &id), args); err != nil {
		return err
	}

	result, err := a.catalog.DeleteBookCopy(ctx, id)
	if err != nil {
		return err
	}

	return printDeletion(a.out, result)
}

func runCopyAvailability(ctx context.Context, a *app, args []string) error {
	var id int64
	if err := parseCommandFlags(idFlag(a, "copy availability", &id), args); err != nil {
		return err
	}

	availability, err := a.catalog.CopyAvailability(ctx, id)
	if err != nil {
		return err
	}

	return a.out.print(map[string]any{"id": id, "availability": availability}, availability+"\n")
}

// loans

func runLoanCreate(ctx context.Context, a *app, args []string) error {
	var studentID int64
	var copies, borrow, due string

	fs := a.flags("loan create")
	fs.Int64Var(&studentID, "student", 0, "borrowing student id")
	fs.StringVar(&copies, "copies", "", "comma separated copy ids")
	fs.StringVar(&borrow, "borrow", "", "borrow date (yyyy-mm-dd)")
	fs.StringVar(&due, "due", "", "due date (yyyy-mm-dd)")

	if err := parseCommandFlags(fs, args); err != nil {
		return err
	}

	copyIDs, err := parseCopyIDs(copies)
	if err != nil {
		return err
	}

	borrowDate, err := parseDate(borrow)
	if err != nil {
		return err
	}

	dueDate, err := parseDate(due)
	if err != nil {
		return err
	}

	loan, err := a.engine.CreateLoan(ctx, circulation.BuildCreateLoanCommand(studentID, copyIDs, borrowDate, dueDate))
	if err != nil {
		return err
	}

	return printOne(a.out, toLoanView(loan))
}

func runLoanReturn(ctx context.Context, a *app, args []string) error {
	var id int64
	var date string

	fs := idFlag(a, "loan return", &id)
	fs.StringVar(&date, "date", "", "return date (yyyy-mm-dd), defaults to today")

	if err := parseCommandFlags(fs, args); err != nil {
		return err
	}

	returnDate, err := parseDate(date)
	if err != nil {
		return err
	}

	if err = a.engine.ReturnLoan(ctx, circulation.BuildReturnLoanCommand(id, returnDate)); err != nil {
		return err
	}

	return a.out.print(map[string]any{"id": id, "returned": true}, "returned\n")
}

func runLoanDelete(ctx context.Context, a *app, args []string) error {
	var id int64
	if err := parseCommandFlags(idFlag(a, "loan delete", &id), args); err != nil {
		return err
	}

	if err := a.engine.DeleteLoan(ctx, circulation.BuildDeleteLoanCommand(id)); err != nil {
		return err
	}

	return a.out.print(map[string]any{"id": id, "deleted": true}, "deleted\n")
}

func runLoanGet(ctx context.Context, a *app, args []string) error {
	var id int64
	if err := parseCommandFlags(idFlag(a, "loan get", &id), args); err != nil {
		return err
	}

	loan, err := a.engine.FindLoan(ctx, id)
	if err != nil {
		return err
	}

	return printOne(a.out, toLoanView(loan))
}

func runLoanList(ctx context.Context, a *app, args []string) error {
	if err := parseCommandFlags(a.flags("loan list"), args); err != nil {
		return err
	}

	loans, err := a.engine.ListLoans(ctx)
	if err != nil {
		return err
	}

	return printAll(a.out, loans, toLoanView)
}

func runLoanReceipt(ctx context.Context, a *app, args []string) error {
	var id int64
	if err := parseCommandFlags(idFlag(a, "loan receipt", &id), args); err != nil {
		return err
	}

	receipt, err := a.engine.GenerateReceipt(ctx, id)
	if err != nil {
		return err
	}

	return a.out.print(map[string]any{"id": id, "receipt": receipt}, receipt)
}

func runLoanReport(ctx context.Context, a *app, args []string) error {
	var overdueOnly bool

	fs := a.flags("loan report")
	fs.BoolVar(&overdueOnly, "overdue", false, "report only open loans past their due date")

	if err := parseCommandFlags(fs, args); err != nil {
		return err
	}

	var loans []lending.Loan
	var err error

	if overdueOnly {
		loans, err = a.engine.OverdueLoans(ctx)
	} else {
		loans, err = a.engine.ListLoans(ctx)
	}

	if err != nil {
		return err
	}

	report := circulation.GenerateReport(loans)

	return a.out.print(map[string]any{"report": report}, report)
}

func runLoanOverdue(ctx context.Context, a *app, args []string) error {
	if err := parseCommandFlags(a.flags("loan overdue"), args); err != nil {
		return err
	}

	loans, err := a.engine.OverdueLoans(ctx)
	if err != nil {
		return err
	}

	return printAll(a.out, loans, toLoanView)
}
