package main

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// printer writes results either as text lines or as indented JSON.
type printer struct {
	w    io.Writer
	json bool
}

func (p printer) print(v any, text string) error {
	if p.json {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	}

	_, err := io.WriteString(p.w, text)

	return err
}

type studentView struct {
	ID      lending.StudentID `json:"id"`
	Name    string            `json:"name"`
	Address string            `json:"address,omitempty"`
	Degree  string            `json:"degree,omitempty"`
}

func toStudentView(s lending.Student) studentView {
	return studentView{ID: s.ID, Name: s.Name, Address: s.Address, Degree: s.Degree}
}

func (v studentView) text() string {
	return fmt.Sprintf("%d\t%s\t%s\t%s\n", v.ID, v.Name, v.Address, v.Degree)
}

type bookView struct {
	ID              lending.BookID `json:"id"`
	ISBN            string         `json:"isbn,omitempty"`
	Title           string         `json:"title"`
	Authors         string         `json:"authors,omitempty"`
	Publisher       string         `json:"publisher,omitempty"`
	NumberOfPages   int            `json:"number_of_pages"`
	PublicationDate string         `json:"publication_date,omitempty"`
	Description     string         `json:"description,omitempty"`
}

func toBookView(b lending.Book) bookView {
	return bookView{
		ID:              b.ID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		Authors:         b.Authors,
		Publisher:       b.Publisher,
		NumberOfPages:   b.NumberOfPages,
		PublicationDate: lending.FormatDate(b.PublicationDate),
		Description:     b.Description,
	}
}

func (v bookView) text() string {
	return fmt.Sprintf("%d\t%s\t%s\t%s\t%d pages\n", v.ID, v.ISBN, v.Title, v.Authors, v.NumberOfPages)
}

type copyView struct {
	ID       lending.CopyID `json:"id"`
	BookID   lending.BookID `json:"book_id"`
	Barcode  string         `json:"barcode"`
	Location string         `json:"location,omitempty"`
	Status   string         `json:"status"`
}

func toCopyView(c lending.BookCopy) copyView {
	return copyView{ID: c.ID, BookID: c.BookID, Barcode: c.Barcode, Location: c.Location, Status: c.Status()}
}

func (v copyView) text() string {
	return fmt.Sprintf("%d\t%d\t%s\t%s\t%s\n", v.ID, v.BookID, v.Barcode, v.Location, v.Status)
}

type loanView struct {
	ID          lending.LoanID    `json:"id"`
	StudentID   lending.StudentID `json:"student_id"`
	StudentName string            `json:"student_name"`
	CopyIDs     []lending.CopyID  `json:"copy_ids"`
	BorrowDate  string            `json:"borrow_date"`
	DueDate     string            `json:"due_date"`
	ReturnDate  string            `json:"return_date,omitempty"`
}

func toLoanView(l lending.Loan) loanView {
	return loanView{
		ID:          l.ID,
		StudentID:   l.Student.ID,
		StudentName: l.Student.Name,
		CopyIDs:     l.CopyIDs(),
		BorrowDate:  lending.FormatDate(l.BorrowDate),
		DueDate:     lending.FormatDate(l.DueDate),
		ReturnDate:  lending.FormatDate(l.ReturnDate),
	}
}

func (v loanView) text() string {
	copies := make([]string, 0, len(v.CopyIDs))
	for _, id := range v.CopyIDs {
		copies = append(copies, fmt.Sprint(id))
	}

	returned := v.ReturnDate
	if returned == "" {
		returned = "-"
	}

	return fmt.Sprintf("%d\t%d\t%s\t[%s]\t%s\t%s\t%s\n",
		v.ID, v.StudentID, v.StudentName, strings.Join(copies, ","), v.BorrowDate, v.DueDate, returned)
}

type deletionView struct {
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

type textView interface {
	text() string
}

func printOne[V textView](p printer, v V) error {
	return p.print(v, v.text())
}

func printAll[T any, V textView](p printer, items []T, view func(T) V) error {
	views := make([]V, 0, len(items))

	var sb strings.Builder
	for _, item := range items {
		v := view(item)
		views = append(views, v)
		sb.WriteString(v.text())
	}

	return p.print(views, sb.String())
}

// printDeletion prints the outcome and turns a refused deletion into a refusedError.
func printDeletion(p printer, result lending.DeletionResult) error {
	if result.WasDeleted() {
		return p.print(deletionView{Outcome: result.Outcome}, result.Outcome+"\n")
	}

	if p.json {
		if err := p.print(deletionView{Outcome: result.Outcome, Reason: result.Err().Error()}, ""); err != nil {
			return err
		}
	}

	return refusedError{outcome: result.Outcome, reason: result.Err()}
}
