// Package fixtures seeds lending repositories with students, books, and copies for tests.
package fixtures

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// FirstStudentID is the id of the first seeded student; further students count up from it.
const FirstStudentID = lending.StudentID(1001)

// Library is the seeded state.
type Library struct {
	Students []lending.Student
	Book     lending.Book
	Copies   []lending.BookCopy
}

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Student returns a valid student with the given id.
func Student(id lending.StudentID) lending.Student {
	return lending.Student{
		ID:      id,
		Name:    fmt.Sprintf("Student %d", id),
		Address: fmt.Sprintf("%d Library Lane", id),
		Degree:  "Computer Science",
	}
}

// Book returns a valid, unsaved book.
func Book() lending.Book {
	return lending.Book{
		ISBN:            "978-0441013593",
		Title:           "Dune",
		Authors:         "Frank Herbert",
		Publisher:       "Ace",
		NumberOfPages:   896,
		PublicationDate: Date(1965, time.August, 1),
		Description:     "Desert planet",
	}
}

// Barcode returns the barcode of the n-th seeded copy, starting at zero.
func Barcode(n int) string {
	return fmt.Sprintf("BC-%04d", n+1)
}

// SeedLibrary stores the given number of students and one book with the given number of copies.
func SeedLibrary(t testing.TB, repo lending.Repository, students, copies int) Library {
	t.Helper()

	var lib Library

	err := repo.RunInTransaction(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		lib = Library{}

		for i := 0; i < students; i++ {
			s, err := tx.SaveStudent(ctx, Student(FirstStudentID+lending.StudentID(i)))
			if err != nil {
				return err
			}

			lib.Students = append(lib.Students, s)
		}

		book, err := tx.SaveBook(ctx, Book())
		if err != nil {
			return err
		}

		lib.Book = book

		for i := 0; i < copies; i++ {
			c, err := tx.SaveBookCopy(ctx, lending.BookCopy{
				BookID:   book.ID,
				Barcode:  Barcode(i),
				Location: fmt.Sprintf("Shelf %d", i%3+1),
			})
			if err != nil {
				return err
			}

			lib.Copies = append(lib.Copies, c)
		}

		return nil
	})
	require.NoError(t, err, "error in arranging test data")

	return lib
}

// SeedLoan stores an open or returned loan directly, bypassing the lending policy.
func SeedLoan(t testing.TB, repo lending.Repository, loan lending.Loan) lending.Loan {
	t.Helper()

	var saved lending.Loan

	err := repo.RunInTransaction(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		var err error

		if !loan.Returned() {
			for _, c := range loan.Copies {
				c.Borrowed = true
				if _, err = tx.SaveBookCopy(ctx, c); err != nil {
					return err
				}
			}
		}

		saved, err = tx.SaveLoan(ctx, loan)

		return err
	})
	require.NoError(t, err, "error in arranging test data")

	return saved
}

// CopyIDs returns the ids of the given copies.
func CopyIDs(copies ...lending.BookCopy) []lending.CopyID {
	ids := make([]lending.CopyID, 0, len(copies))
	for _, c := range copies {
		ids = append(ids, c.ID)
	}

	return ids
}
