package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/testutil/fixtures"
)

func Test_AddBookCopy_AddsAnAvailableCopy(t *testing.T) {
	// arrange
	repo := newRepo(t)
	lib := fixtures.SeedLibrary(t, repo, 0, 0)
	service := newService(t, repo)

	// act
	added, err := service.AddBookCopy(context.Background(), lending.BookCopy{
		ID: 77, BookID: lib.Book.ID, Barcode: " BC-9 ", Location: "Basement", Borrowed: true,
	})

	// assert
	require.NoError(t, err)
	assert.NotEqual(t, lending.CopyID(77), added.ID)
	assert.Equal(t, "BC-9", added.Barcode)
	assert.False(t, added.Borrowed)

	found, err := service.FindBookCopy(context.Background(), added.ID)
	require.NoError(t, err)
	assert.Equal(t, added, found)
}

func Test_AddBookCopy_Rejections(t *testing.T) {
	repo := newRepo(t)
	lib := fixtures.SeedLibrary(t, repo, 0, 1)
	service := newService(t, repo)

	testCases := []struct {
		name     string
		bookCopy lending.BookCopy
		expected error
	}{
		{name: "missing book", bookCopy: lending.BookCopy{Barcode: "X"}, expected: lending.ErrInvalidBookCopy},
		{name: "blank barcode", bookCopy: lending.BookCopy{BookID: lib.Book.ID, Barcode: " "}, expected: lending.ErrInvalidBookCopy},
		{name: "unknown book", bookCopy: lending.BookCopy{BookID: lib.Book.ID + 1, Barcode: "X"}, expected: lending.ErrBookNotFound},
		{name: "duplicate barcode", bookCopy: lending.BookCopy{BookID: lib.Book.ID, Barcode: fixtures.Barcode(0)}, expected: lending.ErrDuplicateBarcode},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.AddBookCopy(context.Background(), tc.bookCopy)

			assert.ErrorIs(t, err, tc.expected)
		})
	}

	copies, err := service.ListBookCopies(context.Background())
	require.NoError(t, err)
	assert.Len(t, copies, 1)
}

func Test_UpdateBookCopy_ChangesBarcodeAndLocationOnly(t *testing.T) {
	// arrange
	repo := newRepo(t)
	lib := fixtures.SeedLibrary(t, repo, 1, 1)
	fixtures.SeedLoan(t, repo, lending.Loan{
		Student: lib.Students[0], Copies: lib.Copies, BorrowDate: borrowDate, DueDate: dueDate,
	})
	service := newService(t, repo)

	// act
	updated, err := service.UpdateBookCopy(context.Background(), lending.BookCopy{
		ID: lib.Copies[0].ID, BookID: lib.Book.ID + 5, Barcode: "NEW-1", Location: "Annex", Borrowed: false,
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, lending.BookCopy{
		ID: lib.Copies[0].ID, BookID: lib.Book.ID, Barcode: "NEW-1", Location: "Annex", Borrowed: true,
	}, updated)
}

func Test_UpdateBookCopy_KeepsBarcodesUnique(t *testing.T) {
	// arrange
	repo := newRepo(t)
	lib := fixtures.SeedLibrary(t, repo, 0, 2)
	service := newService(t, repo)

	// act
	sameBarcode := lib.Copies[0]
	sameBarcode.Location = "Annex"
	_, keepErr := service.UpdateBookCopy(context.Background(), sameBarcode)

	takenBarcode := lib.Copies[0]
	takenBarcode.Barcode = lib.Copies[1].Barcode
	_, takenErr := service.UpdateBookCopy(context.Background(), takenBarcode)

	// assert
	assert.NoError(t, keepErr)
	assert.ErrorIs(t, takenErr, lending.ErrDuplicateBarcode)
}

func Test_UpdateBookCopy_ReportsUnknownCopy(t *testing.T) {
	service := newService(t, newRepo(t))

	_, err := service.UpdateBookCopy(context.Background(), lending.BookCopy{ID: 5, Barcode: "X"})

	assert.ErrorIs(t, err, lending.ErrBookCopyNotFound)
}

func Test_DeleteBookCopy_DeletesCopyWithoutHistory(t *testing.T) {
	// arrange
	repo := newRepo(t)
	lib := fixtures.SeedLibrary(t, repo, 0, 2)
	service := newService(t, repo)

	// act
	result, err := service.DeleteBookCopy(context.Background(), lib.Copies[0].ID)

	// assert
	require.NoError(t, err)
	assert.True(t, result.WasDeleted())

	copies, err := service.ListCopiesOfBook(context.Background(), lib.Book.ID)
	require.NoError(t, err)
	assert.Equal(t, lib.Copies[1:], copies)
}

func Test_DeleteBookCopy_Guards(t *testing.T) {
	testCases := []struct {
		name     string
		returned bool
		expected error
	}{
		{name: "borrowed", expected: lending.ErrBookCopyBorrowed},
		{name: "returned loan history", returned: true, expected: lending.ErrBookCopyHasLoanHistory},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			repo := newRepo(t)
			lib := fixtures.SeedLibrary(t, repo, 1, 1)
			loan := lending.Loan{Student: lib.Students[0], Copies: lib.Copies, BorrowDate: borrowDate, DueDate: dueDate}
			if tc.returned {
				loan.ReturnDate = returnDate
			}
			fixtures.SeedLoan(t, repo, loan)
			service := newService(t, repo)

			// act
			result, err := service.DeleteBookCopy(context.Background(), lib.Copies[0].ID)

			// assert
			require.NoError(t, err)
			assert.True(t, result.IsBlocked())
			assert.ErrorIs(t, result.Err(), tc.expected)

			_, err = service.FindBookCopy(context.Background(), lib.Copies[0].ID)
			assert.NoError(t, err)
		})
	}
}

func Test_DeleteBookCopy_ReportsUnknownCopyAsNotFound(t *testing.T) {
	service := newService(t, newRepo(t))

	result, err := service.DeleteBookCopy(context.Background(), 8)

	require.NoError(t, err)
	assert.True(t, result.IsNotFound())
	assert.ErrorIs(t, result.Err(), lending.ErrBookCopyNotFound)
}

// A copy with loan history cannot be deleted on its own, but it goes away together with its book.
func Test_DeleteGuards_CopyHistoryBlocksCopyButNotBook(t *testing.T) {
	// arrange
	repo := newRepo(t)
	lib := fixtures.SeedLibrary(t, repo, 1, 1)
	fixtures.SeedLoan(t, repo, lending.Loan{
		Student: lib.Students[0], Copies: lib.Copies, BorrowDate: borrowDate, DueDate: dueDate, ReturnDate: returnDate,
	})
	service := newService(t, repo)

	// act
	copyResult, err := service.DeleteBookCopy(context.Background(), lib.Copies[0].ID)
	require.NoError(t, err)
	bookResult, err := service.DeleteBook(context.Background(), lib.Book.ID)
	require.NoError(t, err)

	// assert
	assert.ErrorIs(t, copyResult.Err(), lending.ErrBookCopyHasLoanHistory)
	assert.True(t, bookResult.WasDeleted())

	_, err = service.FindBookCopy(context.Background(), lib.Copies[0].ID)
	assert.ErrorIs(t, err, lending.ErrBookCopyNotFound)
}

func Test_CopyAvailability(t *testing.T) {
	// arrange
	repo := newRepo(t)
	lib := fixtures.SeedLibrary(t, repo, 1, 3)
	fixtures.SeedLoan(t, repo, lending.Loan{
		Student: lib.Students[0], Copies: lib.Copies[1:2], BorrowDate: borrowDate, DueDate: dueDate,
	})

	orphan := lib.Copies[2]
	orphan.Borrowed = true
	err := repo.RunInTransaction(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		_, err := tx.SaveBookCopy(ctx, orphan)
		return err
	})
	require.NoError(t, err)

	service := newService(t, repo)

	testCases := []struct {
		name     string
		copyID   lending.CopyID
		expected string
	}{
		{name: "on the shelf", copyID: lib.Copies[0].ID, expected: "Available"},
		{name: "in an open loan", copyID: lib.Copies[1].ID, expected: "Borrowed. Due on: 2024-03-20"},
		{name: "flagged without loan", copyID: lib.Copies[2].ID, expected: "Borrowed but no active loan found."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			availability, err := service.CopyAvailability(context.Background(), tc.copyID)

			// assert
			require.NoError(t, err)
			assert.Equal(t, tc.expected, availability)
		})
	}

	_, err = service.CopyAvailability(context.Background(), lib.Copies[2].ID+1)
	assert.ErrorIs(t, err, lending.ErrBookCopyNotFound)
}
