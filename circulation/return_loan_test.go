package circulation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/circulation"
	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/testutil/fixtures"
)

func Test_ReturnLoan_ClosesLoanAndReleasesCopies(t *testing.T) {
	// arrange
	repo := newRepo(t)
	lib := fixtures.SeedLibrary(t, repo, 1, 2)
	engine := newEngine(t, repo)
	loan, err := engine.CreateLoan(context.Background(), circulation.BuildCreateLoanCommand(
		lib.Students[0].ID, fixtures.CopyIDs(lib.Copies...), today, today.AddDate(0, 0, 14),
	))
	require.NoError(t, err)

	// act
	err = engine.ReturnLoan(context.Background(), circulation.BuildReturnLoanCommand(
		loan.ID, time.Date(2024, time.March, 12, 9, 0, 0, 0, time.UTC),
	))

	// assert
	require.NoError(t, err)

	returned, err := engine.FindLoan(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.True(t, returned.Returned())
	assert.Equal(t, fixtures.Date(2024, time.March, 12), returned.ReturnDate)

	for _, c := range lib.Copies {
		assert.False(t, findCopy(t, repo, c.ID).Borrowed)
	}
}

func Test_ReturnLoan_DefaultsToToday(t *testing.T) {
	// arrange
	repo := newRepo(t)
	lib := fixtures.SeedLibrary(t, repo, 1, 1)
	loan := fixtures.SeedLoan(t, repo, openLoan(lib.Students[0], today.AddDate(0, 0, -3), today, lib.Copies...))
	engine := newEngine(t, repo)

	// act
	err := engine.ReturnLoan(context.Background(), circulation.BuildReturnLoanCommand(loan.ID, time.Time{}))

	// assert
	require.NoError(t, err)

	returned, err := engine.FindLoan(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, today, returned.ReturnDate)
}

func Test_ReturnLoan_UnknownLoanIsANoOp(t *testing.T) {
	engine := newEngine(t, newRepo(t))

	err := engine.ReturnLoan(context.Background(), circulation.BuildReturnLoanCommand(42, today))

	assert.NoError(t, err)
}

func Test_ReturnLoan_AlreadyReturnedLoanTakesTheNewDateAndKeepsCopiesOfNewerLoans(t *testing.T) {
	// arrange
	repo := newRepo(t)
	lib := fixtures.SeedLibrary(t, repo, 2, 2)
	old := returnedLoan(lib.Students[0], today.AddDate(0, 0, -10), today.AddDate(0, 0, -5), today.AddDate(0, 0, -6), lib.Copies...)
	old = fixtures.SeedLoan(t, repo, old)
	fixtures.SeedLoan(t, repo, openLoan(lib.Students[1], today, today.AddDate(0, 0, 7), lib.Copies[0]))
	markBorrowed(t, repo, lib.Copies[1])
	engine := newEngine(t, repo)

	// act
	err := engine.ReturnLoan(context.Background(), circulation.BuildReturnLoanCommand(old.ID, today))

	// assert
	require.NoError(t, err)
	assert.True(t, findCopy(t, repo, lib.Copies[0].ID).Borrowed)
	assert.False(t, findCopy(t, repo, lib.Copies[1].ID).Borrowed)

	reloaded, err := engine.FindLoan(context.Background(), old.ID)
	require.NoError(t, err)
	assert.Equal(t, today, reloaded.ReturnDate)
}

func Test_DeleteLoan_RemovesLoanAndReleasesCopies(t *testing.T) {
	// arrange
	repo := newRepo(t)
	lib := fixtures.SeedLibrary(t, repo, 1, 2)
	engine := newEngine(t, repo)
	loan, err := engine.CreateLoan(context.Background(), circulation.BuildCreateLoanCommand(
		lib.Students[0].ID, fixtures.CopyIDs(lib.Copies...), today, today.AddDate(0, 0, 14),
	))
	require.NoError(t, err)

	// act
	err = engine.DeleteLoan(context.Background(), circulation.BuildDeleteLoanCommand(loan.ID))

	// assert
	require.NoError(t, err)

	_, err = engine.FindLoan(context.Background(), loan.ID)
	assert.ErrorIs(t, err, lending.ErrLoanNotFound)

	for _, c := range lib.Copies {
		assert.False(t, findCopy(t, repo, c.ID).Borrowed)
	}
}

func Test_DeleteLoan_UnknownLoanIsANoOp(t *testing.T) {
	engine := newEngine(t, newRepo(t))

	err := engine.DeleteLoan(context.Background(), circulation.BuildDeleteLoanCommand(42))

	assert.NoError(t, err)
}

func Test_DeleteLoan_ReturnedLoanReleasesItsCopies(t *testing.T) {
	// arrange
	repo := newRepo(t)
	lib := fixtures.SeedLibrary(t, repo, 1, 2)
	loan := fixtures.SeedLoan(t, repo, returnedLoan(
		lib.Students[0], today.AddDate(0, 0, -10), today.AddDate(0, 0, -5), today.AddDate(0, 0, -6), lib.Copies...,
	))
	markBorrowed(t, repo, lib.Copies...)
	engine := newEngine(t, repo)

	// act
	err := engine.DeleteLoan(context.Background(), circulation.BuildDeleteLoanCommand(loan.ID))

	// assert
	require.NoError(t, err)

	loans, err := engine.ListLoans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loans)

	for _, c := range lib.Copies {
		assert.False(t, findCopy(t, repo, c.ID).Borrowed)
	}
}

func Test_DeleteLoan_ReturnedLoanKeepsCopiesOfNewerLoans(t *testing.T) {
	// arrange
	repo := newRepo(t)
	lib := fixtures.SeedLibrary(t, repo, 2, 2)
	old := fixtures.SeedLoan(t, repo, returnedLoan(
		lib.Students[0], today.AddDate(0, 0, -10), today.AddDate(0, 0, -5), today.AddDate(0, 0, -6), lib.Copies...,
	))
	newer := fixtures.SeedLoan(t, repo, openLoan(lib.Students[1], today, today.AddDate(0, 0, 7), lib.Copies[0]))
	markBorrowed(t, repo, lib.Copies[1])
	engine := newEngine(t, repo)

	// act
	err := engine.DeleteLoan(context.Background(), circulation.BuildDeleteLoanCommand(old.ID))

	// assert
	require.NoError(t, err)
	assert.True(t, findCopy(t, repo, lib.Copies[0].ID).Borrowed)
	assert.False(t, findCopy(t, repo, lib.Copies[1].ID).Borrowed)

	stillOpen, err := engine.FindLoan(context.Background(), newer.ID)
	require.NoError(t, err)
	assert.False(t, stillOpen.Returned())
}

func returnedLoan(student lending.Student, borrow, due, returned time.Time, copies ...lending.BookCopy) lending.Loan {
	loan := openLoan(student, borrow, due, copies...)
	loan.ReturnDate = returned

	return loan
}

// markBorrowed flags copies as borrowed without a loan, as a half-finished earlier write would leave them.
func markBorrowed(t *testing.T, repo lending.Repository, copies ...lending.BookCopy) {
	t.Helper()

	err := repo.RunInTransaction(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		for _, c := range copies {
			c.Borrowed = true
			if _, err := tx.SaveBookCopy(ctx, c); err != nil {
				return err
			}
		}

		return nil
	})
	require.NoError(t, err, "error in arranging test data")
}
