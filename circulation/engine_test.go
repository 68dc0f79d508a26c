package circulation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/circulation"
	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memoryrepo"
	"github.com/AntonStoeckl/library-lending-go/testutil/fixtures"
)

// today is the engine clock's calendar day in all circulation tests.
var today = fixtures.Date(2024, time.March, 10)

func clock() time.Time {
	return today.Add(15*time.Hour + 30*time.Minute)
}

func newEngine(t *testing.T, repo lending.Repository, options ...circulation.Option) *circulation.Engine {
	t.Helper()

	engine, err := circulation.NewEngine(repo, append([]circulation.Option{circulation.WithClock(clock)}, options...)...)
	require.NoError(t, err)

	return engine
}

func newRepo(t *testing.T) *memoryrepo.Repository {
	t.Helper()

	repo, err := memoryrepo.NewRepository()
	require.NoError(t, err)

	return repo
}

func findCopy(t *testing.T, repo lending.Repository, id lending.CopyID) lending.BookCopy {
	t.Helper()

	var c lending.BookCopy
	err := repo.View(context.Background(), func(ctx context.Context, tx lending.ReadTx) error {
		found, ok, err := tx.FindBookCopy(ctx, id)
		require.True(t, ok)
		c = found

		return err
	})
	require.NoError(t, err)

	return c
}

func countLoans(t *testing.T, repo lending.Repository) int {
	t.Helper()

	var loans []lending.Loan
	err := repo.View(context.Background(), func(ctx context.Context, tx lending.ReadTx) error {
		var err error
		loans, err = tx.ListLoans(ctx)

		return err
	})
	require.NoError(t, err)

	return len(loans)
}

func openLoan(student lending.Student, borrow, due time.Time, copies ...lending.BookCopy) lending.Loan {
	return lending.Loan{Student: student, Copies: copies, BorrowDate: borrow, DueDate: due}
}

func Test_NewEngine_RejectsNilRepository(t *testing.T) {
	engine, err := circulation.NewEngine(nil)

	assert.ErrorIs(t, err, lending.ErrNilRepository)
	assert.Nil(t, engine)
}

func Test_NewEngine_RejectsNilClock(t *testing.T) {
	_, err := circulation.NewEngine(newRepo(t), circulation.WithClock(nil))

	assert.ErrorIs(t, err, circulation.ErrNilClock)
}
