package memoryrepo_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/memoryrepo"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type seeded struct {
	student lending.Student
	book    lending.Book
	copies  []lending.BookCopy
}

func seed(t *testing.T, repo *memoryrepo.Repository, copies int) seeded {
	t.Helper()

	var out seeded
	err := repo.RunInTransaction(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		var err error

		out.student, err = tx.SaveStudent(ctx, lending.Student{ID: 1001, Name: "Ada", Degree: "CS"})
		if err != nil {
			return err
		}

		out.book, err = tx.SaveBook(ctx, lending.Book{Title: "Dune", NumberOfPages: 412})
		if err != nil {
			return err
		}

		for i := 0; i < copies; i++ {
			c, err := tx.SaveBookCopy(ctx, lending.BookCopy{BookID: out.book.ID, Barcode: "BC-" + string(rune('A'+i))})
			if err != nil {
				return err
			}

			out.copies = append(out.copies, c)
		}

		return nil
	})
	require.NoError(t, err)

	return out
}

func Test_RunInTransaction_CommitsOnSuccess(t *testing.T) {
	// arrange
	ctx := context.Background()
	repo, err := memoryrepo.NewRepository()
	require.NoError(t, err)
	s := seed(t, repo, 2)

	// act
	var saved lending.Loan
	err = repo.RunInTransaction(ctx, func(ctx context.Context, tx lending.Tx) error {
		saved, err = tx.SaveLoan(ctx, lending.Loan{
			Student:    s.student,
			Copies:     []lending.BookCopy{s.copies[1], s.copies[0]},
			BorrowDate: date(2024, time.March, 1),
			DueDate:    date(2024, time.March, 15),
		})

		return err
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, lending.LoanID(1), saved.ID)

	err = repo.View(ctx, func(ctx context.Context, tx lending.ReadTx) error {
		loan, ok, err := tx.FindLoan(ctx, saved.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, s.student, loan.Student)
		assert.Equal(t, []lending.CopyID{s.copies[0].ID, s.copies[1].ID}, loan.CopyIDs())
		assert.False(t, loan.Returned())

		active, err := tx.CountActiveCopiesForStudent(ctx, s.student.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, active)

		return nil
	})
	require.NoError(t, err)
}

func Test_RunInTransaction_DiscardsAllChangesOnError(t *testing.T) {
	// arrange
	ctx := context.Background()
	repo, err := memoryrepo.NewRepository()
	require.NoError(t, err)
	s := seed(t, repo, 1)
	boom := errors.New("boom")

	// act
	err = repo.RunInTransaction(ctx, func(ctx context.Context, tx lending.Tx) error {
		c := s.copies[0]
		c.Borrowed = true
		if _, err := tx.SaveBookCopy(ctx, c); err != nil {
			return err
		}

		return boom
	})

	// assert
	assert.ErrorIs(t, err, boom)

	err = repo.View(ctx, func(ctx context.Context, tx lending.ReadTx) error {
		c, ok, err := tx.FindBookCopy(ctx, s.copies[0].ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.False(t, c.Borrowed)

		return nil
	})
	require.NoError(t, err)
}

func Test_RunInTransaction_DiscardsAllChangesOnPanic(t *testing.T) {
	// arrange
	ctx := context.Background()
	repo, err := memoryrepo.NewRepository()
	require.NoError(t, err)

	// act
	assert.Panics(t, func() {
		_ = repo.RunInTransaction(ctx, func(ctx context.Context, tx lending.Tx) error {
			_, _ = tx.SaveStudent(ctx, lending.Student{ID: 7, Name: "Grace"})
			panic("unexpected")
		})
	})

	// assert
	err = repo.View(ctx, func(ctx context.Context, tx lending.ReadTx) error {
		_, ok, err := tx.FindStudent(ctx, 7)
		require.NoError(t, err)
		assert.False(t, ok)

		return nil
	})
	require.NoError(t, err)
}

func Test_RunInTransaction_RespectsCanceledContext(t *testing.T) {
	repo, err := memoryrepo.NewRepository()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err = repo.RunInTransaction(ctx, func(context.Context, lending.Tx) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func Test_SaveLoan_UpdatesOnlyTheReturnDate(t *testing.T) {
	// arrange
	ctx := context.Background()
	repo, err := memoryrepo.NewRepository()
	require.NoError(t, err)
	s := seed(t, repo, 1)

	var created lending.Loan
	err = repo.RunInTransaction(ctx, func(ctx context.Context, tx lending.Tx) error {
		created, err = tx.SaveLoan(ctx, lending.Loan{
			Student:    s.student,
			Copies:     s.copies,
			BorrowDate: date(2024, time.March, 1),
			DueDate:    date(2024, time.March, 15),
		})

		return err
	})
	require.NoError(t, err)

	// act
	err = repo.RunInTransaction(ctx, func(ctx context.Context, tx lending.Tx) error {
		changed := created
		changed.DueDate = date(2030, time.January, 1)
		changed.ReturnDate = time.Date(2024, time.March, 10, 17, 0, 0, 0, time.UTC)
		_, err := tx.SaveLoan(ctx, changed)

		return err
	})
	require.NoError(t, err)

	// assert
	err = repo.View(ctx, func(ctx context.Context, tx lending.ReadTx) error {
		loan, _, err := tx.FindLoan(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.March, 15), loan.DueDate)
		assert.Equal(t, date(2024, time.March, 10), loan.ReturnDate)

		open, err := tx.FindOpenLoansForStudent(ctx, s.student.ID)
		require.NoError(t, err)
		assert.Empty(t, open)

		history, err := tx.CountLoansForCopy(ctx, s.copies[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 1, history)

		return nil
	})
	require.NoError(t, err)
}

func Test_SaveBookCopy_RejectsDuplicateBarcode(t *testing.T) {
	ctx := context.Background()
	repo, err := memoryrepo.NewRepository()
	require.NoError(t, err)
	s := seed(t, repo, 1)

	err = repo.RunInTransaction(ctx, func(ctx context.Context, tx lending.Tx) error {
		_, err := tx.SaveBookCopy(ctx, lending.BookCopy{BookID: s.book.ID, Barcode: s.copies[0].Barcode})
		return err
	})

	assert.ErrorIs(t, err, lending.ErrDuplicateBarcode)
}

func Test_FindOverdueLoans(t *testing.T) {
	// arrange
	ctx := context.Background()
	repo, err := memoryrepo.NewRepository()
	require.NoError(t, err)
	s := seed(t, repo, 3)

	err = repo.RunInTransaction(ctx, func(ctx context.Context, tx lending.Tx) error {
		for i, due := range []time.Time{date(2024, time.March, 9), date(2024, time.March, 10), date(2024, time.March, 1)} {
			if _, err := tx.SaveLoan(ctx, lending.Loan{
				Student:    s.student,
				Copies:     []lending.BookCopy{s.copies[i]},
				BorrowDate: date(2024, time.February, 1),
				DueDate:    due,
			}); err != nil {
				return err
			}
		}

		return nil
	})
	require.NoError(t, err)

	// act
	var overdue []lending.Loan
	err = repo.View(ctx, func(ctx context.Context, tx lending.ReadTx) error {
		overdue, err = tx.FindOverdueLoans(ctx, time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC))
		return err
	})

	// assert
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.Equal(t, lending.LoanID(3), overdue[0].ID)
	assert.Equal(t, lending.LoanID(1), overdue[1].ID)
}

func Test_DeleteBookCopyRecord_RemovesLoanMembership(t *testing.T) {
	ctx := context.Background()
	repo, err := memoryrepo.NewRepository()
	require.NoError(t, err)
	s := seed(t, repo, 2)

	err = repo.RunInTransaction(ctx, func(ctx context.Context, tx lending.Tx) error {
		loan, err := tx.SaveLoan(ctx, lending.Loan{
			Student: s.student, Copies: s.copies,
			BorrowDate: date(2024, time.March, 1), DueDate: date(2024, time.March, 2),
			ReturnDate: date(2024, time.March, 2),
		})
		if err != nil {
			return err
		}

		if err := tx.DeleteBookCopyRecord(ctx, s.copies[0].ID); err != nil {
			return err
		}

		reloaded, _, err := tx.FindLoan(ctx, loan.ID)
		require.NoError(t, err)
		assert.Equal(t, []lending.CopyID{s.copies[1].ID}, reloaded.CopyIDs())

		return nil
	})
	require.NoError(t, err)
}

func Test_Snapshot_RoundTrip(t *testing.T) {
	// arrange
	ctx := context.Background()
	repo, err := memoryrepo.NewRepository()
	require.NoError(t, err)
	s := seed(t, repo, 2)

	err = repo.RunInTransaction(ctx, func(ctx context.Context, tx lending.Tx) error {
		_, err := tx.SaveLoan(ctx, lending.Loan{
			Student: s.student, Copies: s.copies[:1],
			BorrowDate: date(2024, time.March, 1), DueDate: date(2024, time.March, 15),
		})

		return err
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, repo.WriteSnapshot(&buf))

	// act
	restored, err := memoryrepo.NewRepository()
	require.NoError(t, err)
	require.NoError(t, restored.ReadSnapshot(&buf))

	// assert
	assert.Equal(t, repo.ExportSnapshot(), restored.ExportSnapshot())

	err = restored.RunInTransaction(ctx, func(ctx context.Context, tx lending.Tx) error {
		c, err := tx.SaveBookCopy(ctx, lending.BookCopy{BookID: s.book.ID, Barcode: "NEW"})
		require.NoError(t, err)
		assert.Equal(t, lending.CopyID(3), c.ID)

		return nil
	})
	require.NoError(t, err)
}

func Test_ImportSnapshot_RejectsDanglingReferences(t *testing.T) {
	repo, err := memoryrepo.NewRepository()
	require.NoError(t, err)

	err = repo.ImportSnapshot(memoryrepo.Snapshot{
		Loans: []memoryrepo.SnapshotLoan{{ID: 1, StudentID: 99}},
	})

	assert.ErrorIs(t, err, memoryrepo.ErrInvalidSnapshot)
}

func Test_ReadSnapshot_RejectsMalformedJSON(t *testing.T) {
	repo, err := memoryrepo.NewRepository()
	require.NoError(t, err)

	err = repo.ReadSnapshot(bytes.NewBufferString(`{"students": [`))

	assert.ErrorIs(t, err, memoryrepo.ErrInvalidSnapshot)
}
