package postgresrepo_test

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresrepo"
	"github.com/AntonStoeckl/library-lending-go/testutil/fixtures"
	"github.com/AntonStoeckl/library-lending-go/testutil/observability/testdoubles"
	. "github.com/AntonStoeckl/library-lending-go/testutil/postgreswrapper" //nolint:revive
)

func Test_FactoryFunctions_ShouldFail_WithNilDatabaseConnection(t *testing.T) {
	testCases := []struct {
		name        string
		factoryFunc func() (*postgresrepo.Repository, error)
	}{
		{
			name: "NewRepositoryFromPGXPool with nil",
			factoryFunc: func() (*postgresrepo.Repository, error) {
				return postgresrepo.NewRepositoryFromPGXPool((*pgxpool.Pool)(nil))
			},
		},
		{
			name: "NewRepositoryFromSQLDB with nil",
			factoryFunc: func() (*postgresrepo.Repository, error) {
				return postgresrepo.NewRepositoryFromSQLDB((*sql.DB)(nil))
			},
		},
		{
			name: "NewRepositoryFromSQLX with nil",
			factoryFunc: func() (*postgresrepo.Repository, error) {
				return postgresrepo.NewRepositoryFromSQLX((*sqlx.DB)(nil))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo, err := tc.factoryFunc()

			assert.ErrorIs(t, err, postgresrepo.ErrNilDatabaseConnection)
			assert.Nil(t, repo)
		})
	}
}

func Test_FactoryFunctions_ShouldApplyOptions(t *testing.T) {
	// sql.Open does not connect, so no database is needed here
	db, err := sql.Open("postgres", "postgres://nobody@localhost:1/none?sslmode=disable")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = postgresrepo.NewRepositoryFromSQLDB(db, postgresrepo.WithLogger(slog.Default()))
	assert.NoError(t, err)

	_, err = postgresrepo.NewRepositoryFromSQLDB(db, postgresrepo.WithIsolationLevel(postgresrepo.IsolationLevel(7)))
	assert.ErrorIs(t, err, postgresrepo.ErrUnsupportedIsolationLevel)
}

func Test_Postgres_SaveAndFindLoan(t *testing.T) {
	// setup
	wrapper := CreateWrapperWithTestConfig(t)
	repo := wrapper.Repository()
	ctx := context.Background()

	// arrange
	lib := fixtures.SeedLibrary(t, repo, 1, 3)

	// act
	saved := fixtures.SeedLoan(t, repo, lending.Loan{
		Student:    lib.Students[0],
		Copies:     []lending.BookCopy{lib.Copies[2], lib.Copies[0]},
		BorrowDate: fixtures.Date(2024, time.March, 1),
		DueDate:    fixtures.Date(2024, time.March, 15),
	})

	// assert
	err := repo.View(ctx, func(ctx context.Context, tx lending.ReadTx) error {
		loan, ok, err := tx.FindLoan(ctx, saved.ID)
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, lib.Students[0], loan.Student)
		assert.Equal(t, []lending.CopyID{lib.Copies[0].ID, lib.Copies[2].ID}, loan.CopyIDs())
		assert.True(t, loan.Copies[0].Borrowed)
		assert.Equal(t, fixtures.Date(2024, time.March, 1), loan.BorrowDate)
		assert.Equal(t, fixtures.Date(2024, time.March, 15), loan.DueDate)
		assert.False(t, loan.Returned())

		active, err := tx.CountActiveCopiesForStudent(ctx, lib.Students[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 2, active)

		openLoan, ok, err := tx.FindOpenLoanForCopy(ctx, lib.Copies[2].ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, saved.ID, openLoan.ID)

		_, ok, err = tx.FindOpenLoanForCopy(ctx, lib.Copies[1].ID)
		require.NoError(t, err)
		assert.False(t, ok)

		return nil
	})
	require.NoError(t, err)
}

func Test_Postgres_SaveLoan_UpdatesOnlyReturnDate(t *testing.T) {
	// setup
	wrapper := CreateWrapperWithTestConfig(t)
	repo := wrapper.Repository()
	ctx := context.Background()

	// arrange
	lib := fixtures.SeedLibrary(t, repo, 1, 1)
	saved := fixtures.SeedLoan(t, repo, lending.Loan{
		Student:    lib.Students[0],
		Copies:     lib.Copies,
		BorrowDate: fixtures.Date(2024, time.March, 1),
		DueDate:    fixtures.Date(2024, time.March, 15),
	})

	// act
	err := repo.RunInTransaction(ctx, func(ctx context.Context, tx lending.Tx) error {
		changed := saved
		changed.DueDate = fixtures.Date(2030, time.January, 1)
		changed.ReturnDate = fixtures.Date(2024, time.March, 12)
		_, err := tx.SaveLoan(ctx, changed)

		return err
	})
	require.NoError(t, err)

	// assert
	err = repo.View(ctx, func(ctx context.Context, tx lending.ReadTx) error {
		loan, _, err := tx.FindLoan(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, fixtures.Date(2024, time.March, 15), loan.DueDate)
		assert.Equal(t, fixtures.Date(2024, time.March, 12), loan.ReturnDate)

		open, err := tx.FindOpenLoansForStudent(ctx, lib.Students[0].ID)
		require.NoError(t, err)
		assert.Empty(t, open)

		count, err := tx.CountLoansForStudent(ctx, lib.Students[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		return nil
	})
	require.NoError(t, err)
}

func Test_Postgres_RollbackDiscardsAllWrites(t *testing.T) {
	// setup
	wrapper := CreateWrapperWithTestConfig(t)
	repo := wrapper.Repository()
	ctx := context.Background()

	// arrange
	lib := fixtures.SeedLibrary(t, repo, 1, 1)

	// act
	err := repo.RunInTransaction(ctx, func(ctx context.Context, tx lending.Tx) error {
		c := lib.Copies[0]
		c.Borrowed = true
		if _, err := tx.SaveBookCopy(ctx, c); err != nil {
			return err
		}

		return lending.ErrMaxDurationExceeded
	})

	// assert
	assert.ErrorIs(t, err, lending.ErrMaxDurationExceeded)

	err = repo.View(ctx, func(ctx context.Context, tx lending.ReadTx) error {
		c, ok, err := tx.FindBookCopy(ctx, lib.Copies[0].ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.False(t, c.Borrowed)

		return nil
	})
	require.NoError(t, err)
}

func Test_Postgres_DuplicateBarcodeIsAConflict(t *testing.T) {
	// setup
	wrapper := CreateWrapperWithTestConfig(t)
	repo := wrapper.Repository()

	// arrange
	lib := fixtures.SeedLibrary(t, repo, 0, 1)

	// act
	err := repo.RunInTransaction(context.Background(), func(ctx context.Context, tx lending.Tx) error {
		_, err := tx.SaveBookCopy(ctx, lending.BookCopy{BookID: lib.Book.ID, Barcode: lib.Copies[0].Barcode})
		return err
	})

	// assert
	assert.ErrorIs(t, err, lending.ErrDuplicateBarcode)
	assert.True(t, lending.IsConflict(err))
}

func Test_Postgres_DeleteBookCopyRecord_CascadesLoanMembership(t *testing.T) {
	// setup
	wrapper := CreateWrapperWithTestConfig(t)
	repo := wrapper.Repository()
	ctx := context.Background()

	// arrange
	lib := fixtures.SeedLibrary(t, repo, 1, 2)
	saved := fixtures.SeedLoan(t, repo, lending.Loan{
		Student:    lib.Students[0],
		Copies:     lib.Copies,
		BorrowDate: fixtures.Date(2024, time.March, 1),
		DueDate:    fixtures.Date(2024, time.March, 2),
		ReturnDate: fixtures.Date(2024, time.March, 2),
	})

	// act
	err := repo.RunInTransaction(ctx, func(ctx context.Context, tx lending.Tx) error {
		return tx.DeleteBookCopyRecord(ctx, lib.Copies[0].ID)
	})
	require.NoError(t, err)

	// assert
	err = repo.View(ctx, func(ctx context.Context, tx lending.ReadTx) error {
		loan, ok, err := tx.FindLoan(ctx, saved.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []lending.CopyID{lib.Copies[1].ID}, loan.CopyIDs())

		history, err := tx.CountLoansForCopy(ctx, lib.Copies[0].ID)
		require.NoError(t, err)
		assert.Zero(t, history)

		return nil
	})
	require.NoError(t, err)
}

func Test_Postgres_FindOverdueLoans(t *testing.T) {
	// setup
	wrapper := CreateWrapperWithTestConfig(t)
	repo := wrapper.Repository()

	// arrange
	lib := fixtures.SeedLibrary(t, repo, 1, 3)
	for i, due := range []time.Time{
		fixtures.Date(2024, time.March, 9),
		fixtures.Date(2024, time.March, 10),
		fixtures.Date(2024, time.March, 1),
	} {
		fixtures.SeedLoan(t, repo, lending.Loan{
			Student:    lib.Students[0],
			Copies:     []lending.BookCopy{lib.Copies[i]},
			BorrowDate: fixtures.Date(2024, time.February, 1),
			DueDate:    due,
		})
	}

	// act
	var overdue []lending.Loan
	err := repo.View(context.Background(), func(ctx context.Context, tx lending.ReadTx) error {
		var err error
		overdue, err = tx.FindOverdueLoans(ctx, time.Date(2024, time.March, 10, 23, 0, 0, 0, time.UTC))
		return err
	})

	// assert
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.Equal(t, fixtures.Date(2024, time.March, 1), overdue[0].DueDate)
	assert.Equal(t, fixtures.Date(2024, time.March, 9), overdue[1].DueDate)
}

func Test_Postgres_LogsSQLAndRecordsMetrics(t *testing.T) {
	// setup
	logHandler := testdoubles.NewLogHandlerSpy(false)
	metrics := testdoubles.NewMetricsCollectorSpy(true)
	tracing := testdoubles.NewTracingCollectorSpy(true)
	wrapper := CreateWrapperWithTestConfig(t,
		postgresrepo.WithLogger(slog.New(logHandler)),
		postgresrepo.WithMetrics(metrics),
		postgresrepo.WithTracing(tracing),
	)
	repo := wrapper.Repository()

	// act
	err := repo.View(context.Background(), func(ctx context.Context, tx lending.ReadTx) error {
		_, err := tx.ListStudents(ctx)
		return err
	})

	// assert
	require.NoError(t, err)
	assert.True(t, logHandler.HasLogWithAttr(slog.LevelDebug, "executed sql for: list_students", "duration_ms"))
	assert.True(t, metrics.HasDurationRecordForMetric("lending_repository_transaction_duration_seconds").
		WithOperation("view").WithStatus("success").Assert())
	assert.True(t, tracing.HasSpanWithStatus("lending.repository.view", "success"))
}
