package postgresrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresrepo/internal/adapters"
)

const (
	logMsgBuildQueryFailed      = "failed to build sql statement"
	logMsgDBQueryFailed         = "database query execution failed"
	logMsgDBExecFailed          = "database statement execution failed"
	logMsgScanRowFailed         = "failed to scan database row"
	logMsgCloseRowsFailed       = "failed to close database rows"
	logMsgBeginFailed           = "failed to begin transaction"
	logMsgCommitFailed          = "failed to commit transaction"
	logMsgRollbackFailed        = "failed to roll back transaction"
	logMsgConcurrencyConflict   = "concurrency conflict detected"
	logMsgTransactionRolledBack = "transaction rolled back"
	logMsgSQLExecuted           = "executed sql for: "
	logAttrError                = "error"
	logAttrQuery                = "query"
	logAttrAction               = "action"
	logAttrOperation            = "operation"
	logAttrDurationMS           = "duration_ms"
	logAttrRowsAffected         = "rows_affected"
)

// Repository is a PostgreSQL lending.Repository.
// It leverages a database adapter and supports customizable logging, metrics, and tracing.
type Repository struct {
	db               adapters.DBAdapter
	isolation        IsolationLevel
	logger           lending.Logger
	contextualLogger lending.ContextualLogger
	metricsCollector lending.MetricsCollector
	tracingCollector lending.TracingCollector
}

// NewRepositoryFromPGXPool creates a new Repository using a pgx Pool with optional configuration.
func NewRepositoryFromPGXPool(db *pgxpool.Pool, options ...Option) (*Repository, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newRepository(adapters.NewPGXAdapter(db), options)
}

// NewRepositoryFromSQLDB creates a new Repository using a sql.DB with optional configuration.
func NewRepositoryFromSQLDB(db *sql.DB, options ...Option) (*Repository, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newRepository(adapters.NewSQLAdapter(db), options)
}

// NewRepositoryFromSQLX creates a new Repository using a sqlx.DB with optional configuration.
func NewRepositoryFromSQLX(db *sqlx.DB, options ...Option) (*Repository, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newRepository(adapters.NewSQLXAdapter(db), options)
}

func newRepository(db adapters.DBAdapter, options []Option) (*Repository, error) {
	r := &Repository{
		db:        db,
		isolation: IsolationSerializable,
	}

	for _, option := range options {
		if err := option(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// RunInTransaction executes fn inside a read-write transaction at the configured isolation level.
// The transaction is committed if fn returns nil and rolled back otherwise, also if fn panics.
func (r *Repository) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx lending.Tx) error) error {
	opts := adapters.TxOptions{Isolation: r.isolation}

	return r.run(ctx, operationTransaction, opts, func(ctx context.Context, dbTx adapters.DBTx) error {
		return fn(ctx, &transaction{readTx: readTx{repo: r, db: dbTx}})
	})
}

// View executes fn inside a read-only REPEATABLE READ transaction, so all reads see one snapshot.
func (r *Repository) View(ctx context.Context, fn func(ctx context.Context, tx lending.ReadTx) error) error {
	opts := adapters.TxOptions{Isolation: adapters.RepeatableRead, ReadOnly: true}

	return r.run(ctx, operationView, opts, func(ctx context.Context, dbTx adapters.DBTx) error {
		return fn(ctx, &readTx{repo: r, db: dbTx})
	})
}

func (r *Repository) run(
	ctx context.Context,
	operation string,
	opts adapters.TxOptions,
	body func(ctx context.Context, dbTx adapters.DBTx) error,
) error {
	tracing, ctx := r.startTransactionTracing(ctx, operation)
	metrics := r.startTransactionMetrics(ctx, operation)
	start := time.Now()

	dbTx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		mapped := mapDBError(err)
		errorType := errorTypeOf(mapped, errorTypeBegin)
		r.logError(ctx, logMsgBeginFailed, err, logAttrOperation, operation)
		metrics.recordError(errorType, time.Since(start))
		tracing.finishError(errorType, time.Since(start))

		return mapped
	}

	finished := false
	defer func() {
		if !finished {
			r.rollback(ctx, dbTx, operation)
		}
	}()

	if err = body(ctx, dbTx); err != nil {
		finished = true
		r.rollback(ctx, dbTx, operation)
		r.observeRollback(ctx, operation, err)
		metrics.recordRollback(err, time.Since(start))
		tracing.finishRollback(err, time.Since(start))

		return err
	}

	finished = true

	if err = dbTx.Commit(ctx); err != nil {
		mapped := mapDBError(err)
		errorType := errorTypeOf(mapped, errorTypeCommit)
		r.observeRollback(ctx, operation, mapped)
		if errorType != errorTypeConcurrency {
			r.logError(ctx, logMsgCommitFailed, err, logAttrOperation, operation)
		}
		metrics.recordError(errorType, time.Since(start))
		tracing.finishError(errorType, time.Since(start))

		return mapped
	}

	metrics.recordSuccess(time.Since(start))
	tracing.finishSuccess(time.Since(start))

	return nil
}

func (r *Repository) rollback(ctx context.Context, dbTx adapters.DBTx, operation string) {
	if err := dbTx.Rollback(context.WithoutCancel(ctx)); err != nil {
		r.logWarn(ctx, logMsgRollbackFailed, logAttrError, err.Error(), logAttrOperation, operation)
	}
}
