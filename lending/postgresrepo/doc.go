// Package postgresrepo provides a PostgreSQL implementation of lending.Repository.
//
// The repository works with three database adapters:
//   - pgx.Pool: NewRepositoryFromPGXPool
//   - database/sql with lib/pq: NewRepositoryFromSQLDB
//   - sqlx.DB: NewRepositoryFromSQLX
//
// Read-write transactions run at SERIALIZABLE by default (REPEATABLE READ can be configured).
// LockStudent issues SELECT ... FOR UPDATE, so concurrent loan decisions for the same student
// are serialized in the database. Serialization failures and deadlocks surface as
// lending.ErrConcurrencyConflict and can be retried.
//
// All SQL is built with goqu in prepared mode. The expected schema is available as SchemaDDL.
//
// Example:
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	repo, err := postgresrepo.NewRepositoryFromPGXPool(pool, postgresrepo.WithLogger(logger))
package postgresrepo
