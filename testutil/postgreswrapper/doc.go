// Package postgreswrapper creates PostgreSQL repositories for integration tests.
//
// The adapter is selected with the ADAPTER_TYPE environment variable (pgx.pool, sql.db, or sqlx.db,
// default pgx.pool). The database DSN comes from config.PostgresTestDSN. Tests are skipped when the
// database is not reachable.
package postgreswrapper
