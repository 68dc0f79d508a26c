package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/config"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresrepo"
)

// Adapter type constants
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"

	connectTimeout = 3 * time.Second

	truncateAll = `TRUNCATE TABLE loan_book_copies, loans, book_copies, books, students RESTART IDENTITY CASCADE`
)

// Wrapper abstracts over the different database handle types.
type Wrapper interface {
	Repository() *postgresrepo.Repository
	Exec(ctx context.Context, query string) error
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing.
type PGXPoolWrapper struct {
	pool *pgxpool.Pool
	repo *postgresrepo.Repository
}

func (w *PGXPoolWrapper) Repository() *postgresrepo.Repository { return w.repo }

func (w *PGXPoolWrapper) Exec(ctx context.Context, query string) error {
	_, err := w.pool.Exec(ctx, query)
	return err
}

func (w *PGXPoolWrapper) Close() { w.pool.Close() }

// SQLDBWrapper wraps sql.DB-based testing.
type SQLDBWrapper struct {
	db   *sql.DB
	repo *postgresrepo.Repository
}

func (w *SQLDBWrapper) Repository() *postgresrepo.Repository { return w.repo }

func (w *SQLDBWrapper) Exec(ctx context.Context, query string) error {
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *SQLDBWrapper) Close() { _ = w.db.Close() }

// SQLXWrapper wraps sqlx.DB-based testing.
type SQLXWrapper struct {
	db   *sqlx.DB
	repo *postgresrepo.Repository
}

func (w *SQLXWrapper) Repository() *postgresrepo.Repository { return w.repo }

func (w *SQLXWrapper) Exec(ctx context.Context, query string) error {
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *SQLXWrapper) Close() { _ = w.db.Close() }

// CreateWrapperWithTestConfig creates the wrapper selected by ADAPTER_TYPE, applies the schema, and empties all tables.
// It skips the test if the database cannot be reached.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresrepo.Option) Wrapper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	wrapper, err := createWrapper(ctx, config.PostgresTestDSN(), options)
	if err != nil {
		t.Skipf("postgres not reachable, skipping integration test: %v", err)
	}

	t.Cleanup(wrapper.Close)

	require.NoError(t, wrapper.Exec(ctx, postgresrepo.SchemaDDL), "error applying the schema")
	CleanUp(t, wrapper)

	return wrapper
}

func createWrapper(ctx context.Context, dsn string, options []postgresrepo.Option) (Wrapper, error) {
	adapterTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	switch adapterTypeFromEnv {
	case typePGXPool, "":
		pool, err := config.NewPGXPool(ctx, dsn)
		if err != nil {
			return nil, err
		}

		repo, err := postgresrepo.NewRepositoryFromPGXPool(pool, options...)
		if err != nil {
			pool.Close()
			return nil, err
		}

		return &PGXPoolWrapper{pool: pool, repo: repo}, nil

	case typeSQLDB:
		db, err := config.NewSQLDB(ctx, dsn)
		if err != nil {
			return nil, err
		}

		repo, err := postgresrepo.NewRepositoryFromSQLDB(db, options...)
		if err != nil {
			_ = db.Close()
			return nil, err
		}

		return &SQLDBWrapper{db: db, repo: repo}, nil

	case typeSQLXDB:
		db, err := config.NewSQLXDB(ctx, dsn)
		if err != nil {
			return nil, err
		}

		repo, err := postgresrepo.NewRepositoryFromSQLX(db, options...)
		if err != nil {
			_ = db.Close()
			return nil, err
		}

		return &SQLXWrapper{db: db, repo: repo}, nil

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterTypeFromEnv))
	}
}

// CleanUp empties all lending tables and resets their identity sequences.
func CleanUp(t testing.TB, wrapper Wrapper) {
	t.Helper()

	require.NoError(t, wrapper.Exec(context.Background(), truncateAll), "error cleaning up the lending tables")
}
