package adapters

import "context"

// IsolationLevel is the transaction isolation level requested from the database.
type IsolationLevel int

const (
	// Serializable is the PostgreSQL SERIALIZABLE isolation level.
	Serializable IsolationLevel = iota
	// RepeatableRead is the PostgreSQL REPEATABLE READ isolation level.
	RepeatableRead
)

// TxOptions configures a new transaction.
type TxOptions struct {
	Isolation IsolationLevel
	ReadOnly  bool
}

// DBAdapter defines the interface for database operations needed by the repository.
type DBAdapter interface {
	BeginTx(ctx context.Context, opts TxOptions) (DBTx, error)
}

// DBTx is an open database transaction.
type DBTx interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
