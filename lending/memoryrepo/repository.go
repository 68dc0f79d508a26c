package memoryrepo

import (
	"context"
	"sync"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	logMsgTransactionCommitted  = "memoryrepo: transaction committed"
	logMsgTransactionRolledBack = "memoryrepo: transaction rolled back"
	logMsgSnapshotImported      = "memoryrepo: snapshot imported"
	logAttrDurationMS           = "duration_ms"
	logAttrError                = "error"
)

// Repository is an in-memory lending.Repository.
type Repository struct {
	mu     sync.RWMutex
	state  memoryState
	logger lending.Logger
}

// Option defines a functional option for configuring a Repository.
type Option func(*Repository) error

// WithLogger sets the logger for the Repository.
func WithLogger(logger lending.Logger) Option {
	return func(r *Repository) error {
		r.logger = logger
		return nil
	}
}

// WithSnapshot seeds the Repository with the given snapshot.
func WithSnapshot(snapshot Snapshot) Option {
	return func(r *Repository) error {
		state, err := memoryStateFromSnapshot(snapshot)
		if err != nil {
			return err
		}

		r.state = state

		return nil
	}
}

// NewRepository creates an empty in-memory Repository.
func NewRepository(options ...Option) (*Repository, error) {
	r := &Repository{state: newMemoryState()}

	for _, option := range options {
		if err := option(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// RunInTransaction executes fn against a private copy of the state and commits the copy if fn returns nil.
func (r *Repository) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx lending.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	tx := &transaction{readTx: readTx{state: r.state.clone()}}

	if err := fn(ctx, tx); err != nil {
		r.logDebug(logMsgTransactionRolledBack, logAttrError, err.Error(), logAttrDurationMS, toMilliseconds(time.Since(start)))
		return err
	}

	if err := ctx.Err(); err != nil {
		r.logDebug(logMsgTransactionRolledBack, logAttrError, err.Error(), logAttrDurationMS, toMilliseconds(time.Since(start)))
		return err
	}

	r.state = tx.state
	r.logDebug(logMsgTransactionCommitted, logAttrDurationMS, toMilliseconds(time.Since(start)))

	return nil
}

// View executes fn against a copy of the committed state.
func (r *Repository) View(ctx context.Context, fn func(ctx context.Context, tx lending.ReadTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.RLock()
	snapshot := r.state.clone()
	r.mu.RUnlock()

	return fn(ctx, &readTx{state: snapshot})
}

func (r *Repository) logDebug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func toMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
