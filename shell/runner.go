package shell

import (
	"context"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// Runner executes service operations against a repository: writes in a retried transaction,
// reads in a snapshot, both observed as one Operation.
type Runner struct {
	Repo         lending.Repository
	Observers    Observers
	RetryOptions []RetryOption
}

// Write runs fn in a read-write transaction and retries the whole transaction on concurrency conflicts.
func (r Runner) Write(
	ctx context.Context,
	operation string,
	fn func(ctx context.Context, tx lending.Tx) error,
	attrs ...string,
) error {
	ctx, op := r.Observers.Start(ctx, operation, attrs...)

	retry, err := RetryWithExponentialBackoff(ctx, func(ctx context.Context) error {
		return r.Repo.RunInTransaction(ctx, fn)
	}, r.retryOptionsFor(operation)...)

	return op.Finish(ctx, err, retry)
}

// Read runs fn against a consistent snapshot. Reads are not retried.
func (r Runner) Read(
	ctx context.Context,
	operation string,
	fn func(ctx context.Context, tx lending.ReadTx) error,
	attrs ...string,
) error {
	ctx, op := r.Observers.Start(ctx, operation, attrs...)
	err := r.Repo.View(ctx, fn)

	return op.Finish(ctx, err, RetryMetrics{Attempts: 1})
}

func (r Runner) retryOptionsFor(operation string) []RetryOption {
	if r.Observers.Metrics == nil {
		return r.RetryOptions
	}

	opts := make([]RetryOption, 0, len(r.RetryOptions)+1)
	opts = append(opts, r.RetryOptions...)

	return append(opts, WithMetrics(r.Observers.Metrics, operation))
}
