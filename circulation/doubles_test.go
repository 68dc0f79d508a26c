package circulation_test

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

var errSaveLoanFailed = errors.New("disk full")

// failingSaveLoanRepository lets every write through except SaveLoan, which fails like a broken store.
type failingSaveLoanRepository struct {
	lending.Repository
}

func (r *failingSaveLoanRepository) RunInTransaction(
	ctx context.Context,
	fn func(ctx context.Context, tx lending.Tx) error,
) error {
	return r.Repository.RunInTransaction(ctx, func(ctx context.Context, tx lending.Tx) error {
		return fn(ctx, failingSaveLoanTx{Tx: tx})
	})
}

type failingSaveLoanTx struct {
	lending.Tx
}

func (failingSaveLoanTx) SaveLoan(context.Context, lending.Loan) (lending.Loan, error) {
	return lending.Loan{}, errors.Join(lending.ErrStorage, errSaveLoanFailed)
}

// conflictingRepository fails the first conflicts transactions with a concurrency conflict.
type conflictingRepository struct {
	lending.Repository
	conflicts int32
	calls     atomic.Int32
}

func (r *conflictingRepository) RunInTransaction(
	ctx context.Context,
	fn func(ctx context.Context, tx lending.Tx) error,
) error {
	if r.calls.Add(1) <= r.conflicts {
		return lending.ErrConcurrencyConflict
	}

	return r.Repository.RunInTransaction(ctx, fn)
}
