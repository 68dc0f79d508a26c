package circulation

import (
	"context"
	"strconv"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// DeleteLoan removes a loan record and releases its copies, open or returned,
// unless another open loan holds them.
// Deleting an unknown loan is a no-op.
func (e *Engine) DeleteLoan(ctx context.Context, command DeleteLoanCommand) error {
	return e.runner.Write(ctx, operationDeleteLoan, func(ctx context.Context, tx lending.Tx) error {
		loan, ok, err := tx.FindLoan(ctx, command.LoanID)
		if err != nil || !ok {
			return err
		}

		if err = releaseCopies(ctx, tx, loan); err != nil {
			return err
		}

		return tx.DeleteLoanRecord(ctx, loan.ID)
	}, "loan_id", strconv.FormatInt(command.LoanID, 10))
}
