package circulation

import (
	"context"
	"strconv"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// FindLoan returns the loan with the given id or an error wrapping lending.ErrLoanNotFound.
func (e *Engine) FindLoan(ctx context.Context, loanID lending.LoanID) (lending.Loan, error) {
	var loan lending.Loan

	err := e.runner.Read(ctx, operationFindLoan, func(ctx context.Context, tx lending.ReadTx) error {
		found, ok, err := tx.FindLoan(ctx, loanID)
		if err != nil {
			return err
		}

		if !ok {
			return lending.NotFoundf(lending.ErrLoanNotFound, loanID)
		}

		loan = found

		return nil
	}, "loan_id", strconv.FormatInt(loanID, 10))

	return loan, err
}

// ListLoans returns all loans ordered by id.
func (e *Engine) ListLoans(ctx context.Context) ([]lending.Loan, error) {
	var loans []lending.Loan

	err := e.runner.Read(ctx, operationListLoans, func(ctx context.Context, tx lending.ReadTx) error {
		var err error
		loans, err = tx.ListLoans(ctx)

		return err
	})

	return loans, err
}

// OverdueLoans returns the open loans due before today, by due date.
func (e *Engine) OverdueLoans(ctx context.Context) ([]lending.Loan, error) {
	var loans []lending.Loan

	err := e.runner.Read(ctx, operationOverdueLoans, func(ctx context.Context, tx lending.ReadTx) error {
		var err error
		loans, err = tx.FindOverdueLoans(ctx, e.today())

		return err
	})

	return loans, err
}
