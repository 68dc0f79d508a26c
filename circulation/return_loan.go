package circulation

import (
	"context"
	"strconv"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// ReturnLoan records the return date of a loan and puts its copies back on the shelf.
// Returning a loan again overwrites the date. An unknown loan is left untouched.
func (e *Engine) ReturnLoan(ctx context.Context, command ReturnLoanCommand) error {
	return e.runner.Write(ctx, operationReturnLoan, func(ctx context.Context, tx lending.Tx) error {
		loan, ok, err := tx.FindLoan(ctx, command.LoanID)
		if err != nil || !ok {
			return err
		}

		if err = releaseCopies(ctx, tx, loan); err != nil {
			return err
		}

		loan.ReturnDate = command.ReturnDate
		if loan.ReturnDate.IsZero() {
			loan.ReturnDate = e.today()
		}

		_, err = tx.SaveLoan(ctx, loan)

		return err
	}, "loan_id", strconv.FormatInt(command.LoanID, 10))
}

// releaseCopies clears the borrowed flag of every copy of the loan,
// except copies that another open loan holds by now.
func releaseCopies(ctx context.Context, tx lending.Tx, loan lending.Loan) error {
	for _, c := range loan.Copies {
		holder, held, err := tx.FindOpenLoanForCopy(ctx, c.ID)
		if err != nil {
			return err
		}

		if held && holder.ID != loan.ID {
			continue
		}

		c.Borrowed = false
		if _, err = tx.SaveBookCopy(ctx, c); err != nil {
			return err
		}
	}

	return nil
}
