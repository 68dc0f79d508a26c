package circulation

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const notYetReturned = "Not yet returned"

// GenerateReceipt renders the receipt of a loan, listing its copies by ascending copy id.
func (e *Engine) GenerateReceipt(ctx context.Context, loanID lending.LoanID) (string, error) {
	var receipt string

	err := e.runner.Read(ctx, operationGenerateReceipt, func(ctx context.Context, tx lending.ReadTx) error {
		loan, ok, err := tx.FindLoan(ctx, loanID)
		if err != nil {
			return err
		}

		if !ok {
			return lending.NotFoundf(lending.ErrLoanNotFound, loanID)
		}

		titles := make(map[lending.BookID]string)
		for _, c := range loan.Copies {
			if _, seen := titles[c.BookID]; seen {
				continue
			}

			book, found, err := tx.FindBook(ctx, c.BookID)
			if err != nil {
				return err
			}

			if found {
				titles[c.BookID] = book.Title
			}
		}

		receipt = RenderReceipt(loan, titles)

		return nil
	}, "loan_id", strconv.FormatInt(loanID, 10))
	if err != nil {
		return "", err
	}

	return receipt, nil
}

// RenderReceipt formats a receipt from a loan and the titles of its books. It is a pure function.
func RenderReceipt(loan lending.Loan, titles map[lending.BookID]string) string {
	copies := slices.Clone(loan.Copies)
	slices.SortFunc(copies, func(a, b lending.BookCopy) int {
		return compareIDs(a.ID, b.ID)
	})

	returned := notYetReturned
	if loan.Returned() {
		returned = lending.FormatDate(loan.ReturnDate)
	}

	var sb strings.Builder
	sb.WriteString("Receipt for Loan #" + strconv.FormatInt(loan.ID, 10) + "\n")
	sb.WriteString("Borrowed on: " + lending.FormatDate(loan.BorrowDate) + "\n")
	sb.WriteString("Due on: " + lending.FormatDate(loan.DueDate) + "\n")
	sb.WriteString("Returned on: " + returned + "\n")
	sb.WriteString("Books:\n")

	for _, c := range copies {
		sb.WriteString("- " + c.Barcode + " - " + titles[c.BookID] + "\n")
	}

	return sb.String()
}

func compareIDs(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
