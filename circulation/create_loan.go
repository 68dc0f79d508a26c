package circulation

import (
	"context"
	"strconv"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// CreateLoan lends the requested copies to the student and returns the stored loan.
// Either every copy is marked borrowed and the loan is stored, or nothing changes.
func (e *Engine) CreateLoan(ctx context.Context, command CreateLoanCommand) (lending.Loan, error) {
	var created lending.Loan

	err := e.runner.Write(ctx, operationCreateLoan, func(ctx context.Context, tx lending.Tx) error {
		loan, err := e.createLoan(ctx, tx, command)
		if err != nil {
			return err
		}

		created = loan

		return nil
	}, "student_id", strconv.FormatInt(command.StudentID, 10), "copies", strconv.Itoa(len(command.CopyIDs)))
	if err != nil {
		return lending.Loan{}, err
	}

	return created, nil
}

func (e *Engine) createLoan(ctx context.Context, tx lending.Tx, command CreateLoanCommand) (lending.Loan, error) {
	if err := validateInput(command); err != nil {
		return lending.Loan{}, err
	}

	// The row lock serializes concurrent loans of one student, so the cap cannot be raced.
	student, ok, err := tx.LockStudent(ctx, command.StudentID)
	if err != nil {
		return lending.Loan{}, err
	}

	if !ok {
		return lending.Loan{}, lending.NotFoundf(lending.ErrStudentNotFound, command.StudentID)
	}

	copies := make([]lending.BookCopy, 0, len(command.CopyIDs))
	for _, id := range command.CopyIDs {
		c, found, err := tx.FindBookCopy(ctx, id)
		if err != nil {
			return lending.Loan{}, err
		}

		if !found {
			return lending.Loan{}, lending.NotFoundf(lending.ErrBookCopyNotFound, id)
		}

		copies = append(copies, c)
	}

	activeCopies, err := tx.CountActiveCopiesForStudent(ctx, student.ID)
	if err != nil {
		return lending.Loan{}, err
	}

	openLoans, err := tx.FindOpenLoansForStudent(ctx, student.ID)
	if err != nil {
		return lending.Loan{}, err
	}

	state := loanState{activeCopies: activeCopies, openLoans: openLoans, copies: copies}
	if err = decide(state, command, e.today()); err != nil {
		return lending.Loan{}, err
	}

	for i := range copies {
		copies[i].Borrowed = true
		if copies[i], err = tx.SaveBookCopy(ctx, copies[i]); err != nil {
			return lending.Loan{}, err
		}
	}

	return tx.SaveLoan(ctx, lending.Loan{
		Student:    student,
		Copies:     copies,
		BorrowDate: command.BorrowDate,
		DueDate:    command.DueDate,
	})
}
