package circulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

func Test_Decide(t *testing.T) {
	today := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	command := CreateLoanCommand{
		StudentID:  1,
		CopyIDs:    []lending.CopyID{1, 2},
		BorrowDate: today,
		DueDate:    today.AddDate(0, 0, 14),
	}
	overdue := lending.Loan{DueDate: today.AddDate(0, 0, -1)}
	dueToday := lending.Loan{DueDate: today}

	testCases := []struct {
		name    string
		state   loanState
		command CreateLoanCommand
		wantErr error
	}{
		{name: "all rules pass", state: loanState{activeCopies: 3}, command: command},
		{name: "cap reached exactly", state: loanState{activeCopies: 3, openLoans: []lending.Loan{dueToday}}, command: command},
		{name: "cap exceeded", state: loanState{activeCopies: 4}, command: command, wantErr: lending.ErrBorrowingCapExceeded},
		{name: "overdue", state: loanState{openLoans: []lending.Loan{dueToday, overdue}}, command: command, wantErr: lending.ErrOverdueLock},
		{
			name:    "cap wins over overdue",
			state:   loanState{activeCopies: 5, openLoans: []lending.Loan{overdue}},
			command: command,
			wantErr: lending.ErrBorrowingCapExceeded,
		},
		{
			name:    "overdue wins over duration",
			state:   loanState{openLoans: []lending.Loan{overdue}},
			command: CreateLoanCommand{CopyIDs: command.CopyIDs, BorrowDate: today, DueDate: today.AddDate(1, 0, 0)},
			wantErr: lending.ErrOverdueLock,
		},
		{
			name:    "duration wins over availability",
			state:   loanState{copies: []lending.BookCopy{{ID: 1, Borrowed: true}}},
			command: CreateLoanCommand{CopyIDs: command.CopyIDs, BorrowDate: today, DueDate: today.AddDate(0, 0, 181)},
			wantErr: lending.ErrMaxDurationExceeded,
		},
		{
			name:    "due before borrow",
			command: CreateLoanCommand{CopyIDs: command.CopyIDs, BorrowDate: today, DueDate: today.AddDate(0, 0, -1)},
			wantErr: lending.ErrDueBeforeBorrow,
		},
		{
			name:    "copy already borrowed",
			state:   loanState{copies: []lending.BookCopy{{ID: 1}, {ID: 2, Borrowed: true}}},
			command: command,
			wantErr: lending.ErrBookCopyAlreadyBorrowed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := decide(tc.state, tc.command, today)

			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}
