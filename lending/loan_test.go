package lending_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Test_IsOverdue(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		loan     lending.Loan
		expected bool
	}{
		{
			name:     "open loan due yesterday is overdue",
			loan:     lending.Loan{DueDate: date(2024, time.March, 9)},
			expected: true,
		},
		{
			name:     "open loan due today is not overdue",
			loan:     lending.Loan{DueDate: date(2024, time.March, 10)},
			expected: false,
		},
		{
			name:     "open loan due tomorrow is not overdue",
			loan:     lending.Loan{DueDate: date(2024, time.March, 11)},
			expected: false,
		},
		{
			name:     "returned loan is never overdue",
			loan:     lending.Loan{DueDate: date(2024, time.January, 1), ReturnDate: date(2024, time.March, 1)},
			expected: false,
		},
		{
			name:     "returned late loan is not overdue either",
			loan:     lending.Loan{DueDate: date(2024, time.January, 1), ReturnDate: date(2024, time.February, 1)},
			expected: false,
		},
		{
			name:     "loan without due date is not overdue",
			loan:     lending.Loan{},
			expected: false,
		},
		{
			name:     "time of day of the due date is ignored",
			loan:     lending.Loan{DueDate: time.Date(2024, time.March, 10, 0, 0, 1, 0, time.UTC)},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, lending.IsOverdue(tt.loan, now))
			assert.Equal(t, tt.expected, tt.loan.IsOverdue(now))
		})
	}
}

func Test_Loan_Returned(t *testing.T) {
	assert.False(t, lending.Loan{}.Returned())
	assert.True(t, lending.Loan{ReturnDate: date(2024, time.May, 1)}.Returned())
}

func Test_Loan_CopyIDs_And_DurationDays(t *testing.T) {
	// arrange
	loan := lending.Loan{
		Copies:     []lending.BookCopy{{ID: 7}, {ID: 3}},
		BorrowDate: date(2024, time.January, 1),
		DueDate:    date(2024, time.June, 29),
	}

	// act & assert
	assert.Equal(t, []lending.CopyID{7, 3}, loan.CopyIDs())
	assert.Equal(t, 180, loan.DurationDays())
}

func Test_ToDate(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)

	assert.True(t, lending.ToDate(time.Time{}).IsZero())
	assert.Equal(t, date(2024, time.March, 10), lending.ToDate(time.Date(2024, time.March, 10, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, date(2024, time.March, 10), lending.ToDate(time.Date(2024, time.March, 10, 0, 30, 0, 0, berlin)))
}

func Test_DaysBetween(t *testing.T) {
	assert.Equal(t, 0, lending.DaysBetween(date(2024, time.March, 10), date(2024, time.March, 10)))
	assert.Equal(t, 181, lending.DaysBetween(date(2024, time.January, 1), date(2024, time.June, 30)))
	assert.Equal(t, -1, lending.DaysBetween(date(2024, time.March, 10), date(2024, time.March, 9)))
}

func Test_FormatDate(t *testing.T) {
	assert.Empty(t, lending.FormatDate(time.Time{}))
	assert.Equal(t, "2024-03-09", lending.FormatDate(time.Date(2024, time.March, 9, 18, 0, 0, 0, time.UTC)))
}

func Test_BookCopy_Status(t *testing.T) {
	assert.Equal(t, lending.CopyStatusAvailable, lending.BookCopy{}.Status())
	assert.True(t, lending.BookCopy{}.IsAvailable())
	assert.Equal(t, lending.CopyStatusBorrowed, lending.BookCopy{Borrowed: true}.Status())
	assert.False(t, lending.BookCopy{Borrowed: true}.IsAvailable())
}
