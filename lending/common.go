package lending

import (
	"time"
)

const (
	// MaxActiveCopiesPerStudent is the borrowing cap: the number of book copies a student may hold at once.
	MaxActiveCopiesPerStudent = 5

	// MaxLoanDurationDays is the longest allowed distance between borrow date and due date.
	MaxLoanDurationDays = 180

	// DateLayout is the canonical rendering of calendar dates in receipts, reports, and logs.
	DateLayout = "2006-01-02"
)

// StudentID is the externally assigned identifier of a student.
type StudentID = int64

// BookID is the system assigned identifier of a book.
type BookID = int64

// CopyID is the system assigned identifier of a book copy.
type CopyID = int64

// LoanID is the system assigned identifier of a loan.
type LoanID = int64

// ToDate normalizes t to midnight UTC of its own calendar day.
// Loans only know calendar dates, so every date that enters the system goes through here.
func ToDate(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from 'from' until 'to'.
// The result is negative if 'to' lies before 'from'.
func DaysBetween(from, to time.Time) int {
	return int(ToDate(to).Sub(ToDate(from)).Hours() / 24)
}

// FormatDate renders a calendar date, or an empty string for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return ToDate(t).Format(DateLayout)
}
