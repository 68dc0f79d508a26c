package lending

import "time"

// Loan records that a student borrowed a fixed set of book copies.
//
// A loan is open while ReturnDate is the zero time. After creation only ReturnDate may change.
// Student and Copies are hydrated by the repository when the loan is read.
type Loan struct {
	ID         LoanID
	Student    Student
	Copies     []BookCopy
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate time.Time
}

// Returned reports whether a return date was recorded.
func (l Loan) Returned() bool {
	return !l.ReturnDate.IsZero()
}

// IsOverdue is a shorthand for IsOverdue(l, now).
func (l Loan) IsOverdue(now time.Time) bool {
	return IsOverdue(l, now)
}

// CopyIDs returns the ids of the loaned copies in their stored order.
func (l Loan) CopyIDs() []CopyID {
	ids := make([]CopyID, 0, len(l.Copies))
	for _, c := range l.Copies {
		ids = append(ids, c.ID)
	}

	return ids
}

// DurationDays returns the number of calendar days between borrow date and due date.
func (l Loan) DurationDays() int {
	return DaysBetween(l.BorrowDate, l.DueDate)
}

// IsOverdue is true if the loan is still open and its due date lies strictly before the calendar day of now.
// A loan that is due today is not overdue yet.
func IsOverdue(loan Loan, now time.Time) bool {
	if loan.Returned() || loan.DueDate.IsZero() {
		return false
	}

	return ToDate(loan.DueDate).Before(ToDate(now))
}
