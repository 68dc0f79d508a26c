package circulation

import (
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// CreateLoanCommand is the request to lend a set of book copies to a student.
type CreateLoanCommand struct {
	StudentID  lending.StudentID
	CopyIDs    []lending.CopyID
	BorrowDate time.Time
	DueDate    time.Time
}

// BuildCreateLoanCommand creates a CreateLoanCommand with both dates normalized to calendar days.
func BuildCreateLoanCommand(
	studentID lending.StudentID,
	copyIDs []lending.CopyID,
	borrowDate time.Time,
	dueDate time.Time,
) CreateLoanCommand {
	return CreateLoanCommand{
		StudentID:  studentID,
		CopyIDs:    append([]lending.CopyID(nil), copyIDs...),
		BorrowDate: lending.ToDate(borrowDate),
		DueDate:    lending.ToDate(dueDate),
	}
}

// ReturnLoanCommand is the request to close a loan. A zero ReturnDate means today.
type ReturnLoanCommand struct {
	LoanID     lending.LoanID
	ReturnDate time.Time
}

// BuildReturnLoanCommand creates a ReturnLoanCommand with the return date normalized to a calendar day.
func BuildReturnLoanCommand(loanID lending.LoanID, returnDate time.Time) ReturnLoanCommand {
	return ReturnLoanCommand{
		LoanID:     loanID,
		ReturnDate: lending.ToDate(returnDate),
	}
}

// DeleteLoanCommand is the request to remove a loan record.
type DeleteLoanCommand struct {
	LoanID lending.LoanID
}

// BuildDeleteLoanCommand creates a DeleteLoanCommand.
func BuildDeleteLoanCommand(loanID lending.LoanID) DeleteLoanCommand {
	return DeleteLoanCommand{LoanID: loanID}
}
