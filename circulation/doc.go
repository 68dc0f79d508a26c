// Package circulation implements the lending policy engine: it opens, closes and removes loans,
// keeps the borrowed flag of every book copy in step with the loans, and renders receipts and reports.
//
// Every state change runs in one repository transaction and is retried on concurrency conflicts.
// Policy checks run in a fixed order and the first failing rule decides the error:
//
//	GIVEN: a student, one or more book copies, a borrow date and a due date
//	WHEN:  CreateLoan is called
//	THEN:  all copies are marked borrowed and an open loan is stored
//	ERROR: ErrMissingLoanInput / ErrDuplicateCopy for incomplete or repeated input
//	ERROR: ErrStudentNotFound / ErrBookCopyNotFound for unknown references
//	ERROR: ErrBorrowingCapExceeded if the student would hold more than 5 copies
//	ERROR: ErrOverdueLock if the student has an open loan due before today
//	ERROR: ErrMaxDurationExceeded / ErrDueBeforeBorrow for an invalid loan period
//	ERROR: ErrBookCopyAlreadyBorrowed if a copy is part of another open loan
package circulation
