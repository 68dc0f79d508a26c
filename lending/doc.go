// Package lending provides the core abstractions and types for a school library's
// lending system.
//
// This package defines the entities (Student, Book, BookCopy, Loan), the lending policy
// constants, the error taxonomy shared by all services, and the Repository contract that
// persistent stores implement. It has no knowledge of any concrete database.
//
// Key types:
//   - Student, Book, BookCopy, Loan: plain value records
//   - Repository, ReadTx, Tx: the unit-of-work contract used by the services
//   - DeletionResult: the typed outcome of guarded deletions
//   - Logger, ContextualLogger, MetricsCollector, TracingCollector: observability hooks
//
// Common usage pattern:
//
//	err := repo.RunInTransaction(ctx, func(ctx context.Context, tx lending.Tx) error {
//		active, err := tx.CountActiveCopiesForStudent(ctx, studentID)
//		if err != nil {
//			return err
//		}
//
//		if active+len(copyIDs) > lending.MaxActiveCopiesPerStudent {
//			return lending.ErrBorrowingCapExceeded
//		}
//
//		_, err = tx.SaveLoan(ctx, loan)
//		return err
//	})
package lending
