package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	availabilityAvailable        = "Available"
	availabilityBorrowedDueOn    = "Borrowed. Due on: "
	availabilityBorrowedNoActive = "Borrowed but no active loan found."
)

// AddBookCopy adds a physical copy to an existing book. New copies are always available.
func (s *Service) AddBookCopy(ctx context.Context, bookCopy lending.BookCopy) (lending.BookCopy, error) {
	bookCopy.Barcode = strings.TrimSpace(bookCopy.Barcode)
	if bookCopy.BookID == 0 || bookCopy.Barcode == "" {
		return lending.BookCopy{}, lending.ErrInvalidBookCopy
	}

	bookCopy.ID = 0
	bookCopy.Borrowed = false

	var added lending.BookCopy

	err := s.runner.Write(ctx, operationAddBookCopy, func(ctx context.Context, tx lending.Tx) error {
		_, ok, err := tx.FindBook(ctx, bookCopy.BookID)
		if err != nil {
			return err
		}

		if !ok {
			return lending.NotFoundf(lending.ErrBookNotFound, bookCopy.BookID)
		}

		if err = ensureBarcodeIsFree(ctx, tx, bookCopy); err != nil {
			return err
		}

		added, err = tx.SaveBookCopy(ctx, bookCopy)

		return err
	}, attrBookID, strconv.FormatInt(bookCopy.BookID, 10))

	return added, err
}

func ensureBarcodeIsFree(ctx context.Context, tx lending.ReadTx, bookCopy lending.BookCopy) error {
	other, taken, err := tx.FindBookCopyByBarcode(ctx, bookCopy.Barcode)
	if err != nil {
		return err
	}

	if taken && other.ID != bookCopy.ID {
		return fmt.Errorf("%w: %s", lending.ErrDuplicateBarcode, bookCopy.Barcode)
	}

	return nil
}

// FindBookCopy returns the copy with the given id or ErrBookCopyNotFound.
func (s *Service) FindBookCopy(ctx context.Context, id lending.CopyID) (lending.BookCopy, error) {
	var bookCopy lending.BookCopy

	err := s.runner.Read(ctx, operationFindBookCopy, func(ctx context.Context, tx lending.ReadTx) error {
		found, ok, err := tx.FindBookCopy(ctx, id)
		if err != nil {
			return err
		}

		if !ok {
			return lending.NotFoundf(lending.ErrBookCopyNotFound, id)
		}

		bookCopy = found

		return nil
	}, attrCopyID, strconv.FormatInt(id, 10))

	return bookCopy, err
}

// ListBookCopies returns all copies ordered by id.
func (s *Service) ListBookCopies(ctx context.Context) ([]lending.BookCopy, error) {
	var copies []lending.BookCopy

	err := s.runner.Read(ctx, operationListBookCopies, func(ctx context.Context, tx lending.ReadTx) error {
		var err error
		copies, err = tx.ListBookCopies(ctx)

		return err
	})

	return copies, err
}

// UpdateBookCopy changes barcode and location of a copy.
// The owning book and the borrowed flag are kept, the flag belongs to the circulation engine.
func (s *Service) UpdateBookCopy(ctx context.Context, bookCopy lending.BookCopy) (lending.BookCopy, error) {
	bookCopy.Barcode = strings.TrimSpace(bookCopy.Barcode)
	if bookCopy.Barcode == "" {
		return lending.BookCopy{}, lending.ErrInvalidBookCopy
	}

	var updated lending.BookCopy

	err := s.runner.Write(ctx, operationUpdateBookCopy, func(ctx context.Context, tx lending.Tx) error {
		existing, ok, err := tx.FindBookCopy(ctx, bookCopy.ID)
		if err != nil {
			return err
		}

		if !ok {
			return lending.NotFoundf(lending.ErrBookCopyNotFound, bookCopy.ID)
		}

		if err = ensureBarcodeIsFree(ctx, tx, bookCopy); err != nil {
			return err
		}

		existing.Barcode = bookCopy.Barcode
		existing.Location = bookCopy.Location

		updated, err = tx.SaveBookCopy(ctx, existing)

		return err
	}, attrCopyID, strconv.FormatInt(bookCopy.ID, 10))

	return updated, err
}

// DeleteBookCopy deletes a copy that is on the shelf and was never part of any loan.
func (s *Service) DeleteBookCopy(ctx context.Context, id lending.CopyID) (lending.DeletionResult, error) {
	var result lending.DeletionResult

	err := s.runner.Write(ctx, operationDeleteBookCopy, func(ctx context.Context, tx lending.Tx) error {
		bookCopy, ok, err := tx.FindBookCopy(ctx, id)
		if err != nil {
			return err
		}

		if !ok {
			result = lending.NotDeleted(lending.NotFoundf(lending.ErrBookCopyNotFound, id))
			return nil
		}

		if bookCopy.Borrowed {
			result = lending.Blocked(lending.ErrBookCopyBorrowed)
			return nil
		}

		loans, err := tx.CountLoansForCopy(ctx, id)
		if err != nil {
			return err
		}

		if loans > 0 {
			result = lending.Blocked(lending.ErrBookCopyHasLoanHistory)
			return nil
		}

		if err = tx.DeleteBookCopyRecord(ctx, id); err != nil {
			return err
		}

		result = lending.Deleted()

		return nil
	}, attrCopyID, strconv.FormatInt(id, 10))
	if err != nil {
		return lending.DeletionResult{}, err
	}

	return result, nil
}

// CopyAvailability describes whether a copy is on the shelf and, if not, when it is due back.
func (s *Service) CopyAvailability(ctx context.Context, id lending.CopyID) (string, error) {
	var availability string

	err := s.runner.Read(ctx, operationCopyAvailability, func(ctx context.Context, tx lending.ReadTx) error {
		bookCopy, ok, err := tx.FindBookCopy(ctx, id)
		if err != nil {
			return err
		}

		if !ok {
			return lending.NotFoundf(lending.ErrBookCopyNotFound, id)
		}

		if !bookCopy.Borrowed {
			availability = availabilityAvailable
			return nil
		}

		loan, open, err := tx.FindOpenLoanForCopy(ctx, id)
		if err != nil {
			return err
		}

		if open {
			availability = availabilityBorrowedDueOn + lending.FormatDate(loan.DueDate)
		} else {
			availability = availabilityBorrowedNoActive
		}

		return nil
	}, attrCopyID, strconv.FormatInt(id, 10))

	return availability, err
}
