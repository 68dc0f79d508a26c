package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

func validateBook(book lending.Book) error {
	if strings.TrimSpace(book.Title) == "" || book.NumberOfPages <= 0 {
		return lending.ErrInvalidBook
	}

	return nil
}

// AddBook stores a new book and returns it with its assigned id.
func (s *Service) AddBook(ctx context.Context, book lending.Book) (lending.Book, error) {
	if err := validateBook(book); err != nil {
		return lending.Book{}, err
	}

	book.ID = 0

	var added lending.Book

	err := s.runner.Write(ctx, operationAddBook, func(ctx context.Context, tx lending.Tx) error {
		var err error
		added, err = tx.SaveBook(ctx, book)

		return err
	})

	return added, err
}

// FindBook returns the book with the given id or ErrBookNotFound.
func (s *Service) FindBook(ctx context.Context, id lending.BookID) (lending.Book, error) {
	var book lending.Book

	err := s.runner.Read(ctx, operationFindBook, func(ctx context.Context, tx lending.ReadTx) error {
		found, ok, err := tx.FindBook(ctx, id)
		if err != nil {
			return err
		}

		if !ok {
			return lending.NotFoundf(lending.ErrBookNotFound, id)
		}

		book = found

		return nil
	}, attrBookID, strconv.FormatInt(id, 10))

	return book, err
}

// ListBooks returns all books ordered by id.
func (s *Service) ListBooks(ctx context.Context) ([]lending.Book, error) {
	var books []lending.Book

	err := s.runner.Read(ctx, operationListBooks, func(ctx context.Context, tx lending.ReadTx) error {
		var err error
		books, err = tx.ListBooks(ctx)

		return err
	})

	return books, err
}

// UpdateBook replaces all descriptive fields of an existing book.
func (s *Service) UpdateBook(ctx context.Context, book lending.Book) (lending.Book, error) {
	if err := validateBook(book); err != nil {
		return lending.Book{}, err
	}

	var updated lending.Book

	err := s.runner.Write(ctx, operationUpdateBook, func(ctx context.Context, tx lending.Tx) error {
		_, ok, err := tx.FindBook(ctx, book.ID)
		if err != nil {
			return err
		}

		if !ok {
			return lending.NotFoundf(lending.ErrBookNotFound, book.ID)
		}

		updated, err = tx.SaveBook(ctx, book)

		return err
	}, attrBookID, strconv.FormatInt(book.ID, 10))

	return updated, err
}

// ListCopiesOfBook returns the copies owned by a book, ordered by copy id.
func (s *Service) ListCopiesOfBook(ctx context.Context, id lending.BookID) ([]lending.BookCopy, error) {
	var copies []lending.BookCopy

	err := s.runner.Read(ctx, operationListCopiesOfBook, func(ctx context.Context, tx lending.ReadTx) error {
		_, ok, err := tx.FindBook(ctx, id)
		if err != nil {
			return err
		}

		if !ok {
			return lending.NotFoundf(lending.ErrBookNotFound, id)
		}

		copies, err = tx.FindCopiesOfBook(ctx, id)

		return err
	}, attrBookID, strconv.FormatInt(id, 10))

	return copies, err
}

// DeleteBook deletes a book together with all of its copies, unless one of them is borrowed.
// The loan history of the copies does not block the deletion, the copies just drop out of their past loans.
func (s *Service) DeleteBook(ctx context.Context, id lending.BookID) (lending.DeletionResult, error) {
	var result lending.DeletionResult

	err := s.runner.Write(ctx, operationDeleteBook, func(ctx context.Context, tx lending.Tx) error {
		_, ok, err := tx.FindBook(ctx, id)
		if err != nil {
			return err
		}

		if !ok {
			result = lending.NotDeleted(lending.NotFoundf(lending.ErrBookNotFound, id))
			return nil
		}

		copies, err := tx.FindCopiesOfBook(ctx, id)
		if err != nil {
			return err
		}

		for _, c := range copies {
			if c.Borrowed {
				result = lending.Blocked(lending.ErrBookHasBorrowedCopies)
				return nil
			}
		}

		for _, c := range copies {
			if err = tx.DeleteBookCopyRecord(ctx, c.ID); err != nil {
				return err
			}
		}

		if err = tx.DeleteBookRecord(ctx, id); err != nil {
			return err
		}

		result = lending.Deleted()

		return nil
	}, attrBookID, strconv.FormatInt(id, 10))
	if err != nil {
		return lending.DeletionResult{}, err
	}

	return result, nil
}
