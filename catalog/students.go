package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

func validateStudent(student lending.Student) error {
	if student.ID <= 0 || strings.TrimSpace(student.Name) == "" {
		return lending.ErrInvalidStudent
	}

	return nil
}

// AddStudent registers a new student under its externally assigned id.
func (s *Service) AddStudent(ctx context.Context, student lending.Student) (lending.Student, error) {
	if err := validateStudent(student); err != nil {
		return lending.Student{}, err
	}

	var added lending.Student

	err := s.runner.Write(ctx, operationAddStudent, func(ctx context.Context, tx lending.Tx) error {
		_, exists, err := tx.FindStudent(ctx, student.ID)
		if err != nil {
			return err
		}

		if exists {
			return lending.ErrStudentAlreadyExists
		}

		added, err = tx.SaveStudent(ctx, student)

		return err
	}, attrStudentID, strconv.FormatInt(student.ID, 10))

	return added, err
}

// FindStudent returns the student with the given id or ErrStudentNotFound.
func (s *Service) FindStudent(ctx context.Context, id lending.StudentID) (lending.Student, error) {
	var student lending.Student

	err := s.runner.Read(ctx, operationFindStudent, func(ctx context.Context, tx lending.ReadTx) error {
		found, ok, err := tx.FindStudent(ctx, id)
		if err != nil {
			return err
		}

		if !ok {
			return lending.NotFoundf(lending.ErrStudentNotFound, id)
		}

		student = found

		return nil
	}, attrStudentID, strconv.FormatInt(id, 10))

	return student, err
}

// ListStudents returns all students ordered by id.
func (s *Service) ListStudents(ctx context.Context) ([]lending.Student, error) {
	var students []lending.Student

	err := s.runner.Read(ctx, operationListStudents, func(ctx context.Context, tx lending.ReadTx) error {
		var err error
		students, err = tx.ListStudents(ctx)

		return err
	})

	return students, err
}

// UpdateStudent replaces name, address and degree of an existing student.
func (s *Service) UpdateStudent(ctx context.Context, student lending.Student) (lending.Student, error) {
	if err := validateStudent(student); err != nil {
		return lending.Student{}, err
	}

	return s.modifyStudent(ctx, student.ID, func(existing *lending.Student) {
		*existing = student
	})
}

func (s *Service) UpdateStudentAddress(ctx context.Context, id lending.StudentID, address string) (lending.Student, error) {
	return s.modifyStudent(ctx, id, func(existing *lending.Student) {
		existing.Address = address
	})
}

func (s *Service) UpdateStudentDegree(ctx context.Context, id lending.StudentID, degree string) (lending.Student, error) {
	return s.modifyStudent(ctx, id, func(existing *lending.Student) {
		existing.Degree = degree
	})
}

func (s *Service) modifyStudent(
	ctx context.Context,
	id lending.StudentID,
	modify func(*lending.Student),
) (lending.Student, error) {
	var updated lending.Student

	err := s.runner.Write(ctx, operationUpdateStudent, func(ctx context.Context, tx lending.Tx) error {
		student, ok, err := tx.LockStudent(ctx, id)
		if err != nil {
			return err
		}

		if !ok {
			return lending.NotFoundf(lending.ErrStudentNotFound, id)
		}

		modify(&student)

		updated, err = tx.SaveStudent(ctx, student)

		return err
	}, attrStudentID, strconv.FormatInt(id, 10))

	return updated, err
}

// DeleteStudent deletes a student that never borrowed anything.
func (s *Service) DeleteStudent(ctx context.Context, id lending.StudentID) (lending.DeletionResult, error) {
	var result lending.DeletionResult

	err := s.runner.Write(ctx, operationDeleteStudent, func(ctx context.Context, tx lending.Tx) error {
		_, ok, err := tx.LockStudent(ctx, id)
		if err != nil {
			return err
		}

		if !ok {
			result = lending.NotDeleted(lending.NotFoundf(lending.ErrStudentNotFound, id))
			return nil
		}

		loans, err := tx.CountLoansForStudent(ctx, id)
		if err != nil {
			return err
		}

		if loans > 0 {
			result = lending.Blocked(lending.ErrStudentHasLoans)
			return nil
		}

		if err = tx.DeleteStudentRecord(ctx, id); err != nil {
			return err
		}

		result = lending.Deleted()

		return nil
	}, attrStudentID, strconv.FormatInt(id, 10))
	if err != nil {
		return lending.DeletionResult{}, err
	}

	return result, nil
}
