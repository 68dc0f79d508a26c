package memoryrepo

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// ErrInvalidSnapshot is returned when a snapshot cannot be decoded or references unknown records.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshot is the serializable representation of the repository state.
type Snapshot struct {
	Students []lending.Student  `json:"students"`
	Books    []lending.Book     `json:"books"`
	Copies   []lending.BookCopy `json:"copies"`
	Loans    []SnapshotLoan     `json:"loans"`
}

// SnapshotLoan is a loan with references instead of hydrated entities.
type SnapshotLoan = loanRecord

// ExportSnapshot returns the committed state as a Snapshot, with every list ordered by id.
func (r *Repository) ExportSnapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Snapshot{
		Students: make([]lending.Student, 0, len(r.state.students)),
		Books:    make([]lending.Book, 0, len(r.state.books)),
		Copies:   make([]lending.BookCopy, 0, len(r.state.copies)),
		Loans:    make([]SnapshotLoan, 0, len(r.state.loans)),
	}

	for _, id := range sortedKeys(r.state.students) {
		s.Students = append(s.Students, r.state.students[id])
	}

	for _, id := range sortedKeys(r.state.books) {
		s.Books = append(s.Books, r.state.books[id])
	}

	for _, id := range sortedKeys(r.state.copies) {
		s.Copies = append(s.Copies, r.state.copies[id])
	}

	for _, id := range sortedKeys(r.state.loans) {
		s.Loans = append(s.Loans, cloneLoanRecord(r.state.loans[id]))
	}

	return s
}

// ImportSnapshot replaces the committed state with the snapshot.
func (r *Repository) ImportSnapshot(snapshot Snapshot) error {
	state, err := memoryStateFromSnapshot(snapshot)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.state = state
	r.mu.Unlock()

	r.logDebug(logMsgSnapshotImported,
		"students", len(snapshot.Students), "books", len(snapshot.Books),
		"copies", len(snapshot.Copies), "loans", len(snapshot.Loans),
	)

	return nil
}

// WriteSnapshot encodes the committed state as JSON.
func (r *Repository) WriteSnapshot(w io.Writer) error {
	return json.NewEncoder(w).Encode(r.ExportSnapshot())
}

// ReadSnapshot decodes a JSON snapshot and replaces the committed state with it.
func (r *Repository) ReadSnapshot(rd io.Reader) error {
	var snapshot Snapshot
	if err := json.NewDecoder(rd).Decode(&snapshot); err != nil {
		return errors.Join(ErrInvalidSnapshot, err)
	}

	return r.ImportSnapshot(snapshot)
}

func memoryStateFromSnapshot(s Snapshot) (memoryState, error) {
	st := newMemoryState()

	for _, student := range s.Students {
		st.students[student.ID] = student
	}

	for _, book := range s.Books {
		st.books[book.ID] = book
		if book.ID >= st.nextBookID {
			st.nextBookID = book.ID + 1
		}
	}

	for _, c := range s.Copies {
		if _, ok := st.books[c.BookID]; !ok {
			return memoryState{}, fmt.Errorf("%w: copy %d references unknown book %d", ErrInvalidSnapshot, c.ID, c.BookID)
		}

		st.copies[c.ID] = c
		if c.ID >= st.nextCopyID {
			st.nextCopyID = c.ID + 1
		}
	}

	for _, l := range s.Loans {
		if _, ok := st.students[l.StudentID]; !ok {
			return memoryState{}, fmt.Errorf("%w: loan %d references unknown student %d", ErrInvalidSnapshot, l.ID, l.StudentID)
		}

		for _, copyID := range l.CopyIDs {
			if _, ok := st.copies[copyID]; !ok {
				return memoryState{}, fmt.Errorf("%w: loan %d references unknown copy %d", ErrInvalidSnapshot, l.ID, copyID)
			}
		}

		st.loans[l.ID] = cloneLoanRecord(l)
		if l.ID >= st.nextLoanID {
			st.nextLoanID = l.ID + 1
		}
	}

	return st, nil
}
