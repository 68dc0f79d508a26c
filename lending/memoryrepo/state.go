package memoryrepo

import (
	"sort"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// loanRecord is the stored form of a loan: references instead of hydrated entities.
type loanRecord struct {
	ID         lending.LoanID    `json:"id"`
	StudentID  lending.StudentID `json:"student_id"`
	CopyIDs    []lending.CopyID  `json:"copy_ids"`
	BorrowDate time.Time         `json:"borrow_date"`
	DueDate    time.Time         `json:"due_date"`
	ReturnDate time.Time         `json:"return_date"`
}

func (r loanRecord) open() bool {
	return r.ReturnDate.IsZero()
}

func (r loanRecord) holds(copyID lending.CopyID) bool {
	for _, id := range r.CopyIDs {
		if id == copyID {
			return true
		}
	}

	return false
}

type memoryState struct {
	students   map[lending.StudentID]lending.Student
	books      map[lending.BookID]lending.Book
	copies     map[lending.CopyID]lending.BookCopy
	loans      map[lending.LoanID]loanRecord
	nextBookID lending.BookID
	nextCopyID lending.CopyID
	nextLoanID lending.LoanID
}

func newMemoryState() memoryState {
	return memoryState{
		students:   map[lending.StudentID]lending.Student{},
		books:      map[lending.BookID]lending.Book{},
		copies:     map[lending.CopyID]lending.BookCopy{},
		loans:      map[lending.LoanID]loanRecord{},
		nextBookID: 1,
		nextCopyID: 1,
		nextLoanID: 1,
	}
}

func (s memoryState) clone() memoryState {
	c := memoryState{
		students:   make(map[lending.StudentID]lending.Student, len(s.students)),
		books:      make(map[lending.BookID]lending.Book, len(s.books)),
		copies:     make(map[lending.CopyID]lending.BookCopy, len(s.copies)),
		loans:      make(map[lending.LoanID]loanRecord, len(s.loans)),
		nextBookID: s.nextBookID,
		nextCopyID: s.nextCopyID,
		nextLoanID: s.nextLoanID,
	}

	for k, v := range s.students {
		c.students[k] = v
	}

	for k, v := range s.books {
		c.books[k] = v
	}

	for k, v := range s.copies {
		c.copies[k] = v
	}

	for k, v := range s.loans {
		c.loans[k] = cloneLoanRecord(v)
	}

	return c
}

func cloneLoanRecord(r loanRecord) loanRecord {
	cp := r
	cp.CopyIDs = append([]lending.CopyID(nil), r.CopyIDs...)

	return cp
}

// hydrate resolves the references of a stored loan against the state it lives in.
func (s *memoryState) hydrate(r loanRecord) lending.Loan {
	loan := lending.Loan{
		ID:         r.ID,
		Student:    s.students[r.StudentID],
		Copies:     make([]lending.BookCopy, 0, len(r.CopyIDs)),
		BorrowDate: r.BorrowDate,
		DueDate:    r.DueDate,
		ReturnDate: r.ReturnDate,
	}

	for _, id := range r.CopyIDs {
		if c, ok := s.copies[id]; ok {
			loan.Copies = append(loan.Copies, c)
		}
	}

	return loan
}

func (s *memoryState) sortedLoanRecords(match func(loanRecord) bool) []loanRecord {
	out := make([]loanRecord, 0)
	for _, r := range s.loans {
		if match(r) {
			out = append(out, r)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

func sortedKeys[K ~int64, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}
