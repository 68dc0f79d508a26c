package lending

const (
	// CopyStatusAvailable is the display status of a copy that is on the shelf.
	CopyStatusAvailable = "Available"

	// CopyStatusBorrowed is the display status of a copy that belongs to an open loan.
	CopyStatusBorrowed = "Borrowed"
)

// BookCopy is a physical, barcoded item of a Book.
//
// Borrowed is a stored flag that must be true if and only if the copy belongs to an open loan.
// Only the circulation engine changes it, and only inside the transaction that opens or closes the loan.
type BookCopy struct {
	ID       CopyID
	BookID   BookID
	Barcode  string
	Location string
	Borrowed bool
}

// IsAvailable reports whether the copy can be lent out.
func (c BookCopy) IsAvailable() bool {
	return !c.Borrowed
}

// Status returns the display status of the copy.
func (c BookCopy) Status() string {
	if c.Borrowed {
		return CopyStatusBorrowed
	}

	return CopyStatusAvailable
}
