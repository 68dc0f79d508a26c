package lending

// Student is a registered borrower. The ID is assigned outside the library system and never changes.
type Student struct {
	ID      StudentID
	Name    string
	Address string
	Degree  string
}
