package lending

import "time"

// Book is a catalog title. Physical items are modeled as BookCopy records owned by the book.
type Book struct {
	ID              BookID
	ISBN            string
	Title           string
	Authors         string
	Publisher       string
	NumberOfPages   int
	PublicationDate time.Time
	Description     string
}
