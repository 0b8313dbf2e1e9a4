package library

import "github.com/librarydesk/lms/internal/db"

// BookState is the lending state of a book, derived from its requests and assignments
type BookState string

const (
	StateAvailable BookState = "available"
	StateRequested BookState = "requested"
	StateAssigned  BookState = "assigned"
)

// DeriveState computes the state of bookID from the given rows.
// An assignment wins over pending requests; nothing prevents both from existing.
func DeriveState(bookID uint, requests []*db.Request, assignments []*db.Assignment) BookState {
	for _, a := range assignments {
		if a.BookID == bookID {
			return StateAssigned
		}
	}
	for _, r := range requests {
		if r.BookID == bookID {
			return StateRequested
		}
	}
	return StateAvailable
}

// BookListing is a book annotated with its lending state
type BookListing struct {
	db.Book
	State       BookState `json:"state"`
	RequestedBy []uint    `json:"requested_by"`
	AssignedTo  []uint    `json:"assigned_to"`
}

func annotate(books []*db.Book, requests []*db.Request, assignments []*db.Assignment) []BookListing {
	listings := make([]BookListing, 0, len(books))
	for _, book := range books {
		listing := BookListing{
			Book:        *book,
			State:       DeriveState(book.ID, requests, assignments),
			RequestedBy: []uint{},
			AssignedTo:  []uint{},
		}
		for _, r := range requests {
			if r.BookID == book.ID {
				listing.RequestedBy = append(listing.RequestedBy, r.UserID)
			}
		}
		for _, a := range assignments {
			if a.BookID == book.ID {
				listing.AssignedTo = append(listing.AssignedTo, a.UserID)
			}
		}
		listings = append(listings, listing)
	}
	return listings
}
