package library

import "github.com/librarydesk/lms/internal/db"

// Roles an account can hold
const (
	RoleLibrarian = db.RoleLibrarian
	RoleUser      = db.RoleUser
)

// Actor is the authenticated identity performing an operation
type Actor struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsLibrarian reports whether the actor may manage the catalog and loans
func (a Actor) IsLibrarian() bool {
	return a.Role == RoleLibrarian
}

// ActorFromUser builds the actor for a stored account
func ActorFromUser(u *db.User) Actor {
	return Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}
