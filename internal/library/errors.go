package library

import (
	"errors"
	"fmt"

	"github.com/librarydesk/lms/internal/repo"
)

var (
	// ErrNotFound is wrapped by every lookup of an id that does not exist
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken is returned when registering an existing username
	ErrUsernameTaken = repo.ErrUsernameTaken

	// ErrInvalidCredentials is returned when authentication fails
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError reports an empty or malformed input field.
// No write is performed when it is returned.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func notFound(kind string, id uint) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}

// IsValidation reports whether err carries a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
