package db

import (
	"time"

	"gorm.io/gorm"
)

// Role values stored in users.role
const (
	RoleLibrarian = "librarian"
	RoleUser      = "user"
)

// Section is a named grouping of books (a shelf or category)
type Section struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	DateCreated time.Time `gorm:"not null;index:idx_sections_date_created" json:"date_created"`
}

// TableName specifies the table name for Section model
func (Section) TableName() string {
	return "sections"
}

// BeforeCreate hook to set the creation timestamp
func (s *Section) BeforeCreate(tx *gorm.DB) error {
	if s.DateCreated.IsZero() {
		s.DateCreated = time.Now().UTC()
	}
	return nil
}

// Book is a catalog entry owned by exactly one section.
// Path is an opaque reference to the book's asset and is never validated.
type Book struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	SectionID   uint   `gorm:"not null;index:idx_books_section_id" json:"section_id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Author      string `gorm:"type:varchar(255);not null" json:"author"`
	Description string `gorm:"type:text;not null" json:"description"`
	Path        string `gorm:"type:text" json:"path"`
}

// TableName specifies the table name for Book model
func (Book) TableName() string {
	return "books"
}

// User is a library account. Role is fixed when the account is created.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_username" json:"username"`
	FirstName    string `gorm:"type:varchar(255)" json:"first_name"`
	LastName     string `gorm:"type:varchar(255)" json:"last_name"`
	Email        string `gorm:"type:varchar(255)" json:"email"`
	Phone        string `gorm:"type:varchar(50)" json:"phone"`
	Address      string `gorm:"type:text" json:"address"`
	Role         string `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	PasswordHash string `gorm:"type:text;not null" json:"-"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// Request is a user's pending ask to borrow a book.
// No foreign keys are declared: rows survive deletion of the referenced book.
type Request struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_requests_user_book" json:"user_id"`
	BookID      uint      `gorm:"not null;index:idx_requests_user_book" json:"book_id"`
	RequestDate time.Time `gorm:"not null" json:"request_date"`
}

// TableName specifies the table name for Request model
func (Request) TableName() string {
	return "requests"
}

// BeforeCreate hook to set the request timestamp
func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.RequestDate.IsZero() {
		r.RequestDate = time.Now().UTC()
	}
	return nil
}

// Assignment is an active loan of a book to a user.
// ReturnDate is always written together with DateIssued.
type Assignment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index:idx_assignments_user_book" json:"user_id"`
	BookID     uint      `gorm:"not null;index:idx_assignments_user_book" json:"book_id"`
	DateIssued time.Time `gorm:"not null" json:"date_issued"`
	ReturnDate time.Time `gorm:"not null" json:"return_date"`
}

// TableName specifies the table name for Assignment model
func (Assignment) TableName() string {
	return "assignments"
}

// BorrowedBook is an assignment joined with the path of its book
type BorrowedBook struct {
	ID         uint      `json:"id"`
	BookID     uint      `json:"book_id"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	DateIssued time.Time `json:"date_issued"`
	ReturnDate time.Time `json:"return_date"`
}

// Stats holds row counts for the librarian overview
type Stats struct {
	UserCount       int64 `json:"user_count"`
	SectionCount    int64 `json:"section_count"`
	BookCount       int64 `json:"book_count"`
	RequestCount    int64 `json:"request_count"`
	AssignmentCount int64 `json:"assignment_count"`
}

// AllModels lists every model managed by migrations
func AllModels() []interface{} {
	return []interface{}{&Section{}, &Book{}, &User{}, &Request{}, &Assignment{}}
}
