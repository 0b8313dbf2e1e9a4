package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/librarydesk/lms/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrSectionNotFound is returned when a section is not found
	ErrSectionNotFound = errors.New("section not found")

	// ErrBookNotFound is returned when a book is not found
	ErrBookNotFound = errors.New("book not found")
)

// SearchMatch identifies a book matched by a catalog search
type SearchMatch struct {
	SectionID uint   `json:"section_id"`
	BookID    uint   `json:"book_id"`
	Name      string `json:"name"`
}

// CatalogRepository handles section and book storage
type CatalogRepository struct {
	db  *db.DB
	log *zap.Logger
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(database *db.DB, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:  database,
		log: logger,
	}
}

// CreateSection inserts a new section
func (r *CatalogRepository) CreateSection(ctx context.Context, section *db.Section) error {
	if err := r.db.WithContext(ctx).Create(section).Error; err != nil {
		r.log.Error("Failed to create section", zap.String("name", section.Name), zap.Error(err))
		return err
	}
	return nil
}

// UpdateSection overwrites name and description. Unknown ids are a no-op.
func (r *CatalogRepository) UpdateSection(ctx context.Context, id uint, name, description string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&db.Section{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "description": description})
	if result.Error != nil {
		r.log.Error("Failed to update section", zap.Uint("section_id", id), zap.Error(result.Error))
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteSection removes every book of the section and then the section itself.
// Requests and assignments pointing at those books are left in place.
func (r *CatalogRepository) DeleteSection(ctx context.Context, id uint) (booksDeleted int64, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		books := tx.Where("section_id = ?", id).Delete(&db.Book{})
		if books.Error != nil {
			return books.Error
		}
		booksDeleted = books.RowsAffected
		return tx.Where("id = ?", id).Delete(&db.Section{}).Error
	})
	if err != nil {
		r.log.Error("Failed to delete section", zap.Uint("section_id", id), zap.Error(err))
		return 0, err
	}
	return booksDeleted, nil
}

// GetSection retrieves a section by id
func (r *CatalogRepository) GetSection(ctx context.Context, id uint) (*db.Section, error) {
	var section db.Section
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&section).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		r.log.Error("Failed to get section", zap.Uint("section_id", id), zap.Error(err))
		return nil, err
	}
	return &section, nil
}

// ListSections returns all sections, newest first
func (r *CatalogRepository) ListSections(ctx context.Context) ([]*db.Section, error) {
	var sections []*db.Section
	if err := r.db.WithContext(ctx).Order("date_created DESC").Order("id DESC").Find(&sections).Error; err != nil {
		r.log.Error("Failed to list sections", zap.Error(err))
		return nil, err
	}
	return sections, nil
}

// CreateBook inserts a new book
func (r *CatalogRepository) CreateBook(ctx context.Context, book *db.Book) error {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		r.log.Error("Failed to create book", zap.Uint("section_id", book.SectionID), zap.String("name", book.Name), zap.Error(err))
		return err
	}
	return nil
}

// UpdateBook overwrites name, description and author. Section and path never change here.
func (r *CatalogRepository) UpdateBook(ctx context.Context, id uint, name, description, author string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&db.Book{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "description": description, "author": author})
	if result.Error != nil {
		r.log.Error("Failed to update book", zap.Uint("book_id", id), zap.Error(result.Error))
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteBook hard deletes a book. Requests and assignments are not touched.
func (r *CatalogRepository) DeleteBook(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Book{})
	if result.Error != nil {
		r.log.Error("Failed to delete book", zap.Uint("book_id", id), zap.Error(result.Error))
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// GetBook retrieves a book by id
func (r *CatalogRepository) GetBook(ctx context.Context, id uint) (*db.Book, error) {
	var book db.Book
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		r.log.Error("Failed to get book", zap.Uint("book_id", id), zap.Error(err))
		return nil, err
	}
	return &book, nil
}

// ListBooksBySection returns the books of one section ordered by id
func (r *CatalogRepository) ListBooksBySection(ctx context.Context, sectionID uint) ([]*db.Book, error) {
	var books []*db.Book
	if err := r.db.WithContext(ctx).Where("section_id = ?", sectionID).Order("id").Find(&books).Error; err != nil {
		r.log.Error("Failed to list books", zap.Uint("section_id", sectionID), zap.Error(err))
		return nil, err
	}
	return books, nil
}

// ListAllBooks returns every book in the catalog
func (r *CatalogRepository) ListAllBooks(ctx context.Context) ([]*db.Book, error) {
	var books []*db.Book
	if err := r.db.WithContext(ctx).Order("id").Find(&books).Error; err != nil {
		r.log.Error("Failed to list all books", zap.Error(err))
		return nil, err
	}
	return books, nil
}

// SearchBooks matches query as a case-insensitive substring of name, author or description
func (r *CatalogRepository) SearchBooks(ctx context.Context, query string) ([]SearchMatch, error) {
	// SQLite LOWER() only folds ASCII, so matching happens in Go there
	if r.db.Dialector.Name() == db.DriverSQLite {
		return r.searchBooksFolded(ctx, query)
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	var matches []SearchMatch
	err := r.db.WithContext(ctx).Model(&db.Book{}).
		Select("section_id, id AS book_id, name").
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(author) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("id").
		Scan(&matches).Error
	if err != nil {
		r.log.Error("Failed to search books", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	return matches, nil
}

func (r *CatalogRepository) searchBooksFolded(ctx context.Context, query string) ([]SearchMatch, error) {
	var books []*db.Book
	err := r.db.WithContext(ctx).
		Select("id, section_id, name, author, description").
		Order("id").
		Find(&books).Error
	if err != nil {
		r.log.Error("Failed to search books", zap.String("query", query), zap.Error(err))
		return nil, err
	}

	needle := strings.ToLower(query)
	var matches []SearchMatch
	for _, b := range books {
		if strings.Contains(strings.ToLower(b.Name), needle) ||
			strings.Contains(strings.ToLower(b.Author), needle) ||
			strings.Contains(strings.ToLower(b.Description), needle) {
			matches = append(matches, SearchMatch{SectionID: b.SectionID, BookID: b.ID, Name: b.Name})
		}
	}
	return matches, nil
}

// GetStats returns row counts for the librarian overview
func (r *CatalogRepository) GetStats(ctx context.Context) (*db.Stats, error) {
	var stats db.Stats
	conn := r.db.WithContext(ctx)

	if err := conn.Model(&db.User{}).Where("role = ?", db.RoleUser).Count(&stats.UserCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := conn.Model(&db.Section{}).Count(&stats.SectionCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count sections: %w", err)
	}
	if err := conn.Model(&db.Book{}).Count(&stats.BookCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count books: %w", err)
	}
	if err := conn.Model(&db.Request{}).Count(&stats.RequestCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	if err := conn.Model(&db.Assignment{}).Count(&stats.AssignmentCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}

	return &stats, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
