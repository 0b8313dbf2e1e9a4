package library

import (
	"context"
	"errors"

	"github.com/librarydesk/lms/internal/db"
	"github.com/librarydesk/lms/internal/events"
	"github.com/librarydesk/lms/internal/metrics"
	"github.com/librarydesk/lms/internal/repo"
	"go.uber.org/zap"
)

// SectionInput is the payload for creating a section
type SectionInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// SectionUpdate is the payload for updating a section; description may be cleared
type SectionUpdate struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// BookInput is the payload for creating or updating a book.
// Fields are checked in declaration order.
type BookInput struct {
	Name        string `json:"name" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Description string `json:"content" validate:"required"`
	Path        string `json:"path"`
}

// SearchResult is the outcome of a catalog search.
// Performed is false when the query was empty and nothing was searched.
type SearchResult struct {
	Query     string             `json:"query"`
	Performed bool               `json:"performed"`
	Matches   []repo.SearchMatch `json:"results"`
	Count     int                `json:"count"`
}

// CatalogService manages sections and books
type CatalogService struct {
	catalog *repo.CatalogRepository
	lending *repo.LendingRepository
	metrics *metrics.Metrics
	notifier
}

// NewCatalogService creates a catalog service
func NewCatalogService(catalog *repo.CatalogRepository, lending *repo.LendingRepository, publisher Publisher, m *metrics.Metrics, log *zap.Logger) *CatalogService {
	return &CatalogService{
		catalog:  catalog,
		lending:  lending,
		metrics:  m,
		notifier: notifier{publisher: publisher, log: log},
	}
}

// CreateSection adds a section stamped with the current time
func (s *CatalogService) CreateSection(ctx context.Context, in SectionInput) (*db.Section, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	section := &db.Section{Name: in.Name, Description: in.Description}
	if err := s.catalog.CreateSection(ctx, section); err != nil {
		return nil, err
	}

	s.log.Info("Section created", zap.Uint("section_id", section.ID), zap.String("name", section.Name))
	s.metrics.CatalogOperation("create_section")
	s.emit(events.EventSectionCreated, map[string]interface{}{"section_id": section.ID, "name": section.Name})
	return section, nil
}

// UpdateSection renames a section and overwrites its description. Unknown ids are ignored.
func (s *CatalogService) UpdateSection(ctx context.Context, id uint, in SectionUpdate) error {
	if err := validateInput(in); err != nil {
		return err
	}

	affected, err := s.catalog.UpdateSection(ctx, id, in.Name, in.Description)
	if err != nil {
		return err
	}
	if affected == 0 {
		s.log.Debug("Section update matched no rows", zap.Uint("section_id", id))
		return nil
	}

	s.log.Info("Section updated", zap.Uint("section_id", id))
	s.metrics.CatalogOperation("update_section")
	s.emit(events.EventSectionUpdated, map[string]interface{}{"section_id": id, "name": in.Name})
	return nil
}

// DeleteSection removes a section and every book in it.
// Requests and assignments for those books are left as orphans.
func (s *CatalogService) DeleteSection(ctx context.Context, id uint) error {
	booksDeleted, err := s.catalog.DeleteSection(ctx, id)
	if err != nil {
		return err
	}

	s.log.Info("Section deleted", zap.Uint("section_id", id), zap.Int64("books_deleted", booksDeleted))
	s.metrics.CatalogOperation("delete_section")
	s.emit(events.EventSectionDeleted, map[string]interface{}{"section_id": id, "books_deleted": booksDeleted})
	return nil
}

// GetSection returns one section
func (s *CatalogService) GetSection(ctx context.Context, id uint) (*db.Section, error) {
	section, err := s.catalog.GetSection(ctx, id)
	if errors.Is(err, repo.ErrSectionNotFound) {
		return nil, notFound("section", id)
	}
	return section, err
}

// ListSections returns every section, newest first
func (s *CatalogService) ListSections(ctx context.Context) ([]*db.Section, error) {
	return s.catalog.ListSections(ctx)
}

// CreateBook adds a book to a section. The path is stored verbatim.
func (s *CatalogService) CreateBook(ctx context.Context, sectionID uint, in BookInput) (*db.Book, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	book := &db.Book{
		SectionID:   sectionID,
		Name:        in.Name,
		Author:      in.Author,
		Description: in.Description,
		Path:        in.Path,
	}
	if err := s.catalog.CreateBook(ctx, book); err != nil {
		return nil, err
	}

	s.log.Info("Book created", zap.Uint("book_id", book.ID), zap.Uint("section_id", sectionID), zap.String("name", book.Name))
	s.metrics.CatalogOperation("create_book")
	s.emit(events.EventBookCreated, map[string]interface{}{
		"book_id":    book.ID,
		"section_id": book.SectionID,
		"name":       book.Name,
		"author":     book.Author,
	})
	return book, nil
}

// UpdateBook overwrites name, description and author. in.Path is ignored.
func (s *CatalogService) UpdateBook(ctx context.Context, id uint, in BookInput) error {
	if err := validateInput(in); err != nil {
		return err
	}

	affected, err := s.catalog.UpdateBook(ctx, id, in.Name, in.Description, in.Author)
	if err != nil {
		return err
	}
	if affected == 0 {
		s.log.Debug("Book update matched no rows", zap.Uint("book_id", id))
		return nil
	}

	s.log.Info("Book updated", zap.Uint("book_id", id))
	s.metrics.CatalogOperation("update_book")
	s.emit(events.EventBookUpdated, map[string]interface{}{"book_id": id, "name": in.Name, "author": in.Author})
	return nil
}

// DeleteBook hard deletes a book, leaving its requests and assignments in place
func (s *CatalogService) DeleteBook(ctx context.Context, id uint) error {
	affected, err := s.catalog.DeleteBook(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		s.log.Debug("Book delete matched no rows", zap.Uint("book_id", id))
		return nil
	}

	s.log.Info("Book deleted", zap.Uint("book_id", id))
	s.metrics.CatalogOperation("delete_book")
	s.emit(events.EventBookDeleted, map[string]interface{}{"book_id": id})
	return nil
}

// GetBook returns one book
func (s *CatalogService) GetBook(ctx context.Context, id uint) (*db.Book, error) {
	book, err := s.catalog.GetBook(ctx, id)
	if errors.Is(err, repo.ErrBookNotFound) {
		return nil, notFound("book", id)
	}
	return book, err
}

// ListBooks returns the books of a section annotated with their lending state
func (s *CatalogService) ListBooks(ctx context.Context, sectionID uint) ([]BookListing, error) {
	books, err := s.catalog.ListBooksBySection(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(books))
	for i, book := range books {
		ids[i] = book.ID
	}

	requests, err := s.lending.ListRequestsForBooks(ctx, ids)
	if err != nil {
		return nil, err
	}
	assignments, err := s.lending.ListAssignmentsForBooks(ctx, ids)
	if err != nil {
		return nil, err
	}

	return annotate(books, requests, assignments), nil
}

// ListAllBooks returns the whole catalog
func (s *CatalogService) ListAllBooks(ctx context.Context) ([]*db.Book, error) {
	return s.catalog.ListAllBooks(ctx)
}

// Search matches query case-insensitively against name, author and description of every book.
// An empty query searches nothing.
func (s *CatalogService) Search(ctx context.Context, query string) (*SearchResult, error) {
	result := &SearchResult{Query: query, Matches: []repo.SearchMatch{}}
	if query == "" {
		return result, nil
	}

	matches, err := s.catalog.SearchBooks(ctx, query)
	if err != nil {
		return nil, err
	}

	result.Performed = true
	if matches != nil {
		result.Matches = matches
	}
	result.Count = len(result.Matches)
	return result, nil
}

// Overview returns the librarian dashboard counts
func (s *CatalogService) Overview(ctx context.Context) (*db.Stats, error) {
	return s.catalog.GetStats(ctx)
}
