package httpapi

import (
	"net/http"

	"github.com/librarydesk/lms/internal/library"
)

type apiBook struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Author      string `json:"author"`
	Description string `json:"description"`
}

// handleAPIBooks serves the fixed-shape read API
func (s *Server) handleAPIBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.catalog.ListAllBooks(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	out := make([]apiBook, 0, len(books))
	for _, b := range books {
		out = append(out, apiBook{ID: b.ID, Name: b.Name, Author: b.Author, Description: b.Description})
	}
	writeJSON(w, http.StatusOK, map[string][]apiBook{"Books": out}, s.log)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	result, err := s.catalog.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, result)
}

func (s *Server) handleListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := s.catalog.ListSections(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, sections)
}

func (s *Server) handleGetSection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	section, err := s.catalog.GetSection(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, section)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	book, err := s.catalog.GetBook(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, book)
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	sectionID, err := pathID(r, "section_id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	books, err := s.catalog.ListBooks(r.Context(), sectionID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, books)
}

func (s *Server) handleCreateSection(w http.ResponseWriter, r *http.Request) {
	fields, err := formFields(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	section, err := s.catalog.CreateSection(r.Context(), library.SectionInput{
		Name:        fields["name"],
		Description: fields["description"],
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.created(w, section)
}

func (s *Server) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	fields, err := formFields(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	err = s.catalog.UpdateSection(r.Context(), id, library.SectionUpdate{
		Name:        fields["name"],
		Description: fields["description"],
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, map[string]uint{"id": id})
}

func (s *Server) handleDeleteSection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if err := s.catalog.DeleteSection(r.Context(), id); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, map[string]uint{"id": id})
}

func bookInput(fields map[string]string) library.BookInput {
	return library.BookInput{
		Name:        fields["name"],
		Author:      fields["author"],
		Description: bookDescription(fields),
		Path:        fields["path"],
	}
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	sectionID, err := pathID(r, "section_id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	fields, err := formFields(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	book, err := s.catalog.CreateBook(r.Context(), sectionID, bookInput(fields))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.created(w, book)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	fields, err := formFields(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if err := s.catalog.UpdateBook(r.Context(), id, bookInput(fields)); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, map[string]uint{"id": id})
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if err := s.catalog.DeleteBook(r.Context(), id); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, map[string]uint{"id": id})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	stats, err := s.catalog.Overview(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, stats)
}
