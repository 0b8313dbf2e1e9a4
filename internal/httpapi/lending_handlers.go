package httpapi

import (
	"net/http"
)

func (s *Server) handleRequestBook(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r)
	bookID, err := pathID(r, "book_id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	request, err := s.lending.Request(r.Context(), actor, bookID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.created(w, request)
}

func (s *Server) handleMyBooks(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r)
	books, err := s.lending.MyBooks(r.Context(), actor)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, books)
}

func (s *Server) handleMyRequests(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r)
	requests, err := s.lending.MyRequests(r.Context(), actor)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, requests)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.lending.ListRequests(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, requests)
}

func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := s.lending.ListAssignments(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, assignments)
}

// pairFromQuery reads the user_id and book_id query parameters
func pairFromQuery(r *http.Request) (userID, bookID uint, err error) {
	if userID, err = queryID(r, "user_id"); err != nil {
		return 0, 0, err
	}
	if bookID, err = queryID(r, "book_id"); err != nil {
		return 0, 0, err
	}
	return userID, bookID, nil
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "request_id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	userID, bookID, err := pairFromQuery(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	assignment, err := s.lending.Approve(r.Context(), userID, bookID, requestID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.created(w, assignment)
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	userID, bookID, err := pairFromQuery(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	assignment, err := s.lending.Assign(r.Context(), userID, bookID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.created(w, assignment)
}

func (s *Server) handleDecline(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "request_id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if err := s.lending.Decline(r.Context(), requestID); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, map[string]uint{"id": requestID})
}

func (s *Server) handleCancelAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := pathID(r, "assignment_id")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if err := s.lending.CancelAssignment(r.Context(), assignmentID); err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, map[string]uint{"id": assignmentID})
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	userID, bookID, err := pairFromQuery(r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	returned, err := s.lending.ReturnBook(r.Context(), userID, bookID)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	s.ok(w, map[string]int64{"returned": returned})
}
