package library

import (
	"context"
	"time"

	"github.com/librarydesk/lms/internal/db"
	"github.com/librarydesk/lms/internal/events"
	"github.com/librarydesk/lms/internal/metrics"
	"github.com/librarydesk/lms/internal/repo"
	"go.uber.org/zap"
)

// LoanPeriodDays is the number of calendar days between issue and return
const LoanPeriodDays = 7

// DueDate returns the return date of a loan issued at issued
func DueDate(issued time.Time) time.Time {
	return issued.AddDate(0, 0, LoanPeriodDays)
}

type lendingPair struct {
	UserID uint `json:"user_id" validate:"required"`
	BookID uint `json:"book_id" validate:"required"`
}

type approval struct {
	UserID    uint `json:"user_id" validate:"required"`
	BookID    uint `json:"book_id" validate:"required"`
	RequestID uint `json:"request_id" validate:"required"`
}

type idInput struct {
	ID uint `json:"id" validate:"required"`
}

// LendingService drives the request → assignment → return workflow
type LendingService struct {
	lending *repo.LendingRepository
	metrics *metrics.Metrics
	now     func() time.Time
	notifier
}

// NewLendingService creates a lending service
func NewLendingService(lending *repo.LendingRepository, publisher Publisher, m *metrics.Metrics, log *zap.Logger) *LendingService {
	return &LendingService{
		lending:  lending,
		metrics:  m,
		now:      time.Now,
		notifier: notifier{publisher: publisher, log: log},
	}
}

// newAssignment builds the complete record, due date included, before it is written
func (s *LendingService) newAssignment(userID, bookID uint) *db.Assignment {
	issued := s.now().UTC().Truncate(time.Second)
	return &db.Assignment{
		UserID:     userID,
		BookID:     bookID,
		DateIssued: issued,
		ReturnDate: DueDate(issued),
	}
}

// Request records the actor's ask to borrow a book.
// Duplicate requests and requests for assigned books are accepted.
func (s *LendingService) Request(ctx context.Context, actor Actor, bookID uint) (*db.Request, error) {
	if err := validateInput(lendingPair{UserID: actor.ID, BookID: bookID}); err != nil {
		return nil, err
	}

	request := &db.Request{UserID: actor.ID, BookID: bookID, RequestDate: s.now().UTC()}
	if err := s.lending.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	s.log.Info("Book requested",
		zap.Uint("request_id", request.ID),
		zap.Uint("user_id", actor.ID),
		zap.Uint("book_id", bookID),
	)
	s.metrics.LendingTransition("request")
	s.emit(events.EventRequestCreated, map[string]interface{}{
		"request_id": request.ID,
		"user_id":    request.UserID,
		"book_id":    request.BookID,
	})
	return request, nil
}

// Approve converts a request into an assignment and removes the request.
// The assignment is inserted whole; no other assignment for the pair is touched.
func (s *LendingService) Approve(ctx context.Context, userID, bookID, requestID uint) (*db.Assignment, error) {
	if err := validateInput(approval{UserID: userID, BookID: bookID, RequestID: requestID}); err != nil {
		return nil, err
	}

	assignment := s.newAssignment(userID, bookID)
	removed, err := s.lending.ApproveRequest(ctx, assignment, requestID)
	if err != nil {
		return nil, err
	}

	s.log.Info("Request approved",
		zap.Uint("request_id", requestID),
		zap.Uint("assignment_id", assignment.ID),
		zap.Uint("user_id", userID),
		zap.Uint("book_id", bookID),
		zap.Time("return_date", assignment.ReturnDate),
		zap.Int64("requests_removed", removed),
	)
	s.metrics.LendingTransition("approve")
	s.emitAssignment(assignment, requestID)
	return assignment, nil
}

// Assign lends a book directly, bypassing the request step
func (s *LendingService) Assign(ctx context.Context, userID, bookID uint) (*db.Assignment, error) {
	if err := validateInput(lendingPair{UserID: userID, BookID: bookID}); err != nil {
		return nil, err
	}

	assignment := s.newAssignment(userID, bookID)
	if err := s.lending.CreateAssignment(ctx, assignment); err != nil {
		return nil, err
	}

	s.log.Info("Book assigned",
		zap.Uint("assignment_id", assignment.ID),
		zap.Uint("user_id", userID),
		zap.Uint("book_id", bookID),
	)
	s.metrics.LendingTransition("assign")
	s.emitAssignment(assignment, 0)
	return assignment, nil
}

func (s *LendingService) emitAssignment(a *db.Assignment, requestID uint) {
	payload := map[string]interface{}{
		"assignment_id": a.ID,
		"user_id":       a.UserID,
		"book_id":       a.BookID,
		"date_issued":   a.DateIssued.Format(time.RFC3339),
		"return_date":   a.ReturnDate.Format(time.RFC3339),
	}
	if requestID != 0 {
		payload["request_id"] = requestID
	}
	s.emit(events.EventAssignmentCreated, payload)
}

// Decline deletes a pending request
func (s *LendingService) Decline(ctx context.Context, requestID uint) error {
	if err := validateInput(idInput{ID: requestID}); err != nil {
		return err
	}

	removed, err := s.lending.DeleteRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if removed == 0 {
		s.log.Debug("Decline matched no request", zap.Uint("request_id", requestID))
		return nil
	}

	s.log.Info("Request declined", zap.Uint("request_id", requestID))
	s.metrics.LendingTransition("decline")
	s.emit(events.EventRequestDeclined, map[string]interface{}{"request_id": requestID})
	return nil
}

// CancelAssignment deletes one assignment by id
func (s *LendingService) CancelAssignment(ctx context.Context, assignmentID uint) error {
	if err := validateInput(idInput{ID: assignmentID}); err != nil {
		return err
	}

	removed, err := s.lending.DeleteAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if removed == 0 {
		s.log.Debug("Cancel matched no assignment", zap.Uint("assignment_id", assignmentID))
		return nil
	}

	s.log.Info("Assignment cancelled", zap.Uint("assignment_id", assignmentID))
	s.metrics.LendingTransition("cancel")
	s.emit(events.EventAssignmentCancelled, map[string]interface{}{"assignment_id": assignmentID})
	return nil
}

// ReturnBook deletes every assignment the user holds for the book and reports how many
func (s *LendingService) ReturnBook(ctx context.Context, userID, bookID uint) (int64, error) {
	if err := validateInput(lendingPair{UserID: userID, BookID: bookID}); err != nil {
		return 0, err
	}

	removed, err := s.lending.DeleteAssignmentsByPair(ctx, userID, bookID)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		s.log.Debug("Return matched no assignment", zap.Uint("user_id", userID), zap.Uint("book_id", bookID))
		return 0, nil
	}

	s.log.Info("Book returned",
		zap.Uint("user_id", userID),
		zap.Uint("book_id", bookID),
		zap.Int64("assignments_removed", removed),
	)
	s.metrics.LendingTransition("return")
	s.emit(events.EventBookReturned, map[string]interface{}{
		"user_id":             userID,
		"book_id":             bookID,
		"assignments_removed": removed,
	})
	return removed, nil
}

// MyBooks returns the books currently lent to the actor
func (s *LendingService) MyBooks(ctx context.Context, actor Actor) ([]*db.BorrowedBook, error) {
	return s.lending.ListBorrowedBooks(ctx, actor.ID)
}

// MyRequests returns the actor's pending requests
func (s *LendingService) MyRequests(ctx context.Context, actor Actor) ([]*db.Request, error) {
	return s.lending.ListRequestsByUser(ctx, actor.ID)
}

// ListRequests returns every pending request
func (s *LendingService) ListRequests(ctx context.Context) ([]*db.Request, error) {
	return s.lending.ListRequests(ctx)
}

// ListAssignments returns every assignment
func (s *LendingService) ListAssignments(ctx context.Context) ([]*db.Assignment, error) {
	return s.lending.ListAssignments(ctx)
}
