package repo

import (
	"context"
	"errors"

	"github.com/librarydesk/lms/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrRequestNotFound is returned when a request is not found
var ErrRequestNotFound = errors.New("request not found")

// LendingRepository handles request and assignment storage
type LendingRepository struct {
	db  *db.DB
	log *zap.Logger
}

// NewLendingRepository creates a new lending repository
func NewLendingRepository(database *db.DB, logger *zap.Logger) *LendingRepository {
	return &LendingRepository{
		db:  database,
		log: logger,
	}
}

// CreateRequest inserts a pending request. Duplicates are accepted.
func (r *LendingRepository) CreateRequest(ctx context.Context, request *db.Request) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		r.log.Error("Failed to create request",
			zap.Uint("user_id", request.UserID),
			zap.Uint("book_id", request.BookID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// GetRequest retrieves a request by id
func (r *LendingRepository) GetRequest(ctx context.Context, id uint) (*db.Request, error) {
	var request db.Request
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		r.log.Error("Failed to get request", zap.Uint("request_id", id), zap.Error(err))
		return nil, err
	}
	return &request, nil
}

// DeleteRequest removes a request by id
func (r *LendingRepository) DeleteRequest(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Request{})
	if result.Error != nil {
		r.log.Error("Failed to delete request", zap.Uint("request_id", id), zap.Error(result.Error))
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListRequests returns every pending request
func (r *LendingRepository) ListRequests(ctx context.Context) ([]*db.Request, error) {
	return r.findRequests(r.db.WithContext(ctx))
}

// ListRequestsByUser returns the pending requests of one user
func (r *LendingRepository) ListRequestsByUser(ctx context.Context, userID uint) ([]*db.Request, error) {
	return r.findRequests(r.db.WithContext(ctx).Where("user_id = ?", userID))
}

// ListRequestsForBooks returns the pending requests referencing any of the given books
func (r *LendingRepository) ListRequestsForBooks(ctx context.Context, bookIDs []uint) ([]*db.Request, error) {
	if len(bookIDs) == 0 {
		return nil, nil
	}
	return r.findRequests(r.db.WithContext(ctx).Where("book_id IN ?", bookIDs))
}

func (r *LendingRepository) findRequests(query *gorm.DB) ([]*db.Request, error) {
	var requests []*db.Request
	if err := query.Order("id").Find(&requests).Error; err != nil {
		r.log.Error("Failed to list requests", zap.Error(err))
		return nil, err
	}
	return requests, nil
}

// CreateAssignment inserts a fully built assignment in a single statement
func (r *LendingRepository) CreateAssignment(ctx context.Context, assignment *db.Assignment) error {
	if err := r.db.WithContext(ctx).Create(assignment).Error; err != nil {
		r.log.Error("Failed to create assignment",
			zap.Uint("user_id", assignment.UserID),
			zap.Uint("book_id", assignment.BookID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// ApproveRequest inserts the assignment and deletes the originating request in one transaction.
// It reports how many request rows were removed.
func (r *LendingRepository) ApproveRequest(ctx context.Context, assignment *db.Assignment, requestID uint) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(assignment).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", requestID).Delete(&db.Request{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected
		return nil
	})
	if err != nil {
		r.log.Error("Failed to approve request",
			zap.Uint("request_id", requestID),
			zap.Uint("user_id", assignment.UserID),
			zap.Uint("book_id", assignment.BookID),
			zap.Error(err),
		)
		return 0, err
	}
	return removed, nil
}

// DeleteAssignment removes an assignment by id
func (r *LendingRepository) DeleteAssignment(ctx context.Context, id uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Assignment{})
	if result.Error != nil {
		r.log.Error("Failed to delete assignment", zap.Uint("assignment_id", id), zap.Error(result.Error))
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteAssignmentsByPair removes every assignment held by the user for the book
func (r *LendingRepository) DeleteAssignmentsByPair(ctx context.Context, userID, bookID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ? AND book_id = ?", userID, bookID).Delete(&db.Assignment{})
	if result.Error != nil {
		r.log.Error("Failed to delete assignments",
			zap.Uint("user_id", userID),
			zap.Uint("book_id", bookID),
			zap.Error(result.Error),
		)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListAssignments returns every assignment, including orphans
func (r *LendingRepository) ListAssignments(ctx context.Context) ([]*db.Assignment, error) {
	return r.findAssignments(r.db.WithContext(ctx))
}

// ListAssignmentsForBooks returns the assignments referencing any of the given books
func (r *LendingRepository) ListAssignmentsForBooks(ctx context.Context, bookIDs []uint) ([]*db.Assignment, error) {
	if len(bookIDs) == 0 {
		return nil, nil
	}
	return r.findAssignments(r.db.WithContext(ctx).Where("book_id IN ?", bookIDs))
}

func (r *LendingRepository) findAssignments(query *gorm.DB) ([]*db.Assignment, error) {
	var assignments []*db.Assignment
	if err := query.Order("id").Find(&assignments).Error; err != nil {
		r.log.Error("Failed to list assignments", zap.Error(err))
		return nil, err
	}
	return assignments, nil
}

// ListBorrowedBooks returns a user's assignments joined with their books.
// Assignments whose book was deleted are dropped by the join.
func (r *LendingRepository) ListBorrowedBooks(ctx context.Context, userID uint) ([]*db.BorrowedBook, error) {
	var borrowed []*db.BorrowedBook
	err := r.db.WithContext(ctx).Table("assignments").
		Select("assignments.id, assignments.book_id, books.name, books.path, assignments.date_issued, assignments.return_date").
		Joins("JOIN books ON books.id = assignments.book_id").
		Where("assignments.user_id = ?", userID).
		Order("assignments.id").
		Scan(&borrowed).Error
	if err != nil {
		r.log.Error("Failed to list borrowed books", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return borrowed, nil
}
