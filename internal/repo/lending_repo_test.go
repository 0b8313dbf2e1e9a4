package repo

import (
	"context"
	"testing"
	"time"

	"github.com/librarydesk/lms/internal/db"
	"github.com/librarydesk/lms/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssignment(userID, bookID uint, issued time.Time) *db.Assignment {
	return &db.Assignment{UserID: userID, BookID: bookID, DateIssued: issued, ReturnDate: issued.AddDate(0, 0, 7)}
}

func TestCreateAndDeleteRequest(t *testing.T) {
	database := setupTestDB(t)
	repo := NewLendingRepository(database, logger.NewLogger("test", "info"))
	ctx := context.Background()

	request := &db.Request{UserID: 7, BookID: 3}
	require.NoError(t, repo.CreateRequest(ctx, request))
	assert.NotZero(t, request.ID)
	assert.False(t, request.RequestDate.IsZero())

	// Duplicate requests for the same pair are accepted
	require.NoError(t, repo.CreateRequest(ctx, &db.Request{UserID: 7, BookID: 3}))

	mine, err := repo.ListRequestsByUser(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	removed, err := repo.DeleteRequest(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.GetRequest(ctx, request.ID)
	assert.Equal(t, ErrRequestNotFound, err)

	removed, err = repo.DeleteRequest(ctx, request.ID)
	assert.NoError(t, err)
	assert.Zero(t, removed)
}

func TestApproveRequest(t *testing.T) {
	database := setupTestDB(t)
	repo := NewLendingRepository(database, logger.NewLogger("test", "info"))
	ctx := context.Background()

	request := &db.Request{UserID: 7, BookID: 3}
	require.NoError(t, repo.CreateRequest(ctx, request))
	other := &db.Request{UserID: 8, BookID: 3}
	require.NoError(t, repo.CreateRequest(ctx, other))

	issued := time.Date(2024, time.March, 28, 10, 0, 0, 0, time.UTC)
	assignment := newAssignment(7, 3, issued)
	removed, err := repo.ApproveRequest(ctx, assignment, request.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.NotZero(t, assignment.ID)

	requests, err := repo.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, other.ID, requests[0].ID)

	assignments, err := repo.ListAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.True(t, assignments[0].DateIssued.Equal(issued))
	assert.True(t, assignments[0].ReturnDate.Equal(time.Date(2024, time.April, 4, 10, 0, 0, 0, time.UTC)))
}

func TestDeleteAssignmentsByPairRemovesAllMatches(t *testing.T) {
	database := setupTestDB(t)
	repo := NewLendingRepository(database, logger.NewLogger("test", "info"))
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.CreateAssignment(ctx, newAssignment(7, 3, now)))
	require.NoError(t, repo.CreateAssignment(ctx, newAssignment(7, 3, now)))
	keep := newAssignment(8, 3, now)
	require.NoError(t, repo.CreateAssignment(ctx, keep))

	removed, err := repo.DeleteAssignmentsByPair(ctx, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	assignments, err := repo.ListAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, keep.ID, assignments[0].ID)

	removed, err = repo.DeleteAssignment(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestListForBooks(t *testing.T) {
	database := setupTestDB(t)
	repo := NewLendingRepository(database, logger.NewLogger("test", "info"))
	ctx := context.Background()

	require.NoError(t, repo.CreateRequest(ctx, &db.Request{UserID: 1, BookID: 10}))
	require.NoError(t, repo.CreateRequest(ctx, &db.Request{UserID: 2, BookID: 20}))
	require.NoError(t, repo.CreateAssignment(ctx, newAssignment(3, 10, time.Now().UTC())))

	requests, err := repo.ListRequestsForBooks(ctx, []uint{10})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, uint(1), requests[0].UserID)

	assignments, err := repo.ListAssignmentsForBooks(ctx, []uint{10, 20})
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, uint(3), assignments[0].UserID)

	requests, err = repo.ListRequestsForBooks(ctx, nil)
	assert.NoError(t, err)
	assert.Empty(t, requests)
}

func TestListBorrowedBooksSkipsOrphans(t *testing.T) {
	database := setupTestDB(t)
	catalog := NewCatalogRepository(database, logger.NewLogger("test", "info"))
	repo := NewLendingRepository(database, logger.NewLogger("test", "info"))
	ctx := context.Background()

	section := seedSection(t, catalog, "Fiction")
	book := seedBook(t, catalog, section.ID, "Dune", "Herbert", "desc")

	now := time.Now().UTC()
	require.NoError(t, repo.CreateAssignment(ctx, newAssignment(7, book.ID, now)))
	require.NoError(t, repo.CreateAssignment(ctx, newAssignment(7, 999, now)))

	borrowed, err := repo.ListBorrowedBooks(ctx, 7)
	require.NoError(t, err)
	require.Len(t, borrowed, 1)
	assert.Equal(t, book.ID, borrowed[0].BookID)
	assert.Equal(t, "Dune", borrowed[0].Name)
	assert.Equal(t, "/books/Dune", borrowed[0].Path)
	assert.True(t, borrowed[0].ReturnDate.Equal(borrowed[0].DateIssued.AddDate(0, 0, 7)))
}
