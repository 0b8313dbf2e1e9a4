package repo

import (
	"context"
	"testing"

	"github.com/librarydesk/lms/internal/db"
	"github.com/librarydesk/lms/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserDuplicate(t *testing.T) {
	database := setupTestDB(t)
	repo := NewUserRepository(database, logger.NewLogger("test", "info"))
	ctx := context.Background()

	user := &db.User{Username: "ada", Role: db.RoleUser, PasswordHash: "hash"}
	require.NoError(t, repo.CreateUser(ctx, user))
	assert.NotZero(t, user.ID)

	err := repo.CreateUser(ctx, &db.User{Username: "ada", Role: db.RoleUser, PasswordHash: "hash"})
	assert.Equal(t, ErrUsernameTaken, err)

	byName, err := repo.GetUserByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = repo.GetUser(ctx, 999)
	assert.Equal(t, ErrUserNotFound, err)
}

func TestUpdateProfileOverwritesEmptyFields(t *testing.T) {
	database := setupTestDB(t)
	repo := NewUserRepository(database, logger.NewLogger("test", "info"))
	ctx := context.Background()

	user := &db.User{Username: "ada", FirstName: "Ada", Email: "ada@example.com", Role: db.RoleUser, PasswordHash: "hash"}
	require.NoError(t, repo.CreateUser(ctx, user))

	affected, err := repo.UpdateProfile(ctx, user.ID, Profile{Username: "ada.l", Phone: "555-0100"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	updated, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada.l", updated.Username)
	assert.Empty(t, updated.FirstName)
	assert.Empty(t, updated.Email)
	assert.Equal(t, "555-0100", updated.Phone)
	assert.Equal(t, db.RoleUser, updated.Role)
	assert.Equal(t, "hash", updated.PasswordHash)

	affected, err = repo.UpdateProfile(ctx, 999, Profile{Username: "ghost"})
	assert.NoError(t, err)
	assert.Zero(t, affected)
}

func TestUpdateProfileRejectsTakenUsername(t *testing.T) {
	database := setupTestDB(t)
	repo := NewUserRepository(database, logger.NewLogger("test", "info"))
	ctx := context.Background()

	ada := &db.User{Username: "ada", Role: db.RoleUser, PasswordHash: "hash"}
	require.NoError(t, repo.CreateUser(ctx, ada))
	require.NoError(t, repo.CreateUser(ctx, &db.User{Username: "grace", Role: db.RoleUser, PasswordHash: "hash"}))

	_, err := repo.UpdateProfile(ctx, ada.ID, Profile{Username: "grace"})
	assert.Equal(t, ErrUsernameTaken, err)

	unchanged, err := repo.GetUser(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", unchanged.Username)

	// Keeping one's own username is not a conflict
	affected, err := repo.UpdateProfile(ctx, ada.ID, Profile{Username: "ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}
