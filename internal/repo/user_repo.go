package repo

import (
	"context"
	"errors"

	"github.com/librarydesk/lms/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when registering an existing username
	ErrUsernameTaken = errors.New("username already taken")
)

// Profile carries the user-editable contact details
type Profile struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
}

// UserRepository handles user account storage
type UserRepository struct {
	db  *db.DB
	log *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(database *db.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:  database,
		log: logger,
	}
}

// CreateUser inserts a new account
func (r *UserRepository) CreateUser(ctx context.Context, user *db.User) error {
	var existing db.User
	err := r.db.WithContext(ctx).Where("username = ?", user.Username).First(&existing).Error
	if err == nil {
		return ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Error("Failed to check username", zap.String("username", user.Username), zap.Error(err))
		return err
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUsernameTaken
		}
		r.log.Error("Failed to create user", zap.String("username", user.Username), zap.Error(err))
		return err
	}
	return nil
}

// GetUser retrieves a user by id
func (r *UserRepository) GetUser(ctx context.Context, id uint) (*db.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetUserByUsername retrieves a user by username
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*db.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) first(ctx context.Context, cond string, arg interface{}) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).Where(cond, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		r.log.Error("Failed to get user", zap.Any("key", arg), zap.Error(err))
		return nil, err
	}
	return &user, nil
}

// UpdateProfile overwrites every contact field. Unknown ids are a no-op.
// Renaming to a username held by another account returns ErrUsernameTaken.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uint, profile Profile) (int64, error) {
	var owner db.User
	err := r.db.WithContext(ctx).Where("username = ? AND id <> ?", profile.Username, id).First(&owner).Error
	if err == nil {
		return 0, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		r.log.Error("Failed to check username", zap.String("username", profile.Username), zap.Error(err))
		return 0, err
	}

	result := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"username":   profile.Username,
			"first_name": profile.FirstName,
			"last_name":  profile.LastName,
			"email":      profile.Email,
			"phone":      profile.Phone,
			"address":    profile.Address,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return 0, ErrUsernameTaken
		}
		r.log.Error("Failed to update profile", zap.Uint("user_id", id), zap.Error(result.Error))
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
