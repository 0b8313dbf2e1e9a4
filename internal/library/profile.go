package library

import (
	"context"
	"errors"

	"github.com/librarydesk/lms/internal/auth"
	"github.com/librarydesk/lms/internal/db"
	"github.com/librarydesk/lms/internal/repo"
	"go.uber.org/zap"
)

// ProfileInput carries the editable contact details of an account
type ProfileInput struct {
	Username  string `json:"username" validate:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// RegisterInput is the payload for creating an account
type RegisterInput struct {
	ProfileInput
	Password string `json:"password" validate:"required,max=1024"`
	Role     string `json:"role" validate:"omitempty,oneof=librarian user"`
}

// ProfileService manages accounts and their contact details
type ProfileService struct {
	users *repo.UserRepository
	log   *zap.Logger
}

// NewProfileService creates a profile service
func NewProfileService(users *repo.UserRepository, log *zap.Logger) *ProfileService {
	return &ProfileService{users: users, log: log}
}

// Register creates an account. The role defaults to user and never changes afterwards.
func (s *ProfileService) Register(ctx context.Context, in RegisterInput) (*db.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = RoleUser
	}

	user := &db.User{
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Phone:        in.Phone,
		Address:      in.Address,
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("User registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username), zap.String("role", role))
	return user, nil
}

// Authenticate checks credentials and returns the matching actor
func (s *ProfileService) Authenticate(ctx context.Context, username, password string) (Actor, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return Actor{}, ErrInvalidCredentials
		}
		return Actor{}, err
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return Actor{}, ErrInvalidCredentials
	}
	return ActorFromUser(user), nil
}

// GetProfile returns one account
func (s *ProfileService) GetProfile(ctx context.Context, id uint) (*db.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, repo.ErrUserNotFound) {
		return nil, notFound("user", id)
	}
	return user, err
}

// UpdateProfile overwrites every contact field; only the username is required.
// Unknown ids are ignored.
func (s *ProfileService) UpdateProfile(ctx context.Context, id uint, in ProfileInput) error {
	if err := validateInput(in); err != nil {
		return err
	}

	affected, err := s.users.UpdateProfile(ctx, id, repo.Profile{
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   in.Address,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		s.log.Debug("Profile update matched no rows", zap.Uint("user_id", id))
		return nil
	}

	s.log.Info("Profile updated", zap.Uint("user_id", id))
	return nil
}
