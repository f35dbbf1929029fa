package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Principal builds the request principal for an authenticated user id.
// The snapshot is immutable for the request's duration.
func (s *Service) Principal(ctx context.Context, userID int64) (authz.Principal, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return authz.Principal{}, err
	}
	if !user.IsActive {
		return authz.Principal{}, shared.ErrInvalidCredentials
	}
	level := authz.Level(user.RoleLevel)
	if !authz.KnownLevel(level) {
		return authz.Principal{}, fmt.Errorf("%w: role %d maps to level %d", authz.ErrUnknownRole, user.RoleID, user.RoleLevel)
	}
	return authz.Principal{
		ID:           user.ID,
		RoleID:       user.RoleID,
		Level:        level,
		DepartmentID: user.DepartmentID,
		ManagerID:    user.ManagerID,
	}, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
