package users

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/observability"
	"github.com/taskhive/taskhive/internal/shared"
)

// Service handles user management business logic. Every operation takes
// the caller's principal and consults the scope resolver before
// touching the repository; callers never re-derive scoping rules.
type Service struct {
	repo     Repository
	resolver *authz.Resolver
	audit    *shared.AuditLogger
	metrics  *observability.Metrics
}

// NewService builds a Service instance. Audit and metrics may be nil.
func NewService(repo Repository, resolver *authz.Resolver, audit *shared.AuditLogger, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, resolver: resolver, audit: audit, metrics: metrics}
}

// CreateUserInput carries attributes for a new account.
type CreateUserInput struct {
	Email        string
	Name         string
	Password     string
	RoleID       int64
	DepartmentID *int64
	ManagerID    *int64
}

// List returns users visible to the principal.
func (s *Service) List(ctx context.Context, p authz.Principal, filter authz.UserFilter, page, perPage int) ([]User, shared.Pagination, error) {
	scope := s.resolver.UserScope(p, filter)
	bounds := shared.NewPagination(page, perPage, 0)
	users, total, err := s.repo.List(ctx, scope, bounds.PerPage, bounds.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(bounds.Page, bounds.PerPage, total), nil
}

// Get fetches one user, gated by CanReadUser.
func (s *Service) Get(ctx context.Context, p authz.Principal, id int64) (*User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	decision, err := s.resolver.CanReadUser(ctx, p, userRecord(user))
	if err != nil {
		return nil, err
	}
	s.observe("users.read", decision)
	if !decision.Allowed {
		_ = s.audit.RecordDenied(ctx, p.ID, "users.read", "user", strconv.FormatInt(id, 10), decision.Reason)
		return nil, fmt.Errorf("%w: %s", shared.ErrForbidden, decision.Reason)
	}
	return user, nil
}

// Create provisions a new account. The caller must be able to grant the
// new account's role; the same ceiling as a role change applies.
func (s *Service) Create(ctx context.Context, p authz.Principal, input CreateUserInput) (*User, error) {
	level, err := s.resolver.LevelOf(ctx, input.RoleID)
	if err != nil {
		return nil, err
	}
	decision := s.resolver.CanModifyUserRole(p, authz.UserRecord{Level: level}, level)
	s.observe("users.create", decision)
	if !decision.Allowed {
		_ = s.audit.RecordDenied(ctx, p.ID, "users.create", "user", "new", decision.Reason)
		return nil, fmt.Errorf("%w: %s", shared.ErrForbidden, decision.Reason)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := User{
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Name:         norm.NFC.String(strings.TrimSpace(input.Name)),
		RoleID:       input.RoleID,
		DepartmentID: input.DepartmentID,
		ManagerID:    input.ManagerID,
	}
	id, err := s.repo.Create(ctx, user, string(hash))
	if err != nil {
		return nil, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: p.ID, Action: "users.create", Entity: "user", EntityID: strconv.FormatInt(id, 10)})
	return s.repo.Get(ctx, id)
}

// UpdateProfileInput carries mutable profile attributes.
type UpdateProfileInput struct {
	Name         string
	DepartmentID *int64
	ManagerID    *int64
}

// UpdateProfile edits target's profile, gated by CanEditUserProfile.
func (s *Service) UpdateProfile(ctx context.Context, p authz.Principal, targetID int64, input UpdateProfileInput) error {
	target, err := s.repo.Get(ctx, targetID)
	if err != nil {
		return err
	}
	decision := s.resolver.CanEditUserProfile(p, userRecord(target))
	s.observe("users.update_profile", decision)
	if !decision.Allowed {
		_ = s.audit.RecordDenied(ctx, p.ID, "users.update_profile", "user", strconv.FormatInt(targetID, 10), decision.Reason)
		return fmt.Errorf("%w: %s", shared.ErrForbidden, decision.Reason)
	}
	name := norm.NFC.String(strings.TrimSpace(input.Name))
	if err := s.repo.UpdateProfile(ctx, targetID, name, input.DepartmentID, input.ManagerID); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: p.ID, Action: "users.update_profile", Entity: "user", EntityID: strconv.FormatInt(targetID, 10)})
	return nil
}

// ChangeRole reassigns target's role, gated by CanModifyUserRole.
func (s *Service) ChangeRole(ctx context.Context, p authz.Principal, targetID, newRoleID int64) error {
	target, err := s.repo.Get(ctx, targetID)
	if err != nil {
		return err
	}
	newLevel, err := s.resolver.LevelOf(ctx, newRoleID)
	if err != nil {
		return err
	}
	decision := s.resolver.CanModifyUserRole(p, userRecord(target), newLevel)
	s.observe("users.change_role", decision)
	if !decision.Allowed {
		_ = s.audit.RecordDenied(ctx, p.ID, "users.change_role", "user", strconv.FormatInt(targetID, 10), decision.Reason)
		return fmt.Errorf("%w: %s", shared.ErrForbidden, decision.Reason)
	}
	if err := s.repo.UpdateRole(ctx, targetID, newRoleID); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.ID,
		Action:   "users.change_role",
		Entity:   "user",
		EntityID: strconv.FormatInt(targetID, 10),
		Meta:     map[string]any{"role_id": newRoleID},
	})
	return nil
}

// Deactivate disables target's account, gated by CanDeactivateUser.
func (s *Service) Deactivate(ctx context.Context, p authz.Principal, targetID int64) error {
	target, err := s.repo.Get(ctx, targetID)
	if err != nil {
		return err
	}
	decision := s.resolver.CanDeactivateUser(p, userRecord(target))
	s.observe("users.deactivate", decision)
	if !decision.Allowed {
		_ = s.audit.RecordDenied(ctx, p.ID, "users.deactivate", "user", strconv.FormatInt(targetID, 10), decision.Reason)
		return fmt.Errorf("%w: %s", shared.ErrForbidden, decision.Reason)
	}
	if err := s.repo.SetActive(ctx, targetID, false); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: p.ID, Action: "users.deactivate", Entity: "user", EntityID: strconv.FormatInt(targetID, 10)})
	return nil
}

// Delete removes target permanently, gated by CanDeleteUser.
func (s *Service) Delete(ctx context.Context, p authz.Principal, targetID int64) error {
	target, err := s.repo.Get(ctx, targetID)
	if err != nil {
		return err
	}
	decision := s.resolver.CanDeleteUser(p, userRecord(target))
	s.observe("users.delete", decision)
	if !decision.Allowed {
		_ = s.audit.RecordDenied(ctx, p.ID, "users.delete", "user", strconv.FormatInt(targetID, 10), decision.Reason)
		return fmt.Errorf("%w: %s", shared.ErrForbidden, decision.Reason)
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: p.ID, Action: "users.delete", Entity: "user", EntityID: strconv.FormatInt(targetID, 10)})
	return nil
}

func (s *Service) observe(check string, d authz.Decision) {
	s.metrics.ObserveDecision(check, d.Allowed)
}

func userRecord(u *User) authz.UserRecord {
	return authz.UserRecord{
		ID:           u.ID,
		Level:        authz.Level(u.RoleLevel),
		DepartmentID: u.DepartmentID,
		ManagerID:    u.ManagerID,
	}
}
