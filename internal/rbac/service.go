package rbac

import (
	"context"
	"strings"
)

// Service orchestrates catalog lookups.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles ordered by level.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// ListPermissions returns the full permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// EffectivePermissions returns permission names granted to a role.
func (s *Service) EffectivePermissions(ctx context.Context, roleID int64) ([]string, error) {
	return s.repo.RolePermissions(ctx, roleID)
}

// HasPermission reports whether granted contains the required name.
func HasPermission(granted []string, required string) bool {
	for _, p := range granted {
		if strings.EqualFold(p, required) {
			return true
		}
	}
	return false
}
