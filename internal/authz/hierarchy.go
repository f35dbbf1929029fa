package authz

import (
	"context"
	"errors"
	"fmt"
)

// AtLeastAsPrivileged reports whether level a dominates level b.
// Lower numbers are more privileged, so Admin (1) dominates everything.
func AtLeastAsPrivileged(a, b Level) bool {
	return a <= b
}

// LevelOf resolves a role id to its privilege level. An id outside the
// known set yields ErrUnknownRole; this is treated as a configuration
// fault, never silently defaulted to a level.
func (r *Resolver) LevelOf(ctx context.Context, roleID int64) (Level, error) {
	level, err := r.store.RoleLevelOf(ctx, roleID)
	if err != nil {
		if errors.Is(err, ErrUnknownRole) {
			return 0, fmt.Errorf("%w: role %d", ErrUnknownRole, roleID)
		}
		return 0, fmt.Errorf("%w: role level of %d: %v", ErrStoreUnavailable, roleID, err)
	}
	if !KnownLevel(level) {
		return 0, fmt.Errorf("%w: role %d maps to level %d", ErrUnknownRole, roleID, level)
	}
	return level, nil
}

// IsDirectReportOf reports whether candidateID's manager is managerID.
// This is the one hierarchy query that needs a store round trip.
func (r *Resolver) IsDirectReportOf(ctx context.Context, candidateID, managerID int64) (bool, error) {
	reports, err := r.store.DirectReportsOf(ctx, managerID)
	if err != nil {
		return false, fmt.Errorf("%w: direct reports of %d: %v", ErrStoreUnavailable, managerID, err)
	}
	for _, id := range reports {
		if id == candidateID {
			return true, nil
		}
	}
	return false, nil
}
