package authz

import "context"

// Store is the read-only record-store surface the resolver depends on.
// Implementations must honor context cancellation; any failure is
// reported by the resolver as ErrStoreUnavailable and callers fail the
// request closed.
type Store interface {
	// DirectReportsOf returns ids of users whose manager is userID.
	DirectReportsOf(ctx context.Context, userID int64) ([]int64, error)
	// RoleLevelOf returns the numeric level for a role id.
	RoleLevelOf(ctx context.Context, roleID int64) (Level, error)
	// PermissionsOf returns the permission names granted to a role.
	PermissionsOf(ctx context.Context, roleID int64) ([]string, error)
}

// Resolver answers scope and gate questions for one principal at a
// time. It holds no cross-request state; a single instance is safe for
// concurrent use.
type Resolver struct {
	store Store
}

// NewResolver constructs a Resolver over the given record store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}
