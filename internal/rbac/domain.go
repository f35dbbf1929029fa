// Package rbac exposes the role and permission catalog and the
// permission-based HTTP middleware. Hierarchy decisions live in authz;
// this package only answers what a role is allowed to do.
package rbac

import "time"

// Role represents a named privilege tier.
type Role struct {
	ID          int64
	Name        string
	Level       int
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability.
type Permission struct {
	ID          int64
	Name        string
	Description string
}
