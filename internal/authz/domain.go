// Package authz decides what an authenticated user may see and do.
// It is purely functional over a request-scoped Principal snapshot;
// the only I/O is read-only lookups against the record store.
package authz

// Level is a role privilege tier. Lower numbers are more privileged.
type Level int

const (
	LevelAdmin    Level = 1
	LevelDirector Level = 2
	LevelManager  Level = 3
	LevelEmployee Level = 4
)

// KnownLevel reports whether l belongs to the closed level set.
func KnownLevel(l Level) bool {
	return l >= LevelAdmin && l <= LevelEmployee
}

// Principal is the authenticated actor, built once per request from
// verified session data and immutable for the request's duration.
type Principal struct {
	ID           int64
	RoleID       int64
	Level        Level
	DepartmentID *int64
	ManagerID    *int64
}

// TaskRecord carries the task attributes the gate needs to decide access.
type TaskRecord struct {
	ID                   int64
	CreatorID            int64
	AssigneeID           int64
	DepartmentID         *int64
	CreatorDepartmentID  *int64
	AssigneeDepartmentID *int64
}

// UserRecord carries the user attributes the gate needs to decide access.
type UserRecord struct {
	ID           int64
	Level        Level
	DepartmentID *int64
	ManagerID    *int64
}

// DenyReason enumerates why a gate check refused an action.
type DenyReason string

const (
	ReasonInsufficientRoleLevel     DenyReason = "insufficient_role_level"
	ReasonNotOwnerOrManager         DenyReason = "not_owner_or_manager"
	ReasonPermissionMissing         DenyReason = "permission_missing"
	ReasonSelfModificationForbidden DenyReason = "self_modification_forbidden"
	ReasonTargetIsHigherPrivilege   DenyReason = "target_is_higher_privilege"
)

// Decision is the outcome of a gate check. Deny carries a reason for
// auditing; it is a first-class value, not an error.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Allow returns a permissive decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a refusal carrying the given reason.
func Deny(reason DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
