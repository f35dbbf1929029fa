package authz

import (
	"context"
	"fmt"
	"strings"
)

// PermTasksAssign gates setting a task assignee other than oneself.
const PermTasksAssign = "tasks.assign"

// CanReadTask authorizes a single-task read. Ownership, department and
// direct-report checks combine permissively: any one match allows.
func (r *Resolver) CanReadTask(ctx context.Context, p Principal, t TaskRecord) (Decision, error) {
	if AtLeastAsPrivileged(p.Level, LevelDirector) {
		return Allow(), nil
	}
	if t.CreatorID == p.ID || t.AssigneeID == p.ID {
		return Allow(), nil
	}
	if p.Level == LevelManager {
		if sameDepartment(p.DepartmentID, t.DepartmentID) ||
			sameDepartment(p.DepartmentID, t.CreatorDepartmentID) ||
			sameDepartment(p.DepartmentID, t.AssigneeDepartmentID) {
			return Allow(), nil
		}
		reports, err := r.store.DirectReportsOf(ctx, p.ID)
		if err != nil {
			return Deny(ReasonNotOwnerOrManager), fmt.Errorf("%w: direct reports of %d: %v", ErrStoreUnavailable, p.ID, err)
		}
		for _, id := range reports {
			if id == t.CreatorID || id == t.AssigneeID {
				return Allow(), nil
			}
		}
	}
	return Deny(ReasonNotOwnerOrManager), nil
}

// CanReadUser authorizes a single-user read.
func (r *Resolver) CanReadUser(ctx context.Context, p Principal, target UserRecord) (Decision, error) {
	if AtLeastAsPrivileged(p.Level, LevelDirector) {
		return Allow(), nil
	}
	if p.ID == target.ID {
		return Allow(), nil
	}
	if p.Level == LevelManager {
		isReport, err := r.IsDirectReportOf(ctx, target.ID, p.ID)
		if err != nil {
			return Deny(ReasonNotOwnerOrManager), err
		}
		if isReport {
			return Allow(), nil
		}
	}
	return Deny(ReasonNotOwnerOrManager), nil
}

// CanAssignTasks authorizes choosing an assignee other than oneself.
// This is a pure permission-set membership check, independent of task
// ownership and the role hierarchy.
func (r *Resolver) CanAssignTasks(ctx context.Context, p Principal) (Decision, error) {
	perms, err := r.store.PermissionsOf(ctx, p.RoleID)
	if err != nil {
		return Deny(ReasonPermissionMissing), fmt.Errorf("%w: permissions of role %d: %v", ErrStoreUnavailable, p.RoleID, err)
	}
	for _, perm := range perms {
		if strings.EqualFold(perm, PermTasksAssign) {
			return Allow(), nil
		}
	}
	return Deny(ReasonPermissionMissing), nil
}

// CanModifyUserRole authorizes changing target's role. Unlike the read
// gates, the privilege-change checks combine restrictively: every guard
// must pass.
func (r *Resolver) CanModifyUserRole(p Principal, target UserRecord, newLevel Level) Decision {
	if !AtLeastAsPrivileged(p.Level, LevelDirector) {
		return Deny(ReasonInsufficientRoleLevel)
	}
	if target.Level == LevelAdmin && p.Level != LevelAdmin {
		return Deny(ReasonTargetIsHigherPrivilege)
	}
	// Only Admins may mint Admins.
	if newLevel == LevelAdmin && p.Level != LevelAdmin {
		return Deny(ReasonTargetIsHigherPrivilege)
	}
	return Allow()
}

// CanEditUserProfile authorizes profile edits. Users manage their own
// profile; directors and admins manage anyone below their own tier.
func (r *Resolver) CanEditUserProfile(p Principal, target UserRecord) Decision {
	if p.ID == target.ID {
		return Allow()
	}
	if !AtLeastAsPrivileged(p.Level, LevelDirector) {
		return Deny(ReasonInsufficientRoleLevel)
	}
	if target.Level == LevelAdmin && p.Level != LevelAdmin {
		return Deny(ReasonTargetIsHigherPrivilege)
	}
	return Allow()
}

// CanDeactivateUser authorizes disabling target's account. Deactivation
// requires Director or above.
func (r *Resolver) CanDeactivateUser(p Principal, target UserRecord) Decision {
	return canRemoveUser(p, target, LevelDirector)
}

// CanDeleteUser authorizes hard-deleting target. Deletion is Admin-only.
func (r *Resolver) CanDeleteUser(p Principal, target UserRecord) Decision {
	return canRemoveUser(p, target, LevelAdmin)
}

func canRemoveUser(p Principal, target UserRecord, threshold Level) Decision {
	if p.ID == target.ID {
		return Deny(ReasonSelfModificationForbidden)
	}
	if !AtLeastAsPrivileged(p.Level, threshold) {
		return Deny(ReasonInsufficientRoleLevel)
	}
	if target.Level == LevelAdmin && p.Level != LevelAdmin {
		return Deny(ReasonTargetIsHigherPrivilege)
	}
	return Allow()
}

func sameDepartment(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}
