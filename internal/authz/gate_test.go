package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	reports map[int64][]int64
	levels  map[int64]Level
	perms   map[int64][]string
	err     error
}

func (s *stubStore) DirectReportsOf(_ context.Context, userID int64) ([]int64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.reports[userID], nil
}

func (s *stubStore) RoleLevelOf(_ context.Context, roleID int64) (Level, error) {
	if s.err != nil {
		return 0, s.err
	}
	level, ok := s.levels[roleID]
	if !ok {
		return 0, ErrUnknownRole
	}
	return level, nil
}

func (s *stubStore) PermissionsOf(_ context.Context, roleID int64) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.perms[roleID], nil
}

func TestCanReadTaskCreatorMatchBeatsDepartmentMismatch(t *testing.T) {
	r := NewResolver(&stubStore{})
	p := employee(10, ptrInt64(5))
	task := TaskRecord{ID: 1, CreatorID: 10, AssigneeID: 99, DepartmentID: ptrInt64(7)}

	decision, err := r.CanReadTask(context.Background(), p, task)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCanReadTaskEmployeeDeniedForForeignTask(t *testing.T) {
	r := NewResolver(&stubStore{})
	p := employee(10, ptrInt64(5))
	task := TaskRecord{ID: 1, CreatorID: 30, AssigneeID: 31, DepartmentID: ptrInt64(5)}

	decision, err := r.CanReadTask(context.Background(), p, task)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNotOwnerOrManager, decision.Reason)
}

func TestCanReadTaskManagerViaDirectReport(t *testing.T) {
	store := &stubStore{reports: map[int64][]int64{20: {31, 32}}}
	r := NewResolver(store)
	p := manager(20, ptrInt64(5))
	task := TaskRecord{ID: 1, CreatorID: 31, AssigneeID: 32, DepartmentID: ptrInt64(9)}

	decision, err := r.CanReadTask(context.Background(), p, task)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCanReadTaskManagerViaDepartment(t *testing.T) {
	r := NewResolver(&stubStore{})
	p := manager(20, ptrInt64(5))
	task := TaskRecord{ID: 1, CreatorID: 40, AssigneeID: 41, DepartmentID: ptrInt64(5)}

	decision, err := r.CanReadTask(context.Background(), p, task)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCanReadTaskManagerViaAssigneeDepartment(t *testing.T) {
	r := NewResolver(&stubStore{})
	p := manager(20, ptrInt64(5))
	task := TaskRecord{ID: 1, CreatorID: 40, AssigneeID: 41, DepartmentID: ptrInt64(9), AssigneeDepartmentID: ptrInt64(5)}

	decision, err := r.CanReadTask(context.Background(), p, task)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCanReadTaskStoreFailureFailsClosed(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}
	r := NewResolver(store)
	p := manager(20, nil)
	task := TaskRecord{ID: 1, CreatorID: 40, AssigneeID: 41}

	decision, err := r.CanReadTask(context.Background(), p, task)
	require.ErrorIs(t, err, ErrStoreUnavailable)
	assert.False(t, decision.Allowed)
}

func TestCanReadUserSelf(t *testing.T) {
	r := NewResolver(&stubStore{})
	p := employee(10, ptrInt64(5))

	decision, err := r.CanReadUser(context.Background(), p, UserRecord{ID: 10, Level: LevelEmployee})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCanReadUserManagerDirectReport(t *testing.T) {
	store := &stubStore{reports: map[int64][]int64{20: {33}}}
	r := NewResolver(store)
	p := manager(20, ptrInt64(5))

	decision, err := r.CanReadUser(context.Background(), p, UserRecord{ID: 33, Level: LevelEmployee})
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = r.CanReadUser(context.Background(), p, UserRecord{ID: 34, Level: LevelEmployee})
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNotOwnerOrManager, decision.Reason)
}

func TestCanAssignTasksPermissionMembership(t *testing.T) {
	store := &stubStore{perms: map[int64][]string{
		3: {"tasks.read", "tasks.assign"},
		4: {"tasks.read"},
	}}
	r := NewResolver(store)

	decision, err := r.CanAssignTasks(context.Background(), manager(20, nil))
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = r.CanAssignTasks(context.Background(), employee(10, nil))
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonPermissionMissing, decision.Reason)
}

func TestCanAssignTasksStoreFailureFailsClosed(t *testing.T) {
	r := NewResolver(&stubStore{err: errors.New("timeout")})

	decision, err := r.CanAssignTasks(context.Background(), manager(20, nil))
	require.ErrorIs(t, err, ErrStoreUnavailable)
	assert.False(t, decision.Allowed)
}

func TestCanModifyUserRoleDirectorCannotTouchAdmin(t *testing.T) {
	r := NewResolver(&stubStore{})
	target := UserRecord{ID: 5, Level: LevelAdmin}

	decision := r.CanModifyUserRole(director(1), target, LevelManager)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonTargetIsHigherPrivilege, decision.Reason)

	decision = r.CanModifyUserRole(admin(1), target, LevelManager)
	assert.True(t, decision.Allowed)
}

func TestCanModifyUserRoleEscalationCeiling(t *testing.T) {
	r := NewResolver(&stubStore{})
	target := UserRecord{ID: 5, Level: LevelEmployee}

	for _, p := range []Principal{director(2), manager(20, nil), employee(10, nil)} {
		decision := r.CanModifyUserRole(p, target, LevelAdmin)
		assert.False(t, decision.Allowed, "level %d minted an admin", p.Level)
	}
	assert.True(t, r.CanModifyUserRole(admin(1), target, LevelAdmin).Allowed)
}

func TestCanModifyUserRoleRequiresDirector(t *testing.T) {
	r := NewResolver(&stubStore{})
	target := UserRecord{ID: 5, Level: LevelEmployee}

	decision := r.CanModifyUserRole(manager(20, nil), target, LevelEmployee)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonInsufficientRoleLevel, decision.Reason)
}

func TestCanEditUserProfile(t *testing.T) {
	r := NewResolver(&stubStore{})
	target := UserRecord{ID: 10, Level: LevelEmployee}

	assert.True(t, r.CanEditUserProfile(employee(10, nil), target).Allowed)
	assert.True(t, r.CanEditUserProfile(director(2), target).Allowed)

	decision := r.CanEditUserProfile(manager(20, nil), target)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonInsufficientRoleLevel, decision.Reason)

	decision = r.CanEditUserProfile(director(2), UserRecord{ID: 1, Level: LevelAdmin})
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonTargetIsHigherPrivilege, decision.Reason)
}

func TestSelfProtection(t *testing.T) {
	r := NewResolver(&stubStore{})
	for _, p := range []Principal{admin(1), director(2), manager(20, nil), employee(10, nil)} {
		self := UserRecord{ID: p.ID, Level: p.Level}
		decision := r.CanDeactivateUser(p, self)
		assert.Equal(t, ReasonSelfModificationForbidden, decision.Reason, "level %d", p.Level)
		decision = r.CanDeleteUser(p, self)
		assert.Equal(t, ReasonSelfModificationForbidden, decision.Reason, "level %d", p.Level)
	}
}

func TestDeactivateThresholds(t *testing.T) {
	r := NewResolver(&stubStore{})
	target := UserRecord{ID: 5, Level: LevelEmployee}

	assert.True(t, r.CanDeactivateUser(admin(1), target).Allowed)
	assert.True(t, r.CanDeactivateUser(director(2), target).Allowed)
	assert.False(t, r.CanDeactivateUser(manager(20, nil), target).Allowed)

	assert.True(t, r.CanDeleteUser(admin(1), target).Allowed)
	decision := r.CanDeleteUser(director(2), target)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonInsufficientRoleLevel, decision.Reason)
}

func TestRemovingAdminRequiresAdmin(t *testing.T) {
	r := NewResolver(&stubStore{})
	target := UserRecord{ID: 5, Level: LevelAdmin}

	decision := r.CanDeactivateUser(director(2), target)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonTargetIsHigherPrivilege, decision.Reason)
	assert.True(t, r.CanDeactivateUser(admin(1), target).Allowed)
}
