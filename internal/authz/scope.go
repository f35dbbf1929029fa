package authz

// TaskFilter carries caller-supplied narrowing for task listings.
// Filters are ANDed onto the computed scope; they can never widen it.
type TaskFilter struct {
	Status   *string
	Priority *string
	// DepartmentID is honored for Admin and Director only. Lower levels
	// cannot escape their scope by passing a department filter.
	DepartmentID *int64
}

// UserFilter carries caller-supplied narrowing for user listings.
type UserFilter struct {
	// DepartmentID is honored for Admin and Director only.
	DepartmentID *int64
	Active       *bool
}

// TaskScope computes the records-visible predicate for task listings.
// The result is deterministic for a given principal and filter pair and
// is always satisfiable; restriction comes only from the level rules:
//
//	Admin/Director  unrestricted
//	Manager         own department, own or direct reports' tasks
//	Employee        tasks they created or were assigned
func (r *Resolver) TaskScope(p Principal, f TaskFilter) Predicate {
	var scope Predicate
	switch {
	case AtLeastAsPrivileged(p.Level, LevelDirector):
		scope = True()
	case p.Level == LevelManager:
		scope = Or(
			departmentClause("department_id", p.DepartmentID),
			Eq("creator_id", p.ID),
			Eq("assignee_id", p.ID),
			ReportsOf("creator_id", p.ID),
			ReportsOf("assignee_id", p.ID),
		)
	default:
		scope = Or(
			Eq("creator_id", p.ID),
			Eq("assignee_id", p.ID),
		)
	}

	extra := []Predicate{scope}
	if f.Status != nil {
		extra = append(extra, Eq("status", *f.Status))
	}
	if f.Priority != nil {
		extra = append(extra, Eq("priority", *f.Priority))
	}
	if f.DepartmentID != nil && AtLeastAsPrivileged(p.Level, LevelDirector) {
		extra = append(extra, Eq("department_id", *f.DepartmentID))
	}
	return And(extra...)
}

// UserScope computes the records-visible predicate for user listings:
//
//	Admin     unrestricted
//	Director  everyone except Admins
//	Manager   department peers at Manager level or below, direct
//	          reports, and themselves
//	Employee  department peers at Employee level, and themselves
func (r *Resolver) UserScope(p Principal, f UserFilter) Predicate {
	var scope Predicate
	switch p.Level {
	case LevelAdmin:
		scope = True()
	case LevelDirector:
		scope = Gte("role_level", int(LevelDirector))
	case LevelManager:
		scope = Or(
			And(
				departmentClause("department_id", p.DepartmentID),
				Gte("role_level", int(LevelManager)),
			),
			Eq("manager_id", p.ID),
			Eq("id", p.ID),
		)
	default:
		scope = Or(
			And(
				departmentClause("department_id", p.DepartmentID),
				Eq("role_level", int(LevelEmployee)),
			),
			Eq("id", p.ID),
		)
	}

	extra := []Predicate{scope}
	if f.DepartmentID != nil && AtLeastAsPrivileged(p.Level, LevelDirector) {
		extra = append(extra, Eq("department_id", *f.DepartmentID))
	}
	if f.Active != nil {
		extra = append(extra, Eq("is_active", *f.Active))
	}
	return And(extra...)
}

// departmentClause guards against principals with no department: the
// branch evaluates to false instead of leaking an unscoped match.
func departmentClause(field string, departmentID *int64) Predicate {
	if departmentID == nil {
		return False()
	}
	return Eq(field, *departmentID)
}
