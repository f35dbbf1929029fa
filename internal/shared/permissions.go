package shared

// Platform permissions. Levels gate hierarchy questions; permissions
// gate capabilities that are independent of the hierarchy.
const (
	PermTasksRead   = "tasks.read"
	PermTasksCreate = "tasks.create"
	PermTasksEdit   = "tasks.edit"
	PermTasksDelete = "tasks.delete"
	PermTasksAssign = "tasks.assign"

	PermUsersView   = "users.view"
	PermUsersCreate = "users.create"
	PermUsersEdit   = "users.edit"
	PermUsersDelete = "users.delete"

	PermAnalyticsView = "analytics.view"
)

// AllPermissions lists every permission the platform knows about.
func AllPermissions() []string {
	return []string{
		PermTasksRead,
		PermTasksCreate,
		PermTasksEdit,
		PermTasksDelete,
		PermTasksAssign,
		PermUsersView,
		PermUsersCreate,
		PermUsersEdit,
		PermUsersDelete,
		PermAnalyticsView,
	}
}
