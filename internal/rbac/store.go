package rbac

import "context"

// Store defines row-level access to the five RBAC relations. Single-row
// lookups report absence with a false bool, never an error; services decide
// whether absence is a failure. Inserts that hit a unique index return
// ErrConflict (wrapped).
type Store interface {
	// roles(id, role_class, role_method)
	InsertRole(ctx context.Context, class, method string) (int64, error)
	DeleteRole(ctx context.Context, id int64) error
	RoleByID(ctx context.Context, id int64) (Role, bool, error)
	RoleByIdentity(ctx context.Context, class, method string) (Role, bool, error)
	RolesByClass(ctx context.Context, class string) ([]Role, error)
	RolesByMethod(ctx context.Context, method string) ([]Role, error)
	Roles(ctx context.Context) ([]Role, error)

	// groups(id, group_name, description)
	InsertGroup(ctx context.Context, name, description string) (int64, error)
	UpdateGroup(ctx context.Context, group Group) error
	DeleteGroup(ctx context.Context, id int64) error
	GroupByID(ctx context.Context, id int64) (Group, bool, error)
	GroupByName(ctx context.Context, name string) (Group, bool, error)
	Groups(ctx context.Context) ([]Group, error)

	// group_roles(group_id, role_id)
	InsertGroupRole(ctx context.Context, groupID, roleID int64) error
	DeleteGroupRole(ctx context.Context, groupID, roleID int64) error
	DeleteGroupRolesByGroup(ctx context.Context, groupID int64) error
	DeleteGroupRolesByRole(ctx context.Context, roleID int64) error
	GroupRoleExists(ctx context.Context, groupID, roleID int64) (bool, error)
	GroupRoles(ctx context.Context, groupID int64) ([]Role, error)
	RoleGroups(ctx context.Context, roleID int64) ([]Group, error)

	// user_roles(user_id, role_id)
	InsertUserRole(ctx context.Context, userID, roleID int64) error
	DeleteUserRole(ctx context.Context, userID, roleID int64) error
	DeleteUserRolesByRole(ctx context.Context, roleID int64) error
	UserRoleExists(ctx context.Context, userID, roleID int64) (bool, error)
	UserRoles(ctx context.Context, userID int64) ([]Role, error)
	RoleUsers(ctx context.Context, roleID int64) ([]int64, error)

	// user_group(user_id, group_id)
	InsertUserGroup(ctx context.Context, userID, groupID int64) error
	DeleteUserGroup(ctx context.Context, userID, groupID int64) error
	DeleteUserGroupsByGroup(ctx context.Context, groupID int64) error
	UserGroupExists(ctx context.Context, userID, groupID int64) (bool, error)
	UserGroups(ctx context.Context, userID int64) ([]Group, error)
	GroupUsers(ctx context.Context, groupID int64) ([]int64, error)
}
