package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salamj/ugrpm/internal/platform/db"
)

// pgUniqueViolation is the SQLSTATE for unique index violations.
const pgUniqueViolation = "23505"

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository is the PostgreSQL-backed Store.
type Repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

// NewRepository constructs a repository over the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// WithTx runs fn against a repository bound to a single transaction. The
// engine itself never wraps batches; callers needing atomic batches opt in
// here.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, Store) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Repository{db: tx, pool: r.pool})
	})
}

func mapConflict(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

/* roles */

func (r *Repository) InsertRole(ctx context.Context, class, method string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO roles (role_class, role_method) VALUES ($1, $2) RETURNING id`,
		class, method).Scan(&id)
	if err != nil {
		return 0, mapConflict(err, "insert role")
	}
	return id, nil
}

func (r *Repository) DeleteRole(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}

func (r *Repository) RoleByID(ctx context.Context, id int64) (Role, bool, error) {
	return r.scanRole(ctx, `SELECT id, role_class, role_method FROM roles WHERE id = $1`, id)
}

func (r *Repository) RoleByIdentity(ctx context.Context, class, method string) (Role, bool, error) {
	return r.scanRole(ctx,
		`SELECT id, role_class, role_method FROM roles WHERE role_class = $1 AND role_method = $2`,
		class, method)
}

func (r *Repository) scanRole(ctx context.Context, query string, args ...interface{}) (Role, bool, error) {
	var role Role
	err := r.db.QueryRow(ctx, query, args...).Scan(&role.ID, &role.Class, &role.Method)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, false, nil
		}
		return Role{}, false, fmt.Errorf("query role: %w", err)
	}
	return role, true, nil
}

func (r *Repository) RolesByClass(ctx context.Context, class string) ([]Role, error) {
	return r.scanRoles(ctx,
		`SELECT id, role_class, role_method FROM roles WHERE role_class = $1 ORDER BY id`, class)
}

func (r *Repository) RolesByMethod(ctx context.Context, method string) ([]Role, error) {
	return r.scanRoles(ctx,
		`SELECT id, role_class, role_method FROM roles WHERE role_method = $1 ORDER BY id`, method)
}

func (r *Repository) Roles(ctx context.Context) ([]Role, error) {
	return r.scanRoles(ctx, `SELECT id, role_class, role_method FROM roles`)
}

func (r *Repository) scanRoles(ctx context.Context, query string, args ...interface{}) ([]Role, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Class, &role.Method); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

/* groups */

func (r *Repository) InsertGroup(ctx context.Context, name, description string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO groups (group_name, description) VALUES ($1, $2) RETURNING id`,
		name, description).Scan(&id)
	if err != nil {
		return 0, mapConflict(err, "insert group")
	}
	return id, nil
}

func (r *Repository) UpdateGroup(ctx context.Context, group Group) error {
	_, err := r.db.Exec(ctx,
		`UPDATE groups SET group_name = $2, description = $3 WHERE id = $1`,
		group.ID, group.Name, group.Description)
	if err != nil {
		return mapConflict(err, "update group")
	}
	return nil
}

func (r *Repository) DeleteGroup(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

func (r *Repository) GroupByID(ctx context.Context, id int64) (Group, bool, error) {
	return r.scanGroup(ctx, `SELECT id, group_name, description FROM groups WHERE id = $1`, id)
}

func (r *Repository) GroupByName(ctx context.Context, name string) (Group, bool, error) {
	return r.scanGroup(ctx, `SELECT id, group_name, description FROM groups WHERE group_name = $1`, name)
}

func (r *Repository) scanGroup(ctx context.Context, query string, args ...interface{}) (Group, bool, error) {
	var group Group
	err := r.db.QueryRow(ctx, query, args...).Scan(&group.ID, &group.Name, &group.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Group{}, false, nil
		}
		return Group{}, false, fmt.Errorf("query group: %w", err)
	}
	return group, true, nil
}

func (r *Repository) Groups(ctx context.Context) ([]Group, error) {
	return r.scanGroups(ctx, `SELECT id, group_name, description FROM groups`)
}

func (r *Repository) scanGroups(ctx context.Context, query string, args ...interface{}) ([]Group, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()
	var groups []Group
	for rows.Next() {
		var group Group
		if err := rows.Scan(&group.ID, &group.Name, &group.Description); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return groups, nil
}

/* group_roles */

func (r *Repository) InsertGroupRole(ctx context.Context, groupID, roleID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO group_roles (group_id, role_id) VALUES ($1, $2)`, groupID, roleID)
	if err != nil {
		return mapConflict(err, "insert group role")
	}
	return nil
}

func (r *Repository) DeleteGroupRole(ctx context.Context, groupID, roleID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM group_roles WHERE group_id = $1 AND role_id = $2`, groupID, roleID)
	if err != nil {
		return fmt.Errorf("delete group role: %w", err)
	}
	return nil
}

func (r *Repository) DeleteGroupRolesByGroup(ctx context.Context, groupID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM group_roles WHERE group_id = $1`, groupID); err != nil {
		return fmt.Errorf("delete group roles by group: %w", err)
	}
	return nil
}

func (r *Repository) DeleteGroupRolesByRole(ctx context.Context, roleID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM group_roles WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("delete group roles by role: %w", err)
	}
	return nil
}

func (r *Repository) GroupRoleExists(ctx context.Context, groupID, roleID int64) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM group_roles WHERE group_id = $1 AND role_id = $2)`,
		groupID, roleID)
}

func (r *Repository) GroupRoles(ctx context.Context, groupID int64) ([]Role, error) {
	return r.scanRoles(ctx,
		`SELECT r.id, r.role_class, r.role_method
		 FROM group_roles gr JOIN roles r ON r.id = gr.role_id
		 WHERE gr.group_id = $1 ORDER BY r.id`, groupID)
}

func (r *Repository) RoleGroups(ctx context.Context, roleID int64) ([]Group, error) {
	return r.scanGroups(ctx,
		`SELECT g.id, g.group_name, g.description
		 FROM group_roles gr JOIN groups g ON g.id = gr.group_id
		 WHERE gr.role_id = $1 ORDER BY g.id`, roleID)
}

/* user_roles */

func (r *Repository) InsertUserRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID)
	if err != nil {
		return mapConflict(err, "insert user role")
	}
	return nil
}

func (r *Repository) DeleteUserRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return fmt.Errorf("delete user role: %w", err)
	}
	return nil
}

func (r *Repository) DeleteUserRolesByRole(ctx context.Context, roleID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM user_roles WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("delete user roles by role: %w", err)
	}
	return nil
}

func (r *Repository) UserRoleExists(ctx context.Context, userID, roleID int64) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role_id = $2)`,
		userID, roleID)
}

func (r *Repository) UserRoles(ctx context.Context, userID int64) ([]Role, error) {
	return r.scanRoles(ctx,
		`SELECT r.id, r.role_class, r.role_method
		 FROM user_roles ur JOIN roles r ON r.id = ur.role_id
		 WHERE ur.user_id = $1 ORDER BY r.id`, userID)
}

func (r *Repository) RoleUsers(ctx context.Context, roleID int64) ([]int64, error) {
	return r.scanUserIDs(ctx,
		`SELECT user_id FROM user_roles WHERE role_id = $1 ORDER BY user_id`, roleID)
}

/* user_group */

func (r *Repository) InsertUserGroup(ctx context.Context, userID, groupID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_group (user_id, group_id) VALUES ($1, $2)`, userID, groupID)
	if err != nil {
		return mapConflict(err, "insert user group")
	}
	return nil
}

func (r *Repository) DeleteUserGroup(ctx context.Context, userID, groupID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM user_group WHERE user_id = $1 AND group_id = $2`, userID, groupID)
	if err != nil {
		return fmt.Errorf("delete user group: %w", err)
	}
	return nil
}

func (r *Repository) DeleteUserGroupsByGroup(ctx context.Context, groupID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM user_group WHERE group_id = $1`, groupID); err != nil {
		return fmt.Errorf("delete user groups by group: %w", err)
	}
	return nil
}

func (r *Repository) UserGroupExists(ctx context.Context, userID, groupID int64) (bool, error) {
	return r.exists(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_group WHERE user_id = $1 AND group_id = $2)`,
		userID, groupID)
}

func (r *Repository) UserGroups(ctx context.Context, userID int64) ([]Group, error) {
	return r.scanGroups(ctx,
		`SELECT g.id, g.group_name, g.description
		 FROM user_group ug JOIN groups g ON g.id = ug.group_id
		 WHERE ug.user_id = $1 ORDER BY g.id`, userID)
}

func (r *Repository) GroupUsers(ctx context.Context, groupID int64) ([]int64, error) {
	return r.scanUserIDs(ctx,
		`SELECT user_id FROM user_group WHERE group_id = $1 ORDER BY user_id`, groupID)
}

func (r *Repository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var found bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("query existence: %w", err)
	}
	return found, nil
}

func (r *Repository) scanUserIDs(ctx context.Context, query string, args ...interface{}) ([]int64, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query user ids: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}
	return ids, nil
}
