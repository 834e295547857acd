package rbac

import (
	"context"
	"fmt"
	"sort"
)

// memStore is an in-memory Store used across the package tests. It enforces
// the same uniqueness the SQL schema does, returning wrapped ErrConflict on
// violations, and keeps listings ordered by id like the repository queries.
type memStore struct {
	nextRoleID  int64
	nextGroupID int64

	roles  map[int64]Role
	groups map[int64]Group

	groupRoles map[[2]int64]struct{} // (group_id, role_id)
	userRoles  map[[2]int64]struct{} // (user_id, role_id)
	userGroups map[[2]int64]struct{} // (user_id, group_id)

	// Error injection.
	conflictOnInsert bool
	failWith         error
}

func newMemStore() *memStore {
	return &memStore{
		nextRoleID:  1,
		nextGroupID: 1,
		roles:       make(map[int64]Role),
		groups:      make(map[int64]Group),
		groupRoles:  make(map[[2]int64]struct{}),
		userRoles:   make(map[[2]int64]struct{}),
		userGroups:  make(map[[2]int64]struct{}),
	}
}

var _ Store = (*memStore)(nil)

func (m *memStore) InsertRole(ctx context.Context, class, method string) (int64, error) {
	if m.failWith != nil {
		return 0, m.failWith
	}
	if m.conflictOnInsert {
		return 0, fmt.Errorf("insert role: %w", ErrConflict)
	}
	for _, role := range m.roles {
		if role.Class == class && role.Method == method {
			return 0, fmt.Errorf("insert role: %w", ErrConflict)
		}
	}
	id := m.nextRoleID
	m.nextRoleID++
	m.roles[id] = Role{ID: id, Class: class, Method: method}
	return id, nil
}

func (m *memStore) DeleteRole(ctx context.Context, id int64) error {
	if m.failWith != nil {
		return m.failWith
	}
	delete(m.roles, id)
	return nil
}

func (m *memStore) RoleByID(ctx context.Context, id int64) (Role, bool, error) {
	if m.failWith != nil {
		return Role{}, false, m.failWith
	}
	role, ok := m.roles[id]
	return role, ok, nil
}

func (m *memStore) RoleByIdentity(ctx context.Context, class, method string) (Role, bool, error) {
	if m.failWith != nil {
		return Role{}, false, m.failWith
	}
	for _, role := range m.roles {
		if role.Class == class && role.Method == method {
			return role, true, nil
		}
	}
	return Role{}, false, nil
}

func (m *memStore) RolesByClass(ctx context.Context, class string) ([]Role, error) {
	return m.filterRoles(func(r Role) bool { return r.Class == class })
}

func (m *memStore) RolesByMethod(ctx context.Context, method string) ([]Role, error) {
	return m.filterRoles(func(r Role) bool { return r.Method == method })
}

func (m *memStore) Roles(ctx context.Context) ([]Role, error) {
	return m.filterRoles(func(Role) bool { return true })
}

func (m *memStore) filterRoles(keep func(Role) bool) ([]Role, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var roles []Role
	for _, role := range m.roles {
		if keep(role) {
			roles = append(roles, role)
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

func (m *memStore) InsertGroup(ctx context.Context, name, description string) (int64, error) {
	if m.failWith != nil {
		return 0, m.failWith
	}
	if m.conflictOnInsert {
		return 0, fmt.Errorf("insert group: %w", ErrConflict)
	}
	for _, group := range m.groups {
		if group.Name == name {
			return 0, fmt.Errorf("insert group: %w", ErrConflict)
		}
	}
	id := m.nextGroupID
	m.nextGroupID++
	m.groups[id] = Group{ID: id, Name: name, Description: description}
	return id, nil
}

func (m *memStore) UpdateGroup(ctx context.Context, group Group) error {
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.groups[group.ID]; !ok {
		return nil // silent no-op for absent ids
	}
	m.groups[group.ID] = group
	return nil
}

func (m *memStore) DeleteGroup(ctx context.Context, id int64) error {
	if m.failWith != nil {
		return m.failWith
	}
	delete(m.groups, id)
	return nil
}

func (m *memStore) GroupByID(ctx context.Context, id int64) (Group, bool, error) {
	if m.failWith != nil {
		return Group{}, false, m.failWith
	}
	group, ok := m.groups[id]
	return group, ok, nil
}

func (m *memStore) GroupByName(ctx context.Context, name string) (Group, bool, error) {
	if m.failWith != nil {
		return Group{}, false, m.failWith
	}
	for _, group := range m.groups {
		if group.Name == name {
			return group, true, nil
		}
	}
	return Group{}, false, nil
}

func (m *memStore) Groups(ctx context.Context) ([]Group, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var groups []Group
	for _, group := range m.groups {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (m *memStore) insertPair(pairs map[[2]int64]struct{}, a, b int64, op string) error {
	if m.failWith != nil {
		return m.failWith
	}
	key := [2]int64{a, b}
	if m.conflictOnInsert {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	if _, ok := pairs[key]; ok {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	pairs[key] = struct{}{}
	return nil
}

func (m *memStore) InsertGroupRole(ctx context.Context, groupID, roleID int64) error {
	return m.insertPair(m.groupRoles, groupID, roleID, "insert group role")
}

func (m *memStore) DeleteGroupRole(ctx context.Context, groupID, roleID int64) error {
	if m.failWith != nil {
		return m.failWith
	}
	delete(m.groupRoles, [2]int64{groupID, roleID})
	return nil
}

func (m *memStore) DeleteGroupRolesByGroup(ctx context.Context, groupID int64) error {
	if m.failWith != nil {
		return m.failWith
	}
	for key := range m.groupRoles {
		if key[0] == groupID {
			delete(m.groupRoles, key)
		}
	}
	return nil
}

func (m *memStore) DeleteGroupRolesByRole(ctx context.Context, roleID int64) error {
	if m.failWith != nil {
		return m.failWith
	}
	for key := range m.groupRoles {
		if key[1] == roleID {
			delete(m.groupRoles, key)
		}
	}
	return nil
}

func (m *memStore) GroupRoleExists(ctx context.Context, groupID, roleID int64) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	_, ok := m.groupRoles[[2]int64{groupID, roleID}]
	return ok, nil
}

func (m *memStore) GroupRoles(ctx context.Context, groupID int64) ([]Role, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var roles []Role
	for key := range m.groupRoles {
		if key[0] == groupID {
			if role, ok := m.roles[key[1]]; ok {
				roles = append(roles, role)
			}
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

func (m *memStore) RoleGroups(ctx context.Context, roleID int64) ([]Group, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var groups []Group
	for key := range m.groupRoles {
		if key[1] == roleID {
			if group, ok := m.groups[key[0]]; ok {
				groups = append(groups, group)
			}
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (m *memStore) InsertUserRole(ctx context.Context, userID, roleID int64) error {
	return m.insertPair(m.userRoles, userID, roleID, "insert user role")
}

func (m *memStore) DeleteUserRole(ctx context.Context, userID, roleID int64) error {
	if m.failWith != nil {
		return m.failWith
	}
	delete(m.userRoles, [2]int64{userID, roleID})
	return nil
}

func (m *memStore) DeleteUserRolesByRole(ctx context.Context, roleID int64) error {
	if m.failWith != nil {
		return m.failWith
	}
	for key := range m.userRoles {
		if key[1] == roleID {
			delete(m.userRoles, key)
		}
	}
	return nil
}

func (m *memStore) UserRoleExists(ctx context.Context, userID, roleID int64) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	_, ok := m.userRoles[[2]int64{userID, roleID}]
	return ok, nil
}

func (m *memStore) UserRoles(ctx context.Context, userID int64) ([]Role, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var roles []Role
	for key := range m.userRoles {
		if key[0] == userID {
			if role, ok := m.roles[key[1]]; ok {
				roles = append(roles, role)
			}
		}
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

func (m *memStore) RoleUsers(ctx context.Context, roleID int64) ([]int64, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var users []int64
	for key := range m.userRoles {
		if key[1] == roleID {
			users = append(users, key[0])
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}

func (m *memStore) InsertUserGroup(ctx context.Context, userID, groupID int64) error {
	return m.insertPair(m.userGroups, userID, groupID, "insert user group")
}

func (m *memStore) DeleteUserGroup(ctx context.Context, userID, groupID int64) error {
	if m.failWith != nil {
		return m.failWith
	}
	delete(m.userGroups, [2]int64{userID, groupID})
	return nil
}

func (m *memStore) DeleteUserGroupsByGroup(ctx context.Context, groupID int64) error {
	if m.failWith != nil {
		return m.failWith
	}
	for key := range m.userGroups {
		if key[1] == groupID {
			delete(m.userGroups, key)
		}
	}
	return nil
}

func (m *memStore) UserGroupExists(ctx context.Context, userID, groupID int64) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	_, ok := m.userGroups[[2]int64{userID, groupID}]
	return ok, nil
}

func (m *memStore) UserGroups(ctx context.Context, userID int64) ([]Group, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var groups []Group
	for key := range m.userGroups {
		if key[0] == userID {
			if group, ok := m.groups[key[1]]; ok {
				groups = append(groups, group)
			}
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (m *memStore) GroupUsers(ctx context.Context, groupID int64) ([]int64, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var users []int64
	for key := range m.userGroups {
		if key[1] == groupID {
			users = append(users, key[0])
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}
