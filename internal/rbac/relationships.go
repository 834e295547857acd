package rbac

import (
	"context"
	"errors"
	"fmt"
)

// Relationships manages the three association relations: group_roles,
// user_roles and user_group. Every single-pair mutation is duplicate-guarded;
// bulk variants resolve their elements through the registries and fan out to
// the single-pair operation without a wrapping transaction, so a mid-batch
// failure leaves prior pairs in place.
type Relationships struct {
	store  Store
	roles  *Roles
	groups *Groups
}

// NewRelationships builds the relationship manager.
func NewRelationships(store Store, roles *Roles, groups *Groups) *Relationships {
	return &Relationships{store: store, roles: roles, groups: groups}
}

/* group <-> role */

// AssignRoleToGroup gives group the role. Fails with ErrGroupHasRole when the
// pair already exists.
func (s *Relationships) AssignRoleToGroup(ctx context.Context, group Group, role Role) error {
	has, err := s.store.GroupRoleExists(ctx, group.ID, role.ID)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("%w: group %s, role %s", ErrGroupHasRole, group.Name, role.Identity())
	}
	if err := s.store.InsertGroupRole(ctx, group.ID, role.ID); err != nil {
		if errors.Is(err, ErrConflict) {
			return fmt.Errorf("%w: group %s, role %s", ErrGroupHasRole, group.Name, role.Identity())
		}
		return err
	}
	return nil
}

// AssignRolesToGroup gives group every referenced role.
func (s *Relationships) AssignRolesToGroup(ctx context.Context, group Group, refs []RoleRef) error {
	roles, err := resolveRoleRefs(ctx, s.roles, refs)
	if err != nil {
		return err
	}
	for _, role := range roles {
		if err := s.AssignRoleToGroup(ctx, group, role); err != nil {
			return err
		}
	}
	return nil
}

// AssignRoleToGroups gives every referenced group the role.
func (s *Relationships) AssignRoleToGroups(ctx context.Context, role Role, refs []GroupRef) error {
	groups, err := resolveGroupRefs(ctx, s.groups, refs)
	if err != nil {
		return err
	}
	for _, group := range groups {
		if err := s.AssignRoleToGroup(ctx, group, role); err != nil {
			return err
		}
	}
	return nil
}

// UnassignRoleFromGroup removes the pair; absent pairs are a no-op.
func (s *Relationships) UnassignRoleFromGroup(ctx context.Context, group Group, role Role) error {
	return s.store.DeleteGroupRole(ctx, group.ID, role.ID)
}

// UnassignRolesFromGroup removes every referenced role from group.
func (s *Relationships) UnassignRolesFromGroup(ctx context.Context, group Group, refs []RoleRef) error {
	roles, err := resolveRoleRefs(ctx, s.roles, refs)
	if err != nil {
		return err
	}
	for _, role := range roles {
		if err := s.UnassignRoleFromGroup(ctx, group, role); err != nil {
			return err
		}
	}
	return nil
}

// UnassignRoleFromGroups removes the role from every referenced group.
func (s *Relationships) UnassignRoleFromGroups(ctx context.Context, role Role, refs []GroupRef) error {
	groups, err := resolveGroupRefs(ctx, s.groups, refs)
	if err != nil {
		return err
	}
	for _, group := range groups {
		if err := s.UnassignRoleFromGroup(ctx, group, role); err != nil {
			return err
		}
	}
	return nil
}

// GroupHasRole reports whether the pair exists.
func (s *Relationships) GroupHasRole(ctx context.Context, group Group, role Role) (bool, error) {
	return s.store.GroupRoleExists(ctx, group.ID, role.ID)
}

// GroupRoles returns every role held by group, empty when none.
func (s *Relationships) GroupRoles(ctx context.Context, group Group) ([]Role, error) {
	return s.store.GroupRoles(ctx, group.ID)
}

// RoleGroups returns every group holding role.
func (s *Relationships) RoleGroups(ctx context.Context, role Role) ([]Group, error) {
	return s.store.RoleGroups(ctx, role.ID)
}

/* user <-> role */

// AssignRoleToUser assigns the role directly to the user. Fails with
// ErrUserHasRole when the direct assignment already exists.
func (s *Relationships) AssignRoleToUser(ctx context.Context, userID int64, role Role) error {
	has, err := s.store.UserRoleExists(ctx, userID, role.ID)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("%w: user %d, role %s", ErrUserHasRole, userID, role.Identity())
	}
	if err := s.store.InsertUserRole(ctx, userID, role.ID); err != nil {
		if errors.Is(err, ErrConflict) {
			return fmt.Errorf("%w: user %d, role %s", ErrUserHasRole, userID, role.Identity())
		}
		return err
	}
	return nil
}

// AssignRolesToUser assigns every referenced role to the user.
func (s *Relationships) AssignRolesToUser(ctx context.Context, userID int64, refs []RoleRef) error {
	roles, err := resolveRoleRefs(ctx, s.roles, refs)
	if err != nil {
		return err
	}
	for _, role := range roles {
		if err := s.AssignRoleToUser(ctx, userID, role); err != nil {
			return err
		}
	}
	return nil
}

// AssignRoleToUsers assigns the role to every user id.
func (s *Relationships) AssignRoleToUsers(ctx context.Context, role Role, userIDs []int64) error {
	for _, userID := range userIDs {
		if err := s.AssignRoleToUser(ctx, userID, role); err != nil {
			return err
		}
	}
	return nil
}

// UnassignRoleFromUser removes the direct assignment; absent pairs are a no-op.
func (s *Relationships) UnassignRoleFromUser(ctx context.Context, userID int64, role Role) error {
	return s.store.DeleteUserRole(ctx, userID, role.ID)
}

// UnassignRolesFromUser removes every referenced role from the user.
func (s *Relationships) UnassignRolesFromUser(ctx context.Context, userID int64, refs []RoleRef) error {
	roles, err := resolveRoleRefs(ctx, s.roles, refs)
	if err != nil {
		return err
	}
	for _, role := range roles {
		if err := s.UnassignRoleFromUser(ctx, userID, role); err != nil {
			return err
		}
	}
	return nil
}

// UnassignRoleFromUsers removes the role from every user id.
func (s *Relationships) UnassignRoleFromUsers(ctx context.Context, role Role, userIDs []int64) error {
	for _, userID := range userIDs {
		if err := s.UnassignRoleFromUser(ctx, userID, role); err != nil {
			return err
		}
	}
	return nil
}

// UserHasRole reports whether the role is directly assigned to the user,
// independent of group membership.
func (s *Relationships) UserHasRole(ctx context.Context, userID int64, role Role) (bool, error) {
	return s.store.UserRoleExists(ctx, userID, role.ID)
}

// UserRoles returns the user's directly-assigned roles.
func (s *Relationships) UserRoles(ctx context.Context, userID int64) ([]Role, error) {
	return s.store.UserRoles(ctx, userID)
}

// RoleUsers returns the ids of every user directly holding role. Users are
// opaque foreign keys from the caller's own user system.
func (s *Relationships) RoleUsers(ctx context.Context, role Role) ([]int64, error) {
	return s.store.RoleUsers(ctx, role.ID)
}

/* user <-> group */

// AddUserToGroup makes the user a member of group. Fails with ErrUserInGroup
// when the membership already exists.
func (s *Relationships) AddUserToGroup(ctx context.Context, userID int64, group Group) error {
	in, err := s.store.UserGroupExists(ctx, userID, group.ID)
	if err != nil {
		return err
	}
	if in {
		return fmt.Errorf("%w: user %d, group %s", ErrUserInGroup, userID, group.Name)
	}
	if err := s.store.InsertUserGroup(ctx, userID, group.ID); err != nil {
		if errors.Is(err, ErrConflict) {
			return fmt.Errorf("%w: user %d, group %s", ErrUserInGroup, userID, group.Name)
		}
		return err
	}
	return nil
}

// AddUserToGroups adds the user to every referenced group.
func (s *Relationships) AddUserToGroups(ctx context.Context, userID int64, refs []GroupRef) error {
	groups, err := resolveGroupRefs(ctx, s.groups, refs)
	if err != nil {
		return err
	}
	for _, group := range groups {
		if err := s.AddUserToGroup(ctx, userID, group); err != nil {
			return err
		}
	}
	return nil
}

// AddUsersToGroup adds every user id to group.
func (s *Relationships) AddUsersToGroup(ctx context.Context, userIDs []int64, group Group) error {
	for _, userID := range userIDs {
		if err := s.AddUserToGroup(ctx, userID, group); err != nil {
			return err
		}
	}
	return nil
}

// AddUsersToGroups adds every user id to every referenced group.
func (s *Relationships) AddUsersToGroups(ctx context.Context, userIDs []int64, refs []GroupRef) error {
	for _, userID := range userIDs {
		if err := s.AddUserToGroups(ctx, userID, refs); err != nil {
			return err
		}
	}
	return nil
}

// RemoveUserFromGroup drops the membership; absent pairs are a no-op.
func (s *Relationships) RemoveUserFromGroup(ctx context.Context, userID int64, group Group) error {
	return s.store.DeleteUserGroup(ctx, userID, group.ID)
}

// RemoveUserFromGroups drops the user's membership in every referenced group.
func (s *Relationships) RemoveUserFromGroups(ctx context.Context, userID int64, refs []GroupRef) error {
	groups, err := resolveGroupRefs(ctx, s.groups, refs)
	if err != nil {
		return err
	}
	for _, group := range groups {
		if err := s.RemoveUserFromGroup(ctx, userID, group); err != nil {
			return err
		}
	}
	return nil
}

// RemoveUsersFromGroup drops every user id's membership in group.
func (s *Relationships) RemoveUsersFromGroup(ctx context.Context, userIDs []int64, group Group) error {
	for _, userID := range userIDs {
		if err := s.RemoveUserFromGroup(ctx, userID, group); err != nil {
			return err
		}
	}
	return nil
}

// UserInGroup reports whether the membership exists.
func (s *Relationships) UserInGroup(ctx context.Context, userID int64, group Group) (bool, error) {
	return s.store.UserGroupExists(ctx, userID, group.ID)
}

// UserGroups returns every group the user belongs to.
func (s *Relationships) UserGroups(ctx context.Context, userID int64) ([]Group, error) {
	return s.store.UserGroups(ctx, userID)
}

// GroupUsers returns the ids of every user in group.
func (s *Relationships) GroupUsers(ctx context.Context, group Group) ([]int64, error) {
	return s.store.GroupUsers(ctx, group.ID)
}
