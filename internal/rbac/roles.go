package rbac

import (
	"context"
	"errors"
	"fmt"
)

// Roles is the registry for role identities. It owns identity uniqueness and
// id assignment for roles.
type Roles struct {
	store Store
}

// NewRoles builds the role registry.
func NewRoles(store Store) *Roles {
	return &Roles{store: store}
}

// Create persists role and returns it with its store-assigned id. A role
// whose identity is already persisted fails with ErrDuplicateRole. A
// store-level conflict after the pre-check passed (two callers racing the
// same identity) is reported the same way.
func (s *Roles) Create(ctx context.Context, role Role) (Role, error) {
	existing, found, err := s.store.RoleByIdentity(ctx, role.Class, role.Method)
	if err != nil {
		return Role{}, err
	}
	if found {
		return Role{}, fmt.Errorf("%w: %s", ErrDuplicateRole, existing.Identity())
	}
	id, err := s.store.InsertRole(ctx, role.Class, role.Method)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return Role{}, fmt.Errorf("%w: %s", ErrDuplicateRole, role.Identity())
		}
		return Role{}, err
	}
	role.ID = id
	return role, nil
}

// Remove deletes the role and every user_roles and group_roles row
// referencing it. Removing an absent id is a no-op success.
func (s *Roles) Remove(ctx context.Context, role Role) error {
	if err := s.store.DeleteRole(ctx, role.ID); err != nil {
		return err
	}
	if err := s.store.DeleteUserRolesByRole(ctx, role.ID); err != nil {
		return err
	}
	return s.store.DeleteGroupRolesByRole(ctx, role.ID)
}

// ByID fetches a role by id.
func (s *Roles) ByID(ctx context.Context, id int64) (Role, error) {
	role, found, err := s.store.RoleByID(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if !found {
		return Role{}, fmt.Errorf("%w: id %d", ErrRoleNotFound, id)
	}
	return role, nil
}

// ByClass returns every role whose class part equals class, each
// reconstructed from its own row. An empty result fails with ErrRoleNotFound.
func (s *Roles) ByClass(ctx context.Context, class string) ([]Role, error) {
	roles, err := s.store.RolesByClass(ctx, class)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: class %s", ErrRoleNotFound, class)
	}
	return roles, nil
}

// ByMethod returns every role whose method part equals method. An empty
// result fails with ErrRoleNotFound.
func (s *Roles) ByMethod(ctx context.Context, method string) ([]Role, error) {
	roles, err := s.store.RolesByMethod(ctx, method)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: method %s", ErrRoleNotFound, method)
	}
	return roles, nil
}

// ByIdentity parses identity and looks the role up by its class/method pair.
// A missing role is reported as nil without an error so Create can use this
// as its duplicate pre-check.
func (s *Roles) ByIdentity(ctx context.Context, identity string) (*Role, error) {
	parsed, err := ParseRole(identity)
	if err != nil {
		return nil, err
	}
	role, found, err := s.store.RoleByIdentity(ctx, parsed.Class, parsed.Method)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &role, nil
}

// All returns every persisted role. Order is unspecified.
func (s *Roles) All(ctx context.Context) ([]Role, error) {
	return s.store.Roles(ctx)
}
