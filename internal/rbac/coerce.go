package rbac

import (
	"context"
	"fmt"
)

// resolveRoleRefs normalizes a mixed list of raw ids and resolved roles into
// roles, preserving input order. Raw ids go through the registry, so a
// missing id fails with ErrRoleNotFound; a zero ref fails with ErrBadRef.
func resolveRoleRefs(ctx context.Context, registry *Roles, refs []RoleRef) ([]Role, error) {
	roles := make([]Role, 0, len(refs))
	for i, ref := range refs {
		switch {
		case ref.role != nil:
			roles = append(roles, *ref.role)
		case ref.id != 0:
			role, err := registry.ByID(ctx, ref.id)
			if err != nil {
				return nil, err
			}
			roles = append(roles, role)
		default:
			return nil, fmt.Errorf("%w: role ref at index %d", ErrBadRef, i)
		}
	}
	return roles, nil
}

// resolveGroupRefs is the group counterpart of resolveRoleRefs.
func resolveGroupRefs(ctx context.Context, registry *Groups, refs []GroupRef) ([]Group, error) {
	groups := make([]Group, 0, len(refs))
	for i, ref := range refs {
		switch {
		case ref.group != nil:
			groups = append(groups, *ref.group)
		case ref.id != 0:
			group, err := registry.ByID(ctx, ref.id)
			if err != nil {
				return nil, err
			}
			groups = append(groups, group)
		default:
			return nil, fmt.Errorf("%w: group ref at index %d", ErrBadRef, i)
		}
	}
	return groups, nil
}
