package rbac

import "context"

// SelfKey is the EffectiveRoles map key for a user's directly-assigned roles.
const SelfKey = "self"

// Resolver computes the aggregate view of a user's roles: the roles assigned
// directly plus the roles inherited through each group membership, keyed by
// provenance rather than flattened, so duplicate roles across groups stay
// attributable.
type Resolver struct {
	relationships *Relationships
}

// NewResolver builds the resolver.
func NewResolver(relationships *Relationships) *Resolver {
	return &Resolver{relationships: relationships}
}

// DirectRoles returns the roles assigned straight to the user, independent of
// group membership.
func (r *Resolver) DirectRoles(ctx context.Context, userID int64) ([]Role, error) {
	return r.relationships.UserRoles(ctx, userID)
}

// EffectiveRoles returns the user's roles keyed by SelfKey plus one entry per
// group the user belongs to, keyed by group name. Callers needing a single
// flattened set union the values themselves.
func (r *Resolver) EffectiveRoles(ctx context.Context, userID int64) (map[string][]Role, error) {
	direct, err := r.relationships.UserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	groups, err := r.relationships.UserGroups(ctx, userID)
	if err != nil {
		return nil, err
	}
	effective := make(map[string][]Role, len(groups)+1)
	effective[SelfKey] = direct
	for _, group := range groups {
		roles, err := r.relationships.GroupRoles(ctx, group)
		if err != nil {
			return nil, err
		}
		effective[group.Name] = roles
	}
	return effective, nil
}

// UserHasEffectiveRole reports whether role is assigned to the user directly
// or through any group membership. The full view is re-derived on each call.
func (r *Resolver) UserHasEffectiveRole(ctx context.Context, userID int64, role Role) (bool, error) {
	effective, err := r.EffectiveRoles(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, roles := range effective {
		for _, held := range roles {
			if held.ID == role.ID {
				return true, nil
			}
		}
	}
	return false, nil
}
