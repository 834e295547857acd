package rbac

import (
	"context"
	"errors"
	"fmt"
)

// Groups is the registry for named role collections.
type Groups struct {
	store Store
}

// NewGroups builds the group registry.
func NewGroups(store Store) *Groups {
	return &Groups{store: store}
}

// Create persists group and returns it with its store-assigned id. A group
// whose name is already taken fails with ErrDuplicateGroup, including when a
// racing insert is rejected by the unique index after the pre-check passed.
func (s *Groups) Create(ctx context.Context, group Group) (Group, error) {
	_, found, err := s.store.GroupByName(ctx, group.Name)
	if err != nil {
		return Group{}, err
	}
	if found {
		return Group{}, fmt.Errorf("%w: %s", ErrDuplicateGroup, group.Name)
	}
	id, err := s.store.InsertGroup(ctx, group.Name, group.Description)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return Group{}, fmt.Errorf("%w: %s", ErrDuplicateGroup, group.Name)
		}
		return Group{}, err
	}
	group.ID = id
	return group, nil
}

// Update overwrites name and description for the group's id and returns the
// value. Updating an absent id is a silent no-op.
func (s *Groups) Update(ctx context.Context, group Group) (Group, error) {
	if err := s.store.UpdateGroup(ctx, group); err != nil {
		if errors.Is(err, ErrConflict) {
			return Group{}, fmt.Errorf("%w: %s", ErrDuplicateGroup, group.Name)
		}
		return Group{}, err
	}
	return group, nil
}

// Remove deletes the group and every user_group and group_roles row
// referencing it. Removing an absent id is a no-op success.
func (s *Groups) Remove(ctx context.Context, group Group) error {
	if err := s.store.DeleteGroup(ctx, group.ID); err != nil {
		return err
	}
	if err := s.store.DeleteUserGroupsByGroup(ctx, group.ID); err != nil {
		return err
	}
	return s.store.DeleteGroupRolesByGroup(ctx, group.ID)
}

// ByID fetches a group by id.
func (s *Groups) ByID(ctx context.Context, id int64) (Group, error) {
	group, found, err := s.store.GroupByID(ctx, id)
	if err != nil {
		return Group{}, err
	}
	if !found {
		return Group{}, fmt.Errorf("%w: id %d", ErrGroupNotFound, id)
	}
	return group, nil
}

// ByName fetches a group by its unique name.
func (s *Groups) ByName(ctx context.Context, name string) (Group, error) {
	group, found, err := s.store.GroupByName(ctx, name)
	if err != nil {
		return Group{}, err
	}
	if !found {
		return Group{}, fmt.Errorf("%w: %s", ErrGroupNotFound, name)
	}
	return group, nil
}

// All returns every persisted group. Order is unspecified.
func (s *Groups) All(ctx context.Context) ([]Group, error) {
	return s.store.Groups(ctx)
}
