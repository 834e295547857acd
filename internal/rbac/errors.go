package rbac

import "errors"

var (
	// ErrRoleIdentity indicates a role identity string that is not of the
	// form class@method.
	ErrRoleIdentity = errors.New("rbac: invalid role identity")
	// ErrRoleClassName indicates a malformed qualified class name.
	ErrRoleClassName = errors.New("rbac: invalid role class name")

	// ErrDuplicateRole indicates a role with the same identity already exists.
	ErrDuplicateRole = errors.New("rbac: duplicate role")
	// ErrDuplicateGroup indicates a group with the same name already exists.
	ErrDuplicateGroup = errors.New("rbac: duplicate group")

	// ErrRoleNotFound indicates a role lookup miss.
	ErrRoleNotFound = errors.New("rbac: role not found")
	// ErrGroupNotFound indicates a group lookup miss.
	ErrGroupNotFound = errors.New("rbac: group not found")

	// ErrGroupHasRole indicates the group already holds the role.
	ErrGroupHasRole = errors.New("rbac: group already has role")
	// ErrUserHasRole indicates the role is already assigned to the user.
	ErrUserHasRole = errors.New("rbac: user already has role")
	// ErrUserInGroup indicates the user is already a member of the group.
	ErrUserInGroup = errors.New("rbac: user already in group")

	// ErrBadRef indicates a bulk-operation element that is neither a raw id
	// nor a resolved entity of the expected kind.
	ErrBadRef = errors.New("rbac: ref must carry an id or an entity")

	// ErrConflict is the store-level uniqueness backstop: a unique index
	// rejected an insert that passed the service pre-check.
	ErrConflict = errors.New("rbac: unique constraint violation")
)
