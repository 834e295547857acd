package rbac

import (
	"fmt"
	"strings"
)

const (
	// IdentitySeparator joins the class and method parts of a role identity.
	IdentitySeparator = "@"
	// NamespaceSeparator joins the segments of a qualified role class name.
	NamespaceSeparator = `\`
)

// Role is a permission unit identified by a class/method pair, for example
// `Apps\Gallery@manage`. ID is store-assigned; zero means not yet persisted.
type Role struct {
	ID     int64
	Class  string
	Method string
}

// Identity returns the canonical textual form `Class@Method`.
func (r Role) Identity() string {
	return r.Class + IdentitySeparator + r.Method
}

// ParseRole validates identity and splits it into its class and method parts.
// The returned role carries a zero ID.
func ParseRole(identity string) (Role, error) {
	parts := strings.Split(identity, IdentitySeparator)
	if len(parts) != 2 {
		return Role{}, fmt.Errorf("%w: %q must be class%smethod", ErrRoleIdentity, identity, IdentitySeparator)
	}
	class, method := parts[0], parts[1]
	if !validQualifiedClass(class) {
		return Role{}, fmt.Errorf("%w: %q", ErrRoleClassName, class)
	}
	if !validToken(method) {
		return Role{}, fmt.Errorf("%w: method part of %q", ErrRoleIdentity, identity)
	}
	return Role{Class: class, Method: method}, nil
}

// validQualifiedClass reports whether class is two or more word-token
// segments joined by the namespace separator, with no empty segment.
func validQualifiedClass(class string) bool {
	segments := strings.Split(class, NamespaceSeparator)
	if len(segments) < 2 {
		return false
	}
	for _, seg := range segments {
		if !validToken(seg) {
			return false
		}
	}
	return true
}

func validToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

// Group is a named collection of roles. ID is store-assigned.
type Group struct {
	ID          int64
	Name        string
	Description string
}

// RoleRef identifies a role for a bulk operation either by raw id or by an
// already-resolved entity. The zero value is invalid.
type RoleRef struct {
	id   int64
	role *Role
}

// RoleID makes a RoleRef from a raw role id.
func RoleID(id int64) RoleRef {
	return RoleRef{id: id}
}

// RoleOf makes a RoleRef from a resolved role.
func RoleOf(role Role) RoleRef {
	return RoleRef{role: &role}
}

// GroupRef identifies a group for a bulk operation either by raw id or by an
// already-resolved entity. The zero value is invalid.
type GroupRef struct {
	id    int64
	group *Group
}

// GroupID makes a GroupRef from a raw group id.
func GroupID(id int64) GroupRef {
	return GroupRef{id: id}
}

// GroupOf makes a GroupRef from a resolved group.
func GroupOf(group Group) GroupRef {
	return GroupRef{group: &group}
}
