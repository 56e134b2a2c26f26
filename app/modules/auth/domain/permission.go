package authdomain

import "strings"

// Permission is a "<resource>:<action>" scope.
type Permission string

const (
	PermMembersRead   Permission = "members:read"
	PermMembersCreate Permission = "members:create"
	PermMembersEdit   Permission = "members:edit"
	PermMembersDelete Permission = "members:delete"
	PermMembersAll    Permission = "members:*"

	PermScoresRead   Permission = "scores:read"
	PermScoresCreate Permission = "scores:create"
	PermScoresAll    Permission = "scores:*"

	PermHandicapsRead        Permission = "handicaps:read"
	PermHandicapsRecalculate Permission = "handicaps:recalculate"
	PermHandicapsAll         Permission = "handicaps:*"
)

// Resource returns the part before the colon.
func (p Permission) Resource() string {
	resource, _, _ := strings.Cut(string(p), ":")
	return resource
}

// Wildcard returns "<resource>:*" for p.
func (p Permission) Wildcard() Permission {
	return Permission(p.Resource() + ":*")
}

// RolePermissions lists the permissions each role contributes on its own.
// Effective permissions come from expanding the role hierarchy.
var RolePermissions = map[Role][]Permission{
	RoleReader: {PermMembersRead, PermScoresRead, PermHandicapsRead},
	RoleWriter: {PermMembersCreate, PermMembersEdit, PermScoresCreate},
	RoleAdmin:  {PermMembersAll, PermScoresAll, PermHandicapsAll},
}
