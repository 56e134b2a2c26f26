package permissions

import (
	"slices"

	authdomain "github.com/sjlangley/social-golf-spa/app/modules/auth/domain"
)

// Builder computes effective permissions from roles and per-member overrides.
type Builder struct {
	rolePermissions map[authdomain.Role][]authdomain.Permission
}

// NewBuilder creates a new permission builder using the default role table.
func NewBuilder() *Builder {
	return &Builder{rolePermissions: authdomain.RolePermissions}
}

// ForRoles expands each role through the hierarchy, merges the permissions of
// every reached role, then applies overrides: true adds the scope and false
// removes that exact scope. The result is sorted.
func (b *Builder) ForRoles(roles []authdomain.Role, overrides map[string]bool) []authdomain.Permission {
	effective := make(map[authdomain.Permission]struct{})

	for _, role := range roles {
		for _, expanded := range role.Expand() {
			for _, p := range b.rolePermissions[expanded] {
				effective[p] = struct{}{}
			}
		}
	}

	for scope, allow := range overrides {
		if allow {
			effective[authdomain.Permission(scope)] = struct{}{}
		} else {
			delete(effective, authdomain.Permission(scope))
		}
	}

	out := make([]authdomain.Permission, 0, len(effective))
	for p := range effective {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Apply fills in the principal's effective permissions.
func (b *Builder) Apply(p *authdomain.Principal) *authdomain.Principal {
	p.Permissions = b.ForRoles(p.Roles, p.Overrides)
	return p
}
