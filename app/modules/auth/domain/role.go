package authdomain

// Role represents a member's role for authorization purposes.
type Role string

const (
	RoleReader Role = "reader"
	RoleWriter Role = "writer"
	RoleAdmin  Role = "admin"
)

// rank orders roles so that a higher role includes every lower one.
var rank = map[Role]int{
	RoleReader: 1,
	RoleWriter: 2,
	RoleAdmin:  3,
}

// IsValid checks if the role is a valid value.
func (r Role) IsValid() bool {
	_, ok := rank[r]
	return ok
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Includes reports whether r grants everything other grants.
func (r Role) Includes(other Role) bool {
	return r.IsValid() && other.IsValid() && rank[r] >= rank[other]
}

// Expand returns the role and every role below it, lowest first.
func (r Role) Expand() []Role {
	if !r.IsValid() {
		return nil
	}
	out := make([]Role, 0, len(rank))
	for _, candidate := range []Role{RoleReader, RoleWriter, RoleAdmin} {
		if r.Includes(candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

// ParseRoles converts stored role names, dropping unknown values.
func ParseRoles(values []string) []Role {
	roles := make([]Role, 0, len(values))
	for _, v := range values {
		if r := Role(v); r.IsValid() {
			roles = append(roles, r)
		}
	}
	return roles
}
