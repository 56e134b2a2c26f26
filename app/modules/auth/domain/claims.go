package authdomain

import (
	"time"

	"github.com/google/uuid"
)

// AnonymousMemberID identifies the principal used when auth is bypassed locally.
var AnonymousMemberID = uuid.Nil

// Claims represents the verified identity carried by a bearer token.
type Claims struct {
	Subject   string
	Email     string
	Name      string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// IsExpired checks if the claims have expired.
func (c *Claims) IsExpired() bool {
	return !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt)
}

// Principal is the authenticated caller with its resolved member record.
type Principal struct {
	MemberID    uuid.UUID       `json:"id"`
	Subject     string          `json:"subject"`
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Roles       []Role          `json:"roles"`
	Permissions []Permission    `json:"permissions"`
	Overrides   map[string]bool `json:"-"`
}

// Anonymous returns the principal used for local auth bypass. It holds the
// admin role so every route is reachable during development.
func Anonymous() *Principal {
	return &Principal{
		MemberID: AnonymousMemberID,
		Subject:  "anonymous",
		Name:     "Anonymous",
		Roles:    []Role{RoleAdmin},
	}
}

// HasPermission reports whether the principal's effective permissions cover
// the required scope, either exactly or through "<resource>:*".
func (p *Principal) HasPermission(required Permission) bool {
	if p == nil {
		return false
	}
	for _, granted := range p.Permissions {
		if granted == required || granted == required.Wildcard() {
			return true
		}
	}
	return false
}
