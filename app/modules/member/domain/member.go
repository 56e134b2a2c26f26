package memberdomain

import (
	"time"

	"github.com/google/uuid"
)

// Member is a club member as exposed by the API.
type Member struct {
	ID          uuid.UUID       `json:"id"`
	AuthSubject string          `json:"auth_subject,omitempty"`
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Roles       []string        `json:"roles"`
	Permissions map[string]bool `json:"permissions,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AdminBootstrapFlag marks that the first administrator has been granted.
const AdminBootstrapFlag = "admin_bootstrapped"
