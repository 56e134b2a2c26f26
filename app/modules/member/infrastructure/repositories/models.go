package memberdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Member is the members row. AuthSubject is empty until the member first
// signs in with a token.
type Member struct {
	bun.BaseModel `bun:"table:members,alias:m"`
	ID            uuid.UUID       `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	AuthSubject   *string         `bun:"auth_subject,unique,nullzero"`
	Email         string          `bun:"email,notnull,default:''"`
	Name          string          `bun:"name,notnull,default:''"`
	Roles         []string        `bun:"roles,array,notnull,default:'{}'"`
	Permissions   map[string]bool `bun:"permissions,type:jsonb,notnull,default:'{}'"`
	CreatedAt     time.Time       `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time       `bun:"updated_at,notnull,default:current_timestamp"`
}

// SystemFlag records a one-time system event.
type SystemFlag struct {
	bun.BaseModel `bun:"table:system_flags,alias:sf"`
	Key           string    `bun:"key,pk"`
	SetAt         time.Time `bun:"set_at,notnull,default:current_timestamp"`
}
