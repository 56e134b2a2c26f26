package memberdb

import (
	"context"

	"github.com/google/uuid"
	memberdomain "github.com/sjlangley/social-golf-spa/app/modules/member/domain"
	"github.com/uptrace/bun"
)

// Repository defines the persistence contract for members.
//
// Error semantics:
//   - ErrNotFound: requested record does not exist (Get* methods)
//   - ErrDuplicate: unique subject or id collision on insert
//   - ErrNoRowsAffected: UPDATE matched no rows
//   - other errors: infrastructure failures
type Repository interface {
	GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*Member, error)
	GetBySubject(ctx context.Context, db bun.IDB, subject string) (*Member, error)
	// GetUnlinkedByEmail finds a member created ahead of first sign-in.
	GetUnlinkedByEmail(ctx context.Context, db bun.IDB, email string) (*Member, error)
	Create(ctx context.Context, db bun.IDB, member *Member) error
	LinkSubject(ctx context.Context, db bun.IDB, id uuid.UUID, subject, name string) error
	List(ctx context.Context, db bun.IDB, params memberdomain.ListParams) ([]*Member, error)

	// SetFlagOnce inserts the flag and reports whether this call created it.
	SetFlagOnce(ctx context.Context, db bun.IDB, key string) (bool, error)
}
