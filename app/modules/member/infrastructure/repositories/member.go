package memberdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	memberdomain "github.com/sjlangley/social-golf-spa/app/modules/member/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new member repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) getOne(ctx context.Context, db bun.IDB, where string, arg any) (*Member, error) {
	m := new(Member)
	err := r.resolveDB(db).NewSelect().
		Model(m).
		Where(where, arg).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// GetByID retrieves a member by id.
func (r *Impl) GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*Member, error) {
	return r.getOne(ctx, db, "m.id = ?", id)
}

// GetBySubject retrieves a member by token subject.
func (r *Impl) GetBySubject(ctx context.Context, db bun.IDB, subject string) (*Member, error) {
	return r.getOne(ctx, db, "m.auth_subject = ?", subject)
}

// GetUnlinkedByEmail retrieves the oldest member with this email that has no
// subject yet.
func (r *Impl) GetUnlinkedByEmail(ctx context.Context, db bun.IDB, email string) (*Member, error) {
	m := new(Member)
	err := r.resolveDB(db).NewSelect().
		Model(m).
		Where("lower(m.email) = lower(?)", email).
		Where("m.auth_subject IS NULL").
		Order("m.created_at ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get member by email: %w", err)
	}
	return m, nil
}

// Create inserts the member and fills generated columns.
func (r *Impl) Create(ctx context.Context, db bun.IDB, member *Member) error {
	if member.Roles == nil {
		member.Roles = []string{}
	}
	if member.Permissions == nil {
		member.Permissions = map[string]bool{}
	}
	_, err := r.resolveDB(db).NewInsert().
		Model(member).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		}
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// LinkSubject binds a token subject to an existing member.
func (r *Impl) LinkSubject(ctx context.Context, db bun.IDB, id uuid.UUID, subject, name string) error {
	q := r.resolveDB(db).NewUpdate().
		Model((*Member)(nil)).
		Set("auth_subject = ?", subject).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("auth_subject IS NULL")
	if name != "" {
		q = q.Set("name = ?", name)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		}
		return fmt.Errorf("failed to link member subject: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// List returns up to params.Limit+1 members after the cursor so the caller can
// tell whether another page exists.
func (r *Impl) List(ctx context.Context, db bun.IDB, params memberdomain.ListParams) ([]*Member, error) {
	column := sortColumn(params.SortBy)
	dir := "ASC"
	cmp := ">"
	if params.Direction == memberdomain.SortDesc {
		dir = "DESC"
		cmp = "<"
	}

	q := r.resolveDB(db).NewSelect().Model((*Member)(nil))

	if params.After != nil {
		if params.SortBy == memberdomain.SortByID {
			q = q.Where("m.id "+cmp+" ?", params.After.ID)
		} else {
			q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.
					Where("? "+cmp+" ?", bun.Ident("m."+column), params.After.Value).
					WhereGroup(" OR ", func(q *bun.SelectQuery) *bun.SelectQuery {
						return q.
							Where("? = ?", bun.Ident("m."+column), params.After.Value).
							Where("m.id > ?", params.After.ID)
					})
			})
		}
	}

	if params.SortBy == memberdomain.SortByID {
		q = q.OrderExpr("m.id " + dir)
	} else {
		q = q.OrderExpr("? "+dir, bun.Ident("m."+column)).OrderExpr("m.id ASC")
	}

	var members []*Member
	err := q.Limit(params.Limit+1).Scan(ctx, &members)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// SetFlagOnce inserts the flag and reports whether this call created it.
func (r *Impl) SetFlagOnce(ctx context.Context, db bun.IDB, key string) (bool, error) {
	res, err := r.resolveDB(db).NewInsert().
		Model(&SystemFlag{Key: key, SetAt: time.Now().UTC()}).
		On("CONFLICT (key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to set system flag %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

func sortColumn(f memberdomain.SortField) string {
	switch f {
	case memberdomain.SortByEmail:
		return "email"
	case memberdomain.SortByName:
		return "name"
	default:
		return "id"
	}
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}
