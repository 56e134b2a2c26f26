package memberdomain

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// SortField is a column members can be ordered by.
type SortField string

const (
	SortByID    SortField = "id"
	SortByEmail SortField = "email"
	SortByName  SortField = "name"
)

// SortDirection orders the primary sort field. Ties are always broken by id
// ascending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

var (
	ErrInvalidLimit     = errors.New("limit must be between 1 and 100")
	ErrInvalidSortField = errors.New("sort_by must be one of id, email, name")
	ErrInvalidDirection = errors.New("sort_direction must be asc or desc")
	ErrInvalidCursor    = errors.New("invalid cursor")
)

// ListParams selects one forward-only page of members.
type ListParams struct {
	Limit     int
	SortBy    SortField
	Direction SortDirection
	After     *Cursor
}

// Cursor holds the sort values of the last row of the previous page.
type Cursor struct {
	Value string    `json:"value"`
	ID    uuid.UUID `json:"id"`
}

// Page is a single page of results.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"next_cursor"`
}

// NewListParams validates raw query values and applies defaults. A zero limit
// means the default.
func NewListParams(limit int, sortBy, direction, cursor string) (ListParams, error) {
	p := ListParams{
		Limit:     limit,
		SortBy:    SortField(sortBy),
		Direction: SortDirection(direction),
	}
	if p.Limit == 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit < 1 || p.Limit > MaxPageLimit {
		return ListParams{}, ErrInvalidLimit
	}
	if p.SortBy == "" {
		p.SortBy = SortByID
	}
	switch p.SortBy {
	case SortByID, SortByEmail, SortByName:
	default:
		return ListParams{}, ErrInvalidSortField
	}
	if p.Direction == "" {
		p.Direction = SortAsc
	}
	if p.Direction != SortAsc && p.Direction != SortDesc {
		return ListParams{}, ErrInvalidDirection
	}
	if cursor != "" {
		c, err := DecodeCursor(cursor)
		if err != nil {
			return ListParams{}, err
		}
		p.After = c
	}
	return p, nil
}

// SortValue returns the value of the sort field for m.
func (f SortField) SortValue(m *Member) string {
	switch f {
	case SortByEmail:
		return m.Email
	case SortByName:
		return m.Name
	default:
		return m.ID.String()
	}
}

// EncodeCursor returns the opaque URL-safe token for c.
func EncodeCursor(c Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (*Cursor, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	if c.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidCursor)
	}
	return &c, nil
}

// BuildPage trims rows fetched with limit+1 and derives the next cursor from
// the last returned row when more rows exist.
func BuildPage(rows []*Member, p ListParams) Page[*Member] {
	page := Page[*Member]{Items: rows}
	if page.Items == nil {
		page.Items = []*Member{}
	}
	if len(rows) > p.Limit {
		page.Items = rows[:p.Limit]
		last := page.Items[p.Limit-1]
		token := EncodeCursor(Cursor{Value: p.SortBy.SortValue(last), ID: last.ID})
		page.NextCursor = &token
	}
	return page
}
