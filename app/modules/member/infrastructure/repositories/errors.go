package memberdb

import "errors"

// Sentinel errors for the member repository layer.
var (
	// ErrNotFound indicates the requested member does not exist.
	ErrNotFound = errors.New("member record not found")

	// ErrDuplicate indicates a unique constraint rejected the write.
	ErrDuplicate = errors.New("member already exists")

	// ErrNoRowsAffected indicates an UPDATE matched no rows.
	ErrNoRowsAffected = errors.New("no rows affected")
)
