package scoredb

import "errors"

// Sentinel errors for the repository layer.
var (
	// ErrMemberNotFound indicates the score's member does not exist.
	ErrMemberNotFound = errors.New("member not found")
)
