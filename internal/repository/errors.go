package repository

import "errors"

// Storage-level sentinels. Services translate these into user-facing errors;
// repositories wrap them with context via %w.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)
