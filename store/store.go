// Package store persists forms and submissions on SQLite. The duplicate
// submission policy and slug uniqueness are enforced here, at the storage
// boundary, so concurrent requests cannot slip past a handler-level check.
package store

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInactive         = errors.New("form is inactive")
	ErrSlugTaken        = errors.New("slug already in use")
	ErrDuplicateByIP    = errors.New("already submitted from this device")
	ErrDuplicateByEmail = errors.New("already submitted with this email")
)
