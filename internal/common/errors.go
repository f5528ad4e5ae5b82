package common

import "errors"

// Sentinel errors shared across services and handlers. Services wrap these
// with context via fmt.Errorf("...: %w", ...); handlers test with errors.Is.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmptyContent    = errors.New("message content is empty")
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("duplicate row")
)
