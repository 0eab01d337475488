package services

import "errors"

// Error classes. Handlers map these to HTTP statuses; everything wrapped
// around them stays a human-readable reason tied to the violated rule.
var (
	ErrValidation = errors.New("validation failed")
	ErrPermission = errors.New("permission denied")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
)
