package shared

import "errors"

var (
	// ErrNotFound indicates a missing record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates a rejected terminal key.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPermissionDenied indicates the acting employee lacks a permission.
	ErrPermissionDenied = errors.New("permission denied")
)
