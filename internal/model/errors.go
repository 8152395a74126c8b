package model

import "errors"

var (
	// ErrNotFound means the requested record does not exist or is deleted.
	ErrNotFound = errors.New("record not found")
	// ErrPermissionDenied means a consent check failed for the operation.
	ErrPermissionDenied = errors.New("permission denied")
)
