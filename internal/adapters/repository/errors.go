package repository

import "errors"

// Sentinel kinds for report store errors.
var (
	ErrNotFound     = errors.New("report not found")
	ErrDuplicateID  = errors.New("report id already exists")
	ErrInvalidLimit = errors.New("invalid listing limit")
	ErrStoreFull    = errors.New("report store full")
)
