package repository

import "errors"

// Sentinel kinds for score store errors.
var (
	ErrNotFound     = errors.New("athlete not found")
	ErrInvalidLimit = errors.New("invalid ranking limit")
)
