package errors

import "errors"

var (
	ErrNotFound  = errors.New("class record not found")
	ErrInvalidID = errors.New("invalid class record ID format")
)
