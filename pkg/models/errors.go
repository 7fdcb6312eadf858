package models

import "errors"

// Application errors. Wrap these with context; compare with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("resource not found")
)
