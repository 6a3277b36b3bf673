package model

import "errors"

var (
	// ErrConstraintViolation covers missing required fields, dangling foreign
	// keys and duplicate unique values.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrNotFound is returned when a lookup by id or unique field has no match.
	ErrNotFound = errors.New("not found")
)
