package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrEmptyCart         = errors.New("cart empty")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrDuplicate         = errors.New("already exists")
)
