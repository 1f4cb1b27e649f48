package catalog

import "errors"

var (
	ErrNotFound      = errors.New("call recording not found")
	ErrInvalidCallID = errors.New("invalid call id")
)
