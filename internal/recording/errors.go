package recording

import "errors"

var (
	ErrInvalidCallID  = errors.New("invalid call id")
	ErrInvalidPayload = errors.New("invalid base64 media payload")
	ErrNotMediaType   = errors.New("message type does not carry media")
)
