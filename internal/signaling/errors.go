package signaling

import "errors"

var (
	ErrMessageTooLarge  = errors.New("message exceeds size limit")
	ErrMalformedMessage = errors.New("malformed JSON message")
	ErrMissingType      = errors.New("message has no type")
	ErrConnClosed       = errors.New("connection closed")
)
