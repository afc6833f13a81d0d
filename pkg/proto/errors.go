package proto

import "errors"

// Errors for message decoding.
var (
	// ErrMalformed is returned when a payload is not valid protobuf wire
	// data for the expected message.
	ErrMalformed = errors.New("proto: malformed message")
)
