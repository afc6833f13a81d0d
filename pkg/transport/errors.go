package transport

import "errors"

// Errors for transport configuration and lifecycle.
var (
	ErrNoAuthenticator = errors.New("transport: authenticator factory is required")
	ErrNoHandler       = errors.New("transport: session handler is required")
	ErrAlreadyStarted  = errors.New("transport: already started")
	ErrClosed          = errors.New("transport: closed")
)
