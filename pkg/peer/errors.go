package peer

import "errors"

// Errors for authenticator configuration.
var (
	ErrNotStopped        = errors.New("peer: authenticator already started")
	ErrNoUserList        = errors.New("peer: user list is required")
	ErrEmptyPrivateKey   = errors.New("peer: an empty private key is not valid")
	ErrNoKeyPair         = errors.New("peer: anonymous access requires a private key")
	ErrNoAnonymousKinds  = errors.New("peer: anonymous access requires at least one session kind")
	ErrStaleSessionKinds = errors.New("peer: session kinds set while anonymous access is disabled")
	ErrEmptySeedKey      = errors.New("peer: user list seed key must not be empty")
	ErrUnknownGroup      = errors.New("peer: unknown SRP group")
	ErrDuplicateUser     = errors.New("peer: user already exists")
)
