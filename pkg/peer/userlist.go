package peer

import (
	"strings"
	"sync"

	"github.com/peerlink/peerlink/pkg/crypto"
)

// SeedKeySize is the length of the server-wide seed key used to fabricate
// deterministic SRP parameters for unknown users.
const SeedKeySize = 64

// UserList is the account store consulted during identification. It is
// read-only from a session's perspective; implementations must be safe for
// concurrent use by multiple sessions.
type UserList interface {
	// Find returns the record for a case-folded username.
	Find(username string) (*User, bool)

	// SeedKey returns the server-wide secret for fabricated identities.
	// It must be stable for the lifetime of the server: a changing seed
	// key would make repeated probes for the same unknown name observably
	// inconsistent.
	SeedKey() []byte
}

// StaticUserList is an in-memory UserList.
type StaticUserList struct {
	mu      sync.RWMutex
	users   map[string]*User
	seedKey []byte
}

// NewUserList creates an empty user list. A nil seedKey generates a fresh
// random one; an explicit empty seed key is rejected.
func NewUserList(seedKey []byte) (*StaticUserList, error) {
	if seedKey == nil {
		var err error
		seedKey, err = crypto.RandomBytes(nil, SeedKeySize)
		if err != nil {
			return nil, err
		}
	}
	if len(seedKey) == 0 {
		return nil, ErrEmptySeedKey
	}
	return &StaticUserList{
		users:   make(map[string]*User),
		seedKey: seedKey,
	}, nil
}

// Add inserts a user record. The name is case-folded for lookup.
func (l *StaticUserList) Add(u *User) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := strings.ToLower(u.Name)
	if _, exists := l.users[key]; exists {
		return ErrDuplicateUser
	}
	l.users[key] = u
	return nil
}

// Remove deletes a user record by name.
func (l *StaticUserList) Remove(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.users, strings.ToLower(name))
}

// Find implements UserList.
func (l *StaticUserList) Find(username string) (*User, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.users[strings.ToLower(username)]
	return u, ok
}

// SeedKey implements UserList.
func (l *StaticUserList) SeedKey() []byte {
	return l.seedKey
}
