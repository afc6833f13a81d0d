package peer

import (
	"encoding/binary"
	"strings"
	"unicode/utf16"

	"github.com/peerlink/peerlink/pkg/crypto"
	"github.com/peerlink/peerlink/pkg/crypto/srp"
)

// UserFlags is a bitmask of per-user switches.
type UserFlags uint32

const (
	// UserEnabled marks an account usable for authentication. Disabled
	// accounts behave exactly like missing ones on the wire.
	UserEnabled UserFlags = 1 << 0
)

// SaltSize is the salt length for stored verifiers. It matches the
// BLAKE2b-512 digest length so that fabricated salts for unknown users are
// the same size as real ones.
const SaltSize = crypto.Blake2b512Size

// User is one account record: a case-folded name, the SRP group the
// verifier was computed in, and the session kinds the account may run.
type User struct {
	Name     string
	Group    int
	Salt     []byte
	Verifier []byte
	Sessions uint32
	Flags    UserFlags
}

// NewUser creates an enabled account for the given name and password in
// the given SRP group, with a fresh random salt. Sessions starts empty;
// the caller grants kinds explicitly.
func NewUser(name, password string, group int) (*User, error) {
	N, g, ok := srp.Group(group)
	if !ok {
		return nil, ErrUnknownGroup
	}

	salt, err := crypto.RandomBytes(nil, SaltSize)
	if err != nil {
		return nil, err
	}

	identity := srpIdentity(name)
	secret := utf16LE(password)
	defer crypto.Zeroize(secret)

	v := srp.CalcV(identity, secret, salt, N, g)

	return &User{
		Name:     name,
		Group:    group,
		Salt:     salt,
		Verifier: v.Bytes(),
		Flags:    UserEnabled,
	}, nil
}

// Enabled reports whether the account may authenticate.
func (u *User) Enabled() bool {
	return u.Flags&UserEnabled != 0
}

// srpIdentity converts a username to the UTF-16LE byte form used as SRP
// identity material. Names are case-folded first so that lookup and
// verifier computation agree.
func srpIdentity(name string) []byte {
	return utf16LE(strings.ToLower(name))
}

// utf16LE encodes a string as UTF-16 little-endian bytes.
func utf16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[2*i:], u)
	}
	return buf
}
