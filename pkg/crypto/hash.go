// Package crypto provides the cryptographic primitives used by the peerlink
// handshake: BLAKE2 hashing, X25519 key agreement, AEAD message protection
// and a single CSPRNG entry point.
package crypto

import (
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
)

// Hash output sizes.
const (
	// Blake2b512Size is the BLAKE2b-512 digest length in bytes.
	Blake2b512Size = blake2b.Size

	// Blake2s256Size is the BLAKE2s-256 digest length in bytes.
	Blake2s256Size = blake2s.Size
)

// Blake2b512 computes the BLAKE2b-512 digest of the concatenation of parts.
func Blake2b512(parts ...[]byte) []byte {
	h, _ := blake2b.New512(nil)
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// Blake2s256 computes the BLAKE2s-256 digest of the concatenation of parts.
func Blake2s256(parts ...[]byte) []byte {
	h, _ := blake2s.New256(nil)
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}
