package crypto

import (
	"errors"
	"io"

	"golang.org/x/crypto/curve25519"
)

// Key sizes for the X25519 envelope key agreement.
const (
	// PrivateKeySize is the X25519 private scalar length.
	PrivateKeySize = curve25519.ScalarSize

	// PublicKeySize is the X25519 public point length.
	PublicKeySize = curve25519.PointSize
)

// Errors for key pair operations.
var (
	ErrInvalidPrivateKey = errors.New("crypto: invalid private key")
	ErrInvalidPublicKey  = errors.New("crypto: invalid public key")
)

// KeyPair is a long-term X25519 key pair. It is immutable after
// construction and safe for concurrent use by multiple sessions.
type KeyPair struct {
	private [PrivateKeySize]byte
	public  [PublicKeySize]byte
}

// GenerateKeyPair creates a new key pair from r (the OS CSPRNG when nil).
func GenerateKeyPair(r io.Reader) (*KeyPair, error) {
	priv, err := RandomBytes(r, PrivateKeySize)
	if err != nil {
		return nil, err
	}
	defer Zeroize(priv)
	return KeyPairFromPrivateKey(priv)
}

// KeyPairFromPrivateKey loads a key pair from a 32-byte private scalar.
// The caller keeps ownership of priv and should zeroize it.
func KeyPairFromPrivateKey(priv []byte) (*KeyPair, error) {
	if len(priv) != PrivateKeySize {
		return nil, ErrInvalidPrivateKey
	}
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	kp := &KeyPair{}
	copy(kp.private[:], priv)
	copy(kp.public[:], pub)
	return kp, nil
}

// PublicKey returns a copy of the public point.
func (kp *KeyPair) PublicKey() []byte {
	pub := make([]byte, PublicKeySize)
	copy(pub, kp.public[:])
	return pub
}

// SessionKey computes the raw shared secret with the peer's public point.
// The result must be hashed before use as key material.
func (kp *KeyPair) SessionKey(peerPublic []byte) ([]byte, error) {
	if len(peerPublic) != PublicKeySize {
		return nil, ErrInvalidPublicKey
	}
	shared, err := curve25519.X25519(kp.private[:], peerPublic)
	if err != nil {
		return nil, ErrInvalidPublicKey
	}
	return shared, nil
}

// Close wipes the private scalar. The key pair is unusable afterwards.
func (kp *KeyPair) Close() {
	Zeroize(kp.private[:])
}
