package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm selects the AEAD used to protect handshake and session messages.
type Algorithm int

const (
	// AES256GCM is AES-256 in Galois/Counter Mode.
	AES256GCM Algorithm = iota + 1

	// ChaCha20Poly1305 is the ChaCha20-Poly1305 AEAD.
	ChaCha20Poly1305
)

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case AES256GCM:
		return "AES256-GCM"
	case ChaCha20Poly1305:
		return "ChaCha20-Poly1305"
	default:
		return "Unknown"
	}
}

// AEAD parameters. Both supported algorithms use a 256-bit key and a
// 96-bit nonce.
const (
	// KeySize is the AEAD key length.
	KeySize = chacha20poly1305.KeySize

	// IVSize is the AEAD nonce length.
	IVSize = chacha20poly1305.NonceSize

	// TagSize is the authentication tag length appended to ciphertexts.
	TagSize = 16
)

// Errors for AEAD operations.
var (
	ErrUnknownAlgorithm = errors.New("crypto: unknown encryption algorithm")
	ErrInvalidKey       = errors.New("crypto: invalid key size, must be 32 bytes")
	ErrInvalidIV        = errors.New("crypto: invalid IV size, must be 12 bytes")
	ErrDecryptFailed    = errors.New("crypto: message authentication failed")
)

func newAEAD(alg Algorithm, key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	switch alg {
	case AES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case ChaCha20Poly1305:
		return chacha20poly1305.New(key)
	default:
		return nil, ErrUnknownAlgorithm
	}
}

// incrementNonce advances a 96-bit little-endian counter by one.
func incrementNonce(nonce []byte) {
	for i := 0; i < len(nonce); i++ {
		nonce[i]++
		if nonce[i] != 0 {
			break
		}
	}
}

// Encryptor seals outbound messages. The nonce starts at the negotiated IV
// and is incremented after every message, so a nonce is never reused within
// a session. Not safe for concurrent use.
type Encryptor struct {
	aead  cipher.AEAD
	nonce [IVSize]byte
}

// NewEncryptor creates an encryptor for the given algorithm, 32-byte key
// and 12-byte starting IV.
func NewEncryptor(alg Algorithm, key, iv []byte) (*Encryptor, error) {
	if len(iv) != IVSize {
		return nil, ErrInvalidIV
	}
	aead, err := newAEAD(alg, key)
	if err != nil {
		return nil, err
	}
	e := &Encryptor{aead: aead}
	copy(e.nonce[:], iv)
	return e, nil
}

// Seal encrypts plaintext and appends the authentication tag.
func (e *Encryptor) Seal(plaintext []byte) []byte {
	out := e.aead.Seal(nil, e.nonce[:], plaintext, nil)
	incrementNonce(e.nonce[:])
	return out
}

// Decryptor opens inbound messages using the mirrored nonce discipline.
// Not safe for concurrent use.
type Decryptor struct {
	aead  cipher.AEAD
	nonce [IVSize]byte
}

// NewDecryptor creates a decryptor for the given algorithm, 32-byte key
// and 12-byte starting IV.
func NewDecryptor(alg Algorithm, key, iv []byte) (*Decryptor, error) {
	if len(iv) != IVSize {
		return nil, ErrInvalidIV
	}
	aead, err := newAEAD(alg, key)
	if err != nil {
		return nil, err
	}
	d := &Decryptor{aead: aead}
	copy(d.nonce[:], iv)
	return d, nil
}

// Open authenticates and decrypts ciphertext.
func (d *Decryptor) Open(ciphertext []byte) ([]byte, error) {
	out, err := d.aead.Open(nil, d.nonce[:], ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	incrementNonce(d.nonce[:])
	return out, nil
}
