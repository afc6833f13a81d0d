package crypto

import (
	"bytes"
	"testing"
)

func TestBlake2Sizes(t *testing.T) {
	if n := len(Blake2b512([]byte("abc"))); n != Blake2b512Size {
		t.Errorf("Blake2b512 length = %d, want %d", n, Blake2b512Size)
	}
	if n := len(Blake2s256([]byte("abc"))); n != Blake2s256Size {
		t.Errorf("Blake2s256 length = %d, want %d", n, Blake2s256Size)
	}
}

func TestBlake2Concatenation(t *testing.T) {
	// Hashing in parts must equal hashing the concatenation.
	joined := Blake2b512([]byte("seed-key"), []byte("alice"))
	whole := Blake2b512([]byte("seed-keyalice"))
	if !bytes.Equal(joined, whole) {
		t.Error("part-wise hashing differs from whole-input hashing")
	}

	if bytes.Equal(Blake2s256([]byte("a")), Blake2s256([]byte("b"))) {
		t.Error("distinct inputs produced identical digests")
	}
}

func TestZeroize(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Zeroize(b)
	for i, v := range b {
		if v != 0 {
			t.Errorf("byte %d not wiped: %d", i, v)
		}
	}
}
