package crypto

import (
	"bytes"
	"testing"
)

func TestKeyPairAgreement(t *testing.T) {
	server, err := GenerateKeyPair(nil)
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	client, err := GenerateKeyPair(nil)
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}

	s1, err := server.SessionKey(client.PublicKey())
	if err != nil {
		t.Fatalf("SessionKey failed: %v", err)
	}
	s2, err := client.SessionKey(server.PublicKey())
	if err != nil {
		t.Fatalf("SessionKey failed: %v", err)
	}

	if !bytes.Equal(s1, s2) {
		t.Error("shared secrets differ")
	}
	if len(s1) != 32 {
		t.Errorf("shared secret length = %d, want 32", len(s1))
	}
}

func TestKeyPairFromPrivateKeyStable(t *testing.T) {
	priv := make([]byte, PrivateKeySize)
	for i := range priv {
		priv[i] = byte(i + 7)
	}

	a, err := KeyPairFromPrivateKey(priv)
	if err != nil {
		t.Fatalf("KeyPairFromPrivateKey failed: %v", err)
	}
	b, err := KeyPairFromPrivateKey(priv)
	if err != nil {
		t.Fatalf("KeyPairFromPrivateKey failed: %v", err)
	}
	if !bytes.Equal(a.PublicKey(), b.PublicKey()) {
		t.Error("public key not deterministic for the same private key")
	}
}

func TestKeyPairInvalidInput(t *testing.T) {
	if _, err := KeyPairFromPrivateKey(nil); err != ErrInvalidPrivateKey {
		t.Errorf("nil private key: got %v, want ErrInvalidPrivateKey", err)
	}
	if _, err := KeyPairFromPrivateKey(make([]byte, 16)); err != ErrInvalidPrivateKey {
		t.Errorf("short private key: got %v, want ErrInvalidPrivateKey", err)
	}

	kp, _ := GenerateKeyPair(nil)
	if _, err := kp.SessionKey(make([]byte, 5)); err != ErrInvalidPublicKey {
		t.Errorf("short peer key: got %v, want ErrInvalidPublicKey", err)
	}
}
