package session

import (
	"bytes"
	"net"
	"testing"

	"github.com/peerlink/peerlink/pkg/crypto"
	"github.com/peerlink/peerlink/pkg/message"
)

func pipePair(t *testing.T, key, ivAB, ivBA []byte) (*Secure, *Secure) {
	t.Helper()

	a, b := net.Pipe()

	encA, err := crypto.NewEncryptor(crypto.ChaCha20Poly1305, key, ivAB)
	if err != nil {
		t.Fatal(err)
	}
	decB, err := crypto.NewDecryptor(crypto.ChaCha20Poly1305, key, ivAB)
	if err != nil {
		t.Fatal(err)
	}
	encB, err := crypto.NewEncryptor(crypto.ChaCha20Poly1305, key, ivBA)
	if err != nil {
		t.Fatal(err)
	}
	decA, err := crypto.NewDecryptor(crypto.ChaCha20Poly1305, key, ivBA)
	if err != nil {
		t.Fatal(err)
	}

	sa := New(Config{
		Conn:      a,
		Reader:    message.NewStreamReader(a),
		Writer:    message.NewStreamWriter(a),
		Encryptor: encA,
		Decryptor: decA,
		UserName:  "alice",
	})
	sb := New(Config{
		Conn:      b,
		Reader:    message.NewStreamReader(b),
		Writer:    message.NewStreamWriter(b),
		Encryptor: encB,
		Decryptor: decB,
	})
	return sa, sb
}

func TestSecureRoundTrip(t *testing.T) {
	key := make([]byte, crypto.KeySize)
	ivAB := make([]byte, crypto.IVSize)
	ivBA := make([]byte, crypto.IVSize)
	ivBA[0] = 1

	sa, sb := pipePair(t, key, ivAB, ivBA)
	defer sa.Close()
	defer sb.Close()

	if !sa.Encrypted() {
		t.Fatal("session not marked encrypted")
	}
	if sa.UserName() != "alice" {
		t.Errorf("UserName = %q", sa.UserName())
	}

	done := make(chan error, 1)
	go func() {
		done <- sa.WriteMessage([]byte("over the wire"))
	}()

	got, err := sb.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if !bytes.Equal(got, []byte("over the wire")) {
		t.Errorf("payload mismatch: %q", got)
	}
	if err := <-done; err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}
}

func TestSecureClosedWrite(t *testing.T) {
	key := make([]byte, crypto.KeySize)
	iv := make([]byte, crypto.IVSize)

	sa, _ := pipePair(t, key, iv, iv)
	sa.Close()

	if err := sa.WriteMessage([]byte("late")); err != ErrClosed {
		t.Errorf("write after close: %v", err)
	}
	if err := sa.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
