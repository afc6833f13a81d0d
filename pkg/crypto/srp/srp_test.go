package srp

import (
	"crypto/rand"
	"math/big"
	"testing"
)

func TestGroups(t *testing.T) {
	for _, id := range GroupIDs {
		N, g, ok := Group(id)
		if !ok {
			t.Fatalf("Group(%d) not found", id)
		}
		if N.BitLen() != id {
			t.Errorf("Group(%d): modulus has %d bits", id, N.BitLen())
		}
		if g.Sign() <= 0 {
			t.Errorf("Group(%d): non-positive generator", id)
		}
	}

	if _, _, ok := Group(512); ok {
		t.Error("Group(512) should not exist")
	}
}

// TestRoundTrip runs the full SRP-6a exchange with both roles in-process
// and checks that client and server arrive at the same shared value.
func TestRoundTrip(t *testing.T) {
	N, g, ok := Group(2048)
	if !ok {
		t.Fatal("group 2048 missing")
	}

	identity := []byte("a\x00l\x00i\x00c\x00e\x00") // UTF-16LE "alice"
	secret := []byte("correct horse battery staple")
	salt := []byte("0123456789abcdef0123456789abcdef")

	v := CalcV(identity, secret, salt, N, g)

	// Server ephemeral.
	bBytes := make([]byte, 128)
	if _, err := rand.Read(bBytes); err != nil {
		t.Fatal(err)
	}
	b := new(big.Int).SetBytes(bBytes)
	B := CalcB(b, N, g, v)

	// Client ephemeral.
	aBytes := make([]byte, 128)
	if _, err := rand.Read(aBytes); err != nil {
		t.Fatal(err)
	}
	a := new(big.Int).SetBytes(aBytes)
	A := new(big.Int).Exp(g, a, N)

	if !VerifyAModN(A, N) {
		t.Fatal("client ephemeral rejected")
	}

	u := CalcU(A, B, N)
	x := CalcX(identity, secret, salt)

	serverS := ServerKey(A, v, u, b, N)
	clientS := ClientKey(a, B, x, u, N, g)

	if serverS.Cmp(clientS) != 0 {
		t.Error("server and client shared values differ")
	}
	if serverS.Sign() == 0 {
		t.Error("shared value is zero")
	}
}

func TestVerifyAModN(t *testing.T) {
	N, _, _ := Group(1024)

	if VerifyAModN(new(big.Int), N) {
		t.Error("A = 0 accepted")
	}
	if VerifyAModN(new(big.Int).Set(N), N) {
		t.Error("A = N accepted")
	}
	if VerifyAModN(new(big.Int).Lsh(N, 1), N) {
		t.Error("A = 2N accepted")
	}
	if !VerifyAModN(big.NewInt(2), N) {
		t.Error("A = 2 rejected")
	}
}

func TestCalcVDeterministic(t *testing.T) {
	N, g, _ := Group(1024)
	salt := []byte("salt")

	v1 := CalcV([]byte("user"), []byte("pass"), salt, N, g)
	v2 := CalcV([]byte("user"), []byte("pass"), salt, N, g)
	if v1.Cmp(v2) != 0 {
		t.Error("verifier not deterministic")
	}

	v3 := CalcV([]byte("user"), []byte("other"), salt, N, g)
	if v1.Cmp(v3) == 0 {
		t.Error("different secrets produced the same verifier")
	}
}
