// Package srp implements the server side of SRP-6a (RFC 5054 groups,
// BLAKE2b-512 hashing) as used by the peerlink authentication handshake.
//
// Conventions follow the SRP papers:
//
//	N, g    group modulus and generator
//	s       user salt
//	x       private key derived from identity, secret and salt
//	v       verifier, v = g^x mod N
//	a, b    secret ephemerals
//	A, B    public ephemerals, B = k*v + g^b mod N
//	u       scrambling parameter, u = H(A, B)
//	k       multiplier, k = H(N, g)
//	S       shared value; the server computes S = (A * v^u)^b mod N
//
// Public values are serialized as unsigned big-endian byte arrays. The
// inputs to k and u are zero-padded to the width of N before hashing.
package srp

import (
	"math/big"

	"github.com/peerlink/peerlink/pkg/crypto"
)

var bigZero = new(big.Int)

// pad serializes x as an unsigned big-endian array of exactly size bytes.
func pad(x *big.Int, size int) []byte {
	return x.FillBytes(make([]byte, size))
}

// hashBig hashes the N-padded serializations of the given values and
// reduces the digest to an integer.
func hashBig(N *big.Int, values ...*big.Int) *big.Int {
	size := len(N.Bytes())
	parts := make([][]byte, len(values))
	for i, v := range values {
		parts[i] = pad(v, size)
	}
	return new(big.Int).SetBytes(crypto.Blake2b512(parts...))
}

// CalcX derives the SRP private key x from an identity, a secret and a
// salt: x = H(s || H(identity || ":" || secret)).
func CalcX(identity, secret, salt []byte) *big.Int {
	inner := crypto.Blake2b512(identity, []byte{':'}, secret)
	return new(big.Int).SetBytes(crypto.Blake2b512(salt, inner))
}

// CalcV computes the verifier v = g^x mod N for a derived private key.
func CalcV(identity, secret, salt []byte, N, g *big.Int) *big.Int {
	x := CalcX(identity, secret, salt)
	defer crypto.ZeroizeBig(x)
	return new(big.Int).Exp(g, x, N)
}

// CalcK computes the SRP-6a multiplier k = H(N, g).
func CalcK(N, g *big.Int) *big.Int {
	return hashBig(N, N, g)
}

// CalcB computes the server public ephemeral B = k*v + g^b mod N.
func CalcB(b, N, g, v *big.Int) *big.Int {
	k := CalcK(N, g)
	B := new(big.Int).Exp(g, b, N)
	B.Add(B, new(big.Int).Mul(k, v))
	return B.Mod(B, N)
}

// CalcU computes the scrambling parameter u = H(A, B).
func CalcU(A, B, N *big.Int) *big.Int {
	return hashBig(N, A, B)
}

// VerifyAModN reports whether the client ephemeral is usable:
// A mod N must not be zero, or the shared value would be attacker-chosen.
func VerifyAModN(A, N *big.Int) bool {
	if A.Sign() <= 0 {
		return false
	}
	return new(big.Int).Mod(A, N).Cmp(bigZero) != 0
}

// ServerKey computes the server-side shared value S = (A * v^u)^b mod N.
func ServerKey(A, v, u, b, N *big.Int) *big.Int {
	S := new(big.Int).Exp(v, u, N)
	S.Mul(S, A)
	S.Mod(S, N)
	return S.Exp(S, b, N)
}

// ClientKey computes the client-side shared value
// S = (B - k*g^x)^(a + u*x) mod N. It is provided for conformance tests
// and client implementations.
func ClientKey(a, B, x, u, N, g *big.Int) *big.Int {
	k := CalcK(N, g)
	gx := new(big.Int).Exp(g, x, N)
	base := new(big.Int).Sub(B, gx.Mul(gx, k).Mod(gx, N))
	base.Mod(base, N)
	exp := new(big.Int).Mul(u, x)
	exp.Add(exp, a)
	return base.Exp(base, exp, N)
}
