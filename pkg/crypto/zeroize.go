package crypto

import "math/big"

// Zeroize overwrites b with zeros. Use on key material before releasing it.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroizeBig overwrites the absolute value of x and resets it to zero.
func ZeroizeBig(x *big.Int) {
	if x == nil {
		return
	}
	words := x.Bits()
	for i := range words {
		words[i] = 0
	}
	x.SetInt64(0)
}
