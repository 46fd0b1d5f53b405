package fressian

import "math/big"

// twosComplement returns the minimal big-endian two's complement form of x,
// the same layout java.math.BigInteger.toByteArray produces.
func twosComplement(x *big.Int) []byte {
	switch x.Sign() {
	case 0:
		return []byte{0}
	case 1:
		b := x.Bytes()
		if b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return b
	}

	// smallest n with -2^(8n-1) <= x
	n := new(big.Int).Not(x).BitLen()/8 + 1
	t := new(big.Int).Lsh(big.NewInt(1), uint(8*n))
	t.Add(t, x)
	return t.FillBytes(make([]byte, n))
}

func fromTwosComplement(b []byte) *big.Int {
	x := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		x.Sub(x, new(big.Int).Lsh(big.NewInt(1), uint(8*len(b))))
	}
	return x
}
