package value

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Hash returns a structural hash consistent with Equal: equal values hash
// equally. Set hashes ignore element order.
func Hash(v Value) uint64 {
	d := xxhash.New()
	writeHash(d, v)
	return d.Sum64()
}

func writeHash(d *xxhash.Digest, v Value) {
	if v == nil {
		v = Nil{}
	}
	var buf [9]byte
	buf[0] = byte(v.Kind())

	u64 := func(n uint64) {
		binary.LittleEndian.PutUint64(buf[1:], n)
		_, _ = d.Write(buf[:])
	}
	str := func(s string) {
		u64(uint64(len(s)))
		_, _ = d.Write([]byte(s))
	}

	switch x := v.(type) {
	case Nil:
		_, _ = d.Write(buf[:1])
	case Bool:
		if x {
			u64(1)
		} else {
			u64(0)
		}
	case Int:
		u64(uint64(x))
	case BigInt:
		n := x.Int()
		u64(uint64(n.Sign() + 1))
		_, _ = d.Write(n.Bytes())
	case Float:
		u64(uint64(math.Float32bits(float32(x))))
	case Double:
		u64(math.Float64bits(float64(x)))
	case String:
		str(string(x))
	case Bytes:
		u64(uint64(len(x)))
		_, _ = d.Write(x)
	case List:
		u64(uint64(len(x)))
		for _, e := range x {
			writeHash(d, e)
		}
	case ObjectArray:
		u64(uint64(len(x)))
		for _, e := range x {
			writeHash(d, e)
		}
	case Map:
		u64(uint64(len(x)))
		for _, e := range x {
			writeHash(d, e.Key)
			writeHash(d, e.Val)
		}
	case Set:
		var sum uint64
		for _, e := range x {
			sum += Hash(e)
		}
		u64(sum)
	case Keyword:
		str(x.Namespace)
		str(x.Name)
	case Symbol:
		str(x.Namespace)
		str(x.Name)
	case Inst:
		u64(uint64(x))
	case UUID:
		_, _ = d.Write(buf[:1])
		_, _ = d.Write(x[:])
	case URI:
		str(string(x))
	case Regex:
		str(string(x))
	case BigDec:
		u64(uint64(uint32(x.Scale)))
		writeHash(d, BigInt{x.Unscaled})
	case Char:
		u64(uint64(x))
	case IntArray:
		u64(uint64(len(x)))
		for _, n := range x {
			u64(uint64(uint32(n)))
		}
	case LongArray:
		u64(uint64(len(x)))
		for _, n := range x {
			u64(uint64(n))
		}
	case FloatArray:
		u64(uint64(len(x)))
		for _, f := range x {
			u64(uint64(math.Float32bits(f)))
		}
	case DoubleArray:
		u64(uint64(len(x)))
		for _, f := range x {
			u64(math.Float64bits(f))
		}
	case BooleanArray:
		u64(uint64(len(x)))
		for _, b := range x {
			if b {
				_, _ = d.Write([]byte{1})
			} else {
				_, _ = d.Write([]byte{0})
			}
		}
	case Tagged:
		str(x.Tag)
		u64(uint64(len(x.Fields)))
		for _, e := range x.Fields {
			writeHash(d, e)
		}
	}
}
