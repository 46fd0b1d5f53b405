package value

import (
	"bytes"
	"math"
)

// Equal reports whether a and b are semantically the same value.
//
// Floating point numbers compare by bit pattern, so NaN equals a NaN with
// the same payload and 0.0 differs from -0.0. Sets compare without regard
// to order; maps and lists compare pairwise in order. A Go nil compares
// equal to Nil.
func Equal(a, b Value) bool {
	if a == nil {
		a = Nil{}
	}
	if b == nil {
		b = Nil{}
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case Nil:
		return true
	case Bool:
		return x == b.(Bool)
	case Int:
		return x == b.(Int)
	case BigInt:
		return x.Int().Cmp(b.(BigInt).Int()) == 0
	case Float:
		return math.Float32bits(float32(x)) == math.Float32bits(float32(b.(Float)))
	case Double:
		return math.Float64bits(float64(x)) == math.Float64bits(float64(b.(Double)))
	case String:
		return x == b.(String)
	case Bytes:
		return bytes.Equal(x, b.(Bytes))
	case List:
		return equalSeq(x, b.(List))
	case ObjectArray:
		return equalSeq(x, b.(ObjectArray))
	case Map:
		y := b.(Map)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i].Key, y[i].Key) || !Equal(x[i].Val, y[i].Val) {
				return false
			}
		}
		return true
	case Set:
		y := b.(Set)
		if len(x) != len(y) {
			return false
		}
		for _, e := range x {
			if !y.Contains(e) {
				return false
			}
		}
		return true
	case Keyword:
		return x == b.(Keyword)
	case Symbol:
		return x == b.(Symbol)
	case Inst:
		return x == b.(Inst)
	case UUID:
		return x == b.(UUID)
	case URI:
		return x == b.(URI)
	case Regex:
		return x == b.(Regex)
	case BigDec:
		y := b.(BigDec)
		return x.Scale == y.Scale && BigInt{x.Unscaled}.Int().Cmp(BigInt{y.Unscaled}.Int()) == 0
	case Char:
		return x == b.(Char)
	case IntArray:
		y := b.(IntArray)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	case LongArray:
		y := b.(LongArray)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	case FloatArray:
		y := b.(FloatArray)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if math.Float32bits(x[i]) != math.Float32bits(y[i]) {
				return false
			}
		}
		return true
	case DoubleArray:
		y := b.(DoubleArray)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if math.Float64bits(x[i]) != math.Float64bits(y[i]) {
				return false
			}
		}
		return true
	case BooleanArray:
		y := b.(BooleanArray)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	case Tagged:
		y := b.(Tagged)
		return x.Tag == y.Tag && equalSeq(x.Fields, y.Fields)
	}
	return false
}

func equalSeq(x, y []Value) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !Equal(x[i], y[i]) {
			return false
		}
	}
	return true
}
