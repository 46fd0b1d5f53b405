package value

import (
	"math/big"
)

// Native converts v into plain Go values for host code that does not want
// to switch over the variant types.
//
//	Nil -> nil, Bool -> bool, Int -> int64, BigInt -> *big.Int,
//	Float -> float32, Double -> float64, String -> string, Bytes -> []byte,
//	List/Set/ObjectArray -> []any, Keyword -> ":ns/name", Symbol -> "ns/name",
//	Inst -> time.Time, UUID -> canonical string, BigDec -> *big.Rat,
//	Char -> rune, arrays -> typed slices, Tagged -> map[string]any.
//
// Maps whose keys are all strings or keywords become map[string]any;
// any other map becomes map[any]any with composite keys rendered by Format.
func Native(v Value) any {
	if v == nil {
		return nil
	}
	switch x := v.(type) {
	case Nil:
		return nil
	case Bool:
		return bool(x)
	case Int:
		return int64(x)
	case BigInt:
		return new(big.Int).Set(x.Int())
	case Float:
		return float32(x)
	case Double:
		return float64(x)
	case String:
		return string(x)
	case Bytes:
		return []byte(x)
	case List:
		return nativeSeq(x)
	case Set:
		return nativeSeq(x)
	case ObjectArray:
		return nativeSeq(x)
	case Map:
		return nativeMap(x)
	case Keyword:
		return Format(x)
	case Symbol:
		return Format(x)
	case Inst:
		return x.Time()
	case UUID:
		return x.Canonical()
	case URI:
		return string(x)
	case Regex:
		return string(x)
	case BigDec:
		return x.Rat()
	case Char:
		return rune(x)
	case IntArray:
		return []int32(x)
	case LongArray:
		return []int64(x)
	case FloatArray:
		return []float32(x)
	case DoubleArray:
		return []float64(x)
	case BooleanArray:
		return []bool(x)
	case Tagged:
		return map[string]any{
			"tag":    x.Tag,
			"fields": nativeSeq(x.Fields),
		}
	}
	return nil
}

func nativeSeq(elems []Value) []any {
	out := make([]any, len(elems))
	for i, e := range elems {
		out[i] = Native(e)
	}
	return out
}

func nativeMap(m Map) any {
	stringKeys := true
	for _, e := range m {
		switch e.Key.(type) {
		case String, Keyword:
		default:
			stringKeys = false
		}
	}

	if stringKeys {
		out := make(map[string]any, len(m))
		for _, e := range m {
			key := Format(e.Key)
			if s, ok := e.Key.(String); ok {
				key = string(s)
			}
			if _, dup := out[key]; !dup {
				out[key] = Native(e.Val)
			}
		}
		return out
	}

	out := make(map[any]any, len(m))
	for _, e := range m {
		var key any
		switch e.Key.(type) {
		case List, Map, Set, Bytes, ObjectArray, IntArray, LongArray, FloatArray, DoubleArray, BooleanArray, Tagged, BigInt, BigDec:
			key = Format(e.Key)
		default:
			key = Native(e.Key)
		}
		if _, dup := out[key]; !dup {
			out[key] = Native(e.Val)
		}
	}
	return out
}
