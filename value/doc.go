// Package value defines the intermediate representation shared by the
// encoder, the decoder and application code on both sides of the boundary.
//
// # Variants
//
//	Nil Bool Int BigInt Float Double String Bytes   scalars
//	List Map Set                                     collections
//	Keyword Symbol Inst UUID URI Regex BigDec Char  extension types
//	IntArray LongArray FloatArray DoubleArray
//	BooleanArray ObjectArray                         typed arrays
//	Tagged                                           struct records
//
// Value is sealed: only the types in this package implement it, so a type
// switch over Kind is exhaustive.
//
// # Conversion
//
//	v, err := value.Of(map[string]any{"id": 7, "tags": []string{"a"}})
//	native := value.Native(v)
//
// Equal compares floats by bit pattern, so NaN and -0.0 survive a round
// trip comparison. Hash is consistent with Equal and is used to reject
// duplicate set elements.
package value
