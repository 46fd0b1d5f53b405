package value

import (
	"math/big"
	"time"
)

// Kind discriminates the variants of Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindBigInt
	KindFloat
	KindDouble
	KindString
	KindBytes
	KindList
	KindMap
	KindSet
	KindKeyword
	KindSymbol
	KindInst
	KindUUID
	KindURI
	KindRegex
	KindBigDec
	KindChar
	KindIntArray
	KindLongArray
	KindFloatArray
	KindDoubleArray
	KindBooleanArray
	KindObjectArray
	KindTagged
)

var kindNames = [...]string{
	KindNil:          "nil",
	KindBool:         "bool",
	KindInt:          "int",
	KindBigInt:       "bigint",
	KindFloat:        "float",
	KindDouble:       "double",
	KindString:       "string",
	KindBytes:        "bytes",
	KindList:         "list",
	KindMap:          "map",
	KindSet:          "set",
	KindKeyword:      "keyword",
	KindSymbol:       "symbol",
	KindInst:         "inst",
	KindUUID:         "uuid",
	KindURI:          "uri",
	KindRegex:        "regex",
	KindBigDec:       "bigdec",
	KindChar:         "char",
	KindIntArray:     "int-array",
	KindLongArray:    "long-array",
	KindFloatArray:   "float-array",
	KindDoubleArray:  "double-array",
	KindBooleanArray: "boolean-array",
	KindObjectArray:  "object-array",
	KindTagged:       "tagged",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is the closed set of values the wire format can carry.
// Only types declared in this package implement it.
type Value interface {
	Kind() Kind
	String() string
	isValue()
}

// Valuer is implemented by types that know their own Value form.
type Valuer interface {
	ToValue() Value
}

type (
	// Nil is the absent value.
	Nil struct{}

	Bool bool

	// Int is a 64-bit signed integer. Wider integers use BigInt.
	Int int64

	// BigInt is an arbitrary-width integer. A nil V reads as zero.
	BigInt struct{ V *big.Int }

	// Float is a single precision IEEE754 number.
	Float float32

	// Double is a double precision IEEE754 number.
	Double float64

	// String holds UTF-8 text.
	String string

	Bytes []byte

	List []Value

	// Map is an ordered sequence of pairs. Keys are not required to be
	// unique; wire order and duplicates survive a round trip.
	Map []Entry

	// Set holds unique elements. Use NewSet to build one from arbitrary input.
	Set []Value

	// Keyword is a namespaced identifier. An empty Namespace means none.
	Keyword struct{ Namespace, Name string }

	// Symbol is a namespaced identifier. An empty Namespace means none.
	Symbol struct{ Namespace, Name string }

	// Inst is a point in time as milliseconds since the Unix epoch.
	Inst int64

	UUID [16]byte

	URI string

	// Regex holds the pattern source; it is never compiled.
	Regex string

	// BigDec is Unscaled × 10^-Scale.
	BigDec struct {
		Unscaled *big.Int
		Scale    int32
	}

	// Char is a single character, carried on the wire as a "char" record.
	Char rune

	IntArray     []int32
	LongArray    []int64
	FloatArray   []float32
	DoubleArray  []float64
	BooleanArray []bool
	ObjectArray  []Value

	// Tagged is a record: a tag naming its type and positional fields.
	Tagged struct {
		Tag    string
		Fields []Value
	}
)

// Entry is one key/value pair of a Map.
type Entry struct {
	Key Value
	Val Value
}

func (Nil) Kind() Kind          { return KindNil }
func (Bool) Kind() Kind         { return KindBool }
func (Int) Kind() Kind          { return KindInt }
func (BigInt) Kind() Kind       { return KindBigInt }
func (Float) Kind() Kind        { return KindFloat }
func (Double) Kind() Kind       { return KindDouble }
func (String) Kind() Kind       { return KindString }
func (Bytes) Kind() Kind        { return KindBytes }
func (List) Kind() Kind         { return KindList }
func (Map) Kind() Kind          { return KindMap }
func (Set) Kind() Kind          { return KindSet }
func (Keyword) Kind() Kind      { return KindKeyword }
func (Symbol) Kind() Kind       { return KindSymbol }
func (Inst) Kind() Kind         { return KindInst }
func (UUID) Kind() Kind         { return KindUUID }
func (URI) Kind() Kind          { return KindURI }
func (Regex) Kind() Kind        { return KindRegex }
func (BigDec) Kind() Kind       { return KindBigDec }
func (Char) Kind() Kind         { return KindChar }
func (IntArray) Kind() Kind     { return KindIntArray }
func (LongArray) Kind() Kind    { return KindLongArray }
func (FloatArray) Kind() Kind   { return KindFloatArray }
func (DoubleArray) Kind() Kind  { return KindDoubleArray }
func (BooleanArray) Kind() Kind { return KindBooleanArray }
func (ObjectArray) Kind() Kind  { return KindObjectArray }
func (Tagged) Kind() Kind       { return KindTagged }

func (Nil) isValue()          {}
func (Bool) isValue()         {}
func (Int) isValue()          {}
func (BigInt) isValue()       {}
func (Float) isValue()        {}
func (Double) isValue()       {}
func (String) isValue()       {}
func (Bytes) isValue()        {}
func (List) isValue()         {}
func (Map) isValue()          {}
func (Set) isValue()          {}
func (Keyword) isValue()      {}
func (Symbol) isValue()       {}
func (Inst) isValue()         {}
func (UUID) isValue()         {}
func (URI) isValue()          {}
func (Regex) isValue()        {}
func (BigDec) isValue()       {}
func (Char) isValue()         {}
func (IntArray) isValue()     {}
func (LongArray) isValue()    {}
func (FloatArray) isValue()   {}
func (DoubleArray) isValue()  {}
func (BooleanArray) isValue() {}
func (ObjectArray) isValue()  {}
func (Tagged) isValue()       {}

// Kw builds a keyword from "name" or "ns/name".
func Kw(s string) Keyword {
	ns, name := splitNamespace(s)
	return Keyword{Namespace: ns, Name: name}
}

// Sym builds a symbol from "name" or "ns/name".
func Sym(s string) Symbol {
	ns, name := splitNamespace(s)
	return Symbol{Namespace: ns, Name: name}
}

func splitNamespace(s string) (string, string) {
	// "/" alone is a valid name
	if len(s) > 1 {
		for i := 0; i < len(s); i++ {
			if s[i] == '/' && i > 0 && i < len(s)-1 {
				return s[:i], s[i+1:]
			}
		}
	}
	return "", s
}

// InstOf converts a time to an Inst, truncating to milliseconds.
func InstOf(t time.Time) Inst {
	return Inst(t.UnixMilli())
}

// Time returns the instant in UTC.
func (v Inst) Time() time.Time {
	return time.UnixMilli(int64(v)).UTC()
}

// Int returns the integer, treating a nil V as zero.
func (v BigInt) Int() *big.Int {
	if v.V == nil {
		return new(big.Int)
	}
	return v.V
}

// Rat returns the exact rational value of the decimal.
func (v BigDec) Rat() *big.Rat {
	unscaled := v.Unscaled
	if unscaled == nil {
		unscaled = new(big.Int)
	}
	r := new(big.Rat).SetInt(unscaled)
	if v.Scale == 0 {
		return r
	}
	scale := int64(v.Scale)
	if scale < 0 {
		scale = -scale
	}
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(scale), nil)
	if v.Scale > 0 {
		return r.Quo(r, new(big.Rat).SetInt(pow))
	}
	return r.Mul(r, new(big.Rat).SetInt(pow))
}

// Get returns the value of the first entry whose key equals key.
func (m Map) Get(key Value) (Value, bool) {
	for _, e := range m {
		if Equal(e.Key, key) {
			return e.Val, true
		}
	}
	return nil, false
}

// Contains reports whether the set holds v.
func (s Set) Contains(v Value) bool {
	for _, e := range s {
		if Equal(e, v) {
			return true
		}
	}
	return false
}

// NewSet builds a Set from elems, keeping the first of any duplicates.
func NewSet(elems ...Value) Set {
	seen := make(map[uint64][]Value, len(elems))
	out := make(Set, 0, len(elems))
	for _, e := range elems {
		h := Hash(e)
		dup := false
		for _, prev := range seen[h] {
			if Equal(prev, e) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[h] = append(seen[h], e)
		out = append(out, e)
	}
	return out
}

// FirstDuplicate returns the index of the first element equal to an earlier
// one, or -1 when all elements are distinct.
func FirstDuplicate(elems []Value) int {
	seen := make(map[uint64][]Value, len(elems))
	for i, e := range elems {
		h := Hash(e)
		for _, prev := range seen[h] {
			if Equal(prev, e) {
				return i
			}
		}
		seen[h] = append(seen[h], e)
	}
	return -1
}
