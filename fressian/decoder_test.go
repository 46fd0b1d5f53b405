package fressian

import (
	"bytes"
	stderrors "errors"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/wippyai/fressian-bridge/value"
)

func sampleValue() value.Value {
	var id value.UUID
	for i := range id {
		id[i] = byte(i * 7)
	}
	return value.List{
		value.Nil{},
		value.Bool(true),
		value.Int(-70000),
		value.BigInt{V: new(big.Int).Lsh(big.NewInt(3), 90)},
		value.Float(2.5),
		value.Double(-3.25),
		value.String("hello, wörld"),
		value.Bytes{0, 1, 2, 3, 4, 5, 6, 7, 8},
		value.Map{
			{Key: value.Kw("user/id"), Val: value.Int(42)},
			{Key: value.Kw("user/tags"), Val: value.Set{value.String("a"), value.String("b")}},
			{Key: value.Int(1), Val: value.List{}},
		},
		value.Sym("clojure.core/inc"),
		value.InstOf(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)),
		id,
		value.URI("https://example.com/x?y=1"),
		value.Regex(`^a+b*$`),
		value.BigDec{Unscaled: big.NewInt(-31415), Scale: 4},
		value.Char('λ'),
		value.IntArray{math.MinInt32, 0, math.MaxInt32},
		value.LongArray{math.MinInt64, -1, math.MaxInt64},
		value.FloatArray{1.5, -0.25},
		value.DoubleArray{math.Pi, math.E},
		value.BooleanArray{true, false, true},
		value.ObjectArray{value.Int(1), value.String("x")},
		value.Tagged{Tag: "point", Fields: value.List{value.Int(1), value.Int(2)}},
		value.Tagged{Tag: "point", Fields: value.List{value.Int(3), value.Int(4)}},
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	in := sampleValue()
	b, err := NewEncoder(nil).EncodeValue(in)
	if err != nil {
		t.Fatalf("EncodeValue() error: %v", err)
	}
	out, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !value.Equal(in, out) {
		t.Errorf("round trip mismatch:\n in: %s\nout: %s", in, out)
	}

	// a decoded value re-encodes to the same bytes
	again, err := NewEncoder(nil).EncodeValue(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, again) {
		t.Error("re-encoding a decoded value changed the bytes")
	}
}

func TestDecode_IntBoundaries(t *testing.T) {
	var ints []int64
	for shift := 0; shift < 63; shift++ {
		p := int64(1) << shift
		ints = append(ints, p-1, p, p+1, -p-1, -p, -p+1)
	}
	ints = append(ints, math.MinInt64, math.MaxInt64)

	for _, n := range ints {
		b, err := NewEncoder(nil).EncodeValue(value.Int(n))
		if err != nil {
			t.Fatal(err)
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode(% X) error: %v", b, err)
		}
		if got != value.Int(n) {
			t.Errorf("int %d decoded as %s from % X", n, got, b)
		}
	}
}

func TestDecode_Floats(t *testing.T) {
	tests := []value.Value{
		value.Double(math.NaN()),
		value.Double(math.Float64frombits(0x7FF0000000000001)), // signalling NaN payload
		value.Double(math.Inf(1)),
		value.Double(math.Inf(-1)),
		value.Double(math.Copysign(0, -1)),
		value.Double(math.SmallestNonzeroFloat64),
		value.Float(float32(math.NaN())),
		value.Float(float32(math.Inf(-1))),
		value.FloatArray{float32(math.NaN())},
		value.DoubleArray{math.Inf(1), math.NaN()},
	}
	for _, in := range tests {
		b, err := NewEncoder(nil).EncodeValue(in)
		if err != nil {
			t.Fatalf("EncodeValue(%s) error: %v", in, err)
		}
		out, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode(%s) error: %v", in, err)
		}
		if !value.Equal(in, out) {
			t.Errorf("%s decoded as %s", in, out)
		}
	}
}

func TestDecode_MinusOne(t *testing.T) {
	v, err := Decode([]byte{0xFF})
	if err != nil {
		t.Fatalf("Decode(0xFF) error: %v", err)
	}
	if v != value.Int(-1) {
		t.Errorf("0xFF decoded as %s, want -1", v)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want *Error
	}{
		{"empty", nil, Syntax(SyntaxEOF, 0)},
		{"unassigned code", []byte{0xF3}, UnmatchedCode(CodeAny, 0xF3)},
		{"unassigned array code", []byte{0xB6}, UnmatchedCode(CodeAny, 0xB6)},
		{"trailing byte", []byte{0x01, 0x02}, Syntax(SyntaxTrailingBytes, 1)},
		{"truncated int", []byte{0xF8, 0x00, 0x01}, Syntax(SyntaxEOF, 1)},
		{"truncated packed string", []byte{0xDD, 'a'}, Syntax(SyntaxEOF, 1)},
		{"count beyond input", []byte{0xEC, 0x53, 0xE8}, Syntax(SyntaxEOF, 3)},
		{"negative count", []byte{0xEC, 0xFF}, Syntax(SyntaxNegativeCount, 1)},
		{"huge count", []byte{0xD9, 0xF8, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00}, Syntax(SyntaxIntOverflow, 1)},
		{"count not an int", []byte{0xEC, 0xF7}, UnmatchedCode(CodeInt, 0xF7)},
		{"invalid utf8", []byte{0xDB, 0xFF}, Syntax(SyntaxInvalidUTF8, 1)},
		{"odd map", []byte{0xC0, 0xE5, 0x01}, Syntax(SyntaxOddMap, 1)},
		{"map without list", []byte{0xC0, 0x01}, UnmatchedCode(CodeList, 0x01)},
		{"duplicate set element", []byte{0xC1, 0xE6, 0x01, 0x01}, Syntax(SyntaxDuplicateSetElement, 1)},
		{"precache", []byte{0xCE}, Syntax(SyntaxUnsupportedCache, 0xCE)},
		{"priority cache miss", []byte{0x80}, Syntax(SyntaxCacheMiss, 0)},
		{"get priority cache miss", []byte{0xCC, 0x28}, Syntax(SyntaxCacheMiss, 40)},
		{"struct cache miss", []byte{0xA3}, Syntax(SyntaxStructCacheMiss, 3)},
		{"bad uuid", []byte{0xC3, 0xD2, 0x00, 0x01}, Syntax(SyntaxBadUUID, 1)},
		{"keyword name not string", []byte{0xCA, 0xF7, 0x01}, UnmatchedCode(CodeString, 0x01)},
		{"keyword namespace is a keyword", []byte{0xCA, 0xCA, 0xF7, 0xDB, 'a', 0xDB, 'b'}, UnmatchedCode(CodeString, 0xCA)},
		{"symbol name is a list", []byte{0xC9, 0xF7, 0xE4}, UnmatchedCode(CodeString, 0xE4)},
		{"keyword name cached non-string", []byte{0xE6, 0xCD, 0x01, 0xCA, 0xF7, 0x80}, UnmatchedCode(CodeString, 0x80)},
		{"float array element", []byte{0xB4, 0x01, 0x01}, UnmatchedCode(codeFloat, 0x01)},
		{"double array element", []byte{0xB1, 0x01, 0xF9, 0x3F, 0x80, 0x00, 0x00}, UnmatchedCode(codeDouble, 0xF9)},
		{"uri not string", []byte{0xC5, 0x01}, UnmatchedCode(CodeString, 0x01)},
		{"bigint not bytes", []byte{0xC6, 0x01}, UnmatchedCode(CodeBytes, 0x01)},
		{"stray end", []byte{0xFD}, Syntax(SyntaxUnexpectedEnd, 0)},
		{"closed list at eof", []byte{0xED, 0x01}, Syntax(SyntaxEOF, 2)},
		{"int array overflow", []byte{0xB3, 0x01, 0x78, 0x01, 0x00, 0x00, 0x00, 0x00}, Syntax(SyntaxIntOverflow, 2)},
		{"boolean array element", []byte{0xB2, 0x01, 0x01}, UnmatchedCode(codeTrue, 0x01)},
		{"cache reset drops entries", []byte{0xE6, 0xCD, 0x01, 0xFE, 0x80}, Syntax(SyntaxCacheMiss, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Decode(tt.in)
			if err == nil {
				t.Fatalf("Decode(% X) = %s, want error", tt.in, v)
			}
			var fe *Error
			if !stderrors.As(err, &fe) {
				t.Fatalf("error %v (%T) is not *Error", err, err)
			}
			if *fe != *tt.want {
				t.Errorf("Decode(% X) error = %+v, want %+v", tt.in, *fe, *tt.want)
			}
		})
	}
}

func TestDecode_Lists(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want value.Value
	}{
		{"closed list", []byte{0xED, 0x01, 0x02, 0xFD}, value.List{value.Int(1), value.Int(2)}},
		{"open list with end", []byte{0xEE, 0x01, 0xFD}, value.List{value.Int(1)}},
		{"open list at eof", []byte{0xEE, 0x01, 0x02}, value.List{value.Int(1), value.Int(2)}},
		{"counted list", []byte{0xEC, 0x01, 0xF5}, value.List{value.Bool(true)}},
		{"map over closed list", []byte{0xC0, 0xED, 0x01, 0x02, 0xFD}, value.Map{{Key: value.Int(1), Val: value.Int(2)}}},
		{"meta discarded", []byte{0xF1, 0xDB, 'm', 0x05}, value.Int(5)},
		{"reset then value", []byte{0xFE, 0xFE, 0x07}, value.Int(7)},
		{"put and get", []byte{0xE6, 0xCD, 0xDB, 'x', 0xCC, 0x00}, value.List{value.String("x"), value.String("x")}},
		{"inst", []byte{0xC8, 0x00}, value.Inst(0)},
		{"double array short forms", []byte{0xB1, 0x02, 0xFB, 0xFC}, value.DoubleArray{0, 1}},
		{"float array", []byte{0xB4, 0x01, 0xF9, 0x3F, 0x80, 0x00, 0x00}, value.FloatArray{1}},
		{"cached keyword parts", []byte{0xE6, 0xCA, 0xCD, 0xDB, 'n', 0xCD, 0xDB, 'a', 0xCA, 0x80, 0x81}, value.List{value.Kw("n/a"), value.Kw("n/a")}},
		{"open list cut before end", []byte{0xEE, 0x01}, value.List{value.Int(1)}},
		{"untagged record", []byte{0xEF, 0xDB, 'r', 0x00}, value.Tagged{Tag: "r", Fields: value.List{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if err != nil {
				t.Fatalf("Decode(% X) error: %v", tt.in, err)
			}
			if !value.Equal(got, tt.want) {
				t.Errorf("Decode(% X) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecode_EveryPrefixFails(t *testing.T) {
	b, err := NewEncoder(nil).EncodeValue(sampleValue())
	if err != nil {
		t.Fatal(err)
	}
	for n := 0; n < len(b); n++ {
		_, err := Decode(b[:n])
		if !stderrors.Is(err, ErrEOF) {
			t.Fatalf("prefix of %d/%d bytes: got %v, want eof", n, len(b), err)
		}
	}
}

func TestDecode_ReadsOnlyItsInput(t *testing.T) {
	b, err := Encode([]string{"hello", "from", "guest"})
	if err != nil {
		t.Fatal(err)
	}
	// the backing array continues past the slice; decoding must not look there
	backing := append(append([]byte{}, b[:len(b)-1]...), 't', 0xF7, 0xF7)
	_, err = Decode(backing[:len(b)-1])
	if !stderrors.Is(err, ErrEOF) {
		t.Errorf("expected eof, got %v", err)
	}
}

func TestDecode_Depth(t *testing.T) {
	nested := func(depth int) []byte {
		b := bytes.Repeat([]byte{0xE5}, depth)
		return append(b, 0xE4)
	}

	dec := NewDecoder(&DecoderConfig{MaxDepth: 3})
	if _, err := dec.Decode(nested(2)); err != nil {
		t.Errorf("depth 3 should decode: %v", err)
	}
	_, err := dec.Decode(nested(3))
	if !stderrors.Is(err, &Error{Kind: KindSyntax, Code: SyntaxTooDeep}) {
		t.Errorf("depth 4 should fail with too-deep, got %v", err)
	}

	_, err = Decode(nested(DefaultMaxDepth + 10))
	if !stderrors.Is(err, &Error{Kind: KindSyntax, Code: SyntaxTooDeep}) {
		t.Errorf("default depth limit not enforced, got %v", err)
	}
}

func TestDecode_NestedKeywords(t *testing.T) {
	dec := NewDecoder(&DecoderConfig{MaxDepth: 4})
	for _, code := range []byte{0xCA, 0xC9} {
		_, err := dec.Decode(bytes.Repeat([]byte{code}, 1<<20))
		var fe *Error
		if !stderrors.As(err, &fe) || *fe != *UnmatchedCode(CodeString, int(code)) {
			t.Errorf("code %02X repeated: got %v, want unmatched string", code, err)
		}
	}
}

func TestDecode_Footer(t *testing.T) {
	enc := NewEncoder(&EncoderConfig{Footer: true})
	good, err := enc.Encode([]int{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	payload := len(good) - footerSize

	corrupt := func(i int) []byte {
		b := append([]byte{}, good...)
		b[i] ^= 0x01
		return b
	}

	tests := []struct {
		name string
		in   []byte
		want *Error
	}{
		{"bad length", corrupt(payload + 7), Syntax(SyntaxBadFooter, int64(payload))},
		{"bad checksum", corrupt(payload + 11), Syntax(SyntaxChecksumMismatch, int64(payload))},
		{"bad magic", corrupt(payload + 1), Syntax(SyntaxTrailingBytes, int64(payload))},
		{"short footer", good[:payload+6], Syntax(SyntaxEOF, int64(payload+4))},
		{"bytes after footer", append(append([]byte{}, good...), 0x00), Syntax(SyntaxTrailingBytes, int64(len(good)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.in)
			var fe *Error
			if !stderrors.As(err, &fe) || *fe != *tt.want {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}
