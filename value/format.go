package value

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Format renders v in an EDN-like notation:
//
//	nil true 42 7N 1.5 "text" [1 2] {:a 1} #{1 2} :ns/kw
//	#inst "2024-01-02T03:04:05.000Z" #uuid "..." #bytes "00ff" #point [1 2]
func Format(v Value) string {
	var b strings.Builder
	format(&b, v)
	return b.String()
}

func (v Nil) String() string          { return Format(v) }
func (v Bool) String() string         { return Format(v) }
func (v Int) String() string          { return Format(v) }
func (v BigInt) String() string       { return Format(v) }
func (v Float) String() string        { return Format(v) }
func (v Double) String() string       { return Format(v) }
func (v String) String() string       { return Format(v) }
func (v Bytes) String() string        { return Format(v) }
func (v List) String() string         { return Format(v) }
func (v Map) String() string          { return Format(v) }
func (v Set) String() string          { return Format(v) }
func (v Keyword) String() string      { return Format(v) }
func (v Symbol) String() string       { return Format(v) }
func (v Inst) String() string         { return Format(v) }
func (v UUID) String() string         { return Format(v) }
func (v URI) String() string          { return Format(v) }
func (v Regex) String() string        { return Format(v) }
func (v BigDec) String() string       { return Format(v) }
func (v Char) String() string         { return Format(v) }
func (v IntArray) String() string     { return Format(v) }
func (v LongArray) String() string    { return Format(v) }
func (v FloatArray) String() string   { return Format(v) }
func (v DoubleArray) String() string  { return Format(v) }
func (v BooleanArray) String() string { return Format(v) }
func (v ObjectArray) String() string  { return Format(v) }
func (v Tagged) String() string       { return Format(v) }

func format(b *strings.Builder, v Value) {
	if v == nil {
		v = Nil{}
	}
	switch x := v.(type) {
	case Nil:
		b.WriteString("nil")
	case Bool:
		b.WriteString(strconv.FormatBool(bool(x)))
	case Int:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case BigInt:
		b.WriteString(x.Int().String())
		b.WriteByte('N')
	case Float:
		b.WriteString(formatFloat(float64(x), 32))
	case Double:
		b.WriteString(formatFloat(float64(x), 64))
	case String:
		b.WriteString(strconv.Quote(string(x)))
	case Bytes:
		b.WriteString(`#bytes "`)
		b.WriteString(hex.EncodeToString(x))
		b.WriteByte('"')
	case List:
		formatSeq(b, "[", "]", x)
	case ObjectArray:
		formatSeq(b, "#objects [", "]", x)
	case Map:
		b.WriteByte('{')
		for i, e := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			format(b, e.Key)
			b.WriteByte(' ')
			format(b, e.Val)
		}
		b.WriteByte('}')
	case Set:
		formatSeq(b, "#{", "}", x)
	case Keyword:
		b.WriteByte(':')
		writeNamespaced(b, x.Namespace, x.Name)
	case Symbol:
		writeNamespaced(b, x.Namespace, x.Name)
	case Inst:
		b.WriteString(`#inst "`)
		b.WriteString(x.Time().Format("2006-01-02T15:04:05.000Z07:00"))
		b.WriteByte('"')
	case UUID:
		b.WriteString(`#uuid "`)
		b.WriteString(x.Canonical())
		b.WriteByte('"')
	case URI:
		b.WriteString(`#uri `)
		b.WriteString(strconv.Quote(string(x)))
	case Regex:
		b.WriteByte('#')
		b.WriteString(strconv.Quote(string(x)))
	case BigDec:
		b.WriteString(x.Decimal())
		b.WriteByte('M')
	case Char:
		formatChar(b, rune(x))
	case IntArray:
		b.WriteString("#ints [")
		for i, n := range x {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatInt(int64(n), 10))
		}
		b.WriteByte(']')
	case LongArray:
		b.WriteString("#longs [")
		for i, n := range x {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatInt(n, 10))
		}
		b.WriteByte(']')
	case FloatArray:
		b.WriteString("#floats [")
		for i, f := range x {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(formatFloat(float64(f), 32))
		}
		b.WriteByte(']')
	case DoubleArray:
		b.WriteString("#doubles [")
		for i, f := range x {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(formatFloat(f, 64))
		}
		b.WriteByte(']')
	case BooleanArray:
		b.WriteString("#booleans [")
		for i, t := range x {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatBool(t))
		}
		b.WriteByte(']')
	case Tagged:
		b.WriteByte('#')
		b.WriteString(x.Tag)
		b.WriteByte(' ')
		formatSeq(b, "[", "]", x.Fields)
	}
}

func formatSeq(b *strings.Builder, open, close string, elems []Value) {
	b.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			b.WriteByte(' ')
		}
		format(b, e)
	}
	b.WriteString(close)
}

func writeNamespaced(b *strings.Builder, ns, name string) {
	if ns != "" {
		b.WriteString(ns)
		b.WriteByte('/')
	}
	b.WriteString(name)
}

func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "##NaN"
	case math.IsInf(f, 1):
		return "##Inf"
	case math.IsInf(f, -1):
		return "##-Inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, bitSize)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func formatChar(b *strings.Builder, r rune) {
	b.WriteByte('\\')
	switch r {
	case '\n':
		b.WriteString("newline")
	case ' ':
		b.WriteString("space")
	case '\t':
		b.WriteString("tab")
	case '\r':
		b.WriteString("return")
	default:
		if unicode.IsPrint(r) {
			b.WriteRune(r)
		} else {
			b.WriteString("u")
			b.WriteString(leftPad(strconv.FormatInt(int64(r), 16), 4))
		}
	}
}

func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

// Canonical returns the 8-4-4-4-12 hex form.
func (v UUID) Canonical() string {
	var buf [36]byte
	hex.Encode(buf[0:8], v[0:4])
	buf[8] = '-'
	hex.Encode(buf[9:13], v[4:6])
	buf[13] = '-'
	hex.Encode(buf[14:18], v[6:8])
	buf[18] = '-'
	hex.Encode(buf[19:23], v[8:10])
	buf[23] = '-'
	hex.Encode(buf[24:], v[10:])
	return string(buf[:])
}

// ParseUUID parses the 8-4-4-4-12 hex form.
func ParseUUID(s string) (UUID, bool) {
	var u UUID
	if len(s) != 36 || s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return u, false
	}
	h := s[0:8] + s[9:13] + s[14:18] + s[19:23] + s[24:]
	if _, err := hex.Decode(u[:], []byte(h)); err != nil {
		return u, false
	}
	return u, true
}

// Decimal renders the plain decimal digits without exponent.
func (v BigDec) Decimal() string {
	digits := BigInt{v.Unscaled}.Int().String()
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}

	switch {
	case v.Scale < 0:
		digits += strings.Repeat("0", int(-int64(v.Scale)))
	case v.Scale > 0:
		scale := int(v.Scale)
		if len(digits) <= scale {
			digits = strings.Repeat("0", scale-len(digits)+1) + digits
		}
		digits = digits[:len(digits)-scale] + "." + digits[len(digits)-scale:]
	}

	if neg {
		return "-" + digits
	}
	return digits
}
