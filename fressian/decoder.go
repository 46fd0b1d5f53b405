package fressian

import (
	"hash/adler32"
	"math"
	"unicode/utf8"

	"github.com/wippyai/fressian-bridge/value"
)

// DefaultMaxDepth bounds container nesting during decode.
const DefaultMaxDepth = 1024

// DecoderConfig holds decoder settings. A nil config means defaults.
type DecoderConfig struct {
	// MaxDepth limits nesting of lists, maps, sets, arrays and records.
	// 0 means DefaultMaxDepth.
	MaxDepth int
}

// Decoder reads values in the Fressian wire format. It holds no state
// between calls and is safe for concurrent use.
type Decoder struct {
	maxDepth int
}

func NewDecoder(cfg *DecoderConfig) *Decoder {
	d := &Decoder{maxDepth: DefaultMaxDepth}
	if cfg != nil && cfg.MaxDepth > 0 {
		d.maxDepth = cfg.MaxDepth
	}
	return d
}

var defaultDecoder = NewDecoder(nil)

// Decode reads exactly one value from b. A trailing footer is verified
// when present; any other byte after the value is an error.
func Decode(b []byte) (value.Value, error) {
	return defaultDecoder.Decode(b)
}

// Decode reads exactly one value from b. Every failure is an *Error.
func (d *Decoder) Decode(b []byte) (value.Value, error) {
	s := &decodeState{
		r:        reader{buf: b},
		maxDepth: d.maxDepth,
	}
	v, err := s.readObject()
	if err != nil {
		return nil, err
	}
	if err := s.finish(); err != nil {
		return nil, err
	}
	return v, nil
}

type structType struct {
	tag    string
	fields int
}

type decodeState struct {
	r        reader
	maxDepth int
	depth    int
	priority []value.Value
	structs  []structType
}

// finish accepts end of input or a valid footer followed by end of input.
func (s *decodeState) finish() error {
	if s.r.remaining() == 0 {
		return nil
	}

	start := s.r.pos
	if s.r.remaining() < 4 || s.r.buf[start] != codeFooter {
		return Syntax(SyntaxTrailingBytes, int64(start))
	}
	magic, _ := s.r.readRawUint32()
	if magic != footerMagic {
		return Syntax(SyntaxTrailingBytes, int64(start))
	}

	length, err := s.r.readRawUint32()
	if err != nil {
		return err
	}
	sum, err := s.r.readRawUint32()
	if err != nil {
		return err
	}
	if int(length) != start {
		return Syntax(SyntaxBadFooter, int64(start))
	}
	if adler32.Checksum(s.r.buf[:start]) != sum {
		return Syntax(SyntaxChecksumMismatch, int64(start))
	}
	if s.r.remaining() > 0 {
		return Syntax(SyntaxTrailingBytes, int64(s.r.pos))
	}
	return nil
}

func (s *decodeState) readObject() (value.Value, error) {
	code, err := s.r.readByte()
	if err != nil {
		return nil, err
	}
	return s.readWithCode(code)
}

func (s *decodeState) enter() error {
	s.depth++
	if s.depth > s.maxDepth {
		return Syntax(SyntaxTooDeep, int64(s.r.pos))
	}
	return nil
}

func (s *decodeState) leave() {
	s.depth--
}

func (s *decodeState) readWithCode(code byte) (value.Value, error) {
	for code == codeResetCaches {
		s.priority = s.priority[:0]
		s.structs = s.structs[:0]
		next, err := s.r.readByte()
		if err != nil {
			return nil, err
		}
		code = next
	}

	switch {
	case code < codeIntPackedEnd || code == codeIntPackedNeg1 || code == codeInt:
		n, err := s.readIntWithCode(code)
		if err != nil {
			return nil, err
		}
		return value.Int(n), nil

	case code >= codePriorityCachePackedStart && code < codePriorityCachePackedEnd:
		return s.lookupPriority(int64(code - codePriorityCachePackedStart))

	case code >= codeStructCachePackedStart && code < codeStructCachePackedEnd:
		return s.readStructAt(int64(code - codeStructCachePackedStart))

	case code >= codeBytesPackedStart && code <= codeBytes:
		b, err := s.readBytesWithCode(code)
		if err != nil {
			return nil, err
		}
		return value.Bytes(b), nil

	case code >= codeStringPackedStart && code <= codeString:
		str, err := s.readStringWithCode(code)
		if err != nil {
			return nil, err
		}
		return value.String(str), nil

	case code >= codeListPackedStart && code <= codeBeginOpenList:
		elems, err := s.readListWithCode(code)
		if err != nil {
			return nil, err
		}
		return value.List(elems), nil
	}

	switch code {
	case codeTrue:
		return value.Bool(true), nil
	case codeFalse:
		return value.Bool(false), nil
	case codeNull:
		return value.Nil{}, nil

	case codeFloat:
		f, err := s.r.readRawFloat()
		if err != nil {
			return nil, err
		}
		return value.Float(f), nil
	case codeDouble:
		f, err := s.r.readRawDouble()
		if err != nil {
			return nil, err
		}
		return value.Double(f), nil
	case codeDouble0:
		return value.Double(0), nil
	case codeDouble1:
		return value.Double(1), nil

	case codeMap:
		return s.readMap()
	case codeSet:
		return s.readSet()

	case codeKey:
		ns, name, err := s.readNamed()
		if err != nil {
			return nil, err
		}
		return value.Keyword{Namespace: ns, Name: name}, nil
	case codeSym:
		ns, name, err := s.readNamed()
		if err != nil {
			return nil, err
		}
		return value.Symbol{Namespace: ns, Name: name}, nil

	case codeInst:
		ms, err := s.readInt()
		if err != nil {
			return nil, err
		}
		return value.Inst(ms), nil

	case codeUUID:
		at := s.r.pos
		b, err := s.readBytes()
		if err != nil {
			return nil, err
		}
		if len(b) != 16 {
			return nil, Syntax(SyntaxBadUUID, int64(at))
		}
		var u value.UUID
		copy(u[:], b)
		return u, nil

	case codeURI:
		str, err := s.readString()
		if err != nil {
			return nil, err
		}
		return value.URI(str), nil
	case codeRegex:
		str, err := s.readString()
		if err != nil {
			return nil, err
		}
		return value.Regex(str), nil

	case codeBigInt:
		b, err := s.readBytes()
		if err != nil {
			return nil, err
		}
		return value.BigInt{V: fromTwosComplement(b)}, nil
	case codeBigDec:
		b, err := s.readBytes()
		if err != nil {
			return nil, err
		}
		at := s.r.pos
		scale, err := s.readInt()
		if err != nil {
			return nil, err
		}
		if scale < math.MinInt32 || scale > math.MaxInt32 {
			return nil, Syntax(SyntaxIntOverflow, int64(at))
		}
		return value.BigDec{Unscaled: fromTwosComplement(b), Scale: int32(scale)}, nil

	case codeIntArray:
		return s.readIntArray()
	case codeLongArray:
		return s.readLongArray()
	case codeFloatArray:
		return s.readFloatArray()
	case codeDoubleArray:
		return s.readDoubleArray()
	case codeBooleanArray:
		return s.readBooleanArray()
	case codeObjectArray:
		return s.readObjectArray()

	case codeStructType:
		return s.readStructType()
	case codeStruct:
		idx, err := s.readInt()
		if err != nil {
			return nil, err
		}
		return s.readStructAt(idx)

	case codeGetPriorityCache:
		idx, err := s.readInt()
		if err != nil {
			return nil, err
		}
		return s.lookupPriority(idx)
	case codePutPriorityCache:
		if err := s.enter(); err != nil {
			return nil, err
		}
		defer s.leave()
		v, err := s.readObject()
		if err != nil {
			return nil, err
		}
		s.priority = append(s.priority, v)
		return v, nil
	case codePrecache:
		return nil, Syntax(SyntaxUnsupportedCache, codePrecache)
	case codeMeta:
		if err := s.enter(); err != nil {
			return nil, err
		}
		defer s.leave()
		// metadata first, then the value it annotates
		if _, err := s.readObject(); err != nil {
			return nil, err
		}
		return s.readObject()

	case codeEndCollection:
		return nil, Syntax(SyntaxUnexpectedEnd, int64(s.r.pos-1))
	case codeFooter:
		return nil, Syntax(SyntaxBadFooter, int64(s.r.pos-1))
	}

	return nil, UnmatchedCode(codeAny, int(code))
}

// readInt reads an integer object; any other code is an unmatched code.
func (s *decodeState) readInt() (int64, error) {
	code, err := s.r.readByte()
	if err != nil {
		return 0, err
	}
	if code < codeIntPackedEnd || code == codeIntPackedNeg1 || code == codeInt {
		return s.readIntWithCode(code)
	}
	return 0, UnmatchedCode(codeInt, int(code))
}

func (s *decodeState) readIntWithCode(code byte) (int64, error) {
	var (
		zero  int64
		extra int
	)
	switch {
	case code == codeIntPackedNeg1:
		return -1, nil
	case code < codeIntPacked2Start:
		return int64(code), nil
	case code < codeIntPacked3Start:
		zero, extra = codeIntPacked2Zero, 1
	case code < codeIntPacked4Start:
		zero, extra = codeIntPacked3Zero, 2
	case code < codeIntPacked5Start:
		zero, extra = codeIntPacked4Zero, 3
	case code < codeIntPacked6Start:
		zero, extra = codeIntPacked5Zero, 4
	case code < codeIntPacked7Start:
		zero, extra = codeIntPacked6Zero, 5
	case code < codeIntPackedEnd:
		zero, extra = codeIntPacked7Zero, 6
	case code == codeInt:
		return s.r.readRawInt64()
	default:
		return 0, UnmatchedCode(codeInt, int(code))
	}

	low, err := s.r.readUint(extra)
	if err != nil {
		return 0, err
	}
	return (int64(code)-zero)<<(8*extra) | int64(low), nil
}

// readCount reads a length prefix and checks that at least width bytes per
// element remain, so no allocation is sized by a count the input cannot
// back.
func (s *decodeState) readCount(width int) (int, error) {
	at := s.r.pos
	n, err := s.readInt()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, Syntax(SyntaxNegativeCount, int64(at))
	}
	if n > math.MaxInt32 {
		return 0, Syntax(SyntaxIntOverflow, int64(at))
	}
	if err := s.r.ensure(int(n), width); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *decodeState) readBytes() ([]byte, error) {
	code, err := s.r.readByte()
	if err != nil {
		return nil, err
	}
	return s.readBytesWithCode(code)
}

// readBytesWithCode returns a copy of the payload; chunks are joined.
func (s *decodeState) readBytesWithCode(code byte) ([]byte, error) {
	var out []byte
	for {
		switch {
		case code >= codeBytesPackedStart && code < codeBytesPackedEnd:
			b, err := s.r.readN(int(code - codeBytesPackedStart))
			if err != nil {
				return nil, err
			}
			return append(out, b...), nil

		case code == codeBytes || code == codeBytesChunk:
			n, err := s.readCount(1)
			if err != nil {
				return nil, err
			}
			b, _ := s.r.readN(n)
			out = append(out, b...)
			if code == codeBytes {
				if out == nil {
					out = []byte{}
				}
				return out, nil
			}

		default:
			return nil, UnmatchedCode(codeBytes, int(code))
		}

		next, err := s.r.readByte()
		if err != nil {
			return nil, err
		}
		code = next
	}
}

func (s *decodeState) readString() (string, error) {
	code, err := s.r.readByte()
	if err != nil {
		return "", err
	}
	return s.readStringWithCode(code)
}

func (s *decodeState) readStringWithCode(code byte) (string, error) {
	at := s.r.pos
	var out []byte
	for {
		switch {
		case code >= codeStringPackedStart && code < codeStringPackedEnd:
			b, err := s.r.readN(int(code - codeStringPackedStart))
			if err != nil {
				return "", err
			}
			return finishString(append(out, b...), at)

		case code == codeString || code == codeStringChunk:
			n, err := s.readCount(1)
			if err != nil {
				return "", err
			}
			b, _ := s.r.readN(n)
			out = append(out, b...)
			if code == codeString {
				return finishString(out, at)
			}

		default:
			return "", UnmatchedCode(codeString, int(code))
		}

		next, err := s.r.readByte()
		if err != nil {
			return "", err
		}
		code = next
	}
}

func finishString(b []byte, at int) (string, error) {
	if !utf8.Valid(b) {
		return "", Syntax(SyntaxInvalidUTF8, int64(at))
	}
	return string(b), nil
}

func (s *decodeState) readListWithCode(code byte) ([]value.Value, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.leave()

	switch {
	case code >= codeListPackedStart && code < codeListPackedEnd:
		return s.readElems(int(code - codeListPackedStart))

	case code == codeList:
		n, err := s.readCount(1)
		if err != nil {
			return nil, err
		}
		return s.readElems(n)

	case code == codeBeginClosedList, code == codeBeginOpenList:
		elems := []value.Value{}
		for {
			next, ok := s.r.peekByte()
			if !ok {
				if code == codeBeginOpenList {
					return elems, nil
				}
				return nil, s.r.eof()
			}
			if next == codeEndCollection {
				s.r.pos++
				return elems, nil
			}
			v, err := s.readObject()
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
	}
	return nil, UnmatchedCode(codeList, int(code))
}

func (s *decodeState) readElems(n int) ([]value.Value, error) {
	elems := make([]value.Value, n)
	for i := range elems {
		v, err := s.readObject()
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return elems, nil
}

// readList reads the list a map or set wraps.
func (s *decodeState) readList() ([]value.Value, error) {
	code, err := s.r.readByte()
	if err != nil {
		return nil, err
	}
	return s.readListWithCode(code)
}

func (s *decodeState) readMap() (value.Value, error) {
	at := s.r.pos
	kvs, err := s.readList()
	if err != nil {
		return nil, err
	}
	if len(kvs)%2 != 0 {
		return nil, Syntax(SyntaxOddMap, int64(at))
	}
	m := make(value.Map, len(kvs)/2)
	for i := range m {
		m[i] = value.Entry{Key: kvs[2*i], Val: kvs[2*i+1]}
	}
	return m, nil
}

func (s *decodeState) readSet() (value.Value, error) {
	elems, err := s.readList()
	if err != nil {
		return nil, err
	}
	if i := value.FirstDuplicate(elems); i >= 0 {
		return nil, Syntax(SyntaxDuplicateSetElement, int64(i))
	}
	return value.Set(elems), nil
}

// readNamed reads the namespace and name of a keyword or symbol. The
// namespace may be null; both parts may come through the priority cache.
func (s *decodeState) readNamed() (string, string, error) {
	ns, err := s.readNamePart(true)
	if err != nil {
		return "", "", err
	}
	name, err := s.readNamePart(false)
	if err != nil {
		return "", "", err
	}
	return ns, name, nil
}

// readNamePart accepts only strings, null where allowed, and priority
// cache references to strings. It never reads a nested object.
func (s *decodeState) readNamePart(nullable bool) (string, error) {
	code, err := s.r.readByte()
	if err != nil {
		return "", err
	}
	switch {
	case code == codeNull && nullable:
		return "", nil

	case code >= codeStringPackedStart && code <= codeString:
		return s.readStringWithCode(code)

	case code == codePutPriorityCache:
		str, err := s.readString()
		if err != nil {
			return "", err
		}
		s.priority = append(s.priority, value.String(str))
		return str, nil

	case code == codeGetPriorityCache,
		code >= codePriorityCachePackedStart && code < codePriorityCachePackedEnd:
		idx := int64(code - codePriorityCachePackedStart)
		if code == codeGetPriorityCache {
			if idx, err = s.readInt(); err != nil {
				return "", err
			}
		}
		v, err := s.lookupPriority(idx)
		if err != nil {
			return "", err
		}
		if str, ok := v.(value.String); ok {
			return string(str), nil
		}
	}
	return "", UnmatchedCode(codeString, int(code))
}

func (s *decodeState) lookupPriority(idx int64) (value.Value, error) {
	if idx < 0 || idx >= int64(len(s.priority)) {
		return nil, Syntax(SyntaxCacheMiss, idx)
	}
	return s.priority[idx], nil
}

func (s *decodeState) readStructType() (value.Value, error) {
	tag, err := s.readString()
	if err != nil {
		return nil, err
	}
	fields, err := s.readCount(1)
	if err != nil {
		return nil, err
	}
	s.structs = append(s.structs, structType{tag: tag, fields: fields})
	return s.readStruct(s.structs[len(s.structs)-1])
}

func (s *decodeState) readStructAt(idx int64) (value.Value, error) {
	if idx < 0 || idx >= int64(len(s.structs)) {
		return nil, Syntax(SyntaxStructCacheMiss, idx)
	}
	st := s.structs[idx]
	if err := s.r.ensure(st.fields, 1); err != nil {
		return nil, err
	}
	return s.readStruct(st)
}

func (s *decodeState) readStruct(st structType) (value.Value, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.leave()

	fields, err := s.readElems(st.fields)
	if err != nil {
		return nil, err
	}
	if st.tag == tagChar && len(fields) == 1 {
		if n, ok := fields[0].(value.Int); ok && n >= 0 && n <= utf8.MaxRune {
			return value.Char(rune(n)), nil
		}
	}
	return value.Tagged{Tag: st.tag, Fields: fields}, nil
}

func (s *decodeState) readIntArray() (value.Value, error) {
	n, err := s.readCount(1)
	if err != nil {
		return nil, err
	}
	out := make(value.IntArray, n)
	for i := range out {
		at := s.r.pos
		v, err := s.readInt()
		if err != nil {
			return nil, err
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, Syntax(SyntaxIntOverflow, int64(at))
		}
		out[i] = int32(v)
	}
	return out, nil
}

func (s *decodeState) readLongArray() (value.Value, error) {
	n, err := s.readCount(1)
	if err != nil {
		return nil, err
	}
	out := make(value.LongArray, n)
	for i := range out {
		if out[i], err = s.readInt(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *decodeState) readFloatArray() (value.Value, error) {
	n, err := s.readCount(1)
	if err != nil {
		return nil, err
	}
	out := make(value.FloatArray, n)
	for i := range out {
		if out[i], err = s.readFloat(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *decodeState) readDoubleArray() (value.Value, error) {
	n, err := s.readCount(1)
	if err != nil {
		return nil, err
	}
	out := make(value.DoubleArray, n)
	for i := range out {
		if out[i], err = s.readDouble(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// readFloat reads a FLOAT element of a float array.
func (s *decodeState) readFloat() (float32, error) {
	code, err := s.r.readByte()
	if err != nil {
		return 0, err
	}
	if code != codeFloat {
		return 0, UnmatchedCode(codeFloat, int(code))
	}
	return s.r.readRawFloat()
}

// readDouble reads a DOUBLE element of a double array, including the
// one-byte forms of 0.0 and 1.0.
func (s *decodeState) readDouble() (float64, error) {
	code, err := s.r.readByte()
	if err != nil {
		return 0, err
	}
	switch code {
	case codeDouble:
		return s.r.readRawDouble()
	case codeDouble0:
		return 0, nil
	case codeDouble1:
		return 1, nil
	}
	return 0, UnmatchedCode(codeDouble, int(code))
}

func (s *decodeState) readBooleanArray() (value.Value, error) {
	n, err := s.readCount(1)
	if err != nil {
		return nil, err
	}
	out := make(value.BooleanArray, n)
	for i := range out {
		code, err := s.r.readByte()
		if err != nil {
			return nil, err
		}
		switch code {
		case codeTrue:
			out[i] = true
		case codeFalse:
		default:
			return nil, UnmatchedCode(codeTrue, int(code))
		}
	}
	return out, nil
}

func (s *decodeState) readObjectArray() (value.Value, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.leave()

	n, err := s.readCount(1)
	if err != nil {
		return nil, err
	}
	elems, err := s.readElems(n)
	if err != nil {
		return nil, err
	}
	return value.ObjectArray(elems), nil
}
