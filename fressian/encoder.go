package fressian

import (
	"hash/adler32"
	"math"
	"math/bits"
	"unicode/utf8"

	"github.com/wippyai/fressian-bridge/errors"
	"github.com/wippyai/fressian-bridge/value"
)

// EncoderConfig holds encoder settings. A nil config means defaults.
type EncoderConfig struct {
	// Footer appends the 12 byte footer: magic, payload length and the
	// adler32 checksum of the payload.
	Footer bool
}

// Encoder writes values in the Fressian wire format. It holds no state
// between calls and is safe for concurrent use.
type Encoder struct {
	footer bool
}

func NewEncoder(cfg *EncoderConfig) *Encoder {
	e := &Encoder{}
	if cfg != nil {
		e.footer = cfg.Footer
	}
	return e
}

var defaultEncoder = NewEncoder(nil)

// Encode converts v with value.Of and encodes the result. Plain Go errors
// are encoded as message errors.
func Encode(v any) ([]byte, error) {
	return defaultEncoder.Encode(v)
}

// Encode converts v with value.Of and encodes the result.
func (e *Encoder) Encode(v any) ([]byte, error) {
	if err, ok := v.(error); ok {
		if _, isValuer := v.(value.Valuer); !isValuer {
			v = AsError(err)
		}
	}
	val, err := value.Of(v)
	if err != nil {
		return nil, err
	}
	return e.EncodeValue(val)
}

// EncodeValue encodes an already converted value.
func (e *Encoder) EncodeValue(v value.Value) ([]byte, error) {
	s := &encodeState{
		priority: make(map[string]int),
		structs:  make(map[structKey]int),
	}
	if err := s.writeObject(v); err != nil {
		return nil, err
	}
	if e.footer {
		s.writeFooter()
	}
	return s.w.bytes(), nil
}

type structKey struct {
	tag   string
	count int
}

type encodeState struct {
	w        writer
	priority map[string]int
	structs  map[structKey]int
}

func (s *encodeState) writeObject(v value.Value) error {
	if v == nil {
		v = value.Nil{}
	}

	switch x := v.(type) {
	case value.Nil:
		s.w.writeCode(codeNull)
	case value.Bool:
		if x {
			s.w.writeCode(codeTrue)
		} else {
			s.w.writeCode(codeFalse)
		}
	case value.Int:
		s.writeInt(int64(x))
	case value.BigInt:
		s.w.writeCode(codeBigInt)
		s.writeBytes(twosComplement(x.Int()))
	case value.Float:
		s.w.writeCode(codeFloat)
		s.w.writeRawFloat(float32(x))
	case value.Double:
		s.writeDouble(float64(x))
	case value.String:
		return s.writeString(string(x))
	case value.Bytes:
		s.writeBytes(x)
	case value.List:
		return s.writeList(x)
	case value.Map:
		s.w.writeCode(codeMap)
		flat := make([]value.Value, 0, 2*len(x))
		for _, e := range x {
			flat = append(flat, e.Key, e.Val)
		}
		return s.writeList(flat)
	case value.Set:
		s.w.writeCode(codeSet)
		return s.writeList(x)
	case value.Keyword:
		s.w.writeCode(codeKey)
		return s.writeNamed(x.Namespace, x.Name)
	case value.Symbol:
		s.w.writeCode(codeSym)
		return s.writeNamed(x.Namespace, x.Name)
	case value.Inst:
		s.w.writeCode(codeInst)
		s.writeInt(int64(x))
	case value.UUID:
		s.w.writeCode(codeUUID)
		s.writeBytes(x[:])
	case value.URI:
		s.w.writeCode(codeURI)
		return s.writeString(string(x))
	case value.Regex:
		s.w.writeCode(codeRegex)
		return s.writeString(string(x))
	case value.BigDec:
		s.w.writeCode(codeBigDec)
		s.writeBytes(twosComplement(value.BigInt{V: x.Unscaled}.Int()))
		s.writeInt(int64(x.Scale))
	case value.Char:
		if err := s.writeTag(tagChar, 1); err != nil {
			return err
		}
		s.writeInt(int64(x))
	case value.IntArray:
		s.w.writeCode(codeIntArray)
		s.writeInt(int64(len(x)))
		for _, n := range x {
			s.writeInt(int64(n))
		}
	case value.LongArray:
		s.w.writeCode(codeLongArray)
		s.writeInt(int64(len(x)))
		for _, n := range x {
			s.writeInt(n)
		}
	case value.FloatArray:
		s.w.writeCode(codeFloatArray)
		s.writeInt(int64(len(x)))
		for _, f := range x {
			s.w.writeCode(codeFloat)
			s.w.writeRawFloat(f)
		}
	case value.DoubleArray:
		s.w.writeCode(codeDoubleArray)
		s.writeInt(int64(len(x)))
		for _, f := range x {
			s.writeDouble(f)
		}
	case value.BooleanArray:
		s.w.writeCode(codeBooleanArray)
		s.writeInt(int64(len(x)))
		for _, b := range x {
			if b {
				s.w.writeCode(codeTrue)
			} else {
				s.w.writeCode(codeFalse)
			}
		}
	case value.ObjectArray:
		s.w.writeCode(codeObjectArray)
		s.writeInt(int64(len(x)))
		for _, e := range x {
			if err := s.writeObject(e); err != nil {
				return err
			}
		}
	case value.Tagged:
		if err := s.writeTag(x.Tag, len(x.Fields)); err != nil {
			return err
		}
		for _, f := range x.Fields {
			if err := s.writeObject(f); err != nil {
				return err
			}
		}
	default:
		return errors.Unsupported(errors.PhaseEncode, "value kind "+v.Kind().String())
	}
	return nil
}

// writeInt picks the shortest form for l. The switch is on the number of
// leading zeros of l, or of ^l for negative l.
func (s *encodeState) writeInt(l int64) {
	u := uint64(l)
	if l < 0 {
		u = ^u
	}
	switch lz := bits.LeadingZeros64(u); {
	case lz <= 14:
		s.w.writeCode(codeInt)
		s.w.writeRawInt64(l)
	case lz <= 22:
		s.w.writeCode(byte(codeIntPacked7Zero + (l >> 48)))
		s.w.writeUint(uint64(l), 6)
	case lz <= 30:
		s.w.writeCode(byte(codeIntPacked6Zero + (l >> 40)))
		s.w.writeUint(uint64(l), 5)
	case lz <= 38:
		s.w.writeCode(byte(codeIntPacked5Zero + (l >> 32)))
		s.w.writeUint(uint64(l), 4)
	case lz <= 44:
		s.w.writeCode(byte(codeIntPacked4Zero + (l >> 24)))
		s.w.writeUint(uint64(l), 3)
	case lz <= 51:
		s.w.writeCode(byte(codeIntPacked3Zero + (l >> 16)))
		s.w.writeUint(uint64(l), 2)
	case lz <= 57 || l < -1:
		s.w.writeCode(byte(codeIntPacked2Zero + (l >> 8)))
		s.w.writeUint(uint64(l), 1)
	default:
		// 0..63 and -1 fit the code byte itself
		s.w.writeCode(byte(l))
	}
}

func (s *encodeState) writeDouble(f float64) {
	switch math.Float64bits(f) {
	case 0:
		s.w.writeCode(codeDouble0)
	case math.Float64bits(1):
		s.w.writeCode(codeDouble1)
	default:
		s.w.writeCode(codeDouble)
		s.w.writeRawDouble(f)
	}
}

func (s *encodeState) writeString(str string) error {
	if !utf8.ValidString(str) {
		return errors.InvalidUTF8(errors.PhaseEncode, nil, []byte(str))
	}
	s.writeChunked([]byte(str), codeStringPackedStart, codeStringChunk, codeString)
	return nil
}

func (s *encodeState) writeBytes(b []byte) {
	s.writeChunked(b, codeBytesPackedStart, codeBytesChunk, codeBytes)
}

// writeChunked is shared by strings and byte strings: a packed code for
// short payloads, otherwise chunks of chunkSize followed by a final piece.
func (s *encodeState) writeChunked(data []byte, packed, chunk, final byte) {
	if len(data) < packedMax {
		s.w.writeCode(packed + byte(len(data)))
		s.w.writeRaw(data)
		return
	}
	for len(data) > chunkSize {
		s.w.writeCode(chunk)
		s.writeInt(chunkSize)
		s.w.writeRaw(data[:chunkSize])
		data = data[chunkSize:]
	}
	s.w.writeCode(final)
	s.writeInt(int64(len(data)))
	s.w.writeRaw(data)
}

func (s *encodeState) writeList(elems []value.Value) error {
	if len(elems) < packedMax {
		s.w.writeCode(codeListPackedStart + byte(len(elems)))
	} else {
		s.w.writeCode(codeList)
		s.writeInt(int64(len(elems)))
	}
	for _, e := range elems {
		if err := s.writeObject(e); err != nil {
			return err
		}
	}
	return nil
}

// writeNamed writes the namespace and name of a keyword or symbol through
// the priority cache. An empty namespace is written as null.
func (s *encodeState) writeNamed(ns, name string) error {
	if ns == "" {
		s.w.writeCode(codeNull)
	} else if err := s.writeCachedString(ns); err != nil {
		return err
	}
	return s.writeCachedString(name)
}

func (s *encodeState) writeCachedString(str string) error {
	if str == "" {
		return s.writeString(str)
	}
	if idx, ok := s.priority[str]; ok {
		if idx < priorityPacked {
			s.w.writeCode(byte(codePriorityCachePackedStart + idx))
		} else {
			s.w.writeCode(codeGetPriorityCache)
			s.writeInt(int64(idx))
		}
		return nil
	}
	s.w.writeCode(codePutPriorityCache)
	if err := s.writeString(str); err != nil {
		return err
	}
	s.priority[str] = len(s.priority)
	return nil
}

// writeTag starts a struct record, defining the struct type on first use
// and referring to it by cache index afterwards.
func (s *encodeState) writeTag(tag string, count int) error {
	key := structKey{tag: tag, count: count}
	if idx, ok := s.structs[key]; ok {
		if idx < structPacked {
			s.w.writeCode(byte(codeStructCachePackedStart + idx))
		} else {
			s.w.writeCode(codeStruct)
			s.writeInt(int64(idx))
		}
		return nil
	}
	s.w.writeCode(codeStructType)
	if err := s.writeString(tag); err != nil {
		return err
	}
	s.writeInt(int64(count))
	s.structs[key] = len(s.structs)
	return nil
}

func (s *encodeState) writeFooter() {
	payload := s.w.bytes()
	sum := adler32.Checksum(payload)
	s.w.writeRawUint32(footerMagic)
	s.w.writeRawUint32(uint32(len(payload)))
	s.w.writeRawUint32(sum)
}
