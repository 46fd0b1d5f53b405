package fressian

import (
	"encoding/binary"
	"math"
)

// reader is a bounds-checked cursor over a byte slice. Every read that
// would pass the end of the input fails with a syntax eof error carrying
// the offset of the failed read.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *reader) eof() *Error {
	return Syntax(SyntaxEOF, int64(r.pos))
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, r.eof()
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) peekByte() (byte, bool) {
	if r.pos >= len(r.buf) {
		return 0, false
	}
	return r.buf[r.pos], true
}

// readN returns the next n bytes without copying.
func (r *reader) readN(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, r.eof()
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// readUint reads an n byte big-endian unsigned integer, n <= 8.
func (r *reader) readUint(n int) (uint64, error) {
	b, err := r.readN(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

func (r *reader) readRawUint32() (uint32, error) {
	b, err := r.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) readRawInt64() (int64, error) {
	b, err := r.readN(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (r *reader) readRawFloat() (float32, error) {
	b, err := r.readN(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

func (r *reader) readRawDouble() (float64, error) {
	b, err := r.readN(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// ensure fails with eof when fewer than n*width bytes remain. It runs before
// any allocation sized by a count read from the input.
func (r *reader) ensure(n, width int) error {
	if width > 0 && n > r.remaining()/width {
		return r.eof()
	}
	return nil
}
