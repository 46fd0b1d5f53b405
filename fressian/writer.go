package fressian

import (
	"encoding/binary"
	"math"
)

// writer accumulates encoded output.
type writer struct {
	buf []byte
}

func (w *writer) bytes() []byte {
	return w.buf
}

func (w *writer) writeCode(c byte) {
	w.buf = append(w.buf, c)
}

func (w *writer) writeRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

// writeUint appends the low n bytes of v big-endian.
func (w *writer) writeUint(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.buf = append(w.buf, byte(v>>(8*uint(i))))
	}
}

func (w *writer) writeRawUint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *writer) writeRawInt64(v int64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
}

func (w *writer) writeRawFloat(f float32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, math.Float32bits(f))
}

func (w *writer) writeRawDouble(f float64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, math.Float64bits(f))
}
