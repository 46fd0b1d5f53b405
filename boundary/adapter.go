package boundary

import (
	"encoding/binary"

	"go.uber.org/zap"

	bridge "github.com/wippyai/fressian-bridge"
	"github.com/wippyai/fressian-bridge/errors"
	"github.com/wippyai/fressian-bridge/fressian"
	"github.com/wippyai/fressian-bridge/value"
)

// HeaderSize is the size of the little-endian length prefix of a delivered
// buffer.
const HeaderSize = 4

// MaxPayload bounds a single delivered payload.
const MaxPayload = 1 << 30

// Adapter moves bytes across the boundary between a guest's linear memory
// and Go values.
//
// Inputs arrive as (ptr, capacity) pairs that are borrowed for one call and
// copied out immediately. Results leave as a single allocation holding
// [u32 length LE][payload]; the caller copies that out and releases it.
type Adapter struct {
	mem   bridge.Memory
	alloc bridge.Allocator
	enc   *fressian.Encoder
	dec   *fressian.Decoder
}

// Config holds adapter settings. A nil config means defaults.
type Config struct {
	Encoder *fressian.EncoderConfig
	Decoder *fressian.DecoderConfig
}

func New(mem bridge.Memory, alloc bridge.Allocator) *Adapter {
	return NewWithConfig(mem, alloc, nil)
}

func NewWithConfig(mem bridge.Memory, alloc bridge.Allocator, cfg *Config) *Adapter {
	a := &Adapter{mem: mem, alloc: alloc}
	if cfg != nil {
		a.enc = fressian.NewEncoder(cfg.Encoder)
		a.dec = fressian.NewDecoder(cfg.Decoder)
	} else {
		a.enc = fressian.NewEncoder(nil)
		a.dec = fressian.NewDecoder(nil)
	}
	return a
}

// Receive copies exactly capacity bytes starting at ptr into a new slice.
// The source memory is not modified and nothing outside
// [ptr, ptr+capacity) is read.
func (a *Adapter) Receive(ptr, capacity uint32) ([]byte, error) {
	if a.mem == nil {
		return nil, errors.NotInitialized(errors.PhaseBoundary, "memory")
	}
	if capacity == 0 {
		return []byte{}, nil
	}
	view, err := a.mem.Read(ptr, capacity)
	if err != nil {
		return nil, errors.New(errors.PhaseBoundary, errors.KindOutOfBounds).
			Cause(err).
			Detail("receive [%d, %d)", ptr, uint64(ptr)+uint64(capacity)).
			Build()
	}
	out := make([]byte, len(view))
	copy(out, view)
	return out, nil
}

// ReceiveValue receives and decodes an argument. A decode failure is
// returned as a *fressian.Error so it can be delivered back as a value.
func (a *Adapter) ReceiveValue(ptr, capacity uint32) (value.Value, error) {
	b, err := a.Receive(ptr, capacity)
	if err != nil {
		return nil, err
	}
	v, err := a.dec.Decode(b)
	if err != nil {
		Logger().Debug("decode failed",
			zap.Uint32("ptr", ptr),
			zap.Uint32("capacity", capacity),
			zap.Error(err))
		return nil, err
	}
	return v, nil
}

// Deliver encodes v and writes it into one new allocation, returning the
// pointer to the length header. When v cannot be encoded, the encode
// failure is delivered in its place as a message error. The returned
// error is reserved for failures of the memory itself.
func (a *Adapter) Deliver(v any) (uint32, error) {
	payload, err := a.enc.Encode(v)
	if err != nil {
		Logger().Debug("encode failed, delivering error value", zap.Error(err))
		return a.DeliverError(err)
	}
	return a.DeliverBytes(payload)
}

// DeliverError delivers err as an error record. Errors that are not
// already *fressian.Error become message errors.
func (a *Adapter) DeliverError(err error) (uint32, error) {
	fe := fressian.AsError(err)
	if fe == nil {
		fe = fressian.Message("unknown error")
	}
	payload, encErr := a.enc.EncodeValue(fe.ToValue())
	if encErr != nil {
		// only reachable with invalid UTF-8 in the message text
		payload, _ = a.enc.EncodeValue(fressian.Message("unencodable error").ToValue())
	}
	return a.DeliverBytes(payload)
}

// DeliverBytes writes an already encoded payload behind a length header.
func (a *Adapter) DeliverBytes(payload []byte) (uint32, error) {
	if a.mem == nil || a.alloc == nil {
		return 0, errors.NotInitialized(errors.PhaseBoundary, "memory or allocator")
	}
	if len(payload) > MaxPayload {
		return 0, errors.Overflow(errors.PhaseBoundary, nil, len(payload), "delivered payload")
	}

	size := uint32(HeaderSize + len(payload))
	ptr, err := a.alloc.Alloc(size)
	if err != nil {
		return 0, errors.AllocationFailed(errors.PhaseBoundary, size, err)
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	if err := a.mem.Write(ptr, buf); err != nil {
		_ = a.alloc.Free(ptr)
		return 0, errors.New(errors.PhaseBoundary, errors.KindOutOfBounds).
			Cause(err).
			Detail("write delivered buffer at %d", ptr).
			Build()
	}

	Logger().Debug("delivered",
		zap.Uint32("ptr", ptr),
		zap.Int("payload", len(payload)))
	return ptr, nil
}

// Release frees a buffer returned by Deliver.
func (a *Adapter) Release(ptr uint32) error {
	if a.alloc == nil {
		return errors.NotInitialized(errors.PhaseBoundary, "allocator")
	}
	if err := a.alloc.Free(ptr); err != nil {
		return errors.Wrap(errors.PhaseBoundary, errors.KindInvalidInput, err, "release delivered buffer")
	}
	return nil
}

// Collect copies the payload of a delivered buffer out of mem. It is the
// host half of Deliver and must run before the buffer is released.
func Collect(mem bridge.Memory, ptr uint32) ([]byte, error) {
	if ptr == 0 {
		return nil, errors.NilPointer(errors.PhaseBoundary, nil, "delivered buffer")
	}
	n, err := mem.ReadU32(ptr)
	if err != nil {
		return nil, errors.New(errors.PhaseBoundary, errors.KindOutOfBounds).
			Cause(err).
			Detail("read length header at %d", ptr).
			Build()
	}
	if n > MaxPayload {
		return nil, errors.Overflow(errors.PhaseBoundary, nil, n, "delivered payload")
	}
	limit := uint64(1) << 32
	if s, ok := mem.(bridge.MemorySizer); ok {
		limit = uint64(s.Size())
	}
	if uint64(ptr)+HeaderSize+uint64(n) > limit {
		return nil, errors.OutOfBounds(errors.PhaseBoundary, ptr, HeaderSize+n)
	}
	view, err := mem.Read(ptr+HeaderSize, n)
	if err != nil {
		return nil, errors.New(errors.PhaseBoundary, errors.KindOutOfBounds).
			Cause(err).
			Detail("delivered length %d at %d exceeds memory", n, ptr).
			Build()
	}
	out := make([]byte, len(view))
	copy(out, view)
	return out, nil
}
