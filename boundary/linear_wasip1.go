//go:build wasip1

package boundary

import (
	"encoding/binary"
	"unsafe"

	"github.com/wippyai/fressian-bridge/errors"
)

// Linear is the module's own linear memory, seen from inside the guest.
// Allocations are ordinary Go slices pinned until Free.
type Linear struct {
	pins *pinTable
}

func NewLinear() *Linear {
	return &Linear{pins: newPinTable()}
}

func (l *Linear) Alloc(size uint32) (uint32, error) {
	if size == 0 {
		size = 1
	}
	buf := make([]byte, size)
	ptr := uint32(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))
	if ptr == 0 {
		return 0, errors.AllocationFailed(errors.PhaseBoundary, size, nil)
	}
	l.pins.pin(ptr, buf)
	return ptr, nil
}

func (l *Linear) Free(ptr uint32) error {
	_, err := l.pins.unpin(ptr)
	return err
}

// Live returns the number of pinned allocations.
func (l *Linear) Live() int {
	return l.pins.len()
}

func (l *Linear) view(offset, length uint32) ([]byte, error) {
	if offset == 0 {
		return nil, errors.NilPointer(errors.PhaseBoundary, nil, "linear memory offset")
	}
	if uint64(offset)+uint64(length) > 1<<32 {
		return nil, errors.OutOfBounds(errors.PhaseBoundary, offset, length)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(offset))), length), nil
}

func (l *Linear) Read(offset, length uint32) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	return l.view(offset, length)
}

func (l *Linear) Write(offset uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	dst, err := l.view(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

func (l *Linear) ReadU32(offset uint32) (uint32, error) {
	b, err := l.view(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (l *Linear) WriteU32(offset uint32, v uint32) error {
	b, err := l.view(offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, v)
	return nil
}
