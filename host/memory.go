package host

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/fressian-bridge/errors"
)

// WazeroMemory adapts a guest's exported memory to bridge.Memory.
// Read returns a view into linear memory that is only valid until the
// guest runs again.
type WazeroMemory struct {
	mem api.Memory
}

func (m *WazeroMemory) Read(offset, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseBoundary, offset, length)
	}
	return data, nil
}

func (m *WazeroMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseBoundary, offset, uint32(len(data)))
	}
	return nil
}

func (m *WazeroMemory) ReadU32(offset uint32) (uint32, error) {
	val, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseBoundary, offset, 4)
	}
	return val, nil
}

func (m *WazeroMemory) WriteU32(offset uint32, v uint32) error {
	if !m.mem.WriteUint32Le(offset, v) {
		return errors.OutOfBounds(errors.PhaseBoundary, offset, 4)
	}
	return nil
}

func (m *WazeroMemory) Size() uint32 {
	return m.mem.Size()
}

// guestAllocator calls the guest's alloc and release exports. It is bound
// to the context of a single call.
type guestAllocator struct {
	ctx       context.Context
	allocFn   api.Function
	releaseFn api.Function
}

func (a *guestAllocator) Alloc(size uint32) (uint32, error) {
	res, err := a.allocFn.Call(a.ctx, api.EncodeU32(size))
	if err != nil {
		return 0, errors.Trap(exportAlloc, err)
	}
	ptr := api.DecodeU32(res[0])
	if ptr == 0 {
		return 0, errors.AllocationFailed(errors.PhaseBoundary, size, fmt.Errorf("guest alloc returned 0"))
	}
	return ptr, nil
}

func (a *guestAllocator) Free(ptr uint32) error {
	if _, err := a.releaseFn.Call(a.ctx, api.EncodeU32(ptr)); err != nil {
		return errors.Trap(exportRelease, err)
	}
	return nil
}
