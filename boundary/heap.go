package boundary

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/wippyai/fressian-bridge/errors"
)

const (
	// PageSize is the WebAssembly page size.
	PageSize = 65536

	heapAlign = 8
	// heapBase keeps offset 0 out of the allocatable range so a zero
	// pointer is never a valid allocation.
	heapBase = 8
)

// HeapConfig configures a Heap. A nil config means one initial page and a
// limit of 256 pages.
type HeapConfig struct {
	InitialPages uint32
	MaxPages     uint32
}

type span struct {
	off, size uint32
}

// Heap is an in-process linear memory with a first-fit allocator. It
// implements bridge.Memory, bridge.MemorySizer and bridge.Allocator.
//
// Blocks are 8-byte aligned. Freed blocks are coalesced with their
// neighbours, and a freed block at the top of the heap lowers the bump
// pointer again.
type Heap struct {
	mu       sync.Mutex
	data     []byte
	maxPages uint32
	top      uint32
	free     []span            // sorted by offset
	live     map[uint32]uint32 // ptr -> rounded size
}

func NewHeap(cfg *HeapConfig) *Heap {
	initial, limit := uint32(1), uint32(256)
	if cfg != nil {
		if cfg.InitialPages > 0 {
			initial = cfg.InitialPages
		}
		if cfg.MaxPages > 0 {
			limit = cfg.MaxPages
		}
	}
	if initial > limit {
		limit = initial
	}
	return &Heap{
		data:     make([]byte, uint64(initial)*PageSize),
		maxPages: limit,
		top:      heapBase,
		live:     make(map[uint32]uint32),
	}
}

func alignUp(n uint32) uint64 {
	return (uint64(n) + heapAlign - 1) &^ (heapAlign - 1)
}

func (h *Heap) Alloc(size uint32) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if size == 0 {
		size = 1
	}
	need64 := alignUp(size)
	if need64 > uint64(h.maxPages)*PageSize {
		return 0, errors.AllocationFailed(errors.PhaseBoundary, size,
			fmt.Errorf("exceeds heap limit of %d pages", h.maxPages))
	}
	need := uint32(need64)

	for i, s := range h.free {
		if s.size < need {
			continue
		}
		if s.size == need {
			h.free = append(h.free[:i], h.free[i+1:]...)
		} else {
			h.free[i] = span{off: s.off + need, size: s.size - need}
		}
		h.live[s.off] = need
		return s.off, nil
	}

	end := uint64(h.top) + need64
	if end > uint64(len(h.data)) {
		if err := h.grow(end); err != nil {
			return 0, errors.AllocationFailed(errors.PhaseBoundary, size, err)
		}
	}
	ptr := h.top
	h.top = uint32(end)
	h.live[ptr] = need
	return ptr, nil
}

func (h *Heap) grow(end uint64) error {
	pages := (end + PageSize - 1) / PageSize
	if pages > uint64(h.maxPages) {
		return fmt.Errorf("heap limit of %d pages reached", h.maxPages)
	}
	grown := make([]byte, pages*PageSize)
	copy(grown, h.data)
	h.data = grown
	return nil
}

func (h *Heap) Free(ptr uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	size, ok := h.live[ptr]
	if !ok {
		return errors.InvalidInput(errors.PhaseBoundary, fmt.Sprintf("free of unallocated pointer %d", ptr))
	}
	delete(h.live, ptr)
	clear(h.data[ptr : ptr+size])

	i := sort.Search(len(h.free), func(i int) bool { return h.free[i].off > ptr })
	h.free = append(h.free, span{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = span{off: ptr, size: size}

	// merge with the following span, then the preceding one
	if i+1 < len(h.free) && h.free[i].off+h.free[i].size == h.free[i+1].off {
		h.free[i].size += h.free[i+1].size
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}
	if i > 0 && h.free[i-1].off+h.free[i-1].size == h.free[i].off {
		h.free[i-1].size += h.free[i].size
		h.free = append(h.free[:i], h.free[i+1:]...)
	}

	if last := h.free[len(h.free)-1]; last.off+last.size == h.top {
		h.top = last.off
		h.free = h.free[:len(h.free)-1]
	}
	return nil
}

// Live returns the number of outstanding allocations.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// LiveBytes returns the rounded size of all outstanding allocations.
func (h *Heap) LiveBytes() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	var n uint64
	for _, size := range h.live {
		n += uint64(size)
	}
	return n
}

func (h *Heap) Size() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return uint32(len(h.data))
}

func (h *Heap) check(offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(len(h.data)) {
		return errors.OutOfBounds(errors.PhaseBoundary, offset, length)
	}
	return nil
}

// Read returns a view of the heap. The view aliases heap storage and is
// only valid until the next Alloc.
func (h *Heap) Read(offset, length uint32) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check(offset, length); err != nil {
		return nil, err
	}
	return h.data[offset : offset+length], nil
}

func (h *Heap) Write(offset uint32, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if uint64(len(data)) > 1<<32 {
		return errors.OutOfBounds(errors.PhaseBoundary, offset, ^uint32(0))
	}
	if err := h.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(h.data[offset:], data)
	return nil
}

func (h *Heap) ReadU32(offset uint32) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(h.data[offset:]), nil
}

func (h *Heap) WriteU32(offset uint32, v uint32) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.check(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(h.data[offset:], v)
	return nil
}
