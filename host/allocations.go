package host

import (
	"sync"

	bridge "github.com/wippyai/fressian-bridge"
)

// allocationList tracks the guest buffers touched by one call so they can
// all be released when it ends.
type allocationList struct {
	ptrs []uint32
}

var allocationListPool = sync.Pool{
	New: func() any {
		return &allocationList{ptrs: make([]uint32, 0, 4)}
	},
}

func newAllocationList() *allocationList {
	return allocationListPool.Get().(*allocationList)
}

const maxPooledAllocationCapacity = 64

// release returns the list to the pool. The list is invalid afterwards.
func (al *allocationList) release() {
	if cap(al.ptrs) > maxPooledAllocationCapacity {
		return
	}
	al.reset()
	allocationListPool.Put(al)
}

func (al *allocationList) add(ptr uint32) {
	al.ptrs = append(al.ptrs, ptr)
}

// free releases every tracked pointer in order and returns the first
// failure. Later pointers are still released after a failure.
func (al *allocationList) free(allocator bridge.Allocator) error {
	if allocator == nil {
		return nil
	}
	var first error
	for _, p := range al.ptrs {
		if p == 0 {
			continue
		}
		if err := allocator.Free(p); err != nil && first == nil {
			first = err
		}
	}
	al.reset()
	return first
}

func (al *allocationList) reset() {
	al.ptrs = al.ptrs[:0]
}

func (al *allocationList) count() int {
	return len(al.ptrs)
}
