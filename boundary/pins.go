package boundary

import (
	"fmt"
	"sync"

	"github.com/wippyai/fressian-bridge/errors"
)

// pinTable keeps buffers handed out as raw pointers reachable until they
// are released. Without it the collector could reclaim a buffer the host
// still holds a pointer to.
type pinTable struct {
	mu   sync.Mutex
	bufs map[uint32][]byte
}

func newPinTable() *pinTable {
	return &pinTable{bufs: make(map[uint32][]byte)}
}

func (t *pinTable) pin(ptr uint32, buf []byte) {
	t.mu.Lock()
	t.bufs[ptr] = buf
	t.mu.Unlock()
}

func (t *pinTable) unpin(ptr uint32) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	buf, ok := t.bufs[ptr]
	if !ok {
		return nil, errors.InvalidInput(errors.PhaseBoundary, fmt.Sprintf("release of unpinned pointer %d", ptr))
	}
	delete(t.bufs, ptr)
	return buf, nil
}

func (t *pinTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.bufs)
}
