package boundary

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/fressian-bridge/errors"
)

func TestHeap_AllocAlignedAndNonZero(t *testing.T) {
	h := NewHeap(nil)
	seen := map[uint32]bool{}
	for _, size := range []uint32{0, 1, 7, 8, 9, 100} {
		ptr, err := h.Alloc(size)
		if err != nil {
			t.Fatalf("Alloc(%d) error: %v", size, err)
		}
		if ptr == 0 {
			t.Fatalf("Alloc(%d) returned a zero pointer", size)
		}
		if ptr%heapAlign != 0 {
			t.Errorf("Alloc(%d) = %d, not %d-byte aligned", size, ptr, heapAlign)
		}
		if seen[ptr] {
			t.Errorf("Alloc(%d) reused live pointer %d", size, ptr)
		}
		seen[ptr] = true
	}
	if h.Live() != 6 {
		t.Errorf("Live() = %d, want 6", h.Live())
	}
}

func TestHeap_FreeReusesAndCoalesces(t *testing.T) {
	h := NewHeap(nil)
	a, _ := h.Alloc(16)
	b, _ := h.Alloc(16)
	c, _ := h.Alloc(16)
	guard, _ := h.Alloc(8)

	for _, p := range []uint32{a, c, b} {
		if err := h.Free(p); err != nil {
			t.Fatalf("Free(%d) error: %v", p, err)
		}
	}

	// a, b and c merged into one 48 byte block at a
	big, err := h.Alloc(48)
	if err != nil {
		t.Fatal(err)
	}
	if big != a {
		t.Errorf("Alloc(48) = %d, want coalesced block at %d", big, a)
	}

	if err := h.Free(big); err != nil {
		t.Fatal(err)
	}
	if err := h.Free(guard); err != nil {
		t.Fatal(err)
	}
	if h.Live() != 0 || h.LiveBytes() != 0 {
		t.Errorf("Live() = %d, LiveBytes() = %d after freeing everything", h.Live(), h.LiveBytes())
	}
	if h.top != heapBase || len(h.free) != 0 {
		t.Errorf("heap not fully reclaimed: top=%d free=%v", h.top, h.free)
	}
}

func TestHeap_FreeZeroesBlock(t *testing.T) {
	h := NewHeap(nil)
	p, _ := h.Alloc(4)
	if err := h.Write(p, []byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	_ = h.Free(p)
	got, _ := h.Read(p, 4)
	for _, b := range got {
		if b != 0 {
			t.Fatalf("freed block still holds % X", got)
		}
	}
}

func TestHeap_FreeUnknown(t *testing.T) {
	h := NewHeap(nil)
	p, _ := h.Alloc(8)
	want := &errors.Error{Phase: errors.PhaseBoundary, Kind: errors.KindInvalidInput}

	if err := h.Free(p + 8); !stderrors.Is(err, want) {
		t.Errorf("Free(unknown) = %v, want invalid_input", err)
	}
	if err := h.Free(p); err != nil {
		t.Fatal(err)
	}
	if err := h.Free(p); !stderrors.Is(err, want) {
		t.Errorf("double Free = %v, want invalid_input", err)
	}
}

func TestHeap_Grow(t *testing.T) {
	h := NewHeap(&HeapConfig{InitialPages: 1, MaxPages: 3})
	p, err := h.Alloc(PageSize + 10)
	if err != nil {
		t.Fatalf("Alloc across a page boundary: %v", err)
	}
	if h.Size() != 2*PageSize {
		t.Errorf("Size() = %d, want %d", h.Size(), 2*PageSize)
	}
	if err := h.Write(p+PageSize, []byte{9}); err != nil {
		t.Errorf("write into grown page: %v", err)
	}

	_, err = h.Alloc(2 * PageSize)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseBoundary, Kind: errors.KindAllocation}) {
		t.Errorf("Alloc past the limit = %v, want allocation error", err)
	}
	_, err = h.Alloc(^uint32(0))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseBoundary, Kind: errors.KindAllocation}) {
		t.Errorf("Alloc(max) = %v, want allocation error", err)
	}
}

func TestHeap_Bounds(t *testing.T) {
	h := NewHeap(nil)
	oob := &errors.Error{Phase: errors.PhaseBoundary, Kind: errors.KindOutOfBounds}

	tests := []struct {
		name string
		err  error
	}{
		{"read past end", func() error { _, err := h.Read(PageSize-2, 4); return err }()},
		{"read wrapping", func() error { _, err := h.Read(^uint32(0), 2); return err }()},
		{"write past end", h.Write(PageSize, []byte{1})},
		{"u32 read past end", func() error { _, err := h.ReadU32(PageSize - 3); return err }()},
		{"u32 write past end", h.WriteU32(PageSize-1, 1)},
	}
	for _, tt := range tests {
		if !stderrors.Is(tt.err, oob) {
			t.Errorf("%s: got %v, want out_of_bounds", tt.name, tt.err)
		}
	}

	if _, err := h.Read(PageSize, 0); err != nil {
		t.Errorf("empty read at the end: %v", err)
	}
}

func TestHeap_U32(t *testing.T) {
	h := NewHeap(nil)
	if err := h.WriteU32(16, 0x01020304); err != nil {
		t.Fatal(err)
	}
	raw, _ := h.Read(16, 4)
	if raw[0] != 0x04 || raw[3] != 0x01 {
		t.Errorf("WriteU32 not little endian: % X", raw)
	}
	v, err := h.ReadU32(16)
	if err != nil || v != 0x01020304 {
		t.Errorf("ReadU32() = %#x, %v", v, err)
	}
}
