package guest

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/fressian-bridge/boundary"
	"github.com/wippyai/fressian-bridge/fressian"
	"github.com/wippyai/fressian-bridge/value"
)

type testGuest struct {
	*Module
	heap *boundary.Heap
}

func newTestGuest(t *testing.T) *testGuest {
	t.Helper()
	h := boundary.NewHeap(nil)
	return &testGuest{Module: New(h, h), heap: h}
}

// put plays the host's half of an argument transfer.
func (g *testGuest) put(t *testing.T, payload []byte) (uint32, uint32) {
	t.Helper()
	ptr := g.Alloc(uint32(len(payload)))
	if ptr == 0 {
		t.Fatal("Alloc returned 0")
	}
	if err := g.heap.Write(ptr, payload); err != nil {
		t.Fatal(err)
	}
	return ptr, uint32(len(payload))
}

// take plays the host's half of a result transfer: copy out, release,
// decode.
func (g *testGuest) take(t *testing.T, ptr uint32) value.Value {
	t.Helper()
	if ptr == 0 {
		t.Fatal("entry point returned 0")
	}
	payload, err := boundary.Collect(g.heap, ptr)
	if err != nil {
		t.Fatal(err)
	}
	g.Release(ptr)
	v, err := fressian.Decode(payload)
	if err != nil {
		t.Fatalf("delivered buffer does not decode: %v", err)
	}
	return v
}

func TestHello(t *testing.T) {
	g := newTestGuest(t)
	want := value.MustOf([][]string{{"hello", "from", "wasm!"}, {"isn't", "this", "exciting?!"}})

	p1 := g.Hello()
	p2 := g.Hello()
	if p1 == p2 {
		t.Fatal("two calls returned the same buffer")
	}
	v1 := g.take(t, p1)
	v2 := g.take(t, p2)
	if !value.Equal(v1, want) || !value.Equal(v2, want) {
		t.Errorf("Hello() = %s / %s, want %s", v1, v2, want)
	}
	if g.heap.Live() != 0 {
		t.Errorf("%d allocations leaked", g.heap.Live())
	}
}

func TestEcho(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"strings", []string{"hello", "from", "guest"}},
		{"nested", map[string]any{"a": []int{1, 2}, "b": nil}},
		{"keyword", value.Kw("ns/name")},
		{"empty list", value.List{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGuest(t)
			enc, err := fressian.Encode(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			ptr, capacity := g.put(t, enc)
			got := g.take(t, g.Echo(ptr, capacity))
			g.Release(ptr)

			if want := value.MustOf(tt.in); !value.Equal(got, want) {
				t.Errorf("Echo() = %s, want %s", got, want)
			}
			if g.heap.Live() != 0 {
				t.Errorf("%d allocations leaked", g.heap.Live())
			}
		})
	}
}

func TestEcho_DecodeFailures(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  *fressian.Error
	}{
		{"unassigned code", []byte{0xF3}, fressian.UnmatchedCode(fressian.CodeAny, 0xF3)},
		{"precache", []byte{0xCE}, fressian.Syntax(fressian.SyntaxUnsupportedCache, 0xCE)},
		{"trailing", []byte{0x01, 0x02}, fressian.Syntax(fressian.SyntaxTrailingBytes, 1)},
		{"truncated", []byte{0xE3, 0x05, 'a'}, fressian.Syntax(fressian.SyntaxEOF, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGuest(t)
			ptr, capacity := g.put(t, tt.input)
			got := g.take(t, g.Echo(ptr, capacity))

			fe, ok := fressian.ErrorFromValue(got)
			if !ok {
				t.Fatalf("Echo() delivered %s, want an error record", got)
			}
			if *fe != *tt.want {
				t.Errorf("Echo() error = %+v, want %+v", *fe, *tt.want)
			}
		})
	}
}

func TestEcho_MinusOne(t *testing.T) {
	g := newTestGuest(t)
	ptr, capacity := g.put(t, []byte{0xFF})
	got := g.take(t, g.Echo(ptr, capacity))
	if got != value.Int(-1) {
		t.Errorf("Echo(0xFF) = %s, want -1", got)
	}
}

func TestErrors(t *testing.T) {
	g := newTestGuest(t)
	got := g.take(t, g.Errors())

	list, ok := got.(value.List)
	if !ok || len(list) != 3 {
		t.Fatalf("Errors() = %s, want a list of three records", got)
	}
	want := []*fressian.Error{
		fressian.Message("this is a message error"),
		fressian.UnmatchedCode(42, 43),
		fressian.Syntax(fressian.SyntaxUnsupportedCache, 3),
	}
	for i, rec := range list {
		fe, ok := fressian.ErrorFromValue(rec)
		if !ok {
			t.Fatalf("element %d = %s is not an error record", i, rec)
		}
		if *fe != *want[i] {
			t.Errorf("element %d = %+v, want %+v", i, *fe, *want[i])
		}
	}
}

func TestServe_HandlerErrorAndPanic(t *testing.T) {
	g := newTestGuest(t)
	enc, _ := fressian.Encode(1)

	tests := []struct {
		name string
		h    Handler
		want string
	}{
		{"plain error", func(value.Value) (any, error) { return nil, stderrors.New("nope") }, "nope"},
		{"panic", func(value.Value) (any, error) { panic("boom") }, "panic: boom"},
		{"unencodable result", func(value.Value) (any, error) { return make(chan int), nil }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ptr, capacity := g.put(t, enc)
			got := g.take(t, g.Serve(ptr, capacity, tt.h))
			g.Release(ptr)

			fe, ok := fressian.ErrorFromValue(got)
			if !ok || fe.Kind != fressian.KindMessage {
				t.Fatalf("Serve() delivered %s, want a message error", got)
			}
			if tt.want != "" && fe.Message != tt.want {
				t.Errorf("message = %q, want %q", fe.Message, tt.want)
			}
		})
	}
	if g.heap.Live() != 0 {
		t.Errorf("%d allocations leaked", g.heap.Live())
	}
}

func TestProbe_Panic(t *testing.T) {
	g := newTestGuest(t)
	got := g.take(t, g.Probe(func() (any, error) {
		var m map[string]int
		m["x"] = 1
		return m, nil
	}))
	if fe, ok := fressian.ErrorFromValue(got); !ok || fe.Kind != fressian.KindMessage {
		t.Errorf("Probe() delivered %s, want a message error", got)
	}
}

func TestDescribe(t *testing.T) {
	g := newTestGuest(t)
	enc, _ := fressian.Encode([]int{1, 2, 3})
	ptr, capacity := g.put(t, enc)
	got := g.take(t, g.Describe(ptr, capacity))

	want := `{:kind :list, :text "[1 2 3]", :count 3}`
	if value.Format(got) != want {
		t.Errorf("Describe() = %s, want %s", got, want)
	}
}

func TestFail(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *fressian.Error
	}{
		{"string", "custom failure", fressian.Message("custom failure")},
		{"record", fressian.Syntax(fressian.SyntaxBadUUID, 7), fressian.Syntax(fressian.SyntaxBadUUID, 7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGuest(t)
			enc, err := fressian.Encode(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			ptr, capacity := g.put(t, enc)
			got := g.take(t, g.Fail(ptr, capacity))
			fe, ok := fressian.ErrorFromValue(got)
			if !ok || *fe != *tt.want {
				t.Errorf("Fail() delivered %s, want %s", got, tt.want.ToValue())
			}
		})
	}
}

func TestAlloc_Failure(t *testing.T) {
	g := newTestGuest(t)
	if ptr := g.Alloc(^uint32(0)); ptr != 0 {
		t.Errorf("Alloc(max) = %d, want 0", ptr)
	}
	// releasing garbage must not panic
	g.Release(12345)
}
