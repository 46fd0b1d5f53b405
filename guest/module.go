package guest

import (
	"fmt"

	"go.uber.org/zap"

	bridge "github.com/wippyai/fressian-bridge"
	"github.com/wippyai/fressian-bridge/boundary"
	"github.com/wippyai/fressian-bridge/fressian"
	"github.com/wippyai/fressian-bridge/value"
)

// Handler is the logic of an entry point that takes an argument.
type Handler func(arg value.Value) (any, error)

// ProbeFunc is the logic of an entry point without arguments.
type ProbeFunc func() (any, error)

// Module is the set of entry points a guest exports.
type Module struct {
	adapter *boundary.Adapter
	alloc   bridge.Allocator
}

func New(mem bridge.Memory, alloc bridge.Allocator) *Module {
	return &Module{
		adapter: boundary.New(mem, alloc),
		alloc:   alloc,
	}
}

// Alloc reserves size bytes for the host to write an argument into.
// It returns 0 when the allocation fails.
func (m *Module) Alloc(size uint32) uint32 {
	ptr, err := m.alloc.Alloc(size)
	if err != nil {
		Logger().Warn("alloc failed", zap.Uint32("size", size), zap.Error(err))
		return 0
	}
	return ptr
}

// Release frees a buffer returned by an entry point or by Alloc. Unknown
// pointers are logged and ignored so a misbehaving host cannot trap the
// guest.
func (m *Module) Release(ptr uint32) {
	if err := m.adapter.Release(ptr); err != nil {
		Logger().Warn("release failed", zap.Uint32("ptr", ptr), zap.Error(err))
	}
}

// Serve runs h on the value in the borrowed buffer [ptr, ptr+capacity) and
// delivers its result.
func (m *Module) Serve(ptr, capacity uint32, h Handler) (out uint32) {
	defer m.recoverInto(&out)

	arg, err := m.adapter.ReceiveValue(ptr, capacity)
	if err != nil {
		return m.deliverError(err)
	}
	res, err := h(arg)
	if err != nil {
		return m.deliverError(err)
	}
	return m.deliver(res)
}

// Probe runs p and delivers its result.
func (m *Module) Probe(p ProbeFunc) (out uint32) {
	defer m.recoverInto(&out)

	res, err := p()
	if err != nil {
		return m.deliverError(err)
	}
	return m.deliver(res)
}

func (m *Module) recoverInto(out *uint32) {
	r := recover()
	if r == nil {
		return
	}
	Logger().Error("entry point panicked", zap.Any("panic", r))
	*out = m.deliverError(fressian.Messagef("panic: %v", r))
}

func (m *Module) deliver(v any) uint32 {
	ptr, err := m.adapter.Deliver(v)
	if err != nil {
		Logger().Error("deliver failed", zap.Error(err))
		return 0
	}
	return ptr
}

func (m *Module) deliverError(err error) uint32 {
	Logger().Debug("delivering error", zap.Error(err))
	ptr, derr := m.adapter.DeliverError(err)
	if derr != nil {
		Logger().Error("deliver error failed", zap.Error(derr))
		return 0
	}
	return ptr
}

// Hello delivers a fixed demonstration value.
func (m *Module) Hello() uint32 {
	return m.Probe(func() (any, error) {
		return [][]string{
			{"hello", "from", "wasm!"},
			{"isn't", "this", "exciting?!"},
		}, nil
	})
}

// Echo delivers its decoded argument back, or the decode failure.
func (m *Module) Echo(ptr, capacity uint32) uint32 {
	return m.Serve(ptr, capacity, func(arg value.Value) (any, error) {
		return arg, nil
	})
}

// Errors delivers one error record of each kind.
func (m *Module) Errors() uint32 {
	return m.Probe(func() (any, error) {
		return []any{
			fressian.Message("this is a message error"),
			fressian.UnmatchedCode(42, 43),
			fressian.Syntax(fressian.SyntaxUnsupportedCache, 3),
		}, nil
	})
}

// Describe delivers a value summarising its argument: its kind, its
// rendering and, for collections, its element count.
func (m *Module) Describe(ptr, capacity uint32) uint32 {
	return m.Serve(ptr, capacity, func(arg value.Value) (any, error) {
		desc := value.Map{
			{Key: value.Kw("kind"), Val: value.Kw(arg.Kind().String())},
			{Key: value.Kw("text"), Val: value.String(value.Format(arg))},
		}
		if n, ok := count(arg); ok {
			desc = append(desc, value.Entry{Key: value.Kw("count"), Val: value.Int(n)})
		}
		return desc, nil
	})
}

// Fail delivers the error its argument describes. A string argument becomes
// a message error; an error record is delivered as is.
func (m *Module) Fail(ptr, capacity uint32) uint32 {
	return m.Serve(ptr, capacity, func(arg value.Value) (any, error) {
		if fe, ok := fressian.ErrorFromValue(arg); ok {
			return nil, fe
		}
		if s, ok := arg.(value.String); ok {
			return nil, fressian.Message(string(s))
		}
		return nil, fmt.Errorf("fail expects a string or an error record, got %s", arg.Kind())
	})
}

func count(v value.Value) (int, bool) {
	switch c := v.(type) {
	case value.List:
		return len(c), true
	case value.Map:
		return len(c), true
	case value.Set:
		return len(c), true
	case value.String:
		return len(c), true
	case value.Bytes:
		return len(c), true
	}
	return 0, false
}
