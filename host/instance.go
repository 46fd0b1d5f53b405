package host

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"github.com/zoobzio/metricz"
	"go.uber.org/zap"

	bridge "github.com/wippyai/fressian-bridge"
	"github.com/wippyai/fressian-bridge/boundary"
	"github.com/wippyai/fressian-bridge/errors"
	"github.com/wippyai/fressian-bridge/fressian"
	"github.com/wippyai/fressian-bridge/value"
)

// Metric keys recorded per instance.
const (
	CallsTotal       = metricz.Key("bridge.calls.total")
	ErrorValuesTotal = metricz.Key("bridge.error_values.total")
	TrapsTotal       = metricz.Key("bridge.traps.total")
	DeliveredBytes   = metricz.Key("bridge.delivered.bytes")
	CallDurationMs   = metricz.Key("bridge.call.duration.ms")
)

// Instance is one instantiated guest. Calls are serialized: a guest runs
// one entry point at a time.
type Instance struct {
	mu        sync.Mutex
	module    *Module
	mod       api.Module
	memory    *WazeroMemory
	allocFn   api.Function
	releaseFn api.Function
	metrics   *metricz.Registry
	closed    bool
}

// Memory exposes the guest's linear memory.
func (i *Instance) Memory() bridge.Memory {
	return i.memory
}

func (i *Instance) Metrics() *metricz.Registry {
	return i.metrics
}

func (i *Instance) Module() *Module {
	return i.module
}

// Call invokes an entry point and returns the delivered value.
//
// Receivers take at most one argument; it is converted with value.Of,
// encoded and written into a guest allocation. No argument sends nil.
// Probes take none.
//
// Failures the guest delivers as error records come back as values;
// use Result to turn them into Go errors. The returned error covers
// everything else: unknown entries, traps, and malformed deliveries.
func (i *Instance) Call(ctx context.Context, name string, args ...any) (value.Value, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "instance")
	}
	entry, ok := i.module.Entry(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseRuntime, "entry point", name)
	}

	var payload []byte
	switch entry.Kind {
	case EntryProbe:
		if len(args) > 0 {
			return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
				Export(name).
				Detail("probe takes no arguments, got %d", len(args)).
				Build()
		}
	case EntryReceiver:
		if len(args) > 1 {
			return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
				Export(name).
				Detail("receiver takes one argument, got %d", len(args)).
				Build()
		}
		var arg any
		if len(args) == 1 {
			arg = args[0]
		}
		b, err := i.module.runtime.enc.Encode(arg)
		if err != nil {
			return nil, err
		}
		payload = b
	}

	start := i.module.runtime.clock.Now()
	i.metrics.Counter(CallsTotal).Inc()

	alloc := &guestAllocator{ctx: ctx, allocFn: i.allocFn, releaseFn: i.releaseFn}
	owned := newAllocationList()
	defer owned.release()

	out, err := i.invoke(ctx, entry, payload, alloc, owned)
	if ferr := owned.free(alloc); ferr != nil && err == nil {
		err = ferr
	}

	elapsed := i.module.runtime.clock.Now().Sub(start)
	i.metrics.Gauge(CallDurationMs).Set(float64(elapsed.Milliseconds()))

	if err != nil {
		if stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindTrap}) {
			i.metrics.Counter(TrapsTotal).Inc()
		}
		Logger().Debug("call failed", zap.String("export", name), zap.Error(err))
		return nil, err
	}
	if _, isErr := fressian.ErrorFromValue(out); isErr {
		i.metrics.Counter(ErrorValuesTotal).Inc()
	}
	return out, nil
}

func (i *Instance) invoke(ctx context.Context, entry Entry, payload []byte, alloc *guestAllocator, owned *allocationList) (value.Value, error) {
	var params []uint64
	if entry.Kind == EntryReceiver {
		ptr, err := alloc.Alloc(uint32(len(payload)))
		if err != nil {
			return nil, err
		}
		owned.add(ptr)
		if err := i.memory.Write(ptr, payload); err != nil {
			return nil, err
		}
		params = []uint64{api.EncodeU32(ptr), api.EncodeU32(uint32(len(payload)))}
	}

	res, err := i.mod.ExportedFunction(entry.Name).Call(ctx, params...)
	if err != nil {
		return nil, errors.Trap(entry.Name, err)
	}
	ptr := api.DecodeU32(res[0])
	if ptr == 0 {
		return nil, errors.NilPointer(errors.PhaseBoundary, []string{entry.Name}, "delivered buffer")
	}
	owned.add(ptr)

	b, err := boundary.Collect(i.memory, ptr)
	if err != nil {
		return nil, err
	}
	i.metrics.Gauge(DeliveredBytes).Set(float64(len(b)))

	v, err := i.module.runtime.dec.Decode(b)
	if err != nil {
		derr := errors.InvalidData(errors.PhaseDecode, nil, "delivered buffer does not decode")
		derr.Export = entry.Name
		derr.Cause = err
		return nil, derr
	}
	return v, nil
}

// CallResult is Call followed by Result, with the export name attached to
// guest errors.
func (i *Instance) CallResult(ctx context.Context, name string, args ...any) (value.Value, error) {
	v, err := i.Call(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	if fe, ok := fressian.ErrorFromValue(v); ok {
		return nil, errors.GuestError(name, fe)
	}
	return v, nil
}

// Close releases the instance's memory.
func (i *Instance) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	return i.mod.Close(ctx)
}

// Result turns a delivered error record into a Go error. Other values pass
// through unchanged.
func Result(v value.Value, err error) (value.Value, error) {
	if err != nil {
		return nil, err
	}
	if fe, ok := fressian.ErrorFromValue(v); ok {
		return nil, errors.GuestError("", fe)
	}
	return v, nil
}
