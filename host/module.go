package host

import (
	"context"
	"crypto/rand"

	"github.com/tetratelabs/wazero"
	"github.com/zoobzio/metricz"

	"github.com/wippyai/fressian-bridge/errors"
)

// Module is a compiled guest that satisfies the bridge contract.
type Module struct {
	runtime   *Runtime
	compiled  wazero.CompiledModule
	entries   []Entry
	key       uint64
	needsWASI bool
	hasInit   bool
}

// Entries returns the guest's entry points sorted by name.
func (m *Module) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Entry looks up an entry point by name.
func (m *Module) Entry(name string) (Entry, bool) {
	for _, e := range m.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Instantiate creates a fresh instance with its own linear memory. Reactor
// guests have their _initialize export run before this returns.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	if m.needsWASI {
		if err := m.runtime.initWASI(ctx); err != nil {
			return nil, err
		}
	}

	modConfig := wazero.NewModuleConfig().
		WithName(""). // anonymous for parallel instantiation
		WithStartFunctions().
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader)
	if m.runtime.stdout != nil {
		modConfig = modConfig.WithStdout(m.runtime.stdout)
	}
	if m.runtime.stderr != nil {
		modConfig = modConfig.WithStderr(m.runtime.stderr)
	}

	mod, err := m.runtime.runtime.InstantiateModule(ctx, m.compiled, modConfig)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	if m.hasInit {
		if _, err := mod.ExportedFunction(exportInitialize).Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, errors.Instantiation(err)
		}
	}

	inst := &Instance{
		module:    m,
		mod:       mod,
		memory:    &WazeroMemory{mem: mod.Memory()},
		allocFn:   mod.ExportedFunction(exportAlloc),
		releaseFn: mod.ExportedFunction(exportRelease),
		metrics:   newMetrics(),
	}
	return inst, nil
}

func newMetrics() *metricz.Registry {
	metrics := metricz.New()
	metrics.Counter(CallsTotal)
	metrics.Counter(ErrorValuesTotal)
	metrics.Counter(TrapsTotal)
	metrics.Gauge(DeliveredBytes)
	metrics.Gauge(CallDurationMs)
	return metrics
}
