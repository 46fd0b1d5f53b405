package host

import (
	"context"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/wippyai/fressian-bridge/errors"
	"github.com/wippyai/fressian-bridge/fressian"
)

const wasiModule = "wasi_snapshot_preview1"

// DefaultCacheSize is the number of compiled modules kept by default.
const DefaultCacheSize = 16

// Config holds configuration for runtime creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the wazero default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// CacheSize bounds the compiled module cache. 0 means DefaultCacheSize.
	CacheSize int

	// Clock times calls. nil means clockz.RealClock.
	Clock clockz.Clock

	// Stdout and Stderr receive WASI output of guests. nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	Encoder *fressian.EncoderConfig
	Decoder *fressian.DecoderConfig
}

// Runtime compiles and instantiates bridge guests.
type Runtime struct {
	runtime wazero.Runtime
	cache   *lru.Cache
	clock   clockz.Clock
	stdout  io.Writer
	stderr  io.Writer
	enc     *fressian.Encoder
	dec     *fressian.Decoder

	loadMu   sync.Mutex
	wasiMu   sync.Mutex
	wasiDone bool
}

func New(ctx context.Context) (*Runtime, error) {
	return NewWithConfig(ctx, nil)
}

func NewWithConfig(ctx context.Context, cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, errors.Load("create module cache", err)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockz.RealClock
	}

	return &Runtime{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		cache:   cache,
		clock:   clock,
		stdout:  cfg.Stdout,
		stderr:  cfg.Stderr,
		enc:     fressian.NewEncoder(cfg.Encoder),
		dec:     fressian.NewDecoder(cfg.Decoder),
	}, nil
}

// Close releases all runtime resources, including every instance.
func (r *Runtime) Close(ctx context.Context) error {
	r.cache.Purge()
	return r.runtime.Close(ctx)
}

// Load compiles a guest binary and validates it against the bridge
// contract. Binaries already compiled by this runtime are served from the
// cache.
func (r *Runtime) Load(ctx context.Context, wasm []byte) (*Module, error) {
	key := xxhash.Sum64(wasm)

	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	if cached, ok := r.cache.Get(key); ok {
		Logger().Debug("module cache hit", zap.Uint64("key", key))
		return cached.(*Module), nil
	}

	compiled, err := r.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	entries, err := checkContract(compiled.ExportedFunctions(), compiled.ExportedMemories())
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}

	needsWASI := false
	for _, def := range compiled.ImportedFunctions() {
		if mod, _, _ := def.Import(); mod == wasiModule {
			needsWASI = true
			break
		}
	}
	_, hasInit := compiled.ExportedFunctions()[exportInitialize]

	m := &Module{
		runtime:   r,
		compiled:  compiled,
		entries:   entries,
		needsWASI: needsWASI,
		hasInit:   hasInit,
		key:       key,
	}
	// Evicted modules stay usable; their compiled code is released with
	// the runtime.
	r.cache.Add(key, m)

	Logger().Debug("module loaded",
		zap.Uint64("key", key),
		zap.Int("entries", len(entries)),
		zap.Bool("wasi", needsWASI))
	return m, nil
}

// CachedModules returns the number of compiled modules in the cache.
func (r *Runtime) CachedModules() int {
	return r.cache.Len()
}

// initWASI instantiates WASI preview1 once per runtime.
func (r *Runtime) initWASI(ctx context.Context) error {
	r.wasiMu.Lock()
	defer r.wasiMu.Unlock()

	if r.wasiDone || r.runtime.Module(wasiModule) != nil {
		r.wasiDone = true
		return nil
	}
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r.runtime); err != nil {
		return errors.Instantiation(err)
	}
	r.wasiDone = true
	return nil
}
