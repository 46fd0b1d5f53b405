// Package host runs bridge guests under wazero.
//
// A guest satisfies the bridge contract when it exports its memory, an
// alloc(size u32) -> u32 allocator and a release(ptr u32) deallocator.
// Every other export shaped like func() -> u32 is a probe and every export
// shaped like func(ptr u32, cap u32) -> u32 is a receiver. Both return a
// pointer to a delivered buffer: a little-endian u32 length followed by a
// fressian payload.
//
// A call copies the delivered buffer out of linear memory before anything
// else runs in the guest, then releases it together with the argument
// buffer it allocated. No guest allocation outlives the call.
//
// Guests importing wasi_snapshot_preview1 get WASI instantiated in the
// runtime on first use; reactors exporting _initialize have it run once per
// instance.
//
// Usage:
//
//	rt, err := host.New(ctx)
//	mod, err := rt.Load(ctx, wasmBytes)
//	inst, err := mod.Instantiate(ctx)
//	v, err := host.Result(inst.Call(ctx, "echo", []string{"hello"}))
package host

//go:generate env GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o testdata/guest.wasm ../cmd/guest
