// Package boundary moves encoded values across the linear memory boundary
// between a WebAssembly guest and its host.
//
// Every delivered result is one allocation laid out as
//
//	[u32 payload length, little endian][payload bytes]
//
// and the pointer to the header is the only thing returned to the host. The
// host copies the payload out with [Collect] and then calls the guest's
// release export, which ends up in [Adapter.Release].
//
// Inputs travel the other way: the host allocates a buffer through the
// guest's alloc export, writes the encoded argument and passes
// (ptr, capacity). [Adapter.Receive] copies exactly capacity bytes; the
// buffer is only borrowed for the duration of the call.
//
// Two memories implement [bridge.Memory] and [bridge.Allocator]:
//
//   - [Heap] is a pure Go linear memory with a first-fit allocator. Tests and
//     native builds use it, and it reports outstanding allocations.
//   - Linear (wasip1 only) addresses the module's own linear memory and pins
//     every allocation until it is released.
package boundary
