// Package bridge lets a host exchange arbitrary structured values with a
// compiled WebAssembly guest through a flat (pointer, length) calling
// convention.
//
// Everything that crosses the boundary is reduced to Fressian bytes and
// reconstituted on the other side into the closed value model.
//
// # Architecture Overview
//
//	bridge/            Root package with core Memory and Allocator interfaces
//	├── value/         Intermediate value model (closed variant set)
//	├── fressian/      Wire codec and the serializable error taxonomy
//	├── boundary/      Pointer handling: receive, deliver, release, collect
//	├── guest/         Entry point compositions exposed by the guest
//	├── host/          wazero runtime driving a guest from Go
//	├── errors/        Structured errors for host and boundary failures
//	└── cmd/           guest (wasip1 build) and run (CLI)
//
// # Data Flow
//
// A guest entry point taking input runs:
//
//	(ptr, cap) → Receive → Decode → application logic → Deliver → ptr
//
// Deliver writes a single allocation laid out as
//
//	┌──────────────┬───────────────────────┐
//	│ u32 len (LE) │ Fressian payload      │
//	└──────────────┴───────────────────────┘
//
// and returns its address.
//
// # Ownership
//
// The host copies a delivered buffer out as soon as the call returns and
// then calls the guest's release export. Buffers the host writes into guest
// memory as arguments are borrowed by the guest for that call only.
//
// # Quick Start
//
//	rt, err := host.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.Load(ctx, wasmBytes)
//	inst, err := mod.Instantiate(ctx)
//	defer inst.Close(ctx)
//
//	v, err := inst.Call(ctx, "echo", []string{"hello", "from", "guest"})
//	fmt.Println(v) // ["hello" "from" "guest"]
package bridge
