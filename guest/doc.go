// Package guest composes guest entry points out of the boundary adapter.
//
// Every entry point follows the same shape: receive the borrowed argument
// buffer (if any), decode it, run the logic, and deliver either the result
// or the failure as a value. Nothing escapes as a trap: decode failures,
// handler errors and panics are all delivered as fressian error records.
//
// A pointer of 0 is returned only when the memory itself cannot hold the
// delivered buffer; hosts treat it as a fatal guest fault.
//
// The package is independent of GOOS. cmd/guest binds a Module to the
// module's own linear memory and exports it with //go:wasmexport; tests bind
// it to a boundary.Heap.
package guest
