//go:build wasip1

// Command guest is the demonstration guest module.
//
// Build it as a WASI reactor:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o guest.wasm ./cmd/guest
//
// Set FRESSIAN_GUEST_LOG=debug to log boundary traffic to stderr.
package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/fressian-bridge/boundary"
	"github.com/wippyai/fressian-bridge/guest"
)

var mod = newModule()

func newModule() *guest.Module {
	if os.Getenv("FRESSIAN_GUEST_LOG") == "debug" {
		if l, err := zap.NewDevelopment(); err == nil {
			guest.SetLogger(l)
			boundary.SetLogger(l)
		}
	}
	mem := boundary.NewLinear()
	return guest.New(mem, mem)
}

//go:wasmexport alloc
func alloc(size uint32) uint32 { return mod.Alloc(size) }

//go:wasmexport release
func release(ptr uint32) { mod.Release(ptr) }

//go:wasmexport hello
func hello() uint32 { return mod.Hello() }

//go:wasmexport errors
func errors() uint32 { return mod.Errors() }

//go:wasmexport echo
func echo(ptr, capacity uint32) uint32 { return mod.Echo(ptr, capacity) }

//go:wasmexport describe
func describe(ptr, capacity uint32) uint32 { return mod.Describe(ptr, capacity) }

//go:wasmexport fail
func fail(ptr, capacity uint32) uint32 { return mod.Fail(ptr, capacity) }

func main() {}
