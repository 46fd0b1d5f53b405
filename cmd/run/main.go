package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/fressian-bridge/boundary"
	"github.com/wippyai/fressian-bridge/host"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to guest wasm file")
		funcName    = flag.String("func", "", "Entry point to call (default hello)")
		argStr      = flag.String("arg", "", "Argument for receivers: a JSON literal, or a plain string")
		format      = flag.String("format", "text", "Output format: text, json or msgpack")
		list        = flag.Bool("list", false, "List entry points and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Log boundary traffic to stderr")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -wasm <guest.wasm> [-func name] [-arg value] [-format text|json|msgpack]")
		fmt.Fprintln(os.Stderr, "       run -wasm <guest.wasm> -list")
		fmt.Fprintln(os.Stderr, "       run -wasm <guest.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			host.SetLogger(l)
			boundary.SetLogger(l)
			defer func() { _ = l.Sync() }()
		}
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*wasmFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	out, err := parseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(os.Stdout, *wasmFile, *funcName, *argStr, out, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, wasmFile, funcName, argStr string, format outputFormat, listOnly bool) error {
	ctx := context.Background()

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	rt, err := host.NewWithConfig(ctx, &host.Config{Stdout: os.Stderr, Stderr: os.Stderr})
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close(ctx)

	module, err := rt.Load(ctx, data)
	if err != nil {
		return fmt.Errorf("load guest: %w", err)
	}

	if listOnly {
		fmt.Fprintf(w, "Guest: %s\n\nEntry points:\n", wasmFile)
		for _, e := range module.Entries() {
			fmt.Fprintf(w, "  %s\n", formatEntry(e))
		}
		return nil
	}

	if funcName == "" {
		funcName = "hello"
	}
	entry, ok := module.Entry(funcName)
	if !ok {
		return fmt.Errorf("no entry point %q; use -list to see them", funcName)
	}

	instance, err := module.Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	defer instance.Close(ctx)

	var args []any
	if entry.Kind == host.EntryReceiver && argStr != "" {
		args = append(args, parseArg(argStr))
	}

	result, err := instance.Call(ctx, funcName, args...)
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}

	color := format == formatText && isTerminal(w)
	return writeResult(w, result, format, color)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
