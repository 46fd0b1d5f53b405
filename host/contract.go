package host

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/fressian-bridge/errors"
)

const (
	exportAlloc      = "alloc"
	exportRelease    = "release"
	exportMemory     = "memory"
	exportInitialize = "_initialize"
)

// contractWIT declares the shapes a guest export may take. alloc and
// release are required; every other export that matches probe or receiver
// is an entry point.
const contractWIT = `
alloc: func(size: u32) -> u32;
release: func(ptr: u32);
probe: func() -> u32;
receiver: func(ptr: u32, cap: u32) -> u32;
`

// EntryKind says whether an entry point takes an argument.
type EntryKind uint8

const (
	// EntryProbe takes no argument.
	EntryProbe EntryKind = iota + 1
	// EntryReceiver takes one encoded argument as (ptr, cap).
	EntryReceiver
)

func (k EntryKind) String() string {
	switch k {
	case EntryProbe:
		return "probe"
	case EntryReceiver:
		return "receiver"
	}
	return "unknown"
}

// Entry is an exported entry point of a guest.
type Entry struct {
	Name string
	Kind EntryKind
}

type coreSignature struct {
	params  []api.ValueType
	results []api.ValueType
}

func (s coreSignature) matches(def api.FunctionDefinition) bool {
	return equalTypes(s.params, def.ParamTypes()) && equalTypes(s.results, def.ResultTypes())
}

func (s coreSignature) String() string {
	return fmt.Sprintf("func(%s) -> (%s)", typeNames(s.params), typeNames(s.results))
}

func equalTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func typeNames(ts []api.ValueType) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = api.ValueTypeName(t)
	}
	return strings.Join(names, ", ")
}

type contract struct {
	alloc, release, probe, receiver coreSignature
}

var bridgeContract = mustContract(contractWIT)

func mustContract(text string) contract {
	sigs, err := parseContract(text)
	if err != nil {
		panic(err)
	}
	return contract{
		alloc:    sigs[exportAlloc],
		release:  sigs[exportRelease],
		probe:    sigs["probe"],
		receiver: sigs["receiver"],
	}
}

var funcPattern = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?`)

// parseContract extracts core signatures from WIT function declarations.
// Pattern: name: func(params) -> result;
func parseContract(text string) (map[string]coreSignature, error) {
	sigs := make(map[string]coreSignature)

	for _, match := range funcPattern.FindAllStringSubmatch(text, -1) {
		name := match[1]
		var sig coreSignature

		if params := strings.TrimSpace(match[2]); params != "" {
			for _, p := range strings.Split(params, ",") {
				typStr := p
				if idx := strings.LastIndex(p, ":"); idx != -1 {
					typStr = p[idx+1:]
				}
				vt, err := lowerWitType(typStr)
				if err != nil {
					return nil, errors.Wrap(errors.PhaseContract, errors.KindInvalidData, err, "parse param type of "+name)
				}
				sig.params = append(sig.params, vt)
			}
		}

		if result := strings.TrimSpace(match[3]); result != "" {
			vt, err := lowerWitType(result)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseContract, errors.KindInvalidData, err, "parse result type of "+name)
			}
			sig.results = []api.ValueType{vt}
		}

		sigs[name] = sig
	}

	if len(sigs) == 0 {
		return nil, errors.InvalidInput(errors.PhaseContract, "no functions found in WIT text")
	}
	return sigs, nil
}

// lowerWitType maps a WIT primitive to the core type it flattens to.
func lowerWitType(s string) (api.ValueType, error) {
	t, err := wit.ParseType(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	switch t.(type) {
	case wit.Bool, wit.U8, wit.S8, wit.U16, wit.S16, wit.U32, wit.S32, wit.Char:
		return api.ValueTypeI32, nil
	case wit.U64, wit.S64:
		return api.ValueTypeI64, nil
	case wit.F32:
		return api.ValueTypeF32, nil
	case wit.F64:
		return api.ValueTypeF64, nil
	}
	return 0, fmt.Errorf("type %q has no single core representation", s)
}

// checkContract validates the exports of a compiled guest and returns its
// entry points sorted by name.
func checkContract(funcs map[string]api.FunctionDefinition, memories map[string]api.MemoryDefinition) ([]Entry, error) {
	problems := make(map[string]string)

	if _, ok := memories[exportMemory]; !ok {
		problems[exportMemory] = "missing exported memory"
	}
	required := []struct {
		name string
		sig  coreSignature
	}{
		{exportAlloc, bridgeContract.alloc},
		{exportRelease, bridgeContract.release},
	}
	for _, r := range required {
		def, ok := funcs[r.name]
		switch {
		case !ok:
			problems[r.name] = "missing export, want " + r.sig.String()
		case !r.sig.matches(def):
			problems[r.name] = fmt.Sprintf("signature func(%s) -> (%s), want %s",
				typeNames(def.ParamTypes()), typeNames(def.ResultTypes()), r.sig)
		}
	}
	if len(problems) > 0 {
		return nil, errors.NewContractError(problems)
	}

	var entries []Entry
	for name, def := range funcs {
		switch name {
		case exportAlloc, exportRelease, exportInitialize:
			continue
		}
		switch {
		case bridgeContract.probe.matches(def):
			entries = append(entries, Entry{Name: name, Kind: EntryProbe})
		case bridgeContract.receiver.matches(def):
			entries = append(entries, Entry{Name: name, Kind: EntryReceiver})
		default:
			Logger().Debug("export is not an entry point: " + name)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
