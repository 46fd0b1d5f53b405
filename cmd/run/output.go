package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/wippyai/fressian-bridge/fressian"
	"github.com/wippyai/fressian-bridge/host"
	"github.com/wippyai/fressian-bridge/value"
)

type outputFormat int

const (
	formatText outputFormat = iota
	formatJSON
	formatMsgpack
)

func parseFormat(s string) (outputFormat, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return formatText, nil
	case "json":
		return formatJSON, nil
	case "msgpack":
		return formatMsgpack, nil
	}
	return 0, fmt.Errorf("unknown format %q (want text, json or msgpack)", s)
}

// parseArg reads a command line argument as a JSON literal. Anything that
// is not valid JSON is passed as a plain string.
func parseArg(s string) any {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return s
	}
	return fromJSON(v)
}

// fromJSON narrows json.Number to int64 where it fits.
func fromJSON(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = fromJSON(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = fromJSON(t[k])
		}
		return t
	}
	return v
}

// writeResult renders a delivered value. Error records are labelled in text
// output so they stand out from ordinary results.
func writeResult(w io.Writer, v value.Value, format outputFormat, color bool) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonSafe(value.Native(v)))

	case formatMsgpack:
		b, err := msgpack.Marshal(value.Native(v))
		if err != nil {
			return fmt.Errorf("encode msgpack: %w", err)
		}
		_, err = w.Write(b)
		return err
	}

	text := value.Format(v)
	label := "Result: "
	style := resultStyle
	if fe, ok := fressian.ErrorFromValue(v); ok {
		label = "Guest error (" + fe.Kind.String() + "): "
		style = errorStyle
	}
	if color {
		text = style.Render(text)
	}
	_, err := fmt.Fprintln(w, label+text)
	return err
}

// jsonSafe replaces map[any]any, which encoding/json rejects, with
// string-keyed maps.
func jsonSafe(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonSafe(val)
		}
		return out
	case map[string]any:
		for k, val := range t {
			t[k] = jsonSafe(val)
		}
		return t
	case []any:
		for i := range t {
			t[i] = jsonSafe(t[i])
		}
		return t
	}
	return v
}

func formatEntry(e host.Entry) string {
	if e.Kind == host.EntryReceiver {
		return e.Name + "(ptr: u32, cap: u32) -> u32  [receiver]"
	}
	return e.Name + "() -> u32  [probe]"
}
