package fressian

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/wippyai/fressian-bridge/value"
)

func TestError_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
	}{
		{"message", Message("something broke")},
		{"message with verbs", Message("100% %d")},
		{"unmatched code", UnmatchedCode(42, 43)},
		{"syntax", Syntax(SyntaxUnsupportedCache, 3)},
		{"syntax eof", Syntax(SyntaxEOF, 1 << 40)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(tt.err)
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			v, err := Decode(b)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			got, ok := ErrorFromValue(v)
			if !ok {
				t.Fatalf("ErrorFromValue(%s) did not recognise the record", v)
			}
			if *got != *tt.err {
				t.Errorf("round trip = %+v, want %+v", *got, *tt.err)
			}
		})
	}
}

func TestError_ToValue(t *testing.T) {
	got := UnmatchedCode(42, 43).ToValue()
	want := "{:type :unmatched-code, :expected 42, :actual 43}"
	if value.Format(got) != want {
		t.Errorf("ToValue() = %s, want %s", got, want)
	}

	got = Syntax(SyntaxUnsupportedCache, 3).ToValue()
	want = "{:type :syntax, :code :unsupported-cache, :detail 3}"
	if value.Format(got) != want {
		t.Errorf("ToValue() = %s, want %s", got, want)
	}
}

func TestErrorFromValue_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   value.Value
	}{
		{"not a map", value.List{value.Int(1)}},
		{"no type", value.Map{{Key: value.Kw("message"), Val: value.String("x")}}},
		{"unknown type", value.Map{{Key: value.Kw("type"), Val: value.Kw("oops")}}},
		{"namespaced type", value.Map{{Key: value.Kw("type"), Val: value.Kw("a/message")}, {Key: value.Kw("message"), Val: value.String("x")}}},
		{"wrong field type", value.Map{{Key: value.Kw("type"), Val: value.Kw("message")}, {Key: value.Kw("message"), Val: value.Int(1)}}},
		{"extra field", value.Map{
			{Key: value.Kw("type"), Val: value.Kw("message")},
			{Key: value.Kw("message"), Val: value.String("x")},
			{Key: value.Kw("extra"), Val: value.Nil{}},
		}},
		{"missing actual", value.Map{
			{Key: value.Kw("type"), Val: value.Kw("unmatched-code")},
			{Key: value.Kw("expected"), Val: value.Int(1)},
			{Key: value.Kw("other"), Val: value.Int(1)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if e, ok := ErrorFromValue(tt.in); ok {
				t.Errorf("ErrorFromValue(%s) = %+v, want rejection", tt.in, e)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	eof := Syntax(SyntaxEOF, 12)
	if !stderrors.Is(eof, ErrEOF) {
		t.Error("eof should match ErrEOF")
	}
	if !stderrors.Is(eof, ErrSyntax) {
		t.Error("eof should match ErrSyntax")
	}
	if stderrors.Is(eof, ErrTrailingBytes) {
		t.Error("eof should not match ErrTrailingBytes")
	}
	if stderrors.Is(eof, ErrUnmatchedCode) {
		t.Error("eof should not match ErrUnmatchedCode")
	}

	wrapped := fmt.Errorf("call echo: %w", UnmatchedCode(1, 2))
	if !stderrors.Is(wrapped, ErrUnmatchedCode) {
		t.Error("wrapped error should match ErrUnmatchedCode")
	}
}

func TestAsError(t *testing.T) {
	if AsError(nil) != nil {
		t.Error("AsError(nil) should be nil")
	}

	orig := Syntax(SyntaxOddMap, 4)
	if AsError(fmt.Errorf("ctx: %w", orig)) != orig {
		t.Error("AsError should unwrap to the original *Error")
	}

	got := AsError(stderrors.New("plain"))
	if got.Kind != KindMessage || got.Message != "plain" {
		t.Errorf("AsError(plain) = %+v", got)
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{Message("boom"), "boom"},
		{UnmatchedCode(0xE3, 0x05), "expected 0xE3, got 0x05"},
		{Syntax(SyntaxTrailingBytes, 9), "trailing-bytes (9)"},
	}
	for _, tt := range tests {
		if msg := tt.err.Error(); !strings.Contains(msg, tt.want) {
			t.Errorf("Error() = %q, want it to contain %q", msg, tt.want)
		}
	}
}
