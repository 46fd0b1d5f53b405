package fressian

import (
	stderrors "errors"
	"fmt"

	"github.com/wippyai/fressian-bridge/value"
)

// ErrorKind selects which fields of an Error are meaningful.
type ErrorKind uint8

const (
	// KindMessage carries free text in Message.
	KindMessage ErrorKind = iota + 1
	// KindUnmatchedCode reports a type tag other than the one required.
	KindUnmatchedCode
	// KindSyntax reports a malformed stream. Code names the problem,
	// Detail holds the offset, index or code involved.
	KindSyntax
)

func (k ErrorKind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindUnmatchedCode:
		return "unmatched-code"
	case KindSyntax:
		return "syntax"
	}
	return "unknown"
}

// SyntaxCode names a structural problem in a byte stream.
type SyntaxCode string

const (
	SyntaxEOF                 SyntaxCode = "eof"
	SyntaxTrailingBytes       SyntaxCode = "trailing-bytes"
	SyntaxInvalidUTF8         SyntaxCode = "invalid-utf8"
	SyntaxCacheMiss           SyntaxCode = "cache-miss"
	SyntaxStructCacheMiss     SyntaxCode = "struct-cache-miss"
	SyntaxNegativeCount       SyntaxCode = "negative-count"
	SyntaxOddMap              SyntaxCode = "odd-map"
	SyntaxDuplicateSetElement SyntaxCode = "duplicate-set-element"
	SyntaxBadUUID             SyntaxCode = "bad-uuid"
	SyntaxIntOverflow         SyntaxCode = "int-overflow"
	SyntaxBadFooter           SyntaxCode = "bad-footer"
	SyntaxChecksumMismatch    SyntaxCode = "checksum-mismatch"
	SyntaxUnsupportedCache    SyntaxCode = "unsupported-cache"
	SyntaxTooDeep             SyntaxCode = "too-deep"
	SyntaxUnexpectedEnd       SyntaxCode = "unexpected-end"
)

// Error is the one failure type that crosses the boundary. It converts to
// and from a Value, so a guest can deliver it like any other result.
type Error struct {
	Kind     ErrorKind
	Message  string
	Expected int
	Actual   int
	Code     SyntaxCode
	Detail   int64
}

// Sentinels for errors.Is. Syntax sentinels match on Code.
var (
	ErrMessage       = &Error{Kind: KindMessage}
	ErrUnmatchedCode = &Error{Kind: KindUnmatchedCode}
	ErrSyntax        = &Error{Kind: KindSyntax}
	ErrEOF           = &Error{Kind: KindSyntax, Code: SyntaxEOF}
	ErrTrailingBytes = &Error{Kind: KindSyntax, Code: SyntaxTrailingBytes}
)

// Message builds a KindMessage error.
func Message(text string) *Error {
	return &Error{Kind: KindMessage, Message: text}
}

// Messagef builds a KindMessage error from a format string.
func Messagef(format string, args ...any) *Error {
	return Message(fmt.Sprintf(format, args...))
}

// UnmatchedCode builds a KindUnmatchedCode error.
func UnmatchedCode(expected, actual int) *Error {
	return &Error{Kind: KindUnmatchedCode, Expected: expected, Actual: actual}
}

// Syntax builds a KindSyntax error.
func Syntax(code SyntaxCode, detail int64) *Error {
	return &Error{Kind: KindSyntax, Code: code, Detail: detail}
}

// AsError returns err as an *Error, wrapping foreign errors in a message.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if stderrors.As(err, &fe) {
		return fe
	}
	return Message(err.Error())
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMessage:
		return "fressian: " + e.Message
	case KindUnmatchedCode:
		return fmt.Sprintf("fressian: unmatched code: expected 0x%02X, got 0x%02X", e.Expected, e.Actual)
	case KindSyntax:
		return fmt.Sprintf("fressian: syntax error %s (%d)", e.Code, e.Detail)
	}
	return "fressian: unknown error"
}

// Is matches on Kind, and on Code when the target names one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Code == "" || e.Code == t.Code
}

var (
	kwType     = value.Kw("type")
	kwMessage  = value.Kw("message")
	kwExpected = value.Kw("expected")
	kwActual   = value.Kw("actual")
	kwCode     = value.Kw("code")
	kwDetail   = value.Kw("detail")
)

// ToValue renders the error as a keyword keyed map:
//
//	{:type :message, :message "text"}
//	{:type :unmatched-code, :expected 42, :actual 43}
//	{:type :syntax, :code :eof, :detail 12}
func (e *Error) ToValue() value.Value {
	kind := value.Keyword{Name: e.Kind.String()}
	switch e.Kind {
	case KindMessage:
		return value.Map{
			{Key: kwType, Val: kind},
			{Key: kwMessage, Val: value.String(e.Message)},
		}
	case KindUnmatchedCode:
		return value.Map{
			{Key: kwType, Val: kind},
			{Key: kwExpected, Val: value.Int(e.Expected)},
			{Key: kwActual, Val: value.Int(e.Actual)},
		}
	case KindSyntax:
		return value.Map{
			{Key: kwType, Val: kind},
			{Key: kwCode, Val: value.Keyword{Name: string(e.Code)}},
			{Key: kwDetail, Val: value.Int(e.Detail)},
		}
	}
	return value.Map{{Key: kwType, Val: kind}}
}

// ErrorFromValue recognises the map produced by ToValue.
func ErrorFromValue(v value.Value) (*Error, bool) {
	m, ok := v.(value.Map)
	if !ok {
		return nil, false
	}
	t, ok := m.Get(kwType)
	if !ok {
		return nil, false
	}
	kind, ok := t.(value.Keyword)
	if !ok || kind.Namespace != "" {
		return nil, false
	}

	switch kind.Name {
	case "message":
		if len(m) != 2 {
			return nil, false
		}
		msg, ok := getAs[value.String](m, kwMessage)
		if !ok {
			return nil, false
		}
		return Message(string(msg)), true

	case "unmatched-code":
		if len(m) != 3 {
			return nil, false
		}
		expected, ok1 := getAs[value.Int](m, kwExpected)
		actual, ok2 := getAs[value.Int](m, kwActual)
		if !ok1 || !ok2 {
			return nil, false
		}
		return UnmatchedCode(int(expected), int(actual)), true

	case "syntax":
		if len(m) != 3 {
			return nil, false
		}
		code, ok1 := getAs[value.Keyword](m, kwCode)
		detail, ok2 := getAs[value.Int](m, kwDetail)
		if !ok1 || !ok2 || code.Namespace != "" {
			return nil, false
		}
		return Syntax(SyntaxCode(code.Name), int64(detail)), true
	}
	return nil, false
}

func getAs[T value.Value](m value.Map, key value.Keyword) (T, bool) {
	var zero T
	v, ok := m.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
