package value

import (
	stderrors "errors"
	"math"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/wippyai/fressian-bridge/errors"
)

type point struct{ X, Y int }

func (p point) ToValue() Value {
	return Tagged{Tag: "point", Fields: List{Int(p.X), Int(p.Y)}}
}

type account struct {
	UserID   int
	Name     string `fressian:"n"`
	Password string `fressian:"-"`
	Nick     string `fressian:",omitempty"`
	internal int
}

func TestOf(t *testing.T) {
	seven := 7
	var nilPtr *int

	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Nil{}},
		{"nil pointer", nilPtr, Nil{}},
		{"value passthrough", Int(5), Int(5)},
		{"bool", true, Bool(true)},
		{"int", 42, Int(42)},
		{"int8", int8(-3), Int(-3)},
		{"uint32", uint32(math.MaxUint32), Int(math.MaxUint32)},
		{"uint64 overflow", uint64(math.MaxUint64), BigInt{V: new(big.Int).SetUint64(math.MaxUint64)}},
		{"float32", float32(1.5), Float(1.5)},
		{"float64", 2.25, Double(2.25)},
		{"string", "hello", String("hello")},
		{"bytes", []byte{1, 2}, Bytes{1, 2}},
		{"byte array", [2]byte{3, 4}, Bytes{3, 4}},
		{"pointer", &seven, Int(7)},
		{"slice", []int{1, 2}, List{Int(1), Int(2)}},
		{"nil slice", []string(nil), Nil{}},
		{"nested any", []any{"a", nil, []int{1}}, List{String("a"), Nil{}, List{Int(1)}}},
		{"time", time.UnixMilli(1500), Inst(1500)},
		{"big int", big.NewInt(-9), BigInt{V: big.NewInt(-9)}},
		{"valuer", point{1, 2}, Tagged{Tag: "point", Fields: List{Int(1), Int(2)}}},
		{
			"map sorted by key",
			map[string]int{"b": 2, "a": 1},
			Map{{String("a"), Int(1)}, {String("b"), Int(2)}},
		},
		{
			"struct",
			account{UserID: 1, Name: "x", Password: "secret", internal: 3},
			Map{{Kw("user-id"), Int(1)}, {Kw("n"), String("x")}},
		},
		{
			"struct omitempty set",
			account{Nick: "z"},
			Map{{Kw("user-id"), Int(0)}, {Kw("n"), String("")}, {Kw("nick"), String("z")}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Of(tt.in)
			if err != nil {
				t.Fatalf("Of() error: %v", err)
			}
			if !Equal(got, tt.want) {
				t.Errorf("Of() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOf_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   any
		kind errors.Kind
	}{
		{"channel", make(chan int), errors.KindTypeMismatch},
		{"func", func() {}, errors.KindTypeMismatch},
		{"complex", complex(1, 2), errors.KindTypeMismatch},
		{"invalid utf8", string([]byte{0xff, 0xfe}), errors.KindInvalidUTF8},
		{"nested channel", map[string]any{"c": make(chan int)}, errors.KindTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Of(tt.in)
			if err == nil {
				t.Fatal("expected error")
			}
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConvert, Kind: tt.kind}) {
				t.Errorf("error %v is not %s", err, tt.kind)
			}
		})
	}
}

func TestMustOf_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustOf should panic on unconvertible input")
		}
	}()
	MustOf(make(chan int))
}

func TestToKebab(t *testing.T) {
	tests := map[string]string{
		"Name":      "name",
		"UserID":    "user-id",
		"HTTPCode":  "http-code",
		"already":   "already",
		"MaxDepth2": "max-depth2",
	}
	for in, want := range tests {
		if got := toKebab(in); got != want {
			t.Errorf("toKebab(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNative(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want any
	}{
		{"nil", Nil{}, nil},
		{"int", Int(3), int64(3)},
		{"string", String("s"), "s"},
		{"keyword", Kw("a/b"), ":a/b"},
		{"list", List{Int(1), Bool(false)}, []any{int64(1), false}},
		{"keyword map", Map{{Kw("a"), Int(1)}, {String("b"), Nil{}}}, map[string]any{":a": int64(1), "b": nil}},
		{"int keyed map", Map{{Int(1), String("x")}}, map[any]any{int64(1): "x"}},
		{"composite key", Map{{List{Int(1)}, Int(2)}}, map[any]any{"[1]": int64(2)}},
		{"duplicate keys keep first", Map{{String("k"), Int(1)}, {String("k"), Int(2)}}, map[string]any{"k": int64(1)}},
		{"uuid", UUID{}, "00000000-0000-0000-0000-000000000000"},
		{"char", Char('x'), 'x'},
		{"tagged", Tagged{Tag: "t", Fields: List{Int(1)}}, map[string]any{"tag": "t", "fields": []any{int64(1)}}},
		{"long array", LongArray{1}, []int64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Native(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Native() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestNative_Inst(t *testing.T) {
	got, ok := Native(Inst(1500)).(time.Time)
	if !ok || !got.Equal(time.UnixMilli(1500)) {
		t.Errorf("Native(Inst) = %v", got)
	}
}
