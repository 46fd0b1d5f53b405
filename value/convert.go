package value

import (
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wippyai/fressian-bridge/errors"
)

var (
	timeType   = reflect.TypeOf(time.Time{})
	bigIntType = reflect.TypeOf(big.Int{})
	valueType  = reflect.TypeOf((*Value)(nil)).Elem()
	valuerType = reflect.TypeOf((*Valuer)(nil)).Elem()
)

// Of converts a native Go value into a Value.
//
// Supported inputs: nil, Value, Valuer, bool, every integer and float type,
// string, []byte, time.Time, big.Int, pointers, slices, arrays, maps and
// structs. Map entries are ordered by the rendering of their keys so the
// result is deterministic. Struct fields become keyword keyed map entries;
// the `fressian:"name,omitempty"` tag renames a field and "-" skips it.
func Of(v any) (Value, error) {
	return convert(reflect.ValueOf(v), nil)
}

// MustOf is Of for literals known to be convertible. It panics on error.
func MustOf(v any) Value {
	out, err := Of(v)
	if err != nil {
		panic(err)
	}
	return out
}

func convert(rv reflect.Value, path []string) (Value, error) {
	if !rv.IsValid() {
		return Nil{}, nil
	}

	// *Int and friends implement Value through their method sets; only
	// the non-pointer forms may appear inside a Value tree.
	if rv.Kind() != reflect.Pointer && rv.Type().Implements(valueType) {
		if isNilable(rv) && rv.IsNil() {
			return Nil{}, nil
		}
		return rv.Interface().(Value), nil
	}
	if rv.Type().Implements(valuerType) {
		if isNilable(rv) && rv.IsNil() {
			return Nil{}, nil
		}
		return rv.Interface().(Valuer).ToValue(), nil
	}

	switch rv.Type() {
	case timeType:
		return InstOf(rv.Interface().(time.Time)), nil
	case bigIntType:
		n := rv.Interface().(big.Int)
		return BigInt{V: new(big.Int).Set(&n)}, nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return BigInt{V: new(big.Int).SetUint64(u)}, nil
		}
		return Int(int64(u)), nil

	case reflect.Float32:
		return Float(float32(rv.Float())), nil

	case reflect.Float64:
		return Double(rv.Float()), nil

	case reflect.String:
		s := rv.String()
		if !utf8.ValidString(s) {
			return nil, errors.InvalidUTF8(errors.PhaseConvert, path, []byte(s))
		}
		return String(s), nil

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Nil{}, nil
		}
		return convert(rv.Elem(), path)

	case reflect.Slice:
		if rv.IsNil() {
			return Nil{}, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return Bytes(b), nil
		}
		return convertSeq(rv, path)

	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return Bytes(b), nil
		}
		return convertSeq(rv, path)

	case reflect.Map:
		if rv.IsNil() {
			return Nil{}, nil
		}
		return convertMap(rv, path)

	case reflect.Struct:
		return convertStruct(rv, path)
	}

	return nil, errors.TypeMismatch(errors.PhaseConvert, path, rv.Type().String(), "no value form for "+rv.Kind().String())
}

func isNilable(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func convertSeq(rv reflect.Value, path []string) (Value, error) {
	out := make(List, rv.Len())
	for i := range out {
		v, err := convert(rv.Index(i), append(path, "["+strconv.Itoa(i)+"]"))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func convertMap(rv reflect.Value, path []string) (Value, error) {
	type pair struct {
		key  Value
		val  Value
		sort string
	}

	pairs := make([]pair, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := convert(iter.Key(), append(path, "<key>"))
		if err != nil {
			return nil, err
		}
		name := Format(k)
		v, err := convert(iter.Value(), append(path, name))
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair{key: k, val: v, sort: name})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].sort < pairs[j].sort })

	out := make(Map, len(pairs))
	for i, p := range pairs {
		out[i] = Entry{Key: p.key, Val: p.val}
	}
	return out, nil
}

func convertStruct(rv reflect.Value, path []string) (Value, error) {
	rt := rv.Type()
	out := make(Map, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name, omitEmpty, skip := parseTag(field)
		if skip {
			continue
		}
		fv := rv.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}

		v, err := convert(fv, append(path, name))
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Key: Kw(name), Val: v})
	}
	return out, nil
}

func parseTag(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag, ok := field.Tag.Lookup("fressian")
	if !ok {
		return toKebab(field.Name), false, false
	}
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = toKebab(field.Name)
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

// toKebab maps Go field names to keyword style: UserID -> user-id.
func toKebab(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			prevUpper := runes[i-1] >= 'A' && runes[i-1] <= 'Z'
			if prevLower || (prevUpper && nextLower) {
				b.WriteByte('-')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
