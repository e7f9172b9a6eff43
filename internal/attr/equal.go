package attr

import (
	"reflect"
	"strconv"
	"strings"
)

// LooseEqual compares two attribute values the way change detection
// expects:
//
//   - absent values are equal to each other: nil, nil references, and ""
//   - numbers compare by value across Go numeric kinds; NaN equals nothing
//   - a number or bool compares against a numeric string by value, with
//     "" counting as zero and bools as 0 or 1
//   - two strings compare exactly
//   - everything else falls back to reflect.DeepEqual
//
// Binding layers write back "" where the store held nil, and must not see
// that as a change. nil is not equal to 0 or false.
func LooseEqual(a, b any) bool {
	aAbsent, bAbsent := isAbsent(a), isAbsent(b)
	if aAbsent && bAbsent {
		return true
	}

	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return as == bs
	}

	if isNumeric(a) || isNumeric(b) {
		af, aok := coerce(a)
		bf, bok := coerce(b)
		return aok && bok && af == bf
	}

	if aAbsent || bAbsent {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// isAbsent reports whether v stands for "no value".
func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func isNumeric(v any) bool {
	if _, ok := v.(bool); ok {
		return true
	}
	_, ok := Number(v)
	return ok
}

// coerce converts for loose comparison: bools become 0 or 1 and "" is
// zero. nil does not convert.
func coerce(v any) (float64, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		if strings.TrimSpace(x) == "" {
			return 0, true
		}
	}
	return ParseNumber(v)
}

// Number extracts a float64 from any Go numeric kind.
func Number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// ParseNumber is Number extended to numeric strings.
func ParseNumber(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return Number(v)
}
