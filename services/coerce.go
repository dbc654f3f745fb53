package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Coercion helpers turn loosely typed upstream values into typed scalars.
// They never fail: anything that cannot be read cleanly becomes nil.

// ToInt coerces v to an integer, truncating fractional values.
func ToInt(v any) *int64 {
	switch x := v.(type) {
	case *int64:
		return x
	case int64:
		return &x
	case int:
		n := int64(x)
		return &n
	case int32:
		n := int64(x)
		return &n
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case json.Number:
		return parseInt(string(x))
	case string:
		return parseInt(x)
	}
	return nil
}

// ToFloat coerces v to a finite float.
func ToFloat(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case *float64:
		return x
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int64:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		return parseFloat(string(x))
	case string:
		return parseFloat(x)
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

var (
	truthy = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "1": true, "on": true}
	falsy  = map[string]bool{"false": true, "f": true, "no": true, "n": true, "0": true, "off": true}
)

// ToBool coerces textual and numeric flags to a strict boolean.
// Numbers other than 0 and 1 are not flags and yield nil.
func ToBool(v any) *bool {
	var b bool
	switch x := v.(type) {
	case *bool:
		return x
	case bool:
		b = x
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		switch {
		case truthy[s]:
			b = true
		case falsy[s]:
			b = false
		default:
			return nil
		}
	default:
		n := ToFloat(v)
		if n == nil || (*n != 0 && *n != 1) {
			return nil
		}
		b = *n == 1
	}
	return &b
}

// ToText returns trimmed text for strings and the decimal form of numbers.
// Empty strings, booleans and containers yield nil.
func ToText(v any) *string {
	var s string
	switch x := v.(type) {
	case *string:
		return x
	case string:
		s = strings.TrimSpace(x)
	case json.Number:
		s = string(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case int:
		s = strconv.Itoa(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		s = strconv.FormatFloat(x, 'f', -1, 64)
	}
	if s == "" {
		return nil
	}
	return &s
}

func floatToInt(f float64) *int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	f = math.Trunc(f)
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil
	}
	n := int64(f)
	return &n
}

func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	return strings.ReplaceAll(s, ",", "")
}

func parseInt(s string) *int64 {
	s = cleanNumber(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return floatToInt(f)
}

func parseFloat(s string) *float64 {
	s = cleanNumber(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
