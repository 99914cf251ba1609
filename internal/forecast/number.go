package forecast

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToNumber coerces v to a finite float64. Empty strings count as zero and
// booleans as 0 or 1; anything that does not yield a finite number returns
// fallback.
func ToNumber(v any, fallback float64) float64 {
	n, ok := number(v)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return fallback
	}
	return n
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// numericField returns the value of a field that is already a JSON number.
// Strings are not accepted here even when they look numeric.
func numericField(v any) (float64, bool) {
	switch v.(type) {
	case float64, float32, int, int64, json.Number:
		n, ok := number(v)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// firstPresent returns the first value among keys that is present and not null.
func firstPresent(e Entry, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := e[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
