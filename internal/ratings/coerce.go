package ratings

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// toFloat coerces a raw stat value to float64. The bool reports whether the value was
// usable; unusable values (nil, booleans, non-numeric strings, NaN/Inf) yield 0.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		t = strings.TrimSpace(strings.Trim(t, `"`))
		if t == "" {
			return 0, false
		}
		v = t
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// floatOr returns the coerced value, or fallback when the value is unusable
func floatOr(v any, fallback float64) float64 {
	if f, ok := toFloat(v); ok {
		return f
	}
	return fallback
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
