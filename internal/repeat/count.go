package repeat

import (
	"encoding/json"
	"math"
	"strconv"
)

// ExpectedType names the accepted argument type in mismatch errors.
const ExpectedType = "non-negative integer"

// DecodeCount interprets a dynamic engine value as a repetition count.
// Integral values that fit in a uint64 are accepted, whatever their Go type;
// everything else reports ok == false.
func DecodeCount(value interface{}) (count uint64, ok bool) {
	switch v := value.(type) {
	case int:
		return signed(int64(v))
	case int8:
		return signed(int64(v))
	case int16:
		return signed(int64(v))
	case int32:
		return signed(int64(v))
	case int64:
		return signed(v)
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	case float32:
		return float(float64(v))
	case float64:
		return float(v)
	case json.Number:
		if n, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return float(f)
		}
		return 0, false
	default:
		return 0, false
	}
}

func signed(v int64) (uint64, bool) {
	if v < 0 {
		return 0, false
	}
	return uint64(v), true
}

// float accepts whole numbers only; 2^64 is the first float64 past the range.
func float(v float64) (uint64, bool) {
	if math.IsNaN(v) || v < 0 || v >= 1<<64 || v != math.Trunc(v) {
		return 0, false
	}
	return uint64(v), true
}
