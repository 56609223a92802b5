package models

import (
	"encoding/json"
	"math"
)

// RegistrationCount returns the marathon's registration counter and whether it
// currently holds a usable number.
func RegistrationCount(m Document) (int64, bool) {
	v, ok := m[RegistrationCountField]
	if !ok {
		return 0, false
	}

	return ToInt64(v)
}

// BackfillRegistrationCount sets the counter to 0 when it is missing or not a
// number. It reports whether the document was changed.
func BackfillRegistrationCount(m Document) bool {
	if _, ok := RegistrationCount(m); ok {
		return false
	}
	m[RegistrationCountField] = int64(0)

	return true
}

// ToInt64 converts the numeric types produced by the JSON and BSON decoders.
func ToInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt64(f)
	}

	return 0, false
}

func floatToInt64(f float64) (int64, bool) {
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}

	return int64(f), true
}
