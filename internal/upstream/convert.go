package upstream

import (
	"fmt"
	"math"
)

// asBool accepts booleans and integer flags (non-zero = true).
func asBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case nil:
		return false, fmt.Errorf("empty value")
	}

	n, err := asInt(v)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// asInt accepts any integer type that fits in int.
func asInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int8:
		return int(x), nil
	case int16:
		return int(x), nil
	case int32:
		return int(x), nil
	case int64:
		if x < math.MinInt || x > math.MaxInt {
			return 0, fmt.Errorf("value %d out of range", x)
		}
		return int(x), nil
	case uint:
		if x > math.MaxInt {
			return 0, fmt.Errorf("value %d out of range", x)
		}
		return int(x), nil
	case uint8:
		return int(x), nil
	case uint16:
		return int(x), nil
	case uint32:
		if uint64(x) > math.MaxInt {
			return 0, fmt.Errorf("value %d out of range", x)
		}
		return int(x), nil
	case uint64:
		if x > math.MaxInt {
			return 0, fmt.Errorf("value %d out of range", x)
		}
		return int(x), nil
	case nil:
		return 0, fmt.Errorf("empty value")
	default:
		return 0, fmt.Errorf("unexpected value type %T", v)
	}
}
