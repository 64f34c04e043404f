package table

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnsupported is returned for values whose Go type has no column kind
	ErrUnsupported = errors.New("unsupported value type")

	// ErrOutOfRange is returned for values of a supported type that no kind can
	// represent: unsigned integers above MaxInt64 and non-finite floats
	ErrOutOfRange = errors.New("value out of range")
)

// Kind is the element type of a column
type Kind uint8

const (
	// KindNull is the kind of a column holding only null markers
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

// String returns the lowercase name of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Normalize folds a Go scalar into its canonical column representation.
// Integers become int64, floats become float64 and nil is the null marker.
func Normalize(v any) (any, Kind, error) {
	switch x := v.(type) {
	case nil:
		return nil, KindNull, nil
	case bool:
		return x, KindBool, nil
	case string:
		return x, KindString, nil
	case int:
		return int64(x), KindInt, nil
	case int8:
		return int64(x), KindInt, nil
	case int16:
		return int64(x), KindInt, nil
	case int32:
		return int64(x), KindInt, nil
	case int64:
		return x, KindInt, nil
	case uint:
		return fromUint64(uint64(x))
	case uint8:
		return int64(x), KindInt, nil
	case uint16:
		return int64(x), KindInt, nil
	case uint32:
		return int64(x), KindInt, nil
	case uint64:
		return fromUint64(x)
	case float32:
		return fromFloat64(float64(x))
	case float64:
		return fromFloat64(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, KindInt, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, KindNull, fmt.Errorf("%w: number %q: %v", ErrOutOfRange, x.String(), err)
		}
		return fromFloat64(f)
	default:
		return nil, KindNull, fmt.Errorf("%w: %T", ErrUnsupported, v)
	}
}

func fromUint64(x uint64) (any, Kind, error) {
	if x > math.MaxInt64 {
		return nil, KindNull, fmt.Errorf("%w: %d exceeds int64", ErrOutOfRange, x)
	}
	return int64(x), KindInt, nil
}

func fromFloat64(f float64) (any, Kind, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, KindNull, fmt.Errorf("%w: %v is not finite", ErrOutOfRange, f)
	}
	return f, KindFloat, nil
}

// Unify returns the common kind able to hold values of both a and b
func Unify(a, b Kind) (Kind, bool) {
	switch {
	case a == b:
		return a, true
	case a == KindNull:
		return b, true
	case b == KindNull:
		return a, true
	case (a == KindInt && b == KindFloat) || (a == KindFloat && b == KindInt):
		return KindFloat, true
	default:
		return KindNull, false
	}
}
