package core

import (
	"math"
	"strconv"
	"strings"
)

// DataType classifies the value a resolved attribute produces.
type DataType string

const (
	DataTypeInteger DataType = "integer"
	DataTypeDecimal DataType = "decimal_number"
	DataTypeText    DataType = "text"
	DataTypeBool    DataType = "bool"
)

// EventContext carries the entity hierarchy available while a rule is being
// authored and validated.
type EventContext map[string]any

// FiringContext carries the concrete resolved values of one trigger firing.
type FiringContext map[string]any

// Attribute is a resolvable leaf in the entity hierarchy.
type Attribute interface {
	DataType() DataType
	Value(fc FiringContext) (any, bool)
}

// HierarchyResolver resolves an attribute path against the authoring-time
// entity hierarchy. The second return is false when the path does not exist
// or does not terminate in a leaf attribute.
type HierarchyResolver interface {
	Resolve(ec EventContext, path []string) (Attribute, bool)
}

// ValueResolver resolves an attribute path to its concrete value at firing
// time. The second return is false when the value is absent.
type ValueResolver interface {
	ResolveValue(fc FiringContext, path []string) (any, bool)
}

// ToNumber coerces integers, floats, and numeric strings to float64.
// Returns false for anything else, for empty strings, and for non-finite
// results.
func ToNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsIntegral reports whether f carries no fractional part.
func IsIntegral(f float64) bool {
	return f == math.Trunc(f)
}
