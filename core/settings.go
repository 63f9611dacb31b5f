package core

import "strings"

// Raw settings field names, shared by the validator, stores, and the API.
const (
	FieldArg            = "arg"
	FieldRoundingMethod = "rounding_method"
	FieldMultiplyBy     = "multiply_by"
	FieldMin            = "min"
	FieldMax            = "max"
)

// Settings is one rule's validated dynamic-points configuration. Arg is the
// attribute path the award is derived from; the remaining fields are the
// optional rounding, scaling, and clamping policy.
type Settings struct {
	Arg            []string
	RoundingMethod string
	MultiplyBy     *float64
	Min            *int64
	Max            *int64
}

// ToMap serializes the settings into the raw mapping shape used for storage.
// Stripped or unset fields are omitted.
func (s *Settings) ToMap() map[string]any {
	m := map[string]any{}
	arg := make([]any, len(s.Arg))
	for i, seg := range s.Arg {
		arg[i] = seg
	}
	m[FieldArg] = arg
	if s.RoundingMethod != "" {
		m[FieldRoundingMethod] = s.RoundingMethod
	}
	if s.MultiplyBy != nil {
		m[FieldMultiplyBy] = *s.MultiplyBy
	}
	if s.Min != nil {
		m[FieldMin] = *s.Min
	}
	if s.Max != nil {
		m[FieldMax] = *s.Max
	}
	return m
}

// SettingsFromMap decodes a stored settings mapping leniently: fields that do
// not decode are dropped rather than reported, since stored settings were
// validated at save time and firing-time computation must never fail.
func SettingsFromMap(m map[string]any) *Settings {
	if m == nil {
		return nil
	}
	s := &Settings{}
	if path, ok := toStringSlice(m[FieldArg]); ok && len(path) > 0 {
		s.Arg = path
	}
	if key, ok := m[FieldRoundingMethod].(string); ok {
		s.RoundingMethod = key
	}
	if f, ok := ToNumber(m[FieldMultiplyBy]); ok && m[FieldMultiplyBy] != nil {
		s.MultiplyBy = &f
	}
	if f, ok := ToNumber(m[FieldMin]); ok && m[FieldMin] != nil && IsIntegral(f) {
		n := int64(f)
		s.Min = &n
	}
	if f, ok := ToNumber(m[FieldMax]); ok && m[FieldMax] != nil && IsIntegral(f) {
		n := int64(f)
		s.Max = &n
	}
	return s
}

// toStringSlice accepts []string, []any of strings, or a dot-separated path
// string.
func toStringSlice(v any) ([]string, bool) {
	switch seq := v.(type) {
	case string:
		if seq == "" {
			return nil, false
		}
		return strings.Split(seq, "."), true
	case []string:
		out := make([]string, len(seq))
		copy(out, seq)
		return out, true
	case []any:
		out := make([]string, 0, len(seq))
		for _, item := range seq {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
