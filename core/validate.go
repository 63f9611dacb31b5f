package core

import (
	"fmt"
	"strings"
)

// ValidationContext carries the field-path prefix under which the settings
// entry lives, so errors from nested entries stay addressable by the caller.
type ValidationContext struct {
	Path []string
}

func (v ValidationContext) child(field string) []string {
	path := make([]string, 0, len(v.Path)+1)
	path = append(path, v.Path...)
	return append(path, field)
}

func (v ValidationContext) entry() []string {
	path := make([]string, len(v.Path))
	copy(path, v.Path)
	return path
}

// Validator checks raw dynamic-points settings against the schema and its
// cross-field rules before a rule is allowed to run.
type Validator struct {
	registry  *Registry
	hierarchy HierarchyResolver
}

func NewValidator(registry *Registry, hierarchy HierarchyResolver) *Validator {
	if registry == nil || hierarchy == nil {
		panic("NewValidator requires non-nil registry and hierarchy resolver")
	}
	return &Validator{registry: registry, hierarchy: hierarchy}
}

// Validate checks one raw settings entry. A fatal error (unusable entry
// shape, missing or unresolvable arg, non-numeric attribute) returns nil
// settings. Any other invalid field is reported and stripped while the rest
// of the entry survives; callers should treat the entry as invalid whenever
// the error list is non-empty.
func (v *Validator) Validate(raw any, vctx ValidationContext, ec EventContext) (*Settings, ErrorList) {
	var errs ErrorList

	m, ok := raw.(map[string]any)
	if !ok {
		errs = append(errs, FieldError{
			Path:    vctx.entry(),
			Code:    ErrFormatMismatch,
			Message: "settings must be a mapping",
		})
		return nil, errs
	}

	path, ok := toStringSlice(m[FieldArg])
	if !ok || len(path) == 0 {
		errs = append(errs, FieldError{
			Path:    vctx.child(FieldArg),
			Code:    ErrArgMissing,
			Message: "arg is required",
		})
		return nil, errs
	}

	attr, ok := v.hierarchy.Resolve(ec, path)
	if !ok {
		errs = append(errs, FieldError{
			Path:    vctx.child(FieldArg),
			Code:    ErrArgUnresolvable,
			Message: fmt.Sprintf("attribute path %q does not resolve", strings.Join(path, ".")),
		})
		return nil, errs
	}

	// Per-call state only; validations may run concurrently.
	requiresRounding := false
	switch attr.DataType() {
	case DataTypeInteger:
	case DataTypeDecimal:
		requiresRounding = true
	default:
		errs = append(errs, FieldError{
			Path:    vctx.child(FieldArg),
			Code:    ErrArgWrongType,
			Message: fmt.Sprintf("attribute %q is not numeric", strings.Join(path, ".")),
		})
		return nil, errs
	}

	settings := &Settings{Arg: path}

	if rawMethod, present := m[FieldRoundingMethod]; present {
		key, isString := rawMethod.(string)
		if isString && v.registry.IsRegistered(key) {
			settings.RoundingMethod = key
		} else {
			errs = append(errs, FieldError{
				Path:    vctx.child(FieldRoundingMethod),
				Code:    ErrRoundingMethodInvalid,
				Message: "rounding_method must name a registered strategy",
			})
		}
	}

	if rawMult, present := m[FieldMultiplyBy]; present {
		f, numeric := ToNumber(rawMult)
		if !numeric || f == 0 {
			errs = append(errs, FieldError{
				Path:    vctx.child(FieldMultiplyBy),
				Code:    ErrMultiplierInvalid,
				Message: "multiply_by must be a non-zero number",
			})
		} else {
			settings.MultiplyBy = &f
			if !IsIntegral(f) {
				requiresRounding = true
			}
		}
	}

	if rawMin, present := m[FieldMin]; present {
		f, numeric := ToNumber(rawMin)
		if !numeric || !IsIntegral(f) {
			errs = append(errs, FieldError{
				Path:    vctx.child(FieldMin),
				Code:    ErrMinInvalid,
				Message: "min must be an integer",
			})
		} else {
			n := int64(f)
			settings.Min = &n
		}
	}

	if rawMax, present := m[FieldMax]; present {
		f, numeric := ToNumber(rawMax)
		if !numeric || !IsIntegral(f) {
			errs = append(errs, FieldError{
				Path:    vctx.child(FieldMax),
				Code:    ErrMaxInvalid,
				Message: "max must be an integer",
			})
		} else {
			n := int64(f)
			settings.Max = &n
		}
	}

	if settings.Min != nil && settings.Max != nil && *settings.Min >= *settings.Max {
		errs = append(errs, FieldError{
			Path:    vctx.child(FieldMax),
			Code:    ErrRangeInvalid,
			Message: "min must be strictly less than max",
		})
		settings.Max = nil
	}

	if requiresRounding && settings.RoundingMethod == "" {
		errs = append(errs, FieldError{
			Path:    vctx.entry(),
			Code:    ErrRoundingMethodRequired,
			Message: "a rounding method is required for decimal values",
		})
	}

	return settings, errs
}
