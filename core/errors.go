package core

import "strings"

// ErrorCode identifies a validation failure mode.
type ErrorCode string

const (
	ErrFormatMismatch         ErrorCode = "format_mismatch"
	ErrArgMissing             ErrorCode = "arg_missing"
	ErrArgUnresolvable        ErrorCode = "arg_unresolvable"
	ErrArgWrongType           ErrorCode = "arg_wrong_type"
	ErrRoundingMethodInvalid  ErrorCode = "rounding_method_invalid"
	ErrRoundingMethodRequired ErrorCode = "rounding_method_required"
	ErrMultiplierInvalid      ErrorCode = "multiplier_invalid"
	ErrMinInvalid             ErrorCode = "min_invalid"
	ErrMaxInvalid             ErrorCode = "max_invalid"
	ErrRangeInvalid           ErrorCode = "range_invalid"
)

// Fatal reports whether the code invalidates the whole settings entry.
// Everything else is field-local: the offending field is stripped and the
// rest of the entry stays usable.
func (c ErrorCode) Fatal() bool {
	switch c {
	case ErrFormatMismatch, ErrArgMissing, ErrArgUnresolvable, ErrArgWrongType:
		return true
	}
	return false
}

// FieldError is one validation error tagged with the nested field it
// belongs to. Path is the full field path including any prefix supplied by
// the validation context; entry-level errors end at the prefix.
type FieldError struct {
	Path    []string  `json:"path"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Field renders the path as a dotted string.
func (e FieldError) Field() string { return strings.Join(e.Path, ".") }

func (e FieldError) Error() string {
	if len(e.Path) == 0 {
		return string(e.Code) + ": " + e.Message
	}
	return e.Field() + ": " + e.Message
}

// ErrorList accumulates field errors in validation order.
type ErrorList []FieldError

func (l ErrorList) Empty() bool { return len(l) == 0 }

// Messages flattens the list for logging and event payloads.
func (l ErrorList) Messages() []string {
	if len(l) == 0 {
		return nil
	}
	out := make([]string, len(l))
	for i, e := range l {
		out[i] = e.Error()
	}
	return out
}
