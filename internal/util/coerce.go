package util

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ValidationError represents parameter binding errors with detailed information.
type ValidationError struct {
	Field   string `json:"field"`   // Field that failed validation
	Value   any    `json:"value"`   // Value that was provided
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Coerce converts value to the Go representation of the declared parameter
// type using mapstructure's weak decoding, so "5" binds to an int and 5 binds
// to a string. Supported types are string, int, float, bool, list and any;
// unknown types pass the value through. nil always stays nil.
func Coerce(field string, value any, typ string) (any, error) {
	if value == nil {
		return nil, nil
	}

	var err error
	switch typ {
	case "string":
		var out string
		if err = mapstructure.WeakDecode(value, &out); err == nil {
			return out, nil
		}
	case "int":
		var out int
		if err = mapstructure.WeakDecode(value, &out); err == nil {
			return out, nil
		}
	case "float":
		var out float64
		if err = mapstructure.WeakDecode(value, &out); err == nil {
			return out, nil
		}
	case "bool":
		var out bool
		if err = mapstructure.WeakDecode(value, &out); err == nil {
			return out, nil
		}
	case "list":
		var out []any
		if err = mapstructure.WeakDecode(value, &out); err == nil {
			return out, nil
		}
	default:
		return value, nil
	}

	return nil, &ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("cannot convert %T to %s: %v", value, typ, err),
	}
}
