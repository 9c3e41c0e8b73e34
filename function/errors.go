package function

import "fmt"

// Error is returned by callables that want to pick the error code of the
// failure Result themselves. Any other error maps to EXECUTION_ERROR.
type Error struct {
	Function string `json:"function"`          // Qualified name of the failing function
	Message  string `json:"message"`           // Error message
	Code     string `json:"code"`              // Error code for categorization
	Details  any    `json:"details,omitempty"` // Additional error details
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("function error [%s] in %s: %s", e.Code, e.Function, e.Message)
	}
	return fmt.Sprintf("function error in %s: %s", e.Function, e.Message)
}

// NewError creates a new Error with the specified details.
func NewError(function, message, code string) *Error {
	return &Error{
		Function: function,
		Message:  message,
		Code:     code,
	}
}
