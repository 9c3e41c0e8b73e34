package core

import "fmt"

// Error codes attached to failure Results.
const (
	CodeExecution     = "EXECUTION_ERROR"
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeBinding       = "BINDING_ERROR"
	CodePanic         = "PANIC"
	CodeMiddleware    = "MIDDLEWARE_ERROR"
	CodeResolution    = "RESOLUTION_ERROR"
)

// Result is the uniform outcome of a function invocation. Exactly one of
// the two shapes holds: Success with Output, or failure with Error set.
//
// A Result should be treated as immutable once returned. Middleware that
// wants to change it derives a new one via the With* helpers, which copy.
type Result struct {
	Success   bool           `json:"success"`
	Output    string         `json:"output,omitempty"`
	Value     any            `json:"value,omitempty"` // raw value returned by a native callable
	Usage     float64        `json:"usage,omitempty"` // cost / token usage counter
	Metadata  map[string]any `json:"metadata,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
}

// NewSuccessResult wraps output as a successful Result.
func NewSuccessResult(output string) *Result {
	return &Result{Success: true, Output: output, Metadata: map[string]any{}}
}

// NewFailureResult builds a failed Result. An empty message is replaced by a
// generic one so failures never carry a blank error.
func NewFailureResult(code, message string) *Result {
	if message == "" {
		message = "unknown error"
	}
	return &Result{Success: false, Error: message, ErrorCode: code, Metadata: map[string]any{}}
}

// NewErrorResult builds a failed Result from err.
func NewErrorResult(code string, err error) *Result {
	if err == nil {
		return NewFailureResult(code, "")
	}
	return NewFailureResult(code, err.Error())
}

// Text returns Output for successes and Error for failures.
func (r *Result) Text() string {
	if r.Success {
		return r.Output
	}
	return r.Error
}

// Clone returns a copy with its own metadata map.
func (r *Result) Clone() *Result {
	c := *r
	c.Metadata = make(map[string]any, len(r.Metadata))
	for k, v := range r.Metadata {
		c.Metadata[k] = v
	}
	return &c
}

// WithMetadata returns a copy carrying key=value in its metadata.
func (r *Result) WithMetadata(key string, value any) *Result {
	c := r.Clone()
	c.Metadata[key] = value
	return c
}

// WithOutput returns a successful copy with output replaced.
func (r *Result) WithOutput(output string) *Result {
	c := r.Clone()
	c.Success = true
	c.Output = output
	c.Error = ""
	c.ErrorCode = ""
	return c
}

// WithUsage returns a copy with the usage counter replaced.
func (r *Result) WithUsage(usage float64) *Result {
	c := r.Clone()
	c.Usage = usage
	return c
}

func (r *Result) String() string {
	if r.Success {
		return fmt.Sprintf("success: %s", r.Output)
	}
	if r.ErrorCode != "" {
		return fmt.Sprintf("failure [%s]: %s", r.ErrorCode, r.Error)
	}
	return fmt.Sprintf("failure: %s", r.Error)
}
