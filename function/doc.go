// Package function defines the unit of work the kernel executes.
//
// A Function is a tagged union of two kinds:
//
//   - Prompt functions render a template against the invocation's Variables
//     and hand the text to the host's ChatService.
//   - Native functions wrap a Go callable together with a declared parameter
//     schema. Arguments are bound from Variables by name and coerced to the
//     declared type before the callable runs.
//
// Both kinds are invoked through Invoke, which never returns an error: every
// failure (missing chat service, binding problem, callable error or panic)
// surfaces as a failed *core.Result carrying an error code.
//
// Functions are immutable after construction and safe for concurrent use.
package function
