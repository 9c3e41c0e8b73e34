// Package logging provides a minimal logging interface and adapters for
// agentkernel.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the kernel, the dispatcher and the memory store use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NewConsoleLogger for colourised human readable output (tint)
//   - KernelLogger with component / invocation scoped attributes
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewConsoleLogger(logging.ParseLevel(os.Getenv("LOG_LEVEL")), os.Stderr)
//	k := kernel.New(kernel.WithLogger(logger))
//
// The interface is kept minimal so any structured logger can be plugged in.
package logging
