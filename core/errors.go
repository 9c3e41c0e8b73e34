package core

import "github.com/pkg/errors"

// Sentinel errors. Call sites wrap them with context (errors.Wrapf) so
// callers match with errors.Is.
var (
	// ErrPluginNotFound is returned by Kernel.Run when no plugin is
	// registered under the requested name.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrFunctionNotFound is returned when a plugin holds no function with
	// the requested name.
	ErrFunctionNotFound = errors.New("function not found")

	// ErrInvalidReference reports a malformed "Plugin.Function" reference.
	ErrInvalidReference = errors.New("invalid function reference")

	// ErrInvalidFunction reports a function that cannot be constructed
	// (empty name, missing payload).
	ErrInvalidFunction = errors.New("invalid function")

	// ErrDuplicateFunction is returned by a plugin configured to reject
	// duplicate function names.
	ErrDuplicateFunction = errors.New("function already registered")

	// ErrDuplicatePlugin is returned by a kernel configured to reject
	// duplicate plugin names.
	ErrDuplicatePlugin = errors.New("plugin already registered")

	// ErrNoChatService reports a prompt function invoked on a kernel with no
	// text-generation capability configured.
	ErrNoChatService = errors.New("no chat service configured")

	// ErrNoMemoryStore reports a function that needs a memory store on a
	// kernel without one.
	ErrNoMemoryStore = errors.New("no memory store configured")

	// ErrDimensionMismatch reports an embedding whose length differs from
	// the other embeddings of its collection.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidEmbedding reports an embedding holding NaN or infinite
	// components.
	ErrInvalidEmbedding = errors.New("embedding contains non-finite values")
)
