// Package kernel provides the composition root of agentkernel: it owns the
// plugin registry, the optional chat service and memory store, the event
// dispatcher and the before/after middleware chains, and exposes the single
// invocation entry point (Run / RunRef).
//
// Invocation pipeline for Run(ctx, "Plugin", "Function", vars):
//
//  1. resolve the plugin, then the function (failures return an error, no events)
//  2. run before middlewares in registration order, each seeing prior changes
//  3. emit core.EventFunctionInvoking
//  4. invoke the function (panics are recovered into failure Results)
//  5. run after middlewares in registration order
//  6. emit core.EventFunctionInvoked
//  7. return the Result
//
// A middleware that fails aborts its chain and turns the Result into a
// MIDDLEWARE_ERROR failure. A before-chain failure skips the function, the
// invoking event and the after chain; the invoked event is still emitted so
// every invocation produces exactly one terminal event.
//
// The kernel is safe for concurrent use. Registry and middleware mutations
// take a write lock; invocations work on snapshots and hold no lock while
// user code runs, so middleware and event handlers may call back into the
// kernel.
package kernel
