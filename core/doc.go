// Package core provides the foundational domain types and contracts shared by
// every agentkernel package. It defines:
//
//   - Variables (the ordered context bag passed through an invocation)
//   - Result (uniform success / failure outcome of a function)
//   - Event (telemetry emitted before and after each invocation)
//   - ChatService / CompletionService / Embedder (capabilities supplied by
//     provider adapters)
//   - MemoryStore (collection-partitioned record store with similarity search)
//
// Implementations (the kernel, concrete stores, provider adapters) live in
// their own packages and depend on core, never the other way round.
package core
