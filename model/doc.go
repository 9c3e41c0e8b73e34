// Package model holds provider-agnostic helpers for the text-generation and
// embedding capabilities the kernel consumes through core.ChatService,
// core.CompletionService and core.Embedder.
//
// It ships deterministic in-memory implementations (MockChatService,
// HashEmbedder) for tests and examples. Real providers live in the
// subpackages (openai, anthropic) so the kernel stays decoupled from vendor
// SDKs.
package model
