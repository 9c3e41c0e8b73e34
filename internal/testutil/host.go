package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/logging"
)

// Host is a minimal function host for tests. RunRef delegates to Runner when
// set and records every reference it was asked to run.
type Host struct {
	Chat   core.ChatService
	Memory core.MemoryStore
	Log    logging.Logger
	Runner func(ctx context.Context, ref string, vars *core.Variables) (*core.Result, error)

	mu   sync.Mutex
	refs []string
}

// NewHost returns a Host with the given chat service and memory store.
func NewHost(chat core.ChatService, memory core.MemoryStore) *Host {
	return &Host{Chat: chat, Memory: memory}
}

// ChatService returns the configured chat service.
func (h *Host) ChatService() core.ChatService { return h.Chat }

// MemoryStore returns the configured memory store.
func (h *Host) MemoryStore() core.MemoryStore { return h.Memory }

// Logger returns the configured logger or a no-op one.
func (h *Host) Logger() logging.Logger { return logging.OrNoOp(h.Log) }

// RunRef records ref and delegates to Runner.
func (h *Host) RunRef(ctx context.Context, ref string, vars *core.Variables) (*core.Result, error) {
	h.mu.Lock()
	h.refs = append(h.refs, ref)
	h.mu.Unlock()
	if h.Runner == nil {
		return nil, fmt.Errorf("testutil host: no runner for %s", ref)
	}
	return h.Runner(ctx, ref, vars)
}

// Refs returns the references passed to RunRef so far.
func (h *Host) Refs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.refs...)
}
