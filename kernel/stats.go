package kernel

import "github.com/hupe1980/agentkernel/core"

// Stats is a point-in-time summary of the kernel's configuration and
// activity.
type Stats struct {
	PluginCount       int              `json:"plugin_count"`
	TotalFunctions    int              `json:"total_functions"`
	BeforeMiddlewares int              `json:"before_middlewares"`
	AfterMiddlewares  int              `json:"after_middlewares"`
	HasChatService    bool             `json:"has_chat_service"`
	HasMemoryStore    bool             `json:"has_memory_store"`
	Invocations       int64            `json:"invocations"`
	Failures          int64            `json:"failures"`
	EventTypes        []core.EventType `json:"event_types"`
}

// GetStats returns the current Stats.
func (k *Kernel) GetStats() Stats {
	k.mu.RLock()
	s := Stats{
		PluginCount:       len(k.plugins),
		BeforeMiddlewares: len(k.before),
		AfterMiddlewares:  len(k.after),
		HasChatService:    k.chat != nil,
		HasMemoryStore:    k.memory != nil,
	}
	for _, p := range k.plugins {
		s.TotalFunctions += p.Count()
	}
	k.mu.RUnlock()

	s.Invocations = k.invocations.Load()
	s.Failures = k.failures.Load()
	s.EventTypes = k.dispatcher.EventTypes()
	return s
}
