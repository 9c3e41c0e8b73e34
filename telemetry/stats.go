package telemetry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/event"
	"github.com/samber/lo"
)

// FunctionStats aggregates the invocations of one function.
type FunctionStats struct {
	Name          string        `json:"name"`
	Calls         int           `json:"calls"`
	Failures      int           `json:"failures"`
	TotalDuration time.Duration `json:"total_duration"`
	MaxDuration   time.Duration `json:"max_duration"`
	TotalUsage    float64       `json:"total_usage"`
	LastErrorCode string        `json:"last_error_code,omitempty"`
}

// AverageDuration returns TotalDuration / Calls (0 without calls).
func (s FunctionStats) AverageDuration() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Calls)
}

// SuccessRate returns the fraction of successful calls in [0, 1].
func (s FunctionStats) SuccessRate() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.Calls-s.Failures) / float64(s.Calls)
}

// StatsCollector aggregates invoked events per qualified function name.
type StatsCollector struct {
	mu    sync.Mutex
	stats map[string]*FunctionStats
}

// NewStatsCollector creates an empty collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{stats: make(map[string]*FunctionStats)}
}

// Attach subscribes c to the invoked event of d.
func (c *StatsCollector) Attach(d *event.Dispatcher) []event.Subscription {
	return []event.Subscription{d.Subscribe(core.EventFunctionInvoked, c)}
}

// Handle implements event.Handler.
func (c *StatsCollector) Handle(_ context.Context, ev core.Event) error {
	if ev.Type != core.EventFunctionInvoked {
		return nil
	}

	name := ev.QualifiedName()

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.stats[name]
	if !ok {
		s = &FunctionStats{Name: name}
		c.stats[name] = s
	}

	s.Calls++
	s.TotalDuration += ev.Duration
	if ev.Duration > s.MaxDuration {
		s.MaxDuration = ev.Duration
	}
	if ev.Result != nil {
		s.TotalUsage += ev.Result.Usage
	}
	if !ev.Success {
		s.Failures++
		if ev.Result != nil {
			s.LastErrorCode = ev.Result.ErrorCode
		}
	}
	return nil
}

// Get returns the stats of one function.
func (c *StatsCollector) Get(qualifiedName string) (FunctionStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stats[qualifiedName]
	if !ok {
		return FunctionStats{}, false
	}
	return *s, true
}

// Snapshot returns copies of all stats sorted by name.
func (c *StatsCollector) Snapshot() []FunctionStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := lo.MapToSlice(c.stats, func(_ string, s *FunctionStats) FunctionStats { return *s })
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Reset drops all collected stats.
func (c *StatsCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = make(map[string]*FunctionStats)
}
