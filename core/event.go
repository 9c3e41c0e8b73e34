package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType tags an event. Subscribers register per type.
type EventType string

// Event types emitted by the kernel around every invocation. Both events of
// one invocation share the same InvocationID.
const (
	// EventFunctionInvoking fires after the before-middleware chain and
	// right before the function runs.
	EventFunctionInvoking EventType = "kernel.function.invoking"
	// EventFunctionInvoked fires once per invocation after the
	// after-middleware chain, including invocations aborted by middleware.
	EventFunctionInvoked EventType = "kernel.function.invoked"
)

// Event is a structured notification emitted around each invocation and
// delivered synchronously to subscribers. After emission it should be
// treated as immutable. It captures:
//   - Correlation (ID, InvocationID)
//   - Source identifiers (PluginName, FunctionName)
//   - Timing (Timestamp, Duration)
//   - Outcome (Result, Success)
//
// Variables is a snapshot of the invocation's context bag taken when the
// event is emitted; later changes to the bag do not show through. Data
// carries free-form attributes.
type Event struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	InvocationID string         `json:"invocation_id,omitempty"`
	PluginName   string         `json:"plugin_name,omitempty"`
	FunctionName string         `json:"function_name,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	Variables    *Variables     `json:"variables,omitempty"`
	Result       *Result        `json:"result,omitempty"`
	Duration     time.Duration  `json:"duration,omitempty"`
	Success      bool           `json:"success"`
	Data         map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event of the given type with a fresh id and a
// timestamp that never goes backwards within the process.
func NewEvent(eventType EventType) Event {
	return Event{
		ID:        NewID(),
		Type:      eventType,
		Timestamp: Now(),
		Data:      map[string]any{},
	}
}

// QualifiedName returns "Plugin.Function" for events that carry both.
func (e Event) QualifiedName() string {
	if e.PluginName == "" {
		return e.FunctionName
	}
	return e.PluginName + "." + e.FunctionName
}

// DurationMillis returns Duration in fractional milliseconds.
func (e Event) DurationMillis() float64 {
	return float64(e.Duration) / float64(time.Millisecond)
}

// NewID generates a new unique identifier for events and invocations.
func NewID() string { return uuid.NewString() }

var (
	clockMu sync.Mutex
	lastNow time.Time
)

// Now returns the current time, nudged forward by a nanosecond when the wall
// clock would otherwise repeat or step back, so event timestamps are strictly
// increasing per process.
func Now() time.Time {
	clockMu.Lock()
	defer clockMu.Unlock()
	now := time.Now()
	if !now.After(lastNow) {
		now = lastNow.Add(time.Nanosecond)
	}
	lastNow = now
	return now
}
