// Package event provides the synchronous publish/subscribe Dispatcher the
// kernel uses to broadcast invocation telemetry.
package event

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/samber/lo"
)

// Handler receives dispatched events.
//
// Handlers run synchronously on the dispatching goroutine, so they should be
// fast. An error or panic is logged and isolated: it never reaches the
// dispatcher's caller and never stops delivery to later handlers.
type Handler interface {
	Handle(ctx context.Context, ev core.Event) error
}

// HandlerFunc adapts a plain function to Handler.
//
// Example:
//
//	d.SubscribeFunc(core.EventFunctionInvoked, func(ctx context.Context, ev core.Event) error {
//	    log.Printf("%s took %s", ev.QualifiedName(), ev.Duration)
//	    return nil
//	})
type HandlerFunc func(ctx context.Context, ev core.Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, ev core.Event) error { return f(ctx, ev) }

// Subscription identifies one registration. Go functions are not comparable,
// so unsubscribing goes through this handle instead of the handler value.
type Subscription struct {
	Type core.EventType
	id   uint64
}

// Valid reports whether s came from Subscribe.
func (s Subscription) Valid() bool { return s.id != 0 }

type registration struct {
	id      uint64
	handler Handler
}

// Options configures a Dispatcher.
type Options struct {
	// Logger receives handler failures. Defaults to NoOp.
	Logger logging.Logger
}

// Dispatcher delivers events to the handlers subscribed to their type, in
// subscription order. It is safe for concurrent use. Handlers are
// snapshotted before delivery, so a handler may subscribe, unsubscribe or
// trigger further dispatches without deadlocking.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[core.EventType][]registration
	nextID   uint64
	logger   logging.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(optFns ...func(o *Options)) *Dispatcher {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{
		handlers: make(map[core.EventType][]registration),
		logger:   logging.OrNoOp(opts.Logger),
	}
}

// Subscribe registers h for events of type t. The same handler may be
// registered more than once; each registration is delivered to separately.
func (d *Dispatcher) Subscribe(t core.EventType, h Handler) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	d.handlers[t] = append(d.handlers[t], registration{id: d.nextID, handler: h})

	return Subscription{Type: t, id: d.nextID}
}

// SubscribeFunc is Subscribe for a plain function.
func (d *Dispatcher) SubscribeFunc(t core.EventType, fn func(ctx context.Context, ev core.Event) error) Subscription {
	return d.Subscribe(t, HandlerFunc(fn))
}

// Unsubscribe removes the registration behind s and reports whether it was
// still present.
func (d *Dispatcher) Unsubscribe(s Subscription) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	regs := d.handlers[s.Type]
	for i, r := range regs {
		if r.id != s.id {
			continue
		}
		rest := append(regs[:i:i], regs[i+1:]...)
		if len(rest) == 0 {
			delete(d.handlers, s.Type)
		} else {
			d.handlers[s.Type] = rest
		}
		return true
	}
	return false
}

// Dispatch delivers ev to every handler subscribed to ev.Type. With no
// subscribers it is a no-op.
func (d *Dispatcher) Dispatch(ctx context.Context, ev core.Event) {
	d.mu.RLock()
	regs := append([]registration(nil), d.handlers[ev.Type]...)
	d.mu.RUnlock()

	for _, r := range regs {
		if err := d.deliver(ctx, r.handler, ev); err != nil {
			d.logger.Error("event.handler.failed", "type", string(ev.Type), "event_id", ev.ID, "error", err.Error())
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, h Handler, ev core.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}

// EventTypes returns the types with at least one subscriber, sorted.
func (d *Dispatcher) EventTypes() []core.EventType {
	d.mu.RLock()
	defer d.mu.RUnlock()

	types := lo.Keys(d.handlers)
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// ListenerCount returns the number of registrations for t.
func (d *Dispatcher) ListenerCount(t core.EventType) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[t])
}

// ClearListeners removes every registration.
func (d *Dispatcher) ClearListeners() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = make(map[core.EventType][]registration)
}
