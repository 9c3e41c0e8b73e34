package telemetry

import (
	"context"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/event"
	"github.com/hupe1980/agentkernel/logging"
)

// LoggingSubscriber logs every completed invocation: info for successes,
// warn for failures. A KernelLogger writes its invocation record scoped to
// the invocation id. With Verbose set it also logs invocation starts at
// debug level.
type LoggingSubscriber struct {
	logger  logging.Logger
	verbose bool
}

// NewLoggingSubscriber creates a LoggingSubscriber.
func NewLoggingSubscriber(logger logging.Logger, verbose bool) *LoggingSubscriber {
	return &LoggingSubscriber{logger: logging.OrNoOp(logger), verbose: verbose}
}

// Attach subscribes s to both invocation events of d.
func (s *LoggingSubscriber) Attach(d *event.Dispatcher) []event.Subscription {
	return []event.Subscription{
		d.Subscribe(core.EventFunctionInvoking, s),
		d.Subscribe(core.EventFunctionInvoked, s),
	}
}

// Handle implements event.Handler.
func (s *LoggingSubscriber) Handle(_ context.Context, ev core.Event) error {
	switch ev.Type {
	case core.EventFunctionInvoking:
		if s.verbose {
			s.logger.Debug("function.invoking", "function", ev.QualifiedName(), "invocation_id", ev.InvocationID)
		}
	case core.EventFunctionInvoked:
		if _, ok := s.logger.(logging.InvocationLogger); ok {
			var errMsg string
			if ev.Result != nil {
				errMsg = ev.Result.Error
			}
			logging.Invocation(logging.ForInvocation(s.logger, ev.InvocationID), ev.QualifiedName(), ev.Duration, ev.Success, errMsg)
			return nil
		}
		args := []any{
			"function", ev.QualifiedName(),
			"invocation_id", ev.InvocationID,
			"duration_ms", ev.DurationMillis(),
			"success", ev.Success,
		}
		if ev.Result != nil && !ev.Success {
			s.logger.Warn("function.invoked", append(args, "code", ev.Result.ErrorCode, "error", ev.Result.Error)...)
			return nil
		}
		s.logger.Info("function.invoked", args...)
	}
	return nil
}

// Detach removes subs from d.
func Detach(d *event.Dispatcher, subs []event.Subscription) {
	for _, s := range subs {
		d.Unsubscribe(s)
	}
}
