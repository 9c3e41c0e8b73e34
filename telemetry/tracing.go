package telemetry

import (
	"context"
	"sync"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrPlugin       = attribute.Key("agentkernel.plugin")
	AttrFunction     = attribute.Key("agentkernel.function")
	AttrInvocationID = attribute.Key("agentkernel.invocation_id")
	AttrSuccess      = attribute.Key("agentkernel.success")
	AttrErrorCode    = attribute.Key("agentkernel.error_code")
	AttrUsage        = attribute.Key("agentkernel.usage")
)

// TracingOptions configures a TracingSubscriber.
type TracingOptions struct {
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
	// TracerName defaults to "github.com/hupe1980/agentkernel".
	TracerName string
}

// TracingSubscriber maps invocation events to OpenTelemetry spans. The
// invoking event opens a span named "Plugin.Function"; the invoked event
// with the same invocation id closes it. An invocation aborted before the
// function ran only produces the invoked event and gets a span that starts
// and ends there.
type TracingSubscriber struct {
	tracer trace.Tracer

	mu   sync.Mutex
	open map[string]trace.Span
}

// NewTracingSubscriber creates a TracingSubscriber.
func NewTracingSubscriber(optFns ...func(o *TracingOptions)) *TracingSubscriber {
	opts := TracingOptions{TracerName: "github.com/hupe1980/agentkernel"}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	return &TracingSubscriber{
		tracer: opts.TracerProvider.Tracer(opts.TracerName),
		open:   make(map[string]trace.Span),
	}
}

// Attach subscribes s to both invocation events of d.
func (s *TracingSubscriber) Attach(d *event.Dispatcher) []event.Subscription {
	return []event.Subscription{
		d.Subscribe(core.EventFunctionInvoking, s),
		d.Subscribe(core.EventFunctionInvoked, s),
	}
}

// Handle implements event.Handler.
func (s *TracingSubscriber) Handle(ctx context.Context, ev core.Event) error {
	switch ev.Type {
	case core.EventFunctionInvoking:
		span := s.start(ctx, ev)
		s.mu.Lock()
		s.open[ev.InvocationID] = span
		s.mu.Unlock()
	case core.EventFunctionInvoked:
		s.mu.Lock()
		span, ok := s.open[ev.InvocationID]
		delete(s.open, ev.InvocationID)
		s.mu.Unlock()
		if !ok {
			span = s.start(ctx, ev)
		}
		s.finish(span, ev)
	}
	return nil
}

// OpenSpans returns the number of spans started but not yet ended.
func (s *TracingSubscriber) OpenSpans() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}

func (s *TracingSubscriber) start(ctx context.Context, ev core.Event) trace.Span {
	_, span := s.tracer.Start(ctx, ev.QualifiedName(),
		trace.WithTimestamp(ev.Timestamp),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			AttrPlugin.String(ev.PluginName),
			AttrFunction.String(ev.FunctionName),
			AttrInvocationID.String(ev.InvocationID),
		),
	)
	return span
}

func (s *TracingSubscriber) finish(span trace.Span, ev core.Event) {
	span.SetAttributes(AttrSuccess.Bool(ev.Success))
	if ev.Result != nil {
		if ev.Result.Usage > 0 {
			span.SetAttributes(AttrUsage.Float64(ev.Result.Usage))
		}
		if !ev.Result.Success {
			span.SetAttributes(AttrErrorCode.String(ev.Result.ErrorCode))
			span.SetStatus(codes.Error, ev.Result.Error)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
	span.End(trace.WithTimestamp(ev.Timestamp))
}
