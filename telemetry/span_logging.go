package telemetry

import (
	"context"

	"github.com/hupe1980/agentkernel/logging"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LoggingSpanProcessor is an OpenTelemetry span processor writing span
// starts and ends to a Logger. Register it on an sdktrace.TracerProvider to
// see TracingSubscriber spans without an exporter.
type LoggingSpanProcessor struct {
	verbose bool
	logger  logging.Logger
}

var _ sdktrace.SpanProcessor = (*LoggingSpanProcessor)(nil)

// NewLoggingSpanProcessor creates a LoggingSpanProcessor. Attribute values
// longer than 256 bytes are dropped unless verbose is set.
func NewLoggingSpanProcessor(logger logging.Logger, verbose bool) *LoggingSpanProcessor {
	return &LoggingSpanProcessor{verbose: verbose, logger: logging.OrNoOp(logger)}
}

// OnStart implements sdktrace.SpanProcessor.
func (l *LoggingSpanProcessor) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	l.logger.Debug("span start", l.buildArgs(s)...)
}

// OnEnd implements sdktrace.SpanProcessor.
func (l *LoggingSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	args := append(l.buildArgs(s), "duration", s.EndTime().Sub(s.StartTime()), "status", s.Status().Code.String())
	l.logger.Info("span end", args...)
}

// Shutdown implements sdktrace.SpanProcessor.
func (l *LoggingSpanProcessor) Shutdown(context.Context) error { return nil }

// ForceFlush implements sdktrace.SpanProcessor.
func (l *LoggingSpanProcessor) ForceFlush(context.Context) error { return nil }

func (l *LoggingSpanProcessor) buildArgs(s sdktrace.ReadOnlySpan) []any {
	args := []any{"name", s.Name()}
	for _, attr := range s.Attributes() {
		value := attr.Value.Emit()
		if !l.verbose && len(value) > 256 {
			continue
		}
		args = append(args, string(attr.Key), value)
	}
	return args
}
