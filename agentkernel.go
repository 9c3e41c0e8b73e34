// Package agentkernel provides a high-level façade over the kernel package
// wiring safe defaults for local development and testing. Most applications
// interact with this package by:
//  1. Creating an AgentKernel via New() (optionally supplying a chat service,
//     an embedder or a durable MemoryStore)
//  2. Importing plugins (the built-in Math, Text and Memory plugins are
//     imported unless disabled)
//  3. Running functions by reference (RunRef / RunInput / ExecuteSequence)
//
// The façade embeds *kernel.Kernel, so the full kernel API stays available.
// It additionally attaches a telemetry.StatsCollector and, when configured,
// the logging and tracing subscribers.
package agentkernel

import (
	"context"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/kernel"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/hupe1980/agentkernel/memory"
	"github.com/hupe1980/agentkernel/plugin"
	"github.com/hupe1980/agentkernel/plugins"
	"github.com/hupe1980/agentkernel/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// Options configures the AgentKernel instance.
type Options struct {
	// ChatService backs prompt functions. Optional.
	ChatService core.ChatService

	// Embedder is handed to the default VolatileStore so records and
	// queries get embedded automatically. Ignored when MemoryStore is set.
	Embedder core.Embedder

	// MemoryStore defaults to a memory.VolatileStore.
	MemoryStore core.MemoryStore

	// Logger defaults to the NoOp logger, or to a KernelLogger built from
	// LoggerConfig when that is set. A KernelLogger is scoped per
	// component ("kernel", "memory", "telemetry").
	Logger logging.Logger

	// LoggerConfig builds a KernelLogger when Logger is unset.
	LoggerConfig *logging.LoggerConfig

	// DuplicatePolicy for plugin registration (default Overwrite).
	DuplicatePolicy plugin.DuplicatePolicy

	// DisableBuiltinPlugins skips importing Math, Text and Memory.
	DisableBuiltinPlugins bool

	// LogInvocations attaches a telemetry.LoggingSubscriber writing to Logger.
	LogInvocations bool

	// TracerProvider, when set, attaches a telemetry.TracingSubscriber.
	TracerProvider trace.TracerProvider

	// BeforeMiddleware and AfterMiddleware are added to the kernel in order.
	BeforeMiddleware []kernel.BeforeMiddleware
	AfterMiddleware  []kernel.AfterMiddleware
}

// AgentKernel is the high-level façade around a configured kernel.
type AgentKernel struct {
	*kernel.Kernel

	opts  Options
	stats *telemetry.StatsCollector
}

// New creates a new AgentKernel. Any unset service is initialized with an
// in-memory implementation.
func New(optFns ...func(o *Options)) (*AgentKernel, error) {
	opts := Options{
		DuplicatePolicy: plugin.Overwrite,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil && opts.LoggerConfig != nil {
		opts.Logger = logging.NewLogger(opts.LoggerConfig)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	if opts.MemoryStore == nil {
		opts.MemoryStore = memory.NewVolatileStore(func(o *memory.Options) {
			o.Embedder = opts.Embedder
			o.Logger = logging.ForComponent(opts.Logger, "memory")
		})
	}

	k := kernel.New(func(o *kernel.Options) {
		o.ChatService = opts.ChatService
		o.MemoryStore = opts.MemoryStore
		o.Logger = logging.ForComponent(opts.Logger, "kernel")
		o.DuplicatePolicy = opts.DuplicatePolicy
	})

	for _, m := range opts.BeforeMiddleware {
		k.AddBeforeMiddleware(m)
	}
	for _, m := range opts.AfterMiddleware {
		k.AddAfterMiddleware(m)
	}

	stats := telemetry.NewStatsCollector()
	stats.Attach(k.Dispatcher())

	if opts.LogInvocations {
		telemetry.NewLoggingSubscriber(logging.ForComponent(opts.Logger, "telemetry"), false).Attach(k.Dispatcher())
	}

	if opts.TracerProvider != nil {
		telemetry.NewTracingSubscriber(func(o *telemetry.TracingOptions) {
			o.TracerProvider = opts.TracerProvider
		}).Attach(k.Dispatcher())
	}

	if !opts.DisableBuiltinPlugins {
		for _, p := range []*plugin.Plugin{plugins.NewMathPlugin(), plugins.NewTextPlugin(), plugins.NewMemoryPlugin()} {
			if err := k.ImportPlugin(p); err != nil {
				return nil, err
			}
		}
	}

	return &AgentKernel{Kernel: k, opts: opts, stats: stats}, nil
}

// RunInput runs ref with a fresh Variables bag holding input under
// core.InputKey.
func (a *AgentKernel) RunInput(ctx context.Context, ref, input string) (*core.Result, error) {
	return a.RunRef(ctx, ref, core.NewVariablesWithInput(input))
}

// FunctionStats returns per-function statistics sorted by qualified name.
func (a *AgentKernel) FunctionStats() []telemetry.FunctionStats {
	return a.stats.Snapshot()
}
