package kernel

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/event"
	"github.com/hupe1980/agentkernel/function"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/hupe1980/agentkernel/plugin"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Options configures a Kernel instance using the functional options pattern.
//
// Example:
//
//	k := kernel.New(
//	    kernel.WithChatService(openai.NewChatService()),
//	    kernel.WithMemoryStore(memory.NewVolatileStore()),
//	    kernel.WithLogger(logger),
//	)
type Options struct {
	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger

	// ChatService backs prompt functions. Optional; prompt functions fail
	// with CONFIGURATION_ERROR while it is unset.
	ChatService core.ChatService

	// MemoryStore is handed to functions through the Host. Optional.
	MemoryStore core.MemoryStore

	// Dispatcher receives invocation events. A private one is created when nil.
	Dispatcher *event.Dispatcher

	// DuplicatePolicy decides whether importing an existing plugin name
	// overwrites it (default) or fails with core.ErrDuplicatePlugin.
	DuplicatePolicy plugin.DuplicatePolicy
}

// WithLogger sets the kernel logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithChatService sets the chat service used by prompt functions.
func WithChatService(s core.ChatService) func(o *Options) {
	return func(o *Options) { o.ChatService = s }
}

// WithMemoryStore sets the memory store exposed to functions.
func WithMemoryStore(s core.MemoryStore) func(o *Options) {
	return func(o *Options) { o.MemoryStore = s }
}

// WithDispatcher shares an existing dispatcher with the kernel.
func WithDispatcher(d *event.Dispatcher) func(o *Options) {
	return func(o *Options) { o.Dispatcher = d }
}

// WithDuplicatePolicy sets the plugin import policy.
func WithDuplicatePolicy(p plugin.DuplicatePolicy) func(o *Options) {
	return func(o *Options) { o.DuplicatePolicy = p }
}

// Kernel is the composition root and single dispatch point for functions.
type Kernel struct {
	dispatcher *event.Dispatcher
	logger     logging.Logger
	policy     plugin.DuplicatePolicy

	invocations atomic.Int64
	failures    atomic.Int64

	mu      sync.RWMutex // guards everything below
	plugins map[string]*plugin.Plugin
	chat    core.ChatService
	memory  core.MemoryStore
	before  []BeforeMiddleware
	after   []AfterMiddleware
}

var _ function.Host = (*Kernel)(nil)

// New creates a Kernel. With no options it has no chat service, no memory
// store, a private dispatcher and a no-op logger.
func New(optFns ...func(o *Options)) *Kernel {
	opts := Options{
		Logger:          logging.NoOpLogger{},
		DuplicatePolicy: plugin.Overwrite,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = event.NewDispatcher(func(o *event.Options) { o.Logger = logger })
	}

	return &Kernel{
		dispatcher: dispatcher,
		logger:     logger,
		policy:     opts.DuplicatePolicy,
		plugins:    make(map[string]*plugin.Plugin),
		chat:       opts.ChatService,
		memory:     opts.MemoryStore,
	}
}

// ImportPlugin registers p under its own name.
func (k *Kernel) ImportPlugin(p *plugin.Plugin) error {
	if p == nil {
		return errors.New("kernel: nil plugin")
	}
	return k.register(p.Name(), p)
}

// ImportPluginAs registers a copy of p under name. The copy's functions
// report name as their plugin.
func (k *Kernel) ImportPluginAs(name string, p *plugin.Plugin) error {
	if p == nil {
		return errors.New("kernel: nil plugin")
	}
	if name == p.Name() {
		return k.register(name, p)
	}
	return k.register(name, p.Clone(name))
}

// ImportFunctions creates a plugin named pluginName holding fns and
// registers it.
func (k *Kernel) ImportFunctions(pluginName string, fns ...*function.Function) (*plugin.Plugin, error) {
	p := plugin.New(pluginName)
	for _, fn := range fns {
		if err := p.AddFunction(fn); err != nil {
			return nil, err
		}
	}
	if err := k.register(pluginName, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (k *Kernel) register(name string, p *plugin.Plugin) error {
	if name == "" || strings.Contains(name, ".") {
		return errors.Wrapf(core.ErrInvalidReference, "plugin name %q", name)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.plugins[name]; exists {
		if k.policy == plugin.Reject {
			return errors.Wrap(core.ErrDuplicatePlugin, name)
		}
		k.logger.Debug("kernel.plugin.replaced", "plugin", name)
	}

	k.plugins[name] = p
	k.logger.Debug("kernel.plugin.imported", "plugin", name, "functions", p.Count())
	return nil
}

// RemovePlugin unregisters name and reports whether it was present.
func (k *Kernel) RemovePlugin(name string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.plugins[name]; !ok {
		return false
	}
	delete(k.plugins, name)
	return true
}

// GetPlugin returns the plugin registered under name. A missing name yields
// an error wrapping core.ErrPluginNotFound.
func (k *Kernel) GetPlugin(name string) (*plugin.Plugin, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	p, ok := k.plugins[name]
	if !ok {
		return nil, errors.Wrap(core.ErrPluginNotFound, name)
	}
	return p, nil
}

// GetPlugins returns every registered plugin sorted by name.
func (k *Kernel) GetPlugins() []*plugin.Plugin {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := lo.Values(k.plugins)
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// PluginNames returns the registered plugin names sorted.
func (k *Kernel) PluginNames() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	names := lo.Keys(k.plugins)
	sort.Strings(names)
	return names
}

// Describe returns the metadata of every registered function, sorted by
// qualified name. Planners use it to discover what the kernel can run.
func (k *Kernel) Describe() []function.Metadata {
	var out []function.Metadata
	for _, p := range k.GetPlugins() {
		out = append(out, lo.Map(p.Functions(), func(fn *function.Function, _ int) function.Metadata {
			return fn.Describe()
		})...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedName() < out[j].QualifiedName() })
	return out
}

// SetChatService replaces the chat service (nil removes it).
func (k *Kernel) SetChatService(s core.ChatService) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.chat = s
}

// SetMemoryStore replaces the memory store (nil removes it).
func (k *Kernel) SetMemoryStore(s core.MemoryStore) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.memory = s
}

// ChatService implements function.Host.
func (k *Kernel) ChatService() core.ChatService {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.chat
}

// MemoryStore implements function.Host.
func (k *Kernel) MemoryStore() core.MemoryStore {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.memory
}

// Logger implements function.Host.
func (k *Kernel) Logger() logging.Logger { return k.logger }

// Dispatcher returns the event dispatcher invocation events go to.
func (k *Kernel) Dispatcher() *event.Dispatcher { return k.dispatcher }

// Subscribe is a shortcut for Dispatcher().SubscribeFunc.
func (k *Kernel) Subscribe(t core.EventType, fn func(ctx context.Context, ev core.Event) error) event.Subscription {
	return k.dispatcher.SubscribeFunc(t, fn)
}
