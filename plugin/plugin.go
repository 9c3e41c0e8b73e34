// Package plugin groups related functions under a namespace. A Plugin is the
// unit the kernel imports: functions are addressed as "Plugin.Function".
package plugin

import (
	"context"
	"sort"
	"sync"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/function"
	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DuplicatePolicy decides what happens when a name is registered twice.
type DuplicatePolicy int

const (
	// Overwrite silently replaces the earlier registration (last write wins).
	Overwrite DuplicatePolicy = iota
	// Reject refuses the second registration with an error.
	Reject
)

func (p DuplicatePolicy) String() string {
	if p == Reject {
		return "reject"
	}
	return "overwrite"
}

// Options configures a Plugin.
type Options struct {
	Description     string
	DuplicatePolicy DuplicatePolicy
}

// WithDescription sets the plugin description.
func WithDescription(desc string) func(o *Options) {
	return func(o *Options) { o.Description = desc }
}

// WithDuplicatePolicy sets how AddFunction treats an existing name.
func WithDuplicatePolicy(p DuplicatePolicy) func(o *Options) {
	return func(o *Options) { o.DuplicatePolicy = p }
}

// Plugin is a named, ordered collection of functions. Function names are
// unique within a plugin. A Plugin is safe for concurrent use.
type Plugin struct {
	name string
	opts Options

	mu        sync.RWMutex
	functions *orderedmap.OrderedMap[string, *function.Function]
}

// Description is the planner-facing summary of a plugin.
type Description struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Functions   []function.Metadata `json:"functions"`
}

// New creates an empty plugin.
func New(name string, optFns ...func(o *Options)) *Plugin {
	opts := Options{DuplicatePolicy: Overwrite}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Plugin{
		name:      name,
		opts:      opts,
		functions: orderedmap.New[string, *function.Function](),
	}
}

// Name returns the plugin name.
func (p *Plugin) Name() string { return p.name }

// Description returns the plugin description.
func (p *Plugin) Description() string { return p.opts.Description }

// AddFunction registers fn under its name. The stored function is owned by
// this plugin (its PluginName is set); fn itself is not modified. Under the
// Overwrite policy an existing entry is replaced in place, keeping its
// position. Under Reject it returns core.ErrDuplicateFunction.
func (p *Plugin) AddFunction(fn *function.Function) error {
	if fn == nil {
		return errors.Wrapf(core.ErrInvalidFunction, "plugin %s: nil function", p.name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.functions.Get(fn.Name()); exists && p.opts.DuplicatePolicy == Reject {
		return errors.Wrapf(core.ErrDuplicateFunction, "%s.%s", p.name, fn.Name())
	}

	p.functions.Set(fn.Name(), fn.InPlugin(p.name))
	return nil
}

// MustAddFunction is AddFunction that panics on error.
func (p *Plugin) MustAddFunction(fn *function.Function) *Plugin {
	if err := p.AddFunction(fn); err != nil {
		panic(err)
	}
	return p
}

// GetFunction looks up a function by name. A missing name yields an error
// wrapping core.ErrFunctionNotFound.
func (p *Plugin) GetFunction(name string) (*function.Function, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	fn, ok := p.functions.Get(name)
	if !ok {
		return nil, errors.Wrapf(core.ErrFunctionNotFound, "%s.%s", p.name, name)
	}
	return fn, nil
}

// HasFunction reports whether name is registered.
func (p *Plugin) HasFunction(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.functions.Get(name)
	return ok
}

// RemoveFunction deletes name and reports whether it was present.
func (p *Plugin) RemoveFunction(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.functions.Delete(name)
	return ok
}

// Count returns the number of registered functions.
func (p *Plugin) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.functions.Len()
}

// Functions returns the registered functions in insertion order.
func (p *Plugin) Functions() []*function.Function {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*function.Function, 0, p.functions.Len())
	for pair := p.functions.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// FunctionNames returns the registered names in insertion order.
func (p *Plugin) FunctionNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, 0, p.functions.Len())
	for pair := p.functions.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Describe returns the plugin with its function metadata sorted by name.
func (p *Plugin) Describe() Description {
	fns := p.Functions()
	meta := make([]function.Metadata, 0, len(fns))
	for _, fn := range fns {
		meta = append(meta, fn.Describe())
	}
	sort.Slice(meta, func(i, j int) bool { return meta[i].Name < meta[j].Name })
	return Description{Name: p.name, Description: p.opts.Description, Functions: meta}
}

// Clone returns a copy of p registered under name, sharing no mutable state
// with p. Functions are re-owned by the new name.
func (p *Plugin) Clone(name string) *Plugin {
	c := New(name, func(o *Options) { *o = p.opts })
	for _, fn := range p.Functions() {
		c.functions.Set(fn.Name(), fn.InPlugin(name))
	}
	return c
}

// Provider supplies the functions of a plugin. Built-in plugins implement it
// so they can be turned into a Plugin with FromProvider.
type Provider interface {
	Functions() []*function.Function
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func() []*function.Function

// Functions implements Provider.
func (f ProviderFunc) Functions() []*function.Function { return f() }

// FromProvider creates a plugin holding every function the provider returns.
func FromProvider(name string, provider Provider, optFns ...func(o *Options)) (*Plugin, error) {
	p := New(name, optFns...)
	for _, fn := range provider.Functions() {
		if err := p.AddFunction(fn); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// FromPromptTemplates creates a plugin with one prompt function per entry of
// templates (function name -> template). Functions are added in name order.
func FromPromptTemplates(name string, templates map[string]string, optFns ...func(o *Options)) (*Plugin, error) {
	p := New(name, optFns...)

	names := make([]string, 0, len(templates))
	for n := range templates {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		fn, err := function.NewPromptFunction(n, templates[n])
		if err != nil {
			return nil, err
		}
		if err := p.AddFunction(fn); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Invoke runs the named function outside a kernel: no middleware and no
// events. Useful for tests and simple embedding.
func (p *Plugin) Invoke(ctx context.Context, name string, vars *core.Variables, host function.Host) (*core.Result, error) {
	fn, err := p.GetFunction(name)
	if err != nil {
		return nil, err
	}
	return fn.Invoke(ctx, vars, host), nil
}
