package function

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/internal/util"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/pkg/errors"
)

// Kind discriminates the two function variants.
type Kind int

const (
	// KindPrompt is a template rendered and sent to a chat service.
	KindPrompt Kind = iota
	// KindNative is a Go callable with a declared parameter schema.
	KindNative
)

func (k Kind) String() string {
	switch k {
	case KindPrompt:
		return "prompt"
	case KindNative:
		return "native"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name in JSON descriptions.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Parameter types understood by the binder.
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
	TypeList   = "list"
	TypeAny    = "any"
)

// Reserved parameter names. A native function declaring one of them receives
// the invocation's Variables ("context") or the Host ("kernel") instead of a
// bound value.
const (
	ParamContext = "context"
	ParamKernel  = "kernel"
)

// Parameter declares one named input of a function.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
	HasDefault  bool   `json:"has_default,omitempty"`
}

// Metadata is the planner-facing description of a function.
type Metadata struct {
	Name        string      `json:"name"`
	PluginName  string      `json:"plugin_name,omitempty"`
	Description string      `json:"description,omitempty"`
	Kind        Kind        `json:"kind"`
	Parameters  []Parameter `json:"parameters"`
}

// QualifiedName returns "Plugin.Function", or just the function name when
// the function has not been added to a plugin.
func (m Metadata) QualifiedName() string {
	if m.PluginName == "" {
		return m.Name
	}
	return m.PluginName + "." + m.Name
}

// Host is the capability surface a function sees while it runs. The kernel
// implements it; tests may supply a stub.
type Host interface {
	ChatService() core.ChatService
	MemoryStore() core.MemoryStore
	Logger() logging.Logger
	// RunRef invokes another registered function by "Plugin.Function".
	RunRef(ctx context.Context, ref string, vars *core.Variables) (*core.Result, error)
}

// Callable is the implementation behind a native function. The returned value
// is stringified into the Result output unless it already is a Result.
type Callable func(ctx context.Context, call *Call) (any, error)

// Options configures function construction.
type Options struct {
	// Description shown to planners and in Describe output.
	Description string
	// Parameters declares the inputs. For prompt functions it defaults to
	// one optional string parameter per template placeholder.
	Parameters []Parameter
}

// Function is a named unit of work, either a prompt template or a native
// callable. Construct with NewPromptFunction, NewNativeFunction or
// NewNativeFromStruct.
type Function struct {
	name        string
	description string
	pluginName  string
	kind        Kind
	params      []Parameter
	template    string
	callable    Callable
}

// NewPromptFunction creates a prompt function rendering template.
func NewPromptFunction(name, template string, optFns ...func(o *Options)) (*Function, error) {
	if name == "" {
		return nil, errors.Wrap(core.ErrInvalidFunction, "function name must not be empty")
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	params := opts.Parameters
	if params == nil {
		for _, v := range util.TemplateVariables(template) {
			params = append(params, Parameter{Name: v, Type: TypeString})
		}
	}

	return &Function{
		name:        name,
		description: opts.Description,
		kind:        KindPrompt,
		params:      cloneParams(params),
		template:    template,
	}, nil
}

// NewNativeFunction creates a native function around fn.
//
// Example:
//
//	add, _ := function.NewNativeFunction("add", func(ctx context.Context, c *function.Call) (any, error) {
//		return c.Float("a") + c.Float("b"), nil
//	}, func(o *function.Options) {
//		o.Description = "Adds two numbers"
//		o.Parameters = []function.Parameter{
//			{Name: "a", Type: function.TypeFloat, Required: true},
//			{Name: "b", Type: function.TypeFloat, Required: true},
//		}
//	})
func NewNativeFunction(name string, fn Callable, optFns ...func(o *Options)) (*Function, error) {
	if name == "" {
		return nil, errors.Wrap(core.ErrInvalidFunction, "function name must not be empty")
	}
	if fn == nil {
		return nil, errors.Wrapf(core.ErrInvalidFunction, "function %q has no callable", name)
	}

	opts := Options{}
	for _, f := range optFns {
		f(&opts)
	}

	for _, p := range opts.Parameters {
		if p.Name == "" {
			return nil, errors.Wrapf(core.ErrInvalidFunction, "function %q declares a parameter without a name", name)
		}
	}

	return &Function{
		name:        name,
		description: opts.Description,
		kind:        KindNative,
		params:      cloneParams(opts.Parameters),
		callable:    fn,
	}, nil
}

// NewNativeFromStruct derives the parameter schema from a struct's exported
// fields (json, description and default tags) and creates a native function.
// Parameters set through optFns are appended to the derived ones.
//
// Example:
//
//	type SumArgs struct {
//		A float64 `json:"a" description:"First addend"`
//		B float64 `json:"b" description:"Second addend" default:"0"`
//	}
//
//	sum, _ := function.NewNativeFromStruct("sum", SumArgs{}, impl)
func NewNativeFromStruct(name string, structType any, fn Callable, optFns ...func(o *Options)) (*Function, error) {
	var derived []Parameter
	for _, spec := range util.StructFields(structType) {
		p := Parameter{
			Name:        spec.Name,
			Type:        spec.Type,
			Description: spec.Description,
			Required:    spec.Required,
		}
		if spec.HasDefault {
			p.Default = spec.Default
			p.HasDefault = true
		}
		derived = append(derived, p)
	}

	return NewNativeFunction(name, fn, append([]func(o *Options){func(o *Options) {
		o.Parameters = derived
	}}, optFns...)...)
}

// Must panics if err is non-nil. Useful for package-level function tables.
func Must(fn *Function, err error) *Function {
	if err != nil {
		panic(err)
	}
	return fn
}

// Name returns the function name.
func (f *Function) Name() string { return f.name }

// Description returns the human readable description.
func (f *Function) Description() string { return f.description }

// Kind reports whether the function is a prompt or native function.
func (f *Function) Kind() Kind { return f.kind }

// PluginName returns the owning plugin, empty until added to one.
func (f *Function) PluginName() string { return f.pluginName }

// Template returns the prompt template (empty for native functions).
func (f *Function) Template() string { return f.template }

// Parameters returns a copy of the declared parameters.
func (f *Function) Parameters() []Parameter { return cloneParams(f.params) }

// QualifiedName returns "Plugin.Function" once the function belongs to a plugin.
func (f *Function) QualifiedName() string { return f.Describe().QualifiedName() }

// InPlugin returns a copy of f owned by pluginName. The receiver is left
// untouched so one Function value may be shared by several plugins.
func (f *Function) InPlugin(pluginName string) *Function {
	c := *f
	c.params = cloneParams(f.params)
	c.pluginName = pluginName
	return &c
}

// Describe returns the function's metadata.
func (f *Function) Describe() Metadata {
	return Metadata{
		Name:        f.name,
		PluginName:  f.pluginName,
		Description: f.description,
		Kind:        f.kind,
		Parameters:  cloneParams(f.params),
	}
}

// Invoke runs the function against vars. host supplies the chat service and
// other capabilities and may be nil for native functions that need none.
// Invoke never panics; a panic in a callable becomes a PANIC failure.
func (f *Function) Invoke(ctx context.Context, vars *core.Variables, host Host) (res *core.Result) {
	if vars == nil {
		vars = core.NewVariables()
	}

	defer func() {
		if r := recover(); r != nil {
			res = core.NewFailureResult(core.CodePanic, fmt.Sprintf("panic in %s: %v", f.QualifiedName(), r))
		}
	}()

	switch f.kind {
	case KindPrompt:
		return f.invokePrompt(ctx, vars, host)
	case KindNative:
		return f.invokeNative(ctx, vars, host)
	default:
		return core.NewFailureResult(core.CodeConfiguration, fmt.Sprintf("function %s has unknown kind %d", f.QualifiedName(), f.kind))
	}
}

func cloneParams(in []Parameter) []Parameter {
	if in == nil {
		return []Parameter{}
	}
	out := make([]Parameter, len(in))
	copy(out, in)
	return out
}
