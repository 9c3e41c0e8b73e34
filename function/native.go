package function

import (
	"context"
	"errors"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/internal/util"
	"github.com/samber/lo"
)

// Call carries the bound arguments of one native invocation.
type Call struct {
	// Vars is the invocation's live context bag.
	Vars *core.Variables
	// Host exposes the kernel's capabilities. It may be nil when a function
	// is invoked outside a kernel.
	Host Host

	args map[string]any
}

// NewCall builds a Call from already bound args. Mostly useful in tests.
func NewCall(vars *core.Variables, host Host, args map[string]any) *Call {
	if vars == nil {
		vars = core.NewVariables()
	}
	return &Call{Vars: vars, Host: host, args: lo.Assign(args)}
}

// Arg returns the bound value of name, nil when unbound.
func (c *Call) Arg(name string) any { return c.args[name] }

// Has reports whether name is bound to a non-nil value.
func (c *Call) Has(name string) bool { return c.args[name] != nil }

// Args returns a copy of all bound arguments.
func (c *Call) Args() map[string]any { return lo.Assign(c.args) }

// String returns the string form of the bound value.
func (c *Call) String(name string) string { return core.Stringify(c.args[name]) }

// Int returns the bound value as int, coercing when needed. Unconvertible
// values yield 0.
func (c *Call) Int(name string) int {
	v, err := util.Coerce(name, c.args[name], TypeInt)
	if err != nil || v == nil {
		return 0
	}
	return v.(int)
}

// Float returns the bound value as float64, 0 when unconvertible.
func (c *Call) Float(name string) float64 {
	v, err := util.Coerce(name, c.args[name], TypeFloat)
	if err != nil || v == nil {
		return 0
	}
	return v.(float64)
}

// Bool returns the bound value as bool, false when unconvertible.
func (c *Call) Bool(name string) bool {
	v, err := util.Coerce(name, c.args[name], TypeBool)
	if err != nil || v == nil {
		return false
	}
	return v.(bool)
}

// List returns the bound value as []any, nil when unconvertible.
func (c *Call) List(name string) []any {
	v, err := util.Coerce(name, c.args[name], TypeList)
	if err != nil || v == nil {
		return nil
	}
	return v.([]any)
}

// bind resolves every declared parameter from vars. Reserved names receive
// the Variables and the Host; other parameters take the variable of the same
// name, else their default, else nil, coerced to the declared type.
func (f *Function) bind(vars *core.Variables, host Host) (*Call, error) {
	args := make(map[string]any, len(f.params))
	for _, p := range f.params {
		switch p.Name {
		case ParamContext:
			args[p.Name] = vars
			continue
		case ParamKernel:
			args[p.Name] = host
			continue
		}

		raw, ok := vars.Get(p.Name)
		if !ok || raw == nil {
			if !p.HasDefault {
				args[p.Name] = nil
				continue
			}
			raw = p.Default
		}

		v, err := util.Coerce(p.Name, raw, p.Type)
		if err != nil {
			return nil, err
		}
		args[p.Name] = v
	}

	return &Call{Vars: vars, Host: host, args: args}, nil
}

func (f *Function) invokeNative(ctx context.Context, vars *core.Variables, host Host) *core.Result {
	call, err := f.bind(vars, host)
	if err != nil {
		return core.NewErrorResult(core.CodeBinding, err)
	}

	if host != nil && host.Logger() != nil {
		host.Logger().Debug("function.native.start", "function", f.QualifiedName(), "args", len(call.args))
	}

	value, err := f.callable(ctx, call)
	if err != nil {
		var fnErr *Error
		if errors.As(err, &fnErr) && fnErr.Code != "" {
			return core.NewFailureResult(fnErr.Code, fnErr.Message)
		}
		return core.NewErrorResult(core.CodeExecution, err)
	}

	switch v := value.(type) {
	case *core.Result:
		if v == nil {
			return core.NewSuccessResult("")
		}
		return v
	case core.Result:
		return &v
	}

	res := core.NewSuccessResult(core.Stringify(value))
	res.Value = value
	return res
}
