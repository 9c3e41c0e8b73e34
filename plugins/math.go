package plugins

import (
	"context"
	"strconv"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/function"
	"github.com/hupe1980/agentkernel/plugin"
)

// MathPluginName is the default name of the math plugin.
const MathPluginName = "Math"

// MathProvider provides binary arithmetic functions over the variables "a"
// and "b".
type MathProvider struct{}

var _ plugin.Provider = MathProvider{}

// Functions implements plugin.Provider.
func (MathProvider) Functions() []*function.Function {
	return []*function.Function{
		binaryOp("add", "Adds b to a", func(a, b float64) (float64, error) { return a + b, nil }),
		binaryOp("subtract", "Subtracts b from a", func(a, b float64) (float64, error) { return a - b, nil }),
		binaryOp("multiply", "Multiplies a by b", func(a, b float64) (float64, error) { return a * b, nil }),
		binaryOp("divide", "Divides a by b", func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, function.NewError("Math.divide", "division by zero", core.CodeExecution)
			}
			return a / b, nil
		}),
	}
}

// NewMathPlugin returns the math plugin named MathPluginName.
func NewMathPlugin() *plugin.Plugin {
	p, _ := plugin.FromProvider(MathPluginName, MathProvider{}, plugin.WithDescription("Basic arithmetic"))
	return p
}

func binaryOp(name, desc string, op func(a, b float64) (float64, error)) *function.Function {
	return function.Must(function.NewNativeFunction(name, func(_ context.Context, call *function.Call) (any, error) {
		for _, arg := range []string{"a", "b"} {
			if !call.Has(arg) {
				return nil, function.NewError(MathPluginName+"."+name, "missing argument "+arg, core.CodeBinding)
			}
		}
		v, err := op(call.Float("a"), call.Float("b"))
		if err != nil {
			return nil, err
		}
		return formatNumber(v), nil
	}, func(o *function.Options) {
		o.Description = desc
		o.Parameters = []function.Parameter{
			{Name: "a", Type: function.TypeFloat, Description: "Left operand", Required: true},
			{Name: "b", Type: function.TypeFloat, Description: "Right operand", Required: true},
		}
	}))
}

// formatNumber renders whole numbers without a fraction ("8", not "8.0").
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
