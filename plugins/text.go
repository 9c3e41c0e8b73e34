package plugins

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/function"
	"github.com/hupe1980/agentkernel/plugin"
)

// TextPluginName is the default name of the text plugin.
const TextPluginName = "Text"

// TextProvider provides string helpers operating on the "input" variable.
type TextProvider struct{}

var _ plugin.Provider = TextProvider{}

var inputParam = function.Parameter{Name: core.InputKey, Type: function.TypeString, Description: "Text to transform"}

// Functions implements plugin.Provider.
func (TextProvider) Functions() []*function.Function {
	return []*function.Function{
		unaryText("trim", "Removes leading and trailing whitespace", strings.TrimSpace),
		unaryText("upper", "Converts the input to upper case", strings.ToUpper),
		unaryText("lower", "Converts the input to lower case", strings.ToLower),
		function.Must(function.NewNativeFunction("length", func(_ context.Context, call *function.Call) (any, error) {
			return utf8.RuneCountInString(call.String(core.InputKey)), nil
		}, func(o *function.Options) {
			o.Description = "Counts the characters of the input"
			o.Parameters = []function.Parameter{inputParam}
		})),
		function.Must(function.NewNativeFunction("concat", func(_ context.Context, call *function.Call) (any, error) {
			return call.String(core.InputKey) + call.String("separator") + call.String("suffix"), nil
		}, func(o *function.Options) {
			o.Description = "Appends suffix to the input, joined by separator"
			o.Parameters = []function.Parameter{
				inputParam,
				{Name: "suffix", Type: function.TypeString, Description: "Text to append", Required: true},
				{Name: "separator", Type: function.TypeString, Description: "Joiner", Default: "", HasDefault: true},
			}
		})),
	}
}

// NewTextPlugin returns the text plugin named TextPluginName.
func NewTextPlugin() *plugin.Plugin {
	p, _ := plugin.FromProvider(TextPluginName, TextProvider{}, plugin.WithDescription("String manipulation"))
	return p
}

func unaryText(name, desc string, fn func(string) string) *function.Function {
	return function.Must(function.NewNativeFunction(name, func(_ context.Context, call *function.Call) (any, error) {
		return fn(call.String(core.InputKey)), nil
	}, func(o *function.Options) {
		o.Description = desc
		o.Parameters = []function.Parameter{inputParam}
	}))
}
