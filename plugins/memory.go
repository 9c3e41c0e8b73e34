package plugins

import (
	"context"
	"strings"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/function"
	"github.com/hupe1980/agentkernel/plugin"
	"github.com/pkg/errors"
)

// MemoryPluginName is the default name of the memory plugin.
const MemoryPluginName = "Memory"

// DefaultCollection is used when no "collection" variable is set.
const DefaultCollection = "generic"

// Memory plugin defaults.
const (
	DefaultRecallLimit     = 1
	DefaultRecallRelevance = 0.0
)

// MemoryProvider provides Save, Recall and Remove against the host's
// MemoryStore.
type MemoryProvider struct{}

var _ plugin.Provider = MemoryProvider{}

func memoryParams(extra ...function.Parameter) []function.Parameter {
	return append([]function.Parameter{
		{Name: function.ParamKernel, Type: function.TypeAny},
		{Name: "collection", Type: function.TypeString, Description: "Memory collection", Default: DefaultCollection, HasDefault: true},
	}, extra...)
}

// Functions implements plugin.Provider.
func (MemoryProvider) Functions() []*function.Function {
	return []*function.Function{
		function.Must(function.NewNativeFunction("save", memorySave, func(o *function.Options) {
			o.Description = "Stores the input under key"
			o.Parameters = memoryParams(
				function.Parameter{Name: "key", Type: function.TypeString, Description: "Record id", Required: true},
				function.Parameter{Name: core.InputKey, Type: function.TypeString, Description: "Text to remember", Required: true},
			)
		})),
		function.Must(function.NewNativeFunction("recall", memoryRecall, func(o *function.Options) {
			o.Description = "Returns the stored texts most relevant to the input, one per line"
			o.Parameters = memoryParams(
				function.Parameter{Name: core.InputKey, Type: function.TypeString, Description: "Query text", Required: true},
				function.Parameter{Name: "limit", Type: function.TypeInt, Default: DefaultRecallLimit, HasDefault: true},
				function.Parameter{Name: "relevance", Type: function.TypeFloat, Default: DefaultRecallRelevance, HasDefault: true},
			)
		})),
		function.Must(function.NewNativeFunction("remove", memoryRemove, func(o *function.Options) {
			o.Description = "Deletes the record stored under key"
			o.Parameters = memoryParams(
				function.Parameter{Name: "key", Type: function.TypeString, Description: "Record id", Required: true},
			)
		})),
	}
}

// NewMemoryPlugin returns the memory plugin named MemoryPluginName.
func NewMemoryPlugin() *plugin.Plugin {
	p, _ := plugin.FromProvider(MemoryPluginName, MemoryProvider{}, plugin.WithDescription("Semantic memory access"))
	return p
}

func storeOf(call *function.Call, fn string) (core.MemoryStore, error) {
	host, _ := call.Arg(function.ParamKernel).(function.Host)
	if host == nil || host.MemoryStore() == nil {
		return nil, errors.Wrapf(core.ErrNoMemoryStore, "%s.%s", MemoryPluginName, fn)
	}
	return host.MemoryStore(), nil
}

func memorySave(ctx context.Context, call *function.Call) (any, error) {
	store, err := storeOf(call, "save")
	if err != nil {
		return nil, err
	}
	key := call.String("key")
	if key == "" {
		return nil, function.NewError(MemoryPluginName+".Save", "missing argument key", core.CodeBinding)
	}
	if _, err := store.SaveInformation(ctx, call.String("collection"), key, call.String(core.InputKey), nil, nil); err != nil {
		return nil, errors.Wrapf(err, "save %q", key)
	}
	return "", nil
}

func memoryRecall(ctx context.Context, call *function.Call) (any, error) {
	store, err := storeOf(call, "recall")
	if err != nil {
		return nil, err
	}
	results, err := store.GetRelevant(ctx, call.String("collection"), call.String(core.InputKey), call.Int("limit"), call.Float("relevance"), nil)
	if err != nil {
		return nil, errors.Wrap(err, "recall")
	}
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Record.Text)
	}
	return strings.Join(texts, "\n"), nil
}

func memoryRemove(ctx context.Context, call *function.Call) (any, error) {
	store, err := storeOf(call, "remove")
	if err != nil {
		return nil, err
	}
	removed, err := store.RemoveInformation(ctx, call.String("collection"), call.String("key"))
	if err != nil {
		return nil, errors.Wrapf(err, "remove %q", call.String("key"))
	}
	return removed, nil
}
