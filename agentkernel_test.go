package agentkernel

import (
	"bytes"
	"context"
	"testing"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/function"
	"github.com/hupe1980/agentkernel/kernel"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/hupe1980/agentkernel/memory"
	"github.com/hupe1980/agentkernel/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew_Defaults(t *testing.T) {
	ak, err := New()
	require.NoError(t, err)

	assert.IsType(t, &memory.VolatileStore{}, ak.MemoryStore())
	assert.Nil(t, ak.ChatService())
	assert.Equal(t, []string{"Math", "Memory", "Text"}, ak.PluginNames())

	res, err := ak.RunRef(context.Background(), "Math.add", core.VariablesFromMap(map[string]any{"a": 5, "b": 3}))
	require.NoError(t, err)
	assert.Equal(t, "8", res.Output)

	res, err = ak.RunInput(context.Background(), "Text.upper", "shout")
	require.NoError(t, err)
	assert.Equal(t, "SHOUT", res.Output)

	stats := ak.FunctionStats()
	require.Len(t, stats, 2)
	assert.Equal(t, "Math.add", stats[0].Name)
	assert.Equal(t, 1, stats[0].Calls)
}

func TestNew_Options(t *testing.T) {
	ctx := context.Background()
	chat := model.NewMockChatService("mock")
	chat.AddResponse("Hello Ada", "Hi!")
	sr := tracetest.NewSpanRecorder()
	limiter := kernel.NewCallLimiter(2)

	ak, err := New(func(o *Options) {
		o.ChatService = chat
		o.Embedder = model.NewHashEmbedder(16)
		o.DisableBuiltinPlugins = true
		o.TracerProvider = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
		o.BeforeMiddleware = []kernel.BeforeMiddleware{limiter}
	})
	require.NoError(t, err)
	assert.Empty(t, ak.PluginNames())

	greet := function.Must(function.NewPromptFunction("greet", "Hello {{name}}"))
	_, err = ak.ImportFunctions("Chat", greet)
	require.NoError(t, err)

	res, err := ak.RunRef(ctx, "Chat.greet", core.VariablesFromMap(map[string]any{"name": "Ada"}))
	require.NoError(t, err)
	assert.Equal(t, "Hi!", res.Output)

	_, err = ak.RunRef(ctx, "Chat.greet", core.NewVariables())
	require.NoError(t, err)
	res, err = ak.RunRef(ctx, "Chat.greet", core.NewVariables())
	require.NoError(t, err)
	assert.Equal(t, core.CodeMiddleware, res.ErrorCode)

	assert.Len(t, sr.Ended(), 3)

	_, err = ak.MemoryStore().SaveInformation(ctx, "docs", "1", "hello world", nil, nil)
	require.NoError(t, err)
	rec, err := ak.MemoryStore().GetInformation(ctx, "docs", "1")
	require.NoError(t, err)
	assert.Len(t, rec.Embedding, 16)
}

func TestNew_LoggerConfigScopesComponents(t *testing.T) {
	var buf bytes.Buffer
	ak, err := New(func(o *Options) {
		o.LoggerConfig = &logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "text", Output: &buf}
		o.LogInvocations = true
	})
	require.NoError(t, err)
	assert.IsType(t, &logging.KernelLogger{}, ak.opts.Logger)

	_, err = ak.RunRef(context.Background(), "Math.add", core.VariablesFromMap(map[string]any{"a": 1, "b": 2}))
	require.NoError(t, err)
	_, err = ak.RunRef(context.Background(), "Math.divide", core.VariablesFromMap(map[string]any{"a": 1, "b": 0}))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "component=telemetry")
	assert.Contains(t, out, "Function invocation completed")
	assert.Contains(t, out, "Function invocation failed")
	assert.Contains(t, out, "function=Math.add")
	assert.Contains(t, out, "invocation_id=")
	assert.Contains(t, out, "component=kernel")
}
