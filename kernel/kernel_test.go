package kernel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/event"
	"github.com/hupe1980/agentkernel/function"
	"github.com/hupe1980/agentkernel/internal/testutil"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/hupe1980/agentkernel/memory"
	"github.com/hupe1980/agentkernel/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockChat is a testify mock implementing core.ChatService.
type mockChat struct{ mock.Mock }

func (m *mockChat) GenerateText(ctx context.Context, prompt string, vars *core.Variables) (string, error) {
	args := m.Called(ctx, prompt, vars)
	return args.String(0), args.Error(1)
}

func (m *mockChat) IsServiceAvailable(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func native(name string, fn function.Callable, params ...function.Parameter) *function.Function {
	return function.Must(function.NewNativeFunction(name, fn, func(o *function.Options) { o.Parameters = params }))
}

func mathPlugin() *plugin.Plugin {
	add := native("add", func(_ context.Context, c *function.Call) (any, error) {
		return c.Float("a") + c.Float("b"), nil
	}, function.Parameter{Name: "a", Type: function.TypeFloat, Required: true}, function.Parameter{Name: "b", Type: function.TypeFloat, Required: true})
	return plugin.New("Math").MustAddFunction(add)
}

func TestKernel_RunMathAdd(t *testing.T) {
	k := New()
	require.NoError(t, k.ImportPlugin(mathPlugin()))

	res, err := k.Run(context.Background(), "Math", "add", core.VariablesFromMap(map[string]any{"a": "5", "b": "3"}))
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "8", res.Output)

	res, err = k.RunRef(context.Background(), "Math.add", core.VariablesFromMap(map[string]any{"a": 1, "b": 2}))
	require.NoError(t, err)
	assert.Equal(t, "3", res.Output)
}

func TestKernel_ResolutionErrorsEmitNoEvents(t *testing.T) {
	k := New()
	rec := testutil.NewEventRecorder()
	k.Subscribe(core.EventFunctionInvoking, rec.Record)
	k.Subscribe(core.EventFunctionInvoked, rec.Record)
	require.NoError(t, k.ImportPlugin(mathPlugin()))

	_, err := k.Run(context.Background(), "Nope", "add", nil)
	assert.ErrorIs(t, err, core.ErrPluginNotFound)

	_, err = k.Run(context.Background(), "Math", "nope", nil)
	assert.ErrorIs(t, err, core.ErrFunctionNotFound)

	for _, ref := range []string{"", "Math", ".add", "Math.", "noDot"} {
		_, err = k.RunRef(context.Background(), ref, nil)
		assert.ErrorIs(t, err, core.ErrInvalidReference, ref)
	}

	assert.Empty(t, rec.Events())
	assert.Zero(t, k.GetStats().Invocations)
}

func TestParseRef_SplitsOnFirstDot(t *testing.T) {
	p, f, err := ParseRef("Text.to.upper")
	require.NoError(t, err)
	assert.Equal(t, "Text", p)
	assert.Equal(t, "to.upper", f)
}

func TestKernel_BeforeMiddlewaresTagContext(t *testing.T) {
	k := New()
	var seen []any
	echo := native("echo", func(_ context.Context, c *function.Call) (any, error) {
		v, _ := c.Vars.Get("tags")
		seen = v.([]any)
		return "ok", nil
	})
	_, err := k.ImportFunctions("Echo", echo)
	require.NoError(t, err)

	tag := func(name string) BeforeFunc {
		return func(_ context.Context, _ Invocation, vars *core.Variables) (*core.Variables, error) {
			tags, _ := vars.Get("tags")
			list, _ := tags.([]any)
			vars.Set("tags", append(list, name))
			return vars, nil
		}
	}
	k.AddBeforeMiddleware(tag("m1"))
	k.AddBeforeMiddleware(tag("m2"))

	res, err := k.RunRef(context.Background(), "Echo.echo", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []any{"m1", "m2"}, seen)
}

func TestKernel_BeforeMiddlewareCanReplaceVariables(t *testing.T) {
	k := New()
	_, _ = k.ImportFunctions("P", native("in", func(_ context.Context, c *function.Call) (any, error) {
		return c.Vars.Input(), nil
	}))

	k.AddBeforeMiddleware(BeforeFunc(func(context.Context, Invocation, *core.Variables) (*core.Variables, error) {
		return core.NewVariablesWithInput("replaced"), nil
	}))
	k.AddBeforeMiddleware(BeforeFunc(func(context.Context, Invocation, *core.Variables) (*core.Variables, error) {
		return nil, nil // keep
	}))

	original := core.NewVariablesWithInput("original")
	res, _ := k.RunRef(context.Background(), "P.in", original)
	assert.Equal(t, "replaced", res.Output)
	assert.Equal(t, "original", original.Input())
}

func TestKernel_PipelineOrdering(t *testing.T) {
	k := New()
	var mu sync.Mutex
	var trace []string
	note := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		trace = append(trace, s)
	}

	_, _ = k.ImportFunctions("P", native("f", func(context.Context, *function.Call) (any, error) {
		note("function")
		return "done", nil
	}))

	for _, name := range []string{"b1", "b2"} {
		name := name
		k.AddBeforeMiddleware(BeforeFunc(func(context.Context, Invocation, *core.Variables) (*core.Variables, error) {
			note(name)
			return nil, nil
		}))
	}
	for _, name := range []string{"a1", "a2"} {
		name := name
		k.AddAfterMiddleware(AfterFunc(func(context.Context, Invocation, *core.Variables, *core.Result) (*core.Result, error) {
			note(name)
			return nil, nil
		}))
	}

	var invocationIDs []string
	k.Subscribe(core.EventFunctionInvoking, func(_ context.Context, ev core.Event) error {
		note("event:invoking")
		invocationIDs = append(invocationIDs, ev.InvocationID)
		return nil
	})
	k.Subscribe(core.EventFunctionInvoked, func(_ context.Context, ev core.Event) error {
		note("event:invoked")
		invocationIDs = append(invocationIDs, ev.InvocationID)
		assert.True(t, ev.Success)
		assert.Equal(t, "P.f", ev.QualifiedName())
		assert.Equal(t, "done", ev.Result.Output)
		return nil
	})

	res, err := k.RunRef(context.Background(), "P.f", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"b1", "b2", "event:invoking", "function", "a1", "a2", "event:invoked"}, trace)
	require.Len(t, invocationIDs, 2)
	assert.Equal(t, invocationIDs[0], invocationIDs[1])
	assert.NotEmpty(t, invocationIDs[0])
}

func TestKernel_BeforeMiddlewareFailureAborts(t *testing.T) {
	k := New()
	called := false
	_, _ = k.ImportFunctions("P", native("f", func(context.Context, *function.Call) (any, error) {
		called = true
		return "x", nil
	}))

	secondBefore, afterRan := false, false
	k.AddBeforeMiddleware(BeforeFunc(func(context.Context, Invocation, *core.Variables) (*core.Variables, error) {
		return nil, errors.New("denied")
	}))
	k.AddBeforeMiddleware(BeforeFunc(func(context.Context, Invocation, *core.Variables) (*core.Variables, error) {
		secondBefore = true
		return nil, nil
	}))
	k.AddAfterMiddleware(AfterFunc(func(context.Context, Invocation, *core.Variables, *core.Result) (*core.Result, error) {
		afterRan = true
		return nil, nil
	}))

	rec := testutil.NewEventRecorder()
	k.Subscribe(core.EventFunctionInvoking, rec.Record)
	k.Subscribe(core.EventFunctionInvoked, rec.Record)

	res, err := k.RunRef(context.Background(), "P.f", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, core.CodeMiddleware, res.ErrorCode)
	assert.Contains(t, res.Error, "denied")
	assert.False(t, called)
	assert.False(t, secondBefore)
	assert.False(t, afterRan)

	require.Equal(t, []core.EventType{core.EventFunctionInvoked}, rec.Types())
	ev := rec.Events()[0]
	assert.False(t, ev.Success)
	assert.Equal(t, true, ev.Data[DataAborted])
	assert.Equal(t, core.CodeMiddleware, ev.Data[DataErrorCode])
}

func TestKernel_AfterMiddlewareFailureReplacesResult(t *testing.T) {
	k := New()
	_, _ = k.ImportFunctions("P", native("f", func(context.Context, *function.Call) (any, error) { return "fine", nil }))

	laterRan := false
	k.AddAfterMiddleware(AfterFunc(func(context.Context, Invocation, *core.Variables, *core.Result) (*core.Result, error) {
		panic("after exploded")
	}))
	k.AddAfterMiddleware(AfterFunc(func(context.Context, Invocation, *core.Variables, *core.Result) (*core.Result, error) {
		laterRan = true
		return nil, nil
	}))

	rec := testutil.NewEventRecorder()
	k.Subscribe(core.EventFunctionInvoked, rec.Record)

	res, err := k.RunRef(context.Background(), "P.f", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, core.CodeMiddleware, res.ErrorCode)
	assert.Contains(t, res.Error, "after exploded")
	assert.False(t, laterRan)
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, false, rec.Events()[0].Data[DataAborted])
}

func TestKernel_AfterMiddlewareTransformsResult(t *testing.T) {
	k := New()
	_, _ = k.ImportFunctions("P", native("f", func(context.Context, *function.Call) (any, error) { return "hello", nil }))

	k.AddAfterMiddleware(AfterFunc(func(_ context.Context, _ Invocation, _ *core.Variables, res *core.Result) (*core.Result, error) {
		return res.WithOutput(res.Output + " world"), nil
	}))
	k.AddAfterMiddleware(AfterFunc(func(_ context.Context, _ Invocation, _ *core.Variables, res *core.Result) (*core.Result, error) {
		return res.WithMetadata("seen", res.Output), nil
	}))

	res, _ := k.RunRef(context.Background(), "P.f", nil)
	assert.Equal(t, "hello world", res.Output)
	assert.Equal(t, "hello world", res.Metadata["seen"])
}

func TestKernel_ErrorContainment(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))
	k := New(WithLogger(logger))

	_, _ = k.ImportFunctions("P",
		native("fails", func(context.Context, *function.Call) (any, error) { return nil, errors.New("broken") }),
		native("panics", func(context.Context, *function.Call) (any, error) { panic("kaboom") }),
		function.Must(function.NewPromptFunction("prompt", "hi")),
	)

	for name, code := range map[string]string{"fails": core.CodeExecution, "panics": core.CodePanic, "prompt": core.CodeConfiguration} {
		res, err := k.Run(context.Background(), "P", name, nil)
		require.NoError(t, err, name)
		assert.False(t, res.Success, name)
		assert.Equal(t, code, res.ErrorCode, name)
		assert.NotEmpty(t, res.Error, name)
	}

	stats := k.GetStats()
	assert.EqualValues(t, 3, stats.Invocations)
	assert.EqualValues(t, 3, stats.Failures)
	assert.Contains(t, buf.String(), "kernel.function.failed")
}

func TestKernel_HandlerFailureDoesNotAffectResult(t *testing.T) {
	k := New()
	_, _ = k.ImportFunctions("P", native("f", func(context.Context, *function.Call) (any, error) { return "ok", nil }))
	k.Subscribe(core.EventFunctionInvoked, func(context.Context, core.Event) error { return errors.New("handler failed") })
	k.Subscribe(core.EventFunctionInvoking, func(context.Context, core.Event) error { panic("handler panic") })

	res, err := k.RunRef(context.Background(), "P.f", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "ok", res.Output)
}

func TestKernel_PromptFunctionWithChatService(t *testing.T) {
	chat := &mockChat{}
	chat.On("GenerateText", mock.Anything, "Translate: hello", mock.Anything).Return("hallo", nil).Once()

	k := New(WithChatService(chat))
	p, err := plugin.FromPromptTemplates("Writer", map[string]string{"translate": "Translate: {{input}}"})
	require.NoError(t, err)
	require.NoError(t, k.ImportPlugin(p))

	res, err := k.RunRef(context.Background(), "Writer.translate", core.NewVariablesWithInput("hello"))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "hallo", res.Output)
	chat.AssertExpectations(t)

	k.SetChatService(nil)
	res, _ = k.RunRef(context.Background(), "Writer.translate", core.NewVariablesWithInput("hello"))
	assert.Equal(t, core.CodeConfiguration, res.ErrorCode)
}

func TestKernel_ExecuteSequence(t *testing.T) {
	k := New()
	_, _ = k.ImportFunctions("T",
		native("upper", func(_ context.Context, c *function.Call) (any, error) {
			return fmt.Sprintf("UP(%s)", c.Vars.Input()), nil
		}),
		native("wrap", func(_ context.Context, c *function.Call) (any, error) {
			return fmt.Sprintf("[%s]", c.Vars.Input()), nil
		}),
		native("fail", func(context.Context, *function.Call) (any, error) { return nil, errors.New("nope") }),
	)

	vars := core.NewVariablesWithInput("x")
	results, err := k.ExecuteSequence(context.Background(), []string{"T.upper", "T.fail", "Missing.fn", "T.wrap"}, vars)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "UP(x)", results[0].Output)
	assert.False(t, results[1].Success)
	assert.Equal(t, core.CodeExecution, results[1].ErrorCode)
	assert.False(t, results[2].Success)
	assert.Equal(t, core.CodeResolution, results[2].ErrorCode)
	assert.Equal(t, "[UP(x)]", results[3].Output)
	assert.Equal(t, "[UP(x)]", vars.Input())
}

func TestKernel_ExecuteSequenceCancelled(t *testing.T) {
	k := New()
	_, _ = k.ImportFunctions("T", native("a", func(context.Context, *function.Call) (any, error) { return "a", nil }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := k.ExecuteSequence(ctx, []string{"T.a", "T.a"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestKernel_PluginRegistry(t *testing.T) {
	k := New()
	first := plugin.New("P").MustAddFunction(native("f", func(context.Context, *function.Call) (any, error) { return "first", nil }))
	second := plugin.New("P").MustAddFunction(native("f", func(context.Context, *function.Call) (any, error) { return "second", nil }))

	require.NoError(t, k.ImportPlugin(first))
	require.NoError(t, k.ImportPlugin(second))
	assert.Len(t, k.GetPlugins(), 1)

	res, _ := k.RunRef(context.Background(), "P.f", nil)
	assert.Equal(t, "second", res.Output, "re-import overwrites")

	require.NoError(t, k.ImportPluginAs("Alias", first))
	res, _ = k.RunRef(context.Background(), "Alias.f", nil)
	assert.Equal(t, "first", res.Output)
	assert.Equal(t, []string{"Alias", "P"}, k.PluginNames())

	got, err := k.GetPlugin("Alias")
	require.NoError(t, err)
	fn, _ := got.GetFunction("f")
	assert.Equal(t, "Alias.f", fn.QualifiedName())

	assert.True(t, k.RemovePlugin("Alias"))
	assert.False(t, k.RemovePlugin("Alias"))
	_, err = k.GetPlugin("Alias")
	assert.ErrorIs(t, err, core.ErrPluginNotFound)

	assert.Error(t, k.ImportPlugin(nil))
	assert.ErrorIs(t, k.ImportPluginAs("bad.name", first), core.ErrInvalidReference)
}

func TestKernel_RejectDuplicatePlugins(t *testing.T) {
	k := New(WithDuplicatePolicy(plugin.Reject))
	require.NoError(t, k.ImportPlugin(plugin.New("P")))
	assert.ErrorIs(t, k.ImportPlugin(plugin.New("P")), core.ErrDuplicatePlugin)
	_, err := k.ImportFunctions("P")
	assert.ErrorIs(t, err, core.ErrDuplicatePlugin)
}

func TestKernel_DescribeAndStats(t *testing.T) {
	store := memory.NewVolatileStore()
	d := event.NewDispatcher()
	k := New(WithMemoryStore(store), WithDispatcher(d))
	require.NoError(t, k.ImportPlugin(mathPlugin()))
	_, _ = k.ImportFunctions("Alpha", native("z", func(context.Context, *function.Call) (any, error) { return "", nil }))

	meta := k.Describe()
	require.Len(t, meta, 2)
	assert.Equal(t, "Alpha.z", meta[0].QualifiedName())
	assert.Equal(t, "Math.add", meta[1].QualifiedName())

	k.AddMiddleware(NewLoggingMiddleware(nil))
	k.AddBeforeMiddleware(RequireParameters())
	k.Subscribe(core.EventFunctionInvoked, func(context.Context, core.Event) error { return nil })

	stats := k.GetStats()
	assert.Equal(t, 2, stats.PluginCount)
	assert.Equal(t, 2, stats.TotalFunctions)
	assert.Equal(t, 2, stats.BeforeMiddlewares)
	assert.Equal(t, 1, stats.AfterMiddlewares)
	assert.False(t, stats.HasChatService)
	assert.True(t, stats.HasMemoryStore)
	assert.Equal(t, []core.EventType{core.EventFunctionInvoked}, stats.EventTypes)

	assert.Same(t, d, k.Dispatcher())
	assert.Same(t, store, k.MemoryStore())

	k.ClearMiddleware()
	assert.Zero(t, k.GetStats().BeforeMiddlewares)
}

func TestKernel_ReentrantRunFromHandler(t *testing.T) {
	k := New()
	_, _ = k.ImportFunctions("P",
		native("outer", func(context.Context, *function.Call) (any, error) { return "outer", nil }),
		native("inner", func(context.Context, *function.Call) (any, error) { return "inner", nil }),
	)

	var innerRes *core.Result
	k.Subscribe(core.EventFunctionInvoked, func(ctx context.Context, ev core.Event) error {
		if ev.FunctionName != "outer" {
			return nil
		}
		var err error
		innerRes, err = k.RunRef(ctx, "P.inner", nil)
		return err
	})

	res, err := k.RunRef(context.Background(), "P.outer", nil)
	require.NoError(t, err)
	assert.Equal(t, "outer", res.Output)
	require.NotNil(t, innerRes)
	assert.Equal(t, "inner", innerRes.Output)
}

func TestKernel_FunctionCallsBackThroughHost(t *testing.T) {
	k := New()
	_, _ = k.ImportFunctions("P",
		native("double", func(_ context.Context, c *function.Call) (any, error) {
			return c.Int("n") * 2, nil
		}, function.Parameter{Name: "n", Type: function.TypeInt}),
		native("quad", func(ctx context.Context, c *function.Call) (any, error) {
			host := c.Arg(function.ParamKernel).(function.Host)
			vars := core.NewVariables()
			vars.Set("n", c.Int("n"))
			first, err := host.RunRef(ctx, "P.double", vars)
			if err != nil {
				return nil, err
			}
			vars.Set("n", first.Output)
			return host.RunRef(ctx, "P.double", vars)
		}, function.Parameter{Name: "n", Type: function.TypeInt}, function.Parameter{Name: function.ParamKernel}),
	)

	vars := core.NewVariables()
	vars.Set("n", 3)
	res, err := k.RunRef(context.Background(), "P.quad", vars)
	require.NoError(t, err)
	assert.Equal(t, "12", res.Output)
	assert.EqualValues(t, 3, k.GetStats().Invocations)
}

func TestKernel_ConcurrentRuns(t *testing.T) {
	k := New()
	require.NoError(t, k.ImportPlugin(mathPlugin()))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := k.RunRef(context.Background(), "Math.add", core.VariablesFromMap(map[string]any{"a": i, "b": 1}))
			assert.NoError(t, err)
			assert.Equal(t, fmt.Sprint(float64(i+1)), res.Output)
		}(i)
		if i%8 == 0 {
			k.AddBeforeMiddleware(BeforeFunc(func(context.Context, Invocation, *core.Variables) (*core.Variables, error) { return nil, nil }))
		}
	}
	wg.Wait()
	assert.EqualValues(t, 32, k.GetStats().Invocations)
}

func TestRequireParameters(t *testing.T) {
	k := New()
	require.NoError(t, k.ImportPlugin(mathPlugin()))
	k.AddBeforeMiddleware(RequireParameters())

	res, err := k.RunRef(context.Background(), "Math.add", core.VariablesFromMap(map[string]any{"a": 1}))
	require.NoError(t, err)
	assert.Equal(t, core.CodeMiddleware, res.ErrorCode)
	assert.Contains(t, res.Error, "b")

	res, _ = k.RunRef(context.Background(), "Math.add", core.VariablesFromMap(map[string]any{"a": 1, "b": 1}))
	assert.True(t, res.Success)
}

func TestCallLimiter(t *testing.T) {
	k := New()
	require.NoError(t, k.ImportPlugin(mathPlugin()))
	limiter := NewCallLimiter(2)
	k.AddBeforeMiddleware(limiter)

	vars := core.VariablesFromMap(map[string]any{"a": 1, "b": 1})
	for i := 0; i < 2; i++ {
		res, _ := k.RunRef(context.Background(), "Math.add", vars)
		assert.True(t, res.Success)
	}
	assert.Equal(t, 0, limiter.Remaining())

	res, _ := k.RunRef(context.Background(), "Math.add", vars)
	assert.Equal(t, core.CodeMiddleware, res.ErrorCode)
	assert.Contains(t, res.Error, "exceeded max invocations")
	assert.Equal(t, 3, limiter.Count())

	limiter.Reset()
	assert.Equal(t, 2, limiter.Remaining())
	assert.Equal(t, -1, NewCallLimiter(0).Remaining())
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))

	k := New()
	_, _ = k.ImportFunctions("P",
		native("ok", func(context.Context, *function.Call) (any, error) { return "ok", nil }),
		native("bad", func(context.Context, *function.Call) (any, error) { return nil, errors.New("bad") }),
	)
	k.AddMiddleware(NewLoggingMiddleware(logger))

	_, _ = k.RunRef(context.Background(), "P.ok", nil)
	_, _ = k.RunRef(context.Background(), "P.bad", nil)

	out := buf.String()
	assert.Contains(t, out, "function.invoke.start")
	assert.Contains(t, out, "function.invoke.success")
	assert.Contains(t, out, "function.invoke.failure")
}

func TestKernel_EventTimestampsIncrease(t *testing.T) {
	k := New()
	require.NoError(t, k.ImportPlugin(mathPlugin()))
	rec := testutil.NewEventRecorder()
	k.Subscribe(core.EventFunctionInvoking, rec.Record)
	k.Subscribe(core.EventFunctionInvoked, rec.Record)

	for i := 0; i < 3; i++ {
		_, _ = k.RunRef(context.Background(), "Math.add", nil)
	}

	evs := rec.Events()
	require.Len(t, evs, 6)
	for i := 1; i < len(evs); i++ {
		assert.True(t, evs[i].Timestamp.After(evs[i-1].Timestamp))
	}
	assert.GreaterOrEqual(t, evs[1].Duration.Nanoseconds(), int64(0))
	assert.Contains(t, evs[1].Data, DataElapsedMillis)
}

func TestKernel_ElapsedExcludesBeforeMiddleware(t *testing.T) {
	k := New()
	_, err := k.ImportFunctions("Fast", native("noop", func(context.Context, *function.Call) (any, error) {
		return "ok", nil
	}))
	require.NoError(t, err)

	k.AddBeforeMiddleware(BeforeFunc(func(context.Context, Invocation, *core.Variables) (*core.Variables, error) {
		time.Sleep(80 * time.Millisecond)
		return nil, nil
	}))

	rec := testutil.NewEventRecorder()
	k.Subscribe(core.EventFunctionInvoked, rec.Record)

	res, err := k.RunRef(context.Background(), "Fast.noop", nil)
	require.NoError(t, err)
	require.True(t, res.Success)

	evs := rec.Events()
	require.Len(t, evs, 1)
	assert.Less(t, evs[0].Duration, 40*time.Millisecond)
	assert.Less(t, evs[0].Data[DataElapsedMillis].(float64), 40.0)
}

func TestKernel_EventVariablesAreSnapshots(t *testing.T) {
	k := New()
	_, err := k.ImportFunctions("State", native("mutate", func(_ context.Context, c *function.Call) (any, error) {
		c.Vars.Set("step", "after")
		return "ok", nil
	}))
	require.NoError(t, err)

	rec := testutil.NewEventRecorder()
	k.Subscribe(core.EventFunctionInvoking, rec.Record)
	k.Subscribe(core.EventFunctionInvoked, rec.Record)

	vars := core.VariablesFromMap(map[string]any{"step": "before"})
	_, err = k.RunRef(context.Background(), "State.mutate", vars)
	require.NoError(t, err)

	evs := rec.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, "before", evs[0].Variables.GetString("step"))
	assert.Equal(t, "after", evs[1].Variables.GetString("step"))

	vars.Set("step", "later")
	assert.Equal(t, "after", evs[1].Variables.GetString("step"))
}
