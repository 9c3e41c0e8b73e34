package kernel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/function"
	"github.com/pkg/errors"
)

// Event data keys set on kernel events.
const (
	DataElapsedMillis = "elapsed_ms"
	DataAborted       = "aborted"
	DataErrorCode     = "error_code"
)

// Run invokes pluginName.functionName with vars (a fresh bag when nil).
//
// The returned error is non-nil only when the plugin or function cannot be
// resolved (wrapping core.ErrPluginNotFound / core.ErrFunctionNotFound); no
// events are emitted in that case. Every other failure is reported through
// the Result.
func (k *Kernel) Run(ctx context.Context, pluginName, functionName string, vars *core.Variables) (*core.Result, error) {
	fn, err := k.resolve(pluginName, functionName)
	if err != nil {
		k.logger.Warn("kernel.resolve.failed", "plugin", pluginName, "function", functionName, "error", err.Error())
		return nil, err
	}

	if vars == nil {
		vars = core.NewVariables()
	}

	return k.invoke(ctx, fn, vars), nil
}

// RunRef invokes the function addressed as "Plugin.Function". The reference
// is split on its first dot; a reference without both parts returns an error
// wrapping core.ErrInvalidReference.
func (k *Kernel) RunRef(ctx context.Context, ref string, vars *core.Variables) (*core.Result, error) {
	pluginName, functionName, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	return k.Run(ctx, pluginName, functionName, vars)
}

// ParseRef splits "Plugin.Function" on its first dot.
func ParseRef(ref string) (string, string, error) {
	pluginName, functionName, ok := strings.Cut(ref, ".")
	if !ok || pluginName == "" || functionName == "" {
		return "", "", errors.Wrapf(core.ErrInvalidReference, "%q (expected Plugin.Function)", ref)
	}
	return pluginName, functionName, nil
}

// ExecuteSequence runs refs in order against one shared Variables bag. The
// output of every successful step is stored under core.InputKey so the next
// step consumes it. A failing step does not stop the sequence: its failure
// Result is recorded and the next step sees the previous input. Unresolvable
// references become RESOLUTION_ERROR failures.
//
// The only error returned is the context's, when ctx is cancelled between
// steps; the Results gathered so far are returned alongside it.
func (k *Kernel) ExecuteSequence(ctx context.Context, refs []string, vars *core.Variables) ([]*core.Result, error) {
	if vars == nil {
		vars = core.NewVariables()
	}

	results := make([]*core.Result, 0, len(refs))
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := k.RunRef(ctx, ref, vars)
		if err != nil {
			results = append(results, core.NewErrorResult(core.CodeResolution, err))
			continue
		}

		results = append(results, res)
		if res.Success {
			vars.Set(core.InputKey, res.Output)
		}
	}

	return results, nil
}

func (k *Kernel) resolve(pluginName, functionName string) (*function.Function, error) {
	p, err := k.GetPlugin(pluginName)
	if err != nil {
		return nil, err
	}
	return p.GetFunction(functionName)
}

func (k *Kernel) invoke(ctx context.Context, fn *function.Function, vars *core.Variables) *core.Result {
	inv := Invocation{ID: core.NewID(), Function: fn}
	before, after := k.middlewares()

	current := vars
	var res *core.Result

	for _, m := range before {
		next, err := runBefore(ctx, m, inv, current)
		if err != nil {
			res = k.middlewareFailure(inv, "before", err)
			break
		}
		if next != nil {
			current = next
		}
	}

	aborted := res != nil
	var elapsed time.Duration

	if !aborted {
		k.emit(ctx, core.EventFunctionInvoking, inv, current, nil, 0, false)

		// elapsed covers the function only, not the middleware chains
		start := time.Now()
		res = k.call(ctx, fn, current)
		elapsed = time.Since(start)

		for _, m := range after {
			next, err := runAfter(ctx, m, inv, current, res)
			if err != nil {
				res = k.middlewareFailure(inv, "after", err)
				break
			}
			if next != nil {
				res = next
			}
		}
	}

	k.invocations.Add(1)
	if !res.Success {
		k.failures.Add(1)
		k.logger.Warn("kernel.function.failed", "function", inv.QualifiedName(), "invocation_id", inv.ID, "code", res.ErrorCode, "error", res.Error)
	}

	k.emit(ctx, core.EventFunctionInvoked, inv, current, res, elapsed, aborted)

	return res
}

// call invokes fn, converting a panic or a nil Result into a failure.
func (k *Kernel) call(ctx context.Context, fn *function.Function, vars *core.Variables) (res *core.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = core.NewFailureResult(core.CodePanic, fmt.Sprintf("%s: %v", fn.QualifiedName(), r))
		}
	}()

	res = fn.Invoke(ctx, vars, k)
	if res == nil {
		res = core.NewFailureResult(core.CodeExecution, fmt.Sprintf("%s: returned no result", fn.QualifiedName()))
	}
	return res
}

func (k *Kernel) middlewareFailure(inv Invocation, chain string, err error) *core.Result {
	k.logger.Error("kernel.middleware.failed", "chain", chain, "function", inv.QualifiedName(), "invocation_id", inv.ID, "error", err.Error())
	return core.NewFailureResult(core.CodeMiddleware, fmt.Sprintf("%s middleware failed for %s: %v", chain, inv.QualifiedName(), err))
}

func runBefore(ctx context.Context, m BeforeMiddleware, inv Invocation, vars *core.Variables) (next *core.Variables, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return m.Before(ctx, inv, vars)
}

func runAfter(ctx context.Context, m AfterMiddleware, inv Invocation, vars *core.Variables, res *core.Result) (next *core.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return m.After(ctx, inv, vars, res)
}

func (k *Kernel) emit(ctx context.Context, t core.EventType, inv Invocation, vars *core.Variables, res *core.Result, elapsed time.Duration, aborted bool) {
	ev := core.NewEvent(t)
	ev.InvocationID = inv.ID
	ev.PluginName = inv.Function.PluginName()
	ev.FunctionName = inv.Function.Name()
	ev.Variables = vars.Clone()

	if res != nil {
		ev.Result = res
		ev.Success = res.Success
		ev.Duration = elapsed
		ev.Data[DataElapsedMillis] = ev.DurationMillis()
		ev.Data[DataAborted] = aborted
		if !res.Success {
			ev.Data[DataErrorCode] = res.ErrorCode
		}
	}

	k.dispatcher.Dispatch(ctx, ev)
}
