package kernel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/function"
	"github.com/hupe1980/agentkernel/logging"
)

// Invocation identifies the invocation a middleware runs for.
type Invocation struct {
	// ID is shared by both events of the invocation.
	ID       string
	Function *function.Function
}

// QualifiedName returns "Plugin.Function".
func (i Invocation) QualifiedName() string { return i.Function.QualifiedName() }

// BeforeMiddleware runs ahead of the function. It may return a different
// Variables value for the rest of the pipeline; nil keeps the current one.
// Returning an error aborts the invocation with a MIDDLEWARE_ERROR Result.
type BeforeMiddleware interface {
	Before(ctx context.Context, inv Invocation, vars *core.Variables) (*core.Variables, error)
}

// AfterMiddleware runs after the function. It may return a replacement
// Result; nil keeps the current one. Returning an error replaces the Result
// with a MIDDLEWARE_ERROR failure and skips the remaining after middlewares.
type AfterMiddleware interface {
	After(ctx context.Context, inv Invocation, vars *core.Variables, res *core.Result) (*core.Result, error)
}

// Middleware participates in both chains.
type Middleware interface {
	BeforeMiddleware
	AfterMiddleware
}

// BeforeFunc adapts a function to BeforeMiddleware.
//
// Example:
//
//	k.AddBeforeMiddleware(kernel.BeforeFunc(func(ctx context.Context, inv kernel.Invocation, vars *core.Variables) (*core.Variables, error) {
//	    vars.Set("request_id", inv.ID)
//	    return vars, nil
//	}))
type BeforeFunc func(ctx context.Context, inv Invocation, vars *core.Variables) (*core.Variables, error)

// Before calls f.
func (f BeforeFunc) Before(ctx context.Context, inv Invocation, vars *core.Variables) (*core.Variables, error) {
	return f(ctx, inv, vars)
}

// AfterFunc adapts a function to AfterMiddleware.
type AfterFunc func(ctx context.Context, inv Invocation, vars *core.Variables, res *core.Result) (*core.Result, error)

// After calls f.
func (f AfterFunc) After(ctx context.Context, inv Invocation, vars *core.Variables, res *core.Result) (*core.Result, error) {
	return f(ctx, inv, vars, res)
}

// AddBeforeMiddleware appends m to the before chain.
func (k *Kernel) AddBeforeMiddleware(m BeforeMiddleware) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.before = append(k.before, m)
}

// AddAfterMiddleware appends m to the after chain.
func (k *Kernel) AddAfterMiddleware(m AfterMiddleware) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.after = append(k.after, m)
}

// AddMiddleware appends m to both chains.
func (k *Kernel) AddMiddleware(m Middleware) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.before = append(k.before, m)
	k.after = append(k.after, m)
}

// ClearMiddleware empties both chains.
func (k *Kernel) ClearMiddleware() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.before = nil
	k.after = nil
}

func (k *Kernel) middlewares() ([]BeforeMiddleware, []AfterMiddleware) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]BeforeMiddleware(nil), k.before...), append([]AfterMiddleware(nil), k.after...)
}

// LoggingMiddleware logs the start and outcome of every invocation.
type LoggingMiddleware struct {
	logger logging.Logger
}

var _ Middleware = (*LoggingMiddleware)(nil)

// NewLoggingMiddleware creates a LoggingMiddleware writing to logger.
func NewLoggingMiddleware(logger logging.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logging.OrNoOp(logger)}
}

// Before implements BeforeMiddleware.
func (m *LoggingMiddleware) Before(_ context.Context, inv Invocation, vars *core.Variables) (*core.Variables, error) {
	m.logger.Info("function.invoke.start", "function", inv.QualifiedName(), "invocation_id", inv.ID, "variables", vars.Len())
	return nil, nil
}

// After implements AfterMiddleware.
func (m *LoggingMiddleware) After(_ context.Context, inv Invocation, _ *core.Variables, res *core.Result) (*core.Result, error) {
	if res.Success {
		m.logger.Info("function.invoke.success", "function", inv.QualifiedName(), "invocation_id", inv.ID)
	} else {
		m.logger.Warn("function.invoke.failure", "function", inv.QualifiedName(), "invocation_id", inv.ID, "code", res.ErrorCode, "error", res.Error)
	}
	return nil, nil
}

// RequireParameters returns a before middleware that rejects invocations
// whose Variables lack a parameter the function declares as required and
// gives no default for.
func RequireParameters() BeforeMiddleware {
	return BeforeFunc(func(_ context.Context, inv Invocation, vars *core.Variables) (*core.Variables, error) {
		var missing []string
		for _, p := range inv.Function.Parameters() {
			if !p.Required || p.HasDefault || p.Name == function.ParamContext || p.Name == function.ParamKernel {
				continue
			}
			if v, ok := vars.Get(p.Name); !ok || v == nil {
				missing = append(missing, p.Name)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("missing required parameters: %s", strings.Join(missing, ", "))
		}
		return nil, nil
	})
}

// CallLimiter is a before middleware capping the number of invocations it
// lets through. It guards against runaway recursion when functions or event
// handlers call back into the kernel.
type CallLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

var _ BeforeMiddleware = (*CallLimiter)(nil)

// NewCallLimiter creates a limiter allowing max invocations. max == 0 means
// unlimited.
func NewCallLimiter(max int) *CallLimiter {
	return &CallLimiter{max: max}
}

// Before implements BeforeMiddleware.
func (l *CallLimiter) Before(context.Context, Invocation, *core.Variables) (*core.Variables, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	if l.max > 0 && l.count > l.max {
		return nil, fmt.Errorf("exceeded max invocations: %d", l.max)
	}
	return nil, nil
}

// Count returns the number of invocations seen so far.
func (l *CallLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Remaining returns how many invocations are left before hitting the limit,
// -1 when unlimited.
func (l *CallLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max == 0 {
		return -1
	}
	if l.count >= l.max {
		return 0
	}
	return l.max - l.count
}

// Reset sets the counter back to zero.
func (l *CallLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.count = 0
}
