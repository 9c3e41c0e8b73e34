package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("bogus"))
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestKernelLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	l.Debug("hidden")
	l.WithComponent("kernel").WithInvocation("inv-1").WithContext("tenant", "acme").Info("hello", "n", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "kernel", rec["component"])
	assert.Equal(t, "inv-1", rec["invocation_id"])
	assert.Equal(t, "acme", rec["tenant"])
	assert.EqualValues(t, 1, rec["n"])
}

func TestKernelLogger_ContextIsCopied(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "text", Output: &buf})
	_ = base.WithContext("k", "v")

	base.Info("plain")
	assert.NotContains(t, buf.String(), "k=v")
}

func TestKernelLogger_DomainHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "text", Output: &buf})

	l.LogInvocation("Math.add", 0, false, "boom")
	l.LogModelCall("gpt", 12, 0, nil)
	l.StartTimer("load")()

	out := buf.String()
	assert.Contains(t, out, "Function invocation failed")
	assert.Contains(t, out, "function=Math.add")
	assert.Contains(t, out, "Model call completed")
	assert.Contains(t, out, "token_count=12")
	assert.Contains(t, out, "load completed")
}

func TestConsoleLoggerAndNoOp(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(LogLevelWarn, &buf)
	l.Info("skip")
	l.Warn("careful", "k", "v")
	assert.NotContains(t, buf.String(), "skip")
	assert.Contains(t, buf.String(), "careful")

	assert.Equal(t, NoOpLogger{}, OrNoOp(nil))
	assert.Equal(t, l, OrNoOp(l))
	NoOpLogger{}.Error("ignored")
}

func TestHelpers_DispatchOnLoggerKind(t *testing.T) {
	var kbuf, sbuf bytes.Buffer
	kl := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "text", Output: &kbuf})
	sl := NewSlogAdapter(slog.New(slog.NewTextHandler(&sbuf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	for _, l := range []Logger{kl, sl} {
		Invocation(ForInvocation(ForComponent(l, "kernel"), "inv-1"), "Math.add", time.Millisecond, false, "boom")
		ModelCall(l, "gpt", 3, time.Millisecond, errors.New("down"))
		ModelCall(l, "gpt", 3, time.Millisecond, nil)
	}

	assert.Contains(t, kbuf.String(), "component=kernel")
	assert.Contains(t, kbuf.String(), "invocation_id=inv-1")
	assert.NotContains(t, sbuf.String(), "component=kernel")

	for _, out := range []string{kbuf.String(), sbuf.String()} {
		assert.Contains(t, out, "Function invocation failed")
		assert.Contains(t, out, "error=boom")
		assert.Contains(t, out, "Model call failed")
		assert.Contains(t, out, "Model call completed")
	}

	Invocation(nil, "x", 0, true, "")
	ModelCall(nil, "x", 0, 0, nil)
	assert.Equal(t, NoOpLogger{}, ForComponent(nil, "k"))
}
