package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatService_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type": "text", "text": "Hello "}, {"type": "text", "text": "there"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 5, "output_tokens": 2}
		}`))
	}))
	defer srv.Close()

	client := anthropic.NewClient(option.WithBaseURL(srv.URL), option.WithAPIKey("k"), option.WithMaxRetries(0))
	svc := NewChatServiceFromClient(&client, func(o *Options) { o.SystemPrompt = "sys" })

	c, err := svc.Complete(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", c.Text)
	assert.Equal(t, "claude-3-5-sonnet-20241022", c.Model)
	assert.Equal(t, core.TokenUsage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7}, c.Usage)
	assert.True(t, svc.IsServiceAvailable(context.Background()))
}

func TestNewChatService_Availability(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	assert.False(t, NewChatService().IsServiceAvailable(context.Background()))
	assert.True(t, NewChatService(func(o *Options) { o.APIKey = "k" }).IsServiceAvailable(context.Background()))
}

func TestChatService_TemperatureOverrideAndLogging(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_2",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type": "text", "text": "ok"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 3, "output_tokens": 1}
		}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "text", Output: &buf})

	client := anthropic.NewClient(option.WithBaseURL(srv.URL), option.WithAPIKey("k"), option.WithMaxRetries(0))
	svc := NewChatServiceFromClient(&client, func(o *Options) { o.Logger = logger })

	vars := core.NewVariables()
	vars.Set("temperature", 0.2)

	_, err := svc.Complete(context.Background(), "hi", vars)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, body["temperature"], 1e-9)

	_, err = svc.Complete(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, body["temperature"], 1e-9)

	out := buf.String()
	assert.Contains(t, out, "Model call completed")
	assert.Contains(t, out, "token_count=4")
}
