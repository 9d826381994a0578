package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicComplete(t *testing.T) {
	var got anthropicRequest
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		headers = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Hello "},{"type":"tool_use"},{"type":"text","text":"world"}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	out, err := c.Complete(context.Background(), "You are an analyst.", "Build a CRM")

	require.NoError(t, err)
	assert.Equal(t, "Hello world", out)
	assert.Equal(t, "sk-test", headers.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", headers.Get("anthropic-version"))
	assert.Equal(t, DefaultAnthropicModel, got.Model)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	assert.Equal(t, "You are an analyst.", got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestAnthropicErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"http error", http.StatusTooManyRequests, `{"error":{"type":"rate_limit_error","message":"slow down"}}`, "status 429"},
		{"api error", http.StatusOK, `{"error":{"type":"overloaded","message":"overloaded"}}`, "overloaded"},
		{"empty", http.StatusOK, `{"content":[]}`, "empty completion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewAnthropicClient(AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL})
			_, err := c.Complete(context.Background(), "", "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAnthropicMissingKey(t *testing.T) {
	_, err := NewAnthropicClient(AnthropicConfig{}).Complete(context.Background(), "", "x")
	assert.Error(t, err)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "openai"})
	assert.Error(t, err)

	c, err := New(context.Background(), Config{Provider: ProviderAnthropic, AnthropicAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, c)

	_, err = New(context.Background(), Config{Provider: ProviderGemini})
	assert.Error(t, err)
}
