package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLM(t *testing.T) {
	tests := []struct {
		name     string
		settings LLMSettings
		wantType any
		wantErr  string
	}{
		{name: "openai", settings: LLMSettings{Provider: "openai", Model: "gpt-4o-mini", APIKey: "k"}, wantType: &OpenAILLM{}},
		{name: "deepseek", settings: LLMSettings{Provider: "deepseek", Model: "deepseek-chat", APIKey: "k", BaseURL: "https://api.deepseek.com/v1"}, wantType: &OpenAILLM{}},
		{name: "deepseek without base url", settings: LLMSettings{Provider: "deepseek", Model: "deepseek-chat", APIKey: "k"}, wantErr: "base_url"},
		{name: "gemini", settings: LLMSettings{Provider: "gemini", Model: "gemini-2.5-flash", APIKey: "k"}, wantType: &GeminiLLM{}},
		{name: "gemini without key", settings: LLMSettings{Provider: "gemini", Model: "gemini-2.5-flash"}, wantErr: "GEMINI_API_KEY"},
		{name: "mock", settings: LLMSettings{Provider: "mock"}, wantType: MockLLM{}},
		{name: "openai without key", settings: LLMSettings{Provider: "openai", Model: "gpt-4o-mini"}, wantErr: "OPENAI_API_KEY"},
		{name: "openai without model", settings: LLMSettings{Provider: "openai", APIKey: "k"}, wantErr: "model is required"},
		{name: "unknown", settings: LLMSettings{Provider: "bard"}, wantErr: "not supported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm, err := NewLLM(tt.settings)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, llm)
		})
	}
}

func TestOpenAILLM_Complete(t *testing.T) {
	var seen map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&seen))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "<html><body>ok</body></html>"}
			}]
		}`))
	}))
	defer srv.Close()

	llm, err := NewOpenAILLMFromConfig(&LLMSettings{Model: "gpt-4o-mini", APIKey: "sk-test", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	out, err := llm.Complete(context.Background(), BuildPrompt("a todo list app"))
	require.NoError(t, err)
	assert.Equal(t, "<html><body>ok</body></html>", out)

	assert.Equal(t, "gpt-4o-mini", seen["model"])
	msgs, ok := seen["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Contains(t, msgs[1].(map[string]any)["content"], "a todo list app")
}

func TestOpenAILLM_Complete_UpstreamError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "upstream exploded", "type": "server_error"}}`))
	}))
	defer srv.Close()

	llm, err := NewOpenAILLMFromConfig(&LLMSettings{Model: "gpt-4o-mini", APIKey: "sk-test", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	_, err = llm.Complete(context.Background(), BuildPrompt("a todo list app"))
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "sdk retries are disabled")
}

func TestOpenAILLM_Complete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "created": 1, "model": "m", "choices": []}`))
	}))
	defer srv.Close()

	llm, err := NewOpenAILLMFromConfig(&LLMSettings{Model: "m", APIKey: "k", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	_, err = llm.Complete(context.Background(), BuildPrompt("x"))
	assert.ErrorContains(t, err, "empty choices")
}
