package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func TestCompleteParsesTextAndUsage(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{
		"choices": [{"message": {"content": "The lease expires in 2027."}}],
		"usage": {"prompt_tokens": 120, "completion_tokens": 18}
	}`)
	defer srv.Close()

	client := NewOpenAICompatibleClient(5 * time.Second)
	got, err := client.Complete(context.Background(), ChatConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	}, []ChatMessage{{Role: "user", Content: "when does the lease expire?"}})

	require.NoError(t, err)
	assert.Equal(t, "The lease expires in 2027.", got.Text)
	assert.Equal(t, 120, got.PromptTokens)
	assert.Equal(t, 18, got.CompletionTokens)
}

func TestCompleteSendsModelAndSampling(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient(5 * time.Second)
	_, err := client.Complete(context.Background(), ChatConfig{
		BaseURL:     srv.URL,
		Model:       "test-model",
		Temperature: 0.4,
		MaxTokens:   256,
	}, []ChatMessage{{Role: "user", Content: "hi"}})

	require.NoError(t, err)
	assert.Equal(t, "test-model", captured["model"])
	assert.InDelta(t, 0.4, captured["temperature"], 1e-9)
	assert.EqualValues(t, 256, captured["max_tokens"])
}

func TestCompleteStatusErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusUnauthorized, ErrAuthInvalid},
		{http.StatusForbidden, ErrAuthInvalid},
		{http.StatusRequestTimeout, ErrTimeout},
		{http.StatusGatewayTimeout, ErrTimeout},
		{http.StatusInternalServerError, ErrUnavailable},
		{http.StatusBadGateway, ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("status_%d", tc.status), func(t *testing.T) {
			srv := chatServer(t, tc.status, `{"error":"nope"}`)
			defer srv.Close()

			client := NewOpenAICompatibleClient(5 * time.Second)
			_, err := client.Complete(context.Background(), ChatConfig{
				BaseURL: srv.URL,
				APIKey:  "test-key",
				Model:   "test-model",
			}, []ChatMessage{{Role: "user", Content: "q"}})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"choices":[]}`)
	defer srv.Close()

	client := NewOpenAICompatibleClient(5 * time.Second)
	_, err := client.Complete(context.Background(), ChatConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	}, []ChatMessage{{Role: "user", Content: "q"}})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCompleteUnreachableBackend(t *testing.T) {
	client := NewOpenAICompatibleClient(time.Second)
	_, err := client.Complete(context.Background(), ChatConfig{
		BaseURL: "http://127.0.0.1:1",
		Model:   "test-model",
	}, []ChatMessage{{Role: "user", Content: "q"}})
	assert.ErrorIs(t, err, ErrUnavailable)
}
