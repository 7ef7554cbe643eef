package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iksnae/code-assistant/internal"
)

type chatRequest struct {
	Model            string  `json:"model"`
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"top_p"`
	PresencePenalty  float64 `json:"presence_penalty"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	Stream           bool    `json:"stream"`
	Messages         []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, status int, content string, got *chatRequest, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-3.5-turbo",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
			"usage": map[string]int{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(internal.LLMConfig{
		BaseURL:     srv.URL + "/v1",
		APIKey:      "sk-test",
		Model:       "gpt-3.5-turbo",
		Temperature: internal.DefaultLLMTemperature,
	})
}

func TestClient_Complete(t *testing.T) {
	var req chatRequest
	var hits int32
	srv := newTestServer(t, http.StatusOK, "fmt.Println(x)\n", &req, &hits)

	out, err := newTestClient(srv).Complete(context.Background(), "complete this")
	require.NoError(t, err)
	require.Equal(t, "fmt.Println(x)\n", out)

	require.Equal(t, "gpt-3.5-turbo", req.Model)
	require.InDelta(t, 0.5, req.Temperature, 1e-9)
	require.InDelta(t, 1.0, req.TopP, 1e-9)
	require.Zero(t, req.PresencePenalty)
	require.Zero(t, req.FrequencyPenalty)
	require.False(t, req.Stream)
	require.Len(t, req.Messages, 2)
	require.Equal(t, "system", req.Messages[0].Role)
	require.Equal(t, SystemPrompt, req.Messages[0].Content)
	require.Equal(t, "user", req.Messages[1].Role)
	require.Equal(t, "complete this", req.Messages[1].Content)
}

func TestClient_Complete_NoRetry(t *testing.T) {
	var hits int32
	srv := newTestServer(t, http.StatusInternalServerError, "", nil, &hits)

	_, err := newTestClient(srv).Complete(context.Background(), "x")
	require.Error(t, err)
	require.True(t, errors.Is(err, internal.ErrServiceUnavailable))

	var reqErr *internal.RequestError
	require.True(t, errors.As(err, &reqErr))
	require.Equal(t, http.StatusInternalServerError, reqErr.Status)
	require.Equal(t, int32(1), atomic.LoadInt32(&hits), "failed requests must not be retried")
}

func TestClient_Model(t *testing.T) {
	c := NewClient(internal.LLMConfig{APIKey: "k"})
	require.Equal(t, internal.DefaultLLMModel, c.Model())
}
