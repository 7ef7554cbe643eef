package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// FakeLLM is an OpenAI-compatible chat-completion server answering with a fixed reply
type FakeLLM struct {
	Server *httptest.Server

	mu      sync.Mutex
	reply   string
	status  int
	prompts []string
}

// NewFakeLLM starts a FakeLLM that is closed when the test ends
func NewFakeLLM(t *testing.T, reply string) *FakeLLM {
	t.Helper()
	f := &FakeLLM{reply: reply, status: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", f.handleCompletion)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL returns the API root to configure a client with
func (f *FakeLLM) BaseURL() string {
	return f.Server.URL + "/v1"
}

// Fail makes every following request answer with status
func (f *FakeLLM) Fail(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// Prompts returns the user messages received so far
func (f *FakeLLM) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func (f *FakeLLM) handleCompletion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	for _, m := range req.Messages {
		if m.Role == "user" {
			f.prompts = append(f.prompts, m.Content)
		}
	}
	status, reply := f.status, f.reply
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"unavailable","type":"server_error"}}`))
		return
	}
	writeJSON(w, map[string]interface{}{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-3.5-turbo",
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]string{"role": "assistant", "content": reply},
		}},
	})
}
