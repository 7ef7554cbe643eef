package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// FakeKBAPIKey is the bearer credential accepted by FakeKB
const FakeKBAPIKey = "test-api-key"

// FakeWorkspace is a workspace held by FakeKB
type FakeWorkspace struct {
	Name      string
	Documents []FakeDocument
	Threads   []string
	History   map[string][]string
}

// FakeDocument is a document record; Metadata is served verbatim
type FakeDocument struct {
	DocPath  string
	Metadata string
}

// RecordedRequest is a request received by FakeKB
type RecordedRequest struct {
	Method string
	Path   string
	Body   string
}

// FakeKB is an in-memory knowledge-base server speaking the /api/v1 JSON API
type FakeKB struct {
	Server *httptest.Server

	mu         sync.Mutex
	workspaces map[string]*FakeWorkspace
	order      []string
	failures   map[string]int
	requests   []RecordedRequest
	ingested   []string
	chatReply  string
}

// NewFakeKB starts a FakeKB that is closed when the test ends
func NewFakeKB(t *testing.T) *FakeKB {
	t.Helper()
	kb := &FakeKB{
		workspaces: make(map[string]*FakeWorkspace),
		failures:   make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/workspaces", kb.handleWorkspaces)
	mux.HandleFunc("POST /api/v1/workspace/new", kb.handleNewWorkspace)
	mux.HandleFunc("GET /api/v1/workspace/{slug}", kb.handleWorkspace)
	mux.HandleFunc("DELETE /api/v1/workspace/{slug}", kb.handleDeleteWorkspace)
	mux.HandleFunc("POST /api/v1/document/upload", kb.handleUpload)
	mux.HandleFunc("POST /api/v1/workspace/{slug}/update-embeddings", kb.handleEmbeddings)
	mux.HandleFunc("DELETE /api/v1/system/remove-documents", kb.handleRemoveDocuments)
	mux.HandleFunc("POST /api/v1/workspace/{slug}/thread/new", kb.handleNewThread)
	mux.HandleFunc("DELETE /api/v1/workspace/{slug}/thread/{thread}", kb.handleDeleteThread)
	mux.HandleFunc("GET /api/v1/workspace/{slug}/thread/{thread}/chats", kb.handleHistory)
	mux.HandleFunc("POST /api/v1/workspace/{slug}/thread/{thread}/chat", kb.handleChat)

	kb.Server = httptest.NewServer(kb.middleware(mux))
	t.Cleanup(kb.Server.Close)
	return kb
}

// BaseURL returns the API root to configure a client with
func (kb *FakeKB) BaseURL() string {
	return kb.Server.URL + "/api/v1"
}

// AddWorkspace registers a workspace; its slug is the lowercased name
func (kb *FakeKB) AddWorkspace(ws *FakeWorkspace) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if ws.History == nil {
		ws.History = make(map[string][]string)
	}
	slug := strings.ToLower(ws.Name)
	if _, ok := kb.workspaces[slug]; !ok {
		kb.order = append(kb.order, slug)
	}
	kb.workspaces[slug] = ws
}

// Workspace returns the workspace stored under slug
func (kb *FakeKB) Workspace(slug string) (*FakeWorkspace, bool) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	ws, ok := kb.workspaces[slug]
	return ws, ok
}

// FailPath makes every request whose path ends with suffix answer with status
func (kb *FakeKB) FailPath(suffix string, status int) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.failures[suffix] = status
}

// SetChatReply fixes the reply of the chat endpoint; empty echoes the message
func (kb *FakeKB) SetChatReply(reply string) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.chatReply = reply
}

// Requests returns the requests received so far
func (kb *FakeKB) Requests() []RecordedRequest {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	return append([]RecordedRequest(nil), kb.requests...)
}

// Ingested returns the locations of uploaded files
func (kb *FakeKB) Ingested() []string {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	return append([]string(nil), kb.ingested...)
}

func (kb *FakeKB) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		kb.mu.Lock()
		kb.requests = append(kb.requests, RecordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		status := 0
		for suffix, code := range kb.failures {
			if strings.HasSuffix(r.URL.Path, suffix) {
				status = code
			}
		}
		kb.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+FakeKBAPIKey {
			http.Error(w, `{"error":"invalid api key"}`, http.StatusForbidden)
			return
		}
		if status != 0 {
			http.Error(w, `{"error":"injected failure"}`, status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (kb *FakeKB) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	kb.mu.Lock()
	type entry struct {
		Name string `json:"name"`
	}
	list := make([]entry, 0, len(kb.order))
	for _, slug := range kb.order {
		list = append(list, entry{Name: kb.workspaces[slug].Name})
	}
	kb.mu.Unlock()
	writeJSON(w, map[string]interface{}{"workspaces": list})
}

func (kb *FakeKB) handleNewWorkspace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, `{"error":"name required"}`, http.StatusBadRequest)
		return
	}
	kb.AddWorkspace(&FakeWorkspace{Name: req.Name})
	writeJSON(w, map[string]interface{}{"workspace": map[string]string{"name": req.Name, "slug": strings.ToLower(req.Name)}})
}

func (kb *FakeKB) handleWorkspace(w http.ResponseWriter, r *http.Request) {
	kb.mu.Lock()
	ws, ok := kb.workspaces[r.PathValue("slug")]
	if !ok {
		kb.mu.Unlock()
		writeJSON(w, map[string]interface{}{"workspace": []interface{}{}})
		return
	}
	docs := make([]map[string]string, 0, len(ws.Documents))
	for _, d := range ws.Documents {
		docs = append(docs, map[string]string{"docpath": d.DocPath, "metadata": d.Metadata})
	}
	threads := make([]map[string]string, 0, len(ws.Threads))
	for _, th := range ws.Threads {
		threads = append(threads, map[string]string{"slug": th})
	}
	kb.mu.Unlock()

	writeJSON(w, map[string]interface{}{
		"workspace": []interface{}{
			map[string]interface{}{"documents": docs, "threads": threads},
		},
	})
}

func (kb *FakeKB) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if _, ok := kb.workspaces[slug]; !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	delete(kb.workspaces, slug)
	for i, s := range kb.order {
		if s == slug {
			kb.order = append(kb.order[:i], kb.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (kb *FakeKB) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"error":"file required"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()
	_, _ = io.Copy(io.Discard, file)

	kb.mu.Lock()
	location := fmt.Sprintf("custom-documents/%s-%d.json", header.Filename, len(kb.ingested)+1)
	kb.ingested = append(kb.ingested, location)
	kb.mu.Unlock()

	writeJSON(w, map[string]interface{}{
		"success":   true,
		"documents": []map[string]string{{"location": location}},
	})
}

func (kb *FakeKB) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Adds []string `json:"adds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad body"}`, http.StatusBadRequest)
		return
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	ws, ok := kb.workspaces[r.PathValue("slug")]
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	for _, loc := range req.Adds {
		meta, _ := json.Marshal(map[string]string{"id": loc, "title": loc, "published": "2024-01-01"})
		ws.Documents = append(ws.Documents, FakeDocument{DocPath: loc, Metadata: string(meta)})
	}
	writeJSON(w, map[string]interface{}{"workspace": map[string]string{"slug": r.PathValue("slug")}})
}

func (kb *FakeKB) handleRemoveDocuments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Names []string `json:"names"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad body"}`, http.StatusBadRequest)
		return
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	remove := make(map[string]bool, len(req.Names))
	for _, n := range req.Names {
		remove[n] = true
	}
	for _, ws := range kb.workspaces {
		kept := ws.Documents[:0]
		for _, d := range ws.Documents {
			if !remove[d.DocPath] {
				kept = append(kept, d)
			}
		}
		ws.Documents = kept
	}
	writeJSON(w, map[string]interface{}{"success": true})
}

// handleNewThread answers 200 for both outcomes; a taken name is reported in "message"
func (kb *FakeKB) handleNewThread(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad body"}`, http.StatusBadRequest)
		return
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	ws, ok := kb.workspaces[r.PathValue("slug")]
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	for _, th := range ws.Threads {
		if th == req.Slug {
			writeJSON(w, map[string]interface{}{"thread": nil, "message": "thread slug already exists"})
			return
		}
	}
	ws.Threads = append(ws.Threads, req.Slug)
	writeJSON(w, map[string]interface{}{"thread": map[string]string{"slug": req.Slug}, "message": nil})
}

func (kb *FakeKB) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	ws, ok := kb.workspaces[r.PathValue("slug")]
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	thread := r.PathValue("thread")
	for i, th := range ws.Threads {
		if th == thread {
			ws.Threads = append(ws.Threads[:i], ws.Threads[i+1:]...)
			delete(ws.History, thread)
			w.WriteHeader(http.StatusOK)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (kb *FakeKB) handleHistory(w http.ResponseWriter, r *http.Request) {
	kb.mu.Lock()
	var history []map[string]string
	if ws, ok := kb.workspaces[r.PathValue("slug")]; ok {
		for _, c := range ws.History[r.PathValue("thread")] {
			history = append(history, map[string]string{"content": c})
		}
	}
	kb.mu.Unlock()
	if history == nil {
		history = []map[string]string{}
	}
	writeJSON(w, map[string]interface{}{"history": history})
}

func (kb *FakeKB) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		Mode    string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad body"}`, http.StatusBadRequest)
		return
	}
	kb.mu.Lock()
	ws, ok := kb.workspaces[r.PathValue("slug")]
	if !ok {
		kb.mu.Unlock()
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	reply := kb.chatReply
	if reply == "" {
		reply = "echo: " + req.Message
	}
	thread := r.PathValue("thread")
	ws.History[thread] = append(ws.History[thread], req.Message, reply)
	kb.mu.Unlock()

	writeJSON(w, map[string]interface{}{"type": "textResponse", "textResponse": reply})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
