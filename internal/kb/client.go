package kb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/iksnae/code-assistant/internal"
)

const maxErrorBodyBytes = 512

// Service is the remote knowledge-base API as seen by the session manager
type Service interface {
	Workspaces(ctx context.Context) ([]string, error)
	CreateWorkspace(ctx context.Context, name string) error
	DeleteWorkspace(ctx context.Context, slug string) error
	Documents(ctx context.Context, slug string) ([]internal.Document, error)
	UploadDocument(ctx context.Context, filename string, r io.Reader) (string, error)
	IndexDocument(ctx context.Context, slug, location string) error
	RemoveDocument(ctx context.Context, path string) error
	Threads(ctx context.Context, slug string) ([]string, error)
	CreateThread(ctx context.Context, slug, name string) error
	DeleteThread(ctx context.Context, slug, name string) error
	ThreadHistory(ctx context.Context, slug, thread string) ([]string, error)
	Chat(ctx context.Context, slug, thread, message string, mode internal.Mode) (string, error)
}

// Client talks to the knowledge-base HTTP API
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ Service = (*Client)(nil)

// NewClient creates a Client from configuration
func NewClient(cfg internal.KnowledgeBaseConfig) *Client {
	return NewClientWithHTTP(cfg.BaseURL, cfg.APIKey, &http.Client{Timeout: cfg.Timeout})
}

// NewClientWithHTTP creates a Client using the given http.Client
func NewClientWithHTTP(baseURL, apiKey string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  hc,
	}
}

// Workspaces lists workspace names in the order the service returns them
func (c *Client) Workspaces(ctx context.Context) ([]string, error) {
	var resp workspacesResponse
	if err := c.do(ctx, "list workspaces", http.MethodGet, "/workspaces", nil, "", &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Workspaces))
	for _, ws := range resp.Workspaces {
		names = append(names, ws.Name)
	}
	return names, nil
}

// CreateWorkspace creates a workspace with the given display name
func (c *Client) CreateWorkspace(ctx context.Context, name string) error {
	body, err := jsonBody(map[string]string{"name": name})
	if err != nil {
		return err
	}
	return c.do(ctx, "create workspace", http.MethodPost, "/workspace/new", body, "application/json", nil)
}

// DeleteWorkspace deletes a workspace; any non-2xx status is a failure
func (c *Client) DeleteWorkspace(ctx context.Context, slug string) error {
	return c.do(ctx, "delete workspace", http.MethodDelete, "/workspace/"+url.PathEscape(slug), nil, "", nil)
}

// Workspace fetches the detail record of a workspace
func (c *Client) Workspace(ctx context.Context, slug string) (*RawWorkspace, error) {
	path := "/workspace/" + url.PathEscape(slug)
	var resp workspaceResponse
	if err := c.do(ctx, "get workspace", http.MethodGet, path, nil, "", &resp); err != nil {
		return nil, err
	}
	if len(resp.Workspace) == 0 {
		return nil, &internal.DecodeError{Source: "workspace", Key: path, Err: fmt.Errorf("workspace %q not found in response", slug)}
	}
	return &resp.Workspace[0], nil
}

// Documents lists the documents of a workspace. Documents whose metadata cannot be
// decoded are dropped with a warning.
func (c *Client) Documents(ctx context.Context, slug string) ([]internal.Document, error) {
	ws, err := c.Workspace(ctx, slug)
	if err != nil {
		return nil, err
	}
	docs, errs := ParseDocuments(ws.Documents)
	for _, err := range errs {
		internal.LogWarn("Skipping document in workspace %s: %v", slug, err)
	}
	return docs, nil
}

// Threads lists the thread slugs of a workspace
func (c *Client) Threads(ctx context.Context, slug string) ([]string, error) {
	ws, err := c.Workspace(ctx, slug)
	if err != nil {
		return nil, err
	}
	threads := make([]string, 0, len(ws.Threads))
	for _, th := range ws.Threads {
		threads = append(threads, th.Slug)
	}
	return threads, nil
}

// UploadDocument ingests a file and returns its canonical location
func (c *Client) UploadDocument(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	var resp uploadResponse
	if err := c.do(ctx, "upload document", http.MethodPost, "/document/upload", &buf, mw.FormDataContentType(), &resp); err != nil {
		return "", err
	}
	if len(resp.Documents) == 0 || resp.Documents[0].Location == "" {
		return "", &internal.DecodeError{Source: "upload", Key: filename, Err: fmt.Errorf("response has no document location")}
	}
	return resp.Documents[0].Location, nil
}

// IndexDocument embeds an ingested document into a workspace
func (c *Client) IndexDocument(ctx context.Context, slug, location string) error {
	body, err := jsonBody(map[string][]string{"adds": {location}})
	if err != nil {
		return err
	}
	path := "/workspace/" + url.PathEscape(slug) + "/update-embeddings"
	return c.do(ctx, "index document", http.MethodPost, path, body, "application/json", nil)
}

// RemoveDocument deletes a document by path from the knowledge base
func (c *Client) RemoveDocument(ctx context.Context, path string) error {
	body, err := jsonBody(map[string][]string{"names": {path}})
	if err != nil {
		return err
	}
	return c.do(ctx, "remove document", http.MethodDelete, "/system/remove-documents", body, "application/json", nil)
}

// CreateThread creates a thread whose slug equals its name.
// Returns internal.ErrNameConflict when the name is already taken.
func (c *Client) CreateThread(ctx context.Context, slug, name string) error {
	body, err := jsonBody(map[string]string{"name": name, "slug": name})
	if err != nil {
		return err
	}
	path := "/workspace/" + url.PathEscape(slug) + "/thread/new"
	var resp newThreadResponse
	if err := c.do(ctx, "create thread", http.MethodPost, path, body, "application/json", &resp); err != nil {
		return err
	}
	if resp.conflict() {
		return fmt.Errorf("thread %q in workspace %s: %s: %w", name, slug, *resp.Message, internal.ErrNameConflict)
	}
	return nil
}

// DeleteThread deletes a thread; only HTTP 200 counts as success
func (c *Client) DeleteThread(ctx context.Context, slug, name string) error {
	path := "/workspace/" + url.PathEscape(slug) + "/thread/" + url.PathEscape(name)
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil, "")
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return &internal.RequestError{Op: "delete thread", Endpoint: path, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &internal.RequestError{Op: "delete thread", Endpoint: path, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	return nil
}

// ThreadHistory returns the raw chronological contents of a thread
func (c *Client) ThreadHistory(ctx context.Context, slug, thread string) ([]string, error) {
	path := "/workspace/" + url.PathEscape(slug) + "/thread/" + url.PathEscape(thread) + "/chats"
	var resp historyResponse
	if err := c.do(ctx, "get thread history", http.MethodGet, path, nil, "", &resp); err != nil {
		return nil, err
	}
	contents := make([]string, 0, len(resp.History))
	for _, h := range resp.History {
		contents = append(contents, h.Content)
	}
	return contents, nil
}

// Chat sends a message to a thread and returns the assistant's reply
func (c *Client) Chat(ctx context.Context, slug, thread, message string, mode internal.Mode) (string, error) {
	body, err := jsonBody(map[string]string{"message": message, "mode": string(mode)})
	if err != nil {
		return "", err
	}
	path := "/workspace/" + url.PathEscape(slug) + "/thread/" + url.PathEscape(thread) + "/chat"
	var resp chatResponse
	if err := c.do(ctx, "chat", http.MethodPost, path, body, "application/json", &resp); err != nil {
		return "", err
	}
	if resp.TextResponse == "" {
		return "", &internal.DecodeError{Source: "chat", Key: path, Err: fmt.Errorf("empty textResponse")}
	}
	return resp.TextResponse, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// do executes a request, mapping transport and status failures to RequestError and
// undecodable bodies to DecodeError. out may be nil when the body is ignored.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}

	internal.LogDebug("%s: %s %s", op, method, path)
	resp, err := c.client.Do(req)
	if err != nil {
		return &internal.RequestError{Op: op, Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &internal.RequestError{
			Op:       op,
			Endpoint: path,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(snippet))),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &internal.DecodeError{Source: op, Key: path, Err: err}
	}
	return nil
}

func jsonBody(v interface{}) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return bytes.NewReader(data), nil
}
