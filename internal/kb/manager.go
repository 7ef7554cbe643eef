package kb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/iksnae/code-assistant/internal"
)

// FallbackReply is appended to the history when a chat request yields no reply
const FallbackReply = "Oops, something went wrong!"

// ErrNoWorkspace is returned by operations that need a selected workspace
var ErrNoWorkspace = errors.New("no workspace selected")

// ErrNoThread is returned by operations that need a selected thread
var ErrNoThread = errors.New("no thread selected")

// State is a copy of the manager's observable state
type State struct {
	Workspaces []string
	Workspace  string
	Documents  []internal.Document
	Threads    []string
	Thread     string
	History    []internal.ChatMessage
}

// UploadResult describes how far a document upload got
type UploadResult struct {
	Location string
	Ingested bool
	Indexed  bool
}

// Manager holds the knowledge-base session: the selected workspace and thread and
// the collections loaded for them.
//
// Every selection bumps a generation counter. A response is applied only if the
// generation it was issued under is still current, so responses that arrive after
// the user moved on are dropped instead of overwriting newer state.
type Manager struct {
	svc Service

	mu        sync.Mutex
	state     State
	wsGen     uint64
	threadGen uint64
	listeners []func(State)
	version   uint64

	// notifyMu serializes listener delivery; delivered is the newest version sent
	notifyMu  sync.Mutex
	delivered uint64

	bg sync.WaitGroup
}

// NewManager creates a Manager backed by the given service
func NewManager(svc Service) *Manager {
	return &Manager{svc: svc}
}

// Snapshot returns a copy of the current state
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// OnChange registers a listener invoked after state mutations. Listeners are
// called one at a time and never receive a snapshot older than one already
// delivered. They must not call mutating Manager methods.
func (m *Manager) OnChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Wait blocks until background refreshes started by SelectWorkspace have finished
func (m *Manager) Wait() {
	m.bg.Wait()
}

// ListWorkspaces fetches the workspace list. On failure the cached list is kept.
func (m *Manager) ListWorkspaces(ctx context.Context) ([]string, error) {
	names, err := m.svc.Workspaces(ctx)
	if err != nil {
		internal.LogWarn("Failed to list workspaces: %v", err)
		return nil, err
	}
	m.update(func(s *State) {
		s.Workspaces = names
	})
	return append([]string(nil), names...), nil
}

// SelectWorkspace makes name the current workspace. The thread selection, history,
// documents and threads are cleared at once; documents and threads are then
// reloaded concurrently in the background.
func (m *Manager) SelectWorkspace(name string) {
	var gen uint64
	m.update(func(s *State) {
		m.wsGen++
		m.threadGen++
		gen = m.wsGen
		s.Workspace = name
		s.Documents = nil
		s.Threads = nil
		s.Thread = ""
		s.History = nil
	})
	if name == "" {
		return
	}

	ctx := context.Background()
	m.bg.Add(1)
	var g errgroup.Group
	g.Go(func() error {
		_, err := m.loadDocuments(ctx, name, gen)
		return err
	})
	g.Go(func() error {
		_, err := m.loadThreads(ctx, name, gen)
		return err
	})

	go func() {
		defer m.bg.Done()
		if err := g.Wait(); err != nil {
			internal.LogDebug("Background refresh of workspace %s finished with error: %v", name, err)
		}
	}()
}

// CreateWorkspace creates a workspace and then refreshes the workspace list,
// whether or not the creation succeeded.
func (m *Manager) CreateWorkspace(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("workspace name: %w", internal.ErrEmptyInput)
	}

	err := m.svc.CreateWorkspace(ctx, name)
	if err != nil {
		internal.LogWarn("Failed to create workspace %s: %v", name, err)
	}
	if _, listErr := m.ListWorkspaces(ctx); listErr != nil && err == nil {
		return listErr
	}
	return err
}

// DeleteWorkspace deletes a workspace and then refreshes the workspace list.
// Deleting the selected workspace clears the selection.
func (m *Manager) DeleteWorkspace(ctx context.Context, name string) error {
	err := m.svc.DeleteWorkspace(ctx, internal.Slug(name))
	if err != nil {
		internal.LogWarn("Failed to delete workspace %s: %v", name, err)
	} else {
		m.update(func(s *State) {
			if s.Workspace == "" || internal.Slug(s.Workspace) != internal.Slug(name) {
				return
			}
			m.wsGen++
			m.threadGen++
			s.Workspace = ""
			s.Documents = nil
			s.Threads = nil
			s.Thread = ""
			s.History = nil
		})
	}
	if _, listErr := m.ListWorkspaces(ctx); listErr != nil && err == nil {
		return listErr
	}
	return err
}

// ListDocuments fetches the documents of a workspace. The result is stored only if
// workspace is still the selected one.
func (m *Manager) ListDocuments(ctx context.Context, workspace string) ([]internal.Document, error) {
	m.mu.Lock()
	gen := m.wsGen
	m.mu.Unlock()
	return m.loadDocuments(ctx, workspace, gen)
}

// RefreshDocuments reloads the documents of the selected workspace
func (m *Manager) RefreshDocuments(ctx context.Context) ([]internal.Document, error) {
	m.mu.Lock()
	ws, gen := m.state.Workspace, m.wsGen
	m.mu.Unlock()
	if ws == "" {
		return nil, ErrNoWorkspace
	}
	return m.loadDocuments(ctx, ws, gen)
}

func (m *Manager) loadDocuments(ctx context.Context, workspace string, gen uint64) ([]internal.Document, error) {
	docs, err := m.svc.Documents(ctx, internal.Slug(workspace))
	if err != nil {
		internal.LogWarn("Failed to list documents of %s: %v", workspace, err)
		return nil, err
	}
	m.applyIfCurrent(workspace, gen, "documents", func(s *State) {
		s.Documents = docs
	})
	return append([]internal.Document(nil), docs...), nil
}

// UploadDocument ingests a file and indexes it into the selected workspace.
// Indexing runs only after a successful ingest. When indexing fails the result
// still reports Ingested and the error is an *internal.UploadError with Phase "index".
func (m *Manager) UploadDocument(ctx context.Context, filename string, r io.Reader) (UploadResult, error) {
	if strings.TrimSpace(filename) == "" || r == nil {
		return UploadResult{}, fmt.Errorf("upload file: %w", internal.ErrEmptyInput)
	}
	ws := m.Snapshot().Workspace
	if ws == "" {
		return UploadResult{}, ErrNoWorkspace
	}

	location, err := m.svc.UploadDocument(ctx, filename, r)
	if err != nil {
		internal.LogWarn("Failed to ingest %s: %v", filename, err)
		return UploadResult{}, &internal.UploadError{Phase: "ingest", Err: err}
	}
	result := UploadResult{Location: location, Ingested: true}

	if err := m.svc.IndexDocument(ctx, internal.Slug(ws), location); err != nil {
		internal.LogWarn("Ingested %s but failed to index it into %s: %v", location, ws, err)
		return result, &internal.UploadError{Phase: "index", Location: location, Err: err}
	}
	result.Indexed = true
	internal.LogInfo("Uploaded %s to workspace %s", location, ws)
	return result, nil
}

// RemoveDocument deletes a document. The document list is not refreshed.
func (m *Manager) RemoveDocument(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("document path: %w", internal.ErrEmptyInput)
	}
	if err := m.svc.RemoveDocument(ctx, path); err != nil {
		internal.LogWarn("Failed to remove document %s: %v", path, err)
		return err
	}
	return nil
}

// ListThreads fetches the threads of a workspace. The result is stored only if
// workspace is still the selected one.
func (m *Manager) ListThreads(ctx context.Context, workspace string) ([]string, error) {
	m.mu.Lock()
	gen := m.wsGen
	m.mu.Unlock()
	return m.loadThreads(ctx, workspace, gen)
}

func (m *Manager) loadThreads(ctx context.Context, workspace string, gen uint64) ([]string, error) {
	threads, err := m.svc.Threads(ctx, internal.Slug(workspace))
	if err != nil {
		internal.LogWarn("Failed to list threads of %s: %v", workspace, err)
		return nil, err
	}
	m.applyIfCurrent(workspace, gen, "threads", func(s *State) {
		s.Threads = threads
	})
	return append([]string(nil), threads...), nil
}

// CreateThread creates a thread in the selected workspace and refreshes the thread
// list on success. A taken name yields an error matching internal.ErrNameConflict.
func (m *Manager) CreateThread(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("thread name: %w", internal.ErrEmptyInput)
	}
	m.mu.Lock()
	ws, gen := m.state.Workspace, m.wsGen
	m.mu.Unlock()
	if ws == "" {
		return ErrNoWorkspace
	}

	if err := m.svc.CreateThread(ctx, internal.Slug(ws), name); err != nil {
		internal.LogWarn("Failed to create thread %s: %v", name, err)
		return err
	}
	_, err := m.loadThreads(ctx, ws, gen)
	return err
}

// DeleteThread deletes a thread of the selected workspace. Deleting the selected
// thread clears the selection and history before the thread list is refreshed.
func (m *Manager) DeleteThread(ctx context.Context, name string) error {
	m.mu.Lock()
	ws, gen := m.state.Workspace, m.wsGen
	m.mu.Unlock()
	if ws == "" {
		return ErrNoWorkspace
	}

	if err := m.svc.DeleteThread(ctx, internal.Slug(ws), name); err != nil {
		internal.LogWarn("Failed to delete thread %s: %v", name, err)
		return err
	}
	m.update(func(s *State) {
		if m.wsGen != gen || s.Thread != name {
			return
		}
		m.threadGen++
		s.Thread = ""
		s.History = nil
	})
	_, err := m.loadThreads(ctx, ws, gen)
	return err
}

// SelectThread makes name the current thread and loads its history.
// An empty name clears the selection without a request.
func (m *Manager) SelectThread(ctx context.Context, name string) error {
	var ws string
	var gen uint64
	m.update(func(s *State) {
		m.threadGen++
		gen = m.threadGen
		ws = s.Workspace
		s.Thread = name
		s.History = nil
	})
	if name == "" {
		return nil
	}
	if ws == "" {
		return ErrNoWorkspace
	}

	history, err := m.GetThreadHistory(ctx, ws, name)
	if err != nil {
		return err
	}
	m.update(func(s *State) {
		if m.threadGen != gen {
			internal.LogDebug("Discarding stale history of thread %s", name)
			return
		}
		s.History = history
	})
	return nil
}

// GetThreadHistory fetches and reconstructs the history of a thread without
// touching the session state. An empty thread name yields an empty history.
func (m *Manager) GetThreadHistory(ctx context.Context, workspace, thread string) ([]internal.ChatMessage, error) {
	if thread == "" {
		return []internal.ChatMessage{}, nil
	}
	contents, err := m.svc.ThreadHistory(ctx, internal.Slug(workspace), thread)
	if err != nil {
		internal.LogWarn("Failed to load history of thread %s: %v", thread, err)
		return nil, err
	}
	return ReconstructHistory(contents), nil
}

// SendChatMessage appends text to the history as a user message, sends it to the
// selected thread and appends the reply. A failed request appends FallbackReply
// and returns the error. The reply is dropped if the thread selection changed
// while the request was in flight.
func (m *Manager) SendChatMessage(ctx context.Context, text string, mode internal.Mode) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("chat message: %w", internal.ErrEmptyInput)
	}
	if _, ok := internal.ParseMode(string(mode)); !ok {
		return "", fmt.Errorf("unknown chat mode %q", mode)
	}

	var ws, thread string
	var gen uint64
	var selErr error
	m.update(func(s *State) {
		ws, thread, gen = s.Workspace, s.Thread, m.threadGen
		switch {
		case ws == "":
			selErr = ErrNoWorkspace
			return
		case thread == "":
			selErr = ErrNoThread
			return
		}
		s.History = append(s.History, internal.ChatMessage{Text: text, Sender: internal.SenderUser})
	})
	if selErr != nil {
		return "", selErr
	}

	reply, err := m.svc.Chat(ctx, internal.Slug(ws), thread, text, mode)
	if err != nil {
		internal.LogWarn("Chat request to %s/%s failed: %v", ws, thread, err)
	}
	shown := reply
	if err != nil || reply == "" {
		shown = FallbackReply
	}
	m.update(func(s *State) {
		if m.threadGen != gen {
			internal.LogDebug("Discarding reply for thread %s after selection changed", thread)
			return
		}
		s.History = append(s.History, internal.ChatMessage{Text: shown, Sender: internal.SenderAssistant})
	})
	return reply, err
}

// ClearHistory drops the local history of the selected thread. The remote thread
// is untouched. Replies to messages sent before the clear are discarded.
func (m *Manager) ClearHistory() {
	m.update(func(s *State) {
		m.threadGen++
		s.History = nil
	})
}

// applyIfCurrent applies fn only while workspace is selected under generation gen
func (m *Manager) applyIfCurrent(workspace string, gen uint64, what string, fn func(*State)) {
	applied := false
	m.update(func(s *State) {
		if m.wsGen != gen || internal.Slug(s.Workspace) != internal.Slug(workspace) {
			return
		}
		fn(s)
		applied = true
	})
	if !applied {
		internal.LogDebug("Discarding stale %s of workspace %s", what, workspace)
	}
}

// update mutates the state under the lock and then notifies listeners. A snapshot
// that lost the race to a newer one is not delivered.
func (m *Manager) update(fn func(*State)) {
	m.mu.Lock()
	fn(&m.state)
	m.version++
	version := m.version
	snap := m.snapshotLocked()
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	if version <= m.delivered {
		return
	}
	m.delivered = version
	for _, l := range listeners {
		l(snap)
	}
}

func (m *Manager) snapshotLocked() State {
	s := m.state
	s.Workspaces = append([]string(nil), s.Workspaces...)
	s.Documents = append([]internal.Document(nil), s.Documents...)
	s.Threads = append([]string(nil), s.Threads...)
	s.History = append([]internal.ChatMessage(nil), s.History...)
	return s
}
