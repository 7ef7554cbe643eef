// Package completion drives debounced inline code completions for an editor.
package completion

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/iksnae/code-assistant/internal"
)

// Completer turns a prompt into completion text
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Phase is the observable state of the assistant
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDebouncing
	PhaseRequesting
	PhaseInstalled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDebouncing:
		return "debouncing"
	case PhaseRequesting:
		return "requesting"
	case PhaseInstalled:
		return "installed"
	default:
		return "unknown"
	}
}

// Options configures an Assistant; zero fields take the defaults
type Options struct {
	Delay    time.Duration
	MaxLines int
	Clock    Clock
}

// Assistant requests a completion once the editor content has been quiet for the
// configured delay and installs the answer as the editor's inline provider.
//
// Every request carries a sequence number. Only the response to the most recently
// issued request may install a provider; earlier responses are dropped however late
// or early they arrive.
type Assistant struct {
	editor    Editor
	completer Completer
	delay     time.Duration
	maxLines  int
	clock     Clock

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	timer     Timer
	timerGen  uint64
	deadline  time.Time
	issued    uint64
	inflight  int
	provider  *textProvider
	selection string
	closed    bool
	onSelect  []func(string)
	onResult  []func(error)
	detach    []func()

	wg sync.WaitGroup
}

// New attaches an Assistant to editor
func New(editor Editor, completer Completer, opts Options) *Assistant {
	if opts.Delay <= 0 {
		opts.Delay = internal.DefaultCompletionDelay
	}
	if opts.MaxLines <= 0 {
		opts.MaxLines = internal.DefaultCompletionLines
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Assistant{
		editor:    editor,
		completer: completer,
		delay:     opts.Delay,
		maxLines:  opts.MaxLines,
		clock:     opts.Clock,
		ctx:       ctx,
		cancel:    cancel,
	}
	a.detach = []func(){
		editor.OnContentChange(a.contentChanged),
		editor.OnCursorMove(a.cursorMoved),
	}
	return a
}

// OnSelection registers a listener called with the selected text whenever it changes
func (a *Assistant) OnSelection(fn func(selection string)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onSelect = append(a.onSelect, fn)
}

// OnResponse registers a listener called each time a completion request resolves,
// with the request's error. A nil error does not mean the answer was installed:
// superseded answers are dropped.
func (a *Assistant) OnResponse(fn func(err error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onResult = append(a.onResult, fn)
}

// State returns the current phase
func (a *Assistant) State() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phaseLocked()
}

// Deadline returns when the pending request fires; ok is false when nothing is pending
func (a *Assistant) Deadline() (deadline time.Time, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer == nil {
		return time.Time{}, false
	}
	return a.deadline, true
}

// Installed returns the text offered by the installed provider
func (a *Assistant) Installed() (text string, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.provider == nil {
		return "", false
	}
	return a.provider.text, true
}

// Wait blocks until in-flight completion requests have finished
func (a *Assistant) Wait() {
	a.wg.Wait()
}

// Close stops the pending timer, detaches from the editor and cancels in-flight requests
func (a *Assistant) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	detach := a.detach
	a.detach = nil
	a.mu.Unlock()

	for _, fn := range detach {
		fn()
	}
	a.cancel()
	a.wg.Wait()
}

func (a *Assistant) contentChanged() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timerGen++
	gen := a.timerGen
	a.deadline = a.clock.Now().Add(a.delay)
	a.timer = a.clock.AfterFunc(a.delay, func() { a.fire(gen) })
}

// fire issues the request for the timer that expired, unless it was replaced meanwhile
func (a *Assistant) fire(gen uint64) {
	a.mu.Lock()
	if a.closed || a.timer == nil || a.timerGen != gen {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	a.issued++
	seq := a.issued
	a.inflight++
	snippet := TrailingLines(a.editor.Content(), a.maxLines)
	lang := a.editor.LanguageID()
	a.wg.Add(1)
	a.mu.Unlock()

	internal.LogDebug("Requesting completion #%d (%d bytes of %s)", seq, len(snippet), lang)
	go a.request(seq, lang, snippet)
}

func (a *Assistant) request(seq uint64, lang, snippet string) {
	defer a.wg.Done()
	text, err := a.completer.Complete(a.ctx, BuildPrompt(snippet))

	a.mu.Lock()
	a.inflight--
	switch {
	case err != nil:
		internal.LogWarn("Completion #%d failed: %v", seq, err)
	case a.closed || seq != a.issued:
		internal.LogDebug("Discarding completion #%d, latest is #%d", seq, a.issued)
	default:
		a.provider = &textProvider{text: text, seq: seq}
		a.editor.RegisterInlineProvider(lang, a.provider)
	}
	listeners := slices.Clone(a.onResult)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(err)
	}
}

func (a *Assistant) cursorMoved() {
	selection := a.editor.Selection()

	a.mu.Lock()
	if a.closed || selection == a.selection {
		a.mu.Unlock()
		return
	}
	a.selection = selection
	listeners := slices.Clone(a.onSelect)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(selection)
	}
}

func (a *Assistant) phaseLocked() Phase {
	switch {
	case a.timer != nil:
		return PhaseDebouncing
	case a.inflight > 0:
		return PhaseRequesting
	case a.provider != nil:
		return PhaseInstalled
	default:
		return PhaseIdle
	}
}
