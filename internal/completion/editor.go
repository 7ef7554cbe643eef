package completion

import (
	"strings"
	"sync"
)

// Position is a caret position; Line and Column start at 1
type Position struct {
	Line   int
	Column int
}

// InlineCompletion is a suggestion to insert Text at At
type InlineCompletion struct {
	Text string
	At   Position
}

// Provider supplies inline completions when the editor asks for them
type Provider interface {
	Provide(caret Position) []InlineCompletion
}

// Editor is the editing surface the assistant drives
type Editor interface {
	LanguageID() string
	Content() string
	SetContent(content string)
	Caret() Position
	Selection() string
	// RegisterInlineProvider replaces the provider registered for languageID
	RegisterInlineProvider(languageID string, p Provider)
	OnContentChange(fn func()) (remove func())
	OnCursorMove(fn func()) (remove func())
}

// Buffer is an in-memory Editor. Listeners run on the goroutine that caused the
// event, after the buffer lock has been released.
type Buffer struct {
	mu         sync.Mutex
	languageID string
	content    string
	caret      Position
	selStart   int
	selEnd     int
	providers  map[string]Provider

	nextID         int
	changeHandlers map[int]func()
	cursorHandlers map[int]func()
}

var _ Editor = (*Buffer)(nil)

// NewBuffer creates a Buffer holding content with the caret at its end
func NewBuffer(languageID, content string) *Buffer {
	b := &Buffer{
		languageID:     languageID,
		content:        content,
		providers:      make(map[string]Provider),
		changeHandlers: make(map[int]func()),
		cursorHandlers: make(map[int]func()),
	}
	b.caret = positionAt(content, len(content))
	return b
}

func (b *Buffer) LanguageID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.languageID
}

func (b *Buffer) Content() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content
}

// SetContent replaces the content, moves the caret to the end and drops the selection.
// Content-change listeners run before cursor-move listeners.
func (b *Buffer) SetContent(content string) {
	b.mu.Lock()
	b.content = content
	b.caret = positionAt(content, len(content))
	b.selStart, b.selEnd = 0, 0
	handlers := append(collect(b.changeHandlers), collect(b.cursorHandlers)...)
	b.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// Insert inserts text at the caret and moves the caret past it
func (b *Buffer) Insert(text string) {
	b.mu.Lock()
	off := offsetAt(b.content, b.caret)
	b.content = b.content[:off] + text + b.content[off:]
	b.caret = positionAt(b.content, off+len(text))
	b.selStart, b.selEnd = 0, 0
	handlers := append(collect(b.changeHandlers), collect(b.cursorHandlers)...)
	b.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

func (b *Buffer) Caret() Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.caret
}

// MoveCaret moves the caret and clears the selection
func (b *Buffer) MoveCaret(pos Position) {
	b.mu.Lock()
	b.caret = positionAt(b.content, offsetAt(b.content, pos))
	b.selStart, b.selEnd = 0, 0
	handlers := collect(b.cursorHandlers)
	b.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// Select selects the byte range [start, end) and moves the caret to end
func (b *Buffer) Select(start, end int) {
	b.mu.Lock()
	start = clamp(start, 0, len(b.content))
	end = clamp(end, 0, len(b.content))
	if start > end {
		start, end = end, start
	}
	b.selStart, b.selEnd = start, end
	b.caret = positionAt(b.content, end)
	handlers := collect(b.cursorHandlers)
	b.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

func (b *Buffer) Selection() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.content[b.selStart:b.selEnd]
}

func (b *Buffer) RegisterInlineProvider(languageID string, p Provider) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.providers[languageID] = p
}

// Suggestions asks the provider registered for the buffer's language for completions at the caret
func (b *Buffer) Suggestions() []InlineCompletion {
	b.mu.Lock()
	p := b.providers[b.languageID]
	caret := b.caret
	b.mu.Unlock()

	if p == nil {
		return nil
	}
	return p.Provide(caret)
}

func (b *Buffer) OnContentChange(fn func()) func() {
	return b.subscribe(b.changeHandlers, fn)
}

func (b *Buffer) OnCursorMove(fn func()) func() {
	return b.subscribe(b.cursorHandlers, fn)
}

func (b *Buffer) subscribe(handlers map[int]func(), fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	handlers[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(handlers, id)
	}
}

func collect(handlers map[int]func()) []func() {
	out := make([]func(), 0, len(handlers))
	for _, fn := range handlers {
		out = append(out, fn)
	}
	return out
}

// positionAt converts a byte offset into a 1-based position
func positionAt(content string, off int) Position {
	off = clamp(off, 0, len(content))
	before := content[:off]
	line := strings.Count(before, "\n") + 1
	col := off - strings.LastIndex(before, "\n")
	return Position{Line: line, Column: col}
}

// offsetAt converts a position into a byte offset, clamping to the content
func offsetAt(content string, pos Position) int {
	off := 0
	for line := 1; line < pos.Line; line++ {
		i := strings.IndexByte(content[off:], '\n')
		if i < 0 {
			return len(content)
		}
		off += i + 1
	}
	end := strings.IndexByte(content[off:], '\n')
	if end < 0 {
		end = len(content) - off
	}
	return off + clamp(pos.Column-1, 0, end)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
