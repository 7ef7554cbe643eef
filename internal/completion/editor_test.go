package completion

import (
	"strings"
	"testing"
)

func TestTrailingLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		n       int
		want    string
	}{
		{"shorter than limit", "a\nb", 30, "a\nb"},
		{"exactly the limit", "a\nb\nc", 3, "a\nb\nc"},
		{"over the limit", "a\nb\nc\nd", 2, "c\nd"},
		{"trailing newline counts as a line", "a\nb\n", 2, "b\n"},
		{"zero", "a", 0, ""},
		{"empty", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrailingLines(tt.content, tt.n); got != tt.want {
				t.Errorf("TrailingLines() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("def f():")
	if !strings.HasPrefix(prompt, "def f():") {
		t.Errorf("prompt should start with the code, got %q", prompt)
	}
	if !strings.Contains(prompt, "Return only the code") {
		t.Errorf("prompt should ask for code only, got %q", prompt)
	}
}

func TestBuffer_Positions(t *testing.T) {
	buf := NewBuffer("go", "ab\ncd")
	if got := buf.Caret(); got != (Position{Line: 2, Column: 3}) {
		t.Errorf("initial caret = %+v", got)
	}

	buf.MoveCaret(Position{Line: 1, Column: 2})
	buf.Insert("X")
	if got := buf.Content(); got != "aXb\ncd" {
		t.Errorf("Content() = %q", got)
	}
	if got := buf.Caret(); got != (Position{Line: 1, Column: 3}) {
		t.Errorf("caret after insert = %+v", got)
	}

	// Out of range positions are clamped
	buf.MoveCaret(Position{Line: 9, Column: 9})
	if got := buf.Caret(); got != (Position{Line: 2, Column: 3}) {
		t.Errorf("clamped caret = %+v", got)
	}
}

func TestBuffer_SelectionAndListeners(t *testing.T) {
	buf := NewBuffer("go", "hello world")
	changes, moves := 0, 0
	removeChange := buf.OnContentChange(func() { changes++ })
	buf.OnCursorMove(func() { moves++ })

	buf.Select(11, 6)
	if got := buf.Selection(); got != "world" {
		t.Errorf("Selection() = %q", got)
	}
	buf.SetContent("bye")
	if got := buf.Selection(); got != "" {
		t.Errorf("SetContent should clear the selection, got %q", got)
	}
	removeChange()
	buf.SetContent("again")

	if changes != 1 {
		t.Errorf("content listener calls = %d, want 1", changes)
	}
	if moves != 3 {
		t.Errorf("cursor listener calls = %d, want 3", moves)
	}
}

func TestBuffer_NoProvider(t *testing.T) {
	buf := NewBuffer("go", "")
	if items := buf.Suggestions(); items != nil {
		t.Errorf("Suggestions() = %+v, want nil", items)
	}
	buf.RegisterInlineProvider("go", &textProvider{})
	if items := buf.Suggestions(); items != nil {
		t.Errorf("empty provider should offer nothing, got %+v", items)
	}
}
