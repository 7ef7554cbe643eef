// Package transform sends selected code to the LLM for translation or explanation.
package transform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iksnae/code-assistant/internal"
)

const (
	TargetExplain = "explain"
	TargetComment = "comment"
)

var defaultTargets = []string{"Python", "C++", "Java", "C", TargetExplain, TargetComment}

// Completer turns a prompt into completion text
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Request is one transform of a selection
type Request struct {
	ID           string
	SelectedText string
	Target       string
}

// Result is the raw LLM answer to a Request
type Result struct {
	Request  Request
	Text     string
	Duration time.Duration
}

// Dispatcher issues one-shot transform requests. It holds no per-request state,
// so concurrent calls are independent.
type Dispatcher struct {
	completer Completer
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(c Completer) *Dispatcher {
	return &Dispatcher{completer: c}
}

// Targets returns the options offered by the target picker
func Targets() []string {
	return append([]string(nil), defaultTargets...)
}

// Transform asks the LLM to rewrite selection for target and returns its answer
// unmodified. A failed request is not retried.
func (d *Dispatcher) Transform(ctx context.Context, selection, target string) (Result, error) {
	if strings.TrimSpace(selection) == "" {
		return Result{}, fmt.Errorf("selection: %w", internal.ErrEmptyInput)
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return Result{}, fmt.Errorf("target: %w", internal.ErrEmptyInput)
	}

	req := Request{
		ID:           uuid.NewString(),
		SelectedText: selection,
		Target:       target,
	}

	start := time.Now()
	text, err := d.completer.Complete(ctx, BuildPrompt(selection, target))
	if err != nil {
		internal.LogWarn("Transform %s to %s failed: %v", req.ID, target, err)
		return Result{Request: req}, err
	}
	internal.LogDebug("Transform %s to %s finished in %s", req.ID, target, time.Since(start))
	return Result{Request: req, Text: text, Duration: time.Since(start)}, nil
}

// BuildPrompt returns the prompt for transforming selection into target
func BuildPrompt(selection, target string) string {
	var instruction string
	switch strings.ToLower(target) {
	case TargetExplain:
		instruction = "Explain what the following code does. Answer in plain prose without repeating the code."
	case TargetComment:
		instruction = "Add concise comments to the following code. Return only the commented code, " +
			"with no commentary before or after it and no markdown code fences."
	default:
		instruction = fmt.Sprintf("Translate the following code into %s. Return only the transformed code, "+
			"with no commentary, explanation or markdown code fences.", target)
	}
	return instruction + "\n\n" + selection
}
