package transform

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iksnae/code-assistant/internal"
)

// ErrSelectionLost is returned by Pick when the selection was cleared or replaced
// while the transform was in flight; the result is not shown.
var ErrSelectionLost = errors.New("selection changed before the result arrived")

// PanelState is what the transform panel displays
type PanelState struct {
	Selection  string
	PickerOpen bool
	Result     *Result
}

// Panel is the caller-side state of the transform UI: the target picker and the one
// result on display. Losing the selection closes the picker and clears the result.
type Panel struct {
	dispatcher *Dispatcher

	mu         sync.Mutex
	selection  string
	pickerOpen bool
	result     *Result
	gen        uint64
}

// NewPanel creates a closed Panel
func NewPanel(d *Dispatcher) *Panel {
	return &Panel{dispatcher: d}
}

// Open shows the target picker for selection
func (p *Panel) Open(selection string) error {
	if selection == "" {
		return fmt.Errorf("selection: %w", internal.ErrEmptyInput)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if selection != p.selection {
		p.gen++
		p.result = nil
	}
	p.selection = selection
	p.pickerOpen = true
	return nil
}

// Pick transforms the current selection into target and displays the result,
// unless the selection changed while the request was in flight.
func (p *Panel) Pick(ctx context.Context, target string) (Result, error) {
	p.mu.Lock()
	if !p.pickerOpen || p.selection == "" {
		p.mu.Unlock()
		return Result{}, fmt.Errorf("picker is closed: %w", internal.ErrEmptyInput)
	}
	selection, gen := p.selection, p.gen
	p.pickerOpen = false
	p.mu.Unlock()

	res, err := p.dispatcher.Transform(ctx, selection, target)
	if err != nil {
		return res, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen {
		internal.LogDebug("Dropping transform %s, selection changed", res.Request.ID)
		return res, ErrSelectionLost
	}
	p.result = &res
	return res, nil
}

// SelectionChanged reports the editor's current selection. An empty selection
// closes the picker and clears the result; a different one clears the result.
func (p *Panel) SelectionChanged(selection string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if selection == p.selection {
		return
	}
	p.gen++
	p.selection = selection
	p.result = nil
	if selection == "" {
		p.pickerOpen = false
	}
}

// Dismiss closes the picker and clears the result
func (p *Panel) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.pickerOpen = false
	p.result = nil
}

// State returns what the panel currently displays
func (p *Panel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := PanelState{Selection: p.selection, PickerOpen: p.pickerOpen}
	if p.result != nil {
		r := *p.result
		s.Result = &r
	}
	return s
}
