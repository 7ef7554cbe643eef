package transform

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iksnae/code-assistant/internal"
)

func TestPanel_PickShowsResult(t *testing.T) {
	p := NewPanel(NewDispatcher(&stubCompleter{reply: "def f(): pass"}))

	require.NoError(t, p.Open("void f() {}"))
	require.True(t, p.State().PickerOpen)

	res, err := p.Pick(context.Background(), "Python")
	require.NoError(t, err)
	require.Equal(t, "def f(): pass", res.Text)

	s := p.State()
	require.False(t, s.PickerOpen)
	require.NotNil(t, s.Result)
	require.Equal(t, "def f(): pass", s.Result.Text)
}

func TestPanel_SelectionLossClears(t *testing.T) {
	p := NewPanel(NewDispatcher(&stubCompleter{reply: "out"}))
	require.NoError(t, p.Open("code"))
	_, err := p.Pick(context.Background(), "C")
	require.NoError(t, err)

	p.SelectionChanged("")
	s := p.State()
	require.False(t, s.PickerOpen)
	require.Nil(t, s.Result)
}

func TestPanel_SelectionLostWhileInFlight(t *testing.T) {
	stub := &stubCompleter{reply: "late", gate: make(chan struct{})}
	p := NewPanel(NewDispatcher(stub))
	require.NoError(t, p.Open("code"))

	done := make(chan error, 1)
	go func() {
		_, err := p.Pick(context.Background(), "Java")
		done <- err
	}()
	require.Eventually(t, func() bool { return len(stub.Prompts()) == 1 }, time.Second, time.Millisecond)

	p.SelectionChanged("other code")
	close(stub.gate)

	require.ErrorIs(t, <-done, ErrSelectionLost)
	s := p.State()
	require.Nil(t, s.Result, "a result for a replaced selection must not be shown")
	require.Equal(t, "other code", s.Selection)
}

func TestPanel_Dismiss(t *testing.T) {
	p := NewPanel(NewDispatcher(&stubCompleter{reply: "out"}))
	require.NoError(t, p.Open("code"))
	_, err := p.Pick(context.Background(), "C")
	require.NoError(t, err)

	p.Dismiss()
	require.Nil(t, p.State().Result)

	// Picking needs the picker to be open again
	_, err = p.Pick(context.Background(), "C")
	require.ErrorIs(t, err, internal.ErrEmptyInput)
}

func TestPanel_OpenEmpty(t *testing.T) {
	p := NewPanel(NewDispatcher(&stubCompleter{}))
	require.ErrorIs(t, p.Open(""), internal.ErrEmptyInput)
	require.False(t, p.State().PickerOpen)
}
