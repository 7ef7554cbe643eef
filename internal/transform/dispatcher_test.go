package transform

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iksnae/code-assistant/internal"
)

type stubCompleter struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
	gate    chan struct{}
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return s.reply, s.err
}

func (s *stubCompleter) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func TestDispatcher_Transform(t *testing.T) {
	stub := &stubCompleter{reply: "```\nprint(1)\n```"}
	d := NewDispatcher(stub)

	res, err := d.Transform(context.Background(), "printf(\"%d\", 1);", "Python")
	require.NoError(t, err)
	require.Equal(t, "```\nprint(1)\n```", res.Text, "the response is published as is")
	require.Equal(t, "Python", res.Request.Target)
	require.Equal(t, "printf(\"%d\", 1);", res.Request.SelectedText)
	_, err = uuid.Parse(res.Request.ID)
	require.NoError(t, err)

	prompts := stub.Prompts()
	require.Len(t, prompts, 1)
	require.Contains(t, prompts[0], "into Python")
	require.Contains(t, prompts[0], "Return only the transformed code")
	require.True(t, strings.HasSuffix(prompts[0], "printf(\"%d\", 1);"))
}

func TestDispatcher_Transform_EmptyInput(t *testing.T) {
	stub := &stubCompleter{}
	d := NewDispatcher(stub)

	_, err := d.Transform(context.Background(), "  ", "Python")
	require.ErrorIs(t, err, internal.ErrEmptyInput)
	_, err = d.Transform(context.Background(), "x := 1", "")
	require.ErrorIs(t, err, internal.ErrEmptyInput)
	require.Empty(t, stub.Prompts())
}

func TestDispatcher_Transform_Failure(t *testing.T) {
	boom := errors.New("boom")
	stub := &stubCompleter{err: boom}
	d := NewDispatcher(stub)

	_, err := d.Transform(context.Background(), "x", "Java")
	require.ErrorIs(t, err, boom)
	require.Len(t, stub.Prompts(), 1, "failed transforms are not retried")
}

func TestDispatcher_DistinctIDs(t *testing.T) {
	d := NewDispatcher(&stubCompleter{reply: "ok"})
	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := d.Transform(context.Background(), "x", "C")
			if err == nil {
				ids[i] = res.Request.ID
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate request id %s", id)
		seen[id] = true
	}
}

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"C++", "Translate the following code into C++"},
		{"explain", "Explain what the following code does"},
		{"Comment", "Add concise comments"},
	}
	for _, tt := range tests {
		require.Contains(t, BuildPrompt("code", tt.target), tt.want)
	}
}

func TestTargets(t *testing.T) {
	targets := Targets()
	require.Equal(t, []string{"Python", "C++", "Java", "C", "explain", "comment"}, targets)

	targets[0] = "mutated"
	require.Equal(t, "Python", Targets()[0])
}
