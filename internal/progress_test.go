package internal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestShowProgress(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		message string
		fn      func() error
		wantErr bool
	}{
		{
			name:    "successful function",
			message: "Testing",
			fn: func() error {
				return nil
			},
			wantErr: false,
		},
		{
			name:    "function with error",
			message: "Testing error",
			fn: func() error {
				return errors.New("test error")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ShowProgress(ctx, tt.message, tt.fn)
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSpin(t *testing.T) {
	var buf bytes.Buffer
	err := spin(context.Background(), &buf, "Uploading", func() error {
		time.Sleep(150 * time.Millisecond)
		return nil
	})
	if err != nil {
		t.Fatalf("spin() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Uploading") || !strings.HasSuffix(buf.String(), "Uploading\n") {
		t.Errorf("unexpected spinner output %q", buf.String())
	}
}

func TestSpin_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	finished := false
	err := spin(ctx, &buf, "Waiting", func() error {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		finished = true
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("spin() error = %v, want deadline exceeded", err)
	}
	if !finished {
		t.Error("spin() returned before fn finished")
	}
	if !strings.Contains(buf.String(), "Waiting") {
		t.Errorf("unexpected spinner output %q", buf.String())
	}
}

func TestPrintHelpers(t *testing.T) {
	tests := []struct {
		name  string
		print func(w *bytes.Buffer)
		want  string
	}{
		{"success", func(w *bytes.Buffer) { PrintSuccess(w, "done") }, "done\n"},
		{"info", func(w *bytes.Buffer) { PrintInfo(w, "note") }, "note\n"},
		{"warning", func(w *bytes.Buffer) { PrintWarning(w, "careful") }, "WARNING: careful\n"},
		{"error", func(w *bytes.Buffer) { PrintError(w, "broken") }, "ERROR: broken\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.print(&buf)
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
}
