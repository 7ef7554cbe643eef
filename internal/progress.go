package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ShowProgress runs fn while a spinner with message is drawn on stderr.
// It always returns after fn, so fn should honor ctx to stop early.
// Without a terminal the message is logged and fn runs plainly.
func ShowProgress(ctx context.Context, message string, fn func() error) error {
	if !isTerminal(os.Stderr) {
		LogInfo(message)
		return fn()
	}
	return spin(ctx, os.Stderr, message, fn)
}

func spin(ctx context.Context, w io.Writer, message string, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case err := <-done:
			if err != nil {
				fmt.Fprintf(w, "\r%s %s\n", errorStyle.Render("✗"), message)
				return err
			}
			fmt.Fprintf(w, "\r%s %s\n", successStyle.Render("✓"), message)
			return nil
		case <-ctx.Done():
			fmt.Fprintf(w, "\r%s %s\n", errorStyle.Render("✗"), message)
			// fn may still write results its caller reads once we return
			<-done
			return ctx.Err()
		case <-ticker.C:
			fmt.Fprintf(w, "\r%s %s", progressStyle.Render(spinnerFrames[i%len(spinnerFrames)]), message)
		}
	}
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	if isTerminal(w) {
		fmt.Fprintf(w, "%s %s\n", successStyle.Render("✓"), message)
	} else {
		fmt.Fprintln(w, message)
	}
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	if isTerminal(w) {
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render("✗"), message)
	} else {
		fmt.Fprintf(w, "ERROR: %s\n", message)
	}
}

// PrintInfo prints an info message
func PrintInfo(w io.Writer, message string) {
	if isTerminal(w) {
		fmt.Fprintf(w, "%s %s\n", progressStyle.Render("ℹ"), message)
	} else {
		fmt.Fprintln(w, message)
	}
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	if isTerminal(w) {
		fmt.Fprintf(w, "%s %s\n", warningStyle.Render("⚠"), message)
	} else {
		fmt.Fprintf(w, "WARNING: %s\n", message)
	}
}
