package transform

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineKind classifies a diff line
type LineKind int

const (
	LineContext LineKind = iota
	LineAdded
	LineRemoved
)

// DiffLine is one line of a line diff
type DiffLine struct {
	Kind LineKind
	Text string
}

// Diff computes a line diff between the original selection and the transformed code
func Diff(original, transformed string) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(original, transformed)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []DiffLine
	for _, d := range diffs {
		chunk := strings.Split(d.Text, "\n")
		if chunk[len(chunk)-1] == "" {
			chunk = chunk[:len(chunk)-1]
		}
		kind := LineContext
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			kind = LineAdded
		case diffmatchpatch.DiffDelete:
			kind = LineRemoved
		}
		for _, text := range chunk {
			out = append(out, DiffLine{Kind: kind, Text: text})
		}
	}
	return out
}

// FormatDiff renders lines in unified style with +, - and space prefixes
func FormatDiff(lines []DiffLine) string {
	var sb strings.Builder
	for _, l := range lines {
		switch l.Kind {
		case LineAdded:
			sb.WriteString("+ ")
		case LineRemoved:
			sb.WriteString("- ")
		default:
			sb.WriteString("  ")
		}
		sb.WriteString(l.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}
