package transform

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name        string
		original    string
		transformed string
		want        []DiffLine
	}{
		{
			name:        "identical",
			original:    "a\nb\n",
			transformed: "a\nb\n",
			want:        []DiffLine{{LineContext, "a"}, {LineContext, "b"}},
		},
		{
			name:        "replaced line",
			original:    "a\nb\nc\n",
			transformed: "a\nB\nc\n",
			want: []DiffLine{
				{LineContext, "a"},
				{LineRemoved, "b"},
				{LineAdded, "B"},
				{LineContext, "c"},
			},
		},
		{
			name:        "from empty",
			original:    "",
			transformed: "x\n",
			want:        []DiffLine{{LineAdded, "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.original, tt.transformed)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatDiff(t *testing.T) {
	out := FormatDiff([]DiffLine{{LineContext, "a"}, {LineRemoved, "b"}, {LineAdded, "B"}})
	want := "  a\n- b\n+ B\n"
	if out != want {
		t.Errorf("FormatDiff() = %q, want %q", out, want)
	}
}
