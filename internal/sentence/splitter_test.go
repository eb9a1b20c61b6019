package sentence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "terminators stay attached",
			in:   "The cat sat. The cat ran? Dogs bark!",
			want: []string{"The cat sat.", "The cat ran?", "Dogs bark!"},
		},
		{
			name: "whitespace run consumed",
			in:   "One.  \n\tTwo.",
			want: []string{"One.", "Two."},
		},
		{
			name: "no terminator",
			in:   "just a fragment",
			want: []string{"just a fragment"},
		},
		{
			name: "terminator without whitespace does not split",
			in:   "Version 1.5 shipped.Next",
			want: []string{"Version 1.5 shipped.Next"},
		},
		{
			name: "trailing whitespace leaves an empty tail",
			in:   "Done. ",
			want: []string{"Done.", ""},
		},
		{
			name: "leading whitespace preserved",
			in:   " Page one. Page two.",
			want: []string{" Page one.", "Page two."},
		},
		{
			name: "abbreviation over-splits",
			in:   "Dr. Smith arrived.",
			want: []string{"Dr.", "Smith arrived."},
		},
		{
			name: "non breaking space is whitespace",
			in:   "First.\u00a0Second.",
			want: []string{"First.", "Second."},
		},
		{
			name: "whitespace only",
			in:   "   ",
			want: []string{"   "},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.in))
		})
	}
}

func TestSplit_Empty(t *testing.T) {
	assert.Empty(t, Split(""))
}
