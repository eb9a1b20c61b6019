package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"punctuation and digits", "Hello, World! 123", []string{"hello", "world", "123"}},
		{"duplicates kept", "the cat and THE cat", []string{"the", "cat", "and", "the", "cat"}},
		{"underscore is a word char", "snake_case-name", []string{"snake_case", "name"}},
		{"non ascii letters split", "café au lait", []string{"caf", "au", "lait"}},
		{"empty", "", []string{}},
		{"only punctuation", " ... !? -- ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestNewSet(t *testing.T) {
	s := NewSet("The cat sat. The CAT ran.")
	assert.Equal(t, 4, s.Len())
	assert.True(t, s.Has("cat"))
	assert.True(t, s.Has("the"))
	assert.False(t, s.Has("dog"))

	assert.Equal(t, 0, NewSet("").Len())
	assert.Equal(t, 0, NewSet("?!").Len())
}
