package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runeEncoder maps every rune to one token.
type runeEncoder struct{}

func (runeEncoder) Encode(text string, _, _ []string) []int {
	out := make([]int, 0, len(text))
	for _, r := range text {
		out = append(out, int(r))
	}
	return out
}

func (runeEncoder) Decode(tokens []int) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteRune(rune(t))
	}
	return b.String()
}

func TestTiktoken(t *testing.T) {
	tk := WithEncoder(runeEncoder{})

	t.Run("Should count encoded tokens", func(t *testing.T) {
		assert.Equal(t, 5, tk.Count("héllo"))
	})
	t.Run("Should leave short text untouched", func(t *testing.T) {
		assert.Equal(t, "abc", tk.Truncate("abc", 10))
	})
	t.Run("Should cut by token and decode back", func(t *testing.T) {
		assert.Equal(t, "abc", tk.Truncate("abcdef", 3))
	})
	t.Run("Should return nothing for a zero limit", func(t *testing.T) {
		assert.Empty(t, tk.Truncate("abcdef", 0))
	})
}

func TestWords(t *testing.T) {
	w := Words{}
	assert.Equal(t, 3, w.Count("  one two\nthree "))
	assert.Equal(t, "one two", w.Truncate("one two three", 2))
	assert.Equal(t, "one two", w.Truncate("one two", 5))
}

func TestNew(t *testing.T) {
	t.Run("Should build the word counter", func(t *testing.T) {
		tr, err := New("words", "")
		require.NoError(t, err)
		assert.IsType(t, Words{}, tr)
	})
	t.Run("Should reject unknown tokenizers", func(t *testing.T) {
		_, err := New("sentencepiece", "")
		assert.Error(t, err)
	})
}
