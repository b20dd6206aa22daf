package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequencySummarizer(t *testing.T) {
	s := NewFrequencySummarizer()

	t.Run("Should return short texts unchanged", func(t *testing.T) {
		out, err := s.Summarize("  One sentence only.  ", 3)
		require.NoError(t, err)
		assert.Equal(t, "One sentence only.", out)
	})

	t.Run("Should return text without punctuation trimmed", func(t *testing.T) {
		out, err := s.Summarize(" a heading without a stop ", 3)
		require.NoError(t, err)
		assert.Equal(t, "a heading without a stop", out)
	})

	t.Run("Should keep the most representative sentences in order", func(t *testing.T) {
		text := "Reading fluency matters for dyslexic readers. The weather was nice. " +
			"Dyslexic readers gain fluency with repeated reading. Lunch was served at noon."
		out, err := s.Summarize(text, 2)
		require.NoError(t, err)
		assert.Equal(t, "Reading fluency matters for dyslexic readers. Dyslexic readers gain fluency with repeated reading.", out)
	})
}
