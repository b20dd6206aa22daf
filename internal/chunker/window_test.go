package chunker

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestChunkBySize(t *testing.T) {
	t.Run("Should advance by the stride and keep a short tail window", func(t *testing.T) {
		windows, err := ChunkBySize(numberedWords(2500), 1000, 200)
		require.NoError(t, err)
		require.Len(t, windows, 4)
		counts := make([]int, len(windows))
		for i, w := range windows {
			counts[i] = len(strings.Fields(w))
		}
		assert.Equal(t, []int{1000, 1000, 900, 100}, counts)
		for i, offset := range []int{0, 800, 1600, 2400} {
			assert.True(t, strings.HasPrefix(windows[i], fmt.Sprintf("w%d ", offset)), "window %d", i)
		}
	})

	t.Run("Should reject overlap not smaller than size", func(t *testing.T) {
		for _, overlap := range []int{10, 11, 50} {
			_, err := ChunkBySize("a b c", 10, overlap)
			assert.ErrorIs(t, err, ErrInvalidStride)
		}
	})

	t.Run("Should reject non-positive size and negative overlap", func(t *testing.T) {
		_, err := ChunkBySize("a b c", 0, 0)
		assert.ErrorIs(t, err, ErrInvalidSize)
		_, err = ChunkBySize("a b c", 5, -1)
		assert.ErrorIs(t, err, ErrInvalidSize)
	})

	t.Run("Should return nothing for blank text", func(t *testing.T) {
		windows, err := ChunkBySize(" \n\t ", 10, 2)
		require.NoError(t, err)
		assert.Empty(t, windows)
	})

	t.Run("Should normalize whitespace to single spaces", func(t *testing.T) {
		windows, err := ChunkBySize("one\ttwo\n\nthree   four", 10, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"one two three four"}, windows)
	})

	t.Run("Should clamp windows for sizes near the int limit", func(t *testing.T) {
		windows, err := ChunkBySize("a b c", math.MaxInt, math.MaxInt-1)
		require.NoError(t, err)
		assert.Equal(t, []string{"a b c", "b c", "c"}, windows)

		windows, err = ChunkBySize("a b c", math.MaxInt, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"a b c"}, windows)
	})
}

func TestChunkBySizeReconstruction(t *testing.T) {
	cases := []struct{ words, size, overlap int }{
		{1, 1, 0},
		{17, 5, 2},
		{100, 10, 9},
		{64, 8, 0},
		{33, 7, 3},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("Should rebuild %d words with size %d overlap %d", tc.words, tc.size, tc.overlap), func(t *testing.T) {
			text := numberedWords(tc.words)
			windows, err := ChunkBySize(text, tc.size, tc.overlap)
			require.NoError(t, err)
			stride := tc.size - tc.overlap
			var rebuilt []string
			for i, w := range windows {
				fields := strings.Fields(w)
				assert.LessOrEqual(t, len(fields), tc.size)
				if i == len(windows)-1 {
					rebuilt = append(rebuilt, fields...)
					continue
				}
				rebuilt = append(rebuilt, fields[:stride]...)
			}
			assert.Equal(t, strings.Fields(text), rebuilt)
		})
	}
}
