package chunker

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidStride is returned when overlap is not smaller than the window size.
	ErrInvalidStride = errors.New("chunker: chunk overlap must be smaller than chunk size")
	// ErrInvalidSize is returned for a non-positive window size or a negative overlap.
	ErrInvalidSize = errors.New("chunker: chunk size must be positive and overlap non-negative")
)

// ValidateWindow checks that a window configuration makes progress.
func ValidateWindow(chunkSize, overlap int) error {
	if chunkSize <= 0 || overlap < 0 {
		return fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidSize, chunkSize, overlap)
	}
	if chunkSize-overlap <= 0 {
		return fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidStride, chunkSize, overlap)
	}
	return nil
}

// ChunkBySize splits text into windows of at most chunkSize words, advancing
// by chunkSize-overlap words each step until the start passes the word count.
// Windows are joined with single spaces; empty windows are dropped.
func ChunkBySize(text string, chunkSize, overlap int) ([]string, error) {
	if err := ValidateWindow(chunkSize, overlap); err != nil {
		return nil, err
	}
	words := strings.Fields(text)
	stride := chunkSize - overlap
	var windows []string
	for start := 0; start < len(words); start += stride {
		end := start + min(chunkSize, len(words)-start)
		window := strings.Join(words[start:end], " ")
		if strings.TrimSpace(window) == "" {
			continue
		}
		windows = append(windows, window)
	}
	return windows, nil
}
