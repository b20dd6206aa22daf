package tokens

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const DefaultEncoding = "cl100k_base"

// Counter counts model tokens in a text.
type Counter interface {
	Count(text string) int
}

// Truncator cuts a text down to at most limit tokens.
type Truncator interface {
	Counter
	Truncate(text string, limit int) string
}

// Encoder is the subset of a BPE tokenizer the counters rely on.
type Encoder interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

// Tiktoken counts and truncates by BPE tokens.
type Tiktoken struct {
	enc Encoder
}

// NewTiktoken resolves modelOrEncoding first as an encoding name, then as a
// model name, and finally falls back to cl100k_base.
func NewTiktoken(modelOrEncoding string) (*Tiktoken, error) {
	if modelOrEncoding == "" {
		modelOrEncoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(modelOrEncoding)
	if err != nil {
		enc, err = tiktoken.EncodingForModel(modelOrEncoding)
	}
	if err != nil {
		enc, err = tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("load encoding %q: %w", DefaultEncoding, err)
		}
	}
	return &Tiktoken{enc: enc}, nil
}

// WithEncoder wraps an already constructed encoder.
func WithEncoder(enc Encoder) *Tiktoken {
	return &Tiktoken{enc: enc}
}

func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

func (t *Tiktoken) Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	toks := t.enc.Encode(text, nil, nil)
	if len(toks) <= limit {
		return text
	}
	return t.enc.Decode(toks[:limit])
}

// Words approximates tokens by whitespace separated words. It needs no
// vocabulary download and is used when running offline.
type Words struct{}

func (Words) Count(text string) int {
	return len(strings.Fields(text))
}

func (Words) Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ")
}

// New builds a truncator by name: "tiktoken" (default) or "words".
func New(kind, encoding string) (Truncator, error) {
	switch kind {
	case "", "tiktoken":
		return NewTiktoken(encoding)
	case "words":
		return Words{}, nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", kind)
	}
}
