package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangChainComplete(t *testing.T) {
	t.Run("Should send system and user messages with sampling options", func(t *testing.T) {
		m := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "adapted text"}}}}
		out, err := NewLangChain(m).Complete(context.Background(), "sys", "usr", Options{Temperature: 0.7, MaxTokens: 1000})
		require.NoError(t, err)
		assert.Equal(t, "adapted text", out)
		require.Len(t, m.messages, 2)
		assert.Equal(t, llms.ChatMessageTypeSystem, m.messages[0].Role)
		assert.Equal(t, llms.TextContent{Text: "sys"}, m.messages[0].Parts[0])
		assert.Equal(t, llms.ChatMessageTypeHuman, m.messages[1].Role)
		assert.InDelta(t, 0.7, m.opts.Temperature, 1e-9)
		assert.Equal(t, 1000, m.opts.MaxTokens)
	})

	t.Run("Should report an empty completion", func(t *testing.T) {
		m := &fakeModel{resp: &llms.ContentResponse{}}
		_, err := NewLangChain(m).Complete(context.Background(), "s", "u", Options{})
		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})

	t.Run("Should pass model errors through", func(t *testing.T) {
		m := &fakeModel{err: errors.New("rate limited")}
		_, err := NewLangChain(m).Complete(context.Background(), "s", "u", Options{})
		assert.EqualError(t, err, "rate limited")
	})
}

func TestNew(t *testing.T) {
	t.Run("Should require a key for openai", func(t *testing.T) {
		_, err := New(Config{Model: "gpt-4o"})
		assert.Error(t, err)
	})
	t.Run("Should reject unknown providers", func(t *testing.T) {
		_, err := New(Config{Provider: "palm", Model: "x"})
		assert.ErrorContains(t, err, "palm")
	})
}
