package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"adaptrag/internal/logger"
	"adaptrag/internal/tokens"
)

const (
	DefaultBatchSize      = 100
	DefaultBatchPause     = 100 * time.Millisecond
	DefaultMaxInputTokens = 8000
)

// BatcherOptions tunes a Batcher.
type BatcherOptions struct {
	BatchSize int
	// Pause is the minimum delay between two batched calls. Zero disables it.
	Pause time.Duration
	// Dimension of the zero placeholder used when an item cannot be embedded.
	// Falls back to the embedder's own dimension when zero.
	Dimension int
	// MaxInputTokens bounds single-text requests. Longer texts are truncated.
	MaxInputTokens int
	// Truncator is used for the input guard. Nil disables truncation.
	Truncator tokens.Truncator
}

// BatchReport summarizes how a batch run degraded.
type BatchReport struct {
	Batches        int
	FailedBatches  int
	Placeholders   int
	TruncatedTexts int
}

// Batcher embeds texts in consecutive groups and never aborts the run for a
// single bad input: a failed group is retried item by item and an item that
// still fails becomes a zero vector.
type Batcher struct {
	emb     Embedder
	opts    BatcherOptions
	limiter *rate.Limiter
}

func NewBatcher(emb Embedder, opts BatcherOptions) *Batcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxInputTokens <= 0 {
		opts.MaxInputTokens = DefaultMaxInputTokens
	}
	var limiter *rate.Limiter
	if opts.Pause > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Pause), 1)
	}
	return &Batcher{emb: emb, opts: opts, limiter: limiter}
}

// EmbedText embeds one text after the token length guard.
func (b *Batcher) EmbedText(ctx context.Context, text string) ([]float32, error) {
	text, _ = b.guard(text)
	v, err := b.emb.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedder %q: %w", b.emb.Name(), err)
	}
	return v, nil
}

// EmbedAll returns exactly one vector per input, in input order. Only context
// cancellation is reported as an error.
func (b *Batcher) EmbedAll(ctx context.Context, texts []string) ([][]float32, BatchReport, error) {
	var report BatchReport
	out := make([][]float32, 0, len(texts))
	log := logger.FromContext(ctx)
	for start := 0; start < len(texts); start += b.opts.BatchSize {
		end := min(start+b.opts.BatchSize, len(texts))
		if err := b.wait(ctx, start); err != nil {
			return out, report, err
		}
		group := make([]string, end-start)
		for i, t := range texts[start:end] {
			var cut bool
			group[i], cut = b.guard(t)
			if cut {
				report.TruncatedTexts++
			}
		}
		report.Batches++
		vecs, err := b.emb.EmbedBatch(ctx, group)
		if err == nil && len(vecs) == len(group) {
			out = append(out, vecs...)
			continue
		}
		if err == nil {
			err = fmt.Errorf("got %d vectors for %d inputs", len(vecs), len(group))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, report, ctxErr
		}
		report.FailedBatches++
		log.Warn("batch embedding failed, falling back to single requests",
			"embedder", b.emb.Name(), "offset", start, "size", len(group), "error", err)
		for i, t := range group {
			v, err := b.emb.Embed(ctx, t)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return out, report, err
				}
				log.Warn("embedding failed, using zero vector", "offset", start+i, "error", err)
				v = make([]float32, b.dimension())
				report.Placeholders++
			}
			out = append(out, v)
		}
	}
	return out, report, nil
}

func (b *Batcher) wait(ctx context.Context, start int) error {
	if b.limiter == nil {
		return nil
	}
	if start == 0 {
		// the limiter starts with one token; consume it without blocking
		b.limiter.Allow()
		return nil
	}
	return b.limiter.Wait(ctx)
}

func (b *Batcher) guard(text string) (string, bool) {
	if b.opts.Truncator == nil {
		return text, false
	}
	if b.opts.Truncator.Count(text) <= b.opts.MaxInputTokens {
		return text, false
	}
	return b.opts.Truncator.Truncate(text, b.opts.MaxInputTokens), true
}

func (b *Batcher) dimension() int {
	if b.opts.Dimension > 0 {
		return b.opts.Dimension
	}
	return b.emb.Dimension()
}
