package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"adaptrag/internal/chunker"
	"adaptrag/internal/domain"
	"adaptrag/internal/embedding"
	"adaptrag/internal/extract"
	"adaptrag/internal/logger"
	"adaptrag/internal/vectorstore"
)

var ErrNoDocuments = errors.New("no documents found")

// FileError records a document that could not be processed.
type FileError struct {
	Path string
	Err  error
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Documents       int
	Chunks          int
	Vectors         int
	FailedDocuments []FileError
	FailedBatches   int
	Embedding       embedding.BatchReport
	// Reset is true when the index was cleared before writing.
	Reset    bool
	Duration time.Duration
}

// IndexOptions configures how vectors are written to the store.
type IndexOptions struct {
	UpsertBatch int
	// Reset clears the index before writing. It is implied for corpus bound
	// embedders, whose previous vectors live in another space.
	Reset bool
}

// Saver is implemented by stores and embedders with on-disk state.
type Saver interface {
	Save() error
}

// IngestService adds a set of documents to the index.
type IngestService struct {
	registry    *extract.Registry
	chunker     *chunker.DocumentChunker
	embedder    embedding.Embedder
	batcher     *embedding.Batcher
	store       vectorstore.Storage
	opts        IndexOptions
	tracer      trace.Tracer
}

func NewIngestService(
	registry *extract.Registry,
	ch *chunker.DocumentChunker,
	emb embedding.Embedder,
	batcher *embedding.Batcher,
	store vectorstore.Storage,
	opts IndexOptions,
) *IngestService {
	return &IngestService{
		registry:    registry,
		chunker:     ch,
		embedder:    emb,
		batcher:     batcher,
		store:       store,
		opts:        opts,
		tracer:      otel.Tracer("adaptrag.service.ingest"),
	}
}

// IngestPaths discovers, extracts and chunks every input, then embeds all
// chunks and upserts them into the index. One unreadable document is
// reported in the result and does not stop the run.
func (s *IngestService) IngestPaths(ctx context.Context, inputs, exclude []string) (IngestReport, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "adaptrag.ingest")
	defer span.End()
	log := logger.FromContext(ctx).With("component", "ingest")

	var report IngestReport
	files, err := s.registry.Discover(inputs, exclude)
	if err != nil {
		return report, err
	}
	if len(files) == 0 {
		return report, fmt.Errorf("%w in %v", ErrNoDocuments, inputs)
	}
	log.Info("discovered documents", "count", len(files))

	var chunks []domain.Chunk
	for _, path := range files {
		doc, err := s.registry.Extract(ctx, path)
		if err == nil {
			var docChunks []domain.Chunk
			docChunks, err = s.chunker.Chunk(doc)
			if err == nil {
				report.Documents++
				chunks = append(chunks, docChunks...)
				log.Info("processed document", "source", doc.Meta.Source, "author", doc.Meta.Author, "pages", len(doc.Pages), "chunks", len(docChunks))
				continue
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		log.Warn("skipping document", "path", path, "error", err)
		report.FailedDocuments = append(report.FailedDocuments, FileError{Path: path, Err: err})
	}
	report.Chunks = len(chunks)
	span.SetAttributes(attribute.Int("documents", report.Documents), attribute.Int("chunks", report.Chunks))
	if len(chunks) == 0 {
		return report, fmt.Errorf("%w: nothing could be chunked", ErrNoDocuments)
	}

	if err := s.Index(ctx, chunks, &report); err != nil {
		return report, err
	}
	report.Duration = time.Since(start)
	log.Info("ingestion complete", "documents", report.Documents, "chunks", report.Chunks, "vectors", report.Vectors,
		"placeholders", report.Embedding.Placeholders, "duration", report.Duration.Truncate(time.Millisecond))
	return report, nil
}

// Index embeds chunks and upserts them. Existing vectors are kept unless a
// reset is configured or the embedder rebuilds its space. A failed upsert
// batch is counted and skipped.
func (s *IngestService) Index(ctx context.Context, chunks []domain.Chunk, report *IngestReport) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	if err := s.embedder.Prepare(texts); err != nil {
		return fmt.Errorf("prepare embedder: %w", err)
	}
	vectors, br, err := s.batcher.EmbedAll(ctx, texts)
	report.Embedding = br
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	dim := s.embedder.Dimension()
	if dim == 0 && len(vectors) > 0 {
		dim = len(vectors[0])
	}
	offset := 0
	report.Reset = s.opts.Reset || embedding.IsCorpusBound(s.embedder)
	if report.Reset {
		if err := s.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear store: %w", err)
		}
	} else if st, err := s.store.Stats(ctx); err == nil {
		offset = st.VectorCount
	}
	if err := s.store.Init(ctx, dim); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	records, err := vectorstore.Records(chunks, vectors, offset)
	if err != nil {
		return err
	}
	size := s.opts.UpsertBatch
	if size <= 0 {
		size = vectorstore.DefaultUpsertBatch
	}
	log := logger.FromContext(ctx)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		if err := s.store.Upsert(ctx, records[start:end]); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			log.Warn("upsert batch failed", "offset", start, "size", end-start, "error", err)
			report.FailedBatches++
			continue
		}
		report.Vectors += end - start
	}
	if report.Vectors == 0 {
		return errors.New("upsert: no vectors were written")
	}
	for _, v := range []any{s.store, s.embedder} {
		if saver, ok := v.(Saver); ok {
			if err := saver.Save(); err != nil {
				return fmt.Errorf("persist index: %w", err)
			}
		}
	}
	return nil
}

// Stats reports the index contents.
func (s *IngestService) Stats(ctx context.Context) (vectorstore.Stats, error) {
	return s.store.Stats(ctx)
}
