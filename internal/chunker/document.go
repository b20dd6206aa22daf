package chunker

import (
	"fmt"
	"strings"

	"adaptrag/internal/domain"
)

const (
	// DefaultSection labels text that precedes the first heading of a page.
	DefaultSection = "Introduction"
	// UnstructuredSection labels a page on which no heading was detected.
	UnstructuredSection = "Content"
)

// Options configures a DocumentChunker.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	// LegacyOrdinals restarts the chunk ordinal at every section flush instead of
	// once per page. IDs are then only unique per (source, page, section).
	LegacyOrdinals bool
}

// DocumentChunker splits document pages into section-aware overlapping windows.
type DocumentChunker struct {
	opts Options
}

// NewDocumentChunker validates the window configuration up front.
func NewDocumentChunker(opts Options) (*DocumentChunker, error) {
	if err := ValidateWindow(opts.ChunkSize, opts.ChunkOverlap); err != nil {
		return nil, err
	}
	return &DocumentChunker{opts: opts}, nil
}

// Chunk splits a whole extracted document.
func (c *DocumentChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	return c.ChunkDocument(doc.Pages, doc.Meta)
}

// ChunkDocument walks pages in order, closing a section whenever a heading line
// is found, and windows each section body. Pages are independent: a section
// never spans a page boundary.
func (c *DocumentChunker) ChunkDocument(pages []domain.Page, meta domain.DocumentMeta) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		pageChunks, err := c.chunkPage(page, meta)
		if err != nil {
			return nil, fmt.Errorf("chunk %s page %d: %w", meta.Source, page.Number, err)
		}
		chunks = append(chunks, pageChunks...)
	}
	return chunks, nil
}

func (c *DocumentChunker) chunkPage(page domain.Page, meta domain.DocumentMeta) ([]domain.Chunk, error) {
	p := pageEmitter{meta: meta, page: page.Number, opts: c.opts}
	lines := strings.Split(page.Text, "\n")
	if !containsHeader(lines) {
		if err := p.flush(page.Text, UnstructuredSection); err != nil {
			return nil, err
		}
		return p.chunks, nil
	}

	title := DefaultSection
	var body strings.Builder
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if IsSectionHeader(line) {
			if strings.TrimSpace(body.String()) != "" {
				if err := p.flush(body.String(), title); err != nil {
					return nil, err
				}
			}
			title = line
			body.Reset()
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	if strings.TrimSpace(body.String()) != "" {
		if err := p.flush(body.String(), title); err != nil {
			return nil, err
		}
	}
	return p.chunks, nil
}

func containsHeader(lines []string) bool {
	for _, l := range lines {
		if IsSectionHeader(strings.TrimSpace(l)) {
			return true
		}
	}
	return false
}

// pageEmitter accumulates the chunks of one page and owns its ordinal counter.
type pageEmitter struct {
	meta    domain.DocumentMeta
	page    int
	opts    Options
	ordinal int
	chunks  []domain.Chunk
}

func (p *pageEmitter) flush(text, section string) error {
	windows, err := ChunkBySize(text, p.opts.ChunkSize, p.opts.ChunkOverlap)
	if err != nil {
		return err
	}
	if p.opts.LegacyOrdinals {
		p.ordinal = 0
	}
	for _, w := range windows {
		p.chunks = append(p.chunks, domain.Chunk{
			ChunkID:    ChunkID(p.meta.Source, p.page, p.ordinal),
			Text:       w,
			Source:     p.meta.Source,
			Author:     p.meta.Author,
			PageNumber: p.page,
			Section:    section,
		})
		p.ordinal++
	}
	return nil
}

// ChunkID formats the deterministic identifier of a chunk.
func ChunkID(source string, page, ordinal int) string {
	return fmt.Sprintf("%s_page%d_chunk%d", source, page, ordinal)
}
