// Package extract turns files into per page text plus document metadata.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/unicode/norm"

	"adaptrag/internal/domain"
)

const UnknownAuthor = "Unknown Author"

var ErrUnsupported = errors.New("unsupported file type")

// Extractor reads one file into a document.
type Extractor interface {
	Extract(ctx context.Context, path string) (domain.Document, error)
}

// Registry dispatches on the lower-cased file extension.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry knows .pdf, .txt and .md files.
func NewRegistry() *Registry {
	text := TextExtractor{}
	return &Registry{byExt: map[string]Extractor{
		".pdf": PDFExtractor{},
		".txt": text,
		".md":  text,
	}}
}

// Register maps a file extension, with or without its leading dot, to an
// extractor. It replaces any previous mapping.
func (r *Registry) Register(ext string, e Extractor) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.byExt[ext] = e
}

// Extensions lists the supported extensions in sorted order.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Extract(ctx context.Context, path string) (domain.Document, error) {
	e, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}
	return e.Extract(ctx, path)
}

// Discover expands inputs into the supported files they name. An input may be
// a file, a directory (walked recursively) or a doublestar glob pattern.
// Results are de-duplicated and sorted.
func (r *Registry) Discover(inputs []string, exclude []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if _, ok := r.byExt[strings.ToLower(filepath.Ext(p))]; !ok || excluded(p, exclude) {
			return
		}
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, in := range inputs {
		info, err := os.Stat(in)
		switch {
		case err == nil && info.IsDir():
			matches, err := doublestar.FilepathGlob(filepath.Join(in, "**", "*"), doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("walk %s: %w", in, err)
			}
			for _, m := range matches {
				add(m)
			}
		case err == nil:
			add(in)
		default:
			matches, gerr := doublestar.FilepathGlob(in, doublestar.WithFilesOnly())
			if gerr != nil {
				return nil, fmt.Errorf("glob %s: %w", in, gerr)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files match %s: %w", in, err)
			}
			for _, m := range matches {
				add(m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func excluded(path string, patterns []string) bool {
	slash := strings.TrimPrefix(filepath.ToSlash(path), "/")
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		if ok, _ := doublestar.Match(p, slash); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}

var authorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:By|Authors?:?)\s*([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)+)`),
	regexp.MustCompile(`(?m)^([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)+)(?:\s*,\s*[A-Z][a-z]+)*[ \t]*$`),
	regexp.MustCompile(`([A-Z][A-Z \t.]+)\s*\n\s*[A-Z][a-z]+\s+University`),
}

// InferAuthor guesses an author name from the opening of a document's first
// page. It returns UnknownAuthor when no pattern matches.
func InferAuthor(firstPage string) string {
	head := firstPage
	if r := []rune(head); len(r) > 500 {
		head = string(r[:500])
	}
	for _, re := range authorPatterns {
		if m := re.FindStringSubmatch(head); m != nil {
			if a := strings.TrimSpace(m[1]); a != "" {
				return a
			}
		}
	}
	return UnknownAuthor
}

// newDocument fills metadata defaults shared by every extractor.
func newDocument(path, title, author string, pages []domain.Page) domain.Document {
	for i := range pages {
		pages[i].Text = norm.NFC.String(pages[i].Text)
	}
	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	author = strings.TrimSpace(author)
	if author == "" && len(pages) > 0 {
		author = InferAuthor(pages[0].Text)
	}
	if author == "" {
		author = UnknownAuthor
	}
	return domain.Document{
		Path:  path,
		Meta:  domain.DocumentMeta{Source: filepath.Base(path), Author: author, Title: title},
		Pages: pages,
	}
}
