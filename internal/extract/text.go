package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"adaptrag/internal/domain"
)

// TextExtractor reads plain text and Markdown files. Form feeds separate
// pages; a file without them is a single page.
type TextExtractor struct{}

func (TextExtractor) Extract(_ context.Context, path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	var pages []domain.Page
	for i, p := range strings.Split(text, "\f") {
		pages = append(pages, domain.Page{Text: p, Number: i + 1})
	}
	return newDocument(path, "", "", pages), nil
}
