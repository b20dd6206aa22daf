package extract

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"adaptrag/internal/domain"
)

// PDFExtractor reads the text layer of a PDF page by page. Author and title
// come from the document info dictionary when present.
type PDFExtractor struct{}

func (PDFExtractor) Extract(ctx context.Context, path string) (doc domain.Document, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()
	// the parser panics on some malformed streams
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parse pdf %s: %v", path, rec)
		}
	}()

	info := r.Trailer().Key("Info")
	title := info.Key("Title").Text()
	author := info.Key("Author").Text()

	n := r.NumPage()
	pages := make([]domain.Page, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return domain.Document{}, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return domain.Document{}, fmt.Errorf("read pdf %s page %d: %w", path, i, err)
		}
		pages = append(pages, domain.Page{Text: text, Number: i})
	}
	return newDocument(path, title, author, pages), nil
}
