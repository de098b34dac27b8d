package pdfreader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"documind/internal/domain"
)

// Reader produces ordered page text from uploaded files. PDF pages come out
// one domain.Page per PDF page with 1-based sequential numbers; plain text
// files are treated as a single page. A PDF page whose text cannot be
// decoded still occupies its position with empty text, so page numbering
// never skips.
type Reader struct{}

// New creates a page reader.
func New() *Reader { return &Reader{} }

// ExtractPages reads the file at path and returns its pages in order.
func (r *Reader) ExtractPages(path string) ([]domain.Page, error) {
	if strings.ToLower(filepath.Ext(path)) == ".pdf" {
		return r.pdfPages(path)
	}
	return r.textPage(path)
}

func (r *Reader) pdfPages(path string) ([]domain.Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]domain.Page, 0, total)
	for num := 1; num <= total; num++ {
		page := reader.Page(num)
		text := ""
		if !page.V.IsNull() {
			if extracted, err := page.GetPlainText(nil); err == nil {
				text = extracted
			}
		}
		pages = append(pages, domain.Page{Number: num, Text: text})
	}
	return pages, nil
}

func (r *Reader) textPage(path string) ([]domain.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	return []domain.Page{{Number: 1, Text: string(data)}}, nil
}
