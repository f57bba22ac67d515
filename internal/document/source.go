// Package document turns bill files into plain text.
package document

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Veraticus/the-watts-must-flow/internal/common"
)

// pageBreak separates pages in plain text bills.
const pageBreak = "\f"

// Source extracts text from PDF and plain text bills, choosing a reader by extension.
type Source struct {
	logger *slog.Logger
}

// NewSource creates a text source. A nil logger uses slog.Default().
func NewSource(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{logger: logger}
}

// ExtractText returns the text of the first maxPages pages. maxPages <= 0 reads every page.
// Any failure is reported as ErrUnreadableDocument.
func (s *Source) ExtractText(ctx context.Context, path string, maxPages int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	s.logger.Debug("Extracting document text", "path", path, "ext", ext, "max_pages", maxPages)

	var (
		text string
		err  error
	)
	switch ext {
	case ".pdf":
		text, err = readPDF(path, maxPages)
	case ".txt", ".text":
		text, err = readText(path, maxPages)
	default:
		return "", fmt.Errorf("%w: unsupported extension %q", common.ErrUnreadableDocument, ext)
	}
	if err != nil {
		s.logger.Debug("Document text extraction failed", "path", path, "error", err)
		return "", fmt.Errorf("%w: %w", common.ErrUnreadableDocument, err)
	}
	return text, nil
}

// readPDF reads page text with ledongthuc/pdf, which panics on some malformed files.
func readPDF(path string, maxPages int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	pages := r.NumPage()
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// readText reads a plain text bill, treating form feeds as page breaks.
func readText(path string, maxPages int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	pages := strings.Split(string(data), pageBreak)
	if maxPages > 0 && len(pages) > maxPages {
		pages = pages[:maxPages]
	}
	return strings.Join(pages, "\n"), nil
}
