// Package pdftext extracts resume text locally with MuPDF (go-fitz).
// It is used when no Tika server is configured and handles PDF, DOCX and
// plain text.
package pdftext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	fitz "github.com/gen2brain/go-fitz"

	"github.com/fairyhunter13/ai-interview-assistant/internal/adapter/textextractor"
	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
)

// Extractor implements domain.TextExtractor for PDF, DOCX and plain text.
type Extractor struct {
	// Roots are extra directories uploads may be read from besides the temp dir.
	Roots []string
	// MaxPages caps how many pages are read; zero means all.
	MaxPages int
}

var _ domain.TextExtractor = (*Extractor)(nil)

// New returns an Extractor reading at most 50 pages per document.
func New() *Extractor { return &Extractor{MaxPages: 50} }

// ExtractPath returns normalized text for a PDF, DOCX or plain text upload.
func (e *Extractor) ExtractPath(ctx context.Context, fileName, path string) (string, error) {
	ct := textextractor.ContentTypeFromName(fileName)
	switch ct {
	case textextractor.MIMEPDF, textextractor.MIMEDOCX, textextractor.MIMEText:
	default:
		return "", fmt.Errorf("op=pdftext.extract: %w", textextractor.ErrUnsupportedType)
	}
	body, err := textextractor.ReadConfined(path, e.Roots...)
	if err != nil {
		return "", fmt.Errorf("op=pdftext.extract: %w", err)
	}

	var text string
	switch ct {
	case textextractor.MIMEText:
		return textextractor.Normalize(string(body)), nil
	case textextractor.MIMEPDF:
		text, err = e.pdfText(ctx, body)
	default:
		text, err = e.docxText(ctx, path, body)
	}
	if err != nil {
		return "", fmt.Errorf("op=pdftext.extract: %w", err)
	}
	return textextractor.Normalize(text), nil
}

func (e *Extractor) pdfText(ctx context.Context, body []byte) (string, error) {
	doc, err := fitz.NewFromMemory(body)
	if err != nil {
		return "", domain.NewValidationError("could not read PDF: %v", err)
	}
	return e.pages(ctx, doc)
}

// docxText opens an Office document by file name; MuPDF picks its OOXML
// handler from the ".docx" extension, so uploads stored under another name
// are copied first.
func (e *Extractor) docxText(ctx context.Context, path string, body []byte) (string, error) {
	name := path
	if !strings.EqualFold(filepath.Ext(path), ".docx") {
		tmp, err := os.CreateTemp("", "resume-*.docx")
		if err != nil {
			return "", err
		}
		defer func() { _ = os.Remove(tmp.Name()) }()
		_, werr := tmp.Write(body)
		cerr := tmp.Close()
		if werr != nil {
			return "", werr
		}
		if cerr != nil {
			return "", cerr
		}
		name = tmp.Name()
	}
	doc, err := fitz.New(name)
	if err != nil {
		return "", domain.NewValidationError("could not read DOCX: %v", err)
	}
	return e.pages(ctx, doc)
}

func (e *Extractor) pages(ctx context.Context, doc *fitz.Document) (string, error) {
	defer func() { _ = doc.Close() }()

	pages := doc.NumPage()
	if e.MaxPages > 0 && pages > e.MaxPages {
		pages = e.MaxPages
	}
	var sb strings.Builder
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		t, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		sb.WriteString(t)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
