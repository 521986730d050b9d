// Package textextractor holds helpers shared by the resume text extractors.
package textextractor

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/fairyhunter13/ai-interview-assistant/internal/domain"
	"github.com/fairyhunter13/ai-interview-assistant/pkg/textx"
)

// Supported resume content types.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEText = "text/plain"
)

// ErrUnsupportedType rejects files outside PDF, DOCX and plain text.
var ErrUnsupportedType = domain.NewValidationError("unsupported file type")

// ContentTypeFromName maps a file name's extension to a content type.
func ContentTypeFromName(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDOCX
	case ".txt", ".text", ".md":
		return MIMEText
	case "", ".":
		return ""
	}
	return mime.TypeByExtension(ext)
}

// ReadConfined reads path only when it resolves inside the system temp dir or
// one of roots. Uploads are spooled to the temp dir before extraction.
func ReadConfined(path string, roots ...string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	abs = filepath.Clean(abs)
	allowed := append([]string{os.TempDir()}, roots...)
	for _, root := range allowed {
		if root == "" {
			continue
		}
		base, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(filepath.Clean(base), abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
			continue
		}
		return os.ReadFile(filepath.Join(base, rel))
	}
	return nil, fmt.Errorf("disallowed path: %s", abs)
}

// Normalize drops control characters and collapses whitespace runs.
func Normalize(text string) string {
	return strings.Join(strings.Fields(textx.SanitizeText(text)), " ")
}
