// Package document extracts plain text from input files.
package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"

	"github.com/valpere/peredoc/internal/markdown"
)

// UnsupportedFormatError is returned for extensions with no extractor.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document format %q (supported: %s)", e.Ext, strings.Join(Formats(), ", "))
}

type extractor func(data []byte) (string, error)

var extractors = map[string]extractor{
	"txt":      plainText,
	"text":     plainText,
	"md":       markdownText,
	"markdown": markdownText,
	"docx":     docxText,
	"pdf":      pdfText,
}

// Formats lists the canonical supported extensions.
func Formats() []string {
	return []string{"txt", "md", "docx", "pdf"}
}

// NormalizeExt turns ".DOCX" or "docx" into "docx".
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// Supported reports whether ext has an extractor.
func Supported(ext string) bool {
	_, ok := extractors[NormalizeExt(ext)]
	return ok
}

// Extract returns the text of data, read as format ext.
func Extract(data []byte, ext string) (string, error) {
	ext = NormalizeExt(ext)
	fn, ok := extractors[ext]
	if !ok {
		return "", &UnsupportedFormatError{Ext: ext}
	}
	text, err := fn(data)
	if err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", ext, err)
	}
	return strings.TrimSpace(text), nil
}

// ExtractReader reads r fully and extracts it as format ext.
func ExtractReader(r io.Reader, ext string) (string, error) {
	if !Supported(ext) {
		return "", &UnsupportedFormatError{Ext: NormalizeExt(ext)}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return Extract(data, ext)
}

// ExtractFile extracts the file at path, taking the format from its
// extension.
func ExtractFile(path string) (string, error) {
	ext := filepath.Ext(path)
	if !Supported(ext) {
		return "", &UnsupportedFormatError{Ext: NormalizeExt(ext)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return Extract(data, ext)
}

func plainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text is not valid UTF-8")
	}
	return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
}

func markdownText(data []byte) (string, error) {
	text, err := plainText(data)
	if err != nil {
		return "", err
	}
	return markdown.ToPlainText([]byte(text)), nil
}

// docxText joins paragraphs and tables in body order, one block per line
// pair.
func docxText(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var blocks []string
	for _, item := range doc.Document.Body.Items {
		var s string
		switch it := item.(type) {
		case *docx.Paragraph:
			s = it.String()
		case *docx.Table:
			s = it.String()
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			blocks = append(blocks, s)
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
