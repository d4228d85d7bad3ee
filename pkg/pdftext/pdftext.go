// Package pdftext extracts plain text from PDF files.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor pulls the plain-text content out of a PDF on disk.
type Extractor struct{}

// New returns a ready Extractor.
func New() *Extractor {
	return &Extractor{}
}

// ExtractFile reads the PDF at path and returns its concatenated plain text.
// A document with no extractable text is an error: there is nothing to index.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("pdftext: open %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdftext: read text: %w", err)
	}
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("pdftext: read text: %w", err)
	}
	text := buf.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("pdftext: document contains no extractable text")
	}
	return text, nil
}
