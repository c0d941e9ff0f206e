// Package pdftext turns raw PDF bytes into a flat, whitespace-normalized
// text stream. Page breaks become single newlines; all other whitespace
// collapses to single spaces. Image-only scans have no text layer and are
// rejected, not OCRed.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrEmpty is returned for a zero-length document.
	ErrEmpty = errors.New("document is empty")
	// ErrTooLarge is returned when the document exceeds the size ceiling.
	ErrTooLarge = errors.New("document exceeds size limit")
	// ErrNotPDF is returned when the byte stream is not a well-formed PDF.
	ErrNotPDF = errors.New("not a well-formed PDF")
	// ErrNoTextLayer is returned for a PDF with no extractable text.
	ErrNoTextLayer = errors.New("PDF contains no extractable text layer")
)

// Extractor extracts text from PDF documents up to a configured size.
type Extractor struct {
	maxBytes int64
}

// New creates an Extractor with the given size ceiling in bytes.
func New(maxBytes int64) *Extractor {
	return &Extractor{maxBytes: maxBytes}
}

// Extract converts raw PDF bytes into normalized text. The size checks run
// before any parsing begins so an oversized upload never reaches the parser.
func (e *Extractor) Extract(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	return e.ExtractReader(bytes.NewReader(data), int64(len(data)))
}

// ExtractReader is Extract for callers that already hold the document
// behind an io.ReaderAt, sparing the copy into memory.
func (e *Extractor) ExtractReader(r io.ReaderAt, size int64) (text string, err error) {
	if size == 0 {
		return "", ErrEmpty
	}
	if e.maxBytes > 0 && size > e.maxBytes {
		return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, size, e.maxBytes)
	}

	// The pdf library panics on some malformed inputs rather than
	// returning an error; treat both the same way.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("%w: parser panic: %v", ErrNotPDF, rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		raw, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}

		if t := normalizePage(raw); t != "" {
			pages = append(pages, t)
		}
	}

	if len(pages) == 0 {
		return "", ErrNoTextLayer
	}
	return strings.Join(pages, "\n"), nil
}

// normalizePage decodes percent-encoded glyph runs and collapses all
// whitespace within a page to single spaces.
func normalizePage(raw string) string {
	fields := strings.Fields(raw)
	for i, f := range fields {
		fields[i] = decodeGlyphs(f)
	}
	return strings.TrimSpace(strings.Join(fields, " "))
}

// decodeGlyphs resolves URI-style percent escapes that some PDF producers
// embed in text runs (the counterpart of decodeURIComponent in pdf2json
// consumers). A token that fails to decode is kept as-is rather than lost.
func decodeGlyphs(token string) string {
	if !strings.Contains(token, "%") {
		return token
	}
	decoded, err := url.PathUnescape(token)
	if err != nil {
		return token
	}
	return decoded
}
