// Package pdfdoc wraps ledongthuc/pdf behind a small per-page text reader.
// No OCR: pages without a text layer come back as empty strings.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrInvalidDocument marks byte streams that are not a parsable PDF.
var ErrInvalidDocument = errors.New("invalid pdf document")

// Document is an open PDF with lazy per-page text extraction.
type Document struct {
	f *os.File
	r *pdf.Reader
}

// Open reads the PDF at path.
func Open(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &Document{f: f, r: r}, nil
}

// NewFromBytes opens a PDF held fully in memory.
func NewFromBytes(content []byte) (*Document, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty stream", ErrInvalidDocument)
	}
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &Document{r: r}, nil
}

// NumPages returns the page count.
func (d *Document) NumPages() int {
	return d.r.NumPage()
}

// PageText extracts the plain text of the 1-based page. Pages that are out of
// range, null, or fail extraction yield "".
func (d *Document) PageText(page int) string {
	if page < 1 || page > d.r.NumPage() {
		return ""
	}
	p := d.r.Page(page)
	if p.V.IsNull() {
		return ""
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// Close releases the backing file, if any.
func (d *Document) Close() error {
	if d.f == nil {
		return nil
	}
	return d.f.Close()
}
