package wrapper

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// LedongthucSource implements SpanSource using ledongthuc/pdf for glyphs
// and pdfcpu for page dimensions
type LedongthucSource struct {
	layout LayoutOptions
	dims   DimensionReader
}

// NewLedongthucSource creates a span source with default layout options
func NewLedongthucSource() *LedongthucSource {
	return NewLedongthucSourceWithOptions(DefaultLayoutOptions(), NewPDFCPUDimensions())
}

// NewLedongthucSourceWithOptions creates a span source with custom layout options.
// dims may be nil, in which case y coordinates stay in PDF space.
func NewLedongthucSourceWithOptions(layout LayoutOptions, dims DimensionReader) *LedongthucSource {
	return &LedongthucSource{
		layout: layout,
		dims:   dims,
	}
}

// GetLibraryType returns the library type
func (l *LedongthucSource) GetLibraryType() LibraryType {
	return LibraryLedongthuc
}

// OpenFile opens a PDF from a file path
func (l *LedongthucSource) OpenFile(path string) (Document, error) {
	f, reader, err := openPDF(path)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "open_file",
			Err:     fmt.Errorf("failed to open PDF: %w", err),
		}
	}

	doc := &LedongthucDocument{
		reader: reader,
		file:   f,
		layout: l.layout,
	}

	// Page sizes are best effort; a document pdfcpu cannot read still yields text
	if l.dims != nil {
		if sizes, err := l.dims.PageSizes(path); err == nil && len(sizes) == reader.NumPage() {
			doc.sizes = sizes
		}
	}

	return doc, nil
}

// openPDF guards against panics raised by the parser on malformed files
func openPDF(path string) (f *os.File, r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if f != nil {
				f.Close()
			}
			f, r, err = nil, nil, fmt.Errorf("malformed PDF: %v", rec)
		}
	}()
	return pdf.Open(path)
}

// LedongthucDocument implements Document using ledongthuc/pdf
type LedongthucDocument struct {
	reader *pdf.Reader
	file   *os.File
	layout LayoutOptions
	sizes  []PageSize
	closed bool
}

// PageCount returns the number of pages in the document
func (d *LedongthucDocument) PageCount() int {
	if d.closed {
		return 0
	}
	return d.reader.NumPage()
}

// Page extracts the span tree of a page, numbered from 1
func (d *LedongthucDocument) Page(pageNum int) (*Page, error) {
	if d.closed {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "page", Err: ErrDocumentClosed}
	}

	if pageNum < 1 || pageNum > d.reader.NumPage() {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "page",
			Err:     fmt.Errorf("%w %d (document has %d pages)", ErrInvalidPage, pageNum, d.reader.NumPage()),
		}
	}

	page := &Page{Number: pageNum}
	if len(d.sizes) >= pageNum {
		page.Size = d.sizes[pageNum-1]
	}

	p := d.reader.Page(pageNum)
	if p.V.IsNull() {
		return page, nil
	}

	glyphs, err := pageGlyphs(p)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "page",
			Err:     fmt.Errorf("page %d: %w", pageNum, err),
		}
	}

	page.Blocks = BuildBlocks(glyphs, page.Size.Height, d.layout)
	return page, nil
}

// pageGlyphs converts the page content into glyphs, recovering from parser panics
func pageGlyphs(p pdf.Page) (glyphs []Glyph, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			glyphs, err = nil, fmt.Errorf("failed to read content stream: %v", rec)
		}
	}()

	content := p.Content()
	glyphs = make([]Glyph, 0, len(content.Text))
	for _, text := range content.Text {
		glyphs = append(glyphs, Glyph{
			Text:     text.S,
			X:        text.X,
			Y:        text.Y,
			W:        text.W,
			FontName: text.Font,
			FontSize: text.FontSize,
		})
	}
	return glyphs, nil
}

// Close closes the document
func (d *LedongthucDocument) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
