package wrapper

import (
	"errors"
	"fmt"
)

// SpanSource opens PDF documents and exposes their positioned text
type SpanSource interface {
	OpenFile(path string) (Document, error)
	GetLibraryType() LibraryType
}

// Document exposes the page/block/line/span tree of an open PDF
type Document interface {
	PageCount() int
	Page(pageNum int) (*Page, error)
	Close() error
}

// LibraryType represents the underlying PDF library being used
type LibraryType string

const (
	LibraryPDFCPU     LibraryType = "pdfcpu"
	LibraryLedongthuc LibraryType = "ledongthuc"
)

// Point represents a coordinate point
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PageSize represents the dimensions of a PDF page in points
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Page is one page of positioned text, blocks ordered top to bottom
type Page struct {
	Number int      `json:"number"`
	Size   PageSize `json:"size"`
	Blocks []Block  `json:"blocks"`
}

// Block is a group of vertically adjacent lines
type Block struct {
	Lines []Line `json:"lines"`
}

// Line is a run of spans sharing a baseline, ordered left to right
type Line struct {
	Spans []Span `json:"spans"`
}

// Span is a contiguous run of text in a single font at one position.
// Origin is the baseline start of the first glyph with y measured from the top of the page.
type Span struct {
	Text     string  `json:"text"`
	Origin   Point   `json:"origin"`
	Width    float64 `json:"width"`
	FontName string  `json:"font_name,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`
}

// Text joins the spans of the line with single spaces
func (l Line) Text() string {
	var out []byte
	for i, s := range l.Spans {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, s.Text...)
	}
	return string(out)
}

// Origin returns the origin of the first span
func (l Line) Origin() Point {
	if len(l.Spans) == 0 {
		return Point{}
	}
	return l.Spans[0].Origin
}

// SpanCount returns the total number of spans on the page
func (p *Page) SpanCount() int {
	n := 0
	for _, b := range p.Blocks {
		for _, l := range b.Lines {
			n += len(l.Spans)
		}
	}
	return n
}

// WrapperError records which library and operation failed
type WrapperError struct {
	Library LibraryType `json:"library"`
	Op      string      `json:"operation"`
	Err     error       `json:"error"`
}

func (e *WrapperError) Error() string {
	return fmt.Sprintf("PDF %s library error in %s: %v", e.Library, e.Op, e.Err)
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

// Common error variables
var (
	ErrDocumentClosed = errors.New("document is closed")
	ErrInvalidPage    = errors.New("invalid page number")
)
