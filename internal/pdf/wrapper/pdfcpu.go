package wrapper

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// DimensionReader reports the media box size of every page in a file
type DimensionReader interface {
	PageSizes(path string) ([]PageSize, error)
}

// PDFCPUDimensions reads page dimensions with pdfcpu
type PDFCPUDimensions struct{}

// NewPDFCPUDimensions creates a pdfcpu backed dimension reader
func NewPDFCPUDimensions() *PDFCPUDimensions {
	return &PDFCPUDimensions{}
}

// PageSizes returns the page sizes in page order
func (p *PDFCPUDimensions) PageSizes(path string) ([]PageSize, error) {
	dims, err := api.PageDimsFile(path)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "page_dims",
			Err:     fmt.Errorf("failed to read page dimensions: %w", err),
		}
	}

	sizes := make([]PageSize, len(dims))
	for i, d := range dims {
		sizes[i] = PageSize{Width: d.Width, Height: d.Height}
	}
	return sizes, nil
}

// ValidateStructure runs pdfcpu's relaxed validation over a file
func ValidateStructure(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ValidateFile(path, conf); err != nil {
		return &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "validate",
			Err:     err,
		}
	}
	return nil
}
