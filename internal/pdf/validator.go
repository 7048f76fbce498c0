package pdf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/pdf-orgstruct/internal/pdf/wrapper"
)

// Validator decides whether a file is worth handing to the extractor.
// The cheap checks (extension, size) run on stat information alone; the
// structural check parses the document and only runs for ValidateFile.
type Validator struct {
	maxFileSize int64
	// structureCheck is wrapper.ValidateStructure outside of tests
	structureCheck func(path string) error
}

// NewValidator returns a validator rejecting files larger than maxFileSize bytes
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize, structureCheck: wrapper.ValidateStructure}
}

// ValidateFile reports problems with req.Path in the result message.
// The returned error is reserved for failures of the check itself.
func (v *Validator) ValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	result := &PDFValidateFileResult{Path: req.Path}

	err := v.CheckFile(req.Path)
	if err == nil && v.structureCheck != nil {
		if serr := v.structureCheck(req.Path); serr != nil {
			err = fmt.Errorf("invalid PDF structure: %w", serr)
		}
	}
	if err != nil {
		result.Message = err.Error()
		return result, nil
	}

	result.Valid = true
	return result, nil
}

// CheckFile stats path and applies ValidateFileInfo to it
func (v *Validator) CheckFile(path string) error {
	if path == "" {
		return errors.New("path cannot be empty")
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("file does not exist: %s", path)
	case err != nil:
		return fmt.Errorf("cannot access file: %w", err)
	}
	return v.ValidateFileInfo(path, info)
}

// ValidateFileInfo checks that info describes a non-empty .pdf file within the size limit
func (v *Validator) ValidateFileInfo(path string, info fs.FileInfo) error {
	switch size := info.Size(); {
	case info.IsDir():
		return fmt.Errorf("path is a directory, not a file: %s", path)
	case !isPDFFile(path):
		return fmt.Errorf("file is not a PDF: %s", path)
	case size == 0:
		return fmt.Errorf("file is empty: %s", path)
	case size > v.maxFileSize:
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", size, v.maxFileSize)
	}
	return nil
}

func isPDFFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
