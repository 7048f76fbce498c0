package pdf

import (
	"context"
	"fmt"
	"io"

	"github.com/a3tai/pdf-orgstruct/internal/orgstruct"
	"github.com/a3tai/pdf-orgstruct/internal/pdf/security"
	"github.com/a3tai/pdf-orgstruct/internal/pdf/wrapper"
	"github.com/a3tai/pdf-orgstruct/internal/runlog"
)

// ServiceConfig holds the settings the service needs from the application config
type ServiceConfig struct {
	MaxFileSize     int64
	Directory       string
	OutputDirectory string
	Inference       orgstruct.Config
	// CacheSize is the number of parsed documents kept between calls; 0 disables the cache
	CacheSize int
}

// Service handles PDF file operations by orchestrating the PDF components
type Service struct {
	maxFileSize     int64
	outputDirectory string
	validator       *Validator
	search          *Search
	extractor       *OrgExtractor
	batch           *Batch
	pathValidator   *security.PathValidator
}

// NewService creates a new PDF service. A nil source uses ledongthuc/pdf.
func NewService(cfg ServiceConfig, source wrapper.SpanSource) (*Service, error) {
	pathValidator, err := security.NewPathValidator(cfg.Directory, cfg.OutputDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	inferencer, err := orgstruct.NewInferencerWithConfig(cfg.Inference)
	if err != nil {
		return nil, err
	}

	if source == nil {
		source = wrapper.NewLedongthucSource()
	}

	outputDirectory := cfg.OutputDirectory
	if outputDirectory == "" {
		outputDirectory = pathValidator.GetConfiguredDirectory()
	}

	validator := NewValidator(cfg.MaxFileSize)
	search := NewSearch(cfg.MaxFileSize)
	extractor := NewOrgExtractor(source, inferencer)
	extractor.UseCache(NewDocumentCache(cfg.CacheSize))

	return &Service{
		maxFileSize:     cfg.MaxFileSize,
		outputDirectory: outputDirectory,
		validator:       validator,
		search:          search,
		extractor:       extractor,
		batch:           NewBatch(search, validator, extractor),
		pathValidator:   pathValidator,
	}, nil
}

// PDFValidateFile performs validation on a PDF file
func (s *Service) PDFValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	req.Path = path
	return s.validator.ValidateFile(req)
}

// PDFSearchDirectory searches for PDF files in a directory
func (s *Service) PDFSearchDirectory(req PDFSearchDirectoryRequest) (*PDFSearchDirectoryResult, error) {
	if req.Directory == "" {
		req.Directory = s.pathValidator.GetConfiguredDirectory()
	}

	dir, err := s.pathValidator.ValidateDirectory(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	req.Directory = dir

	return s.search.SearchDirectory(req)
}

// OrgExtract recovers the code hierarchy of a PDF file
func (s *Service) OrgExtract(ctx context.Context, req OrgExtractRequest) (*OrgExtractResult, error) {
	path, err := s.checkedPath(req.Path)
	if err != nil {
		return nil, err
	}

	result, _, err := s.extractor.Extract(ctx, path)
	return result, err
}

// OrgExportCSV recovers the code hierarchy and writes it as CSV. The
// extraction is returned alongside so callers need not read the file again.
func (s *Service) OrgExportCSV(ctx context.Context, req OrgExportRequest) (*OrgExportResult, error) {
	path, err := s.checkedPath(req.Path)
	if err != nil {
		return nil, err
	}

	outputDir := s.outputDirectory
	if req.OutputDirectory != "" {
		if outputDir, err = s.pathValidator.ValidateDirectory(req.OutputDirectory); err != nil {
			return nil, fmt.Errorf("security validation failed: %w", err)
		}
	}

	result, _, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}

	csvPath := CSVPath(outputDir, path)
	err = writeFile(csvPath, func(w io.Writer) error {
		return WriteCSV(w, result.Result.Items)
	})
	if err != nil {
		return nil, &DocumentError{Path: path, Op: "write csv", Err: err}
	}

	return &OrgExportResult{
		Path:       path,
		CSVPath:    csvPath,
		Items:      len(result.Result.Items),
		Extraction: result,
	}, nil
}

// Layout returns the coordinate annotated text of a PDF file
func (s *Service) Layout(ctx context.Context, req LayoutRequest) (*LayoutResult, error) {
	path, err := s.checkedPath(req.Path)
	if err != nil {
		return nil, err
	}

	extraction, err := s.extractor.ReadDocument(ctx, path)
	if err != nil {
		return nil, err
	}

	pages := extraction.Pages
	if req.Page != 0 {
		if req.Page < 1 || req.Page > len(pages) {
			return nil, fmt.Errorf("page %d out of range (document has %d pages)", req.Page, len(pages))
		}
		pages = pages[req.Page-1 : req.Page]
	}

	return &LayoutResult{
		Path:  path,
		Pages: len(extraction.Pages),
		Lines: LayoutLines(pages),
	}, nil
}

// RunBatch processes every PDF of the request directory into the output directory
func (s *Service) RunBatch(ctx context.Context, req BatchRequest, rl *runlog.RunLog) (*BatchSummary, error) {
	if req.Directory == "" {
		req.Directory = s.pathValidator.GetConfiguredDirectory()
	}
	if req.OutputDirectory == "" {
		req.OutputDirectory = s.outputDirectory
	}
	if rl == nil {
		rl = runlog.Nop()
	}
	return s.batch.Run(ctx, req, rl)
}

// ServerInfo describes the service for the given server identity
func (s *Service) ServerInfo(serverName, version string, tools []ToolInfo) *ServerInfoResult {
	cfg := s.extractor.Inferencer().Config()
	levels := make([]string, len(cfg.Levels))
	for i, l := range cfg.Levels {
		levels[i] = string(l)
	}

	info := &ServerInfoResult{
		ServerName:       serverName,
		Version:          version,
		DefaultDirectory: s.pathValidator.GetConfiguredDirectory(),
		OutputDirectory:  s.outputDirectory,
		MaxFileSize:      s.maxFileSize,
		GapThreshold:     cfg.GapThreshold,
		HalfWidth:        cfg.HalfWidth,
		Levels:           levels,
		AvailableTools:   tools,
		Cache:            s.extractor.cache.Stats(),
	}

	if files, err := s.search.SearchDirectory(PDFSearchDirectoryRequest{Directory: info.DefaultDirectory}); err == nil {
		info.DirectoryFiles = files.Files
	}
	return info
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// OutputDirectory returns the directory reports are written to
func (s *Service) OutputDirectory() string {
	return s.outputDirectory
}

// checkedPath confines and validates a document path
func (s *Service) checkedPath(path string) (string, error) {
	resolved, err := s.pathValidator.Resolve(path)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	if err := s.validator.CheckFile(resolved); err != nil {
		return "", err
	}
	return resolved, nil
}
