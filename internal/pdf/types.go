package pdf

import (
	"github.com/a3tai/pdf-orgstruct/internal/orgstruct"
	"github.com/a3tai/pdf-orgstruct/internal/pdf/wrapper"
)

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
	Year         int    `json:"year,omitempty"`
}

// Request Types

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// PDFSearchDirectoryRequest represents a request to search for PDF files in a directory.
// StartYear and EndYear of zero leave that side of the range open.
type PDFSearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
	StartYear int    `json:"start_year,omitempty"`
	EndYear   int    `json:"end_year,omitempty"`
}

// OrgExtractRequest represents a request to recover the code hierarchy of a PDF
type OrgExtractRequest struct {
	Path string `json:"path"`
}

// OrgExportRequest represents a request to write the code hierarchy of a PDF as CSV
type OrgExportRequest struct {
	Path            string `json:"path"`
	OutputDirectory string `json:"output_directory"`
}

// LayoutRequest represents a request for the coordinate annotated text of a PDF.
// Page zero means every page.
type LayoutRequest struct {
	Path string `json:"path"`
	Page int    `json:"page,omitempty"`
}

// BatchRequest describes a batch run over a directory
type BatchRequest struct {
	Directory       string `json:"directory"`
	OutputDirectory string `json:"output_directory"`
	StartYear       int    `json:"start_year,omitempty"`
	EndYear         int    `json:"end_year,omitempty"`
	DumpLayout      bool   `json:"dump_layout"`
}

// Response Types

// PDFValidateFileResult represents the result of PDF validation
type PDFValidateFileResult struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// PDFSearchDirectoryResult represents the result of a directory search
type PDFSearchDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
	StartYear   int        `json:"start_year,omitempty"`
	EndYear     int        `json:"end_year,omitempty"`
}

// DocumentExtraction is the span tree and coded spans of one document
type DocumentExtraction struct {
	Path  string                `json:"path"`
	Pages []*wrapper.Page       `json:"pages"`
	Spans []orgstruct.CodedSpan `json:"spans"`
}

// OrgExtractResult represents the recovered hierarchy of one document
type OrgExtractResult struct {
	Path      string                     `json:"path"`
	Pages     int                        `json:"pages"`
	SpanCount int                        `json:"span_count"`
	Result    *orgstruct.Result          `json:"result"`
	Hierarchy []orgstruct.HierarchyEntry `json:"hierarchy"`
}

// OrgExportResult represents a written CSV file
type OrgExportResult struct {
	Path    string `json:"path"`
	CSVPath string `json:"csv_path"`
	Items   int    `json:"items"`
	// Extraction is the result the CSV was written from
	Extraction *OrgExtractResult `json:"-"`
}

// LayoutResult represents coordinate annotated text
type LayoutResult struct {
	Path  string   `json:"path"`
	Pages int      `json:"pages"`
	Lines []string `json:"lines"`
}

// BatchSummary reports the outcome of a batch run
type BatchSummary struct {
	TransactionID string   `json:"transaction_id"`
	Found         int      `json:"found"`
	InRange       int      `json:"in_range"`
	Succeeded     int      `json:"succeeded"`
	Failed        []string `json:"failed,omitempty"`
	Outputs       []string `json:"outputs,omitempty"`
	LogFile       string   `json:"log_file,omitempty"`
}

// ServerInfoResult describes the running server
type ServerInfoResult struct {
	ServerName       string     `json:"server_name"`
	Version          string     `json:"version"`
	DefaultDirectory string     `json:"default_directory"`
	OutputDirectory  string     `json:"output_directory"`
	MaxFileSize      int64      `json:"max_file_size"`
	GapThreshold     float64    `json:"gap_threshold"`
	HalfWidth        float64    `json:"half_width"`
	Levels           []string   `json:"levels"`
	AvailableTools   []ToolInfo `json:"available_tools"`
	DirectoryFiles   []FileInfo `json:"directory_files"`
	Cache            CacheStats `json:"cache"`
}

// ToolInfo describes an available MCP tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  string `json:"parameters"`
}
