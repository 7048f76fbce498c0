package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/a3tai/pdf-orgstruct/internal/config"
	"github.com/a3tai/pdf-orgstruct/internal/descriptions"
	"github.com/a3tai/pdf-orgstruct/internal/pdf"
	"github.com/a3tai/pdf-orgstruct/internal/report"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// shutdownTimeout bounds the graceful shutdown of the HTTP transport
const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	tools      []mcp.Tool
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.addTool(mcp.NewTool(
		descriptions.ToolExtract,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolExtract)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
		),
	), s.handleExtract)

	s.addTool(mcp.NewTool(
		descriptions.ToolExportCSV,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolExportCSV)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
		mcp.WithString("output_directory",
			mcp.Description("Directory for the CSV file (uses the configured output directory if empty)"),
		),
	), s.handleExportCSV)

	s.addTool(mcp.NewTool(
		descriptions.ToolLayout,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolLayout)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
		mcp.WithNumber("page",
			mcp.Description("1-based page number; all pages when omitted"),
		),
	), s.handleLayout)

	s.addTool(mcp.NewTool(
		descriptions.ToolSearchDirectory,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolSearchDirectory)),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query for fuzzy matching"),
		),
		mcp.WithNumber("start_year",
			mcp.Description("First fiscal year to include"),
		),
		mcp.WithNumber("end_year",
			mcp.Description("Last fiscal year to include"),
		),
	), s.handleSearchDirectory)

	s.addTool(mcp.NewTool(
		descriptions.ToolValidateFile,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolValidateFile)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	), s.handleValidateFile)

	s.addTool(mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolServerInfo)),
	), s.handleServerInfo)
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.tools = append(s.tools, tool)
	s.mcpServer.AddTool(tool, handler)
}

// ToolInfos lists the registered tools with their parameters
func (s *Server) ToolInfos() []pdf.ToolInfo {
	infos := make([]pdf.ToolInfo, 0, len(s.tools))
	for _, tool := range s.tools {
		params := make([]string, 0, len(tool.InputSchema.Properties))
		required := make(map[string]bool, len(tool.InputSchema.Required))
		for _, name := range tool.InputSchema.Required {
			required[name] = true
		}
		for name := range tool.InputSchema.Properties {
			if required[name] {
				name += " (required)"
			}
			params = append(params, name)
		}
		sort.Strings(params)

		parameters := "none"
		if len(params) > 0 {
			parameters = strings.Join(params, ", ")
		}
		infos = append(infos, pdf.ToolInfo{
			Name:        tool.Name,
			Description: firstLine(tool.Description),
			Parameters:  parameters,
		})
	}
	return infos
}

// Handler functions
func (s *Server) handleExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.OrgExtract(ctx, pdf.OrgExtractRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(report.ExtractionText(result)), nil
}

func (s *Server) handleExportCSV(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.OrgExportRequest{
		Path:            path,
		OutputDirectory: stringArg(request, "output_directory"),
	}
	result, err := s.pdfService.OrgExportCSV(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	responseText := fmt.Sprintf("Saved %d item(s) from %s\nCSV: %s", result.Items, result.Path, result.CSVPath)
	if result.Items == 0 {
		responseText += "\nNo structured data found in the PDF."
	}
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := intArg(request, "page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.Layout(ctx, pdf.LayoutRequest{Path: path, Page: page})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	header := fmt.Sprintf("Layout of %s (%d page(s))\n\n", result.Path, result.Pages)
	return mcp.NewToolResultText(header + strings.Join(result.Lines, "\n")), nil
}

func (s *Server) handleSearchDirectory(_ context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	startYear, err := intArg(request, "start_year")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	endYear, err := intArg(request, "end_year")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	directory := stringArg(request, "directory")
	if directory == "" {
		directory = s.config.PDFDirectory
	}

	req := pdf.PDFSearchDirectoryRequest{
		Directory: directory,
		Query:     stringArg(request, "query"),
		StartYear: startYear,
		EndYear:   endYear,
	}

	result, err := s.pdfService.PDFSearchDirectory(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.TotalCount == 0 {
		responseText = fmt.Sprintf("No PDF files found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
		if yr := yearRange(result.StartYear, result.EndYear); yr != "" {
			responseText += fmt.Sprintf(" (years: %s)", yr)
		}
	} else {
		responseText = formatSearchDirectoryResult(result)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFValidateFile(pdf.PDFValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable", result.Path)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.pdfService.ServerInfo(s.config.ServerName, s.config.Version, s.ToolInfos())
	return mcp.NewToolResultText(formatServerInfoResult(result)), nil
}

// Argument helpers

func stringArg(request mcp.CallToolRequest, name string) string {
	if v, ok := request.GetArguments()[name].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// intArg reads an optional whole number; JSON numbers arrive as float64
func intArg(request mcp.CallToolRequest, name string) (int, error) {
	raw, ok := request.GetArguments()[name]
	if !ok || raw == nil {
		return 0, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be a whole number, got %g", name, v)
		}
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

// Formatting helpers

func formatSearchDirectoryResult(result *pdf.PDFSearchDirectoryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d PDF file(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		fmt.Fprintf(&b, "Search query: %s\n", result.SearchQuery)
	}
	if yr := yearRange(result.StartYear, result.EndYear); yr != "" {
		fmt.Fprintf(&b, "Years: %s\n", yr)
	}
	b.WriteString("\nFiles:\n")

	for i, file := range result.Files {
		fmt.Fprintf(&b, "%d. %s\n", i+1, file.Name)
		fmt.Fprintf(&b, "   Path: %s\n", file.Path)
		if file.Year != 0 {
			fmt.Fprintf(&b, "   Year: %d\n", file.Year)
		}
		fmt.Fprintf(&b, "   Size: %d bytes\n", file.Size)
		fmt.Fprintf(&b, "   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func formatServerInfoResult(result *pdf.ServerInfoResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s - Server Information\n", result.ServerName, result.Version)
	fmt.Fprintf(&b, "Default Directory: %s\n", result.DefaultDirectory)
	fmt.Fprintf(&b, "Output Directory: %s\n", result.OutputDirectory)
	fmt.Fprintf(&b, "Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	fmt.Fprintf(&b, "Level Labels: %s (left to right)\n", strings.Join(result.Levels, ", "))
	fmt.Fprintf(&b, "Gap Threshold: %g, Interval Half Width: %g\n", result.GapThreshold, result.HalfWidth)
	if result.Cache.Capacity > 0 {
		fmt.Fprintf(&b, "Document Cache: %d/%d documents, %d hits, %d misses\n",
			result.Cache.Size, result.Cache.Capacity, result.Cache.Hits, result.Cache.Misses)
	}
	b.WriteString("\n")

	if len(result.DirectoryFiles) > 0 {
		fmt.Fprintf(&b, "Directory Contents (%d PDF files found):\n", len(result.DirectoryFiles))
		for i, file := range result.DirectoryFiles {
			if i >= 10 { // Limit to first 10 files for readability
				fmt.Fprintf(&b, "   ... and %d more files\n", len(result.DirectoryFiles)-10)
				break
			}
			fmt.Fprintf(&b, "   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Directory Contents: No PDF files found in default directory\n\n")
	}

	b.WriteString("Available Tools:\n")
	for _, tool := range result.AvailableTools {
		fmt.Fprintf(&b, "\n• %s\n", tool.Name)
		fmt.Fprintf(&b, "  Description: %s\n", tool.Description)
		fmt.Fprintf(&b, "  Parameters: %s\n", tool.Parameters)
	}

	return b.String()
}

func yearRange(start, end int) string {
	switch {
	case start == 0 && end == 0:
		return ""
	case end == 0:
		return fmt.Sprintf("%d and later", start)
	case start == 0:
		return fmt.Sprintf("up to %d", end)
	default:
		return fmt.Sprintf("%d-%d", start, end)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	switch s.config.Mode {
	case config.ModeServer:
		return s.runServerMode(ctx)
	case config.ModeStdio:
		return s.runStdioMode(ctx)
	default:
		return fmt.Errorf("mode %q does not run an MCP server", s.config.Mode)
	}
}

// runStdioMode runs the server over standard input and output
func (s *Server) runStdioMode(ctx context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting PDF OrgStruct MCP server in stdio mode")
		log.Printf("PDF directory: %s", s.config.PDFDirectory)
	}
	return s.serveStdio(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serveStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(io.Discard, "", 0))
	if s.config.IsDebug() {
		stdio.SetErrorLogger(log.Default())
	}

	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over HTTP with server-sent events until ctx is done
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting PDF OrgStruct MCP server on %s", addr)
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		log.Printf("PDF OrgStruct MCP server stopped")
		return nil
	}
}
