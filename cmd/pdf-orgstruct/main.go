package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/pdf-orgstruct/internal/config"
	"github.com/a3tai/pdf-orgstruct/internal/mcp"
	"github.com/a3tai/pdf-orgstruct/internal/pdf"
	"github.com/a3tai/pdf-orgstruct/internal/pdf/wrapper"
	"github.com/a3tai/pdf-orgstruct/internal/report"
	"github.com/a3tai/pdf-orgstruct/internal/runlog"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// batchTool names the run log files written by batch mode
const batchTool = "extract_codes"

// setupLogging configures logging based on the mode
func setupLogging(cfg *config.Config) {
	switch {
	case cfg.IsStdioMode():
		// stdout carries the MCP protocol
		log.SetOutput(os.Stderr)
		if !cfg.IsDebug() {
			log.SetOutput(io.Discard)
		}
	case cfg.IsServerMode():
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	default:
		log.SetOutput(os.Stderr)
	}
}

// newService builds the PDF service from the configuration; a nil source reads files with ledongthuc/pdf
func newService(cfg *config.Config, source wrapper.SpanSource) (*pdf.Service, error) {
	return pdf.NewService(pdf.ServiceConfig{
		MaxFileSize:     cfg.MaxFileSize,
		Directory:       cfg.PDFDirectory,
		OutputDirectory: cfg.OutputDirectory,
		Inference:       cfg.Inference(),
		CacheSize:       cfg.CacheSize,
	}, source)
}

// runSingle extracts one document, saves its CSV and prints the hierarchy to out
func runSingle(ctx context.Context, cfg *config.Config, svc *pdf.Service, out io.Writer) error {
	export, err := svc.OrgExportCSV(ctx, pdf.OrgExportRequest{Path: cfg.File})
	if err != nil {
		return err
	}

	report.FormatExtraction(out, export.Extraction)
	fmt.Fprintf(out, "\nExtracted %d items from the PDF.\n", export.Items)
	fmt.Fprintf(out, "Data has been saved to %s\n", export.CSVPath)
	return nil
}

// runBatch processes the configured directory and prints a summary to out
func runBatch(ctx context.Context, cfg *config.Config, svc *pdf.Service, out io.Writer) error {
	rl := runlog.Nop()
	if cfg.LogDirectory != "" {
		var err error
		if rl, err = runlog.Open(cfg.LogDirectory, batchTool, runlog.ParseLevel(cfg.LogLevel)); err != nil {
			return fmt.Errorf("failed to open run log: %w", err)
		}
	}
	defer rl.Close()

	summary, err := svc.RunBatch(ctx, pdf.BatchRequest{
		Directory:       cfg.PDFDirectory,
		OutputDirectory: cfg.OutputDirectory,
		StartYear:       cfg.StartYear,
		EndYear:         cfg.EndYear,
		DumpLayout:      cfg.DumpLayout,
	}, rl)
	if err != nil {
		return err
	}

	report.FormatBatchSummary(out, summary)
	return nil
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		log.Printf("Received signal: %s", sig)
		log.Println("Initiating graceful shutdown...")
		cancel()

		if err := <-serverErrCh; err != nil {
			log.Printf("Server shutdown with error: %v", err)
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}

	log.Println("Server stopped successfully")
}

// runStdioMode handles stdio mode execution; the parent process controls the lifecycle
func runStdioMode(ctx context.Context, server *mcp.Server) {
	if err := server.Run(ctx); err != nil {
		log.Printf("Server error: %v", err)
		os.Exit(1)
	}
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion()
		return
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() && !cfg.IsStdioMode() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	pdfService, err := newService(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to create PDF service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsBatchMode() {
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		run := runBatch
		if cfg.File != "" {
			run = runSingle
		}
		if err := run(ctx, cfg, pdfService, os.Stdout); err != nil {
			log.Printf("Batch failed: %v", err)
			os.Exit(1)
		}
		return
	}

	server, err := mcp.NewServer(cfg, pdfService)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, server)
	} else {
		runStdioMode(ctx, server)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("PDF OrgStruct\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
