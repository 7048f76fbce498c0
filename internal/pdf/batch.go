package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/a3tai/pdf-orgstruct/internal/runlog"
)

// Batch processes every PDF of a directory that falls inside a year range
type Batch struct {
	search    *Search
	validator *Validator
	extractor *OrgExtractor
}

// NewBatch creates a batch driver
func NewBatch(search *Search, validator *Validator, extractor *OrgExtractor) *Batch {
	return &Batch{
		search:    search,
		validator: validator,
		extractor: extractor,
	}
}

// Run processes the documents sequentially. A failing document is recorded in
// the summary and the run moves on to the next one. Cancelling ctx stops the
// run between documents.
func (b *Batch) Run(ctx context.Context, req BatchRequest, rl *runlog.RunLog) (*BatchSummary, error) {
	if req.OutputDirectory == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}

	summary := &BatchSummary{
		TransactionID: rl.TransactionID(),
		LogFile:       rl.Path(),
	}

	all, err := b.search.SearchDirectory(PDFSearchDirectoryRequest{Directory: req.Directory})
	if err != nil {
		rl.Error("directory search failed", err, "directory", req.Directory)
		return nil, err
	}
	summary.Found = all.TotalCount

	inRange, err := b.search.SearchDirectory(PDFSearchDirectoryRequest{
		Directory: req.Directory,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
	})
	if err != nil {
		rl.Error("directory search failed", err, "directory", req.Directory)
		return nil, err
	}
	summary.InRange = inRange.TotalCount

	rl.Info("documents selected",
		"directory", all.Directory,
		"found", summary.Found,
		"in_range", summary.InRange,
		"start_year", req.StartYear,
		"end_year", req.EndYear)

	for i, file := range inRange.Files {
		if err := ctx.Err(); err != nil {
			rl.Error("batch cancelled", err, "processed", i)
			return summary, err
		}

		// outputs mirror the document's subdirectory so equal base names stay apart
		name, err := filepath.Rel(inRange.Directory, file.Path)
		if err != nil {
			name = file.Name
		}
		outputDir := filepath.Join(req.OutputDirectory, filepath.Dir(name))

		rl.Info("processing document", "file", name, "index", i+1, "total", len(inRange.Files))
		outputs, err := b.processDocument(ctx, file.Path, outputDir, req.DumpLayout, rl)
		if err != nil {
			summary.Failed = append(summary.Failed, name)
			rl.Error("document failed", err, "file", name)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			continue
		}

		summary.Succeeded++
		summary.Outputs = append(summary.Outputs, outputs...)
	}

	rl.Info("batch completed",
		"succeeded", summary.Succeeded,
		"failed", len(summary.Failed))
	return summary, nil
}

func (b *Batch) processDocument(ctx context.Context, path, outputDir string, dumpLayout bool, rl *runlog.RunLog) ([]string, error) {
	if err := b.validator.CheckFile(path); err != nil {
		return nil, &DocumentError{Path: path, Op: "validate", Err: err}
	}

	result, extraction, err := b.extractor.Extract(ctx, path)
	if err != nil {
		return nil, err
	}

	rl.Step("extracted", "pages", result.Pages, "coded_spans", result.SpanCount)
	if result.Result.IsEmpty() {
		rl.Step("no structured data found", "file", path)
	} else {
		rl.Step("levels assigned",
			"thresholds", result.Result.Thresholds.String(),
			"counts", result.Result.LevelSummary())
	}

	csvPath := CSVPath(outputDir, path)
	err = writeFile(csvPath, func(w io.Writer) error {
		return WriteCSV(w, result.Result.Items)
	})
	if err != nil {
		return nil, &DocumentError{Path: path, Op: "write csv", Err: err}
	}
	rl.Step("saved structure", "csv", csvPath, "items", len(result.Result.Items))
	outputs := []string{csvPath}

	if dumpLayout {
		layoutPath := LayoutPath(outputDir, path)
		err = writeFile(layoutPath, func(w io.Writer) error {
			return WriteLayout(w, extraction.Pages)
		})
		if err != nil {
			return nil, &DocumentError{Path: path, Op: "write layout", Err: err}
		}
		rl.Step("saved layout", "text", layoutPath)
		outputs = append(outputs, layoutPath)
	}

	return outputs, nil
}
