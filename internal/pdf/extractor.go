package pdf

import (
	"context"
	"os"

	"github.com/a3tai/pdf-orgstruct/internal/orgstruct"
	"github.com/a3tai/pdf-orgstruct/internal/pdf/wrapper"
)

// OrgExtractor walks a document once, collects coded spans and infers their levels
type OrgExtractor struct {
	source     wrapper.SpanSource
	collector  *orgstruct.Collector
	inferencer *orgstruct.Inferencer
	cache      *DocumentCache
}

// NewOrgExtractor creates an extractor over the given span source
func NewOrgExtractor(source wrapper.SpanSource, inferencer *orgstruct.Inferencer) *OrgExtractor {
	if inferencer == nil {
		inferencer = orgstruct.NewInferencer()
	}
	return &OrgExtractor{
		source:     source,
		collector:  orgstruct.NewCollector(),
		inferencer: inferencer,
	}
}

// Inferencer returns the inferencer in use
func (e *OrgExtractor) Inferencer() *orgstruct.Inferencer {
	return e.inferencer
}

// UseCache makes ReadDocument serve unchanged files from c; nil disables caching
func (e *OrgExtractor) UseCache(c *DocumentCache) {
	e.cache = c
}

// ReadDocument opens the file and returns every page with the coded spans found on it.
// Any page failure aborts the whole document.
func (e *OrgExtractor) ReadDocument(ctx context.Context, path string) (*DocumentExtraction, error) {
	info, statErr := os.Stat(path)
	if statErr == nil {
		if cached, ok := e.cache.Get(path, info); ok {
			return cached, nil
		}
	}

	extraction, err := e.readPages(ctx, path)
	if err != nil {
		return nil, err
	}
	if statErr == nil {
		e.cache.Put(path, info, extraction)
	}
	return extraction, nil
}

func (e *OrgExtractor) readPages(ctx context.Context, path string) (*DocumentExtraction, error) {
	doc, err := e.source.OpenFile(path)
	if err != nil {
		return nil, &DocumentError{Path: path, Op: "open", Err: err}
	}
	defer doc.Close()

	extraction := &DocumentExtraction{Path: path}
	for pageNum := 1; pageNum <= doc.PageCount(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, &DocumentError{Path: path, Op: "read", Err: err}
		}

		page, err := doc.Page(pageNum)
		if err != nil {
			return nil, &DocumentError{Path: path, Op: "read", Err: err}
		}

		extraction.Pages = append(extraction.Pages, page)
		extraction.Spans = append(extraction.Spans, e.collector.Collect(SpanRecords(page))...)
	}

	return extraction, nil
}

// Extract reads the document and labels its coded spans.
// A document without coded spans yields an empty result, not an error.
func (e *OrgExtractor) Extract(ctx context.Context, path string) (*OrgExtractResult, *DocumentExtraction, error) {
	extraction, err := e.ReadDocument(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	result := e.inferencer.Infer(extraction.Spans)
	return &OrgExtractResult{
		Path:      path,
		Pages:     len(extraction.Pages),
		SpanCount: len(extraction.Spans),
		Result:    result,
		Hierarchy: orgstruct.Walk(result.Items),
	}, extraction, nil
}

// SpanRecords flattens a page in block, line, span order
func SpanRecords(page *wrapper.Page) []orgstruct.SpanRecord {
	if page == nil {
		return nil
	}
	records := make([]orgstruct.SpanRecord, 0, page.SpanCount())
	for _, block := range page.Blocks {
		for _, line := range block.Lines {
			for _, span := range line.Spans {
				records = append(records, orgstruct.SpanRecord{
					Text: span.Text,
					X:    span.Origin.X,
					Y:    span.Origin.Y,
					Page: page.Number,
				})
			}
		}
	}
	return records
}
