package orgstruct

import (
	"math"
	"regexp"
	"strings"
)

// codePattern matches four ASCII digits, a run of ASCII or Unicode space
// separators (no-break and em spaces are common in extracted text), then the
// description
var codePattern = regexp.MustCompile(`^([0-9]{4})[\s\p{Z}]+(.*)`)

// SpanRecord is the minimal span view the collector needs
type SpanRecord struct {
	Text string
	X    float64
	Y    float64
	Page int
}

// Collector filters raw spans down to coded spans
type Collector struct {
	pattern *regexp.Regexp
}

// NewCollector creates a collector using the four digit code pattern
func NewCollector() *Collector {
	return &Collector{pattern: codePattern}
}

// Collect returns the coded spans in input order; non-matching spans are dropped
func (c *Collector) Collect(records []SpanRecord) []CodedSpan {
	var spans []CodedSpan
	for _, rec := range records {
		if span, ok := c.Match(rec); ok {
			spans = append(spans, span)
		}
	}
	return spans
}

// Match converts a single record into a coded span if its trimmed text carries a code
func (c *Collector) Match(rec SpanRecord) (CodedSpan, bool) {
	m := c.pattern.FindStringSubmatch(strings.TrimSpace(rec.Text))
	if m == nil {
		return CodedSpan{}, false
	}
	return CodedSpan{
		Code:        m[1],
		Description: m[2],
		X:           finiteOrZero(rec.X),
		Y:           finiteOrZero(rec.Y),
		Page:        rec.Page,
	}, true
}

// finiteOrZero substitutes zero for coordinates the extractor could not produce
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
