// Package orgstruct infers hierarchy levels of coded lines from their
// horizontal position on the page.
//
// Spans whose text starts with a four digit code are collected across the
// whole document, their x-coordinates are clustered into indentation bands,
// and each band is mapped to a level (A, 1, 2, 3) from left to right.
package orgstruct

import (
	"errors"
	"fmt"
	"sort"
)

const (
	// DefaultGapThreshold separates two indentation bands
	DefaultGapThreshold = 15.0

	// DefaultHalfWidth is the distance from a band median to its interval edges
	DefaultHalfWidth = 10.0
)

// Config controls clustering and thresholding
type Config struct {
	GapThreshold float64
	HalfWidth    float64
	Levels       []Level
}

// DefaultConfig returns the tuned defaults for indented code listings
func DefaultConfig() Config {
	levels := make([]Level, len(DefaultLevels))
	copy(levels, DefaultLevels)
	return Config{
		GapThreshold: DefaultGapThreshold,
		HalfWidth:    DefaultHalfWidth,
		Levels:       levels,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.GapThreshold <= 0 {
		return fmt.Errorf("gap threshold must be positive, got %g", c.GapThreshold)
	}
	if c.HalfWidth < 0 {
		return fmt.Errorf("half width cannot be negative, got %g", c.HalfWidth)
	}
	if len(c.Levels) == 0 {
		return errors.New("at least one level label is required")
	}
	seen := make(map[Level]bool, len(c.Levels))
	for _, l := range c.Levels {
		if l == LevelUnknown {
			return fmt.Errorf("%q cannot be used as a level label", LevelUnknown)
		}
		if seen[l] {
			return fmt.Errorf("duplicate level label %q", l)
		}
		seen[l] = true
	}
	return nil
}

// Inferencer assigns levels to coded spans
type Inferencer struct {
	config Config
}

// NewInferencer creates an inferencer with the default configuration
func NewInferencer() *Inferencer {
	return &Inferencer{config: DefaultConfig()}
}

// NewInferencerWithConfig creates an inferencer with a custom configuration
func NewInferencerWithConfig(config Config) (*Inferencer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inference config: %w", err)
	}
	return &Inferencer{config: config}, nil
}

// Config returns the configuration in use
func (inf *Inferencer) Config() Config {
	return inf.config
}

// Infer clusters the positions of all spans, labels each span and orders the
// result by page then code. An empty input yields an empty result.
func (inf *Inferencer) Infer(spans []CodedSpan) *Result {
	result := &Result{Items: []StructuredItem{}}
	if len(spans) == 0 {
		return result
	}

	xs := make([]float64, len(spans))
	for i, s := range spans {
		xs[i] = s.X
	}

	result.Clusters = ClusterPositions(xs, inf.config.GapThreshold)
	result.Thresholds = DeriveThresholds(result.Clusters, inf.config.HalfWidth, inf.config.Levels)
	result.Items = Label(spans, result.Thresholds)

	return result
}

// Label assigns a level to every span and sorts by (page, code)
func Label(spans []CodedSpan, thresholds Thresholds) []StructuredItem {
	items := make([]StructuredItem, len(spans))
	for i, s := range spans {
		items[i] = StructuredItem{
			Level:       thresholds.Classify(s.X),
			Code:        s.Code,
			Description: s.Description,
			XPosition:   s.X,
			Page:        s.Page,
		}
	}
	SortItems(items)
	return items
}

// SortItems orders items by page ascending, then by code compared as strings
func SortItems(items []StructuredItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Page != items[j].Page {
			return items[i].Page < items[j].Page
		}
		return items[i].Code < items[j].Code
	})
}
