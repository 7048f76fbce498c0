package orgstruct

import (
	"fmt"
	"sort"
	"strings"
)

// Level is a hierarchy label inferred from horizontal position
type Level string

const (
	LevelAgency        Level = "A"
	LevelDepartment    Level = "1"
	LevelSubDepartment Level = "2"
	LevelUnit          Level = "3"

	// LevelUnknown is only produced when no thresholds exist
	LevelUnknown Level = "Unknown"
)

// DefaultLevels is the label order, leftmost indentation first
var DefaultLevels = []Level{LevelAgency, LevelDepartment, LevelSubDepartment, LevelUnit}

// Name returns the organizational role of the level
func (l Level) Name() string {
	switch l {
	case LevelAgency:
		return "agency"
	case LevelDepartment:
		return "department"
	case LevelSubDepartment:
		return "sub-department"
	case LevelUnit:
		return "unit"
	default:
		return "unknown"
	}
}

// Depth returns the zero-based nesting depth, or -1 for unknown levels
func (l Level) Depth() int {
	for i, lvl := range DefaultLevels {
		if lvl == l {
			return i
		}
	}
	return -1
}

// CodedSpan is a span whose text starts with a four digit code
type CodedSpan struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Page        int     `json:"page"`
}

// PositionCluster is a run of sorted x-coordinates with no gap above the threshold
type PositionCluster struct {
	Members []float64 `json:"members"`
}

// Min returns the smallest member
func (c PositionCluster) Min() float64 {
	return c.Members[0]
}

// Max returns the largest member
func (c PositionCluster) Max() float64 {
	return c.Members[len(c.Members)-1]
}

// Median returns the statistical median of the cluster members
func (c PositionCluster) Median() float64 {
	return median(c.Members)
}

// LevelThreshold is the inclusive coordinate interval that identifies one level
type LevelThreshold struct {
	Level  Level   `json:"level"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Contains reports whether x lies inside the interval, bounds included
func (t LevelThreshold) Contains(x float64) bool {
	return t.Min <= x && x <= t.Max
}

// String returns a compact representation such as "A:[31,51]"
func (t LevelThreshold) String() string {
	return fmt.Sprintf("%s:[%g,%g]", t.Level, t.Min, t.Max)
}

// StructuredItem is a labeled output record
type StructuredItem struct {
	Level       Level   `json:"level"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	XPosition   float64 `json:"x_position"`
	Page        int     `json:"page"`
}

// Result holds the outcome of level inference for one document
type Result struct {
	Items      []StructuredItem  `json:"items"`
	Clusters   []PositionCluster `json:"clusters"`
	Thresholds Thresholds        `json:"thresholds"`
}

// IsEmpty reports whether no coded spans were found
func (r *Result) IsEmpty() bool {
	return r == nil || len(r.Items) == 0
}

// LevelCounts returns the number of items per level
func (r *Result) LevelCounts() map[Level]int {
	counts := make(map[Level]int)
	if r == nil {
		return counts
	}
	for _, item := range r.Items {
		counts[item.Level]++
	}
	return counts
}

// HasUnknown reports whether any item could not be assigned a level
func (r *Result) HasUnknown() bool {
	return r.LevelCounts()[LevelUnknown] > 0
}

// LevelSummary renders the level counts with known levels by depth and
// unknown last, e.g. "A=2 1=5 Unknown=1"
func (r *Result) LevelSummary() string {
	counts := r.LevelCounts()
	levels := make([]Level, 0, len(counts))
	for lvl := range counts {
		levels = append(levels, lvl)
	}
	sort.Slice(levels, func(i, j int) bool {
		ri, rj := levels[i].rank(), levels[j].rank()
		if ri != rj {
			return ri < rj
		}
		return levels[i] < levels[j]
	})

	parts := make([]string, 0, len(levels))
	for _, lvl := range levels {
		parts = append(parts, fmt.Sprintf("%s=%d", lvl, counts[lvl]))
	}
	return strings.Join(parts, " ")
}

// rank orders known levels by depth and everything else after them
func (l Level) rank() int {
	if d := l.Depth(); d >= 0 {
		return d
	}
	return len(DefaultLevels)
}
