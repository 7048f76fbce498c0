package orgstruct

import (
	"math"
	"sort"
	"strings"
)

// Thresholds is the ordered set of level intervals for one document
type Thresholds []LevelThreshold

// DeriveThresholds assigns labels to clusters by ascending median.
//
// The smallest median receives labels[0], the next labels[1], and so on.
// Clusters beyond len(labels) receive no threshold. Each interval is
// [median-halfWidth, median+halfWidth].
func DeriveThresholds(clusters []PositionCluster, halfWidth float64, labels []Level) Thresholds {
	medians := make([]float64, 0, len(clusters))
	for _, c := range clusters {
		if len(c.Members) == 0 {
			continue
		}
		medians = append(medians, c.Median())
	}
	sort.Float64s(medians)

	thresholds := make(Thresholds, 0, len(labels))
	for i, m := range medians {
		if i >= len(labels) {
			break
		}
		thresholds = append(thresholds, LevelThreshold{
			Level:  labels[i],
			Median: m,
			Min:    m - halfWidth,
			Max:    m + halfWidth,
		})
	}
	return thresholds
}

// Classify returns the level for x.
//
// Intervals are tested in label order and the first containing x wins, even
// when a later interval is closer. Otherwise the level whose nearest endpoint
// is closest to x is used, with ties going to the earlier label. LevelUnknown
// is returned only when there are no thresholds.
func (t Thresholds) Classify(x float64) Level {
	for _, th := range t {
		if th.Contains(x) {
			return th.Level
		}
	}
	return t.nearest(x)
}

func (t Thresholds) nearest(x float64) Level {
	best := LevelUnknown
	bestDist := math.Inf(1)
	for _, th := range t {
		d := math.Min(math.Abs(x-th.Min), math.Abs(x-th.Max))
		if d < bestDist {
			best = th.Level
			bestDist = d
		}
	}
	return best
}

// String joins the thresholds, e.g. "A:[31,51] 1:[120,140]"
func (t Thresholds) String() string {
	parts := make([]string, len(t))
	for i, th := range t {
		parts[i] = th.String()
	}
	return strings.Join(parts, " ")
}
