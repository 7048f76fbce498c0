package orgstruct

import "sort"

// ClusterPositions groups x-coordinates into contiguous bands.
//
// The input is copied and sorted ascending. A new cluster starts whenever the
// distance to the previous coordinate exceeds gap; otherwise the coordinate
// extends the current cluster. The result partitions the sorted input and is
// nil when xs is empty.
func ClusterPositions(xs []float64, gap float64) []PositionCluster {
	if len(xs) == 0 {
		return nil
	}

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	var clusters []PositionCluster
	start := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] > gap {
			clusters = append(clusters, PositionCluster{Members: sorted[start:i:i]})
			start = i
		}
	}
	clusters = append(clusters, PositionCluster{Members: sorted[start:]})

	return clusters
}

// median returns the middle value of an ascending slice, or the mean of the two middle values
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
