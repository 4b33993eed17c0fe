package util

import (
	"math"
	"sort"
)

// ----------------------------------------------------------------------------
// Summary statistics
// ----------------------------------------------------------------------------

type Stats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes summary statistics over values.
// The input slice is not modified.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var sumSquaredDiffs float64
	for _, v := range sorted {
		diff := v - mean
		sumSquaredDiffs += diff * diff
	}

	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	min, max := sorted[0], sorted[len(sorted)-1]
	minMaxRatio := 1.0
	if max > 0 {
		minMaxRatio = min / max
	}

	return Stats{
		StdDeviation: math.Sqrt(sumSquaredDiffs / float64(len(sorted))),
		Min:          min,
		Max:          max,
		Mean:         mean,
		Median:       median,
		MinMaxRatio:  minMaxRatio,
	}
}

// ----------------------------------------------------------------------------
// Shard distribution
// ----------------------------------------------------------------------------

type DistributionStats struct {
	Stats
	DistributionQuality float64 `json:"distribution_quality"`
}

// NewDistributionStats rates how evenly keys are spread over shards.
// A quality of 1 means all shards hold the same number of keys.
func NewDistributionStats(shardSizes []float64) DistributionStats {
	stats := NewStats(shardSizes)

	// coefficient of variation
	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	// lower cv and higher min/max ratio -> better distribution
	quality := (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5

	return DistributionStats{
		Stats:               stats,
		DistributionQuality: quality,
	}
}
