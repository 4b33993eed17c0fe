package util

import (
	"fmt"
	"math"
	"testing"
)

func TestHashStringSeed(t *testing.T) {
	if HashString("key", 1) == HashString("key", 2) {
		t.Error("Different seeds should give different hashes")
	}
	if HashString("key", 42) != HashString("key", 42) {
		t.Error("HashString must be deterministic")
	}
}

func TestShardIndexDistribution(t *testing.T) {
	const shards = 8
	seed := GenerateSeed()
	counts := make([]float64, shards)

	for i := 0; i < 10000; i++ {
		idx := ShardIndex(HashString(fmt.Sprintf("key-%d", i), seed), shards)
		if idx < 0 || idx >= shards {
			t.Fatalf("Shard index %d out of range", idx)
		}
		counts[idx]++
	}

	dist := NewDistributionStats(counts)
	if dist.Min == 0 {
		t.Errorf("Every shard should receive keys, got %v", counts)
	}
	if dist.DistributionQuality < 0.5 {
		t.Errorf("Distribution quality too low: %f (%v)", dist.DistributionQuality, counts)
	}
}

func TestNewStats(t *testing.T) {
	s := NewStats([]float64{4, 1, 3, 2})
	if s.Min != 1 || s.Max != 4 {
		t.Errorf("Expected min 1 and max 4, got %f and %f", s.Min, s.Max)
	}
	if s.Mean != 2.5 || s.Median != 2.5 {
		t.Errorf("Expected mean and median 2.5, got %f and %f", s.Mean, s.Median)
	}
	if math.Abs(s.StdDeviation-math.Sqrt(1.25)) > 1e-9 {
		t.Errorf("Unexpected standard deviation %f", s.StdDeviation)
	}
	if s.MinMaxRatio != 0.25 {
		t.Errorf("Expected min/max ratio 0.25, got %f", s.MinMaxRatio)
	}

	if empty := NewStats(nil); empty != (Stats{}) {
		t.Errorf("Expected zero stats for empty input, got %+v", empty)
	}

	even := NewDistributionStats([]float64{10, 10, 10})
	if even.DistributionQuality != 1 {
		t.Errorf("Perfectly even distribution should have quality 1, got %f", even.DistributionQuality)
	}
}
