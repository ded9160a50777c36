package util

import (
	"math"

	"github.com/samber/lo"
)

// Balance describes how evenly keys are spread over the shards of an engine
type Balance struct {
	Min     int     `json:"min"`
	Max     int     `json:"max"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Quality float64 `json:"quality"` // 1 = perfectly even, 0 = all keys in one shard
}

// NewBalance computes the balance of the given shard sizes. The quality
// averages (1 - coefficient of variation) and the min/max ratio. Empty
// engines count as perfectly balanced.
func NewBalance(sizes []int) Balance {
	if len(sizes) == 0 {
		return Balance{Quality: 1}
	}

	lowest, highest := lo.Min(sizes), lo.Max(sizes)
	mean := float64(lo.Sum(sizes)) / float64(len(sizes))

	var squares float64
	for _, s := range sizes {
		d := float64(s) - mean
		squares += d * d
	}
	stdDev := math.Sqrt(squares / float64(len(sizes)))

	if highest == 0 {
		return Balance{Quality: 1}
	}
	cv := stdDev / mean
	ratio := float64(lowest) / float64(highest)

	return Balance{
		Min:     lowest,
		Max:     highest,
		Mean:    mean,
		StdDev:  stdDev,
		Quality: (1-math.Min(1, cv))*0.5 + ratio*0.5,
	}
}
