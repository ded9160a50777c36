package util

import (
	"math"
	"testing"
)

func TestNewBalance(t *testing.T) {
	tests := []struct {
		name    string
		sizes   []int
		quality float64
	}{
		{"empty", nil, 1},
		{"no keys", []int{0, 0, 0}, 1},
		{"even", []int{4, 4, 4, 4}, 1},
		{"single shard", []int{8}, 1},
		{"all in one", []int{0, 0, 0, 12}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBalance(tt.sizes)
			if math.Abs(b.Quality-tt.quality) > 1e-9 {
				t.Errorf("quality = %v, want %v", b.Quality, tt.quality)
			}
		})
	}

	b := NewBalance([]int{2, 4, 6})
	if b.Min != 2 || b.Max != 6 || b.Mean != 4 {
		t.Errorf("unexpected balance %+v", b)
	}
	if b.Quality <= 0 || b.Quality >= 1 {
		t.Errorf("uneven shards must have a quality between 0 and 1, got %v", b.Quality)
	}
}
