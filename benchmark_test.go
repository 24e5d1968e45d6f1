package cluster

import (
	"math"
	"testing"
)

func benchmarkPoints(n int) []float64 {
	points := make([]float64, n)
	for i := range points {
		// Two bands of points, enough structure for realistic merge orders.
		points[i] = float64((i*37)%97) + float64(i%2)*1000
	}
	return points
}

func BenchmarkAgglomerate(b *testing.B) {
	points := benchmarkPoints(200)
	d := Precompute(len(points), func(i, j int) float64 {
		return math.Abs(points[i] - points[j])
	})
	cfg := DefaultConfig()
	cfg.K = 4

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Agglomerate(len(points), d, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOptimize(b *testing.B) {
	points := benchmarkPoints(200)
	d := Precompute(len(points), func(i, j int) float64 {
		return math.Abs(points[i] - points[j])
	})
	cfg := DefaultConfig()
	cfg.K = 4

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Optimize(len(points), d, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPairHeap(b *testing.B) {
	n := 200
	matrix := make([]float64, n*(n-1)/2)
	for i := range matrix {
		matrix[i] = float64((i * 31) % 1009)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h := newPairHeap(matrix)
		for h.len() > 0 {
			h.remove(h.min().id)
		}
	}
}
