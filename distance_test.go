package cluster

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairIndex(t *testing.T) {
	tests := []struct {
		i, j, want int
	}{
		{1, 0, 0},
		{2, 0, 1},
		{2, 1, 2},
		{3, 0, 3},
		{3, 2, 5},
		{4, 0, 6},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, PairIndex(tc.i, tc.j), "PairIndex(%d, %d)", tc.i, tc.j)
	}
}

func TestPairIndexSequential(t *testing.T) {
	// Iterating i ascending, j < i ascending must walk the flat matrix in
	// order: the agglomerative engine's pair lookup relies on it.
	n := 10
	next := 0
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			require.Equal(t, next, PairIndex(i, j))
			next++
		}
	}
	require.Equal(t, n*(n-1)/2, next)
}

func TestPrecompute(t *testing.T) {
	points := []float64{0, 1, 2, 10}
	d := Precompute(len(points), func(i, j int) float64 {
		return math.Abs(points[i] - points[j])
	})

	assert.Equal(t, 2.0, d.Distance(0, 2))
	assert.Equal(t, 2.0, d.Distance(2, 0), "Distance must be symmetric")
	assert.Equal(t, 9.0, d.Distance(1, 3))

	matrix, err := d.Matrix()
	require.NoError(t, err)
	assert.Len(t, matrix, 6)
	assert.Equal(t, 1.0, matrix[PairIndex(1, 0)])
	assert.Equal(t, 8.0, matrix[PairIndex(3, 2)])
}

func TestLazyDistancesComputesOncePerPair(t *testing.T) {
	calls := map[int]int{}
	d := NewLazyDistances(func(i, j int, rng *rand.Rand) float64 {
		calls[PairIndex(i, j)]++
		return float64(i + j)
	}, 1)

	assert.Equal(t, 3.0, d.Distance(1, 2))
	assert.Equal(t, 3.0, d.Distance(2, 1))
	assert.Equal(t, 3.0, d.Distance(1, 2))
	assert.Equal(t, 1, calls[PairIndex(2, 1)], "distance computed more than once")
}

func TestLazyDistancesNoMatrix(t *testing.T) {
	d := NewLazyDistances(func(i, j int, rng *rand.Rand) float64 { return 1 }, 1)
	_, err := d.Matrix()
	require.ErrorIs(t, err, ErrNoMatrix)
}

func TestLazyDistancesRandomnessIsReproducible(t *testing.T) {
	// Two providers with the same seed must produce the same values even
	// when the compute callback is randomized.
	compute := func(i, j int, rng *rand.Rand) float64 {
		return rng.Float64() + float64(i+j)
	}
	a := NewLazyDistances(compute, 99)
	b := NewLazyDistances(compute, 99)

	for i := 1; i < 5; i++ {
		for j := 0; j < i; j++ {
			require.Equal(t, a.Distance(i, j), b.Distance(i, j))
		}
	}
}
