package cluster

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeKOneShortCircuits(t *testing.T) {
	// K == 1 must not touch the distance provider at all.
	d := NewLazyDistances(func(i, j int, rng *rand.Rand) float64 {
		t.Fatal("distance must not be computed for K == 1")
		return 0
	}, 1)

	cfg := DefaultConfig()
	cfg.K = 1
	result, err := Optimize(5, d, cfg)
	require.NoError(t, err)
	require.Len(t, result.Clusters, 1)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, result.Clusters[0])
}

func TestOptimizeTwoGroups(t *testing.T) {
	points := []float64{0, 1, 2, 10, 11, 12}
	cfg := DefaultConfig()
	cfg.K = 2

	result, err := Optimize(len(points), linePrecomputed(points), cfg)
	require.NoError(t, err)
	require.Len(t, result.Clusters, 2)
	assert.Equal(t, []int{0, 1, 2}, result.Clusters[0])
	assert.Equal(t, []int{3, 4, 5}, result.Clusters[1])
}

func TestOptimizeDeterministic(t *testing.T) {
	points := make([]float64, 30)
	for i := range points {
		points[i] = float64((i*17 + 3) % 53)
	}
	d := linePrecomputed(points)

	cfg := DefaultConfig()
	cfg.K = 4
	cfg.Seed = 7

	a, err := Optimize(len(points), d, cfg)
	require.NoError(t, err)
	b, err := Optimize(len(points), d, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed must be byte-identical")
}

func TestOptimizePartitionInvariant(t *testing.T) {
	points := make([]float64, 25)
	for i := range points {
		points[i] = float64((i * i) % 41)
	}
	cfg := DefaultConfig()
	cfg.K = 5
	cfg.Mode = ModeComponents

	result, err := Optimize(len(points), linePrecomputed(points), cfg)
	require.NoError(t, err)
	require.Len(t, result.Components, len(points))

	seen := map[int]int{}
	for _, c := range result.Clusters {
		for _, i := range c {
			seen[i]++
		}
	}
	for i := range points {
		require.Equal(t, 1, seen[i], "point %d must appear exactly once", i)
		assert.NotZero(t, result.Components[i])
	}
}

func TestOptimizeAutomaticK(t *testing.T) {
	// Two well-separated four-point groups: recursive splitting with the
	// silhouette criterion must stop at exactly two clusters.
	points := []float64{1, 2, 3, 4, 100, 101, 102, 103}
	cfg := DefaultConfig()
	cfg.K = 0

	result, err := Optimize(len(points), linePrecomputed(points), cfg)
	require.NoError(t, err)
	require.Len(t, result.Clusters, 2)
	assert.Equal(t, []int{0, 1, 2, 3}, result.Clusters[0])
	assert.Equal(t, []int{4, 5, 6, 7}, result.Clusters[1])
}

func TestOptimizeWorksWithLazyDistances(t *testing.T) {
	points := []float64{0, 1, 2, 10, 11, 12}
	lazy := NewLazyDistances(func(i, j int, rng *rand.Rand) float64 {
		return math.Abs(points[i] - points[j])
	}, 1)

	cfg := DefaultConfig()
	cfg.K = 2
	result, err := Optimize(len(points), lazy, cfg)
	require.NoError(t, err)
	require.Len(t, result.Clusters, 2)
	assert.Equal(t, []int{0, 1, 2}, result.Clusters[0])
}

func TestOptimizeErrors(t *testing.T) {
	points := []float64{0, 1, 2}
	d := linePrecomputed(points)

	tests := []struct {
		name string
		cfg  func(*Config)
	}{
		{"negative k", func(c *Config) { c.K = -2 }},
		{"k exceeds n", func(c *Config) { c.K = 4 }},
		{"dominant unsupported", func(c *Config) { c.K = 2; c.Mode = ModeDominant }},
		{"invalid mode", func(c *Config) { c.K = 2; c.Mode = "nope" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.cfg(&cfg)
			_, err := Optimize(len(points), d, cfg)
			require.Error(t, err)
		})
	}
}

func TestOptimizeEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.K = 0
	result, err := Optimize(0, NewPrecomputedDistances(nil), cfg)
	require.NoError(t, err)
	assert.Empty(t, result.Clusters)
}

func TestMedoidsCostMonotonicUnderSwaps(t *testing.T) {
	points := make([]float64, 24)
	for i := range points {
		points[i] = float64((i*13 + 5) % 31)
	}
	d := lineDistance(points)
	rng := rand.New(rand.NewPCG(9, 9))

	m := newMedoids(len(points), 3, d, rng)
	require.InDelta(t, directCost(m, d), m.cost, 1e-9)

	cost := m.cost
	for range 200 {
		accepted := m.swap()
		if accepted {
			require.Less(t, m.cost, cost, "accepted swap must strictly lower cost")
			require.InDelta(t, directCost(m, d), m.cost, 1e-9,
				"incremental cost bookkeeping diverged from direct recomputation")
			cost = m.cost
		} else {
			require.Equal(t, cost, m.cost, "rejected swap must not change cost")
		}
	}
}

// directCost recomputes the total cost from scratch: the sum over non-medoid
// points of the distance to their nearest medoid.
func directCost(m *medoids, d DistanceFunc) float64 {
	var total float64
	for j := range m.unselected() {
		best := math.Inf(1)
		for _, i := range m.selected {
			if v := d(i, j); v < best {
				best = v
			}
		}
		total += best
	}
	return total
}

func TestMedoidsAssignmentInvariant(t *testing.T) {
	// After any accepted swap, every non-medoid point's recorded nearest
	// and second-nearest must both be current medoids, and distinct.
	points := make([]float64, 20)
	for i := range points {
		points[i] = float64((i*7 + 2) % 23)
	}
	d := lineDistance(points)
	rng := rand.New(rand.NewPCG(4, 4))

	m := newMedoids(len(points), 4, d, rng)
	for range 100 {
		m.swap()
		inSet := map[int]bool{}
		for _, s := range m.selected {
			inSet[s] = true
		}
		for j := range m.unselected() {
			n1, n2 := m.assign[j][0], m.assign[j][1]
			require.NotEqual(t, n1, n2)
			require.True(t, inSet[n1], "nearest medoid %d of %d left the set", n1, j)
			require.True(t, inSet[n2], "second medoid %d of %d left the set", n2, j)
		}
	}
}
