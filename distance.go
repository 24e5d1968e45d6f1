package cluster

import (
	"errors"
	"math/rand/v2"
)

// ErrNoMatrix is returned by Matrix on providers that compute distances on
// demand and never hold the full pairwise table.
var ErrNoMatrix = errors.New("cluster: distance provider does not support Matrix")

// PairIndex maps an unordered point pair to its slot in a flat
// lower-triangular distance matrix. It requires i > j:
//
//	x x x
//	a x x
//	b c x
//
// a = PairIndex(1, 0) = 0, b = PairIndex(2, 0) = 1, c = PairIndex(2, 1) = 2.
func PairIndex(i, j int) int {
	return j + (i-1)*i/2
}

// DistanceProvider supplies pairwise distances between points identified by
// index. Distance must be symmetric and non-negative; it is never called
// with i == j. Matrix returns the flat lower-triangular table of all
// pairwise distances, indexed by PairIndex, or ErrNoMatrix if the provider
// cannot materialize it.
type DistanceProvider interface {
	Distance(i, j int) float64
	Matrix() ([]float64, error)
}

// PrecomputedDistances is a DistanceProvider backed by a complete
// lower-triangular distance matrix.
type PrecomputedDistances struct {
	matrix []float64
}

// NewPrecomputedDistances wraps a flat lower-triangular matrix indexed by
// PairIndex. For n points the matrix has n*(n-1)/2 entries.
func NewPrecomputedDistances(matrix []float64) *PrecomputedDistances {
	return &PrecomputedDistances{matrix: matrix}
}

// Precompute evaluates f once per unordered pair of 0..n-1 and returns a
// provider over the resulting matrix. f must be symmetric; it is only ever
// called with i > j.
func Precompute(n int, f func(i, j int) float64) *PrecomputedDistances {
	matrix := make([]float64, n*(n-1)/2)
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			matrix[PairIndex(i, j)] = f(i, j)
		}
	}
	return &PrecomputedDistances{matrix: matrix}
}

func (p *PrecomputedDistances) Distance(i, j int) float64 {
	if i < j {
		i, j = j, i
	}
	return p.matrix[PairIndex(i, j)]
}

func (p *PrecomputedDistances) Matrix() ([]float64, error) {
	return p.matrix, nil
}

// LazyDistances is a DistanceProvider that computes each distance on first
// request and caches it. The compute callback receives a private random
// source owned by the provider, so any randomness it consumes (approximate
// or sampled metrics) cannot perturb the random stream of the clustering
// algorithm that triggered the computation.
type LazyDistances struct {
	computed map[int]float64
	compute  func(i, j int, rng *rand.Rand) float64
	rng      *rand.Rand
}

// NewLazyDistances returns a caching provider around compute. seed fixes the
// random source handed to compute, keeping lazily computed distances
// reproducible across calls.
func NewLazyDistances(compute func(i, j int, rng *rand.Rand) float64, seed uint64) *LazyDistances {
	return &LazyDistances{
		computed: make(map[int]float64),
		compute:  compute,
		rng:      rand.New(rand.NewPCG(seed, seed)),
	}
}

func (l *LazyDistances) Distance(i, j int) float64 {
	if i < j {
		i, j = j, i
	}
	index := PairIndex(i, j)
	d, ok := l.computed[index]
	if !ok {
		d = l.compute(i, j, l.rng)
		l.computed[index] = d
	}
	return d
}

// Matrix always fails: a lazy provider never holds the full table.
func (l *LazyDistances) Matrix() ([]float64, error) {
	return nil, ErrNoMatrix
}
