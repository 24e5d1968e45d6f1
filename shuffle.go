package cluster

import "math/rand/v2"

// shuffledRange yields every value in [0, n) exactly once, in uniformly
// random order. It is a Fisher-Yates shuffle over a sparse override map
// instead of a materialized array, so drawing only k values costs O(k)
// memory and time. Iterators are consumed once and cannot be restarted.
type shuffledRange struct {
	n, next  int
	override map[int]int
	rng      *rand.Rand
}

func newShuffledRange(n int, rng *rand.Rand) *shuffledRange {
	return &shuffledRange{n: n, override: make(map[int]int), rng: rng}
}

// nth is the current logical content of slot k: its override if one was
// recorded by an earlier swap, otherwise k itself.
func (s *shuffledRange) nth(k int) int {
	if v, ok := s.override[k]; ok {
		return v
	}
	return k
}

// Next returns the next value of the permutation, or ok == false once all n
// values have been produced.
func (s *shuffledRange) Next() (value int, ok bool) {
	if s.next >= s.n {
		return 0, false
	}
	i := s.next
	s.next++

	if i == s.n-1 {
		return s.nth(i), true
	}

	ai := s.nth(i)
	j := i + s.rng.IntN(s.n-i)
	aj := s.nth(j)
	s.override[j] = ai
	return aj, true
}

// shuffledTuples yields every tuple in the Cartesian product of the ranges
// [0, dims[0]) x [0, dims[1]) x ... exactly once, in uniformly random order.
// It draws flat indices from a shuffledRange over the product size and
// decodes them mixed-radix, keeping the same sparse memory profile.
type shuffledTuples struct {
	dims    []int
	indices *shuffledRange
}

func newShuffledTuples(rng *rand.Rand, dims ...int) *shuffledTuples {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return &shuffledTuples{dims: dims, indices: newShuffledRange(n, rng)}
}

// Next returns the next tuple of the permutation, or ok == false once the
// product space is exhausted.
func (s *shuffledTuples) Next() (tuple []int, ok bool) {
	v, ok := s.indices.Next()
	if !ok {
		return nil, false
	}
	tuple = make([]int, len(s.dims))
	for i, d := range s.dims {
		tuple[i] = v % d
		v /= d
	}
	return tuple, true
}
