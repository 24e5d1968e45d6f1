package cluster

import (
	"math"
	"math/rand/v2"
)

// DistanceFunc is a plain pairwise distance over point indices. It must be
// symmetric and non-negative and is never called with i == j.
type DistanceFunc func(i, j int) float64

// eulerGamma is the Euler-Mascheroni constant, used by the AGORAS sample
// sizing formulas.
const eulerGamma = 0.577215664901532

// sampleIndices draws k distinct indices uniformly from [0, n) without
// materializing the range.
func sampleIndices(n, k int, rng *rand.Rand) []int {
	out := make([]int, 0, k)
	sr := newShuffledRange(n, rng)
	for len(out) < k {
		v, ok := sr.Next()
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

// unmapped maps each index in u to its closest index in v and returns the
// subset of v that was mapped by at least one element of u, preserving v's
// order. Elements of v matched by nobody are discarded.
func unmapped(u, v []int, distance DistanceFunc) []int {
	mapped := make([]bool, len(v))
	for _, uu := range u {
		minI := -1
		var minD float64
		for i, vv := range v {
			var d float64
			if uu != vv {
				d = distance(uu, vv)
			}
			if minI < 0 || d < minD {
				minD = d
				minI = i
			}
		}
		if minI >= 0 {
			mapped[minI] = true
		}
	}

	kept := make([]int, 0, len(v))
	for i, m := range mapped {
		if m {
			kept = append(kept, v[i])
		}
	}
	return kept
}

// agoras estimates k well-separated medoid indices out of [0, n) in
// sub-quadratic expected time, per Rangel et al. It repeatedly draws m
// sample batches of size r and chains unmapped reductions through them;
// r grows when a reduction falls short of k and shrinks by 5% when the
// final sample overshoots, until the final reduced sample has exactly k
// elements. Requires k >= 2 and k <= n.
func agoras(n, k int, distance DistanceFunc, rng *rand.Rand) []int {
	kf := float64(k)
	m := int(math.Ceil(kf * (math.Log(kf) + eulerGamma)))
	r := kf*math.Log(kf) + eulerGamma*kf

	if r > float64(n) {
		// k (and thus r) is large relative to n; AGORAS's refinement is
		// slower than plain uniform sampling at this scale.
		return sampleIndices(n, k, rng)
	}

	for {
		s := make([][]int, m)
		for b := range s {
			s[b] = sampleIndices(n, min(int(r), n), rng)
		}

		for i := 0; i+1 < m; i++ {
			s[i+1] = unmapped(s[i], s[i+1], distance)
			if len(s[i+1]) < k {
				// Reduction fell short: grow r proportionally to the
				// remaining batches and redraw.
				r += r * float64(m-i-1) / float64(m)
				break
			}
		}

		if len(s[m-1]) > k {
			r *= 0.95
		} else if len(s[m-1]) == k {
			return s[m-1]
		}
	}
}
