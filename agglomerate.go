package cluster

import (
	"fmt"
	"sort"
)

// Agglomerate clusters n points bottom-up: starting from n singletons, the
// two closest clusters are merged repeatedly (single linkage) until cfg.K
// clusters remain, or, with cfg.K == 0, until the merge criterion stops the
// process, in which case the best partition it observed is returned.
//
// This is heap-based agglomeration as described by Kurita: every pairwise
// distance lives in an index-addressable min-heap, and a merge folds the
// two distances of every other cluster to the merged pair into their
// minimum with O(log n) heap updates. Runs in O(n^2 log n) time and O(n^2)
// memory, dictated by the full triangular distance matrix.
//
// The distance provider must support Matrix; lazy providers cannot be used
// here. Merge order depends only on the distance values and original
// indices: heap entries are totally ordered by (distance, pair id), so
// permuting the input only relabels the result.
func Agglomerate(n int, distances DistanceProvider, cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if cfg.Mode == ModeDominant && cfg.K == 0 {
		return nil, fmt.Errorf("cluster: ModeDominant requires a fixed K")
	}

	matrix, err := distances.Matrix()
	if err != nil {
		return nil, fmt.Errorf("cluster: agglomerate needs the full distance matrix: %w", err)
	}
	if want := n * (n - 1) / 2; len(matrix) != want {
		return nil, fmt.Errorf("cluster: distance matrix has %d entries, want %d for n=%d", len(matrix), want, n)
	}

	if n == 0 {
		return newResult(nil, 0, cfg.Mode), nil
	}

	var criterion MergeCriterion
	target := cfg.K
	if cfg.K == 0 {
		build := cfg.NewMergeCriterion
		if build == nil {
			limit := cfg.MergeLimit
			build = func(matrix []float64, n int) MergeCriterion {
				return NewDunnMergeCriterion(matrix, n, limit)
			}
		}
		criterion = build(matrix, n)
		target = 1
	}

	// lookup resolves a pair id back to its cluster pair (i, j), i > j. The
	// triangular index is sequential over this iteration order.
	lookup := make([][2]int, len(matrix))
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			lookup[PairIndex(i, j)] = [2]int{i, j}
		}
	}

	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}
	// dominant[i] is the representative of cluster i: on every merge the
	// representative of the larger side survives.
	dominant := make([]int, n)
	for i := range dominant {
		dominant[i] = i
	}

	h := newPairHeap(matrix)
	live := n

	for h.len() > 0 && live > target {
		top := h.min()
		i, j := lookup[top.id][0], lookup[top.id][1]
		if i > j {
			i, j = j, i // merge the later cluster into the earlier one
		}

		if criterion != nil && !criterion.SaveAndMerge(clusters, i, j, top.d) {
			break
		}

		h.remove(top.id)

		// Fold every other live cluster's two distances (to i and to j)
		// into a single single-linkage distance to the merged cluster.
		for r := 0; r < n; r++ {
			if r == i || r == j || clusters[r] == nil {
				continue
			}
			a := pairID(i, r)
			b := pairID(j, r)
			db := h.value(b)
			h.remove(b)
			if db < h.value(a) {
				h.update(a, db)
			}
		}

		if len(clusters[j]) > len(clusters[i]) {
			dominant[i] = dominant[j]
		}
		dominant[j] = -1

		clusters[i] = append(clusters[i], clusters[j]...)
		clusters[j] = nil
		live--
	}

	final := clusters
	if criterion != nil {
		if best := criterion.Best(clusters); best != nil {
			final = best
		}
	}

	result := newResult(final, n, cfg.Mode)
	if cfg.Mode == ModeDominant {
		result.Dominant = dominantRepresentatives(clusters, dominant, result.Clusters)
	}
	return result, nil
}

// pairID is the triangular matrix index of the unordered pair (a, b).
func pairID(a, b int) int {
	if a < b {
		a, b = b, a
	}
	return PairIndex(a, b)
}

// dominantRepresentatives aligns the per-slot representatives with the
// ordering of the normalized output clusters.
func dominantRepresentatives(clusters [][]int, dominant []int, ordered [][]int) []int {
	type entry struct {
		first, rep int
	}
	entries := make([]entry, 0, len(ordered))
	for i, members := range clusters {
		if members == nil {
			continue
		}
		first := members[0]
		for _, m := range members[1:] {
			if m < first {
				first = m
			}
		}
		entries = append(entries, entry{first: first, rep: dominant[i]})
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].first < entries[b].first })

	reps := make([]int, len(entries))
	for i, e := range entries {
		reps[i] = e.rep
	}
	return reps
}
