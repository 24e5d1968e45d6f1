package cluster

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// MergeCriterion decides, merge by merge, whether agglomeration should
// continue, and remembers the best partition seen so far. A criterion makes
// Agglomerate run without a predetermined k: merging continues until the
// criterion refuses (or the hierarchy collapses to one cluster), and the
// best-scored intermediate partition is the result.
type MergeCriterion interface {
	// SaveAndMerge is called before clusters i and j (the currently closest
	// pair, at distance d) are merged. clusters uses nil entries for
	// already-merged tombstones. Returning false stops agglomeration
	// immediately, without performing the merge.
	SaveAndMerge(clusters [][]int, i, j int, d float64) bool

	// Best returns the best partition observed across all SaveAndMerge
	// calls, or nil if none was recorded. clusters is the current partition,
	// for criteria that score nothing.
	Best(clusters [][]int) [][]int
}

// ratioBiggerThan reports whether a1/a2 > b1/b2, compared without floating
// division to avoid precision loss.
func ratioBiggerThan(a1, a2, b1, b2 float64) bool {
	return a1*b2 > b1*a2
}

// DunnMergeCriterion scores partitions by the Dunn index: the ratio of the
// minimum inter-cluster distance to the maximum intra-cluster diameter (see
// Desgraupes' clusterCrit survey). Diameters are maintained incrementally:
// a merged cluster's diameter is the maximum of the two prior diameters and
// the largest distance between the two clusters' members.
type DunnMergeCriterion struct {
	matrix      []float64
	diameters   []float64
	maxDiameter float64

	haveBest      bool
	bestDunn      [2]float64
	bestPartition [][]int

	mergeLimit float64
}

// NewDunnMergeCriterion creates a merge criterion over a flat
// lower-triangular distance matrix for n points. mergeLimit > 0 stops
// agglomeration outright once the next merge distance exceeds it; 0 means
// no limit.
func NewDunnMergeCriterion(matrix []float64, n int, mergeLimit float64) *DunnMergeCriterion {
	return &DunnMergeCriterion{
		matrix:     matrix,
		diameters:  make([]float64, n),
		mergeLimit: mergeLimit,
	}
}

func (c *DunnMergeCriterion) distance(x, y int) float64 {
	if x < y {
		x, y = y, x
	}
	return c.matrix[PairIndex(x, y)]
}

// SaveAndMerge snapshots the current partition when its Dunn index beats the
// best seen so far, then updates the diameter bookkeeping for the i/j merge.
func (c *DunnMergeCriterion) SaveAndMerge(clusters [][]int, i, j int, d float64) bool {
	if !c.haveBest || ratioBiggerThan(d, c.maxDiameter, c.bestDunn[0], c.bestDunn[1]) {
		best := make([][]int, 0, len(clusters))
		for _, members := range clusters {
			if members != nil {
				best = append(best, slices.Clone(members))
			}
		}
		c.bestPartition = best
		if c.maxDiameter > 0 {
			c.bestDunn = [2]float64{d, c.maxDiameter}
			c.haveBest = true
		}
	}

	if c.mergeLimit > 0 && d > c.mergeLimit {
		return false
	}

	var newDiameter float64
	for _, x := range clusters[i] {
		for _, y := range clusters[j] {
			if dxy := c.distance(x, y); dxy > newDiameter {
				newDiameter = dxy
			}
		}
	}
	c.diameters[i] = math.Max(math.Max(c.diameters[i], c.diameters[j]), newDiameter)
	c.maxDiameter = math.Max(c.maxDiameter, c.diameters[i])

	return true
}

// Best returns the partition with the highest Dunn index seen so far.
func (c *DunnMergeCriterion) Best(clusters [][]int) [][]int {
	return c.bestPartition
}

// SplitCriterion decides whether a proposed binary split of a cluster
// improves the clustering. Criterion state is immutable: an accepted split
// returns a fresh criterion carrying the new best score, so callers can
// probe splits and discard rejected ones cheaply.
type SplitCriterion interface {
	// ShouldSplit scores the configuration of siblings (already-accepted
	// clusters elsewhere in the recursion) plus unmerged (the two proposed
	// children of merged). It returns whether the split should be kept and,
	// if so, the criterion state for recursing into the children.
	//
	// As this runs inside an O(n) splitting recursion it must not introduce
	// O(n^2) work.
	ShouldSplit(siblings []*MedoidCluster, merged *MedoidCluster, unmerged []*MedoidCluster, distance DistanceFunc) (bool, SplitCriterion)
}

// silhouette is the standard silhouette ratio (b-a)/max(a,b) (see
// Desgraupes). A singleton cluster has no within distance; aOK == false
// makes it contribute 0. ok == false signals an unscorable configuration
// (two clusters at distance zero).
func silhouette(a float64, aOK bool, b float64) (s float64, ok bool) {
	if !aOK {
		return 0, true
	}
	m := math.Max(a, b)
	if m == 0 {
		return 0, false
	}
	return (b - a) / m, true
}

// ApproximateSilhouetteSplitCriterion scores splits with a fast approximate
// global silhouette index that uses only medoid-to-member and
// medoid-to-medoid distances, reducing the cost to O(nk) from the exact
// index's O(n^2). A split is accepted when the global index strictly
// improves on the best previous score.
type ApproximateSilhouetteSplitCriterion struct {
	last   float64
	scored bool
}

// NewApproximateSilhouetteSplitCriterion returns a fresh criterion with no
// score recorded, so the first proposed split is accepted on any scorable
// configuration.
func NewApproximateSilhouetteSplitCriterion() *ApproximateSilhouetteSplitCriterion {
	return &ApproximateSilhouetteSplitCriterion{}
}

func (c *ApproximateSilhouetteSplitCriterion) ShouldSplit(siblings []*MedoidCluster, merged *MedoidCluster, unmerged []*MedoidCluster, distance DistanceFunc) (bool, SplitCriterion) {
	all := make([]*MedoidCluster, 0, len(siblings)+len(unmerged))
	all = append(all, siblings...)
	all = append(all, unmerged...)

	score, ok := approximateGlobalSilhouette(all, distance)
	if !ok {
		// Zero distance between two clusters; the configuration cannot be
		// scored, so the split is declined.
		return false, nil
	}

	// A higher index means more clusters sit in the right places than
	// before, so the split is kept.
	if !c.scored || score > c.last {
		return true, &ApproximateSilhouetteSplitCriterion{last: score, scored: true}
	}
	return false, nil
}

// approximateGlobalSilhouette is the mean over clusters of the medoid-based
// silhouette width: a is the cluster's mean member-to-medoid distance, b the
// minimum distance from its medoid to any other cluster's medoid. ok ==
// false reports an unscorable configuration.
func approximateGlobalSilhouette(clusters []*MedoidCluster, distance DistanceFunc) (score float64, ok bool) {
	if len(clusters) <= 1 {
		return -1, true
	}

	widths := make([]float64, 0, len(clusters))
	for i, c := range clusters {
		sum, n := c.Within(distance)
		var a float64
		aOK := n > 1
		if aOK {
			a = sum / float64(n-1)
		}

		b := math.Inf(1)
		for j, other := range clusters {
			if j == i {
				continue
			}
			if d := distance(c.Medoid, other.Medoid); d < b {
				b = d
			}
		}

		w, ok := silhouette(a, aOK, b)
		if !ok {
			return 0, false
		}
		widths = append(widths, w)
	}

	return floats.Sum(widths) / float64(len(clusters)), true
}
