// Package cluster partitions abstract points into clusters given only a
// pairwise distance function. No coordinate geometry is assumed: points are
// integer indices 0..n-1 into a sequence the caller owns, and the library
// only ever asks a DistanceProvider for d(i, j).
//
// Two complementary engines are provided. Agglomerate merges the two closest
// clusters repeatedly using a heap over the full pairwise distance matrix
// (single linkage, after Kurita). Optimize maintains k medoids and improves
// them by randomized local search (CLARANS, after Ng and Han), seeded with
// the sub-quadratic AGORAS estimator. Both engines run with a fixed cluster
// count k, or estimate k automatically from a quality criterion (Dunn index
// while merging, an approximate silhouette index while splitting).
//
// Basic usage with a fixed k:
//
//	d := cluster.Precompute(len(points), func(i, j int) float64 {
//		return math.Abs(points[i] - points[j])
//	})
//	cfg := cluster.DefaultConfig()
//	cfg.K = 2
//	result, err := cluster.Agglomerate(len(points), d, cfg)
//	// result.Clusters[c] holds the point indices of cluster c
//
// Automatic k via the built-in criteria:
//
//	cfg := cluster.DefaultConfig()
//	cfg.K = 0 // estimate k from the data
//	result, err := cluster.Optimize(len(points), d, cfg)
//
// Optimize is randomized but reproducible: the same Config.Seed, points and
// distances always produce the same clustering, and no global random state
// is read or written by either engine.
package cluster
