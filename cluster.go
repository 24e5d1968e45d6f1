package cluster

import (
	"fmt"
	"sort"
)

// Mode selects the shape of a clustering result.
type Mode string

const (
	// ModeClusters returns the member indices of every cluster.
	ModeClusters Mode = "clusters"
	// ModeDominant returns one representative index per cluster
	// (Agglomerate only, fixed k).
	ModeDominant Mode = "dominant"
	// ModeComponents returns a per-point array of 1-based cluster ids.
	ModeComponents Mode = "components"
)

// Config controls clustering behavior for both engines.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// K is the number of clusters to form. K >= 1 fixes the cluster count;
	// K == 0 estimates it from data quality (a merge criterion in
	// Agglomerate, a split criterion in Optimize).
	K int

	// Mode selects the result shape. Default: ModeClusters.
	Mode Mode

	// Seed fixes the random stream used by Optimize, making repeated calls
	// on the same input byte-identical. 0 means the default seed (12345).
	// Agglomerate consumes no randomness and ignores Seed.
	Seed uint64

	// MergeLimit stops agglomerative merging once the next merge distance
	// exceeds this value, returning the best partition seen so far. Only
	// read by the automatic-k Dunn criterion. 0 means no limit.
	MergeLimit float64

	// NumLocal is the number of independent CLARANS local searches; the
	// lowest-cost result wins. Default: 2, per Ng and Han.
	NumLocal int

	// MaxNeighboursFloor is the lower clamp on the number of swap proposals
	// per CLARANS local search (max_neighbours =
	// clamp(0.0125*k*(n-k), floor, k*(n-k))). The literature uses 250
	// without justification, so it is configurable. Default: 250.
	MaxNeighboursFloor int

	// NewMergeCriterion builds the merge criterion for automatic-k
	// Agglomerate runs. nil means NewDunnMergeCriterion with MergeLimit.
	NewMergeCriterion func(matrix []float64, n int) MergeCriterion

	// NewSplitCriterion builds the split criterion for automatic-k Optimize
	// runs. nil means NewApproximateSilhouetteSplitCriterion.
	NewSplitCriterion func() SplitCriterion
}

// DefaultConfig returns a Config with reasonable defaults (automatic k,
// ModeClusters).
func DefaultConfig() Config {
	return Config{
		Mode:               ModeClusters,
		Seed:               12345,
		NumLocal:           2,
		MaxNeighboursFloor: 250,
	}
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = ModeClusters
	}
	if cfg.Seed == 0 {
		cfg.Seed = 12345
	}
	if cfg.NumLocal == 0 {
		cfg.NumLocal = 2
	}
	if cfg.MaxNeighboursFloor == 0 {
		cfg.MaxNeighboursFloor = 250
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if cfg.K < 0 {
		return fmt.Errorf("cluster: K must be >= 0 (0 means automatic), got %d", cfg.K)
	}
	switch cfg.Mode {
	case ModeClusters, ModeDominant, ModeComponents:
		// valid
	default:
		return fmt.Errorf("cluster: invalid Mode %q", cfg.Mode)
	}
	if cfg.NumLocal < 1 {
		return fmt.Errorf("cluster: NumLocal must be >= 1, got %d", cfg.NumLocal)
	}
	if cfg.MaxNeighboursFloor < 1 {
		return fmt.Errorf("cluster: MaxNeighboursFloor must be >= 1, got %d", cfg.MaxNeighboursFloor)
	}
	return nil
}

// Result contains the output of a clustering run. Clusters is always
// populated; Dominant and Components are populated for their respective
// modes only.
type Result struct {
	// Clusters holds the point indices of each cluster, ascending within a
	// cluster; clusters are ordered by their smallest member.
	Clusters [][]int

	// Dominant holds one representative point index per cluster, aligned
	// with Clusters (ModeDominant only).
	Dominant []int

	// Components maps every point index to the 1-based id of its cluster,
	// where ids follow the Clusters ordering (ModeComponents only).
	Components []int
}

// newResult normalizes raw cluster member lists into a Result: members are
// sorted ascending and clusters ordered by smallest member, so output is a
// function of the partition alone, not of merge or search order.
func newResult(clusters [][]int, n int, mode Mode) *Result {
	normalized := make([][]int, 0, len(clusters))
	for _, c := range clusters {
		if len(c) == 0 {
			continue
		}
		sorted := make([]int, len(c))
		copy(sorted, c)
		sort.Ints(sorted)
		normalized = append(normalized, sorted)
	}
	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i][0] < normalized[j][0]
	})

	r := &Result{Clusters: normalized}
	if mode == ModeComponents {
		r.Components = components(normalized, n)
	}
	return r
}

// components maps each of n points to the 1-based index of its cluster.
func components(clusters [][]int, n int) []int {
	out := make([]int, n)
	for i, c := range clusters {
		for _, j := range c {
			out[j] = i + 1
		}
	}
	return out
}
