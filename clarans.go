package cluster

import (
	"fmt"
	"iter"
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// MedoidCluster is a partitional cluster: a distinguished medoid index and
// the ordered set of member indices, medoid included. It is the unit the
// split criteria score.
type MedoidCluster struct {
	Medoid  int
	Members []int

	withinSum float64
	withinN   int
	withinOK  bool
}

// Within returns the sum of member-to-medoid distances and the member
// count. The value is cached after the first computation; clusters are
// materialized fresh whenever membership changes, so the cache never goes
// stale.
func (c *MedoidCluster) Within(distance DistanceFunc) (sum float64, n int) {
	if !c.withinOK {
		ds := make([]float64, 0, len(c.Members))
		for _, i := range c.Members {
			if i != c.Medoid {
				ds = append(ds, distance(i, c.Medoid))
			}
		}
		c.withinSum = floats.Sum(ds)
		c.withinN = len(c.Members)
		c.withinOK = true
	}
	return c.withinSum, c.withinN
}

// translate maps the cluster's local indices to global ones.
func (c *MedoidCluster) translate(iToI0 []int) *MedoidCluster {
	members := make([]int, len(c.Members))
	for i, m := range c.Members {
		members[i] = iToI0[m]
	}
	return &MedoidCluster{Medoid: iToI0[c.Medoid], Members: members}
}

// medoids is the mutable state of one CLARANS local search: the sorted
// medoid set, the per-point (nearest, second-nearest) medoid assignment,
// the running total cost, and the stream of not-yet-tried swap proposals.
type medoids struct {
	n, k     int
	distance DistanceFunc
	rng      *rand.Rand

	selected []int    // sorted
	assign   [][2]int // per non-medoid point: nearest, second-nearest medoid
	cost     float64

	swaps *shuffledTuples
}

func newMedoids(n, k int, distance DistanceFunc, rng *rand.Rand) *medoids {
	m := &medoids{
		n:        n,
		k:        k,
		distance: distance,
		rng:      rng,
		assign:   make([][2]int, n),
	}
	m.resetRandomSwap()

	m.selected = agoras(n, k, distance, rng)
	sort.Ints(m.selected)

	m.cost = floats.Sum(m.updateAssignments(m.unselected()))
	return m
}

// unselected iterates the non-medoid points in ascending order.
func (m *medoids) unselected() iter.Seq[int] {
	return func(yield func(int) bool) {
		k := 0
		for i := 0; i < m.n; i++ {
			if k < len(m.selected) && m.selected[k] == i {
				k++
				continue
			}
			if !yield(i) {
				return
			}
		}
	}
}

// resetRandomSwap restarts the swap proposal stream. Called after every
// accepted swap: the medoid set changed, so previously exhausted proposals
// become worth trying again.
func (m *medoids) resetRandomSwap() {
	m.swaps = newShuffledTuples(m.rng, m.k, m.n-m.k)
}

// nextRandomSwap produces the next untried (medoid, non-medoid) proposal,
// or ok == false when every swap has been tried since the last accept. The
// non-medoid ordinal is mapped over the current medoid set to a point index.
func (m *medoids) nextRandomSwap() (i, h int, ok bool) {
	t, ok := m.swaps.Next()
	if !ok {
		return 0, 0, false
	}
	ni, h := t[0], t[1]
	for _, j := range m.selected {
		if h >= j {
			h++
		}
	}
	return m.selected[ni], h, true
}

// updateAssignments recomputes, for each given point, its nearest and
// second-nearest medoid (ties broken towards the smaller medoid index) and
// returns the nearest distances.
func (m *medoids) updateAssignments(points iter.Seq[int]) []float64 {
	var nearest []float64
	for j := range points {
		d1, i1 := math.Inf(1), -1
		d2, i2 := math.Inf(1), -1
		for _, i := range m.selected {
			d := m.distance(i, j)
			switch {
			case d < d1:
				d2, i2 = d1, i1
				d1, i1 = d, i
			case d < d2:
				d2, i2 = d, i
			}
		}
		if i1 == i2 || i1 < 0 || i2 < 0 {
			panic("cluster: point has fewer than two distinct nearest medoids")
		}
		m.assign[j] = [2]int{i1, i2}
		nearest = append(nearest, d1)
	}
	return nearest
}

// swap proposes the next random medoid/non-medoid exchange and accepts it
// iff the total cost delta t is negative. The delta is evaluated in one
// O(n) pass per Ng and Han's four cases; assignments are then repaired with
// the fast updates noted during the pass, a full recompute only for the
// points whose second-nearest medoid is no longer known. Returns whether a
// swap was accepted.
func (m *medoids) swap() bool {
	i, h, ok := m.nextRandomSwap()
	if !ok {
		return false
	}

	distance := m.distance
	deltas := make([]float64, 0, m.n)

	// i stops being a medoid and attaches to its nearest remaining one
	// (which may be h).
	attach := distance(i, h)
	for _, j := range m.selected {
		if j == i {
			continue
		}
		if d := distance(i, j); d < attach {
			attach = d
		}
	}
	deltas = append(deltas, attach)

	// h becomes a medoid and detaches from its current one.
	deltas = append(deltas, -distance(h, m.assign[h][0]))

	type fastUpdate struct {
		j, medoid int // j's new nearest medoid; second-nearest recomputed later
	}
	var fastUpdates []fastUpdate

	for j := range m.unselected() {
		if j == h {
			continue
		}
		n1, n2 := m.assign[j][0], m.assign[j][1]
		dh := distance(j, h)
		if n1 == i {
			d2 := distance(j, n2)
			if dh >= d2 {
				// j leaves i for its second-nearest medoid.
				deltas = append(deltas, d2-distance(j, i))
				fastUpdates = append(fastUpdates, fastUpdate{j, n2})
			} else {
				// j leaves i for h.
				deltas = append(deltas, dh-distance(j, i))
				fastUpdates = append(fastUpdates, fastUpdate{j, h})
			}
		} else {
			d2 := distance(j, n1)
			if dh >= d2 {
				// j stays put; its second-nearest may still change with h
				// in the set.
				fastUpdates = append(fastUpdates, fastUpdate{j, n1})
			} else {
				// j moves from its cluster to h.
				deltas = append(deltas, dh-d2)
				fastUpdates = append(fastUpdates, fastUpdate{j, h})
			}
		}
	}

	t := floats.Sum(deltas)
	if t >= 0 {
		return false
	}

	m.cost += t

	at, _ := slices.BinarySearch(m.selected, i)
	m.selected = slices.Delete(m.selected, at, at+1)
	at, _ = slices.BinarySearch(m.selected, h)
	m.selected = slices.Insert(m.selected, at, h)

	slow := []int{i} // i needs its medoid distances from scratch
	for _, u := range fastUpdates {
		if u.medoid == i {
			slow = append(slow, u.j)
			continue
		}
		minD, minK := math.Inf(1), -1
		for _, k := range m.selected {
			if k == u.medoid {
				continue
			}
			if d := m.distance(k, u.j); d < minD {
				minD, minK = d, k
			}
		}
		m.assign[u.j] = [2]int{u.medoid, minK}
	}
	m.updateAssignments(slices.Values(slow)) // distances have no cost influence here

	// The medoid set changed, so previously tried swaps are eligible again.
	m.resetRandomSwap()

	return true
}

// clusters materializes the current assignment into medoid clusters, one
// per selected medoid, members in ascending point order.
func (m *medoids) clusters() []*MedoidCluster {
	out := make([]*MedoidCluster, 0, len(m.selected))
	for _, i := range m.selected {
		var members []int
		for j := range m.unselected() {
			if m.assign[j][0] == i {
				members = append(members, j)
			}
		}
		at, _ := slices.BinarySearch(members, i)
		members = slices.Insert(members, at, i)
		out = append(out, &MedoidCluster{Medoid: i, Members: members})
	}
	return out
}

// clarans drives the partitional engine over a chunk of points. Each local
// point index i stands for the global point iToI0[i]; d0 takes global
// indices. medoid0 and siblings carry the recursion context of the
// automatic-k splitting (-1 and nil at the root).
type clarans struct {
	n       int
	iToI0   []int
	medoid0 int
	d0      DistanceFunc
	rng     *rand.Rand

	siblings []*MedoidCluster

	numLocal           int
	maxNeighboursFloor int
}

// localDistance is d0 seen through the local-to-global index mapping.
func (c *clarans) localDistance() DistanceFunc {
	d0, iToI0 := c.d0, c.iToI0
	return func(i, j int) float64 {
		return d0(iToI0[i], iToI0[j])
	}
}

// withK runs numLocal independent local searches from fresh AGORAS seeds
// and returns the clusters of the cheapest one. Each search keeps proposing
// random swaps until maxNeighbours in a row have been rejected.
func (c *clarans) withK(k int) []*MedoidCluster {
	n := c.n
	// Ng and Han recommend these parameters; the floor constant is taken
	// from the paper and configurable via Config.
	nk := float64(k * (n - k))
	maxNeighbours := math.Min(math.Max(0.0125*nk, float64(c.maxNeighboursFloor)), nk)

	var best *medoids
	for range c.numLocal {
		m := newMedoids(n, k, c.localDistance(), c.rng)
		j := 1
		for float64(j) <= maxNeighbours {
			if m.swap() {
				j = 1
			} else {
				j++
			}
		}
		if best == nil || m.cost < best.cost {
			best = m
		}
	}
	return best.clusters()
}

// withoutK estimates the cluster count by recursive binary splitting, after
// Hamerly and Elkan: split into two with CLARANS, keep the split only if
// the criterion's global score improves, recurse into accepted children
// with the other child joining the sibling context. Returns clusters as
// global member lists.
func (c *clarans) withoutK(criterion SplitCriterion) [][]int {
	if c.n < 2 {
		return [][]int{{c.iToI0[0]}}
	}

	local := c.withK(2)
	global := make([]*MedoidCluster, len(local))
	for i, cl := range local {
		global[i] = cl.translate(c.iToI0)
	}

	var all []int
	for _, cl := range global {
		all = append(all, cl.Members...)
	}
	merged := &MedoidCluster{Medoid: c.medoid0, Members: all}

	split, next := criterion.ShouldSplit(c.siblings, merged, global, c.d0)
	if !split {
		return [][]int{slices.Clone(c.iToI0)}
	}

	var out [][]int
	for i := range global {
		members := global[i].Members
		siblings := make([]*MedoidCluster, 0, len(c.siblings)+1)
		siblings = append(siblings, c.siblings...)
		siblings = append(siblings, global[1-i])

		sub := &clarans{
			n:                  len(members),
			iToI0:              members,
			medoid0:            global[i].Medoid,
			d0:                 c.d0,
			rng:                c.rng,
			siblings:           siblings,
			numLocal:           c.numLocal,
			maxNeighboursFloor: c.maxNeighboursFloor,
		}
		out = append(out, sub.withoutK(next)...)
	}
	return out
}

// Optimize clusters n points around k medoids with CLARANS randomized local
// search, seeded by AGORAS. cfg.K >= 2 fixes the medoid count; cfg.K == 1
// returns a single all-inclusive cluster without searching; cfg.K == 0
// estimates k by recursive binary splitting guided by the split criterion.
//
// Optimize works with any DistanceProvider, including lazy ones: it never
// requests the full matrix. The search is randomized but fully determined
// by cfg.Seed; the ambient random stream is neither read nor written.
func Optimize(n int, distances DistanceProvider, cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if cfg.Mode == ModeDominant {
		return nil, fmt.Errorf("cluster: ModeDominant is only supported by Agglomerate")
	}
	if cfg.K > n {
		return nil, fmt.Errorf("cluster: K=%d exceeds the number of points %d", cfg.K, n)
	}

	if n == 0 {
		return newResult(nil, 0, cfg.Mode), nil
	}

	if cfg.K == 1 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return newResult([][]int{all}, n, cfg.Mode), nil
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	identity := make([]int, n)
	for i := range identity {
		identity[i] = i
	}
	root := &clarans{
		n:                  n,
		iToI0:              identity,
		medoid0:            -1,
		d0:                 distances.Distance,
		rng:                rng,
		numLocal:           cfg.NumLocal,
		maxNeighboursFloor: cfg.MaxNeighboursFloor,
	}

	var clusters [][]int
	if cfg.K == 0 {
		build := cfg.NewSplitCriterion
		if build == nil {
			build = func() SplitCriterion { return NewApproximateSilhouetteSplitCriterion() }
		}
		clusters = root.withoutK(build())
	} else {
		for _, cl := range root.withK(cfg.K) {
			clusters = append(clusters, cl.Members)
		}
	}

	return newResult(clusters, n, cfg.Mode), nil
}
