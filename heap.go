package cluster

// pairNode is one heap entry: the current distance for a pair of clusters,
// identified by the pair's triangular matrix index.
type pairNode struct {
	d  float64
	id int
}

// less orders nodes lexicographically by (distance, pair id). Pair ids are
// unique, so no two nodes ever compare equal and the heap order is a strict
// total order, independent of how the distances were supplied.
func (a pairNode) less(b pairNode) bool {
	return a.d < b.d || (a.d == b.d && a.id < b.id)
}

// pairHeap is a binary min-heap over pair distances with an auxiliary
// position index (pair id -> heap slot), so entries can be updated or
// removed by id in O(log n) without scanning. container/heap is not used:
// its Fix/Remove take a slot, and maintaining the id -> slot mapping is the
// whole point, so the sift operations are written out against the two
// parallel arrays directly.
type pairHeap struct {
	nodes []pairNode
	slot  []int
}

// newPairHeap builds a heap containing every entry of a flat
// lower-triangular distance matrix, with each entry's pair id equal to its
// matrix index. Runs in O(len(matrix)).
func newPairHeap(matrix []float64) *pairHeap {
	nodes := make([]pairNode, len(matrix))
	slot := make([]int, len(matrix))
	for id, d := range matrix {
		nodes[id] = pairNode{d: d, id: id}
		slot[id] = id
	}
	h := &pairHeap{nodes: nodes, slot: slot}
	for s := len(nodes)/2 - 1; s >= 0; s-- {
		h.siftDown(s)
	}
	return h
}

func (h *pairHeap) len() int { return len(h.nodes) }

// min returns the smallest node without removing it.
func (h *pairHeap) min() pairNode { return h.nodes[0] }

// value returns the current distance stored for pair id, which must be in
// the heap.
func (h *pairHeap) value(id int) float64 { return h.nodes[h.slot[id]].d }

func (h *pairHeap) siftDown(s int) {
	e := len(h.nodes) - 1
	i := s
	j := 2*i + 1
	if j > e {
		return
	}
	x := h.nodes[i]
	for j <= e {
		if j < e && h.nodes[j+1].less(h.nodes[j]) {
			j++
		}
		if !h.nodes[j].less(x) {
			break
		}
		h.nodes[i] = h.nodes[j]
		h.slot[h.nodes[i].id] = i
		i = j
		j = 2*i + 1
	}
	h.nodes[i] = x
	h.slot[x.id] = i
}

func (h *pairHeap) siftUp(s int) {
	i := s
	x := h.nodes[i]
	for i > 0 {
		p := (i - 1) / 2
		if !x.less(h.nodes[p]) {
			break
		}
		h.nodes[i] = h.nodes[p]
		h.slot[h.nodes[i].id] = i
		i = p
	}
	h.nodes[i] = x
	h.slot[x.id] = i
}

// replace overwrites the node at slot s with x and restores heap order,
// sifting in whichever direction the change requires.
func (h *pairHeap) replace(s int, x pairNode) {
	old := h.nodes[s]
	h.nodes[s] = x
	h.slot[x.id] = s
	if old.less(x) {
		h.siftDown(s)
	} else {
		h.siftUp(s)
	}
}

// update changes the distance stored for pair id and restores heap order.
func (h *pairHeap) update(id int, d float64) {
	h.replace(h.slot[id], pairNode{d: d, id: id})
}

// remove deletes the entry for pair id from the heap.
func (h *pairHeap) remove(id int) {
	s := h.slot[id]
	h.slot[id] = -1
	last := len(h.nodes) - 1
	if s == last {
		h.nodes = h.nodes[:last]
		return
	}
	x := h.nodes[last]
	h.nodes = h.nodes[:last]
	h.replace(s, x)
}
