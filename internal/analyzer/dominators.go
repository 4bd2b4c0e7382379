package analyzer

import (
	"sort"

	"gonum.org/v1/gonum/graph/flow"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/ludo-technologies/cilflow/internal/flowgraph"
)

// DominatorTree answers dominance queries over the non-exceptional edges of
// a flow graph, rooted at the entry block.
type DominatorTree struct {
	it   *blockIterator
	tree flow.DominatorTree
}

// NewDominatorTree computes the dominator tree of g. Blocks the entry
// cannot reach are left out of the tree.
func NewDominatorTree(g *flowgraph.Graph) *DominatorTree {
	it := newBlockIterator(g, false)
	root := it.index[g.Entry().ID()]

	reached := make([]bool, it.Order())
	reached[root] = true
	queue := []int{root}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		it.Visit(v, func(w int, _ int64) bool {
			if !reached[w] {
				reached[w] = true
				queue = append(queue, w)
			}
			return false
		})
	}

	dg := simple.NewDirectedGraph()
	for v, ok := range reached {
		if ok {
			dg.AddNode(simple.Node(v))
		}
	}
	for v, ok := range reached {
		if !ok {
			continue
		}
		it.Visit(v, func(w int, _ int64) bool {
			if w != v {
				dg.SetEdge(dg.NewEdge(simple.Node(v), simple.Node(w)))
			}
			return false
		})
	}

	return &DominatorTree{it: it, tree: flow.Dominators(simple.Node(root), dg)}
}

// ImmediateDominator returns the closest strict dominator of b. It reports
// false for the entry block and for blocks the entry cannot reach.
func (d *DominatorTree) ImmediateDominator(b flowgraph.Block) (flowgraph.Block, bool) {
	v, ok := d.it.index[b.ID()]
	if !ok {
		return flowgraph.Block{}, false
	}
	idom := d.tree.DominatorOf(int64(v))
	if idom == nil {
		return flowgraph.Block{}, false
	}
	return d.it.blocks[idom.ID()], true
}

// Dominates reports whether every path from the entry to b passes through a.
// A block dominates itself.
func (d *DominatorTree) Dominates(a, b flowgraph.Block) bool {
	if a.ID() == b.ID() {
		_, ok := d.it.index[a.ID()]
		return ok
	}
	for cur, ok := d.ImmediateDominator(b); ok; cur, ok = d.ImmediateDominator(cur) {
		if cur.ID() == a.ID() {
			return true
		}
	}
	return false
}

// Dominated returns the blocks immediately dominated by b.
func (d *DominatorTree) Dominated(b flowgraph.Block) []flowgraph.Block {
	v, ok := d.it.index[b.ID()]
	if !ok {
		return nil
	}
	var out []flowgraph.Block
	for _, n := range d.tree.DominatedBy(int64(v)) {
		out = append(out, d.it.blocks[n.ID()])
	}
	sort.Slice(out, func(i, j int) bool { return d.it.index[out[i].ID()] < d.it.index[out[j].ID()] })
	return out
}
