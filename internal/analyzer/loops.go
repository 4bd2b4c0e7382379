package analyzer

import (
	"sort"

	"github.com/yourbasic/graph"

	"github.com/ludo-technologies/cilflow/internal/flowgraph"
)

// blockIterator adapts a flow graph to graph.Iterator. Vertices are block
// positions in instruction order.
type blockIterator struct {
	blocks     []flowgraph.Block
	index      map[flowgraph.BlockID]int
	exceptions bool
}

func newBlockIterator(g *flowgraph.Graph, exceptions bool) *blockIterator {
	it := &blockIterator{index: make(map[flowgraph.BlockID]int, g.NumBlocks()), exceptions: exceptions}
	for b := range g.Blocks() {
		it.index[b.ID()] = len(it.blocks)
		it.blocks = append(it.blocks, b)
	}
	return it
}

func (it *blockIterator) Order() int { return len(it.blocks) }

func (it *blockIterator) Visit(v int, do func(w int, c int64) bool) bool {
	for e := range it.blocks[v].Successors() {
		if e.Kind() == flowgraph.Exception && !it.exceptions {
			continue
		}
		if do(it.index[e.Successor().ID()], 1) {
			return true
		}
	}
	return false
}

// Loop is a strongly connected set of blocks
type Loop struct {
	// Blocks are the members in instruction order
	Blocks []flowgraph.Block
}

// Header returns the lexically first block of the loop
func (l Loop) Header() flowgraph.Block {
	return l.Blocks[0]
}

// FindLoops returns the strongly connected components of the graph that
// contain a cycle, ordered by their first block. Exception edges are
// ignored unless withExceptions is set.
func FindLoops(g *flowgraph.Graph, withExceptions bool) []Loop {
	it := newBlockIterator(g, withExceptions)
	var loops []Loop
	for _, comp := range graph.StrongComponents(it) {
		if len(comp) == 1 && !it.hasSelfEdge(comp[0]) {
			continue
		}
		sort.Ints(comp)
		loop := Loop{Blocks: make([]flowgraph.Block, len(comp))}
		for i, v := range comp {
			loop.Blocks[i] = it.blocks[v]
		}
		loops = append(loops, loop)
	}
	sort.Slice(loops, func(i, j int) bool {
		return it.index[loops[i].Header().ID()] < it.index[loops[j].Header().ID()]
	})
	return loops
}

func (it *blockIterator) hasSelfEdge(v int) bool {
	return it.Visit(v, func(w int, _ int64) bool { return w == v })
}
