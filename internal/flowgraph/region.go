package flowgraph

import (
	"fmt"
	"iter"

	"github.com/ludo-technologies/cilflow/internal/il"
)

// Region is a view of one lexical piece of an exception clause: its try
// range, its handler, or its filter condition. The zero Region is invalid.
type Region struct {
	g  *Graph
	id RegionID
}

// ID returns the region's handle.
func (r Region) ID() RegionID { return r.id }

// Valid reports whether the view refers to a region.
func (r Region) Valid() bool { return r.g != nil && r.g.hasRegion(r.id) }

// Kind returns the region kind. Invalid regions report NoRegionKind.
func (r Region) Kind() RegionKind {
	if !r.Valid() {
		return NoRegionKind
	}
	return r.g.region(r.id).kind
}

// ClauseIndex returns the position of the region's clause in the method's
// clause table, or -1.
func (r Region) ClauseIndex() int {
	if !r.Valid() {
		return -1
	}
	return r.g.region(r.id).clause
}

// Clause returns the clause the region was derived from.
func (r Region) Clause() (il.Clause, bool) {
	if !r.Valid() {
		return il.Clause{}, false
	}
	return r.g.method.Clauses[r.g.region(r.id).clause], true
}

// StartOffset returns the offset of the region's first instruction.
func (r Region) StartOffset() int {
	if !r.Valid() {
		return 0
	}
	return r.g.method.Instructions[r.g.region(r.id).start].Offset
}

// EndOffset returns the offset of the first instruction past the region, or
// il.EndOfMethod if the region runs to the end of the method.
func (r Region) EndOffset() int {
	if !r.Valid() {
		return 0
	}
	end := r.g.region(r.id).end
	if end == len(r.g.method.Instructions) {
		return il.EndOfMethod
	}
	return r.g.method.Instructions[end].Offset
}

// Contains reports whether the instruction at offset lies within the region.
func (r Region) Contains(offset int) bool {
	if !r.Valid() {
		return false
	}
	idx, ok := r.g.method.IndexOf(offset)
	d := r.g.region(r.id)
	return ok && d.start <= idx && idx < d.end
}

// FirstBlock returns the block holding the region's first instruction.
func (r Region) FirstBlock() Block {
	if !r.Valid() {
		return Block{}
	}
	return Block{g: r.g, id: r.g.region(r.id).firstBlock}
}

// Parent returns the innermost region enclosing this one.
func (r Region) Parent() (Region, bool) {
	if !r.Valid() {
		return Region{}, false
	}
	return r.g.Region(r.g.region(r.id).parent)
}

// Children yields the regions directly nested in this one, in lexical order.
func (r Region) Children() iter.Seq[Region] {
	if !r.Valid() {
		return func(func(Region) bool) {}
	}
	return r.g.siblings(r.g.region(r.id).firstChild)
}

// SameClause yields every region of this region's clause, starting with
// this one and following the clause's link cycle.
func (r Region) SameClause() iter.Seq[Region] {
	return func(yield func(Region) bool) {
		if !r.Valid() {
			return
		}
		id := r.id
		for {
			if !yield(Region{g: r.g, id: id}) {
				return
			}
			id = r.g.region(id).nextSameClause
			if id == r.id {
				return
			}
		}
	}
}

// TryRegion returns the try region of this region's clause. It reports
// false for a try region.
func (r Region) TryRegion() (Region, bool) {
	if !r.Valid() {
		return Region{}, false
	}
	return r.g.Region(r.g.tryOf(r.id))
}

// HandlerRegion returns the handler of this region's clause. It reports
// false for handler regions.
func (r Region) HandlerRegion() (Region, bool) {
	if !r.Valid() {
		return Region{}, false
	}
	return r.g.Region(r.g.handlerOf(r.id))
}

// FilterRegion returns the filter condition of this region's clause, if the
// clause is a filter clause.
func (r Region) FilterRegion() (Region, bool) {
	if !r.Valid() {
		return Region{}, false
	}
	return r.g.Region(r.g.filterOf(r.id))
}

// ThrowSuccessor returns the region that receives control when an
// instruction lexically inside this region raises. It reports false when the
// exception leaves the method.
func (r Region) ThrowSuccessor() (Region, bool) {
	if !r.Valid() {
		return Region{}, false
	}
	return r.g.Region(r.g.throwSuccessor(r.id))
}

// ContinueDispatchSuccessor returns where dispatch goes after this handler:
// in the first pass when it declines the exception, in the second pass when
// it finishes running. It reports false when dispatch leaves the method or
// the region does not take part in the given pass.
func (r Region) ContinueDispatchSuccessor(pass DispatchPass) (Region, bool) {
	if !r.Valid() {
		return Region{}, false
	}
	return r.g.Region(r.g.continueDispatch(r.id, pass))
}

// CompareLexicalExtent relates this region's instruction range to other's.
func (r Region) CompareLexicalExtent(other Region) LexicalRelation {
	if !r.Valid() || !other.Valid() || r.g != other.g {
		return 0
	}
	return r.g.compareExtent(r.id, other.id)
}

// InclusiveBlocks yields every block lexically inside the region, including
// blocks of nested regions.
func (r Region) InclusiveBlocks() iter.Seq[Block] {
	return r.blocks(false)
}

// ExclusiveBlocks yields the blocks whose innermost region is this one.
func (r Region) ExclusiveBlocks() iter.Seq[Block] {
	return r.blocks(true)
}

func (r Region) blocks(exclusive bool) iter.Seq[Block] {
	return func(yield func(Block) bool) {
		if !r.Valid() {
			return
		}
		seq := r.g.inclusiveBlocks(r.id)
		if exclusive {
			seq = r.g.exclusiveBlocks(r.id)
		}
		for id := range seq {
			if !yield(Block{g: r.g, id: id}) {
				return
			}
		}
	}
}

func (r Region) String() string {
	if !r.Valid() {
		return "region(none)"
	}
	return fmt.Sprintf("%s %s#%d[%s..%s)", r.id, r.Kind(), r.ClauseIndex(),
		il.FormatOffset(r.StartOffset()), il.FormatOffset(r.EndOffset()))
}

func (g *Graph) inclusiveBlocks(r RegionID) iter.Seq[BlockID] {
	return func(yield func(BlockID) bool) {
		end := g.region(r).end
		for id := g.region(r).firstBlock; id.IsValid() && g.block(id).first < end; id = g.block(id).next {
			if !yield(id) {
				return
			}
		}
	}
}

func (g *Graph) exclusiveBlocks(r RegionID) iter.Seq[BlockID] {
	return func(yield func(BlockID) bool) {
		for id := range g.inclusiveBlocks(r) {
			if g.block(id).region == r && !yield(id) {
				return
			}
		}
	}
}
