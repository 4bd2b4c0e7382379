package flowgraph

import (
	"fmt"
	"iter"

	"github.com/ludo-technologies/cilflow/internal/il"
)

// Block is a view of a basic block: a maximal run of instructions entered
// only at the first and left only after the last. The zero Block is invalid;
// its accessors return zero values and its navigation methods report false.
type Block struct {
	g  *Graph
	id BlockID
}

// HandlerBlock is a block that opens a handler or filter region.
type HandlerBlock struct {
	Block
}

// ID returns the block's handle.
func (b Block) ID() BlockID { return b.id }

// Valid reports whether the view refers to a block.
func (b Block) Valid() bool { return b.g != nil && b.g.hasBlock(b.id) }

// Graph returns the graph the block belongs to.
func (b Block) Graph() *Graph { return b.g }

// FirstInstruction returns the block's first instruction.
func (b Block) FirstInstruction() il.Instruction {
	if !b.Valid() {
		return il.Instruction{}
	}
	return b.g.method.Instructions[b.g.block(b.id).first]
}

// LastInstruction returns the block's last instruction.
func (b Block) LastInstruction() il.Instruction {
	if !b.Valid() {
		return il.Instruction{}
	}
	return b.g.method.Instructions[b.g.block(b.id).last]
}

// Instructions returns the block's instructions in order. The slice aliases
// the method body and must not be modified.
func (b Block) Instructions() []il.Instruction {
	if !b.Valid() {
		return nil
	}
	d := b.g.block(b.id)
	return b.g.method.Instructions[d.first : d.last+1]
}

// Next returns the lexically following block.
func (b Block) Next() (Block, bool) {
	if !b.Valid() {
		return Block{}, false
	}
	return b.g.Block(b.g.block(b.id).next)
}

// Previous returns the lexically preceding block.
func (b Block) Previous() (Block, bool) {
	if !b.Valid() {
		return Block{}, false
	}
	return b.g.Block(b.g.block(b.id).prev)
}

// Region returns the innermost region containing the block.
func (b Block) Region() (Region, bool) {
	if !b.Valid() {
		return Region{}, false
	}
	return b.g.Region(b.g.block(b.id).region)
}

// AsHandler narrows the view to a HandlerBlock.
func (b Block) AsHandler() (HandlerBlock, bool) {
	if !b.Valid() || !b.id.IsHandler() {
		return HandlerBlock{}, false
	}
	return HandlerBlock{b}, true
}

// HandlerRegion returns the handler or filter region the block opens.
func (h HandlerBlock) HandlerRegion() Region {
	if !h.Valid() {
		return Region{}
	}
	return Region{g: h.g, id: h.g.handlerBlocks.at(h.id.index()).handlerRegion}
}

// Predecessors yields the edges entering the block, newest first.
func (b Block) Predecessors() iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		if !b.Valid() {
			return
		}
		for e := b.g.block(b.id).firstPred; e.IsValid(); e = b.g.edge(e).nextPred {
			if !yield(Edge{g: b.g, id: e}) {
				return
			}
		}
	}
}

// Successors yields the edges leaving the block, newest first.
func (b Block) Successors() iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		if !b.Valid() {
			return
		}
		for e := b.g.block(b.id).firstSucc; e.IsValid(); e = b.g.edge(e).nextSucc {
			if !yield(Edge{g: b.g, id: e}) {
				return
			}
		}
	}
}

func (b Block) String() string {
	if !b.Valid() {
		return "block(none)"
	}
	return fmt.Sprintf("%s[%s..%s]", b.id,
		il.FormatOffset(b.FirstInstruction().Offset), il.FormatOffset(b.LastInstruction().Offset))
}
