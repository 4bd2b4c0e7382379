package flowgraph

import (
	"iter"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ludo-technologies/cilflow/internal/il"
)

type blockData struct {
	// first and last are instruction indices, inclusive.
	first, last int
	prev, next  BlockID
	region      RegionID
	firstPred   EdgeID
	firstSucc   EdgeID
}

type handlerBlockData struct {
	blockData
	handlerRegion RegionID
}

type edgeData struct {
	kind     EdgeKind
	pred     BlockID
	succ     BlockID
	nextPred EdgeID
	nextSucc EdgeID
}

type exceptionEdgeData struct {
	edgeData
	kinds ExceptionEdgeKinds
}

type leaveEdgeData struct {
	edgeData
	leaveBlock BlockID
}

type regionData struct {
	kind   RegionKind
	clause int
	// start and end are instruction indices; end is exclusive and equals
	// the instruction count for regions that run to the end of the method.
	start, end     int
	parent         RegionID
	firstChild     RegionID
	nextSibling    RegionID
	nextSameClause RegionID
	firstBlock     BlockID
}

// Graph is the control-flow graph of one method body. A Graph is immutable
// once New returns and may be read from multiple goroutines.
type Graph struct {
	method *il.MethodBody

	blocks         arena[blockData]
	handlerBlocks  arena[handlerBlockData]
	edges          arena[edgeData]
	exceptionEdges arena[exceptionEdgeData]
	leaveEdges     arena[leaveEdgeData]
	regions        arena[regionData]

	firstBlock  BlockID
	firstRegion RegionID

	// blockStarts holds the first instruction index of each block in
	// lexical order, parallel to blockOrder.
	blockStarts []int
	blockOrder  []BlockID
}

// Option configures graph construction.
type Option func(*builder)

// WithLogger sets the logger that receives construction diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *builder) {
		b.log = logger
	}
}

// New builds the flow graph of method. The body is validated first; any
// structural problem is reported as a *BuildError wrapping
// ErrMalformedMethod.
func New(method *il.MethodBody, opts ...Option) (*Graph, error) {
	if method == nil {
		return nil, &BuildError{Method: "<nil>", Offset: -1, Reason: "method body is nil"}
	}
	if err := method.Validate(); err != nil {
		return nil, &BuildError{Method: method.Name, Offset: -1, Reason: "invalid method body", Err: err}
	}

	b := &builder{
		g:      &Graph{method: method},
		instrs: method.Instructions,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With().Str("method", method.Name).Logger()

	if err := b.buildRegions(); err != nil {
		return nil, err
	}
	if err := b.partition(); err != nil {
		return nil, err
	}
	if err := b.connect(); err != nil {
		return nil, err
	}

	b.log.Debug().
		Int("blocks", len(b.g.blockOrder)).
		Int("regions", b.g.regions.len()).
		Int("edges", b.g.NumEdges()).
		Msg("flow graph built")
	return b.g, nil
}

// builder carries the state used while a graph is under construction.
type builder struct {
	g      *Graph
	instrs []il.Instruction
	log    zerolog.Logger
}

// Method returns the method body the graph was built from.
func (g *Graph) Method() *il.MethodBody { return g.method }

// Entry returns the block holding the first instruction.
func (g *Graph) Entry() Block { return Block{g: g, id: g.firstBlock} }

// NumBlocks returns the number of blocks.
func (g *Graph) NumBlocks() int { return len(g.blockOrder) }

// NumRegions returns the number of regions.
func (g *Graph) NumRegions() int { return g.regions.len() }

// NumEdges returns the number of edges of all families.
func (g *Graph) NumEdges() int {
	return g.edges.len() + g.exceptionEdges.len() + g.leaveEdges.len()
}

// Block resolves a block handle.
func (g *Graph) Block(id BlockID) (Block, bool) {
	if !g.hasBlock(id) {
		return Block{}, false
	}
	return Block{g: g, id: id}, true
}

// Edge resolves an edge handle.
func (g *Graph) Edge(id EdgeID) (Edge, bool) {
	if !g.hasEdge(id) {
		return Edge{}, false
	}
	return Edge{g: g, id: id}, true
}

// Region resolves a region handle.
func (g *Graph) Region(id RegionID) (Region, bool) {
	if !g.hasRegion(id) {
		return Region{}, false
	}
	return Region{g: g, id: id}, true
}

// BlockAt returns the block containing the instruction at offset.
func (g *Graph) BlockAt(offset int) (Block, bool) {
	idx, ok := g.method.IndexOf(offset)
	if !ok {
		return Block{}, false
	}
	return Block{g: g, id: g.blockContaining(idx)}, true
}

// Blocks yields every block in instruction order.
func (g *Graph) Blocks() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		for _, id := range g.blockOrder {
			if !yield(Block{g: g, id: id}) {
				return
			}
		}
	}
}

// Edges yields every edge, grouped by predecessor in instruction order.
func (g *Graph) Edges() iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		for _, id := range g.blockOrder {
			for e := range (Block{g: g, id: id}).Successors() {
				if !yield(e) {
					return
				}
			}
		}
	}
}

// RootRegions yields the regions that have no parent, in lexical order.
func (g *Graph) RootRegions() iter.Seq[Region] {
	return g.siblings(g.firstRegion)
}

// Regions yields every region in pre-order: each region before its
// children, siblings in lexical order.
func (g *Graph) Regions() iter.Seq[Region] {
	return func(yield func(Region) bool) {
		g.walkRegions(g.firstRegion, yield)
	}
}

func (g *Graph) walkRegions(id RegionID, yield func(Region) bool) bool {
	for ; id.IsValid(); id = g.region(id).nextSibling {
		if !yield(Region{g: g, id: id}) {
			return false
		}
		if !g.walkRegions(g.region(id).firstChild, yield) {
			return false
		}
	}
	return true
}

func (g *Graph) siblings(first RegionID) iter.Seq[Region] {
	return func(yield func(Region) bool) {
		for id := first; id.IsValid(); id = g.region(id).nextSibling {
			if !yield(Region{g: g, id: id}) {
				return
			}
		}
	}
}

func (g *Graph) hasBlock(id BlockID) bool {
	if !id.IsValid() {
		return false
	}
	if id.IsHandler() {
		return g.handlerBlocks.has(id.index())
	}
	return g.blocks.has(id.index())
}

func (g *Graph) block(id BlockID) *blockData {
	if id.IsHandler() {
		return &g.handlerBlocks.at(id.index()).blockData
	}
	return g.blocks.at(id.index())
}

func (g *Graph) hasEdge(id EdgeID) bool {
	switch id.space() {
	case plainEdgeSpace:
		return g.edges.has(id.index())
	case exceptionEdgeSpace:
		return g.exceptionEdges.has(id.index())
	case leaveEdgeSpace:
		return g.leaveEdges.has(id.index())
	default:
		return false
	}
}

func (g *Graph) edge(id EdgeID) *edgeData {
	switch id.space() {
	case exceptionEdgeSpace:
		return &g.exceptionEdges.at(id.index()).edgeData
	case leaveEdgeSpace:
		return &g.leaveEdges.at(id.index()).edgeData
	default:
		return g.edges.at(id.index())
	}
}

func (g *Graph) hasRegion(id RegionID) bool {
	return id.IsValid() && g.regions.has(id.index())
}

func (g *Graph) region(id RegionID) *regionData {
	return g.regions.at(id.index())
}

// blockContaining returns the block whose instruction range holds idx.
func (g *Graph) blockContaining(idx int) BlockID {
	i := sort.SearchInts(g.blockStarts, idx+1) - 1
	return g.blockOrder[i]
}
