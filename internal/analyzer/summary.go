package analyzer

import (
	"github.com/ludo-technologies/cilflow/internal/flowgraph"
)

// GraphSummary contains aggregate counts for one flow graph
type GraphSummary struct {
	Blocks        int
	HandlerBlocks int
	Regions       int
	Loops         int

	EdgesByKind        map[flowgraph.EdgeKind]int
	ExceptionScenarios map[flowgraph.ExceptionEdgeKinds]int
	RegionsByKind      map[flowgraph.RegionKind]int
}

// Summarize counts the blocks, edges and regions of g. Every exception
// scenario bit is counted separately, so a merged edge contributes to
// several entries of ExceptionScenarios.
func Summarize(g *flowgraph.Graph) *GraphSummary {
	s := &GraphSummary{
		Blocks:             g.NumBlocks(),
		Regions:            g.NumRegions(),
		EdgesByKind:        make(map[flowgraph.EdgeKind]int),
		ExceptionScenarios: make(map[flowgraph.ExceptionEdgeKinds]int),
		RegionsByKind:      make(map[flowgraph.RegionKind]int),
	}

	for b := range g.Blocks() {
		if _, ok := b.AsHandler(); ok {
			s.HandlerBlocks++
		}
	}
	for e := range g.Edges() {
		s.EdgesByKind[e.Kind()]++
		if x, ok := e.AsException(); ok {
			for bit := flowgraph.RaiseException; bit <= flowgraph.BypassFilterHandler; bit <<= 1 {
				if x.Kinds().Has(bit) {
					s.ExceptionScenarios[bit]++
				}
			}
		}
	}
	for r := range g.Regions() {
		s.RegionsByKind[r.Kind()]++
	}
	s.Loops = len(FindLoops(g, false))
	return s
}
