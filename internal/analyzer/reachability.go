package analyzer

import (
	"sort"
	"time"

	"github.com/ludo-technologies/cilflow/internal/flowgraph"
	"github.com/ludo-technologies/cilflow/internal/il"
)

// ReachabilityResult contains the results of a backward reachability walk
type ReachabilityResult struct {
	// MarkedBlocks contains blocks from which a normal method exit is reachable
	MarkedBlocks map[flowgraph.BlockID]flowgraph.Block

	// UnmarkedBlocks contains the remaining blocks
	UnmarkedBlocks map[flowgraph.BlockID]flowgraph.Block

	// TotalBlocks is the total number of blocks analyzed
	TotalBlocks int

	// MarkedCount is the number of marked blocks
	MarkedCount int

	// UnmarkedCount is the number of unmarked blocks
	UnmarkedCount int

	// AnalysisTime is the time taken to perform the analysis
	AnalysisTime time.Duration
}

// ReachabilityOptions controls which edges the walk follows
type ReachabilityOptions struct {
	// FollowExceptionEdges also walks exception dispatch edges backward, so
	// handlers that eventually return mark the code that can raise into them.
	FollowExceptionEdges bool
}

// ReachabilityAnalyzer marks the blocks that can reach a return or tail jump
// without relying on an exception being raised.
type ReachabilityAnalyzer struct {
	graph   *flowgraph.Graph
	options ReachabilityOptions
}

// NewReachabilityAnalyzer creates a new reachability analyzer for the given graph
func NewReachabilityAnalyzer(graph *flowgraph.Graph, options ReachabilityOptions) *ReachabilityAnalyzer {
	return &ReachabilityAnalyzer{
		graph:   graph,
		options: options,
	}
}

// AnalyzeReachability walks predecessor edges backward from every block
// that ends in ret or jmp.
//
// Leave edges are not followed directly. A finish-leave edge stands for the
// whole chain begin -> continue... -> finish of one leave instruction, so
// reaching the leave target marks the endfinally blocks on that chain and
// the block holding the leave itself.
func (ra *ReachabilityAnalyzer) AnalyzeReachability() *ReachabilityResult {
	startTime := time.Now()

	result := &ReachabilityResult{
		MarkedBlocks:   make(map[flowgraph.BlockID]flowgraph.Block),
		UnmarkedBlocks: make(map[flowgraph.BlockID]flowgraph.Block),
	}
	if ra.graph == nil {
		result.AnalysisTime = time.Since(startTime)
		return result
	}

	var worklist []flowgraph.Block
	mark := func(b flowgraph.Block) bool {
		if _, seen := result.MarkedBlocks[b.ID()]; seen {
			return false
		}
		result.MarkedBlocks[b.ID()] = b
		worklist = append(worklist, b)
		return true
	}

	walked := make(map[flowgraph.BlockID]bool)
	for b := range ra.graph.Blocks() {
		result.TotalBlocks++
		switch b.LastInstruction().Code {
		case il.Ret, il.Jmp:
			mark(b)
		}
	}

	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		for e := range b.Predecessors() {
			switch e.Kind() {
			case flowgraph.BeginLeave, flowgraph.ContinueLeave:
				// Reached through the finish-leave edge of the same leave.
			case flowgraph.Exception:
				if ra.options.FollowExceptionEdges {
					mark(e.Predecessor())
				}
			case flowgraph.FinishLeave:
				leave, _ := e.AsLeave()
				ra.markLeaveChain(leave, walked, mark)
			default:
				mark(e.Predecessor())
			}
		}
	}

	for b := range ra.graph.Blocks() {
		if _, ok := result.MarkedBlocks[b.ID()]; !ok {
			result.UnmarkedBlocks[b.ID()] = b
		}
	}

	result.MarkedCount = len(result.MarkedBlocks)
	result.UnmarkedCount = len(result.UnmarkedBlocks)
	result.AnalysisTime = time.Since(startTime)
	return result
}

// markLeaveChain marks the endfinally blocks that run for one leave, from
// the outermost finally inward, and the leave block itself.
func (ra *ReachabilityAnalyzer) markLeaveChain(finish flowgraph.LeaveEdge, walked map[flowgraph.BlockID]bool, mark func(flowgraph.Block) bool) {
	mark(finish.Predecessor())
	leave := finish.LeaveBlock()
	mark(leave)
	if walked[leave.ID()] {
		return
	}
	walked[leave.ID()] = true

	// Every endfinally of a finally feeds the same successor, so one
	// representative per level is enough to find the next finally inward.
	region, ok := enclosingFinally(finish.Predecessor())
	for ok {
		var inner flowgraph.Block
		for e := range region.FirstBlock().Predecessors() {
			l, isLeave := e.AsLeave()
			if !isLeave || l.Kind() != flowgraph.ContinueLeave || l.LeaveBlock().ID() != leave.ID() {
				continue
			}
			mark(l.Predecessor())
			inner = l.Predecessor()
		}
		region, ok = enclosingFinally(inner)
	}
}

func enclosingFinally(b flowgraph.Block) (flowgraph.Region, bool) {
	r, ok := b.Region()
	for ok && r.Kind() != flowgraph.Finally {
		r, ok = r.Parent()
	}
	return r, ok
}

// SortedOffsets returns the first instruction offsets of the given blocks in
// ascending order.
func SortedOffsets(blocks map[flowgraph.BlockID]flowgraph.Block) []int {
	offsets := make([]int, 0, len(blocks))
	for _, b := range blocks {
		offsets = append(offsets, b.FirstInstruction().Offset)
	}
	sort.Ints(offsets)
	return offsets
}

// GetMarkedRatio returns the ratio of marked blocks to total blocks
func (result *ReachabilityResult) GetMarkedRatio() float64 {
	if result.TotalBlocks == 0 {
		return 1.0
	}
	return float64(result.MarkedCount) / float64(result.TotalBlocks)
}

// HasUnmarkedCode returns true if some block cannot reach a normal exit
func (result *ReachabilityResult) HasUnmarkedCode() bool {
	return result.UnmarkedCount > 0
}
