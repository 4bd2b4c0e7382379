package flowgraph

import "github.com/ludo-technologies/cilflow/internal/il"

// addExceptionEdges adds the dispatch edges leaving block id: the raise
// edge, skip edges at the head of a handler, and the edges at the end of a
// finally, fault or filter.
func (b *builder) addExceptionEdges(id BlockID) error {
	g := b.g
	region := g.block(id).region
	last := b.instrs[g.block(id).last]
	if !region.IsValid() {
		switch last.Code {
		case il.Endfinally:
			return b.fail(g.block(id).last, "endfinally outside of a finally or fault handler")
		case il.Endfilter:
			return b.fail(g.block(id).last, "endfilter outside of a filter")
		}
		return nil
	}
	edge := func(to RegionID, kinds ExceptionEdgeKinds) {
		if to.IsValid() {
			b.addExceptionEdge(id, g.region(to).firstBlock, kinds)
		}
	}

	edge(g.throwSuccessor(region), RaiseException)

	if id.IsHandler() {
		handler := g.handlerBlocks.at(id.index()).handlerRegion
		switch g.region(handler).kind {
		case Catch:
			edge(g.continueDispatch(handler, FirstPass), CatchWrongType)
			edge(g.continueDispatch(handler, SecondPass), BypassCatch)
		case Finally:
			edge(g.continueDispatch(handler, FirstPass), BypassFinally)
		case Fault:
			edge(g.continueDispatch(handler, FirstPass), BypassFault)
		case FilterHandler:
			edge(g.continueDispatch(handler, SecondPass), BypassFilterHandler)
		}
	}

	switch last.Code {
	case il.Endfinally:
		owner := g.enclosing(region, Finally, Fault)
		if !owner.IsValid() {
			return b.fail(g.block(id).last, "endfinally outside of a finally or fault handler")
		}
		if g.region(owner).kind == Finally {
			edge(g.continueDispatch(owner, SecondPass), EndFinally)
		} else {
			edge(g.continueDispatch(owner, SecondPass), EndFault)
		}
	case il.Endfilter:
		if g.region(region).kind != FilterCondition {
			return b.fail(g.block(id).last, "endfilter outside of a filter")
		}
		edge(g.continueDispatch(region, FirstPass), FilterFail)
		b.addTakenFilterEdges(region, id)
	}
	return nil
}

// enclosing returns the innermost region, starting at r, whose kind is one
// of kinds.
func (g *Graph) enclosing(r RegionID, kinds ...RegionKind) RegionID {
	for ; r.IsValid(); r = g.region(r).parent {
		for _, k := range kinds {
			if g.region(r).kind == k {
				return r
			}
		}
	}
	return NoRegion
}

// addTakenFilterEdges adds the edges taken when filter accepts: into its
// handler, and from its handler back to every fault, finally or filter
// handler nested in the protected try that the second pass must run first.
// Nested filter handlers add their own rewind edges, so the search stops at
// them.
func (b *builder) addTakenFilterEdges(filter RegionID, endfilter BlockID) {
	g := b.g
	handler := g.handlerOf(filter)
	head := g.region(handler).firstBlock
	b.addExceptionEdge(endfilter, head, FilterMatch)

	stack := []RegionID{g.tryOf(filter)}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for child := g.region(r).firstChild; child.IsValid(); child = g.region(child).nextSibling {
			if g.region(child).kind != Try {
				stack = append(stack, child)
				continue
			}
			inner := g.handlerOf(child)
			if g.region(inner).kind != Catch {
				b.addExceptionEdge(head, g.region(inner).firstBlock, FilterRewind)
			}
			if g.region(inner).kind != FilterHandler {
				stack = append(stack, child)
			}
		}
	}
}
