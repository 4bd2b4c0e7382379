package flowgraph

// tryOf returns the try region of r's clause, or NoRegion if r is a try.
func (g *Graph) tryOf(r RegionID) RegionID {
	switch g.region(r).kind {
	case Try:
		return NoRegion
	case FilterHandler:
		return g.region(g.region(r).nextSameClause).nextSameClause
	default:
		return g.region(r).nextSameClause
	}
}

// handlerOf returns the handler region of r's clause, or NoRegion if r is a
// handler.
func (g *Graph) handlerOf(r RegionID) RegionID {
	switch g.region(r).kind {
	case Try:
		return g.region(r).nextSameClause
	case FilterCondition:
		return g.region(g.region(r).nextSameClause).nextSameClause
	default:
		return NoRegion
	}
}

// filterOf returns the filter condition region of r's clause, if it has one.
func (g *Graph) filterOf(r RegionID) RegionID {
	switch g.region(r).kind {
	case Try:
		h := g.region(r).nextSameClause
		if g.region(h).kind == FilterHandler {
			return g.region(h).nextSameClause
		}
		return NoRegion
	case FilterCondition:
		return r
	case FilterHandler:
		return g.region(r).nextSameClause
	default:
		return NoRegion
	}
}

// throwSuccessor returns the region that receives control when an
// instruction lexically in r raises.
func (g *Graph) throwSuccessor(r RegionID) RegionID {
	for ; r.IsValid(); r = g.region(r).parent {
		switch g.region(r).kind {
		case Try:
			if f := g.filterOf(r); f.IsValid() {
				return f
			}
			return g.region(r).nextSameClause
		case FilterCondition:
			return g.continueDispatch(r, FirstPass)
		}
	}
	return NoRegion
}

// continueDispatch returns the region dispatch moves to once handler region
// r has been considered (first pass) or has finished running (second pass).
// Filter handlers are not part of the search and never resume dispatch;
// filter conditions only take part in the first pass.
func (g *Graph) continueDispatch(r RegionID, pass DispatchPass) RegionID {
	kind := g.region(r).kind
	if kind == Try || kind == FilterHandler || kind == FilterCondition && pass == SecondPass {
		return NoRegion
	}
	for t := g.region(g.tryOf(r)).parent; t.IsValid(); t = g.region(t).parent {
		if g.region(t).kind != Try {
			continue
		}
		s := g.throwSuccessor(t)
		if s.IsValid() && pass == SecondPass && g.region(s).kind == FilterCondition {
			s = g.handlerOf(s)
		}
		return s
	}
	return NoRegion
}
