package flowgraph

import (
	"sort"

	"github.com/ludo-technologies/cilflow/internal/il"
)

// buildRegions allocates the regions of every clause and stitches them into
// a lexical forest.
func (b *builder) buildRegions() error {
	g := b.g
	for i, c := range g.method.Clauses {
		if err := b.addClause(i, c); err != nil {
			return err
		}
	}
	if g.regions.len() == 0 {
		return nil
	}

	order := make([]RegionID, g.regions.len())
	for i := range order {
		order[i] = regionIDAt(i)
	}
	var sortErr error
	sort.SliceStable(order, func(i, j int) bool {
		less, err := b.regionLess(order[i], order[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return sortErr
	}

	prev := NoRegion
	for _, cur := range order {
		search, prior := prev, NoRegion
		for search.IsValid() {
			rel := g.compareExtent(search, cur)
			if rel == Before {
				prior = search
				search = g.region(search).parent
				continue
			}
			if rel != Outside && rel != Same {
				return b.fail(g.region(cur).start, "%s region of clause %d overlaps %s region of clause %d",
					g.region(cur).kind, g.region(cur).clause, g.region(search).kind, g.region(search).clause)
			}
			break
		}

		g.region(cur).parent = search
		switch {
		case prior.IsValid():
			g.region(prior).nextSibling = cur
		case search.IsValid():
			g.region(search).firstChild = cur
		}
		prev = cur
	}
	g.firstRegion = order[0]

	b.log.Debug().Int("clauses", len(g.method.Clauses)).Int("regions", g.regions.len()).Msg("region forest built")
	return nil
}

// addClause allocates a clause's regions and links them into a cycle:
// try -> handler -> try, or try -> filter handler -> filter -> try.
func (b *builder) addClause(index int, c il.Clause) error {
	g := b.g
	start := func(offset int) int { i, _ := g.method.IndexOf(offset); return i }
	end := func(offset int) int { i, _ := g.method.EndIndex(offset); return i }
	alloc := func(kind RegionKind, s, e int) RegionID {
		return regionIDAt(g.regions.alloc(regionData{kind: kind, clause: index, start: s, end: e}))
	}

	try := alloc(Try, start(c.TryStart), end(c.TryEnd))
	handlerStart, handlerEnd := start(c.HandlerStart), end(c.HandlerEnd)

	link := func(kind RegionKind) {
		handler := alloc(kind, handlerStart, handlerEnd)
		g.region(try).nextSameClause = handler
		g.region(handler).nextSameClause = try
	}

	switch c.Kind {
	case il.ClauseCatch:
		link(Catch)
	case il.ClauseFinally:
		link(Finally)
	case il.ClauseFault:
		link(Fault)
	case il.ClauseFilter:
		filter := alloc(FilterCondition, start(c.FilterStart), handlerStart)
		handler := alloc(FilterHandler, handlerStart, handlerEnd)
		g.region(try).nextSameClause = handler
		g.region(handler).nextSameClause = filter
		g.region(filter).nextSameClause = try
	default:
		return b.fail(start(c.TryStart), "clause %d has unknown kind %d", index, c.Kind)
	}
	return nil
}

// regionLess orders regions by start, outer before inner. Try regions with
// identical extents are ordered so that the clause declared later encloses
// the one declared earlier.
func (b *builder) regionLess(x, y RegionID) (bool, error) {
	g := b.g
	switch g.compareExtent(x, y) {
	case Before, Outside:
		return true, nil
	case After, Inside:
		return false, nil
	case Same:
		rx, ry := g.region(x), g.region(y)
		if rx.clause == ry.clause {
			return false, nil
		}
		if rx.kind != Try || ry.kind != Try {
			return false, b.fail(rx.start, "%s region of clause %d shares its extent with %s region of clause %d",
				rx.kind, rx.clause, ry.kind, ry.clause)
		}
		return rx.clause > ry.clause, nil
	default:
		rx, ry := g.region(x), g.region(y)
		if rx.start == ry.start {
			return rx.end > ry.end, nil
		}
		return rx.start < ry.start, nil
	}
}

// compareExtent relates the extent of x to the extent of y.
func (g *Graph) compareExtent(x, y RegionID) LexicalRelation {
	return compareExtents(g.region(x).start, g.region(x).end, g.region(y).start, g.region(y).end)
}

func compareExtents(xs, xe, ys, ye int) LexicalRelation {
	switch {
	case xs == ys:
		switch {
		case xe == ye:
			return Same
		case xe > ye:
			return Outside
		default:
			return Inside
		}
	case xs < ys:
		switch {
		case xe <= ys:
			return Before
		case xe >= ye:
			return Outside
		default:
			return overlapping
		}
	default:
		switch {
		case ye <= xs:
			return After
		case ye >= xe:
			return Inside
		default:
			return overlapping
		}
	}
}
