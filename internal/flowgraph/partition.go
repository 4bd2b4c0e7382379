package flowgraph

// partition splits the instructions into blocks, assigns each block its
// innermost region and records the first block of every region.
func (b *builder) partition() error {
	g := b.g
	n := len(b.instrs)

	isStart := make([]bool, n)
	isStart[0] = true
	for i, ins := range b.instrs {
		for _, t := range ins.Targets {
			idx, _ := g.method.IndexOf(t)
			isStart[idx] = true
		}
		if !ins.MustFallThrough() && i+1 < n {
			isStart[i+1] = true
		}
	}
	for i := 0; i < g.regions.len(); i++ {
		isStart[g.regions.at(i).start] = true
	}
	for i, s := range isStart {
		if s {
			g.blockStarts = append(g.blockStarts, i)
		}
	}

	w := regionWalker{g: g, nextChild: g.firstRegion, nextChange: -1}
	if w.nextChild.IsValid() {
		w.nextChange = g.region(w.nextChild).start
	}

	prev := NoBlock
	for k, first := range g.blockStarts {
		if w.nextChange >= 0 && w.nextChange < first {
			return b.fail(w.nextChange, "region boundary does not fall on a block boundary")
		}
		if first == w.nextChange {
			if err := w.advance(first); err != nil {
				return b.fail(first, "%v", err)
			}
		}

		last := n - 1
		if k+1 < len(g.blockStarts) {
			last = g.blockStarts[k+1] - 1
		}
		data := blockData{first: first, last: last, prev: prev, region: w.current}

		var id BlockID
		if handler := b.openedHandler(w.current, first); handler.IsValid() {
			id = handlerBlockID(g.handlerBlocks.alloc(handlerBlockData{blockData: data, handlerRegion: handler}))
		} else {
			id = plainBlockID(g.blocks.alloc(data))
		}

		for r := w.current; r.IsValid() && g.region(r).start == first; r = g.region(r).parent {
			g.region(r).firstBlock = id
		}
		if prev.IsValid() {
			g.block(prev).next = id
		} else {
			g.firstBlock = id
		}
		g.blockOrder = append(g.blockOrder, id)
		prev = id
	}

	for r := w.current; r.IsValid(); r = g.region(r).parent {
		if g.region(r).end != n {
			return b.fail(g.region(r).end, "%s region of clause %d does not end on a block boundary",
				g.region(r).kind, g.region(r).clause)
		}
	}
	if w.nextChild.IsValid() {
		return b.fail(g.region(w.nextChild).start, "region start was never reached")
	}

	b.log.Debug().Int("blocks", len(g.blockOrder)).Int("handler_blocks", g.handlerBlocks.len()).Msg("instructions partitioned")
	return nil
}

// openedHandler returns the innermost handler region that starts at the
// instruction index first, walking out from the innermost region there.
func (b *builder) openedHandler(current RegionID, first int) RegionID {
	g := b.g
	for r := current; r.IsValid() && g.region(r).start == first; r = g.region(r).parent {
		if g.region(r).kind.IsHandler() {
			return r
		}
	}
	return NoRegion
}

// regionWalker tracks the innermost region while blocks are laid out in
// instruction order.
type regionWalker struct {
	g          *Graph
	current    RegionID
	nextChild  RegionID
	nextChange int
}

// advance enters and exits regions at instruction index at until no further
// region boundary lies there.
func (w *regionWalker) advance(at int) error {
	g := w.g
	for {
		if w.nextChild.IsValid() && g.region(w.nextChild).start == at {
			w.current = w.nextChild
			w.nextChild = g.region(w.current).firstChild
		} else {
			if !w.current.IsValid() || g.region(w.current).end != at {
				return errRegionBoundary
			}
			w.nextChild = g.region(w.current).nextSibling
			w.current = g.region(w.current).parent
		}

		switch {
		case w.nextChild.IsValid():
			w.nextChange = g.region(w.nextChild).start
		case w.current.IsValid():
			w.nextChange = g.region(w.current).end
		default:
			w.nextChange = -1
		}
		if w.nextChange != at {
			return nil
		}
	}
}
