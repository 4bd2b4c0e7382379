package flowgraph

import "github.com/ludo-technologies/cilflow/internal/il"

// addLeaveEdges routes a leave through every finally handler it exits, from
// the innermost outward. A leave that exits no finally is an ordinary goto.
func (b *builder) addLeaveEdges(leave, target BlockID) error {
	g := b.g
	region := g.block(leave).region
	if !region.IsValid() || !g.throwSuccessor(region).IsValid() {
		b.log.Debug().
			Int("leave", b.instrs[g.block(leave).last].Offset).
			Msg("leave outside any protected region; treated as goto")
		b.addEdge(Goto, leave, target)
		return nil
	}

	finallies := b.exitedFinallies(region, g.block(target).first)
	if len(finallies) == 0 {
		b.log.Debug().
			Int("leave", b.instrs[g.block(leave).last].Offset).
			Msg("leave exits no finally; treated as goto")
		b.addEdge(Goto, leave, target)
		return nil
	}

	b.addLeaveEdge(BeginLeave, leave, g.region(finallies[0]).firstBlock, leave)
	for i, fin := range finallies {
		kind, succ := FinishLeave, target
		if i+1 < len(finallies) {
			kind, succ = ContinueLeave, g.region(finallies[i+1]).firstBlock
		}

		ends := 0
		for blk := range g.inclusiveBlocks(fin) {
			bd := g.block(blk)
			if b.instrs[bd.last].Code != il.Endfinally || g.enclosing(bd.region, Finally, Fault) != fin {
				continue
			}
			b.addLeaveEdge(kind, blk, succ, leave)
			ends++
		}
		if ends == 0 {
			b.log.Warn().
				Int("leave", b.instrs[g.block(leave).last].Offset).
				Int("clause", g.region(fin).clause).
				Msg("finally has no endfinally; leave chain truncated")
			return nil
		}
	}
	return nil
}

// exitedFinallies lists, innermost first, the finally handlers whose try
// regions enclose region but not the target instruction index.
func (b *builder) exitedFinallies(region RegionID, target int) []RegionID {
	g := b.g
	var out []RegionID
	for r := region; r.IsValid(); r = g.region(r).parent {
		rd := g.region(r)
		if rd.kind != Try {
			continue
		}
		if rd.start <= target && target < rd.end {
			break
		}
		if h := g.handlerOf(r); g.region(h).kind == Finally {
			out = append(out, h)
		}
	}
	return out
}
