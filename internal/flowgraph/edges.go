package flowgraph

import "github.com/ludo-technologies/cilflow/internal/il"

// connect adds every edge of the graph. Ordinary and leave edges for all
// blocks come first, then exception edges.
func (b *builder) connect() error {
	g := b.g
	for _, id := range g.blockOrder {
		if err := b.addNormalEdges(id); err != nil {
			return err
		}
	}
	for _, id := range g.blockOrder {
		if err := b.addExceptionEdges(id); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) addNormalEdges(id BlockID) error {
	g := b.g
	data := g.block(id)
	last := b.instrs[data.last]
	next := data.next

	fallTo := func(kind EdgeKind) error {
		if !next.IsValid() {
			return b.fail(data.last, "control falls off the end of the method")
		}
		b.addEdge(kind, id, next)
		return nil
	}

	switch last.Code {
	case il.Br:
		b.addEdge(Goto, id, b.targetBlock(last.Targets[0]))
	case il.Leave:
		return b.addLeaveEdges(id, b.targetBlock(last.Targets[0]))
	case il.CondBranch:
		b.addEdge(TakenConditional, id, b.targetBlock(last.Targets[0]))
		return fallTo(UntakenConditional)
	case il.Switch:
		for _, t := range last.Targets {
			b.addEdge(SwitchCase, id, b.targetBlock(t))
		}
		return fallTo(SwitchDefault)
	case il.Ret, il.Jmp, il.Throw, il.Rethrow, il.Endfinally, il.Endfilter:
	default:
		return fallTo(FallThrough)
	}
	return nil
}

// targetBlock returns the block starting at a branch target.
func (b *builder) targetBlock(offset int) BlockID {
	idx, _ := b.g.method.IndexOf(offset)
	return b.g.blockContaining(idx)
}

// addEdge allocates an ordinary edge and links it at the head of both
// adjacency lists, so the lists enumerate newest first.
func (b *builder) addEdge(kind EdgeKind, pred, succ BlockID) EdgeID {
	id := makeEdgeID(plainEdgeSpace, b.g.edges.alloc(edgeData{kind: kind, pred: pred, succ: succ}))
	b.link(id)
	return id
}

func (b *builder) addLeaveEdge(kind EdgeKind, pred, succ, leave BlockID) EdgeID {
	id := makeEdgeID(leaveEdgeSpace, b.g.leaveEdges.alloc(leaveEdgeData{
		edgeData:   edgeData{kind: kind, pred: pred, succ: succ},
		leaveBlock: leave,
	}))
	b.link(id)
	return id
}

// addExceptionEdge merges kinds into an existing exception edge between pred
// and succ, or allocates one.
func (b *builder) addExceptionEdge(pred, succ BlockID, kinds ExceptionEdgeKinds) EdgeID {
	g := b.g
	for e := g.block(pred).firstSucc; e.IsValid(); e = g.edge(e).nextSucc {
		if e.IsException() && g.edge(e).succ == succ {
			g.exceptionEdges.at(e.index()).kinds |= kinds
			return e
		}
	}
	id := makeEdgeID(exceptionEdgeSpace, g.exceptionEdges.alloc(exceptionEdgeData{
		edgeData: edgeData{kind: Exception, pred: pred, succ: succ},
		kinds:    kinds,
	}))
	b.link(id)
	return id
}

func (b *builder) link(id EdgeID) {
	g := b.g
	e := g.edge(id)
	pred, succ := g.block(e.pred), g.block(e.succ)
	e.nextSucc = pred.firstSucc
	pred.firstSucc = id
	e.nextPred = succ.firstPred
	succ.firstPred = id
}
