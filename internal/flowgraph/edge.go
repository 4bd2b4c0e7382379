package flowgraph

import "fmt"

// Edge is a view of a directed edge between two blocks. The zero Edge is
// invalid.
type Edge struct {
	g  *Graph
	id EdgeID
}

// ExceptionEdge is an edge of kind Exception, carrying the dispatch
// scenarios it stands for.
type ExceptionEdge struct {
	Edge
}

// LeaveEdge is an edge of kind BeginLeave, ContinueLeave or FinishLeave,
// carrying the block of the leave it was synthesized for.
type LeaveEdge struct {
	Edge
}

// ID returns the edge's handle.
func (e Edge) ID() EdgeID { return e.id }

// Valid reports whether the view refers to an edge.
func (e Edge) Valid() bool { return e.g != nil && e.g.hasEdge(e.id) }

// Kind returns the edge kind. Invalid edges report NoEdgeKind.
func (e Edge) Kind() EdgeKind {
	if !e.Valid() {
		return NoEdgeKind
	}
	return e.g.edge(e.id).kind
}

// Predecessor returns the block the edge leaves.
func (e Edge) Predecessor() Block {
	if !e.Valid() {
		return Block{}
	}
	return Block{g: e.g, id: e.g.edge(e.id).pred}
}

// Successor returns the block the edge enters.
func (e Edge) Successor() Block {
	if !e.Valid() {
		return Block{}
	}
	return Block{g: e.g, id: e.g.edge(e.id).succ}
}

// AsException narrows the view to an ExceptionEdge.
func (e Edge) AsException() (ExceptionEdge, bool) {
	if !e.Valid() || !e.id.IsException() {
		return ExceptionEdge{}, false
	}
	return ExceptionEdge{e}, true
}

// AsLeave narrows the view to a LeaveEdge.
func (e Edge) AsLeave() (LeaveEdge, bool) {
	if !e.Valid() || !e.id.IsLeave() {
		return LeaveEdge{}, false
	}
	return LeaveEdge{e}, true
}

// Kinds returns the dispatch scenarios merged into the edge.
func (e ExceptionEdge) Kinds() ExceptionEdgeKinds {
	if !e.Valid() {
		return 0
	}
	return e.g.exceptionEdges.at(e.id.index()).kinds
}

// Sources classifies where in the predecessor the edge's scenarios arise.
func (e ExceptionEdge) Sources() ExceptionEdgeSources {
	return e.Kinds().Sources()
}

// LeaveBlock returns the block whose leave instruction the edge belongs to.
func (e LeaveEdge) LeaveBlock() Block {
	if !e.Valid() {
		return Block{}
	}
	return Block{g: e.g, id: e.g.leaveEdges.at(e.id.index()).leaveBlock}
}

func (e Edge) String() string {
	if !e.Valid() {
		return "edge(none)"
	}
	d := e.g.edge(e.id)
	if x, ok := e.AsException(); ok {
		return fmt.Sprintf("%s -%s(%s)-> %s", d.pred, d.kind, x.Kinds(), d.succ)
	}
	if l, ok := e.AsLeave(); ok {
		return fmt.Sprintf("%s -%s(%s)-> %s", d.pred, d.kind, l.LeaveBlock().ID(), d.succ)
	}
	return fmt.Sprintf("%s -%s-> %s", d.pred, d.kind, d.succ)
}
