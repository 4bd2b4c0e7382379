package flowgraph

import "strings"

// EdgeKind is the kind of transfer an edge represents.
type EdgeKind uint8

const (
	// Goto is an unconditional branch, or a leave that exits no finally.
	Goto EdgeKind = iota
	// FallThrough continues at the next block.
	FallThrough
	// TakenConditional is the branch side of a conditional branch.
	TakenConditional
	// UntakenConditional is the fall-through side of a conditional branch.
	UntakenConditional
	// SwitchCase is one case of a switch.
	SwitchCase
	// SwitchDefault is the fall-through side of a switch.
	SwitchDefault
	// Exception is an exception dispatch edge; see ExceptionEdgeKinds.
	Exception
	// BeginLeave enters the innermost finally exited by a leave.
	BeginLeave
	// ContinueLeave runs from an endfinally to the next finally exited.
	ContinueLeave
	// FinishLeave runs from an endfinally to the leave target.
	FinishLeave

	// NoEdgeKind is reported for an edge view that refers to no edge.
	NoEdgeKind EdgeKind = 0xff
)

func (k EdgeKind) String() string {
	switch k {
	case Goto:
		return "goto"
	case FallThrough:
		return "fall-through"
	case TakenConditional:
		return "taken"
	case UntakenConditional:
		return "untaken"
	case SwitchCase:
		return "switch-case"
	case SwitchDefault:
		return "switch-default"
	case Exception:
		return "exception"
	case BeginLeave:
		return "begin-leave"
	case ContinueLeave:
		return "continue-leave"
	case FinishLeave:
		return "finish-leave"
	case NoEdgeKind:
		return "none"
	default:
		return "unknown"
	}
}

// IsLeave reports whether the kind belongs to a leave edge.
func (k EdgeKind) IsLeave() bool {
	return k == BeginLeave || k == ContinueLeave || k == FinishLeave
}

// RegionKind is the role a region plays within its clause.
type RegionKind uint8

const (
	Try RegionKind = iota
	Catch
	Finally
	Fault
	// FilterCondition is the code that decides whether a filter matches.
	FilterCondition
	// FilterHandler is the handler body run when a filter matches.
	FilterHandler

	// NoRegionKind is reported for a region view that refers to no region.
	NoRegionKind RegionKind = 0xff
)

func (k RegionKind) String() string {
	switch k {
	case Try:
		return "try"
	case Catch:
		return "catch"
	case Finally:
		return "finally"
	case Fault:
		return "fault"
	case FilterCondition:
		return "filter"
	case FilterHandler:
		return "filter-handler"
	case NoRegionKind:
		return "none"
	default:
		return "unknown"
	}
}

// IsHandler reports whether regions of this kind receive exceptions.
func (k RegionKind) IsHandler() bool { return k >= Catch && k <= FilterHandler }

// DispatchPass selects one of the two passes of exception dispatch. The
// first pass searches for a handler and runs filters; the second unwinds,
// running finally and fault handlers on the way to the chosen handler.
type DispatchPass uint8

const (
	FirstPass DispatchPass = iota + 1
	SecondPass
)

func (p DispatchPass) String() string {
	switch p {
	case FirstPass:
		return "first"
	case SecondPass:
		return "second"
	default:
		return "unknown"
	}
}

// ExceptionEdgeKinds is the set of dispatch scenarios an exception edge
// stands for. Scenarios that share a predecessor and successor are merged
// into one edge.
type ExceptionEdgeKinds uint16

const (
	// RaiseException: an instruction in the block raises.
	RaiseException ExceptionEdgeKinds = 1 << iota
	// CatchWrongType: the first pass skips a catch whose type does not match.
	CatchWrongType
	// BypassCatch: the second pass unwinds past a catch.
	BypassCatch
	// BypassFault: the first pass looks past a fault handler.
	BypassFault
	// EndFault: a fault handler finishes and unwinding continues.
	EndFault
	// BypassFinally: the first pass looks past a finally handler.
	BypassFinally
	// EndFinally: a finally handler finishes and unwinding continues.
	EndFinally
	// FilterMatch: a filter accepts and its handler is chosen.
	FilterMatch
	// FilterFail: a filter rejects and the first pass continues.
	FilterFail
	// FilterRewind: the second pass runs inner fault and finally handlers
	// after a filter matched.
	FilterRewind
	// BypassFilterHandler: the second pass unwinds past a filter handler.
	BypassFilterHandler
)

// Groupings of ExceptionEdgeKinds.
const (
	// HeadKinds originate at the first block of a handler.
	HeadKinds = CatchWrongType | BypassCatch | BypassFault | BypassFinally | FilterRewind | BypassFilterHandler
	// TailKinds originate at the block that ends a handler or filter.
	TailKinds = EndFault | EndFinally | FilterMatch | FilterFail
	// InstructionKinds originate at any block that can raise.
	InstructionKinds = RaiseException

	FirstPassKinds      = CatchWrongType | BypassFault | BypassFinally | FilterFail
	SecondPassKinds     = BypassCatch | EndFault | EndFinally | BypassFilterHandler
	PassTransitionKinds = RaiseException | FilterMatch | FilterRewind
)

var exceptionKindNames = []string{
	"raise",
	"catch-wrong-type",
	"bypass-catch",
	"bypass-fault",
	"end-fault",
	"bypass-finally",
	"end-finally",
	"filter-match",
	"filter-fail",
	"filter-rewind",
	"bypass-filter-handler",
}

// Has reports whether every kind in other is present.
func (k ExceptionEdgeKinds) Has(other ExceptionEdgeKinds) bool { return k&other == other }

// Any reports whether any kind in other is present.
func (k ExceptionEdgeKinds) Any(other ExceptionEdgeKinds) bool { return k&other != 0 }

// Sources classifies the kinds by where in the predecessor block they arise.
func (k ExceptionEdgeKinds) Sources() ExceptionEdgeSources {
	var s ExceptionEdgeSources
	if k.Any(InstructionKinds) {
		s |= SourceInstruction
	}
	if k.Any(HeadKinds) {
		s |= SourceHead
	}
	if k.Any(TailKinds) {
		s |= SourceTail
	}
	return s
}

// Names lists the scenario names present in k, in bit order.
func (k ExceptionEdgeKinds) Names() []string {
	var names []string
	for i, name := range exceptionKindNames {
		if k&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return names
}

func (k ExceptionEdgeKinds) String() string {
	if k == 0 {
		return "none"
	}
	return strings.Join(k.Names(), "|")
}

// ExceptionEdgeSources says whether an exception edge arises from an
// arbitrary instruction, from the head of a handler, or from the instruction
// that ends a handler.
type ExceptionEdgeSources uint8

const (
	SourceInstruction ExceptionEdgeSources = 1 << iota
	SourceHead
	SourceTail
)

func (s ExceptionEdgeSources) String() string {
	var parts []string
	if s&SourceInstruction != 0 {
		parts = append(parts, "instruction")
	}
	if s&SourceHead != 0 {
		parts = append(parts, "head")
	}
	if s&SourceTail != 0 {
		parts = append(parts, "tail")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// LexicalRelation relates the instruction extents of two regions.
type LexicalRelation int8

const (
	// Before: the first region ends at or before the second starts.
	Before LexicalRelation = iota + 1
	// After: the first region starts at or after the second ends.
	After
	// Inside: the first region lies within the second.
	Inside
	// Outside: the first region contains the second.
	Outside
	// Same: both regions cover the same instructions.
	Same
	// overlapping is a partial overlap, which well-formed input never has.
	overlapping
)

func (r LexicalRelation) String() string {
	switch r {
	case Before:
		return "before"
	case After:
		return "after"
	case Inside:
		return "inside"
	case Outside:
		return "outside"
	case Same:
		return "same"
	case overlapping:
		return "overlapping"
	default:
		return "unknown"
	}
}
