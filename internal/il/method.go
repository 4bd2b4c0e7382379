package il

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// EndOfMethod marks a range end that runs to the end of the method body.
const EndOfMethod = math.MaxInt32

// ClauseKind is the kind of handler attached to a protected range.
type ClauseKind uint8

const (
	ClauseCatch ClauseKind = iota
	ClauseFinally
	ClauseFault
	ClauseFilter
)

func (k ClauseKind) String() string {
	switch k {
	case ClauseCatch:
		return "catch"
	case ClauseFinally:
		return "finally"
	case ClauseFault:
		return "fault"
	case ClauseFilter:
		return "filter"
	default:
		return "unknown"
	}
}

// ParseClauseKind maps a clause keyword to its kind.
func ParseClauseKind(s string) (ClauseKind, error) {
	switch s {
	case "catch":
		return ClauseCatch, nil
	case "finally":
		return ClauseFinally, nil
	case "fault":
		return ClauseFault, nil
	case "filter":
		return ClauseFilter, nil
	default:
		return 0, fmt.Errorf("unknown clause kind %q", s)
	}
}

// Clause is one exception-handling clause. All positions are instruction
// offsets; ends are exclusive and may be EndOfMethod.
type Clause struct {
	Kind         ClauseKind
	TryStart     int
	TryEnd       int
	HandlerStart int
	HandlerEnd   int
	// FilterStart is only meaningful for ClauseFilter. The filter condition
	// runs from FilterStart up to HandlerStart.
	FilterStart int
	// CatchType is the caught type name for ClauseCatch, informational only.
	CatchType string
}

// Protects reports whether offset lies inside the clause's try range.
func (c Clause) Protects(offset int) bool {
	return c.TryStart <= offset && offset < c.TryEnd
}

// MethodBody is the input to flow graph construction: an ordered instruction
// sequence plus its exception clause table. Clauses must be ordered so that
// an inner clause precedes any clause that encloses it.
type MethodBody struct {
	Name         string
	Instructions []Instruction
	Clauses      []Clause
}

// ErrInvalidMethod is the sentinel wrapped by every FormatError.
var ErrInvalidMethod = errors.New("invalid method body")

// FormatError describes a structural problem in a method body.
type FormatError struct {
	Method string
	// Clause is the index of the offending clause, or -1.
	Clause int
	// Offset is the offending offset, or -1.
	Offset int
	Reason string
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("method %s", e.Method)
	if e.Clause >= 0 {
		msg += fmt.Sprintf(" clause %d", e.Clause)
	}
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at %s", FormatOffset(e.Offset))
	}
	return msg + ": " + e.Reason
}

func (e *FormatError) Unwrap() error {
	return ErrInvalidMethod
}

// IndexOf returns the position of the instruction at offset.
func (m *MethodBody) IndexOf(offset int) (int, bool) {
	n := len(m.Instructions)
	i := sort.Search(n, func(i int) bool { return m.Instructions[i].Offset >= offset })
	if i < n && m.Instructions[i].Offset == offset {
		return i, true
	}
	return 0, false
}

// EndIndex resolves an exclusive range end to an instruction position. Ends
// past the last instruction resolve to len(Instructions).
func (m *MethodBody) EndIndex(offset int) (int, bool) {
	n := len(m.Instructions)
	if n > 0 && offset > m.Instructions[n-1].Offset {
		return n, true
	}
	return m.IndexOf(offset)
}

// Validate checks the structural requirements that flow graph construction
// relies on: non-empty, ordered offsets, branch targets that name
// instructions, and clause ranges that resolve to instruction boundaries.
func (m *MethodBody) Validate() error {
	fail := func(clause, offset int, format string, args ...interface{}) error {
		return &FormatError{Method: m.Name, Clause: clause, Offset: offset, Reason: fmt.Sprintf(format, args...)}
	}

	if len(m.Instructions) == 0 {
		return fail(-1, -1, "method has no instructions")
	}

	prev := -1
	for _, ins := range m.Instructions {
		if ins.Offset <= prev {
			return fail(-1, ins.Offset, "offsets must be strictly increasing")
		}
		prev = ins.Offset

		if ins.Code.HasTargets() != (len(ins.Targets) > 0) {
			if ins.Code == Switch {
				// A switch with no cases only falls through.
				continue
			}
			return fail(-1, ins.Offset, "%s has %d branch targets", ins.Mnemonic, len(ins.Targets))
		}
		if ins.Code != Switch && len(ins.Targets) > 1 {
			return fail(-1, ins.Offset, "%s has %d branch targets", ins.Mnemonic, len(ins.Targets))
		}
		for _, t := range ins.Targets {
			if _, ok := m.IndexOf(t); !ok {
				return fail(-1, ins.Offset, "branch target %s is not an instruction", FormatOffset(t))
			}
		}
	}

	for i, c := range m.Clauses {
		if err := m.validateRange(i, "try", c.TryStart, c.TryEnd); err != nil {
			return err
		}
		if err := m.validateRange(i, "handler", c.HandlerStart, c.HandlerEnd); err != nil {
			return err
		}
		if c.Kind == ClauseFilter {
			if err := m.validateRange(i, "filter", c.FilterStart, c.HandlerStart); err != nil {
				return err
			}
		}
		if c.HandlerStart < c.TryEnd && c.TryStart < c.HandlerEnd {
			return fail(i, c.HandlerStart, "handler overlaps its try range")
		}
	}
	return nil
}

func (m *MethodBody) validateRange(clause int, what string, start, end int) error {
	if _, ok := m.IndexOf(start); !ok {
		return &FormatError{Method: m.Name, Clause: clause, Offset: start,
			Reason: fmt.Sprintf("%s start is not an instruction", what)}
	}
	if _, ok := m.EndIndex(end); !ok {
		return &FormatError{Method: m.Name, Clause: clause, Offset: end,
			Reason: fmt.Sprintf("%s end is not an instruction boundary", what)}
	}
	if end <= start {
		return &FormatError{Method: m.Name, Clause: clause, Offset: start,
			Reason: fmt.Sprintf("%s range is empty", what)}
	}
	return nil
}
