package il

import "strings"

// Code classifies an instruction by its effect on control flow. Opcodes that
// only compute values are all Other; the distinctions that matter to a flow
// graph are the ones enumerated here.
type Code uint8

const (
	// Other is any opcode that falls through to the next instruction.
	Other Code = iota
	// Br is an unconditional branch (br, br.s).
	Br
	// CondBranch is a two-way conditional branch (brtrue, beq, blt.un.s, ...).
	CondBranch
	// Switch is a multi-way branch with an implicit fall-through default.
	Switch
	// Ret returns from the method.
	Ret
	// Jmp transfers control to another method (tail position).
	Jmp
	// Throw raises an exception.
	Throw
	// Rethrow re-raises the exception being handled.
	Rethrow
	// Leave exits one or more protected regions (leave, leave.s).
	Leave
	// Endfinally ends a finally or fault handler (endfinally, endfault).
	Endfinally
	// Endfilter ends a filter condition.
	Endfilter
)

// String returns the canonical mnemonic for the code
func (c Code) String() string {
	switch c {
	case Other:
		return "other"
	case Br:
		return "br"
	case CondBranch:
		return "cond-branch"
	case Switch:
		return "switch"
	case Ret:
		return "ret"
	case Jmp:
		return "jmp"
	case Throw:
		return "throw"
	case Rethrow:
		return "rethrow"
	case Leave:
		return "leave"
	case Endfinally:
		return "endfinally"
	case Endfilter:
		return "endfilter"
	default:
		return "unknown"
	}
}

var conditionalMnemonics = map[string]bool{
	"brtrue":  true,
	"brinst":  true,
	"brfalse": true,
	"brnull":  true,
	"brzero":  true,
	"beq":     true,
	"bne":     true,
	"bge":     true,
	"bgt":     true,
	"ble":     true,
	"blt":     true,
}

// LookupCode maps an instruction mnemonic to its Code. Short (".s") and
// unsigned (".un") suffixes are ignored, and lookup is case-insensitive.
func LookupCode(mnemonic string) Code {
	m := strings.ToLower(strings.TrimSpace(mnemonic))
	m = strings.TrimSuffix(m, ".s")
	m = strings.TrimSuffix(m, ".un")

	switch m {
	case "br":
		return Br
	case "switch":
		return Switch
	case "ret":
		return Ret
	case "jmp":
		return Jmp
	case "throw":
		return Throw
	case "rethrow":
		return Rethrow
	case "leave":
		return Leave
	case "endfinally", "endfault":
		return Endfinally
	case "endfilter":
		return Endfilter
	}
	if conditionalMnemonics[m] {
		return CondBranch
	}
	return Other
}

// HasTargets reports whether instructions with this code carry branch targets.
func (c Code) HasTargets() bool {
	switch c {
	case Br, CondBranch, Switch, Leave:
		return true
	default:
		return false
	}
}

// MayFallThrough reports whether execution can continue at the next
// instruction after an instruction with this code.
func (c Code) MayFallThrough() bool {
	switch c {
	case Br, Ret, Jmp, Leave, Endfinally, Endfilter, Throw, Rethrow:
		return false
	default:
		return true
	}
}

// MustFallThrough reports whether execution always continues at the next
// instruction (barring exceptions).
func (c Code) MustFallThrough() bool {
	return !c.HasTargets() && c.MayFallThrough()
}
