package il

import (
	"fmt"
	"strings"
)

// Instruction is a single decoded instruction of a method body.
type Instruction struct {
	// Offset identifies the instruction. Offsets are strictly increasing
	// within a method body but need not be contiguous.
	Offset int
	// Mnemonic is the opcode as written, e.g. "leave.s".
	Mnemonic string
	// Code is the control-flow classification of Mnemonic.
	Code Code
	// Targets lists branch destinations by offset. Switch instructions carry
	// one target per case, in case order.
	Targets []int
	// Operand is the raw operand text of non-branch instructions.
	Operand string
}

// NewInstruction builds an instruction and classifies its mnemonic.
func NewInstruction(offset int, mnemonic string, targets ...int) Instruction {
	return Instruction{
		Offset:   offset,
		Mnemonic: mnemonic,
		Code:     LookupCode(mnemonic),
		Targets:  targets,
	}
}

// MayFallThrough reports whether control can reach the next instruction.
func (i Instruction) MayFallThrough() bool {
	return i.Code.MayFallThrough()
}

// MustFallThrough reports whether control always reaches the next
// instruction and nowhere else.
func (i Instruction) MustFallThrough() bool {
	return len(i.Targets) == 0 && i.Code.MustFallThrough()
}

// String renders the instruction in assembly form.
func (i Instruction) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", FormatOffset(i.Offset), i.Mnemonic)
	switch {
	case i.Code == Switch:
		parts := make([]string, len(i.Targets))
		for n, t := range i.Targets {
			parts[n] = FormatOffset(t)
		}
		fmt.Fprintf(&sb, " (%s)", strings.Join(parts, ", "))
	case len(i.Targets) > 0:
		fmt.Fprintf(&sb, " %s", FormatOffset(i.Targets[0]))
	case i.Operand != "":
		fmt.Fprintf(&sb, " %s", i.Operand)
	}
	return sb.String()
}

// FormatOffset renders an offset as an IL label.
func FormatOffset(offset int) string {
	if offset == EndOfMethod {
		return "end"
	}
	return fmt.Sprintf("IL_%04x", offset)
}
