package il

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseAssembly reads methods written in the textual listing format:
//
//	.method Example
//	  IL_0000: nop
//	  IL_0001: leave.s IL_0006
//	  IL_0003: switch (IL_0000, IL_0001)
//	  .try IL_0000 to IL_0003 catch System.Exception handler IL_0003 to IL_0006
//	  .try IL_0000 to IL_0003 filter IL_0003 handler IL_0005 to end
//	.end
//
// Offsets are either IL_ labels (hexadecimal) or decimal integers. Text after
// "//" is ignored. Clause lines may appear anywhere inside the method and are
// kept in the order written.
func ParseAssembly(r io.Reader) ([]*MethodBody, error) {
	p := &asmParser{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		p.line++
		if err := p.parseLine(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if p.current != nil {
		return nil, p.errorf("method %s is missing .end", p.current.Name)
	}
	return p.methods, nil
}

type asmParser struct {
	line    int
	current *MethodBody
	methods []*MethodBody
}

func (p *asmParser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %s", p.line, fmt.Sprintf(format, args...))
}

func (p *asmParser) parseLine(raw string) error {
	if i := strings.Index(raw, "//"); i >= 0 {
		raw = raw[:i]
	}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case ".method":
		if p.current != nil {
			return p.errorf("nested .method")
		}
		if len(fields) != 2 {
			return p.errorf(".method takes exactly one name")
		}
		p.current = &MethodBody{Name: fields[1]}
		return nil
	case ".end":
		if p.current == nil {
			return p.errorf(".end outside of a method")
		}
		p.methods = append(p.methods, p.current)
		p.current = nil
		return nil
	}

	if p.current == nil {
		return p.errorf("statement outside of a method")
	}
	if fields[0] == ".try" {
		c, err := p.parseClause(fields[1:])
		if err != nil {
			return err
		}
		p.current.Clauses = append(p.current.Clauses, c)
		return nil
	}
	ins, err := p.parseInstruction(raw)
	if err != nil {
		return err
	}
	p.current.Instructions = append(p.current.Instructions, ins)
	return nil
}

func (p *asmParser) parseInstruction(raw string) (Instruction, error) {
	label, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return Instruction{}, p.errorf("expected \"<offset>: <opcode>\"")
	}
	offset, err := ParseOffset(strings.TrimSpace(label))
	if err != nil {
		return Instruction{}, p.errorf("%v", err)
	}
	rest = strings.TrimSpace(rest)
	mnemonic, operand, _ := strings.Cut(rest, " ")
	if mnemonic == "" {
		return Instruction{}, p.errorf("missing opcode")
	}
	ins := NewInstruction(offset, mnemonic)
	operand = strings.TrimSpace(operand)

	if !ins.Code.HasTargets() {
		ins.Operand = operand
		return ins, nil
	}
	operand = strings.TrimSuffix(strings.TrimPrefix(operand, "("), ")")
	for _, tok := range strings.FieldsFunc(operand, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
		t, err := ParseOffset(tok)
		if err != nil {
			return Instruction{}, p.errorf("%s: %v", mnemonic, err)
		}
		ins.Targets = append(ins.Targets, t)
	}
	return ins, nil
}

// parseClause parses the tail of a ".try" line.
func (p *asmParser) parseClause(f []string) (Clause, error) {
	var c Clause
	next := func() (string, error) {
		if len(f) == 0 {
			return "", p.errorf("truncated .try clause")
		}
		tok := f[0]
		f = f[1:]
		return tok, nil
	}
	expect := func(word string) error {
		tok, err := next()
		if err != nil {
			return err
		}
		if tok != word {
			return p.errorf("expected %q, found %q", word, tok)
		}
		return nil
	}
	offset := func() (int, error) {
		tok, err := next()
		if err != nil {
			return 0, err
		}
		v, err := ParseOffset(tok)
		if err != nil {
			return 0, p.errorf("%v", err)
		}
		return v, nil
	}

	var err error
	if c.TryStart, err = offset(); err != nil {
		return c, err
	}
	if err = expect("to"); err != nil {
		return c, err
	}
	if c.TryEnd, err = offset(); err != nil {
		return c, err
	}
	kind, err := next()
	if err != nil {
		return c, err
	}
	if c.Kind, err = ParseClauseKind(kind); err != nil {
		return c, p.errorf("%v", err)
	}
	switch c.Kind {
	case ClauseCatch:
		if len(f) > 0 && f[0] != "handler" {
			c.CatchType = f[0]
			f = f[1:]
		}
	case ClauseFilter:
		if c.FilterStart, err = offset(); err != nil {
			return c, err
		}
	}
	if err = expect("handler"); err != nil {
		return c, err
	}
	if c.HandlerStart, err = offset(); err != nil {
		return c, err
	}
	if err = expect("to"); err != nil {
		return c, err
	}
	if c.HandlerEnd, err = offset(); err != nil {
		return c, err
	}
	if len(f) != 0 {
		return c, p.errorf("unexpected %q after clause", f[0])
	}
	return c, nil
}

// ParseOffset accepts "IL_00ff", a decimal integer, or "end".
func ParseOffset(s string) (int, error) {
	if s == "end" {
		return EndOfMethod, nil
	}
	if hex, ok := strings.CutPrefix(s, "IL_"); ok {
		v, err := strconv.ParseInt(hex, 16, 32)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid offset %q", s)
		}
		return int(v), nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	return v, nil
}
