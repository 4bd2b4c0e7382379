package il

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Document is the serialized form of one or more method bodies, as read from
// YAML or JSON files.
type Document struct {
	Methods []MethodDocument `yaml:"methods" json:"methods"`
}

// MethodDocument is the serialized form of a MethodBody.
type MethodDocument struct {
	Name         string                `yaml:"name" json:"name"`
	Instructions []InstructionDocument `yaml:"instructions" json:"instructions"`
	Clauses      []ClauseDocument      `yaml:"clauses,omitempty" json:"clauses,omitempty"`
}

// InstructionDocument is the serialized form of an Instruction.
type InstructionDocument struct {
	Offset  Offset   `yaml:"offset" json:"offset"`
	Op      string   `yaml:"op" json:"op"`
	Targets []Offset `yaml:"targets,omitempty" json:"targets,omitempty"`
	Operand string   `yaml:"operand,omitempty" json:"operand,omitempty"`
}

// ClauseDocument is the serialized form of a Clause. A missing handler_end
// means the handler runs to the end of the method.
type ClauseDocument struct {
	Kind         string  `yaml:"kind" json:"kind"`
	TryStart     Offset  `yaml:"try_start" json:"try_start"`
	TryEnd       Offset  `yaml:"try_end" json:"try_end"`
	FilterStart  *Offset `yaml:"filter_start,omitempty" json:"filter_start,omitempty"`
	HandlerStart Offset  `yaml:"handler_start" json:"handler_start"`
	HandlerEnd   *Offset `yaml:"handler_end,omitempty" json:"handler_end,omitempty"`
	CatchType    string  `yaml:"catch_type,omitempty" json:"catch_type,omitempty"`
}

// Offset decodes from an integer, an "IL_xxxx" label, or "end".
type Offset int

func (o *Offset) set(s string) error {
	v, err := ParseOffset(s)
	if err != nil {
		return err
	}
	*o = Offset(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *Offset) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: offset must be a scalar", value.Line)
	}
	if err := o.set(value.Value); err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Offset) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return o.set(s)
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("offset must be a number or label: %s", string(data))
	}
	return o.set(strconv.Itoa(n))
}

// DecodeYAML parses a YAML document into method bodies.
func DecodeYAML(data []byte) ([]*MethodBody, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Bodies()
}

// DecodeJSON parses a JSON document into method bodies.
func DecodeJSON(data []byte) ([]*MethodBody, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Bodies()
}

// Bodies converts the document into method bodies.
func (d Document) Bodies() ([]*MethodBody, error) {
	bodies := make([]*MethodBody, 0, len(d.Methods))
	for _, md := range d.Methods {
		body, err := md.Body()
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
	}
	return bodies, nil
}

// Body converts the document into a MethodBody.
func (md MethodDocument) Body() (*MethodBody, error) {
	body := &MethodBody{Name: md.Name}
	for _, id := range md.Instructions {
		ins := NewInstruction(int(id.Offset), id.Op)
		ins.Operand = id.Operand
		for _, t := range id.Targets {
			ins.Targets = append(ins.Targets, int(t))
		}
		body.Instructions = append(body.Instructions, ins)
	}
	for i, cd := range md.Clauses {
		kind, err := ParseClauseKind(cd.Kind)
		if err != nil {
			return nil, fmt.Errorf("method %s clause %d: %w", md.Name, i, err)
		}
		c := Clause{
			Kind:         kind,
			TryStart:     int(cd.TryStart),
			TryEnd:       int(cd.TryEnd),
			HandlerStart: int(cd.HandlerStart),
			HandlerEnd:   EndOfMethod,
			CatchType:    cd.CatchType,
		}
		if cd.HandlerEnd != nil {
			c.HandlerEnd = int(*cd.HandlerEnd)
		}
		if kind == ClauseFilter {
			if cd.FilterStart == nil {
				return nil, fmt.Errorf("method %s clause %d: filter clause needs filter_start", md.Name, i)
			}
			c.FilterStart = int(*cd.FilterStart)
		}
		body.Clauses = append(body.Clauses, c)
	}
	return body, nil
}

// NewDocument converts method bodies back into their serialized form.
func NewDocument(bodies ...*MethodBody) Document {
	var doc Document
	for _, b := range bodies {
		md := MethodDocument{Name: b.Name}
		for _, ins := range b.Instructions {
			id := InstructionDocument{Offset: Offset(ins.Offset), Op: ins.Mnemonic, Operand: ins.Operand}
			for _, t := range ins.Targets {
				id.Targets = append(id.Targets, Offset(t))
			}
			md.Instructions = append(md.Instructions, id)
		}
		for _, c := range b.Clauses {
			cd := ClauseDocument{
				Kind:         c.Kind.String(),
				TryStart:     Offset(c.TryStart),
				TryEnd:       Offset(c.TryEnd),
				HandlerStart: Offset(c.HandlerStart),
				CatchType:    c.CatchType,
			}
			if c.HandlerEnd != EndOfMethod {
				end := Offset(c.HandlerEnd)
				cd.HandlerEnd = &end
			}
			if c.Kind == ClauseFilter {
				fs := Offset(c.FilterStart)
				cd.FilterStart = &fs
			}
			md.Clauses = append(md.Clauses, cd)
		}
		doc.Methods = append(doc.Methods, md)
	}
	return doc
}
