package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ludo-technologies/cilflow/domain"
	"github.com/ludo-technologies/cilflow/internal/il"
)

// FlowGraphFormatterImpl implements the FlowGraphFormatter interface
type FlowGraphFormatterImpl struct {
	useColor bool
}

// NewFlowGraphFormatter creates a new flow graph formatter. useColor only
// affects text output.
func NewFlowGraphFormatter(useColor bool) *FlowGraphFormatterImpl {
	return &FlowGraphFormatterImpl{useColor: useColor}
}

// SetColor turns ANSI colors in text output on or off
func (f *FlowGraphFormatterImpl) SetColor(enabled bool) {
	f.useColor = enabled
}

// Format formats the response according to the specified format
func (f *FlowGraphFormatterImpl) Format(response *domain.FlowGraphResponse, format domain.OutputFormat) (string, error) {
	switch format {
	case domain.OutputFormatText:
		return f.formatText(response), nil
	case domain.OutputFormatJSON:
		return EncodeJSON(response)
	case domain.OutputFormatYAML:
		return EncodeYAML(response)
	case domain.OutputFormatCSV:
		return f.formatCSV(response)
	case domain.OutputFormatDOT:
		return f.formatDOT(response), nil
	default:
		return "", domain.NewUnsupportedFormatError(string(format))
	}
}

// Write writes the formatted output to the writer
func (f *FlowGraphFormatterImpl) Write(response *domain.FlowGraphResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	}
	formatted, err := f.Format(response, format)
	if err != nil {
		return err
	}
	_, err = io.WriteString(writer, formatted)
	return err
}

func (f *FlowGraphFormatterImpl) formatText(response *domain.FlowGraphResponse) string {
	var builder strings.Builder
	utils := NewFormatUtils(f.useColor)

	builder.WriteString(utils.FormatMainHeader("Control Flow Graph Report"))
	builder.WriteString(utils.FormatSummaryStats([]stat{
		{"Files", response.Summary.TotalFiles},
		{"Methods", response.Summary.TotalMethods},
		{"Failed Methods", response.Summary.FailedMethods},
		{"Blocks", response.Summary.TotalBlocks},
		{"Edges", response.Summary.TotalEdges},
		{"Regions", response.Summary.TotalRegions},
	}))

	for i := range response.Methods {
		f.writeMethodText(&builder, utils, &response.Methods[i])
	}

	builder.WriteString(utils.FormatWarningsSection(response.Warnings))
	builder.WriteString(utils.FormatErrorsSection(response.Errors))
	return builder.String()
}

func (f *FlowGraphFormatterImpl) writeMethodText(b *strings.Builder, utils *FormatUtils, m *domain.MethodFlowGraph) {
	b.WriteString(utils.FormatSectionHeader("Method " + m.Name))
	b.WriteString(utils.FormatLabelWithIndent(SectionPadding, "File", m.FilePath))
	b.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Blocks",
		fmt.Sprintf("%d (%d handler entries)", m.Stats.Blocks, m.Stats.HandlerBlocks)))
	b.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Edges",
		fmt.Sprintf("%d (%d exception, %d leave)", m.Stats.Edges, m.Stats.ExceptionEdges, m.Stats.LeaveEdges)))
	if m.Stats.Loops > 0 {
		b.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Loops", m.Stats.Loops))
	}

	if len(m.Regions) > 0 {
		b.WriteString(strings.Repeat(" ", SectionPadding) + "Regions:\n")
		depth := regionDepths(m.Regions)
		for _, r := range m.Regions {
			indent := strings.Repeat("  ", depth[r.ID])
			line := fmt.Sprintf("%s%s %s [%s, %s) clause %d",
				indent, r.ID, r.Kind, il.FormatOffset(r.StartOffset), regionEnd(r), r.Clause)
			if r.CatchType != "" {
				line += " catches " + r.CatchType
			}
			b.WriteString(strings.Repeat(" ", ItemPadding) + line + "\n")
		}
	}

	succ := make(map[string][]domain.EdgeInfo)
	for _, e := range m.Edges {
		succ[e.From] = append(succ[e.From], e)
	}

	b.WriteString(strings.Repeat(" ", SectionPadding) + "Blocks:\n")
	for _, blk := range m.Blocks {
		name := blk.ID
		if blk.Handler {
			name = utils.colors.handler.Sprint(blk.ID)
		}
		line := fmt.Sprintf("%s %s..%s", name, il.FormatOffset(blk.StartOffset), il.FormatOffset(blk.EndOffset))
		if blk.Region != "" {
			line += " in " + blk.Region
		}
		if blk.HandlerRegion != "" {
			line += " (entry of " + blk.HandlerRegion + ")"
		}
		if blk.ImmediateDominator != "" {
			line += " idom " + blk.ImmediateDominator
		}
		b.WriteString(strings.Repeat(" ", ItemPadding) + line + "\n")

		for _, ins := range blk.Instructions {
			b.WriteString(strings.Repeat(" ", ItemPadding+4) + utils.colors.dimmed.Sprint(ins) + "\n")
		}
		for _, e := range succ[blk.ID] {
			b.WriteString(strings.Repeat(" ", ItemPadding+2) + "-> " + e.To + " " + edgeLabel(e) + "\n")
		}
	}
	b.WriteString("\n")
}

func (f *FlowGraphFormatterImpl) formatCSV(response *domain.FlowGraphResponse) (string, error) {
	var builder strings.Builder
	w := csv.NewWriter(&builder)

	header := []string{"file", "method", "edge", "kind", "from", "to", "exception_kinds", "leave_block"}
	if err := w.Write(header); err != nil {
		return "", domain.NewOutputError("failed to write CSV header", err)
	}
	for _, m := range response.Methods {
		for _, e := range m.Edges {
			record := []string{
				m.FilePath,
				m.Name,
				e.ID,
				e.Kind,
				e.From,
				e.To,
				strings.Join(e.ExceptionKinds, "|"),
				e.LeaveBlock,
			}
			if err := w.Write(record); err != nil {
				return "", domain.NewOutputError("failed to write CSV record", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", domain.NewOutputError("failed to flush CSV", err)
	}
	return builder.String(), nil
}

// formatDOT renders one Graphviz digraph per method. Regions become nested
// clusters; exception edges are dashed and leave edges dotted.
func (f *FlowGraphFormatterImpl) formatDOT(response *domain.FlowGraphResponse) string {
	var b strings.Builder
	for _, m := range response.Methods {
		fmt.Fprintf(&b, "digraph %s {\n", strconv.Quote(m.Name))
		b.WriteString("  node [shape=box, fontname=\"monospace\"];\n")

		children := make(map[string][]string)
		for _, r := range m.Regions {
			children[r.Parent] = append(children[r.Parent], r.ID)
		}
		members := make(map[string][]domain.BlockInfo)
		for _, blk := range m.Blocks {
			members[blk.Region] = append(members[blk.Region], blk)
		}
		regions := make(map[string]domain.RegionInfo, len(m.Regions))
		for _, r := range m.Regions {
			regions[r.ID] = r
		}

		var cluster func(id string, depth int)
		cluster = func(id string, depth int) {
			indent := strings.Repeat("  ", depth)
			if id != "" {
				r := regions[id]
				fmt.Fprintf(&b, "%ssubgraph %s {\n", indent, strconv.Quote("cluster_"+id))
				fmt.Fprintf(&b, "%s  label=%s;\n", indent, strconv.Quote(id+" "+r.Kind))
				indent += "  "
			}
			for _, blk := range members[id] {
				label := blk.ID + "\\n" + il.FormatOffset(blk.StartOffset) + ".." + il.FormatOffset(blk.EndOffset)
				for _, ins := range blk.Instructions {
					label += "\\l" + strings.ReplaceAll(ins, `"`, `\"`)
				}
				if len(blk.Instructions) > 0 {
					label += "\\l"
				}
				attrs := "label=\"" + label + "\""
				if blk.Handler {
					attrs += ", style=bold"
				}
				fmt.Fprintf(&b, "%s%s [%s];\n", indent, strconv.Quote(blk.ID), attrs)
			}
			for _, child := range children[id] {
				cluster(child, strings.Count(indent, "  "))
			}
			if id != "" {
				fmt.Fprintf(&b, "%s}\n", indent[:len(indent)-2])
			}
		}
		cluster("", 1)

		for _, e := range m.Edges {
			attrs := []string{"label=" + strconv.Quote(dotEdgeLabel(e))}
			switch {
			case e.Kind == "exception":
				attrs = append(attrs, "style=dashed", "color=red")
			case e.LeaveBlock != "":
				attrs = append(attrs, "style=dotted", "color=blue")
			}
			fmt.Fprintf(&b, "  %s -> %s [%s];\n", strconv.Quote(e.From), strconv.Quote(e.To), strings.Join(attrs, ", "))
		}
		b.WriteString("}\n")
	}
	return b.String()
}

func edgeLabel(e domain.EdgeInfo) string {
	label := "[" + e.Kind
	if len(e.ExceptionKinds) > 0 {
		label += ": " + strings.Join(e.ExceptionKinds, ", ")
	}
	if e.LeaveBlock != "" {
		label += " from leave in " + e.LeaveBlock
	}
	return label + "]"
}

func dotEdgeLabel(e domain.EdgeInfo) string {
	if len(e.ExceptionKinds) > 0 {
		return strings.Join(e.ExceptionKinds, "\n")
	}
	return e.Kind
}

func regionEnd(r domain.RegionInfo) string {
	if r.Unbounded {
		return il.FormatOffset(il.EndOfMethod)
	}
	return il.FormatOffset(r.EndOffset)
}

// regionDepths returns the nesting depth of each region
func regionDepths(regions []domain.RegionInfo) map[string]int {
	parent := make(map[string]string, len(regions))
	for _, r := range regions {
		parent[r.ID] = r.Parent
	}
	depth := make(map[string]int, len(regions))
	for id := range parent {
		for p := parent[id]; p != ""; p = parent[p] {
			depth[id]++
		}
	}
	return depth
}
