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

// ReachabilityFormatterImpl implements the ReachabilityFormatter interface
type ReachabilityFormatterImpl struct {
	useColor bool
}

// NewReachabilityFormatter creates a new reachability formatter
func NewReachabilityFormatter(useColor bool) *ReachabilityFormatterImpl {
	return &ReachabilityFormatterImpl{useColor: useColor}
}

// SetColor turns ANSI colors in text output on or off
func (f *ReachabilityFormatterImpl) SetColor(enabled bool) {
	f.useColor = enabled
}

// Format formats the response according to the specified format
func (f *ReachabilityFormatterImpl) Format(response *domain.ReachabilityResponse, format domain.OutputFormat) (string, error) {
	switch format {
	case domain.OutputFormatText:
		return f.formatText(response), nil
	case domain.OutputFormatJSON:
		return EncodeJSON(response)
	case domain.OutputFormatYAML:
		return EncodeYAML(response)
	case domain.OutputFormatCSV:
		return f.formatCSV(response)
	default:
		return "", domain.NewUnsupportedFormatError(string(format))
	}
}

// Write writes the formatted output to the writer
func (f *ReachabilityFormatterImpl) Write(response *domain.ReachabilityResponse, format domain.OutputFormat, writer io.Writer) error {
	formatted, err := f.Format(response, format)
	if err != nil {
		return err
	}
	_, err = io.WriteString(writer, formatted)
	return err
}

func (f *ReachabilityFormatterImpl) formatText(response *domain.ReachabilityResponse) string {
	var builder strings.Builder
	utils := NewFormatUtils(f.useColor)

	builder.WriteString(utils.FormatMainHeader("Exit Reachability Report"))
	s := response.Summary
	builder.WriteString(utils.FormatSummaryStats([]stat{
		{"Files", s.TotalFiles},
		{"Methods", s.TotalMethods},
		{"Failed Methods", s.FailedMethods},
		{"Methods With Unmarked", s.MethodsWithUnmarked},
		{"Blocks", s.TotalBlocks},
		{"Unmarked Blocks", s.UnmarkedBlocks},
		{"Marked", utils.FormatRatio(s.OverallMarkedRatio)},
	}))

	if len(response.Methods) > 0 {
		builder.WriteString(utils.FormatSectionHeader("Methods"))
	}
	for _, m := range response.Methods {
		fmt.Fprintf(&builder, "%s%s (%s): %d/%d blocks marked, %s\n",
			strings.Repeat(" ", SectionPadding), m.Name, m.FilePath,
			m.MarkedBlocks, m.TotalBlocks, utils.FormatRatio(m.MarkedRatio))
		for _, r := range m.Unmarked {
			fmt.Fprintf(&builder, "%s%s %s..%s (%s)\n",
				strings.Repeat(" ", ItemPadding), utils.colors.bad.Sprint("unmarked"),
				il.FormatOffset(r.StartOffset), il.FormatOffset(r.EndOffset), strings.Join(r.Blocks, ", "))
			for _, ins := range r.Instructions {
				builder.WriteString(strings.Repeat(" ", ItemPadding+2) + utils.colors.dimmed.Sprint(ins) + "\n")
			}
		}
	}
	if len(response.Methods) > 0 {
		builder.WriteString("\n")
	}

	builder.WriteString(utils.FormatWarningsSection(response.Warnings))
	builder.WriteString(utils.FormatErrorsSection(response.Errors))
	return builder.String()
}

// formatCSV writes one row per unmarked range. Methods without unmarked
// code get a single row with empty range columns.
func (f *ReachabilityFormatterImpl) formatCSV(response *domain.ReachabilityResponse) (string, error) {
	var builder strings.Builder
	w := csv.NewWriter(&builder)

	header := []string{"file", "method", "total_blocks", "marked_blocks", "marked_ratio", "unmarked_start", "unmarked_end", "unmarked_blocks"}
	if err := w.Write(header); err != nil {
		return "", domain.NewOutputError("failed to write CSV header", err)
	}
	for _, m := range response.Methods {
		base := []string{
			m.FilePath,
			m.Name,
			strconv.Itoa(m.TotalBlocks),
			strconv.Itoa(m.MarkedBlocks),
			strconv.FormatFloat(m.MarkedRatio, 'f', 3, 64),
		}
		if len(m.Unmarked) == 0 {
			if err := w.Write(append(base, "", "", "")); err != nil {
				return "", domain.NewOutputError("failed to write CSV record", err)
			}
			continue
		}
		for _, r := range m.Unmarked {
			record := append(append([]string(nil), base...),
				il.FormatOffset(r.StartOffset), il.FormatOffset(r.EndOffset), strings.Join(r.Blocks, " "))
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
