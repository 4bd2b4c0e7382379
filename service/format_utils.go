package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/cilflow/domain"
)

// EncodeJSON returns an indented JSON string for the given value.
func EncodeJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", domain.NewOutputError("failed to marshal JSON", err)
	}
	return string(data) + "\n", nil
}

// WriteJSON writes indented JSON for the given value to the writer.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return domain.NewOutputError("failed to encode JSON", err)
	}
	return nil
}

// EncodeYAML returns a YAML string for the given value.
func EncodeYAML(v interface{}) (string, error) {
	var sb strings.Builder
	if err := WriteYAML(&sb, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteYAML writes YAML for the given value to the writer.
func WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return domain.NewOutputError("failed to encode YAML", err)
	}
	return nil
}

// Standard formatting constants
const (
	HeaderWidth    = 40
	LabelWidth     = 25
	SectionPadding = 2
	ItemPadding    = 4
)

// palette holds the colors used by text reports
type palette struct {
	header  *color.Color
	label   *color.Color
	good    *color.Color
	warn    *color.Color
	bad     *color.Color
	dimmed  *color.Color
	handler *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		header:  color.New(color.Bold),
		label:   color.New(color.FgCyan),
		good:    color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		bad:     color.New(color.FgRed, color.Bold),
		dimmed:  color.New(color.Faint),
		handler: color.New(color.FgMagenta),
	}
	for _, c := range []*color.Color{p.header, p.label, p.good, p.warn, p.bad, p.dimmed, p.handler} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// stat is one labelled line of a summary section
type stat struct {
	label string
	value interface{}
}

// FormatUtils provides shared formatting utilities
type FormatUtils struct {
	colors *palette
}

// NewFormatUtils creates a new format utilities instance
func NewFormatUtils(useColor bool) *FormatUtils {
	return &FormatUtils{colors: newPalette(useColor)}
}

// FormatMainHeader creates a standardized main header
func (f *FormatUtils) FormatMainHeader(title string) string {
	var builder strings.Builder
	builder.WriteString(f.colors.header.Sprint(title) + "\n")
	builder.WriteString(strings.Repeat("=", HeaderWidth) + "\n\n")
	return builder.String()
}

// FormatSectionHeader creates a standardized section header
func (f *FormatUtils) FormatSectionHeader(title string) string {
	var builder strings.Builder
	builder.WriteString(f.colors.header.Sprint(strings.ToUpper(title)) + "\n")
	builder.WriteString(strings.Repeat("-", len(title)) + "\n")
	return builder.String()
}

// FormatLabelWithIndent creates a formatted label with specific indentation
func (f *FormatUtils) FormatLabelWithIndent(indent int, label string, value interface{}) string {
	return fmt.Sprintf("%s%s: %v\n", strings.Repeat(" ", indent), f.colors.label.Sprint(label), value)
}

// FormatPercentage formats a ratio in [0,1] as a percentage
func (f *FormatUtils) FormatPercentage(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatRatio colors a marked ratio by how much of the method is dead
func (f *FormatUtils) FormatRatio(ratio float64) string {
	text := f.FormatPercentage(ratio)
	switch {
	case ratio >= 1:
		return f.colors.good.Sprint(text)
	case ratio >= 0.5:
		return f.colors.warn.Sprint(text)
	default:
		return f.colors.bad.Sprint(text)
	}
}

// FormatSummaryStats renders a summary section in the given order
func (f *FormatUtils) FormatSummaryStats(stats []stat) string {
	var builder strings.Builder
	builder.WriteString(f.FormatSectionHeader("Summary"))
	for _, s := range stats {
		builder.WriteString(f.FormatLabelWithIndent(SectionPadding, s.label, s.value))
	}
	builder.WriteString("\n")
	return builder.String()
}

// FormatWarningsSection creates a standardized warnings section
func (f *FormatUtils) FormatWarningsSection(warnings []string) string {
	return f.formatMessages("Warnings", warnings, f.colors.warn)
}

// FormatErrorsSection lists the methods that could not be processed
func (f *FormatUtils) FormatErrorsSection(errs []string) string {
	return f.formatMessages("Errors", errs, f.colors.bad)
}

func (f *FormatUtils) formatMessages(title string, messages []string, c *color.Color) string {
	if len(messages) == 0 {
		return ""
	}
	var builder strings.Builder
	builder.WriteString(f.FormatSectionHeader(title))
	for _, m := range messages {
		builder.WriteString(strings.Repeat(" ", SectionPadding) + c.Sprint("! ") + m + "\n")
	}
	builder.WriteString("\n")
	return builder.String()
}
