package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/ludo-technologies/cilflow/domain"
)

// defaultConfigTmpl contains the embedded default configuration template
//
//go:embed default_config.toml.tmpl
var defaultConfigTmpl string

// DefaultConfigValues holds all values used to render the default config template.
// All values are sourced from the domain package to ensure a single source of truth.
type DefaultConfigValues struct {
	IncludePatterns []string
	ExcludePatterns []string
	Recursive       bool

	Format string
	Color  bool

	ShowExceptionEdges bool

	FollowExceptionEdges bool
	ReportUnmarkedOnly   bool

	MaxGoroutines  int
	TimeoutSeconds int
}

func newDefaultConfigValues() DefaultConfigValues {
	return DefaultConfigValues{
		IncludePatterns:      domain.DefaultIncludePatterns,
		ExcludePatterns:      domain.DefaultExcludePatterns,
		Recursive:            true,
		Format:               string(domain.DefaultOutputFormat),
		Color:                domain.DefaultColor,
		ShowExceptionEdges:   domain.DefaultShowExceptionEdges,
		FollowExceptionEdges: domain.DefaultFollowExceptionEdges,
		ReportUnmarkedOnly:   domain.DefaultReportUnmarkedOnly,
		MaxGoroutines:        domain.DefaultMaxGoroutines,
		TimeoutSeconds:       domain.DefaultTimeoutSeconds,
	}
}

// GenerateDefaultConfigTOML renders the default config template with domain values
// and returns the resulting TOML string.
func GenerateDefaultConfigTOML() (string, error) {
	tmpl, err := template.New("default_config").Parse(defaultConfigTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse default config template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newDefaultConfigValues()); err != nil {
		return "", fmt.Errorf("failed to render default config template: %w", err)
	}

	return buf.String(), nil
}

// LoadDefaultConfigFromTOML parses the rendered default config
func LoadDefaultConfigFromTOML() (*Config, error) {
	configTOML, err := GenerateDefaultConfigTOML()
	if err != nil {
		return nil, err
	}
	return NewTomlConfigLoader().parse([]byte(configTOML))
}
