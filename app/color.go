package app

import "github.com/ludo-technologies/cilflow/domain"

// colorFormatter is implemented by formatters whose text output can carry
// ANSI colors
type colorFormatter interface {
	SetColor(enabled bool)
}

// applyColor configures a formatter from the merged request. Reports
// written to a file are never colored.
func applyColor(formatter interface{}, color *bool, outputPath string) {
	cf, ok := formatter.(colorFormatter)
	if !ok {
		return
	}
	cf.SetColor(outputPath == "" && domain.BoolValue(color, domain.DefaultColor))
}
