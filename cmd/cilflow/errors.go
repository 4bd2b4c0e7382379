package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ludo-technologies/cilflow/service"
)

// reportError prints a categorized error with recovery suggestions
func reportError(w io.Writer, err error, useColor bool) {
	categorizer := service.NewErrorCategorizer()
	categorized := categorizer.Categorize(err)

	title := color.New(color.FgRed, color.Bold)
	if useColor {
		title.EnableColor()
	} else {
		title.DisableColor()
	}

	fmt.Fprintf(w, "%s %v\n", title.Sprintf("%s:", categorized.Category), err)

	suggestions := categorizer.GetRecoverySuggestions(categorized.Category)
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSuggestions:")
	for _, s := range suggestions {
		fmt.Fprintf(w, "  - %s\n", s)
	}
}
