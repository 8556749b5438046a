package config

import (
	"os"
	"strings"
)

// TermColors describes the color support of the terminal, as advertised by the environment.
type TermColors struct {
	ForceColor          bool
	NoColor             bool
	TruecolorColorterm  bool
	Term256ColorCapable bool
}

// TermColorsFromEnv reads FORCE_COLOR, NO_COLOR, COLORTERM and TERM, lookup defaults to os.LookupEnv.
func TermColorsFromEnv(lookup func(key string) (string, bool)) TermColors {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var colors TermColors

	if s, ok := lookup("FORCE_COLOR"); ok {
		colors.ForceColor = isTruthy(s)
	}

	if s, ok := lookup("NO_COLOR"); ok {
		colors.NoColor = isTruthy(s)
	}

	colorterm, _ := lookup("COLORTERM")
	colors.TruecolorColorterm = colorterm == "truecolor"

	term, _ := lookup("TERM")
	colors.Term256ColorCapable = strings.Contains(term, "256color")

	return colors
}

func (c TermColors) ShouldColorize() bool {
	return !c.NoColor && (c.ForceColor || c.TruecolorColorterm || c.Term256ColorCapable)
}

func isTruthy(s string) bool {
	return len(s) != 0 && s != "false" && s != "0"
}
