// Package format renders engine output for terminals: ANSI styling and
// annotated source snippets for diagnostics.
package format

import (
	"fmt"
	"strings"
)

// Color is a basic ANSI foreground color.
type Color int

const (
	NoColor Color = 0
	Black   Color = 30
	Red     Color = 31
	Green   Color = 32
	Yellow  Color = 33
	Blue    Color = 34
	Magenta Color = 35
	Cyan    Color = 36
	White   Color = 37
)

// Style is an immutable set of ANSI attributes. The zero value renders
// text unchanged.
type Style struct {
	color     Color
	bold      bool
	underline bool
	dim       bool
	enabled   bool
}

// NewStyle returns an enabled empty style.
func NewStyle() Style {
	return Style{enabled: true}
}

// Foreground sets the text color.
func (s Style) Foreground(color Color) Style {
	s.color = color
	return s
}

// Bold enables bold rendering.
func (s Style) Bold() Style {
	s.bold = true
	return s
}

// Underline enables underlining.
func (s Style) Underline() Style {
	s.underline = true
	return s
}

// Dim enables faint rendering.
func (s Style) Dim() Style {
	s.dim = true
	return s
}

// Render wraps text in the style's escape sequences. Styles render plain
// text when terminal styling is disabled.
func (s Style) Render(text string) string {
	if !s.enabled || !stylingEnabled() {
		return text
	}
	var codes []string
	if s.bold {
		codes = append(codes, "1")
	}
	if s.dim {
		codes = append(codes, "2")
	}
	if s.underline {
		codes = append(codes, "4")
	}
	if s.color != NoColor {
		codes = append(codes, fmt.Sprintf("%d", int(s.color)))
	}
	if len(codes) == 0 {
		return text
	}
	return "\x1b[" + strings.Join(codes, ";") + "m" + text + "\x1b[0m"
}
