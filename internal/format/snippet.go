package format

import (
	"fmt"
	"strings"

	"github.com/orizon-lang/lattice/internal/lexis"
)

// Snippet renders the source line containing span with a caret underline
// and a message, the usual compiler diagnostic shape:
//
//	   2 | {"foo" 1}
//	     |        ^ Unexpected input in Object.
func Snippet(code lexis.SourceCode, span lexis.SiteSpan, message string) string {
	lines := code.Lines()
	pos := lines.PositionOf(span.Start)

	lineStart := lines.LineStart(pos.Line)
	lineEnd := code.Length()
	if pos.Line < lines.LineCount() {
		lineEnd = lines.LineStart(pos.Line+1) - 1
	}
	text := code.Substring(lexis.SiteSpan{Start: lineStart, End: lineEnd})

	gutter := fmt.Sprintf("%4d | ", pos.Line)
	pad := strings.Repeat(" ", len(gutter)-2)

	width := span.Length()
	if span.End > lineEnd {
		width = lineEnd - span.Start
	}
	if width < 1 {
		width = 1
	}
	caret := strings.Repeat(" ", pos.Column-1) + strings.Repeat("^", width)

	var b strings.Builder
	b.WriteString(NewStyle().Dim().Render(gutter))
	b.WriteString(text)
	b.WriteByte('\n')
	b.WriteString(NewStyle().Dim().Render(pad + "| "))
	b.WriteString(NewStyle().Foreground(Red).Bold().Render(caret))
	if message != "" {
		b.WriteByte(' ')
		b.WriteString(NewStyle().Foreground(Red).Render(message))
	}
	return b.String()
}
