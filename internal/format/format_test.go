package format

import (
	"strings"
	"testing"

	"github.com/orizon-lang/lattice/internal/grammar/json"
	"github.com/orizon-lang/lattice/internal/lexis"
)

func TestStyleDisabled(t *testing.T) {
	EnableStyling(false)

	if got := NewStyle().Bold().Foreground(Red).Render("text"); got != "text" {
		t.Fatalf("disabled styling altered text: %q", got)
	}
	if got := (Style{}).Render("text"); got != "text" {
		t.Fatalf("zero style altered text: %q", got)
	}
}

func TestStyleEnabled(t *testing.T) {
	EnableStyling(true)
	defer EnableStyling(false)

	got := NewStyle().Bold().Foreground(Red).Render("x")
	if got != "\x1b[1;31mx\x1b[0m" {
		t.Fatalf("Render = %q", got)
	}
	if plain := NewStyle().Render("x"); plain != "x" {
		t.Fatalf("attribute-free style emitted codes: %q", plain)
	}
}

func TestSnippet(t *testing.T) {
	EnableStyling(false)

	code := lexis.ParseTokenBuffer(json.New(), "{\n{FOO}\n}")
	snippet := Snippet(code, lexis.SiteSpan{Start: 3, End: 6}, "Unexpected input in Object.")

	lines := strings.Split(snippet, "\n")
	if len(lines) != 2 {
		t.Fatalf("snippet has %d lines:\n%s", len(lines), snippet)
	}
	if !strings.Contains(lines[0], "2 | {FOO}") {
		t.Fatalf("source line wrong: %q", lines[0])
	}
	if !strings.Contains(lines[1], "^^^") {
		t.Fatalf("caret line wrong: %q", lines[1])
	}
	if !strings.Contains(lines[1], "Unexpected input in Object.") {
		t.Fatalf("message missing: %q", lines[1])
	}
}
