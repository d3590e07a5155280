package json

import (
	"testing"

	"github.com/orizon-lang/lattice/internal/lexis"
)

func scanAll(input string) []lexis.Chunk {
	driver := lexis.NewDriver(New(), lexis.NewStringFeed(input))
	var chunks []lexis.Chunk
	for {
		chunk, ok := driver.Next()
		if !ok {
			return chunks
		}
		chunks = append(chunks, chunk)
	}
}

func TestScanner(t *testing.T) {
	tests := []struct {
		input string
		rules []lexis.TokenRule
		texts []string
	}{
		{
			input: `{"a": 1}`,
			rules: []lexis.TokenRule{BraceOpen, String, Colon, Whitespace, Number, BraceClose},
			texts: []string{"{", `"a"`, ":", " ", "1", "}"},
		},
		{
			input: `[true, false, null]`,
			rules: []lexis.TokenRule{BracketOpen, True, Comma, Whitespace, False, Comma, Whitespace, Null, BracketClose},
			texts: []string{"[", "true", ",", " ", "false", ",", " ", "null", "]"},
		},
		{
			input: `-12.5e+3`,
			rules: []lexis.TokenRule{Number},
			texts: []string{"-12.5e+3"},
		},
		{
			input: `"esc\"aped"`,
			rules: []lexis.TokenRule{String},
			texts: []string{`"esc\"aped"`},
		},
		{
			// Unscannable input folds into one mismatch run.
			input: `{FOO}`,
			rules: []lexis.TokenRule{BraceOpen, lexis.Mismatch, BraceClose},
			texts: []string{"{", "FOO", "}"},
		},
		{
			// An unterminated string degrades into mismatches, not a hang.
			input: `"abc`,
			rules: []lexis.TokenRule{lexis.Mismatch},
			texts: []string{`"abc`},
		},
		{
			input: "  \t\n ",
			rules: []lexis.TokenRule{Whitespace},
			texts: []string{"  \t\n "},
		},
	}

	for _, tt := range tests {
		chunks := scanAll(tt.input)
		if len(chunks) != len(tt.rules) {
			t.Fatalf("%q: got %d chunks %v, want %d", tt.input, len(chunks), chunks, len(tt.rules))
		}
		for i, chunk := range chunks {
			if chunk.Rule != tt.rules[i] || chunk.Text != tt.texts[i] {
				t.Errorf("%q chunk %d: (%d, %q), want (%d, %q)",
					tt.input, i, chunk.Rule, chunk.Text, tt.rules[i], tt.texts[i])
			}
		}
	}
}

func TestScannerUnicode(t *testing.T) {
	chunks := scanAll(`"héllo ☺"`)
	if len(chunks) != 1 || chunks[0].Rule != String {
		t.Fatalf("chunks = %v", chunks)
	}
	if chunks[0].Length != 9 {
		t.Fatalf("char length = %d, want 9", chunks[0].Length)
	}
}

func TestDescribe(t *testing.T) {
	g := New()
	if got := g.Describe(Colon, false); got != "':'" {
		t.Fatalf("Describe(Colon) = %q", got)
	}
	if g.Name(String) != "String" {
		t.Fatalf("Name(String) = %q", g.Name(String))
	}
	if !g.IsBlank(Whitespace) || g.IsBlank(Number) {
		t.Fatal("blank classification wrong")
	}
}
