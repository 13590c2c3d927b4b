package expand

import (
	"testing"

	"cjsh/ast"
)

func lit(s string) *ast.Lit        { return &ast.Lit{Value: s} }
func word(ps ...ast.WordPart) *ast.Word { return &ast.Word{Parts: ps} }
func litWord(s string) *ast.Word   { return word(lit(s)) }

func wordLits(w *ast.Word) string {
	s := ""
	for _, p := range w.Parts {
		if l, ok := p.(*ast.Lit); ok {
			s += l.Value
		}
	}
	return s
}

func TestBracesList(t *testing.T) {
	w := word(lit("a"), &ast.BraceExp{Elems: []*ast.Word{litWord("b"), litWord("c")}}, lit("d"))
	got := Braces(w)
	want := []string{"abd", "acd"}
	if len(got) != len(want) {
		t.Fatalf("Braces() = %d words, want %d", len(got), len(want))
	}
	for i, w := range got {
		if s := wordLits(w); s != want[i] {
			t.Errorf("Braces()[%d] = %q, want %q", i, s, want[i])
		}
	}
}

func TestBracesSequenceNumeric(t *testing.T) {
	w := word(&ast.BraceExp{Sequence: true, From: "1", To: "3"})
	got := Braces(w)
	want := []string{"1", "2", "3"}
	for i, w := range got {
		if s := wordLits(w); s != want[i] {
			t.Errorf("Braces()[%d] = %q, want %q", i, s, want[i])
		}
	}
}

func TestBracesSequenceIncrement(t *testing.T) {
	w := word(&ast.BraceExp{Sequence: true, From: "5", To: "1", Incr: -2})
	got := Braces(w)
	want := []string{"5", "3", "1"}
	if len(got) != len(want) {
		t.Fatalf("Braces() = %d words, want %d", len(got), len(want))
	}
	for i, w := range got {
		if s := wordLits(w); s != want[i] {
			t.Errorf("Braces()[%d] = %q, want %q", i, s, want[i])
		}
	}
}

func TestBracesSequenceChars(t *testing.T) {
	w := word(&ast.BraceExp{Sequence: true, Chars: true, From: "a", To: "c"})
	got := Braces(w)
	want := []string{"a", "b", "c"}
	for i, w := range got {
		if s := wordLits(w); s != want[i] {
			t.Errorf("Braces()[%d] = %q, want %q", i, s, want[i])
		}
	}
}

func TestBracesNested(t *testing.T) {
	w := word(&ast.BraceExp{Elems: []*ast.Word{
		litWord("x"),
		word(&ast.BraceExp{Elems: []*ast.Word{litWord("y"), litWord("z")}}),
	}})
	got := Braces(w)
	want := []string{"x", "y", "z"}
	if len(got) != len(want) {
		t.Fatalf("Braces() = %d words, want %d", len(got), len(want))
	}
	for i, w := range got {
		if s := wordLits(w); s != want[i] {
			t.Errorf("Braces()[%d] = %q, want %q", i, s, want[i])
		}
	}
}

func TestBracesNoExpansion(t *testing.T) {
	w := litWord("plain")
	got := Braces(w)
	if len(got) != 1 || wordLits(got[0]) != "plain" {
		t.Fatalf("Braces() on a plain word should pass through unchanged, got %v", got)
	}
}
