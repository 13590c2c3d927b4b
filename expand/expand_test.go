package expand

import (
	"context"
	"testing"

	"cjsh/ast"
	"cjsh/parser"
)

// parseWord parses src as a single simple command and returns its first
// argument word, giving these tests real parser-built *ast.Word values
// instead of hand-assembled ones.
func parseWord(t *testing.T, src string) *ast.Word {
	t.Helper()
	f, err := parser.Parse([]byte(src), "test")
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	if len(f.Stmts) == 0 {
		t.Fatalf("parse %q: no statements", src)
	}
	call, ok := f.Stmts[0].Cmd.(*ast.CallExpr)
	if !ok {
		t.Fatalf("parse %q: expected a simple command", src)
	}
	if len(call.Args) == 0 {
		t.Fatalf("parse %q: no arguments", src)
	}
	return call.Args[0]
}

func testContext(pairs ...string) *Context {
	env := newMapEnviron(pairs...)
	return &Context{Env: env}
}

// mapEnviron is a minimal mutable WriteEnviron used by expand's own tests;
// the real scope-aware implementation lives in the vars package.
type mapEnviron struct {
	vars map[string]Variable
}

func newMapEnviron(pairs ...string) *mapEnviron {
	m := &mapEnviron{vars: map[string]Variable{}}
	for _, p := range pairs {
		name, val := p, ""
		for i := 0; i < len(p); i++ {
			if p[i] == '=' {
				name, val = p[:i], p[i+1:]
				break
			}
		}
		m.vars[name] = Variable{Set: true, Kind: String, Str: val}
	}
	return m
}

func (m *mapEnviron) Get(name string) Variable { return m.vars[name] }
func (m *mapEnviron) Each(fn func(string, Variable) bool) {
	for name, vr := range m.vars {
		if !fn(name, vr) {
			return
		}
	}
}
func (m *mapEnviron) Set(name string, vr Variable) error {
	m.vars[name] = vr
	return nil
}

func TestExpandLiteralPlain(t *testing.T) {
	c := testContext("FOO=bar")
	w := parseWord(t, "$FOO")
	if got := c.ExpandLiteral(context.Background(), w); got != "bar" {
		t.Errorf("ExpandLiteral($FOO) = %q, want %q", got, "bar")
	}
}

func TestExpandLiteralUnsetDefault(t *testing.T) {
	c := testContext()
	w := parseWord(t, "${FOO:-fallback}")
	if got := c.ExpandLiteral(context.Background(), w); got != "fallback" {
		t.Errorf("ExpandLiteral(${FOO:-fallback}) = %q, want %q", got, "fallback")
	}
}

func TestExpandLiteralRemovePrefix(t *testing.T) {
	c := testContext("PATH=/usr/local/bin")
	w := parseWord(t, "${PATH##*/}")
	if got := c.ExpandLiteral(context.Background(), w); got != "bin" {
		t.Errorf("ExpandLiteral(${PATH##*/}) = %q, want %q", got, "bin")
	}
}

func TestExpandLiteralLength(t *testing.T) {
	c := testContext("FOO=hello")
	w := parseWord(t, "${#FOO}")
	if got := c.ExpandLiteral(context.Background(), w); got != "5" {
		t.Errorf("ExpandLiteral(${#FOO}) = %q, want %q", got, "5")
	}
}

func TestExpandFieldsSplitsOnIFS(t *testing.T) {
	c := testContext("FOO=a b c")
	c.NoGlob = true
	w := parseWord(t, "$FOO")
	got := c.ExpandFields(context.Background(), w)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("ExpandFields($FOO) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExpandFields($FOO)[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExpandFieldsQuotedPreservesSpaces(t *testing.T) {
	c := testContext("FOO=a b c")
	w := parseWord(t, `"$FOO"`)
	got := c.ExpandFields(context.Background(), w)
	if len(got) != 1 || got[0] != "a b c" {
		t.Fatalf(`ExpandFields("$FOO") = %v, want ["a b c"]`, got)
	}
}

func TestArithmBasic(t *testing.T) {
	c := testContext()
	w := parseWord(t, "$((2 + 3 * 4))")
	got := c.ExpandLiteral(context.Background(), w)
	if got != "14" {
		t.Errorf("arithmetic expansion = %q, want %q", got, "14")
	}
}

func TestArithmVariableAssignment(t *testing.T) {
	c := testContext()
	w := parseWord(t, "$((x = 5, x + 1))")
	got := c.ExpandLiteral(context.Background(), w)
	if got != "6" {
		t.Errorf("arithmetic expansion = %q, want %q", got, "6")
	}
	if c.envGet("x") != "5" {
		t.Errorf("x = %q after arithmetic assignment, want %q", c.envGet("x"), "5")
	}
}
