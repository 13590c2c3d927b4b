package errs

import (
	"errors"
	"strings"
	"testing"

	"cjsh/token"
)

func TestNewAndRender(t *testing.T) {
	r := New(Error, Syntax, "PAR001", `unexpected "}"`).
		WithSpan(token.Span{Start: 5, End: 6}, 1, "echo foo }")
	out := r.Render()
	if !strings.Contains(out, "PAR001") {
		t.Errorf("Render() missing code:\n%s", out)
	}
	if !strings.Contains(out, "echo foo }") {
		t.Errorf("Render() missing offending line:\n%s", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("Render() missing underline caret:\n%s", out)
	}
}

func TestWithSuggestion(t *testing.T) {
	r := New(Warning, Command, "CMD010", "unknown command").
		WithSuggestion(`did you mean "echo"?`)
	out := r.Render()
	if !strings.Contains(out, "help:") {
		t.Errorf("Render() missing suggestion:\n%s", out)
	}
}

func TestSeverityAndCategoryStrings(t *testing.T) {
	if Info.String() != "INFO" || Critical.String() != "CRITICAL" {
		t.Errorf("unexpected Severity.String() results")
	}
	if Lexical.String() != "LEXICAL" || Runtime.String() != "RUNTIME" {
		t.Errorf("unexpected Category.String() results")
	}
}

func TestErrorMethodReturnsMessage(t *testing.T) {
	r := New(Error, Expansion, "EXP001", "bad substitution")
	if r.Error() != "bad substitution" {
		t.Errorf("Error() = %q, want %q", r.Error(), "bad substitution")
	}
}

func TestStripPlaceholders(t *testing.T) {
	s := "\x1e__NOENV_START__\x1efoo\x1e__NOENV_END__\x1ebar"
	out, _ := stripPlaceholders(s, 0)
	if out != "foobar" {
		t.Errorf("stripPlaceholders() = %q, want %q", out, "foobar")
	}
}

func TestWithCauseUnwraps(t *testing.T) {
	underlying := errors.New("no such file or directory")
	r := New(Error, Runtime, "RUN001", "could not open script.sh").WithCause(underlying)
	if !errors.Is(r, underlying) {
		t.Errorf("errors.Is(r, underlying) = false, want true")
	}
	if got := r.Error(); got != "could not open script.sh" {
		t.Errorf("Error() = %q, want the Report's own Message unchanged", got)
	}
}

func TestTruncateContextKeepsSpanVisible(t *testing.T) {
	line := strings.Repeat("a", 200) + "HERE" + strings.Repeat("b", 200)
	col := 200
	got := truncateContext(line, col)
	if !strings.Contains(got, "HERE") {
		t.Errorf("truncateContext() dropped the span region: %q", got)
	}
	if len(got) >= len(line) {
		t.Errorf("truncateContext() did not shorten a long line")
	}
}
