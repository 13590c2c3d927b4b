// Package errs implements the shell's structured diagnostics: severity,
// category, a stable code string, a source span with an underlined
// excerpt, and an optional suggestion.
//
// It is grounded on cjsh's original C++ error_reporter.cpp, re-expressed
// without the terminal-width-dependent box drawing, and on the position
// bookkeeping mvdan-sh's syntax package uses for parse errors.
package errs

import (
	"fmt"
	"strings"

	"golang.org/x/xerrors"

	"cjsh/token"
)

// Severity orders diagnostics from informational to unrecoverable.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Critical
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	case Critical:
		return "CRITICAL"
	default:
		return "ERROR"
	}
}

// Category buckets a Report by which pipeline stage raised it.
type Category int

const (
	Lexical Category = iota
	Syntax
	Expansion
	Redirection
	Command
	Runtime
)

func (c Category) String() string {
	switch c {
	case Lexical:
		return "LEXICAL"
	case Syntax:
		return "SYNTAX"
	case Expansion:
		return "EXPANSION"
	case Redirection:
		return "REDIRECTION"
	case Command:
		return "COMMAND"
	case Runtime:
		return "RUNTIME"
	default:
		return "RUNTIME"
	}
}

// Report is one structured diagnostic. It is returned (not panicked) by
// the Lexer, Parser, Expander and Script Interpreter, and rendered by
// Render/Print below.
type Report struct {
	Severity   Severity
	Category   Category
	Code       string // stable code, e.g. "SYN001"
	Message    string
	Span       token.Span
	Line       int // 1-based source line the span starts on
	LineText   string
	Suggestion string
	cause      error
}

func (r *Report) Error() string { return r.Message }

// Unwrap exposes the underlying error attached by WithCause, so
// errors.Is/errors.As (and xerrors.Is/xerrors.As) see through a Report to
// whatever I/O or syscall failure it was built from.
func (r *Report) Unwrap() error { return r.cause }

// WithCause attaches an underlying error this Report was built from (a
// failed read, a failed exec, ...), wrapped with xerrors so a %+v print of
// the Report still carries the original call frame. Use this instead of
// reconstructing the message by hand whenever a Report is reporting some
// other package's error rather than a diagnostic computed from scratch.
func (r *Report) WithCause(err error) *Report {
	r.cause = xerrors.Errorf("%s: %w", r.Message, err)
	return r
}

// stripPlaceholders removes the internal sentinel markers the expander
// uses to track suppressed-expansion regions before they ever reach a
// user-visible message, adjusting col into the sanitized string's index
// space as it goes. It mirrors strip_internal_placeholders in the
// original error reporter, minus its index_map bookkeeping (Go's slices
// make that unnecessary).
func stripPlaceholders(s string, col int) (string, int) {
	const (
		noEnvStart    = "\x1e__NOENV_START__\x1e"
		noEnvEnd      = "\x1e__NOENV_END__\x1e"
		substLitStart = "\x1e__SUBST_LITERAL_START__\x1e"
		substLitEnd   = "\x1e__SUBST_LITERAL_END__\x1e"
	)
	markers := []string{noEnvStart, noEnvEnd, substLitStart, substLitEnd}
	var out strings.Builder
	newCol := col
	i := 0
	for i < len(s) {
		matched := false
		for _, m := range markers {
			if strings.HasPrefix(s[i:], m) {
				if i < col {
					newCol -= len(m)
				}
				i += len(m)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	if newCol < 0 {
		newCol = 0
	}
	return out.String(), newCol
}

const maxContextWidth = 100

// truncateContext shortens a long offending line with an ellipsis while
// keeping the span column visible.
func truncateContext(line string, col int) string {
	if len(line) <= maxContextWidth {
		return line
	}
	half := maxContextWidth / 2
	start := col - half
	if start < 0 {
		start = 0
	}
	end := start + maxContextWidth
	prefix, suffix := "", ""
	if start > 0 {
		prefix = "…"
	}
	if end < len(line) {
		suffix = "…"
	} else {
		end = len(line)
	}
	return prefix + line[start:end] + suffix
}

// Render formats r as multi-line human-readable text: a header line with
// severity/category/code, the offending line with an underlined span, and
// a suggestion if present.
func (r *Report) Render() string {
	msg, _ := stripPlaceholders(r.Message, 0)
	var b strings.Builder
	fmt.Fprintf(&b, "cjsh: %s [%s] %s\n", r.Severity, r.Code, msg)
	if r.LineText != "" {
		colStart := int(r.Span.Start)
		line, col := stripPlaceholders(r.LineText, colStart)
		line = truncateContext(line, col)
		fmt.Fprintf(&b, "  %d | %s\n", r.Line, line)
		width := int(r.Span.End - r.Span.Start)
		if width < 1 {
			width = 1
		}
		pad := strings.Repeat(" ", len(fmt.Sprintf("  %d | ", r.Line))+col)
		fmt.Fprintf(&b, "%s%s\n", pad, strings.Repeat("^", width))
	}
	if r.Suggestion != "" {
		fmt.Fprintf(&b, "  help: %s\n", r.Suggestion)
	}
	return b.String()
}

// New builds a Report with the given category/code/message; Span and the
// rest are filled in by the caller via the With* helpers below.
func New(sev Severity, cat Category, code, message string) *Report {
	return &Report{Severity: sev, Category: cat, Code: code, Message: message}
}

// WithSpan attaches a source span and the offending line's text/number.
func (r *Report) WithSpan(span token.Span, line int, lineText string) *Report {
	r.Span, r.Line, r.LineText = span, line, lineText
	return r
}

// WithSuggestion attaches a "did you mean ..." hint.
func (r *Report) WithSuggestion(s string) *Report {
	r.Suggestion = s
	return r
}
