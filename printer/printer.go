// Package printer renders already-expanded command argv into the
// textual forms the interpreter needs to show back to the user: xtrace
// lines for `set -x` and history-file entries.
//
// It is the xtrace/history-rendering slice of the teacher's full AST
// pretty-printer, re-grounded on already-expanded strings instead of an
// *ast.File: xtrace prints what actually ran, after expansion, not the
// unexpanded source text a full reformatter would reproduce.
package printer

import "strings"

// unquoted is the set of bytes that never need quoting in a traced
// word: letters, digits, and the handful of punctuation bytes that
// carry no meaning to a shell reading the word back.
func unquoted(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '_', '-', '.', ',', '/', ':', '=', '+', '%', '@':
		return true
	}
	return false
}

// needsQuoting reports whether s contains a byte a shell would treat
// specially if the word were read back unquoted: whitespace or any of
// the token package's lexical metacharacters (quote, list/pipeline,
// compound-command, redirection, or substitution markers).
func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for i := 0; i < len(s); i++ {
		if !unquoted(s[i]) {
			return true
		}
	}
	return false
}

// Quote renders s the way it would need to appear in shell source to
// be read back as a single word: bare if it contains nothing a shell
// would split or reinterpret, single-quoted otherwise (with embedded
// single quotes escaped by closing, emitting an escaped quote, and
// reopening the quoted run).
func Quote(s string) string {
	if !needsQuoting(s) {
		return s
	}
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			b.WriteString(`'\''`)
			continue
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('\'')
	return b.String()
}

// TraceLine renders an already-expanded argv as one `set -x` line,
// prefixed with ps4 repeated to the given depth (nested xtrace from a
// function call or subshell indents one ps4 per level, matching the
// POSIX-mandated behavior of PS4 repetition).
func TraceLine(ps4 string, depth int, args []string) string {
	if depth < 1 {
		depth = 1
	}
	var b strings.Builder
	for i := 0; i < depth; i++ {
		b.WriteString(ps4)
	}
	for i, a := range args {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(Quote(a))
	}
	return b.String()
}

// HistoryLine flattens a command's source text into the single line
// the history file's "one command per line" format requires. A command
// entered across several physical lines (a continued `if`/`while`, a
// quoted string spanning lines, a trailing backslash) keeps its
// embedded newlines in the buffer the interactive loop accumulates;
// HistoryLine joins those continuation lines with "; " so a later `!n`
// or prefix lookup sees one line, the way a real shell's history file
// does, instead of literal embedded newlines breaking the one-entry-
// per-line contract.
func HistoryLine(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "; ")
}
