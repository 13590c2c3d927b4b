// Package expand implements cjsh's Expander: turning a parsed Word into the
// fields a command actually sees, per the POSIX expansion order (tilde,
// parameter/arithmetic/command substitution, field splitting, pathname
// expansion, quote removal).
package expand

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"cjsh/ast"
	"cjsh/pattern"
)

// Context carries the shared state an expansion pass needs: the variable
// environment to read from, the glob options in effect, and the hooks back
// into the interpreter for command and process substitution.
type Context struct {
	Env WriteEnviron

	NoGlob   bool
	GlobStar bool

	// Subshell runs stmts in a child execution context, writing their
	// combined stdout to w. Used for `$(...)` and backquoted command
	// substitution.
	Subshell func(ctx context.Context, w io.Writer, stmts []*ast.Stmt)

	// ProcSubst runs stmts as a process substitution and returns a path
	// (typically under /dev/fd) that reads or writes its end of the
	// pipe, with a cleanup func to release resources once the calling
	// command exits.
	ProcSubst func(ctx context.Context, stmts []*ast.Stmt, op ast.ProcOp) (path string, cleanup func(), err error)

	// OnError is called for errors that the POSIX model treats as
	// recoverable during expansion, such as unset-parameter errors
	// under `:-`/`:?`. If nil, the error is panicked with instead, since
	// the caller is expected to always provide a handler in practice.
	OnError func(error)

	bufferAlloc bytes.Buffer
	fieldAlloc  [4]fieldPart
	fieldsAlloc [4][]fieldPart

	ifs      string
	curParam *ast.ParamExp
}

func (c *Context) prepareIFS() {
	vr := c.Env.Get("IFS")
	if !vr.IsSet() {
		c.ifs = " \t\n"
	} else {
		c.ifs = vr.String()
	}
}

func (c *Context) ifsRune(r rune) bool {
	for _, r2 := range c.ifs {
		if r == r2 {
			return true
		}
	}
	return false
}

func (c *Context) ifsJoin(strs []string) string {
	sep := ""
	if c.ifs != "" {
		sep = c.ifs[:1]
	}
	return strings.Join(strs, sep)
}

func (c *Context) err(err error) {
	if c.OnError == nil {
		panic(err)
	}
	c.OnError(err)
}

func (c *Context) strBuilder() *bytes.Buffer {
	b := &c.bufferAlloc
	b.Reset()
	return b
}

func (c *Context) envGet(name string) string {
	return c.Env.Get(name).String()
}

func (c *Context) envSet(name, value string) error {
	return c.Env.Set(name, Variable{Set: true, Kind: String, Str: value})
}

// ExpandLiteral expands word the way a double-quoted context would: no
// field splitting, no pathname expansion. Used for parameter-expansion
// arguments such as the `word` in `${x:-word}`.
func (c *Context) ExpandLiteral(ctx context.Context, word *ast.Word) string {
	if word == nil {
		return ""
	}
	field := c.wordField(ctx, word.Parts, quoteDouble)
	return c.fieldJoin(field)
}

// ExpandFields expands words the way command arguments are expanded: brace
// expansion, then per-word field splitting and pathname expansion.
func (c *Context) ExpandFields(ctx context.Context, words ...*ast.Word) []string {
	c.prepareIFS()

	fields := make([]string, 0, len(words))
	dir := c.envGet("PWD")
	baseDir := pattern.QuoteMeta(dir, 0)
	for _, expWord := range Braces(words...) {
		for _, field := range c.wordFields(ctx, expWord.Parts) {
			path, doGlob := c.escapedGlobField(field)
			var matches []string
			abs := filepath.IsAbs(path)
			if doGlob && !c.NoGlob {
				if !abs {
					path = filepath.Join(baseDir, path)
				}
				matches = globPath(path, c.GlobStar)
			}
			if len(matches) == 0 {
				fields = append(fields, c.fieldJoin(field))
				continue
			}
			for _, match := range matches {
				if !abs {
					endSep := strings.HasSuffix(match, string(filepath.Separator))
					match, _ = filepath.Rel(dir, match)
					if endSep {
						match += string(filepath.Separator)
					}
				}
				fields = append(fields, match)
			}
		}
	}
	return fields
}

// ExpandPattern expands word the way a `case` arm or `[[ ]]` glob operand
// is expanded: like a single-quoted context, except glob metacharacters
// that came from an unquoted part stay meaningful.
func (c *Context) ExpandPattern(ctx context.Context, word *ast.Word) string {
	field := c.wordField(ctx, word.Parts, quoteSingle)
	buf := c.strBuilder()
	for _, part := range field {
		if part.quote > quoteNone {
			buf.WriteString(pattern.QuoteMeta(part.val, 0))
		} else {
			buf.WriteString(part.val)
		}
	}
	return buf.String()
}

type fieldPart struct {
	val   string
	quote quoteLevel
}

type quoteLevel uint

const (
	quoteNone quoteLevel = iota
	quoteDouble
	quoteSingle
)

func (c *Context) fieldJoin(parts []fieldPart) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0].val
	}
	buf := c.strBuilder()
	for _, part := range parts {
		buf.WriteString(part.val)
	}
	return buf.String()
}

func (c *Context) escapedGlobField(parts []fieldPart) (escaped string, glob bool) {
	buf := c.strBuilder()
	for _, part := range parts {
		if part.quote > quoteNone {
			buf.WriteString(pattern.QuoteMeta(part.val, 0))
			continue
		}
		buf.WriteString(part.val)
		if pattern.HasMeta(part.val, 0) {
			glob = true
		}
	}
	if glob {
		escaped = buf.String()
	}
	return escaped, glob
}

// wordField expands wps the way a double/single-quoted sequence is
// expanded: no field splitting, quote tracking preserved on each part so
// later pathname expansion knows which bytes came from a quote.
func (c *Context) wordField(ctx context.Context, wps []ast.WordPart, ql quoteLevel) []fieldPart {
	var field []fieldPart
	for i, wp := range wps {
		switch x := wp.(type) {
		case *ast.Lit:
			s := x.Value
			if i == 0 {
				s = c.expandTilde(s)
			}
			if ql == quoteDouble {
				s = unescapeDoubleQuoteBackslashes(s)
			}
			field = append(field, fieldPart{val: s})
		case *ast.SglQuoted:
			field = append(field, fieldPart{quote: quoteSingle, val: x.Value})
		case *ast.DblQuoted:
			for _, part := range c.wordField(ctx, x.Parts, quoteDouble) {
				part.quote = quoteDouble
				field = append(field, part)
			}
		case *ast.ParamExp:
			field = append(field, fieldPart{val: c.paramExp(ctx, x)})
		case *ast.CmdSubst:
			field = append(field, fieldPart{val: c.cmdSubst(ctx, x)})
		case *ast.ArithmExp:
			n, err := c.Arithm(ctx, x.X)
			if err != nil {
				c.err(err)
			}
			field = append(field, fieldPart{val: strconv.Itoa(n)})
		case *ast.ProcSubst:
			field = append(field, fieldPart{val: c.procSubst(ctx, x)})
		case *ast.ExtGlob:
			field = append(field, fieldPart{val: c.extGlobField(ctx, x)})
		case *ast.BraceExp:
			// A brace expansion that survived to here was inside a quoted
			// context, where bash does not expand it; pass its literal
			// spelling through unchanged.
			field = append(field, fieldPart{val: braceExpLiteral(x)})
		default:
			panic(fmt.Sprintf("unhandled word part: %T", x))
		}
	}
	return field
}

func unescapeDoubleQuoteBackslashes(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var buf strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\n':
				i++
				continue
			case '"', '\\', '$', '`':
				continue
			}
		}
		buf.WriteByte(b)
	}
	return buf.String()
}

func (c *Context) cmdSubst(ctx context.Context, cs *ast.CmdSubst) string {
	if c.Subshell == nil {
		c.err(fmt.Errorf("unexpected command substitution"))
		return ""
	}
	buf := c.strBuilder()
	c.Subshell(ctx, buf, cs.Stmts)
	return strings.TrimRight(buf.String(), "\n")
}

func (c *Context) procSubst(ctx context.Context, ps *ast.ProcSubst) string {
	if c.ProcSubst == nil {
		c.err(fmt.Errorf("process substitution not supported in this context"))
		return ""
	}
	path, _, err := c.ProcSubst(ctx, ps.Stmts, ps.Op)
	if err != nil {
		c.err(err)
		return ""
	}
	return path
}

// extGlobField expands the inner word of a `!(pat)`/`@(pat)`/... bash
// extended-glob and reassembles the glob's own textual form, so that the
// outer pathname-expansion pass still sees it as glob metacharacters.
func (c *Context) extGlobField(ctx context.Context, g *ast.ExtGlob) string {
	inner := c.ExpandPattern(ctx, g.Pattern)
	return string(rune(g.Op)) + "(" + inner + ")"
}

func braceExpLiteral(b *ast.BraceExp) string {
	if b.Sequence {
		incr := ""
		if b.Incr != 1 {
			incr = ".." + strconv.Itoa(b.Incr)
		}
		return "{" + b.From + ".." + b.To + incr + "}"
	}
	var parts []string
	for _, e := range b.Elems {
		parts = append(parts, e.Lit())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// wordFields expands wps into one or more fields, applying IFS splitting
// to the unquoted parts of the word, and preserving empty fields that come
// purely from quotes (`""` is a field; a bare unset `$x` is not).
func (c *Context) wordFields(ctx context.Context, wps []ast.WordPart) [][]fieldPart {
	fields := c.fieldsAlloc[:0]
	curField := c.fieldAlloc[:0]
	allowEmpty := false
	flush := func() {
		if len(curField) == 0 {
			return
		}
		fields = append(fields, curField)
		curField = nil
	}
	splitAdd := func(val string) {
		for i, field := range strings.FieldsFunc(val, c.ifsRune) {
			if i > 0 {
				flush()
			}
			curField = append(curField, fieldPart{val: field})
		}
	}
	for i, wp := range wps {
		switch x := wp.(type) {
		case *ast.Lit:
			s := x.Value
			if i == 0 {
				s = c.expandTilde(s)
			}
			if strings.Contains(s, "\\") {
				buf := c.strBuilder()
				for j := 0; j < len(s); j++ {
					b := s[j]
					if b == '\\' && j+1 < len(s) {
						j++
						b = s[j]
					}
					buf.WriteByte(b)
				}
				s = buf.String()
			}
			curField = append(curField, fieldPart{val: s})
		case *ast.SglQuoted:
			allowEmpty = true
			curField = append(curField, fieldPart{quote: quoteSingle, val: x.Value})
		case *ast.DblQuoted:
			allowEmpty = true
			if len(x.Parts) == 1 {
				if pe, ok := x.Parts[0].(*ast.ParamExp); ok {
					if elems := c.quotedElems(pe); elems != nil {
						for i, elem := range elems {
							if i > 0 {
								flush()
							}
							curField = append(curField, fieldPart{quote: quoteDouble, val: elem})
						}
						continue
					}
				}
			}
			for _, part := range c.wordField(ctx, x.Parts, quoteDouble) {
				part.quote = quoteDouble
				curField = append(curField, part)
			}
		case *ast.ParamExp:
			splitAdd(c.paramExp(ctx, x))
		case *ast.CmdSubst:
			splitAdd(c.cmdSubst(ctx, x))
		case *ast.ArithmExp:
			n, err := c.Arithm(ctx, x.X)
			if err != nil {
				c.err(err)
			}
			curField = append(curField, fieldPart{val: strconv.Itoa(n)})
		case *ast.ProcSubst:
			curField = append(curField, fieldPart{val: c.procSubst(ctx, x)})
		case *ast.ExtGlob:
			curField = append(curField, fieldPart{val: c.extGlobField(ctx, x)})
		case *ast.BraceExp:
			curField = append(curField, fieldPart{val: braceExpLiteral(x)})
		default:
			panic(fmt.Sprintf("unhandled word part: %T", x))
		}
	}
	flush()
	if allowEmpty && len(fields) == 0 {
		fields = append(fields, curField)
	}
	return fields
}

// quotedElems reports the elements of "$@" or "${arr[@]}" quoted, one
// field per array element, the one case where a double-quoted parameter
// expansion still produces multiple fields.
func (c *Context) quotedElems(pe *ast.ParamExp) []string {
	if pe == nil || pe.Length {
		return nil
	}
	name := pe.Param.Value
	if name == "@" {
		return c.Env.Get("@").List
	}
	if anyOfLit(pe.Index, "@") == "" {
		return nil
	}
	vr := c.Env.Get(name)
	if vr.Kind == Indexed {
		return vr.List
	}
	return nil
}

func (c *Context) expandTilde(field string) string {
	if len(field) == 0 || field[0] != '~' {
		return field
	}
	name := field[1:]
	rest := ""
	if i := strings.Index(name, "/"); i >= 0 {
		rest = name[i:]
		name = name[:i]
	}
	if name == "" {
		return c.envGet("HOME") + rest
	}
	u, err := user.Lookup(name)
	if err != nil {
		return field
	}
	return u.HomeDir + rest
}

func globPath(pattern_ string, globStar bool) []string {
	parts := strings.Split(pattern_, string(filepath.Separator))
	matches := []string{"."}
	if filepath.IsAbs(pattern_) {
		if parts[0] == "" {
			matches[0] = string(filepath.Separator)
		} else {
			matches[0] = parts[0] + string(filepath.Separator)
		}
		parts = parts[1:]
	}
	for _, part := range parts {
		if part == "**" && globStar {
			for i := range matches {
				matches[i] += string(filepath.Separator)
			}
			latest := matches
			for {
				var newMatches []string
				for _, dir := range latest {
					newMatches = globDirAll(dir, newMatches)
				}
				if len(newMatches) == 0 {
					break
				}
				matches = append(matches, newMatches...)
				latest = newMatches
			}
			continue
		}
		var newMatches []string
		for _, dir := range matches {
			newMatches = globDirMatch(dir, part, newMatches)
		}
		matches = newMatches
	}
	return matches
}

func globDirAll(dir string, matches []string) []string {
	return globDirMatch(dir, "*", matches)
}

func globDirMatch(dir, part string, matches []string) []string {
	names, err := readDirNames(dir)
	if err != nil {
		return nil
	}
	sort.Strings(names)
	for _, name := range names {
		if !strings.HasPrefix(part, ".") && len(name) > 0 && name[0] == '.' {
			continue
		}
		ok, err := pattern.Match(part, name, pattern.Filenames)
		if err == nil && ok {
			matches = append(matches, filepath.Join(dir, name))
		}
	}
	return matches
}

func readDirNames(dir string) ([]string, error) {
	d, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Readdirnames(-1)
}
