// Package parser builds an *ast.File from shell source text: lists and
// pipelines, simple commands with their assignments and redirections, the
// compound constructs (if/while/until/for/case, subshells, brace groups,
// functions, `(( ))` and `[[ ]]`), and the word-level expansions nested
// inside each.
//
// It drives a *lexer.Lexer directly, one token or raw byte at a time,
// because shell grammar is context sensitive: whether `((` opens an
// arithmetic command, for instance, depends on where the parser currently
// is, not on anything the lexer can decide unassisted.
package parser

import (
	"fmt"

	"cjsh/ast"
	"cjsh/errs"
	"cjsh/lexer"
	"cjsh/token"
)

// Parser parses one named chunk of shell source into an *ast.File.
type Parser struct {
	lx   *lexer.Lexer
	name string

	err *errs.Report

	// heredocs accumulates pending here-documents declared on the current
	// line; their bodies are read once the line's newline is reached.
	heredocs      []*ast.Redirect
	heredocQuoted []*ast.Redirect
}

// New creates a Parser over src.
func New(src []byte, name string) *Parser {
	return &Parser{lx: lexer.New(src), name: name}
}

// Parse runs the parser to completion.
func Parse(src []byte, name string) (*ast.File, error) {
	return New(src, name).Parse()
}

// ParseWord parses src as a single standalone Word — the grammar a
// parameter value or an expansion target uses, with no statement list
// around it. Used by the `shell` package's Expand/Fields helpers, which
// have no enclosing command to parse a whole file for.
func ParseWord(src []byte, name string) (*ast.Word, error) {
	p := New(src, name)
	p.skipBlanks()
	w := p.word()
	if p.err != nil {
		return w, p.err
	}
	if !p.atEnd() {
		p.errorf(p.pos(), "PAR001", "unexpected %q", string(p.cur()))
		return w, p.err
	}
	return w, nil
}

// ParseWords parses src as a sequence of blank-separated Words with no
// enclosing command, the grammar `shell.Fields` needs to split a string
// into argv-style fields before expansion.
func ParseWords(src []byte, name string) ([]*ast.Word, error) {
	p := New(src, name)
	var words []*ast.Word
	for {
		p.skipBlanks()
		if p.atEnd() {
			break
		}
		w := p.word()
		if w == nil {
			break
		}
		words = append(words, w)
	}
	if p.err != nil {
		return words, p.err
	}
	if !p.atEnd() {
		p.errorf(p.pos(), "PAR001", "unexpected %q", string(p.cur()))
		return words, p.err
	}
	return words, nil
}

// Parse returns the parsed file, or the first syntax error encountered.
func (p *Parser) Parse() (*ast.File, error) {
	f := &ast.File{Name: p.name}
	f.Stmts = p.stmtList()
	f.Lines = p.lx.Lines
	if p.err != nil {
		return f, p.err
	}
	if !p.lx.AtEOF() {
		p.errorf(p.pos(), "PAR001", "unexpected %q", string(p.cur()))
	}
	if p.err != nil {
		return f, p.err
	}
	return f, nil
}

// --- low-level byte helpers, delegating to the Lexer ---

func (p *Parser) cur() byte        { return p.lx.PeekByte(0) }
func (p *Parser) peek(n int) byte  { return p.lx.PeekByte(n) }
func (p *Parser) pos() token.Pos   { return p.lx.Pos() }
func (p *Parser) atEnd() bool      { return p.lx.AtEOF() }
func (p *Parser) advance(n int)    { p.lx.Advance(n) }
func (p *Parser) skipBlanks()      { p.lx.SkipBlanks() }
func (p *Parser) skipWS()          { p.lx.SkipSpaceAndComments() }

func isBlank(b byte) bool { return b == ' ' || b == '\t' || b == '\r' }

func isWordEnd(b byte) bool {
	switch b {
	case 0, ' ', '\t', '\n', '\r', ';', '&', '|', '<', '>', '(', ')':
		return true
	}
	return false
}

// skipNewlines consumes blank lines and comments, used wherever the
// grammar allows a statement list to continue on following lines (after
// `&&`, `do`, `then`, an open paren, and so on).
func (p *Parser) skipNewlines() {
	for {
		p.skipWS()
		if p.cur() == '\n' {
			p.advance(1)
			continue
		}
		break
	}
}

func (p *Parser) errorf(pos token.Pos, code, format string, a ...interface{}) {
	if p.err != nil {
		return
	}
	p.err = errs.New(errs.Error, errs.Syntax, code, fmt.Sprintf(format, a...)).
		WithSpan(token.Span{Start: pos, End: pos + 1}, 0, "")
}

// peekWord reports whether the upcoming bare word (read without consuming
// input) equals any of want, honoring word-end boundaries so e.g. "iffy"
// is never mistaken for "if".
func (p *Parser) peekWord(want ...string) string {
	save := p.pos()
	p.skipBlanks()
	start := p.pos()
	n := 0
	for !isWordEnd(p.peek(n)) {
		n++
	}
	lit := ""
	if n > 0 {
		b := make([]byte, n)
		for i := 0; i < n; i++ {
			b[i] = p.peek(i)
		}
		lit = string(b)
	}
	_ = start
	p.lx.SeekTo(save)
	for _, w := range want {
		if lit == w {
			return w
		}
	}
	return ""
}

// gotWord consumes the upcoming bare word if it equals want, returning
// whether it did.
func (p *Parser) gotWord(want string) bool {
	p.skipBlanks()
	if p.peekWord(want) == "" {
		return false
	}
	p.advance(len(want))
	return true
}

// gotByte consumes the next byte if it equals b.
func (p *Parser) gotByte(b byte) bool {
	if p.cur() == b {
		p.advance(1)
		return true
	}
	return false
}

// --- statement lists ---

// stmtList parses `stmt (sep stmt)*` until EOF or a stop word/byte the
// caller recognizes by re-checking after each iteration.
func (p *Parser) stmtList(stopWords ...string) []*ast.Stmt {
	var out []*ast.Stmt
	for {
		p.skipNewlines()
		if p.atEnd() || p.err != nil {
			break
		}
		if len(stopWords) > 0 && p.peekWord(stopWords...) != "" {
			break
		}
		if p.cur() == ')' || p.cur() == '}' {
			break
		}
		st := p.andOr()
		if st == nil || p.err != nil {
			break
		}
		out = append(out, st)
		p.skipBlanks()
		switch p.cur() {
		case ';':
			if p.peek(1) == ';' {
				// caller (case item) handles ;;/;&/;;& itself
			} else {
				st.SemiPos = p.pos()
				p.advance(1)
			}
		case '&':
			if p.peek(1) != '&' {
				st.Background = true
				st.SemiPos = p.pos()
				p.advance(1)
			}
		case '\n', 0:
		}
		p.doPendingHeredocs()
		if len(stopWords) > 0 && p.peekWord(stopWords...) != "" {
			break
		}
	}
	return out
}

// andOr parses a pipeline chain joined by && and ||, left-associative.
func (p *Parser) andOr() *ast.Stmt {
	left := p.pipelineStmt()
	if left == nil {
		return nil
	}
	for {
		p.skipBlanks()
		var op ast.BinCmdOp
		switch {
		case p.cur() == '&' && p.peek(1) == '&':
			op = ast.AndStmt
		case p.cur() == '|' && p.peek(1) == '|':
			op = ast.OrStmt
		default:
			return left
		}
		opPos := p.pos()
		p.advance(2)
		p.skipNewlines()
		right := p.pipelineStmt()
		if right == nil {
			p.errorf(opPos, "PAR002", "%s must be followed by a statement", map[ast.BinCmdOp]string{ast.AndStmt: "&&", ast.OrStmt: "||"}[op])
			return left
		}
		left = &ast.Stmt{Position: left.Pos(), Cmd: &ast.BinaryCmd{OpPos: opPos, Op: op, X: left, Y: right}}
	}
}

// pipelineStmt parses `[!] cmd (| cmd)*`.
func (p *Parser) pipelineStmt() *ast.Stmt {
	p.skipNewlines()
	if p.atEnd() || p.err != nil {
		return nil
	}
	negated := false
	if p.gotWord("!") {
		negated = true
		p.skipBlanks()
	}
	left := p.stmt()
	if left == nil {
		return nil
	}
	left.Negated = negated
	for {
		p.skipBlanks()
		var op ast.BinCmdOp
		switch {
		case p.cur() == '|' && p.peek(1) == '|':
			return left
		case p.cur() == '|' && p.peek(1) == '&':
			op = ast.PipeAll
		case p.cur() == '|':
			op = ast.Pipe
		default:
			return left
		}
		opPos := p.pos()
		if op == ast.PipeAll {
			p.advance(2)
		} else {
			p.advance(1)
		}
		p.skipNewlines()
		right := p.stmt()
		if right == nil {
			p.errorf(opPos, "PAR003", "pipe must be followed by a statement")
			return left
		}
		left = &ast.Stmt{Position: left.Pos(), Cmd: &ast.BinaryCmd{OpPos: opPos, Op: op, X: left, Y: right}}
	}
}

// stmt parses one statement: optional assignments, a command (simple or
// compound), and trailing redirections.
func (p *Parser) stmt() *ast.Stmt {
	p.skipBlanks()
	start := p.pos()
	s := &ast.Stmt{Position: start}

	var assigns []*ast.Assign
	for {
		a := p.tryAssign()
		if a == nil {
			break
		}
		assigns = append(assigns, a)
		p.skipBlanks()
	}
	s.Assigns = assigns

	p.collectRedirs(s)
	p.skipBlanks()

	cmd := p.compoundOrSimple(s)
	if cmd == nil {
		if len(assigns) == 0 && len(s.Redirs) == 0 {
			return nil
		}
		return s
	}
	s.Cmd = cmd
	p.collectRedirs(s)
	return s
}

// compoundOrSimple dispatches on the upcoming reserved word or bracket to
// one of the compound-command parsers, falling back to a simple command.
func (p *Parser) compoundOrSimple(s *ast.Stmt) ast.Command {
	p.skipBlanks()
	switch {
	case p.cur() == '(' && p.peek(1) == '(':
		return p.arithmCmd()
	case p.cur() == '(':
		return p.subshell()
	case p.cur() == '{' && isWordEnd(p.peek(1)):
		return p.block()
	case p.cur() == '[' && p.peek(1) == '[' && isWordEnd(p.peek(2)):
		return p.testClause()
	case p.peekWord("if") != "":
		return p.ifClause()
	case p.peekWord("while") != "":
		return p.whileClause()
	case p.peekWord("until") != "":
		return p.untilClause()
	case p.peekWord("for") != "":
		return p.forClause()
	case p.peekWord("case") != "":
		return p.caseClause()
	case p.peekWord("function") != "":
		return p.funcDeclKeyword()
	}
	if name, ok := p.tryFuncDeclName(); ok {
		return name
	}
	return p.simpleCommand(s)
}

func (p *Parser) matchRsrv(word string, pos *token.Pos) bool {
	p.skipBlanks()
	if p.peekWord(word) == "" {
		return false
	}
	if pos != nil {
		*pos = p.pos()
	}
	p.advance(len(word))
	return true
}

func (p *Parser) subshell() *ast.Subshell {
	sub := &ast.Subshell{Lparen: p.pos()}
	p.advance(1)
	sub.Stmts = p.stmtList()
	p.skipNewlines()
	if !p.gotByte(')') {
		p.errorf(p.pos(), "PAR004", "reached end without matching ( with )")
		return sub
	}
	sub.Rparen = p.pos() - 1
	return sub
}

func (p *Parser) block() *ast.Block {
	b := &ast.Block{Lbrace: p.pos()}
	p.advance(1)
	b.Stmts = p.stmtList("}")
	p.skipNewlines()
	if !p.gotWord("}") {
		p.errorf(p.pos(), "PAR005", "reached end without matching { with }")
		return b
	}
	b.Rbrace = p.pos() - 1
	return b
}

func (p *Parser) ifClause() *ast.IfClause {
	c := &ast.IfClause{}
	p.matchRsrv("if", &c.If)
	c.CondStmts = p.stmtList("then")
	p.skipNewlines()
	p.matchRsrv("then", &c.Then)
	c.ThenStmts = p.stmtList("elif", "else", "fi")
	for p.peekWord("elif") != "" {
		var e ast.Elif
		p.matchRsrv("elif", &e.Elif)
		e.CondStmts = p.stmtList("then")
		p.skipNewlines()
		p.matchRsrv("then", &e.Then)
		e.ThenStmts = p.stmtList("elif", "else", "fi")
		c.Elifs = append(c.Elifs, &e)
	}
	if p.peekWord("else") != "" {
		p.matchRsrv("else", &c.Else)
		c.ElseStmts = p.stmtList("fi")
	}
	p.skipNewlines()
	p.matchRsrv("fi", &c.Fi)
	return c
}

func (p *Parser) whileClause() *ast.WhileClause {
	c := &ast.WhileClause{}
	p.matchRsrv("while", &c.While)
	c.CondStmts = p.stmtList("do")
	p.skipNewlines()
	p.matchRsrv("do", &c.Do)
	c.DoStmts = p.stmtList("done")
	p.skipNewlines()
	p.matchRsrv("done", &c.Done)
	return c
}

func (p *Parser) untilClause() *ast.UntilClause {
	c := &ast.UntilClause{}
	p.matchRsrv("until", &c.Until)
	c.CondStmts = p.stmtList("do")
	p.skipNewlines()
	p.matchRsrv("do", &c.Do)
	c.DoStmts = p.stmtList("done")
	p.skipNewlines()
	p.matchRsrv("done", &c.Done)
	return c
}

func (p *Parser) forClause() *ast.ForClause {
	c := &ast.ForClause{}
	p.matchRsrv("for", &c.For)
	p.skipBlanks()
	if p.cur() == '(' && p.peek(1) == '(' {
		lp := p.pos()
		p.advance(2)
		loop := &ast.CStyleLoop{Lparen: lp}
		loop.Init = p.arithOrNil(';')
		p.gotByte(';')
		loop.Cond = p.arithOrNil(';')
		p.gotByte(';')
		loop.Post = p.arithOrNil(')')
		p.skipBlanks()
		p.gotByte(')')
		p.gotByte(')')
		loop.Rparen = p.pos() - 2
		c.Loop = loop
	} else {
		name := p.identLit()
		iter := &ast.WordIter{Name: name}
		p.skipBlanks()
		if p.gotWord("in") {
			for {
				p.skipBlanks()
				if p.cur() == '\n' || p.cur() == ';' || p.cur() == 0 {
					break
				}
				if p.peekWord("do") != "" {
					break
				}
				w := p.word()
				if w == nil {
					break
				}
				iter.List = append(iter.List, w)
			}
		}
		c.Loop = iter
	}
	p.skipBlanks()
	p.gotByte(';')
	p.skipNewlines()
	p.matchRsrv("do", &c.Do)
	c.DoStmts = p.stmtList("done")
	p.skipNewlines()
	p.matchRsrv("done", &c.Done)
	return c
}

func (p *Parser) identLit() ast.Lit {
	p.skipBlanks()
	start := p.pos()
	n := 0
	for {
		b := p.peek(n)
		if (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_' {
			n++
			continue
		}
		break
	}
	v := p.takeRaw(n)
	return ast.Lit{ValuePos: start, Value: v}
}

func (p *Parser) takeRaw(n int) string {
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = p.peek(i)
	}
	p.advance(n)
	return string(b)
}

func (p *Parser) caseClause() *ast.CaseClause {
	c := &ast.CaseClause{}
	p.matchRsrv("case", &c.Case)
	p.skipBlanks()
	c.Word = p.word()
	p.skipNewlines()
	p.matchRsrv("in", &c.In)
	p.skipNewlines()
	for p.peekWord("esac") == "" && !p.atEnd() && p.err == nil {
		item := &ast.CaseItem{}
		p.gotByte('(')
		for {
			w := p.word()
			if w != nil {
				item.Patterns = append(item.Patterns, w)
			}
			p.skipBlanks()
			if p.gotByte('|') {
				continue
			}
			break
		}
		p.skipBlanks()
		p.gotByte(')')
		item.Stmts = p.stmtList("esac")
		p.skipNewlines()
		switch {
		case p.cur() == ';' && p.peek(1) == ';' && p.peek(2) == '&':
			item.Term = ast.CaseFallThruIf
			p.advance(3)
		case p.cur() == ';' && p.peek(1) == '&':
			item.Term = ast.CaseFallThru
			p.advance(2)
		case p.cur() == ';' && p.peek(1) == ';':
			item.Term = ast.CaseBreak
			p.advance(2)
		}
		c.Items = append(c.Items, item)
		p.skipNewlines()
	}
	p.matchRsrv("esac", &c.Esac)
	return c
}

func (p *Parser) funcDeclKeyword() *ast.FuncDecl {
	fd := &ast.FuncDecl{Position: p.pos()}
	p.matchRsrv("function", nil)
	p.skipBlanks()
	fd.Name = p.identLit()
	p.skipBlanks()
	if p.cur() == '(' && p.peek(1) == ')' {
		p.advance(2)
	}
	p.skipNewlines()
	fd.Body = p.stmt()
	return fd
}

// tryFuncDeclName recognizes the POSIX `name()` form by probing ahead and
// backtracking if it doesn't match.
func (p *Parser) tryFuncDeclName() (*ast.FuncDecl, bool) {
	save := p.pos()
	p.skipBlanks()
	start := p.pos()
	n := 0
	for {
		b := p.peek(n)
		if (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_' {
			n++
			continue
		}
		break
	}
	if n == 0 || p.peek(n) != '(' || p.peek(n+1) != ')' {
		p.lx.SeekTo(save)
		return nil, false
	}
	name := ast.Lit{ValuePos: start, Value: p.takeRaw(n)}
	fd := &ast.FuncDecl{Position: start, Name: name}
	p.advance(2)
	p.skipNewlines()
	fd.Body = p.stmt()
	return fd, true
}

func (p *Parser) arithmCmd() *ast.ArithmCmd {
	a := &ast.ArithmCmd{Left: p.pos()}
	p.advance(2)
	a.X = p.arithExpr(0)
	p.skipBlanks()
	p.gotByte(')')
	p.gotByte(')')
	a.Right = p.pos() - 2
	return a
}

func (p *Parser) arithOrNil(stop byte) ast.ArithmExpr {
	p.skipBlanks()
	if p.cur() == stop {
		return nil
	}
	return p.arithExpr(0)
}

// tryAssign recognizes `name=word` / `name+=word` at the current position,
// backtracking if it doesn't match (e.g. the word is actually a command).
func (p *Parser) tryAssign() *ast.Assign {
	save := p.pos()
	p.skipBlanks()
	start := p.pos()
	n := 0
	for {
		b := p.peek(n)
		if (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_' {
			n++
			continue
		}
		break
	}
	if n == 0 || (p.peek(n) != '=' && !(p.peek(n) == '+' && p.peek(n+1) == '=')) {
		p.lx.SeekTo(save)
		return nil
	}
	name := ast.Lit{ValuePos: start, Value: p.takeRaw(n)}
	a := &ast.Assign{Name: &name}
	if p.cur() == '+' {
		a.Append = true
		p.advance(2)
	} else {
		p.advance(1)
	}
	if w := p.word(); w != nil {
		a.Value = *w
	} else {
		a.Value = ast.Word{Parts: nil}
	}
	return a
}

func (p *Parser) simpleCommand(s *ast.Stmt) ast.Command {
	c := &ast.CallExpr{}
	for {
		p.skipBlanks()
		if p.peekRedirStart() {
			if !p.collectOneRedir(s) {
				break
			}
			continue
		}
		if p.cur() == 0 || p.cur() == '\n' || p.cur() == ';' || p.cur() == '&' ||
			p.cur() == '|' || p.cur() == ')' || (p.cur() == '{' && len(c.Args) > 0 && isWordEnd(p.peek(1))) {
			break
		}
		if len(c.Args) > 0 {
			if w := p.peekWord("then", "do", "done", "elif", "else", "fi", "esac"); w != "" {
				break
			}
		}
		w := p.word()
		if w == nil {
			break
		}
		c.Args = append(c.Args, w)
	}
	if len(c.Args) == 0 {
		return nil
	}
	return c
}

func (p *Parser) peekRedirStart() bool {
	n := 0
	for p.peek(n) >= '0' && p.peek(n) <= '9' {
		n++
	}
	b := p.peek(n)
	if (b == '<' || b == '>') && p.peek(n+1) == '(' {
		return false // <(cmd) / >(cmd) is process substitution, a word, not a redirect
	}
	return b == '<' || b == '>'
}

// collectRedirs consumes any run of redirections at the current position.
func (p *Parser) collectRedirs(s *ast.Stmt) {
	for {
		p.skipBlanks()
		if !p.peekRedirStart() {
			return
		}
		if !p.collectOneRedir(s) {
			return
		}
	}
}

func (p *Parser) collectOneRedir(s *ast.Stmt) bool {
	start := p.pos()
	var fd *ast.Lit
	n := 0
	for p.peek(n) >= '0' && p.peek(n) <= '9' {
		n++
	}
	if n > 0 {
		v := p.takeRaw(n)
		fd = &ast.Lit{ValuePos: start, Value: v}
	}
	op, opLen, ok := p.redirOp()
	if !ok {
		return false
	}
	opPos := p.pos()
	p.advance(opLen)
	r := &ast.Redirect{OpPos: opPos, Op: op, N: fd}
	p.skipBlanks()
	switch op {
	case ast.Hdoc, ast.DashHdoc:
		p.parseHeredocWord(r)
		p.heredocs = append(p.heredocs, r)
	default:
		r.Word = *p.word()
	}
	s.Redirs = append(s.Redirs, r)
	return true
}

func (p *Parser) redirOp() (ast.RedirOp, int, bool) {
	b := p.cur()
	switch b {
	case '<':
		switch p.peek(1) {
		case '<':
			if p.peek(2) == '-' {
				return ast.DashHdoc, 3, true
			}
			if p.peek(2) == '<' {
				return ast.HdocStr, 3, true
			}
			return ast.Hdoc, 2, true
		case '>':
			return ast.RdrInOut, 2, true
		case '&':
			return ast.DplIn, 2, true
		}
		return ast.RdrIn, 1, true
	case '>':
		switch p.peek(1) {
		case '>':
			return ast.AppOut, 2, true
		case '&':
			return ast.DplOut, 2, true
		case '|':
			return ast.ClobberOut, 2, true
		}
		return ast.RdrOut, 1, true
	}
	return 0, 0, false
}

// parseHeredocWord reads the here-doc delimiter word, recording whether it
// was quoted (which suppresses expansion in the body) for doPendingHeredocs.
func (p *Parser) parseHeredocWord(r *ast.Redirect) {
	quoted := false
	start := p.pos()
	var lit []byte
	for !isWordEnd(p.cur()) {
		switch p.cur() {
		case '\'', '"':
			quoted = true
			q := p.cur()
			p.advance(1)
			for p.cur() != q && !p.atEnd() {
				lit = append(lit, p.cur())
				p.advance(1)
			}
			p.advance(1)
		case '\\':
			quoted = true
			p.advance(1)
			lit = append(lit, p.cur())
			p.advance(1)
		default:
			lit = append(lit, p.cur())
			p.advance(1)
		}
	}
	delim := string(lit)
	r.Word = ast.Word{Parts: []ast.WordPart{&ast.Lit{ValuePos: start, Value: delim}}}
	if quoted {
		p.heredocQuoted = append(p.heredocQuoted, r)
	}
}

// doPendingHeredocs reads the raw body lines for each heredoc declared on
// the line just terminated: here-docs are read once the newline ending
// their command line is reached.
func (p *Parser) doPendingHeredocs() {
	if len(p.heredocs) == 0 {
		return
	}
	// The declaring line's own newline hasn't been consumed yet; read and
	// discard its (always empty) remainder so the first real HeredocLine
	// call below starts on the line right after it.
	p.lx.HeredocLine(false)
	for _, r := range p.heredocs {
		raw := r.Op == ast.DashHdoc
		delim := r.Word.Lit()
		quoted := p.isHeredocQuoted(r)
		var body []byte
		for {
			line, atEOF := p.lx.HeredocLine(raw)
			trimmed := line
			if trimmed == delim {
				break
			}
			body = append(body, line...)
			body = append(body, '\n')
			if atEOF {
				break
			}
		}
		hw := &ast.Word{}
		if quoted {
			hw.Parts = []ast.WordPart{&ast.SglQuoted{Value: string(body)}}
		} else {
			hw.Parts = []ast.WordPart{&ast.Lit{Value: string(body)}}
		}
		r.Hdoc = hw
	}
	p.heredocs = nil
	p.heredocQuoted = nil
}

func (p *Parser) isHeredocQuoted(r *ast.Redirect) bool {
	for _, q := range p.heredocQuoted {
		if q == r {
			return true
		}
	}
	return false
}
