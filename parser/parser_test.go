package parser

import (
	"testing"

	"cjsh/ast"
)

func parseOK(t *testing.T, src string) *ast.File {
	t.Helper()
	f, err := Parse([]byte(src), "test")
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}
	return f
}

func firstCall(t *testing.T, f *ast.File) *ast.CallExpr {
	t.Helper()
	if len(f.Stmts) == 0 {
		t.Fatalf("no statements parsed")
	}
	c, ok := f.Stmts[0].Cmd.(*ast.CallExpr)
	if !ok {
		t.Fatalf("first statement is %T, want *ast.CallExpr", f.Stmts[0].Cmd)
	}
	return c
}

func TestSimpleCommand(t *testing.T) {
	f := parseOK(t, "echo foo bar")
	c := firstCall(t, f)
	if len(c.Args) != 3 {
		t.Fatalf("Args = %d, want 3", len(c.Args))
	}
	if c.Args[0].Lit() != "echo" || c.Args[1].Lit() != "foo" || c.Args[2].Lit() != "bar" {
		t.Fatalf("unexpected args: %q %q %q", c.Args[0].Lit(), c.Args[1].Lit(), c.Args[2].Lit())
	}
}

func TestAssignmentPrefix(t *testing.T) {
	f := parseOK(t, "FOO=bar echo $FOO")
	st := f.Stmts[0]
	if len(st.Assigns) != 1 {
		t.Fatalf("Assigns = %d, want 1", len(st.Assigns))
	}
	if st.Assigns[0].Name.Value != "FOO" || st.Assigns[0].Value.Lit() != "bar" {
		t.Fatalf("unexpected assign: %+v", st.Assigns[0])
	}
}

func TestAppendAssignment(t *testing.T) {
	f := parseOK(t, "FOO+=bar true")
	st := f.Stmts[0]
	if !st.Assigns[0].Append {
		t.Fatalf("expected Append assignment")
	}
}

func TestPipeline(t *testing.T) {
	f := parseOK(t, "a | b | c")
	bc, ok := f.Stmts[0].Cmd.(*ast.BinaryCmd)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.BinaryCmd", f.Stmts[0].Cmd)
	}
	if bc.Op != ast.Pipe {
		t.Fatalf("Op = %v, want Pipe", bc.Op)
	}
}

func TestPipeAllOperator(t *testing.T) {
	f := parseOK(t, "a |& b")
	bc := f.Stmts[0].Cmd.(*ast.BinaryCmd)
	if bc.Op != ast.PipeAll {
		t.Fatalf("Op = %v, want PipeAll", bc.Op)
	}
}

func TestAndOrChain(t *testing.T) {
	f := parseOK(t, "a && b || c")
	outer, ok := f.Stmts[0].Cmd.(*ast.BinaryCmd)
	if !ok || outer.Op != ast.OrStmt {
		t.Fatalf("expected top-level OrStmt, got %+v", f.Stmts[0].Cmd)
	}
	inner, ok := outer.X.Cmd.(*ast.BinaryCmd)
	if !ok || inner.Op != ast.AndStmt {
		t.Fatalf("expected left-associative AndStmt inside, got %+v", outer.X.Cmd)
	}
}

func TestNegatedPipeline(t *testing.T) {
	f := parseOK(t, "! true")
	if !f.Stmts[0].Negated {
		t.Fatalf("expected Negated statement")
	}
}

func TestBackgroundStatement(t *testing.T) {
	f := parseOK(t, "sleep 1 &")
	if !f.Stmts[0].Background {
		t.Fatalf("expected Background statement")
	}
}

func TestSubshell(t *testing.T) {
	f := parseOK(t, "(echo hi)")
	sub, ok := f.Stmts[0].Cmd.(*ast.Subshell)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.Subshell", f.Stmts[0].Cmd)
	}
	if len(sub.Stmts) != 1 {
		t.Fatalf("Stmts = %d, want 1", len(sub.Stmts))
	}
}

func TestBlock(t *testing.T) {
	f := parseOK(t, "{ echo hi; }")
	b, ok := f.Stmts[0].Cmd.(*ast.Block)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.Block", f.Stmts[0].Cmd)
	}
	if len(b.Stmts) != 1 {
		t.Fatalf("Stmts = %d, want 1", len(b.Stmts))
	}
}

func TestIfClause(t *testing.T) {
	f := parseOK(t, "if true; then echo a; elif false; then echo b; else echo c; fi")
	c, ok := f.Stmts[0].Cmd.(*ast.IfClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.IfClause", f.Stmts[0].Cmd)
	}
	if len(c.Elifs) != 1 {
		t.Fatalf("Elifs = %d, want 1", len(c.Elifs))
	}
	if len(c.ElseStmts) != 1 {
		t.Fatalf("ElseStmts = %d, want 1", len(c.ElseStmts))
	}
}

func TestWhileClause(t *testing.T) {
	f := parseOK(t, "while true; do echo hi; done")
	c, ok := f.Stmts[0].Cmd.(*ast.WhileClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.WhileClause", f.Stmts[0].Cmd)
	}
	if len(c.DoStmts) != 1 {
		t.Fatalf("DoStmts = %d, want 1", len(c.DoStmts))
	}
}

func TestUntilClause(t *testing.T) {
	f := parseOK(t, "until false; do echo hi; done")
	if _, ok := f.Stmts[0].Cmd.(*ast.UntilClause); !ok {
		t.Fatalf("Cmd = %T, want *ast.UntilClause", f.Stmts[0].Cmd)
	}
}

func TestForWordList(t *testing.T) {
	f := parseOK(t, "for x in a b c; do echo $x; done")
	c := f.Stmts[0].Cmd.(*ast.ForClause)
	iter, ok := c.Loop.(*ast.WordIter)
	if !ok {
		t.Fatalf("Loop = %T, want *ast.WordIter", c.Loop)
	}
	if iter.Name.Value != "x" || len(iter.List) != 3 {
		t.Fatalf("WordIter = %+v, want Name x and 3 items", iter)
	}
}

func TestForCStyle(t *testing.T) {
	f := parseOK(t, "for ((i=0; i<10; i++)); do echo $i; done")
	c := f.Stmts[0].Cmd.(*ast.ForClause)
	loop, ok := c.Loop.(*ast.CStyleLoop)
	if !ok {
		t.Fatalf("Loop = %T, want *ast.CStyleLoop", c.Loop)
	}
	if loop.Init == nil || loop.Cond == nil || loop.Post == nil {
		t.Fatalf("CStyleLoop missing a clause: %+v", loop)
	}
}

func TestCaseClause(t *testing.T) {
	f := parseOK(t, "case $x in a|b) echo ab;; *) echo other;; esac")
	c, ok := f.Stmts[0].Cmd.(*ast.CaseClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.CaseClause", f.Stmts[0].Cmd)
	}
	if len(c.Items) != 2 {
		t.Fatalf("Items = %d, want 2", len(c.Items))
	}
	if len(c.Items[0].Patterns) != 2 {
		t.Fatalf("first item Patterns = %d, want 2", len(c.Items[0].Patterns))
	}
}

func TestFuncDeclPOSIXForm(t *testing.T) {
	f := parseOK(t, "foo() { echo hi; }")
	fd, ok := f.Stmts[0].Cmd.(*ast.FuncDecl)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.FuncDecl", f.Stmts[0].Cmd)
	}
	if fd.Name.Value != "foo" {
		t.Fatalf("Name = %q, want foo", fd.Name.Value)
	}
}

func TestFuncDeclKeywordForm(t *testing.T) {
	f := parseOK(t, "function foo { echo hi; }")
	fd, ok := f.Stmts[0].Cmd.(*ast.FuncDecl)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.FuncDecl", f.Stmts[0].Cmd)
	}
	if fd.Name.Value != "foo" {
		t.Fatalf("Name = %q, want foo", fd.Name.Value)
	}
}

func TestArithmCmd(t *testing.T) {
	f := parseOK(t, "((x = 1 + 2))")
	a, ok := f.Stmts[0].Cmd.(*ast.ArithmCmd)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.ArithmCmd", f.Stmts[0].Cmd)
	}
	bin, ok := a.X.(*ast.BinaryArithm)
	if !ok || bin.Op != ast.ArAssgn {
		t.Fatalf("X = %+v, want top-level ArAssgn", a.X)
	}
}

func TestArithmOperatorPrecedence(t *testing.T) {
	f := parseOK(t, "((1 + 2 * 3))")
	a := f.Stmts[0].Cmd.(*ast.ArithmCmd)
	top, ok := a.X.(*ast.BinaryArithm)
	if !ok || top.Op != ast.ArAdd {
		t.Fatalf("top operator = %+v, want ArAdd", a.X)
	}
	right, ok := top.Y.(*ast.BinaryArithm)
	if !ok || right.Op != ast.ArMul {
		t.Fatalf("right operand = %+v, want nested ArMul", top.Y)
	}
}

func TestArithmTernary(t *testing.T) {
	f := parseOK(t, "((a ? 1 : 2))")
	a := f.Stmts[0].Cmd.(*ast.ArithmCmd)
	top, ok := a.X.(*ast.BinaryArithm)
	if !ok || top.Op != ast.ArTernQuest {
		t.Fatalf("top = %+v, want ArTernQuest", a.X)
	}
	colon, ok := top.Y.(*ast.BinaryArithm)
	if !ok || colon.Op != ast.ArTernColon {
		t.Fatalf("Y = %+v, want ArTernColon", top.Y)
	}
}

func TestTestClauseUnaryAndBinary(t *testing.T) {
	f := parseOK(t, `[[ -f foo && $x == "bar" ]]`)
	tc, ok := f.Stmts[0].Cmd.(*ast.TestClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.TestClause", f.Stmts[0].Cmd)
	}
	top, ok := tc.X.(*ast.BinaryTest)
	if !ok || top.Op != ast.TestAnd {
		t.Fatalf("top = %+v, want TestAnd", tc.X)
	}
	left, ok := top.X.(*ast.UnaryTest)
	if !ok || left.Op != ast.TestRegular {
		t.Fatalf("left = %+v, want -f unary test", top.X)
	}
	right, ok := top.Y.(*ast.BinaryTest)
	if !ok || right.Op != ast.TestEql {
		t.Fatalf("right = %+v, want == binary test", top.Y)
	}
}

func TestRedirections(t *testing.T) {
	f := parseOK(t, "cmd > out.txt 2>&1 < in.txt")
	st := f.Stmts[0]
	if len(st.Redirs) != 3 {
		t.Fatalf("Redirs = %d, want 3", len(st.Redirs))
	}
	if st.Redirs[0].Op != ast.RdrOut {
		t.Fatalf("Redirs[0].Op = %v, want RdrOut", st.Redirs[0].Op)
	}
	if st.Redirs[1].Op != ast.DplOut || st.Redirs[1].N == nil || st.Redirs[1].N.Value != "2" {
		t.Fatalf("Redirs[1] = %+v, want fd 2 DplOut", st.Redirs[1])
	}
	if st.Redirs[2].Op != ast.RdrIn {
		t.Fatalf("Redirs[2].Op = %v, want RdrIn", st.Redirs[2].Op)
	}
}

func TestHeredoc(t *testing.T) {
	f := parseOK(t, "cat <<EOF\nhello\nworld\nEOF\n")
	st := f.Stmts[0]
	if len(st.Redirs) != 1 {
		t.Fatalf("Redirs = %d, want 1", len(st.Redirs))
	}
	r := st.Redirs[0]
	if r.Op != ast.Hdoc {
		t.Fatalf("Op = %v, want Hdoc", r.Op)
	}
	if r.Hdoc == nil || r.Hdoc.Lit() != "hello\nworld\n" {
		t.Fatalf("Hdoc body = %q, want %q", r.Hdoc.Lit(), "hello\nworld\n")
	}
}

func TestSingleAndDoubleQuotedWords(t *testing.T) {
	f := parseOK(t, `echo 'a b' "c d"`)
	c := firstCall(t, f)
	sq, ok := c.Args[1].Parts[0].(*ast.SglQuoted)
	if !ok || sq.Value != "a b" {
		t.Fatalf("Args[1] = %+v, want SglQuoted \"a b\"", c.Args[1])
	}
	dq, ok := c.Args[2].Parts[0].(*ast.DblQuoted)
	if !ok {
		t.Fatalf("Args[2] = %+v, want DblQuoted", c.Args[2])
	}
	lit, ok := dq.Parts[0].(*ast.Lit)
	if !ok || lit.Value != "c d" {
		t.Fatalf("DblQuoted body = %+v, want literal \"c d\"", dq.Parts[0])
	}
}

func TestParamExpShortAndBraced(t *testing.T) {
	f := parseOK(t, "echo $foo ${bar}")
	c := firstCall(t, f)
	short, ok := c.Args[1].Parts[0].(*ast.ParamExp)
	if !ok || !short.Short || short.Param.Value != "foo" {
		t.Fatalf("Args[1] = %+v, want short $foo", c.Args[1])
	}
	braced, ok := c.Args[2].Parts[0].(*ast.ParamExp)
	if !ok || braced.Short || braced.Param.Value != "bar" {
		t.Fatalf("Args[2] = %+v, want braced ${bar}", c.Args[2])
	}
}

func TestParamExpDefaultUnset(t *testing.T) {
	f := parseOK(t, "echo ${foo:-bar}")
	c := firstCall(t, f)
	pe := c.Args[1].Parts[0].(*ast.ParamExp)
	if pe.Op != ast.DefaultUnset || pe.Arg == nil || pe.Arg.Lit() != "bar" {
		t.Fatalf("ParamExp = %+v, want DefaultUnset with arg bar", pe)
	}
}

func TestParamExpRemovePrefixSuffix(t *testing.T) {
	f := parseOK(t, "echo ${path##*/} ${path%.*}")
	c := firstCall(t, f)
	pre := c.Args[1].Parts[0].(*ast.ParamExp)
	if pre.Op != ast.RemLargePrefix || pre.Pattern.Lit() != "*/" {
		t.Fatalf("prefix ParamExp = %+v", pre)
	}
	suf := c.Args[2].Parts[0].(*ast.ParamExp)
	if suf.Op != ast.RemSmallSuffix || suf.Pattern.Lit() != ".*" {
		t.Fatalf("suffix ParamExp = %+v", suf)
	}
}

func TestParamExpLength(t *testing.T) {
	f := parseOK(t, "echo ${#foo}")
	c := firstCall(t, f)
	pe := c.Args[1].Parts[0].(*ast.ParamExp)
	if !pe.Length || pe.Param.Value != "foo" {
		t.Fatalf("ParamExp = %+v, want Length over foo", pe)
	}
}

func TestCommandSubstitutionDollarParen(t *testing.T) {
	f := parseOK(t, "echo $(echo hi)")
	c := firstCall(t, f)
	cs, ok := c.Args[1].Parts[0].(*ast.CmdSubst)
	if !ok || cs.Backquote {
		t.Fatalf("Args[1] = %+v, want $() command substitution", c.Args[1])
	}
	if len(cs.Stmts) != 1 {
		t.Fatalf("CmdSubst.Stmts = %d, want 1", len(cs.Stmts))
	}
}

func TestCommandSubstitutionBackquote(t *testing.T) {
	f := parseOK(t, "echo `echo hi`")
	c := firstCall(t, f)
	cs, ok := c.Args[1].Parts[0].(*ast.CmdSubst)
	if !ok || !cs.Backquote {
		t.Fatalf("Args[1] = %+v, want backquote command substitution", c.Args[1])
	}
}

func TestArithmeticExpansion(t *testing.T) {
	f := parseOK(t, "echo $((1 + 2))")
	c := firstCall(t, f)
	ae, ok := c.Args[1].Parts[0].(*ast.ArithmExp)
	if !ok {
		t.Fatalf("Args[1] = %+v, want *ast.ArithmExp", c.Args[1])
	}
	bin, ok := ae.X.(*ast.BinaryArithm)
	if !ok || bin.Op != ast.ArAdd {
		t.Fatalf("ArithmExp.X = %+v, want ArAdd", ae.X)
	}
}

func TestBraceExpansionList(t *testing.T) {
	f := parseOK(t, "echo {a,b,c}")
	c := firstCall(t, f)
	be, ok := c.Args[1].Parts[0].(*ast.BraceExp)
	if !ok || be.Sequence {
		t.Fatalf("Args[1] = %+v, want comma BraceExp", c.Args[1])
	}
	if len(be.Elems) != 3 {
		t.Fatalf("Elems = %d, want 3", len(be.Elems))
	}
}

func TestBraceExpansionRange(t *testing.T) {
	f := parseOK(t, "echo {1..5..2}")
	c := firstCall(t, f)
	be, ok := c.Args[1].Parts[0].(*ast.BraceExp)
	if !ok || !be.Sequence {
		t.Fatalf("Args[1] = %+v, want sequence BraceExp", c.Args[1])
	}
	if be.From != "1" || be.To != "5" || be.Incr != 2 {
		t.Fatalf("BraceExp = %+v, want From=1 To=5 Incr=2", be)
	}
}

func TestProcessSubstitution(t *testing.T) {
	f := parseOK(t, "diff <(sort a) >(sort b)")
	c := firstCall(t, f)
	in, ok := c.Args[1].Parts[0].(*ast.ProcSubst)
	if !ok || in.Op != ast.ProcIn {
		t.Fatalf("Args[1] = %+v, want <( ) process substitution", c.Args[1])
	}
	out, ok := c.Args[2].Parts[0].(*ast.ProcSubst)
	if !ok || out.Op != ast.ProcOut {
		t.Fatalf("Args[2] = %+v, want >( ) process substitution", c.Args[2])
	}
}

func TestParseErrorUnterminatedSubshell(t *testing.T) {
	_, err := Parse([]byte("(echo hi"), "test")
	if err == nil {
		t.Fatalf("expected a syntax error for an unterminated subshell")
	}
}

func TestParseErrorUnterminatedSingleQuote(t *testing.T) {
	_, err := Parse([]byte("echo 'abc"), "test")
	if err == nil {
		t.Fatalf("expected a syntax error for an unterminated single quote")
	}
}
