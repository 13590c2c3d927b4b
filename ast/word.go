package ast

import "cjsh/token"

// Word is an ordered sequence of segments, each either literal bytes or a
// deferred expansion node. The Expander flattens a Word to zero or more
// fields after splitting on IFS and pathname expansion.
type Word struct {
	Parts []WordPart
}

func (w *Word) Pos() token.Pos {
	if len(w.Parts) == 0 {
		return token.NoPos
	}
	return w.Parts[0].Pos()
}
func (w *Word) End() token.Pos {
	if len(w.Parts) == 0 {
		return token.NoPos
	}
	return w.Parts[len(w.Parts)-1].End()
}

// Lit is a literal, unquoted-at-this-point run of bytes.
func (w *Word) Lit() string {
	if len(w.Parts) != 1 {
		return ""
	}
	if l, ok := w.Parts[0].(*Lit); ok {
		return l.Value
	}
	return ""
}

// WordPart is one segment of a Word.
type WordPart interface {
	Node
	wordPartNode()
}

func (*Lit) wordPartNode()       {}
func (*SglQuoted) wordPartNode() {}
func (*DblQuoted) wordPartNode() {}
func (*ParamExp) wordPartNode()  {}
func (*CmdSubst) wordPartNode()  {}
func (*ArithmExp) wordPartNode() {}
func (*ProcSubst) wordPartNode() {}
func (*ExtGlob) wordPartNode()   {}
func (*BraceExp) wordPartNode()  {}

// Lit is a run of literal bytes, already unescaped of any backslash that
// was used purely for quoting (quote removal for the literal view happens
// later, in the expander, since the raw spelling is still needed for
// brace/tilde expansion).
type Lit struct {
	ValuePos token.Pos
	Value    string
}

func (l *Lit) Pos() token.Pos { return l.ValuePos }
func (l *Lit) End() token.Pos { return l.ValuePos + token.Pos(len(l.Value)) }

// SglQuoted is a 'literal, no escapes' string.
type SglQuoted struct {
	Position token.Pos
	Value    string
}

func (q *SglQuoted) Pos() token.Pos { return q.Position }
func (q *SglQuoted) End() token.Pos { return q.Position + token.Pos(2+len(q.Value)) }

// DblQuoted is a "double quoted" sequence of word parts; field splitting
// and pathname expansion are suppressed across it.
type DblQuoted struct {
	Position token.Pos
	Parts    []WordPart
}

func (q *DblQuoted) Pos() token.Pos { return q.Position }
func (q *DblQuoted) End() token.Pos {
	if len(q.Parts) == 0 {
		return q.Position + 2
	}
	return q.Parts[len(q.Parts)-1].End() + 1
}

// CmdSubst is `$(cmd)` or `` `cmd` ``.
type CmdSubst struct {
	Left, Right token.Pos
	Backquote   bool
	Stmts       []*Stmt
}

func (c *CmdSubst) Pos() token.Pos { return c.Left }
func (c *CmdSubst) End() token.Pos { return c.Right + 1 }

// ParExpOp identifies a `${var op word}` operator.
type ParExpOp int

const (
	ParExpNone     ParExpOp = iota
	DefaultUnset            // :-
	DefaultUnsetQ           // -
	AssignUnset             // :=
	AssignUnsetQ            // =
	ErrorUnset              // :?
	ErrorUnsetQ             // ?
	AltUnset                // :+
	AltUnsetQ               // +
	RemSmallPrefix          // #
	RemLargePrefix          // ##
	RemSmallSuffix          // %
	RemLargeSuffix          // %%
	ReplaceOnce             // / (first match)
	ReplaceAll              // // (all matches)
	ReplacePrefix           // /# (anchor at start)
	ReplaceSuffix           // /% (anchor at end)
)

// ParamExp is `$name`, `${name}`, or the full `${name op word}` family.
type ParamExp struct {
	Dollar, Rbrace token.Pos
	Short          bool // true for bare $name, no braces
	Length         bool // ${#name}
	Param          Lit
	Index          *Word   // ${arr[i]}
	SliceOff       *Word   // ${var:off[:len]}
	SliceLen       *Word
	Op             ParExpOp
	Pattern        *Word // the pat in #/##/%/%%, or the search in replace
	Repl           *Word // the replacement word, for replace ops
	Arg            *Word // the word argument for default/assign/error/alt ops
}

func (p *ParamExp) Pos() token.Pos { return p.Dollar }
func (p *ParamExp) End() token.Pos {
	if p.Rbrace > 0 {
		return p.Rbrace + 1
	}
	return p.Param.End()
}

// ArithmExp is `$((expr))`.
type ArithmExp struct {
	Left, Right token.Pos
	X           ArithmExpr
}

func (a *ArithmExp) Pos() token.Pos { return a.Left }
func (a *ArithmExp) End() token.Pos { return a.Right + 2 }

// ArithmExpr is any node that can appear inside `$(( ))` / `(( ))`.
type ArithmExpr interface {
	Node
	arithmExprNode()
}

func (*BinaryArithm) arithmExprNode() {}
func (*UnaryArithm) arithmExprNode()  {}
func (*ParenArithm) arithmExprNode()  {}
func (*Word) arithmExprNode()         {}

// ArithOp is an arithmetic operator token, shared between binary and unary
// arithmetic nodes.
type ArithOp int

const (
	ArAdd ArithOp = iota
	ArSub
	ArMul
	ArQuo
	ArRem
	ArPow
	ArShl
	ArShr
	ArAnd
	ArOr
	ArXor
	ArNot    // !
	ArBitNeg // ~
	ArLand
	ArLor
	ArEql
	ArNeq
	ArLss
	ArLeq
	ArGtr
	ArGeq
	ArTernQuest // ?
	ArTernColon // :
	ArComma
	ArAssgn
	ArAddAssgn
	ArSubAssgn
	ArMulAssgn
	ArQuoAssgn
	ArRemAssgn
	ArAndAssgn
	ArOrAssgn
	ArXorAssgn
	ArShlAssgn
	ArShrAssgn
	ArInc
	ArDec
)

// BinaryArithm is `X op Y`.
type BinaryArithm struct {
	OpPos token.Pos
	Op    ArithOp
	X, Y  ArithmExpr
}

func (b *BinaryArithm) Pos() token.Pos { return b.X.Pos() }
func (b *BinaryArithm) End() token.Pos { return b.Y.End() }

// UnaryArithm is a prefix or postfix unary arithmetic operator.
type UnaryArithm struct {
	OpPos token.Pos
	Op    ArithOp
	Post  bool
	X     ArithmExpr
}

func (u *UnaryArithm) Pos() token.Pos {
	if u.Post {
		return u.X.Pos()
	}
	return u.OpPos
}
func (u *UnaryArithm) End() token.Pos {
	if u.Post {
		return u.OpPos + 2
	}
	return u.X.End()
}

// ParenArithm is `(expr)` within an arithmetic expression.
type ParenArithm struct {
	Lparen, Rparen token.Pos
	X              ArithmExpr
}

func (p *ParenArithm) Pos() token.Pos { return p.Lparen }
func (p *ParenArithm) End() token.Pos { return p.Rparen + 1 }

// TestExpr is any node inside `[[ ]]`.
type TestExpr interface {
	Node
	testExprNode()
}

func (*BinaryTest) testExprNode() {}
func (*UnaryTest) testExprNode()  {}
func (*ParenTest) testExprNode()  {}
func (*Word) testExprNode()       {}

// TestBinOp is a `[[ ]]` binary operator.
type TestBinOp int

const (
	TestAnd TestBinOp = iota // &&
	TestOr                   // ||
	TestEql                  // = / ==
	TestNeq                  // !=
	TestReMatch              // =~
	TestLt                   // <  (string)
	TestGt                   // >  (string)
	TestIntEq                // -eq
	TestIntNe                // -ne
	TestIntLt                // -lt
	TestIntLe                // -le
	TestIntGt                // -gt
	TestIntGe                // -ge
	TestNewer                // -nt
	TestOlder                // -ot
	TestSameFile              // -ef
)

// TestUnOp is a `[[ ]]` unary operator (mostly file tests).
type TestUnOp int

const (
	TestNot TestUnOp = iota // !
	TestExists              // -e
	TestRegular              // -f
	TestDir                  // -d
	TestReadable             // -r
	TestWritable             // -w
	TestExecutable           // -x
	TestSize                 // -s
	TestSymlink              // -L
	TestPipe                 // -p
	TestSocket               // -S
	TestBlock                // -b
	TestChar                 // -c
	TestSetuid               // -u
	TestSetgid               // -g
	TestTerminal             // -t
	TestStrEmpty             // -z
	TestStrNonEmpty          // -n
	TestVarSet               // -v
)

// BinaryTest is `X op Y` within `[[ ]]`.
type BinaryTest struct {
	OpPos token.Pos
	Op    TestBinOp
	X, Y  TestExpr
}

func (b *BinaryTest) Pos() token.Pos { return b.X.Pos() }
func (b *BinaryTest) End() token.Pos { return b.Y.End() }

// UnaryTest is `op X` within `[[ ]]`.
type UnaryTest struct {
	OpPos token.Pos
	Op    TestUnOp
	X     TestExpr
}

func (u *UnaryTest) Pos() token.Pos { return u.OpPos }
func (u *UnaryTest) End() token.Pos { return u.X.End() }

// ParenTest is `( expr )` within `[[ ]]`.
type ParenTest struct {
	Lparen, Rparen token.Pos
	X              TestExpr
}

func (p *ParenTest) Pos() token.Pos { return p.Lparen }
func (p *ParenTest) End() token.Pos { return p.Rparen + 1 }

// ExtGlob is a bash extended glob such as `!(pat)` or `@(a|b)`.
type ExtGlob struct {
	OpPos   token.Pos
	Op      byte // one of '@','!','?','+','*'
	Pattern *Word
	Rparen  token.Pos
}

func (e *ExtGlob) Pos() token.Pos { return e.OpPos }
func (e *ExtGlob) End() token.Pos { return e.Rparen + 1 }

// ProcOp distinguishes `<(` from `>(`.
type ProcOp int

const (
	ProcIn ProcOp = iota
	ProcOut
)

// ProcSubst is `<(cmd)` or `>(cmd)`; the expander replaces it with a path.
type ProcSubst struct {
	OpPos, Rparen token.Pos
	Op            ProcOp
	Stmts         []*Stmt
}

func (s *ProcSubst) Pos() token.Pos { return s.OpPos }
func (s *ProcSubst) End() token.Pos { return s.Rparen + 1 }

// BraceExp is a bash brace-expansion term: `{a,b,c}` or `{1..5[..2]}`.
// It is a syntax node (not merely a textual preprocessing step) so that
// quoting of the surrounding literal is preserved.
type BraceExp struct {
	Lbrace, Rbrace token.Pos
	Sequence       bool     // true for {a..b[..c]} ranges
	Elems          []*Word  // comma-separated elements, when !Sequence
	From, To       string   // range endpoints, when Sequence
	Incr           int      // range increment, when Sequence (default 1)
	Chars          bool     // true if From/To are single characters, not numbers
}

func (b *BraceExp) Pos() token.Pos { return b.Lbrace }
func (b *BraceExp) End() token.Pos { return b.Rbrace + 1 }

func stmtFirstPos(stmts []*Stmt) token.Pos {
	if len(stmts) == 0 {
		return token.NoPos
	}
	return stmts[0].Pos()
}

func stmtLastEnd(stmts []*Stmt) token.Pos {
	if len(stmts) == 0 {
		return token.NoPos
	}
	return stmts[len(stmts)-1].End()
}
