package ast

import (
	"testing"

	"cjsh/token"
)

func TestWordPosEnd(t *testing.T) {
	w := &Word{Parts: []WordPart{
		&Lit{ValuePos: 1, Value: "foo"},
		&Lit{ValuePos: 4, Value: "bar"},
	}}
	if w.Pos() != 1 {
		t.Errorf("Pos() = %d, want 1", w.Pos())
	}
	if w.End() != 7 {
		t.Errorf("End() = %d, want 7", w.End())
	}
}

func TestWordLitOnlySingleLitPart(t *testing.T) {
	w := &Word{Parts: []WordPart{&Lit{Value: "abc"}}}
	if w.Lit() != "abc" {
		t.Errorf("Lit() = %q, want %q", w.Lit(), "abc")
	}
	multi := &Word{Parts: []WordPart{&Lit{Value: "a"}, &Lit{Value: "b"}}}
	if multi.Lit() != "" {
		t.Errorf("Lit() on multi-part word = %q, want empty", multi.Lit())
	}
}

func TestEmptyWordPosEndAreNoPos(t *testing.T) {
	w := &Word{}
	if w.Pos() != token.NoPos || w.End() != token.NoPos {
		t.Errorf("empty Word Pos/End = %d/%d, want NoPos", w.Pos(), w.End())
	}
}

func TestFilePositionResolvesLineAndColumn(t *testing.T) {
	f := &File{Lines: []int{0, 4, 9}}
	pos := f.Position(token.Pos(10)) // offset 9, start of third line
	if pos.Line != 3 || pos.Column != 1 {
		t.Errorf("Position(10) = %+v, want line 3 col 1", pos)
	}
}

func TestCommandNodeImplementations(t *testing.T) {
	var cmds = []Command{
		&CallExpr{Args: []*Word{{Parts: []WordPart{&Lit{Value: "echo"}}}}},
		&IfClause{Fi: 10},
		&WhileClause{Done: 5},
		&UntilClause{Done: 5},
		&ForClause{Done: 5},
		&CaseClause{Esac: 5},
		&Block{Lbrace: 1, Rbrace: 5},
		&Subshell{Lparen: 1, Rparen: 5},
		&ArithmCmd{Left: 1, Right: 5},
		&TestClause{Left: 1, Right: 5},
	}
	for _, c := range cmds {
		_ = c.Pos()
		_ = c.End()
	}
}

func TestLoopImplementations(t *testing.T) {
	var loops = []Loop{
		&WordIter{Name: Lit{ValuePos: 1, Value: "i"}},
		&CStyleLoop{Lparen: 1, Rparen: 10},
	}
	for _, l := range loops {
		_ = l.Pos()
		_ = l.End()
	}
}

func TestArithAndTestExprImplementations(t *testing.T) {
	x := &Word{Parts: []WordPart{&Lit{ValuePos: 1, Value: "1"}}}
	y := &Word{Parts: []WordPart{&Lit{ValuePos: 2, Value: "2"}}}
	var arith ArithmExpr = &BinaryArithm{OpPos: 1, Op: ArAdd, X: x, Y: y}
	if arith.Pos() != x.Pos() || arith.End() != y.End() {
		t.Errorf("BinaryArithm Pos/End mismatch")
	}
	var un ArithmExpr = &UnaryArithm{OpPos: 1, Op: ArSub, X: x}
	if un.Pos() != 1 {
		t.Errorf("prefix UnaryArithm.Pos() = %d, want OpPos", un.Pos())
	}
	post := &UnaryArithm{OpPos: 3, Op: ArInc, Post: true, X: x}
	if post.Pos() != x.Pos() {
		t.Errorf("postfix UnaryArithm.Pos() = %d, want X.Pos()", post.Pos())
	}

	var t1 TestExpr = &BinaryTest{OpPos: 1, Op: TestEql, X: x, Y: y}
	if t1.Pos() != x.Pos() {
		t.Errorf("BinaryTest.Pos() mismatch")
	}
	var un2 TestExpr = &UnaryTest{OpPos: 1, Op: TestNot, X: x}
	if un2.Pos() != 1 {
		t.Errorf("UnaryTest.Pos() = %d, want 1", un2.Pos())
	}
}

func TestBraceExpPosEnd(t *testing.T) {
	b := &BraceExp{Lbrace: 1, Rbrace: 10}
	if b.Pos() != 1 || b.End() != 11 {
		t.Errorf("BraceExp Pos/End = %d/%d, want 1/11", b.Pos(), b.End())
	}
}
