package parser

import "cjsh/ast"

// testUnaryOps maps a `[[ ]]` unary flag to its TestUnOp.
var testUnaryOps = map[string]ast.TestUnOp{
	"-e": ast.TestExists, "-f": ast.TestRegular, "-d": ast.TestDir,
	"-r": ast.TestReadable, "-w": ast.TestWritable, "-x": ast.TestExecutable,
	"-s": ast.TestSize, "-L": ast.TestSymlink, "-h": ast.TestSymlink,
	"-p": ast.TestPipe, "-S": ast.TestSocket, "-b": ast.TestBlock,
	"-c": ast.TestChar, "-u": ast.TestSetuid, "-g": ast.TestSetgid,
	"-t": ast.TestTerminal, "-z": ast.TestStrEmpty, "-n": ast.TestStrNonEmpty,
	"-v": ast.TestVarSet,
}

// testIntOps maps the word-form `[[ ]]` binary comparisons to their
// TestBinOp; these never overlap with the symbolic operators since they
// always start with a dash.
var testIntOps = map[string]ast.TestBinOp{
	"-eq": ast.TestIntEq, "-ne": ast.TestIntNe, "-lt": ast.TestIntLt,
	"-le": ast.TestIntLe, "-gt": ast.TestIntGt, "-ge": ast.TestIntGe,
	"-nt": ast.TestNewer, "-ot": ast.TestOlder, "-ef": ast.TestSameFile,
}

// testClause parses `[[ expr ]]`.
func (p *Parser) testClause() *ast.TestClause {
	tc := &ast.TestClause{Left: p.pos()}
	p.advance(2)
	tc.X = p.testOr()
	p.skipBlanks()
	tc.Right = p.pos()
	p.gotByte(']')
	p.gotByte(']')
	return tc
}

func (p *Parser) testOr() ast.TestExpr {
	left := p.testAnd()
	for {
		p.skipBlanks()
		if p.cur() == '|' && p.peek(1) == '|' {
			opPos := p.pos()
			p.advance(2)
			p.skipNewlines()
			right := p.testAnd()
			left = &ast.BinaryTest{OpPos: opPos, Op: ast.TestOr, X: left, Y: right}
			continue
		}
		return left
	}
}

func (p *Parser) testAnd() ast.TestExpr {
	left := p.testUnaryOrPrimary()
	for {
		p.skipBlanks()
		if p.cur() == '&' && p.peek(1) == '&' {
			opPos := p.pos()
			p.advance(2)
			p.skipNewlines()
			right := p.testUnaryOrPrimary()
			left = &ast.BinaryTest{OpPos: opPos, Op: ast.TestAnd, X: left, Y: right}
			continue
		}
		return left
	}
}

func (p *Parser) testUnaryOrPrimary() ast.TestExpr {
	p.skipBlanks()
	if p.gotWord("!") {
		opPos := p.pos() - 1
		p.skipBlanks()
		x := p.testUnaryOrPrimary()
		return &ast.UnaryTest{OpPos: opPos, Op: ast.TestNot, X: x}
	}
	if p.cur() == '(' {
		lp := p.pos()
		p.advance(1)
		x := p.testOr()
		p.skipBlanks()
		rp := p.pos()
		p.gotByte(')')
		return &ast.ParenTest{Lparen: lp, Rparen: rp, X: x}
	}
	return p.testOperandOrComparison()
}

// testOperandOrComparison parses a `-f word`-style unary test, or a bare
// word optionally followed by a binary comparison operator and a second
// word.
func (p *Parser) testOperandOrComparison() ast.TestExpr {
	p.skipBlanks()
	if p.cur() == '-' {
		flag := string([]byte{p.peek(0), p.peek(1)})
		if op, ok := testUnaryOps[flag]; ok && isWordEnd(p.peek(2)) {
			opPos := p.pos()
			p.advance(2)
			p.skipBlanks()
			operand := p.word()
			return &ast.UnaryTest{OpPos: opPos, Op: op, X: operand}
		}
	}
	left := p.word()
	var leftExpr ast.TestExpr = left
	p.skipBlanks()
	if op, size, ok := p.peekTestBinOp(); ok {
		opPos := p.pos()
		p.advance(size)
		p.skipBlanks()
		right := p.word()
		return &ast.BinaryTest{OpPos: opPos, Op: op, X: leftExpr, Y: right}
	}
	return leftExpr
}

// peekTestBinOp recognizes a `[[ ]]` binary comparison operator at the
// current position without consuming it.
func (p *Parser) peekTestBinOp() (ast.TestBinOp, int, bool) {
	b0, b1 := p.cur(), p.peek(1)
	switch {
	case b0 == '=' && b1 == '=':
		return ast.TestEql, 2, true
	case b0 == '!' && b1 == '=':
		return ast.TestNeq, 2, true
	case b0 == '=' && b1 == '~':
		return ast.TestReMatch, 2, true
	case b0 == '=' && isWordEnd(b1):
		return ast.TestEql, 1, true
	case b0 == '<':
		return ast.TestLt, 1, true
	case b0 == '>':
		return ast.TestGt, 1, true
	case b0 == '-':
		word := string([]byte{p.peek(0), p.peek(1), p.peek(2)})
		if op, ok := testIntOps[word]; ok && isWordEnd(p.peek(3)) {
			return op, 3, true
		}
	}
	return 0, 0, false
}
