package parser

import "cjsh/ast"

// arithOpInfo describes one binary arithmetic operator: its AST kind,
// precedence (higher binds tighter), associativity, and byte length.
type arithOpInfo struct {
	op         ast.ArithOp
	prec       int
	rightAssoc bool
	size       int
}

// peekArithOp recognizes the binary operator at the current position, if
// any, without consuming it. Longer spellings are checked before their
// single-byte prefixes so maximal munch holds (e.g. "<<=" before "<<"
// before "<").
func (p *Parser) peekArithOp() (arithOpInfo, bool) {
	b0, b1, b2 := p.cur(), p.peek(1), p.peek(2)
	switch {
	case b0 == '<' && b1 == '<' && b2 == '=':
		return arithOpInfo{ast.ArShlAssgn, 2, true, 3}, true
	case b0 == '>' && b1 == '>' && b2 == '=':
		return arithOpInfo{ast.ArShrAssgn, 2, true, 3}, true
	case b0 == '*' && b1 == '*':
		return arithOpInfo{ast.ArPow, 14, true, 2}, true
	case b0 == '=' && b1 == '=':
		return arithOpInfo{ast.ArEql, 9, false, 2}, true
	case b0 == '!' && b1 == '=':
		return arithOpInfo{ast.ArNeq, 9, false, 2}, true
	case b0 == '<' && b1 == '=':
		return arithOpInfo{ast.ArLeq, 10, false, 2}, true
	case b0 == '>' && b1 == '=':
		return arithOpInfo{ast.ArGeq, 10, false, 2}, true
	case b0 == '&' && b1 == '&':
		return arithOpInfo{ast.ArLand, 5, false, 2}, true
	case b0 == '|' && b1 == '|':
		return arithOpInfo{ast.ArLor, 4, false, 2}, true
	case b0 == '<' && b1 == '<':
		return arithOpInfo{ast.ArShl, 11, false, 2}, true
	case b0 == '>' && b1 == '>':
		return arithOpInfo{ast.ArShr, 11, false, 2}, true
	case b0 == '+' && b1 == '+', b0 == '-' && b1 == '-':
		return arithOpInfo{}, false // postfix/prefix, handled outside this table
	case b0 == '+' && b1 == '=':
		return arithOpInfo{ast.ArAddAssgn, 2, true, 2}, true
	case b0 == '-' && b1 == '=':
		return arithOpInfo{ast.ArSubAssgn, 2, true, 2}, true
	case b0 == '*' && b1 == '=':
		return arithOpInfo{ast.ArMulAssgn, 2, true, 2}, true
	case b0 == '/' && b1 == '=':
		return arithOpInfo{ast.ArQuoAssgn, 2, true, 2}, true
	case b0 == '%' && b1 == '=':
		return arithOpInfo{ast.ArRemAssgn, 2, true, 2}, true
	case b0 == '&' && b1 == '=':
		return arithOpInfo{ast.ArAndAssgn, 2, true, 2}, true
	case b0 == '|' && b1 == '=':
		return arithOpInfo{ast.ArOrAssgn, 2, true, 2}, true
	case b0 == '^' && b1 == '=':
		return arithOpInfo{ast.ArXorAssgn, 2, true, 2}, true
	case b0 == ',':
		return arithOpInfo{ast.ArComma, 1, false, 1}, true
	case b0 == '=':
		return arithOpInfo{ast.ArAssgn, 2, true, 1}, true
	case b0 == '?':
		return arithOpInfo{ast.ArTernQuest, 3, true, 1}, true
	case b0 == '|':
		return arithOpInfo{ast.ArOr, 6, false, 1}, true
	case b0 == '^':
		return arithOpInfo{ast.ArXor, 7, false, 1}, true
	case b0 == '&':
		return arithOpInfo{ast.ArAnd, 8, false, 1}, true
	case b0 == '<':
		return arithOpInfo{ast.ArLss, 10, false, 1}, true
	case b0 == '>':
		return arithOpInfo{ast.ArGtr, 10, false, 1}, true
	case b0 == '+':
		return arithOpInfo{ast.ArAdd, 12, false, 1}, true
	case b0 == '-':
		return arithOpInfo{ast.ArSub, 12, false, 1}, true
	case b0 == '*':
		return arithOpInfo{ast.ArMul, 13, false, 1}, true
	case b0 == '/':
		return arithOpInfo{ast.ArQuo, 13, false, 1}, true
	case b0 == '%':
		return arithOpInfo{ast.ArRem, 13, false, 1}, true
	}
	return arithOpInfo{}, false
}

// arithExpr parses an arithmetic expression by precedence climbing,
// stopping once the next operator binds looser than minPrec.
func (p *Parser) arithExpr(minPrec int) ast.ArithmExpr {
	left := p.arithUnary()
	for {
		p.skipBlanks()
		info, ok := p.peekArithOp()
		if !ok || info.prec < minPrec {
			return left
		}
		if info.op == ast.ArTernQuest {
			opPos := p.pos()
			p.advance(info.size)
			mid := p.arithExpr(0)
			p.skipBlanks()
			colonPos := p.pos()
			p.gotByte(':')
			right := p.arithExpr(info.prec)
			left = &ast.BinaryArithm{OpPos: opPos, Op: ast.ArTernQuest, X: left,
				Y: &ast.BinaryArithm{OpPos: colonPos, Op: ast.ArTernColon, X: mid, Y: right}}
			continue
		}
		opPos := p.pos()
		p.advance(info.size)
		nextMin := info.prec + 1
		if info.rightAssoc {
			nextMin = info.prec
		}
		right := p.arithExpr(nextMin)
		left = &ast.BinaryArithm{OpPos: opPos, Op: info.op, X: left, Y: right}
	}
}

func (p *Parser) arithUnary() ast.ArithmExpr {
	p.skipBlanks()
	switch {
	case p.cur() == '+' && p.peek(1) == '+':
		pos := p.pos()
		p.advance(2)
		return &ast.UnaryArithm{OpPos: pos, Op: ast.ArInc, X: p.arithUnary()}
	case p.cur() == '-' && p.peek(1) == '-':
		pos := p.pos()
		p.advance(2)
		return &ast.UnaryArithm{OpPos: pos, Op: ast.ArDec, X: p.arithUnary()}
	case p.cur() == '+':
		pos := p.pos()
		p.advance(1)
		return &ast.UnaryArithm{OpPos: pos, Op: ast.ArAdd, X: p.arithUnary()}
	case p.cur() == '-':
		pos := p.pos()
		p.advance(1)
		return &ast.UnaryArithm{OpPos: pos, Op: ast.ArSub, X: p.arithUnary()}
	case p.cur() == '!':
		pos := p.pos()
		p.advance(1)
		return &ast.UnaryArithm{OpPos: pos, Op: ast.ArNot, X: p.arithUnary()}
	case p.cur() == '~':
		pos := p.pos()
		p.advance(1)
		return &ast.UnaryArithm{OpPos: pos, Op: ast.ArBitNeg, X: p.arithUnary()}
	}
	return p.arithPostfix()
}

func (p *Parser) arithPostfix() ast.ArithmExpr {
	x := p.arithPrimary()
	p.skipBlanks()
	if p.cur() == '+' && p.peek(1) == '+' {
		pos := p.pos()
		p.advance(2)
		return &ast.UnaryArithm{OpPos: pos, Op: ast.ArInc, Post: true, X: x}
	}
	if p.cur() == '-' && p.peek(1) == '-' {
		pos := p.pos()
		p.advance(2)
		return &ast.UnaryArithm{OpPos: pos, Op: ast.ArDec, Post: true, X: x}
	}
	return x
}

func (p *Parser) arithPrimary() ast.ArithmExpr {
	p.skipBlanks()
	if p.cur() == '(' {
		lp := p.pos()
		p.advance(1)
		x := p.arithExpr(0)
		p.skipBlanks()
		rp := p.pos()
		p.gotByte(')')
		return &ast.ParenArithm{Lparen: lp, Rparen: rp, X: x}
	}
	if p.cur() == '$' {
		if w := p.word(); w != nil {
			return w
		}
	}
	start := p.pos()
	n := 0
	for {
		c := p.peek(n)
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			n++
			continue
		}
		break
	}
	if n == 0 {
		p.errorf(start, "PAR010", "unexpected %q in arithmetic expression", string(p.cur()))
		if !p.atEnd() {
			p.advance(1)
		}
		return &ast.Word{}
	}
	lit := p.takeRaw(n)
	if p.cur() == '[' {
		p.advance(1)
		idx := p.rawBalancedUntilRBracket()
		return &ast.Word{Parts: []ast.WordPart{&ast.Lit{ValuePos: start, Value: lit + "[" + idx + "]"}}}
	}
	return &ast.Word{Parts: []ast.WordPart{&ast.Lit{ValuePos: start, Value: lit}}}
}
