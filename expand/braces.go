package expand

import (
	"strconv"

	"cjsh/ast"
)

// Braces performs brace expansion on words: "foo{bar,baz}" becomes the two
// single-literal words "foobar" and "foobaz"; "{1..3}" becomes "1", "2",
// "3". Unlike mvdan-sh's syntax.ExpandBraces, which operates on a parsed
// *syntax.Word by walking its text, cjsh's parser already turns brace
// expressions into *ast.BraceExp nodes while parsing (see parser/word.go's
// tryBraceExp), so this walks the node tree and substitutes each BraceExp
// part with its expansion, recursively, to support nesting like
// "{a,b}{1,2}" and "a{b,c{d,e}}".
func Braces(words ...*ast.Word) []*ast.Word {
	var out []*ast.Word
	for _, w := range words {
		out = append(out, braceWord(w)...)
	}
	return out
}

func braceWord(w *ast.Word) []*ast.Word {
	for i, part := range w.Parts {
		be, ok := part.(*ast.BraceExp)
		if !ok {
			continue
		}
		var variants []*ast.Word
		if be.Sequence {
			variants = sequenceWords(be)
		} else {
			for _, elem := range be.Elems {
				variants = append(variants, braceWord(elem)...)
			}
		}
		var out []*ast.Word
		for _, v := range variants {
			merged := &ast.Word{}
			merged.Parts = append(merged.Parts, w.Parts[:i]...)
			merged.Parts = append(merged.Parts, v.Parts...)
			merged.Parts = append(merged.Parts, w.Parts[i+1:]...)
			out = append(out, braceWord(merged)...)
		}
		return out
	}
	return []*ast.Word{w}
}

func sequenceWords(be *ast.BraceExp) []*ast.Word {
	incr := be.Incr
	if incr == 0 {
		incr = 1
	}
	var lits []string
	if be.Chars {
		from, to := be.From[0], be.To[0]
		if from <= to {
			if incr < 0 {
				incr = -incr
			}
			for c := from; c <= to; c += byte(incr) {
				lits = append(lits, string(c))
			}
		} else {
			if incr > 0 {
				incr = -incr
			}
			for c := from; c >= to; c += byte(incr) {
				lits = append(lits, string(c))
				if c == 0 {
					break
				}
			}
		}
	} else {
		from, errF := strconv.Atoi(be.From)
		to, errT := strconv.Atoi(be.To)
		if errF != nil || errT != nil {
			return nil
		}
		if from <= to {
			if incr < 0 {
				incr = -incr
			}
			for n := from; n <= to; n += incr {
				lits = append(lits, strconv.Itoa(n))
			}
		} else {
			if incr > 0 {
				incr = -incr
			}
			for n := from; n >= to; n += incr {
				lits = append(lits, strconv.Itoa(n))
			}
		}
	}
	words := make([]*ast.Word, len(lits))
	for i, lit := range lits {
		words[i] = &ast.Word{Parts: []ast.WordPart{&ast.Lit{Value: lit}}}
	}
	return words
}
