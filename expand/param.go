package expand

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"cjsh/ast"
	"cjsh/pattern"
)

func anyOfLit(v interface{}, vals ...string) string {
	word, _ := v.(*ast.Word)
	if word == nil || len(word.Parts) != 1 {
		return ""
	}
	lit, ok := word.Parts[0].(*ast.Lit)
	if !ok {
		return ""
	}
	for _, val := range vals {
		if lit.Value == val {
			return val
		}
	}
	return ""
}

// UnsetParameterError is raised by `${var:?message}`/`${var?message}` when
// var is unset (or empty, for the `:?` form).
type UnsetParameterError struct {
	Expr    *ast.ParamExp
	Message string
}

func (u UnsetParameterError) Error() string { return u.Message }

func (c *Context) paramExp(ctx context.Context, pe *ast.ParamExp) string {
	oldParam := c.curParam
	c.curParam = pe
	defer func() { c.curParam = oldParam }()

	name := pe.Param.Value
	var index *ast.Word
	switch name {
	case "@", "*":
		index = &ast.Word{Parts: []ast.WordPart{&ast.Lit{Value: name}}}
	default:
		index = pe.Index
	}

	vr := c.Env.Get(name)
	set := vr.IsSet()
	str := vr.String()
	if index != nil {
		str = c.varInd(ctx, vr, index)
	}

	elems := []string{str}
	if anyOfLit(index, "@", "*") != "" {
		switch vr.Kind {
		case Indexed:
			elems = vr.List
		case Associative:
			elems = mapValuesSorted(vr.Map)
		default:
			elems = nil
		}
	}

	switch {
	case pe.Length:
		n := len(elems)
		if anyOfLit(index, "@", "*") == "" {
			n = utf8.RuneCountInString(str)
		}
		return strconv.Itoa(n)

	case pe.SliceOff != nil || pe.SliceLen != nil:
		slicePos := func(w *ast.Word) int {
			p, err := c.Arithm(ctx, w)
			if err != nil {
				c.err(err)
			}
			if p < 0 {
				p = len(str) + p
				if p < 0 {
					p = 0
				}
			} else if p > len(str) {
				p = len(str)
			}
			return p
		}
		if pe.SliceOff != nil {
			str = str[slicePos(pe.SliceOff):]
		}
		if pe.SliceLen != nil {
			n := slicePos(pe.SliceLen)
			if n > len(str) {
				n = len(str)
			}
			str = str[:n]
		}
		return str

	case pe.Op == ast.ReplaceOnce || pe.Op == ast.ReplaceAll ||
		pe.Op == ast.ReplacePrefix || pe.Op == ast.ReplaceSuffix:
		orig := c.ExpandPattern(ctx, pe.Pattern)
		with := c.ExpandLiteral(ctx, pe.Repl)
		return replacePattern(str, orig, with, pe.Op)

	case pe.Op == ast.RemSmallPrefix || pe.Op == ast.RemLargePrefix ||
		pe.Op == ast.RemSmallSuffix || pe.Op == ast.RemLargeSuffix:
		arg := c.ExpandPattern(ctx, pe.Pattern)
		suffix := pe.Op == ast.RemSmallSuffix || pe.Op == ast.RemLargeSuffix
		large := pe.Op == ast.RemLargePrefix || pe.Op == ast.RemLargeSuffix
		for i, elem := range elems {
			elems[i] = removePattern(elem, arg, suffix, large)
		}
		return strings.Join(elems, " ")

	case pe.Op != ast.ParExpNone:
		arg := ""
		if pe.Arg != nil {
			arg = c.ExpandLiteral(ctx, pe.Arg)
		}
		switch pe.Op {
		case ast.AltUnsetQ:
			if str == "" {
				break
			}
			fallthrough
		case ast.AltUnset:
			if set {
				str = arg
			}
		case ast.DefaultUnset:
			if set {
				break
			}
			fallthrough
		case ast.DefaultUnsetQ:
			if str == "" {
				str = arg
			}
		case ast.ErrorUnset:
			if set {
				break
			}
			fallthrough
		case ast.ErrorUnsetQ:
			if str == "" {
				c.err(UnsetParameterError{Expr: pe, Message: arg})
			}
		case ast.AssignUnset:
			if set {
				break
			}
			fallthrough
		case ast.AssignUnsetQ:
			if str == "" {
				if err := c.envSet(name, arg); err != nil {
					c.err(err)
				}
				str = arg
			}
		}
		return str
	}
	return str
}

func replacePattern(str, orig, with string, op ast.ParExpOp) string {
	src, err := pattern.Regexp(orig, 0)
	if err != nil {
		return str
	}
	switch op {
	case ast.ReplacePrefix:
		src = "^(?:" + src + ")"
	case ast.ReplaceSuffix:
		src = "(?:" + src + ")$"
	}
	rx, err := regexp.Compile(src)
	if err != nil {
		return str
	}
	n := 1
	if op == ast.ReplaceAll {
		n = -1
	}
	locs := rx.FindAllStringIndex(str, n)
	var buf strings.Builder
	last := 0
	for _, loc := range locs {
		buf.WriteString(str[last:loc[0]])
		buf.WriteString(with)
		last = loc[1]
	}
	buf.WriteString(str[last:])
	return buf.String()
}

func removePattern(str, pat string, fromEnd, greedy bool) string {
	mode := pattern.Mode(0)
	if !greedy {
		mode |= pattern.Shortest
	}
	src, err := pattern.Regexp(pat, mode)
	if err != nil {
		return str
	}
	switch {
	case fromEnd && !greedy:
		src = ".*(" + src + ")$"
	case fromEnd:
		src = "(" + src + ")$"
	default:
		src = "^(" + src + ")"
	}
	rx, err := regexp.Compile(src)
	if err != nil {
		return str
	}
	if loc := rx.FindStringSubmatchIndex(str); loc != nil {
		str = str[:loc[2]] + str[loc[3]:]
	}
	return str
}

func mapValuesSorted(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vals := make([]string, len(keys))
	for i, k := range keys {
		vals[i] = m[k]
	}
	return vals
}

func (c *Context) varInd(ctx context.Context, vr Variable, idx *ast.Word) string {
	lit := anyOfLit(idx, "@", "*")
	switch vr.Kind {
	case String:
		return vr.Str
	case Indexed:
		switch lit {
		case "@":
			return strings.Join(vr.List, " ")
		case "*":
			return c.ifsJoin(vr.List)
		}
		i, err := c.Arithm(ctx, idx)
		if err != nil {
			c.err(err)
		}
		if i >= 0 && i < len(vr.List) {
			return vr.List[i]
		}
		return ""
	case Associative:
		if lit == "@" {
			return strings.Join(mapValuesSorted(vr.Map), " ")
		}
		if lit == "*" {
			return c.ifsJoin(mapValuesSorted(vr.Map))
		}
		return vr.Map[c.ExpandLiteral(ctx, idx)]
	}
	return ""
}
