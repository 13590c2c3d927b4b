package expand

import (
	"cmp"
	"slices"
	"strings"
)

// Environ is the read side of a shell's environment: fetch a variable by
// name, or walk all currently set variables.
type Environ interface {
	// Get retrieves a variable by its name. Use Variable.IsSet to check
	// whether it is actually set, since a zero Variable is a valid "not
	// found" result.
	Get(name string) Variable

	// Each iterates over all the currently set variables, calling the
	// supplied function on each variable. Iteration stops if the function
	// returns false.
	//
	// Each must forward exported variables, since those are what a
	// started program inherits.
	Each(func(name string, vr Variable) bool)
}

// WriteEnviron extends Environ with mutation: setting and unsetting
// variables. The vars package's scope manager is the concrete
// implementation the interpreter wires in here.
type WriteEnviron interface {
	Environ
	// Set sets a variable by name. If !vr.IsSet(), the variable is being
	// unset; otherwise it is being replaced.
	//
	// An error is returned if the operation is invalid, such as writing
	// to a read-only variable.
	Set(name string, vr Variable) error
}

// ValueKind describes which kind of value a variable holds.
type ValueKind uint8

const (
	// Unknown is used for unset variables that have no declared kind yet.
	Unknown ValueKind = iota
	// String describes plain scalar variables, such as `foo=bar`.
	String
	// Indexed describes indexed array variables, such as `foo=(bar baz)`.
	Indexed
	// Associative describes associative array variables, such as
	// `foo=([bar]=x [baz]=y)`.
	Associative
)

// Variable describes a shell variable: its attributes and its value.
type Variable struct {
	// Set is true once the variable has been assigned a value, which may
	// be the empty string.
	Set bool

	Exported bool
	ReadOnly bool

	// Kind selects which of Str/List/Map holds the value.
	Kind ValueKind

	Str string            // used when Kind == String
	List []string          // used when Kind == Indexed
	Map  map[string]string // used when Kind == Associative
}

// IsSet reports whether the variable has been assigned a value. The zero
// Variable is unset.
func (v Variable) IsSet() bool { return v.Set }

// String returns the variable's value as a scalar string, the form most
// expansions need. An indexed array yields its zeroth element; an
// associative array yields the empty string, matching how `echo "$arr"`
// behaves on an array that was never indexed explicitly.
func (v Variable) String() string {
	switch v.Kind {
	case String:
		return v.Str
	case Indexed:
		if len(v.List) > 0 {
			return v.List[0]
		}
	}
	return ""
}

// ListEnviron returns an Environ over the supplied "name=value" pairs, as
// inherited from the process environment or an explicit environment
// block. All variables are marked exported, since that is what process
// environments carry. The last value wins when a name repeats.
func ListEnviron(pairs ...string) Environ {
	list := slices.Clone(pairs)

	slices.SortStableFunc(list, func(a, b string) int {
		isep := strings.IndexByte(a, '=')
		jsep := strings.IndexByte(b, '=')
		if isep < 0 {
			isep = 0
		} else {
			isep++
		}
		if jsep < 0 {
			jsep = 0
		} else {
			jsep++
		}
		return strings.Compare(a[:isep], b[:jsep])
	})

	last := ""
	for i := 0; i < len(list); {
		name, _, ok := strings.Cut(list[i], "=")
		if name == "" || !ok {
			list = slices.Delete(list, i, i+1)
			continue
		}
		if last == name {
			list = slices.Delete(list, i-1, i)
			continue
		}
		last = name
		i++
	}
	return listEnviron(list)
}

// listEnviron is a sorted list of "name=value" strings, searched with a
// binary search rather than a map since it is built once from the
// process's environment and never mutated.
type listEnviron []string

func (l listEnviron) Get(name string) Variable {
	eqpos := len(name)
	endpos := len(name) + 1
	i, ok := slices.BinarySearchFunc(l, name, func(entry, name string) int {
		if len(entry) < endpos {
			return strings.Compare(entry, name)
		}
		c := strings.Compare(entry[:eqpos], name)
		eq := entry[eqpos]
		if c == 0 {
			return cmp.Compare(eq, '=')
		}
		return c
	})
	if ok {
		return Variable{Set: true, Exported: true, Kind: String, Str: l[i][endpos:]}
	}
	return Variable{}
}

func (l listEnviron) Each(fn func(name string, vr Variable) bool) {
	for _, pair := range l {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if !fn(name, Variable{Set: true, Exported: true, Kind: String, Str: value}) {
			return
		}
	}
}
