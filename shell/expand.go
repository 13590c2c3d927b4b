package shell

import (
	"context"
	"os"
	"strings"

	"cjsh/expand"
	"cjsh/parser"
)

// funcEnviron adapts a plain lookup function to expand.Environ, the
// shape Expand/Fields need but a caller supplying only "look up a name"
// has no reason to build by hand.
type funcEnviron func(string) string

func (f funcEnviron) Get(name string) expand.Variable {
	val := f(name)
	if val == "" {
		return expand.Variable{}
	}
	return expand.Variable{Set: true, Kind: expand.String, Str: val}
}

func (f funcEnviron) Each(func(string, expand.Variable) bool) {}

// Expand performs shell expansion on s, using env to resolve variables.
// The expansion applies to parameter expansions like $var and ${#var},
// arithmetic expansions like $((var + 3)), and brace expressions like
// foo{1,2,3}.
//
// If env is nil, the current environment variables are used. Empty
// variables are treated as unset; to support variables that are set but
// empty, use expand.Context directly.
//
// Command substitutions like $(echo foo) aren't supported, to avoid
// running arbitrary code; use an interp.Runner with expand.Context
// directly for those.
func Expand(s string, env func(string) string) (string, error) {
	word, err := parser.ParseWord([]byte(s), "")
	if err != nil {
		return "", err
	}
	if word == nil {
		return "", nil
	}
	if env == nil {
		env = os.Getenv
	}
	var expandErr error
	ectx := expand.Context{
		Env: funcEnviron(env),
		OnError: func(e error) {
			if expandErr == nil {
				expandErr = e
			}
		},
	}
	fields := ectx.ExpandFields(context.Background(), word)
	return strings.Join(fields, ""), expandErr
}

// Fields performs shell expansion on s, using env to resolve variables,
// and returns the separate fields that result. It is similar to Expand,
// but word splitting is performed and the resulting fields are not
// joined.
func Fields(s string, env func(string) string) ([]string, error) {
	words, err := parser.ParseWords([]byte(s), "")
	if err != nil {
		return nil, err
	}
	if env == nil {
		env = os.Getenv
	}
	var expandErr error
	ectx := expand.Context{
		Env: funcEnviron(env),
		OnError: func(e error) {
			if expandErr == nil {
				expandErr = e
			}
		},
	}
	return ectx.ExpandFields(context.Background(), words...), expandErr
}
