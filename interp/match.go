package interp

import "cjsh/pattern"

// matchPattern reports whether name matches a case pattern, using the
// entire-string shell-glob semantics `case` requires.
func matchPattern(pat, name string) (bool, error) {
	return pattern.Match(pat, name, pattern.EntireString)
}
