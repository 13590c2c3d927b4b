// Package vars implements cjsh's variable and scope management: a chain
// of lexical frames (the global shell table plus one per active function
// call), the handful of special parameters that are computed on read
// rather than stored ($?, $$, $!, $#, positional params), and readonly
// enforcement.
//
// Grounded on interp/vars.go (mapEnviron's parent-chained Get/Set/Each
// and Runner.lookupVar's special-parameter dispatch), generalized into a
// standalone package and retargeted from interp's VarValue/StringVal sum
// type onto expand.Variable's Kind/Str/List/Map shape so the same
// Variable value flows unchanged from here into the Expander.
package vars

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"cjsh/expand"
)

// WriteScope identifies which frame a Set targets.
type WriteScope int

const (
	// Shell targets the innermost scope that already declares name, or
	// the global scope if none does (plain `foo=bar`).
	Shell WriteScope = iota
	// Local requires an active function frame and targets it directly,
	// shadowing any outer variable of the same name (`local foo=bar`).
	Local
	// Export behaves like Shell, and additionally marks the variable
	// exported so it is forwarded to started programs.
	Export
)

// frame is one lexical scope: the global table, or one function call's
// locals.
type frame struct {
	parent *frame
	vars   map[string]expand.Variable
}

// posFrame holds one level's positional parameters. set distinguishes
// "this level explicitly has zero positional params" from "this level
// never set any, inherit the enclosing level's", since both would
// otherwise look like a nil slice.
type posFrame struct {
	set  bool
	args []string
}

// Scope is the shell's variable manager. The zero value is not usable;
// construct one with NewRoot.
type Scope struct {
	top *frame

	positional []posFrame // stack of positional-parameter vectors, one per active function frame plus the shell's own
	lastStatus int
	lastBgPID  int
	shellPID   int
	scriptName string
}

// NewRoot builds the outermost scope, seeded from a process-style
// "name=value" environment (typically os.Environ()). Every inherited
// variable starts out exported, matching how a real process environment
// behaves.
func NewRoot(environ []string) *Scope {
	root := &frame{vars: map[string]expand.Variable{}}
	for _, kv := range environ {
		name, val, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		root.vars[name] = expand.Variable{Set: true, Exported: true, Kind: expand.String, Str: val}
	}
	return &Scope{
		top:        root,
		positional: []posFrame{{}},
		shellPID:   os.Getpid(),
		scriptName: "cjsh",
	}
}

// PushScope opens a new local frame, as entering a function body does.
func (s *Scope) PushScope() {
	s.top = &frame{parent: s.top, vars: map[string]expand.Variable{}}
	s.positional = append(s.positional, posFrame{})
}

// PopScope closes the innermost local frame. Any variable that was
// exported via `local -x`/`export` inside the frame simply stops existing
// once popped, since its value lived only in that frame's map; a variable
// of the same name in an outer frame (shadowed while the inner one was
// active) becomes visible again automatically, since Get/Set always walk
// from s.top outward.
func (s *Scope) PopScope() {
	if s.top.parent == nil {
		panic("vars: PopScope called with no active function frame")
	}
	s.top = s.top.parent
	s.positional = s.positional[:len(s.positional)-1]
}

// Depth reports how many function frames are currently active (0 at the
// top level).
func (s *Scope) Depth() int {
	n := 0
	for f := s.top; f.parent != nil; f = f.parent {
		n++
	}
	return n
}

// Get implements expand.Environ: walk innermost-first through local
// frames, then the special parameters, which are computed rather than
// stored.
func (s *Scope) Get(name string) expand.Variable {
	if vr, ok := s.special(name); ok {
		return vr
	}
	for f := s.top; f != nil; f = f.parent {
		if vr, ok := f.vars[name]; ok {
			return vr
		}
	}
	return expand.Variable{}
}

func (s *Scope) special(name string) (expand.Variable, bool) {
	str := func(v string) (expand.Variable, bool) {
		return expand.Variable{Set: true, Kind: expand.String, Str: v}, true
	}
	switch name {
	case "#":
		return str(strconv.Itoa(len(s.Positional())))
	case "@", "*":
		return expand.Variable{Set: true, Kind: expand.Indexed, List: s.Positional()}, true
	case "?":
		return str(strconv.Itoa(s.lastStatus))
	case "$":
		return str(strconv.Itoa(s.shellPID))
	case "!":
		if s.lastBgPID == 0 {
			return expand.Variable{}, true
		}
		return str(strconv.Itoa(s.lastBgPID))
	case "0":
		return str(s.scriptName)
	}
	if len(name) == 1 && name[0] >= '1' && name[0] <= '9' {
		i := int(name[0] - '1')
		params := s.Positional()
		if i < len(params) {
			return str(params[i])
		}
		return expand.Variable{}, true
	}
	return expand.Variable{}, false
}

// isSpecial reports whether name is a computed special parameter, which
// can never be assigned to or unset directly.
func isSpecial(name string) bool {
	switch name {
	case "#", "@", "*", "?", "$", "!", "0":
		return true
	}
	return len(name) == 1 && name[0] >= '1' && name[0] <= '9'
}

// Set implements expand.WriteEnviron by targeting the Shell scope.
// Callers that need Local or Export semantics should call SetScope
// directly.
func (s *Scope) Set(name string, vr expand.Variable) error {
	return s.SetScope(name, vr, Shell)
}

// SetScope assigns name under the given scope: Shell rewrites an
// existing outer binding if one exists, Local always targets the
// current frame, Export additionally marks the variable exported.
func (s *Scope) SetScope(name string, vr expand.Variable, scope WriteScope) error {
	if name == "" {
		return fmt.Errorf("vars: empty variable name")
	}
	if isSpecial(name) {
		return fmt.Errorf("%s: cannot assign to a special parameter", name)
	}
	if cur := s.Get(name); cur.ReadOnly {
		return fmt.Errorf("%s: readonly variable", name)
	}
	if scope == Export {
		vr.Exported = true
	}
	if scope == Local {
		s.top.vars[name] = vr
		return nil
	}
	for f := s.top; f != nil; f = f.parent {
		if _, ok := f.vars[name]; ok {
			f.vars[name] = vr
			return nil
		}
	}
	s.globalFrame().vars[name] = vr
	return nil
}

func (s *Scope) globalFrame() *frame {
	f := s.top
	for f.parent != nil {
		f = f.parent
	}
	return f
}

// Unset removes name from the innermost scope that declares it. Readonly
// names cannot be unset.
func (s *Scope) Unset(name string) error {
	if isSpecial(name) {
		return fmt.Errorf("%s: cannot unset a special parameter", name)
	}
	for f := s.top; f != nil; f = f.parent {
		if vr, ok := f.vars[name]; ok {
			if vr.ReadOnly {
				return fmt.Errorf("%s: readonly variable", name)
			}
			delete(f.vars, name)
			return nil
		}
	}
	return nil
}

// MarkReadOnly marks name readonly in place, leaving its current value
// untouched. Subsequent Set/Unset calls against it fail until the process
// exits; there is no way to clear the bit.
func (s *Scope) MarkReadOnly(name string) error {
	if isSpecial(name) {
		return fmt.Errorf("%s: cannot mark a special parameter readonly", name)
	}
	for f := s.top; f != nil; f = f.parent {
		if vr, ok := f.vars[name]; ok {
			vr.ReadOnly = true
			f.vars[name] = vr
			return nil
		}
	}
	s.globalFrame().vars[name] = expand.Variable{ReadOnly: true}
	return nil
}

// Each implements expand.Environ: every name visible from the current
// frame, innermost value winning when a name is shadowed.
func (s *Scope) Each(fn func(name string, vr expand.Variable) bool) {
	seen := make(map[string]bool)
	for f := s.top; f != nil; f = f.parent {
		for name, vr := range f.vars {
			if seen[name] {
				continue
			}
			seen[name] = true
			if !fn(name, vr) {
				return
			}
		}
	}
}

// ExportedPairs returns "name=value" for every exported, set variable
// visible from the current frame, the form a started program's
// environment block needs.
func (s *Scope) ExportedPairs() []string {
	var pairs []string
	s.Each(func(name string, vr expand.Variable) bool {
		if vr.Exported && vr.IsSet() {
			pairs = append(pairs, name+"="+vr.String())
		}
		return true
	})
	return pairs
}

// Positional returns the current frame's positional parameters: the
// innermost function frame's argv if one is active, otherwise the
// shell's own.
func (s *Scope) Positional() []string {
	for i := len(s.positional) - 1; i >= 0; i-- {
		if s.positional[i].set {
			return s.positional[i].args
		}
	}
	return nil
}

// SetPositional replaces the current frame's positional parameters, as
// `set -- ...` or a function call's argv does.
func (s *Scope) SetPositional(args []string) {
	s.positional[len(s.positional)-1] = posFrame{set: true, args: args}
}

// Shift drops n positional parameters from the front, as the `shift`
// builtin does. It returns an error if n exceeds the current count.
func (s *Scope) Shift(n int) error {
	cur := s.Positional()
	if n < 0 || n > len(cur) {
		return fmt.Errorf("shift count %d out of range", n)
	}
	s.SetPositional(cur[n:])
	return nil
}

// SetLastStatus records the exit status of the most recently completed
// command, read back via $?.
func (s *Scope) SetLastStatus(code int) { s.lastStatus = code }

// LastStatus returns $?'s current value.
func (s *Scope) LastStatus() int { return s.lastStatus }

// SetLastBackgroundPID records the pid of the most recently started
// background job, read back via $!.
func (s *Scope) SetLastBackgroundPID(pid int) { s.lastBgPID = pid }

// SetScriptName records $0's value: the script path, or a fixed name for
// an interactive shell.
func (s *Scope) SetScriptName(name string) { s.scriptName = name }

// Clone returns a deep copy of s: every frame's variable map is copied,
// so writes in the clone (a subshell or a command/process substitution)
// never become visible in s once the clone is discarded.
func (s *Scope) Clone() *Scope {
	frames := make([]*frame, 0, s.Depth()+1)
	for f := s.top; f != nil; f = f.parent {
		frames = append(frames, f)
	}
	var top *frame
	for i := len(frames) - 1; i >= 0; i-- {
		vars := make(map[string]expand.Variable, len(frames[i].vars))
		for k, v := range frames[i].vars {
			vars[k] = v
		}
		top = &frame{parent: top, vars: vars}
	}
	return &Scope{
		top:        top,
		positional: append([]posFrame(nil), s.positional...),
		lastStatus: s.lastStatus,
		lastBgPID:  s.lastBgPID,
		shellPID:   s.shellPID,
		scriptName: s.scriptName,
	}
}
