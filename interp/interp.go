// Package interp implements cjsh's Script Interpreter and Executor: it
// walks a parsed File, dispatching simple commands, pipelines, lists, and
// every compound construct (if/while/until/for/case, functions,
// subshells, arithmetic and `[[ ]]` tests), threading a ControlFlow value
// through the walk instead of the magic exit codes a POSIX shell
// historically overloads for break/continue/return.
//
// Grounded on interp/interp.go's Runner: the simple-command, pipeline and
// compound-command dispatch in cmd/stmt below follows its cmd/stmtSync
// split closely, generalized onto cjsh's vars.Scope and job.Manager in
// place of the flat Vars map mvdan-sh keeps directly on Runner.
package interp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"cjsh/ast"
	"cjsh/expand"
	"cjsh/job"
	"cjsh/parser"
	"cjsh/vars"
)

// Option configures a Runner at construction time.
type Option func(*Runner) error

// Dir sets the interpreter's working directory; the process's own
// directory is used if path is empty.
func Dir(path string) Option {
	return func(r *Runner) error {
		if path == "" {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			r.Dir = wd
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		r.Dir = abs
		return nil
	}
}

// StdIO configures standard input/output/error.
func StdIO(in io.Reader, out, err io.Writer) Option {
	return func(r *Runner) error {
		r.stdin, r.stdout, r.stderr = in, out, err
		return nil
	}
}

// Params sets the outer positional parameters ($0's argv).
func Params(args ...string) Option {
	return func(r *Runner) error {
		r.Scope.SetPositional(args)
		return nil
	}
}

// New builds a ready-to-run Runner. jobs may be nil, in which case
// job-control builtins (jobs/fg/bg/wait/kill) report an error rather than
// operate on a real job table — the shape a non-interactive or scripted
// invocation runs under.
func New(scope *vars.Scope, jobs *job.Manager, opts ...Option) (*Runner, error) {
	r := &Runner{
		Scope: scope,
		Jobs:  jobs,
		Funcs: map[string]*ast.Stmt{},
		stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr,
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	r.Dir = wd
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.dirStack = append(r.dirStack, r.Dir)
	r.ectx = &expand.Context{Env: r.Scope}
	r.ectx.Subshell = r.cmdSubst
	r.ectx.ProcSubst = r.procSubst
	r.ectx.OnError = r.expandErr
	r.syncExpandOpts()
	return r, nil
}

// runnerOpts mirrors the handful of `set`/`shopt`-style options §4.4
// names as relevant to control flow.
type runnerOpts struct {
	errexit  bool
	nounset  bool
	xtrace   bool
	pipefail bool
	noclob   bool
	noglob   bool
	globstar bool
	allexp   bool
}

// Runner interprets cjsh source. It is not safe for concurrent use, but
// a subshell clones one onto its own Scope via sub() so that background
// jobs and `$(...)`/`(...)` each get an isolated copy.
type Runner struct {
	Scope *vars.Scope
	Jobs  *job.Manager
	Funcs map[string]*ast.Stmt

	Dir string

	stdin          io.Reader
	stdout, stderr io.Writer

	ectx *expand.Context
	opts runnerOpts

	inLoop, inFunc, inSource bool
	noErrExit                bool
	keepRedirs               bool

	// backgrounding is true for the duration of a `&` statement's own
	// execution, telling execExternal/runPipeline to register the job
	// and return immediately rather than claim the terminal and wait.
	backgrounding bool

	// bgPID, when set, receives the real pid/pgid of the first external
	// process a backgrounded statement starts, so the `&` handling in
	// stmt can report it back to the invoking scope as $!. Only ever
	// set on the throwaway sub() Runner created for one `&` statement.
	bgPID chan<- int

	dirStack []string

	procSubst errgroup.Group

	// lastExit is $? as of the end of the most recently run statement,
	// mirrored from vars.Scope for cheap reads within this package.
	lastExit int

	fatalErr      error
	exitRequested bool
}

func (r *Runner) syncExpandOpts() {
	r.ectx.NoGlob = r.opts.noglob
	r.ectx.GlobStar = r.opts.globstar
}

func (r *Runner) out(s string)                       { io.WriteString(r.stdout, s) }
func (r *Runner) outf(format string, a ...any)        { fmt.Fprintf(r.stdout, format, a...) }
func (r *Runner) errf(format string, a ...any)        { fmt.Fprintf(r.stderr, format, a...) }
func (r *Runner) envGet(name string) string           { return r.Scope.Get(name).String() }

func (r *Runner) expandErr(err error) {
	r.errf("%v\n", err)
	r.lastExit = 1
}

// sub returns a Runner for a subshell or command/process substitution:
// same stdio and options, but an independently mutable variable scope so
// the child's assignments, `cd`, and function definitions never leak
// back into r.
func (r *Runner) sub() *Runner {
	r2 := &Runner{
		Scope: r.Scope.Clone(),
		Jobs:  r.Jobs,
		Funcs: make(map[string]*ast.Stmt, len(r.Funcs)),
		Dir:   r.Dir,
		stdin: r.stdin, stdout: r.stdout, stderr: r.stderr,
		opts:     r.opts,
		dirStack: append([]string(nil), r.dirStack...),
	}
	for name, body := range r.Funcs {
		r2.Funcs[name] = body
	}
	r2.ectx = &expand.Context{Env: r2.Scope, NoGlob: r.opts.noglob, GlobStar: r.opts.globstar}
	r2.ectx.Subshell = r2.cmdSubst
	r2.ectx.ProcSubst = r2.procSubst
	r2.ectx.OnError = r2.expandErr
	return r2
}

// Run interprets a whole file, statement by statement, honoring `exit`,
// fatal handler errors, and the top-level EXIT trap.
func (r *Runner) Run(ctx context.Context, file *ast.File) int {
	cf := r.stmts(ctx, file.Stmts)
	if cf.Kind == Exit {
		r.exitRequested = true
		return cf.Status
	}
	if cf.Kind == Return {
		return cf.Status
	}
	return r.lastExit
}

// Exited reports whether a fatal, non-recoverable error (as opposed to a
// plain non-zero exit status) stopped the run.
func (r *Runner) Exited() error { return r.fatalErr }

// ExitRequested reports whether a prior Run call ended because the
// script called the exit builtin, rather than simply running out of
// statements. An interactive front end uses this to tell "the user typed
// exit" apart from "that line's command finished", which Run's plain int
// status can't distinguish on its own.
func (r *Runner) ExitRequested() bool { return r.exitRequested }

func (r *Runner) stop(ctx context.Context) bool {
	if r.fatalErr != nil {
		return true
	}
	if err := ctx.Err(); err != nil {
		r.fatalErr = err
		return true
	}
	return false
}

func (r *Runner) stmts(ctx context.Context, stmts []*ast.Stmt) ControlFlow {
	cf := normal(r.lastExit)
	for _, st := range stmts {
		cf = r.stmt(ctx, st)
		if cf.unwinding() {
			return cf
		}
	}
	return cf
}

// stmt runs one statement, detaching it as a background job first if
// `&` was used.
func (r *Runner) stmt(ctx context.Context, st *ast.Stmt) ControlFlow {
	if r.stop(ctx) {
		return normal(r.lastExit)
	}
	if st.Background {
		r2 := r.sub()
		r2.backgrounding = true
		pidc := make(chan int, 1)
		r2.bgPID = pidc
		st2 := *st
		st2.Background = false
		go func() {
			defer close(pidc)
			r2.stmtSync(ctx, &st2)
		}()
		// Block only long enough for the backgrounded stage to report
		// the pid of the external process it started (microseconds
		// after fork, well before it runs to completion), so `pid=$!`
		// observes the real child rather than the shell's own pid. A
		// statement that never starts an external process (a bare
		// builtin or function run entirely in-process) has no real
		// pid to report; pidc simply closes once it finishes, and the
		// shell's own pid stands in as a harmless placeholder.
		pid, ok := <-pidc
		if !ok {
			pid = os.Getpid()
		}
		r.Scope.SetLastBackgroundPID(pid)
		r.setExit(0)
		return normal(r.lastExit)
	}
	return r.stmtSync(ctx, st)
}

func (r *Runner) stmtSync(ctx context.Context, st *ast.Stmt) ControlFlow {
	oldIn, oldOut, oldErr := r.stdin, r.stdout, r.stderr
	for _, rd := range st.Redirs {
		closer, err := r.applyRedirect(ctx, rd)
		if err != nil {
			r.errf("%v\n", err)
			r.setExit(1)
			return normal(r.lastExit)
		}
		if closer != nil {
			defer closer.Close()
		}
	}

	var cf ControlFlow
	if st.Cmd == nil {
		r.runAssigns(ctx, st.Assigns, vars.Shell)
		r.setExit(0)
		cf = normal(0)
	} else if call, ok := st.Cmd.(*ast.CallExpr); ok && len(st.Assigns) > 0 {
		// `FOO=bar cmd args`: assignments are visible only to this one
		// command's environment, per POSIX; restore the prior value
		// (or absence) once it returns.
		restore := r.pushTempAssigns(ctx, st.Assigns)
		cf = r.runSimpleCommand(ctx, call, nil)
		restore()
	} else {
		// Assignments attached to a compound command (`FOO=bar { ...; }`)
		// are rare but the grammar allows them; POSIX leaves the exact
		// scoping unspecified, so they are applied like a plain
		// assignment statement ahead of the command.
		r.runAssigns(ctx, st.Assigns, vars.Shell)
		cf = r.cmd(ctx, st.Cmd)
	}

	if st.Negated {
		r.setExit(oneIf(r.lastExit == 0))
		cf = normal(r.lastExit)
	} else if _, isCall := st.Cmd.(*ast.CallExpr); isCall &&
		r.lastExit != 0 && !r.noErrExit && r.opts.errexit && !cf.unwinding() {
		cf = ControlFlow{Kind: Exit, Status: r.lastExit}
	}

	if !r.keepRedirs {
		r.stdin, r.stdout, r.stderr = oldIn, oldOut, oldErr
	}
	return cf
}

func (r *Runner) setExit(code int) {
	r.lastExit = code
	r.Scope.SetLastStatus(code)
}

func oneIf(b bool) int {
	if b {
		return 1
	}
	return 0
}

// runAssigns applies a simple command's (or an assignment-only
// statement's) leading `name=value` prefixes.
func (r *Runner) runAssigns(ctx context.Context, assigns []*ast.Assign, scope vars.WriteScope) {
	for _, as := range assigns {
		val := r.ectx.ExpandLiteral(ctx, &as.Value)
		vr := expand.Variable{Set: true, Kind: expand.String, Str: val}
		if as.Append {
			cur := r.Scope.Get(as.Name.Value)
			vr.Str = cur.String() + val
		}
		if err := r.Scope.SetScope(as.Name.Value, vr, scope); err != nil {
			r.errf("%v\n", err)
			r.setExit(1)
		}
	}
}

// pushTempAssigns applies assigns directly to the current scope and
// returns a func that restores whatever each name held immediately
// before (including "was unset"), the shape a command-prefix assignment
// needs since it must not outlive the one command it decorates.
func (r *Runner) pushTempAssigns(ctx context.Context, assigns []*ast.Assign) (restore func()) {
	type saved struct {
		name string
		vr   expand.Variable
	}
	var prior []saved
	for _, as := range assigns {
		prior = append(prior, saved{as.Name.Value, r.Scope.Get(as.Name.Value)})
	}
	r.runAssigns(ctx, assigns, vars.Shell)
	return func() {
		for _, p := range prior {
			if p.vr.IsSet() {
				r.Scope.Set(p.name, p.vr)
			} else {
				r.Scope.Unset(p.name)
			}
		}
	}
}

func (r *Runner) cmd(ctx context.Context, cm ast.Command) ControlFlow {
	if r.stop(ctx) {
		return normal(r.lastExit)
	}
	switch x := cm.(type) {
	case *ast.Block:
		return r.stmts(ctx, x.Stmts)

	case *ast.Subshell:
		r2 := r.sub()
		cf := r2.stmts(ctx, x.Stmts)
		r.setExit(r2.lastExit)
		if r2.fatalErr != nil {
			r.fatalErr = r2.fatalErr
		}
		if cf.Kind == Exit {
			return normal(r.lastExit)
		}
		return cf

	case *ast.CallExpr:
		return r.runSimpleCommand(ctx, x, nil)

	case *ast.BinaryCmd:
		return r.binaryCmd(ctx, x)

	case *ast.IfClause:
		return r.ifClause(ctx, x)

	case *ast.WhileClause:
		return r.loop(ctx, x.CondStmts, x.DoStmts, false)

	case *ast.UntilClause:
		return r.loop(ctx, x.CondStmts, x.DoStmts, true)

	case *ast.ForClause:
		return r.forClause(ctx, x)

	case *ast.CaseClause:
		return r.caseClause(ctx, x)

	case *ast.FuncDecl:
		r.Funcs[x.Name.Value] = x.Body
		r.setExit(0)
		return normal(0)

	case *ast.ArithmCmd:
		n, err := r.ectx.Arithm(ctx, x.X)
		if err != nil {
			r.expandErr(err)
		}
		r.setExit(oneIf(n == 0))
		return normal(r.lastExit)

	case *ast.TestClause:
		r.setExit(oneIf(!r.bashTest(ctx, x.X)))
		return normal(r.lastExit)

	default:
		panic(fmt.Sprintf("interp: unhandled command node: %T", x))
	}
}

func (r *Runner) binaryCmd(ctx context.Context, x *ast.BinaryCmd) ControlFlow {
	switch x.Op {
	case ast.AndStmt, ast.OrStmt:
		oldNoErrExit := r.noErrExit
		r.noErrExit = true
		cf := r.stmt(ctx, x.X)
		r.noErrExit = oldNoErrExit
		if cf.unwinding() {
			return cf
		}
		if (r.lastExit == 0) == (x.Op == ast.AndStmt) {
			return r.stmt(ctx, x.Y)
		}
		return normal(r.lastExit)

	case ast.Pipe, ast.PipeAll:
		stages := flattenPipeline(x)
		return r.runPipeline(ctx, stages, x.Op == ast.PipeAll)

	default:
		panic(fmt.Sprintf("interp: unhandled binary op: %v", x.Op))
	}
}

// flattenPipeline collects every stage of a left-nested `a | b | c` chain
// into a single ordered slice; the parser nests pipelines as
// BinaryCmd{Pipe, a, BinaryCmd{Pipe, b, c}}.
func flattenPipeline(x *ast.BinaryCmd) []*ast.Stmt {
	var stages []*ast.Stmt
	var walk func(cm ast.Command)
	walk = func(cm ast.Command) {
		bc, ok := cm.(*ast.BinaryCmd)
		if !ok || (bc.Op != ast.Pipe && bc.Op != ast.PipeAll) {
			stages = append(stages, &ast.Stmt{Cmd: cm})
			return
		}
		stages = append(stages, bc.X)
		walk(bc.Y.Cmd)
		if len(bc.Y.Redirs) > 0 || bc.Y.Assigns != nil {
			stages[len(stages)-1] = bc.Y
		}
	}
	stages = append(stages, x.X)
	walk(x.Y.Cmd)
	if len(x.Y.Redirs) > 0 || x.Y.Assigns != nil {
		stages[len(stages)-1] = x.Y
	}
	return stages
}

func (r *Runner) ifClause(ctx context.Context, x *ast.IfClause) ControlFlow {
	oldNoErrExit := r.noErrExit
	r.noErrExit = true
	cf := r.stmts(ctx, x.CondStmts)
	r.noErrExit = oldNoErrExit
	if cf.unwinding() {
		return cf
	}
	if r.lastExit == 0 {
		return r.stmts(ctx, x.ThenStmts)
	}
	for _, elif := range x.Elifs {
		r.noErrExit = true
		cf = r.stmts(ctx, elif.CondStmts)
		r.noErrExit = oldNoErrExit
		if cf.unwinding() {
			return cf
		}
		if r.lastExit == 0 {
			return r.stmts(ctx, elif.ThenStmts)
		}
	}
	r.setExit(0)
	if x.ElseStmts != nil {
		return r.stmts(ctx, x.ElseStmts)
	}
	return normal(0)
}

func (r *Runner) loop(ctx context.Context, cond, body []*ast.Stmt, until bool) ControlFlow {
	ranOnce := false
	for !r.stop(ctx) {
		oldNoErrExit := r.noErrExit
		r.noErrExit = true
		cf := r.stmts(ctx, cond)
		r.noErrExit = oldNoErrExit
		if cf.unwinding() {
			return cf
		}
		stop := (r.lastExit == 0) == until
		if stop {
			break
		}
		ranOnce = true
		bodyCF, broke := r.runLoopBody(ctx, body)
		if bodyCF.unwinding() {
			return bodyCF
		}
		if broke {
			break
		}
	}
	if !ranOnce {
		r.setExit(0)
	}
	return normal(r.lastExit)
}

// runLoopBody runs one iteration of a loop body, absorbing a Break or
// Continue that targets this loop and reporting whether the loop itself
// should stop (break == true) afterward.
func (r *Runner) runLoopBody(ctx context.Context, body []*ast.Stmt) (cf ControlFlow, brk bool) {
	oldInLoop := r.inLoop
	r.inLoop = true
	defer func() { r.inLoop = oldInLoop }()

	cf = r.stmts(ctx, body)
	if !cf.unwinding() {
		return cf, false
	}
	absorbed, rest := cf.enterLoop()
	if !absorbed {
		if !oldInLoop {
			// No loop encloses this one, so there is nowhere left for
			// the residual levels to go: a count past the actual
			// nesting depth still stops here rather than escaping past
			// the outermost loop into the surrounding statements.
			return normal(r.lastExit), true
		}
		return rest, true // propagate upward, ending this loop too
	}
	return normal(r.lastExit), cf.Kind == Break
}

func (r *Runner) forClause(ctx context.Context, x *ast.ForClause) ControlFlow {
	switch y := x.Loop.(type) {
	case *ast.WordIter:
		var items []string
		if y.List == nil {
			items = r.Scope.Positional()
		} else {
			items = r.ectx.ExpandFields(ctx, y.List...)
		}
		ranOnce := false
		for _, field := range items {
			if r.stop(ctx) {
				break
			}
			r.Scope.Set(y.Name.Value, expand.Variable{Set: true, Kind: expand.String, Str: field})
			ranOnce = true
			cf, brk := r.runLoopBody(ctx, x.DoStmts)
			if cf.unwinding() {
				return cf
			}
			if brk {
				break
			}
		}
		if !ranOnce {
			r.setExit(0)
		}
		return normal(r.lastExit)

	case *ast.CStyleLoop:
		if _, err := r.ectx.Arithm(ctx, y.Init); err != nil {
			r.expandErr(err)
		}
		ranOnce := false
		for {
			n, err := r.ectx.Arithm(ctx, y.Cond)
			if err != nil {
				r.expandErr(err)
			}
			if n == 0 {
				break
			}
			ranOnce = true
			cf, brk := r.runLoopBody(ctx, x.DoStmts)
			if cf.unwinding() {
				return cf
			}
			if brk {
				break
			}
			if _, err := r.ectx.Arithm(ctx, y.Post); err != nil {
				r.expandErr(err)
			}
		}
		if !ranOnce {
			r.setExit(0)
		}
		return normal(r.lastExit)

	default:
		panic(fmt.Sprintf("interp: unhandled for-loop kind: %T", y))
	}
}

func (r *Runner) caseClause(ctx context.Context, x *ast.CaseClause) ControlFlow {
	str := r.ectx.ExpandLiteral(ctx, x.Word)
	r.setExit(0)

	i := 0
	for i < len(x.Items) {
		ci := x.Items[i]
		matched := false
		for _, word := range ci.Patterns {
			pat := r.ectx.ExpandPattern(ctx, word)
			if ok, _ := matchPattern(pat, str); ok {
				matched = true
				break
			}
		}
		if !matched {
			i++
			continue
		}

		for {
			cf := r.stmts(ctx, ci.Stmts)
			if cf.unwinding() {
				return cf
			}
			switch ci.Term {
			case ast.CaseFallThru:
				if i+1 < len(x.Items) {
					i++
					ci = x.Items[i]
					continue
				}
			case ast.CaseFallThruIf:
				// `;;&` resumes pattern matching at the next clause and,
				// unlike a plain fallthrough, keeps testing every
				// remaining clause in order until one matches (not just
				// the one immediately following), since an earlier
				// clause's `;;&` must still be able to reach a later
				// one past a non-matching clause in between.
				found := -1
				for j := i + 1; j < len(x.Items); j++ {
					for _, word := range x.Items[j].Patterns {
						pat := r.ectx.ExpandPattern(ctx, word)
						if ok, _ := matchPattern(pat, str); ok {
							found = j
							break
						}
					}
					if found >= 0 {
						break
					}
				}
				if found >= 0 {
					i = found
					ci = x.Items[i]
					continue
				}
			}
			return normal(r.lastExit)
		}
	}
	return normal(r.lastExit)
}

func (r *Runner) cmdSubst(ctx context.Context, w io.Writer, stmts []*ast.Stmt) {
	r2 := r.sub()
	r2.stdout = w
	r2.stmts(ctx, stmts)
	r.setExit(r2.lastExit)
}

func (r *Runner) procSubst(ctx context.Context, stmts []*ast.Stmt, op ast.ProcOp) (path string, cleanup func(), err error) {
	return r.procSubstPath(ctx, stmts, op)
}

// runSource parses and runs src in the current scope (no PushScope),
// the shape both `eval` and `.`/`source` need: unlike a function call or
// subshell, assignments and `cd` inside must be visible to the caller
// once it returns.
func (r *Runner) runSource(ctx context.Context, src, name string) (cf ControlFlow, status int, err error) {
	file, perr := parser.Parse([]byte(src), name)
	if perr != nil {
		return normal(r.lastExit), 1, perr
	}
	oldInSource := r.inSource
	r.inSource = true
	cf = r.stmts(ctx, file.Stmts)
	r.inSource = oldInSource
	return cf, r.lastExit, nil
}

const defaultKillTimeout = 2 * time.Second
