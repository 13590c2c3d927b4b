package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/xerrors"

	"cjsh/ast"
	"cjsh/expand"
	"cjsh/fileutil"
	"cjsh/job"
	"cjsh/parser"
	"cjsh/printer"
)

// runSimpleCommand expands and runs one non-piped CallExpr: assignments
// first (scoped to this command alone if it has an argv, persistent
// otherwise), then function call, then builtin, then external program.
// extraFDs carries fds >2 inherited from a pipeline stage's redirections.
func (r *Runner) runSimpleCommand(ctx context.Context, x *ast.CallExpr, _ []*os.File) ControlFlow {
	if len(x.Args) == 0 {
		return normal(r.lastExit)
	}
	args := r.ectx.ExpandFields(ctx, x.Args...)
	if len(args) == 0 {
		r.setExit(0)
		return normal(r.lastExit)
	}
	return r.call(ctx, args)
}

// call dispatches an already-expanded argv to a function, a builtin, or
// an external program, in that precedence order.
func (r *Runner) call(ctx context.Context, args []string) ControlFlow {
	if r.opts.xtrace {
		r.trace(args)
	}
	name := args[0]
	if body, ok := r.Funcs[name]; ok {
		return r.callFunc(ctx, body, args)
	}
	if IsBuiltin(name) {
		status, err := r.builtin(ctx, name, args[1:])
		if cf, ok := err.(controlFlowErr); ok {
			return ControlFlow(cf)
		}
		if err != nil {
			r.errf("%s: %v\n", name, err)
			status = 1
		}
		r.setExit(status)
		return normal(r.lastExit)
	}
	status, err := r.execExternal(ctx, args)
	if err != nil {
		r.errf("%v\n", err)
	}
	r.setExit(status)
	return normal(r.lastExit)
}

// trace writes one `set -x` line for an about-to-run argv, prefixed
// with PS4 (default "+ ") per POSIX.
func (r *Runner) trace(args []string) {
	ps4 := r.Scope.Get("PS4").Str
	if ps4 == "" {
		ps4 = "+ "
	}
	r.errf("%s\n", printer.TraceLine(ps4, 1, args))
}

// controlFlowErr lets a builtin (return, break, continue, exit) hand a
// non-local transfer back up through call/builtin's plain (int, error)
// signature without every builtin needing to know about ControlFlow.
type controlFlowErr ControlFlow

func (e controlFlowErr) Error() string { return "control flow" }

func (r *Runner) callFunc(ctx context.Context, body *ast.Stmt, args []string) ControlFlow {
	r.Scope.PushScope()
	oldPositional := r.Scope.Positional()
	r.Scope.SetPositional(args[1:])
	oldInFunc := r.inFunc
	r.inFunc = true
	defer func() {
		r.inFunc = oldInFunc
		r.Scope.SetPositional(oldPositional)
		r.Scope.PopScope()
	}()

	cf := r.cmd(ctx, body.Cmd)
	if cf.Kind == Return {
		r.setExit(cf.Status)
		return normal(r.lastExit)
	}
	return cf
}

// execEnv turns the current scope's exported variables into a process
// environment block.
func (r *Runner) execEnv() []string { return r.Scope.ExportedPairs() }

// reportBgPID sends pid once on r.bgPID, if this Runner is executing a
// backgrounded statement's first external process. A no-op for any
// foreground run, and for every external process after the first one in
// a pipeline, since only the first send matters: stmt's `&` handling is
// only ever waiting for the initial pid.
func (r *Runner) reportBgPID(pid int) {
	if r.bgPID == nil {
		return
	}
	r.bgPID <- pid
	r.bgPID = nil
}

// execExternal runs an external program to completion in the
// foreground, with no pipeline and no job-control group of its own (a
// single-stage "pipeline" of one).
func (r *Runner) execExternal(ctx context.Context, args []string) (int, error) {
	path, err := LookPathDir(r.Dir, r.Scope, args[0])
	if err != nil {
		r.errf("%v\n", err)
		if errors.Is(err, errNotExecutable) {
			return 126, nil
		}
		return 127, nil
	}
	cmd := &exec.Cmd{
		Path:   path,
		Args:   args,
		Env:    r.execEnv(),
		Dir:    r.Dir,
		Stdin:  r.stdin,
		Stdout: r.stdout,
		Stderr: r.stderr,
	}
	prepareCommand(cmd)
	if err := cmd.Start(); err != nil {
		if errors.Is(err, syscall.ENOEXEC) {
			if status, ok := r.execScriptFallback(ctx, path, args); ok {
				return status, nil
			}
		}
		return 127, fmt.Errorf("%s: %w", args[0], err)
	}
	if r.Jobs != nil {
		pgid := cmd.Process.Pid
		j := r.Jobs.Add(pgid, strings.Join(args, " "), r.backgrounding, []*job.Process{{Pid: pgid, Command: args[0]}})
		if r.backgrounding {
			r.reportBgPID(pgid)
			return 0, nil
		}
		_ = r.Jobs.SetForeground(pgid)
		status, err := r.Jobs.WaitForeground(j)
		return status, err
	}
	if r.backgrounding {
		r.reportBgPID(cmd.Process.Pid)
		go cmd.Wait()
		return 0, nil
	}
	return exitStatusOf(r.waitOrKill(ctx, cmd)), nil
}

// waitOrKill waits for cmd without a job.Manager to back it (a plain
// script run with no terminal to manage), but still honors ctx
// cancellation: a canceled context first asks the process group to
// interrupt, then escalates to SIGKILL if it hasn't exited shortly
// after, rather than leaving Wait blocked on a child that will outlive
// its own canceled script run.
func (r *Runner) waitOrKill(ctx context.Context, cmd *exec.Cmd) error {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}
	interruptCommand(cmd)
	select {
	case err := <-done:
		return err
	case <-time.After(killGracePeriod):
	}
	killCommand(cmd)
	return <-done
}

// killGracePeriod is how long waitOrKill gives an interrupted process
// to exit on its own before escalating to SIGKILL.
const killGracePeriod = 2 * time.Second

// execScriptFallback mirrors the ENOEXEC fallback real shells apply to
// a file the kernel's loader rejected for having no recognized binary
// format: if it doesn't carry a shebang naming some other interpreter,
// treat it as our own source and run it in a fresh subshell scope with
// $0/$1.. bound to path/args[1:], the way a foreground external command
// would have seen them. ok is false when the file names a foreign
// interpreter (e.g. `#!/usr/bin/perl`) or can't be read, and the
// original ENOEXEC should be reported instead of papered over.
func (r *Runner) execScriptFallback(ctx context.Context, path string, args []string) (status int, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	switch fileutil.Shebang(data) {
	case "", "sh", "bash":
	default:
		return 0, false
	}
	file, perr := parser.Parse(data, path)
	if perr != nil {
		r.errf("%s: %v\n", path, perr)
		return 2, true
	}
	sub := r.sub()
	sub.Scope.SetScriptName(path)
	sub.Scope.SetPositional(args[1:])
	return sub.Run(ctx, file), true
}

func exitStatusOf(err error) int {
	if err == nil {
		return 0
	}
	// xerrors.As (not a bare type assertion) so an ExitError wrapped by an
	// intervening errs.Report or fmt.Errorf still resolves to its real
	// status, the same unwrap-then-match the teacher's own IsExitStatus
	// applies to its exitStatus type in interp.go.
	var ee *exec.ExitError
	if xerrors.As(err, &ee) {
		if ws, ok := ee.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				return 128 + int(ws.Signal())
			}
			return ws.ExitStatus()
		}
		return ee.ExitCode()
	}
	return 1
}

// pipelineStage describes one command in a `a | b | c` chain together
// with how it must be run: forked as a real OS process (an external
// CallExpr) or executed in-process against a cloned Runner (anything Go
// cannot literally fork: a builtin, function, or compound command).
type pipelineStage struct {
	stmt     *ast.Stmt
	external bool
	args     []string // pre-expanded argv, when external
}

// runPipeline executes a flattened pipeline of stages connected by real
// os.Pipe()s. External stages become real child processes placed in one
// process group via Setpgid/SysProcAttr.Pgid, matching how a job-control
// shell runs a pipeline; builtin/function/compound stages — which Go
// cannot fork — run in a goroutine against a scope clone instead, and
// are not members of the OS process group (documented as a known
// limitation in DESIGN.md). pipeAll additionally routes stderr through
// the pipe for every stage but the last (`|&`).
func (r *Runner) runPipeline(ctx context.Context, stmts []*ast.Stmt, pipeAll bool) ControlFlow {
	stages := make([]pipelineStage, len(stmts))
	for i, st := range stmts {
		stages[i] = r.classifyStage(ctx, st)
	}

	n := len(stages)
	readers := make([]*os.File, n)
	writers := make([]*os.File, n)
	for i := 0; i < n-1; i++ {
		pr, pw, err := os.Pipe()
		if err != nil {
			r.errf("pipe: %v\n", err)
			r.setExit(1)
			return normal(r.lastExit)
		}
		readers[i+1] = pr
		writers[i] = pw
	}

	var wg sync.WaitGroup
	statuses := make([]int, n)
	var pgid int

	for i, stage := range stages {
		in := r.stdin
		if readers[i] != nil {
			in = readers[i]
		}
		out := r.stdout
		if writers[i] != nil {
			out = writers[i]
		}
		errW := r.stderr
		if pipeAll && writers[i] != nil {
			errW = writers[i]
		}

		if stage.external {
			cmd := &exec.Cmd{
				Args: stage.args,
				Env:  r.execEnv(),
				Dir:  r.Dir,
				Stdin: in, Stdout: out, Stderr: errW,
			}
			if path, err := LookPathDir(r.Dir, r.Scope, stage.args[0]); err == nil {
				cmd.Path = path
			} else {
				r.errf("%v\n", err)
				if errors.Is(err, errNotExecutable) {
					statuses[i] = 126
				} else {
					statuses[i] = 127
				}
				closeStageFDs(readers, writers, i)
				continue
			}
			prepareCommand(cmd)
			if pgid != 0 {
				cmd.SysProcAttr.Pgid = pgid
				cmd.SysProcAttr.Setpgid = true
			}
			if err := cmd.Start(); err != nil {
				r.errf("%v\n", err)
				statuses[i] = 127
				closeStageFDs(readers, writers, i)
				continue
			}
			if pgid == 0 {
				pgid = cmd.Process.Pid
			}
			// The child has its own dup of the pipe fds once started,
			// so the parent's copies can close right away — exactly
			// like a forking shell closing its inherited ends.
			closeStageFDs(readers, writers, i)
			idx := i
			wg.Add(1)
			go func(cmd *exec.Cmd) {
				defer wg.Done()
				statuses[idx] = exitStatusOf(cmd.Wait())
			}(cmd)
			continue
		}

		// A builtin/function/compound stage runs in-process: the pipe
		// fds are the actual objects it reads/writes, so they must stay
		// open until that goroutine is done with them, not closed by
		// the parent immediately as with a forked child above.
		r2 := r.sub()
		r2.stdin, r2.stdout, r2.stderr = in, out, errW
		idx := i
		rFile, wFile := readers[i], writers[i]
		wg.Add(1)
		go func(st *ast.Stmt) {
			defer wg.Done()
			r2.stmtSync(ctx, st)
			statuses[idx] = r2.lastExit
			if rFile != nil {
				rFile.Close()
			}
			if wFile != nil {
				wFile.Close()
			}
		}(stage.stmt)
	}

	if r.Jobs != nil && pgid != 0 {
		r.Jobs.Add(pgid, pipelineLabel(stages), r.backgrounding, nil)
		if !r.backgrounding {
			_ = r.Jobs.SetForeground(pgid)
		}
	}
	if r.backgrounding {
		if pgid != 0 {
			r.reportBgPID(pgid)
		}
		r.setExit(0)
		return normal(r.lastExit)
	}
	wg.Wait()

	status := statuses[n-1]
	if r.opts.pipefail {
		for _, s := range statuses {
			if s != 0 {
				status = s
			}
		}
	}
	r.setExit(status)
	return normal(r.lastExit)
}

func closeStageFDs(readers, writers []*os.File, i int) {
	if readers[i] != nil {
		readers[i].Close()
	}
	if writers[i] != nil {
		writers[i].Close()
	}
}

func pipelineLabel(stages []pipelineStage) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		if s.external {
			parts[i] = strings.Join(s.args, " ")
		} else {
			parts[i] = "{ ... }"
		}
	}
	return strings.Join(parts, " | ")
}

// classifyStage expands a pipeline stage enough to tell whether it is a
// bare external-program call (which can be forked for real) or anything
// else (builtin, function, compound command), which runs in-process.
func (r *Runner) classifyStage(ctx context.Context, st *ast.Stmt) pipelineStage {
	call, ok := st.Cmd.(*ast.CallExpr)
	if !ok || len(call.Args) == 0 || len(st.Redirs) > 0 {
		return pipelineStage{stmt: st}
	}
	args := r.ectx.ExpandFields(ctx, call.Args...)
	if len(args) == 0 {
		return pipelineStage{stmt: st}
	}
	if _, isFunc := r.Funcs[args[0]]; isFunc {
		return pipelineStage{stmt: st}
	}
	if IsBuiltin(args[0]) {
		return pipelineStage{stmt: st}
	}
	return pipelineStage{stmt: st, external: true, args: args}
}

// errNotExecutable marks a path that exists but lacks an execute bit,
// the case LookPathDir's caller must report with exit status 126 rather
// than the 127 a genuinely missing command gets.
var errNotExecutable = errors.New("permission denied")

func checkStat(dir, file string, checkExec bool) (string, error) {
	if !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	info, err := os.Stat(file)
	if err != nil {
		return "", err
	}
	m := info.Mode()
	if m.IsDir() {
		return "", fmt.Errorf("is a directory")
	}
	if checkExec && runtime.GOOS != "windows" && m&0o111 == 0 {
		return "", errNotExecutable
	}
	return file, nil
}

// findExecutable returns the path to an existing, executable file.
func findExecutable(dir, file string, _ []string) (string, error) {
	return checkStat(dir, file, true)
}

// LookPathDir resolves name against PATH the way a shell does, using env
// for PATH rather than the process's own.
func LookPathDir(cwd string, env expand.Environ, name string) (string, error) {
	pathList := filepath.SplitList(env.Get("PATH").String())
	if len(pathList) == 0 {
		pathList = []string{""}
	}
	if strings.ContainsAny(name, "/") {
		return findExecutable(cwd, name, nil)
	}
	foundNotExecutable := false
	for _, elem := range pathList {
		var path string
		switch elem {
		case "", ".":
			path = "." + string(filepath.Separator) + name
		default:
			path = filepath.Join(elem, name)
		}
		f, err := findExecutable(cwd, path, nil)
		if err == nil {
			return f, nil
		}
		if errors.Is(err, errNotExecutable) {
			foundNotExecutable = true
		}
	}
	if foundNotExecutable {
		return "", fmt.Errorf("%w: %s", errNotExecutable, name)
	}
	return "", fmt.Errorf("%s: command not found", name)
}

// procSubstPath implements `<(...)`/`>(...)`: a named pipe-like fd path
// (here, an actual os.Pipe fed or drained by a goroutine, exposed via
// /dev/fd on platforms that support it and a temp FIFO elsewhere) backing
// a subshell's stdin or stdout.
func (r *Runner) procSubstPath(ctx context.Context, stmts []*ast.Stmt, op ast.ProcOp) (string, func(), error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return "", nil, err
	}
	r2 := r.sub()
	var path string
	var done func()

	runSide := func(in io.Reader, out io.Writer, closeAfter *os.File) {
		r.procSubst.Go(func() error {
			r2.stdin, r2.stdout, r2.stderr = in, out, r.stderr
			r2.stmts(ctx, stmts)
			closeAfter.Close()
			return nil
		})
	}

	switch op {
	case ast.ProcIn: // <(...): substitution produces output we read
		runSide(r.stdin, pw, pw)
		path = procFDPath(pr.Fd())
		done = func() { pr.Close() }
	default: // >(...): substitution consumes input we write
		runSide(pr, r.stdout, pr)
		path = procFDPath(pw.Fd())
		done = func() { pw.Close() }
	}
	return path, done, nil
}

// procFDPath names a process substitution's fd through /dev/fd, the
// mechanism Linux and the BSDs both expose; a host without /dev/fd
// cannot back `<(...)`/`>(...)` this way at all, which is a documented
// limitation rather than something worth a runtime fallback here.
func procFDPath(fd uintptr) string {
	return fmt.Sprintf("/dev/fd/%d", fd)
}
