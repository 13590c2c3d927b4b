// Package shell is cjsh's public facade: convenience entry points for
// embedding the interpreter without building a Runner, job.Manager, and
// vars.Scope by hand.
//
// Grounded on the teacher's shell/source.go: SourceFile/SourceNode keep
// its "parse, run in a restricted sandbox, hand back the declared
// variables" shape, retargeted from mvdan-sh's pluggable ModuleExec/
// OpenDevImpls hooks (which cjsh's Runner has no equivalent of, since it
// execs directly rather than through a module system) onto a static
// pre-run AST check: any external command not on a fixed whitelist of
// side-effect-free utilities, and any builtin capable of reaching outside
// the interpreter (exec, trap, kill, jobs/fg/bg, eval, ./source), makes
// SourceNode refuse to run the script at all. The check walks every word
// in the script, not just command names, so a command or process
// substitution hidden inside a variable assignment, a redirect target, or
// an argument to a whitelisted program is caught too.
package shell

import (
	"context"
	"fmt"
	"os"

	"cjsh/ast"
	"cjsh/errs"
	"cjsh/expand"
	"cjsh/interp"
	"cjsh/parser"
	"cjsh/vars"
)

// SourceFile sources a shell file from disk and returns the variables it
// declares.
func SourceFile(ctx context.Context, path string) (map[string]expand.Variable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New(errs.Error, errs.Runtime, "RUN001", "could not open "+path).WithCause(err)
	}
	file, perr := parser.Parse(data, path)
	if perr != nil {
		return nil, perr
	}
	return SourceNode(ctx, file)
}

// SourceNode sources an already-parsed file and returns the variables it
// declares. Any side effect beyond the purePrograms whitelist is refused
// before the script ever runs.
func SourceNode(ctx context.Context, file *ast.File) (map[string]expand.Variable, error) {
	if err := checkPure(file.Stmts); err != nil {
		return nil, err
	}
	scope := vars.NewRoot(nil)
	r, err := interp.New(scope, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build runner: %w", err)
	}
	status := r.Run(ctx, file)
	if err := r.Exited(); err != nil {
		return nil, err
	}
	if status != 0 {
		return nil, fmt.Errorf("exit status %d", status)
	}

	out := map[string]expand.Variable{}
	scope.Each(func(name string, vr expand.Variable) bool {
		switch name {
		case "PWD", "HOME", "PATH", "IFS", "OPTIND":
			return true // internal shell vars the caller isn't interested in
		}
		out[name] = vr
		return true
	})
	return out, nil
}

// purePrograms holds a list of common programs that do not have side
// effects, or otherwise cannot modify or harm the system that runs them.
var purePrograms = map[string]bool{
	// string handling
	"sed": true, "grep": true, "tr": true, "cut": true, "cat": true,
	"head": true, "tail": true, "seq": true, "yes": true, "wc": true,
	"echo": true,
	// paths
	"ls": true, "pwd": true, "basename": true, "realpath": true,
	// others
	"env": true, "sleep": true, "uniq": true, "sort": true,
}

// unsafeBuiltins can reach outside the sandbox (run another program, send
// a signal, change the interpreter's own trap/job state), so sourcing
// refuses any script that names one.
var unsafeBuiltins = map[string]bool{
	"exec": true, "trap": true, "eval": true, ".": true, "source": true,
	"jobs": true, "fg": true, "bg": true, "wait": true, "kill": true,
}

func checkPure(stmts []*ast.Stmt) error {
	for _, st := range stmts {
		if err := checkPureCmd(st.Cmd); err != nil {
			return err
		}
		for _, as := range st.Assigns {
			if err := checkWord(&as.Value); err != nil {
				return err
			}
		}
		for _, rd := range st.Redirs {
			if err := checkWord(&rd.Word); err != nil {
				return err
			}
			if rd.Hdoc != nil {
				if err := checkWord(rd.Hdoc); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// checkWord walks every part of w looking for a nested command or process
// substitution, since those can run arbitrary code even inside a word that
// is itself just an argument to a whitelisted program, or the right-hand
// side of a plain variable assignment.
func checkWord(w *ast.Word) error {
	if w == nil {
		return nil
	}
	return checkWordParts(w.Parts)
}

func checkWordParts(parts []ast.WordPart) error {
	for _, part := range parts {
		switch x := part.(type) {
		case *ast.Lit, *ast.SglQuoted:
			// no nested content
		case *ast.DblQuoted:
			if err := checkWordParts(x.Parts); err != nil {
				return err
			}
		case *ast.ParamExp:
			for _, sub := range []*ast.Word{x.Index, x.SliceOff, x.SliceLen, x.Pattern, x.Repl, x.Arg} {
				if err := checkWord(sub); err != nil {
					return err
				}
			}
		case *ast.CmdSubst:
			if err := checkPure(x.Stmts); err != nil {
				return err
			}
		case *ast.ArithmExp:
			if err := checkArithm(x.X); err != nil {
				return err
			}
		case *ast.ProcSubst:
			if err := checkPure(x.Stmts); err != nil {
				return err
			}
		case *ast.ExtGlob:
			if err := checkWord(x.Pattern); err != nil {
				return err
			}
		case *ast.BraceExp:
			for _, e := range x.Elems {
				if err := checkWord(e); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkArithm(x ast.ArithmExpr) error {
	switch a := x.(type) {
	case nil:
		return nil
	case *ast.BinaryArithm:
		if err := checkArithm(a.X); err != nil {
			return err
		}
		return checkArithm(a.Y)
	case *ast.UnaryArithm:
		return checkArithm(a.X)
	case *ast.ParenArithm:
		return checkArithm(a.X)
	case *ast.Word:
		return checkWord(a)
	}
	return nil
}

func checkTest(x ast.TestExpr) error {
	switch t := x.(type) {
	case nil:
		return nil
	case *ast.BinaryTest:
		if err := checkTest(t.X); err != nil {
			return err
		}
		return checkTest(t.Y)
	case *ast.UnaryTest:
		return checkTest(t.X)
	case *ast.ParenTest:
		return checkTest(t.X)
	case *ast.Word:
		return checkWord(t)
	}
	return nil
}

func checkPureCmd(cmd ast.Command) error {
	switch x := cmd.(type) {
	case nil:
		return nil
	case *ast.CallExpr:
		if len(x.Args) == 0 {
			return nil
		}
		name := x.Args[0].Lit()
		if name == "" {
			return fmt.Errorf("program name must be a literal to source safely")
		}
		if unsafeBuiltins[name] {
			return fmt.Errorf("builtin not allowed when sourcing: %s", name)
		}
		if !interp.IsBuiltin(name) && !purePrograms[name] {
			return fmt.Errorf("program not in whitelist: %s", name)
		}
		for _, arg := range x.Args[1:] {
			if err := checkWord(arg); err != nil {
				return err
			}
		}
		return nil
	case *ast.Block:
		return checkPure(x.Stmts)
	case *ast.Subshell:
		return checkPure(x.Stmts)
	case *ast.BinaryCmd:
		if err := checkPure([]*ast.Stmt{x.X}); err != nil {
			return err
		}
		return checkPure([]*ast.Stmt{x.Y})
	case *ast.IfClause:
		for _, s := range [][]*ast.Stmt{x.CondStmts, x.ThenStmts, x.ElseStmts} {
			if err := checkPure(s); err != nil {
				return err
			}
		}
		for _, e := range x.Elifs {
			if err := checkPure(e.CondStmts); err != nil {
				return err
			}
			if err := checkPure(e.ThenStmts); err != nil {
				return err
			}
		}
		return nil
	case *ast.WhileClause:
		if err := checkPure(x.CondStmts); err != nil {
			return err
		}
		return checkPure(x.DoStmts)
	case *ast.UntilClause:
		if err := checkPure(x.CondStmts); err != nil {
			return err
		}
		return checkPure(x.DoStmts)
	case *ast.ForClause:
		switch loop := x.Loop.(type) {
		case *ast.WordIter:
			for _, w := range loop.List {
				if err := checkWord(w); err != nil {
					return err
				}
			}
		case *ast.CStyleLoop:
			for _, a := range []ast.ArithmExpr{loop.Init, loop.Cond, loop.Post} {
				if err := checkArithm(a); err != nil {
					return err
				}
			}
		}
		return checkPure(x.DoStmts)
	case *ast.CaseClause:
		if err := checkWord(x.Word); err != nil {
			return err
		}
		for _, item := range x.Items {
			for _, p := range item.Patterns {
				if err := checkWord(p); err != nil {
					return err
				}
			}
			if err := checkPure(item.Stmts); err != nil {
				return err
			}
		}
		return nil
	case *ast.FuncDecl:
		return checkPure([]*ast.Stmt{x.Body})
	case *ast.ArithmCmd:
		return checkArithm(x.X)
	case *ast.TestClause:
		return checkTest(x.X)
	default:
		return nil
	}
}
