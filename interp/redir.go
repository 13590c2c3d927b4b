package interp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"cjsh/ast"
)

// applyRedirect opens and wires up one redirection onto the Runner's
// current stdin/stdout/stderr (or an arbitrary fd via N>&M-style
// duplication, tracked only for the external-command case since a
// builtin only ever observes fds 0-2). It returns a closer the caller
// should defer-close once the statement finishes, restoring the prior
// stream, or nil for a bare fd-duplication that owns nothing to close.
func (r *Runner) applyRedirect(ctx context.Context, rd *ast.Redirect) (io.Closer, error) {
	switch rd.Op {
	case ast.RdrIn:
		path := r.ectx.ExpandLiteral(ctx, &rd.Word)
		f, err := os.Open(r.relTo(path))
		if err != nil {
			return nil, err
		}
		r.setStream(rd.N, f, nil, nil)
		return f, nil

	case ast.RdrOut, ast.ClobberOut:
		path := r.ectx.ExpandLiteral(ctx, &rd.Word)
		flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if r.opts.noclob && rd.Op == ast.RdrOut {
			flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
		}
		f, err := os.OpenFile(r.relTo(path), flags, 0o644)
		if err != nil {
			return nil, err
		}
		r.setStream(nil, nil, f, nil)
		if rd.N != nil {
			r.setNumberedStream(rd.N, f)
		}
		return f, nil

	case ast.AppOut:
		path := r.ectx.ExpandLiteral(ctx, &rd.Word)
		f, err := os.OpenFile(r.relTo(path), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		r.setStream(nil, nil, f, nil)
		if rd.N != nil {
			r.setNumberedStream(rd.N, f)
		}
		return f, nil

	case ast.RdrInOut:
		path := r.ectx.ExpandLiteral(ctx, &rd.Word)
		f, err := os.OpenFile(r.relTo(path), os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			return nil, err
		}
		r.setStream(rd.N, f, f, nil)
		return f, nil

	case ast.MergeErrOut:
		// `&>file` / `>&file`: both stdout and stderr to the same file.
		path := r.ectx.ExpandLiteral(ctx, &rd.Word)
		f, err := os.OpenFile(r.relTo(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, err
		}
		r.stdout, r.stderr = f, f
		return f, nil

	case ast.MergeAppOut:
		path := r.ectx.ExpandLiteral(ctx, &rd.Word)
		f, err := os.OpenFile(r.relTo(path), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		r.stdout, r.stderr = f, f
		return f, nil

	case ast.DplIn, ast.DplOut:
		return r.applyDup(rd)

	case ast.Hdoc, ast.DashHdoc:
		text := r.ectx.ExpandLiteral(ctx, rd.Hdoc)
		if rd.Op == ast.DashHdoc {
			text = stripLeadingTabs(text)
		}
		r.stdin = bytes.NewReader([]byte(text))
		return nil, nil

	case ast.HdocStr:
		text := r.ectx.ExpandLiteral(ctx, rd.Hdoc) + "\n"
		r.stdin = bytes.NewReader([]byte(text))
		return nil, nil

	case ast.CmdIn, ast.CmdOut:
		// Process substitution used as a plain redirection target
		// (`cmd <file <(...)` is unusual but legal); the word itself
		// already expands through ExpandFields/ExpandLiteral's
		// cmdSubst/procSubst hooks, so nothing extra is needed here
		// beyond opening the resulting path like a normal file.
		path := r.ectx.ExpandLiteral(ctx, &rd.Word)
		flag := os.O_RDONLY
		if rd.Op == ast.CmdOut {
			flag = os.O_WRONLY
		}
		f, err := os.OpenFile(path, flag, 0)
		if err != nil {
			return nil, err
		}
		if rd.Op == ast.CmdIn {
			r.stdin = f
		} else {
			r.stdout = f
		}
		return f, nil

	default:
		return nil, fmt.Errorf("unsupported redirection")
	}
}

// relTo joins a relative path against the interpreter's current
// directory, since os.Open et al. always use the process's own cwd.
func (r *Runner) relTo(path string) string {
	if path == "" || path[0] == '/' {
		return path
	}
	return r.Dir + "/" + path
}

// setStream assigns f (or in/out separately) to the fd(s) a redirection
// without an explicit number defaults to: n is nil for stdin-flavored
// (0) and stdout-flavored (1) ops that don't carry one, decided by which
// of in/outTarget is non-nil.
func (r *Runner) setStream(n *ast.Lit, in io.Reader, out io.Writer, _ io.Writer) {
	fd := 0
	if out != nil {
		fd = 1
	}
	if n != nil {
		fd, _ = strconv.Atoi(n.Value)
	}
	switch fd {
	case 0:
		if in != nil {
			r.stdin = in
		}
	case 1:
		if out != nil {
			r.stdout = out
		}
	case 2:
		if out != nil {
			r.stderr = out
		}
	}
}

func (r *Runner) setNumberedStream(n *ast.Lit, f *os.File) {
	fd := 1
	if n != nil {
		fd, _ = strconv.Atoi(n.Value)
	}
	switch fd {
	case 1:
		r.stdout = f
	case 2:
		r.stderr = f
	}
}

// applyDup implements `n>&m` and `n<&m`: duplicating one of the
// interpreter's own streams onto another (`2>&1`), or closing a stream
// with `n>&-`.
func (r *Runner) applyDup(rd *ast.Redirect) (io.Closer, error) {
	src := 0
	if rd.Op == ast.DplOut {
		src = 1
	}
	if rd.N != nil {
		src, _ = strconv.Atoi(rd.N.Value)
	}
	target := rd.Word.Lit()
	if target == "-" {
		switch src {
		case 0:
			r.stdin = nopReader{}
		case 1, 2:
			r.setNumberedStream(&ast.Lit{Value: strconv.Itoa(src)}, nil)
		}
		return nil, nil
	}
	dstFd, err := strconv.Atoi(target)
	if err != nil {
		return nil, fmt.Errorf("invalid fd target %q", target)
	}
	switch dstFd {
	case 0:
		if src == 0 {
			return nil, nil
		}
	case 1:
		if f, ok := r.stdout.(*os.File); ok && src != 1 {
			r.setNumberedStream(&ast.Lit{Value: strconv.Itoa(src)}, f)
		}
	case 2:
		if f, ok := r.stderr.(*os.File); ok && src != 2 {
			r.setNumberedStream(&ast.Lit{Value: strconv.Itoa(src)}, f)
		}
	}
	return nil, nil
}

type nopReader struct{}

func (nopReader) Read([]byte) (int, error) { return 0, io.EOF }

func stripLeadingTabs(s string) string {
	out := make([]byte, 0, len(s))
	atLineStart := true
	for i := 0; i < len(s); i++ {
		if atLineStart && s[i] == '\t' {
			continue
		}
		atLineStart = false
		out = append(out, s[i])
		if s[i] == '\n' {
			atLineStart = true
		}
	}
	return out
}
