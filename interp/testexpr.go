package interp

import (
	"context"
	"os"
	"os/user"
	"regexp"
	"strconv"
	"syscall"

	"cjsh/ast"
	"cjsh/pattern"
)

// bashTest evaluates a `[[ ]]` expression tree to a boolean, the
// language-level conditional construct cjsh keeps even though it leaves
// the `test`/`[` builtin itself out of scope.
func (r *Runner) bashTest(ctx context.Context, x ast.TestExpr) bool {
	switch y := x.(type) {
	case *ast.Word:
		return r.ectx.ExpandLiteral(ctx, y) != ""
	case *ast.ParenTest:
		return r.bashTest(ctx, y.X)
	case *ast.UnaryTest:
		return r.unaryTest(ctx, y)
	case *ast.BinaryTest:
		return r.binaryTest(ctx, y)
	default:
		return false
	}
}

func (r *Runner) unaryTest(ctx context.Context, u *ast.UnaryTest) bool {
	if u.Op == ast.TestNot {
		return !r.bashTest(ctx, u.X)
	}
	operand := r.operandString(ctx, u.X)
	switch u.Op {
	case ast.TestStrEmpty:
		return operand == ""
	case ast.TestStrNonEmpty:
		return operand != ""
	case ast.TestVarSet:
		return r.Scope.Get(operand).IsSet()
	case ast.TestTerminal:
		fd, err := strconv.Atoi(operand)
		if err != nil {
			return false
		}
		var st syscall.Stat_t
		return syscall.Fstat(fd, &st) == nil && (st.Mode&syscall.S_IFMT) == syscall.S_IFCHR
	}

	path := r.relTo(operand)
	info, err := os.Stat(path)
	switch u.Op {
	case ast.TestExists:
		return err == nil
	case ast.TestRegular:
		return err == nil && info.Mode().IsRegular()
	case ast.TestDir:
		return err == nil && info.IsDir()
	case ast.TestReadable:
		return err == nil && hasMode(info, 0o4)
	case ast.TestWritable:
		return err == nil && hasMode(info, 0o2)
	case ast.TestExecutable:
		return err == nil && hasMode(info, 0o1)
	case ast.TestSize:
		return err == nil && info.Size() > 0
	case ast.TestSymlink:
		linfo, lerr := os.Lstat(path)
		return lerr == nil && linfo.Mode()&os.ModeSymlink != 0
	case ast.TestPipe:
		return err == nil && info.Mode()&os.ModeNamedPipe != 0
	case ast.TestSocket:
		return err == nil && info.Mode()&os.ModeSocket != 0
	case ast.TestBlock:
		return err == nil && info.Mode()&os.ModeDevice != 0 && info.Mode()&os.ModeCharDevice == 0
	case ast.TestChar:
		return err == nil && info.Mode()&os.ModeCharDevice != 0
	case ast.TestSetuid:
		return err == nil && info.Mode()&os.ModeSetuid != 0
	case ast.TestSetgid:
		return err == nil && info.Mode()&os.ModeSetgid != 0
	default:
		return false
	}
}

// hasMode checks bit (one of 4 read, 2 write, 1 execute) against
// whichever of the owner/group/other triads applies to the current
// user, falling back to "any of the three triads" if uid/gid can't be
// determined.
func hasMode(info os.FileInfo, bit os.FileMode) bool {
	perm := info.Mode().Perm()
	st, ok := info.Sys().(*syscall.Stat_t)
	u, err := user.Current()
	if !ok || err != nil {
		return perm&(bit|bit<<3|bit<<6) != 0
	}
	uid, _ := strconv.Atoi(u.Uid)
	gid, _ := strconv.Atoi(u.Gid)
	switch {
	case uint32(uid) == st.Uid:
		return perm&(bit<<6) != 0
	case uint32(gid) == st.Gid:
		return perm&(bit<<3) != 0
	default:
		return perm&bit != 0
	}
}

func (r *Runner) operandString(ctx context.Context, x ast.TestExpr) string {
	if w, ok := x.(*ast.Word); ok {
		return r.ectx.ExpandLiteral(ctx, w)
	}
	return ""
}

func (r *Runner) binaryTest(ctx context.Context, b *ast.BinaryTest) bool {
	switch b.Op {
	case ast.TestAnd:
		return r.bashTest(ctx, b.X) && r.bashTest(ctx, b.Y)
	case ast.TestOr:
		return r.bashTest(ctx, b.X) || r.bashTest(ctx, b.Y)
	}

	left := r.operandString(ctx, b.X)
	right := r.operandString(ctx, b.Y)

	switch b.Op {
	case ast.TestEql:
		ok, _ := pattern.Match(right, left, pattern.EntireString)
		return ok
	case ast.TestNeq:
		ok, _ := pattern.Match(right, left, pattern.EntireString)
		return !ok
	case ast.TestReMatch:
		re, err := regexp.Compile(right)
		if err != nil {
			return false
		}
		return re.MatchString(left)
	case ast.TestLt:
		return left < right
	case ast.TestGt:
		return left > right
	case ast.TestIntEq, ast.TestIntNe, ast.TestIntLt, ast.TestIntLe, ast.TestIntGt, ast.TestIntGe:
		li, lerr := strconv.Atoi(left)
		ri, rerr := strconv.Atoi(right)
		if lerr != nil || rerr != nil {
			r.errf("integer expression expected\n")
			return false
		}
		switch b.Op {
		case ast.TestIntEq:
			return li == ri
		case ast.TestIntNe:
			return li != ri
		case ast.TestIntLt:
			return li < ri
		case ast.TestIntLe:
			return li <= ri
		case ast.TestIntGt:
			return li > ri
		case ast.TestIntGe:
			return li >= ri
		}
	case ast.TestNewer, ast.TestOlder:
		li, lerr := os.Stat(r.relTo(left))
		ri, rerr := os.Stat(r.relTo(right))
		if lerr != nil || rerr != nil {
			return b.Op == ast.TestNewer && lerr == nil
		}
		if b.Op == ast.TestNewer {
			return li.ModTime().After(ri.ModTime())
		}
		return li.ModTime().Before(ri.ModTime())
	case ast.TestSameFile:
		li, lerr := os.Stat(r.relTo(left))
		ri, rerr := os.Stat(r.relTo(right))
		if lerr != nil || rerr != nil {
			return false
		}
		return os.SameFile(li, ri)
	}
	return false
}
