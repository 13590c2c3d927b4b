package vars

import (
	"testing"

	"cjsh/expand"
)

func strVar(v string) expand.Variable {
	return expand.Variable{Set: true, Kind: expand.String, Str: v}
}

func TestGetSetBasic(t *testing.T) {
	s := NewRoot(nil)
	if err := s.Set("FOO", strVar("bar")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.Get("FOO").String(); got != "bar" {
		t.Errorf("Get(FOO) = %q, want %q", got, "bar")
	}
}

func TestInheritedEnvironExported(t *testing.T) {
	s := NewRoot([]string{"HOME=/home/x"})
	vr := s.Get("HOME")
	if !vr.Exported || vr.String() != "/home/x" {
		t.Errorf("Get(HOME) = %+v, want exported /home/x", vr)
	}
}

func TestReadOnlyRejectsWriteAndUnset(t *testing.T) {
	s := NewRoot(nil)
	s.Set("X", strVar("1"))
	if err := s.MarkReadOnly("X"); err != nil {
		t.Fatalf("MarkReadOnly: %v", err)
	}
	if err := s.Set("X", strVar("2")); err == nil {
		t.Errorf("Set on readonly var should fail")
	}
	if err := s.Unset("X"); err == nil {
		t.Errorf("Unset on readonly var should fail")
	}
	if got := s.Get("X").String(); got != "1" {
		t.Errorf("readonly var value changed to %q", got)
	}
}

func TestPushPopScopeShadowing(t *testing.T) {
	s := NewRoot(nil)
	s.Set("X", strVar("global"))

	s.PushScope()
	s.SetScope("X", strVar("local"), Local)
	if got := s.Get("X").String(); got != "local" {
		t.Errorf("Get(X) inside frame = %q, want %q", got, "local")
	}
	s.PopScope()

	if got := s.Get("X").String(); got != "global" {
		t.Errorf("Get(X) after pop = %q, want %q", got, "global")
	}
}

func TestSetShellScopeWritesExistingOuterBinding(t *testing.T) {
	s := NewRoot(nil)
	s.Set("X", strVar("global"))
	s.PushScope()
	// a plain assignment inside a function, without `local`, rewrites the
	// existing outer binding rather than shadowing it
	s.SetScope("X", strVar("changed"), Shell)
	s.PopScope()
	if got := s.Get("X").String(); got != "changed" {
		t.Errorf("Get(X) after pop = %q, want %q", got, "changed")
	}
}

func TestPositionalParamsAndShift(t *testing.T) {
	s := NewRoot(nil)
	s.SetPositional([]string{"a", "b", "c"})
	if got := s.Get("#").String(); got != "3" {
		t.Errorf("$# = %q, want 3", got)
	}
	if got := s.Get("2").String(); got != "b" {
		t.Errorf("$2 = %q, want b", got)
	}
	if err := s.Shift(1); err != nil {
		t.Fatalf("Shift: %v", err)
	}
	if got := s.Get("1").String(); got != "b" {
		t.Errorf("$1 after shift = %q, want b", got)
	}
}

func TestFunctionFramePositionalParams(t *testing.T) {
	s := NewRoot(nil)
	s.SetPositional([]string{"outer1"})
	s.PushScope()
	s.SetPositional([]string{"inner1", "inner2"})
	if got := s.Get("#").String(); got != "2" {
		t.Errorf("$# inside frame = %q, want 2", got)
	}
	s.PopScope()
	if got := s.Get("#").String(); got != "1" {
		t.Errorf("$# after pop = %q, want 1", got)
	}
}

func TestSpecialParams(t *testing.T) {
	s := NewRoot(nil)
	s.SetLastStatus(42)
	if got := s.Get("?").String(); got != "42" {
		t.Errorf("$? = %q, want 42", got)
	}
	s.SetLastBackgroundPID(1234)
	if got := s.Get("!").String(); got != "1234" {
		t.Errorf("$! = %q, want 1234", got)
	}
	if !s.Get("$").IsSet() {
		t.Errorf("$$ should always be set")
	}
}

func TestCannotAssignSpecialParam(t *testing.T) {
	s := NewRoot(nil)
	if err := s.Set("?", strVar("0")); err == nil {
		t.Errorf("assigning to $? should fail")
	}
}

func TestEachDeduplicatesShadowedNames(t *testing.T) {
	s := NewRoot(nil)
	s.Set("X", strVar("global"))
	s.PushScope()
	s.SetScope("X", strVar("local"), Local)
	count := 0
	s.Each(func(name string, vr expand.Variable) bool {
		if name == "X" {
			count++
			if vr.String() != "local" {
				t.Errorf("Each saw X = %q, want the inner shadowed value", vr.String())
			}
		}
		return true
	})
	if count != 1 {
		t.Errorf("Each visited X %d times, want 1", count)
	}
}

func TestExportedPairs(t *testing.T) {
	s := NewRoot(nil)
	s.SetScope("A", strVar("1"), Export)
	s.Set("B", strVar("2"))
	pairs := s.ExportedPairs()
	found := false
	for _, p := range pairs {
		if p == "A=1" {
			found = true
		}
		if p == "B=2" {
			t.Errorf("non-exported B leaked into ExportedPairs: %v", pairs)
		}
	}
	if !found {
		t.Errorf("ExportedPairs() = %v, want to include A=1", pairs)
	}
}
