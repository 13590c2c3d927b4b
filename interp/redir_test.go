package interp

import "testing"

func TestStripLeadingTabs(t *testing.T) {
	in := "\t\thello\n\tworld\nno tabs\n"
	want := "hello\nworld\nno tabs\n"
	if got := stripLeadingTabs(in); got != want {
		t.Errorf("stripLeadingTabs(%q) = %q, want %q", in, got, want)
	}
}

func TestRelTo(t *testing.T) {
	r := newTestRunner(t, "/some/dir")

	if got := r.relTo("/abs/path"); got != "/abs/path" {
		t.Errorf("relTo(abs) = %q, want unchanged", got)
	}
	if got := r.relTo("rel/path"); got != "/some/dir/rel/path" {
		t.Errorf("relTo(rel) = %q, want /some/dir/rel/path", got)
	}
	if got := r.relTo(""); got != "" {
		t.Errorf("relTo(\"\") = %q, want \"\"", got)
	}
}
