package diagnostic

import (
	"strings"
	"testing"
)

func TestEmptyCollection(t *testing.T) {
	d := New()
	if d.HasErrors() {
		t.Error("new collection should have no errors")
	}
	if d.Count() != 0 {
		t.Errorf("count = %d", d.Count())
	}
	if d.Format("main.tova") != "" {
		t.Errorf("empty collection should format to empty string")
	}
}

func TestCounts(t *testing.T) {
	d := New()
	d.Errorf(1, 1, "first error")
	d.Errorf(2, 1, "second error")
	d.Warningf(3, 1, "a warning")

	if d.Count() != 3 || d.ErrorCount() != 2 || d.WarningCount() != 1 {
		t.Errorf("counts = %d/%d/%d", d.Count(), d.ErrorCount(), d.WarningCount())
	}
	if !d.HasErrors() {
		t.Error("HasErrors should be true")
	}
	if len(d.Errors()) != 2 || len(d.Warnings()) != 1 {
		t.Errorf("filtered views wrong: %d errors, %d warnings", len(d.Errors()), len(d.Warnings()))
	}
}

func TestFormat(t *testing.T) {
	d := New()
	d.ErrorWithHint(3, 10, "undeclared variable 'x'", "did you mean 'y'?")
	d.Warningf(5, 1, "unused variable 'z'")

	got := d.Format("main.tova")
	want := "error[main.tova:3:10]: undeclared variable 'x'\n" +
		"  hint: did you mean 'y'?\n" +
		"warning[main.tova:5:1]: unused variable 'z'"
	if got != want {
		t.Errorf("Format mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatPrefersDiagnosticFile(t *testing.T) {
	d := New()
	d.Add(Diagnostic{Severity: Error, Message: "boom", Line: 1, Column: 2, File: "lib.tova"})

	got := d.Format("main.tova")
	if !strings.Contains(got, "error[lib.tova:1:2]: boom") {
		t.Errorf("file override ignored: %s", got)
	}
}

func TestMerge(t *testing.T) {
	a := New()
	a.Errorf(1, 1, "from a")
	b := New()
	b.Warningf(2, 2, "from b")

	a.Merge(b)
	a.Merge(nil)
	if a.Count() != 2 {
		t.Errorf("merged count = %d", a.Count())
	}
	if a.All()[1].Message != "from b" {
		t.Errorf("merge order wrong: %v", a.All())
	}
}

func TestClear(t *testing.T) {
	d := New()
	d.Errorf(1, 1, "boom")
	d.Clear()
	if d.Count() != 0 || d.HasErrors() {
		t.Errorf("clear left %d items", d.Count())
	}
}

func TestSeverityString(t *testing.T) {
	cases := []struct {
		sev  Severity
		want string
	}{
		{Error, "error"},
		{Warning, "warning"},
		{Info, "info"},
		{Severity(42), "unknown"},
	}
	for _, c := range cases {
		if got := c.sev.String(); got != c.want {
			t.Errorf("Severity(%d).String() = %q, want %q", c.sev, got, c.want)
		}
	}
}
