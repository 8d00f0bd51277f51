package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCompileCleanProgram(t *testing.T) {
	res := Compile(`
fn double(x: Int) -> Int {
    return x * 2
}

fn main() {
    print(double(21))
}
`, "main.tova")
	if res.Diagnostics.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", res.Diagnostics.Format("main.tova"))
	}
	if res.Output == nil || res.Output.Shared == "" {
		t.Fatal("expected shared output")
	}
	if !strings.Contains(res.Output.Shared, "function double(x)") {
		t.Errorf("missing compiled function:\n%s", res.Output.Shared)
	}
}

func TestCompileParseError(t *testing.T) {
	res := Compile(`fn broken( {`, "main.tova")
	if !res.Diagnostics.HasErrors() {
		t.Fatal("expected a parse error")
	}
	if res.Output != nil {
		t.Error("no output on parse failure")
	}
	if res.Program != nil {
		t.Error("no program on parse failure")
	}
}

func TestCompileAnalysisErrorSkipsCodegen(t *testing.T) {
	res := Compile(`
fn f() {
    print(missing_name)
}
`, "main.tova")
	if !res.Diagnostics.HasErrors() {
		t.Fatal("expected an analysis error")
	}
	if res.Output != nil {
		t.Error("no output when analysis fails")
	}
	if res.Program == nil {
		t.Error("program should survive analysis failure")
	}
}

func TestCompileCarriesLintWarnings(t *testing.T) {
	res := Compile(`
fn badName() {
    return 1
}
`, "main.tova")
	if res.Diagnostics.HasErrors() {
		t.Fatalf("lint findings are warnings, not errors:\n%s", res.Diagnostics.Format("main.tova"))
	}
	if res.Diagnostics.WarningCount() == 0 {
		t.Error("expected a naming warning")
	}
	if res.Output == nil {
		t.Error("warnings must not block codegen")
	}
}

func TestCheckIsTolerant(t *testing.T) {
	diags := Check(`
fn f() {
    x = 1
    x = 2
    print(first_missing)
    print(second_missing)
}
`, "main.tova")
	if diags.ErrorCount() < 3 {
		t.Errorf("check should collect every error, got %d:\n%s",
			diags.ErrorCount(), diags.Format("main.tova"))
	}
}

func TestLintIgnoresAnalysisErrors(t *testing.T) {
	diags, err := Lint(`
fn f() {
    print(missing_name)
}
`, "main.tova")
	if err != nil {
		t.Fatalf("lint failed: %v", err)
	}
	if diags.HasErrors() {
		t.Errorf("lint should not report analysis errors:\n%s", diags.Format("main.tova"))
	}
}

func TestBuildWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app.tova")
	source := `
shared {
    fn greeting() {
        return "hello"
    }
}

server {
    fn greet() {
        return greeting()
    }
}

cli {
    fn run() {
        print(greeting())
    }
}

deploy {
    provider: "vercel"
}
`
	if err := os.WriteFile(src, []byte(source), 0644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "dist")
	res, err := Build(src, out)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if res.Output == nil {
		t.Fatal("missing output")
	}

	for _, name := range []string{"app.shared.js", "app.server.js", "app.cli.js", "app.deploy.json"} {
		data, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("artifact %s is empty", name)
		}
	}

	deploy, err := os.ReadFile(filepath.Join(out, "app.deploy.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(deploy), `"provider": "vercel"`) {
		t.Errorf("deploy config wrong:\n%s", deploy)
	}

	if _, err := os.Stat(filepath.Join(out, "app.client.js")); !os.IsNotExist(err) {
		t.Errorf("client artifact should not exist for this program")
	}
}

func TestBuildFailsOnErrors(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.tova")
	if err := os.WriteFile(src, []byte("fn f() {\n    print(missing)\n}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Build(src, dir)
	if err == nil {
		t.Fatal("expected build failure")
	}
	if !strings.Contains(err.Error(), "compilation failed") {
		t.Errorf("wrong error: %v", err)
	}
}
