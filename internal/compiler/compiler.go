package compiler

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tova-lang/tova/internal/analyzer"
	"github.com/tova-lang/tova/internal/ast"
	"github.com/tova-lang/tova/internal/codegen"
	"github.com/tova-lang/tova/internal/diagnostic"
	"github.com/tova-lang/tova/internal/linter"
	"github.com/tova-lang/tova/internal/parser"
)

// Result holds the output of a compilation
type Result struct {
	Program     *ast.Program
	Diagnostics *diagnostic.Diagnostics
	Output      *codegen.Output
}

// Compile runs the full pipeline: parse -> analyze -> lint -> codegen.
// Codegen only runs on an error-free program; lint warnings ride along in
// the diagnostics either way.
func Compile(source, filename string) *Result {
	res := &Result{Diagnostics: diagnostic.New()}

	p := parser.NewWithFile(source, filename)
	prog, err := p.Parse()
	if err != nil {
		recordParseError(res.Diagnostics, err)
		return res
	}
	res.Program = prog

	analysis, err := analyzer.New(filename, false).Analyze(prog)
	if analysis != nil {
		res.Diagnostics.Merge(analysis.Diags)
	}
	res.Diagnostics.Merge(linter.Lint(prog))
	if err != nil {
		return res
	}

	res.Output = codegen.Generate(prog)
	return res
}

// Check runs parse + analyze + lint only (no codegen)
func Check(source, filename string) *diagnostic.Diagnostics {
	diags := diagnostic.New()

	p := parser.NewWithFile(source, filename)
	prog, err := p.Parse()
	if err != nil {
		recordParseError(diags, err)
		return diags
	}

	analysis, _ := analyzer.New(filename, true).Analyze(prog)
	if analysis != nil {
		diags.Merge(analysis.Diags)
	}
	diags.Merge(linter.Lint(prog))
	return diags
}

// Lint runs parse + lint only; analysis errors are left to Check
func Lint(source, filename string) (*diagnostic.Diagnostics, error) {
	p := parser.NewWithFile(source, filename)
	prog, err := p.Parse()
	if err != nil {
		return nil, err
	}
	return linter.Lint(prog), nil
}

// Build compiles a source file and writes one artifact per non-empty
// target into outDir: <stem>.<target>.js for code targets and
// <stem>.deploy.json for the deploy configuration.
func Build(sourcePath, outDir string) (*Result, error) {
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, err
	}

	res := Compile(string(source), sourcePath)
	if res.Diagnostics.HasErrors() {
		return res, fmt.Errorf("compilation failed:\n%s", res.Diagnostics.Format(sourcePath))
	}

	if outDir != "" && outDir != "." {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return res, err
		}
	}

	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	write := func(suffix, code string) error {
		return os.WriteFile(filepath.Join(outDir, stem+"."+suffix), []byte(code), 0644)
	}

	if res.Output.Shared != "" {
		if err := write("shared.js", res.Output.Shared); err != nil {
			return res, err
		}
	}
	if res.Output.Client != "" {
		if err := write("client.js", res.Output.Client); err != nil {
			return res, err
		}
	}
	if res.Output.Server != "" {
		if err := write("server.js", res.Output.Server); err != nil {
			return res, err
		}
	}
	if res.Output.CLI != "" {
		if err := write("cli.js", res.Output.CLI); err != nil {
			return res, err
		}
	}
	for name, code := range res.Output.Edges {
		file := "edge.js"
		if name != "" {
			file = "edge-" + name + ".js"
		}
		if err := write(file, code); err != nil {
			return res, err
		}
	}
	if len(res.Output.Deploy) > 0 {
		data, err := json.MarshalIndent(res.Output.Deploy, "", "  ")
		if err != nil {
			return res, err
		}
		if err := write("deploy.json", string(data)+"\n"); err != nil {
			return res, err
		}
	}
	return res, nil
}

// recordParseError folds a parse failure into a diagnostics collection
func recordParseError(diags *diagnostic.Diagnostics, err error) {
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		if perr.Hint != "" {
			diags.ErrorWithHint(perr.Line, perr.Column, perr.Message, perr.Hint)
		} else {
			diags.Errorf(perr.Line, perr.Column, "%s", perr.Message)
		}
		return
	}
	diags.Errorf(0, 0, "%s", err)
}
