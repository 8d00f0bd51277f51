package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/tova-lang/tova/internal/compiler"
	"github.com/tova-lang/tova/internal/diagnostic"
)

const usage = `tovac - The Tova language compiler

Usage:
  tovac build [--out-dir <dir>] <file.tova>    Compile to JavaScript, one file per target
  tovac check <file.tova>                      Parse and type-check only
  tovac lint <file.tova>                       Run lint checks for style issues

Options:
  --out-dir <dir>    Directory for generated artifacts (default: current directory)

Targets:
  Code inside client/server/cli/edge regions lands in its own artifact;
  top-level and shared declarations are copied into every target that uses
  them. deploy and security regions become <stem>.deploy.json.

Examples:
  tovac build app.tova                  Emit app.client.js, app.server.js, ...
  tovac build --out-dir dist app.tova   Emit artifacts under dist/
  tovac check app.tova                  Report errors and warnings without building
  tovac lint app.tova                   Report naming and style warnings
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "build":
		handleBuild(os.Args[2:])
	case "check":
		handleCheck(os.Args[2:])
	case "lint":
		handleLint(os.Args[2:])
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func handleBuild(args []string) {
	outDir := "."
	var filePath string

	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "--out-dir", "-o":
			i++
			if i >= len(args) {
				fmt.Fprintf(os.Stderr, "Error: %s requires a directory\n", arg)
				os.Exit(1)
			}
			outDir = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				fmt.Fprintf(os.Stderr, "Unknown option: %s\n", arg)
				os.Exit(1)
			}
			filePath = arg
		}
	}

	if filePath == "" {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		os.Exit(1)
	}

	res, err := compiler.Build(filePath, outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	printWarnings(filePath, res.Diagnostics)

	var targets []string
	for name := range res.Output.Targets() {
		targets = append(targets, name)
	}
	fmt.Printf("Built %s (%s)\n", filePath, strings.Join(targets, ", "))
}

func handleCheck(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		os.Exit(1)
	}

	filePath := args[0]
	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		os.Exit(1)
	}

	diags := compiler.Check(string(source), filePath)
	if diags.HasErrors() {
		fmt.Fprintf(os.Stderr, "%s", diags.Format(filePath))
		os.Exit(1)
	}
	printWarnings(filePath, diags)
	fmt.Println("No errors found.")
}

func handleLint(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		os.Exit(1)
	}

	filePath := args[0]
	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %s\n", err)
		os.Exit(1)
	}

	diags, err := compiler.Lint(string(source), filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	if diags.Count() == 0 {
		fmt.Println("No lint warnings.")
		return
	}
	fmt.Print(diags.Format(filePath))
	fmt.Println()
	fmt.Printf("%d warning(s) found.\n", diags.Count())
}

func printWarnings(filePath string, diags *diagnostic.Diagnostics) {
	for _, d := range diags.Warnings() {
		fmt.Printf("%s:%d:%d: warning: %s\n", filePath, d.Line, d.Column, d.Message)
	}
}
