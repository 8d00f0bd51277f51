// Package diagnostic collects compiler errors and warnings with positions,
// severities, and optional hints, and renders them for terminal output.
package diagnostic

import (
	"fmt"
	"strings"
)

// Severity orders diagnostics from fatal to informational
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

var severityNames = map[Severity]string{
	Error:   "error",
	Warning: "warning",
	Info:    "info",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "unknown"
}

// Diagnostic is one reported problem, positioned in the source
type Diagnostic struct {
	Severity Severity
	Message  string
	Line     int
	Column   int
	File     string // source label; overrides the filename passed to Format
	Code     string // stable identifier (e.g. "non-exhaustive-match")
	Hint     string // suggestion printed under the message
}

// render writes the diagnostic in its display form, using fallbackFile when
// the diagnostic carries no file of its own
func (item Diagnostic) render(sb *strings.Builder, fallbackFile string) {
	file := item.File
	if file == "" {
		file = fallbackFile
	}
	fmt.Fprintf(sb, "%s[%s:%d:%d]: %s", item.Severity, file, item.Line, item.Column, item.Message)
	if item.Hint != "" {
		fmt.Fprintf(sb, "\n  hint: %s", item.Hint)
	}
}

// Diagnostics accumulates problems across compiler passes. Order of
// insertion is preserved.
type Diagnostics struct {
	items []Diagnostic
}

// New creates an empty collection
func New() *Diagnostics {
	return &Diagnostics{}
}

// Add appends a fully-formed diagnostic
func (d *Diagnostics) Add(item Diagnostic) {
	d.items = append(d.items, item)
}

// Errorf records an error at a position
func (d *Diagnostics) Errorf(line, col int, format string, args ...interface{}) {
	d.Add(Diagnostic{Severity: Error, Line: line, Column: col, Message: fmt.Sprintf(format, args...)})
}

// Warningf records a warning at a position
func (d *Diagnostics) Warningf(line, col int, format string, args ...interface{}) {
	d.Add(Diagnostic{Severity: Warning, Line: line, Column: col, Message: fmt.Sprintf(format, args...)})
}

// ErrorWithHint records an error carrying a suggestion
func (d *Diagnostics) ErrorWithHint(line, col int, msg, hint string) {
	d.Add(Diagnostic{Severity: Error, Line: line, Column: col, Message: msg, Hint: hint})
}

// WarningWithHint records a warning carrying a suggestion
func (d *Diagnostics) WarningWithHint(line, col int, msg, hint string) {
	d.Add(Diagnostic{Severity: Warning, Line: line, Column: col, Message: msg, Hint: hint})
}

// HasErrors reports whether any error-level diagnostic was recorded
func (d *Diagnostics) HasErrors() bool {
	return d.ErrorCount() > 0
}

func (d *Diagnostics) filter(sev Severity) []Diagnostic {
	out := make([]Diagnostic, 0)
	for _, item := range d.items {
		if item.Severity == sev {
			out = append(out, item)
		}
	}
	return out
}

// Errors returns the error-level diagnostics in insertion order
func (d *Diagnostics) Errors() []Diagnostic {
	return d.filter(Error)
}

// Warnings returns the warning-level diagnostics in insertion order
func (d *Diagnostics) Warnings() []Diagnostic {
	return d.filter(Warning)
}

// All returns every diagnostic in insertion order
func (d *Diagnostics) All() []Diagnostic {
	return d.items
}

// Count returns how many diagnostics were recorded
func (d *Diagnostics) Count() int {
	return len(d.items)
}

// ErrorCount returns how many are errors
func (d *Diagnostics) ErrorCount() int {
	return len(d.filter(Error))
}

// WarningCount returns how many are warnings
func (d *Diagnostics) WarningCount() int {
	return len(d.filter(Warning))
}

// Merge appends every diagnostic from other; a nil other is a no-op
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other != nil {
		d.items = append(d.items, other.items...)
	}
}

// Format renders the collection one diagnostic per line, hints indented
// below their message:
//
//	error[filename:3:10]: undeclared variable 'x'
//	  hint: did you mean 'y'?
//	warning[filename:5:1]: unused variable 'z'
//
// filename labels diagnostics that carry no File of their own.
func (d *Diagnostics) Format(filename string) string {
	var sb strings.Builder
	for i, item := range d.items {
		if i > 0 {
			sb.WriteString("\n")
		}
		item.render(&sb, filename)
	}
	return sb.String()
}

// Clear drops every recorded diagnostic
func (d *Diagnostics) Clear() {
	d.items = nil
}
