package linter

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tova-lang/tova/internal/ast"
	"github.com/tova-lang/tova/internal/diagnostic"
)

// Linter performs style checks on an AST program. It reports warnings
// (never errors) using the diagnostic system.
type Linter struct {
	diag *diagnostic.Diagnostics
}

// Lint runs all lint rules on the given program and returns diagnostics.
func Lint(prog *ast.Program) *diagnostic.Diagnostics {
	l := &Linter{diag: diagnostic.New()}

	l.lintStatements(prog.Decls)
	for _, region := range prog.Regions {
		if region.Body != nil {
			l.lintStatements(region.Body.Statements)
		}
	}
	return l.diag
}

func (l *Linter) lintStatements(stmts []ast.Statement) {
	for _, s := range stmts {
		l.lintStatement(s)
	}
}

func (l *Linter) lintStatement(s ast.Statement) {
	switch stmt := s.(type) {
	case *ast.FnDecl:
		l.checkFunctionNaming(stmt.Name, stmt.Line, stmt.Column)
		for _, p := range stmt.Params {
			l.checkBindingNaming("parameter", p.Name, p.Line, p.Column)
		}
		l.checkEmptyBody(stmt.Name, stmt.Body, stmt.Line, stmt.Column)
		if stmt.Body != nil {
			l.lintStatements(stmt.Body.Statements)
		}
	case *ast.TypeDecl:
		l.checkTypeNaming(stmt.Name, stmt.Line, stmt.Column)
		for _, v := range stmt.Variants {
			if !isPascalCase(v.Name) {
				l.diag.Warningf(v.Line, v.Column,
					"variant '%s' in type '%s' should use PascalCase naming", v.Name, stmt.Name)
			}
			for _, f := range v.Fields {
				l.checkBindingNaming("field", f.Name, f.Line, f.Column)
			}
		}
	case *ast.BindingStmt:
		l.checkBindingNaming("binding", stmt.Name, stmt.Line, stmt.Column)
	case *ast.IfStmt:
		l.lintStatements(stmt.Then.Statements)
		if stmt.Else != nil {
			l.lintStatement(stmt.Else)
		}
	case *ast.Block:
		l.lintStatements(stmt.Statements)
	case *ast.GuardStmt:
		l.lintStatements(stmt.Else.Statements)
	case *ast.ForInStmt:
		l.checkBindingNaming("binding", stmt.Variable, stmt.Line, stmt.Column)
		l.lintStatements(stmt.Body.Statements)
		if stmt.Else != nil {
			l.lintStatements(stmt.Else.Statements)
		}
	case *ast.WhileStmt:
		l.lintStatements(stmt.Body.Statements)
	case *ast.TryStmt:
		l.lintStatements(stmt.Body.Statements)
		if stmt.Catch != nil {
			l.lintStatements(stmt.Catch.Statements)
		}
		if stmt.Finally != nil {
			l.lintStatements(stmt.Finally.Statements)
		}
	case *ast.ConcurrentStmt:
		l.lintStatements(stmt.Body.Statements)
	case *ast.SelectStmt:
		for _, c := range stmt.Cases {
			l.lintStatements(c.Body.Statements)
		}
	}
}

// checkEmptyBody warns if a function body has no statements.
func (l *Linter) checkEmptyBody(name string, body *ast.Block, line, col int) {
	if body != nil && len(body.Statements) == 0 {
		l.diag.Warningf(line, col, "function '%s' has an empty body", name)
	}
}

// checkFunctionNaming warns if a function name is not snake_case. The same
// names bindings may keep apply here: single letters, underscore prefixes,
// and ALL_CAPS.
func (l *Linter) checkFunctionNaming(name string, line, col int) {
	if len(name) <= 1 || strings.HasPrefix(name, "_") || isAllCaps(name) {
		return
	}
	if !isSnakeCase(name) {
		l.diag.WarningWithHint(line, col,
			fmt.Sprintf("function '%s' should use snake_case naming", name),
			fmt.Sprintf("rename it to '%s'", toSnakeCase(name)))
	}
}

// checkTypeNaming warns if a type name is not PascalCase.
func (l *Linter) checkTypeNaming(name string, line, col int) {
	if !isPascalCase(name) {
		l.diag.Warningf(line, col,
			"type '%s' should use PascalCase naming", name)
	}
}

// checkBindingNaming warns about non-snake_case bindings. Single-letter
// names, underscore-prefixed names, and ALL_CAPS constants are exempt.
func (l *Linter) checkBindingNaming(kind, name string, line, col int) {
	if len(name) <= 1 || strings.HasPrefix(name, "_") || isAllCaps(name) {
		return
	}
	if !isSnakeCase(name) {
		l.diag.WarningWithHint(line, col,
			fmt.Sprintf("%s '%s' should use snake_case naming", kind, name),
			fmt.Sprintf("rename it to '%s'", toSnakeCase(name)))
	}
}

// isSnakeCase returns true if the name follows snake_case conventions:
// lowercase letters, digits, and underscores only, not starting with a digit.
func isSnakeCase(name string) bool {
	if len(name) == 0 {
		return false
	}
	for _, r := range name {
		if !unicode.IsLower(r) && r != '_' && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isPascalCase returns true if the name starts with an uppercase letter
// and contains no underscores.
func isPascalCase(name string) bool {
	if len(name) == 0 {
		return false
	}
	runes := []rune(name)
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	return !strings.ContainsRune(name, '_')
}

// isAllCaps returns true for SCREAMING_SNAKE constant names.
func isAllCaps(name string) bool {
	hasLetter := false
	for _, r := range name {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// toSnakeCase converts CamelCase or mixedCase to snake_case.
func toSnakeCase(name string) string {
	var sb strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 && !strings.HasSuffix(sb.String(), "_") {
				sb.WriteRune('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
