package codegen

import (
	"fmt"
	"strings"

	"github.com/tova-lang/tova/internal/ast"
	"github.com/tova-lang/tova/internal/lexer"
)

func (g *generator) expr(e ast.Expression) string {
	switch ex := e.(type) {
	case *ast.IntLit:
		return ex.Value
	case *ast.FloatLit:
		return ex.Value
	case *ast.StringLit:
		return g.stringLit(ex)
	case *ast.BoolLit:
		if ex.Value {
			return "true"
		}
		return "false"
	case *ast.NilLit:
		return "null"
	case *ast.Identifier:
		if kind, ok := g.lookup(ex.Name); ok && kind == "signal" {
			return ex.Name + ".value"
		}
		if ex.Name == "None" {
			if _, declared := g.lookup(ex.Name); !declared {
				g.need("result")
			}
		}
		return ex.Name
	case *ast.BinaryExpr:
		return g.binary(ex)
	case *ast.UnaryExpr:
		return fmt.Sprintf("(%s%s)", unaryOp(ex.Op), g.expr(ex.Operand))
	case *ast.RangeExpr:
		g.need("range")
		return fmt.Sprintf("__range(%s, %s, %v)", g.expr(ex.Start), g.expr(ex.End), ex.Inclusive)
	case *ast.CallExpr:
		return g.call(ex)
	case *ast.FieldAccessExpr:
		return g.expr(ex.Object) + "." + ex.Field
	case *ast.IndexExpr:
		return fmt.Sprintf("%s[%s]", g.expr(ex.Object), g.expr(ex.Index))
	case *ast.SliceExpr:
		return g.slice(ex)
	case *ast.ArrayLit:
		parts := make([]string, len(ex.Elements))
		for i, el := range ex.Elements {
			parts[i] = g.expr(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.TupleLit:
		parts := make([]string, len(ex.Elements))
		for i, el := range ex.Elements {
			parts[i] = g.expr(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.RecordLit:
		parts := make([]string, len(ex.Keys))
		for i, key := range ex.Keys {
			parts[i] = fmt.Sprintf("%s: %s", recordKey(key), g.expr(ex.Values[i]))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *ast.LambdaExpr:
		return g.lambdaExpr(ex)
	case *ast.AwaitExpr:
		return fmt.Sprintf("(await %s)", g.expr(ex.Expr))
	case *ast.SpawnExpr:
		return g.expr(ex.Call)
	case *ast.PropagateExpr:
		g.need("propagate")
		return fmt.Sprintf("__propagate(%s)", g.expr(ex.Expr))
	case *ast.IfExpr:
		return g.ifExpr(ex)
	case *ast.MatchExpr:
		return g.matchExpr(ex)
	case *ast.JSXElement:
		return g.jsxElement(ex)
	case *ast.JSXIf:
		return g.jsxIf(ex, false)
	case *ast.JSXFor:
		return g.jsxFor(ex, false)
	default:
		codegenError("unhandled expression %T", e)
		return ""
	}
}

func (g *generator) binary(ex *ast.BinaryExpr) string {
	if ex.Op == lexer.PIPE_OP {
		return g.pipe(ex)
	}
	if ex.Op == lexer.STAR {
		// string repetition lowers to String.prototype.repeat
		if lit, ok := ex.Left.(*ast.StringLit); ok {
			return fmt.Sprintf("%s.repeat(%s)", g.stringLit(lit), g.expr(ex.Right))
		}
	}
	return fmt.Sprintf("(%s %s %s)", g.expr(ex.Left), binaryOp(ex.Op), g.expr(ex.Right))
}

// pipe lowers `value |> f` to f(value) and `value |> f(a)` to f(value, a)
func (g *generator) pipe(ex *ast.BinaryExpr) string {
	value := g.expr(ex.Left)
	if call, ok := ex.Right.(*ast.CallExpr); ok {
		args := make([]string, 0, len(call.Args)+1)
		args = append(args, value)
		for _, arg := range call.Args {
			args = append(args, g.expr(arg))
		}
		return fmt.Sprintf("%s(%s)", g.callee(call.Callee), strings.Join(args, ", "))
	}
	return fmt.Sprintf("%s(%s)", g.expr(ex.Right), value)
}

func (g *generator) call(ex *ast.CallExpr) string {
	args := make([]string, len(ex.Args))
	for i, arg := range ex.Args {
		args[i] = g.expr(arg)
	}
	joined := strings.Join(args, ", ")

	if id, ok := ex.Callee.(*ast.Identifier); ok {
		if _, declared := g.lookup(id.Name); !declared {
			if lowered, ok := g.builtinCall(id.Name, args); ok {
				return lowered
			}
		}
	}
	return fmt.Sprintf("%s(%s)", g.callee(ex.Callee), joined)
}

// callee renders a call target without signal unwrapping getting in the way
func (g *generator) callee(e ast.Expression) string {
	return g.expr(e)
}

// builtinCall lowers the built-in functions; ok is false for everything else
func (g *generator) builtinCall(name string, args []string) (string, bool) {
	joined := strings.Join(args, ", ")
	switch name {
	case "print":
		return "console.log(" + joined + ")", true
	case "len":
		g.need("len")
		return "__len(" + joined + ")", true
	case "toInt":
		return "Math.trunc(Number(" + joined + "))", true
	case "toFloat":
		return "Number(" + joined + ")", true
	case "toString":
		return "String(" + joined + ")", true
	case "sleep":
		g.need("sleep")
		return "__sleep(" + joined + ")", true
	case "Channel":
		g.need("channel")
		return "Channel()", true
	case "Ok", "Err", "Some":
		g.need("result")
		return name + "(" + joined + ")", true
	case "mount":
		g.need("mount")
		return "__mount(" + joined + ")", true
	}
	return "", false
}

func (g *generator) slice(ex *ast.SliceExpr) string {
	if ex.Step != nil {
		g.need("slice")
		return fmt.Sprintf("__slice(%s, %s, %s, %s)",
			g.expr(ex.Object), orNull(g, ex.Start), orNull(g, ex.Stop), g.expr(ex.Step))
	}
	start := "0"
	if ex.Start != nil {
		start = g.expr(ex.Start)
	}
	if ex.Stop == nil {
		return fmt.Sprintf("%s.slice(%s)", g.expr(ex.Object), start)
	}
	return fmt.Sprintf("%s.slice(%s, %s)", g.expr(ex.Object), start, g.expr(ex.Stop))
}

func orNull(g *generator, e ast.Expression) string {
	if e == nil {
		return "null"
	}
	return g.expr(e)
}

func (g *generator) lambdaExpr(ex *ast.LambdaExpr) string {
	params := make([]string, len(ex.Params))
	for i, p := range ex.Params {
		params[i] = p.Name
	}
	prefix := ""
	if ex.IsAsync {
		prefix = "async "
	}
	head := fmt.Sprintf("%s(%s) =>", prefix, strings.Join(params, ", "))

	g.pushScope()
	for _, p := range ex.Params {
		g.declare(p.Name, "const")
	}
	defer g.popScope()

	if ex.Expr != nil {
		return fmt.Sprintf("(%s %s)", head, g.expr(ex.Expr))
	}
	body := g.capture(func() {
		g.genFnBody(ex.Body)
	})
	return fmt.Sprintf("(%s {\n%s%s})", head, body, g.indentStr())
}

func (g *generator) ifExpr(ex *ast.IfExpr) string {
	alt := "null"
	if ex.Else != nil {
		alt = g.expr(ex.Else)
	}
	return fmt.Sprintf("(%s ? %s : %s)", g.expr(ex.Condition), g.expr(ex.Then), alt)
}

// matchExpr lowers a match to an immediately invoked if/else chain over the
// scrutinee
func (g *generator) matchExpr(ex *ast.MatchExpr) string {
	var sb strings.Builder
	sb.WriteString("(() => {\n")
	indent := g.indentStr() + "  "
	sb.WriteString(indent)
	sb.WriteString("const __scrutinee = ")
	sb.WriteString(g.expr(ex.Scrutinee))
	sb.WriteString(";\n")

	for _, arm := range ex.Arms {
		cond, binds := g.patternTest(arm.Pattern, "__scrutinee")
		sb.WriteString(indent)
		sb.WriteString("if (")
		sb.WriteString(cond)
		sb.WriteString(") {\n")

		g.pushScope()
		for _, bind := range binds {
			sb.WriteString(indent)
			sb.WriteString("  ")
			sb.WriteString(bind)
			sb.WriteString("\n")
		}

		inner := indent + "  "
		if arm.Guard != nil {
			sb.WriteString(inner)
			sb.WriteString("if (")
			sb.WriteString(g.expr(arm.Guard))
			sb.WriteString(") {\n")
			inner += "  "
		}

		if arm.Body != nil {
			sb.WriteString(inner)
			sb.WriteString("return ")
			sb.WriteString(g.expr(arm.Body))
			sb.WriteString(";\n")
		} else {
			body := g.captureAt(len(inner)/2, func() {
				g.stmts(arm.Block.Statements)
			})
			sb.WriteString(body)
			sb.WriteString(inner)
			sb.WriteString("return null;\n")
		}

		if arm.Guard != nil {
			sb.WriteString(indent)
			sb.WriteString("  }\n")
		}
		g.popScope()

		sb.WriteString(indent)
		sb.WriteString("}\n")
	}

	sb.WriteString(indent)
	sb.WriteString("throw new Error(\"unreachable match\");\n")
	sb.WriteString(g.indentStr())
	sb.WriteString("})()")
	return sb.String()
}

// patternTest builds the condition and binding statements for one pattern
// against a subject expression. Bindings are declared in the current scope.
func (g *generator) patternTest(pat *ast.Pattern, subject string) (string, []string) {
	switch pat.Kind {
	case ast.PatternWildcard:
		return "true", nil
	case ast.PatternBinding:
		g.declare(pat.Binding, "const")
		return "true", []string{fmt.Sprintf("const %s = %s;", pat.Binding, subject)}
	case ast.PatternLiteral:
		return fmt.Sprintf("%s === %s", subject, g.expr(pat.Literal)), nil
	case ast.PatternRange:
		upper := "<"
		if pat.Inclusive {
			upper = "<="
		}
		return fmt.Sprintf("%s >= %s && %s %s %s",
			subject, g.expr(pat.Start), subject, upper, g.expr(pat.End)), nil
	case ast.PatternVariant:
		cond := fmt.Sprintf("%s._tag === %q", subject, pat.Variant)
		var binds []string
		fields := g.variantFields[pat.Variant]
		for i, sub := range pat.Subpatterns {
			if i >= len(fields) {
				break
			}
			fieldSubject := subject + "." + fields[i]
			subCond, subBinds := g.patternTest(sub, fieldSubject)
			if subCond != "true" {
				cond += " && " + subCond
			}
			binds = append(binds, subBinds...)
		}
		return cond, binds
	}
	codegenError("unhandled pattern kind %d", pat.Kind)
	return "", nil
}

// capture redirects emission into a fresh buffer and returns what fn wrote
func (g *generator) capture(fn func()) string {
	return g.captureAt(g.indent+1, fn)
}

// captureAt is capture at an explicit indentation level
func (g *generator) captureAt(indent int, fn func()) string {
	saved := g.sb
	savedIndent := g.indent
	g.sb = strings.Builder{}
	g.indent = indent
	fn()
	out := g.sb.String()
	g.sb = saved
	g.indent = savedIndent
	return out
}

func (g *generator) stringLit(lit *ast.StringLit) string {
	if lit.Parts == nil {
		return "\"" + escapeJSString(lit.Value) + "\""
	}
	var sb strings.Builder
	sb.WriteByte('`')
	for _, part := range lit.Parts {
		if part.Expr != nil {
			sb.WriteString("${")
			sb.WriteString(g.expr(part.Expr))
			sb.WriteByte('}')
		} else {
			sb.WriteString(escapeTemplate(part.Text))
		}
	}
	sb.WriteByte('`')
	return sb.String()
}

func binaryOp(op lexer.TokenType) string {
	switch op {
	case lexer.PLUS:
		return "+"
	case lexer.MINUS:
		return "-"
	case lexer.STAR:
		return "*"
	case lexer.SLASH:
		return "/"
	case lexer.PERCENT:
		return "%"
	case lexer.POWER:
		return "**"
	case lexer.EQ:
		return "==="
	case lexer.NEQ:
		return "!=="
	case lexer.LT:
		return "<"
	case lexer.GT:
		return ">"
	case lexer.LEQ:
		return "<="
	case lexer.GEQ:
		return ">="
	case lexer.AMP_AMP:
		return "&&"
	case lexer.PIPE_PIPE:
		return "||"
	case lexer.COALESCE:
		return "??"
	default:
		codegenError("unhandled binary operator %s", op)
		return ""
	}
}

func unaryOp(op lexer.TokenType) string {
	switch op {
	case lexer.MINUS:
		return "-"
	case lexer.BANG:
		return "!"
	default:
		codegenError("unhandled unary operator %s", op)
		return ""
	}
}

// recordKey quotes a record key when it is not a valid JS identifier
func recordKey(key string) string {
	for i, r := range key {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return "\"" + escapeJSString(key) + "\""
	}
	return key
}

func escapeJSString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

func escapeTemplate(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "`", "\\`")
	s = strings.ReplaceAll(s, "${", "\\${")
	return s
}
