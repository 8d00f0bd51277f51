package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tova-lang/tova/internal/ast"
)

// generator emits JavaScript for one target
type generator struct {
	sb     strings.Builder
	indent int
	target string
	client bool

	helpers       map[string]bool
	scopes        []map[string]string // binding name -> "const" | "let" | "signal"
	serverFns     map[string]bool
	variantFields map[string][]string // variant name -> field names, for destructuring
	styles        []string
	tmpCount      int
}

func newGenerator(target string) *generator {
	return &generator{
		target:  target,
		client:  target == "client",
		helpers: make(map[string]bool),
		scopes:  []map[string]string{make(map[string]string)},
	}
}

func (g *generator) emit(s string) {
	g.sb.WriteString(s)
}

func (g *generator) emitf(format string, args ...interface{}) {
	g.sb.WriteString(fmt.Sprintf(format, args...))
}

func (g *generator) emitLinef(format string, args ...interface{}) {
	g.sb.WriteString(g.indentStr())
	g.sb.WriteString(fmt.Sprintf(format, args...))
	g.sb.WriteString("\n")
}

func (g *generator) emitLine(s string) {
	if s == "" {
		g.sb.WriteString("\n")
	} else {
		g.sb.WriteString(g.indentStr())
		g.sb.WriteString(s)
		g.sb.WriteString("\n")
	}
}

func (g *generator) incIndent() { g.indent++ }
func (g *generator) decIndent() { g.indent-- }

func (g *generator) indentStr() string {
	return strings.Repeat("  ", g.indent)
}

// need marks a runtime helper (and its dependencies) for emission
func (g *generator) need(name string) {
	if g.helpers[name] {
		return
	}
	frag, ok := runtimeFragments[name]
	if !ok {
		codegenError("unknown runtime helper %q", name)
	}
	g.helpers[name] = true
	for _, dep := range frag.deps {
		g.need(dep)
	}
}

func (g *generator) tmp(prefix string) string {
	g.tmpCount++
	return fmt.Sprintf("__%s%d", prefix, g.tmpCount)
}

// --- scope tracking (declaration vs reassignment) ---

func (g *generator) pushScope() {
	g.scopes = append(g.scopes, make(map[string]string))
}

func (g *generator) popScope() {
	g.scopes = g.scopes[:len(g.scopes)-1]
}

func (g *generator) declare(name, kind string) {
	g.scopes[len(g.scopes)-1][name] = kind
}

func (g *generator) lookup(name string) (string, bool) {
	for i := len(g.scopes) - 1; i >= 0; i-- {
		if kind, ok := g.scopes[i][name]; ok {
			return kind, true
		}
	}
	return "", false
}

// assemble prefixes the emitted body with the helper fragments it needs
func (g *generator) assemble() string {
	var out strings.Builder
	out.WriteString("// Code generated by tovac. DO NOT EDIT.\n")
	out.WriteString("// target: " + g.target + "\n\n")

	for _, name := range runtimeOrder {
		if !g.helpers[name] {
			continue
		}
		frag := runtimeFragments[name]
		code := frag.code
		if g.client && frag.clientJS != "" {
			code = frag.clientJS
		}
		out.WriteString(code)
		out.WriteString("\n")
	}

	if g.client && len(g.styles) > 0 {
		out.WriteString("{\n  const __style = document.createElement(\"style\");\n")
		out.WriteString("  __style.textContent = `" + escapeTemplate(strings.Join(g.styles, "\n")) + "`;\n")
		out.WriteString("  document.head.appendChild(__style);\n}\n\n")
	}

	out.WriteString(g.sb.String())
	return out.String()
}

// --- statements ---

func (g *generator) stmts(list []ast.Statement) {
	for _, s := range list {
		g.stmt(s)
	}
}

func (g *generator) stmt(s ast.Statement) {
	switch stmt := s.(type) {
	case *ast.FnDecl:
		g.genFnDecl(stmt)
	case *ast.TypeDecl:
		g.genTypeDecl(stmt)
	case *ast.BindingStmt:
		g.genBinding(stmt)
	case *ast.AssignStmt:
		g.emitLinef("%s = %s;", g.expr(stmt.Target), g.expr(stmt.Value))
	case *ast.ExprStmt:
		g.emitLinef("%s;", g.expr(stmt.Expr))
	case *ast.ReturnStmt:
		if stmt.Value != nil {
			g.emitLinef("return %s;", g.expr(stmt.Value))
		} else {
			g.emitLine("return;")
		}
	case *ast.BreakStmt:
		g.emitLine("break;")
	case *ast.ContinueStmt:
		g.emitLine("continue;")
	case *ast.IfStmt:
		g.genIfStmt(stmt, false)
	case *ast.Block:
		g.emitLine("{")
		g.incIndent()
		g.pushScope()
		g.stmts(stmt.Statements)
		g.popScope()
		g.decIndent()
		g.emitLine("}")
	case *ast.GuardStmt:
		g.emitLinef("if (!(%s)) {", g.expr(stmt.Condition))
		g.genBlockBody(stmt.Else)
		g.emitLine("}")
	case *ast.ForInStmt:
		g.genForIn(stmt)
	case *ast.WhileStmt:
		g.emitLinef("while (%s) {", g.expr(stmt.Condition))
		g.genBlockBody(stmt.Body)
		g.emitLine("}")
	case *ast.TryStmt:
		g.genTry(stmt)
	case *ast.ConcurrentStmt:
		g.genConcurrent(stmt)
	case *ast.SelectStmt:
		g.genSelect(stmt)
	case *ast.StyleStmt:
		g.styles = append(g.styles, stmt.CSS)
	default:
		codegenError("unhandled statement %T", s)
	}
}

// genBlockBody emits a block's statements indented, without braces
func (g *generator) genBlockBody(block *ast.Block) {
	g.incIndent()
	g.pushScope()
	g.stmts(block.Statements)
	g.popScope()
	g.decIndent()
}

func (g *generator) genFnDecl(fn *ast.FnDecl) {
	g.declare(fn.Name, "const")

	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Name
	}
	keyword := "function"
	if fn.IsAsync {
		keyword = "async function"
	}
	g.emitLinef("%s %s(%s) {", keyword, fn.Name, strings.Join(params, ", "))

	g.incIndent()
	g.pushScope()
	for _, p := range fn.Params {
		g.declare(p.Name, "const")
	}
	g.genFnBody(fn.Body)
	g.popScope()
	g.decIndent()
	g.emitLine("}")
	g.emitLine("")
}

// genFnBody emits a function body, wrapping it in the propagation handler
// when the body uses the '?' operator
func (g *generator) genFnBody(body *ast.Block) {
	if !blockPropagates(body) {
		g.stmts(body.Statements)
		return
	}
	g.need("propagate")
	g.emitLine("try {")
	g.incIndent()
	g.stmts(body.Statements)
	g.decIndent()
	g.emitLine("} catch (__err) {")
	g.emitLine("  if (__err && __err.__propagate) return __err.value;")
	g.emitLine("  throw __err;")
	g.emitLine("}")
}

func (g *generator) genTypeDecl(decl *ast.TypeDecl) {
	for _, v := range decl.Variants {
		g.declare(v.Name, "const")
		if len(v.Fields) == 0 {
			g.emitLinef("const %s = { _tag: %q };", v.Name, v.Name)
			continue
		}
		names := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			names[i] = f.Name
		}
		g.emitLinef("const %s = (%s) => ({ _tag: %q, %s });",
			v.Name, strings.Join(names, ", "), v.Name, strings.Join(names, ", "))
	}
	g.emitLine("")
}

func (g *generator) genBinding(stmt *ast.BindingStmt) {
	value := g.expr(stmt.Value)

	if kind, exists := g.lookup(stmt.Name); exists && !stmt.Mutable {
		if kind == "signal" {
			g.emitLinef("%s.value = %s;", stmt.Name, value)
		} else {
			g.emitLinef("%s = %s;", stmt.Name, value)
		}
		return
	}

	switch {
	case stmt.Mutable && g.client:
		g.need("signal")
		g.declare(stmt.Name, "signal")
		g.emitLinef("const %s = __signal(%s);", stmt.Name, value)
	case stmt.Mutable:
		g.declare(stmt.Name, "let")
		g.emitLinef("let %s = %s;", stmt.Name, value)
	default:
		g.declare(stmt.Name, "const")
		g.emitLinef("const %s = %s;", stmt.Name, value)
	}
}

func (g *generator) genIfStmt(stmt *ast.IfStmt, chained bool) {
	prefix := ""
	if chained {
		prefix = "} else "
	}
	g.emitLinef("%sif (%s) {", prefix, g.expr(stmt.Condition))
	g.genBlockBody(stmt.Then)

	switch alt := stmt.Else.(type) {
	case nil:
		g.emitLine("}")
	case *ast.IfStmt:
		g.genIfStmt(alt, true)
	case *ast.Block:
		g.emitLine("} else {")
		g.genBlockBody(alt)
		g.emitLine("}")
	}
}

func (g *generator) genForIn(stmt *ast.ForInStmt) {
	ran := ""
	if stmt.Else != nil {
		ran = g.tmp("ran")
		g.emitLinef("let %s = false;", ran)
	}

	if r, ok := stmt.Iterable.(*ast.RangeExpr); ok && stmt.Index == "" {
		cmp := "<"
		if r.Inclusive {
			cmp = "<="
		}
		g.emitLinef("for (let %s = %s; %s %s %s; %s++) {",
			stmt.Variable, g.expr(r.Start), stmt.Variable, cmp, g.expr(r.End), stmt.Variable)
	} else if stmt.Index != "" {
		g.emitLinef("for (const [%s, %s] of %s.entries()) {",
			stmt.Index, stmt.Variable, g.iterable(stmt.Iterable))
	} else {
		g.emitLinef("for (const %s of %s) {", stmt.Variable, g.iterable(stmt.Iterable))
	}

	g.incIndent()
	g.pushScope()
	g.declare(stmt.Variable, "const")
	if stmt.Index != "" {
		g.declare(stmt.Index, "const")
	}
	if ran != "" {
		g.emitLinef("%s = true;", ran)
	}
	g.stmts(stmt.Body.Statements)
	g.popScope()
	g.decIndent()
	g.emitLine("}")

	if stmt.Else != nil {
		g.emitLinef("if (!%s) {", ran)
		g.genBlockBody(stmt.Else)
		g.emitLine("}")
	}
}

// iterable renders a for-in source, materializing ranges
func (g *generator) iterable(e ast.Expression) string {
	if r, ok := e.(*ast.RangeExpr); ok {
		g.need("range")
		return fmt.Sprintf("__range(%s, %s, %v)", g.expr(r.Start), g.expr(r.End), r.Inclusive)
	}
	return g.expr(e)
}

func (g *generator) genTry(stmt *ast.TryStmt) {
	g.emitLine("try {")
	g.genBlockBody(stmt.Body)
	if stmt.Catch != nil {
		name := stmt.CatchName
		if name == "" {
			name = "__err"
		}
		g.emitLinef("} catch (%s) {", name)
		g.incIndent()
		g.pushScope()
		g.declare(name, "const")
		g.stmts(stmt.Catch.Statements)
		g.popScope()
		g.decIndent()
	}
	if stmt.Finally != nil {
		g.emitLine("} finally {")
		g.genBlockBody(stmt.Finally)
	}
	g.emitLine("}")
}

// --- target mains ---

func (g *generator) emitServerMain(stmts []ast.Statement) {
	var names []string
	for _, s := range stmts {
		if fn, ok := s.(*ast.FnDecl); ok {
			names = append(names, fn.Name)
		}
	}
	if len(names) == 0 {
		return
	}
	sort.Strings(names)
	g.need("serve")
	g.emitLinef("const __rpc_handlers = { %s };", strings.Join(names, ", "))
	g.emitLine("__serve(__rpc_handlers);")
}

func (g *generator) emitCLIMain(stmts []ast.Statement) {
	var names []string
	for _, s := range stmts {
		if fn, ok := s.(*ast.FnDecl); ok {
			names = append(names, fn.Name)
		}
	}
	if len(names) == 0 {
		return
	}
	g.emitLinef("const __commands = { %s };", strings.Join(names, ", "))
	g.emitLine("const __argv = process.argv.slice(2);")
	g.emitLine("const __cmd = __commands[__argv[0]];")
	g.emitLine("if (!__cmd) {")
	g.emitLine("  console.error(\"usage: <command> [args]\");")
	g.emitLine("  console.error(\"commands: \" + Object.keys(__commands).join(\", \"));")
	g.emitLine("  process.exit(1);")
	g.emitLine("}")
	g.emitLine("Promise.resolve(__cmd(...__argv.slice(1))).catch((err) => {")
	g.emitLine("  console.error(String(err));")
	g.emitLine("  process.exit(1);")
	g.emitLine("});")
}

func (g *generator) emitEdgeExport(stmts []ast.Statement) {
	for _, s := range stmts {
		if fn, ok := s.(*ast.FnDecl); ok && fn.Name == "handle" {
			g.emitLine("export default { fetch: handle };")
			return
		}
	}
}

// blockPropagates reports whether a block uses '?' outside nested functions
func blockPropagates(block *ast.Block) bool {
	found := false
	walkBlock(block, func(e ast.Expression) bool {
		switch e.(type) {
		case *ast.PropagateExpr:
			found = true
			return false
		case *ast.LambdaExpr:
			return false // nested function wraps itself
		}
		return !found
	})
	return found
}
