package codegen

import (
	"fmt"
	"strings"

	"github.com/tova-lang/tova/internal/ast"
)

// genConcurrent lowers a concurrent block. Every spawn entry becomes one
// promise in a gather array; named entries get a binding back out by index.
//
//	all             Promise.all of tasks wrapped to Ok/Err, nothing rejects
//	cancel_on_error Promise.all of the raw tasks, first rejection wins
//	first           Promise.race, bindings other than the winner stay null
//
// A timeout races the whole gather against __timeout(ms).
func (g *generator) genConcurrent(stmt *ast.ConcurrentStmt) {
	type entry struct {
		name string // empty for fire-and-forget spawns
		call string
	}
	var entries []entry
	for _, s := range stmt.Body.Statements {
		switch e := s.(type) {
		case *ast.BindingStmt:
			spawn, ok := e.Value.(*ast.SpawnExpr)
			if !ok {
				codegenError("concurrent binding %q is not a spawn", e.Name)
			}
			entries = append(entries, entry{name: e.Name, call: g.expr(spawn.Call)})
		case *ast.ExprStmt:
			spawn, ok := e.Expr.(*ast.SpawnExpr)
			if !ok {
				codegenError("concurrent entry is not a spawn")
			}
			entries = append(entries, entry{call: g.expr(spawn.Call)})
		default:
			codegenError("unexpected statement %T in concurrent block", s)
		}
	}
	if len(entries) == 0 {
		return
	}

	mode := stmt.Mode
	if mode == "" {
		mode = "all"
	}

	// each call runs inside an async wrapper so a synchronous throw or a
	// non-promise result still settles its slot
	tasks := make([]string, len(entries))
	for i, e := range entries {
		task := fmt.Sprintf("(async () => %s)()", e.call)
		switch mode {
		case "all":
			g.need("result")
			tasks[i] = task + ".then(Ok).catch(Err)"
		case "first":
			tasks[i] = fmt.Sprintf("%s.then((__v) => ({ index: %d, value: __v }))", task, i)
		default:
			tasks[i] = task
		}
	}
	gatherList := "[" + strings.Join(tasks, ", ") + "]"

	var gather string
	switch mode {
	case "first":
		gather = "Promise.race(" + gatherList + ")"
	default:
		gather = "Promise.all(" + gatherList + ")"
	}
	if stmt.Timeout != nil {
		g.need("timeout")
		gather = fmt.Sprintf("Promise.race([%s, __timeout(%s)])", gather, g.expr(stmt.Timeout))
	}

	if mode == "first" {
		winner := g.tmp("first")
		g.emitLinef("const %s = await %s;", winner, gather)
		for i, e := range entries {
			if e.name == "" {
				continue
			}
			g.declare(e.name, "const")
			g.emitLinef("const %s = %s.index === %d ? %s.value : null;", e.name, winner, i, winner)
		}
		return
	}

	results := g.tmp("results")
	g.emitLinef("const %s = await %s;", results, gather)
	for i, e := range entries {
		if e.name == "" {
			continue
		}
		g.declare(e.name, "const")
		g.emitLinef("const %s = %s[%d];", e.name, results, i)
	}
}

// genSelect lowers a select statement to the __select runtime helper. Each
// arm's body becomes a callback; receive arms get the received value as the
// callback argument.
func (g *generator) genSelect(stmt *ast.SelectStmt) {
	g.need("select")
	g.emitLine("await __select([")
	g.incIndent()
	for _, c := range stmt.Cases {
		g.genSelectCase(c)
	}
	g.decIndent()
	g.emitLine("]);")
}

func (g *generator) genSelectCase(c *ast.SelectCase) {
	g.pushScope()
	defer g.popScope()

	switch c.Kind {
	case ast.SelectRecv:
		g.declare(c.Binding, "const")
		g.emitLinef("{ kind: \"recv\", ch: %s, body: async (%s) => {", g.expr(c.Channel), c.Binding)
	case ast.SelectSend:
		g.emitLinef("{ kind: \"send\", ch: %s, value: () => (%s), body: async () => {",
			g.expr(c.Channel), g.expr(c.Value))
	case ast.SelectTimeout:
		g.emitLinef("{ kind: \"timeout\", ms: %s, body: async () => {", g.expr(c.Value))
	case ast.SelectDefault:
		g.emitLine("{ kind: \"default\", body: async () => {")
	}

	g.incIndent()
	g.stmts(c.Body.Statements)
	g.decIndent()
	g.emitLine("} },")
}
