package parser

import (
	"strings"
	"testing"

	"github.com/tova-lang/tova/internal/ast"
)

func parse(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, err := New(source).Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return prog
}

func parseError(t *testing.T, source string) *ParseError {
	t.Helper()
	_, err := New(source).Parse()
	if err == nil {
		t.Fatalf("expected a parse error for %q", source)
	}
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	return perr
}

func TestBindings(t *testing.T) {
	prog := parse(t, "x = 1\nvar y = 2\nz: Int = 3")
	if len(prog.Decls) != 3 {
		t.Fatalf("expected 3 declarations, got %d", len(prog.Decls))
	}

	b0 := prog.Decls[0].(*ast.BindingStmt)
	if b0.Name != "x" || b0.Mutable {
		t.Errorf("x should be an immutable binding: %+v", b0)
	}
	b1 := prog.Decls[1].(*ast.BindingStmt)
	if b1.Name != "y" || !b1.Mutable {
		t.Errorf("y should be mutable: %+v", b1)
	}
	b2 := prog.Decls[2].(*ast.BindingStmt)
	if b2.Type == nil || b2.Type.Name != "Int" {
		t.Errorf("z should carry a type annotation: %+v", b2.Type)
	}
}

func TestMutIsRejected(t *testing.T) {
	perr := parseError(t, "mut x = 1")
	if !strings.Contains(perr.Message, "'mut' is not supported") {
		t.Errorf("wrong message: %q", perr.Message)
	}
	if !strings.Contains(perr.Hint, "Use 'var") {
		t.Errorf("hint should point at var: %q", perr.Hint)
	}
}

func TestLetIsRejected(t *testing.T) {
	perr := parseError(t, "let x = 1")
	if !strings.Contains(perr.Message, "'let' is not supported") {
		t.Errorf("wrong message: %q", perr.Message)
	}
}

func TestFnDecl(t *testing.T) {
	prog := parse(t, `
fn add(a: Int, b: Int) -> Int {
    return a + b
}
`)
	fn := prog.Decls[0].(*ast.FnDecl)
	if fn.Name != "add" {
		t.Errorf("wrong name: %q", fn.Name)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if fn.Params[0].Type == nil || fn.Params[0].Type.Name != "Int" {
		t.Errorf("param type missing: %+v", fn.Params[0])
	}
	if fn.ReturnType == nil || fn.ReturnType.Name != "Int" {
		t.Errorf("return type missing: %+v", fn.ReturnType)
	}
}

func TestAsyncFn(t *testing.T) {
	prog := parse(t, `
async fn get(url: String) {
    return await fetch(url)
}
`)
	fn := prog.Decls[0].(*ast.FnDecl)
	if !fn.IsAsync {
		t.Errorf("fn should be async")
	}
	ret := fn.Body.Statements[0].(*ast.ReturnStmt)
	if _, ok := ret.Value.(*ast.AwaitExpr); !ok {
		t.Errorf("expected await in return, got %T", ret.Value)
	}
}

func TestKeywordOperatorSpellings(t *testing.T) {
	prog := parse(t, "x = a and b or not c")
	or, ok := prog.Decls[0].(*ast.BindingStmt).Value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected binary expression")
	}
	if _, ok := or.Left.(*ast.BinaryExpr); !ok {
		t.Errorf("'and' should bind tighter than 'or'")
	}
	if _, ok := or.Right.(*ast.UnaryExpr); !ok {
		t.Errorf("'not c' should be a unary expression, got %T", or.Right)
	}
}

func TestDocComments(t *testing.T) {
	prog := parse(t, `
/// adds two numbers
/// and nothing else
fn add(a, b) {
    return a + b
}
`)
	fn := prog.Decls[0].(*ast.FnDecl)
	if !strings.Contains(fn.Doc, "adds two numbers") {
		t.Errorf("doc comment not attached: %q", fn.Doc)
	}
	if !strings.Contains(fn.Doc, "nothing else") {
		t.Errorf("consecutive doc lines should merge: %q", fn.Doc)
	}
}

func TestTypeDecl(t *testing.T) {
	prog := parse(t, `
type Shape {
    Circle(radius: Float)
    Rect(w: Float, h: Float)
    Point
}
`)
	decl := prog.Decls[0].(*ast.TypeDecl)
	if decl.Name != "Shape" {
		t.Errorf("wrong type name: %q", decl.Name)
	}
	if len(decl.Variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(decl.Variants))
	}
	if len(decl.Variants[0].Fields) != 1 || decl.Variants[0].Fields[0].Name != "radius" {
		t.Errorf("Circle fields wrong: %+v", decl.Variants[0].Fields)
	}
	if len(decl.Variants[2].Fields) != 0 {
		t.Errorf("Point should be a unit variant")
	}
}

func TestTypeDeclDuplicateVariant(t *testing.T) {
	perr := parseError(t, "type T {\n A\n A\n}")
	if !strings.Contains(perr.Message, "duplicate variant") {
		t.Errorf("wrong message: %q", perr.Message)
	}
}

func TestPrecedence(t *testing.T) {
	prog := parse(t, "x = 1 + 2 * 3")
	bin := prog.Decls[0].(*ast.BindingStmt).Value.(*ast.BinaryExpr)
	if _, ok := bin.Left.(*ast.IntLit); !ok {
		t.Errorf("multiplication should bind tighter than addition")
	}
	if _, ok := bin.Right.(*ast.BinaryExpr); !ok {
		t.Errorf("right side should be the product")
	}
}

func TestPowerIsRightAssociative(t *testing.T) {
	prog := parse(t, "x = 2 ** 3 ** 2")
	bin := prog.Decls[0].(*ast.BindingStmt).Value.(*ast.BinaryExpr)
	if _, ok := bin.Right.(*ast.BinaryExpr); !ok {
		t.Errorf("exponentiation should nest to the right")
	}
}

func TestNewlineEndsStatement(t *testing.T) {
	// `b` on its own line is a new statement, not a continued subtraction
	prog := parse(t, "fn f(a, b) {\n  x = a\n  -b\n  return x\n}")
	fn := prog.Decls[0].(*ast.FnDecl)
	if len(fn.Body.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(fn.Body.Statements))
	}
	if _, ok := fn.Body.Statements[1].(*ast.ExprStmt); !ok {
		t.Errorf("-b should be its own statement")
	}
}

func TestDotChainsMayCrossLines(t *testing.T) {
	prog := parse(t, "x = items\n  .first\n  .name")
	b := prog.Decls[0].(*ast.BindingStmt)
	fa, ok := b.Value.(*ast.FieldAccessExpr)
	if !ok {
		t.Fatalf("expected field access chain, got %T", b.Value)
	}
	if fa.Field != "name" {
		t.Errorf("outer access should be .name, got %q", fa.Field)
	}
}

func TestLambdaDisambiguation(t *testing.T) {
	t.Run("parameter list", func(t *testing.T) {
		prog := parse(t, "f = (a, b) => a + b")
		lam := prog.Decls[0].(*ast.BindingStmt).Value.(*ast.LambdaExpr)
		if len(lam.Params) != 2 {
			t.Errorf("expected 2 params, got %d", len(lam.Params))
		}
		if lam.Expr == nil {
			t.Errorf("expected expression body")
		}
	})

	t.Run("grouped expression", func(t *testing.T) {
		prog := parse(t, "g = (a)")
		if _, ok := prog.Decls[0].(*ast.BindingStmt).Value.(*ast.Identifier); !ok {
			t.Errorf("parenthesized name should stay an identifier")
		}
	})

	t.Run("tuple", func(t *testing.T) {
		prog := parse(t, "p = (1, 2)")
		tup, ok := prog.Decls[0].(*ast.BindingStmt).Value.(*ast.TupleLit)
		if !ok {
			t.Fatalf("expected tuple, got %T", prog.Decls[0].(*ast.BindingStmt).Value)
		}
		if len(tup.Elements) != 2 {
			t.Errorf("expected 2 elements, got %d", len(tup.Elements))
		}
	})

	t.Run("block body", func(t *testing.T) {
		prog := parse(t, "f = (x) => {\n  return x * 2\n}")
		lam := prog.Decls[0].(*ast.BindingStmt).Value.(*ast.LambdaExpr)
		if lam.Body == nil {
			t.Errorf("expected block body")
		}
	})
}

func TestMatchPatterns(t *testing.T) {
	prog := parse(t, `
x = match shape {
    Circle(r) => r
    Rect(w, h) if w > h => w
    1..10 => 0
    "exact" => 1
    other => other
    _ => 0
}
`)
	m := prog.Decls[0].(*ast.BindingStmt).Value.(*ast.MatchExpr)
	if len(m.Arms) != 6 {
		t.Fatalf("expected 6 arms, got %d", len(m.Arms))
	}

	if m.Arms[0].Pattern.Kind != ast.PatternVariant || m.Arms[0].Pattern.Variant != "Circle" {
		t.Errorf("arm 0 should be a variant pattern: %+v", m.Arms[0].Pattern)
	}
	if m.Arms[1].Guard == nil {
		t.Errorf("arm 1 should carry a guard")
	}
	if m.Arms[2].Pattern.Kind != ast.PatternRange {
		t.Errorf("arm 2 should be a range pattern")
	}
	if m.Arms[3].Pattern.Kind != ast.PatternLiteral {
		t.Errorf("arm 3 should be a literal pattern")
	}
	if m.Arms[4].Pattern.Kind != ast.PatternBinding || m.Arms[4].Pattern.Binding != "other" {
		t.Errorf("arm 4 should bind: %+v", m.Arms[4].Pattern)
	}
	if m.Arms[5].Pattern.Kind != ast.PatternWildcard {
		t.Errorf("arm 5 should be the wildcard")
	}
}

func TestArmHeadArrowEndsTheArm(t *testing.T) {
	// a head ending in a bare identifier hands '=>' to the arm; brackets
	// inside the head re-enable single-parameter lambdas
	prog := parse(t, `
x = match v {
    Pair(a, b) if a > b => a
    n if apply(n, f => f + 1) > n => 0
    _ => 1
}
`)
	m := prog.Decls[0].(*ast.BindingStmt).Value.(*ast.MatchExpr)
	if len(m.Arms) != 3 {
		t.Fatalf("expected 3 arms, got %d", len(m.Arms))
	}
	guard, ok := m.Arms[1].Guard.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("arm 1 guard should be a comparison, got %T", m.Arms[1].Guard)
	}
	call, ok := guard.Left.(*ast.CallExpr)
	if !ok {
		t.Fatalf("guard left should be the call, got %T", guard.Left)
	}
	if _, ok := call.Args[1].(*ast.LambdaExpr); !ok {
		t.Errorf("lambda argument inside the head should survive, got %T", call.Args[1])
	}
}

func TestSelectRecvChannelIsNotALambda(t *testing.T) {
	prog := parse(t, `
async fn f(ch) {
    select {
        v from ch => print(v)
    }
}
`)
	fn := prog.Decls[0].(*ast.FnDecl)
	sel := fn.Body.Statements[0].(*ast.SelectStmt)
	if len(sel.Cases) != 1 {
		t.Fatalf("expected 1 case, got %d", len(sel.Cases))
	}
	if _, ok := sel.Cases[0].Channel.(*ast.Identifier); !ok {
		t.Errorf("channel should parse as an identifier, got %T", sel.Cases[0].Channel)
	}
	if len(sel.Cases[0].Body.Statements) != 1 {
		t.Errorf("arm body lost: %+v", sel.Cases[0].Body)
	}
}

func TestMatchDuplicateBindingRejected(t *testing.T) {
	perr := parseError(t, "x = match p {\n  Pair(a, a) => a\n  _ => 0\n}")
	if !strings.Contains(perr.Message, "duplicate") {
		t.Errorf("wrong message: %q", perr.Message)
	}
}

func TestIfElifElse(t *testing.T) {
	prog := parse(t, `
fn f(x) {
    if x > 10 {
        return 1
    } elif x > 5 {
        return 2
    } else {
        return 3
    }
}
`)
	fn := prog.Decls[0].(*ast.FnDecl)
	stmt := fn.Body.Statements[0].(*ast.IfStmt)
	nested, ok := stmt.Else.(*ast.IfStmt)
	if !ok {
		t.Fatalf("elif should nest as an IfStmt, got %T", stmt.Else)
	}
	if _, ok := nested.Else.(*ast.Block); !ok {
		t.Errorf("final else should be a block, got %T", nested.Else)
	}
}

func TestGuard(t *testing.T) {
	prog := parse(t, "fn f(x) {\n  guard x > 0 else {\n    return 0\n  }\n  return x\n}")
	fn := prog.Decls[0].(*ast.FnDecl)
	if _, ok := fn.Body.Statements[0].(*ast.GuardStmt); !ok {
		t.Errorf("expected guard statement, got %T", fn.Body.Statements[0])
	}
}

func TestForInVariants(t *testing.T) {
	prog := parse(t, `
fn f(xs) {
    for x in xs {
        print(x)
    }
    for i, x in xs {
        print(i)
    }
    for x in 1..10 {
        print(x)
    } else {
        print("empty")
    }
}
`)
	fn := prog.Decls[0].(*ast.FnDecl)
	loop1 := fn.Body.Statements[1].(*ast.ForInStmt)
	if loop1.Index != "i" || loop1.Variable != "x" {
		t.Errorf("indexed loop bindings wrong: %q %q", loop1.Index, loop1.Variable)
	}
	loop2 := fn.Body.Statements[2].(*ast.ForInStmt)
	if loop2.Else == nil {
		t.Errorf("for-else should carry the else block")
	}
	if _, ok := loop2.Iterable.(*ast.RangeExpr); !ok {
		t.Errorf("expected range iterable, got %T", loop2.Iterable)
	}
}

func TestConcurrentBlock(t *testing.T) {
	prog := parse(t, `
async fn f() {
    concurrent {
        a = spawn one()
        b = spawn two()
        spawn fire()
    }
}
`)
	fn := prog.Decls[0].(*ast.FnDecl)
	c := fn.Body.Statements[0].(*ast.ConcurrentStmt)
	if c.Mode != "" && c.Mode != "all" {
		t.Errorf("default mode wrong: %q", c.Mode)
	}
	if len(c.Body.Statements) != 3 {
		t.Errorf("expected 3 entries, got %d", len(c.Body.Statements))
	}
}

func TestConcurrentModesAndTimeout(t *testing.T) {
	prog := parse(t, `
async fn f() {
    concurrent cancel_on_error timeout(500) {
        a = spawn one()
    }
}
`)
	fn := prog.Decls[0].(*ast.FnDecl)
	c := fn.Body.Statements[0].(*ast.ConcurrentStmt)
	if c.Mode != "cancel_on_error" {
		t.Errorf("wrong mode: %q", c.Mode)
	}
	if c.Timeout == nil {
		t.Errorf("timeout missing")
	}
}

func TestConcurrentRejectsOrdinaryStatements(t *testing.T) {
	perr := parseError(t, "async fn f() {\n  concurrent {\n    x = 1\n  }\n}")
	if !strings.Contains(perr.Message, "spawn") {
		t.Errorf("wrong message: %q", perr.Message)
	}
}

func TestSelect(t *testing.T) {
	prog := parse(t, `
async fn f(ch, out) {
    select {
        v from ch => {
            print(v)
        }
        out.send(1) => {
            print("sent")
        }
        timeout(100) => {
            print("slow")
        }
        _ => {
            print("idle")
        }
    }
}
`)
	fn := prog.Decls[0].(*ast.FnDecl)
	sel := fn.Body.Statements[0].(*ast.SelectStmt)
	if len(sel.Cases) != 4 {
		t.Fatalf("expected 4 cases, got %d", len(sel.Cases))
	}
	kinds := []ast.SelectCaseKind{ast.SelectRecv, ast.SelectSend, ast.SelectTimeout, ast.SelectDefault}
	for i, want := range kinds {
		if sel.Cases[i].Kind != want {
			t.Errorf("case %d: expected kind %d, got %d", i, want, sel.Cases[i].Kind)
		}
	}
	if sel.Cases[0].Binding != "v" {
		t.Errorf("receive binding wrong: %q", sel.Cases[0].Binding)
	}
}

func TestRegions(t *testing.T) {
	prog := parse(t, `
shared {
    fn util() { return 1 }
}

server {
    fn handler() { return util() }
}

client {
    var count = 0
}

edge "assets" {
    fn handle(req) { return req }
}

deploy {
    server {
        provider: "aws"
        port: 8080
    }
}
`)
	if len(prog.Regions) != 5 {
		t.Fatalf("expected 5 regions, got %d", len(prog.Regions))
	}
	if prog.Regions[3].Kind != "edge" || prog.Regions[3].Name != "assets" {
		t.Errorf("edge region wrong: %+v", prog.Regions[3])
	}
	deploy := prog.Regions[4]
	if deploy.Kind != "deploy" || len(deploy.Entries) != 1 {
		t.Fatalf("deploy region wrong: %+v", deploy)
	}
	server := deploy.Entries[0]
	if server.Key != "server" || len(server.Children) != 2 {
		t.Errorf("nested config entries wrong: %+v", server)
	}
}

func TestJSXElement(t *testing.T) {
	prog := parse(t, `v = <div class="box" on:click={handler} disabled>Hello {name}</div>`)
	el := prog.Decls[0].(*ast.BindingStmt).Value.(*ast.JSXElement)
	if el.Tag != "div" {
		t.Errorf("wrong tag: %q", el.Tag)
	}
	if len(el.Attrs) != 3 {
		t.Fatalf("expected 3 attrs, got %d", len(el.Attrs))
	}
	if el.Attrs[1].Namespace != "on" || el.Attrs[1].Name != "click" {
		t.Errorf("event attr wrong: %+v", el.Attrs[1])
	}
	if el.Attrs[2].Value != nil {
		t.Errorf("bare attr should have nil value")
	}
	if len(el.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(el.Children))
	}
	if _, ok := el.Children[1].(*ast.JSXExprChild); !ok {
		t.Errorf("second child should be an expression")
	}
}

func TestJSXControlFlow(t *testing.T) {
	prog := parse(t, `v = <div>
    <if {ready}>
        <p>done</p>
    <elif {busy}>
        <p>wait</p>
    <else>
        <p>idle</p>
    </if>
    <for {item in items}>
        <li>{item}</li>
    </for>
</div>`)
	el := prog.Decls[0].(*ast.BindingStmt).Value.(*ast.JSXElement)

	var jsxIf *ast.JSXIf
	var jsxFor *ast.JSXFor
	for _, child := range el.Children {
		switch c := child.(type) {
		case *ast.JSXIf:
			jsxIf = c
		case *ast.JSXFor:
			jsxFor = c
		}
	}
	if jsxIf == nil {
		t.Fatalf("missing <if> child")
	}
	if len(jsxIf.Branches) != 2 {
		t.Errorf("expected 2 condition branches, got %d", len(jsxIf.Branches))
	}
	if jsxIf.Else == nil {
		t.Errorf("missing <else> arm")
	}
	if jsxFor == nil {
		t.Fatalf("missing <for> child")
	}
	if jsxFor.Variable != "item" {
		t.Errorf("loop binding wrong: %q", jsxFor.Variable)
	}
}

func TestUnlabeledEdgeRegion(t *testing.T) {
	prog := parse(t, `
edge {
    fn handle(req) { return req }
}
`)
	if len(prog.Regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(prog.Regions))
	}
	region := prog.Regions[0]
	if region.Kind != "edge" || region.Name != "" {
		t.Errorf("unlabeled edge region wrong: %+v", region)
	}
}

func TestBareUseDirective(t *testing.T) {
	prog := parse(t, `v = <div use:draggable use:tooltip={msg}>x</div>`)
	el := prog.Decls[0].(*ast.BindingStmt).Value.(*ast.JSXElement)
	if len(el.Attrs) != 2 {
		t.Fatalf("expected 2 attrs, got %d", len(el.Attrs))
	}
	bare := el.Attrs[0]
	if bare.Namespace != "use" || bare.Name != "draggable" || bare.Value != nil {
		t.Errorf("bare directive wrong: %+v", bare)
	}
	if el.Attrs[1].Value == nil {
		t.Errorf("valued directive lost its argument")
	}
}

func TestEventAttrRequiresValue(t *testing.T) {
	perr := parseError(t, `v = <button on:click>x</button>`)
	if !strings.Contains(perr.Message, "'on:click' requires a value") {
		t.Errorf("wrong message: %q", perr.Message)
	}
}

func TestJSXMismatchedClosingTag(t *testing.T) {
	perr := parseError(t, "v = <div>text</span>")
	if !strings.Contains(perr.Message, "mismatched closing tag") {
		t.Errorf("wrong message: %q", perr.Message)
	}
}

func TestErrorPositions(t *testing.T) {
	perr := parseError(t, "x = 1\nmut y = 2")
	if perr.Line != 2 {
		t.Errorf("expected error on line 2, got %d", perr.Line)
	}
	rendered := perr.Error()
	if !strings.Contains(rendered, "error[") {
		t.Errorf("error should render in diagnostic form: %q", rendered)
	}
}

func TestPropagateAndPipe(t *testing.T) {
	prog := parse(t, "fn f() {\n  x = load()?\n  return x |> clean |> render(80)\n}")
	fn := prog.Decls[0].(*ast.FnDecl)
	b := fn.Body.Statements[0].(*ast.BindingStmt)
	if _, ok := b.Value.(*ast.PropagateExpr); !ok {
		t.Errorf("expected propagate expression, got %T", b.Value)
	}
	ret := fn.Body.Statements[1].(*ast.ReturnStmt)
	outer, ok := ret.Value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected pipeline, got %T", ret.Value)
	}
	if _, ok := outer.Right.(*ast.CallExpr); !ok {
		t.Errorf("pipeline stage with args should stay a call")
	}
}

func TestStringInterpolationExpr(t *testing.T) {
	prog := parse(t, `s = "total: {n * 2}"`)
	lit := prog.Decls[0].(*ast.BindingStmt).Value.(*ast.StringLit)
	if len(lit.Parts) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(lit.Parts))
	}
	if lit.Parts[1].Expr == nil {
		t.Fatalf("second piece should be an expression")
	}
	if _, ok := lit.Parts[1].Expr.(*ast.BinaryExpr); !ok {
		t.Errorf("interpolated expression should parse fully, got %T", lit.Parts[1].Expr)
	}
}

func TestSliceForms(t *testing.T) {
	prog := parse(t, "a = xs[1]\nb = xs[1:3]\nc = xs[::2]")
	if _, ok := prog.Decls[0].(*ast.BindingStmt).Value.(*ast.IndexExpr); !ok {
		t.Errorf("xs[1] should be an index")
	}
	s1, ok := prog.Decls[1].(*ast.BindingStmt).Value.(*ast.SliceExpr)
	if !ok {
		t.Fatalf("xs[1:3] should be a slice")
	}
	if s1.Start == nil || s1.Stop == nil || s1.Step != nil {
		t.Errorf("slice bounds wrong: %+v", s1)
	}
	s2 := prog.Decls[2].(*ast.BindingStmt).Value.(*ast.SliceExpr)
	if s2.Start != nil || s2.Stop != nil || s2.Step == nil {
		t.Errorf("step slice wrong: %+v", s2)
	}
}
