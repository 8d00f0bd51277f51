package codegen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tova-lang/tova/internal/ast"
)

// jsxElement lowers markup to an __el call. On the client target dynamic
// attribute values and expression children are wrapped in thunks so the
// renderer can re-evaluate them when a signal changes.
func (g *generator) jsxElement(el *ast.JSXElement) string {
	g.need("el")
	if g.client {
		g.need("signal") // the DOM renderer re-runs thunks through __effect
	}

	tag := fmt.Sprintf("%q", el.Tag)
	if isComponentTag(el.Tag) {
		tag = el.Tag
	}

	attrs := "null"
	if len(el.Attrs) > 0 {
		parts := make([]string, len(el.Attrs))
		for i, attr := range el.Attrs {
			parts[i] = g.jsxAttr(attr)
		}
		attrs = "{ " + strings.Join(parts, ", ") + " }"
	}

	args := []string{tag, attrs}
	for _, child := range el.Children {
		rendered, ok := g.jsxChild(child)
		if ok {
			args = append(args, rendered)
		}
	}
	return fmt.Sprintf("__el(%s)", strings.Join(args, ", "))
}

func (g *generator) jsxAttr(attr *ast.JSXAttr) string {
	key := attr.Name
	if attr.Namespace != "" {
		key = fmt.Sprintf("%q", attr.Namespace+":"+attr.Name)
	}
	if attr.Namespace == "use" {
		return key + ": " + g.directiveValue(attr)
	}
	if attr.Value == nil {
		return key + ": true"
	}
	value := g.expr(attr.Value)
	if g.client && g.dynamicRender(attr.Value) {
		if attr.Namespace == "on" {
			// re-resolve the handler expression at dispatch time
			value = "(...__args) => (" + value + ")(...__args)"
		} else {
			value = "() => (" + value + ")"
		}
	}
	return key + ": " + value
}

// directiveValue lowers a use: directive to the function the renderer calls
// with the mounted node. The bare form passes the directive itself; a valued
// form closes over the argument, and re-applies through __effect when the
// argument reads a signal.
func (g *generator) directiveValue(attr *ast.JSXAttr) string {
	if attr.Value == nil {
		return attr.Name
	}
	arg := g.expr(attr.Value)
	if g.client && g.dynamicRender(attr.Value) {
		g.need("signal")
		return fmt.Sprintf("(__node) => __effect(() => %s(__node, %s))", attr.Name, arg)
	}
	return fmt.Sprintf("(__node) => %s(__node, %s)", attr.Name, arg)
}

// jsxChild renders one child; ok is false for whitespace-only text
func (g *generator) jsxChild(child ast.JSXChild) (string, bool) {
	switch c := child.(type) {
	case *ast.JSXText:
		text := collapseWhitespace(c.Text)
		if text == "" {
			return "", false
		}
		return "\"" + escapeJSString(text) + "\"", true
	case *ast.JSXExprChild:
		rendered := g.expr(c.Expr)
		if g.client && g.dynamicRender(c.Expr) {
			rendered = "() => (" + rendered + ")"
		}
		return rendered, true
	case *ast.JSXElement:
		return g.jsxElement(c), true
	case *ast.JSXIf:
		return g.jsxIf(c, g.client && g.readsTracked(c)), true
	case *ast.JSXFor:
		return g.jsxFor(c, g.client && g.readsTracked(c)), true
	}
	codegenError("unhandled markup child %T", child)
	return "", false
}

// jsxIf lowers a markup conditional to a ternary chain over child arrays
func (g *generator) jsxIf(node *ast.JSXIf, thunk bool) string {
	var sb strings.Builder
	for _, branch := range node.Branches {
		sb.WriteString(g.expr(branch.Condition))
		sb.WriteString(" ? ")
		sb.WriteString(g.jsxChildArray(branch.Children))
		sb.WriteString(" : ")
	}
	if node.Else != nil {
		sb.WriteString(g.jsxChildArray(node.Else))
	} else {
		sb.WriteString("null")
	}
	if thunk {
		return "() => (" + sb.String() + ")"
	}
	return "(" + sb.String() + ")"
}

// jsxFor lowers a markup loop to a map over the iterable
func (g *generator) jsxFor(node *ast.JSXFor, thunk bool) string {
	g.pushScope()
	g.declare(node.Variable, "const")
	params := node.Variable
	if node.Index != "" {
		g.declare(node.Index, "const")
		params = node.Variable + ", " + node.Index
	}
	body := fmt.Sprintf("%s.map((%s) => %s)",
		g.iterable(node.Iterable), params, g.jsxChildArray(node.Children))
	g.popScope()

	if thunk {
		return "() => (" + body + ")"
	}
	return body
}

func (g *generator) jsxChildArray(children []ast.JSXChild) string {
	var parts []string
	for _, child := range children {
		rendered, ok := g.jsxChild(child)
		if ok {
			parts = append(parts, rendered)
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// readsTracked reports whether evaluating the expression reads a signal
// binding through any branch, meaning the renderer must be able to
// re-evaluate it.
func (g *generator) readsTracked(e ast.Expression) bool {
	found := false
	walkExpr(e, func(x ast.Expression) bool {
		if id, ok := x.(*ast.Identifier); ok {
			if kind, known := g.lookup(id.Name); known && kind == "signal" {
				found = true
			}
		}
		return !found
	})
	return found
}

// dynamicRender decides whether a rendered value gets a re-evaluation thunk.
// A lambda re-reads its captures each call, so it passes through as-is.
func (g *generator) dynamicRender(e ast.Expression) bool {
	if _, ok := e.(*ast.LambdaExpr); ok {
		return false
	}
	return g.readsTracked(e)
}

// collapseWhitespace squeezes runs of whitespace to single spaces, the way
// HTML renders them. Edge spaces survive so text abutting an embedded
// expression keeps its separator; whitespace-only runs collapse to nothing.
func collapseWhitespace(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	if len(fields) == 0 {
		return ""
	}
	out := strings.Join(fields, " ")
	if unicode.IsSpace(rune(s[0])) && s[0] != '\n' {
		out = " " + out
	}
	last := s[len(s)-1]
	if unicode.IsSpace(rune(last)) && last != '\n' {
		out = out + " "
	}
	return out
}
