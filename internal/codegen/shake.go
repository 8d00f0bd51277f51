package codegen

import "github.com/tova-lang/tova/internal/ast"

// collectStmtRefs gathers every identifier a statement references. The set
// over-approximates: locally bound names are included too, which only makes
// tree shaking keep more than strictly necessary, never less.
func collectStmtRefs(s ast.Statement, refs map[string]bool) {
	switch stmt := s.(type) {
	case *ast.FnDecl:
		collectBlockRefs(stmt.Body, refs)
	case *ast.TypeDecl:
	case *ast.BindingStmt:
		collectExprRefs(stmt.Value, refs)
	case *ast.AssignStmt:
		collectExprRefs(stmt.Target, refs)
		collectExprRefs(stmt.Value, refs)
	case *ast.ExprStmt:
		collectExprRefs(stmt.Expr, refs)
	case *ast.ReturnStmt:
		if stmt.Value != nil {
			collectExprRefs(stmt.Value, refs)
		}
	case *ast.IfStmt:
		collectExprRefs(stmt.Condition, refs)
		collectBlockRefs(stmt.Then, refs)
		if stmt.Else != nil {
			collectStmtRefs(stmt.Else, refs)
		}
	case *ast.Block:
		collectBlockRefs(stmt, refs)
	case *ast.GuardStmt:
		collectExprRefs(stmt.Condition, refs)
		collectBlockRefs(stmt.Else, refs)
	case *ast.ForInStmt:
		collectExprRefs(stmt.Iterable, refs)
		collectBlockRefs(stmt.Body, refs)
		if stmt.Else != nil {
			collectBlockRefs(stmt.Else, refs)
		}
	case *ast.WhileStmt:
		collectExprRefs(stmt.Condition, refs)
		collectBlockRefs(stmt.Body, refs)
	case *ast.TryStmt:
		collectBlockRefs(stmt.Body, refs)
		if stmt.Catch != nil {
			collectBlockRefs(stmt.Catch, refs)
		}
		if stmt.Finally != nil {
			collectBlockRefs(stmt.Finally, refs)
		}
	case *ast.ConcurrentStmt:
		if stmt.Timeout != nil {
			collectExprRefs(stmt.Timeout, refs)
		}
		collectBlockRefs(stmt.Body, refs)
	case *ast.SelectStmt:
		for _, c := range stmt.Cases {
			if c.Channel != nil {
				collectExprRefs(c.Channel, refs)
			}
			if c.Value != nil {
				collectExprRefs(c.Value, refs)
			}
			collectBlockRefs(c.Body, refs)
		}
	}
}

func collectBlockRefs(block *ast.Block, refs map[string]bool) {
	if block == nil {
		return
	}
	for _, s := range block.Statements {
		collectStmtRefs(s, refs)
	}
}

func collectExprRefs(e ast.Expression, refs map[string]bool) {
	switch ex := e.(type) {
	case *ast.Identifier:
		refs[ex.Name] = true
	case *ast.StringLit:
		for _, part := range ex.Parts {
			if part.Expr != nil {
				collectExprRefs(part.Expr, refs)
			}
		}
	case *ast.BinaryExpr:
		collectExprRefs(ex.Left, refs)
		collectExprRefs(ex.Right, refs)
	case *ast.UnaryExpr:
		collectExprRefs(ex.Operand, refs)
	case *ast.RangeExpr:
		collectExprRefs(ex.Start, refs)
		collectExprRefs(ex.End, refs)
	case *ast.CallExpr:
		collectExprRefs(ex.Callee, refs)
		for _, arg := range ex.Args {
			collectExprRefs(arg, refs)
		}
	case *ast.FieldAccessExpr:
		collectExprRefs(ex.Object, refs)
	case *ast.IndexExpr:
		collectExprRefs(ex.Object, refs)
		collectExprRefs(ex.Index, refs)
	case *ast.SliceExpr:
		collectExprRefs(ex.Object, refs)
		for _, bound := range []ast.Expression{ex.Start, ex.Stop, ex.Step} {
			if bound != nil {
				collectExprRefs(bound, refs)
			}
		}
	case *ast.ArrayLit:
		for _, el := range ex.Elements {
			collectExprRefs(el, refs)
		}
	case *ast.TupleLit:
		for _, el := range ex.Elements {
			collectExprRefs(el, refs)
		}
	case *ast.RecordLit:
		for _, v := range ex.Values {
			collectExprRefs(v, refs)
		}
	case *ast.LambdaExpr:
		if ex.Body != nil {
			collectBlockRefs(ex.Body, refs)
		} else {
			collectExprRefs(ex.Expr, refs)
		}
	case *ast.AwaitExpr:
		collectExprRefs(ex.Expr, refs)
	case *ast.SpawnExpr:
		collectExprRefs(ex.Call, refs)
	case *ast.PropagateExpr:
		collectExprRefs(ex.Expr, refs)
	case *ast.IfExpr:
		collectExprRefs(ex.Condition, refs)
		collectExprRefs(ex.Then, refs)
		if ex.Else != nil {
			collectExprRefs(ex.Else, refs)
		}
	case *ast.MatchExpr:
		collectExprRefs(ex.Scrutinee, refs)
		for _, arm := range ex.Arms {
			collectPatternRefs(arm.Pattern, refs)
			if arm.Guard != nil {
				collectExprRefs(arm.Guard, refs)
			}
			if arm.Body != nil {
				collectExprRefs(arm.Body, refs)
			} else {
				collectBlockRefs(arm.Block, refs)
			}
		}
	case *ast.JSXElement:
		if isComponentTag(ex.Tag) {
			refs[ex.Tag] = true
		}
		for _, attr := range ex.Attrs {
			if attr.Value != nil {
				collectExprRefs(attr.Value, refs)
			}
		}
		collectChildRefs(ex.Children, refs)
	case *ast.JSXIf:
		for _, branch := range ex.Branches {
			collectExprRefs(branch.Condition, refs)
			collectChildRefs(branch.Children, refs)
		}
		collectChildRefs(ex.Else, refs)
	case *ast.JSXFor:
		collectExprRefs(ex.Iterable, refs)
		collectChildRefs(ex.Children, refs)
	}
}

func collectPatternRefs(pat *ast.Pattern, refs map[string]bool) {
	if pat.Kind == ast.PatternVariant {
		refs[pat.Variant] = true
		for _, sub := range pat.Subpatterns {
			collectPatternRefs(sub, refs)
		}
	}
}

func collectChildRefs(children []ast.JSXChild, refs map[string]bool) {
	for _, child := range children {
		switch c := child.(type) {
		case *ast.JSXExprChild:
			collectExprRefs(c.Expr, refs)
		case *ast.JSXElement:
			collectExprRefs(c, refs)
		case *ast.JSXIf:
			collectExprRefs(c, refs)
		case *ast.JSXFor:
			collectExprRefs(c, refs)
		}
	}
}

func isComponentTag(tag string) bool {
	return len(tag) > 0 && tag[0] >= 'A' && tag[0] <= 'Z'
}
