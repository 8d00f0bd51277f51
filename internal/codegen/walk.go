package codegen

import "github.com/tova-lang/tova/internal/ast"

// walkBlock visits every expression in a block, depth first. The visitor
// returns false to stop descending into the current expression.
func walkBlock(block *ast.Block, visit func(ast.Expression) bool) {
	if block == nil {
		return
	}
	for _, s := range block.Statements {
		walkStmt(s, visit)
	}
}

func walkStmt(s ast.Statement, visit func(ast.Expression) bool) {
	switch stmt := s.(type) {
	case *ast.FnDecl:
		walkBlock(stmt.Body, visit)
	case *ast.BindingStmt:
		walkExpr(stmt.Value, visit)
	case *ast.AssignStmt:
		walkExpr(stmt.Target, visit)
		walkExpr(stmt.Value, visit)
	case *ast.ExprStmt:
		walkExpr(stmt.Expr, visit)
	case *ast.ReturnStmt:
		if stmt.Value != nil {
			walkExpr(stmt.Value, visit)
		}
	case *ast.IfStmt:
		walkExpr(stmt.Condition, visit)
		walkBlock(stmt.Then, visit)
		if stmt.Else != nil {
			walkStmt(stmt.Else, visit)
		}
	case *ast.Block:
		walkBlock(stmt, visit)
	case *ast.GuardStmt:
		walkExpr(stmt.Condition, visit)
		walkBlock(stmt.Else, visit)
	case *ast.ForInStmt:
		walkExpr(stmt.Iterable, visit)
		walkBlock(stmt.Body, visit)
		walkBlock(stmt.Else, visit)
	case *ast.WhileStmt:
		walkExpr(stmt.Condition, visit)
		walkBlock(stmt.Body, visit)
	case *ast.TryStmt:
		walkBlock(stmt.Body, visit)
		walkBlock(stmt.Catch, visit)
		walkBlock(stmt.Finally, visit)
	case *ast.ConcurrentStmt:
		if stmt.Timeout != nil {
			walkExpr(stmt.Timeout, visit)
		}
		walkBlock(stmt.Body, visit)
	case *ast.SelectStmt:
		for _, c := range stmt.Cases {
			if c.Channel != nil {
				walkExpr(c.Channel, visit)
			}
			if c.Value != nil {
				walkExpr(c.Value, visit)
			}
			walkBlock(c.Body, visit)
		}
	}
}

func walkExpr(e ast.Expression, visit func(ast.Expression) bool) {
	if e == nil || !visit(e) {
		return
	}
	switch ex := e.(type) {
	case *ast.StringLit:
		for _, part := range ex.Parts {
			walkExpr(part.Expr, visit)
		}
	case *ast.BinaryExpr:
		walkExpr(ex.Left, visit)
		walkExpr(ex.Right, visit)
	case *ast.UnaryExpr:
		walkExpr(ex.Operand, visit)
	case *ast.RangeExpr:
		walkExpr(ex.Start, visit)
		walkExpr(ex.End, visit)
	case *ast.CallExpr:
		walkExpr(ex.Callee, visit)
		for _, arg := range ex.Args {
			walkExpr(arg, visit)
		}
	case *ast.FieldAccessExpr:
		walkExpr(ex.Object, visit)
	case *ast.IndexExpr:
		walkExpr(ex.Object, visit)
		walkExpr(ex.Index, visit)
	case *ast.SliceExpr:
		walkExpr(ex.Object, visit)
		walkExpr(ex.Start, visit)
		walkExpr(ex.Stop, visit)
		walkExpr(ex.Step, visit)
	case *ast.ArrayLit:
		for _, el := range ex.Elements {
			walkExpr(el, visit)
		}
	case *ast.TupleLit:
		for _, el := range ex.Elements {
			walkExpr(el, visit)
		}
	case *ast.RecordLit:
		for _, v := range ex.Values {
			walkExpr(v, visit)
		}
	case *ast.LambdaExpr:
		walkBlock(ex.Body, visit)
		walkExpr(ex.Expr, visit)
	case *ast.AwaitExpr:
		walkExpr(ex.Expr, visit)
	case *ast.SpawnExpr:
		walkExpr(ex.Call, visit)
	case *ast.PropagateExpr:
		walkExpr(ex.Expr, visit)
	case *ast.IfExpr:
		walkExpr(ex.Condition, visit)
		walkExpr(ex.Then, visit)
		walkExpr(ex.Else, visit)
	case *ast.MatchExpr:
		walkExpr(ex.Scrutinee, visit)
		for _, arm := range ex.Arms {
			walkExpr(arm.Guard, visit)
			walkExpr(arm.Body, visit)
			walkBlock(arm.Block, visit)
		}
	case *ast.JSXElement:
		for _, attr := range ex.Attrs {
			walkExpr(attr.Value, visit)
		}
		walkChildren(ex.Children, visit)
	case *ast.JSXIf:
		for _, branch := range ex.Branches {
			walkExpr(branch.Condition, visit)
			walkChildren(branch.Children, visit)
		}
		walkChildren(ex.Else, visit)
	case *ast.JSXFor:
		walkExpr(ex.Iterable, visit)
		walkChildren(ex.Children, visit)
	}
}

func walkChildren(children []ast.JSXChild, visit func(ast.Expression) bool) {
	for _, child := range children {
		switch c := child.(type) {
		case *ast.JSXExprChild:
			walkExpr(c.Expr, visit)
		case *ast.JSXElement:
			walkExpr(c, visit)
		case *ast.JSXIf:
			walkExpr(c, visit)
		case *ast.JSXFor:
			walkExpr(c, visit)
		}
	}
}
