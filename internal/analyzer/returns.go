package analyzer

import "github.com/tova-lang/tova/internal/ast"

// blockReturns reports whether every path through the block ends in a
// return. Guard statements never count: their happy path falls through.
func blockReturns(block *ast.Block) bool {
	for _, s := range block.Statements {
		if stmtReturns(s) {
			return true
		}
	}
	return false
}

func stmtReturns(s ast.Statement) bool {
	switch stmt := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.Block:
		return blockReturns(stmt)
	case *ast.IfStmt:
		if stmt.Else == nil {
			return false
		}
		return blockReturns(stmt.Then) && stmtReturns(stmt.Else)
	case *ast.TryStmt:
		if stmt.Finally != nil && blockReturns(stmt.Finally) {
			return true
		}
		return stmt.Catch != nil && blockReturns(stmt.Body) && blockReturns(stmt.Catch)
	case *ast.ExprStmt:
		m, ok := stmt.Expr.(*ast.MatchExpr)
		if !ok {
			return false
		}
		for _, arm := range m.Arms {
			if arm.Block == nil || !blockReturns(arm.Block) {
				return false
			}
		}
		return len(m.Arms) > 0
	}
	return false
}

// blockDiverges reports whether the block always leaves the surrounding
// flow: return, break, or continue on every path
func blockDiverges(block *ast.Block) bool {
	for _, s := range block.Statements {
		if stmtDiverges(s) {
			return true
		}
	}
	return false
}

func stmtDiverges(s ast.Statement) bool {
	switch stmt := s.(type) {
	case *ast.ReturnStmt, *ast.BreakStmt, *ast.ContinueStmt:
		return true
	case *ast.Block:
		return blockDiverges(stmt)
	case *ast.IfStmt:
		if stmt.Else == nil {
			return false
		}
		return blockDiverges(stmt.Then) && stmtDiverges(stmt.Else)
	}
	return stmtReturns(s)
}
