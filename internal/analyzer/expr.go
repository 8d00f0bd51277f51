package analyzer

import (
	"fmt"

	"github.com/tova-lang/tova/internal/ast"
	"github.com/tova-lang/tova/internal/lexer"
)

// expr infers the type of an expression, reporting problems along the way.
// It never returns nil; unknown is TypeAny.
func (a *Analyzer) expr(e ast.Expression, scope *Scope) *Type {
	switch ex := e.(type) {
	case *ast.IntLit:
		return TypeInt
	case *ast.FloatLit:
		return TypeFloat
	case *ast.StringLit:
		for _, part := range ex.Parts {
			if part.Expr != nil {
				a.expr(part.Expr, scope)
			}
		}
		return TypeString
	case *ast.BoolLit:
		return TypeBool
	case *ast.NilLit:
		return TypeNil
	case *ast.Identifier:
		return a.identifier(ex, scope)
	case *ast.BinaryExpr:
		return a.binary(ex, scope)
	case *ast.UnaryExpr:
		return a.unary(ex, scope)
	case *ast.RangeExpr:
		return a.rangeExpr(ex, scope)
	case *ast.CallExpr:
		return a.call(ex, scope)
	case *ast.FieldAccessExpr:
		a.expr(ex.Object, scope)
		return TypeAny
	case *ast.IndexExpr:
		return a.index(ex, scope)
	case *ast.SliceExpr:
		t := a.expr(ex.Object, scope)
		for _, bound := range []ast.Expression{ex.Start, ex.Stop, ex.Step} {
			if bound != nil {
				bt := a.expr(bound, scope)
				if known(bt) && bt.Name != "Int" {
					line, col := bound.Pos()
					a.diags.Errorf(line, col, "slice bound must be Int, got %s", bt)
				}
			}
		}
		return t
	case *ast.ArrayLit:
		return a.arrayLit(ex, scope)
	case *ast.TupleLit:
		t := &Type{Name: "Tuple"}
		for _, el := range ex.Elements {
			t.Elems = append(t.Elems, a.expr(el, scope))
		}
		return t
	case *ast.RecordLit:
		seen := map[string]bool{}
		for i, key := range ex.Keys {
			if seen[key] {
				a.diags.Errorf(ex.Line, ex.Column, "duplicate key '%s' in record", key)
			}
			seen[key] = true
			a.expr(ex.Values[i], scope)
		}
		return &Type{Name: "Record"}
	case *ast.LambdaExpr:
		return a.lambda(ex, scope)
	case *ast.AwaitExpr:
		if len(a.asyncStack) == 0 || !a.asyncStack[len(a.asyncStack)-1] {
			a.diags.ErrorWithHint(ex.Line, ex.Column,
				"'await' is only allowed inside an async function",
				"mark the enclosing function 'async'")
		}
		a.expr(ex.Expr, scope)
		return TypeAny
	case *ast.SpawnExpr:
		if a.concurrentDepth == 0 {
			a.diags.ErrorWithHint(ex.Line, ex.Column,
				"'spawn' is only allowed inside a concurrent block",
				"wrap it in 'concurrent { ... }'")
		}
		a.expr(ex.Call, scope)
		return TypeAny
	case *ast.PropagateExpr:
		if len(a.returnStack) == 0 {
			a.diags.Errorf(ex.Line, ex.Column, "'?' outside of a function")
		}
		a.expr(ex.Expr, scope)
		return TypeAny
	case *ast.IfExpr:
		return a.ifExpr(ex, scope)
	case *ast.MatchExpr:
		return a.match(ex, scope)
	case *ast.JSXElement:
		return a.jsxElement(ex, scope)
	case *ast.JSXIf:
		for _, branch := range ex.Branches {
			a.checkCondition(branch.Condition, scope)
			a.jsxChildren(branch.Children, scope)
		}
		a.jsxChildren(ex.Else, scope)
		return &Type{Name: "Element"}
	case *ast.JSXFor:
		a.jsxFor(ex, scope)
		return &Type{Name: "Element"}
	default:
		line, col := e.Pos()
		a.diags.Errorf(line, col, "internal: unhandled expression %T", e)
		return TypeAny
	}
}

func (a *Analyzer) identifier(id *ast.Identifier, scope *Scope) *Type {
	sym := scope.Resolve(id.Name)
	if sym == nil {
		msg := fmt.Sprintf("undefined name '%s'", id.Name)
		if near := suggest(id.Name, scope.Names()); near != "" {
			a.diags.ErrorWithHint(id.Line, id.Column, msg,
				fmt.Sprintf("did you mean '%s'?", near))
		} else {
			a.diags.Errorf(id.Line, id.Column, "%s", msg)
		}
		return TypeAny
	}
	sym.Used = true
	if sym.Type == nil {
		return TypeAny
	}
	return sym.Type
}

func (a *Analyzer) binary(ex *ast.BinaryExpr, scope *Scope) *Type {
	left := a.expr(ex.Left, scope)
	right := a.expr(ex.Right, scope)

	switch ex.Op {
	case lexer.PLUS:
		return a.arith(ex, left, right, true)
	case lexer.MINUS, lexer.SLASH, lexer.PERCENT:
		return a.arith(ex, left, right, false)
	case lexer.STAR:
		// string repetition: "ha" * 3. Only a literal qualifies; a String
		// variable on the left is an ordinary operand error.
		if _, lit := ex.Left.(*ast.StringLit); lit && known(left) && left.Name == "String" {
			if known(right) && right.Name != "Int" {
				a.diags.Errorf(ex.Line, ex.Column,
					"cannot repeat String by %s", right)
			}
			return TypeString
		}
		return a.arith(ex, left, right, false)
	case lexer.POWER:
		return a.arith(ex, left, right, false)
	case lexer.EQ, lexer.NEQ:
		return TypeBool
	case lexer.LT, lexer.GT, lexer.LEQ, lexer.GEQ:
		if known(left) && known(right) {
			if !comparable(left, right) {
				a.diags.Errorf(ex.Line, ex.Column,
					"cannot compare %s and %s", left, right)
			}
		}
		return TypeBool
	case lexer.AMP_AMP, lexer.PIPE_PIPE:
		for _, side := range []*Type{left, right} {
			if known(side) && side.Name != "Bool" {
				a.diags.Errorf(ex.Line, ex.Column,
					"logical operand must be Bool, got %s", side)
				break
			}
		}
		return TypeBool
	case lexer.COALESCE:
		if known(right) {
			return right
		}
		return TypeAny
	case lexer.PIPE_OP:
		return a.pipe(ex, left, scope)
	default:
		return TypeAny
	}
}

// arith types a numeric binary operation; allowString admits String + String
func (a *Analyzer) arith(ex *ast.BinaryExpr, left, right *Type, allowString bool) *Type {
	if !known(left) || !known(right) {
		return TypeAny
	}
	if allowString && left.Name == "String" && right.Name == "String" {
		return TypeString
	}
	ln, rn := numeric(left), numeric(right)
	if !ln || !rn {
		hint := ""
		if allowString && (left.Name == "String" || right.Name == "String") {
			hint = "use toString(...) to build strings from other values"
		}
		msg := fmt.Sprintf("invalid operands %s and %s for '%s'", left, right, opSpelling(ex.Op))
		if hint != "" {
			a.diags.ErrorWithHint(ex.Line, ex.Column, msg, hint)
		} else {
			a.diags.Errorf(ex.Line, ex.Column, "%s", msg)
		}
		return TypeAny
	}
	if left.Name == "Float" || right.Name == "Float" {
		return TypeFloat
	}
	return TypeInt
}

// pipe types `value |> f` as a call of f with value prepended
func (a *Analyzer) pipe(ex *ast.BinaryExpr, left *Type, scope *Scope) *Type {
	_ = left
	switch target := ex.Right.(type) {
	case *ast.Identifier:
		t := a.identifier(target, scope)
		if known(t) && !t.IsFn {
			a.diags.Errorf(ex.Line, ex.Column, "'%s' is not callable", target.Name)
			return TypeAny
		}
		if t.IsFn && known(t.Return) {
			return t.Return
		}
		return TypeAny
	case *ast.CallExpr:
		return a.call(target, scope)
	default:
		rt := a.expr(ex.Right, scope)
		if known(rt) && !rt.IsFn {
			line, col := ex.Right.Pos()
			a.diags.Errorf(line, col, "right side of '|>' must be callable")
		}
		return TypeAny
	}
}

func (a *Analyzer) unary(ex *ast.UnaryExpr, scope *Scope) *Type {
	t := a.expr(ex.Operand, scope)
	switch ex.Op {
	case lexer.MINUS:
		if known(t) && !numeric(t) {
			a.diags.Errorf(ex.Line, ex.Column, "cannot negate %s", t)
			return TypeAny
		}
		return t
	case lexer.BANG:
		if known(t) && t.Name != "Bool" {
			a.diags.Errorf(ex.Line, ex.Column, "'!' operand must be Bool, got %s", t)
		}
		return TypeBool
	}
	return TypeAny
}

func (a *Analyzer) rangeExpr(ex *ast.RangeExpr, scope *Scope) *Type {
	for _, bound := range []ast.Expression{ex.Start, ex.End} {
		t := a.expr(bound, scope)
		if known(t) && t.Name != "Int" {
			line, col := bound.Pos()
			a.diags.Errorf(line, col, "range bound must be Int, got %s", t)
		}
	}
	return &Type{Name: "Range", Elem: TypeInt}
}

func (a *Analyzer) call(ex *ast.CallExpr, scope *Scope) *Type {
	var calleeType *Type
	if id, ok := ex.Callee.(*ast.Identifier); ok {
		calleeType = a.identifier(id, scope)
		if known(calleeType) && !calleeType.IsFn {
			a.diags.Errorf(ex.Line, ex.Column, "'%s' is not callable", id.Name)
			calleeType = TypeAny
		}
	} else {
		calleeType = a.expr(ex.Callee, scope)
	}

	argTypes := make([]*Type, len(ex.Args))
	for i, arg := range ex.Args {
		argTypes[i] = a.expr(arg, scope)
	}

	if !known(calleeType) || !calleeType.IsFn {
		return TypeAny
	}
	if calleeType.Params != nil && len(argTypes) != len(calleeType.Params) {
		a.diags.Errorf(ex.Line, ex.Column,
			"expected %d arguments, got %d", len(calleeType.Params), len(argTypes))
	} else {
		for i, want := range calleeType.Params {
			if i >= len(argTypes) {
				break
			}
			if !assignable(want, argTypes[i]) {
				line, col := ex.Args[i].Pos()
				msg := fmt.Sprintf("argument %d: cannot pass %s where %s is expected",
					i+1, argTypes[i], want)
				if want.Name == "Int" && argTypes[i].Name == "Float" {
					a.diags.ErrorWithHint(line, col, msg, "use toInt(...) to convert explicitly")
				} else {
					a.diags.Errorf(line, col, "%s", msg)
				}
			}
		}
	}
	if known(calleeType.Return) {
		return calleeType.Return
	}
	return TypeAny
}

func (a *Analyzer) index(ex *ast.IndexExpr, scope *Scope) *Type {
	objType := a.expr(ex.Object, scope)
	idxType := a.expr(ex.Index, scope)

	if known(objType) {
		switch objType.Name {
		case "Array":
			if known(idxType) && idxType.Name != "Int" {
				line, col := ex.Index.Pos()
				a.diags.Errorf(line, col, "array index must be Int, got %s", idxType)
			}
			if objType.Elem != nil {
				return objType.Elem
			}
			return TypeAny
		case "String":
			return TypeString
		case "Record", "Tuple", "Any":
			return TypeAny
		default:
			a.diags.Errorf(ex.Line, ex.Column, "cannot index %s", objType)
		}
	}
	return TypeAny
}

func (a *Analyzer) arrayLit(ex *ast.ArrayLit, scope *Scope) *Type {
	elem := TypeAny
	for i, el := range ex.Elements {
		t := a.expr(el, scope)
		if i == 0 {
			elem = t
			continue
		}
		if known(elem) && known(t) && elem.Name != t.Name {
			elem = TypeAny
		}
	}
	return &Type{Name: "Array", Elem: elem}
}

func (a *Analyzer) lambda(ex *ast.LambdaExpr, scope *Scope) *Type {
	fnType := &Type{Name: "Fn", IsFn: true, Return: TypeAny}
	lambdaScope := NewScope(scope)
	for _, p := range ex.Params {
		pt := a.resolveType(p.Type)
		fnType.Params = append(fnType.Params, pt)
		lambdaScope.Define(&Symbol{
			Name: p.Name, Type: pt, Kind: SymParam,
			Line: p.Line, Column: p.Column,
		})
	}

	a.asyncStack = append(a.asyncStack, ex.IsAsync)
	a.returnStack = append(a.returnStack, TypeAny)
	a.fnNameStack = append(a.fnNameStack, "lambda")
	savedLoop := a.loopDepth
	a.loopDepth = 0

	if ex.Body != nil {
		for _, s := range ex.Body.Statements {
			a.stmt(s, lambdaScope)
		}
	} else {
		fnType.Return = a.expr(ex.Expr, lambdaScope)
	}

	a.loopDepth = savedLoop
	a.asyncStack = a.asyncStack[:len(a.asyncStack)-1]
	a.returnStack = a.returnStack[:len(a.returnStack)-1]
	a.fnNameStack = a.fnNameStack[:len(a.fnNameStack)-1]
	return fnType
}

func (a *Analyzer) ifExpr(ex *ast.IfExpr, scope *Scope) *Type {
	a.checkCondition(ex.Condition, scope)
	thenType := a.expr(ex.Then, scope)
	if ex.Else == nil {
		a.diags.ErrorWithHint(ex.Line, ex.Column,
			"if expression requires an else branch",
			"every branch of an if expression must yield a value")
		return TypeAny
	}
	elseType := a.expr(ex.Else, scope)
	if known(thenType) && known(elseType) && thenType.Name == elseType.Name {
		return thenType
	}
	return TypeAny
}

func (a *Analyzer) jsxElement(ex *ast.JSXElement, scope *Scope) *Type {
	if isUpperStart(ex.Tag) {
		// component reference: must resolve to something callable
		sym := scope.Resolve(ex.Tag)
		if sym == nil {
			msg := fmt.Sprintf("undefined component '%s'", ex.Tag)
			if near := suggest(ex.Tag, scope.Names()); near != "" {
				a.diags.ErrorWithHint(ex.Line, ex.Column, msg,
					fmt.Sprintf("did you mean '%s'?", near))
			} else {
				a.diags.Errorf(ex.Line, ex.Column, "%s", msg)
			}
		} else {
			sym.Used = true
		}
	}
	for _, attr := range ex.Attrs {
		if attr.Value != nil {
			a.expr(attr.Value, scope)
		}
	}
	a.jsxChildren(ex.Children, scope)
	return &Type{Name: "Element"}
}

func (a *Analyzer) jsxChildren(children []ast.JSXChild, scope *Scope) {
	for _, child := range children {
		switch c := child.(type) {
		case *ast.JSXText:
		case *ast.JSXExprChild:
			a.expr(c.Expr, scope)
		case *ast.JSXElement:
			a.jsxElement(c, scope)
		case *ast.JSXIf:
			for _, branch := range c.Branches {
				a.checkCondition(branch.Condition, scope)
				a.jsxChildren(branch.Children, scope)
			}
			a.jsxChildren(c.Else, scope)
		case *ast.JSXFor:
			a.jsxFor(c, scope)
		}
	}
}

func (a *Analyzer) jsxFor(ex *ast.JSXFor, scope *Scope) {
	iterType := a.expr(ex.Iterable, scope)
	elem := TypeAny
	if known(iterType) && (iterType.Name == "Array" || iterType.Name == "Range") && iterType.Elem != nil {
		elem = iterType.Elem
	}
	loopScope := NewScope(scope)
	loopScope.Define(&Symbol{
		Name: ex.Variable, Type: elem, Kind: SymVariable, Used: true,
		Line: ex.Line, Column: ex.Column,
	})
	if ex.Index != "" {
		loopScope.Define(&Symbol{
			Name: ex.Index, Type: TypeInt, Kind: SymVariable, Used: true,
			Line: ex.Line, Column: ex.Column,
		})
	}
	a.jsxChildren(ex.Children, loopScope)
}

func isUpperStart(s string) bool {
	return len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z'
}

func numeric(t *Type) bool {
	return t.Name == "Int" || t.Name == "Float"
}

func comparable(a, b *Type) bool {
	if numeric(a) && numeric(b) {
		return true
	}
	return a.Name == b.Name
}

func opSpelling(op lexer.TokenType) string {
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
	default:
		return op.String()
	}
}
