package analyzer

import (
	"fmt"

	"github.com/tova-lang/tova/internal/ast"
	"github.com/tova-lang/tova/internal/diagnostic"
)

// AnalysisError aggregates every error found during a full walk of the
// program. Unlike syntax errors, analysis does not stop at the first
// problem.
type AnalysisError struct {
	Diags *diagnostic.Diagnostics
	File  string
}

func (e *AnalysisError) Error() string {
	return e.Diags.Format(e.File)
}

// Result carries the diagnostics of an analysis run
type Result struct {
	Diags *diagnostic.Diagnostics
}

// Analyzer walks a parsed program, checking names, mutability, gradual
// types, and match exhaustiveness
type Analyzer struct {
	diags *diagnostic.Diagnostics
	file  string

	types    map[string]*ADTInfo
	variants map[string][]*ADTInfo // variant name -> owning types; unrelated ADTs may share names

	tolerant bool

	asyncStack      []bool
	returnStack     []*Type
	fnNameStack     []string
	loopDepth       int
	concurrentDepth int
	region          string
}

// New creates an analyzer reporting against the given filename. Tolerant
// mode still records errors but Analyze does not fail on them, so callers
// can surface partial results in editors.
func New(file string, tolerant bool) *Analyzer {
	return &Analyzer{
		diags:    diagnostic.New(),
		file:     file,
		types:    make(map[string]*ADTInfo),
		variants: make(map[string][]*ADTInfo),
		tolerant: tolerant,
	}
}

// Diagnostics returns the analyzer's diagnostics
func (a *Analyzer) Diagnostics() *diagnostic.Diagnostics {
	return a.diags
}

// Analyze checks the whole program. The returned Result always carries the
// full diagnostic set; the error is non-nil only when errors were found and
// the analyzer is not tolerant.
func (a *Analyzer) Analyze(prog *ast.Program) (*Result, error) {
	global := NewScope(nil)
	a.installBuiltins(global)

	// hoist types and functions so order of declaration never matters
	a.hoist(prog.Decls, global, "")
	for _, region := range prog.Regions {
		if region.Body != nil {
			a.hoist(region.Body.Statements, global, region.Kind)
		}
	}

	for _, s := range prog.Decls {
		a.stmt(s, global)
	}
	for _, region := range prog.Regions {
		a.checkRegion(region, global)
	}

	result := &Result{Diags: a.diags}
	if a.diags.HasErrors() && !a.tolerant {
		return result, &AnalysisError{Diags: a.diags, File: a.file}
	}
	return result, nil
}

func (a *Analyzer) checkRegion(region *ast.RegionDecl, global *Scope) {
	if region.Body == nil {
		// config region: entry values must still be well-formed expressions
		a.checkConfigEntries(region.Entries, global)
		return
	}
	prev := a.region
	a.region = region.Kind
	scope := NewScope(global)
	for _, s := range region.Body.Statements {
		a.stmt(s, scope)
	}
	a.warnUnused(scope)
	a.region = prev
}

func (a *Analyzer) checkConfigEntries(entries []*ast.ConfigEntry, scope *Scope) {
	for _, e := range entries {
		if e.Value != nil {
			a.expr(e.Value, scope)
		}
		a.checkConfigEntries(e.Children, scope)
	}
}

// hoist registers top-level types and functions ahead of the main walk
func (a *Analyzer) hoist(stmts []ast.Statement, scope *Scope, region string) {
	for _, s := range stmts {
		switch decl := s.(type) {
		case *ast.TypeDecl:
			a.hoistType(decl, scope, region)
		case *ast.FnDecl:
			a.hoistFn(decl, scope, region)
		}
	}
}

func (a *Analyzer) hoistType(decl *ast.TypeDecl, scope *Scope, region string) {
	if _, exists := a.types[decl.Name]; exists {
		a.diags.Errorf(decl.Line, decl.Column, "type '%s' is already defined", decl.Name)
		return
	}
	info := &ADTInfo{Name: decl.Name}
	a.types[decl.Name] = info

	adtType := &Type{Name: decl.Name, IsADT: true, ADT: info}
	scope.Define(&Symbol{
		Name: decl.Name, Type: adtType, Kind: SymType, Region: region,
		Used: true, Line: decl.Line, Column: decl.Column,
	})

	for _, v := range decl.Variants {
		if info.Variant(v.Name) != nil {
			a.diags.Errorf(v.Line, v.Column,
				"variant '%s' appears twice in type '%s'", v.Name, decl.Name)
			continue
		}
		vi := &VariantInfo{Name: v.Name}
		for _, f := range v.Fields {
			vi.Fields = append(vi.Fields, FieldInfo{Name: f.Name, Type: a.resolveType(f.Type)})
		}
		info.Variants = append(info.Variants, vi)
		// unrelated types may reuse a variant name; patterns pick the owner
		// by scrutinee type
		a.variants[v.Name] = append(a.variants[v.Name], info)

		ctor := &Type{Name: "Fn", IsFn: true, Return: adtType}
		for _, f := range vi.Fields {
			ctor.Params = append(ctor.Params, f.Type)
		}
		scope.Define(&Symbol{
			Name: v.Name, Type: ctor, Kind: SymVariant, Region: region,
			Used: true, Line: v.Line, Column: v.Column,
		})
	}
}

func (a *Analyzer) hoistFn(decl *ast.FnDecl, scope *Scope, region string) {
	if existing := scope.ResolveLocal(decl.Name); existing != nil {
		a.diags.Errorf(decl.Line, decl.Column, "'%s' is already defined", decl.Name)
		return
	}
	fnType := &Type{Name: "Fn", IsFn: true, Return: a.resolveType(decl.ReturnType)}
	for _, p := range decl.Params {
		fnType.Params = append(fnType.Params, a.resolveType(p.Type))
	}
	scope.Define(&Symbol{
		Name: decl.Name, Type: fnType, Kind: SymFunction, Region: region,
		Line: decl.Line, Column: decl.Column,
	})
}

func (a *Analyzer) stmt(s ast.Statement, scope *Scope) {
	switch stmt := s.(type) {
	case *ast.FnDecl:
		a.checkFn(stmt, scope)
	case *ast.TypeDecl:
		// hoisted; nested declarations are rejected there
	case *ast.BindingStmt:
		a.checkBinding(stmt, scope)
	case *ast.AssignStmt:
		a.expr(stmt.Target, scope)
		a.expr(stmt.Value, scope)
	case *ast.ExprStmt:
		a.expr(stmt.Expr, scope)
	case *ast.ReturnStmt:
		a.checkReturn(stmt, scope)
	case *ast.BreakStmt:
		if a.loopDepth == 0 {
			a.diags.Errorf(stmt.Line, stmt.Column, "'break' outside of a loop")
		}
	case *ast.ContinueStmt:
		if a.loopDepth == 0 {
			a.diags.Errorf(stmt.Line, stmt.Column, "'continue' outside of a loop")
		}
	case *ast.IfStmt:
		a.checkCondition(stmt.Condition, scope)
		a.checkBlock(stmt.Then, scope)
		if stmt.Else != nil {
			a.stmt(stmt.Else, scope)
		}
	case *ast.Block:
		a.checkBlock(stmt, scope)
	case *ast.GuardStmt:
		a.checkCondition(stmt.Condition, scope)
		a.checkBlock(stmt.Else, scope)
		if !blockDiverges(stmt.Else) {
			a.diags.ErrorWithHint(stmt.Line, stmt.Column,
				"guard else block must exit",
				"end the block with return, break, or continue")
		}
	case *ast.ForInStmt:
		a.checkForIn(stmt, scope)
	case *ast.WhileStmt:
		a.checkCondition(stmt.Condition, scope)
		a.loopDepth++
		a.checkBlock(stmt.Body, scope)
		a.loopDepth--
	case *ast.TryStmt:
		a.checkBlock(stmt.Body, scope)
		if stmt.Catch != nil {
			catchScope := NewScope(scope)
			if stmt.CatchName != "" {
				catchScope.Define(&Symbol{
					Name: stmt.CatchName, Type: TypeAny, Kind: SymVariable,
					Used: true, Line: stmt.Line, Column: stmt.Column,
				})
			}
			for _, s := range stmt.Catch.Statements {
				a.stmt(s, catchScope)
			}
		}
		if stmt.Finally != nil {
			a.checkBlock(stmt.Finally, scope)
		}
	case *ast.ConcurrentStmt:
		a.checkConcurrent(stmt, scope)
	case *ast.SelectStmt:
		a.checkSelect(stmt, scope)
	case *ast.StyleStmt:
		// raw CSS, nothing to check
	default:
		line, col := s.Pos()
		a.diags.Errorf(line, col, "internal: unhandled statement %T", s)
	}
}

// checkBlock analyzes statements in a fresh child scope
func (a *Analyzer) checkBlock(block *ast.Block, scope *Scope) {
	inner := NewScope(scope)
	for _, s := range block.Statements {
		a.stmt(s, inner)
	}
	a.warnUnused(inner)
}

func (a *Analyzer) checkFn(decl *ast.FnDecl, scope *Scope) {
	if scope.ResolveLocal(decl.Name) == nil {
		// nested function: not hoisted, define here
		a.hoistFn(decl, scope, a.region)
	}

	fnScope := NewScope(scope)
	for _, p := range decl.Params {
		if fnScope.ResolveLocal(p.Name) != nil {
			a.diags.Errorf(p.Line, p.Column, "duplicate parameter '%s'", p.Name)
			continue
		}
		fnScope.Define(&Symbol{
			Name: p.Name, Type: a.resolveType(p.Type), Kind: SymParam,
			Line: p.Line, Column: p.Column,
		})
	}

	retType := a.resolveType(decl.ReturnType)
	a.asyncStack = append(a.asyncStack, decl.IsAsync)
	a.returnStack = append(a.returnStack, retType)
	a.fnNameStack = append(a.fnNameStack, decl.Name)
	savedLoop := a.loopDepth
	a.loopDepth = 0

	for _, s := range decl.Body.Statements {
		a.stmt(s, fnScope)
	}
	a.warnUnused(fnScope)

	a.loopDepth = savedLoop
	a.asyncStack = a.asyncStack[:len(a.asyncStack)-1]
	a.returnStack = a.returnStack[:len(a.returnStack)-1]
	a.fnNameStack = a.fnNameStack[:len(a.fnNameStack)-1]

	if decl.ReturnType != nil && retType != TypeVoid && !blockReturns(decl.Body) {
		a.diags.ErrorWithHint(decl.Line, decl.Column,
			fmt.Sprintf("not all paths in '%s' return a value", decl.Name),
			fmt.Sprintf("'%s' declares return type %s", decl.Name, retType))
	}
}

func (a *Analyzer) checkBinding(stmt *ast.BindingStmt, scope *Scope) {
	valueType := a.expr(stmt.Value, scope)

	if stmt.Mutable {
		if scope.ResolveLocal(stmt.Name) != nil {
			a.diags.Errorf(stmt.Line, stmt.Column, "'%s' is already defined in this scope", stmt.Name)
			return
		}
		declared := valueType
		if stmt.Type != nil {
			declared = a.resolveType(stmt.Type)
			a.checkAssignable(declared, valueType, stmt.Line, stmt.Column, stmt.Name)
		}
		a.defineBinding(stmt, declared, true, scope)
		return
	}

	if stmt.Type != nil {
		// typed declaration is always a fresh binding
		if scope.ResolveLocal(stmt.Name) != nil {
			a.diags.Errorf(stmt.Line, stmt.Column, "'%s' is already defined in this scope", stmt.Name)
			return
		}
		declared := a.resolveType(stmt.Type)
		a.checkAssignable(declared, valueType, stmt.Line, stmt.Column, stmt.Name)
		a.defineBinding(stmt, declared, false, scope)
		return
	}

	existing := scope.Resolve(stmt.Name)
	if existing == nil {
		a.defineBinding(stmt, valueType, false, scope)
		return
	}

	switch existing.Kind {
	case SymVariable, SymParam:
		if !existing.Mutable {
			a.diags.ErrorWithHint(stmt.Line, stmt.Column,
				fmt.Sprintf("cannot reassign immutable binding '%s'", stmt.Name),
				fmt.Sprintf("declare it with 'var %s = ...' to allow reassignment", stmt.Name))
			return
		}
		existing.Used = true
		a.checkAssignable(existing.Type, valueType, stmt.Line, stmt.Column, stmt.Name)
	default:
		a.diags.Errorf(stmt.Line, stmt.Column,
			"cannot assign to %s '%s'", existing.Kind, stmt.Name)
	}
}

func (a *Analyzer) defineBinding(stmt *ast.BindingStmt, t *Type, mutable bool, scope *Scope) {
	if outer := scope.Resolve(stmt.Name); outer != nil && scope.ResolveLocal(stmt.Name) == nil {
		if outer.Kind == SymVariable || outer.Kind == SymParam {
			a.diags.Warningf(stmt.Line, stmt.Column,
				"declaration of '%s' shadows an outer binding", stmt.Name)
		}
	}
	scope.Define(&Symbol{
		Name: stmt.Name, Type: t, Mutable: mutable, Kind: SymVariable,
		Region: a.region, Line: stmt.Line, Column: stmt.Column,
	})
}

// checkAssignable reports an error when a known value type cannot flow into
// a known destination type, with conversion hints for the numeric cases
func (a *Analyzer) checkAssignable(dst, src *Type, line, col int, name string) {
	if assignable(dst, src) {
		return
	}
	msg := fmt.Sprintf("cannot assign %s to '%s' of type %s", src, name, dst)
	hint := ""
	switch {
	case dst.Name == "Int" && src.Name == "Float":
		hint = "use toInt(...) to convert explicitly"
	case dst.Name == "String":
		hint = "use toString(...) to convert explicitly"
	case dst.Name == "Float":
		hint = "use toFloat(...) to convert explicitly"
	}
	if hint != "" {
		a.diags.ErrorWithHint(line, col, msg, hint)
	} else {
		a.diags.Errorf(line, col, "%s", msg)
	}
}

func (a *Analyzer) checkReturn(stmt *ast.ReturnStmt, scope *Scope) {
	if len(a.returnStack) == 0 {
		a.diags.Errorf(stmt.Line, stmt.Column, "'return' outside of a function")
		if stmt.Value != nil {
			a.expr(stmt.Value, scope)
		}
		return
	}
	want := a.returnStack[len(a.returnStack)-1]
	if stmt.Value == nil {
		if known(want) && want != TypeVoid {
			a.diags.Errorf(stmt.Line, stmt.Column,
				"missing return value: '%s' returns %s",
				a.fnNameStack[len(a.fnNameStack)-1], want)
		}
		return
	}
	got := a.expr(stmt.Value, scope)
	if known(want) && want != TypeVoid && !assignable(want, got) {
		hint := ""
		if want.Name == "Int" && got.Name == "Float" {
			hint = "use toInt(...) to convert explicitly"
		}
		msg := fmt.Sprintf("cannot return %s from '%s' declared to return %s",
			got, a.fnNameStack[len(a.fnNameStack)-1], want)
		if hint != "" {
			a.diags.ErrorWithHint(stmt.Line, stmt.Column, msg, hint)
		} else {
			a.diags.Errorf(stmt.Line, stmt.Column, "%s", msg)
		}
	}
}

func (a *Analyzer) checkCondition(cond ast.Expression, scope *Scope) {
	t := a.expr(cond, scope)
	if known(t) && t.Name != "Bool" {
		line, col := cond.Pos()
		a.diags.Errorf(line, col, "condition must be Bool, got %s", t)
	}
}

func (a *Analyzer) checkForIn(stmt *ast.ForInStmt, scope *Scope) {
	iterType := a.expr(stmt.Iterable, scope)

	elem := TypeAny
	if known(iterType) {
		switch iterType.Name {
		case "Array", "Range", "Channel":
			if iterType.Elem != nil {
				elem = iterType.Elem
			}
		case "String":
			elem = TypeString
		default:
			line, col := stmt.Iterable.Pos()
			a.diags.Errorf(line, col, "cannot iterate over %s", iterType)
		}
	}

	bodyScope := NewScope(scope)
	bodyScope.Define(&Symbol{
		Name: stmt.Variable, Type: elem, Kind: SymVariable,
		Line: stmt.Line, Column: stmt.Column,
	})
	if stmt.Index != "" {
		bodyScope.Define(&Symbol{
			Name: stmt.Index, Type: TypeInt, Kind: SymVariable,
			Line: stmt.Line, Column: stmt.Column,
		})
	}

	a.loopDepth++
	for _, s := range stmt.Body.Statements {
		a.stmt(s, bodyScope)
	}
	a.loopDepth--
	a.warnUnused(bodyScope)

	if stmt.Else != nil {
		a.checkBlock(stmt.Else, scope)
	}
}

// requireAsyncContext rejects constructs that lower to 'await' when they sit
// inside a function not marked async. Region top level is fine: modules may
// await.
func (a *Analyzer) requireAsyncContext(what string, line, col int) {
	if len(a.asyncStack) > 0 && !a.asyncStack[len(a.asyncStack)-1] {
		a.diags.ErrorWithHint(line, col,
			fmt.Sprintf("'%s' is only allowed inside an async function", what),
			"mark the enclosing function 'async'")
	}
}

func (a *Analyzer) checkConcurrent(stmt *ast.ConcurrentStmt, scope *Scope) {
	a.requireAsyncContext("concurrent", stmt.Line, stmt.Column)
	if stmt.Timeout != nil {
		t := a.expr(stmt.Timeout, scope)
		if known(t) && t.Name != "Int" {
			line, col := stmt.Timeout.Pos()
			a.diags.Errorf(line, col, "timeout must be Int milliseconds, got %s", t)
		}
	}

	a.concurrentDepth++
	// spawn results land in the enclosing scope, one binding per entry
	for _, s := range stmt.Body.Statements {
		switch entry := s.(type) {
		case *ast.BindingStmt:
			spawn := entry.Value.(*ast.SpawnExpr)
			a.expr(spawn, scope)
			if scope.ResolveLocal(entry.Name) != nil {
				a.diags.Errorf(entry.Line, entry.Column,
					"'%s' is already defined in this scope", entry.Name)
				continue
			}
			scope.Define(&Symbol{
				Name: entry.Name, Type: TypeAny, Kind: SymVariable,
				Region: a.region, Line: entry.Line, Column: entry.Column,
			})
		case *ast.ExprStmt:
			a.expr(entry.Expr, scope)
		}
	}
	a.concurrentDepth--
}

func (a *Analyzer) checkSelect(stmt *ast.SelectStmt, scope *Scope) {
	a.requireAsyncContext("select", stmt.Line, stmt.Column)
	for _, c := range stmt.Cases {
		caseScope := NewScope(scope)
		switch c.Kind {
		case ast.SelectRecv:
			chType := a.expr(c.Channel, scope)
			elem := TypeAny
			if known(chType) {
				if chType.Name != "Channel" {
					line, col := c.Channel.Pos()
					a.diags.Errorf(line, col, "cannot receive from %s", chType)
				} else if chType.Elem != nil {
					elem = chType.Elem
				}
			}
			caseScope.Define(&Symbol{
				Name: c.Binding, Type: elem, Kind: SymVariable,
				Line: c.Line, Column: c.Column,
			})
		case ast.SelectSend:
			chType := a.expr(c.Channel, scope)
			if known(chType) && chType.Name != "Channel" {
				line, col := c.Channel.Pos()
				a.diags.Errorf(line, col, "cannot send to %s", chType)
			}
			a.expr(c.Value, scope)
		case ast.SelectTimeout:
			t := a.expr(c.Value, scope)
			if known(t) && t.Name != "Int" {
				line, col := c.Value.Pos()
				a.diags.Errorf(line, col, "timeout must be Int milliseconds, got %s", t)
			}
		}
		for _, s := range c.Body.Statements {
			a.stmt(s, caseScope)
		}
		a.warnUnused(caseScope)
	}
}

// warnUnused reports bindings that were never read. Underscore-prefixed
// names opt out.
func (a *Analyzer) warnUnused(scope *Scope) {
	for _, sym := range scope.Locals() {
		if sym.Used || sym.Kind != SymVariable {
			continue
		}
		if len(sym.Name) > 0 && sym.Name[0] == '_' {
			continue
		}
		a.diags.WarningWithHint(sym.Line, sym.Column,
			fmt.Sprintf("'%s' is never used", sym.Name),
			fmt.Sprintf("rename it to '_%s' to keep it intentionally", sym.Name))
	}
}

func (a *Analyzer) installBuiltins(scope *Scope) {
	builtin := func(name string, params []*Type, ret *Type) {
		scope.Define(&Symbol{
			Name: name, Kind: SymBuiltin, Used: true,
			Type: &Type{Name: "Fn", IsFn: true, Params: params, Return: ret},
		})
	}
	builtin("print", []*Type{TypeAny}, TypeVoid)
	builtin("len", []*Type{TypeAny}, TypeInt)
	builtin("toInt", []*Type{TypeAny}, TypeInt)
	builtin("toFloat", []*Type{TypeAny}, TypeFloat)
	builtin("toString", []*Type{TypeAny}, TypeString)
	builtin("sleep", []*Type{TypeInt}, TypeVoid)
	builtin("fetch", []*Type{TypeString}, TypeAny)
	builtin("mount", []*Type{TypeString, TypeAny}, TypeVoid)
	builtin("Channel", nil, &Type{Name: "Channel", Elem: TypeAny})
	builtin("Ok", []*Type{TypeAny}, TypeAny)
	builtin("Err", []*Type{TypeAny}, TypeAny)
	builtin("Some", []*Type{TypeAny}, TypeAny)
	scope.Define(&Symbol{Name: "None", Kind: SymBuiltin, Used: true, Type: TypeAny})
}
