package analyzer

import (
	"fmt"

	"github.com/tova-lang/tova/internal/ast"
)

// matchState tracks what the arms seen so far have covered
type matchState struct {
	variants map[string]bool
	bools    map[bool]bool
	catchAll bool
}

func (a *Analyzer) match(ex *ast.MatchExpr, scope *Scope) *Type {
	scrutinee := a.expr(ex.Scrutinee, scope)

	state := &matchState{
		variants: make(map[string]bool),
		bools:    make(map[bool]bool),
	}
	var result *Type

	for _, arm := range ex.Arms {
		if state.catchAll {
			a.diags.Warningf(arm.Line, arm.Column, "unreachable match arm")
		}
		armScope := NewScope(scope)
		a.checkPattern(arm.Pattern, scrutinee, armScope, state, arm.Guard != nil)

		if arm.Guard != nil {
			a.checkCondition(arm.Guard, armScope)
		}

		var bodyType *Type
		if arm.Body != nil {
			bodyType = a.expr(arm.Body, armScope)
		} else {
			for _, s := range arm.Block.Statements {
				a.stmt(s, armScope)
			}
			bodyType = TypeAny
		}
		a.warnUnused(armScope)

		switch {
		case result == nil:
			result = bodyType
		case known(result) && known(bodyType) && result.Name != bodyType.Name:
			result = TypeAny
		}
	}

	a.checkExhaustive(ex, scrutinee, state)
	if result == nil {
		result = TypeAny
	}
	return result
}

func (a *Analyzer) checkPattern(pat *ast.Pattern, scrutinee *Type, scope *Scope, state *matchState, guarded bool) {
	switch pat.Kind {
	case ast.PatternWildcard:
		if !guarded {
			state.catchAll = true
		}
	case ast.PatternBinding:
		scope.Define(&Symbol{
			Name: pat.Binding, Type: scrutinee, Kind: SymVariable,
			Line: pat.Line, Column: pat.Column,
		})
		if !guarded {
			state.catchAll = true
		}
	case ast.PatternLiteral:
		litType := a.expr(pat.Literal, scope)
		if known(scrutinee) && known(litType) && !comparable(scrutinee, litType) {
			a.diags.Errorf(pat.Line, pat.Column,
				"pattern of type %s cannot match %s", litType, scrutinee)
		}
		if b, ok := pat.Literal.(*ast.BoolLit); ok && !guarded {
			state.bools[b.Value] = true
		}
	case ast.PatternRange:
		for _, bound := range []ast.Expression{pat.Start, pat.End} {
			t := a.expr(bound, scope)
			if known(t) && t.Name != "Int" && t.Name != "Float" {
				line, col := bound.Pos()
				a.diags.Errorf(line, col, "range pattern bound must be numeric, got %s", t)
			}
		}
		if known(scrutinee) && !numeric(scrutinee) {
			a.diags.Errorf(pat.Line, pat.Column,
				"range pattern cannot match %s", scrutinee)
		}
	case ast.PatternVariant:
		a.checkVariantPattern(pat, scrutinee, scope, state, guarded)
	}
}

func (a *Analyzer) checkVariantPattern(pat *ast.Pattern, scrutinee *Type, scope *Scope, state *matchState, guarded bool) {
	owners := a.variants[pat.Variant]
	if len(owners) == 0 {
		msg := fmt.Sprintf("unknown variant '%s'", pat.Variant)
		if near := suggest(pat.Variant, a.variantNames()); near != "" {
			a.diags.ErrorWithHint(pat.Line, pat.Column, msg,
				fmt.Sprintf("did you mean '%s'?", near))
		} else {
			a.diags.Errorf(pat.Line, pat.Column, "%s", msg)
		}
		return
	}

	// A typed scrutinee pins the owning ADT; otherwise the first declarer
	// stands in for field typing.
	owner := owners[0]
	if known(scrutinee) && scrutinee.IsADT {
		found := false
		for _, o := range owners {
			if o == scrutinee.ADT {
				owner, found = o, true
				break
			}
		}
		if !found {
			a.diags.Errorf(pat.Line, pat.Column,
				"variant '%s' is not part of type '%s'", pat.Variant, scrutinee.Name)
			return
		}
	}

	variant := owner.Variant(pat.Variant)
	if len(pat.Subpatterns) > 0 && len(pat.Subpatterns) != len(variant.Fields) {
		a.diags.Errorf(pat.Line, pat.Column,
			"variant '%s' has %d fields, pattern binds %d",
			pat.Variant, len(variant.Fields), len(pat.Subpatterns))
	}

	irrefutable := true
	for i, sub := range pat.Subpatterns {
		fieldType := TypeAny
		if i < len(variant.Fields) {
			fieldType = variant.Fields[i].Type
		}
		switch sub.Kind {
		case ast.PatternBinding:
			scope.Define(&Symbol{
				Name: sub.Binding, Type: fieldType, Kind: SymVariable,
				Line: sub.Line, Column: sub.Column,
			})
		case ast.PatternWildcard:
		default:
			subState := &matchState{variants: make(map[string]bool), bools: make(map[bool]bool)}
			a.checkPattern(sub, fieldType, scope, subState, true)
			irrefutable = false
		}
	}

	if !guarded && irrefutable {
		state.variants[pat.Variant] = true
	}
}

func (a *Analyzer) checkExhaustive(ex *ast.MatchExpr, scrutinee *Type, state *matchState) {
	if state.catchAll {
		return
	}
	if !known(scrutinee) {
		return
	}
	switch {
	case scrutinee.IsADT:
		for _, v := range scrutinee.ADT.Variants {
			if !state.variants[v.Name] {
				a.diags.Warningf(ex.Line, ex.Column,
					"match is not exhaustive, missing variant: %s", v.Name)
			}
		}
	case scrutinee.Name == "Bool":
		if !state.bools[true] || !state.bools[false] {
			a.diags.WarningWithHint(ex.Line, ex.Column,
				"match on Bool does not cover both values",
				"add the missing arm or a '_' arm")
		}
	default:
		a.diags.WarningWithHint(ex.Line, ex.Column,
			fmt.Sprintf("match on %s is not exhaustive", scrutinee),
			"add a '_' arm to cover remaining values")
	}
}

func (a *Analyzer) variantNames() []string {
	names := make([]string, 0, len(a.variants))
	for name := range a.variants {
		names = append(names, name)
	}
	return names
}
