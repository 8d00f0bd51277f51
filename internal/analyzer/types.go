package analyzer

import (
	"strings"

	"github.com/tova-lang/tova/internal/ast"
)

// Type represents a type in the Tova type system. The system is gradual:
// TypeAny marks a value whose type is unknown, and checks only fire when
// both sides are known.
type Type struct {
	Name   string // "Int", "Float", "String", "Bool", "Nil", "Any", "Void", "Array", ...
	IsADT  bool
	ADT    *ADTInfo
	IsFn   bool
	Params []*Type // IsFn
	Return *Type   // IsFn
	Elem   *Type   // Array / Channel / Range element
	Elems  []*Type // Tuple elements

	Optional bool // T?
}

// ADTInfo holds information about an algebraic data type
type ADTInfo struct {
	Name     string
	Variants []*VariantInfo
}

// VariantInfo holds information about one ADT variant
type VariantInfo struct {
	Name   string
	Fields []FieldInfo
}

// FieldInfo holds information about a variant field
type FieldInfo struct {
	Name string
	Type *Type
}

// Variant looks up a variant by name, nil when absent
func (a *ADTInfo) Variant(name string) *VariantInfo {
	for _, v := range a.Variants {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Builtin types
var (
	TypeInt    = &Type{Name: "Int"}
	TypeFloat  = &Type{Name: "Float"}
	TypeString = &Type{Name: "String"}
	TypeBool   = &Type{Name: "Bool"}
	TypeNil    = &Type{Name: "Nil"}
	TypeAny    = &Type{Name: "Any"}
	TypeVoid   = &Type{Name: "Void"}
)

// known reports whether t carries usable type information
func known(t *Type) bool {
	return t != nil && t != TypeAny
}

// String renders the type for diagnostics
func (t *Type) String() string {
	if t == nil {
		return "Any"
	}
	name := t.Name
	switch {
	case t.IsFn:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		name = "(" + strings.Join(parts, ", ") + ") -> " + t.Return.String()
	case t.Name == "Array" && t.Elem != nil:
		name = "Array<" + t.Elem.String() + ">"
	case t.Name == "Channel" && t.Elem != nil:
		name = "Channel<" + t.Elem.String() + ">"
	case t.Name == "Tuple":
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		name = "(" + strings.Join(parts, ", ") + ")"
	}
	if t.Optional {
		name += "?"
	}
	return name
}

// assignable reports whether a value of type src can flow into dst. Unknown
// on either side always passes; Int widens to Float, never the reverse.
func assignable(dst, src *Type) bool {
	if !known(dst) || !known(src) {
		return true
	}
	if dst.Name == src.Name {
		return true
	}
	if dst.Name == "Float" && src.Name == "Int" {
		return true
	}
	if dst.Optional && src.Name == "Nil" {
		return true
	}
	return false
}

// resolveType turns a syntactic type reference into a Type. Unknown names
// resolve to a named type so ADT references work before use-site checks.
func (a *Analyzer) resolveType(ref *ast.TypeRef) *Type {
	if ref == nil {
		return TypeAny
	}
	var t *Type
	switch ref.Name {
	case "Int":
		t = TypeInt
	case "Float":
		t = TypeFloat
	case "String":
		t = TypeString
	case "Bool":
		t = TypeBool
	case "Nil":
		t = TypeNil
	case "Any":
		t = TypeAny
	case "Void":
		t = TypeVoid
	case "Array":
		elem := TypeAny
		if len(ref.Args) == 1 {
			elem = a.resolveType(ref.Args[0])
		}
		t = &Type{Name: "Array", Elem: elem}
	case "Channel":
		elem := TypeAny
		if len(ref.Args) == 1 {
			elem = a.resolveType(ref.Args[0])
		}
		t = &Type{Name: "Channel", Elem: elem}
	case "Fn":
		fn := &Type{Name: "Fn", IsFn: true, Return: TypeAny}
		if n := len(ref.Args); n > 0 {
			for _, arg := range ref.Args[:n-1] {
				fn.Params = append(fn.Params, a.resolveType(arg))
			}
			fn.Return = a.resolveType(ref.Args[n-1])
		}
		t = fn
	default:
		if info, ok := a.types[ref.Name]; ok {
			t = &Type{Name: ref.Name, IsADT: true, ADT: info}
		} else {
			t = &Type{Name: ref.Name}
		}
	}
	if ref.Optional {
		cp := *t
		cp.Optional = true
		t = &cp
	}
	return t
}
