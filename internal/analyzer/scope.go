package analyzer

// SymbolKind represents the kind of symbol
type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymFunction
	SymParam
	SymType
	SymVariant
	SymBuiltin
)

// String returns the string representation of the symbol kind
func (sk SymbolKind) String() string {
	switch sk {
	case SymVariable:
		return "variable"
	case SymFunction:
		return "function"
	case SymParam:
		return "parameter"
	case SymType:
		return "type"
	case SymVariant:
		return "variant"
	case SymBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Symbol represents a named binding
type Symbol struct {
	Name    string
	Type    *Type
	Mutable bool
	Kind    SymbolKind
	Region  string // region that declared it; "" for shared/top-level
	Used    bool
	Line    int
	Column  int
}

// Scope represents a lexical scope with a symbol table
type Scope struct {
	parent  *Scope
	symbols map[string]*Symbol
	order   []string // declaration order, for unused-binding reporting
}

// NewScope creates a new scope with an optional parent
func NewScope(parent *Scope) *Scope {
	return &Scope{
		parent:  parent,
		symbols: make(map[string]*Symbol),
	}
}

// Define adds a symbol to the current scope, overwriting any local symbol of
// the same name. Callers check ResolveLocal first when redefinition is an
// error.
func (s *Scope) Define(sym *Symbol) {
	if _, exists := s.symbols[sym.Name]; !exists {
		s.order = append(s.order, sym.Name)
	}
	s.symbols[sym.Name] = sym
}

// Resolve looks up a symbol here and in parent scopes; nil when not found
func (s *Scope) Resolve(name string) *Symbol {
	if sym, ok := s.symbols[name]; ok {
		return sym
	}
	if s.parent != nil {
		return s.parent.Resolve(name)
	}
	return nil
}

// ResolveLocal looks up a symbol only in this scope
func (s *Scope) ResolveLocal(name string) *Symbol {
	return s.symbols[name]
}

// Names collects every visible name, innermost first, for suggestions
func (s *Scope) Names() []string {
	var names []string
	for sc := s; sc != nil; sc = sc.parent {
		names = append(names, sc.order...)
	}
	return names
}

// Locals returns this scope's symbols in declaration order
func (s *Scope) Locals() []*Symbol {
	out := make([]*Symbol, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.symbols[name])
	}
	return out
}
