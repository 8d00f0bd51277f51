package ast

import "github.com/tova-lang/tova/internal/lexer"

// Node is the base interface for all AST nodes
type Node interface {
	Pos() (line, col int)
}

// Statement nodes
type Statement interface {
	Node
	stmtNode()
}

// Expression nodes
type Expression interface {
	Node
	exprNode()
}

// Program represents one parsed Tova source file. Top-level declarations
// outside any region block belong to the shared target.
type Program struct {
	Regions []*RegionDecl
	Decls   []Statement
	File    string
}

func (p *Program) Pos() (int, int) {
	if len(p.Regions) > 0 {
		return p.Regions[0].Pos()
	}
	if len(p.Decls) > 0 {
		return p.Decls[0].Pos()
	}
	return 0, 0
}

// RegionDecl represents a named top-level region block: client, server,
// shared, edge, deploy, cli, or security. Code regions carry Body; config
// regions (deploy, security) carry Entries.
type RegionDecl struct {
	Kind    string // "client", "server", "shared", "edge", "deploy", "cli", "security"
	Name    string // edge region label, empty otherwise
	Body    *Block
	Entries []*ConfigEntry
	Line    int
	Column  int
}

func (r *RegionDecl) Pos() (int, int) { return r.Line, r.Column }

// ConfigEntry is one key/value or nested-section entry of a config region
type ConfigEntry struct {
	Key      string
	Value    Expression     // nil when the entry is a nested section
	Children []*ConfigEntry // non-nil only for nested sections
	Line     int
	Column   int
}

func (c *ConfigEntry) Pos() (int, int) { return c.Line, c.Column }

// Block represents a braced sequence of statements
type Block struct {
	Statements []Statement
	Line       int
	Column     int
}

func (b *Block) Pos() (int, int) { return b.Line, b.Column }
func (b *Block) stmtNode()       {}

// FnDecl represents a function declaration
type FnDecl struct {
	Name       string
	IsAsync    bool
	Params     []*Param
	ReturnType *TypeRef
	Body       *Block
	Doc        string
	Line       int
	Column     int
}

func (f *FnDecl) Pos() (int, int) { return f.Line, f.Column }
func (f *FnDecl) stmtNode()       {}

// Param represents a function or lambda parameter
type Param struct {
	Name   string
	Type   *TypeRef
	Line   int
	Column int
}

func (p *Param) Pos() (int, int) { return p.Line, p.Column }

// TypeRef represents a type annotation
type TypeRef struct {
	Name     string
	Args     []*TypeRef // e.g. [Int] for Array<Int>
	Optional bool       // written with a trailing '?'
	Line     int
	Column   int
}

func (t *TypeRef) Pos() (int, int) { return t.Line, t.Column }

// TypeDecl represents an ADT declaration:
//
//	type Shape { Circle(radius: Float) Rect(w: Float, h: Float) }
type TypeDecl struct {
	Name       string
	TypeParams []string
	Variants   []*Variant
	Doc        string
	Line       int
	Column     int
}

func (t *TypeDecl) Pos() (int, int) { return t.Line, t.Column }
func (t *TypeDecl) stmtNode()       {}

// Variant represents one ADT variant
type Variant struct {
	Name   string
	Fields []*FieldDef // empty for unit variants
	Line   int
	Column int
}

func (v *Variant) Pos() (int, int) { return v.Line, v.Column }

// FieldDef represents a typed variant field
type FieldDef struct {
	Name   string
	Type   *TypeRef
	Line   int
	Column int
}

func (f *FieldDef) Pos() (int, int) { return f.Line, f.Column }

// BindingStmt represents `name = expr` (immutable) or `var name = expr`
// (mutable). Whether a bare `name = expr` introduces a binding or reassigns
// an existing one is decided during analysis, not parsing.
type BindingStmt struct {
	Name    string
	Mutable bool
	Type    *TypeRef
	Value   Expression
	Line    int
	Column  int
}

func (b *BindingStmt) Pos() (int, int) { return b.Line, b.Column }
func (b *BindingStmt) stmtNode()       {}

// AssignStmt represents assignment to a non-identifier target: a.b = e, a[i] = e
type AssignStmt struct {
	Target Expression
	Value  Expression
	Line   int
	Column int
}

func (a *AssignStmt) Pos() (int, int) { return a.Line, a.Column }
func (a *AssignStmt) stmtNode()       {}

// ReturnStmt represents a return statement
type ReturnStmt struct {
	Value  Expression // nil for bare return
	Line   int
	Column int
}

func (r *ReturnStmt) Pos() (int, int) { return r.Line, r.Column }
func (r *ReturnStmt) stmtNode()       {}

// BreakStmt represents a break statement
type BreakStmt struct {
	Line   int
	Column int
}

func (b *BreakStmt) Pos() (int, int) { return b.Line, b.Column }
func (b *BreakStmt) stmtNode()       {}

// ContinueStmt represents a continue statement
type ContinueStmt struct {
	Line   int
	Column int
}

func (c *ContinueStmt) Pos() (int, int) { return c.Line, c.Column }
func (c *ContinueStmt) stmtNode()       {}

// ExprStmt represents an expression statement
type ExprStmt struct {
	Expr   Expression
	Line   int
	Column int
}

func (e *ExprStmt) Pos() (int, int) { return e.Line, e.Column }
func (e *ExprStmt) stmtNode()       {}

// IfStmt represents if/elif/else. Elif chains parse as nested IfStmt values
// in Else.
type IfStmt struct {
	Condition Expression
	Then      *Block
	Else      Statement // *Block, *IfStmt, or nil
	Line      int
	Column    int
}

func (i *IfStmt) Pos() (int, int) { return i.Line, i.Column }
func (i *IfStmt) stmtNode()       {}

// GuardStmt represents `guard cond else { ... }`
type GuardStmt struct {
	Condition Expression
	Else      *Block
	Line      int
	Column    int
}

func (g *GuardStmt) Pos() (int, int) { return g.Line, g.Column }
func (g *GuardStmt) stmtNode()       {}

// ForInStmt represents `for x in xs { ... } [else { ... }]`. The else block
// runs when the iterable was empty.
type ForInStmt struct {
	Variable string
	Index    string // optional second binding: for i, x in xs
	Iterable Expression
	Body     *Block
	Else     *Block
	Line     int
	Column   int
}

func (f *ForInStmt) Pos() (int, int) { return f.Line, f.Column }
func (f *ForInStmt) stmtNode()       {}

// WhileStmt represents a while loop
type WhileStmt struct {
	Condition Expression
	Body      *Block
	Line      int
	Column    int
}

func (w *WhileStmt) Pos() (int, int) { return w.Line, w.Column }
func (w *WhileStmt) stmtNode()       {}

// TryStmt represents try/catch/finally
type TryStmt struct {
	Body      *Block
	CatchName string // bound error name, may be empty
	Catch     *Block // nil when only finally is present
	Finally   *Block // nil when absent
	Line      int
	Column    int
}

func (t *TryStmt) Pos() (int, int) { return t.Line, t.Column }
func (t *TryStmt) stmtNode()       {}

// ConcurrentStmt represents `concurrent [mode] [timeout(ms)] { ... }`
type ConcurrentStmt struct {
	Mode    string     // "all" (default), "first", "cancel_on_error"
	Timeout Expression // nil when absent; milliseconds
	Body    *Block
	Line    int
	Column  int
}

func (c *ConcurrentStmt) Pos() (int, int) { return c.Line, c.Column }
func (c *ConcurrentStmt) stmtNode()       {}

// SelectCaseKind distinguishes the four select arm shapes
type SelectCaseKind int

const (
	SelectRecv SelectCaseKind = iota
	SelectSend
	SelectTimeout
	SelectDefault
)

// SelectCase represents one arm of a select statement
type SelectCase struct {
	Kind    SelectCaseKind
	Binding string     // receive: bound name
	Channel Expression // receive / send
	Value   Expression // send value or timeout millis
	Body    *Block
	Line    int
	Column  int
}

func (s *SelectCase) Pos() (int, int) { return s.Line, s.Column }

// SelectStmt represents a select statement over channels
type SelectStmt struct {
	Cases  []*SelectCase
	Line   int
	Column int
}

func (s *SelectStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *SelectStmt) stmtNode()       {}

// StyleStmt carries the raw CSS body of a style { ... } construct
type StyleStmt struct {
	CSS    string
	Line   int
	Column int
}

func (s *StyleStmt) Pos() (int, int) { return s.Line, s.Column }
func (s *StyleStmt) stmtNode()       {}

// --- Expressions ---

// Identifier represents an identifier
type Identifier struct {
	Name   string
	Line   int
	Column int
}

func (i *Identifier) Pos() (int, int) { return i.Line, i.Column }
func (i *Identifier) exprNode()       {}

// IntLit represents an integer literal (decimal, hex, octal, or binary text)
type IntLit struct {
	Value  string
	Line   int
	Column int
}

func (i *IntLit) Pos() (int, int) { return i.Line, i.Column }
func (i *IntLit) exprNode()       {}

// FloatLit represents a float literal
type FloatLit struct {
	Value  string
	Line   int
	Column int
}

func (f *FloatLit) Pos() (int, int) { return f.Line, f.Column }
func (f *FloatLit) exprNode()       {}

// StringLit represents a string literal; interpolated strings carry Parts
type StringLit struct {
	Value  string
	Parts  []*StringPiece // nil for plain strings
	Line   int
	Column int
}

func (s *StringLit) Pos() (int, int) { return s.Line, s.Column }
func (s *StringLit) exprNode()       {}

// StringPiece is one segment of an interpolated string
type StringPiece struct {
	Text string
	Expr Expression // nil for text segments
}

// BoolLit represents a boolean literal
type BoolLit struct {
	Value  bool
	Line   int
	Column int
}

func (b *BoolLit) Pos() (int, int) { return b.Line, b.Column }
func (b *BoolLit) exprNode()       {}

// NilLit represents the nil literal
type NilLit struct {
	Line   int
	Column int
}

func (n *NilLit) Pos() (int, int) { return n.Line, n.Column }
func (n *NilLit) exprNode()       {}

// ArrayLit represents an array literal [a, b, c]
type ArrayLit struct {
	Elements []Expression
	Line     int
	Column   int
}

func (a *ArrayLit) Pos() (int, int) { return a.Line, a.Column }
func (a *ArrayLit) exprNode()       {}

// TupleLit represents a parenthesized tuple (a, b)
type TupleLit struct {
	Elements []Expression
	Line     int
	Column   int
}

func (t *TupleLit) Pos() (int, int) { return t.Line, t.Column }
func (t *TupleLit) exprNode()       {}

// RecordLit represents a record literal {a: 1, b: 2}
type RecordLit struct {
	Keys   []string
	Values []Expression
	Line   int
	Column int
}

func (r *RecordLit) Pos() (int, int) { return r.Line, r.Column }
func (r *RecordLit) exprNode()       {}

// BinaryExpr represents a binary expression. Keyword spellings normalize to
// their symbolic operator during parsing (and -> &&, or -> ||).
type BinaryExpr struct {
	Left   Expression
	Op     lexer.TokenType
	Right  Expression
	Line   int
	Column int
}

func (b *BinaryExpr) Pos() (int, int) { return b.Line, b.Column }
func (b *BinaryExpr) exprNode()       {}

// UnaryExpr represents a unary expression (-, !, not -> !)
type UnaryExpr struct {
	Op      lexer.TokenType
	Operand Expression
	Line    int
	Column  int
}

func (u *UnaryExpr) Pos() (int, int) { return u.Line, u.Column }
func (u *UnaryExpr) exprNode()       {}

// RangeExpr represents start..end or start..=end
type RangeExpr struct {
	Start     Expression
	End       Expression
	Inclusive bool
	Line      int
	Column    int
}

func (r *RangeExpr) Pos() (int, int) { return r.Line, r.Column }
func (r *RangeExpr) exprNode()       {}

// CallExpr represents a call; Callee may be any postfix chain
type CallExpr struct {
	Callee Expression
	Args   []Expression
	Line   int
	Column int
}

func (c *CallExpr) Pos() (int, int) { return c.Line, c.Column }
func (c *CallExpr) exprNode()       {}

// FieldAccessExpr represents a field or namespace member access
type FieldAccessExpr struct {
	Object Expression
	Field  string
	Line   int
	Column int
}

func (f *FieldAccessExpr) Pos() (int, int) { return f.Line, f.Column }
func (f *FieldAccessExpr) exprNode()       {}

// IndexExpr represents arr[i]
type IndexExpr struct {
	Object Expression
	Index  Expression
	Line   int
	Column int
}

func (i *IndexExpr) Pos() (int, int) { return i.Line, i.Column }
func (i *IndexExpr) exprNode()       {}

// SliceExpr represents arr[a:b] or arr[a:b:c]; any bound may be nil
type SliceExpr struct {
	Object Expression
	Start  Expression
	Stop   Expression
	Step   Expression
	Line   int
	Column int
}

func (s *SliceExpr) Pos() (int, int) { return s.Line, s.Column }
func (s *SliceExpr) exprNode()       {}

// LambdaExpr represents x => expr, (a, b) => expr, or (a: Int) => { ... }
type LambdaExpr struct {
	Params  []*Param
	Body    *Block     // nil when Expr is set
	Expr    Expression // nil when Body is set
	IsAsync bool
	Line    int
	Column  int
}

func (l *LambdaExpr) Pos() (int, int) { return l.Line, l.Column }
func (l *LambdaExpr) exprNode()       {}

// AwaitExpr represents `await expr`
type AwaitExpr struct {
	Expr   Expression
	Line   int
	Column int
}

func (a *AwaitExpr) Pos() (int, int) { return a.Line, a.Column }
func (a *AwaitExpr) exprNode()       {}

// SpawnExpr represents `spawn call()` inside a concurrent block
type SpawnExpr struct {
	Call   Expression
	Line   int
	Column int
}

func (s *SpawnExpr) Pos() (int, int) { return s.Line, s.Column }
func (s *SpawnExpr) exprNode()       {}

// PropagateExpr represents the `expr?` error-propagation operator
type PropagateExpr struct {
	Expr   Expression
	Line   int
	Column int
}

func (p *PropagateExpr) Pos() (int, int) { return p.Line, p.Column }
func (p *PropagateExpr) exprNode()       {}

// IfExpr represents an if used in expression position; every branch yields a
// value. Elif chains nest through Else.
type IfExpr struct {
	Condition Expression
	Then      Expression
	Else      Expression // nested *IfExpr for elif chains, nil when absent
	Line      int
	Column    int
}

func (i *IfExpr) Pos() (int, int) { return i.Line, i.Column }
func (i *IfExpr) exprNode()       {}

// MatchExpr represents a match expression
type MatchExpr struct {
	Scrutinee Expression
	Arms      []*MatchArm
	Line      int
	Column    int
}

func (m *MatchExpr) Pos() (int, int) { return m.Line, m.Column }
func (m *MatchExpr) exprNode()       {}

// MatchArm represents one arm of a match expression
type MatchArm struct {
	Pattern *Pattern
	Guard   Expression // nil unless the arm has `if guard`
	Body    Expression // nil when Block is set
	Block   *Block     // block-bodied arm
	Line    int
	Column  int
}

func (m *MatchArm) Pos() (int, int) { return m.Line, m.Column }

// PatternKind distinguishes the match pattern forms
type PatternKind int

const (
	PatternWildcard PatternKind = iota
	PatternBinding
	PatternLiteral
	PatternRange
	PatternVariant
)

// Pattern represents a match pattern
type Pattern struct {
	Kind        PatternKind
	Binding     string     // PatternBinding
	Literal     Expression // PatternLiteral
	Start, End  Expression // PatternRange
	Inclusive   bool       // PatternRange
	Variant     string     // PatternVariant
	Subpatterns []*Pattern // PatternVariant field patterns
	Line        int
	Column      int
}

func (p *Pattern) Pos() (int, int) { return p.Line, p.Column }
