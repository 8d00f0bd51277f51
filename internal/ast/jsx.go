package ast

// JSXElement represents a markup element. Lowercase tags render as host
// elements, capitalized tags as component calls.
type JSXElement struct {
	Tag      string
	Attrs    []*JSXAttr
	Children []JSXChild
	Line     int
	Column   int
}

func (j *JSXElement) Pos() (int, int) { return j.Line, j.Column }
func (j *JSXElement) exprNode()       {}

// JSXAttr represents one attribute. Namespace is "on" for event handlers
// (on:click={h}) and "use" for directives (use:focus={e}); empty otherwise.
// A nil Value means the bare-attribute shorthand for true.
type JSXAttr struct {
	Namespace string
	Name      string
	Value     Expression
	Line      int
	Column    int
}

func (j *JSXAttr) Pos() (int, int) { return j.Line, j.Column }

// JSXChild is implemented by everything that can appear between tags
type JSXChild interface {
	Node
	jsxChildNode()
}

// JSXText is a raw text run between tags
type JSXText struct {
	Text   string
	Line   int
	Column int
}

func (j *JSXText) Pos() (int, int) { return j.Line, j.Column }
func (j *JSXText) jsxChildNode()   {}

// JSXExprChild is an embedded {expr} child
type JSXExprChild struct {
	Expr   Expression
	Line   int
	Column int
}

func (j *JSXExprChild) Pos() (int, int) { return j.Line, j.Column }
func (j *JSXExprChild) jsxChildNode()   {}

func (j *JSXElement) jsxChildNode() {}

// JSXIfBranch is one condition/children pair of a markup conditional
type JSXIfBranch struct {
	Condition Expression
	Children  []JSXChild
}

// JSXIf represents <if {cond}>...<elif {c}>...<else>...</if>
type JSXIf struct {
	Branches []*JSXIfBranch
	Else     []JSXChild // nil when no <else> arm
	Line     int
	Column   int
}

func (j *JSXIf) Pos() (int, int) { return j.Line, j.Column }
func (j *JSXIf) jsxChildNode()   {}
func (j *JSXIf) exprNode()       {}

// JSXFor represents <for {x in xs}>...</for>
type JSXFor struct {
	Variable string
	Index    string // optional second binding
	Iterable Expression
	Children []JSXChild
	Line     int
	Column   int
}

func (j *JSXFor) Pos() (int, int) { return j.Line, j.Column }
func (j *JSXFor) jsxChildNode()   {}
func (j *JSXFor) exprNode()       {}
