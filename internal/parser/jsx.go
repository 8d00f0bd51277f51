package parser

import (
	"github.com/tova-lang/tova/internal/ast"
	"github.com/tova-lang/tova/internal/lexer"
)

// parseJSXElement parses a markup element starting at '<'. The control tags
// if and for route to their own parsers.
func (p *Parser) parseJSXElement() ast.Expression {
	tok := p.expect(lexer.JSX_OPEN)
	name := p.expect(lexer.IDENT)

	switch name.Literal {
	case "if":
		return p.parseJSXIf(tok)
	case "for":
		return p.parseJSXFor(tok)
	case "elif", "else":
		p.errorWithHint(name, "'<"+name.Literal+">' only appears inside an '<if>' element",
			"unexpected '<%s>'", name.Literal)
	}

	el := &ast.JSXElement{Tag: name.Literal, Line: tok.Line, Column: tok.Column}
	el.Attrs = p.parseJSXAttrs()

	if p.match(lexer.JSX_SLASH_GT) {
		return el
	}
	p.expect(lexer.GT)
	el.Children = p.parseJSXChildren(el.Tag, false)
	return el
}

// parseJSXAttrs parses attributes up to '>' or '/>'. on: and use: prefixes
// become the attribute namespace.
func (p *Parser) parseJSXAttrs() []*ast.JSXAttr {
	var attrs []*ast.JSXAttr
	for p.check(lexer.IDENT) {
		name := p.advance()
		attr := &ast.JSXAttr{Name: name.Literal, Line: name.Line, Column: name.Column}

		if p.check(lexer.COLON) {
			if name.Literal != "on" && name.Literal != "use" {
				p.errorf(name, "unknown attribute namespace '%s'", name.Literal)
			}
			p.advance()
			attr.Namespace = name.Literal
			attr.Name = p.expect(lexer.IDENT).Literal
		}

		if p.match(lexer.ASSIGN) {
			attr.Value = p.parseJSXAttrValue()
		} else if attr.Namespace == "on" {
			// use:draggable may stand alone; on:click always needs a handler
			p.errorf(name, "'on:%s' requires a value", attr.Name)
		}
		attrs = append(attrs, attr)
	}
	return attrs
}

func (p *Parser) parseJSXAttrValue() ast.Expression {
	tok := p.current()
	switch tok.Type {
	case lexer.STRING_LIT:
		p.advance()
		return p.buildStringLit(tok)
	case lexer.LBRACE:
		p.advance()
		expr := p.parseExpression()
		p.expect(lexer.RBRACE)
		return expr
	default:
		p.errorf(tok, "expected attribute value, got %s", describeToken(tok))
		return nil
	}
}

// parseJSXChildren parses element children until the matching closing tag.
// When insideIf is true, the caller handles <elif>/<else> boundaries and the
// closing tag itself.
func (p *Parser) parseJSXChildren(tag string, insideIf bool) []ast.JSXChild {
	var children []ast.JSXChild
	for {
		tok := p.current()
		switch tok.Type {
		case lexer.JSX_TEXT:
			p.advance()
			children = append(children, &ast.JSXText{Text: tok.Literal, Line: tok.Line, Column: tok.Column})
		case lexer.LBRACE:
			p.advance()
			expr := p.parseExpression()
			p.expect(lexer.RBRACE)
			children = append(children, &ast.JSXExprChild{Expr: expr, Line: tok.Line, Column: tok.Column})
		case lexer.JSX_OPEN:
			if insideIf {
				next := p.peek()
				if next.Type == lexer.IDENT && (next.Literal == "elif" || next.Literal == "else") {
					return children
				}
			}
			child := p.parseJSXElement()
			children = append(children, child.(ast.JSXChild))
		case lexer.JSX_CLOSE_OPEN:
			if insideIf {
				return children
			}
			p.advance()
			closing := p.expect(lexer.IDENT)
			if closing.Literal != tag {
				p.errorf(closing, "mismatched closing tag: expected </%s>, found </%s>", tag, closing.Literal)
			}
			p.expect(lexer.GT)
			return children
		default:
			p.errorf(tok, "unexpected %s inside <%s>", describeToken(tok), tag)
		}
	}
}

// parseJSXIf parses <if {cond}> ... <elif {c}> ... <else> ... </if>
func (p *Parser) parseJSXIf(open lexer.Token) ast.Expression {
	node := &ast.JSXIf{Line: open.Line, Column: open.Column}

	p.expect(lexer.LBRACE)
	cond := p.parseExpression()
	p.expect(lexer.RBRACE)
	p.expect(lexer.GT)
	node.Branches = append(node.Branches, &ast.JSXIfBranch{
		Condition: cond,
		Children:  p.parseJSXChildren("if", true),
	})

	for p.check(lexer.JSX_OPEN) {
		name := p.peek()
		if name.Type != lexer.IDENT {
			break
		}
		switch name.Literal {
		case "elif":
			p.advance()
			p.advance()
			p.expect(lexer.LBRACE)
			cond := p.parseExpression()
			p.expect(lexer.RBRACE)
			p.expect(lexer.GT)
			node.Branches = append(node.Branches, &ast.JSXIfBranch{
				Condition: cond,
				Children:  p.parseJSXChildren("if", true),
			})
		case "else":
			if node.Else != nil {
				p.errorf(name, "duplicate <else> inside <if>")
			}
			p.advance()
			p.advance()
			p.expect(lexer.GT)
			node.Else = p.parseJSXChildren("if", true)
		default:
			p.errorf(name, "unexpected <%s> inside <if>", name.Literal)
		}
	}

	p.expect(lexer.JSX_CLOSE_OPEN)
	closing := p.expect(lexer.IDENT)
	if closing.Literal != "if" {
		p.errorf(closing, "mismatched closing tag: expected </if>, found </%s>", closing.Literal)
	}
	p.expect(lexer.GT)
	return node
}

// parseJSXFor parses <for {x in xs}> ... </for>
func (p *Parser) parseJSXFor(open lexer.Token) ast.Expression {
	node := &ast.JSXFor{Line: open.Line, Column: open.Column}

	p.expect(lexer.LBRACE)
	first := p.expect(lexer.IDENT)
	if p.match(lexer.COMMA) {
		second := p.expect(lexer.IDENT)
		node.Index = first.Literal
		node.Variable = second.Literal
	} else {
		node.Variable = first.Literal
	}
	p.expect(lexer.IN)
	node.Iterable = p.parseExpression()
	p.expect(lexer.RBRACE)
	p.expect(lexer.GT)

	node.Children = p.parseJSXChildren("for", false)
	return node
}