package parser

import (
	"github.com/tova-lang/tova/internal/ast"
	"github.com/tova-lang/tova/internal/lexer"
)

// regionKinds maps the region-block keywords to their kind names. Adding a
// new region is a matter of adding a keyword and an entry here.
var regionKinds = map[lexer.TokenType]string{
	lexer.CLIENT:   "client",
	lexer.SERVER:   "server",
	lexer.SHARED:   "shared",
	lexer.EDGE:     "edge",
	lexer.DEPLOY:   "deploy",
	lexer.CLI:      "cli",
	lexer.SECURITY: "security",
}

// configRegions are regions whose bodies are key/value entries, not code
var configRegions = map[string]bool{
	"deploy":   true,
	"security": true,
}

// Parser holds the parser state
type Parser struct {
	tokens []lexer.Token
	pos    int
	source string
	file   string
	docs   map[int]string // doc comment text by the line it ends on

	// armHead is true while parsing the head of a match or select arm,
	// where a trailing '=>' terminates the arm instead of opening a
	// single-parameter lambda. Bracketed subexpressions clear it.
	armHead bool
}

// New creates a parser for the given source
func New(source string) *Parser {
	return NewWithFile(source, "")
}

// NewWithFile creates a parser that reports errors against the given filename
func NewWithFile(source, file string) *Parser {
	return &Parser{source: source, file: file}
}

// Parse tokenizes the source and parses it into a Program. It returns the
// first lexical or syntax error encountered; the returned program is nil on
// error.
func (p *Parser) Parse() (prog *ast.Program, err error) {
	l := lexer.NewWithFile(p.source, p.file)
	tokens, lerr := l.Tokenize()
	if lerr != nil {
		return nil, lerr
	}
	p.tokens = tokens
	p.pos = 0
	p.docs = collectDocs(l.Docs())

	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			prog = nil
			err = b.err
		}
	}()

	prog = &ast.Program{File: p.file}
	for !p.check(lexer.EOF) {
		if kind, ok := regionKinds[p.current().Type]; ok {
			prog.Regions = append(prog.Regions, p.parseRegion(kind))
			continue
		}
		prog.Decls = append(prog.Decls, p.parseStatement())
	}
	return prog, nil
}

// collectDocs merges consecutive /// lines into one entry keyed by the last
// line of the run, so a declaration looks up the line directly above it.
func collectDocs(docs []lexer.DocComment) map[int]string {
	byEnd := make(map[int]string, len(docs))
	for _, d := range docs {
		if prev, ok := byEnd[d.Line-1]; ok {
			delete(byEnd, d.Line-1)
			byEnd[d.Line] = prev + "\n" + d.Text
		} else {
			byEnd[d.Line] = d.Text
		}
	}
	return byEnd
}

// docFor returns the doc comment ending on the line above declLine
func (p *Parser) docFor(declLine int) string {
	return p.docs[declLine-1]
}

// parseRegion parses one top-level region block
func (p *Parser) parseRegion(kind string) *ast.RegionDecl {
	tok := p.advance()
	region := &ast.RegionDecl{Kind: kind, Line: tok.Line, Column: tok.Column}

	if kind == "edge" && p.check(lexer.STRING_LIT) {
		name := p.advance()
		region.Name = name.Literal
	}

	if configRegions[kind] {
		p.expect(lexer.LBRACE)
		region.Entries = p.parseConfigEntries()
		p.expect(lexer.RBRACE)
		return region
	}

	region.Body = p.parseBlock()
	return region
}

// parseConfigEntries parses `key: value` and `key { ... }` entries up to the
// closing brace. Keys may spell keywords (deploy sections are named things
// like server).
func (p *Parser) parseConfigEntries() []*ast.ConfigEntry {
	var entries []*ast.ConfigEntry
	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		tok := p.current()
		if tok.Type != lexer.IDENT && !lexer.IsKeyword(tok.Type) && tok.Type != lexer.STRING_LIT {
			p.errorf(tok, "expected config key, got %s", describeToken(tok))
		}
		p.advance()
		entry := &ast.ConfigEntry{Key: tok.Literal, Line: tok.Line, Column: tok.Column}

		switch {
		case p.match(lexer.COLON):
			entry.Value = p.parseExpression()
		case p.check(lexer.LBRACE):
			p.advance()
			entry.Children = p.parseConfigEntries()
			p.expect(lexer.RBRACE)
		default:
			p.errorf(p.current(), "expected ':' or '{' after config key '%s'", entry.Key)
		}
		p.match(lexer.COMMA)
		entries = append(entries, entry)
	}
	return entries
}

// parseBlock parses a braced statement sequence
func (p *Parser) parseBlock() *ast.Block {
	tok := p.expect(lexer.LBRACE)
	block := &ast.Block{Line: tok.Line, Column: tok.Column}
	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		block.Statements = append(block.Statements, p.parseStatement())
	}
	p.expect(lexer.RBRACE)
	return block
}

func (p *Parser) parseStatement() ast.Statement {
	tok := p.current()
	switch tok.Type {
	case lexer.FN:
		return p.parseFnDecl(false)
	case lexer.ASYNC:
		if p.peek().Type == lexer.FN {
			p.advance()
			return p.parseFnDecl(true)
		}
		// async lambda in expression position
		return p.parseExprStatement()
	case lexer.TYPE:
		return p.parseTypeDecl()
	case lexer.VAR:
		return p.parseVarBinding()
	case lexer.MUT:
		p.errorWithHint(tok, "Use 'var name = value' to declare a mutable binding",
			"'mut' is not supported")
		return nil
	case lexer.LET:
		p.errorWithHint(tok, "write 'name = value'; bindings are immutable by default",
			"'let' is not supported")
		return nil
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.GUARD:
		return p.parseGuardStmt()
	case lexer.FOR:
		return p.parseForInStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.TRY:
		return p.parseTryStmt()
	case lexer.RETURN:
		p.advance()
		stmt := &ast.ReturnStmt{Line: tok.Line, Column: tok.Column}
		if !p.blockEnds() && p.sameLineAsPrev() {
			stmt.Value = p.parseExpression()
		}
		return stmt
	case lexer.BREAK:
		p.advance()
		return &ast.BreakStmt{Line: tok.Line, Column: tok.Column}
	case lexer.CONTINUE:
		p.advance()
		return &ast.ContinueStmt{Line: tok.Line, Column: tok.Column}
	case lexer.CONCURRENT:
		return p.parseConcurrentStmt()
	case lexer.SELECT:
		return p.parseSelectStmt()
	case lexer.STYLE:
		p.advance()
		raw := p.expect(lexer.RAW_BLOCK)
		return &ast.StyleStmt{CSS: raw.Literal, Line: tok.Line, Column: tok.Column}
	case lexer.IDENT:
		if p.peek().Type == lexer.ASSIGN {
			name := p.advance()
			p.advance() // =
			return &ast.BindingStmt{
				Name:   name.Literal,
				Value:  p.parseExpression(),
				Line:   name.Line,
				Column: name.Column,
			}
		}
		if p.peek().Type == lexer.COLON {
			return p.parseTypedBinding()
		}
		return p.parseExprStatement()
	default:
		return p.parseExprStatement()
	}
}

// blockEnds reports whether the current token closes the enclosing block
func (p *Parser) blockEnds() bool {
	return p.check(lexer.RBRACE) || p.check(lexer.EOF)
}

// parseVarBinding parses: var name [: Type] = expr
func (p *Parser) parseVarBinding() ast.Statement {
	tok := p.expect(lexer.VAR)
	name := p.expect(lexer.IDENT)
	stmt := &ast.BindingStmt{
		Name:    name.Literal,
		Mutable: true,
		Line:    tok.Line,
		Column:  tok.Column,
	}
	if p.match(lexer.COLON) {
		stmt.Type = p.parseType()
	}
	p.expect(lexer.ASSIGN)
	stmt.Value = p.parseExpression()
	return stmt
}

// parseTypedBinding parses: name: Type = expr
func (p *Parser) parseTypedBinding() ast.Statement {
	name := p.expect(lexer.IDENT)
	p.expect(lexer.COLON)
	typ := p.parseType()
	p.expect(lexer.ASSIGN)
	return &ast.BindingStmt{
		Name:   name.Literal,
		Type:   typ,
		Value:  p.parseExpression(),
		Line:   name.Line,
		Column: name.Column,
	}
}

// parseExprStatement parses an expression statement, promoting it to an
// assignment when a target expression is followed by '='
func (p *Parser) parseExprStatement() ast.Statement {
	tok := p.current()
	expr := p.parseExpression()
	if p.check(lexer.ASSIGN) && p.sameLineAsPrev() {
		switch expr.(type) {
		case *ast.FieldAccessExpr, *ast.IndexExpr:
			p.advance()
			return &ast.AssignStmt{
				Target: expr,
				Value:  p.parseExpression(),
				Line:   tok.Line,
				Column: tok.Column,
			}
		default:
			p.errorf(p.current(), "invalid assignment target")
		}
	}
	return &ast.ExprStmt{Expr: expr, Line: tok.Line, Column: tok.Column}
}

// parseFnDecl parses: [async] fn name(params) [-> Type] { ... }
// The async keyword has already been consumed when isAsync is true.
func (p *Parser) parseFnDecl(isAsync bool) *ast.FnDecl {
	tok := p.expect(lexer.FN)
	name := p.expect(lexer.IDENT)
	fn := &ast.FnDecl{
		Name:    name.Literal,
		IsAsync: isAsync,
		Doc:     p.docFor(tok.Line),
		Line:    tok.Line,
		Column:  tok.Column,
	}
	p.expect(lexer.LPAREN)
	fn.Params = p.parseParams()
	p.expect(lexer.RPAREN)

	if p.match(lexer.ARROW) {
		fn.ReturnType = p.parseType()
	}
	fn.Body = p.parseBlock()
	return fn
}

// parseParams parses a comma-separated parameter list (cursor is after '(')
func (p *Parser) parseParams() []*ast.Param {
	var params []*ast.Param
	for !p.check(lexer.RPAREN) && !p.check(lexer.EOF) {
		name := p.expect(lexer.IDENT)
		param := &ast.Param{Name: name.Literal, Line: name.Line, Column: name.Column}
		if p.match(lexer.COLON) {
			param.Type = p.parseType()
		}
		params = append(params, param)
		if !p.match(lexer.COMMA) {
			break
		}
	}
	return params
}

// parseTypeDecl parses an ADT declaration:
//
//	type Shape { Circle(radius: Float) Square(side: Float) }
func (p *Parser) parseTypeDecl() *ast.TypeDecl {
	tok := p.expect(lexer.TYPE)
	name := p.expect(lexer.IDENT)
	decl := &ast.TypeDecl{
		Name:   name.Literal,
		Doc:    p.docFor(tok.Line),
		Line:   tok.Line,
		Column: tok.Column,
	}

	if p.match(lexer.LT) {
		for {
			param := p.expect(lexer.IDENT)
			decl.TypeParams = append(decl.TypeParams, param.Literal)
			if !p.match(lexer.COMMA) {
				break
			}
		}
		p.expect(lexer.GT)
	}

	p.expect(lexer.LBRACE)
	seen := map[string]bool{}
	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		variant := p.parseVariant()
		if seen[variant.Name] {
			p.errorf(p.current(), "duplicate variant '%s' in type '%s'", variant.Name, decl.Name)
		}
		seen[variant.Name] = true
		decl.Variants = append(decl.Variants, variant)
		p.match(lexer.COMMA)
	}
	p.expect(lexer.RBRACE)

	if len(decl.Variants) == 0 {
		p.errorf(tok, "type '%s' has no variants", decl.Name)
	}
	return decl
}

func (p *Parser) parseVariant() *ast.Variant {
	name := p.expect(lexer.IDENT)
	variant := &ast.Variant{Name: name.Literal, Line: name.Line, Column: name.Column}
	if p.check(lexer.LPAREN) && p.sameLineAsPrev() {
		p.advance()
		seen := map[string]bool{}
		for !p.check(lexer.RPAREN) && !p.check(lexer.EOF) {
			fname := p.expect(lexer.IDENT)
			if seen[fname.Literal] {
				p.errorf(fname, "duplicate field '%s' in variant '%s'", fname.Literal, variant.Name)
			}
			seen[fname.Literal] = true
			field := &ast.FieldDef{Name: fname.Literal, Line: fname.Line, Column: fname.Column}
			if p.match(lexer.COLON) {
				field.Type = p.parseType()
			}
			variant.Fields = append(variant.Fields, field)
			if !p.match(lexer.COMMA) {
				break
			}
		}
		p.expect(lexer.RPAREN)
	}
	return variant
}

// parseType parses a type annotation: Name, Name<T, U>, T?, (A, B) -> R
func (p *Parser) parseType() *ast.TypeRef {
	tok := p.current()

	if p.match(lexer.LPAREN) {
		var args []*ast.TypeRef
		for !p.check(lexer.RPAREN) && !p.check(lexer.EOF) {
			args = append(args, p.parseType())
			if !p.match(lexer.COMMA) {
				break
			}
		}
		p.expect(lexer.RPAREN)
		p.expect(lexer.ARROW)
		ret := p.parseType()
		return &ast.TypeRef{
			Name:   "Fn",
			Args:   append(args, ret),
			Line:   tok.Line,
			Column: tok.Column,
		}
	}

	name := p.expect(lexer.IDENT)
	ref := &ast.TypeRef{Name: name.Literal, Line: name.Line, Column: name.Column}
	if p.check(lexer.LT) && p.sameLineAsPrev() {
		p.advance()
		for {
			ref.Args = append(ref.Args, p.parseType())
			if !p.match(lexer.COMMA) {
				break
			}
		}
		p.expect(lexer.GT)
	}
	if p.check(lexer.QUESTION) && p.sameLineAsPrev() {
		p.advance()
		ref.Optional = true
	}
	return ref
}

func (p *Parser) parseIfStmt() ast.Statement {
	p.expect(lexer.IF)
	return p.parseIfChain(p.tokens[p.pos-1])
}

// parseIfChain parses the remainder of an if or elif whose keyword has
// already been consumed; elif chains nest through Else.
func (p *Parser) parseIfChain(tok lexer.Token) *ast.IfStmt {
	stmt := &ast.IfStmt{Line: tok.Line, Column: tok.Column}
	stmt.Condition = p.parseExpression()
	stmt.Then = p.parseBlock()

	if p.check(lexer.ELIF) {
		elifTok := p.advance()
		stmt.Else = p.parseIfChain(elifTok)
	} else if p.match(lexer.ELSE) {
		if p.check(lexer.IF) {
			stmt.Else = p.parseIfStmt()
		} else {
			stmt.Else = p.parseBlock()
		}
	}
	return stmt
}

func (p *Parser) parseGuardStmt() ast.Statement {
	tok := p.expect(lexer.GUARD)
	stmt := &ast.GuardStmt{Line: tok.Line, Column: tok.Column}
	stmt.Condition = p.parseExpression()
	p.expect(lexer.ELSE)
	stmt.Else = p.parseBlock()
	return stmt
}

// parseForInStmt parses: for [i,] x in iterable { ... } [else { ... }]
func (p *Parser) parseForInStmt() ast.Statement {
	tok := p.expect(lexer.FOR)
	stmt := &ast.ForInStmt{Line: tok.Line, Column: tok.Column}

	first := p.expect(lexer.IDENT)
	if p.match(lexer.COMMA) {
		second := p.expect(lexer.IDENT)
		stmt.Index = first.Literal
		stmt.Variable = second.Literal
	} else {
		stmt.Variable = first.Literal
	}

	p.expect(lexer.IN)
	stmt.Iterable = p.parseExpression()
	stmt.Body = p.parseBlock()
	if p.match(lexer.ELSE) {
		stmt.Else = p.parseBlock()
	}
	return stmt
}

func (p *Parser) parseWhileStmt() ast.Statement {
	tok := p.expect(lexer.WHILE)
	stmt := &ast.WhileStmt{Line: tok.Line, Column: tok.Column}
	stmt.Condition = p.parseExpression()
	stmt.Body = p.parseBlock()
	return stmt
}

func (p *Parser) parseTryStmt() ast.Statement {
	tok := p.expect(lexer.TRY)
	stmt := &ast.TryStmt{Line: tok.Line, Column: tok.Column}
	stmt.Body = p.parseBlock()

	if p.match(lexer.CATCH) {
		if p.check(lexer.IDENT) {
			stmt.CatchName = p.advance().Literal
		}
		stmt.Catch = p.parseBlock()
	}
	if p.match(lexer.FINALLY) {
		stmt.Finally = p.parseBlock()
	}
	if stmt.Catch == nil && stmt.Finally == nil {
		p.errorWithHint(tok, "add a 'catch' or 'finally' block",
			"'try' without catch or finally")
	}
	return stmt
}

// concurrentModes are the recognized concurrent block modes
var concurrentModes = map[string]bool{
	"all":             true,
	"first":           true,
	"cancel_on_error": true,
}

// parseConcurrentStmt parses: concurrent [mode] [timeout(ms)] { ... }
func (p *Parser) parseConcurrentStmt() ast.Statement {
	tok := p.expect(lexer.CONCURRENT)
	stmt := &ast.ConcurrentStmt{Mode: "all", Line: tok.Line, Column: tok.Column}

	for p.check(lexer.IDENT) {
		opt := p.current()
		switch {
		case concurrentModes[opt.Literal]:
			p.advance()
			stmt.Mode = opt.Literal
		case opt.Literal == "timeout":
			p.advance()
			p.expect(lexer.LPAREN)
			stmt.Timeout = p.parseExpression()
			p.expect(lexer.RPAREN)
		default:
			p.errorWithHint(opt, "valid options are 'all', 'first', 'cancel_on_error', and 'timeout(ms)'",
				"unknown concurrent option '%s'", opt.Literal)
		}
	}

	stmt.Body = p.parseBlock()
	for _, s := range stmt.Body.Statements {
		if !isSpawnEntry(s) {
			line, col := s.Pos()
			panic(bailout{err: &ParseError{
				Message: "concurrent blocks may only contain 'name = spawn f()' or bare 'spawn f()' entries",
				Line:    line,
				Column:  col,
				File:    p.file,
			}})
		}
	}
	return stmt
}

func isSpawnEntry(s ast.Statement) bool {
	switch stmt := s.(type) {
	case *ast.BindingStmt:
		_, ok := stmt.Value.(*ast.SpawnExpr)
		return ok
	case *ast.ExprStmt:
		_, ok := stmt.Expr.(*ast.SpawnExpr)
		return ok
	}
	return false
}

// parseSelectStmt parses a select statement over channels
func (p *Parser) parseSelectStmt() ast.Statement {
	tok := p.expect(lexer.SELECT)
	stmt := &ast.SelectStmt{Line: tok.Line, Column: tok.Column}
	p.expect(lexer.LBRACE)

	seenDefault := false
	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		c := p.parseSelectCase()
		if c.Kind == ast.SelectDefault {
			if seenDefault {
				p.errorf(p.current(), "select has more than one '_' arm")
			}
			seenDefault = true
		}
		stmt.Cases = append(stmt.Cases, c)
		p.match(lexer.COMMA)
	}
	p.expect(lexer.RBRACE)

	if len(stmt.Cases) == 0 {
		p.errorf(tok, "select has no arms")
	}
	return stmt
}

func (p *Parser) parseSelectCase() *ast.SelectCase {
	tok := p.current()
	c := &ast.SelectCase{Line: tok.Line, Column: tok.Column}

	switch {
	case tok.Type == lexer.IDENT && tok.Literal == "_" && p.peek().Type == lexer.FAT_ARROW:
		p.advance()
		c.Kind = ast.SelectDefault
	case tok.Type == lexer.IDENT && tok.Literal == "timeout" && p.peek().Type == lexer.LPAREN:
		p.advance()
		p.advance()
		c.Kind = ast.SelectTimeout
		c.Value = p.parseExpression()
		p.expect(lexer.RPAREN)
	case tok.Type == lexer.IDENT && p.peek().Type == lexer.FROM:
		p.advance()
		p.advance()
		c.Kind = ast.SelectRecv
		c.Binding = tok.Literal
		c.Channel = p.parseArmHeadExpr()
	default:
		// send arm: ch.send(value) => ...
		expr := p.parseArmHeadExpr()
		call, ok := expr.(*ast.CallExpr)
		if !ok {
			p.errorf(tok, "expected select arm ('v from ch', 'ch.send(v)', 'timeout(ms)', or '_')")
		}
		access, ok := call.Callee.(*ast.FieldAccessExpr)
		if !ok || access.Field != "send" || len(call.Args) != 1 {
			p.errorf(tok, "expected select arm ('v from ch', 'ch.send(v)', 'timeout(ms)', or '_')")
		}
		c.Kind = ast.SelectSend
		c.Channel = access.Object
		c.Value = call.Args[0]
	}

	p.expect(lexer.FAT_ARROW)
	if p.check(lexer.LBRACE) {
		c.Body = p.parseBlock()
	} else {
		stmt := p.parseStatement()
		line, col := stmt.Pos()
		c.Body = &ast.Block{Statements: []ast.Statement{stmt}, Line: line, Column: col}
	}
	return c
}

// sameLineAsPrev reports whether the current token sits on the same line as
// the previously consumed token. Statement boundaries fall out of this:
// postfix and infix continuations require the same line (fluent '.' chains
// excepted).
func (p *Parser) sameLineAsPrev() bool {
	if p.pos == 0 {
		return true
	}
	return p.current().Line == p.tokens[p.pos-1].Line
}
