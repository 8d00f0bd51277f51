package parser

import (
	"github.com/tova-lang/tova/internal/ast"
	"github.com/tova-lang/tova/internal/lexer"
)

// Binding powers, lowest first. Power is right-associative; everything else
// is left-associative.
const (
	precNone = iota
	precPipe
	precCoalesce
	precOr
	precAnd
	precCompare
	precRange
	precAdditive
	precMultiplicative
	precPower
)

var precedences = map[lexer.TokenType]int{
	lexer.PIPE_OP:    precPipe,
	lexer.COALESCE:   precCoalesce,
	lexer.OR:         precOr,
	lexer.PIPE_PIPE:  precOr,
	lexer.AND:        precAnd,
	lexer.AMP_AMP:    precAnd,
	lexer.EQ:         precCompare,
	lexer.NEQ:        precCompare,
	lexer.LT:         precCompare,
	lexer.GT:         precCompare,
	lexer.LEQ:        precCompare,
	lexer.GEQ:        precCompare,
	lexer.DOT_DOT:    precRange,
	lexer.DOT_DOT_EQ: precRange,
	lexer.PLUS:       precAdditive,
	lexer.MINUS:      precAdditive,
	lexer.STAR:       precMultiplicative,
	lexer.SLASH:      precMultiplicative,
	lexer.PERCENT:    precMultiplicative,
	lexer.POWER:      precPower,
}

func (p *Parser) parseExpression() ast.Expression {
	return p.parsePrecedence(precPipe)
}

func (p *Parser) parsePrecedence(min int) ast.Expression {
	left := p.parseUnary()

	for {
		op := p.current()
		prec, ok := precedences[op.Type]
		if !ok || prec < min || !p.sameLineAsPrev() {
			return left
		}
		p.advance()

		if op.Type == lexer.DOT_DOT || op.Type == lexer.DOT_DOT_EQ {
			line, col := left.Pos()
			left = &ast.RangeExpr{
				Start:     left,
				End:       p.parsePrecedence(prec + 1),
				Inclusive: op.Type == lexer.DOT_DOT_EQ,
				Line:      line,
				Column:    col,
			}
			continue
		}

		next := prec + 1
		if op.Type == lexer.POWER {
			next = prec // right-associative
		}
		line, col := left.Pos()
		left = &ast.BinaryExpr{
			Left:   left,
			Op:     normalizeOp(op.Type),
			Right:  p.parsePrecedence(next),
			Line:   line,
			Column: col,
		}
	}
}

// normalizeOp folds keyword operators onto their symbolic spellings
func normalizeOp(t lexer.TokenType) lexer.TokenType {
	switch t {
	case lexer.AND:
		return lexer.AMP_AMP
	case lexer.OR:
		return lexer.PIPE_PIPE
	}
	return t
}

func (p *Parser) parseUnary() ast.Expression {
	tok := p.current()
	switch tok.Type {
	case lexer.MINUS, lexer.BANG, lexer.NOT:
		p.advance()
		op := tok.Type
		if op == lexer.NOT {
			op = lexer.BANG
		}
		return &ast.UnaryExpr{
			Op:      op,
			Operand: p.parseUnary(),
			Line:    tok.Line,
			Column:  tok.Column,
		}
	case lexer.AWAIT:
		p.advance()
		return &ast.AwaitExpr{Expr: p.parseUnary(), Line: tok.Line, Column: tok.Column}
	case lexer.SPAWN:
		p.advance()
		call := p.parseUnary()
		if _, ok := call.(*ast.CallExpr); !ok {
			p.errorWithHint(tok, "write 'spawn f(args)'", "spawn expects a function call")
		}
		return &ast.SpawnExpr{Call: call, Line: tok.Line, Column: tok.Column}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePostfix(expr ast.Expression) ast.Expression {
	for {
		switch {
		case p.check(lexer.DOT):
			// field access may continue on the next line (fluent chains)
			p.advance()
			name := p.expect(lexer.IDENT)
			line, col := expr.Pos()
			expr = &ast.FieldAccessExpr{Object: expr, Field: name.Literal, Line: line, Column: col}
		case p.check(lexer.LPAREN) && p.sameLineAsPrev():
			expr = p.parseCall(expr)
		case p.check(lexer.LBRACKET) && p.sameLineAsPrev():
			expr = p.parseIndexOrSlice(expr)
		case p.check(lexer.QUESTION) && p.sameLineAsPrev():
			tok := p.advance()
			expr = &ast.PropagateExpr{Expr: expr, Line: tok.Line, Column: tok.Column}
		default:
			return expr
		}
	}
}

func (p *Parser) parseCall(callee ast.Expression) ast.Expression {
	p.expect(lexer.LPAREN)
	line, col := callee.Pos()
	call := &ast.CallExpr{Callee: callee, Line: line, Column: col}
	for !p.check(lexer.RPAREN) && !p.check(lexer.EOF) {
		call.Args = append(call.Args, p.exprInBrackets())
		if !p.match(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RPAREN)
	return call
}

// parseIndexOrSlice parses arr[i], arr[a:b], and arr[a:b:c]; slice bounds
// may be omitted.
func (p *Parser) parseIndexOrSlice(object ast.Expression) ast.Expression {
	tok := p.expect(lexer.LBRACKET)
	line, col := object.Pos()

	var start ast.Expression
	if !p.check(lexer.COLON) {
		start = p.exprInBrackets()
		if p.match(lexer.RBRACKET) {
			return &ast.IndexExpr{Object: object, Index: start, Line: line, Column: col}
		}
	}
	if start == nil && p.check(lexer.RBRACKET) {
		p.errorf(tok, "empty index expression")
	}

	p.expect(lexer.COLON)
	slice := &ast.SliceExpr{Object: object, Start: start, Line: line, Column: col}
	if !p.check(lexer.RBRACKET) && !p.check(lexer.COLON) {
		slice.Stop = p.exprInBrackets()
	}
	if p.match(lexer.COLON) && !p.check(lexer.RBRACKET) {
		slice.Step = p.exprInBrackets()
	}
	p.expect(lexer.RBRACKET)
	return slice
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.current()
	switch tok.Type {
	case lexer.INT_LIT:
		p.advance()
		return &ast.IntLit{Value: tok.Literal, Line: tok.Line, Column: tok.Column}
	case lexer.FLOAT_LIT:
		p.advance()
		return &ast.FloatLit{Value: tok.Literal, Line: tok.Line, Column: tok.Column}
	case lexer.STRING_LIT:
		p.advance()
		return p.buildStringLit(tok)
	case lexer.TRUE, lexer.FALSE:
		p.advance()
		return &ast.BoolLit{Value: tok.Type == lexer.TRUE, Line: tok.Line, Column: tok.Column}
	case lexer.NIL:
		p.advance()
		return &ast.NilLit{Line: tok.Line, Column: tok.Column}
	case lexer.IDENT:
		if p.peek().Type == lexer.FAT_ARROW && !p.armHead {
			return p.parseSingleParamLambda(false)
		}
		p.advance()
		return &ast.Identifier{Name: tok.Literal, Line: tok.Line, Column: tok.Column}
	case lexer.ASYNC:
		return p.parseAsyncLambda()
	case lexer.LPAREN:
		return p.parseParenExpr()
	case lexer.LBRACKET:
		return p.parseArrayLit()
	case lexer.LBRACE:
		return p.parseRecordLit()
	case lexer.MATCH:
		return p.parseMatchExpr()
	case lexer.IF:
		return p.parseIfExpr()
	case lexer.JSX_OPEN:
		return p.parseJSXElement()
	default:
		p.errorf(tok, "expected expression, got %s", describeToken(tok))
		return nil
	}
}

// buildStringLit turns a string token into a literal, sub-parsing
// interpolated segments
func (p *Parser) buildStringLit(tok lexer.Token) ast.Expression {
	lit := &ast.StringLit{Value: tok.Literal, Line: tok.Line, Column: tok.Column}
	if tok.Parts == nil {
		return lit
	}
	for _, part := range tok.Parts {
		piece := &ast.StringPiece{Text: part.Text}
		if part.IsExpr {
			piece.Expr = p.parseEmbedded(part.Tokens)
		}
		lit.Parts = append(lit.Parts, piece)
	}
	return lit
}

// parseEmbedded parses a token run captured inside a string interpolation
func (p *Parser) parseEmbedded(tokens []lexer.Token) ast.Expression {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.EOF {
		tokens = append(tokens, lexer.Token{Type: lexer.EOF})
	}
	sub := &Parser{tokens: tokens, file: p.file}
	expr := sub.parseExpression()
	if !sub.check(lexer.EOF) {
		sub.errorf(sub.current(), "unexpected %s in string interpolation", describeToken(sub.current()))
	}
	return expr
}

func (p *Parser) parseSingleParamLambda(isAsync bool) ast.Expression {
	name := p.expect(lexer.IDENT)
	p.expect(lexer.FAT_ARROW)
	lambda := &ast.LambdaExpr{
		Params:  []*ast.Param{{Name: name.Literal, Line: name.Line, Column: name.Column}},
		IsAsync: isAsync,
		Line:    name.Line,
		Column:  name.Column,
	}
	p.parseLambdaBody(lambda)
	return lambda
}

func (p *Parser) parseAsyncLambda() ast.Expression {
	tok := p.expect(lexer.ASYNC)
	if p.check(lexer.IDENT) {
		return p.parseSingleParamLambda(true)
	}
	if !p.check(lexer.LPAREN) {
		p.errorf(tok, "expected lambda after 'async'")
	}
	lambda, ok := p.tryParseLambda(true)
	if !ok {
		p.errorf(tok, "expected lambda after 'async'")
	}
	return lambda
}

// parseParenExpr disambiguates lambdas from grouped and tuple expressions by
// speculatively parsing a parameter list and backtracking when it is not
// followed by '=>'.
func (p *Parser) parseParenExpr() ast.Expression {
	if lambda, ok := p.tryParseLambda(false); ok {
		return lambda
	}

	tok := p.expect(lexer.LPAREN)
	if p.check(lexer.RPAREN) {
		p.errorf(tok, "expected expression inside parentheses")
	}
	first := p.exprInBrackets()
	if p.match(lexer.RPAREN) {
		return first
	}

	tuple := &ast.TupleLit{Elements: []ast.Expression{first}, Line: tok.Line, Column: tok.Column}
	for p.match(lexer.COMMA) {
		if p.check(lexer.RPAREN) {
			break
		}
		tuple.Elements = append(tuple.Elements, p.exprInBrackets())
	}
	p.expect(lexer.RPAREN)
	return tuple
}

// tryParseLambda speculatively parses '(params) => body'. On any parse
// failure before the '=>' it rewinds and reports no lambda.
func (p *Parser) tryParseLambda(isAsync bool) (expr ast.Expression, ok bool) {
	mark := p.snapshot()
	committed := false
	defer func() {
		if r := recover(); r != nil {
			if _, isBail := r.(bailout); !isBail || committed {
				panic(r)
			}
			p.restore(mark)
			expr, ok = nil, false
		}
	}()

	tok := p.expect(lexer.LPAREN)
	lambda := &ast.LambdaExpr{IsAsync: isAsync, Line: tok.Line, Column: tok.Column}
	lambda.Params = p.parseParams()
	p.expect(lexer.RPAREN)
	p.expect(lexer.FAT_ARROW)
	committed = true

	p.parseLambdaBody(lambda)
	return lambda, true
}

func (p *Parser) parseLambdaBody(lambda *ast.LambdaExpr) {
	if p.check(lexer.LBRACE) {
		lambda.Body = p.parseBlock()
		return
	}
	lambda.Expr = p.parseExpression()
}

func (p *Parser) parseArrayLit() ast.Expression {
	tok := p.expect(lexer.LBRACKET)
	arr := &ast.ArrayLit{Line: tok.Line, Column: tok.Column}
	for !p.check(lexer.RBRACKET) && !p.check(lexer.EOF) {
		arr.Elements = append(arr.Elements, p.exprInBrackets())
		if !p.match(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RBRACKET)
	return arr
}

func (p *Parser) parseRecordLit() ast.Expression {
	tok := p.expect(lexer.LBRACE)
	rec := &ast.RecordLit{Line: tok.Line, Column: tok.Column}
	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		key := p.current()
		if key.Type != lexer.IDENT && key.Type != lexer.STRING_LIT && !lexer.IsKeyword(key.Type) {
			p.errorf(key, "expected record key, got %s", describeToken(key))
		}
		p.advance()
		p.expect(lexer.COLON)
		rec.Keys = append(rec.Keys, key.Literal)
		rec.Values = append(rec.Values, p.exprInBrackets())
		if !p.match(lexer.COMMA) {
			break
		}
	}
	p.expect(lexer.RBRACE)
	return rec
}

// parseIfExpr parses an if in expression position; every branch is a single
// braced expression.
func (p *Parser) parseIfExpr() ast.Expression {
	tok := p.expect(lexer.IF)
	return p.parseIfExprChain(tok)
}

func (p *Parser) parseIfExprChain(tok lexer.Token) ast.Expression {
	expr := &ast.IfExpr{Line: tok.Line, Column: tok.Column}
	expr.Condition = p.parseExpression()
	p.expect(lexer.LBRACE)
	expr.Then = p.exprInBrackets()
	p.expect(lexer.RBRACE)

	switch {
	case p.check(lexer.ELIF):
		elifTok := p.advance()
		expr.Else = p.parseIfExprChain(elifTok)
	case p.match(lexer.ELSE):
		p.expect(lexer.LBRACE)
		expr.Else = p.exprInBrackets()
		p.expect(lexer.RBRACE)
	}
	return expr
}

func (p *Parser) parseMatchExpr() ast.Expression {
	tok := p.expect(lexer.MATCH)
	m := &ast.MatchExpr{Line: tok.Line, Column: tok.Column}
	m.Scrutinee = p.parseExpression()
	p.expect(lexer.LBRACE)

	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		m.Arms = append(m.Arms, p.parseMatchArm())
		p.match(lexer.COMMA)
	}
	p.expect(lexer.RBRACE)

	if len(m.Arms) == 0 {
		p.errorf(tok, "match has no arms")
	}
	return m
}

// parseArmHeadExpr parses an expression in the head of a match or select arm,
// where the first top-level '=>' ends the head rather than opening a lambda.
func (p *Parser) parseArmHeadExpr() ast.Expression {
	save := p.armHead
	p.armHead = true
	defer func() { p.armHead = save }()
	return p.parseExpression()
}

// exprInBrackets parses an expression with arm-head termination suspended;
// inside a bracketed subexpression '=>' reads as a lambda again.
func (p *Parser) exprInBrackets() ast.Expression {
	save := p.armHead
	p.armHead = false
	defer func() { p.armHead = save }()
	return p.parseExpression()
}

func (p *Parser) parseMatchArm() *ast.MatchArm {
	tok := p.current()
	arm := &ast.MatchArm{Line: tok.Line, Column: tok.Column}
	arm.Pattern = p.parsePattern()

	if p.match(lexer.IF) {
		arm.Guard = p.parseArmHeadExpr()
	}
	p.expect(lexer.FAT_ARROW)
	if p.check(lexer.LBRACE) {
		arm.Block = p.parseBlock()
	} else {
		arm.Body = p.parseExpression()
	}
	return arm
}

func (p *Parser) parsePattern() *ast.Pattern {
	tok := p.current()
	pat := &ast.Pattern{Line: tok.Line, Column: tok.Column}

	switch tok.Type {
	case lexer.IDENT:
		p.advance()
		switch {
		case tok.Literal == "_":
			pat.Kind = ast.PatternWildcard
		case isUpperStart(tok.Literal):
			pat.Kind = ast.PatternVariant
			pat.Variant = tok.Literal
			if p.check(lexer.LPAREN) && p.sameLineAsPrev() {
				p.advance()
				seen := map[string]bool{}
				for !p.check(lexer.RPAREN) && !p.check(lexer.EOF) {
					sub := p.parsePattern()
					if sub.Kind == ast.PatternBinding {
						if seen[sub.Binding] {
							p.errorf(tok, "duplicate binding '%s' in pattern '%s'", sub.Binding, pat.Variant)
						}
						seen[sub.Binding] = true
					}
					pat.Subpatterns = append(pat.Subpatterns, sub)
					if !p.match(lexer.COMMA) {
						break
					}
				}
				p.expect(lexer.RPAREN)
			}
		default:
			pat.Kind = ast.PatternBinding
			pat.Binding = tok.Literal
		}
		return pat
	case lexer.INT_LIT, lexer.FLOAT_LIT, lexer.STRING_LIT, lexer.TRUE, lexer.FALSE, lexer.NIL, lexer.MINUS:
		lit := p.parsePatternLiteral()
		if p.check(lexer.DOT_DOT) || p.check(lexer.DOT_DOT_EQ) {
			op := p.advance()
			pat.Kind = ast.PatternRange
			pat.Start = lit
			pat.End = p.parsePatternLiteral()
			pat.Inclusive = op.Type == lexer.DOT_DOT_EQ
			return pat
		}
		pat.Kind = ast.PatternLiteral
		pat.Literal = lit
		return pat
	default:
		p.errorf(tok, "expected pattern, got %s", describeToken(tok))
		return nil
	}
}

func (p *Parser) parsePatternLiteral() ast.Expression {
	tok := p.current()
	switch tok.Type {
	case lexer.MINUS:
		p.advance()
		return &ast.UnaryExpr{
			Op:      lexer.MINUS,
			Operand: p.parsePatternLiteral(),
			Line:    tok.Line,
			Column:  tok.Column,
		}
	case lexer.INT_LIT:
		p.advance()
		return &ast.IntLit{Value: tok.Literal, Line: tok.Line, Column: tok.Column}
	case lexer.FLOAT_LIT:
		p.advance()
		return &ast.FloatLit{Value: tok.Literal, Line: tok.Line, Column: tok.Column}
	case lexer.STRING_LIT:
		p.advance()
		return p.buildStringLit(tok)
	case lexer.TRUE, lexer.FALSE:
		p.advance()
		return &ast.BoolLit{Value: tok.Type == lexer.TRUE, Line: tok.Line, Column: tok.Column}
	case lexer.NIL:
		p.advance()
		return &ast.NilLit{Line: tok.Line, Column: tok.Column}
	default:
		p.errorf(tok, "expected literal pattern, got %s", describeToken(tok))
		return nil
	}
}

func isUpperStart(s string) bool {
	return len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z'
}
