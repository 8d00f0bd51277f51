package parser

import (
	"fmt"

	"github.com/tova-lang/tova/internal/lexer"
)

// ParseError is a fatal syntax error. Parsing stops at the first one.
type ParseError struct {
	Message string
	Hint    string
	Line    int
	Column  int
	File    string
}

func (e *ParseError) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Line, e.Column)
	if e.File != "" {
		loc = e.File + ":" + loc
	}
	msg := fmt.Sprintf("error[%s]: %s", loc, e.Message)
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// bailout carries a *ParseError up to Parse's recover
type bailout struct {
	err *ParseError
}

// errorf aborts the current parse with a syntax error at the given token
func (p *Parser) errorf(tok lexer.Token, format string, args ...interface{}) {
	p.errorWithHint(tok, "", format, args...)
}

func (p *Parser) errorWithHint(tok lexer.Token, hint, format string, args ...interface{}) {
	panic(bailout{err: &ParseError{
		Message: fmt.Sprintf(format, args...),
		Hint:    hint,
		Line:    tok.Line,
		Column:  tok.Column,
		File:    p.file,
	}})
}

// current returns the current token
func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.tokens[p.pos]
}

// peek returns the next token without consuming
func (p *Parser) peek() lexer.Token {
	return p.peekAt(1)
}

// peekAt returns the token n positions ahead without consuming
func (p *Parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.tokens) {
		return lexer.Token{Type: lexer.EOF}
	}
	return p.tokens[p.pos+n]
}

// advance moves to the next token and returns the consumed token
func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches, otherwise aborts
func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	tok := p.current()
	if tok.Type != tt {
		p.errorf(tok, "expected %s, got %s", tt, describeToken(tok))
	}
	return p.advance()
}

// check returns true if the current token is of the given type
func (p *Parser) check(tt lexer.TokenType) bool {
	return p.current().Type == tt
}

// match consumes the current token if it matches, returns true if consumed
func (p *Parser) match(tt lexer.TokenType) bool {
	if p.check(tt) {
		p.advance()
		return true
	}
	return false
}

// snapshot records the cursor for speculative parsing
func (p *Parser) snapshot() int {
	return p.pos
}

// restore rewinds the cursor to a snapshot
func (p *Parser) restore(mark int) {
	p.pos = mark
}

// describeToken renders a token for error messages, preferring the source
// spelling over the token-type name
func describeToken(tok lexer.Token) string {
	switch tok.Type {
	case lexer.EOF:
		return "end of file"
	case lexer.IDENT, lexer.INT_LIT, lexer.FLOAT_LIT:
		return fmt.Sprintf("'%s'", tok.Literal)
	case lexer.STRING_LIT:
		return "string literal"
	default:
		if tok.Literal != "" {
			return fmt.Sprintf("'%s'", tok.Literal)
		}
		return tok.Type.String()
	}
}
