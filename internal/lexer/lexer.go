package lexer

import "fmt"

// LexError reports a malformed or unterminated token construct. Lexing stops
// at the first error; a broken token stream is never handed to the parser.
type LexError struct {
	Message string
	Line    int
	Column  int
	File    string
}

func (e *LexError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// DocComment is a /// comment captured during lexing, available to tooling.
type DocComment struct {
	Text string
	Line int
}

type modeKind int

const (
	modeDefault modeKind = iota
	modeTag               // inside <...> of a markup tag
	modeText              // between an open tag and its close tag
	modeExpr              // inside a brace-delimited expression in markup
)

type mode struct {
	kind    modeKind
	depth   int  // brace depth for modeExpr
	closing bool // modeTag: this is a </...> tag
}

// Lexer scans Tova source code and produces tokens. A mode stack tracks the
// markup (JSX-like) sub-grammars: tag interiors, text runs between tags, and
// brace-delimited expressions embedded in either.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int  // current line number
	column       int  // current column number
	file         string

	modes      []mode
	tagStack   []string
	pendingTag string
	prevType   TokenType // previous significant token, for < disambiguation
	started    bool      // false until the first token is produced

	queued []Token // tokens emitted ahead of the cursor (style raw blocks)
	docs   []DocComment
	err    *LexError
}

// New creates a new Lexer instance
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// NewWithFile creates a lexer whose tokens carry the given source label
func NewWithFile(input, file string) *Lexer {
	l := New(input)
	l.file = file
	return l
}

// Docs returns the doc comments collected so far
func (l *Lexer) Docs() []DocComment {
	return l.docs
}

// Err returns the first lex error encountered, if any
func (l *Lexer) Err() *LexError {
	return l.err
}

// Tokenize scans the entire input and returns the token sequence. It stops at
// the first malformed construct and returns the error for it.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok := l.NextToken()
		if l.err != nil {
			return nil, l.err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			break
		}
	}
	return tokens, nil
}

// readChar reads the next character and advances the position
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII code for NUL
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing the position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// peekCharAt returns the character n positions ahead without advancing
func (l *Lexer) peekCharAt(n int) byte {
	if l.readPosition+n-1 >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition+n-1]
}

func (l *Lexer) setError(line, col int, format string, args ...interface{}) {
	if l.err != nil {
		return
	}
	l.err = &LexError{
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  col,
		File:    l.file,
	}
}

func (l *Lexer) currentMode() mode {
	if len(l.modes) == 0 {
		return mode{kind: modeDefault}
	}
	return l.modes[len(l.modes)-1]
}

func (l *Lexer) pushMode(m mode) {
	l.modes = append(l.modes, m)
}

func (l *Lexer) popMode() {
	if len(l.modes) > 0 {
		l.modes = l.modes[:len(l.modes)-1]
	}
}

// skipWhitespace skips whitespace characters
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		if l.ch == '\n' {
			l.line++
			l.column = 0
		}
		l.readChar()
	}
}

// skipLineComment skips a // comment; /// doc comment content is captured
func (l *Lexer) skipLineComment() {
	line := l.line
	isDoc := l.peekCharAt(2) == '/'
	l.readChar() // consume first '/'
	l.readChar() // consume second '/'
	if isDoc {
		l.readChar() // consume third '/'
	}
	start := l.position
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
	if isDoc {
		text := l.input[start:l.position]
		// A fourth slash is decoration, not content.
		if len(text) > 0 && text[0] == '/' {
			text = text[1:]
		}
		l.docs = append(l.docs, DocComment{Text: trimSpace(text), Line: line})
	}
}

// skipBlockComment skips a /* */ comment, honoring arbitrary nesting
func (l *Lexer) skipBlockComment() {
	startLine, startCol := l.line, l.column
	l.readChar() // consume '/'
	l.readChar() // consume '*'
	depth := 1
	for depth > 0 {
		if l.ch == 0 {
			l.setError(startLine, startCol, "unterminated block comment")
			return
		}
		if l.ch == '\n' {
			l.line++
			l.column = 0
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			depth++
			continue
		}
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			depth--
			continue
		}
		l.readChar()
	}
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads a numeric literal: decimal with _ separators, 0x/0o/0b
// prefixes, fractions, and exponents. Underscores are stripped from the
// stored literal. `1..10` must stay NUMBER DOT_DOT NUMBER, so a dot is only
// part of the number when the character after it is a digit.
func (l *Lexer) readNumber() (string, TokenType) {
	position := l.position
	tokenType := INT_LIT

	if l.ch == '0' {
		switch l.peekChar() {
		case 'x', 'X':
			l.readChar()
			l.readChar()
			for isHexDigit(l.ch) || l.ch == '_' {
				l.readChar()
			}
			return stripUnderscores(l.input[position:l.position]), INT_LIT
		case 'o', 'O':
			l.readChar()
			l.readChar()
			for (l.ch >= '0' && l.ch <= '7') || l.ch == '_' {
				l.readChar()
			}
			return stripUnderscores(l.input[position:l.position]), INT_LIT
		case 'b', 'B':
			l.readChar()
			l.readChar()
			for l.ch == '0' || l.ch == '1' || l.ch == '_' {
				l.readChar()
			}
			return stripUnderscores(l.input[position:l.position]), INT_LIT
		}
	}

	for isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		tokenType = FLOAT_LIT
		l.readChar() // consume '.'
		for isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}

	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekCharAt(2))) {
			tokenType = FLOAT_LIT
			l.readChar() // consume 'e'
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) || l.ch == '_' {
				l.readChar()
			}
		}
	}

	return stripUnderscores(l.input[position:l.position]), tokenType
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	if len(l.queued) > 0 {
		tok := l.queued[0]
		l.queued = l.queued[1:]
		l.noteToken(tok.Type)
		return tok
	}

	switch l.currentMode().kind {
	case modeText:
		return l.lexText()
	case modeTag:
		return l.lexTag()
	default:
		return l.lexDefault()
	}
}

func (l *Lexer) noteToken(t TokenType) {
	l.started = true
	l.prevType = t
}

func (l *Lexer) makeToken(t TokenType, literal string, line, col int) Token {
	l.noteToken(t)
	return Token{Type: t, Literal: literal, Line: line, Column: col, File: l.file}
}

// lexDefault scans in the ordinary (non-markup) grammar. When the current
// mode is modeExpr the brace depth is maintained so the matching '}' hands
// control back to the enclosing markup mode.
func (l *Lexer) lexDefault() Token {
	l.skipWhitespace()

	for (l.ch == '/' && l.peekChar() == '/') || (l.ch == '/' && l.peekChar() == '*') {
		if l.peekChar() == '/' {
			l.skipLineComment()
		} else {
			l.skipBlockComment()
			if l.err != nil {
				return l.makeToken(ILLEGAL, "", l.line, l.column)
			}
		}
		l.skipWhitespace()
	}

	line, col := l.line, l.column

	switch l.ch {
	case 0:
		return l.makeToken(EOF, "", line, col)
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return l.makeToken(EQ, "==", line, col)
		}
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return l.makeToken(FAT_ARROW, "=>", line, col)
		}
		l.readChar()
		return l.makeToken(ASSIGN, "=", line, col)
	case '+':
		l.readChar()
		return l.makeToken(PLUS, "+", line, col)
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return l.makeToken(ARROW, "->", line, col)
		}
		l.readChar()
		return l.makeToken(MINUS, "-", line, col)
	case '*':
		if l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			return l.makeToken(POWER, "**", line, col)
		}
		l.readChar()
		return l.makeToken(STAR, "*", line, col)
	case '/':
		l.readChar()
		return l.makeToken(SLASH, "/", line, col)
	case '%':
		l.readChar()
		return l.makeToken(PERCENT, "%", line, col)
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return l.makeToken(NEQ, "!=", line, col)
		}
		l.readChar()
		return l.makeToken(BANG, "!", line, col)
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			l.readChar()
			return l.makeToken(AMP_AMP, "&&", line, col)
		}
		l.readChar()
		return l.makeToken(ILLEGAL, "&", line, col)
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			l.readChar()
			return l.makeToken(PIPE_PIPE, "||", line, col)
		}
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return l.makeToken(PIPE_OP, "|>", line, col)
		}
		l.readChar()
		return l.makeToken(ILLEGAL, "|", line, col)
	case '?':
		if l.peekChar() == '?' {
			l.readChar()
			l.readChar()
			return l.makeToken(COALESCE, "??", line, col)
		}
		l.readChar()
		return l.makeToken(QUESTION, "?", line, col)
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return l.makeToken(LEQ, "<=", line, col)
		}
		if l.isTagOpen() {
			l.readChar()
			l.pushMode(mode{kind: modeTag})
			l.pendingTag = ""
			return l.makeToken(JSX_OPEN, "<", line, col)
		}
		l.readChar()
		return l.makeToken(LT, "<", line, col)
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return l.makeToken(GEQ, ">=", line, col)
		}
		l.readChar()
		return l.makeToken(GT, ">", line, col)
	case '.':
		if l.peekChar() == '.' {
			if l.peekCharAt(2) == '=' {
				l.readChar()
				l.readChar()
				l.readChar()
				return l.makeToken(DOT_DOT_EQ, "..=", line, col)
			}
			l.readChar()
			l.readChar()
			return l.makeToken(DOT_DOT, "..", line, col)
		}
		l.readChar()
		return l.makeToken(DOT, ".", line, col)
	case '(':
		l.readChar()
		return l.makeToken(LPAREN, "(", line, col)
	case ')':
		l.readChar()
		return l.makeToken(RPAREN, ")", line, col)
	case '{':
		if m := l.currentMode(); m.kind == modeExpr {
			l.modes[len(l.modes)-1].depth++
		}
		l.readChar()
		return l.makeToken(LBRACE, "{", line, col)
	case '}':
		if m := l.currentMode(); m.kind == modeExpr {
			l.modes[len(l.modes)-1].depth--
			if l.modes[len(l.modes)-1].depth == 0 {
				l.popMode()
			}
		}
		l.readChar()
		return l.makeToken(RBRACE, "}", line, col)
	case '[':
		l.readChar()
		return l.makeToken(LBRACKET, "[", line, col)
	case ']':
		l.readChar()
		return l.makeToken(RBRACKET, "]", line, col)
	case ',':
		l.readChar()
		return l.makeToken(COMMA, ",", line, col)
	case ':':
		l.readChar()
		return l.makeToken(COLON, ":", line, col)
	case ';':
		l.readChar()
		return l.makeToken(SEMICOLON, ";", line, col)
	case '"':
		return l.readString(line, col)
	default:
		if isLetter(l.ch) || l.ch == '_' {
			ident := l.readIdentifier()
			if ident == "style" && l.styleBlockAhead() {
				l.queueRawBlock()
				return l.makeToken(STYLE, ident, line, col)
			}
			return l.makeToken(LookupIdent(ident), ident, line, col)
		}
		if isDigit(l.ch) {
			literal, tokenType := l.readNumber()
			return l.makeToken(tokenType, literal, line, col)
		}
		ch := l.ch
		l.readChar()
		return l.makeToken(ILLEGAL, string(ch), line, col)
	}
}

// isTagOpen decides whether '<' starts a markup tag rather than a comparison.
// A tag can only begin where an expression is expected: after an operator,
// an assignment, a keyword, an opening delimiter, or at start of input. After
// a value-ending token the '<' is a comparison.
func (l *Lexer) isTagOpen() bool {
	next := l.peekChar()
	if !isLetter(next) && next != '_' {
		return false
	}
	if !l.started {
		return true
	}
	switch l.prevType {
	case IDENT, INT_LIT, FLOAT_LIT, STRING_LIT, TRUE, FALSE, NIL,
		RPAREN, RBRACKET, RBRACE, JSX_SLASH_GT, JSX_TEXT, RAW_BLOCK, QUESTION:
		return false
	}
	return true
}

// lexTag scans inside a markup tag: identifiers stay raw (no keyword lookup)
// so element names like "if" and "for" reach the parser as names.
func (l *Lexer) lexTag() Token {
	l.skipWhitespace()
	line, col := l.line, l.column

	switch l.ch {
	case 0:
		l.setError(line, col, "unterminated markup tag")
		return l.makeToken(EOF, "", line, col)
	case '>':
		l.readChar()
		closing := l.currentMode().closing
		l.popMode()
		if closing {
			if len(l.tagStack) > 0 {
				l.tagStack = l.tagStack[:len(l.tagStack)-1]
			}
		} else if l.pendingTag == "elif" || l.pendingTag == "else" {
			// branch tags have no closing tag; their children belong to
			// the enclosing <if> text run
		} else {
			l.tagStack = append(l.tagStack, l.pendingTag)
			l.pushMode(mode{kind: modeText})
		}
		return l.makeToken(GT, ">", line, col)
	case '/':
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			l.popMode()
			return l.makeToken(JSX_SLASH_GT, "/>", line, col)
		}
		l.readChar()
		return l.makeToken(SLASH, "/", line, col)
	case '=':
		l.readChar()
		return l.makeToken(ASSIGN, "=", line, col)
	case ':':
		l.readChar()
		return l.makeToken(COLON, ":", line, col)
	case '{':
		l.pushMode(mode{kind: modeExpr, depth: 1})
		l.readChar()
		return l.makeToken(LBRACE, "{", line, col)
	case '"':
		return l.readString(line, col)
	default:
		if isLetter(l.ch) || l.ch == '_' {
			ident := l.readTagIdentifier()
			m := l.currentMode()
			if m.kind == modeTag && l.pendingTag == "" && !m.closing {
				l.pendingTag = ident
			}
			return l.makeToken(IDENT, ident, line, col)
		}
		ch := l.ch
		l.readChar()
		return l.makeToken(ILLEGAL, string(ch), line, col)
	}
}

// readTagIdentifier reads a markup name; dashes are allowed (custom elements)
func (l *Lexer) readTagIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' || l.ch == '-' {
		l.readChar()
	}
	return l.input[position:l.position]
}

// lexText scans raw text between tags until the next tag or embedded
// expression. Whitespace-only runs are skipped, not emitted.
func (l *Lexer) lexText() Token {
	line, col := l.line, l.column

	position := l.position
	for l.ch != '<' && l.ch != '{' && l.ch != 0 {
		if l.ch == '\n' {
			l.line++
			l.column = 0
		}
		l.readChar()
	}
	text := l.input[position:l.position]

	if trimSpace(text) != "" {
		return l.makeToken(JSX_TEXT, text, line, col)
	}

	line, col = l.line, l.column
	switch l.ch {
	case 0:
		l.setError(line, col, "unterminated markup element")
		return l.makeToken(EOF, "", line, col)
	case '{':
		l.pushMode(mode{kind: modeExpr, depth: 1})
		l.readChar()
		return l.makeToken(LBRACE, "{", line, col)
	default: // '<'
		if l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			l.popMode() // leave text mode of the element being closed
			l.pushMode(mode{kind: modeTag, closing: true})
			return l.makeToken(JSX_CLOSE_OPEN, "</", line, col)
		}
		l.readChar()
		l.pushMode(mode{kind: modeTag})
		l.pendingTag = ""
		return l.makeToken(JSX_OPEN, "<", line, col)
	}
}

// readString reads a string literal, decoding escapes and scanning balanced
// {...} interpolation segments. Expression segments are sub-lexed so the
// token carries their own token run.
func (l *Lexer) readString(line, col int) Token {
	var parts []StringPart
	var text []byte
	hasExpr := false

	l.readChar() // consume opening quote
	for {
		switch l.ch {
		case 0, '\n':
			l.setError(line, col, "unterminated string literal")
			return l.makeToken(ILLEGAL, string(text), line, col)
		case '"':
			l.readChar() // consume closing quote
			if len(text) > 0 || !hasExpr {
				parts = append(parts, StringPart{Text: string(text)})
			}
			tok := l.makeToken(STRING_LIT, flattenParts(parts), line, col)
			if hasExpr {
				tok.Parts = parts
			}
			return tok
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				text = append(text, '\n')
			case 't':
				text = append(text, '\t')
			case 'r':
				text = append(text, '\r')
			case '\\':
				text = append(text, '\\')
			case '"':
				text = append(text, '"')
			case '{':
				text = append(text, '{')
			case '}':
				text = append(text, '}')
			default:
				text = append(text, '\\', l.ch)
			}
			l.readChar()
		case '{':
			if len(text) > 0 {
				parts = append(parts, StringPart{Text: string(text)})
				text = nil
			}
			part, ok := l.readInterpolation(line, col)
			if !ok {
				return l.makeToken(ILLEGAL, "", line, col)
			}
			parts = append(parts, part)
			hasExpr = true
		default:
			text = append(text, l.ch)
			l.readChar()
		}
	}
}

// readInterpolation captures one balanced {...} run inside a string literal
// and sub-lexes it. Nested braces (object literals, lambda bodies) must
// balance; hitting the end of the string first is a lex error.
func (l *Lexer) readInterpolation(strLine, strCol int) (StringPart, bool) {
	exprLine, exprCol := l.line, l.column+1
	l.readChar() // consume '{'
	start := l.position
	depth := 1
	for depth > 0 {
		switch l.ch {
		case 0, '\n':
			l.setError(strLine, strCol, "unterminated string interpolation")
			return StringPart{}, false
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			// Skip a nested string literal wholesale so its braces don't count.
			l.readChar()
			for l.ch != '"' && l.ch != 0 && l.ch != '\n' {
				if l.ch == '\\' {
					l.readChar()
				}
				l.readChar()
			}
			if l.ch != '"' {
				l.setError(strLine, strCol, "unterminated string interpolation")
				return StringPart{}, false
			}
		}
		if depth > 0 {
			l.readChar()
		}
	}
	src := l.input[start:l.position]
	l.readChar() // consume '}'

	sub := New(src)
	sub.file = l.file
	tokens, err := sub.Tokenize()
	if err != nil {
		le := err.(*LexError)
		l.setError(exprLine, exprCol+le.Column-1, "in string interpolation: %s", le.Message)
		return StringPart{}, false
	}
	for i := range tokens {
		if tokens[i].Line == 1 {
			tokens[i].Column += exprCol - 1
		}
		tokens[i].Line += exprLine - 1
	}
	return StringPart{Text: src, IsExpr: true, Tokens: tokens}, true
}

// styleBlockAhead reports whether, after only whitespace, a '{' follows. Only
// then does `style` begin a raw block; otherwise it is an ordinary name.
func (l *Lexer) styleBlockAhead() bool {
	i := l.position
	for i < len(l.input) {
		switch l.input[i] {
		case ' ', '\t', '\n', '\r':
			i++
		case '{':
			return true
		default:
			return false
		}
	}
	return false
}

// queueRawBlock captures the balanced-brace body following `style` verbatim,
// including nested braces and comments, and queues it as a RAW_BLOCK token.
func (l *Lexer) queueRawBlock() {
	l.skipWhitespace()
	line, col := l.line, l.column
	l.readChar() // consume '{'
	start := l.position
	depth := 1
	for depth > 0 {
		switch l.ch {
		case 0:
			l.setError(line, col, "unterminated style block")
			return
		case '\n':
			l.line++
			l.column = 0
		case '{':
			depth++
		case '}':
			depth--
		case '/':
			// CSS comments may contain braces; swallow them whole.
			if l.peekChar() == '*' {
				l.readChar()
				l.readChar()
				for !(l.ch == '*' && l.peekChar() == '/') {
					if l.ch == 0 {
						l.setError(line, col, "unterminated style block")
						return
					}
					if l.ch == '\n' {
						l.line++
						l.column = 0
					}
					l.readChar()
				}
				l.readChar()
			}
		}
		if depth > 0 {
			l.readChar()
		}
	}
	body := l.input[start:l.position]
	l.readChar() // consume '}'
	l.queued = append(l.queued, Token{Type: RAW_BLOCK, Literal: body, Line: line, Column: col, File: l.file})
}

func flattenParts(parts []StringPart) string {
	if len(parts) == 1 && !parts[0].IsExpr {
		return parts[0].Text
	}
	out := ""
	for _, p := range parts {
		if p.IsExpr {
			out += "{" + p.Text + "}"
		} else {
			out += p.Text
		}
	}
	return out
}

func trimSpace(s string) string {
	start := 0
	for start < len(s) && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	end := len(s)
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}

func stripUnderscores(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// Helper functions

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}
