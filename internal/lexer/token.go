package lexer

import "fmt"

// TokenType represents the type of a token
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Literals
	IDENT      // x, y, my_variable
	INT_LIT    // 123, 0xFF, 0o17, 0b1010, 1_000
	FLOAT_LIT  // 123.45, 1.5e-3
	STRING_LIT // "hello" or "hello {name}" (interpolated parts on Token.Parts)

	// Keywords
	FN
	ASYNC
	AWAIT
	VAR
	MUT
	LET
	TYPE
	MATCH
	IF
	ELIF
	ELSE
	GUARD
	FOR
	IN
	WHILE
	TRY
	CATCH
	FINALLY
	RETURN
	BREAK
	CONTINUE
	AND
	OR
	NOT
	TRUE
	FALSE
	NIL
	SPAWN
	CONCURRENT
	SELECT
	FROM
	CLIENT
	SERVER
	SHARED
	EDGE
	DEPLOY
	CLI
	SECURITY
	STYLE

	// Operators
	PLUS       // +
	MINUS      // -
	STAR       // *
	POWER      // **
	SLASH      // /
	PERCENT    // %
	BANG       // !
	EQ         // ==
	NEQ        // !=
	LT         // <
	GT         // >
	LEQ        // <=
	GEQ        // >=
	ASSIGN     // =
	AMP_AMP    // &&
	PIPE_PIPE  // ||
	COALESCE   // ??
	PIPE_OP    // |>
	ARROW      // ->
	FAT_ARROW  // =>
	DOT        // .
	DOT_DOT    // ..
	DOT_DOT_EQ // ..=
	QUESTION   // ?

	// Delimiters
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	COMMA     // ,
	COLON     // :
	SEMICOLON // ;

	// Markup tokens
	JSX_OPEN       // < starting a tag
	JSX_CLOSE_OPEN // </ starting a closing tag
	JSX_SLASH_GT   // /> self-closing tag end
	JSX_TEXT       // raw text between tags

	// Raw pass-through body of a style { ... } construct
	RAW_BLOCK
)

// StringPart is one segment of an interpolated string literal. Text segments
// carry the decoded text; expression segments carry the token run captured
// for the embedded expression.
type StringPart struct {
	Text   string
	IsExpr bool
	Tokens []Token
}

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
	File    string
	Parts   []StringPart // non-nil only for interpolated STRING_LIT tokens
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	switch t {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case IDENT:
		return "IDENT"
	case INT_LIT:
		return "INT_LIT"
	case FLOAT_LIT:
		return "FLOAT_LIT"
	case STRING_LIT:
		return "STRING_LIT"
	case FN:
		return "FN"
	case ASYNC:
		return "ASYNC"
	case AWAIT:
		return "AWAIT"
	case VAR:
		return "VAR"
	case MUT:
		return "MUT"
	case LET:
		return "LET"
	case TYPE:
		return "TYPE"
	case MATCH:
		return "MATCH"
	case IF:
		return "IF"
	case ELIF:
		return "ELIF"
	case ELSE:
		return "ELSE"
	case GUARD:
		return "GUARD"
	case FOR:
		return "FOR"
	case IN:
		return "IN"
	case WHILE:
		return "WHILE"
	case TRY:
		return "TRY"
	case CATCH:
		return "CATCH"
	case FINALLY:
		return "FINALLY"
	case RETURN:
		return "RETURN"
	case BREAK:
		return "BREAK"
	case CONTINUE:
		return "CONTINUE"
	case AND:
		return "AND"
	case OR:
		return "OR"
	case NOT:
		return "NOT"
	case TRUE:
		return "TRUE"
	case FALSE:
		return "FALSE"
	case NIL:
		return "NIL"
	case SPAWN:
		return "SPAWN"
	case CONCURRENT:
		return "CONCURRENT"
	case SELECT:
		return "SELECT"
	case FROM:
		return "FROM"
	case CLIENT:
		return "CLIENT"
	case SERVER:
		return "SERVER"
	case SHARED:
		return "SHARED"
	case EDGE:
		return "EDGE"
	case DEPLOY:
		return "DEPLOY"
	case CLI:
		return "CLI"
	case SECURITY:
		return "SECURITY"
	case STYLE:
		return "STYLE"
	case PLUS:
		return "PLUS"
	case MINUS:
		return "MINUS"
	case STAR:
		return "STAR"
	case POWER:
		return "POWER"
	case SLASH:
		return "SLASH"
	case PERCENT:
		return "PERCENT"
	case BANG:
		return "BANG"
	case EQ:
		return "EQ"
	case NEQ:
		return "NEQ"
	case LT:
		return "LT"
	case GT:
		return "GT"
	case LEQ:
		return "LEQ"
	case GEQ:
		return "GEQ"
	case ASSIGN:
		return "ASSIGN"
	case AMP_AMP:
		return "AMP_AMP"
	case PIPE_PIPE:
		return "PIPE_PIPE"
	case COALESCE:
		return "COALESCE"
	case PIPE_OP:
		return "PIPE_OP"
	case ARROW:
		return "ARROW"
	case FAT_ARROW:
		return "FAT_ARROW"
	case DOT:
		return "DOT"
	case DOT_DOT:
		return "DOT_DOT"
	case DOT_DOT_EQ:
		return "DOT_DOT_EQ"
	case QUESTION:
		return "QUESTION"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case LBRACE:
		return "LBRACE"
	case RBRACE:
		return "RBRACE"
	case LBRACKET:
		return "LBRACKET"
	case RBRACKET:
		return "RBRACKET"
	case COMMA:
		return "COMMA"
	case COLON:
		return "COLON"
	case SEMICOLON:
		return "SEMICOLON"
	case JSX_OPEN:
		return "JSX_OPEN"
	case JSX_CLOSE_OPEN:
		return "JSX_CLOSE_OPEN"
	case JSX_SLASH_GT:
		return "JSX_SLASH_GT"
	case JSX_TEXT:
		return "JSX_TEXT"
	case RAW_BLOCK:
		return "RAW_BLOCK"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// keywords maps keyword strings to their token types
var keywords = map[string]TokenType{
	"fn":         FN,
	"async":      ASYNC,
	"await":      AWAIT,
	"var":        VAR,
	"mut":        MUT,
	"let":        LET,
	"type":       TYPE,
	"match":      MATCH,
	"if":         IF,
	"elif":       ELIF,
	"else":       ELSE,
	"guard":      GUARD,
	"for":        FOR,
	"in":         IN,
	"while":      WHILE,
	"try":        TRY,
	"catch":      CATCH,
	"finally":    FINALLY,
	"return":     RETURN,
	"break":      BREAK,
	"continue":   CONTINUE,
	"and":        AND,
	"or":         OR,
	"not":        NOT,
	"true":       TRUE,
	"false":      FALSE,
	"nil":        NIL,
	"spawn":      SPAWN,
	"concurrent": CONCURRENT,
	"select":     SELECT,
	"from":       FROM,
	"client":     CLIENT,
	"server":     SERVER,
	"shared":     SHARED,
	"edge":       EDGE,
	"deploy":     DEPLOY,
	"cli":        CLI,
	"security":   SECURITY,
}

// LookupIdent checks if an identifier is a keyword
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword reports whether the token type is a language keyword
func IsKeyword(t TokenType) bool {
	return t >= FN && t <= STYLE
}
