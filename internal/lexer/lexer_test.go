package lexer

import (
	"strings"
	"testing"
)

func TestNextToken_Operators(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
	}{
		{
			name:     "arithmetic operators",
			input:    "+ - * / % **",
			expected: []TokenType{PLUS, MINUS, STAR, SLASH, PERCENT, POWER, EOF},
		},
		{
			name:     "comparison operators",
			input:    "== != < > <= >=",
			expected: []TokenType{EQ, NEQ, LT, GT, LEQ, GEQ, EOF},
		},
		{
			name:     "logical and pipeline operators",
			input:    "&& || ?? |>",
			expected: []TokenType{AMP_AMP, PIPE_PIPE, COALESCE, PIPE_OP, EOF},
		},
		{
			name:     "arrows and assignment",
			input:    "= => ->",
			expected: []TokenType{ASSIGN, FAT_ARROW, ARROW, EOF},
		},
		{
			name:     "range operators",
			input:    ".. ..= .",
			expected: []TokenType{DOT_DOT, DOT_DOT_EQ, DOT, EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.input)
			for i, expectedType := range tt.expected {
				tok := l.NextToken()
				if tok.Type != expectedType {
					t.Errorf("token[%d] - wrong type. expected=%q, got=%q",
						i, expectedType, tok.Type)
				}
			}
		})
	}
}

func TestNextToken_Keywords(t *testing.T) {
	tests := []struct {
		keyword  string
		expected TokenType
	}{
		{"fn", FN},
		{"var", VAR},
		{"type", TYPE},
		{"if", IF},
		{"elif", ELIF},
		{"else", ELSE},
		{"match", MATCH},
		{"guard", GUARD},
		{"for", FOR},
		{"while", WHILE},
		{"in", IN},
		{"return", RETURN},
		{"async", ASYNC},
		{"await", AWAIT},
		{"spawn", SPAWN},
		{"concurrent", CONCURRENT},
		{"select", SELECT},
		{"try", TRY},
		{"catch", CATCH},
		{"finally", FINALLY},
		{"true", TRUE},
		{"false", FALSE},
		{"nil", NIL},
		{"server", SERVER},
		{"client", CLIENT},
		{"shared", SHARED},
	}

	for _, tt := range tests {
		l := New(tt.keyword)
		tok := l.NextToken()
		if tok.Type != tt.expected {
			t.Errorf("keyword %q - wrong type. expected=%q, got=%q",
				tt.keyword, tt.expected, tok.Type)
		}
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []struct {
			typ TokenType
			lit string
		}
	}{
		{
			name:  "integer and float",
			input: "42 3.14",
			expected: []struct {
				typ TokenType
				lit string
			}{{INT_LIT, "42"}, {FLOAT_LIT, "3.14"}},
		},
		{
			name:  "range stays three tokens",
			input: "1..10",
			expected: []struct {
				typ TokenType
				lit string
			}{{INT_LIT, "1"}, {DOT_DOT, ".."}, {INT_LIT, "10"}},
		},
		{
			name:  "inclusive range",
			input: "1..=10",
			expected: []struct {
				typ TokenType
				lit string
			}{{INT_LIT, "1"}, {DOT_DOT_EQ, "..="}, {INT_LIT, "10"}},
		},
		{
			name:  "underscore separators stripped",
			input: "1_000_000",
			expected: []struct {
				typ TokenType
				lit string
			}{{INT_LIT, "1000000"}},
		},
		{
			name:  "hex octal binary",
			input: "0xFF 0o17 0b1010",
			expected: []struct {
				typ TokenType
				lit string
			}{{INT_LIT, "0xFF"}, {INT_LIT, "0o17"}, {INT_LIT, "0b1010"}},
		},
		{
			name:  "exponent",
			input: "1e9 2.5e-3",
			expected: []struct {
				typ TokenType
				lit string
			}{{FLOAT_LIT, "1e9"}, {FLOAT_LIT, "2.5e-3"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.input)
			for i, want := range tt.expected {
				tok := l.NextToken()
				if tok.Type != want.typ {
					t.Errorf("token[%d] - wrong type. expected=%q, got=%q", i, want.typ, tok.Type)
				}
				if tok.Literal != want.lit {
					t.Errorf("token[%d] - wrong literal. expected=%q, got=%q", i, want.lit, tok.Literal)
				}
			}
		})
	}
}

func TestStringLiterals(t *testing.T) {
	l := New(`"hello\nworld"`)
	tok := l.NextToken()
	if tok.Type != STRING_LIT {
		t.Fatalf("expected STRING_LIT, got %q", tok.Type)
	}
	if tok.Literal != "hello\nworld" {
		t.Errorf("escape not decoded: %q", tok.Literal)
	}
	if tok.Parts != nil {
		t.Errorf("plain string should have no parts")
	}
}

func TestStringInterpolation(t *testing.T) {
	l := New(`"Hello, {name}! You are {age + 1} years old."`)
	tok := l.NextToken()
	if tok.Type != STRING_LIT {
		t.Fatalf("expected STRING_LIT, got %q", tok.Type)
	}
	if len(tok.Parts) != 5 {
		t.Fatalf("expected 5 parts, got %d", len(tok.Parts))
	}

	if tok.Parts[0].IsExpr || tok.Parts[0].Text != "Hello, " {
		t.Errorf("part[0] wrong: %+v", tok.Parts[0])
	}
	if !tok.Parts[1].IsExpr {
		t.Errorf("part[1] should be an expression")
	}
	if len(tok.Parts[1].Tokens) == 0 || tok.Parts[1].Tokens[0].Literal != "name" {
		t.Errorf("part[1] tokens wrong: %+v", tok.Parts[1].Tokens)
	}
	if !tok.Parts[3].IsExpr {
		t.Errorf("part[3] should be an expression")
	}
	types := []TokenType{}
	for _, sub := range tok.Parts[3].Tokens {
		if sub.Type != EOF {
			types = append(types, sub.Type)
		}
	}
	want := []TokenType{IDENT, PLUS, INT_LIT}
	if len(types) != len(want) {
		t.Fatalf("part[3] token count: expected %d, got %d", len(want), len(types))
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("part[3] token[%d]: expected %q, got %q", i, want[i], types[i])
		}
	}
}

func TestEscapedBracesAreLiteral(t *testing.T) {
	l := New(`"literal \{braces\}"`)
	tok := l.NextToken()
	if tok.Parts != nil {
		t.Errorf("escaped braces must not start interpolation")
	}
	if tok.Literal != "literal {braces}" {
		t.Errorf("wrong decode: %q", tok.Literal)
	}
}

func TestComments(t *testing.T) {
	t.Run("line comment", func(t *testing.T) {
		l := New("x // a comment\ny")
		if tok := l.NextToken(); tok.Literal != "x" {
			t.Fatalf("expected x, got %q", tok.Literal)
		}
		if tok := l.NextToken(); tok.Literal != "y" {
			t.Errorf("comment not skipped, got %q", tok.Literal)
		}
	})

	t.Run("nested block comment", func(t *testing.T) {
		l := New("a /* outer /* inner */ still outer */ b")
		if tok := l.NextToken(); tok.Literal != "a" {
			t.Fatalf("expected a, got %q", tok.Literal)
		}
		if tok := l.NextToken(); tok.Literal != "b" {
			t.Errorf("nested comment not skipped, got %q", tok.Literal)
		}
	})

	t.Run("doc comment captured", func(t *testing.T) {
		l := New("/// adds two numbers\nfn add() {}")
		if _, err := l.Tokenize(); err != nil {
			t.Fatal(err)
		}
		docs := l.Docs()
		if len(docs) != 1 {
			t.Fatalf("expected 1 doc comment, got %d", len(docs))
		}
		if docs[0].Text != "adds two numbers" {
			t.Errorf("wrong doc text: %q", docs[0].Text)
		}
	})
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"unterminated string", `"abc`, "unterminated string literal"},
		{"newline in string", "\"abc\ndef\"", "unterminated string literal"},
		{"unterminated block comment", "/* nope", "unterminated block comment"},
		{"unterminated interpolation", `"a {b`, "unterminated string interpolation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.input)
			_, err := l.Tokenize()
			if err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("expected %q in error, got %q", tt.message, err.Error())
			}
		})
	}
}

func TestMarkupModes(t *testing.T) {
	input := `x = <div class="box">Hello {name}</div>`
	l := New(input)
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatal(err)
	}

	types := make([]TokenType, 0, len(tokens))
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	want := []TokenType{
		IDENT, ASSIGN, JSX_OPEN, IDENT, IDENT, ASSIGN, STRING_LIT, GT,
		JSX_TEXT, LBRACE, IDENT, RBRACE, JSX_CLOSE_OPEN, IDENT, GT, EOF,
	}
	if len(types) != len(want) {
		t.Fatalf("token count: expected %d, got %d (%v)", len(want), len(types), types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("token[%d]: expected %q, got %q", i, want[i], types[i])
		}
	}
}

func TestMarkupKeywordTagsStayIdents(t *testing.T) {
	// if/for inside a tag are element names, not keywords
	input := `v = <if {cond}>yes</if>`
	l := New(input)
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[3].Type != IDENT || tokens[3].Literal != "if" {
		t.Errorf("tag name should lex as IDENT, got %q %q", tokens[3].Type, tokens[3].Literal)
	}
}

func TestMarkupBranchTagsDoNotNest(t *testing.T) {
	input := `v = <if {a}>one<elif {b}>two<else>three</if>`
	l := New(input)
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("branch tags corrupted the mode stack: %v", err)
	}
	if tokens[len(tokens)-1].Type != EOF {
		t.Errorf("expected EOF terminator")
	}
}

func TestLessThanVersusTag(t *testing.T) {
	l := New("a < b")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[1].Type != LT {
		t.Errorf("comparison after a value should be LT, got %q", tokens[1].Type)
	}

	l = New("x = <b>text</b>")
	tokens, err = l.Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[2].Type != JSX_OPEN {
		t.Errorf("tag after '=' should open markup, got %q", tokens[2].Type)
	}
}

func TestStyleBlock(t *testing.T) {
	input := "style {\n  .box { color: red; }\n}"
	l := New(input)
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Type != STYLE {
		t.Fatalf("expected STYLE, got %q", tokens[0].Type)
	}
	if tokens[1].Type != RAW_BLOCK {
		t.Fatalf("expected RAW_BLOCK, got %q", tokens[1].Type)
	}
	if !strings.Contains(tokens[1].Literal, ".box { color: red; }") {
		t.Errorf("raw block lost its body: %q", tokens[1].Literal)
	}
}

func TestStyleAsOrdinaryName(t *testing.T) {
	l := New("style = 3")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Type != IDENT {
		t.Errorf("style without a block should be an identifier, got %q", tokens[0].Type)
	}
}

func TestPositions(t *testing.T) {
	l := New("a\n  b")
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Line != 1 || tokens[0].Column != 1 {
		t.Errorf("token a: expected 1:1, got %d:%d", tokens[0].Line, tokens[0].Column)
	}
	if tokens[1].Line != 2 || tokens[1].Column != 3 {
		t.Errorf("token b: expected 2:3, got %d:%d", tokens[1].Line, tokens[1].Column)
	}
}
