package lexer

import (
	"strings"

	"github.com/lyradb/lyradb/errs"
)

// Lexer tokenizes SQL source text, skipping whitespace and single-line
// `--` comments (§4.9).
type Lexer struct {
	src  string
	pos  int
	line int
	col  int
}

// New returns a Lexer positioned at the start of src.
func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}

	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}

	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	return c
}

func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '-' && l.peekAt(1) == '-':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// Next returns the next token, or a Token{Kind: EOF} at end of input.
func (l *Lexer) Next() (Token, error) {
	l.skipSpaceAndComments()

	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Line: l.line, Col: l.col}, nil
	}

	startLine, startCol := l.line, l.col
	c := l.peek()

	switch {
	case isDigit(c):
		return l.lexNumber(startLine, startCol)
	case c == '\'' || c == '"':
		return l.lexString(startLine, startCol, c)
	case isIdentStart(c):
		return l.lexIdentOrKeyword(startLine, startCol)
	default:
		return l.lexOperatorOrPunct(startLine, startCol)
	}
}

// All tokenizes the entire source, including the trailing EOF token.
func (l *Lexer) All() ([]Token, error) {
	var out []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out, nil
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool { return isIdentStart(c) || isDigit(c) }

func (l *Lexer) lexNumber(line, col int) (Token, error) {
	start := l.pos
	isFloat := false
	for l.pos < len(l.src) && isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		isFloat = true
		l.advance()
		for l.pos < len(l.src) && isDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		isFloat = true
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for l.pos < len(l.src) && isDigit(l.peek()) {
			l.advance()
		}
	}

	kind := Int
	if isFloat {
		kind = Float
	}

	return Token{Kind: kind, Text: l.src[start:l.pos], Line: line, Col: col}, nil
}

func (l *Lexer) lexString(line, col int, quote byte) (Token, error) {
	l.advance() // opening quote

	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, &errs.ParseError{Line: line, Col: col, Token: sb.String(), Message: "unterminated string literal"}
		}
		c := l.peek()
		if c == '\\' && l.peekAt(1) == quote {
			l.advance()
			sb.WriteByte(l.advance())

			continue
		}
		if c == quote {
			l.advance()

			break
		}
		sb.WriteByte(l.advance())
	}

	return Token{Kind: String, Text: sb.String(), Line: line, Col: col}, nil
}

func (l *Lexer) lexIdentOrKeyword(line, col int) (Token, error) {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.peek()) {
		l.advance()
	}
	text := l.src[start:l.pos]
	upper := strings.ToUpper(text)
	if IsKeyword(upper) {
		return Token{Kind: Keyword, Text: upper, Line: line, Col: col}, nil
	}

	return Token{Kind: Ident, Text: text, Line: line, Col: col}, nil
}

// twoCharOps are the operators §4.9 lists that span two bytes.
var twoCharOps = map[string]bool{
	"<>": true, "!=": true, "<=": true, ">=": true,
}

func (l *Lexer) lexOperatorOrPunct(line, col int) (Token, error) {
	c := l.advance()

	two := string(c) + string(l.peek())
	if twoCharOps[two] {
		l.advance()

		return Token{Kind: Operator, Text: two, Line: line, Col: col}, nil
	}

	switch c {
	case '=', '<', '>', '+', '-', '*', '/', '%':
		return Token{Kind: Operator, Text: string(c), Line: line, Col: col}, nil
	case '(', ')', ',', ';', '.':
		return Token{Kind: Punct, Text: string(c), Line: line, Col: col}, nil
	default:
		return Token{}, &errs.ParseError{Line: line, Col: col, Token: string(c), Message: "unexpected character"}
	}
}
