package assembler

import (
	"strings"
)

// Lexer turns source text into a token stream. Comments and whitespace
// are stripped; every token keeps its line and column. Lexical errors are
// recorded and scanning resumes, so one bad character does not hide the
// rest of the file's diagnostics.
type Lexer struct {
	src   string
	file  string
	pos   int
	line  int
	col   int
	diags *ErrorList
}

// NewLexer creates a lexer over source text.
func NewLexer(file, src string, diags *ErrorList) *Lexer {
	return &Lexer{
		src:   strings.ReplaceAll(src, "\r\n", "\n"),
		file:  file,
		line:  1,
		col:   1,
		diags: diags,
	}
}

// Tokens scans the whole input and returns all tokens, ending with an EOF
// token.
func (l *Lexer) Tokens() []Token {
	var toks []Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == TokEOF {
			return toks
		}
	}
}

func (l *Lexer) here() Position {
	return Position{File: l.file, Line: l.line, Col: l.col}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peek2() byte {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
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

// Next returns the next token.
func (l *Lexer) Next() Token {
	for l.pos < len(l.src) {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t':
			l.advance()
		case c == ';':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return l.scanToken()
		}
	}
	return Token{Kind: TokEOF, Pos: l.here()}
}

func (l *Lexer) scanToken() Token {
	pos := l.here()
	c := l.peek()

	switch {
	case c == '\n':
		l.advance()
		return Token{Kind: TokNewline, Lexeme: "\n", Pos: pos}
	case isDigit(c):
		return l.scanNumber(pos)
	case c == '$':
		return l.scanPrefixed(pos, 16)
	case c == '%' && isBinDigit(l.peek2()):
		return l.scanPrefixed(pos, 2)
	case c == '\'':
		return l.scanChar(pos)
	case c == '"':
		return l.scanString(pos)
	case isIdentStart(c):
		return l.scanIdent(pos)
	}

	l.advance()
	switch c {
	case ',':
		return Token{Kind: TokComma, Lexeme: ",", Pos: pos}
	case ':':
		if l.peek() == ':' {
			l.advance()
			return Token{Kind: TokDoubleColon, Lexeme: "::", Pos: pos}
		}
		return Token{Kind: TokColon, Lexeme: ":", Pos: pos}
	case '(':
		return Token{Kind: TokLParen, Lexeme: "(", Pos: pos}
	case ')':
		return Token{Kind: TokRParen, Lexeme: ")", Pos: pos}
	case '+':
		return Token{Kind: TokPlus, Lexeme: "+", Pos: pos}
	case '-':
		return Token{Kind: TokMinus, Lexeme: "-", Pos: pos}
	case '*':
		return Token{Kind: TokStar, Lexeme: "*", Pos: pos}
	case '/':
		return Token{Kind: TokSlash, Lexeme: "/", Pos: pos}
	case '%':
		return Token{Kind: TokPercent, Lexeme: "%", Pos: pos}
	case '&':
		return Token{Kind: TokAmp, Lexeme: "&", Pos: pos}
	case '|':
		return Token{Kind: TokPipe, Lexeme: "|", Pos: pos}
	case '^':
		return Token{Kind: TokCaret, Lexeme: "^", Pos: pos}
	case '~':
		return Token{Kind: TokTilde, Lexeme: "~", Pos: pos}
	case '@':
		return Token{Kind: TokAt, Lexeme: "@", Pos: pos}
	case '<':
		if l.peek() == '<' {
			l.advance()
			return Token{Kind: TokShl, Lexeme: "<<", Pos: pos}
		}
	case '>':
		if l.peek() == '>' {
			l.advance()
			return Token{Kind: TokShr, Lexeme: ">>", Pos: pos}
		}
	}

	l.diags.Add(LexError, pos, "unrecognized character %q", c)
	return l.Next()
}

// scanNumber handles decimal and 0x-prefixed hex literals.
func (l *Lexer) scanNumber(pos Position) Token {
	if l.peek() == '0' && (l.peek2() == 'x' || l.peek2() == 'X') {
		l.advance()
		l.advance()
		return l.scanDigits(pos, 16, "0x")
	}
	return l.scanDigits(pos, 10, "")
}

// scanPrefixed handles $hex and %binary literals. The prefix character
// has not been consumed yet.
func (l *Lexer) scanPrefixed(pos Position, base int) Token {
	prefix := string(l.advance())
	return l.scanDigits(pos, base, prefix)
}

func (l *Lexer) scanDigits(pos Position, base int, prefix string) Token {
	start := l.pos
	var val int64
	for l.pos < len(l.src) {
		d := digitValue(l.peek())
		if d < 0 || d >= base {
			break
		}
		val = val*int64(base) + int64(d)
		l.advance()
	}
	if l.pos == start {
		l.diags.Add(LexError, pos, "malformed numeric literal %q", prefix)
		return l.Next()
	}
	return Token{Kind: TokNumber, Lexeme: prefix + l.src[start:l.pos], Value: val, Pos: pos}
}

// scanChar handles character literals like 'A'.
func (l *Lexer) scanChar(pos Position) Token {
	l.advance()
	if l.pos+1 >= len(l.src) || l.peek() == '\n' || l.peek2() != '\'' {
		l.diags.Add(LexError, pos, "unterminated character literal")
		l.skipToNewline()
		return l.Next()
	}
	c := l.advance()
	l.advance()
	return Token{Kind: TokNumber, Lexeme: "'" + string(c) + "'", Value: int64(c), Pos: pos}
}

func (l *Lexer) scanString(pos Position) Token {
	l.advance()
	start := l.pos
	for l.pos < len(l.src) && l.peek() != '"' && l.peek() != '\n' {
		l.advance()
	}
	if l.pos >= len(l.src) || l.peek() == '\n' {
		l.diags.Add(LexError, pos, "unterminated string")
		return l.Next()
	}
	s := l.src[start:l.pos]
	l.advance()
	return Token{Kind: TokString, Lexeme: s, Pos: pos}
}

func (l *Lexer) scanIdent(pos Position) Token {
	start := l.pos
	for l.pos < len(l.src) && isIdentChar(l.peek()) {
		l.advance()
	}
	return Token{Kind: TokIdent, Lexeme: l.src[start:l.pos], Pos: pos}
}

// skipToNewline resynchronizes after a lexical error.
func (l *Lexer) skipToNewline() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isBinDigit(c byte) bool { return c == '0' || c == '1' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
