package assembler

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokNewline
	TokIdent
	TokNumber
	TokString
	TokComma
	TokColon
	TokDoubleColon
	TokLParen
	TokRParen
	TokPlus
	TokMinus
	TokStar
	TokSlash
	TokPercent
	TokAmp
	TokPipe
	TokCaret
	TokTilde
	TokShl
	TokShr
	TokAt
)

var tokenKindNames = map[TokenKind]string{
	TokEOF:         "end of file",
	TokNewline:     "end of line",
	TokIdent:       "identifier",
	TokNumber:      "number",
	TokString:      "string",
	TokComma:       "','",
	TokColon:       "':'",
	TokDoubleColon: "'::'",
	TokLParen:      "'('",
	TokRParen:      "')'",
	TokPlus:        "'+'",
	TokMinus:       "'-'",
	TokStar:        "'*'",
	TokSlash:       "'/'",
	TokPercent:     "'%'",
	TokAmp:         "'&'",
	TokPipe:        "'|'",
	TokCaret:       "'^'",
	TokTilde:       "'~'",
	TokShl:         "'<<'",
	TokShr:         "'>>'",
	TokAt:          "'@'",
}

func (k TokenKind) String() string {
	if s, ok := tokenKindNames[k]; ok {
		return s
	}
	return "token"
}

// Token is one lexical unit. Number tokens carry their parsed value.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Value  int64
	Pos    Position
}
