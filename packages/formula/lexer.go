package formula

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// TokenType represents different types of tokens in formulas
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenEquals
	TokenNumber
	TokenString
	TokenIdentifier
	TokenColon
	TokenBang
	TokenComma
	TokenLeftParen
	TokenRightParen
	TokenOperator
)

var tokenTypeNames = [...]string{
	TokenEOF:        "EOF",
	TokenEquals:     "EQUALS",
	TokenNumber:     "NUMBER",
	TokenString:     "STRING",
	TokenIdentifier: "IDENTIFIER",
	TokenColon:      "COLON",
	TokenBang:       "BANG",
	TokenComma:      "COMMA",
	TokenLeftParen:  "LEFT_PAREN",
	TokenRightParen: "RIGHT_PAREN",
	TokenOperator:   "OPERATOR",
}

func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a lexical token with position information. Pos and End
// are byte offsets into the source, End is exclusive. For strings Value holds
// the unescaped contents.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
	End   int
}

// character classification constants. slightly easier to read.
const (
	charQuote      = '"'
	charBackslash  = '\\'
	charPercent    = '%'
	charAmpersand  = '&'
	charLParen     = '('
	charRParen     = ')'
	charAsterisk   = '*'
	charPlus       = '+'
	charComma      = ','
	charMinus      = '-'
	charPeriod     = '.'
	charSlash      = '/'
	charColon      = ':'
	charLess       = '<'
	charEqual      = '='
	charGreater    = '>'
	charCaret      = '^'
	charUnderscore = '_'
	charDollar     = '$'
	charExclaim    = '!'
)

// two-character operators are matched before single-character ones
var twoCharOps = map[string]bool{
	"<=": true,
	">=": true,
	"<>": true,
	"==": true,
	"&&": true,
	"||": true,
}

var oneCharOps = map[byte]bool{
	charPlus:      true,
	charMinus:     true,
	charAsterisk:  true,
	charSlash:     true,
	charCaret:     true,
	charAmpersand: true,
	charLess:      true,
	charGreater:   true,
	charPercent:   true,
}

// LexError is a character-level failure. it is fatal for the whole formula.
type LexError struct {
	Pos int
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s at position %d", e.Msg, e.Pos)
}

// Lexer tokenizes spreadsheet formula expressions in a single left-to-right
// pass
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given formula input
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize tokenizes the entire input. the returned slice always ends with a
// TokenEOF token. on failure no tokens are returned.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// nextToken returns the next token from the input
func (l *Lexer) nextToken() (Token, error) {
	l.skipWhitespace()

	start := l.pos
	if l.pos >= len(l.input) {
		return l.token(TokenEOF, "", start), nil
	}

	ch := l.current()
	switch ch {
	case charColon:
		l.pos++
		return l.token(TokenColon, ":", start), nil
	case charExclaim:
		l.pos++
		return l.token(TokenBang, "!", start), nil
	case charComma:
		l.pos++
		return l.token(TokenComma, ",", start), nil
	case charLParen:
		l.pos++
		return l.token(TokenLeftParen, "(", start), nil
	case charRParen:
		l.pos++
		return l.token(TokenRightParen, ")", start), nil
	case charQuote:
		return l.scanString()
	}

	if isDigit(ch) || (ch == charPeriod && isDigit(l.peek(1))) {
		return l.scanNumber()
	}
	if isIdentStart(ch) {
		return l.scanIdentifier(), nil
	}

	if l.pos+2 <= len(l.input) {
		if pair := l.input[l.pos : l.pos+2]; twoCharOps[pair] {
			l.pos += 2
			return l.token(TokenOperator, pair, start), nil
		}
	}
	if ch == charEqual {
		l.pos++
		return l.token(TokenEquals, "=", start), nil
	}
	if oneCharOps[ch] {
		l.pos++
		return l.token(TokenOperator, string(ch), start), nil
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return Token{}, &LexError{Pos: start, Msg: fmt.Sprintf("unexpected character %q", r)}
}

func (l *Lexer) token(typ TokenType, value string, start int) Token {
	return Token{Type: typ, Value: value, Pos: start, End: l.pos}
}

// helper methods for character navigation and classification

func (l *Lexer) current() byte {
	return l.peek(0)
}

func (l *Lexer) peek(offset int) byte {
	pos := l.pos + offset
	if pos >= len(l.input) || pos < 0 {
		return 0
	}
	return l.input[pos]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func isIdentStart(ch byte) bool {
	return isLetter(ch) || ch == charUnderscore || ch == charDollar
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == charPeriod
}

// scanNumber scans a number token including decimals and scientific
// notation. an exponent marker is only consumed when digits follow it; a
// marker left dangling right after a number is an error.
func (l *Lexer) scanNumber() (Token, error) {
	start := l.pos

	for isDigit(l.current()) {
		l.pos++
	}

	if l.current() == charPeriod {
		l.pos++
		for isDigit(l.current()) {
			l.pos++
		}
	}

	if ch := l.current(); ch == 'e' || ch == 'E' {
		next := l.peek(1)
		switch {
		case isDigit(next):
			l.pos++
		case (next == charPlus || next == charMinus) && isDigit(l.peek(2)):
			l.pos += 2
		default:
			return Token{}, &LexError{Pos: l.pos, Msg: "malformed exponent"}
		}
		for isDigit(l.current()) {
			l.pos++
		}
	}

	return l.token(TokenNumber, l.input[start:l.pos], start), nil
}

// scanString scans a double-quoted string literal. a doubled quote is a
// literal quote, and backslash escapes \n \t \r are recognized with any other
// escaped character standing for itself.
func (l *Lexer) scanString() (Token, error) {
	start := l.pos
	l.pos++ // opening quote

	var result []byte
	for {
		if l.pos >= len(l.input) {
			return Token{}, &LexError{Pos: start, Msg: "unterminated string"}
		}
		ch := l.current()
		switch ch {
		case charQuote:
			if l.peek(1) == charQuote {
				result = append(result, charQuote)
				l.pos += 2
				continue
			}
			l.pos++ // closing quote
			return l.token(TokenString, string(result), start), nil
		case charBackslash:
			l.pos++
			if l.pos >= len(l.input) {
				return Token{}, &LexError{Pos: l.pos, Msg: "bad escape"}
			}
			switch esc := l.current(); esc {
			case 'n':
				result = append(result, '\n')
			case 't':
				result = append(result, '\t')
			case 'r':
				result = append(result, '\r')
			default:
				result = append(result, esc)
			}
			l.pos++
		default:
			result = append(result, ch)
			l.pos++
		}
	}
}

// scanIdentifier scans a name. whether it is a cell reference, a sheet name or
// a function name is decided by the parser.
func (l *Lexer) scanIdentifier() Token {
	start := l.pos
	l.pos++
	for isIdentPart(l.current()) {
		l.pos++
	}
	return l.token(TokenIdentifier, l.input[start:l.pos], start)
}
