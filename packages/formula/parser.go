package formula

import (
	"errors"
	"fmt"
	"strconv"
)

// binding powers. higher binds tighter.
const (
	bpNone       = 0
	bpColon      = 40 // range ':'
	bpComparison = 50
	bpConcat     = 55
	bpAdditive   = 60
	bpMultiply   = 70
	bpPrefix     = 75 // unary + and -
	bpPower      = 80
	bpBang       = 95 // sheet qualifier '!'
)

type infixOperator struct {
	op         BinaryOp
	bp         int
	rightAssoc bool
}

// infixOperators is keyed by operator token text. "&&" and "||" lex as
// operators but have no entry here, so they never bind.
var infixOperators = map[string]infixOperator{
	"^":  {op: BinOpPower, bp: bpPower, rightAssoc: true},
	"*":  {op: BinOpMultiply, bp: bpMultiply},
	"/":  {op: BinOpDivide, bp: bpMultiply},
	"%":  {op: BinOpModulo, bp: bpMultiply},
	"+":  {op: BinOpAdd, bp: bpAdditive},
	"-":  {op: BinOpSubtract, bp: bpAdditive},
	"&":  {op: BinOpConcat, bp: bpConcat},
	"==": {op: BinOpEqual, bp: bpComparison},
	"<>": {op: BinOpNotEqual, bp: bpComparison},
	"<":  {op: BinOpLess, bp: bpComparison},
	"<=": {op: BinOpLessEqual, bp: bpComparison},
	">":  {op: BinOpGreater, bp: bpComparison},
	">=": {op: BinOpGreaterEqual, bp: bpComparison},
}

// the bare '=' token is its own token type, it compares like "=="
var equalsOperator = infixOperator{op: BinOpEqual, bp: bpComparison}

// ParseError is a structural failure found while building the tree
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at position %d", e.Msg, e.Pos)
}

// Parser is an operator-precedence (Pratt) parser over a token slice
// produced by Lexer.Tokenize
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser. tokens must end with a TokenEOF token.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses a whole formula. a single leading '=' is consumed, and the
// expression must be followed by the end of input.
func (p *Parser) Parse() (ASTNode, error) {
	if len(p.tokens) == 0 {
		return nil, &ParseError{Msg: "no tokens to parse"}
	}

	if p.peek().Type == TokenEquals {
		p.next()
	}

	node, err := p.parseExpr(bpNone)
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, p.errorf(tok, "extra tokens: unexpected %s %q after expression", tok.Type, tok.Value)
	}
	return node, nil
}

func (p *Parser) parseExpr(rbp int) (ASTNode, error) {
	left, err := p.nud(p.next())
	if err != nil {
		return nil, err
	}
	for rbp < p.lbp(p.peek()) {
		left, err = p.led(p.next(), left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

// nud parses a token in prefix position
func (p *Parser) nud(tok Token) (ASTNode, error) {
	pos := NodePosition{Start: tok.Pos, End: tok.End}

	switch tok.Type {
	case TokenNumber:
		value, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, p.errorf(tok, "invalid number %q", tok.Value)
		}
		return &NumberNode{Value: value, Raw: tok.Value, Position: pos}, nil

	case TokenString:
		return &StringNode{Value: tok.Value, Position: pos}, nil

	case TokenLeftParen:
		node, err := p.parseExpr(bpNone)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen); err != nil {
			return nil, err
		}
		return node, nil

	case TokenOperator:
		var op UnaryOp
		switch tok.Value {
		case "+":
			op = UnaryOpPlus
		case "-":
			op = UnaryOpMinus
		default:
			return nil, p.errorf(tok, "unexpected prefix operator %q", tok.Value)
		}
		operand, err := p.parseExpr(bpPrefix)
		if err != nil {
			return nil, err
		}
		pos.End = operand.GetPosition().End
		return &UnaryOpNode{Op: op, Operand: operand, Position: pos}, nil

	case TokenIdentifier:
		if p.peek().Type == TokenLeftParen {
			p.next()
			return p.parseCall(tok)
		}
		if IsCellReference(tok.Value) {
			return &CellRefNode{Address: tok.Value, Position: pos}, nil
		}
		return &IdentifierNode{Name: tok.Value, Position: pos}, nil

	case TokenEquals:
		// a stray '=' in prefix position is skipped, =1+=2 is 1+2
		return p.parseExpr(bpNone)

	case TokenEOF:
		return nil, p.errorf(tok, "unexpected end of formula")
	}

	return nil, p.errorf(tok, "unexpected %s %q", tok.Type, tok.Value)
}

// parseCall parses the argument list of a call; the opening paren has been
// consumed already
func (p *Parser) parseCall(name Token) (ASTNode, error) {
	args := []ASTNode{}

	if p.peek().Type != TokenRightParen {
		for {
			arg, err := p.parseExpr(bpNone)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.peek().Type != TokenComma {
				break
			}
			comma := p.next()
			if p.peek().Type == TokenRightParen {
				return nil, p.errorf(comma, "trailing comma in arguments to %s", name.Value)
			}
		}
	}

	closing, err := p.expect(TokenRightParen)
	if err != nil {
		return nil, err
	}
	return &CallNode{
		Name:     name.Value,
		Args:     args,
		Position: NodePosition{Start: name.Pos, End: closing.End},
	}, nil
}

// led parses a token in infix position with left already parsed
func (p *Parser) led(tok Token, left ASTNode) (ASTNode, error) {
	switch tok.Type {
	case TokenOperator, TokenEquals:
		info := equalsOperator
		if tok.Type == TokenOperator {
			info = infixOperators[tok.Value]
		}
		rbp := info.bp
		if info.rightAssoc {
			rbp--
		}
		right, err := p.parseExpr(rbp)
		if err != nil {
			return nil, err
		}
		return &BinaryOpNode{
			Op:       info.op,
			Left:     left,
			Right:    right,
			Position: span(left, right),
		}, nil

	case TokenColon:
		right, err := p.parseExpr(bpColon)
		if err != nil {
			return nil, err
		}
		if !isCellLike(left) {
			return nil, p.errorf(tok, "left of ':' must be a cell or sheet-qualified cell")
		}
		if !isCellLike(right) {
			return nil, p.errorf(tok, "right of ':' must be a cell or sheet-qualified cell")
		}
		return &RangeNode{Left: left, Right: right, Position: span(left, right)}, nil

	case TokenBang:
		right, err := p.parseExpr(bpBang)
		if err != nil {
			return nil, err
		}
		sheet, ok := left.(*IdentifierNode)
		if !ok {
			return nil, p.errorf(tok, "left of '!' must be a sheet name")
		}
		switch right.(type) {
		case *CellRefNode, *RangeNode:
		default:
			return nil, p.errorf(tok, "right of '!' must be a cell or range")
		}
		return &SheetRefNode{Sheet: sheet.Name, Target: right, Position: span(left, right)}, nil
	}

	return nil, p.errorf(tok, "unexpected %s %q after expression", tok.Type, tok.Value)
}

// lbp is the left binding power of a token in infix position
func (p *Parser) lbp(tok Token) int {
	switch tok.Type {
	case TokenOperator:
		return infixOperators[tok.Value].bp
	case TokenEquals:
		return equalsOperator.bp
	case TokenColon:
		return bpColon
	case TokenBang:
		return bpBang
	}
	return bpNone
}

// peek returns the current token. past the end it keeps returning the final
// EOF token.
func (p *Parser) peek() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) next() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(typ TokenType) (Token, error) {
	tok := p.next()
	if tok.Type != typ {
		return tok, p.errorf(tok, "expected %s, got %s %q", typ, tok.Type, tok.Value)
	}
	return tok, nil
}

func (p *Parser) errorf(tok Token, format string, args ...any) error {
	return &ParseError{Pos: tok.Pos, Msg: fmt.Sprintf(format, args...)}
}

// isCellLike reports whether n can be a range endpoint
func isCellLike(n ASTNode) bool {
	switch t := n.(type) {
	case *CellRefNode:
		return true
	case *SheetRefNode:
		_, ok := t.Target.(*CellRefNode)
		return ok
	}
	return false
}

func span(left, right ASTNode) NodePosition {
	return NodePosition{Start: left.GetPosition().Start, End: right.GetPosition().End}
}
