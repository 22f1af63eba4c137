package formula

import (
	"fmt"
	"strings"
)

// NodePosition is the byte span a node covers in the source formula
type NodePosition struct {
	Start int
	End   int
}

// ASTNode is one node of a parsed formula. the set of node types is closed;
// each owns its children exclusively.
type ASTNode interface {
	Eval(ctx *Context) Value
	GetPosition() NodePosition
	String() string
	astNode()
}

// BinaryOp represents binary operators in AST nodes
type BinaryOp int

const (
	BinOpAdd BinaryOp = iota
	BinOpSubtract
	BinOpMultiply
	BinOpDivide
	BinOpModulo
	BinOpPower
	BinOpConcat
	BinOpEqual
	BinOpNotEqual
	BinOpLess
	BinOpLessEqual
	BinOpGreater
	BinOpGreaterEqual
)

var binaryOpSymbols = [...]string{
	BinOpAdd:          "+",
	BinOpSubtract:     "-",
	BinOpMultiply:     "*",
	BinOpDivide:       "/",
	BinOpModulo:       "%",
	BinOpPower:        "^",
	BinOpConcat:       "&",
	BinOpEqual:        "=",
	BinOpNotEqual:     "<>",
	BinOpLess:         "<",
	BinOpLessEqual:    "<=",
	BinOpGreater:      ">",
	BinOpGreaterEqual: ">=",
}

func (op BinaryOp) String() string {
	if op >= 0 && int(op) < len(binaryOpSymbols) {
		return binaryOpSymbols[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", int(op))
}

// UnaryOp represents unary operators in AST nodes
type UnaryOp int

const (
	UnaryOpPlus UnaryOp = iota
	UnaryOpMinus
)

func (op UnaryOp) String() string {
	if op == UnaryOpMinus {
		return "-"
	}
	return "+"
}

// NumberNode represents a numeric literal
type NumberNode struct {
	Value    float64
	Raw      string
	Position NodePosition
}

// StringNode represents a string literal
type StringNode struct {
	Value    string
	Position NodePosition
}

// IdentifierNode is a bare name that is neither a call nor a cell
// reference. evaluating one directly yields #NAME?.
type IdentifierNode struct {
	Name     string
	Position NodePosition
}

// CellRefNode is an unqualified cell reference. Address is the reference
// text as written, e.g. "$B3".
type CellRefNode struct {
	Address  string
	Position NodePosition
}

// SheetRefNode qualifies a cell reference or a range with a sheet name
type SheetRefNode struct {
	Sheet    string
	Target   ASTNode // *CellRefNode or *RangeNode
	Position NodePosition
}

// RangeNode is a rectangular range. both endpoints are a *CellRefNode or a
// *SheetRefNode wrapping a *CellRefNode.
type RangeNode struct {
	Left     ASTNode
	Right    ASTNode
	Position NodePosition
}

// UnaryOpNode represents prefix + and -
type UnaryOpNode struct {
	Op       UnaryOp
	Operand  ASTNode
	Position NodePosition
}

// BinaryOpNode represents arithmetic, concatenation and comparison
type BinaryOpNode struct {
	Op       BinaryOp
	Left     ASTNode
	Right    ASTNode
	Position NodePosition
}

// CallNode represents a function call. Name is kept as written; lookups
// uppercase it.
type CallNode struct {
	Name     string
	Args     []ASTNode
	Position NodePosition
}

func (n *NumberNode) GetPosition() NodePosition     { return n.Position }
func (n *StringNode) GetPosition() NodePosition     { return n.Position }
func (n *IdentifierNode) GetPosition() NodePosition { return n.Position }
func (n *CellRefNode) GetPosition() NodePosition    { return n.Position }
func (n *SheetRefNode) GetPosition() NodePosition   { return n.Position }
func (n *RangeNode) GetPosition() NodePosition      { return n.Position }
func (n *UnaryOpNode) GetPosition() NodePosition    { return n.Position }
func (n *BinaryOpNode) GetPosition() NodePosition   { return n.Position }
func (n *CallNode) GetPosition() NodePosition       { return n.Position }

func (*NumberNode) astNode()     {}
func (*StringNode) astNode()     {}
func (*IdentifierNode) astNode() {}
func (*CellRefNode) astNode()    {}
func (*SheetRefNode) astNode()   {}
func (*RangeNode) astNode()      {}
func (*UnaryOpNode) astNode()    {}
func (*BinaryOpNode) astNode()   {}
func (*CallNode) astNode()       {}

// String methods print a fully parenthesized form of the tree, used for
// debugging precedence.

func (n *NumberNode) String() string { return n.Raw }

// stringEscaper undoes the lexer's string escapes so String re-parses to the
// same value
var stringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `""`)

func (n *StringNode) String() string {
	return `"` + stringEscaper.Replace(n.Value) + `"`
}

func (n *IdentifierNode) String() string { return n.Name }

func (n *CellRefNode) String() string { return n.Address }

func (n *SheetRefNode) String() string {
	return n.Sheet + "!" + n.Target.String()
}

func (n *RangeNode) String() string {
	return n.Left.String() + ":" + n.Right.String()
}

func (n *UnaryOpNode) String() string {
	return "(" + n.Op.String() + n.Operand.String() + ")"
}

func (n *BinaryOpNode) String() string {
	return "(" + n.Left.String() + " " + n.Op.String() + " " + n.Right.String() + ")"
}

func (n *CallNode) String() string {
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.String()
	}
	return n.Name + "(" + strings.Join(args, ", ") + ")"
}
