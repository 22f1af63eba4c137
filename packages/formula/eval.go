package formula

import (
	"math"
	"strings"
)

// Evaluation never fails with a Go error. runtime problems are ErrorCode
// values and every node returns the first error it meets, left to right and
// depth first.

func (n *NumberNode) Eval(ctx *Context) Value { return Number(n.Value) }

func (n *StringNode) Eval(ctx *Context) Value { return Text(n.Value) }

// Eval of a bare name is always #NAME?. names only mean something as a call
// target or sheet qualifier, both handled by the parser.
func (n *IdentifierNode) Eval(ctx *Context) Value { return ErrorCodeName }

func (n *CellRefNode) Eval(ctx *Context) Value {
	return ctx.getCell("", n.Address)
}

func (n *SheetRefNode) Eval(ctx *Context) Value {
	switch target := n.Target.(type) {
	case *CellRefNode:
		return ctx.getCell(n.Sheet, target.Address)
	case *RangeNode:
		return resolveRange(ctx, n.Sheet, target)
	}
	return ErrorCodeRef
}

func (n *RangeNode) Eval(ctx *Context) Value {
	return resolveRange(ctx, "", n)
}

// endpoint returns the sheet and address text of a range endpoint. explicit
// reports whether the endpoint carried its own sheet qualifier.
func endpoint(n ASTNode, sheet string) (name, address string, explicit, ok bool) {
	switch t := n.(type) {
	case *CellRefNode:
		return sheet, t.Address, false, true
	case *SheetRefNode:
		if cell, isCell := t.Target.(*CellRefNode); isCell {
			return t.Sheet, cell.Address, true, true
		}
	}
	return "", "", false, false
}

// resolveRange builds the Grid for a range. corners may be given in any
// order. the sheet comes from the left endpoint; a right endpoint naming a
// different sheet is a #REF!, as is any endpoint that is not a valid address.
func resolveRange(ctx *Context, sheet string, n *RangeNode) Value {
	leftSheet, leftAddr, _, ok := endpoint(n.Left, sheet)
	if !ok {
		return ErrorCodeRef
	}
	rightSheet, rightAddr, explicit, ok := endpoint(n.Right, leftSheet)
	if !ok {
		return ErrorCodeRef
	}
	if explicit && !strings.EqualFold(leftSheet, rightSheet) {
		return ErrorCodeRef
	}

	from, ok := ParseAddress(leftAddr)
	if !ok {
		return ErrorCodeRef
	}
	to, ok := ParseAddress(rightAddr)
	if !ok {
		return ErrorCodeRef
	}

	top, bottom := min(from.Row, to.Row), max(from.Row, to.Row)
	left, right := min(from.Column, to.Column), max(from.Column, to.Column)

	grid := make(Grid, 0, bottom-top+1)
	for row := top; row <= bottom; row++ {
		cells := make([]Value, 0, right-left+1)
		for col := left; col <= right; col++ {
			cells = append(cells, ctx.getCell(leftSheet, Address{Row: row, Column: col}.String()))
		}
		grid = append(grid, cells)
	}
	return grid
}

func (n *UnaryOpNode) Eval(ctx *Context) Value {
	v := n.Operand.Eval(ctx)
	if e, ok := IsError(v); ok {
		return e
	}
	num, e := ToNumber(v)
	if e != 0 {
		return e
	}
	if n.Op == UnaryOpMinus {
		return Number(-num)
	}
	return Number(num)
}

func (n *BinaryOpNode) Eval(ctx *Context) Value {
	left := n.Left.Eval(ctx)
	if e, ok := IsError(left); ok {
		return e
	}
	right := n.Right.Eval(ctx)
	if e, ok := IsError(right); ok {
		return e
	}

	switch n.Op {
	case BinOpAdd, BinOpSubtract, BinOpMultiply, BinOpDivide, BinOpModulo, BinOpPower:
		return arithmetic(n.Op, left, right)
	case BinOpConcat:
		return Text(ToText(left) + ToText(right))
	}
	return compare(n.Op, left, right)
}

func arithmetic(op BinaryOp, left, right Value) Value {
	a, e := ToNumber(left)
	if e != 0 {
		return e
	}
	b, e := ToNumber(right)
	if e != 0 {
		return e
	}

	switch op {
	case BinOpAdd:
		return Number(a + b)
	case BinOpSubtract:
		return Number(a - b)
	case BinOpMultiply:
		return Number(a * b)
	case BinOpDivide:
		if b == 0 {
			return ErrorCodeDiv0
		}
		return Number(a / b)
	case BinOpModulo:
		// truncated remainder, the sign follows the dividend. x%0 is NaN.
		return Number(math.Mod(a, b))
	case BinOpPower:
		return Number(math.Pow(a, b))
	}
	return ErrorCodeValue
}

// compare is numeric when both sides coerce to numbers and a plain byte-wise
// text comparison otherwise. it never fails.
func compare(op BinaryOp, left, right Value) Value {
	var c int
	a, ea := ToNumber(left)
	b, eb := ToNumber(right)
	if ea == 0 && eb == 0 {
		// NaN is unordered: only <> holds
		if math.IsNaN(a) || math.IsNaN(b) {
			return Boolean(op == BinOpNotEqual)
		}
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	} else {
		c = strings.Compare(ToText(left), ToText(right))
	}

	switch op {
	case BinOpEqual:
		return Boolean(c == 0)
	case BinOpNotEqual:
		return Boolean(c != 0)
	case BinOpLess:
		return Boolean(c < 0)
	case BinOpLessEqual:
		return Boolean(c <= 0)
	case BinOpGreater:
		return Boolean(c > 0)
	case BinOpGreaterEqual:
		return Boolean(c >= 0)
	}
	return ErrorCodeValue
}

func (n *CallNode) Eval(ctx *Context) Value {
	name := strings.ToUpper(n.Name)
	if name == "IF" {
		return n.evalIf(ctx)
	}

	fn, ok := ctx.functions()[name]
	if !ok {
		return ErrorCodeName
	}

	args := make([]Value, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.Eval(ctx)
	}
	for _, arg := range args {
		if e, ok := IsError(arg); ok {
			return e
		}
	}

	if result := fn(args, ctx); result != nil {
		return result
	}
	return ErrorCodeValue
}

// evalIf evaluates the condition and then only the branch it selects. a
// missing else branch is empty text.
func (n *CallNode) evalIf(ctx *Context) Value {
	if len(n.Args) == 0 || len(n.Args) > 3 {
		return ErrorCodeValue
	}

	cond := n.Args[0].Eval(ctx)
	if e, ok := IsError(cond); ok {
		return e
	}

	branch := 2
	if Truthy(cond) {
		branch = 1
	}
	if branch >= len(n.Args) {
		return Text("")
	}
	return n.Args[branch].Eval(ctx)
}
