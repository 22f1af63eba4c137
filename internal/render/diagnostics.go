package render

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vogtb/go-spreadsheet/packages/formula"
)

// Tree characters for the ast view
const (
	TreeBranch = "├─ "
	TreeLast   = "└─ "
	TreePipe   = "│  "
	TreeIndent = "   "
)

// Caret shows source with a caret under byte offset pos and msg below it
func Caret(source string, pos int, msg string) string {
	pos = max(0, min(pos, len(source)))
	col := utf8.RuneCountInString(source[:pos])
	var b strings.Builder
	fmt.Fprintf(&b, "  %s\n", source)
	fmt.Fprintf(&b, "  %s%s\n", strings.Repeat(" ", col), ErrorStyle.Render("^"))
	b.WriteString(ErrorStyle.Render(msg))
	return b.String()
}

// Tokens renders a token list as a table
func Tokens(tokens []formula.Token) string {
	rows := make([][]string, 0, len(tokens))
	for _, tok := range tokens {
		rows = append(rows, []string{
			tok.Type.String(),
			strconv.Quote(tok.Value),
			fmt.Sprintf("%d-%d", tok.Pos, tok.End),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(MutedStyle).
		StyleFunc(cellStyle(nil)).
		Headers("TYPE", "VALUE", "POS").
		Rows(rows...).
		String()
}

// Tree renders a parsed formula as an indented tree, one node per line
func Tree(node formula.ASTNode) string {
	var b strings.Builder
	b.WriteString(label(node))
	writeChildren(&b, node, "")
	return b.String()
}

func writeChildren(b *strings.Builder, node formula.ASTNode, prefix string) {
	kids := children(node)
	for i, kid := range kids {
		branch, indent := TreeBranch, TreePipe
		if i == len(kids)-1 {
			branch, indent = TreeLast, TreeIndent
		}
		b.WriteString("\n" + MutedStyle.Render(prefix+branch) + label(kid))
		writeChildren(b, kid, prefix+indent)
	}
}

func label(node formula.ASTNode) string {
	switch n := node.(type) {
	case *formula.NumberNode:
		return "Number " + NumberStyle.Render(n.Raw)
	case *formula.StringNode:
		return "String " + strconv.Quote(n.Value)
	case *formula.IdentifierNode:
		return "Identifier " + n.Name
	case *formula.CellRefNode:
		return "CellRef " + n.Address
	case *formula.SheetRefNode:
		return "SheetRef " + n.Sheet
	case *formula.RangeNode:
		return "Range"
	case *formula.UnaryOpNode:
		return "Unary " + n.Op.String()
	case *formula.BinaryOpNode:
		return "Binary " + n.Op.String()
	case *formula.CallNode:
		return fmt.Sprintf("Call %s/%d", n.Name, len(n.Args))
	}
	return fmt.Sprintf("%T", node)
}

func children(node formula.ASTNode) []formula.ASTNode {
	switch n := node.(type) {
	case *formula.SheetRefNode:
		return []formula.ASTNode{n.Target}
	case *formula.RangeNode:
		return []formula.ASTNode{n.Left, n.Right}
	case *formula.UnaryOpNode:
		return []formula.ASTNode{n.Operand}
	case *formula.BinaryOpNode:
		return []formula.ASTNode{n.Left, n.Right}
	case *formula.CallNode:
		return n.Args
	}
	return nil
}
