// Package formula parses and evaluates spreadsheet formulas such as
// =SUM(A1:B3)+LEFT("hi",1)&"!".
//
// A formula is tokenized, parsed into a tree with an operator-precedence
// parser, and evaluated against a Context that supplies cell values and
// functions. Evaluation results are Values; spreadsheet errors like #DIV/0!
// are values too, so EvaluateFormula never returns a Go error.
//
// The package keeps no state between calls and is safe for concurrent use as
// long as each Context's CellLookup is.
package formula

// Tokenize splits source into tokens. the result ends with a TokenEOF token.
func Tokenize(source string) ([]Token, error) {
	return NewLexer(source).Tokenize()
}

// Parse tokenizes and parses source. a single leading '=' is optional. the
// error is a *LexError or a *ParseError.
func Parse(source string) (ASTNode, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// EvaluateFormula parses and evaluates source. any lexical or structural
// failure evaluates to #NAME?. ctx may be nil.
func EvaluateFormula(source string, ctx *Context) Value {
	node, err := Parse(source)
	if err != nil {
		return ErrorCodeName
	}
	return node.Eval(ctx)
}
