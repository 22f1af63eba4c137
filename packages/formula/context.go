package formula

import "strings"

// CellLookup resolves a single cell for the evaluator. sheet is empty for an
// unqualified reference. implementations return a scalar (never a Grid) and
// by convention Number(0) for an empty cell.
//
// The evaluator assumes a lookup is a side-effect-free read for the duration
// of one evaluation. A lookup that evaluates other formulas is responsible
// for its own cycle safety.
type CellLookup interface {
	GetCell(sheet, address string) Value
}

// CellLookupFunc adapts a plain function to CellLookup
type CellLookupFunc func(sheet, address string) Value

func (f CellLookupFunc) GetCell(sheet, address string) Value {
	return f(sheet, address)
}

// Function is a builtin. args are already evaluated and contain no errors.
type Function func(args []Value, ctx *Context) Value

// FunctionTable maps uppercase function names to implementations
type FunctionTable map[string]Function

// Lookup finds a function by name, ignoring case
func (t FunctionTable) Lookup(name string) (Function, bool) {
	fn, ok := t[strings.ToUpper(name)]
	return fn, ok
}

// Register adds or replaces a function. the name is stored uppercase.
func (t FunctionTable) Register(name string, fn Function) {
	t[strings.ToUpper(name)] = fn
}

// Context is what one evaluation runs against. a nil Cells treats every cell
// as empty, a nil Functions uses DefaultFunctions.
type Context struct {
	Cells     CellLookup
	Functions FunctionTable
}

// getCell enforces the lookup contract: a missing value reads as zero and a
// grid, which a single cell can never hold, is a #VALUE! error
func (c *Context) getCell(sheet, address string) Value {
	if c == nil || c.Cells == nil {
		return Number(0)
	}
	switch v := c.Cells.GetCell(sheet, address).(type) {
	case nil:
		return Number(0)
	case Grid:
		return ErrorCodeValue
	default:
		return v
	}
}

func (c *Context) functions() FunctionTable {
	if c == nil || c.Functions == nil {
		return defaultFunctions
	}
	return c.Functions
}
