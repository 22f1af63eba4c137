package workbook

import (
	"github.com/vogtb/go-spreadsheet/packages/formula"
)

// cellKey identifies a cell across sheets. sheet is the lowercased name.
type cellKey struct {
	sheet string
	addr  formula.Address
}

// calculationStack tracks the formula cells of one evaluation. a cell that
// is requested while it is still processing is part of a cycle.
//
// a frame is tainted when a cycle is cut at it or at a frame above it. its
// value then depends on the cells still on the stack, so it is never put in
// completed. it is kept in the scratch of the frame that read it instead,
// which is only consulted while that frame is on top and so sees the same
// stack.
type calculationStack struct {
	items      []frame
	processing map[cellKey]int
	completed  map[cellKey]formula.Value
	root       map[cellKey]formula.Value
}

type frame struct {
	key     cellKey
	tainted bool
	scratch map[cellKey]formula.Value
}

func newCalculationStack() *calculationStack {
	return &calculationStack{
		processing: make(map[cellKey]int),
		completed:  make(map[cellKey]formula.Value),
		root:       make(map[cellKey]formula.Value),
	}
}

func (cs *calculationStack) push(key cellKey) {
	cs.processing[key] = len(cs.items)
	cs.items = append(cs.items, frame{key: key})
}

// pop removes the top frame and reports whether it was tainted
func (cs *calculationStack) pop() (tainted bool) {
	f := cs.items[len(cs.items)-1]
	cs.items = cs.items[:len(cs.items)-1]
	delete(cs.processing, f.key)
	return f.tainted
}

// cut reports whether key is processing. if it is, the frames from key to
// the top are tainted.
func (cs *calculationStack) cut(key cellKey) bool {
	i, ok := cs.processing[key]
	if !ok {
		return false
	}
	for j := i; j < len(cs.items); j++ {
		cs.items[j].tainted = true
	}
	return true
}

// cached returns a tainted value already read by the top frame
func (cs *calculationStack) cached(key cellKey) (formula.Value, bool) {
	scratch := cs.root
	if len(cs.items) > 0 {
		scratch = cs.items[len(cs.items)-1].scratch
	}
	v, ok := scratch[key]
	return v, ok
}

// remember stores a tainted value in the scratch of the top frame
func (cs *calculationStack) remember(key cellKey, v formula.Value) {
	if len(cs.items) == 0 {
		cs.root[key] = v
		return
	}
	f := &cs.items[len(cs.items)-1]
	if f.scratch == nil {
		f.scratch = make(map[cellKey]formula.Value)
	}
	f.scratch[key] = v
}

// top is the formula cell currently being evaluated
func (cs *calculationStack) top() (cellKey, bool) {
	if len(cs.items) == 0 {
		return cellKey{}, false
	}
	return cs.items[len(cs.items)-1].key, true
}

// lookup is the formula.CellLookup of a single evaluation. it is not safe for
// concurrent use; every evaluation gets its own from Workbook.Lookup.
type lookup struct {
	wb    *Workbook
	stack *calculationStack
	depth int
}

// Lookup returns a CellLookup for one evaluation. formula cells it reaches are
// evaluated recursively and, unless they take part in a cycle, memoized for
// the lifetime of the lookup. a cell that refers back to itself through any
// chain reads as #REF! at the point the chain closes, missing cells read as
// Number(0), and an unknown sheet or malformed address is #REF!.
func (w *Workbook) Lookup() formula.CellLookup {
	return &lookup{wb: w, stack: newCalculationStack()}
}

func (l *lookup) GetCell(sheet, address string) formula.Value {
	if l.depth == 0 {
		l.wb.mu.RLock()
		defer l.wb.mu.RUnlock()
	}
	l.depth++
	defer func() { l.depth-- }()

	// unqualified references belong to the sheet of the formula being
	// evaluated, or the default sheet at the top level
	var s *Sheet
	var ok bool
	if sheet == "" {
		if key, inFormula := l.stack.top(); inFormula {
			s, ok = l.wb.sheets[key.sheet]
		} else {
			s, ok = l.wb.sheet("")
		}
	} else {
		s, ok = l.wb.sheet(sheet)
	}
	if !ok {
		return formula.ErrorCodeRef
	}
	addr, ok := formula.ParseAddress(address)
	if !ok {
		return formula.ErrorCodeRef
	}
	if l.wb.observe != nil {
		l.wb.observe(s.name, addr.String())
	}

	c, ok := s.cells[addr]
	if !ok {
		return formula.Number(0)
	}
	if !c.formula {
		return c.value
	}
	return l.evaluate(cellKey{sheet: sheetKey(s.name), addr: addr}, c)
}

func (l *lookup) evaluate(key cellKey, c *cell) formula.Value {
	if v, ok := l.stack.completed[key]; ok {
		return v
	}
	if v, ok := l.stack.cached(key); ok {
		return v
	}
	if l.stack.cut(key) {
		l.wb.logger.Debug("circular reference", "sheet", key.sheet, "cell", key.addr.String())
		return formula.ErrorCodeRef
	}
	if c.node == nil {
		return formula.ErrorCodeName
	}

	l.stack.push(key)
	v := c.node.Eval(&formula.Context{Cells: l, Functions: l.wb.functions})
	tainted := l.stack.pop()

	// a cell holding a bare range has no single value
	if _, ok := v.(formula.Grid); ok {
		v = formula.ErrorCodeValue
	}
	if tainted {
		l.stack.remember(key, v)
	} else {
		l.stack.completed[key] = v
	}
	return v
}
