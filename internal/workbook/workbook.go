// Package workbook is an in-memory store of named sheets whose cells hold
// literal values or formulas, evaluated on demand through the formula
// package.
package workbook

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/vogtb/go-spreadsheet/packages/formula"
)

const DefaultSheetName = "Sheet1"

var (
	ErrSheetNotFound      = errors.New("sheet not found")
	ErrInvalidAddress     = errors.New("invalid cell address")
	ErrInvalidSheetName   = errors.New("invalid sheet name")
	ErrUnsupportedFormat  = errors.New("unsupported workbook format")
	ErrUnknownEncoding    = errors.New("unknown encoding")
	ErrMalformedWorkbook  = errors.New("malformed workbook")
	ErrDuplicateSheetName = errors.New("duplicate sheet name")
)

// cell is what a sheet stores for one address. formula cells keep their
// parsed tree; a formula that failed to parse has a nil node and always
// evaluates to #NAME?.
type cell struct {
	raw     string
	value   formula.Value
	formula bool
	node    formula.ASTNode
}

// Sheet is a named grid of cells
type Sheet struct {
	name  string
	cells map[formula.Address]*cell
}

func newSheet(name string) *Sheet {
	return &Sheet{name: name, cells: make(map[formula.Address]*cell)}
}

// Name returns the sheet name as it was first added
func (s *Sheet) Name() string { return s.name }

// Len is the number of non-empty cells
func (s *Sheet) Len() int { return len(s.cells) }

// Option configures a Workbook
type Option func(*Workbook)

// WithLogger sets the logger. the default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workbook) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDefaultSheet names the sheet used for references without a sheet
// qualifier. it is created if missing.
func WithDefaultSheet(name string) Option {
	return func(w *Workbook) {
		if name != "" {
			w.defaultSheet = name
		}
	}
}

// WithFunctions replaces the builtin function table
func WithFunctions(functions formula.FunctionTable) Option {
	return func(w *Workbook) {
		w.functions = functions
	}
}

// WithCellObserver registers a callback invoked for every cell read during
// evaluation, with the resolved sheet name and address
func WithCellObserver(observe func(sheet, address string)) Option {
	return func(w *Workbook) {
		w.observe = observe
	}
}

// Workbook holds sheets by case-insensitive name. it is safe for concurrent
// use: reads and evaluations share a read lock, mutations take the write
// lock.
type Workbook struct {
	mu           sync.RWMutex
	sheets       map[string]*Sheet
	order        []string
	defaultSheet string
	functions    formula.FunctionTable
	logger       *slog.Logger
	observe      func(sheet, address string)
}

// New creates a workbook containing only the default sheet
func New(opts ...Option) *Workbook {
	w := &Workbook{
		sheets:       make(map[string]*Sheet),
		defaultSheet: DefaultSheetName,
		functions:    formula.DefaultFunctions(),
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.addSheet(w.defaultSheet)
	return w
}

func sheetKey(name string) string {
	return strings.ToLower(name)
}

// AddSheet returns the sheet with the given name, creating it if needed.
// names are matched case-insensitively.
func (w *Workbook) AddSheet(name string) (*Sheet, error) {
	if err := validateSheetName(name); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addSheet(name), nil
}

func (w *Workbook) addSheet(name string) *Sheet {
	key := sheetKey(name)
	if s, ok := w.sheets[key]; ok {
		return s
	}
	s := newSheet(name)
	w.sheets[key] = s
	w.order = append(w.order, key)
	return s
}

// validateSheetName accepts names that a formula can refer to with a
// Sheet!A1 qualifier. a name that reads as a cell address can not be.
func validateSheetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSheetName)
	}
	if formula.IsCellReference(name) {
		return fmt.Errorf("%w: %q looks like a cell address", ErrInvalidSheetName, name)
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_', ch == '$':
		case i > 0 && (ch >= '0' && ch <= '9' || ch == '.'):
		default:
			return fmt.Errorf("%w: %q", ErrInvalidSheetName, name)
		}
	}
	return nil
}

// Sheet finds a sheet by name
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s, ok := w.sheets[sheetKey(name)]
	return s, ok
}

// Sheets returns sheet names in the order they were added
func (w *Workbook) Sheets() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.order))
	for _, key := range w.order {
		names = append(names, w.sheets[key].name)
	}
	return names
}

// DefaultSheet returns the name of the sheet unqualified references use
func (w *Workbook) DefaultSheet() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sheets[sheetKey(w.defaultSheet)].name
}

// SetDefaultSheet switches the sheet unqualified references use
func (w *Workbook) SetDefaultSheet(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.sheets[sheetKey(name)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}
	w.defaultSheet = s.name
	return nil
}

// splitRef splits "Sheet!A1" or "A1" into a sheet name and address. an empty
// sheet means the default sheet.
func splitRef(ref string) (string, formula.Address, error) {
	sheet, address := "", strings.TrimSpace(ref)
	if i := strings.LastIndexByte(address, '!'); i >= 0 {
		sheet, address = address[:i], address[i+1:]
		if err := validateSheetName(sheet); err != nil {
			return "", formula.Address{}, err
		}
	}
	addr, ok := formula.ParseAddress(address)
	if !ok {
		return "", formula.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, ref)
	}
	return sheet, addr, nil
}

// Set stores raw input in a cell. input starting with '=' is a formula,
// anything else a literal read by ParseLiteral. empty input clears the cell.
// a missing sheet is created.
func (w *Workbook) Set(ref, raw string) error {
	sheet, addr, err := splitRef(ref)
	if err != nil {
		return err
	}

	var c *cell
	switch {
	case raw == "":
	case strings.HasPrefix(raw, "="):
		c = &cell{raw: raw, formula: true}
		if node, err := formula.Parse(raw); err == nil {
			c.node = node
		} else {
			w.logger.Debug("formula does not parse", "ref", ref, "err", err)
		}
	default:
		c = &cell{raw: raw, value: ParseLiteral(raw)}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.store(sheet, addr, c)
	return nil
}

// SetValue stores a literal value. a nil value clears the cell; a Grid can
// not be stored in a single cell.
func (w *Workbook) SetValue(ref string, v formula.Value) error {
	sheet, addr, err := splitRef(ref)
	if err != nil {
		return err
	}
	if _, ok := v.(formula.Grid); ok {
		return fmt.Errorf("set %s: a cell can not hold a range", ref)
	}

	var c *cell
	if v != nil {
		c = &cell{raw: formula.ToText(v), value: v}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.store(sheet, addr, c)
	return nil
}

func (w *Workbook) store(sheet string, addr formula.Address, c *cell) {
	if sheet == "" {
		sheet = w.defaultSheet
	}
	s := w.addSheet(sheet)
	if c == nil {
		delete(s.cells, addr)
		return
	}
	s.cells[addr] = c
}

// ParseLiteral reads non-formula input: numbers, TRUE/FALSE in any case, and
// error codes like #DIV/0! keep their type; everything else is text
func ParseLiteral(raw string) formula.Value {
	trimmed := strings.TrimSpace(raw)
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return formula.Number(n)
	}
	switch strings.ToUpper(trimmed) {
	case "TRUE":
		return formula.Boolean(true)
	case "FALSE":
		return formula.Boolean(false)
	}
	if code, ok := formula.ParseErrorCode(trimmed); ok {
		return code
	}
	return formula.Text(raw)
}

// Raw returns the input a cell was set with. ok is false for an empty cell
// or a missing sheet.
func (w *Workbook) Raw(ref string) (string, bool) {
	sheet, addr, err := splitRef(ref)
	if err != nil {
		return "", false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	s, ok := w.sheet(sheet)
	if !ok {
		return "", false
	}
	c, ok := s.cells[addr]
	if !ok {
		return "", false
	}
	return c.raw, true
}

// sheet resolves a name, empty meaning the default sheet. callers hold mu.
func (w *Workbook) sheet(name string) (*Sheet, bool) {
	if name == "" {
		name = w.defaultSheet
	}
	s, ok := w.sheets[sheetKey(name)]
	return s, ok
}

// Get returns the evaluated value of one cell. an empty cell is Number(0).
func (w *Workbook) Get(ref string) (formula.Value, error) {
	sheet, addr, err := splitRef(ref)
	if err != nil {
		return nil, err
	}
	if _, ok := w.Sheet(w.resolveSheetName(sheet)); !ok {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}
	return w.Lookup().GetCell(sheet, addr.String()), nil
}

func (w *Workbook) resolveSheetName(name string) string {
	if name != "" {
		return name
	}
	return w.DefaultSheet()
}

// Evaluate evaluates a formula that is not stored in any cell. unqualified
// references read the default sheet.
func (w *Workbook) Evaluate(source string) formula.Value {
	return formula.EvaluateFormula(source, w.Context())
}

// Context returns an evaluation context backed by a fresh Lookup
func (w *Workbook) Context() *formula.Context {
	return &formula.Context{Cells: w.Lookup(), Functions: w.functions}
}

// Range returns the used extent of a sheet: one past the last row and column
// holding a value
func (w *Workbook) Range(sheet string) (rows, cols int, err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s, ok := w.sheet(sheet)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}
	for addr := range s.cells {
		rows = max(rows, addr.Row+1)
		cols = max(cols, addr.Column+1)
	}
	return rows, cols, nil
}
