package formula

import "iter"

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNumber Kind = iota
	KindText
	KindBoolean
	KindError
	KindGrid
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBoolean:
		return "boolean"
	case KindError:
		return "error"
	case KindGrid:
		return "grid"
	}
	return "unknown"
}

// Value is what every expression evaluates to. The set of implementations is
// closed: Number, Text, Boolean, ErrorCode and Grid.
type Value interface {
	Kind() Kind
	sealed()
}

// Number is a numeric value. Integers are represented as float64 too.
type Number float64

// Text is a string value.
type Text string

// Boolean is a TRUE/FALSE value.
type Boolean bool

// Grid is a resolved rectangular range, rows outer and columns inner. Every
// row has the same length and no element is itself a Grid.
type Grid [][]Value

func (Number) Kind() Kind    { return KindNumber }
func (Text) Kind() Kind      { return KindText }
func (Boolean) Kind() Kind   { return KindBoolean }
func (ErrorCode) Kind() Kind { return KindError }
func (Grid) Kind() Kind      { return KindGrid }

func (Number) sealed()    {}
func (Text) sealed()      {}
func (Boolean) sealed()   {}
func (ErrorCode) sealed() {}
func (Grid) sealed()      {}

// Rows returns the number of rows in the grid
func (g Grid) Rows() int { return len(g) }

// Columns returns the number of columns in the grid
func (g Grid) Columns() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// All iterates the grid row-major
func (g Grid) All() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for _, row := range g {
			for _, v := range row {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// ErrorCode is a spreadsheet error value. It carries no payload and doubles as
// a Go error so callers can match it with errors.Is.
type ErrorCode uint8

const (
	ErrorCodeDiv0  ErrorCode = 2 // #DIV/0! - division by zero
	ErrorCodeValue ErrorCode = 3 // #VALUE! - wrong type of argument or operand
	ErrorCodeRef   ErrorCode = 4 // #REF! - invalid cell reference
	ErrorCodeName  ErrorCode = 5 // #NAME? - unrecognized name or unparseable formula
)

// ErrorMapper maps error codes to their display strings
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeDiv0:  "#DIV/0!",
	ErrorCodeValue: "#VALUE!",
	ErrorCodeRef:   "#REF!",
	ErrorCodeName:  "#NAME?",
}

// String returns the display form, e.g. "#DIV/0!"
func (e ErrorCode) String() string {
	if s, ok := ErrorMapper[e]; ok {
		return s
	}
	return "#ERROR!"
}

func (e ErrorCode) Error() string { return e.String() }

// ParseErrorCode is the inverse of ErrorCode.String
func ParseErrorCode(s string) (ErrorCode, bool) {
	for code, text := range ErrorMapper {
		if text == s {
			return code, true
		}
	}
	return 0, false
}

// IsError reports whether v is an error value and returns it
func IsError(v Value) (ErrorCode, bool) {
	e, ok := v.(ErrorCode)
	return e, ok
}
