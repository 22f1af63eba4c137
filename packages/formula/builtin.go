package formula

import (
	"iter"
	"maps"
	"math"
	"slices"
	"strings"
	"unicode/utf8"
)

// defaultFunctions is never mutated. callers get copies from
// DefaultFunctions.
var defaultFunctions = FunctionTable{
	"SUM":         fnSum,
	"AVERAGE":     fnAverage,
	"COUNT":       fnCount,
	"MIN":         fnMin,
	"MAX":         fnMax,
	"MEDIAN":      fnMedian,
	"AND":         fnAnd,
	"OR":          fnOr,
	"NOT":         fnNot,
	"TRUE":        fnTrue,
	"FALSE":       fnFalse,
	"LEFT":        fnLeft,
	"LEN":         fnLen,
	"CONCATENATE": fnConcatenate,
	"CONCAT":      fnConcatenate,
	"UPPER":       fnUpper,
	"LOWER":       fnLower,
	"TRIM":        fnTrim,
	"ABS":         fnAbs,
	"ROUND":       fnRound,
	"SQRT":        fnSqrt,
	"POWER":       fnPower,
	"MOD":         fnMod,
	"PI":          fnPi,
}

// DefaultFunctions returns a fresh copy of the builtin function table. IF is
// not in the table, the evaluator handles it because its branches must not
// be evaluated eagerly.
func DefaultFunctions() FunctionTable {
	return maps.Clone(defaultFunctions)
}

// scalars yields every argument with grids unrolled row-major
func scalars(args []Value) iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for _, arg := range args {
			if g, ok := arg.(Grid); ok {
				for v := range g.All() {
					if !yield(v) {
						return
					}
				}
				continue
			}
			if !yield(arg) {
				return
			}
		}
	}
}

// collectNumbers flattens args and keeps everything that coerces to a number.
// the first error value found wins.
func collectNumbers(args []Value) ([]float64, ErrorCode) {
	var nums []float64
	for v := range scalars(args) {
		if e, ok := IsError(v); ok {
			return nil, e
		}
		if n, e := ToNumber(v); e == 0 {
			nums = append(nums, n)
		}
	}
	return nums, 0
}

// numberArg coerces a single positional argument
func numberArg(args []Value, i int) (float64, ErrorCode) {
	if i >= len(args) {
		return 0, ErrorCodeValue
	}
	return ToNumber(args[i])
}

func fnSum(args []Value, _ *Context) Value {
	sum := 0.0
	for v := range scalars(args) {
		if e, ok := IsError(v); ok {
			return e
		}
		if n, e := ToNumber(v); e == 0 {
			sum += n
		}
	}
	return Number(sum)
}

func fnAverage(args []Value, _ *Context) Value {
	nums, e := collectNumbers(args)
	if e != 0 {
		return e
	}
	if len(nums) == 0 {
		return ErrorCodeDiv0
	}
	sum := 0.0
	for _, n := range nums {
		sum += n
	}
	return Number(sum / float64(len(nums)))
}

// fnCount counts numbers only. numeric-looking text is not counted.
func fnCount(args []Value, _ *Context) Value {
	count := 0
	for v := range scalars(args) {
		if _, ok := v.(Number); ok {
			count++
		}
	}
	return Number(count)
}

func fnMin(args []Value, _ *Context) Value {
	nums, e := collectNumbers(args)
	if e != 0 {
		return e
	}
	if len(nums) == 0 {
		return Number(0)
	}
	return Number(slices.Min(nums))
}

func fnMax(args []Value, _ *Context) Value {
	nums, e := collectNumbers(args)
	if e != 0 {
		return e
	}
	if len(nums) == 0 {
		return Number(0)
	}
	return Number(slices.Max(nums))
}

func fnMedian(args []Value, _ *Context) Value {
	nums, e := collectNumbers(args)
	if e != 0 {
		return e
	}
	if len(nums) == 0 {
		return ErrorCodeValue
	}
	slices.Sort(nums)
	mid := len(nums) / 2
	if len(nums)%2 == 1 {
		return Number(nums[mid])
	}
	return Number((nums[mid-1] + nums[mid]) / 2)
}

// fnAnd is TRUE for no arguments, like an empty conjunction
func fnAnd(args []Value, _ *Context) Value {
	for _, arg := range args {
		if !Truthy(arg) {
			return Boolean(false)
		}
	}
	return Boolean(true)
}

func fnOr(args []Value, _ *Context) Value {
	for _, arg := range args {
		if Truthy(arg) {
			return Boolean(true)
		}
	}
	return Boolean(false)
}

func fnNot(args []Value, _ *Context) Value {
	if len(args) != 1 {
		return ErrorCodeValue
	}
	return Boolean(!Truthy(args[0]))
}

func fnTrue(args []Value, _ *Context) Value {
	if len(args) != 0 {
		return ErrorCodeValue
	}
	return Boolean(true)
}

func fnFalse(args []Value, _ *Context) Value {
	if len(args) != 0 {
		return ErrorCodeValue
	}
	return Boolean(false)
}

// fnLeft returns the first count characters of text. count defaults to 1,
// is truncated toward zero, and must not be negative.
func fnLeft(args []Value, _ *Context) Value {
	if len(args) < 1 || len(args) > 2 {
		return ErrorCodeValue
	}
	text := ToText(args[0])

	count := 1.0
	if len(args) == 2 {
		n, e := ToNumber(args[1])
		if e != 0 {
			return e
		}
		count = n
	}
	if math.IsNaN(count) || count < 0 {
		return ErrorCodeValue
	}
	if count >= float64(utf8.RuneCountInString(text)) {
		return Text(text)
	}
	runes := []rune(text)
	return Text(string(runes[:int(count)]))
}

// fnLen counts characters, not bytes
func fnLen(args []Value, _ *Context) Value {
	if len(args) != 1 {
		return ErrorCodeValue
	}
	return Number(utf8.RuneCountInString(ToText(args[0])))
}

func fnConcatenate(args []Value, _ *Context) Value {
	var b strings.Builder
	for v := range scalars(args) {
		if e, ok := IsError(v); ok {
			return e
		}
		b.WriteString(ToText(v))
	}
	return Text(b.String())
}

func fnUpper(args []Value, _ *Context) Value {
	if len(args) != 1 {
		return ErrorCodeValue
	}
	return Text(strings.ToUpper(ToText(args[0])))
}

func fnLower(args []Value, _ *Context) Value {
	if len(args) != 1 {
		return ErrorCodeValue
	}
	return Text(strings.ToLower(ToText(args[0])))
}

// fnTrim strips the ends and collapses inner runs of spaces to one
func fnTrim(args []Value, _ *Context) Value {
	if len(args) != 1 {
		return ErrorCodeValue
	}
	return Text(strings.Join(strings.Fields(ToText(args[0])), " "))
}

func fnAbs(args []Value, _ *Context) Value {
	if len(args) != 1 {
		return ErrorCodeValue
	}
	n, e := ToNumber(args[0])
	if e != 0 {
		return e
	}
	return Number(math.Abs(n))
}

// maxRoundPlaces is the largest power of ten a float64 holds
const maxRoundPlaces = 308

// fnRound rounds half away from zero to the given number of places, which
// may be negative
func fnRound(args []Value, _ *Context) Value {
	if len(args) < 1 || len(args) > 2 {
		return ErrorCodeValue
	}
	n, e := ToNumber(args[0])
	if e != 0 {
		return e
	}
	places := 0.0
	if len(args) == 2 {
		if places, e = ToNumber(args[1]); e != 0 {
			return e
		}
	}
	places = math.Trunc(places)
	switch {
	case math.IsNaN(places):
		return ErrorCodeValue
	case places > maxRoundPlaces:
		// already exact at that precision, and 10^places would overflow
		return Number(n)
	case places < -maxRoundPlaces:
		return Number(0)
	}
	multiplier := math.Pow(10, places)
	if math.IsInf(n*multiplier, 0) {
		return Number(n)
	}
	return Number(math.Round(n*multiplier) / multiplier)
}

func fnSqrt(args []Value, _ *Context) Value {
	if len(args) != 1 {
		return ErrorCodeValue
	}
	n, e := ToNumber(args[0])
	if e != 0 {
		return e
	}
	if n < 0 {
		return ErrorCodeValue
	}
	return Number(math.Sqrt(n))
}

func fnPower(args []Value, _ *Context) Value {
	if len(args) != 2 {
		return ErrorCodeValue
	}
	base, e := numberArg(args, 0)
	if e != 0 {
		return e
	}
	exp, e := numberArg(args, 1)
	if e != 0 {
		return e
	}
	return Number(math.Pow(base, exp))
}

// fnMod is the floored modulus: the result takes the sign of the divisor.
// the % operator truncates instead.
func fnMod(args []Value, _ *Context) Value {
	if len(args) != 2 {
		return ErrorCodeValue
	}
	a, e := numberArg(args, 0)
	if e != 0 {
		return e
	}
	b, e := numberArg(args, 1)
	if e != 0 {
		return e
	}
	if b == 0 {
		return ErrorCodeDiv0
	}
	return Number(a - b*math.Floor(a/b))
}

func fnPi(args []Value, _ *Context) Value {
	if len(args) != 0 {
		return ErrorCodeValue
	}
	return Number(math.Pi)
}
