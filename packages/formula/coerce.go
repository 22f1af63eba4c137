package formula

import (
	"math"
	"strconv"
	"strings"
)

// gridPlaceholder is the text form of a Grid. concatenating a whole range
// has no meaning but must not fail.
const gridPlaceholder = "[Array]"

// ToNumber coerces v to a number. Numbers pass through, text that parses as a
// finite number is converted, and errors are returned as-is. Everything else
// (booleans, grids, non-numeric text) is ErrorCodeValue.
func ToNumber(v Value) (float64, ErrorCode) {
	switch t := v.(type) {
	case Number:
		return float64(t), 0
	case Text:
		if n, ok := parseNumericText(string(t)); ok {
			return n, 0
		}
		return 0, ErrorCodeValue
	case ErrorCode:
		return 0, t
	}
	return 0, ErrorCodeValue
}

// parseNumericText accepts surrounding whitespace but not empty text or
// non-finite results such as "Inf"
func parseNumericText(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// ToText renders v as text the way the & operator sees it
func ToText(v Value) string {
	switch t := v.(type) {
	case Number:
		return FormatNumber(float64(t))
	case Text:
		return string(t)
	case Boolean:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case ErrorCode:
		return t.String()
	case Grid:
		return gridPlaceholder
	}
	return ""
}

// Truthy is the boolean interpretation used by IF, AND, OR and NOT. errors are
// false, a grid takes the truthiness of its top-left cell, zero, NaN and empty
// text are false.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case Number:
		return t != 0 && !math.IsNaN(float64(t))
	case Text:
		return t != ""
	case Boolean:
		return bool(t)
	case Grid:
		if len(t) == 0 || len(t[0]) == 0 {
			return false
		}
		return Truthy(t[0][0])
	}
	return false
}

// FormatNumber renders n in shortest round-trip form. plain decimal notation is
// used for magnitudes in [1e-6, 1e21), exponent notation outside of it.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}

	abs := math.Abs(n)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}

	// strconv pads the exponent to two digits ("1e-07"), trim that
	s := strconv.FormatFloat(n, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits
}
