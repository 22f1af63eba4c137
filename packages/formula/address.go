package formula

import (
	"strconv"
	"strings"
)

// Coordinates in this package are zero-based: row 0 / column 0 is the cell
// written "A1". A1 text is one-based for rows and bijective base-26 for
// columns. The conversion between the two happens only in this file, in
// ParseAddress (-1) and Address.String / ColumnLabel (+1).

const (
	maxColumnLetters = 3
	maxRowDigits     = 7
)

// Address is a zero-based cell coordinate
type Address struct {
	Row    int
	Column int
}

// String returns the A1 form of the address, e.g. {Row: 2, Column: 1} is "B3"
func (a Address) String() string {
	return ColumnLabel(a.Column) + strconv.Itoa(a.Row+1)
}

// ColumnLabel converts a zero-based column index to its letter label: 0 is
// "A", 25 is "Z", 26 is "AA". Negative indexes have no label.
func ColumnLabel(index int) string {
	if index < 0 {
		return ""
	}
	var buf [16]byte
	i := len(buf)
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		i--
		buf[i] = byte('A' + (n-1)%26)
	}
	return string(buf[i:])
}

// ParseColumnLabel converts a letter label back to a zero-based column
// index. letters are case-insensitive.
func ParseColumnLabel(label string) (int, bool) {
	if label == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(label); i++ {
		ch := label[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
			n = n*26 + int(ch-'A') + 1
		case ch >= 'a' && ch <= 'z':
			n = n*26 + int(ch-'a') + 1
		default:
			return 0, false
		}
		if n < 0 {
			return 0, false
		}
	}
	return n - 1, true
}

// ParseAddress parses A1 text: optional '$', 1-3 letters, optional '$', 1-7
// digits. Row "0" does not exist in A1 notation and is rejected.
func ParseAddress(text string) (Address, bool) {
	letters, digits, ok := splitAddress(text)
	if !ok {
		return Address{}, false
	}
	col, ok := ParseColumnLabel(letters)
	if !ok {
		return Address{}, false
	}
	row, err := strconv.Atoi(digits)
	if err != nil || row < 1 {
		return Address{}, false
	}
	return Address{Row: row - 1, Column: col}, true
}

// IsCellReference reports whether text has the shape of a cell address. it
// does not check the row number, so "A0" has the shape but does not parse.
func IsCellReference(text string) bool {
	_, _, ok := splitAddress(text)
	return ok
}

// splitAddress checks the shape of an address and returns its letter and
// digit parts with any '$' markers removed
func splitAddress(text string) (letters, digits string, ok bool) {
	s := strings.TrimPrefix(text, "$")
	i := 0
	for i < len(s) && isLetter(s[i]) {
		i++
	}
	if i == 0 || i > maxColumnLetters {
		return "", "", false
	}
	letters, s = s[:i], strings.TrimPrefix(s[i:], "$")
	if s == "" || len(s) > maxRowDigits {
		return "", "", false
	}
	for j := 0; j < len(s); j++ {
		if !isDigit(s[j]) {
			return "", "", false
		}
	}
	return letters, s, true
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
