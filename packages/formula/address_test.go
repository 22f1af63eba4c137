package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnLabel(t *testing.T) {
	tests := []struct {
		index int
		label string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
		{18277, "ZZZ"},
		{-1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.label, ColumnLabel(tt.index))
		})
	}
}

// every column from A to ZZZ must survive label -> index
func TestColumnLabelRoundTrip(t *testing.T) {
	for i := 0; i < 18278; i++ {
		label := ColumnLabel(i)
		got, ok := ParseColumnLabel(label)
		if !ok || got != i {
			t.Fatalf("ParseColumnLabel(%q) = %d, %v; want %d", label, got, ok, i)
		}

		addr, ok := ParseAddress(label + "1")
		if !ok || addr.Column != i {
			t.Fatalf("ParseAddress(%q) = %+v, %v; want column %d", label+"1", addr, ok, i)
		}
	}
}

func TestParseColumnLabel(t *testing.T) {
	got, ok := ParseColumnLabel("aa")
	require.True(t, ok)
	assert.Equal(t, 26, got)

	for _, bad := range []string{"", "A1", "$A", "-"} {
		_, ok := ParseColumnLabel(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseAddress(t *testing.T) {
	valid := []struct {
		text string
		want Address
	}{
		{"A1", Address{Row: 0, Column: 0}},
		{"B3", Address{Row: 2, Column: 1}},
		{"b3", Address{Row: 2, Column: 1}},
		{"$B$3", Address{Row: 2, Column: 1}},
		{"$B3", Address{Row: 2, Column: 1}},
		{"B$3", Address{Row: 2, Column: 1}},
		{"AA10", Address{Row: 9, Column: 26}},
		{"ZZZ9999999", Address{Row: 9999998, Column: 18277}},
		{"A007", Address{Row: 6, Column: 0}},
	}
	for _, tt := range valid {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseAddress(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	invalid := []string{
		"",
		"A",
		"1",
		"A0",
		"AAAA1",
		"A12345678",
		"A1B",
		"$$A1",
		"A$$1",
		"A 1",
		"1A",
		"Sheet1",
		"A-1",
	}
	for _, text := range invalid {
		t.Run("invalid "+text, func(t *testing.T) {
			_, ok := ParseAddress(text)
			assert.False(t, ok)
		})
	}
}

func TestIsCellReference(t *testing.T) {
	assert.True(t, IsCellReference("A1"))
	assert.True(t, IsCellReference("$XFD$1048576"))
	// the shape matches even though row zero does not exist
	assert.True(t, IsCellReference("A0"))

	assert.False(t, IsCellReference("SUM"))
	assert.False(t, IsCellReference("ABCD1"))
	assert.False(t, IsCellReference("Sheet1"))
	assert.False(t, IsCellReference("A1.5"))
}

func TestAddressString(t *testing.T) {
	assert.Equal(t, "A1", Address{}.String())
	assert.Equal(t, "B3", Address{Row: 2, Column: 1}.String())
	assert.Equal(t, "AA100", Address{Row: 99, Column: 26}.String())

	addr, ok := ParseAddress("$c$42")
	require.True(t, ok)
	assert.Equal(t, "C42", addr.String())
}
