package render

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogtb/go-spreadsheet/internal/workbook"
	"github.com/vogtb/go-spreadsheet/packages/formula"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

// unsetEnv clears a variable for the duration of the test
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name          string
		mode          string
		noColor       string
		cliColor      string
		cliColorForce string
		want          bool
	}{
		{name: "always", mode: ColorAlways, noColor: "1", want: true},
		{name: "never", mode: ColorNever, cliColorForce: "1", want: false},
		{name: "auto is off for a buffer", mode: ColorAuto, want: false},
		{name: "NO_COLOR disables color", mode: ColorAuto, noColor: "1", want: false},
		{name: "CLICOLOR_FORCE enables color", mode: ColorAuto, cliColorForce: "1", want: true},
		{name: "NO_COLOR beats CLICOLOR_FORCE", mode: ColorAuto, noColor: "1", cliColorForce: "1", want: false},
		{name: "CLICOLOR=0 disables color", mode: ColorAuto, cliColor: "0", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range map[string]string{
				"NO_COLOR":       tt.noColor,
				"CLICOLOR":       tt.cliColor,
				"CLICOLOR_FORCE": tt.cliColorForce,
			} {
				if value == "" {
					unsetEnv(t, key)
				} else {
					t.Setenv(key, value)
				}
			}
			assert.Equal(t, tt.want, ShouldUseColor(tt.mode, &bytes.Buffer{}))
		})
	}
}

func TestSetup(t *testing.T) {
	t.Cleanup(func() { lipgloss.SetColorProfile(termenv.Ascii) })

	assert.True(t, Setup(ColorAlways, &bytes.Buffer{}))
	assert.NotEqual(t, termenv.Ascii, lipgloss.ColorProfile())

	assert.False(t, Setup(ColorNever, &bytes.Buffer{}))
	assert.Equal(t, termenv.Ascii, lipgloss.ColorProfile())
	assert.Equal(t, "#DIV/0!", StyledValue(formula.ErrorCodeDiv0))
}

func TestValue(t *testing.T) {
	assert.Equal(t, "3", Value(formula.Number(3)))
	assert.Equal(t, "TRUE", Value(formula.Boolean(true)))
	assert.Equal(t, "hi", StyledValue(formula.Text("hi")))
	assert.Equal(t, "#REF!", StyledValue(formula.ErrorCodeRef))

	grid := Value(formula.Grid{
		{formula.Number(1), formula.Text("a")},
		{formula.Boolean(false), formula.ErrorCodeName},
	})
	lines := strings.Split(grid, "\n")
	// border, two rows, border
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "1")
	assert.Contains(t, lines[1], "a")
	assert.Contains(t, lines[2], "FALSE")
	assert.Contains(t, lines[2], "#NAME?")
}

func TestResultJSON(t *testing.T) {
	tests := []struct {
		source string
		value  formula.Value
		want   string
	}{
		{"=1+2", formula.Number(3), `{"formula":"=1+2","kind":"number","value":3,"text":"3"}`},
		{"=1/0", formula.ErrorCodeDiv0, `{"formula":"=1/0","kind":"error","value":"#DIV/0!","text":"#DIV/0!"}`},
		{"=2^1024", formula.Number(math.Inf(1)), `{"formula":"=2^1024","kind":"number","value":"Infinity","text":"Infinity"}`},
		{"=A1=1", formula.Boolean(true), `{"formula":"=A1=1","kind":"boolean","value":true,"text":"TRUE"}`},
		{
			"=A1:B1",
			formula.Grid{{formula.Number(1), formula.Text("x")}},
			`{"formula":"=A1:B1","kind":"grid","value":[[1,"x"]],"text":"[Array]"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			out, err := json.Marshal(NewResult(tt.source, tt.value))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(out))
		})
	}
}

func TestCaret(t *testing.T) {
	assert.Equal(t, "  =1+\n     ^\nunexpected end of formula", Caret("=1+", 3, "unexpected end of formula"))
	assert.Equal(t, "  =\"é\"?\n      ^\nbad", Caret("=\"é\"?", 5, "bad"))
	assert.Equal(t, "  =1\n    ^\nx", Caret("=1", 99, "x"))
}

func TestTree(t *testing.T) {
	node, err := formula.Parse("=SUM(A1:B2)+-1")
	require.NoError(t, err)
	want := strings.Join([]string{
		"Binary +",
		"├─ Call SUM/1",
		"│  └─ Range",
		"│     ├─ CellRef A1",
		"│     └─ CellRef B2",
		"└─ Unary -",
		"   └─ Number 1",
	}, "\n")
	assert.Equal(t, want, Tree(node))

	node, err = formula.Parse(`=Data!A1&"x"`)
	require.NoError(t, err)
	assert.Equal(t, "Binary &\n├─ SheetRef Data\n│  └─ CellRef A1\n└─ String \"x\"", Tree(node))
}

func TestTokens(t *testing.T) {
	tokens, err := formula.Tokenize(`=LEFT("a", 1)`)
	require.NoError(t, err)
	out := Tokens(tokens)
	for _, want := range []string{"TYPE", "IDENTIFIER", `"LEFT"`, "STRING", `"a"`, "RIGHT_PAREN", "EOF", "0-1"} {
		assert.Contains(t, out, want)
	}
}

func TestSheet(t *testing.T) {
	w := workbook.New()
	require.NoError(t, w.Set("A1", "1"))
	require.NoError(t, w.Set("B1", "=A1*2"))
	require.NoError(t, w.Set("A2", "label"))
	require.NoError(t, w.Set("B3", "=1/0"))

	out, err := Sheet(w, "")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	// border, header, separator, three rows, border
	require.Len(t, lines, 7)
	assert.Contains(t, lines[1], "A")
	assert.Contains(t, lines[1], "B")
	assert.Contains(t, lines[3], "1")
	assert.Contains(t, lines[3], "2")
	assert.Contains(t, lines[4], "label")
	assert.Contains(t, lines[5], "#DIV/0!")

	_, err = w.AddSheet("Blank")
	require.NoError(t, err)
	out, err = Sheet(w, "Blank")
	require.NoError(t, err)
	assert.Equal(t, "Blank is empty", out)

	_, err = Sheet(w, "Nope")
	assert.ErrorIs(t, err, workbook.ErrSheetNotFound)
}
