package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/vogtb/go-spreadsheet/packages/formula"
)

type WorkbookTestCase struct {
	t        *testing.T
	name     string
	workbook *Workbook
}

func NewWorkbookTestCase(t *testing.T, name string, opts ...Option) *WorkbookTestCase {
	return &WorkbookTestCase{t: t, name: name, workbook: New(opts...)}
}

func (tc *WorkbookTestCase) Set(ref, raw string) *WorkbookTestCase {
	tc.t.Helper()
	require.NoError(tc.t, tc.workbook.Set(ref, raw), "%s: Set(%s)", tc.name, ref)
	return tc
}

func (tc *WorkbookTestCase) AssertCell(ref string, want formula.Value) *WorkbookTestCase {
	tc.t.Helper()
	got, err := tc.workbook.Get(ref)
	require.NoError(tc.t, err, "%s: Get(%s)", tc.name, ref)
	assert.Equal(tc.t, want, got, "%s: %s", tc.name, ref)
	return tc
}

func (tc *WorkbookTestCase) AssertEval(source string, want formula.Value) *WorkbookTestCase {
	tc.t.Helper()
	assert.Equal(tc.t, want, tc.workbook.Evaluate(source), "%s: %s", tc.name, source)
	return tc
}

func TestLiteralsAndFormulas(t *testing.T) {
	NewWorkbookTestCase(t, "literals").
		Set("A1", "1").
		Set("A2", "hello").
		Set("A3", "true").
		Set("A4", "#DIV/0!").
		Set("A5", " 2.5 ").
		AssertCell("A1", formula.Number(1)).
		AssertCell("A2", formula.Text("hello")).
		AssertCell("A3", formula.Boolean(true)).
		AssertCell("A4", formula.ErrorCodeDiv0).
		AssertCell("A5", formula.Number(2.5)).
		AssertCell("Z99", formula.Number(0))

	NewWorkbookTestCase(t, "chain").
		Set("A1", "1").
		Set("A2", "=A1*2").
		Set("A3", "=A2+A1").
		Set("A4", "=SUM(A1:A3)").
		AssertCell("A2", formula.Number(2)).
		AssertCell("A3", formula.Number(3)).
		AssertCell("A4", formula.Number(6)).
		AssertEval("=A4&\"!\"", formula.Text("6!"))

	NewWorkbookTestCase(t, "diamond").
		Set("A1", "1").
		Set("B1", "=A1").
		Set("C1", "=A1+B1").
		Set("D1", "=B1+C1").
		AssertCell("D1", formula.Number(3))

	NewWorkbookTestCase(t, "unparseable formula").
		Set("A1", "=1+").
		Set("A2", "=A1+1").
		AssertCell("A1", formula.ErrorCodeName).
		AssertCell("A2", formula.ErrorCodeName)

	NewWorkbookTestCase(t, "bare range in a cell").
		Set("A1", "1").
		Set("A2", "=A1:A1").
		AssertCell("A2", formula.ErrorCodeValue).
		AssertEval("=A1:A1", formula.Grid{{formula.Number(1)}})
}

func TestCycles(t *testing.T) {
	NewWorkbookTestCase(t, "self reference").
		Set("A1", "=A1").
		AssertCell("A1", formula.ErrorCodeRef)

	NewWorkbookTestCase(t, "two cells").
		Set("A1", "=B1+1").
		Set("B1", "=A1+1").
		AssertCell("A1", formula.ErrorCodeRef).
		AssertCell("B1", formula.ErrorCodeRef)

	NewWorkbookTestCase(t, "through a range").
		Set("A1", "1").
		Set("A3", "=SUM(A1:A3)").
		AssertCell("A3", formula.ErrorCodeRef)

	NewWorkbookTestCase(t, "across sheets").
		Set("Sheet1!A1", "=Other!A1").
		Set("Other!A1", "=Sheet1!A1").
		AssertCell("A1", formula.ErrorCodeRef).
		AssertCell("Other!A1", formula.ErrorCodeRef)

	NewWorkbookTestCase(t, "untaken branch").
		Set("A1", "=IF(1, 5, A1)").
		AssertCell("A1", formula.Number(5))

	NewWorkbookTestCase(t, "cells outside the cycle").
		Set("A1", "=B1").
		Set("B1", "=A1").
		Set("C1", "=IF(1, 7, A1)").
		Set("D1", "=C1*2").
		AssertCell("D1", formula.Number(14))

	// a range condition reads the #REF! of the closed cycle as false, so the
	// members get real values that depend on where the cycle was entered.
	// every read must agree with a fresh Get of that cell.
	NewWorkbookTestCase(t, "reference order").
		Set("A1", "=IF(B1:B2, 1, 2)").
		Set("B1", "=A1").
		AssertCell("A1", formula.Number(2)).
		AssertCell("B1", formula.Number(2)).
		AssertEval(`=A1&"|"&B1`, formula.Text("2|2")).
		AssertEval(`=B1&"|"&A1`, formula.Text("2|2")).
		AssertEval(`=B1&"|"&A1&"|"&B1`, formula.Text("2|2|2"))

	NewWorkbookTestCase(t, "cycle feeding a plain cell").
		Set("A1", "=IF(B1:B2, 1, 2)").
		Set("B1", "=A1").
		Set("C1", "=B1*10").
		AssertEval(`=C1&"|"&B1&"|"&A1`, formula.Text("20|2|2")).
		AssertEval(`=A1&"|"&C1`, formula.Text("2|20"))
}

func TestCycleReadsStayLinear(t *testing.T) {
	const n = 40
	reads := 0
	w := New(WithCellObserver(func(string, string) { reads++ }))
	for i := 1; i < n; i++ {
		require.NoError(t, w.Set(fmt.Sprintf("A%d", i), fmt.Sprintf("=A%d+A%d", i+1, i+1)))
	}
	require.NoError(t, w.Set(fmt.Sprintf("A%d", n), "=A1"))

	assert.Equal(t, formula.ErrorCodeRef, w.Evaluate("=A1+A1"))
	assert.Less(t, reads, 4*n)
}

func TestSheets(t *testing.T) {
	tc := NewWorkbookTestCase(t, "sheets").
		Set("Data!A1", "5").
		Set("Data!B1", "=A1+1").
		Set("A1", "=Data!A1*2").
		Set("A2", "=DATA!B1").
		Set("A3", "=Missing!A1")
	tc.AssertCell("A1", formula.Number(10)).
		AssertCell("A2", formula.Number(6)).
		AssertCell("A3", formula.ErrorCodeRef).
		AssertCell("Data!B1", formula.Number(6)).
		AssertEval("=SUM(Data!A1:B1)", formula.Number(11)).
		AssertEval("=Data!A1:Sheet1!A1", formula.ErrorCodeRef)

	w := tc.workbook
	assert.Equal(t, []string{"Sheet1", "Data"}, w.Sheets())

	s, ok := w.Sheet("data")
	require.True(t, ok)
	assert.Equal(t, "Data", s.Name())
	assert.Equal(t, 2, s.Len())

	again, err := w.AddSheet("DATA")
	require.NoError(t, err)
	assert.Same(t, s, again)

	_, err = w.Get("Nope!A1")
	assert.ErrorIs(t, err, ErrSheetNotFound)

	require.NoError(t, w.SetDefaultSheet("data"))
	assert.Equal(t, "Data", w.DefaultSheet())
	assert.Equal(t, formula.Number(6), w.Evaluate("=B1"))
	assert.ErrorIs(t, w.SetDefaultSheet("nope"), ErrSheetNotFound)
}

func TestDefaultSheetOption(t *testing.T) {
	w := New(WithDefaultSheet("Main"))
	require.NoError(t, w.Set("A1", "3"))
	assert.Equal(t, []string{"Main"}, w.Sheets())
	assert.Equal(t, formula.Number(3), w.Evaluate("=Main!A1"))
}

func TestInvalidRefs(t *testing.T) {
	w := New()
	tests := []struct {
		ref  string
		want error
	}{
		{"", ErrInvalidAddress},
		{"A0", ErrInvalidAddress},
		{"1A", ErrInvalidAddress},
		{"Sheet1!", ErrInvalidAddress},
		{"!A1", ErrInvalidSheetName},
		{"my sheet!A1", ErrInvalidSheetName},
		{"B2!A1", ErrInvalidSheetName},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.ErrorIs(t, w.Set(tt.ref, "1"), tt.want)
			_, err := w.Get(tt.ref)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := w.AddSheet("")
	assert.ErrorIs(t, err, ErrInvalidSheetName)
}

func TestClearAndSetValue(t *testing.T) {
	w := New()
	require.NoError(t, w.Set("A1", "5"))
	raw, ok := w.Raw("A1")
	assert.True(t, ok)
	assert.Equal(t, "5", raw)

	require.NoError(t, w.Set("A1", ""))
	_, ok = w.Raw("A1")
	assert.False(t, ok)

	require.NoError(t, w.SetValue("B2", formula.Text("12")))
	v, err := w.Get("B2")
	require.NoError(t, err)
	assert.Equal(t, formula.Text("12"), v)

	require.NoError(t, w.SetValue("B2", nil))
	_, ok = w.Raw("B2")
	assert.False(t, ok)

	assert.Error(t, w.SetValue("C3", formula.Grid{{formula.Number(1)}}))
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		raw  string
		want formula.Value
	}{
		{"42", formula.Number(42)},
		{"-1.5e3", formula.Number(-1500)},
		{"FALSE", formula.Boolean(false)},
		{"True", formula.Boolean(true)},
		{"#REF!", formula.ErrorCodeRef},
		{"#NAME?", formula.ErrorCodeName},
		{"abc", formula.Text("abc")},
		{" padded ", formula.Text(" padded ")},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLiteral(tt.raw))
		})
	}
}

func TestRange(t *testing.T) {
	w := New()
	rows, cols, err := w.Range("")
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.Zero(t, cols)

	require.NoError(t, w.Set("C2", "1"))
	require.NoError(t, w.Set("A5", "1"))
	rows, cols, err = w.Range("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, 5, rows)
	assert.Equal(t, 3, cols)

	_, _, err = w.Range("Nope")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestWithFunctions(t *testing.T) {
	functions := formula.DefaultFunctions()
	functions.Register("double", func(args []formula.Value, _ *formula.Context) formula.Value {
		n, e := formula.ToNumber(args[0])
		if e != 0 {
			return e
		}
		return formula.Number(n * 2)
	})

	NewWorkbookTestCase(t, "custom function", WithFunctions(functions)).
		Set("A1", "4").
		Set("A2", "=DOUBLE(A1)").
		AssertCell("A2", formula.Number(8)).
		AssertEval("=DOUBLE(A2)+SUM(1,2)", formula.Number(19))
}

func TestCellObserver(t *testing.T) {
	var reads []string
	w := New(WithCellObserver(func(sheet, address string) {
		reads = append(reads, sheet+"!"+address)
	}))
	require.NoError(t, w.Set("A1", "1"))
	require.NoError(t, w.Set("A2", "=A1+A1"))

	assert.Equal(t, formula.Number(2), w.Evaluate("=A2"))
	assert.Equal(t, []string{"Sheet1!A2", "Sheet1!A1", "Sheet1!A1"}, reads)
}

func TestCycleIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	w := New(WithLogger(logger))
	require.NoError(t, w.Set("A1", "=A1"))

	assert.Equal(t, formula.ErrorCodeRef, w.Evaluate("=A1"))
	assert.Contains(t, buf.String(), "circular reference")
	assert.Contains(t, buf.String(), "cell=A1")
}

func TestConcurrentEvaluation(t *testing.T) {
	w := New()
	for i := 1; i <= 100; i++ {
		require.NoError(t, w.Set(fmt.Sprintf("A%d", i), fmt.Sprint(i)))
	}

	var g errgroup.Group
	var mu sync.Mutex
	results := map[int]formula.Value{}
	for i := 1; i <= 50; i++ {
		g.Go(func() error {
			v := w.Evaluate(fmt.Sprintf("=SUM(A1:A%d)", i))
			if _, isErr := formula.IsError(v); isErr {
				return errors.New(formula.ToText(v))
			}
			mu.Lock()
			results[i] = v
			mu.Unlock()
			return nil
		})
		g.Go(func() error {
			return w.Set(fmt.Sprintf("B%d", i), "=A1")
		})
	}
	require.NoError(t, g.Wait())

	for i := 1; i <= 50; i++ {
		assert.Equal(t, formula.Number(i*(i+1)/2), results[i])
	}
}
