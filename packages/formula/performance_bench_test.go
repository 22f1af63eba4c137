package formula

import (
	"fmt"
	"strings"
	"testing"
)

// benchCells is a fixed lookup: every cell holds its one-based row number
func benchCells() *Context {
	return &Context{Cells: CellLookupFunc(func(sheet, address string) Value {
		addr, ok := ParseAddress(address)
		if !ok {
			return ErrorCodeRef
		}
		return Number(addr.Row + 1)
	})}
}

func BenchmarkTokenize(b *testing.B) {
	formula := `=IF(AVERAGE(A1:A20)>10, SUM(B1:B20), MAX(A1:A20)) & " items" & LEFT("hello", 3)`
	for i := 0; i < b.N; i++ {
		if _, err := Tokenize(formula); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParse(b *testing.B) {
	formula := `=IF(AVERAGE(A1:A20)>10, SUM(B1:B20), MAX(A1:A20)) & " items" & LEFT("hello", 3)`
	for i := 0; i < b.N; i++ {
		if _, err := Parse(formula); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLargeRangeSUM(b *testing.B) {
	ctx := benchCells()
	node, err := Parse("=SUM(A1:A1000)")
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		node.Eval(ctx)
	}
}

func BenchmarkWideRangeSUM(b *testing.B) {
	ctx := benchCells()
	node, err := Parse("=SUM(A1:" + ColumnLabel(701) + "10)")
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		node.Eval(ctx)
	}
}

func BenchmarkComplexNestedFormulas(b *testing.B) {
	ctx := benchCells()
	formulas := []string{
		"=IF(AVERAGE(A1:A20)>10, SUM(B1:B20), MAX(A1:A20))",
		"=ROUND(SQRT(SUM(A1:A20))*PI(), 2)",
		"=IF(A5>100, MEDIAN(A1:A20), MIN(B1:B20))",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, f := range formulas {
			EvaluateFormula(f, ctx)
		}
	}
}

func BenchmarkStringConcatenation(b *testing.B) {
	ctx := benchCells()
	var sb strings.Builder
	sb.WriteString("=")
	for i := 1; i <= 50; i++ {
		if i > 1 {
			sb.WriteString(" & ")
		}
		fmt.Fprintf(&sb, `"x" & A%d`, i)
	}
	formula := sb.String()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		EvaluateFormula(formula, ctx)
	}
}

func BenchmarkDeepNesting(b *testing.B) {
	formula := "=" + strings.Repeat("(1+", 200) + "1" + strings.Repeat(")", 200)
	for i := 0; i < b.N; i++ {
		EvaluateFormula(formula, nil)
	}
}

func BenchmarkColumnLabel(b *testing.B) {
	for i := 0; i < b.N; i++ {
		ColumnLabel(i % 18278)
	}
}
