package render

import (
	"math"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vogtb/go-spreadsheet/packages/formula"
)

// Value renders a result without styling. grids become a table.
func Value(v formula.Value) string {
	if g, ok := v.(formula.Grid); ok {
		return Grid(g)
	}
	return formula.ToText(v)
}

// StyledValue renders a scalar colored by kind. grids become a table.
func StyledValue(v formula.Value) string {
	switch t := v.(type) {
	case formula.Number:
		return NumberStyle.Render(formula.ToText(t))
	case formula.Boolean:
		return BooleanStyle.Render(formula.ToText(t))
	case formula.ErrorCode:
		return ErrorStyle.Render(t.String())
	case formula.Grid:
		return Grid(t)
	}
	return formula.ToText(v)
}

// cellStyle pads every cell and right-aligns numbers
func cellStyle(kinds [][]formula.Kind) table.StyleFunc {
	base := lipgloss.NewStyle().Padding(0, 1)
	return func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return HeaderStyle.Padding(0, 1)
		}
		if row < len(kinds) && col < len(kinds[row]) && kinds[row][col] == formula.KindNumber {
			return base.Align(lipgloss.Right)
		}
		return base
	}
}

// Grid renders a range result as a bordered table without headers
func Grid(g formula.Grid) string {
	rows := make([][]string, 0, len(g))
	kinds := make([][]formula.Kind, 0, len(g))
	for _, cells := range g {
		row := make([]string, len(cells))
		rowKinds := make([]formula.Kind, len(cells))
		for i, v := range cells {
			row[i] = StyledValue(v)
			rowKinds[i] = v.Kind()
		}
		rows = append(rows, row)
		kinds = append(kinds, rowKinds)
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(MutedStyle).
		StyleFunc(cellStyle(kinds)).
		Rows(rows...).
		String()
}

// Result is the JSON form of one evaluation
type Result struct {
	Formula string `json:"formula"`
	Kind    string `json:"kind"`
	Value   any    `json:"value"`
	Text    string `json:"text"`
}

func NewResult(source string, v formula.Value) Result {
	return Result{
		Formula: source,
		Kind:    v.Kind().String(),
		Value:   jsonValue(v),
		Text:    formula.ToText(v),
	}
}

// jsonValue maps a value onto types encoding/json can represent. NaN and the
// infinities have no JSON number, they become their text form.
func jsonValue(v formula.Value) any {
	switch t := v.(type) {
	case formula.Number:
		if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
			return formula.ToText(t)
		}
		return float64(t)
	case formula.Text:
		return string(t)
	case formula.Boolean:
		return bool(t)
	case formula.ErrorCode:
		return t.String()
	case formula.Grid:
		rows := make([][]any, len(t))
		for i, cells := range t {
			rows[i] = make([]any, len(cells))
			for j, c := range cells {
				rows[i][j] = jsonValue(c)
			}
		}
		return rows
	}
	return nil
}
