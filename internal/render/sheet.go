package render

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vogtb/go-spreadsheet/internal/workbook"
	"github.com/vogtb/go-spreadsheet/packages/formula"
)

// Sheet renders the evaluated used range of a sheet with column letters
// across the top and row numbers down the side. an empty name is the
// default sheet.
func Sheet(w *workbook.Workbook, name string) (string, error) {
	if name == "" {
		name = w.DefaultSheet()
	}
	rows, cols, err := w.Range(name)
	if err != nil {
		return "", err
	}
	if rows == 0 {
		return MutedStyle.Render(name + " is empty"), nil
	}

	headers := make([]string, cols+1)
	for c := range cols {
		headers[c+1] = formula.ColumnLabel(c)
	}

	// one lookup for the whole sheet so shared dependencies evaluate once
	lookup := w.Lookup()
	data := make([][]string, rows)
	kinds := make([][]formula.Kind, rows)
	for r := range rows {
		data[r] = make([]string, cols+1)
		kinds[r] = make([]formula.Kind, cols+1)
		data[r][0] = MutedStyle.Render(strconv.Itoa(r + 1))
		kinds[r][0] = formula.KindText
		for c := range cols {
			addr := formula.Address{Row: r, Column: c}.String()
			if _, ok := w.Raw(name + "!" + addr); !ok {
				kinds[r][c+1] = formula.KindText
				continue
			}
			v := lookup.GetCell(name, addr)
			data[r][c+1] = StyledValue(v)
			kinds[r][c+1] = v.Kind()
		}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(MutedStyle).
		StyleFunc(cellStyle(kinds)).
		Headers(headers...).
		Rows(data...).
		String(), nil
}
