package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/internal/render"
)

func (a *app) showCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "show [SHEET...]",
		Short: "Print evaluated sheets as tables",
		Long: `Print the used range of each named sheet with every formula evaluated.
Without arguments the default sheet is shown, or every sheet with --all.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sheets := args
			switch {
			case all:
				sheets = a.workbook.Sheets()
			case len(sheets) == 0:
				sheets = []string{a.workbook.DefaultSheet()}
			}

			out := cmd.OutOrStdout()
			for i, name := range sheets {
				table, err := render.Sheet(a.workbook, name)
				if err != nil {
					return err
				}
				if len(sheets) > 1 {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintln(out, render.HeaderStyle.Render(name))
				}
				fmt.Fprintln(out, table)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "show every sheet")
	return cmd
}
