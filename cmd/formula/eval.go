package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/internal/render"
	"github.com/vogtb/go-spreadsheet/packages/formula"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON:
		return nil
	}
	return fmt.Errorf("unknown format %q, want text or json", format)
}

// strictError is returned when --strict is set and a result is an error value
type strictError struct {
	count int
}

func (e *strictError) Error() string {
	if e.count == 1 {
		return "1 formula evaluated to an error"
	}
	return fmt.Sprintf("%d formulas evaluated to an error", e.count)
}

func (a *app) evalCmd() *cobra.Command {
	var format string
	var strict bool

	cmd := &cobra.Command{
		Use:   "eval FORMULA...",
		Short: "Evaluate formulas",
		Long: `Evaluate each formula and print its result. The leading '=' is optional.
Unqualified references like A1 read the default sheet of the workbook.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)

			failed := 0
			for _, source := range args {
				v := a.evaluate(cmd.Context(), source)
				if _, isErr := formula.IsError(v); isErr {
					failed++
				}
				if err := writeResult(out, enc, format, source, v); err != nil {
					return err
				}
			}
			if strict && failed > 0 {
				return &strictError{count: failed}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text or json")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when a result is an error value")
	return cmd
}

func writeResult(out io.Writer, enc *json.Encoder, format, source string, v formula.Value) error {
	if format == formatJSON {
		return enc.Encode(render.NewResult(source, v))
	}
	_, err := fmt.Fprintln(out, render.StyledValue(v))
	return err
}
