package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/internal/render"
	"github.com/vogtb/go-spreadsheet/packages/formula"
)

// reportSyntaxError prints a caret diagnostic for lexer and parser errors.
// anything else is returned unchanged.
func reportSyntaxError(w io.Writer, source string, err error) error {
	var lexErr *formula.LexError
	var parseErr *formula.ParseError
	switch {
	case errors.As(err, &lexErr):
		fmt.Fprintln(w, render.Caret(source, lexErr.Pos, lexErr.Msg))
	case errors.As(err, &parseErr):
		fmt.Fprintln(w, render.Caret(source, parseErr.Pos, parseErr.Msg))
	default:
		return err
	}
	return errReported
}

func (a *app) tokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens FORMULA",
		Short: "Print the tokens of a formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := formula.Tokenize(args[0])
			if err != nil {
				return reportSyntaxError(cmd.ErrOrStderr(), args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Tokens(tokens))
			return nil
		},
	}
}

func (a *app) astCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ast FORMULA",
		Short: "Print the parse tree of a formula",
		Long: `Print the parse tree of a formula, preceded by the formula with every
operation parenthesized to show precedence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := formula.Parse(args[0])
			if err != nil {
				return reportSyntaxError(cmd.ErrOrStderr(), args[0], err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, render.MutedStyle.Render(node.String()))
			fmt.Fprintln(out, render.Tree(node))
			return nil
		},
	}
}

func (a *app) columnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "column INDEX|LABEL...",
		Short: "Convert between column indexes and letters",
		Long: `Convert zero-based column indexes to letter labels and back:
0 is A, 25 is Z, 26 is AA.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, arg := range args {
				if index, err := strconv.Atoi(arg); err == nil {
					if index < 0 {
						return fmt.Errorf("column index %d is negative", index)
					}
					fmt.Fprintln(out, formula.ColumnLabel(index))
					continue
				}
				index, ok := formula.ParseColumnLabel(arg)
				if !ok {
					return fmt.Errorf("%q is neither a column index nor a column label", arg)
				}
				fmt.Fprintln(out, index)
			}
			return nil
		},
	}
}
