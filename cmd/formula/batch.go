package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vogtb/go-spreadsheet/internal/render"
	"github.com/vogtb/go-spreadsheet/packages/formula"
)

// readFormulas returns the non-blank lines of r that are not # comments
func readFormulas(r io.Reader) ([]string, error) {
	var formulas []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		formulas = append(formulas, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read formulas: %w", err)
	}
	return formulas, nil
}

func (a *app) batchCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "batch FILE|-",
		Short: "Evaluate one formula per line",
		Long: `Evaluate every formula in FILE, or standard input for "-", concurrently.
Blank lines and lines starting with # are skipped. Results are printed in
input order as "formula<TAB>result", or as JSON lines with --format json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			formulas, err := readFormulas(in)
			if err != nil {
				return err
			}

			results := make([]formula.Value, len(formulas))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(a.cfg.Jobs)
			for i, source := range formulas {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					results[i] = a.evaluate(ctx, source)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			a.logger.Debug("batch evaluated", "formulas", len(formulas), "jobs", a.cfg.Jobs)

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			for i, source := range formulas {
				if format == formatJSON {
					if err := enc.Encode(render.NewResult(source, results[i])); err != nil {
						return err
					}
					continue
				}
				if _, err := fmt.Fprintf(out, "%s\t%s\n", source, formula.ToText(results[i])); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text or json")
	cmd.Flags().IntP("jobs", "j", 4, "formulas evaluated at once")
	return cmd
}
