package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/internal/config"
	"github.com/vogtb/go-spreadsheet/internal/render"
	"github.com/vogtb/go-spreadsheet/internal/telemetry"
	"github.com/vogtb/go-spreadsheet/internal/workbook"
	"github.com/vogtb/go-spreadsheet/packages/formula"
)

// app is the state shared by every command, built once flags are parsed
type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
	workbook   *workbook.Workbook
	inst       *telemetry.Instruments
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "formula",
		Short: "Evaluate spreadsheet formulas",
		Long: `formula parses and evaluates spreadsheet formulas such as =SUM(A1:B3)*2,
optionally against a workbook file (yaml, toml or csv).

Examples:
  formula eval '=1+2*3'                   # evaluate a formula
  formula eval -w book.yaml '=SUM(A1:A3)' # evaluate against a workbook
  formula batch formulas.txt              # evaluate one formula per line
  formula show -w book.yaml               # print the evaluated sheet
  formula ast '=IF(A1>0, "pos", "neg")'   # print the parse tree
  formula repl                            # interactive session`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default formula.yaml in . or ~/.config/formula)")
	flags.StringP("workbook", "w", "", "workbook file to evaluate against (.yaml, .yml, .toml, .csv)")
	flags.String("sheet", config.DefaultSheet, "sheet for references without a sheet name")
	flags.String("encoding", "utf-8", "source encoding of csv workbooks")
	flags.String("color", config.ColorAuto, "color output: auto, always or never")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.BoolP("verbose", "v", false, "debug logging")

	root.AddCommand(
		a.evalCmd(),
		a.batchCmd(),
		a.showCmd(),
		a.tokensCmd(),
		a.astCmd(),
		a.columnCmd(),
		a.replCmd(),
	)
	return root
}

// setup loads config, then builds the logger, telemetry and workbook
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))
	if cfg.File != "" {
		a.logger.Debug("config loaded", "file", cfg.File)
	}

	render.Setup(cfg.Color, cmd.OutOrStdout())

	if err := telemetry.Init(cmd.Context(), telemetry.Options{
		Enabled:     cfg.Telemetry.Enabled,
		Stdout:      cfg.Telemetry.Stdout,
		Writer:      cmd.ErrOrStderr(),
		ServiceName: "formula",
		Version:     version,
	}); err != nil {
		return err
	}
	a.inst = telemetry.NewInstruments(nil, nil)

	opts := []workbook.Option{
		workbook.WithLogger(a.logger),
		workbook.WithDefaultSheet(cfg.Sheet),
		workbook.WithCellObserver(a.inst.CellObserver()),
	}
	if cfg.Workbook == "" {
		a.workbook = workbook.New(opts...)
		return nil
	}
	a.workbook, err = workbook.Load(cfg.Workbook, cfg.Encoding, opts...)
	return err
}

// evaluate runs one formula against the workbook inside a telemetry span
func (a *app) evaluate(ctx context.Context, source string) formula.Value {
	eval := a.inst.StartEvaluation(ctx, source)
	v := a.workbook.Evaluate(source)
	eval.End(v)
	a.logger.Debug("evaluated", "formula", source, "kind", v.Kind().String())
	return v
}

// close flushes telemetry. it is safe to call when setup never ran.
func (a *app) close() {
	if !telemetry.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := telemetry.Shutdown(ctx); err != nil && a.logger != nil {
		a.logger.Warn("telemetry shutdown", "err", err)
	}
}
