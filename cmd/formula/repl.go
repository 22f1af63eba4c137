package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/vogtb/go-spreadsheet/internal/render"
)

const historyFile = ".formula_history"

const replHelp = `Enter a formula to evaluate it, the leading '=' is optional.
  :set REF VALUE   store a value or =formula, e.g. :set A1 =B1*2
  :get REF         show what a cell holds and its value
  :sheet NAME      switch the default sheet, creating it if needed
  :sheets          list sheets
  :show            print the current sheet
  :help            this text
  :quit            leave`

// replSession handles one line at a time so the loop can be driven without
// a terminal
type replSession struct {
	app *app
	cmd *cobra.Command
	out io.Writer
}

func (s *replSession) prompt() string {
	return s.app.workbook.DefaultSheet() + "> "
}

// handle runs one line of input and reports whether the session is over
func (s *replSession) handle(line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ":") {
		v := s.app.evaluate(s.cmd.Context(), line)
		fmt.Fprintln(s.out, render.StyledValue(v))
		return false
	}

	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":quit", ":q", ":exit":
		return true
	case ":help", ":h":
		fmt.Fprintln(s.out, replHelp)
	case ":sheets":
		fmt.Fprintln(s.out, strings.Join(s.app.workbook.Sheets(), "\n"))
	case ":show":
		table, err := render.Sheet(s.app.workbook, "")
		s.print(table, err)
	case ":sheet":
		if len(fields) != 2 {
			s.fail("usage: :sheet NAME")
			break
		}
		if _, err := s.app.workbook.AddSheet(fields[1]); err != nil {
			s.fail(err.Error())
			break
		}
		if err := s.app.workbook.SetDefaultSheet(fields[1]); err != nil {
			s.fail(err.Error())
		}
	case ":set":
		// the value may contain spaces
		rest := strings.TrimSpace(line[len(fields[0]):])
		ref, raw, ok := strings.Cut(rest, " ")
		if !ok {
			s.fail("usage: :set REF VALUE")
			break
		}
		raw = strings.TrimSpace(raw)
		if err := s.app.workbook.Set(ref, raw); err != nil {
			s.fail(err.Error())
			break
		}
		v, err := s.app.workbook.Get(ref)
		s.print(render.StyledValue(v), err)
	case ":get":
		if len(fields) != 2 {
			s.fail("usage: :get REF")
			break
		}
		v, err := s.app.workbook.Get(fields[1])
		if err != nil {
			s.fail(err.Error())
			break
		}
		if raw, ok := s.app.workbook.Raw(fields[1]); ok && strings.HasPrefix(raw, "=") {
			fmt.Fprintln(s.out, render.MutedStyle.Render(raw))
		}
		fmt.Fprintln(s.out, render.StyledValue(v))
	default:
		s.fail(fmt.Sprintf("unknown command %s, type :help", fields[0]))
	}
	return false
}

func (s *replSession) print(text string, err error) {
	if err != nil {
		s.fail(err.Error())
		return
	}
	fmt.Fprintln(s.out, text)
}

func (s *replSession) fail(msg string) {
	fmt.Fprintln(s.out, render.ErrorStyle.Render(msg))
}

func (a *app) replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Evaluate formulas interactively",
		Long:  "Start an interactive session against the workbook.\n\n" + replHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session := &replSession{app: a, cmd: cmd, out: cmd.OutOrStdout()}

			ln := liner.NewLiner()
			defer ln.Close()
			ln.SetCtrlCAborts(true)

			var histPath string
			if home, err := os.UserHomeDir(); err == nil {
				histPath = filepath.Join(home, historyFile)
				if f, err := os.Open(histPath); err == nil {
					_, _ = ln.ReadHistory(f)
					_ = f.Close()
				}
			}
			defer func() {
				if histPath == "" {
					return
				}
				if f, err := os.Create(histPath); err == nil {
					_, _ = ln.WriteHistory(f)
					_ = f.Close()
				}
			}()

			for {
				line, err := ln.Prompt(session.prompt())
				if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
					fmt.Fprintln(session.out)
					return nil
				}
				if err != nil {
					return err
				}
				if strings.TrimSpace(line) != "" {
					ln.AppendHistory(line)
				}
				if session.handle(line) {
					return nil
				}
			}
		},
	}
}
