// Package main provides the formula CLI for evaluating spreadsheet formulas
// against workbook files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/vogtb/go-spreadsheet/internal/render"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// errReported means the command already printed its own diagnostic
var errReported = errors.New("error reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	a.close()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(stderr, render.ErrorStyle.Render("Error: "+err.Error()))
		}
		return 1
	}
	return 0
}
