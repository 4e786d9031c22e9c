package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/you-not-fish/basicc/internal/compiler"
)

var maxStepsFlag = &cli.IntFlag{
	Name:  "max-steps",
	Usage: "stop the simulation after `N` instructions (0 = unbounded)",
}

var runCommand = &cli.Command{
	Action:    runProgram,
	Name:      "run",
	Usage:     "Compile a program and execute it on the simulator",
	ArgsUsage: "<file.bas>",
	Flags:     []cli.Flag{maxStepsFlag},
	Description: `
The run command compiles the program in memory, assembles the listing and
executes it until END. The final value of every variable is printed.`,
}

func runProgram(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("usage: basicc run <file.bas>")
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	if ctx.IsSet(maxStepsFlag.Name) {
		cfg.Compiler.MaxSteps = ctx.Int(maxStepsFlag.Name)
	}

	filename := ctx.Args().First()
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer f.Close()

	var listing bytes.Buffer
	res, err := compiler.Compile(filename, f, &listing, cfg.Compiler)
	if err != nil {
		return err
	}
	ex, err := compiler.Execute(res, cfg.Compiler)
	if err != nil {
		return err
	}
	printExecution(os.Stdout, res, ex)
	return nil
}

func printExecution(w io.Writer, res *compiler.Result, ex *compiler.Execution) {
	table := newTable(w, "NAME", "VALUE")
	for _, s := range res.Symbols {
		vals := ex.Values[s.Name]
		if s.Dims == nil {
			table.Append([]string{s.Name, fmt.Sprint(vals[0])})
			continue
		}
		table.Append([]string{s.Name, strings.Trim(fmt.Sprint(vals), "[]")})
	}
	table.Render()
	fmt.Fprintf(w, "steps: %d\n", ex.Steps)
}
