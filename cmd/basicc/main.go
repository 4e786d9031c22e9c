// Command basicc compiles BASIC programs to assembly listings.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/you-not-fish/basicc/internal/codegen"
	"github.com/you-not-fish/basicc/internal/compiler"
	"github.com/you-not-fish/basicc/internal/semantic"
	"github.com/you-not-fish/basicc/internal/syntax"
)

// Version information
const Version = "0.1.0-dev"

// Compiler flags
var (
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "write the listing to `FILE`",
		Value:   "out.s",
	}
	emitCharsFlag = &cli.BoolFlag{
		Name:  "emit-chars",
		Usage: "print the classified character stream and exit",
	}
	emitTokensFlag = &cli.BoolFlag{
		Name:  "emit-tokens",
		Usage: "print the token stream and exit",
	}
	emitASTFlag = &cli.BoolFlag{
		Name:  "emit-ast",
		Usage: "print the syntax tree and exit",
	}
	astFormatFlag = &cli.StringFlag{
		Name:  "ast-format",
		Usage: "syntax tree format (text, json or raw)",
		Value: "text",
	}
	emitSymbolsFlag = &cli.BoolFlag{
		Name:  "emit-symbols",
		Usage: "print the symbol table after compiling",
	}
)

// Global flags, also honoured by subcommands.
var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration `FILE`",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "log level: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value: 2,
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log-file",
		Usage: "also write logs to `FILE` (rotated)",
	}
	noColorFlag = &cli.BoolFlag{
		Name:  "nocolor",
		Usage: "disable coloured output",
	}
)

var globalFlags = []cli.Flag{
	configFileFlag,
	verbosityFlag,
	logFileFlag,
	noColorFlag,
}

// useColor is decided once per invocation, before any action runs.
var useColor bool

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "basicc"
	app.Usage = "the BASIC compiler"
	app.Version = fmt.Sprintf("%s (%s)", Version, runtime.Version())
	app.ArgsUsage = "<file.bas>"
	app.HideHelpCommand = true
	app.Flags = append([]cli.Flag{
		outputFlag,
		emitCharsFlag,
		emitTokensFlag,
		emitASTFlag,
		astFormatFlag,
		emitSymbolsFlag,
	}, globalFlags...)
	app.Commands = []*cli.Command{
		runCommand,
		dumpConfigCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		useColor = !ctx.Bool(noColorFlag.Name) && isatty.IsTerminal(os.Stderr.Fd())
		return nil
	}
	app.Action = compileAction
	return app
}

func main() {
	os.Exit(run(os.Args))
}

// run executes the command line and returns the process exit status.
func run(args []string) int {
	if err := newApp().Run(args); err != nil {
		report(stderr(), err)
		return 1
	}
	return 0
}

func compileAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("usage: basicc [options] <file.bas>")
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	filename := ctx.Args().First()

	switch {
	case ctx.Bool(emitCharsFlag.Name):
		return dumpChars(os.Stdout, filename)
	case ctx.Bool(emitTokensFlag.Name):
		return dumpTokens(os.Stdout, filename)
	case ctx.Bool(emitASTFlag.Name):
		return dumpAST(os.Stdout, filename, ctx.String(astFormatFlag.Name))
	}

	res, err := compiler.CompileFile(filename, ctx.String(outputFlag.Name), cfg.Compiler)
	if err != nil {
		return err
	}
	if ctx.Bool(emitSymbolsFlag.Name) {
		dumpSymbols(os.Stdout, res)
	}
	return nil
}

func stderr() io.Writer {
	if useColor {
		return colorable.NewColorableStderr()
	}
	return os.Stderr
}

var (
	lexicalColor    = color.New(color.FgMagenta, color.Bold)
	syntaxColor     = color.New(color.FgRed, color.Bold)
	semanticColor   = color.New(color.FgYellow, color.Bold)
	generationColor = color.New(color.FgCyan, color.Bold)
	plainColor      = color.New(color.FgRed)
)

// report prints err prefixed by the compilation stage that produced it.
func report(w io.Writer, err error) {
	var (
		lexErr *syntax.LexicalError
		synErr *syntax.SyntaxError
		semErr *semantic.SemanticError
		genErr *codegen.GenerationError
	)
	kind, c := "error", plainColor
	switch {
	case errors.As(err, &lexErr):
		kind, c = "lexical error", lexicalColor
	case errors.As(err, &synErr):
		kind, c = "syntax error", syntaxColor
	case errors.As(err, &semErr):
		kind, c = "semantic error", semanticColor
	case errors.As(err, &genErr):
		kind, c = "generation error", generationColor
	}
	if useColor {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	fmt.Fprintf(w, "%s: %v\n", c.Sprint(kind), err)
}
