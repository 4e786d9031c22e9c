// Package compiler runs the whole pipeline: parse, analyse, generate.
package compiler

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/you-not-fish/basicc/internal/codegen"
	"github.com/you-not-fish/basicc/internal/log"
	"github.com/you-not-fish/basicc/internal/semantic"
	"github.com/you-not-fish/basicc/internal/syntax"
)

var logger = log.New("pkg", "compiler")

var _ semantic.Generator = (*codegen.Generator)(nil)

// Symbol describes the storage of one variable or array.
type Symbol struct {
	Name string
	Slot int
	Size int
	Dims []int
}

// Result is a successful compilation.
type Result struct {
	Filename   string
	Listing    []byte
	Symbols    []Symbol
	Functions  []string
	Helpers    []string
	Statements int
	Words      int
}

// Lookup returns the symbol named name.
func (r *Result) Lookup(name string) (Symbol, bool) {
	for _, s := range r.Symbols {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}

// Compile compiles the program read from src and writes the listing to w.
// Nothing is written unless compilation succeeds.
func Compile(filename string, src io.Reader, w io.Writer, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := syntax.NewParser(filename, src)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	gen := codegen.NewGenerator(&buf, cfg.codegen(filename))
	a := semantic.NewAnalyser(p, gen, &semantic.Config{Logger: logger.New("file", filename)})
	if err := a.Run(); err != nil {
		return nil, err
	}
	if err := gen.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		Filename:   filename,
		Listing:    buf.Bytes(),
		Helpers:    gen.Helpers(),
		Statements: a.Program().Len(),
		Words:      a.Symbols().Words(),
	}
	for _, s := range a.Symbols().Symbols() {
		res.Symbols = append(res.Symbols, Symbol{Name: s.Name, Slot: s.Slot, Size: s.Size, Dims: s.Dims})
	}
	for _, f := range a.Symbols().Functions() {
		res.Functions = append(res.Functions, f.Name)
	}

	if _, err := w.Write(res.Listing); err != nil {
		return nil, &codegen.GenerationError{Msg: "writing listing", Err: err}
	}
	logger.Info("Compiled program", "file", filename, "statements", res.Statements,
		"words", res.Words, "helpers", len(res.Helpers))
	return res, nil
}

// CompileFile compiles the file in and writes the listing to out. The
// output file is only created once compilation has succeeded.
func CompileFile(in, out string, cfg Config) (*Result, error) {
	f, err := os.Open(in)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	res, err := Compile(in, f, &buf, cfg)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return nil, &codegen.GenerationError{Msg: "creating " + out, Err: err}
	}
	return res, nil
}
