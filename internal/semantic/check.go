package semantic

import (
	"github.com/you-not-fish/basicc/internal/ir"
	"github.com/you-not-fish/basicc/internal/log"
	"github.com/you-not-fish/basicc/internal/syntax"
)

// StatementSource yields parsed statements one at a time. It returns
// (nil, nil) once the input is exhausted.
type StatementSource interface {
	NextStatement() (syntax.Stmt, error)
}

// Generator receives one call per generating statement, in line order.
// Line arguments name the block being emitted; dest, next and loop bounds
// are generation indices already resolved by the analyser.
type Generator interface {
	Header(first int)
	Assign(line, slot int, value ir.Postfix, next int)
	Bindings(line int, binds []ir.Binding, next int)
	Goto(line, dest int)
	If(line int, left ir.Postfix, rel syntax.Relation, right ir.Postfix, dest, next int)
	For(loop ir.Loop)
	Next(line, forLine int)
	Def(fn ir.Function)
	Gosub(line, dest, next int)
	Return(line int)
	End(line int)
	Variables(bytes int)
}

// Config configures an Analyser.
type Config struct {
	Logger log.Logger // defaults to the root logger
}

// Analyser checks a whole program and hands it to a Generator.
type Analyser struct {
	src  StatementSource
	gen  Generator
	log  log.Logger
	prog Program
	syms *SymbolTable

	reads []pendingRead
	data  []*syntax.Number
	loops []*syntax.ForStmt
	scope map[string]string // DEF parameter renames while a body is converted

	first error
}

type pendingRead struct {
	bind ir.Binding
	pos  syntax.Pos
}

// NewAnalyser returns an analyser reading from src and emitting to gen.
func NewAnalyser(src StatementSource, gen Generator, conf *Config) *Analyser {
	a := &Analyser{
		src:  src,
		gen:  gen,
		syms: NewSymbolTable(),
	}
	if conf != nil && conf.Logger != nil {
		a.log = conf.Logger
	} else {
		a.log = log.Root()
	}
	return a
}

// Symbols returns the symbol table. It is complete once Run returns.
func (a *Analyser) Symbols() *SymbolTable { return a.syms }

// Program returns the ordered statement set.
func (a *Analyser) Program() *Program { return &a.prog }

// Run reads every statement, checks the program and drives the generator.
// It stops at the first lexical, syntax or semantic error.
func (a *Analyser) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			err = a.first
		}
	}()

	if err := a.collect(); err != nil {
		return err
	}
	a.checkEnd()

	first, _ := a.prog.NextGenIndex(-1)
	a.gen.Header(first)
	for _, s := range a.prog.Stmts() {
		a.stmt(s)
	}
	a.gen.Variables(a.syms.TotalBytes())

	a.log.Debug("Analysed program", "statements", a.prog.Len(),
		"symbols", len(a.syms.syms), "words", a.syms.Words())
	return nil
}

func (a *Analyser) collect() error {
	for {
		s, err := a.src.NextStatement()
		if err != nil {
			return err
		}
		if s == nil {
			return nil
		}
		if err := a.prog.Insert(s); err != nil {
			return err
		}
	}
}

// checkEnd requires exactly one END, as the highest-numbered statement.
func (a *Analyser) checkEnd() {
	n := a.prog.Len()
	if n == 0 {
		a.errorf(syntax.Pos{}, "empty program, missing END")
	}
	for i := 0; i < n-1; i++ {
		if _, ok := a.prog.At(i).(*syntax.EndStmt); ok {
			next := a.prog.At(i + 1)
			a.errorf(next.Pos(), "line %d follows END at line %d", next.Line(), a.prog.At(i).Line())
		}
	}
	last := a.prog.At(n - 1)
	if _, ok := last.(*syntax.EndStmt); !ok {
		a.errorf(last.Pos(), "program must finish with END, last line is %d", last.Line())
	}
}

// next returns the generation index control falls through to after s.
func (a *Analyser) next(s syntax.Stmt) int {
	line, ok := a.prog.NextGenIndex(s.Line())
	if !ok {
		a.errorf(s.Pos(), "no statement follows line %d", s.Line())
	}
	return line
}

// target resolves a jump destination written at pos.
func (a *Analyser) target(pos syntax.Pos, dest int) int {
	if _, found := a.prog.Find(dest); !found {
		a.errorf(pos, "destination line %d does not exist", dest)
	}
	line, ok := a.prog.Target(dest)
	if !ok {
		a.errorf(pos, "no statement at or after line %d generates code", dest)
	}
	return line
}
