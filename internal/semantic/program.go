package semantic

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/you-not-fish/basicc/internal/syntax"
)

// Program is the set of statements ordered by line index.
type Program struct {
	stmts []syntax.Stmt
}

func cmpLine(s syntax.Stmt, line int) int {
	return s.Line() - line
}

// Insert adds s in line order. A line index already present is rejected
// and the set is left unchanged.
func (p *Program) Insert(s syntax.Stmt) error {
	i, found := slices.BinarySearchFunc(p.stmts, s.Line(), cmpLine)
	if found {
		return &SemanticError{
			Pos: s.Pos(),
			Msg: fmt.Sprintf("duplicate line number %d (previous at %s)", s.Line(), p.stmts[i].Pos()),
		}
	}
	p.stmts = slices.Insert(p.stmts, i, s)
	return nil
}

// Len returns the number of statements.
func (p *Program) Len() int { return len(p.stmts) }

// At returns the i'th statement in line order.
func (p *Program) At(i int) syntax.Stmt { return p.stmts[i] }

// Stmts returns the statements in line order. The slice must not be modified.
func (p *Program) Stmts() []syntax.Stmt { return p.stmts }

// Find returns the position of the statement with the given line index.
func (p *Program) Find(line int) (int, bool) {
	return slices.BinarySearchFunc(p.stmts, line, cmpLine)
}

// generates reports, for each statement in order, whether it opens a
// labelled block of code.
//
// PRINT, DIM, DEF and REM never do. A READ only does once a DATA has
// appeared earlier in the program, and a DATA only once a READ has, since
// READ/DATA pairs are generated at whichever of the two comes second.
func (p *Program) generates() []bool {
	gen := make([]bool, len(p.stmts))
	var read, data bool
	for i, s := range p.stmts {
		switch s.(type) {
		case *syntax.PrintStmt, *syntax.DimStmt, *syntax.DefStmt, *syntax.RemStmt:
			continue
		case *syntax.ReadStmt:
			read = true
			if !data {
				continue
			}
		case *syntax.DataStmt:
			data = true
			if !read {
				continue
			}
		}
		gen[i] = true
	}
	return gen
}

// NextGenIndex returns the line index of the first generating statement
// after the one at line. With after < 0 it returns the first generating
// statement of the program.
func (p *Program) NextGenIndex(after int) (int, bool) {
	for i, ok := range p.generates() {
		if ok && (after < 0 || p.stmts[i].Line() > after) {
			return p.stmts[i].Line(), true
		}
	}
	return 0, false
}

// IsGenIndex reports whether the statement at line opens a block of code.
func (p *Program) IsGenIndex(line int) bool {
	i, found := p.Find(line)
	return found && p.generates()[i]
}

// Target resolves a GOTO, GOSUB or IF destination to the label control
// actually reaches: the first generating statement at or after dest.
func (p *Program) Target(dest int) (int, bool) {
	i, found := p.Find(dest)
	if !found {
		return 0, false
	}
	if i == 0 {
		return p.NextGenIndex(-1)
	}
	return p.NextGenIndex(p.stmts[i-1].Line())
}
