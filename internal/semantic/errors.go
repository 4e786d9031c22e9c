// Package semantic orders BASIC statements, resolves names and jump
// targets, converts expressions to postfix form and drives a Generator.
package semantic

import (
	"fmt"

	"github.com/you-not-fish/basicc/internal/syntax"
)

// SemanticError reports a program that parses but cannot be compiled.
type SemanticError struct {
	Pos syntax.Pos
	Msg string
}

// Error implements the error interface.
func (e *SemanticError) Error() string {
	if !e.Pos.IsValid() {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// bailout unwinds the analyser after the first error.
type bailout struct{}

// errorf records a semantic error at pos and stops analysis.
func (a *Analyser) errorf(pos syntax.Pos, format string, args ...interface{}) {
	a.first = &SemanticError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
	panic(bailout{})
}
