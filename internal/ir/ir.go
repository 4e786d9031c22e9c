// Package ir holds the postfix form handed from semantic analysis to code
// generation: flat operand/operator sequences and the per-statement
// records built from them.
package ir

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/basicc/internal/syntax"
)

// Op is the kind of a postfix element.
type Op int

const (
	OpInvalid Op = iota

	OpConst       // push constant; Value
	OpLoad        // push scalar word at Slot
	OpLoadIndexed // pop element index, push word at Slot+index
	OpCall        // call user function Name; args already pushed
	OpBuiltin     // call runtime helper for predefined function Name
	OpBinary      // pop right, pop left, push left Arith right
)

var opNames = [...]string{
	OpInvalid:     "Invalid",
	OpConst:       "Const",
	OpLoad:        "Load",
	OpLoadIndexed: "LoadIndexed",
	OpCall:        "Call",
	OpBuiltin:     "Builtin",
	OpBinary:      "Binary",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Elem is one element of a postfix sequence.
type Elem struct {
	Op    Op
	Value int32           // OpConst
	Slot  int             // OpLoad, OpLoadIndexed: 1-based word slot
	Name  string          // variable, function, or builtin name
	Arith syntax.Operator // OpBinary
	Arity int             // OpCall, OpBuiltin
}

// Const returns a constant element.
func Const(v int32) Elem { return Elem{Op: OpConst, Value: v} }

// Binary returns an operator element.
func Binary(op syntax.Operator) Elem { return Elem{Op: OpBinary, Arith: op} }

// String renders the element the way it reads in a postfix listing.
func (e Elem) String() string {
	switch e.Op {
	case OpConst:
		return fmt.Sprint(e.Value)
	case OpLoad:
		return e.Name
	case OpLoadIndexed:
		return e.Name + "[]"
	case OpCall:
		return fmt.Sprintf("FN%s/%d", e.Name, e.Arity)
	case OpBuiltin:
		return fmt.Sprintf("%s/%d", e.Name, e.Arity)
	case OpBinary:
		return e.Arith.String()
	}
	return e.Op.String()
}

// Postfix is an operand/operator sequence in reverse Polish order.
// Evaluating it on an empty stack leaves exactly one value.
type Postfix []Elem

func (p Postfix) String() string {
	parts := make([]string, len(p))
	for i, e := range p {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

// Binding is one READ target paired with one DATA value.
type Binding struct {
	Name  string
	Slot  int
	Index Postfix // element offset for array targets; nil for scalars
	Value int32
}

// Loop describes a FOR/NEXT pair once both ends are known.
type Loop struct {
	Line    int // FOR line index
	Slot    int // iterator slot
	Init    Postfix
	Limit   Postfix
	Step    Postfix
	Inside  int // generation index of the first statement of the body
	Outside int // generation index following NEXT
}

// Function is a compiled DEF FN body.
type Function struct {
	Name   string
	Label  string
	Params []int // parameter slots in declaration order
	Body   Postfix
}
