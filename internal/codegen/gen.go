// Package codegen emits the assembly listing for an analysed BASIC program.
//
// Register conventions:
//
//	r12  base of the variable area; slot n lives at [r12, #4*n]
//	r11  return-address stack (full descending, exe_stack)
//	sp   expression stack (full descending, exp_stack)
//	r0   result of an expression, helper or user function
//	r1-r5 scratch
//
// Every generated block starts with a label and ends in a branch, so the
// order of blocks in the listing does not affect control flow.
package codegen

import (
	"io"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/you-not-fish/basicc/internal/ir"
	"github.com/you-not-fish/basicc/internal/rtabi"
	"github.com/you-not-fish/basicc/internal/syntax"
)

// DefaultStackSize is the size in bytes of each auxiliary stack.
const DefaultStackSize = 256

// Config configures a Generator.
type Config struct {
	// StackSize is the size in bytes of exe_stack and exp_stack.
	StackSize int
	// PowZeroExponentOne makes x^0 evaluate to 1 instead of 0.
	PowZeroExponentOne bool
	// InclusiveFor runs FOR loops up to and including the limit, counting
	// down for a negative step. By default a loop exits as soon as the
	// iterator reaches the limit.
	InclusiveFor bool
	// Source names the input file in the listing header.
	Source string
}

// Generator writes assembly for one program. Methods are called in the
// order the analyser visits statements; Variables finishes the listing.
type Generator struct {
	e       emitter
	conf    Config
	helpers mapset.Set[string] // runtime helpers referenced so far
}

// NewGenerator returns a generator writing to w.
func NewGenerator(w io.Writer, conf Config) *Generator {
	if conf.StackSize <= 0 {
		conf.StackSize = DefaultStackSize
	}
	return &Generator{
		e:       emitter{w: w},
		conf:    conf,
		helpers: mapset.NewThreadUnsafeSet[string](),
	}
}

// Err returns the first write error, if any.
func (g *Generator) Err() error {
	if g.e.err == nil {
		return nil
	}
	return &GenerationError{Msg: "writing listing", Err: g.e.err}
}

// Helpers returns the runtime helpers the listing uses, in emission order.
func (g *Generator) Helpers() []string {
	var used []string
	for _, h := range runtimeHelpers {
		if g.helpers.Contains(h.name) {
			used = append(used, h.name)
		}
	}
	return used
}

// Header emits the entry point: register setup and a jump to the first
// generating statement.
func (g *Generator) Header(first int) {
	g.e.emitComment("BASIC COMPILER")
	if g.conf.Source != "" {
		g.e.emitComment("source: " + g.conf.Source)
	}
	g.e.emitInst(".global", rtabi.LabelEntry)
	g.e.emitLabel(rtabi.LabelEntry)
	g.e.emitInst("LDR", "%s, =%s", rtabi.RegVariables, rtabi.LabelVariables)
	g.e.emitInst("LDR", "%s, =%s", rtabi.RegExeStack, rtabi.LabelExeStack)
	g.e.emitInst("LDR", "%s, =%s", rtabi.RegExpStack, rtabi.LabelExpStack)
	g.e.emitInst("B", "%s", lineLabel(first))
}

// Expression emits code evaluating p on the expression stack and leaves
// the result in r0.
func (g *Generator) Expression(p ir.Postfix) {
	for _, el := range p {
		switch el.Op {
		case ir.OpConst:
			g.e.emitInst("MOV", "r1, #%d", el.Value)
			g.push("r1")
		case ir.OpLoad:
			g.e.emitInst("LDR", "r1, [r12, #%d]", slotOffset(el.Slot))
			g.push("r1")
		case ir.OpLoadIndexed:
			g.pop("r1")
			g.e.emitInst("MOV", "r1, r1, LSL #2")
			g.e.emitInst("ADD", "r1, r1, #%d", slotOffset(el.Slot))
			g.e.emitInst("LDR", "r1, [r12, r1]")
			g.push("r1")
		case ir.OpCall:
			g.call(rtabi.FnUserPrefix + el.Name)
			g.push("r0")
		case ir.OpBuiltin:
			name := strings.ToLower(el.Name)
			g.helpers.Add(name)
			g.call(name)
			g.push("r0")
		case ir.OpBinary:
			g.pop("r2")
			g.pop("r1")
			g.arith(el.Arith)
			g.push("r0")
		}
	}
	g.pop("r0")
}

func (g *Generator) arith(op syntax.Operator) {
	switch op {
	case syntax.OpAdd:
		g.e.emitInst("ADD", "r0, r1, r2")
	case syntax.OpSub:
		g.e.emitInst("SUB", "r0, r1, r2")
	case syntax.OpMul:
		g.e.emitInst("MUL", "r0, r1, r2")
	case syntax.OpDiv:
		g.helpers.Add(rtabi.FnSdiv)
		g.call(rtabi.FnSdiv)
	case syntax.OpPow:
		g.helpers.Add(rtabi.FnPow)
		g.call(rtabi.FnPow)
	}
}

func (g *Generator) push(reg string) { g.e.emitInst("STMFD", "sp!, {%s}", reg) }
func (g *Generator) pop(reg string)  { g.e.emitInst("LDMFD", "sp!, {%s}", reg) }

// call branches with link to label, preserving lr on the return stack.
func (g *Generator) call(label string) {
	g.e.emitInst("STMFD", "r11!, {lr}")
	g.e.emitInst("BL", "%s", label)
	g.e.emitInst("LDMFD", "r11!, {lr}")
}

func (g *Generator) branch(line int) { g.e.emitInst("B", "%s", lineLabel(line)) }

// Assign emits LET.
func (g *Generator) Assign(line, slot int, value ir.Postfix, next int) {
	g.e.emitLabel(lineLabel(line))
	g.Expression(value)
	g.e.emitInst("STR", "r0, [r12, #%d]", slotOffset(slot))
	g.branch(next)
}

// Bindings emits the READ/DATA pairs completed at line.
func (g *Generator) Bindings(line int, binds []ir.Binding, next int) {
	g.e.emitLabel(lineLabel(line))
	for _, b := range binds {
		if b.Index != nil {
			g.Expression(b.Index)
			g.e.emitInst("MOV", "r1, r0, LSL #2")
			g.e.emitInst("ADD", "r1, r1, #%d", slotOffset(b.Slot))
			g.e.emitInst("MOV", "r0, #%d", b.Value)
			g.e.emitInst("STR", "r0, [r12, r1]")
			continue
		}
		g.e.emitInst("MOV", "r0, #%d", b.Value)
		g.e.emitInst("STR", "r0, [r12, #%d]", slotOffset(b.Slot))
	}
	g.branch(next)
}

// Goto emits GOTO.
func (g *Generator) Goto(line, dest int) {
	g.e.emitLabel(lineLabel(line))
	g.branch(dest)
}

var conditions = map[syntax.Relation]string{
	syntax.RelEq: "BEQ",
	syntax.RelNe: "BNE",
	syntax.RelLt: "BLT",
	syntax.RelGt: "BGT",
	syntax.RelLe: "BLE",
	syntax.RelGe: "BGE",
}

// If emits IF ... THEN.
func (g *Generator) If(line int, left ir.Postfix, rel syntax.Relation, right ir.Postfix, dest, next int) {
	g.e.emitLabel(lineLabel(line))
	g.Expression(left)
	g.push("r0")
	g.Expression(right)
	g.pop("r1")
	g.e.emitInst("CMP", "r1, r0")
	g.e.emitInst(conditions[rel], "%s", lineLabel(dest))
	g.branch(next)
}

// For emits the three blocks of a loop: initialisation at L<line>, the
// increment at L<line>.STEP and the exit test at L<line>.COMP. The loop
// ends once the iterator is greater than or equal to the limit.
func (g *Generator) For(loop ir.Loop) {
	head := lineLabel(loop.Line)
	it := slotOffset(loop.Slot)

	g.e.emitLabel(head)
	g.Expression(loop.Init)
	g.e.emitInst("STR", "r0, [r12, #%d]", it)
	g.e.emitInst("B", "%s.COMP", head)

	g.e.emitLabel(head + ".STEP")
	g.Expression(loop.Step)
	g.e.emitInst("LDR", "r1, [r12, #%d]", it)
	g.e.emitInst("ADD", "r0, r1, r0")
	g.e.emitInst("STR", "r0, [r12, #%d]", it)

	g.e.emitLabel(head + ".COMP")
	if g.conf.InclusiveFor {
		g.inclusiveTest(loop)
		return
	}
	g.Expression(loop.Limit)
	g.e.emitInst("LDR", "r1, [r12, #%d]", it)
	g.e.emitInst("CMP", "r1, r0")
	g.e.emitInst("BGE", "%s", lineLabel(loop.Outside))
	g.branch(loop.Inside)
}

// inclusiveTest compares against the limit in the direction given by the
// sign of the step, so the limit itself is included.
func (g *Generator) inclusiveTest(loop ir.Loop) {
	head := lineLabel(loop.Line)
	it := slotOffset(loop.Slot)

	g.Expression(loop.Step)
	g.push("r0")
	g.Expression(loop.Limit)
	g.pop("r2")
	g.e.emitInst("LDR", "r1, [r12, #%d]", it)
	g.e.emitInst("CMP", "r2, #0")
	g.e.emitInst("BLT", "%s.DOWN", head)
	g.e.emitInst("CMP", "r1, r0")
	g.e.emitInst("BGT", "%s", lineLabel(loop.Outside))
	g.branch(loop.Inside)
	g.e.emitLabel(head + ".DOWN")
	g.e.emitInst("CMP", "r1, r0")
	g.e.emitInst("BLT", "%s", lineLabel(loop.Outside))
	g.branch(loop.Inside)
}

// Next emits NEXT: a jump back to the loop increment.
func (g *Generator) Next(line, forLine int) {
	g.e.emitLabel(lineLabel(line))
	g.e.emitInst("B", "%s.STEP", lineLabel(forLine))
}

// Def emits a user function. Arguments arrive on the expression stack,
// last argument on top, and are stored into the parameter slots before
// the body is evaluated.
func (g *Generator) Def(fn ir.Function) {
	g.e.emitLabel(fn.Label)
	for i := len(fn.Params) - 1; i >= 0; i-- {
		g.pop("r1")
		g.e.emitInst("STR", "r1, [r12, #%d]", slotOffset(fn.Params[i]))
	}
	g.Expression(fn.Body)
	g.e.emitInst("MOV", "pc, lr")
}

// Gosub emits GOSUB. RETURN comes back to the instruction after BL, which
// continues with the next statement.
func (g *Generator) Gosub(line, dest, next int) {
	g.e.emitLabel(lineLabel(line))
	g.call(lineLabel(dest))
	g.branch(next)
}

// Return emits RETURN.
func (g *Generator) Return(line int) {
	g.e.emitLabel(lineLabel(line))
	g.e.emitInst("MOV", "pc, lr")
}

// End emits END as a branch to itself.
func (g *Generator) End(line int) {
	g.e.emitLabel(lineLabel(line))
	g.branch(line)
}

// Variables finishes the listing: the runtime helpers that were used,
// then the variable area and the two stacks.
func (g *Generator) Variables(bytes int) {
	for _, h := range runtimeHelpers {
		if g.helpers.Contains(h.name) {
			g.e.emitLine()
			g.emitHelper(h)
		}
	}
	g.e.emitLine()
	g.e.emitLabel(rtabi.LabelVariables)
	g.e.emitInst(".space", "%d", bytes)
	g.e.emitLine()
	g.e.emitInst(".space", "%d", g.conf.StackSize)
	g.e.emitLabel(rtabi.LabelExeStack)
	g.e.emitInst(".space", "%d", g.conf.StackSize)
	g.e.emitLabel(rtabi.LabelExpStack)
}
