package codegen

import "github.com/you-not-fish/basicc/internal/rtabi"

// A runtime helper is a leaf routine called with BL. Binary helpers take
// their operands in r1 and r2; builtins pop their argument from the
// expression stack. All return in r0 and may clobber r1-r5.
type runtimeHelper struct {
	name string
	doc  string
	body func(g *Generator)
}

// runtimeHelpers lists the helpers in the order they are emitted.
var runtimeHelpers = []runtimeHelper{
	{rtabi.FnSdiv, "r0 = r1 / r2, truncated toward zero; 0 when r2 is 0", (*Generator).emitSdiv},
	{rtabi.FnPow, "r0 = r1 ^ r2 by repeated multiplication", (*Generator).emitPow},
	{rtabi.FnAbs, "r0 = |arg|", (*Generator).emitAbs},
	{rtabi.FnInt, "r0 = arg", (*Generator).emitInt},
	{rtabi.FnSqr, "r0 = floor(sqrt(arg)); 0 for arg <= 0", (*Generator).emitSqr},
}

func (g *Generator) emitHelper(h runtimeHelper) {
	g.e.emitComment(h.doc)
	g.e.emitLabel(h.name)
	h.body(g)
}

func (g *Generator) emitSdiv() {
	e := &g.e
	e.emitInst("MOV", "r0, #0")
	e.emitInst("MOV", "r4, #0")
	e.emitInst("MOV", "r5, #0")
	e.emitInst("CMP", "r2, #0")
	e.emitInst("BEQ", "sdiv.end")
	e.emitInst("MOVLT", "r4, #1")
	e.emitInst("RSBLT", "r2, r2, #0")
	e.emitInst("CMP", "r1, #0")
	e.emitInst("MOVLT", "r5, #1")
	e.emitInst("RSBLT", "r1, r1, #0")
	e.emitInst("EOR", "r4, r4, r5")
	e.emitInst("MOV", "r3, #1")
	e.emitLabel("sdiv.start")
	e.emitInst("CMP", "r2, r1")
	e.emitInst("BHI", "sdiv.next")
	e.emitInst("CMP", "r2, #0")
	e.emitInst("BLT", "sdiv.next")
	e.emitInst("MOV", "r2, r2, LSL #1")
	e.emitInst("MOV", "r3, r3, LSL #1")
	e.emitInst("B", "sdiv.start")
	e.emitLabel("sdiv.next")
	e.emitInst("CMP", "r1, r2")
	e.emitInst("SUBCS", "r1, r1, r2")
	e.emitInst("ADDCS", "r0, r0, r3")
	e.emitInst("MOVS", "r3, r3, LSR #1")
	e.emitInst("MOVCC", "r2, r2, LSR #1")
	e.emitInst("BCC", "sdiv.next")
	e.emitLabel("sdiv.end")
	e.emitInst("CMP", "r4, #1")
	e.emitInst("RSBEQ", "r0, r0, #0")
	e.emitInst("MOV", "pc, lr")
}

func (g *Generator) emitPow() {
	e := &g.e
	e.emitInst("MOV", "r0, #0")
	e.emitInst("CMP", "r1, #0")
	e.emitInst("BEQ", "pow.end")
	e.emitInst("CMP", "r2, #0")
	if g.conf.PowZeroExponentOne {
		e.emitInst("BLT", "pow.end")
	} else {
		e.emitInst("BLE", "pow.end")
	}
	e.emitInst("MOV", "r0, #1")
	e.emitInst("MOV", "r3, r2")
	e.emitLabel("pow.loop")
	e.emitInst("CMP", "r3, #0")
	e.emitInst("BEQ", "pow.end")
	e.emitInst("MOV", "r4, r0")
	e.emitInst("MUL", "r0, r4, r1")
	e.emitInst("SUB", "r3, r3, #1")
	e.emitInst("B", "pow.loop")
	e.emitLabel("pow.end")
	e.emitInst("MOV", "pc, lr")
}

func (g *Generator) emitAbs() {
	e := &g.e
	e.emitInst("LDMFD", "sp!, {r0}")
	e.emitInst("CMP", "r0, #0")
	e.emitInst("RSBLT", "r0, r0, #0")
	e.emitInst("MOV", "pc, lr")
}

// Values are already integers.
func (g *Generator) emitInt() {
	e := &g.e
	e.emitInst("LDMFD", "sp!, {r0}")
	e.emitInst("MOV", "pc, lr")
}

func (g *Generator) emitSqr() {
	e := &g.e
	e.emitInst("LDMFD", "sp!, {r1}")
	e.emitInst("MOV", "r0, #0")
	e.emitInst("CMP", "r1, #0")
	e.emitInst("BLE", "sqr.end")
	e.emitLabel("sqr.loop")
	e.emitInst("ADD", "r2, r0, #1")
	e.emitInst("MUL", "r3, r2, r2")
	e.emitInst("CMP", "r3, r1")
	e.emitInst("BHI", "sqr.end")
	e.emitInst("MOV", "r0, r2")
	e.emitInst("B", "sqr.loop")
	e.emitLabel("sqr.end")
	e.emitInst("MOV", "pc, lr")
}
