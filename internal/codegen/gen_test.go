package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/diff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you-not-fish/basicc/internal/ir"
	"github.com/you-not-fish/basicc/internal/syntax"
)

func inst(mnemonic, operands string) string {
	return fmt.Sprintf("\t%-9s%s", mnemonic, operands)
}

func listing(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func load(slot int, name string) ir.Elem {
	return ir.Elem{Op: ir.OpLoad, Slot: slot, Name: name}
}

func TestInstructionColumn(t *testing.T) {
	var buf bytes.Buffer
	e := emitter{w: &buf}
	e.emitInst("LDR", "r12, =variables")
	assert.Equal(t, "\tLDR      r12, =variables\n", buf.String())
}

func TestListingStraightLine(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf, Config{Source: "prog.bas"})
	g.Header(10)
	g.Assign(10, 1, ir.Postfix{ir.Const(1)}, 30)
	g.End(30)
	g.Variables(8)
	require.NoError(t, g.Err())

	want := listing(
		"/* BASIC COMPILER */",
		"/* source: prog.bas */",
		inst(".global", "main"),
		"main:",
		inst("LDR", "r12, =variables"),
		inst("LDR", "r11, =exe_stack"),
		inst("LDR", "sp, =exp_stack"),
		inst("B", "L10"),
		"L10:",
		inst("MOV", "r1, #1"),
		inst("STMFD", "sp!, {r1}"),
		inst("LDMFD", "sp!, {r0}"),
		inst("STR", "r0, [r12, #4]"),
		inst("B", "L30"),
		"L30:",
		inst("B", "L30"),
		"",
		"variables:",
		inst(".space", "8"),
		"",
		inst(".space", "256"),
		"exe_stack:",
		inst(".space", "256"),
		"exp_stack:",
	)
	if got := buf.String(); got != want {
		t.Errorf("listing mismatch (-want +got):\n%s", diff.Diff(want, got))
	}
	assert.Empty(t, g.Helpers())
}

func TestExpressionElements(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf, Config{})
	g.Expression(ir.Postfix{
		load(2, "A"),
		ir.Const(3),
		{Op: ir.OpLoadIndexed, Slot: 4, Name: "V"},
		ir.Binary(syntax.OpMul),
		{Op: ir.OpCall, Name: "F", Arity: 1},
	})

	want := listing(
		inst("LDR", "r1, [r12, #8]"),
		inst("STMFD", "sp!, {r1}"),
		inst("MOV", "r1, #3"),
		inst("STMFD", "sp!, {r1}"),
		inst("LDMFD", "sp!, {r1}"),
		inst("MOV", "r1, r1, LSL #2"),
		inst("ADD", "r1, r1, #16"),
		inst("LDR", "r1, [r12, r1]"),
		inst("STMFD", "sp!, {r1}"),
		inst("LDMFD", "sp!, {r2}"),
		inst("LDMFD", "sp!, {r1}"),
		inst("MUL", "r0, r1, r2"),
		inst("STMFD", "sp!, {r0}"),
		inst("STMFD", "r11!, {lr}"),
		inst("BL", "FNF"),
		inst("LDMFD", "r11!, {lr}"),
		inst("STMFD", "sp!, {r0}"),
		inst("LDMFD", "sp!, {r0}"),
	)
	if got := buf.String(); got != want {
		t.Errorf("expression mismatch (-want +got):\n%s", diff.Diff(want, got))
	}
}

func TestHelpersEmittedOnceInOrder(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf, Config{})
	g.Header(10)
	g.Assign(10, 1, ir.Postfix{ir.Const(2), ir.Const(3), ir.Binary(syntax.OpPow)}, 20)
	g.Assign(20, 1, ir.Postfix{ir.Const(7), ir.Const(2), ir.Binary(syntax.OpDiv),
		ir.Const(1), ir.Binary(syntax.OpDiv)}, 30)
	g.Assign(30, 1, ir.Postfix{ir.Const(-4), {Op: ir.OpBuiltin, Name: "ABS", Arity: 1}}, 40)
	g.End(40)
	g.Variables(8)
	require.NoError(t, g.Err())

	assert.Equal(t, []string{"sdiv", "pow", "abs"}, g.Helpers())
	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\nsdiv:\n"))
	assert.Equal(t, 1, strings.Count(out, "\npow:\n"))
	assert.Equal(t, 1, strings.Count(out, "\nabs:\n"))
	assert.NotContains(t, out, "\nsqr:\n")
	assert.Less(t, strings.Index(out, "\nsdiv:"), strings.Index(out, "\npow:"))
	assert.Less(t, strings.Index(out, "\nabs:"), strings.Index(out, "\nvariables:\n"))
	assert.Contains(t, out, inst("BL", "abs"))
}

func TestPowZeroExponent(t *testing.T) {
	for _, one := range []bool{false, true} {
		var buf bytes.Buffer
		g := NewGenerator(&buf, Config{PowZeroExponentOne: one})
		g.helpers.Add("pow")
		g.Variables(4)

		out := buf.String()
		if one {
			assert.Contains(t, out, inst("BLT", "pow.end"))
			assert.NotContains(t, out, inst("BLE", "pow.end"))
		} else {
			assert.Contains(t, out, inst("BLE", "pow.end"))
		}
	}
}

func TestIfConditions(t *testing.T) {
	for rel, want := range map[syntax.Relation]string{
		syntax.RelEq: "BEQ", syntax.RelNe: "BNE",
		syntax.RelLt: "BLT", syntax.RelGt: "BGT",
		syntax.RelLe: "BLE", syntax.RelGe: "BGE",
	} {
		var buf bytes.Buffer
		g := NewGenerator(&buf, Config{})
		g.If(20, ir.Postfix{load(1, "A")}, rel, ir.Postfix{ir.Const(0)}, 50, 30)
		out := buf.String()
		assert.Contains(t, out, inst("CMP", "r1, r0")+"\n"+inst(want, "L50")+"\n"+inst("B", "L30")+"\n", rel.String())
	}
}

func TestHeaderWithoutSource(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf, Config{})
	g.Header(10)
	require.NoError(t, g.Err())
	assert.True(t, strings.HasPrefix(buf.String(), "/* BASIC COMPILER */\n"+inst(".global", "main")+"\nmain:\n"), buf.String())
	assert.NotContains(t, buf.String(), "source:")
}

func forLoop(conf Config) string {
	var buf bytes.Buffer
	g := NewGenerator(&buf, conf)
	g.For(ir.Loop{
		Line: 10, Slot: 1,
		Init:  ir.Postfix{ir.Const(1)},
		Limit: ir.Postfix{ir.Const(3)},
		Step:  ir.Postfix{ir.Const(1)},
		Inside: 20, Outside: 40,
	})
	g.Next(30, 10)
	return "\n" + buf.String()
}

func TestForBlocks(t *testing.T) {
	out := forLoop(Config{})
	for _, label := range []string{"L10:", "L10.STEP:", "L10.COMP:", "L30:"} {
		assert.Contains(t, out, "\n"+label+"\n", label)
	}
	assert.NotContains(t, out, "L10.DOWN")
	assert.Contains(t, out, inst("B", "L10.COMP"))
	assert.Contains(t, out, listing(
		"L10.COMP:",
		inst("MOV", "r1, #3"),
		inst("STMFD", "sp!, {r1}"),
		inst("LDMFD", "sp!, {r0}"),
		inst("LDR", "r1, [r12, #4]"),
		inst("CMP", "r1, r0"),
		inst("BGE", "L40"),
		inst("B", "L20"),
	))
	assert.Contains(t, out, inst("B", "L10.STEP"))
	assert.Equal(t, 1, strings.Count(out, inst("B", "L20")))
}

func TestInclusiveForBlocks(t *testing.T) {
	out := forLoop(Config{InclusiveFor: true})
	for _, label := range []string{"L10:", "L10.STEP:", "L10.COMP:", "L10.DOWN:", "L30:"} {
		assert.Contains(t, out, "\n"+label+"\n", label)
	}
	assert.Contains(t, out, inst("BLT", "L10.DOWN"))
	assert.Contains(t, out, inst("BGT", "L40"))
	assert.Contains(t, out, inst("BLT", "L40"))
	assert.NotContains(t, out, inst("BGE", "L40"))
	assert.Equal(t, 2, strings.Count(out, inst("B", "L20")))
}

func TestSdivNormalisationStopsAtTopBit(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf, Config{})
	g.helpers.Add("sdiv")
	g.Variables(4)
	assert.Contains(t, buf.String(), listing(
		"sdiv.start:",
		inst("CMP", "r2, r1"),
		inst("BHI", "sdiv.next"),
		inst("CMP", "r2, #0"),
		inst("BLT", "sdiv.next"),
	))
}

func TestDefStoresParamsInReverse(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf, Config{})
	g.Def(ir.Function{Name: "G", Label: "FNG", Params: []int{2, 3},
		Body: ir.Postfix{load(2, "G.X"), load(3, "G.Y"), ir.Binary(syntax.OpSub)}})

	lines := strings.Split(buf.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, []string{
		"FNG:",
		inst("LDMFD", "sp!, {r1}"),
		inst("STR", "r1, [r12, #12]"),
		inst("LDMFD", "sp!, {r1}"),
		inst("STR", "r1, [r12, #8]"),
	}, lines[:5])
	assert.Equal(t, inst("MOV", "pc, lr"), lines[len(lines)-2])
}

func TestBindings(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf, Config{})
	g.Bindings(30, []ir.Binding{
		{Name: "A", Slot: 1, Value: 5},
		{Name: "V", Slot: 2, Index: ir.Postfix{ir.Const(1)}, Value: -2},
	}, 40)

	want := listing(
		"L30:",
		inst("MOV", "r0, #5"),
		inst("STR", "r0, [r12, #4]"),
		inst("MOV", "r1, #1"),
		inst("STMFD", "sp!, {r1}"),
		inst("LDMFD", "sp!, {r0}"),
		inst("MOV", "r1, r0, LSL #2"),
		inst("ADD", "r1, r1, #8"),
		inst("MOV", "r0, #-2"),
		inst("STR", "r0, [r12, r1]"),
		inst("B", "L40"),
	)
	if got := buf.String(); got != want {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff.Diff(want, got))
	}
}

func TestGosubReturn(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf, Config{StackSize: 64})
	g.Gosub(30, 60, 40)
	g.Return(60)
	g.Variables(4)

	out := buf.String()
	assert.Contains(t, out, listing(
		"L30:",
		inst("STMFD", "r11!, {lr}"),
		inst("BL", "L60"),
		inst("LDMFD", "r11!, {lr}"),
		inst("B", "L40"),
		"L60:",
		inst("MOV", "pc, lr"),
	))
	assert.Contains(t, out, inst(".space", "64")+"\nexe_stack:\n")
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestWriteErrorIsSticky(t *testing.T) {
	boom := errors.New("disk full")
	g := NewGenerator(failingWriter{boom}, Config{})
	g.Header(10)
	g.End(10)
	g.Variables(4)

	err := g.Err()
	var gerr *GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "writing listing: disk full", err.Error())
}
