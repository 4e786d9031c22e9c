package machine

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) *Machine {
	t.Helper()
	prog, err := Assemble(src)
	require.NoError(t, err)
	m := New(prog, 10000)
	require.NoError(t, m.Run())
	return m
}

func TestSplitMnemonic(t *testing.T) {
	tests := []struct {
		in   string
		op   string
		s    bool
		cond Cond
	}{
		{"MOV", "MOV", false, AL},
		{"MOVS", "MOV", true, AL},
		{"MOVLS", "MOV", false, LS},
		{"MOVCC", "MOV", false, CC},
		{"SUBCS", "SUB", false, CS},
		{"RSBLT", "RSB", false, LT},
		{"BL", "BL", false, AL},
		{"BLS", "B", false, LS},
		{"BLT", "B", false, LT},
		{"BLE", "B", false, LE},
		{"BHI", "B", false, HI},
		{"STMFD", "STMFD", false, AL},
	}
	for _, tt := range tests {
		op, s, cond, ok := splitMnemonic(tt.in)
		require.True(t, ok, tt.in)
		assert.Equal(t, tt.op, op, tt.in)
		assert.Equal(t, tt.s, s, tt.in)
		assert.Equal(t, tt.cond, cond, tt.in)
	}
	_, _, _, ok := splitMnemonic("PUSH")
	assert.False(t, ok)
}

func TestAssembleLayout(t *testing.T) {
	prog, err := Assemble(`
	.global  main
main:
	MOV      r0, #1   /* one */
	B        main
data:
	.space   8
end:
`)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), prog.Labels["main"])
	assert.Equal(t, uint32(8), prog.Labels["data"])
	assert.Equal(t, uint32(16), prog.Labels["end"])
	assert.Equal(t, uint32(16), prog.Size)
	assert.Len(t, prog.Insts, 2)
	assert.Equal(t, "MOV", prog.Insts[0].Op)
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"main:\n\tPUSH r1\n", "unknown instruction on line 2: PUSH"},
		{"main:\n\tB nowhere\n", "undefined label 'nowhere' on line 2"},
		{"main:\nmain:\n", "duplicate label 'main' on line 2"},
		{"main:\n\tMOV r1\n", "invalid operands for MOV on line 2"},
		{"main:\n\tLDR r1, [r99]\n", "invalid register 'r99' on line 2"},
		{"main:\n\t.space lots\n", "invalid .space size on line 2"},
		{"main:\n\tMOV r1, #zz\n", "invalid immediate '#zz' on line 2"},
	}
	for _, tt := range tests {
		_, err := Assemble(tt.src)
		require.Error(t, err, tt.src)
		assert.Contains(t, err.Error(), tt.want)
	}
}

func TestArithmeticAndHalt(t *testing.T) {
	m := run(t, `
main:
	MOV r1, #7
	MOV r2, #-3
	ADD r0, r1, r2
	SUB r3, r1, #10
	RSB r4, r1, #0
	MUL r5, r1, r2
	EOR r6, r1, #1
	MOV r7, r1, LSL #2
	MOV r8, r1, LSR #1
halt:
	B halt
`)
	assert.True(t, m.Halted())
	assert.Equal(t, int32(4), int32(m.R[0]))
	assert.Equal(t, int32(-3), int32(m.R[3]))
	assert.Equal(t, int32(-7), int32(m.R[4]))
	assert.Equal(t, int32(-21), int32(m.R[5]))
	assert.Equal(t, uint32(6), m.R[6])
	assert.Equal(t, uint32(28), m.R[7])
	assert.Equal(t, uint32(3), m.R[8])
	assert.Equal(t, 10, m.Steps())
}

func TestConditions(t *testing.T) {
	tests := []struct {
		a, b  string
		taken []string
	}{
		{"#1", "#2", []string{"NE", "LT", "LE", "LS", "CC", "MI"}},
		{"#2", "#2", []string{"EQ", "LE", "GE", "LS", "CS", "PL"}},
		{"#3", "#2", []string{"NE", "GT", "GE", "HI", "CS", "PL"}},
		{"#-1", "#1", []string{"NE", "LT", "LE", "HI", "CS", "MI"}},
	}
	all := []string{"EQ", "NE", "LT", "GT", "LE", "GE", "LS", "HI", "CS", "CC", "MI", "PL"}
	for _, tt := range tests {
		for _, c := range all {
			src := "main:\n\tMOV r1, " + tt.a + "\n\tMOV r0, #0\n\tCMP r1, " + tt.b + "\n\tMOV" + c + " r0, #1\nhalt:\n\tB halt\n"
			m := run(t, src)
			want := uint32(0)
			for _, tk := range tt.taken {
				if tk == c {
					want = 1
				}
			}
			assert.Equal(t, want, m.R[0], "%s cmp %s cond %s", tt.a, tt.b, c)
		}
	}
}

func TestMovsCarry(t *testing.T) {
	m := run(t, `
main:
	MOV r3, #2
	MOVS r3, r3, LSR #1
	MOVCC r4, #1
	MOVS r3, r3, LSR #1
	MOVCS r5, #1
halt:
	B halt
`)
	assert.Equal(t, uint32(1), m.R[4])
	assert.Equal(t, uint32(1), m.R[5])
	assert.Equal(t, uint32(0), m.R[3])
	assert.True(t, m.Z)
}

func TestStacksAndCalls(t *testing.T) {
	m := run(t, `
	.global main
main:
	LDR r12, =variables
	LDR sp, =stack
	MOV r1, #5
	STMFD sp!, {r1}
	MOV r1, #6
	STMFD sp!, {r1}
	BL sum
	STR r0, [r12, #4]
halt:
	B halt
sum:
	LDMFD sp!, {r2}
	LDMFD sp!, {r1}
	ADD r0, r1, r2
	MOV pc, lr
variables:
	.space 8
	.space 16
stack:
`)
	v, err := m.Variable(1)
	require.NoError(t, err)
	assert.Equal(t, int32(11), v)
	stack, ok := m.Label("stack")
	require.True(t, ok)
	assert.Equal(t, stack, m.R[SP])
}

func TestStepLimit(t *testing.T) {
	prog, err := Assemble("main:\n\tMOV r0, #0\nloop:\n\tADD r0, r0, #1\n\tB loop\n")
	require.NoError(t, err)
	m := New(prog, 100)
	err = m.Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStepLimit))
	assert.False(t, m.Halted())
}

func TestFaults(t *testing.T) {
	prog, err := Assemble("main:\n\tMOV r1, #1000\n\tLDR r0, [r1, #0]\nhalt:\n\tB halt\n")
	require.NoError(t, err)
	err = New(prog, 0).Run()
	var f *Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, 3, f.Line)
	assert.True(t, strings.Contains(f.Msg, "load from invalid address"))

	prog, err = Assemble("main:\n\tMOV pc, r1\n")
	require.NoError(t, err)
	m := New(prog, 0)
	m.R[1] = 0x40
	require.ErrorAs(t, m.Run(), &f)
	assert.Equal(t, "no instruction at pc", f.Msg)
}
