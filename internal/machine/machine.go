package machine

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/you-not-fish/basicc/internal/rtabi"
)

// ErrStepLimit is returned by Run when the step budget runs out.
var ErrStepLimit = errors.New("step limit exceeded")

// Fault is a runtime error tied to the instruction that caused it.
type Fault struct {
	PC   uint32
	Line int
	Msg  string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("listing line %d (pc %#x): %s", f.Line, f.PC, f.Msg)
}

// Machine executes an assembled Program. Memory is a flat little-endian
// byte array covering the code and every .space region.
type Machine struct {
	R       [16]uint32
	N, Z, C bool
	V       bool

	Mem  []byte
	prog *Program

	steps    int
	maxSteps int
	halted   bool
}

// New returns a machine loaded with prog. maxSteps <= 0 means no limit.
func New(prog *Program, maxSteps int) *Machine {
	return &Machine{
		Mem:      make([]byte, prog.Size),
		prog:     prog,
		maxSteps: maxSteps,
	}
}

// Steps returns the number of instructions executed so far.
func (m *Machine) Steps() int { return m.steps }

// Halted reports whether the program reached a branch to itself.
func (m *Machine) Halted() bool { return m.halted }

// Label returns the address of a label.
func (m *Machine) Label(name string) (uint32, bool) {
	addr, ok := m.prog.Labels[name]
	return addr, ok
}

// Run starts at main and executes until the program branches to itself.
func (m *Machine) Run() error {
	entry, ok := m.prog.Labels[rtabi.LabelEntry]
	if !ok {
		return errors.New("no main label")
	}
	m.R[PC] = entry
	for !m.halted {
		if m.maxSteps > 0 && m.steps >= m.maxSteps {
			return fmt.Errorf("%w after %d instructions", ErrStepLimit, m.steps)
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes one instruction.
func (m *Machine) Step() error {
	pc := m.R[PC]
	in, ok := m.prog.Insts[pc]
	if !ok {
		return &Fault{PC: pc, Msg: "no instruction at pc"}
	}
	m.steps++
	m.R[PC] = pc + 4
	if !m.cond(in.Cond) {
		return nil
	}
	if err := m.exec(in); err != nil {
		return &Fault{PC: pc, Line: in.Line, Msg: err.Error()}
	}
	if in.Op == "B" && m.R[PC] == pc {
		m.halted = true
	}
	return nil
}

func (m *Machine) cond(c Cond) bool {
	switch c {
	case EQ:
		return m.Z
	case NE:
		return !m.Z
	case LT:
		return m.N != m.V
	case GT:
		return !m.Z && m.N == m.V
	case LE:
		return m.Z || m.N != m.V
	case GE:
		return m.N == m.V
	case LS:
		return !m.C || m.Z
	case HI:
		return m.C && !m.Z
	case CS:
		return m.C
	case CC:
		return !m.C
	case MI:
		return m.N
	case PL:
		return !m.N
	}
	return true
}

// operand2 evaluates a register or immediate operand.
func (m *Machine) operand2(o Operand) uint32 {
	if o.Kind == OpndImm {
		return uint32(o.Imm)
	}
	return m.R[o.Reg]
}

func (m *Machine) setNZ(v uint32) {
	m.N = int32(v) < 0
	m.Z = v == 0
}

// addFlags sets all flags for a + b + carry.
func (m *Machine) addFlags(a, b uint32, carry uint32) uint32 {
	sum := uint64(a) + uint64(b) + uint64(carry)
	r := uint32(sum)
	m.setNZ(r)
	m.C = sum>>32 != 0
	m.V = (a^r)&(b^r)&0x80000000 != 0
	return r
}

// subFlags sets all flags for a - b. C means no borrow.
func (m *Machine) subFlags(a, b uint32) uint32 {
	return m.addFlags(a, ^b, 1)
}

func (m *Machine) exec(in *Inst) error {
	args := in.Args
	switch in.Op {
	case "MOV":
		v := m.operand2(args[1])
		carry := m.C
		if len(args) == 3 {
			n := uint32(args[2].Imm)
			switch args[2].Shift {
			case "LSL":
				if n > 0 {
					carry = v&(1<<(32-n)) != 0
					v <<= n
				}
			case "LSR":
				if n > 0 {
					carry = v&(1<<(n-1)) != 0
					v >>= n
				}
			}
		}
		m.R[args[0].Reg] = v
		if in.SetFlags {
			m.setNZ(v)
			m.C = carry
		}

	case "ADD":
		a, b := m.R[args[1].Reg], m.operand2(args[2])
		if in.SetFlags {
			m.R[args[0].Reg] = m.addFlags(a, b, 0)
		} else {
			m.R[args[0].Reg] = a + b
		}

	case "SUB":
		a, b := m.R[args[1].Reg], m.operand2(args[2])
		if in.SetFlags {
			m.R[args[0].Reg] = m.subFlags(a, b)
		} else {
			m.R[args[0].Reg] = a - b
		}

	case "RSB":
		a, b := m.operand2(args[2]), m.R[args[1].Reg]
		if in.SetFlags {
			m.R[args[0].Reg] = m.subFlags(a, b)
		} else {
			m.R[args[0].Reg] = a - b
		}

	case "MUL":
		v := m.R[args[1].Reg] * m.R[args[2].Reg]
		m.R[args[0].Reg] = v
		if in.SetFlags {
			m.setNZ(v)
		}

	case "EOR":
		v := m.R[args[1].Reg] ^ m.operand2(args[2])
		m.R[args[0].Reg] = v
		if in.SetFlags {
			m.setNZ(v)
		}

	case "CMP":
		m.subFlags(m.R[args[0].Reg], m.operand2(args[1]))

	case "LDR":
		if args[1].Kind == OpndAddr {
			m.R[args[0].Reg] = uint32(args[1].Imm)
			return nil
		}
		v, err := m.load(m.address(args[1]))
		if err != nil {
			return err
		}
		m.R[args[0].Reg] = v

	case "STR":
		return m.store(m.address(args[1]), m.R[args[0].Reg])

	case "STMFD":
		base := args[0].Reg
		addr := m.R[base] - 4
		if err := m.store(addr, m.R[args[1].Reg]); err != nil {
			return err
		}
		m.R[base] = addr

	case "LDMFD":
		base := args[0].Reg
		v, err := m.load(m.R[base])
		if err != nil {
			return err
		}
		m.R[base] += 4
		m.R[args[1].Reg] = v

	case "BL":
		m.R[LR] = m.R[PC]
		m.R[PC] = uint32(args[0].Imm)

	case "B":
		m.R[PC] = uint32(args[0].Imm)

	default:
		return fmt.Errorf("unsupported op %s", in.Op)
	}
	return nil
}

func (m *Machine) address(o Operand) uint32 {
	if o.Index >= 0 {
		return m.R[o.Reg] + m.R[o.Index]
	}
	return m.R[o.Reg] + uint32(o.Imm)
}

func (m *Machine) load(addr uint32) (uint32, error) {
	if addr%4 != 0 || uint64(addr)+4 > uint64(len(m.Mem)) {
		return 0, fmt.Errorf("load from invalid address %#x", addr)
	}
	return binary.LittleEndian.Uint32(m.Mem[addr:]), nil
}

func (m *Machine) store(addr, v uint32) error {
	if addr%4 != 0 || uint64(addr)+4 > uint64(len(m.Mem)) {
		return fmt.Errorf("store to invalid address %#x", addr)
	}
	binary.LittleEndian.PutUint32(m.Mem[addr:], v)
	return nil
}

// Word returns the signed word at addr.
func (m *Machine) Word(addr uint32) (int32, error) {
	v, err := m.load(addr)
	return int32(v), err
}

// Variable returns the value in a variable slot, relative to the
// "variables" label.
func (m *Machine) Variable(slot int) (int32, error) {
	base, ok := m.prog.Labels[rtabi.LabelVariables]
	if !ok {
		return 0, errors.New("no variables label")
	}
	return m.Word(base + uint32(rtabi.SlotOffset(slot)))
}
