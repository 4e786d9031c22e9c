// Package machine assembles and runs the listings produced by codegen on
// a small 32-bit register machine.
package machine

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Register numbers.
const (
	SP = 13
	LR = 14
	PC = 15
)

// Cond is an instruction condition.
type Cond uint8

const (
	AL Cond = iota
	EQ
	NE
	LT
	GT
	LE
	GE
	LS
	HI
	CS
	CC
	MI
	PL
)

var condNames = map[string]Cond{
	"EQ": EQ, "NE": NE, "LT": LT, "GT": GT, "LE": LE, "GE": GE,
	"LS": LS, "HI": HI, "CS": CS, "HS": CS, "CC": CC, "LO": CC,
	"MI": MI, "PL": PL, "AL": AL,
}

// baseOps lists the mnemonics the machine executes, longest first so that
// BL is tried before B.
var baseOps = []string{"STMFD", "LDMFD", "MOV", "ADD", "SUB", "RSB", "MUL", "EOR", "CMP", "LDR", "STR", "BL", "B"}

// setsFlags lists the ops accepting an S suffix.
var setsFlags = map[string]bool{"MOV": true, "ADD": true, "SUB": true, "RSB": true, "MUL": true, "EOR": true}

// OperandKind classifies an operand.
type OperandKind uint8

const (
	OpndReg     OperandKind = iota // r1, sp!, lr
	OpndImm                        // #5
	OpndAddr                       // =label
	OpndMem                        // [r12, #4] or [r12, r1]
	OpndRegList                    // {r1}
	OpndShift                      // LSL #2
	OpndLabel                      // L10
)

// Operand is one decoded operand.
type Operand struct {
	Kind      OperandKind
	Reg       int   // OpndReg, OpndRegList; base register for OpndMem
	Index     int   // OpndMem: index register, or -1 for an immediate offset
	Imm       int32 // OpndImm, OpndShift amount, OpndMem offset
	Label     string
	WriteBack bool   // sp!
	Shift     string // LSL or LSR
}

// Inst is one decoded instruction.
type Inst struct {
	Line     int // listing line, 1-based
	Op       string
	Cond     Cond
	SetFlags bool
	Args     []Operand
}

func (in Inst) String() string {
	return fmt.Sprintf("line %d: %s", in.Line, in.Op)
}

// Program is an assembled listing.
type Program struct {
	Insts  map[uint32]*Inst // by byte address
	Labels map[string]uint32
	Size   uint32 // bytes of memory covered by code and .space
}

// Assembler turns a listing into a Program in two passes: the first
// assigns addresses to labels, the second decodes instructions.
type Assembler struct {
	labels map[string]uint32
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands string
}

// NewAssembler returns an assembler with no labels defined.
func NewAssembler() *Assembler {
	return &Assembler{labels: make(map[string]uint32)}
}

// Assemble is shorthand for NewAssembler().Assemble(code).
func Assemble(code string) (*Program, error) {
	return NewAssembler().Assemble(code)
}

// Assemble assembles a complete listing.
func (a *Assembler) Assemble(code string) (*Program, error) {
	lines := strings.Split(code, "\n")
	parsed := make([]parsedLine, 0, len(lines))
	for i, raw := range lines {
		p, err := parseLine(raw, i+1)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, p)
	}

	size, err := a.pass1(parsed)
	if err != nil {
		return nil, err
	}
	insts, err := a.pass2(parsed)
	if err != nil {
		return nil, err
	}
	return &Program{Insts: insts, Labels: a.labels, Size: size}, nil
}

func (a *Assembler) pass1(lines []parsedLine) (uint32, error) {
	var address uint32
	for _, p := range lines {
		for _, lbl := range p.labels {
			if _, exists := a.labels[lbl]; exists {
				return 0, fmt.Errorf("duplicate label '%s' on line %d", lbl, p.lineNo)
			}
			a.labels[lbl] = address
		}

		switch p.mnemonic {
		case "":
		case ".GLOBAL":
		case ".SPACE":
			n, err := strconv.ParseUint(strings.TrimSpace(p.operands), 0, 32)
			if err != nil {
				return 0, fmt.Errorf("invalid .space size on line %d: %s", p.lineNo, p.operands)
			}
			address += uint32(n)
		default:
			address += 4
		}
	}
	return address, nil
}

func (a *Assembler) pass2(lines []parsedLine) (map[uint32]*Inst, error) {
	insts := make(map[uint32]*Inst)
	var address uint32
	for _, p := range lines {
		switch p.mnemonic {
		case "", ".GLOBAL":
			continue
		case ".SPACE":
			n, _ := strconv.ParseUint(strings.TrimSpace(p.operands), 0, 32)
			address += uint32(n)
			continue
		}

		in, err := a.decode(p)
		if err != nil {
			return nil, err
		}
		insts[address] = in
		address += 4
	}
	return insts, nil
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}
	line := strings.TrimSpace(stripComments(raw))

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}
		label := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(label, " \t") {
			break
		}
		if !isLabel(label) {
			return p, fmt.Errorf("invalid label '%s' on line %d", label, lineNo)
		}
		p.labels = append(p.labels, label)
		line = strings.TrimSpace(line[colon+1:])
	}
	if line == "" {
		return p, nil
	}

	mnemonic := line
	if sp := strings.IndexAny(line, " \t"); sp >= 0 {
		mnemonic = line[:sp]
		p.operands = strings.TrimSpace(line[sp+1:])
	}
	p.mnemonic = strings.ToUpper(mnemonic)
	return p, nil
}

func stripComments(line string) string {
	for {
		start := strings.Index(line, "/*")
		if start < 0 {
			break
		}
		end := strings.Index(line[start:], "*/")
		if end < 0 {
			line = line[:start]
			break
		}
		line = line[:start] + line[start+end+2:]
	}
	if at := strings.IndexByte(line, '@'); at >= 0 {
		line = line[:at]
	}
	return line
}

// splitMnemonic separates a mnemonic into op, S flag and condition.
func splitMnemonic(m string) (op string, s bool, cond Cond, ok bool) {
	for _, base := range baseOps {
		if !strings.HasPrefix(m, base) {
			continue
		}
		rest := m[len(base):]
		if rest == "" {
			return base, false, AL, true
		}
		if c, isCond := condNames[rest]; isCond {
			return base, false, c, true
		}
		if rest[0] == 'S' && setsFlags[base] {
			if rest == "S" {
				return base, true, AL, true
			}
			if c, isCond := condNames[rest[1:]]; isCond {
				return base, true, c, true
			}
		}
	}
	return "", false, AL, false
}

func (a *Assembler) decode(p parsedLine) (*Inst, error) {
	op, s, cond, ok := splitMnemonic(p.mnemonic)
	if !ok {
		return nil, fmt.Errorf("unknown instruction on line %d: %s", p.lineNo, p.mnemonic)
	}
	in := &Inst{Line: p.lineNo, Op: op, Cond: cond, SetFlags: s}

	for _, tok := range splitOperands(p.operands) {
		opnd, err := a.parseOperand(tok, p.lineNo)
		if err != nil {
			return nil, err
		}
		in.Args = append(in.Args, opnd)
	}
	if err := checkShape(in); err != nil {
		return nil, err
	}
	return in, nil
}

// splitOperands splits on commas outside brackets and braces.
func splitOperands(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

func (a *Assembler) parseOperand(tok string, lineNo int) (Operand, error) {
	switch {
	case strings.HasPrefix(tok, "#"):
		v, err := parseImmediate(tok[1:])
		if err != nil {
			return Operand{}, fmt.Errorf("invalid immediate '%s' on line %d", tok, lineNo)
		}
		return Operand{Kind: OpndImm, Imm: v}, nil

	case strings.HasPrefix(tok, "="):
		addr, ok := a.labels[tok[1:]]
		if !ok {
			return Operand{}, fmt.Errorf("undefined label '%s' on line %d", tok[1:], lineNo)
		}
		return Operand{Kind: OpndAddr, Imm: int32(addr), Label: tok[1:]}, nil

	case strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]"):
		parts := splitOperands(tok[1 : len(tok)-1])
		if len(parts) < 1 || len(parts) > 2 {
			return Operand{}, fmt.Errorf("invalid address '%s' on line %d", tok, lineNo)
		}
		base, ok := parseRegister(parts[0])
		if !ok {
			return Operand{}, fmt.Errorf("invalid register '%s' on line %d", parts[0], lineNo)
		}
		m := Operand{Kind: OpndMem, Reg: base, Index: -1}
		if len(parts) == 2 {
			if strings.HasPrefix(parts[1], "#") {
				v, err := parseImmediate(parts[1][1:])
				if err != nil {
					return Operand{}, fmt.Errorf("invalid offset '%s' on line %d", parts[1], lineNo)
				}
				m.Imm = v
			} else if idx, ok := parseRegister(parts[1]); ok {
				m.Index = idx
			} else {
				return Operand{}, fmt.Errorf("invalid offset '%s' on line %d", parts[1], lineNo)
			}
		}
		return m, nil

	case strings.HasPrefix(tok, "{") && strings.HasSuffix(tok, "}"):
		r, ok := parseRegister(strings.TrimSpace(tok[1 : len(tok)-1]))
		if !ok {
			return Operand{}, fmt.Errorf("invalid register list '%s' on line %d", tok, lineNo)
		}
		return Operand{Kind: OpndRegList, Reg: r}, nil
	}

	if fields := strings.Fields(tok); len(fields) == 2 {
		shift := strings.ToUpper(fields[0])
		if (shift == "LSL" || shift == "LSR") && strings.HasPrefix(fields[1], "#") {
			v, err := parseImmediate(fields[1][1:])
			if err != nil || v < 0 || v > 31 {
				return Operand{}, fmt.Errorf("invalid shift '%s' on line %d", tok, lineNo)
			}
			return Operand{Kind: OpndShift, Shift: shift, Imm: v}, nil
		}
	}

	wb := strings.HasSuffix(tok, "!")
	if r, ok := parseRegister(strings.TrimSuffix(tok, "!")); ok {
		return Operand{Kind: OpndReg, Reg: r, WriteBack: wb}, nil
	}

	if isLabel(tok) {
		addr, ok := a.labels[tok]
		if !ok {
			return Operand{}, fmt.Errorf("undefined label '%s' on line %d", tok, lineNo)
		}
		return Operand{Kind: OpndLabel, Imm: int32(addr), Label: tok}, nil
	}
	return Operand{}, fmt.Errorf("invalid operand '%s' on line %d", tok, lineNo)
}

// checkShape validates operand kinds per op.
func checkShape(in *Inst) error {
	kinds := make([]OperandKind, len(in.Args))
	for i, a := range in.Args {
		kinds[i] = a.Kind
	}
	bad := func() error {
		return fmt.Errorf("invalid operands for %s on line %d", in.Op, in.Line)
	}
	isOp2 := func(k OperandKind) bool { return k == OpndReg || k == OpndImm }

	switch in.Op {
	case "MOV":
		if len(kinds) < 2 || len(kinds) > 3 || kinds[0] != OpndReg || !isOp2(kinds[1]) {
			return bad()
		}
		if len(kinds) == 3 && (kinds[1] != OpndReg || kinds[2] != OpndShift) {
			return bad()
		}
	case "ADD", "SUB", "RSB", "EOR":
		if len(kinds) != 3 || kinds[0] != OpndReg || kinds[1] != OpndReg || !isOp2(kinds[2]) {
			return bad()
		}
	case "MUL":
		if len(kinds) != 3 || kinds[0] != OpndReg || kinds[1] != OpndReg || kinds[2] != OpndReg {
			return bad()
		}
	case "CMP":
		if len(kinds) != 2 || kinds[0] != OpndReg || !isOp2(kinds[1]) {
			return bad()
		}
	case "LDR":
		if len(kinds) != 2 || kinds[0] != OpndReg || (kinds[1] != OpndMem && kinds[1] != OpndAddr) {
			return bad()
		}
	case "STR":
		if len(kinds) != 2 || kinds[0] != OpndReg || kinds[1] != OpndMem {
			return bad()
		}
	case "STMFD", "LDMFD":
		if len(kinds) != 2 || kinds[0] != OpndReg || !in.Args[0].WriteBack || kinds[1] != OpndRegList {
			return bad()
		}
	case "B", "BL":
		if len(kinds) != 1 || kinds[0] != OpndLabel {
			return bad()
		}
	}
	return nil
}

func parseImmediate(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, err
	}
	if v < -1<<31 || v > 1<<32-1 {
		return 0, strconv.ErrRange
	}
	return int32(v), nil
}

func parseRegister(tok string) (int, bool) {
	switch strings.ToLower(tok) {
	case "sp":
		return SP, true
	case "lr":
		return LR, true
	case "pc":
		return PC, true
	}
	if len(tok) >= 2 && (tok[0] == 'r' || tok[0] == 'R') {
		n, err := strconv.Atoi(tok[1:])
		if err == nil && n >= 0 && n <= 15 {
			return n, true
		}
	}
	return 0, false
}

func isLabel(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return false
		}
	}
	return true
}
