package semantic

import (
	"math"

	"github.com/you-not-fish/basicc/internal/ir"
	"github.com/you-not-fish/basicc/internal/rtabi"
	"github.com/you-not-fish/basicc/internal/syntax"
)

// maxArrayWords bounds the storage of one array.
const maxArrayWords = 1 << 24

func (a *Analyser) stmt(s syntax.Stmt) {
	switch s := s.(type) {
	case *syntax.AssignStmt:
		a.assignStmt(s)
	case *syntax.ReadStmt:
		a.readStmt(s)
	case *syntax.DataStmt:
		a.dataStmt(s)
	case *syntax.PrintStmt:
		a.log.Warn("PRINT generates no code", "line", s.Line(), "pos", s.Pos())
	case *syntax.GotoStmt:
		a.gen.Goto(s.Line(), a.target(s.Pos(), s.Dest))
	case *syntax.IfStmt:
		a.ifStmt(s)
	case *syntax.ForStmt:
		a.forStmt(s)
	case *syntax.NextStmt:
		a.nextStmt(s)
	case *syntax.DimStmt:
		a.dimStmt(s)
	case *syntax.DefStmt:
		a.defStmt(s)
	case *syntax.GosubStmt:
		dest := a.target(s.Pos(), s.Dest)
		a.gen.Gosub(s.Line(), dest, a.next(s))
	case *syntax.ReturnStmt:
		a.gen.Return(s.Line())
	case *syntax.RemStmt:
		// nothing to generate
	case *syntax.EndStmt:
		a.endStmt(s)
	default:
		a.errorf(s.Pos(), "unexpected statement %T", s)
	}
}

func (a *Analyser) assignStmt(s *syntax.AssignStmt) {
	name := a.resolve(s.Target.Name)
	if sym := a.syms.Lookup(name); sym != nil && sym.IsArray() {
		a.errorf(s.Target.Pos(), "cannot assign to array %s without an index", s.Target.Name)
	}
	// The target is declared before the value is converted, so LET A = A + 1
	// reads the zero-initialised slot.
	sym := a.syms.Declare(name, s.Target)
	value := a.postfix(s.Value)
	a.gen.Assign(s.Line(), sym.Slot, value, a.next(s))
}

func (a *Analyser) readStmt(s *syntax.ReadStmt) {
	for _, t := range s.Targets {
		var b ir.Binding
		switch t := t.(type) {
		case *syntax.Variable:
			sym := a.syms.Lookup(t.Name)
			if sym != nil && sym.IsArray() {
				a.errorf(t.Pos(), "cannot READ into array %s without an index", t.Name)
			}
			if sym == nil {
				sym = a.syms.Declare(t.Name, t)
			}
			b = ir.Binding{Name: sym.Name, Slot: sym.Slot}
		case *syntax.ArrayAccess:
			sym := a.array(t)
			b = ir.Binding{Name: sym.Name, Slot: sym.Slot, Index: a.indexPostfix(t, sym)}
		default:
			a.errorf(t.Pos(), "cannot READ into %T", t)
		}
		a.reads = append(a.reads, pendingRead{bind: b, pos: t.Pos()})
	}
	a.pair(s)
}

func (a *Analyser) dataStmt(s *syntax.DataStmt) {
	for _, n := range s.Values {
		a.int32Value(n)
		a.data = append(a.data, n)
	}
	a.pair(s)
}

// pair matches queued READ targets with queued DATA values, first in first
// out, and emits the pairs under the statement's label.
func (a *Analyser) pair(s syntax.Stmt) {
	var binds []ir.Binding
	for len(a.reads) > 0 && len(a.data) > 0 {
		b := a.reads[0].bind
		b.Value = a.int32Value(a.data[0])
		binds = append(binds, b)
		a.reads, a.data = a.reads[1:], a.data[1:]
	}
	if len(binds) > 0 || a.prog.IsGenIndex(s.Line()) {
		a.gen.Bindings(s.Line(), binds, a.next(s))
	}
}

func (a *Analyser) ifStmt(s *syntax.IfStmt) {
	left := a.postfix(s.Left)
	right := a.postfix(s.Right)
	dest := a.target(s.Pos(), s.Dest)
	a.gen.If(s.Line(), left, s.Rel, right, dest, a.next(s))
}

func (a *Analyser) forStmt(s *syntax.ForStmt) {
	if sym := a.syms.Lookup(s.Var.Name); sym != nil {
		a.errorf(s.Var.Pos(), "loop variable %s is already declared", s.Var.Name)
	}
	a.syms.Declare(s.Var.Name, s.Var)
	a.loops = append(a.loops, s)
}

func (a *Analyser) nextStmt(s *syntax.NextStmt) {
	if len(a.loops) == 0 {
		a.errorf(s.Pos(), "NEXT %s without FOR", s.Var.Name)
	}
	f := a.loops[len(a.loops)-1]
	if f.Var.Name != s.Var.Name {
		a.errorf(s.Var.Pos(), "NEXT %s does not match FOR %s at line %d", s.Var.Name, f.Var.Name, f.Line())
	}
	inside := a.next(f)
	outside := a.next(s)
	loop := ir.Loop{
		Line:    f.Line(),
		Slot:    a.syms.Lookup(f.Var.Name).Slot,
		Init:    a.postfix(f.Init),
		Limit:   a.postfix(f.Limit),
		Step:    a.postfix(f.Step),
		Inside:  inside,
		Outside: outside,
	}
	a.loops = a.loops[:len(a.loops)-1]
	a.gen.For(loop)
	a.gen.Next(s.Line(), f.Line())
}

func (a *Analyser) dimStmt(s *syntax.DimStmt) {
	for _, d := range s.Arrays {
		if a.syms.Lookup(d.Name) != nil {
			a.errorf(d.Pos(), "%s is already declared", d.Name)
		}
		size := 1
		for _, n := range d.Dims {
			if n <= 0 {
				a.errorf(d.Pos(), "dimension of %s must be positive, got %d", d.Name, n)
			}
			size *= n
			if size > maxArrayWords {
				a.errorf(d.Pos(), "array %s is too large", d.Name)
			}
		}
		a.syms.DeclareArray(d.Name, d.Dims, d)
	}
}

func (a *Analyser) defStmt(s *syntax.DefStmt) {
	if a.syms.LookupFunc(s.Name) != nil {
		a.errorf(s.Pos(), "function FN %s is already defined", s.Name)
	}
	syntax.Walk(s.Body, func(n syntax.Node) bool {
		if c, ok := n.(*syntax.FuncCall); ok && !c.Predefined && c.Name == s.Name {
			a.errorf(c.Pos(), "recursive call of FN %s", s.Name)
		}
		return true
	})

	fn := &Function{Name: s.Name, Decl: s}
	scope := make(map[string]string, len(s.Params))
	var slots []int
	for _, p := range s.Params {
		if _, dup := scope[p.Name]; dup {
			a.errorf(p.Pos(), "duplicate parameter %s of FN %s", p.Name, s.Name)
		}
		q := s.Name + "." + p.Name
		scope[p.Name] = q
		fn.Params = append(fn.Params, q)
		slots = append(slots, a.syms.Declare(q, p).Slot)
	}
	// Registered before the body is converted, so the body can name
	// earlier functions but never itself.
	a.syms.InsertFunc(fn)

	a.scope = scope
	body := a.postfix(s.Body)
	a.scope = nil

	a.gen.Def(ir.Function{Name: s.Name, Label: rtabi.FnUserPrefix + s.Name, Params: slots, Body: body})
}

func (a *Analyser) endStmt(s *syntax.EndStmt) {
	if len(a.loops) > 0 {
		f := a.loops[len(a.loops)-1]
		a.errorf(f.Pos(), "FOR %s has no matching NEXT", f.Var.Name)
	}
	if len(a.reads) > 0 {
		a.errorf(a.reads[0].pos, "READ %s has no DATA value", a.reads[0].bind.Name)
	}
	a.gen.End(s.Line())
}

// resolve applies DEF parameter renaming.
func (a *Analyser) resolve(name string) string {
	if q, ok := a.scope[name]; ok {
		return q
	}
	return name
}

// int32Value returns the literal's value, rejecting anything a 32-bit
// word cannot hold.
func (a *Analyser) int32Value(n *syntax.Number) int32 {
	if n.Value > math.MaxInt32 || n.Value < math.MinInt32 {
		a.errorf(n.Pos(), "constant %s overflows int32", n.Text)
	}
	return int32(n.Value)
}

// array returns the declared array accessed by x.
func (a *Analyser) array(x *syntax.ArrayAccess) *Symbol {
	sym := a.syms.Lookup(a.resolve(x.Name))
	if sym == nil {
		a.errorf(x.Pos(), "array %s is not declared", x.Name)
	}
	if !sym.IsArray() {
		a.errorf(x.Pos(), "%s is not an array", x.Name)
	}
	if len(x.Indices) != len(sym.Dims) {
		a.errorf(x.Pos(), "array %s has %d dimensions, got %d indices", x.Name, len(sym.Dims), len(x.Indices))
	}
	return sym
}
