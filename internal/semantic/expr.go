package semantic

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/you-not-fish/basicc/internal/ir"
	"github.com/you-not-fish/basicc/internal/syntax"
)

// builtins are the predefined functions the runtime implements.
var builtins = mapset.NewSet("ABS", "INT", "SQR")

// Infix items. Operands and markers carry a postfix element; markers
// (indexed loads and calls) wait on the operator stack until the
// closing parenthesis of their argument list.
type itemKind uint8

const (
	itemOperand itemKind = iota
	itemMarker
	itemOp
	itemLparen
	itemRparen
	itemComma
)

type item struct {
	kind itemKind
	elem ir.Elem
	op   syntax.Operator
}

func precedence(op syntax.Operator) int {
	switch op {
	case syntax.OpAdd, syntax.OpSub:
		return 2
	case syntax.OpMul, syntax.OpDiv:
		return 3
	case syntax.OpPow:
		return 4
	}
	return 0
}

func rightAssoc(op syntax.Operator) bool { return op == syntax.OpPow }

// postfix converts an expression to reverse Polish order, resolving every
// name it mentions.
func (a *Analyser) postfix(x syntax.Expr) ir.Postfix {
	var in []item
	a.flatten(x, &in)
	return shunt(in)
}

// indexPostfix converts the indices of x to the linear element offset
// i1*d2*...*dn + i2*d3*...*dn + ... + in.
func (a *Analyser) indexPostfix(x *syntax.ArrayAccess, sym *Symbol) ir.Postfix {
	var in []item
	a.flattenIndex(x, sym, &in)
	return shunt(in)
}

func (a *Analyser) flatten(x syntax.Expr, in *[]item) {
	switch x := x.(type) {
	case *syntax.BinaryExpr:
		if x.Negative {
			// A leading minus negates the first operand only:
			// -a op b is read as 0 - a op b.
			*in = append(*in,
				item{kind: itemOperand, elem: ir.Const(0)},
				item{kind: itemOp, op: syntax.OpSub})
		}
		a.flattenList(x, in)

	case *syntax.Number:
		*in = append(*in, item{kind: itemOperand, elem: ir.Const(a.int32Value(x))})

	case *syntax.Variable:
		sym := a.syms.Lookup(a.resolve(x.Name))
		if sym == nil {
			a.errorf(x.Pos(), "variable %s is not declared", x.Name)
		}
		if sym.IsArray() {
			a.errorf(x.Pos(), "array %s used without an index", x.Name)
		}
		*in = append(*in, item{kind: itemOperand, elem: ir.Elem{Op: ir.OpLoad, Slot: sym.Slot, Name: sym.Name}})

	case *syntax.ArrayAccess:
		sym := a.array(x)
		*in = append(*in, item{kind: itemMarker, elem: ir.Elem{Op: ir.OpLoadIndexed, Slot: sym.Slot, Name: sym.Name}})
		a.flattenIndex(x, sym, in)

	case *syntax.FuncCall:
		a.flattenCall(x, in)

	case *syntax.StringLit:
		a.errorf(x.Pos(), "string used in arithmetic expression")

	default:
		a.errorf(x.Pos(), "unexpected expression %T", x)
	}
}

// flattenList emits the operands and operators of x; nested lists are
// parenthesised.
func (a *Analyser) flattenList(x *syntax.BinaryExpr, in *[]item) {
	for i, opnd := range x.Operands {
		if i > 0 {
			*in = append(*in, item{kind: itemOp, op: x.Ops[i-1]})
		}
		if b, ok := opnd.(*syntax.BinaryExpr); ok {
			*in = append(*in, item{kind: itemLparen})
			a.flatten(b, in)
			*in = append(*in, item{kind: itemRparen})
			continue
		}
		a.flatten(opnd, in)
	}
}

func (a *Analyser) flattenIndex(x *syntax.ArrayAccess, sym *Symbol, in *[]item) {
	*in = append(*in, item{kind: itemLparen})
	for i, idx := range x.Indices {
		if i > 0 {
			*in = append(*in, item{kind: itemOp, op: syntax.OpAdd})
		}
		*in = append(*in, item{kind: itemLparen})
		a.flatten(idx, in)
		*in = append(*in, item{kind: itemRparen})
		for _, d := range sym.Dims[i+1:] {
			*in = append(*in,
				item{kind: itemOp, op: syntax.OpMul},
				item{kind: itemOperand, elem: ir.Const(int32(d))})
		}
	}
	*in = append(*in, item{kind: itemRparen})
}

func (a *Analyser) flattenCall(x *syntax.FuncCall, in *[]item) {
	var marker ir.Elem
	if x.Predefined {
		if !builtins.Contains(x.Name) {
			a.errorf(x.Pos(), "predefined function %s is not supported", x.Name)
		}
		if len(x.Args) != 1 {
			a.errorf(x.Pos(), "%s takes 1 argument, got %d", x.Name, len(x.Args))
		}
		marker = ir.Elem{Op: ir.OpBuiltin, Name: x.Name, Arity: 1}
	} else {
		fn := a.syms.LookupFunc(x.Name)
		if fn == nil {
			a.errorf(x.Pos(), "function FN %s is not defined", x.Name)
		}
		if len(x.Args) != len(fn.Params) {
			a.errorf(x.Pos(), "FN %s takes %d arguments, got %d", x.Name, len(fn.Params), len(x.Args))
		}
		marker = ir.Elem{Op: ir.OpCall, Name: x.Name, Arity: len(fn.Params)}
	}

	*in = append(*in, item{kind: itemMarker, elem: marker}, item{kind: itemLparen})
	for i, arg := range x.Args {
		if i > 0 {
			*in = append(*in, item{kind: itemComma})
		}
		a.flatten(arg, in)
	}
	*in = append(*in, item{kind: itemRparen})
}

// shunt runs the shunting-yard algorithm over a well-formed infix stream.
func shunt(in []item) ir.Postfix {
	var out ir.Postfix
	var stack []item
	top := func() *item {
		if len(stack) == 0 {
			return nil
		}
		return &stack[len(stack)-1]
	}
	pop := func() item {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return it
	}
	// unwind moves operators to the output down to the nearest parenthesis.
	unwind := func() {
		for t := top(); t != nil && t.kind == itemOp; t = top() {
			out = append(out, ir.Binary(pop().op))
		}
	}

	for _, it := range in {
		switch it.kind {
		case itemOperand:
			out = append(out, it.elem)
		case itemMarker, itemLparen:
			stack = append(stack, it)
		case itemOp:
			p := precedence(it.op)
			for t := top(); t != nil && t.kind == itemOp; t = top() {
				tp := precedence(t.op)
				if tp > p || (tp == p && !rightAssoc(it.op)) {
					out = append(out, ir.Binary(pop().op))
					continue
				}
				break
			}
			stack = append(stack, it)
		case itemComma:
			unwind()
		case itemRparen:
			unwind()
			pop() // (
			if t := top(); t != nil && t.kind == itemMarker {
				out = append(out, pop().elem)
			}
		}
	}
	for len(stack) > 0 {
		out = append(out, ir.Binary(pop().op))
	}
	return out
}
