package syntax

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes a textual representation of the AST rooted at node to w.
func Fprint(w io.Writer, node Node) {
	p := &printer{w: w}
	p.print(node)
}

type printer struct {
	w      io.Writer
	indent int
}

func (p *printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s%s", strings.Repeat("  ", p.indent), fmt.Sprintf(format, args...))
}

// field prints a labelled child one level deeper.
func (p *printer) field(label string, n Node) {
	p.printf("%s:\n", label)
	p.indent++
	p.print(n)
	p.indent--
}

func (p *printer) list(label string, exprs []Expr) {
	p.printf("%s:\n", label)
	p.indent++
	for _, x := range exprs {
		p.print(x)
	}
	p.indent--
}

func (p *printer) print(node Node) {
	if node == nil {
		return
	}

	switch n := node.(type) {
	// Statements
	case *AssignStmt:
		p.printf("AssignStmt %d %s\n", n.line, n.pos)
		p.indent++
		p.printf("Target: %s\n", n.Target.Name)
		p.field("Value", n.Value)
		p.indent--

	case *ReadStmt:
		p.printf("ReadStmt %d %s\n", n.line, n.pos)
		p.indent++
		p.list("Targets", n.Targets)
		p.indent--

	case *DataStmt:
		p.printf("DataStmt %d %s\n", n.line, n.pos)
		p.indent++
		for _, v := range n.Values {
			p.print(v)
		}
		p.indent--

	case *PrintStmt:
		p.printf("PrintStmt %d %s\n", n.line, n.pos)
		p.indent++
		p.list("Items", n.Items)
		p.indent--

	case *GotoStmt:
		p.printf("GotoStmt %d %s\n", n.line, n.pos)
		p.indent++
		p.printf("Dest: %d\n", n.Dest)
		p.indent--

	case *IfStmt:
		p.printf("IfStmt %d %s\n", n.line, n.pos)
		p.indent++
		p.field("Left", n.Left)
		p.printf("Rel: %s\n", n.Rel)
		p.field("Right", n.Right)
		p.printf("Dest: %d\n", n.Dest)
		p.indent--

	case *ForStmt:
		p.printf("ForStmt %d %s\n", n.line, n.pos)
		p.indent++
		p.printf("Var: %s\n", n.Var.Name)
		p.field("Init", n.Init)
		p.field("Limit", n.Limit)
		p.field("Step", n.Step)
		p.indent--

	case *NextStmt:
		p.printf("NextStmt %d %s\n", n.line, n.pos)
		p.indent++
		p.printf("Var: %s\n", n.Var.Name)
		p.indent--

	case *DimStmt:
		p.printf("DimStmt %d %s\n", n.line, n.pos)
		p.indent++
		for _, a := range n.Arrays {
			p.print(a)
		}
		p.indent--

	case *ArrayDecl:
		p.printf("ArrayDecl %s %v\n", n.Name, n.Dims)

	case *DefStmt:
		p.printf("DefStmt %d %s\n", n.line, n.pos)
		p.indent++
		p.printf("Name: %s\n", n.Name)
		params := make([]string, len(n.Params))
		for i, v := range n.Params {
			params[i] = v.Name
		}
		p.printf("Params: [%s]\n", strings.Join(params, ", "))
		p.field("Body", n.Body)
		p.indent--

	case *GosubStmt:
		p.printf("GosubStmt %d %s\n", n.line, n.pos)
		p.indent++
		p.printf("Dest: %d\n", n.Dest)
		p.indent--

	case *ReturnStmt:
		p.printf("ReturnStmt %d %s\n", n.line, n.pos)

	case *RemStmt:
		p.printf("RemStmt %d %s %q\n", n.line, n.pos, n.Text)

	case *EndStmt:
		p.printf("EndStmt %d %s\n", n.line, n.pos)

	// Expressions
	case *Number:
		p.printf("Number %s = %d\n", n.Text, n.Value)

	case *StringLit:
		p.printf("StringLit %q\n", n.Value)

	case *Variable:
		p.printf("Variable %s\n", n.Name)

	case *ArrayAccess:
		p.printf("ArrayAccess %s\n", n.Name)
		p.indent++
		for _, x := range n.Indices {
			p.print(x)
		}
		p.indent--

	case *FuncCall:
		if n.Predefined {
			p.printf("FuncCall %s (predefined)\n", n.Name)
		} else {
			p.printf("FuncCall FN %s\n", n.Name)
		}
		p.indent++
		for _, x := range n.Args {
			p.print(x)
		}
		p.indent--

	case *BinaryExpr:
		if n.Negative {
			p.printf("BinaryExpr (negative)\n")
		} else {
			p.printf("BinaryExpr\n")
		}
		p.indent++
		p.print(n.Operands[0])
		for i, op := range n.Ops {
			p.printf("Op %s\n", op)
			p.print(n.Operands[i+1])
		}
		p.indent--

	default:
		p.printf("<unknown node %T>\n", node)
	}
}
