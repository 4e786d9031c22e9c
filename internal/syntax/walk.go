package syntax

// Visitor is called for each node during Walk.
// If it returns false, the children of the node are not visited.
type Visitor func(node Node) bool

// Walk traverses an AST in depth-first order.
func Walk(node Node, v Visitor) {
	if node == nil || !v(node) {
		return
	}

	switch n := node.(type) {
	case *AssignStmt:
		Walk(n.Target, v)
		Walk(n.Value, v)

	case *ReadStmt:
		walkList(n.Targets, v)

	case *DataStmt:
		for _, x := range n.Values {
			Walk(x, v)
		}

	case *PrintStmt:
		walkList(n.Items, v)

	case *IfStmt:
		Walk(n.Left, v)
		Walk(n.Right, v)

	case *ForStmt:
		Walk(n.Var, v)
		Walk(n.Init, v)
		Walk(n.Limit, v)
		Walk(n.Step, v)

	case *NextStmt:
		Walk(n.Var, v)

	case *DimStmt:
		for _, a := range n.Arrays {
			Walk(a, v)
		}

	case *DefStmt:
		for _, p := range n.Params {
			Walk(p, v)
		}
		Walk(n.Body, v)

	case *ArrayAccess:
		walkList(n.Indices, v)

	case *FuncCall:
		walkList(n.Args, v)

	case *BinaryExpr:
		walkList(n.Operands, v)

	case *GotoStmt, *GosubStmt, *ReturnStmt, *RemStmt, *EndStmt,
		*ArrayDecl, *Number, *StringLit, *Variable:
		// leaves
	}
}

func walkList(list []Expr, v Visitor) {
	for _, x := range list {
		Walk(x, v)
	}
}
