package syntax

// ----------------------------------------------------------------------------
// Interfaces
//
// There are 2 classes of nodes: Expressions and Statements. Every source
// line yields exactly one Statement; expressions hang off statements.

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() Pos // position of first character belonging to the node
	aNode()   // marker method to restrict implementations to this package
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	aExpr()
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	Line() int // BASIC line index
	aStmt()
}

// ----------------------------------------------------------------------------
// Base node types

type node struct {
	pos Pos
}

func (n *node) Pos() Pos { return n.pos }
func (n *node) aNode()   {}

type expr struct{ node }

func (*expr) aExpr() {}

type stmt struct {
	node
	line int
}

func (s *stmt) Line() int { return s.line }
func (*stmt) aStmt()      {}

// ----------------------------------------------------------------------------
// Operators

// Operator is an arithmetic operator inside a BinaryExpr.
type Operator uint8

const (
	OpAdd Operator = iota // +
	OpSub                 // -
	OpMul                 // *
	OpDiv                 // /
	OpPow                 // ^
)

var operatorNames = [...]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpPow: "^",
}

func (op Operator) String() string { return operatorNames[op] }

// Relation is the comparison of an IF statement.
type Relation uint8

const (
	RelEq Relation = iota // =
	RelNe                 // <>
	RelLt                 // <
	RelGt                 // >
	RelLe                 // <=
	RelGe                 // >=
)

var relationNames = [...]string{
	RelEq: "=",
	RelNe: "<>",
	RelLt: "<",
	RelGt: ">",
	RelLe: "<=",
	RelGe: ">=",
}

func (r Relation) String() string { return relationNames[r] }

// ----------------------------------------------------------------------------
// Expressions

// Number is a numeric literal. Value is the literal rounded to the
// nearest integer, saturated at the int64 range.
type Number struct {
	expr
	Text  string // source spelling, e.g. "1.5E2"
	Value int64
}

// StringLit is a quoted string; it only appears as a PRINT item.
type StringLit struct {
	expr
	Value string // without quotes
}

// Variable is a scalar variable reference.
type Variable struct {
	expr
	Name string
}

// ArrayAccess is an array element reference: A(I, J).
type ArrayAccess struct {
	expr
	Name    string
	Indices []Expr
}

// FuncCall is a call to a user function (FN F(X)) or a predefined one (ABS(X)).
type FuncCall struct {
	expr
	Name       string // F for FN F, ABS for ABS
	Predefined bool
	Args       []Expr
}

// BinaryExpr is a flat operand/operator list. Operators are kept in source
// order and len(Ops) == len(Operands)-1. Negative records a leading unary
// minus applied to the whole list.
type BinaryExpr struct {
	expr
	Negative bool
	Operands []Expr
	Ops      []Operator
}

// ----------------------------------------------------------------------------
// Statements

// AssignStmt: LET Target = Value
type AssignStmt struct {
	stmt
	Target *Variable
	Value  Expr
}

// ReadStmt: READ v {, v}. Each target is a *Variable or *ArrayAccess.
type ReadStmt struct {
	stmt
	Targets []Expr
}

// DataStmt: DATA n {, n}
type DataStmt struct {
	stmt
	Values []*Number
}

// PrintStmt: PRINT item {, item}. Items are *StringLit or expressions.
type PrintStmt struct {
	stmt
	Items []Expr
}

// GotoStmt: GOTO n, GO TO n
type GotoStmt struct {
	stmt
	Dest int
}

// IfStmt: IF Left Rel Right THEN Dest
type IfStmt struct {
	stmt
	Left  Expr
	Rel   Relation
	Right Expr
	Dest  int
}

// ForStmt: FOR Var = Init TO Limit [STEP Step]
type ForStmt struct {
	stmt
	Var   *Variable
	Init  Expr
	Limit Expr
	Step  Expr // literal 1 when STEP is absent
}

// NextStmt: NEXT Var
type NextStmt struct {
	stmt
	Var *Variable
}

// ArrayDecl is one array of a DIM statement.
type ArrayDecl struct {
	node
	Name string
	Dims []int
}

// DimStmt: DIM A(n {, n}) {, ...}
type DimStmt struct {
	stmt
	Arrays []*ArrayDecl
}

// DefStmt: DEF FN Name(Params) = Body
type DefStmt struct {
	stmt
	Name   string
	Params []*Variable
	Body   Expr
}

// GosubStmt: GOSUB n
type GosubStmt struct {
	stmt
	Dest int
}

// ReturnStmt: RETURN
type ReturnStmt struct {
	stmt
}

// RemStmt: REM text
type RemStmt struct {
	stmt
	Text string
}

// EndStmt: END
type EndStmt struct {
	stmt
}
