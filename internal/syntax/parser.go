package syntax

import (
	"fmt"
	"io"
	"math"
	"strconv"
)

// SyntaxError represents a syntax error.
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// bailout is the panic value used to unwind the parser on the first error.
type bailout struct{}

// Parser performs syntax analysis on BASIC source code, one line at a time.
type Parser struct {
	scanner *Scanner

	// Current token info (the one-token lookahead, cached from scanner)
	tok Token
	lit string
	pos Pos

	primed bool
	first  error // first error encountered; parsing stops there
}

// NewParser creates a new Parser for the given source.
func NewParser(filename string, src io.Reader) (*Parser, error) {
	cls, err := NewClassifier(filename, src)
	if err != nil {
		return nil, err
	}
	return &Parser{scanner: NewScanner(cls)}, nil
}

// NextStatement parses the next source line. It returns (nil, nil) at end
// of input. After an error every call returns that same error.
func (p *Parser) NextStatement() (s Stmt, err error) {
	if p.first != nil {
		return nil, p.first
	}

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			s, err = nil, p.first
		}
	}()

	if !p.primed {
		p.primed = true
		p.next()
	}
	if p.tok == _EOF {
		return nil, nil
	}
	return p.stmt(), nil
}

// ParseProgram parses all remaining lines.
func (p *Parser) ParseProgram() ([]Stmt, error) {
	var list []Stmt
	for {
		s, err := p.NextStatement()
		if err != nil {
			return list, err
		}
		if s == nil {
			return list, nil
		}
		list = append(list, s)
	}
}

// ----------------------------------------------------------------------------
// Token navigation

// next advances to the next token. A lexical error stops the parser.
func (p *Parser) next() {
	p.scanner.Next()
	p.tok = p.scanner.Token()
	p.lit = p.scanner.Literal()
	p.pos = p.scanner.Pos()

	if p.tok == _Error {
		p.first = p.scanner.Err()
		panic(bailout{})
	}
}

// got reports whether the current token is tok.
// If so, it consumes the token and returns true.
func (p *Parser) got(tok Token) bool {
	if p.tok == tok {
		p.next()
		return true
	}
	return false
}

// want consumes the current token if it matches tok.
// Otherwise, reports an error.
func (p *Parser) want(tok Token) {
	if !p.got(tok) {
		p.syntaxError("expected " + tok.String())
	}
}

// expect is like want but returns the literal of the consumed token.
func (p *Parser) expect(tok Token) string {
	lit := p.lit
	p.want(tok)
	return lit
}

// ----------------------------------------------------------------------------
// Error handling

// syntaxError records a syntax error at the current token and unwinds.
func (p *Parser) syntaxError(msg string) {
	p.syntaxErrorAt(p.pos, fmt.Sprintf("unexpected %s, %s", p.tokDesc(), msg))
}

func (p *Parser) syntaxErrorAt(pos Pos, msg string) {
	p.first = &SyntaxError{Pos: pos, Msg: msg}
	panic(bailout{})
}

// tokDesc describes the current token for error messages.
func (p *Parser) tokDesc() string {
	switch p.tok {
	case _Ident:
		return "identifier " + p.lit
	case _Int:
		return "integer " + p.lit
	case _String:
		return "string"
	case _Comment:
		return "comment"
	case _EOF:
		return "EOF"
	}
	return strconv.Quote(p.tok.String())
}

// ----------------------------------------------------------------------------
// Statements

func (p *Parser) stmt() Stmt {
	pos := p.pos
	line := p.lineNumber()

	switch p.tok {
	case _Let:
		return p.assignStmt(pos, line)
	case _Read:
		return p.readStmt(pos, line)
	case _Data:
		return p.dataStmt(pos, line)
	case _Print:
		return p.printStmt(pos, line)
	case _Go, _Goto:
		return p.gotoStmt(pos, line)
	case _If:
		return p.ifStmt(pos, line)
	case _For:
		return p.forStmt(pos, line)
	case _Next:
		return p.nextStmt(pos, line)
	case _Dim:
		return p.dimStmt(pos, line)
	case _Def:
		return p.defStmt(pos, line)
	case _Gosub:
		return p.gosubStmt(pos, line)
	case _Return:
		s := &ReturnStmt{}
		s.pos, s.line = pos, line
		p.next()
		return s
	case _Rem:
		return p.remStmt(pos, line)
	case _End:
		s := &EndStmt{}
		s.pos, s.line = pos, line
		p.next()
		return s
	}

	p.syntaxError("expected statement keyword")
	return nil
}

// lineNumber parses an integer used as a line index or jump destination.
func (p *Parser) lineNumber() int {
	pos := p.pos
	lit := p.expect(_Int)
	n, err := strconv.Atoi(lit)
	if err != nil || n > math.MaxInt32 {
		p.syntaxErrorAt(pos, "line number "+lit+" out of range")
	}
	return n
}

// assignStmt = LET ident "=" expr .
func (p *Parser) assignStmt(pos Pos, line int) *AssignStmt {
	s := &AssignStmt{}
	s.pos, s.line = pos, line
	p.next()
	s.Target = p.variable()
	p.want(_Eql)
	s.Value = p.expr()
	return s
}

// readStmt = READ var { "," var } .
func (p *Parser) readStmt(pos Pos, line int) *ReadStmt {
	s := &ReadStmt{}
	s.pos, s.line = pos, line
	p.next()
	s.Targets = append(s.Targets, p.ref())
	for p.got(_Comma) {
		s.Targets = append(s.Targets, p.ref())
	}
	return s
}

// dataStmt = DATA snum { "," snum } .
func (p *Parser) dataStmt(pos Pos, line int) *DataStmt {
	s := &DataStmt{}
	s.pos, s.line = pos, line
	p.next()
	s.Values = append(s.Values, p.signedNumber())
	for p.got(_Comma) {
		s.Values = append(s.Values, p.signedNumber())
	}
	return s
}

// printStmt = PRINT item { "," item } .
func (p *Parser) printStmt(pos Pos, line int) *PrintStmt {
	s := &PrintStmt{}
	s.pos, s.line = pos, line
	p.next()
	s.Items = append(s.Items, p.printItem())
	for p.got(_Comma) {
		s.Items = append(s.Items, p.printItem())
	}
	return s
}

func (p *Parser) printItem() Expr {
	if p.tok == _String {
		x := &StringLit{Value: p.lit}
		x.pos = p.pos
		p.next()
		return x
	}
	return p.expr()
}

// gotoStmt = ( GOTO | GO ) [ TO ] int .
func (p *Parser) gotoStmt(pos Pos, line int) *GotoStmt {
	s := &GotoStmt{}
	s.pos, s.line = pos, line
	p.next()
	p.got(_To)
	s.Dest = p.lineNumber()
	return s
}

// ifStmt = IF expr relop expr THEN int .
func (p *Parser) ifStmt(pos Pos, line int) *IfStmt {
	s := &IfStmt{}
	s.pos, s.line = pos, line
	p.next()
	s.Left = p.expr()
	s.Rel = p.relation()
	s.Right = p.expr()
	p.want(_Then)
	s.Dest = p.lineNumber()
	return s
}

func (p *Parser) relation() Relation {
	var r Relation
	switch p.tok {
	case _Eql:
		r = RelEq
	case _Neq:
		r = RelNe
	case _Lss:
		r = RelLt
	case _Gtr:
		r = RelGt
	case _Leq:
		r = RelLe
	case _Geq:
		r = RelGe
	default:
		p.syntaxError("expected relational operator")
	}
	p.next()
	return r
}

// forStmt = FOR ident "=" expr TO expr [ STEP expr ] .
func (p *Parser) forStmt(pos Pos, line int) *ForStmt {
	s := &ForStmt{}
	s.pos, s.line = pos, line
	p.next()
	s.Var = p.variable()
	p.want(_Eql)
	s.Init = p.expr()
	p.want(_To)
	s.Limit = p.expr()
	if p.got(_Step) {
		s.Step = p.expr()
	} else {
		one := &Number{Text: "1", Value: 1}
		one.pos = pos
		step := &BinaryExpr{Operands: []Expr{one}}
		step.pos = pos
		s.Step = step
	}
	return s
}

// nextStmt = NEXT ident .
func (p *Parser) nextStmt(pos Pos, line int) *NextStmt {
	s := &NextStmt{}
	s.pos, s.line = pos, line
	p.next()
	s.Var = p.variable()
	return s
}

// dimStmt = DIM ident "(" int { "," int } ")" { "," ident "(" ... ")" } .
func (p *Parser) dimStmt(pos Pos, line int) *DimStmt {
	s := &DimStmt{}
	s.pos, s.line = pos, line
	p.next()
	s.Arrays = append(s.Arrays, p.arrayDecl())
	for p.got(_Comma) {
		s.Arrays = append(s.Arrays, p.arrayDecl())
	}
	return s
}

func (p *Parser) arrayDecl() *ArrayDecl {
	d := &ArrayDecl{}
	d.pos = p.pos
	d.Name = p.expect(_Ident)
	p.want(_Lparen)
	d.Dims = append(d.Dims, p.dimension())
	for p.got(_Comma) {
		d.Dims = append(d.Dims, p.dimension())
	}
	p.want(_Rparen)
	return d
}

func (p *Parser) dimension() int {
	pos := p.pos
	lit := p.expect(_Int)
	n, err := strconv.Atoi(lit)
	if err != nil || n > math.MaxInt32 {
		p.syntaxErrorAt(pos, "dimension "+lit+" out of range")
	}
	return n
}

// defStmt = DEF FN ident "(" [ ident { "," ident } ] ")" "=" expr .
func (p *Parser) defStmt(pos Pos, line int) *DefStmt {
	s := &DefStmt{}
	s.pos, s.line = pos, line
	p.next()
	p.want(_Fn)
	s.Name = p.expect(_Ident)
	p.want(_Lparen)
	if p.tok != _Rparen {
		s.Params = append(s.Params, p.variable())
		for p.got(_Comma) {
			s.Params = append(s.Params, p.variable())
		}
	}
	p.want(_Rparen)
	p.want(_Eql)
	s.Body = p.expr()
	return s
}

// gosubStmt = GOSUB int .
func (p *Parser) gosubStmt(pos Pos, line int) *GosubStmt {
	s := &GosubStmt{}
	s.pos, s.line = pos, line
	p.next()
	s.Dest = p.lineNumber()
	return s
}

// remStmt = REM comment .
func (p *Parser) remStmt(pos Pos, line int) *RemStmt {
	s := &RemStmt{}
	s.pos, s.line = pos, line
	p.next()
	s.Text = p.expect(_Comment)
	return s
}

// ----------------------------------------------------------------------------
// Expressions

// expr = [ "+" | "-" ] operand { op operand } .
func (p *Parser) expr() Expr {
	x := &BinaryExpr{}
	x.pos = p.pos

	switch p.tok {
	case _Add:
		p.next()
	case _Sub:
		x.Negative = true
		p.next()
	}

	x.Operands = append(x.Operands, p.operand())
	for {
		op, ok := p.operator()
		if !ok {
			break
		}
		p.next()
		x.Ops = append(x.Ops, op)
		x.Operands = append(x.Operands, p.operand())
	}
	return x
}

func (p *Parser) operator() (Operator, bool) {
	switch p.tok {
	case _Add:
		return OpAdd, true
	case _Sub:
		return OpSub, true
	case _Mul:
		return OpMul, true
	case _Div:
		return OpDiv, true
	case _Pow:
		return OpPow, true
	}
	return 0, false
}

// operand = number | ident [ "(" exprList ")" ] | call | "(" expr ")" .
func (p *Parser) operand() Expr {
	switch {
	case p.tok == _Int, p.tok == _Dot:
		return p.number()

	case p.tok == _Ident:
		return p.ref()

	case p.tok == _Lparen:
		p.next()
		x := p.expr()
		p.want(_Rparen)
		return x

	case p.tok == _Fn:
		pos := p.pos
		p.next()
		call := &FuncCall{Name: p.expect(_Ident)}
		call.pos = pos
		call.Args = p.args()
		return call

	case p.tok.IsPredefined():
		call := &FuncCall{Name: p.tok.String(), Predefined: true}
		call.pos = p.pos
		p.next()
		call.Args = p.args()
		return call
	}

	p.syntaxError("expected operand")
	return nil
}

// args = "(" [ expr { "," expr } ] ")" .
func (p *Parser) args() []Expr {
	var list []Expr
	p.want(_Lparen)
	if p.tok != _Rparen {
		list = p.exprList()
	}
	p.want(_Rparen)
	return list
}

func (p *Parser) exprList() []Expr {
	list := []Expr{p.expr()}
	for p.got(_Comma) {
		list = append(list, p.expr())
	}
	return list
}

// variable parses a plain identifier.
func (p *Parser) variable() *Variable {
	v := &Variable{}
	v.pos = p.pos
	v.Name = p.expect(_Ident)
	return v
}

// ref parses a scalar variable or an array element.
func (p *Parser) ref() Expr {
	v := p.variable()
	if !p.got(_Lparen) {
		return v
	}
	a := &ArrayAccess{Name: v.Name, Indices: p.exprList()}
	a.pos = v.pos
	p.want(_Rparen)
	return a
}

// number = ( int [ "." int ] | "." int ) [ EXD [ "+" | "-" ] int ] .
func (p *Parser) number() *Number {
	pos := p.pos
	intPart, fracPart, expPart := "0", "0", "0"
	text := ""

	if p.tok == _Int {
		intPart = p.lit
		text = p.lit
		p.next()
		if p.tok == _Dot {
			p.next()
			fracPart = p.expect(_Int)
			text += "." + fracPart
		}
	} else {
		p.want(_Dot)
		fracPart = p.expect(_Int)
		text = "." + fracPart
	}

	if p.got(_Exd) {
		sign := ""
		switch p.tok {
		case _Add:
			p.next()
		case _Sub:
			sign = "-"
			p.next()
		}
		expPart = sign + p.expect(_Int)
		text += "E" + expPart
	}

	// The digits are already validated, so the only possible error is a
	// range error; ParseFloat then returns ±Inf or 0, which saturate handles.
	f, _ := strconv.ParseFloat(intPart+"."+fracPart+"e"+expPart, 64)

	n := &Number{Text: text, Value: saturate(math.Round(f))}
	n.pos = pos
	return n
}

// signedNumber = [ "+" | "-" ] number .
func (p *Parser) signedNumber() *Number {
	pos := p.pos
	switch {
	case p.got(_Add):
		n := p.number()
		n.pos, n.Text = pos, "+"+n.Text
		return n
	case p.got(_Sub):
		n := p.number()
		n.pos, n.Text, n.Value = pos, "-"+n.Text, -n.Value
		return n
	}
	return p.number()
}

func saturate(f float64) int64 {
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= -math.MaxInt64:
		return -math.MaxInt64
	}
	return int64(f)
}
