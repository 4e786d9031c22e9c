// Package syntax implements lexical and syntactic analysis for line-numbered BASIC.
package syntax

import "fmt"

// Token represents the type of a lexical token.
type Token uint

const (
	// Special tokens
	_EOF   Token = iota // end of file
	_Error              // lexical error

	// Literals
	_Ident   // identifier: A, X1, TOTAL
	_Int     // digit run: 10, 007
	_String  // "text" (literal holds the text without quotes)
	_Comment // remainder of a REM line
	_Exd     // exponent marker E, only directly after a number

	// Operators
	_Add // +
	_Sub // -
	_Mul // *
	_Div // /
	_Pow // ^

	// Relational operators
	_Eql // =
	_Neq // <>
	_Lss // <
	_Gtr // >
	_Leq // <=
	_Geq // >=

	// Delimiters
	_Comma  // ,
	_Dot    // .
	_Lparen // (
	_Rparen // )

	// Keywords
	_Let
	_Fn
	_Def
	_Read
	_Data
	_Print
	_Go
	_To
	_Goto
	_If
	_Then
	_For
	_Step
	_Next
	_Dim
	_Gosub
	_Return
	_Rem
	_End

	// Predefined functions
	_FnSin
	_FnCos
	_FnTan
	_FnAtn
	_FnExp
	_FnAbs
	_FnLog
	_FnSqr
	_FnInt
	_FnRnd

	tokenCount
)

// tokenNames maps tokens to their string representation.
var tokenNames = [...]string{
	_EOF:   "EOF",
	_Error: "ERROR",

	_Ident:   "IDN",
	_Int:     "INT",
	_String:  "STR",
	_Comment: "CMT",
	_Exd:     "EXD",

	_Add: "+",
	_Sub: "-",
	_Mul: "*",
	_Div: "/",
	_Pow: "^",

	_Eql: "=",
	_Neq: "<>",
	_Lss: "<",
	_Gtr: ">",
	_Leq: "<=",
	_Geq: ">=",

	_Comma:  ",",
	_Dot:    ".",
	_Lparen: "(",
	_Rparen: ")",

	_Let:    "LET",
	_Fn:     "FN",
	_Def:    "DEF",
	_Read:   "READ",
	_Data:   "DATA",
	_Print:  "PRINT",
	_Go:     "GO",
	_To:     "TO",
	_Goto:   "GOTO",
	_If:     "IF",
	_Then:   "THEN",
	_For:    "FOR",
	_Step:   "STEP",
	_Next:   "NEXT",
	_Dim:    "DIM",
	_Gosub:  "GOSUB",
	_Return: "RETURN",
	_Rem:    "REM",
	_End:    "END",

	_FnSin: "SIN",
	_FnCos: "COS",
	_FnTan: "TAN",
	_FnAtn: "ATN",
	_FnExp: "EXP",
	_FnAbs: "ABS",
	_FnLog: "LOG",
	_FnSqr: "SQR",
	_FnInt: "INT",
	_FnRnd: "RND",
}

// String returns the string representation of the token.
func (t Token) String() string {
	if t < tokenCount {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", t)
}

// IsKeyword reports whether t is a reserved keyword.
func (t Token) IsKeyword() bool {
	return t >= _Let && t <= _End
}

// IsPredefined reports whether t names a predefined function.
func (t Token) IsPredefined() bool {
	return t >= _FnSin && t <= _FnRnd
}

// IsRelational reports whether t is a comparison operator.
func (t Token) IsRelational() bool {
	return t >= _Eql && t <= _Geq
}

// IsEOF reports whether t is the EOF token.
func (t Token) IsEOF() bool {
	return t == _EOF
}

// keywords maps reserved words and predefined function names to their token.
// Matching is exact: BASIC keywords are upper case.
var keywords = map[string]Token{
	"LET":    _Let,
	"FN":     _Fn,
	"DEF":    _Def,
	"READ":   _Read,
	"DATA":   _Data,
	"PRINT":  _Print,
	"GO":     _Go,
	"TO":     _To,
	"GOTO":   _Goto,
	"IF":     _If,
	"THEN":   _Then,
	"FOR":    _For,
	"STEP":   _Step,
	"NEXT":   _Next,
	"DIM":    _Dim,
	"GOSUB":  _Gosub,
	"RETURN": _Return,
	"REM":    _Rem,
	"END":    _End,

	"SIN": _FnSin,
	"COS": _FnCos,
	"TAN": _FnTan,
	"ATN": _FnAtn,
	"EXP": _FnExp,
	"ABS": _FnAbs,
	"LOG": _FnLog,
	"SQR": _FnSqr,
	"INT": _FnInt,
	"RND": _FnRnd,
}

// LookupKeyword returns the token for a letter run: a keyword, a
// predefined function name, or _Ident.
func LookupKeyword(word string) Token {
	if tok, ok := keywords[word]; ok {
		return tok
	}
	return _Ident
}
