package syntax

import (
	"fmt"
	"strings"
)

// LexicalError reports input the Scanner cannot turn into a token.
type LexicalError struct {
	Pos Pos
	Msg string
}

func (e *LexicalError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// scanState changes how the next token is read.
type scanState uint8

const (
	stateNormal  scanState = iota
	stateNumber            // after an integer or '.': 'E' may be an exponent marker
	stateComment           // after REM: the rest of the line is one token
)

// Scanner performs lexical analysis on BASIC source code.
// It pulls classified characters from a Classifier and is forward only.
type Scanner struct {
	cls *Classifier
	ch  Char // current character, not yet part of any token

	state scanState

	// Current token info
	tok    Token
	lit    string
	tokPos Pos

	err *LexicalError // sticky: once set, every token is _Error

	litBuf strings.Builder
}

// NewScanner creates a Scanner reading from cls.
func NewScanner(cls *Classifier) *Scanner {
	s := &Scanner{cls: cls}
	s.ch = cls.Next()
	return s
}

// Next advances to the next token.
func (s *Scanner) Next() {
	if s.err != nil {
		s.tok = _Error
		return
	}

	if s.state == stateComment {
		s.scanComment()
		s.state = stateNormal
		return
	}

	for s.ch.Class == Delimiter && s.ch.Ch != EOF {
		s.nextch()
	}

	s.tokPos = s.ch.Pos
	s.lit = ""

	switch {
	case s.ch.Ch == EOF:
		s.tok = _EOF

	case s.ch.Class == Letter:
		if s.state == stateNumber && s.ch.Ch == 'E' && s.exponentFollows() {
			s.tok = _Exd
			s.lit = "E"
			s.nextch()
		} else {
			s.scanWord()
		}

	case s.ch.Class == Digit:
		s.scanNumber()

	case s.ch.Ch == '"':
		s.scanString()

	case s.ch.Class == Symbol:
		s.scanOperator()

	default:
		s.errorf("unrecognized character %q", s.ch.Ch)
	}

	switch s.tok {
	case _Rem:
		s.state = stateComment
	case _Int, _Dot:
		s.state = stateNumber
	default:
		s.state = stateNormal
	}
}

// Token returns the current token type.
func (s *Scanner) Token() Token { return s.tok }

// Literal returns the current token's text.
func (s *Scanner) Literal() string { return s.lit }

// Pos returns the current token's start position.
func (s *Scanner) Pos() Pos { return s.tokPos }

// Err returns the lexical error that stopped the scanner, if any.
func (s *Scanner) Err() error {
	if s.err == nil {
		return nil
	}
	return s.err
}

func (s *Scanner) nextch() {
	s.ch = s.cls.Next()
}

// exponentFollows reports whether the character after the current one
// can start an exponent: a digit or a sign.
func (s *Scanner) exponentFollows() bool {
	next := s.cls.Peek()
	return next.Class == Digit || next.Ch == '+' || next.Ch == '-'
}

func (s *Scanner) errorf(format string, args ...interface{}) {
	s.err = &LexicalError{Pos: s.ch.Pos, Msg: fmt.Sprintf(format, args...)}
	s.tok = _Error
	s.lit = ""
}

// scanWord scans a letter run (letters then letters or digits) and
// classifies it as keyword, predefined function, or identifier.
func (s *Scanner) scanWord() {
	s.litBuf.Reset()
	for s.ch.Class == Letter || s.ch.Class == Digit {
		s.litBuf.WriteRune(s.ch.Ch)
		s.nextch()
	}
	s.lit = s.litBuf.String()
	s.tok = LookupKeyword(s.lit)
}

// scanNumber scans a digit run. A letter directly after the digits is a
// malformed number unless it is an exponent marker.
func (s *Scanner) scanNumber() {
	s.litBuf.Reset()
	for s.ch.Class == Digit {
		s.litBuf.WriteRune(s.ch.Ch)
		s.nextch()
	}
	if s.ch.Class == Letter && !(s.ch.Ch == 'E' && s.exponentFollows()) {
		s.errorf("malformed number %s%c", s.litBuf.String(), s.ch.Ch)
		return
	}
	s.lit = s.litBuf.String()
	s.tok = _Int
}

// scanString scans a double-quoted string. Everything up to the closing
// quote belongs to it, newlines included.
func (s *Scanner) scanString() {
	start := s.ch.Pos
	s.nextch()
	s.litBuf.Reset()
	for s.ch.Ch != '"' {
		if s.ch.Ch == EOF {
			s.err = &LexicalError{Pos: start, Msg: "string not terminated"}
			s.tok = _Error
			return
		}
		s.litBuf.WriteRune(s.ch.Ch)
		s.nextch()
	}
	s.nextch()
	s.lit = s.litBuf.String()
	s.tok = _String
}

// scanComment reads the rest of the current line after REM.
// Leading blanks and the line break are not part of the comment.
func (s *Scanner) scanComment() {
	for s.ch.Ch == ' ' || s.ch.Ch == '\t' {
		s.nextch()
	}
	s.tokPos = s.ch.Pos
	s.litBuf.Reset()
	for s.ch.Ch != '\n' && s.ch.Ch != EOF {
		s.litBuf.WriteRune(s.ch.Ch)
		s.nextch()
	}
	s.lit = strings.TrimRight(s.litBuf.String(), "\r")
	s.tok = _Comment
}

func (s *Scanner) scanOperator() {
	c := s.ch.Ch
	s.lit = string(c)
	s.nextch()

	switch c {
	case '+':
		s.tok = _Add
	case '-':
		s.tok = _Sub
	case '*':
		s.tok = _Mul
	case '/':
		s.tok = _Div
	case '^':
		s.tok = _Pow
	case '=':
		s.tok = _Eql
	case ',':
		s.tok = _Comma
	case '.':
		s.tok = _Dot
	case '(':
		s.tok = _Lparen
	case ')':
		s.tok = _Rparen
	case '<':
		switch s.ch.Ch {
		case '=':
			s.tok, s.lit = _Leq, "<="
			s.nextch()
		case '>':
			s.tok, s.lit = _Neq, "<>"
			s.nextch()
		default:
			s.tok = _Lss
		}
	case '>':
		if s.ch.Ch == '=' {
			s.tok, s.lit = _Geq, ">="
			s.nextch()
		} else {
			s.tok = _Gtr
		}
	default:
		s.err = &LexicalError{Pos: s.tokPos, Msg: fmt.Sprintf("unrecognized character %q", c)}
		s.tok = _Error
		s.lit = ""
	}
}
