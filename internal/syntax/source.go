package syntax

import (
	"fmt"
	"io"
)

// EOF is the Ch value of the character returned at end of input.
const EOF = -1

// CharClass is the category of an input character.
type CharClass uint8

const (
	Unknown   CharClass = iota // anything outside the BASIC character set
	Digit                      // 0-9
	Letter                     // a-z, A-Z
	Symbol                     // punctuation and operator characters
	Delimiter                  // space, tab, CR, LF and end of input
)

var charClassNames = [...]string{
	Unknown:   "UNKNOWN",
	Digit:     "DIGIT",
	Letter:    "LETTER",
	Symbol:    "SYMBOL",
	Delimiter: "DELIMITER",
}

func (c CharClass) String() string {
	if int(c) < len(charClassNames) {
		return charClassNames[c]
	}
	return fmt.Sprintf("CharClass(%d)", c)
}

// Char is one classified input character.
type Char struct {
	Ch    rune // the byte read, or EOF
	Class CharClass
	Pos   Pos
}

// Classifier reads raw bytes and tags each one with its CharClass and
// position. It never fails: characters the language does not know are
// tagged Unknown and left for the Scanner to reject.
type Classifier struct {
	buf      []byte
	offs     int
	filename string
	line     uint32
	col      uint32
	prev     rune // last character returned by Next
	peeked   *Char
}

// NewClassifier reads all of src and returns a Classifier positioned
// before the first character. A read failure is returned as-is.
func NewClassifier(filename string, src io.Reader) (*Classifier, error) {
	buf, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return &Classifier{
		buf:      buf,
		filename: filename,
		line:     1,
		prev:     EOF,
	}, nil
}

// Next consumes and returns the next classified character.
// At end of input it keeps returning an EOF Delimiter.
func (c *Classifier) Next() Char {
	if c.peeked != nil {
		ch := *c.peeked
		c.peeked = nil
		return ch
	}
	return c.read()
}

// Peek returns the next classified character without consuming it.
func (c *Classifier) Peek() Char {
	if c.peeked == nil {
		ch := c.read()
		c.peeked = &ch
	}
	return *c.peeked
}

func (c *Classifier) read() Char {
	// The position of a character is derived from the one before it:
	// a newline moves the following character to column 1 of the next line.
	if c.prev == '\n' {
		c.line++
		c.col = 1
	} else {
		c.col++
	}

	pos := NewPos(c.filename, c.line, c.col)
	if c.offs >= len(c.buf) {
		c.prev = EOF
		return Char{Ch: EOF, Class: Delimiter, Pos: pos}
	}

	b := rune(c.buf[c.offs])
	c.offs++
	c.prev = b
	return Char{Ch: b, Class: Classify(b), Pos: pos}
}

// Classify returns the class of a single character.
func Classify(r rune) CharClass {
	switch {
	case r == EOF, r == ' ', r == '\t', r == '\r', r == '\n':
		return Delimiter
	case '0' <= r && r <= '9':
		return Digit
	case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		return Letter
	case isSymbol(r):
		return Symbol
	}
	return Unknown
}

func isSymbol(r rune) bool {
	switch r {
	case '!', '@', '#', '%', '&', '*', '(', ')', '_', '+', '-', '=',
		'{', '[', '}', ']', '?', '/', '\\', '\'', '^', '~', '<', ',',
		'>', '.', ':', ';', '|', '"', '`', '$':
		return true
	}
	return false
}
