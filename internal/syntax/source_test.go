package syntax

import (
	"errors"
	"strings"
	"testing"
)

func newTestClassifier(t *testing.T, src string) *Classifier {
	t.Helper()
	c, err := NewClassifier("test.bas", strings.NewReader(src))
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return c
}

func TestClassifierSequence(t *testing.T) {
	c := newTestClassifier(t, "A1 +\n\"?")

	want := []struct {
		ch        rune
		class     CharClass
		line, col uint32
	}{
		{'A', Letter, 1, 1},
		{'1', Digit, 1, 2},
		{' ', Delimiter, 1, 3},
		{'+', Symbol, 1, 4},
		{'\n', Delimiter, 1, 5},
		{'"', Symbol, 2, 1},
		{'?', Symbol, 2, 2},
		{EOF, Delimiter, 2, 3},
	}

	for i, w := range want {
		got := c.Next()
		if got.Ch != w.ch || got.Class != w.class {
			t.Fatalf("char %d = (%q, %s), want (%q, %s)", i, got.Ch, got.Class, w.ch, w.class)
		}
		if got.Pos.Line() != w.line || got.Pos.Col() != w.col {
			t.Errorf("char %d at %d:%d, want %d:%d", i, got.Pos.Line(), got.Pos.Col(), w.line, w.col)
		}
	}
}

func TestClassifierPeek(t *testing.T) {
	c := newTestClassifier(t, "XY")

	if got := c.Peek(); got.Ch != 'X' {
		t.Fatalf("Peek() = %q, want 'X'", got.Ch)
	}
	if got := c.Peek(); got.Ch != 'X' {
		t.Fatalf("second Peek() = %q, want 'X'", got.Ch)
	}
	if got := c.Next(); got.Ch != 'X' || got.Pos.Col() != 1 {
		t.Fatalf("Next() = %q at col %d, want 'X' at col 1", got.Ch, got.Pos.Col())
	}
	if got := c.Next(); got.Ch != 'Y' || got.Pos.Col() != 2 {
		t.Fatalf("Next() = %q at col %d, want 'Y' at col 2", got.Ch, got.Pos.Col())
	}
	if got := c.Next(); got.Ch != EOF {
		t.Fatalf("Next() = %q, want EOF", got.Ch)
	}
	// EOF is sticky.
	if got := c.Next(); got.Ch != EOF || got.Class != Delimiter {
		t.Fatalf("Next() after EOF = %q (%s), want EOF delimiter", got.Ch, got.Class)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		ch   rune
		want CharClass
	}{
		{'0', Digit},
		{'9', Digit},
		{'a', Letter},
		{'Z', Letter},
		{'\t', Delimiter},
		{'\r', Delimiter},
		{EOF, Delimiter},
		{'<', Symbol},
		{'^', Symbol},
		{'"', Symbol},
		{0x7f, Unknown},
		{0xc3, Unknown},
		{0, Unknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.ch); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.ch, got, tt.want)
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestClassifierReadError(t *testing.T) {
	_, err := NewClassifier("bad.bas", failingReader{})
	if err == nil || !strings.Contains(err.Error(), "disk on fire") {
		t.Fatalf("NewClassifier error = %v, want wrapped read error", err)
	}
}
