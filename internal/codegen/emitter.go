package codegen

import (
	"fmt"
	"io"

	"github.com/you-not-fish/basicc/internal/rtabi"
)

// emitter wraps an io.Writer with helpers for emitting assembly text.
type emitter struct {
	w   io.Writer
	err error // first write error
}

// emit writes a formatted line to the output (no indentation).
func (e *emitter) emit(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format+"\n", args...)
}

// emitLine writes a blank line.
func (e *emitter) emitLine() {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintln(e.w)
}

// emitComment writes a comment line.
func (e *emitter) emitComment(text string) {
	e.emit("/* %s */", text)
}

// emitLabel writes a label on its own line.
func (e *emitter) emitLabel(name string) {
	e.emit("%s:", name)
}

// emitInst writes an indented instruction with the mnemonic padded to a
// fixed column.
func (e *emitter) emitInst(mnemonic, format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, "\t%-9s"+format+"\n", append([]interface{}{mnemonic}, args...)...)
}

// lineLabel returns the label of the block generated for a line index.
func lineLabel(line int) string {
	return fmt.Sprintf("L%d", line)
}

func slotOffset(slot int) int {
	return rtabi.SlotOffset(slot)
}
