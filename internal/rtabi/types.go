// Package rtabi defines the layout conventions shared between the code
// generator and the machine that executes its listings.
package rtabi

// WordSize is the size in bytes of an integer, a variable slot and an
// instruction.
const WordSize = 4

// Labels every listing defines.
const (
	// LabelEntry is the first instruction executed.
	LabelEntry = "main"

	// LabelVariables is the base of the variable area. Slot 0 is unused.
	LabelVariables = "variables"

	// LabelExeStack is the initial top of the return-address stack.
	LabelExeStack = "exe_stack"

	// LabelExpStack is the initial top of the expression stack.
	LabelExpStack = "exp_stack"
)

// Register roles
const (
	RegVariables = "r12"
	RegExeStack  = "r11"
	RegExpStack  = "sp"
)

// SlotOffset returns the byte offset of a variable slot from the base of
// the variable area.
func SlotOffset(slot int) int { return WordSize * slot }
