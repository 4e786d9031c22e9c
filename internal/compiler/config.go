package compiler

import (
	"fmt"

	"github.com/you-not-fish/basicc/internal/codegen"
)

// Config holds the knobs of a compilation and of simulated runs.
type Config struct {
	// StackSize is the size in bytes of each runtime stack.
	StackSize int
	// PowZeroExponentOne makes x^0 evaluate to 1 instead of 0.
	PowZeroExponentOne bool
	// InclusiveFor runs FOR loops up to and including the limit, in the
	// direction of the step sign.
	InclusiveFor bool
	// MaxSteps bounds simulated execution; 0 means unbounded.
	MaxSteps int
}

// DefaultConfig contains the default settings.
var DefaultConfig = Config{
	StackSize: codegen.DefaultStackSize,
	MaxSteps:  10_000_000,
}

// Validate reports settings the generated code cannot work with.
func (c *Config) Validate() error {
	if c.StackSize <= 0 || c.StackSize%4 != 0 {
		return fmt.Errorf("stack size %d must be a positive multiple of 4", c.StackSize)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max steps %d must not be negative", c.MaxSteps)
	}
	return nil
}

func (c *Config) codegen(source string) codegen.Config {
	return codegen.Config{
		StackSize:          c.StackSize,
		PowZeroExponentOne: c.PowZeroExponentOne,
		InclusiveFor:       c.InclusiveFor,
		Source:             source,
	}
}
