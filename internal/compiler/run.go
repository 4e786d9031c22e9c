package compiler

import (
	"fmt"

	"github.com/you-not-fish/basicc/internal/machine"
)

// Execution is the final state of a simulated run.
type Execution struct {
	Steps  int
	Values map[string][]int32 // by symbol; scalars hold one element
}

// Execute assembles the listing of res and runs it until END.
func Execute(res *Result, cfg Config) (*Execution, error) {
	prog, err := machine.Assemble(string(res.Listing))
	if err != nil {
		return nil, fmt.Errorf("assembling %s: %w", res.Filename, err)
	}
	m := machine.New(prog, cfg.MaxSteps)
	if err := m.Run(); err != nil {
		return nil, fmt.Errorf("running %s: %w", res.Filename, err)
	}

	ex := &Execution{Steps: m.Steps(), Values: make(map[string][]int32, len(res.Symbols))}
	for _, s := range res.Symbols {
		vals := make([]int32, s.Size)
		for i := range vals {
			v, err := m.Variable(s.Slot + i)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		ex.Values[s.Name] = vals
	}
	logger.Debug("Executed program", "file", res.Filename, "steps", ex.Steps)
	return ex, nil
}

// Value returns the value of a scalar, or the first element of an array.
func (ex *Execution) Value(name string) (int32, bool) {
	vals, ok := ex.Values[name]
	if !ok || len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}
