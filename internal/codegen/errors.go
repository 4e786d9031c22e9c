package codegen

import (
	"fmt"

	"github.com/you-not-fish/basicc/internal/syntax"
)

// GenerationError reports a failure while producing the listing, usually
// an output that cannot be created or written. Pos is zero when the
// failure is not tied to a source location.
type GenerationError struct {
	Pos syntax.Pos
	Msg string
	Err error
}

func (e *GenerationError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	if !e.Pos.IsValid() {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Pos, msg)
}

func (e *GenerationError) Unwrap() error { return e.Err }
