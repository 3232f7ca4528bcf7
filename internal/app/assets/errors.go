package assets

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingOutput means the stack was found but has no bucket output.
	ErrMissingOutput = errors.New("missing output")
	// ErrStackNotFound is returned by describers when the stack does not exist.
	ErrStackNotFound = errors.New("stack not found")
)

// ResolutionError reports a failed base url resolution. It is never
// swallowed by the rewriter: a view that cannot resolve its asset host
// fails to render.
type ResolutionError struct {
	Stack string
	Op    string // "describe" or "output"
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("assets: resolve base url for stack %q: %s: %v", e.Stack, e.Op, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
