package resolve

import (
	"errors"
	"fmt"

	"github.com/resolvr-io/resolvr/internal/params"
)

// ErrStackNotFound is returned by a StackOutputLookup when the named
// stack does not exist in the target region. It is the one lookup
// failure the pipeline treats as soft.
var ErrStackNotFound = errors.New("stack does not exist")

// FatalError aborts the whole resolution. It wraps an underlying API
// failure that indicates the result cannot be trusted (authorization,
// throttling exhaustion, malformed response) rather than a resource
// being simply absent, or a missing required input.
type FatalError struct {
	Stage params.Stage
	Op    string
	Err   error
}

func (e *FatalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resolution aborted in %s stage: %s", e.Stage, e.Op)
	}
	return fmt.Sprintf("resolution aborted in %s stage: %s: %v", e.Stage, e.Op, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

func fatal(stage params.Stage, op string, err error) *FatalError {
	return &FatalError{Stage: stage, Op: op, Err: err}
}
