package workflow

import (
	"github.com/pkg/errors"
)

// Stage is where a session sits in the tailoring flow.
type Stage string

// Session stages.
const (
	StageInput      Stage = "input"
	StageProcessing Stage = "processing"
	StageResults    Stage = "results"
)

// ErrInvalidTransition is returned for a stage move the flow does not allow.
var ErrInvalidTransition = errors.New("invalid stage transition")

// validTransitions lists every allowed (from -> to) pair.
//
//nolint:gochecknoglobals // state machine table
var validTransitions = map[Stage][]Stage{
	StageInput:      {StageProcessing},
	StageProcessing: {StageResults, StageInput},
	StageResults:    {StageInput},
}

// IsTransitionAllowed reports whether moving from -> to is permitted.
func IsTransitionAllowed(from, to Stage) (ok bool) {
	for _, s := range validTransitions[from] {
		if s == to {
			ok = true
			return ok
		}
	}
	return ok
}

// transition returns the target stage, or ErrInvalidTransition.
func transition(from, to Stage) (next Stage, err error) {
	if !IsTransitionAllowed(from, to) {
		err = errors.Wrapf(ErrInvalidTransition, "%s -> %s", from, to)
		next = from
		return next, err
	}
	next = to
	return next, err
}
