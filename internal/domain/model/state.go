package model

import "errors"

// State names a stage of a single analysis attempt.
type State string

// Attempt states. NeedsRetake, Complete and Error are terminal; a retake
// starts a fresh attempt in Idle rather than reusing this one.
const (
	StateIdle        State = "idle"
	StateDetecting   State = "detecting"
	StateNeedsRetake State = "needs_retake"
	StateSegmented   State = "segmented"
	StateScoring     State = "scoring"
	StateCardsBuilt  State = "cards_built"
	StateComplete    State = "complete"
	StateError       State = "error"
)

// ErrInvalidTransition reports a state change outside the attempt machine.
var ErrInvalidTransition = errors.New("invalid attempt state transition")

var transitions = map[State][]State{
	StateIdle:       {StateDetecting},
	StateDetecting:  {StateNeedsRetake, StateSegmented, StateError},
	StateSegmented:  {StateScoring},
	StateScoring:    {StateCardsBuilt, StateError},
	StateCardsBuilt: {StateComplete},
}

// Terminal reports whether no further transitions are allowed from s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether the attempt machine allows s -> next.
func (s State) CanTransition(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Transition returns next if the move is legal, or ErrInvalidTransition.
func (s State) Transition(next State) (State, error) {
	if !s.CanTransition(next) {
		return s, ErrInvalidTransition
	}
	return next, nil
}
