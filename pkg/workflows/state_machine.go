package workflows

import (
	"errors"
	"fmt"
)

// Proposal statuses
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusSigned   = "signed"
)

// ErrInvalidTransition is returned when a status change is not allowed
var ErrInvalidTransition = errors.New("invalid status transition")

// StateMachine enforces proposal status transitions
type StateMachine struct {
	allowedTransitions map[string][]string
}

// NewStateMachine creates a new state machine with allowed transitions
func NewStateMachine() *StateMachine {
	return &StateMachine{
		allowedTransitions: map[string][]string{
			StatusPending:  {StatusAccepted, StatusSigned},
			StatusAccepted: {StatusPending, StatusSigned},
			StatusSigned:   {},
		},
	}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine) CanTransition(from, to string) bool {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return false
	}
	for _, allowedTo := range allowed {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// Transition returns to when the change is allowed. Staying put is a no-op
// except for unknown statuses.
func (sm *StateMachine) Transition(from, to string) (string, error) {
	if _, known := sm.allowedTransitions[from]; known && from == to {
		return to, nil
	}
	if !sm.CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// GetAllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine) GetAllowedTransitions(from string) []string {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []string{}
	}
	return allowed
}

// StatusForAcceptance maps the accepted flag sent by clients to a status
func StatusForAcceptance(accepted bool) string {
	if accepted {
		return StatusAccepted
	}
	return StatusPending
}
