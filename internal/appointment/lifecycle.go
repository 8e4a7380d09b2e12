package appointment

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStatus           = errors.New("invalid appointment status")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrAlreadyArrived          = errors.New("arrival already registered")
)

// State transitions:
//
//	awaited → arrived → completed
//	awaited → cancelled
//	arrived → cancelled
//
// completed and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusAwaited:   {StatusArrived, StatusCancelled},
	StatusArrived:   {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Next returns the statuses reachable from s in one step.
func Next(s Status) []Status {
	if s.IsTerminal() {
		return nil
	}
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// Transition moves a to the given status along the lifecycle.
func Transition(a Appointment, to Status) (Appointment, error) {
	if !to.IsValid() {
		return a, fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if a.Status.IsTerminal() {
		return a, fmt.Errorf("%w: %s is final", ErrInvalidStatusTransition, a.Status)
	}
	if !CanTransition(a.Status, to) {
		return a, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, a.Status, to)
	}
	a.Status = to
	return a, nil
}

// RegisterArrival is the front-desk check-in. Only awaited appointments can arrive.
func RegisterArrival(a Appointment) (Appointment, error) {
	switch a.Status {
	case StatusAwaited:
		a.Status = StatusArrived
		return a, nil
	case StatusArrived:
		return a, ErrAlreadyArrived
	default:
		return a, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, a.Status, StatusArrived)
	}
}

// SetStatus is the administrative override. It only checks that the status
// exists; lifecycle order is not enforced.
func SetStatus(a Appointment, s Status) (Appointment, error) {
	if !s.IsValid() {
		return a, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	a.Status = s
	return a, nil
}

// ParseStatus accepts the canonical lifecycle names.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}
