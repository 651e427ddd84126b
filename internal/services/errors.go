package services

import (
	"errors"
	"fmt"
)

// ErrProviderUnavailable is wrapped by every ProviderError.
var ErrProviderUnavailable = errors.New("provider unavailable")

// PreconditionError is returned when a route request cannot be attempted at
// all. No network call is made before it is returned.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("route precondition failed: %s", e.Reason)
}

// ProviderError records a failed call to an external provider. It is
// recovered by falling through to the next ordering path or geometry tier.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrProviderUnavailable, e.Err}
}

// InfeasibleError is returned when no number of stops fits the time budget.
type InfeasibleError struct {
	AvailableMinutes int
	TotalMinutes     int
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf(
		"no route fits the time budget: available=%dmin planned=%dmin",
		e.AvailableMinutes, e.TotalMinutes,
	)
}
