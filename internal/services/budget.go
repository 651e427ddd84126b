package services

import (
	"heritage-route-service/internal/domain"
	"math"
)

const (
	// Minutes spent at each stop.
	VisitMinutesPerStop = 10
	// Dwell plus an average two-minute walk between stops, used to size a
	// route that fits a budget.
	MinutesPerStopEstimate = 12
	// Overrun tolerated before a route counts as over budget, in percent.
	BudgetTolerancePercent = 20
)

// BudgetVerdict is the outcome of checking a route against a time budget.
type BudgetVerdict struct {
	OK           bool
	WalkMinutes  int
	VisitMinutes int
	TotalMinutes int
	// Over budget by more than the tolerance. Implies !OK.
	Exceeded bool
	// Over budget but within tolerance. The route stands, with a caveat.
	Warning   bool
	Tolerance int
}

// ValidateBudget compares the projected walk plus dwell time against
// availableMinutes. A nil budget or skipCheck always passes.
//
// A route is exceeded only when it overruns by strictly more than the
// tolerance; an overrun equal to the tolerance is a warning.
func ValidateBudget(g domain.RouteGeometry, nodeCount int, availableMinutes *int, skipCheck bool) BudgetVerdict {
	walk := int(math.Round(g.DurationSeconds / 60))
	visit := nodeCount * VisitMinutesPerStop
	v := BudgetVerdict{
		OK:           true,
		WalkMinutes:  walk,
		VisitMinutes: visit,
		TotalMinutes: walk + visit,
	}

	if availableMinutes == nil || skipCheck {
		return v
	}

	available := *availableMinutes
	v.Tolerance = tolerance(available)

	over := v.TotalMinutes - available
	switch {
	case over > v.Tolerance:
		v.OK = false
		v.Exceeded = true
	case over > 0:
		v.Warning = true
	}
	return v
}

// tolerance is ceil(available * 20%) in integer arithmetic.
func tolerance(available int) int {
	if available <= 0 {
		return 0
	}
	return (available*BudgetTolerancePercent + 99) / 100
}

// Proposal is a shorter route offered after a budget overrun.
type Proposal struct {
	MaxPossibleNodes int
	ReducedCount     int
	// False when not even a single stop fits; the caller must not retry.
	Feasible bool
}

// NegotiateBudget proposes how many stops fit availableMinutes, always
// fewer than currentCount.
func NegotiateBudget(availableMinutes, currentCount int) Proposal {
	maxPossible := 1
	if availableMinutes > 0 {
		maxPossible = max(1, availableMinutes/MinutesPerStopEstimate)
	}

	reduced := min(maxPossible, currentCount-1)
	return Proposal{
		MaxPossibleNodes: maxPossible,
		ReducedCount:     reduced,
		Feasible:         reduced >= 1,
	}
}
