package core

import "time"

// ConvergenceOutcome tags the result of a convergence decision.
type ConvergenceOutcome string

const (
	// OutcomeAdvance means every load is planned and the list should move
	// to PLANNED now.
	OutcomeAdvance ConvergenceOutcome = "advance"

	// OutcomeNotYet means at least one load is still unplanned; nothing to
	// do until the next sibling event arrives.
	OutcomeNotYet ConvergenceOutcome = "not_yet"

	// OutcomeAlreadyConverged means the list is already PLANNED or beyond;
	// the event is a stale duplicate or a late sibling and must be a no-op.
	OutcomeAlreadyConverged ConvergenceOutcome = "already_converged"
)

// ConvergenceDecision is the outcome of DecideConvergence together with the
// planned/total counts used for observability logging.
//
// Construct it only through DecideConvergence.
type ConvergenceDecision struct {
	Outcome      ConvergenceOutcome
	PlannedLoads int
	TotalLoads   int
}

// ShouldAdvance reports whether the caller must apply and persist the
// RECEIVED -> PROCESSING -> PLANNED transitions.
func (d ConvergenceDecision) ShouldAdvance() bool {
	return d.Outcome == OutcomeAdvance
}

// DecideConvergence implements the convergence predicate: a picking list
// may advance to PLANNED exactly when every one of its loads reports
// PLANNED.
//
// This is a pure function. The caller is responsible for reading the loads
// from the system of record (never from the event payload or a cache) so
// the decision is based on current state. Arrival order of the sibling
// events that trigger repeated decisions cannot affect the final outcome.
func DecideConvergence(list *PickingList, loads []Load) ConvergenceDecision {
	if list.IsPlanningSettled() {
		return ConvergenceDecision{Outcome: OutcomeAlreadyConverged}
	}

	planned := 0
	for _, load := range loads {
		if load.IsPlanned() {
			planned++
		}
	}

	if len(loads) == 0 || planned < len(loads) {
		return ConvergenceDecision{
			Outcome:      OutcomeNotYet,
			PlannedLoads: planned,
			TotalLoads:   len(loads),
		}
	}

	return ConvergenceDecision{
		Outcome:      OutcomeAdvance,
		PlannedLoads: planned,
		TotalLoads:   len(loads),
	}
}

// AdvanceToPlanned applies the allowed transitions in memory on the single
// loaded aggregate, batching RECEIVED -> PROCESSING -> PLANNED into one
// upcoming save. This halves the optimistic-lock conflict surface compared
// to persisting the two hops separately.
func AdvanceToPlanned(list *PickingList, occurredAt time.Time) error {
	if list.Status == ListStatusReceived {
		if err := list.StartProcessing(occurredAt); err != nil {
			return err
		}
	}

	return list.MarkPlanned(occurredAt)
}
