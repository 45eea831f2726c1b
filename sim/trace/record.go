package trace

// VetoOutcome labels how a cell-veto candidate event was resolved.
type VetoOutcome string

const (
	// OutcomeCommitted marks an accepted event followed by a lifting.
	OutcomeCommitted VetoOutcome = "committed"
	// OutcomeCancelledEmptyCell marks a candidate whose target cell held no
	// occupant.
	OutcomeCancelledEmptyCell VetoOutcome = "cancelled-empty-cell"
	// OutcomeCancelledThinning marks a candidate rejected by the thinning
	// draw against the bounding rate.
	OutcomeCancelledThinning VetoOutcome = "cancelled-thinning"
	// OutcomeCancelledNegativeRate marks a candidate whose exact derivative
	// was not positive, so no event could occur.
	OutcomeCancelledNegativeRate VetoOutcome = "cancelled-negative-rate"
)

// VetoRecord captures one resolved cell-veto candidate.
type VetoRecord struct {
	Time         float64     // event time of the candidate
	Slot         int         // veto handler pool slot
	Axis         int         // axis of motion of the active unit
	ActiveUnit   int         // identifier of the active unit
	TargetCell   string      // identifier string of the sampled target cell
	Outcome      VetoOutcome // how the candidate was resolved
	BoundingRate float64     // cell-level bounding event rate
	Derivative   float64     // exact directional derivative (0 for empty cells)
}

// BoundViolationRecord captures an exact derivative exceeding its
// precomputed bound. Rare, small violations keep the run statistically
// usable, but any violation points at an estimator bug.
type BoundViolationRecord struct {
	Time         float64
	Slot         int
	ActiveUnit   int
	TargetUnit   int
	BoundingRate float64
	Derivative   float64
}
