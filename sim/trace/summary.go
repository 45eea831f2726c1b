package trace

// Summary aggregates a recorded trace.
type Summary struct {
	Proposed       int     // veto candidates recorded
	Committed      int     // accepted candidates
	EmptyCell      int     // candidates with an empty target cell
	Thinned        int     // candidates rejected by thinning
	NegativeRate   int     // candidates with non-positive exact derivative
	AcceptanceRate float64 // Committed / Proposed, 0 when nothing recorded
	Violations     int     // bound violations observed
}

// Summarize reduces the trace to counters and the empirical acceptance rate.
func (st *SimulationTrace) Summarize() Summary {
	summary := Summary{Proposed: len(st.Vetoes), Violations: len(st.Violations)}
	for _, record := range st.Vetoes {
		switch record.Outcome {
		case OutcomeCommitted:
			summary.Committed++
		case OutcomeCancelledEmptyCell:
			summary.EmptyCell++
		case OutcomeCancelledThinning:
			summary.Thinned++
		case OutcomeCancelledNegativeRate:
			summary.NegativeRate++
		}
	}
	if summary.Proposed > 0 {
		summary.AcceptanceRate = float64(summary.Committed) / float64(summary.Proposed)
	}
	return summary
}
