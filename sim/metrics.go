package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/ecmc-sim/ecmc-sim/sim/trace"
)

// Metrics aggregates counters over one run.
type Metrics struct {
	BoundaryCrossings int // committed cell boundary crossings
	VetoCandidates    int // resolved cell-veto candidates
	VetoCommitted     int // confirmed cell-veto events (liftings)
	VetoEmptyCell     int // candidates cancelled on an empty target cell
	VetoThinned       int // candidates cancelled by the thinning draw
	VetoNegativeRate  int // candidates cancelled on a non-positive derivative
	ChainEnds         int // committed end-of-chain events
	FinalTime         float64
}

// AcceptanceRate returns the fraction of veto candidates that were confirmed.
func (m *Metrics) AcceptanceRate() float64 {
	if m.VetoCandidates == 0 {
		return 0.0
	}
	return float64(m.VetoCommitted) / float64(m.VetoCandidates)
}

// RecordVetoOutcome counts one resolved veto candidate.
func (m *Metrics) RecordVetoOutcome(outcome trace.VetoOutcome) {
	m.VetoCandidates++
	switch outcome {
	case trace.OutcomeCommitted:
		m.VetoCommitted++
	case trace.OutcomeCancelledEmptyCell:
		m.VetoEmptyCell++
	case trace.OutcomeCancelledThinning:
		m.VetoThinned++
	case trace.OutcomeCancelledNegativeRate:
		m.VetoNegativeRate++
	}
}

// Log writes the run counters through the structured logger.
func (m *Metrics) Log() {
	logrus.WithFields(logrus.Fields{
		"final_time":         m.FinalTime,
		"boundary_crossings": m.BoundaryCrossings,
		"veto_candidates":    m.VetoCandidates,
		"veto_committed":     m.VetoCommitted,
		"veto_empty_cell":    m.VetoEmptyCell,
		"veto_thinned":       m.VetoThinned,
		"veto_negative_rate": m.VetoNegativeRate,
		"acceptance_rate":    m.AcceptanceRate(),
		"chain_ends":         m.ChainEnds,
	}).Info("Run finished")
}
