// Package trace records per-event decisions of the cell-veto protocol so
// that runs can be audited offline: which target cells were sampled, how
// each candidate was resolved, and every observed bound violation.
package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables veto-decision tracing (zero overhead).
	// Bound violations are recorded regardless of the level.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every cell-veto candidate decision.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects decision records during a run.
type SimulationTrace struct {
	Config     TraceConfig
	Vetoes     []VetoRecord
	Violations []BoundViolationRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:     config,
		Vetoes:     make([]VetoRecord, 0),
		Violations: make([]BoundViolationRecord, 0),
	}
}

// RecordVeto appends a veto decision record when decision tracing is on.
func (st *SimulationTrace) RecordVeto(record VetoRecord) {
	if st.Config.Level != TraceLevelDecisions {
		return
	}
	st.Vetoes = append(st.Vetoes, record)
}

// RecordBoundViolation appends a bound violation record. Violations are
// recorded at every trace level: they signal an estimator defect.
func (st *SimulationTrace) RecordBoundViolation(record BoundViolationRecord) {
	st.Violations = append(st.Violations, record)
}
