package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/ecmc-sim/ecmc-sim/sim/bounds"
	"github.com/ecmc-sim/ecmc-sim/sim/cell"
	"github.com/ecmc-sim/ecmc-sim/sim/potential"
	"github.com/ecmc-sim/ecmc-sim/sim/trace"
	"github.com/ecmc-sim/ecmc-sim/sim/walker"
)

// VetoRates bundles the derivative-bound table of one interaction with the
// alias samplers built from it, one sampler per axis of motion. The upper
// samplers serve active units with a positive charge correction factor, the
// negated-lower samplers active units with a negative one. All of it is built
// once and shared read-only by every veto handler of the interaction.
type VetoRates struct {
	table    *bounds.CellBoundTable
	upper    []*walker.Walker
	negLower []*walker.Walker
}

// NewVetoRates builds the per-axis alias samplers from the bound table.
func NewVetoRates(table *bounds.CellBoundTable, dimension int) (*VetoRates, error) {
	if table == nil {
		return nil, fmt.Errorf("veto rates: bound table must not be nil")
	}
	r := &VetoRates{table: table}
	for axis := 0; axis < dimension; axis++ {
		upperWalker, err := walker.New(table.UpperRateItems(axis))
		if err != nil {
			return nil, fmt.Errorf("veto rates: axis %d: %w", axis, err)
		}
		r.upper = append(r.upper, upperWalker)
		if table.HasLowerBounds() {
			lowerWalker, err := walker.New(table.NegatedLowerRateItems(axis))
			if err != nil {
				return nil, fmt.Errorf("veto rates: axis %d: %w", axis, err)
			}
			r.negLower = append(r.negLower, lowerWalker)
		}
	}
	return r, nil
}

// Table returns the underlying bound table.
func (r *VetoRates) Table() *bounds.CellBoundTable {
	return r.table
}

// TotalRate returns the total upper bounding rate of the axis for a unit
// charge correction factor and unit speed.
func (r *VetoRates) TotalRate(axis int) float64 {
	return r.upper[axis].TotalRate()
}

// sampler returns the alias sampler of the axis for the sign of the charge
// correction factor.
func (r *VetoRates) sampler(axis int, chargeFactor float64) *walker.Walker {
	if chargeFactor >= 0.0 {
		return r.upper[axis]
	}
	if r.negLower == nil {
		panic("sampler: negative charge correction factor but the bound table has no lower bounds")
	}
	return r.negLower[axis]
}

// bound returns the per-cell derivative bound of the separation for the sign
// of the charge correction factor.
func (r *VetoRates) bound(separation *cell.Cell, axis int, chargeFactor float64) float64 {
	if chargeFactor >= 0.0 {
		return r.table.UpperBound(separation, axis)
	}
	return r.table.NegatedLowerBound(separation, axis)
}

// HandlerState tracks where a veto handler stands inside one candidate event.
type HandlerState int

const (
	// HandlerIdle means no candidate event time has been requested.
	HandlerIdle HandlerState = iota
	// HandlerAwaitingTargetCell means a candidate event time was returned and
	// the handler waits for the occupant branch of the sampled target cell.
	HandlerAwaitingTargetCell
)

// CellVetoEventHandler proposes and confirms cell-veto events for one active
// unit against the occupant of a sampled far-away cell.
//
// SendEventTime draws an exponential candidate displacement from the total
// bounding event rate of the axis of motion and samples the target cell
// separation from the alias table in constant time. SendOutState then thins
// the candidate: the event is confirmed only when a uniform draw below the
// cell's bounding rate falls under the exact factor derivative of the
// realized pair. Confirmed events lift the velocity onto the target unit.
type CellVetoEventHandler struct {
	geometry  *cell.Geometry
	grid      cell.PeriodicGrid
	rates     *VetoRates
	potential potential.Potential
	estimator bounds.Estimator
	lifting   Lifting
	beta      float64
	slot      int
	trace     *trace.SimulationTrace
	rng       *PartitionedRNG

	state        HandlerState
	unit         *Unit
	axis         int
	speed        float64
	chargeFactor float64
	eventTime    Time
	activeCell   *cell.Cell
	targetCell   *cell.Cell
	boundingRate float64
	outcome      trace.VetoOutcome
	lifted       bool
	nextActive   int
}

// NewCellVetoEventHandler creates one pool slot of the veto mechanism.
func NewCellVetoEventHandler(grid cell.PeriodicGrid, rates *VetoRates, pot potential.Potential,
	estimator bounds.Estimator, lifting Lifting, beta float64, slot int,
	simTrace *trace.SimulationTrace, rng *PartitionedRNG) (*CellVetoEventHandler, error) {
	if grid == nil {
		return nil, fmt.Errorf("veto handler: a periodic cell system is required")
	}
	if rates == nil || pot == nil || estimator == nil || lifting == nil {
		return nil, fmt.Errorf("veto handler: rates, potential, estimator and lifting must not be nil")
	}
	if !(beta > 0.0) {
		return nil, fmt.Errorf("veto handler: beta must be positive, got %v", beta)
	}
	if rng == nil {
		return nil, fmt.Errorf("veto handler: rng must not be nil")
	}
	return &CellVetoEventHandler{
		geometry:  grid.Geometry(),
		grid:      grid,
		rates:     rates,
		potential: pot,
		estimator: estimator,
		lifting:   lifting,
		beta:      beta,
		slot:      slot,
		trace:     simTrace,
		rng:       rng,
	}, nil
}

// Reset abandons any in-flight candidate. The scheduler resets every handler
// before requesting the candidates of the next step.
func (h *CellVetoEventHandler) Reset() {
	h.state = HandlerIdle
	h.unit = nil
	h.activeCell = nil
	h.targetCell = nil
	h.lifted = false
}

// SendEventTime returns the candidate event time of the next cell-veto event
// and the sampled target cell. The in-state must be the branch of the single
// active unit. A zero total bounding rate (all bounds of the axis clamp to
// zero) yields PositiveInfinity and a nil target cell.
func (h *CellVetoEventHandler) SendEventTime(inState []*Unit) (Time, *cell.Cell) {
	if h.state != HandlerIdle {
		panic("SendEventTime: handler still holds an unresolved candidate")
	}
	if len(inState) != 1 {
		panic(fmt.Sprintf("SendEventTime: veto handler expects exactly one branch, got %d", len(inState)))
	}
	unit := inState[0]
	h.unit = unit
	h.lifted = false
	h.axis = activeAxis(unit)
	h.speed = unit.Velocity[h.axis]
	h.chargeFactor = h.estimator.ChargeCorrectionFactor(unit.Charge)
	h.activeCell = h.grid.PositionToCell(unit.Position)

	sampler := h.rates.sampler(h.axis, h.chargeFactor)
	totalRate := sampler.TotalRate() * math.Abs(h.chargeFactor) * h.speed
	if !(totalRate > 0.0) {
		h.eventTime = PositiveInfinity
		h.targetCell = nil
		h.state = HandlerAwaitingTargetCell
		return h.eventTime, nil
	}

	displacementRNG := h.rng.ForSubsystem(SubsystemDisplacement)
	h.eventTime = unit.TimeStamp.Add(displacementRNG.ExpFloat64() / (h.beta * totalRate))

	targetRNG := h.rng.ForSubsystem(SubsystemTargetCell)
	separation := h.grid.Cells()[sampler.Sample(targetRNG)]
	h.boundingRate = h.rates.bound(separation, h.axis, h.chargeFactor) * math.Abs(h.chargeFactor) * h.speed
	if !(h.boundingRate > 0.0) {
		panic(fmt.Sprintf("SendEventTime: sampled separation %v carries non-positive bounding rate %v",
			separation, h.boundingRate))
	}
	h.targetCell = h.grid.Translate(h.activeCell, separation)
	h.state = HandlerAwaitingTargetCell
	return h.eventTime, h.targetCell
}

// SendOutState resolves the candidate. target is the extracted branch of the
// resident unit of the sampled target cell, or nil when the cell holds no
// resident. The returned out-state always contains the time-sliced active
// unit; a confirmed event additionally contains the target unit with the
// velocity lifted onto it.
func (h *CellVetoEventHandler) SendOutState(target *Unit) []*Unit {
	if h.state != HandlerAwaitingTargetCell {
		panic("SendOutState: no candidate event time was requested")
	}
	h.state = HandlerIdle
	unit := h.unit
	h.unit = nil

	unit.AdvanceTo(h.eventTime, h.geometry)
	// A boundary-crossing event must preempt any veto candidate that would
	// carry the active unit out of its cell.
	if owner := h.grid.PositionToCell(unit.Position); owner != h.activeCell {
		panic(fmt.Sprintf("SendOutState: active unit %d left cell %v for %v before the candidate time",
			unit.Identifier, h.activeCell, owner))
	}

	if target == nil {
		h.outcome = trace.OutcomeCancelledEmptyCell
		h.recordVeto(unit, 0.0)
		return []*Unit{unit}
	}

	target.AdvanceTo(h.eventTime, h.geometry)
	separation := h.geometry.SeparationVector(unit.Position, target.Position)
	derivative := h.potential.Derivative(unit.Velocity, separation, unit.Charge, target.Charge)

	if derivative > h.boundingRate {
		logrus.Warnf("Exact derivative %v exceeds the bounding rate %v for units %d and %d; "+
			"increase the estimator prefactor", derivative, h.boundingRate, unit.Identifier, target.Identifier)
		h.trace.RecordBoundViolation(trace.BoundViolationRecord{
			Time:         h.eventTime.Float(),
			Slot:         h.slot,
			ActiveUnit:   unit.Identifier,
			TargetUnit:   target.Identifier,
			BoundingRate: h.boundingRate,
			Derivative:   derivative,
		})
	}

	if derivative <= 0.0 {
		h.outcome = trace.OutcomeCancelledNegativeRate
		h.recordVeto(unit, derivative)
		return []*Unit{unit}
	}
	thinningRNG := h.rng.ForSubsystem(SubsystemThinning)
	if thinningRNG.Float64()*h.boundingRate >= derivative {
		h.outcome = trace.OutcomeCancelledThinning
		h.recordVeto(unit, derivative)
		return []*Unit{unit}
	}

	h.lifting.Reset()
	h.lifting.Insert(derivative, unit.Identifier, true)
	h.lifting.Insert(-derivative, target.Identifier, false)
	liftingRNG := h.rng.ForSubsystem(SubsystemLifting)
	h.nextActive = h.lifting.NextActiveIdentifier(liftingRNG)
	if h.nextActive != target.Identifier {
		panic(fmt.Sprintf("SendOutState: lifting chose unit %d outside the factor pair (%d, %d)",
			h.nextActive, unit.Identifier, target.Identifier))
	}

	target.Velocity = unit.Velocity
	target.TimeStamp = h.eventTime
	unit.Velocity = nil
	h.outcome = trace.OutcomeCommitted
	h.lifted = true
	h.recordVeto(unit, derivative)
	return []*Unit{unit, target}
}

func (h *CellVetoEventHandler) recordVeto(unit *Unit, derivative float64) {
	targetName := ""
	if h.targetCell != nil {
		targetName = h.targetCell.String()
	}
	h.trace.RecordVeto(trace.VetoRecord{
		Time:         h.eventTime.Float(),
		Slot:         h.slot,
		Axis:         h.axis,
		ActiveUnit:   unit.Identifier,
		TargetCell:   targetName,
		Outcome:      h.outcome,
		BoundingRate: h.boundingRate,
		Derivative:   derivative,
	})
}

// TargetCell returns the sampled target cell of the last candidate, or nil
// when the total bounding rate vanished.
func (h *CellVetoEventHandler) TargetCell() *cell.Cell {
	return h.targetCell
}

// Lifted reports whether the last resolved candidate was confirmed and
// transferred the velocity.
func (h *CellVetoEventHandler) Lifted() bool {
	return h.lifted
}

// NextActive returns the identifier activated by the last confirmed event.
func (h *CellVetoEventHandler) NextActive() int {
	return h.nextActive
}

// Outcome returns how the last candidate was resolved.
func (h *CellVetoEventHandler) Outcome() trace.VetoOutcome {
	return h.outcome
}

// Slot returns the pool slot of this handler.
func (h *CellVetoEventHandler) Slot() int {
	return h.slot
}
